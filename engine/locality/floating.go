package locality

import (
	gomath "math"

	"github.com/spaghettifunk/kosmos/engine/core"
	"github.com/spaghettifunk/kosmos/engine/math"
)

// DefaultMaxDistance is the snap threshold used when none is given. It must
// stay well above the distance an anchor can travel in a single tick.
const DefaultMaxDistance = 500.0

func validThreshold(d float64) bool {
	return d > 0 && !gomath.IsNaN(d) && !gomath.IsInf(d, 0)
}

func normalizeThreshold(d float64) (float64, error) {
	if d == 0 {
		return DefaultMaxDistance, nil
	}
	if !validThreshold(d) {
		return 0, ErrInvalidThreshold
	}
	return d, nil
}

// NewFloatingOrigin creates a floating origin that follows anchor. The new
// locality shares the anchor's superior and is snapped onto the anchor
// before it is returned. A maxDistance of 0 selects DefaultMaxDistance.
func (t *Tree) NewFloatingOrigin(name string, anchor ID, maxDistance float64) (ID, error) {
	if name == "" {
		return InvalidID, invalid(InvalidID, nil, ErrUnnamedLocality)
	}
	if anchor == InvalidID {
		return InvalidID, &ValidationError{ID: InvalidID, Name: name, Err: ErrNilAnchor}
	}
	if _, err := t.requireNamed(anchor, ErrUnknownLocality); err != nil {
		return InvalidID, err
	}
	threshold, err := normalizeThreshold(maxDistance)
	if err != nil {
		return InvalidID, &ValidationError{ID: InvalidID, Name: name, Err: err}
	}
	id := t.insert(&node{
		name:        name,
		kind:        KindFloatingOrigin,
		superior:    InvalidID,
		anchor:      anchor,
		maxDistance: threshold,
		local:       math.TransformIdentity(),
	})
	n, _ := t.get(id)
	if err := t.snap(id, n); err != nil {
		_ = t.nodes.Release(uint32(id))
		return InvalidID, err
	}
	core.LogDebug("created floating origin %s anchored on %s (max distance %.1f)", t.Describe(id), t.Describe(anchor), threshold)
	return id, nil
}

func (t *Tree) floating(id ID) (*node, error) {
	n, err := t.get(id)
	if err != nil {
		return nil, err
	}
	if n.kind != KindFloatingOrigin {
		return nil, invalid(id, n, ErrWrongKind)
	}
	return n, nil
}

// snap re-bases n onto its anchor: a pure translation at the anchor's local origin.
func (t *Tree) snap(id ID, n *node) error {
	if n.anchor == InvalidID {
		return invalid(id, n, ErrNilAnchor)
	}
	anchorLocal, err := t.LocalTransform(n.anchor)
	if err != nil {
		return err
	}
	n.local = math.TransformFromOrigin(anchorLocal.Origin)
	return nil
}

// Update runs the per-tick step of id. Floating origins snap onto their
// anchor once it is strictly farther than the max distance; every other
// kind of locality has nothing to do.
func (t *Tree) Update(id ID, deltaTime float64) (bool, error) {
	step, err := t.Advance(id, deltaTime)
	return step.Snapped, err
}

// Step is the outcome of Advance. Distance is the anchor distance the snap
// decision was made on, measured before any snap.
type Step struct {
	Snapped  bool
	Distance float64
}

// Advance is Update that also reports the measured distance.
func (t *Tree) Advance(id ID, deltaTime float64) (Step, error) {
	n, err := t.get(id)
	if err != nil {
		return Step{}, err
	}
	if n.kind != KindFloatingOrigin {
		return Step{}, nil
	}
	distance, err := t.DistanceToReferenceOrigin(id)
	if err != nil {
		return Step{}, err
	}
	if distance <= n.maxDistance {
		return Step{Distance: distance}, nil
	}
	if err := t.snap(id, n); err != nil {
		return Step{Distance: distance}, err
	}
	n.snaps++
	core.LogDebug("floating origin %s snapped after drifting %.3f", t.Describe(id), distance)
	return Step{Snapped: true, Distance: distance}, nil
}

// ForceSnap re-bases id onto its anchor regardless of the distance.
func (t *Tree) ForceSnap(id ID) error {
	n, err := t.floating(id)
	if err != nil {
		return err
	}
	if err := t.snap(id, n); err != nil {
		return err
	}
	n.snaps++
	return nil
}

// DistanceToReferenceOrigin returns how far the anchor has drifted from id.
func (t *Tree) DistanceToReferenceOrigin(id ID) (float64, error) {
	n, err := t.floating(id)
	if err != nil {
		return 0, err
	}
	if n.anchor == InvalidID {
		return 0, invalid(id, n, ErrNilAnchor)
	}
	return t.DistanceTo(n.anchor, id)
}

func (t *Tree) Anchor(id ID) (ID, error) {
	n, err := t.floating(id)
	if err != nil {
		return InvalidID, err
	}
	return n.anchor, nil
}

func (t *Tree) MaxDistance(id ID) (float64, error) {
	n, err := t.floating(id)
	if err != nil {
		return 0, err
	}
	return n.maxDistance, nil
}

// SetMaxDistance changes the snap threshold of id. 0 restores the default.
func (t *Tree) SetMaxDistance(id ID, maxDistance float64) error {
	n, err := t.floating(id)
	if err != nil {
		return err
	}
	threshold, err := normalizeThreshold(maxDistance)
	if err != nil {
		return invalid(id, n, err)
	}
	n.maxDistance = threshold
	return nil
}

// SnapCount returns how many times id has snapped since it was created.
func (t *Tree) SnapCount(id ID) (uint64, error) {
	n, err := t.floating(id)
	if err != nil {
		return 0, err
	}
	return n.snaps, nil
}
