package locality

import (
	"fmt"

	"github.com/spaghettifunk/kosmos/engine/core"
	"github.com/spaghettifunk/kosmos/engine/math"
	"github.com/yohamta/donburi"
)

// Methodology selects how the local transform is chosen when a locality is
// moved under a new superior.
type Methodology uint8

const (
	// RecomputeToPreserveAbsolutePose keeps the world pose unchanged.
	RecomputeToPreserveAbsolutePose Methodology = iota
	// KeepExistingLocalTransform reuses the local transform under the new superior.
	KeepExistingLocalTransform
	// UseNewTransform takes the transform supplied by the caller.
	UseNewTransform
)

func (m Methodology) String() string {
	switch m {
	case RecomputeToPreserveAbsolutePose:
		return "recompute"
	case KeepExistingLocalTransform:
		return "keep-local"
	case UseNewTransform:
		return "use-new"
	}
	return fmt.Sprintf("methodology(%d)", uint8(m))
}

// NewFixed creates a locality with a stored transform under superior.
// Pass InvalidID to create a root.
func (t *Tree) NewFixed(name string, superior ID, transform math.Transform) (ID, error) {
	if name == "" {
		return InvalidID, invalid(InvalidID, nil, ErrUnnamedLocality)
	}
	if superior != InvalidID {
		if _, err := t.requireNamed(superior, ErrUnknownLocality); err != nil {
			return InvalidID, fmt.Errorf("creating %q: %w", name, err)
		}
	}
	id := t.insert(&node{
		name:     name,
		kind:     KindFixed,
		superior: superior,
		local:    math.NewTransform(transform.Origin, transform.Basis),
		anchor:   InvalidID,
	})
	return id, nil
}

// AttachEntity makes the fixed locality the owner of entity.
func (t *Tree) AttachEntity(id ID, entity donburi.Entity) error {
	n, err := t.fixed(id)
	if err != nil {
		return err
	}
	n.entity = entity
	n.hasEntity = true
	return nil
}

func (t *Tree) DetachEntity(id ID) error {
	n, err := t.fixed(id)
	if err != nil {
		return err
	}
	n.entity = donburi.Null
	n.hasEntity = false
	return nil
}

// Entity returns the entity owned by id, if any.
func (t *Tree) Entity(id ID) (donburi.Entity, bool) {
	n, ok := t.nodes.Get(uint32(id))
	if !ok || id == InvalidID || !n.hasEntity {
		return donburi.Null, false
	}
	return n.entity, true
}

// Children returns every live locality whose superior is id.
func (t *Tree) Children(id ID) []ID {
	var out []ID
	t.nodes.Each(func(other uint32, _ *node) {
		if ID(other) == id {
			return
		}
		if sup, err := t.Superior(ID(other)); err == nil && sup == id {
			out = append(out, ID(other))
		}
	})
	return out
}

func (t *Tree) fixed(id ID) (*node, error) {
	n, err := t.get(id)
	if err != nil {
		return nil, err
	}
	if n.kind != KindFixed {
		return nil, invalid(id, n, ErrWrongKind)
	}
	return n, nil
}

// poseUnder returns the pose of id expressed in superior's frame.
func (t *Tree) poseUnder(id, superior ID) (math.Transform, error) {
	if superior == InvalidID {
		return t.AbsoluteTransform(id)
	}
	return t.RelativeTransform(id, superior)
}

func (t *Tree) reanchoredTransform(id ID, n *node, superior ID, methodology Methodology, transform math.Transform) (math.Transform, error) {
	switch methodology {
	case RecomputeToPreserveAbsolutePose:
		return t.poseUnder(id, superior)
	case KeepExistingLocalTransform:
		return t.LocalTransform(id)
	case UseNewTransform:
		return math.NewTransform(transform.Origin, transform.Basis), nil
	}
	return math.Transform{}, invalid(id, n, fmt.Errorf("%w: %d", ErrUnknownMethodology, methodology))
}

// rewire applies change to n and keeps it only if every superior chain that
// depends on id still ends in a root. Floating origins anchored on id follow
// its superior, so their chains are walked too.
func (t *Tree) rewire(id ID, n *node, change func()) error {
	saved := *n
	change()
	err := t.acyclicAround(id)
	if err == nil && n.kind == KindFloatingOrigin {
		err = t.Validate(id)
	}
	if err != nil {
		*n = saved
		return err
	}
	return nil
}

func (t *Tree) acyclicAround(id ID) error {
	if _, err := t.chain(id); err != nil {
		return err
	}
	var err error
	t.nodes.Each(func(other uint32, o *node) {
		if err != nil || o.kind != KindFloatingOrigin || o.anchor != id {
			return
		}
		_, err = t.chain(ID(other))
	})
	return err
}

// Reanchored creates a new fixed locality with the same name and entity as
// id, placed under newSuperior. The transform argument is only read for
// UseNewTransform. The original locality is left untouched.
func (t *Tree) Reanchored(id, newSuperior ID, methodology Methodology, transform math.Transform) (ID, error) {
	n, err := t.fixed(id)
	if err != nil {
		return InvalidID, err
	}
	local, err := t.reanchoredTransform(id, n, newSuperior, methodology, transform)
	if err != nil {
		return InvalidID, err
	}
	created, err := t.NewFixed(n.name, newSuperior, local)
	if err != nil {
		return InvalidID, err
	}
	if n.hasEntity {
		if err := t.AttachEntity(created, n.entity); err != nil {
			return InvalidID, err
		}
	}
	core.LogDebug("reanchored %s under %s (%s) as #%d", t.Describe(id), t.Describe(newSuperior), methodology, created)
	return created, nil
}

// Reanchor moves id under newSuperior in place. For a floating origin
// newSuperior is the new anchor; only the origin of the computed pose is kept.
func (t *Tree) Reanchor(id, newSuperior ID, methodology Methodology, transform math.Transform) error {
	n, err := t.get(id)
	if err != nil {
		return err
	}
	switch n.kind {
	case KindFixed:
		if newSuperior != InvalidID {
			if err := t.checkSuperior(id, n, newSuperior); err != nil {
				return err
			}
		}
		local, err := t.reanchoredTransform(id, n, newSuperior, methodology, transform)
		if err != nil {
			return err
		}
		if err := t.rewire(id, n, func() {
			n.superior = newSuperior
			n.local = local
		}); err != nil {
			return err
		}
	case KindFloatingOrigin:
		if err := t.checkAnchor(id, n, newSuperior); err != nil {
			return err
		}
		anchorSuperior, err := t.Superior(newSuperior)
		if err != nil {
			return err
		}
		local, err := t.reanchoredTransform(id, n, anchorSuperior, methodology, transform)
		if err != nil {
			return err
		}
		if methodology != UseNewTransform {
			local = math.TransformFromOrigin(local.Origin)
		}
		if err := t.rewire(id, n, func() {
			n.anchor = newSuperior
			n.local = local
		}); err != nil {
			return err
		}
	default:
		return invalid(id, n, ErrExternalMutation)
	}
	core.LogDebug("reanchored %s under %s (%s)", t.Describe(id), t.Describe(newSuperior), methodology)
	return nil
}

// ReplaceSuperior rewires the parent of id without touching its local
// transform. For a floating origin the new superior is its new anchor.
func (t *Tree) ReplaceSuperior(id, newSuperior ID) error {
	n, err := t.get(id)
	if err != nil {
		return err
	}
	switch n.kind {
	case KindFixed:
		if newSuperior != InvalidID {
			if err := t.checkSuperior(id, n, newSuperior); err != nil {
				return err
			}
		}
		return t.rewire(id, n, func() { n.superior = newSuperior })
	case KindFloatingOrigin:
		if err := t.checkAnchor(id, n, newSuperior); err != nil {
			return err
		}
		return t.rewire(id, n, func() { n.anchor = newSuperior })
	}
	return invalid(id, n, ErrExternalMutation)
}

func (t *Tree) checkSuperior(id ID, n *node, superior ID) error {
	if _, err := t.requireNamed(superior, ErrUnknownLocality); err != nil {
		return err
	}
	if superior == id {
		return invalid(id, n, ErrCyclicHierarchy)
	}
	return nil
}

func (t *Tree) checkAnchor(id ID, n *node, anchor ID) error {
	if anchor == InvalidID {
		return invalid(id, n, ErrNilAnchor)
	}
	return t.checkSuperior(id, n, anchor)
}
