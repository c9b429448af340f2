// Package locality implements a tree of coordinate frames ("localities").
//
// Every locality has a pose relative to its superior. Poses relative to the
// world or to any other locality are derived by walking the superior chain.
// Localities live in an arena owned by a Tree and are addressed by ID.
package locality

import (
	"fmt"
	gomath "math"

	"github.com/google/uuid"
	"github.com/spaghettifunk/kosmos/engine/core"
	"github.com/spaghettifunk/kosmos/engine/math"
	"github.com/yohamta/donburi"
)

type ID uint32

// InvalidID marks the absence of a locality, e.g. the superior of a root.
const InvalidID ID = gomath.MaxUint32

type Kind uint8

const (
	// KindFixed stores its transform and may own an entity.
	KindFixed Kind = iota
	// KindFloatingOrigin follows an anchor and re-bases onto it when it drifts too far.
	KindFloatingOrigin
	// KindProjectionOrigin is recomputed once per frame from the world origin's anchor.
	KindProjectionOrigin
)

func (k Kind) String() string {
	switch k {
	case KindFixed:
		return "fixed"
	case KindFloatingOrigin:
		return "floating-origin"
	case KindProjectionOrigin:
		return "projection-origin"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

type node struct {
	key  uuid.UUID
	name string
	kind Kind

	// KindFixed
	superior  ID
	entity    donburi.Entity
	hasEntity bool

	// Stored for KindFixed, snapped for KindFloatingOrigin, cached for KindProjectionOrigin.
	local math.Transform

	// KindFloatingOrigin
	anchor      ID
	maxDistance float64
	snaps       uint64

	// KindProjectionOrigin
	source     AnchorSource
	cacheFrame uint64
	cacheValid bool
}

// Tree owns every locality. It is not safe for concurrent use; all calls are
// expected on the simulation goroutine.
type Tree struct {
	nodes *core.IdentifierPool[node]
	frame uint64
}

func NewTree() *Tree {
	return &Tree{
		nodes: core.NewIdentifierPool[node](32),
	}
}

func (t *Tree) get(id ID) (*node, error) {
	if id == InvalidID {
		return nil, invalid(id, nil, ErrUnknownLocality)
	}
	n, ok := t.nodes.Get(uint32(id))
	if !ok {
		return nil, invalid(id, nil, ErrUnknownLocality)
	}
	return n, nil
}

// requireNamed checks that id can be wired in as a superior or anchor.
func (t *Tree) requireNamed(id ID, missing error) (*node, error) {
	n, ok := t.nodes.Get(uint32(id))
	if id == InvalidID || !ok {
		return nil, invalid(id, nil, missing)
	}
	if n.name == "" {
		return nil, invalid(id, n, ErrMissingSuperior)
	}
	return n, nil
}

func (t *Tree) insert(n *node) ID {
	n.key = uuid.New()
	return ID(t.nodes.Acquire(n))
}

// maxDepth bounds every superior walk; a longer walk must have revisited a node.
func (t *Tree) maxDepth() int {
	return t.nodes.Capacity() + 1
}

// Len returns the number of live localities.
func (t *Tree) Len() int {
	return t.nodes.Len()
}

// Exists reports whether id names a live locality.
func (t *Tree) Exists(id ID) bool {
	_, ok := t.nodes.Get(uint32(id))
	return id != InvalidID && ok
}

func (t *Tree) Name(id ID) string {
	if n, ok := t.nodes.Get(uint32(id)); ok {
		return n.name
	}
	return ""
}

// Key returns the unique key given to the locality when it was created.
func (t *Tree) Key(id ID) uuid.UUID {
	if n, ok := t.nodes.Get(uint32(id)); ok {
		return n.key
	}
	return uuid.Nil
}

func (t *Tree) Kind(id ID) (Kind, error) {
	n, err := t.get(id)
	if err != nil {
		return 0, err
	}
	return n.kind, nil
}

// Describe formats id for log lines. The key prefix tells apart localities
// with equal names and slots reused after a Remove.
func (t *Tree) Describe(id ID) string {
	if id == InvalidID {
		return "<none>"
	}
	n, ok := t.nodes.Get(uint32(id))
	if !ok {
		return fmt.Sprintf("<stale #%d>", id)
	}
	return fmt.Sprintf("%s#%d(%s)[%s]", n.name, id, n.kind, shortKey(n.key))
}

func shortKey(key uuid.UUID) string {
	return key.String()[:8]
}

// Handle pins an ID to the locality that held it when the handle was taken.
// IDs are reused once a locality is removed; the key is not.
type Handle struct {
	ID  ID
	Key uuid.UUID
}

// NoHandle refers to no locality.
var NoHandle = Handle{ID: InvalidID}

func (t *Tree) Handle(id ID) Handle {
	if !t.Exists(id) {
		return NoHandle
	}
	return Handle{ID: id, Key: t.Key(id)}
}

// Holds reports whether h still names the locality it was taken from.
func (t *Tree) Holds(h Handle) bool {
	n, ok := t.nodes.Get(uint32(h.ID))
	return h.ID != InvalidID && ok && n.key == h.Key
}

// InheritsRotation reports whether the absolute rotation of id includes its
// superior's rotation. Floating origins always stay aligned with the world axes.
func (t *Tree) InheritsRotation(id ID) bool {
	if n, ok := t.nodes.Get(uint32(id)); ok {
		return n.kind != KindFloatingOrigin
	}
	return true
}

// Superior returns the locality id is expressed in, or InvalidID for a root.
func (t *Tree) Superior(id ID) (ID, error) {
	return t.superior(id, 0)
}

func (t *Tree) superior(id ID, depth int) (ID, error) {
	n, err := t.get(id)
	if err != nil {
		return InvalidID, err
	}
	if depth > t.maxDepth() {
		return InvalidID, invalid(id, n, ErrCyclicHierarchy)
	}
	switch n.kind {
	case KindFixed:
		return n.superior, nil
	case KindFloatingOrigin:
		if n.anchor == InvalidID {
			return InvalidID, invalid(id, n, ErrNilAnchor)
		}
		if n.anchor == id {
			return InvalidID, invalid(id, n, ErrCyclicHierarchy)
		}
		return t.superior(n.anchor, depth+1)
	case KindProjectionOrigin:
		anchor, err := t.projectionAnchor(id, n)
		if err != nil {
			return InvalidID, err
		}
		return t.superior(anchor, depth+1)
	}
	return InvalidID, invalid(id, n, ErrWrongKind)
}

// chain returns id followed by all of its superiors up to the root.
func (t *Tree) chain(id ID) ([]ID, error) {
	out := []ID{id}
	limit := t.maxDepth()
	for current := id; ; {
		next, err := t.Superior(current)
		if err != nil {
			return nil, err
		}
		if next == InvalidID {
			return out, nil
		}
		if len(out) > limit {
			n, _ := t.get(id)
			return nil, invalid(id, n, ErrCyclicHierarchy)
		}
		for _, seen := range out {
			if seen == next {
				n, _ := t.get(id)
				return nil, invalid(id, n, ErrCyclicHierarchy)
			}
		}
		out = append(out, next)
		current = next
	}
}

// LocalTransform returns the pose of id relative to its superior.
func (t *Tree) LocalTransform(id ID) (math.Transform, error) {
	return t.localTransform(id, 0)
}

func (t *Tree) localTransform(id ID, depth int) (math.Transform, error) {
	n, err := t.get(id)
	if err != nil {
		return math.Transform{}, err
	}
	if depth > t.maxDepth() {
		return math.Transform{}, invalid(id, n, ErrCyclicHierarchy)
	}
	if n.kind == KindProjectionOrigin {
		return t.projectionLocal(id, n, depth)
	}
	return n.local, nil
}

// SetTransform replaces the local pose of a fixed locality. Floating and
// projection origins compute their own transforms.
func (t *Tree) SetTransform(id ID, transform math.Transform) error {
	n, err := t.get(id)
	if err != nil {
		return err
	}
	if n.kind != KindFixed {
		return invalid(id, n, ErrExternalMutation)
	}
	n.local = math.NewTransform(transform.Origin, transform.Basis)
	return nil
}

// frameFrom returns the pose of id with its origin measured from ancestor's
// origin (world axes) and its absolute basis. Translations above ancestor are
// never accumulated, which keeps the numbers small for nearby localities.
func (t *Tree) frameFrom(id ID, ancestor ID) (math.Transform, error) {
	chain, err := t.chain(id)
	if err != nil {
		return math.Transform{}, err
	}
	basis := math.NewQuatIdentity()
	offset := math.NewVec3Zero()
	started := ancestor == InvalidID
	for i := len(chain) - 1; i >= 0; i-- {
		current := chain[i]
		local, err := t.LocalTransform(current)
		if err != nil {
			return math.Transform{}, err
		}
		if started {
			offset = offset.Add(basis.Rotate(local.Origin))
		}
		if t.InheritsRotation(current) {
			basis = basis.Mul(local.Basis).Normalize()
		} else {
			basis = local.Basis
		}
		if current == ancestor {
			started = true
			offset = math.NewVec3Zero()
		}
	}
	return math.Transform{Origin: offset, Basis: basis}, nil
}

// commonAncestor returns the closest locality both a and b descend from
// (inclusive), or InvalidID when they live in separate trees.
func (t *Tree) commonAncestor(a, b ID) (ID, error) {
	chainA, err := t.chain(a)
	if err != nil {
		return InvalidID, err
	}
	chainB, err := t.chain(b)
	if err != nil {
		return InvalidID, err
	}
	seen := make(map[ID]struct{}, len(chainA))
	for _, id := range chainA {
		seen[id] = struct{}{}
	}
	for _, id := range chainB {
		if _, ok := seen[id]; ok {
			return id, nil
		}
	}
	return InvalidID, nil
}

// AbsoluteTransform composes local transforms from id up to its root.
func (t *Tree) AbsoluteTransform(id ID) (math.Transform, error) {
	return t.frameFrom(id, InvalidID)
}

// RelativeTransform returns the pose of id expressed in other's frame,
// inverse(other.Absolute) * id.Absolute, evaluated through the closest
// common ancestor.
func (t *Tree) RelativeTransform(id, other ID) (math.Transform, error) {
	if id == other {
		if _, err := t.get(id); err != nil {
			return math.Transform{}, err
		}
		return math.TransformIdentity(), nil
	}
	ancestor, err := t.commonAncestor(id, other)
	if err != nil {
		return math.Transform{}, err
	}
	from, err := t.frameFrom(id, ancestor)
	if err != nil {
		return math.Transform{}, err
	}
	to, err := t.frameFrom(other, ancestor)
	if err != nil {
		return math.Transform{}, err
	}
	return to.Inverse().Mul(from), nil
}

// DistanceTo returns the distance between the origins of id and other.
func (t *Tree) DistanceTo(id, other ID) (float64, error) {
	rel, err := t.RelativeTransform(id, other)
	if err != nil {
		return 0, err
	}
	return rel.Origin.Length(), nil
}

// Translate moves id by offset expressed in its own frame.
func (t *Tree) Translate(id ID, offset math.Vec3) error {
	local, err := t.mutableLocal(id)
	if err != nil {
		return err
	}
	return t.SetTransform(id, local.Translated(offset))
}

// Rotate turns id about its own axes (free look).
func (t *Tree) Rotate(id ID, yaw, pitch, roll float64) error {
	local, err := t.mutableLocal(id)
	if err != nil {
		return err
	}
	return t.SetTransform(id, local.RotatedLocal(math.NewQuatFromYawPitchRoll(yaw, pitch, roll)))
}

// RotateEcliptic yaws about the world up axis and pitches/rolls about the
// locality's own axes (orbital look).
func (t *Tree) RotateEcliptic(id ID, yaw, pitch, roll float64) error {
	local, err := t.mutableLocal(id)
	if err != nil {
		return err
	}
	up, err := t.worldUpIn(id)
	if err != nil {
		return err
	}
	yawQ := math.NewQuatFromAxisAngle(up, yaw, true)
	rest := math.NewQuatFromYawPitchRoll(0, pitch, roll)
	return t.SetTransform(id, local.RotatedGlobal(yawQ).RotatedLocal(rest))
}

// worldUpIn returns the world +Y axis expressed in the frame of id's superior.
func (t *Tree) worldUpIn(id ID) (math.Vec3, error) {
	superior, err := t.Superior(id)
	if err != nil || superior == InvalidID {
		return math.NewVec3Up(), err
	}
	abs, err := t.AbsoluteTransform(superior)
	if err != nil {
		return math.Vec3{}, err
	}
	return abs.Basis.Inverse().Rotate(math.NewVec3Up()), nil
}

// LookAt points the forward axis of id at target, both in the superior's frame.
func (t *Tree) LookAt(id ID, target, up math.Vec3) error {
	local, err := t.mutableLocal(id)
	if err != nil {
		return err
	}
	n, _ := t.get(id)
	direction := target.Sub(local.Origin)
	if direction.LengthSquared() < math.K_CMP_EPSILON {
		return invalid(id, n, ErrDegenerateLookAt)
	}
	forward := direction.Normalized()
	right := forward.Cross(up)
	if right.LengthSquared() < math.K_CMP_EPSILON {
		return invalid(id, n, ErrDegenerateLookAt)
	}
	right = right.Normalized()
	newUp := right.Cross(forward)
	basis := math.NewQuatFromBasis(right, newUp, forward.Negate())
	return t.SetTransform(id, local.WithBasis(basis))
}

func (t *Tree) mutableLocal(id ID) (math.Transform, error) {
	n, err := t.get(id)
	if err != nil {
		return math.Transform{}, err
	}
	if n.kind != KindFixed {
		return math.Transform{}, invalid(id, n, ErrExternalMutation)
	}
	return n.local, nil
}

// Validate reports the first invariant id violates, as a *ValidationError.
func (t *Tree) Validate(id ID) error {
	n, err := t.get(id)
	if err != nil {
		return err
	}
	if n.name == "" {
		return invalid(id, n, ErrUnnamedLocality)
	}
	switch n.kind {
	case KindFixed:
		if n.superior != InvalidID && (!t.Exists(n.superior) || t.Name(n.superior) == "") {
			return invalid(id, n, ErrMissingSuperior)
		}
	case KindFloatingOrigin:
		if n.anchor == InvalidID {
			return invalid(id, n, ErrNilAnchor)
		}
		if !t.Exists(n.anchor) {
			return invalid(id, n, ErrNilAnchor)
		}
		if t.Name(n.anchor) == "" {
			return invalid(id, n, ErrMissingSuperior)
		}
		if !validThreshold(n.maxDistance) {
			return invalid(id, n, ErrInvalidThreshold)
		}
	case KindProjectionOrigin:
		if n.source == nil {
			return invalid(id, n, ErrNoAnchorSource)
		}
	}
	if _, err := t.chain(id); err != nil {
		return err
	}
	return nil
}

// Remove deletes id from the tree. Localities that are still used as a
// superior or an anchor cannot be removed.
func (t *Tree) Remove(id ID) error {
	n, err := t.get(id)
	if err != nil {
		return err
	}
	var inUse error
	t.nodes.Each(func(other uint32, o *node) {
		if inUse != nil || ID(other) == id {
			return
		}
		if (o.kind == KindFixed && o.superior == id) || (o.kind == KindFloatingOrigin && o.anchor == id) {
			inUse = invalid(id, n, fmt.Errorf("%w by %s", ErrLocalityInUse, t.Describe(ID(other))))
		}
	})
	if inUse != nil {
		return inUse
	}
	core.LogDebug("removing locality %s", t.Describe(id))
	return t.nodes.Release(uint32(id))
}
