package locality

import "github.com/spaghettifunk/kosmos/engine/math"

// AnchorSource reports the locality the world origin is really tracking.
type AnchorSource interface {
	FloatingAnchor() (ID, error)
}

// NewProjectionOrigin creates a locality that sits on the anchor reported
// by source, without its rotation. Its transform is recomputed at most once
// per frame and its superior follows source on every call.
func (t *Tree) NewProjectionOrigin(name string, source AnchorSource) (ID, error) {
	if name == "" {
		return InvalidID, invalid(InvalidID, nil, ErrUnnamedLocality)
	}
	if source == nil {
		return InvalidID, &ValidationError{ID: InvalidID, Name: name, Err: ErrNoAnchorSource}
	}
	return t.insert(&node{
		name:     name,
		kind:     KindProjectionOrigin,
		superior: InvalidID,
		anchor:   InvalidID,
		source:   source,
	}), nil
}

// BeginFrame starts a new frame. Cached projection transforms computed
// during another frame are stale from now on.
func (t *Tree) BeginFrame(frame uint64) {
	t.frame = frame
}

func (t *Tree) Frame() uint64 {
	return t.frame
}

func (t *Tree) projectionAnchor(id ID, n *node) (ID, error) {
	if n.source == nil {
		return InvalidID, invalid(id, n, ErrNoAnchorSource)
	}
	anchor, err := n.source.FloatingAnchor()
	if err != nil {
		return InvalidID, err
	}
	if anchor == id {
		return InvalidID, invalid(id, n, ErrCyclicHierarchy)
	}
	return anchor, nil
}

func (t *Tree) projectionLocal(id ID, n *node, depth int) (math.Transform, error) {
	if n.cacheValid && n.cacheFrame == t.frame {
		return n.local, nil
	}
	anchor, err := t.projectionAnchor(id, n)
	if err != nil {
		return math.Transform{}, err
	}
	anchorLocal, err := t.localTransform(anchor, depth+1)
	if err != nil {
		return math.Transform{}, err
	}
	n.local = math.TransformFromOrigin(anchorLocal.Origin)
	n.cacheFrame = t.frame
	n.cacheValid = true
	return n.local, nil
}
