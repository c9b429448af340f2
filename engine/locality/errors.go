package locality

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	ErrUnknownLocality    = errors.New("unknown locality")
	ErrUnnamedLocality    = errors.New("locality has no name")
	ErrMissingSuperior    = errors.New("superior locality is missing or unnamed")
	ErrCyclicHierarchy    = errors.New("locality hierarchy contains a cycle")
	ErrNilAnchor          = errors.New("floating origin has no anchor")
	ErrInvalidThreshold   = errors.New("snap distance must be a positive finite number")
	ErrExternalMutation   = errors.New("locality transform is computed and cannot be set")
	ErrWrongKind          = errors.New("operation does not apply to this kind of locality")
	ErrDegenerateLookAt   = errors.New("look-at target is degenerate")
	ErrLocalityInUse      = errors.New("locality is still referenced")
	ErrNoAnchorSource     = errors.New("projection origin has no anchor source")
	ErrUnknownMethodology = errors.New("unknown re-anchoring methodology")
)

// ValidationError reports which locality broke which invariant. The
// violated sentinel is available through errors.Is.
type ValidationError struct {
	ID   ID
	Name string
	Key  uuid.UUID
	Err  error
}

func (e *ValidationError) Error() string {
	name := e.Name
	if name == "" {
		name = "<unnamed>"
	}
	if e.Key == uuid.Nil {
		return fmt.Sprintf("locality %q (id %d): %v", name, e.ID, e.Err)
	}
	return fmt.Sprintf("locality %q (id %d, key %s): %v", name, e.ID, shortKey(e.Key), e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func invalid(id ID, n *node, err error) error {
	ve := &ValidationError{ID: id, Err: err}
	if n != nil {
		ve.Name = n.name
		ve.Key = n.key
	}
	return ve
}
