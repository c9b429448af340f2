package core

import "fmt"

// IdentifierPool hands out small integer ids and reuses released slots.
type IdentifierPool[T any] struct {
	owners []*T
}

func NewIdentifierPool[T any](capacity int) *IdentifierPool[T] {
	return &IdentifierPool[T]{owners: make([]*T, 0, capacity)}
}

// Acquire stores owner in the first free slot and returns its id.
func (p *IdentifierPool[T]) Acquire(owner *T) uint32 {
	length := uint32(len(p.owners))
	for i := uint32(0); i < length; i++ {
		// Existing free spot. Take it.
		if p.owners[i] == nil {
			p.owners[i] = owner
			return i
		}
	}

	// If here, no existing free slots. Need a new id, so push one.
	// This means the id will be length - 1
	p.owners = append(p.owners, owner)
	return uint32(len(p.owners)) - 1
}

// Release frees the slot of id so it can be reused.
func (p *IdentifierPool[T]) Release(id uint32) error {
	length := uint32(len(p.owners))
	if id >= length {
		return fmt.Errorf("identifier release: id '%d' out of range (max=%d). Nothing was done", id, length)
	}
	if p.owners[id] == nil {
		return fmt.Errorf("identifier release: id '%d' is not in use. Nothing was done", id)
	}

	// Just zero out the entry, making it available for use.
	p.owners[id] = nil
	return nil
}

// Get returns the owner of id, if the slot is in use.
func (p *IdentifierPool[T]) Get(id uint32) (*T, bool) {
	if id >= uint32(len(p.owners)) || p.owners[id] == nil {
		return nil, false
	}
	return p.owners[id], true
}

// Len returns the number of slots in use.
func (p *IdentifierPool[T]) Len() int {
	n := 0
	for _, o := range p.owners {
		if o != nil {
			n++
		}
	}
	return n
}

// Capacity returns the number of slots ever allocated.
func (p *IdentifierPool[T]) Capacity() int {
	return len(p.owners)
}

// Each calls fn for every slot in use, in id order.
func (p *IdentifierPool[T]) Each(fn func(id uint32, owner *T)) {
	for i, o := range p.owners {
		if o != nil {
			fn(uint32(i), o)
		}
	}
}
