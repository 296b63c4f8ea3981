// Package lazysync tracks which synchronized sub-states changed since they
// were last sent to the client.
package lazysync

import "github.com/fxamacker/cbor/v2"

// Cell wraps a value with a dirty flag. Reads never clear the flag, Mutate
// sets it and Sync consumes it. The zero Cell holds the zero value and is
// clean. Cells are owned by a single game loop and are not safe for
// concurrent use.
type Cell[T any] struct {
	value T
	dirty bool
}

// New returns a dirty cell holding value so the first sync sends it.
func New[T any](value T) Cell[T] {
	return Cell[T]{value: value, dirty: true}
}

// Read returns the current value without touching the dirty flag. Mutating
// reference fields of the returned value bypasses dirty tracking.
func (c *Cell[T]) Read() T {
	return c.value
}

// Mutate returns a pointer to the value and marks the cell dirty.
func (c *Cell[T]) Mutate() *T {
	c.dirty = true
	return &c.value
}

// Set replaces the value and marks the cell dirty.
func (c *Cell[T]) Set(value T) {
	c.value = value
	c.dirty = true
}

// Sync returns the value and true if the cell is dirty, clearing the flag.
func (c *Cell[T]) Sync() (T, bool) {
	if !c.dirty {
		var zero T
		return zero, false
	}
	c.dirty = false
	return c.value, true
}

// Dirty reports whether the value changed since the last sync.
func (c *Cell[T]) Dirty() bool {
	return c.dirty
}

// MarkDirty forces the next sync to send the value.
func (c *Cell[T]) MarkDirty() {
	c.dirty = true
}

// MarshalCBOR encodes only the wrapped value.
func (c Cell[T]) MarshalCBOR() ([]byte, error) {
	return cbor.Marshal(c.value)
}

// UnmarshalCBOR decodes the wrapped value and marks the cell dirty so a
// restored cell is sent on the next sync.
func (c *Cell[T]) UnmarshalCBOR(data []byte) error {
	if err := cbor.Unmarshal(data, &c.value); err != nil {
		return err
	}
	c.dirty = true
	return nil
}
