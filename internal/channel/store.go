// Package channel implements the team-shared broadcast store: a fixed-size
// array of 32-bit integer channels addressed by index, and the static layout
// that partitions it into regions.
package channel

import (
	"fmt"
	"sync/atomic"
)

// Channel is an index into the store.
type Channel int

// Channels is the read/write surface every shared-state component uses.
// Single-channel reads and writes are atomic; sequences of them are not.
type Channels interface {
	Get(ch Channel) int32
	Set(ch Channel, v int32)
	CompareAndSwap(ch Channel, old, new int32) bool
}

// Store is the shared channel array for one team. All channels start at 0.
type Store struct {
	cells []atomic.Int32
}

// NewStore allocates a store with size channels.
func NewStore(size int) *Store {
	if size <= 0 {
		panic(fmt.Sprintf("channel store size must be positive, got %d", size))
	}
	return &Store{cells: make([]atomic.Int32, size)}
}

// Size returns the number of channels.
func (s *Store) Size() int { return len(s.cells) }

// Get reads a channel. Out-of-range indices are a programming error and panic.
func (s *Store) Get(ch Channel) int32 {
	return s.cells[s.check(ch)].Load()
}

// Set writes a channel. Out-of-range indices panic.
func (s *Store) Set(ch Channel, v int32) {
	s.cells[s.check(ch)].Store(v)
}

// CompareAndSwap writes new only if the channel still holds old.
func (s *Store) CompareAndSwap(ch Channel, old, new int32) bool {
	return s.cells[s.check(ch)].CompareAndSwap(old, new)
}

// Snapshot copies every channel value.
func (s *Store) Snapshot() []int32 {
	out := make([]int32, len(s.cells))
	for i := range s.cells {
		out[i] = s.cells[i].Load()
	}
	return out
}

// Restore overwrites the store from a snapshot of the same size.
func (s *Store) Restore(values []int32) error {
	if len(values) != len(s.cells) {
		return fmt.Errorf("restore %d values into store of %d channels", len(values), len(s.cells))
	}
	for i, v := range values {
		s.cells[i].Store(v)
	}
	return nil
}

func (s *Store) check(ch Channel) int {
	i := int(ch)
	if i < 0 || i >= len(s.cells) {
		panic(fmt.Sprintf("channel %d out of range [0,%d)", i, len(s.cells)))
	}
	return i
}
