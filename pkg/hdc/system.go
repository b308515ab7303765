package hdc

import (
	"sync"

	"github.com/denizumutdereli/cogkernel/pkg/tensor"
)

// defaultRememberCapacity bounds the recent-memory log so it never grows
// unbounded across a long-lived kernel's lifetime.
const defaultRememberCapacity = 4096

// System bundles a SymbolSpace, a SequenceEncoder over it, and a bounded
// recent-memory log of remembered vectors (HdcSystem in spec 2.4).
type System struct {
	Symbols *SymbolSpace
	Encoder *SequenceEncoder

	mu         sync.Mutex
	remembered []tensor.Tensor
	capacity   int
}

// NewSystem builds a façade with a fresh symbol space and encoder.
func NewSystem() *System {
	symbols := NewSymbolSpace()
	return &System{
		Symbols:  symbols,
		Encoder:  NewSequenceEncoder(symbols),
		capacity: defaultRememberCapacity,
	}
}

// Remember appends a vector to the recent-memory log, evicting the oldest
// entry once the log is at capacity.
func (s *System) Remember(vec tensor.Tensor) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.remembered) >= s.capacity {
		s.remembered = s.remembered[1:]
	}
	s.remembered = append(s.remembered, vec)
}

// RecentMemories returns up to n of the most recently remembered vectors,
// most recent first.
func (s *System) RecentMemories(n int) []tensor.Tensor {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n > len(s.remembered) {
		n = len(s.remembered)
	}
	out := make([]tensor.Tensor, n)
	for i := 0; i < n; i++ {
		out[i] = s.remembered[len(s.remembered)-1-i]
	}
	return out
}

// MemoryCount reports the number of vectors currently remembered.
func (s *System) MemoryCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.remembered)
}
