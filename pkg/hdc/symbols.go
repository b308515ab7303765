// Package hdc implements the hyperdimensional-computing substrate: a named
// vector registry (SymbolSpace), text/k-mer tokenization and superposed
// encoding (SequenceEncoder), and a façade (HdcSystem) bundling both with a
// recent-memory log.
package hdc

import (
	"fmt"
	"hash/fnv"
	"math/rand"
	"sync"

	"github.com/denizumutdereli/cogkernel/pkg/errs"
	"github.com/denizumutdereli/cogkernel/pkg/tensor"
)

// SymbolSpace is a mapping name -> vector with unique keys. SymbolDim is
// locked on first registration; later registrations or resolutions at a
// different dim fail.
type SymbolSpace struct {
	mu        sync.Mutex
	vectors   map[string]tensor.Tensor
	symbolDim int // 0 until first registration
}

// NewSymbolSpace creates an empty symbol space.
func NewSymbolSpace() *SymbolSpace {
	return &SymbolSpace{vectors: make(map[string]tensor.Tensor)}
}

// SymbolDim returns the locked dimensionality, or 0 if nothing is registered yet.
func (s *SymbolSpace) SymbolDim() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.symbolDim
}

// Register inserts or overwrites a named vector. Fails with
// errs.ErrDimConflict if a dim is already locked and vec does not match it.
func (s *SymbolSpace) Register(name string, vec tensor.Tensor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.registerLocked(name, vec)
}

func (s *SymbolSpace) registerLocked(name string, vec tensor.Tensor) error {
	if s.symbolDim == 0 {
		s.symbolDim = vec.Len()
	} else if vec.Len() != s.symbolDim {
		return errs.ErrDimConflict
	}
	s.vectors[name] = vec
	return nil
}

// ResolveSymbol returns the vector for name at requestedDim, minting one
// deterministically (seeded by fnv64(name)) on miss: dim values drawn
// uniformly from [-1,1], then L2-normalized, then registered.
func (s *SymbolSpace) ResolveSymbol(name string, requestedDim int) (tensor.Tensor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if vec, ok := s.vectors[name]; ok {
		if requestedDim != 0 && vec.Len() != requestedDim {
			return tensor.Tensor{}, errs.ErrDimMismatch
		}
		return vec, nil
	}

	dim := requestedDim
	if dim == 0 {
		if s.symbolDim != 0 {
			dim = s.symbolDim
		} else {
			dim = 1024
		}
	}
	vec := synthesize(name, dim)
	if err := s.registerLocked(name, vec); err != nil {
		return tensor.Tensor{}, err
	}
	return vec, nil
}

// ResolveTokens resolves every token, short-circuiting with
// errs.ErrDimMismatch wrapped with the offending token on the first failure.
func (s *SymbolSpace) ResolveTokens(tokens []string, requestedDim int) ([]tensor.Tensor, error) {
	out := make([]tensor.Tensor, 0, len(tokens))
	for _, tok := range tokens {
		vec, err := s.ResolveSymbol(tok, requestedDim)
		if err != nil {
			return nil, fmt.Errorf("%w: token %q", err, tok)
		}
		out = append(out, vec)
	}
	return out, nil
}

// synthesize deterministically generates a dim-length vector from name via a
// seeded RNG (seed = fnv64(name)), then L2-normalizes it.
func synthesize(name string, dim int) tensor.Tensor {
	h := fnv.New64a()
	_, _ = h.Write([]byte(name))
	seed := int64(h.Sum64())
	rng := rand.New(rand.NewSource(seed))
	data := make([]float64, dim)
	for i := range data {
		data[i] = rng.Float64()*2 - 1 // uniform in [-1,1]
	}
	return tensor.NormalizeL2(tensor.New(data))
}
