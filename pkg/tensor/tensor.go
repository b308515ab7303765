// Package tensor implements the dense float vector type and the algebra
// (bind, permute, normalize, cosine similarity) the rest of the kernel is
// built on. Vectors are currently always 1-D, matching the HDC substrate's
// needs; Shape is carried so a future multi-dimensional tensor would not
// require a breaking API change.
package tensor

import (
	"math"

	"github.com/denizumutdereli/cogkernel/pkg/errs"
	"gonum.org/v1/gonum/floats"
)

// denormalFloor treats values smaller than this in magnitude as zero during
// normalization, tolerating float32 denormals per spec 4.1.
const denormalFloor = 1e-12

// Tensor is a dense float vector. Data is float64 internally for numerical
// stability in the dot-product/norm reductions (gonum/floats operates on
// float64), but every value written to or read from a Tensor is expected to
// have originated from, or round-trip losslessly through, float32 — the
// holographic file format persists vectors as f32[dim] (spec section 6).
type Tensor struct {
	Shape []int
	Data  []float64
}

// Total returns the product of Shape, i.e. len(Data) for a well-formed Tensor.
func (t Tensor) Total() int {
	total := 1
	for _, s := range t.Shape {
		total *= s
	}
	return total
}

// New builds a 1-D Tensor from data.
func New(data []float64) Tensor {
	return Tensor{Shape: []int{len(data)}, Data: data}
}

// Empty reports whether the tensor carries no values.
func (t Tensor) Empty() bool {
	return len(t.Data) == 0
}

// Flatten returns a 1-D copy of the tensor's values.
func (t Tensor) Flatten() Tensor {
	cp := make([]float64, len(t.Data))
	copy(cp, t.Data)
	return New(cp)
}

// Len returns the vector length.
func (t Tensor) Len() int { return len(t.Data) }

// Bind computes the elementwise product of a and b. Fails with
// errs.ErrDimMismatch if the lengths differ.
func Bind(a, b Tensor) (Tensor, error) {
	if len(a.Data) != len(b.Data) {
		return Tensor{}, errs.ErrDimMismatch
	}
	out := make([]float64, len(a.Data))
	for i := range a.Data {
		out[i] = a.Data[i] * b.Data[i]
	}
	return New(out), nil
}

// Permute cyclically shifts a by steps mod N. Positive steps shift toward
// higher indices. Length is preserved.
func Permute(a Tensor, steps int) Tensor {
	n := len(a.Data)
	if n == 0 {
		return a.Flatten()
	}
	s := ((steps % n) + n) % n
	if s == 0 {
		return a.Flatten()
	}
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[(i+s)%n] = a.Data[i]
	}
	return New(out)
}

// NormalizeL2 returns a / ||a||₂. Values with |v| < denormalFloor are treated
// as zero while accumulating the norm. On an all-zero (or empty) vector,
// returns a vector of 1/sqrt(N) so that cosine similarity with itself is 1.
func NormalizeL2(a Tensor) Tensor {
	n := len(a.Data)
	if n == 0 {
		return a.Flatten()
	}
	clean := make([]float64, n)
	for i, v := range a.Data {
		if math.Abs(v) < denormalFloor {
			v = 0
		}
		clean[i] = v
	}
	norm := floats.Norm(clean, 2)
	if norm < denormalFloor {
		fill := 1.0 / math.Sqrt(float64(n))
		out := make([]float64, n)
		for i := range out {
			out[i] = fill
		}
		return New(out)
	}
	out := make([]float64, n)
	for i, v := range clean {
		out[i] = v / norm
	}
	return New(out)
}

// CosineSimilarity computes ⟨a,b⟩ / (||a|| · ||b||). Returns 0 if either
// vector has zero norm, and 0 (not an error) on length mismatch, since
// callers that need strict dimensional checking use Bind/EncodeTokens
// instead, which already enforce matching dims before similarity is ever
// computed on these vectors.
func CosineSimilarity(a, b Tensor) float64 {
	n := len(a.Data)
	if n == 0 || n != len(b.Data) {
		return 0
	}
	dot := floats.Dot(a.Data, b.Data)
	na := floats.Norm(a.Data, 2)
	nb := floats.Norm(b.Data, 2)
	if na < denormalFloor || nb < denormalFloor {
		return 0
	}
	return dot / (na * nb)
}

// AllOnes returns a length-n vector of 1.0, used by tests to exercise the
// Bind identity invariant.
func AllOnes(n int) Tensor {
	out := make([]float64, n)
	for i := range out {
		out[i] = 1
	}
	return New(out)
}
