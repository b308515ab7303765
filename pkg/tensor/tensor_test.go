package tensor

import (
	"math"
	"testing"

	"github.com/denizumutdereli/cogkernel/pkg/errs"
)

func TestNormalizeL2Unit(t *testing.T) {
	v := New([]float64{3, 4})
	n := NormalizeL2(v)
	got := CosineSimilarity(n, n)
	if math.Abs(got-1) > 1e-6 {
		t.Fatalf("cos(self,self) = %v, want ~1", got)
	}
	norm := math.Hypot(n.Data[0], n.Data[1])
	if math.Abs(norm-1) > 1e-6 {
		t.Fatalf("||normalize(v)|| = %v, want 1", norm)
	}
}

func TestNormalizeL2Zero(t *testing.T) {
	v := New([]float64{0, 0, 0, 0})
	n := NormalizeL2(v)
	want := 1.0 / 2.0
	for _, got := range n.Data {
		if math.Abs(got-want) > 1e-9 {
			t.Fatalf("zero-vector normalize element = %v, want %v", got, want)
		}
	}
}

func TestPermuteRoundTrip(t *testing.T) {
	v := New([]float64{1, 2, 3, 4, 5})
	full := Permute(v, len(v.Data))
	for i := range v.Data {
		if full.Data[i] != v.Data[i] {
			t.Fatalf("Permute(v,N) != v at %d: %v vs %v", i, full.Data[i], v.Data[i])
		}
	}
	shifted := Permute(v, 2)
	back := Permute(shifted, -2)
	for i := range v.Data {
		if back.Data[i] != v.Data[i] {
			t.Fatalf("Permute(Permute(v,a),-a) != v at %d: %v vs %v", i, back.Data[i], v.Data[i])
		}
	}
}

func TestBindIdentity(t *testing.T) {
	v := New([]float64{1, -2, 3, 0.5})
	ones := AllOnes(len(v.Data))
	b, err := Bind(v, ones)
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}
	for i := range v.Data {
		if b.Data[i] != v.Data[i] {
			t.Fatalf("Bind(a,ones) != a at %d: %v vs %v", i, b.Data[i], v.Data[i])
		}
	}
}

func TestBindDimMismatch(t *testing.T) {
	_, err := Bind(New([]float64{1, 2}), New([]float64{1, 2, 3}))
	if err != errs.ErrDimMismatch {
		t.Fatalf("err = %v, want ErrDimMismatch", err)
	}
}

func TestCosineSimilarityOrthogonal(t *testing.T) {
	a := New([]float64{1, 0})
	b := New([]float64{0, 1})
	if got := CosineSimilarity(a, b); math.Abs(got) > 1e-9 {
		t.Fatalf("cos(orthogonal) = %v, want 0", got)
	}
}

func TestCosineSimilarityZeroNorm(t *testing.T) {
	a := New([]float64{0, 0})
	b := New([]float64{1, 1})
	if got := CosineSimilarity(a, b); got != 0 {
		t.Fatalf("cos(zero,b) = %v, want 0", got)
	}
}
