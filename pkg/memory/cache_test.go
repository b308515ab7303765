package memory

import (
	"testing"

	"github.com/denizumutdereli/cogkernel/pkg/tensor"
)

func TestPromoteAndCapacityEviction(t *testing.T) {
	c := New(2)
	c.PromoteToCache("a", tensor.New([]float64{1, 0}), 0.1, "t", "1", 0)
	c.PromoteToCache("b", tensor.New([]float64{0, 1}), 0.9, "t", "2", 0)
	if c.Count() != 2 {
		t.Fatalf("count = %d, want 2", c.Count())
	}
	// "a" has the lowest priority and should be evicted to make room for "c".
	c.PromoteToCache("c", tensor.New([]float64{1, 1}), 0.5, "t", "3", 0)
	if c.Count() != 2 {
		t.Fatalf("count = %d, want 2 (capacity enforced)", c.Count())
	}
	snap := c.SnapshotByPriority(10)
	found := map[string]bool{}
	for _, e := range snap {
		found[e.Key] = true
	}
	if found["a"] {
		t.Fatalf("expected lowest-priority entry 'a' to be evicted, snapshot=%+v", snap)
	}
	if !found["b"] || !found["c"] {
		t.Fatalf("expected b and c to survive, snapshot=%+v", snap)
	}
}

func TestPromoteUpdateExisting(t *testing.T) {
	c := New(4)
	c.PromoteToCache("a", tensor.New([]float64{1, 0}), 0.3, "t", "1", 0)
	c.PromoteToCache("a", tensor.New([]float64{1, 0}), 0.1, "t", "1", 0)
	snap := c.SnapshotByPriority(1)
	if snap[0].Fitness != 0.3 {
		t.Fatalf("fitness = %v, want max(0.3,0.1)=0.3", snap[0].Fitness)
	}
	if snap[0].Hits != 1 {
		t.Fatalf("hits = %d, want 1", snap[0].Hits)
	}
}

func TestCosineSimilarityHitTieBreak(t *testing.T) {
	c := New(4)
	v := tensor.New([]float64{1, 0})
	c.PromoteToCache("low-fitness", v, 0.2, "t", "1", 0)
	c.PromoteToCache("high-fitness", v, 0.8, "t", "2", 0)
	res := c.CosineSimilarityHit(v, 0.5)
	if !res.Hit || res.Key != "high-fitness" {
		t.Fatalf("hit = %+v, want high-fitness to win the tie", res)
	}
}

func TestApplyTimeDecayFloor(t *testing.T) {
	c := New(4)
	c.PromoteToCache("a", tensor.New([]float64{1}), 0.5, "t", "1", 0)
	c.ApplyTimeDecay(0.1, 0.20)
	snap := c.SnapshotByPriority(1)
	if snap[0].Fitness != 0.20 {
		t.Fatalf("fitness = %v, want floor 0.20", snap[0].Fitness)
	}
}

func TestClearDropsEntriesAndAnomalies(t *testing.T) {
	c := New(4)
	c.PromoteToCache("a", tensor.New([]float64{1}), 0.5, "t", "1", 0)
	c.FlagAnomaly("a", tensor.New([]float64{1}), true)
	c.Clear()
	if c.Count() != 0 || len(c.GetAnomalies()) != 0 {
		t.Fatalf("clear did not empty cache")
	}
}

func TestCountNeverExceedsCapacity(t *testing.T) {
	c := New(3)
	for i := 0; i < 20; i++ {
		c.PromoteToCache(string(rune('a'+i)), tensor.New([]float64{float64(i), 1}), float64(i)/20.0, "t", "1", 0)
		if c.Count() > c.Capacity() {
			t.Fatalf("count %d exceeded capacity %d", c.Count(), c.Capacity())
		}
	}
}
