// Package memory implements WorkingMemoryCache, a capacity-bounded,
// priority-ordered cache of candidate vectors plus a parallel anomaly set
// fed by deep-think discovery.
//
// Grounded in the teacher's pkg/engine/matrix_ops.go capacity-checked insert
// with lowest-priority eviction, and pkg/core/types.go's exported
// Lock/Unlock/RLock/RUnlock wrapper idiom for cross-package locking
// discipline — WorkingMemoryCache exposes a single exclusive lock per
// instance per spec section 5, so there is no RLock/Lock split here: every
// public operation (including snapshots) takes the same mutex.
package memory

import (
	"sort"
	"sync"

	"github.com/denizumutdereli/cogkernel/pkg/tensor"
)

// ageDecayRate converts ageTicks into the subtractive term of Priority. The
// spec names the formula "fitness*(1+hits) - ageDecay" but does not pin down
// ageDecay's shape; a small linear rate is chosen here so that age only
// meaningfully affects priority after dozens of ticks without ever starving
// a high-fitness, frequently-hit entry.
const ageDecayRate = 0.001

// CacheEntry is one WorkingMemoryCache slot.
type CacheEntry struct {
	Key      string
	Vector   tensor.Tensor
	Fitness  float64
	Hits     uint32
	AgeTicks uint64
	Type     string
	ID       string
	Burn     float64
}

// Priority implements fitness*(1+hits) - ageDecay.
func (e CacheEntry) Priority() float64 {
	return e.Fitness*(1+float64(e.Hits)) - float64(e.AgeTicks)*ageDecayRate
}

// DeducedConstraint is an anomaly discovered during deep-think, stored
// alongside the cache key it was observed for.
type DeducedConstraint struct {
	Key    string
	Vector tensor.Tensor
}

// Cache is the WorkingMemoryCache: a capacity-bounded priority cache plus a
// parallel anomaly map.
type Cache struct {
	mu       sync.Mutex
	capacity int
	entries  map[string]*CacheEntry
	anomalies map[string]*DeducedConstraint
}

// New creates an empty cache with the given capacity.
func New(capacity int) *Cache {
	if capacity < 1 {
		capacity = 1
	}
	return &Cache{
		capacity:  capacity,
		entries:   make(map[string]*CacheEntry),
		anomalies: make(map[string]*DeducedConstraint),
	}
}

// Count returns the number of live entries.
func (c *Cache) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Capacity returns the configured capacity.
func (c *Cache) Capacity() int {
	return c.capacity
}

// Lookup returns a copy of the entry stored under key, if any.
func (c *Cache) Lookup(key string) (CacheEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return CacheEntry{}, false
	}
	return *e, true
}

// HitResult is the outcome of CosineSimilarityHit.
type HitResult struct {
	Hit        bool
	Key        string
	Similarity float64
	Entry      CacheEntry
}

// CosineSimilarityHit scans all entries, computing cosine similarity against
// vec, and returns the best entry whose similarity is >= threshold. Ties are
// broken by higher fitness, then by older age (larger AgeTicks).
func (c *Cache) CosineSimilarityHit(vec tensor.Tensor, threshold float64) HitResult {
	c.mu.Lock()
	defer c.mu.Unlock()

	var best *CacheEntry
	var bestSim float64
	for _, e := range c.entries {
		sim := tensor.CosineSimilarity(vec, e.Vector)
		if sim < threshold {
			continue
		}
		if best == nil || better(sim, *e, bestSim, *best) {
			best = e
			bestSim = sim
		}
	}
	if best == nil {
		return HitResult{}
	}
	return HitResult{Hit: true, Key: best.Key, Similarity: bestSim, Entry: *best}
}

// better reports whether candidate (simB, eb) should replace the current
// best (simA, ea): higher similarity wins; ties go to higher fitness, then
// to the older (larger AgeTicks) entry.
func better(simB float64, eb CacheEntry, simA float64, ea CacheEntry) bool {
	if simB != simA {
		return simB > simA
	}
	if eb.Fitness != ea.Fitness {
		return eb.Fitness > ea.Fitness
	}
	return eb.AgeTicks > ea.AgeTicks
}

// PromoteToCache upserts an entry. On update, fitness = max(old,new), hits
// increments, and age resets to 0. On insert when at capacity, the
// lowest-priority entry is evicted first. Every call ages all other entries
// by one tick.
func (c *Cache) PromoteToCache(key string, vec tensor.Tensor, fitness float64, typ, id string, burn float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for k, e := range c.entries {
		if k != key {
			e.AgeTicks++
		}
	}

	if existing, ok := c.entries[key]; ok {
		if fitness > existing.Fitness {
			existing.Fitness = fitness
		}
		existing.Hits++
		existing.AgeTicks = 0
		existing.Vector = vec
		existing.Type = typ
		existing.ID = id
		existing.Burn = burn
		return
	}

	if len(c.entries) >= c.capacity {
		c.evictLowestPriorityLocked()
	}

	c.entries[key] = &CacheEntry{
		Key:      key,
		Vector:   vec,
		Fitness:  fitness,
		Hits:     0,
		AgeTicks: 0,
		Type:     typ,
		ID:       id,
		Burn:     burn,
	}
}

func (c *Cache) evictLowestPriorityLocked() {
	var worstKey string
	var worstPriority float64
	first := true
	for k, e := range c.entries {
		p := e.Priority()
		if first || p < worstPriority {
			worstKey = k
			worstPriority = p
			first = false
		}
	}
	if !first {
		delete(c.entries, worstKey)
	}
}

// SnapshotByPriority returns up to k copies of the highest-priority entries,
// descending.
func (c *Cache) SnapshotByPriority(k int) []CacheEntry {
	c.mu.Lock()
	defer c.mu.Unlock()

	all := make([]CacheEntry, 0, len(c.entries))
	for _, e := range c.entries {
		all = append(all, *e)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Priority() > all[j].Priority() })
	if k < len(all) {
		all = all[:k]
	}
	return all
}

// FlagAnomaly records a deduced constraint for key, or nil to clear a
// previously recorded one without removing it from iteration (matches spec's
// "key -> DeducedConstraint|null").
func (c *Cache) FlagAnomaly(key string, vec tensor.Tensor, present bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !present {
		c.anomalies[key] = nil
		return
	}
	c.anomalies[key] = &DeducedConstraint{Key: key, Vector: vec}
}

// GetAnomalies returns a copy of the anomaly map.
func (c *Cache) GetAnomalies() map[string]*DeducedConstraint {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]*DeducedConstraint, len(c.anomalies))
	for k, v := range c.anomalies {
		out[k] = v
	}
	return out
}

// ClearAnomalies drops all anomaly entries.
func (c *Cache) ClearAnomalies() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.anomalies = make(map[string]*DeducedConstraint)
}

// ApplyTimeDecay sets fitness = max(floor, fitness*multiplier) on every entry.
func (c *Cache) ApplyTimeDecay(multiplier, floor float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, e := range c.entries {
		decayed := e.Fitness * multiplier
		if decayed < floor {
			decayed = floor
		}
		e.Fitness = decayed
	}
}

// Clear drops all entries and anomalies.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*CacheEntry)
	c.anomalies = make(map[string]*DeducedConstraint)
}
