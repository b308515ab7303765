package kernel

import "time"

// BatchStats tallies the outcomes of a BatchController.Run call.
type BatchStats struct {
	Processed int
	Succeeded int
	Reflex    int
	DeepThink int
	Zombie    int
	Sleep     int
	Failures  int
}

// BatchController is a FIFO queue of pending DataStreams drained against a
// KernelLoop up to a per-call budget, grounded in the teacher's
// pkg/concurrency/pool.go bounded-work idiom (drain at most N items per call
// rather than unboundedly, so a burst of ingest can't starve sleep scheduling).
type BatchController struct {
	pending []DataStream
}

// NewBatchController builds an empty queue.
func NewBatchController() *BatchController {
	return &BatchController{}
}

// Enqueue appends a DataStream to the back of the queue.
func (b *BatchController) Enqueue(ds DataStream) {
	b.pending = append(b.pending, ds)
}

// Len reports the number of items still queued.
func (b *BatchController) Len() int {
	return len(b.pending)
}

// Run drains up to maxItems queued DataStreams through k.Ingest, tallying
// outcomes into a BatchStats. Items beyond maxItems remain queued for a
// future call.
func (b *BatchController) Run(k *KernelLoop, now time.Time, maxItems int) BatchStats {
	var stats BatchStats
	n := maxItems
	if n > len(b.pending) {
		n = len(b.pending)
	}

	for i := 0; i < n; i++ {
		ds := b.pending[i]
		result := k.Ingest(now, ds)
		stats.Processed++
		if result.Success {
			stats.Succeeded++
		} else {
			stats.Failures++
		}
		if result.ReflexHit {
			stats.Reflex++
		}
		if result.DeepThinkPath {
			stats.DeepThink++
		}
		if result.ZombieTriggered {
			stats.Zombie++
		}
		if result.SleepTriggered {
			stats.Sleep++
		}
	}

	b.pending = b.pending[n:]
	return stats
}
