// Package scheduler implements SleepCycleScheduler: an entropy estimator over
// the working-memory cache plus a priority-ordered trigger policy deciding
// when the kernel should sleep/consolidate.
//
// Grounded in the teacher's pkg/lifecycle/manager.go for its
// threshold-field-plus-trigger-method naming and callback-on-transition
// idiom; the 4-state activity state machine itself is not reused — this
// scheduler is a stateless entropy-threshold evaluator, not a lifecycle FSM,
// and its background-ticker (StartMonitor) is intentionally not carried over
// since spec section 5 mandates synchronous, polled scheduling (see
// DESIGN.md, "Open tension").
package scheduler

import (
	"time"

	"github.com/denizumutdereli/cogkernel/pkg/memory"
)

// Reason is a stable wire value naming why (or whether) a sleep cycle triggered.
type Reason string

const (
	ReasonNone              Reason = "none"
	ReasonManual             Reason = "manual"
	ReasonMetabolicDrain     Reason = "metabolic_drain"
	ReasonCognitiveOverload  Reason = "cognitive_overload"
	ReasonIdleConsolidation  Reason = "idle_consolidation"
)

// Scheduler holds SleepCycleScheduler state.
type Scheduler struct {
	CognitiveEntropyBuffer              float64
	CriticalSleepThresholdPercent       float64
	MaxEntropyCapacity                  float64
	OptimalConsolidationIntervalSeconds float64
	IdleWindowSeconds                   float64
	LastSleepUtc                        time.Time
	LastActivityUtc                     time.Time
	InterruptsLocked                    bool
	SleepCycles                         uint64
	LastTrigger                         Reason
}

// New builds a scheduler with clamped configuration:
// criticalSleepThresholdPercent in [0.01,0.95], maxEntropyCapacity in [0.05,1].
func New(criticalSleepThresholdPercent, maxEntropyCapacity, optimalConsolidationIntervalSeconds, idleWindowSeconds float64, now time.Time) *Scheduler {
	if criticalSleepThresholdPercent < 0.01 {
		criticalSleepThresholdPercent = 0.01
	}
	if criticalSleepThresholdPercent > 0.95 {
		criticalSleepThresholdPercent = 0.95
	}
	if maxEntropyCapacity < 0.05 {
		maxEntropyCapacity = 0.05
	}
	if maxEntropyCapacity > 1 {
		maxEntropyCapacity = 1
	}
	return &Scheduler{
		CriticalSleepThresholdPercent:       criticalSleepThresholdPercent,
		MaxEntropyCapacity:                  maxEntropyCapacity,
		OptimalConsolidationIntervalSeconds: optimalConsolidationIntervalSeconds,
		IdleWindowSeconds:                   idleWindowSeconds,
		LastSleepUtc:                        now,
		LastActivityUtc:                     now,
		LastTrigger:                         ReasonNone,
	}
}

// MarkActivity records that the kernel processed an input at time now.
func (s *Scheduler) MarkActivity(now time.Time) {
	s.LastActivityUtc = now
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// EstimateEntropy computes the cognitive entropy buffer over the top-64
// cache entries by priority.
func EstimateEntropy(cache *memory.Cache) float64 {
	top := cache.SnapshotByPriority(64)
	count := len(top)
	if count == 0 {
		return 0
	}

	weights := make([]float64, count)
	var sumW float64
	unresolved := 0
	for i, e := range top {
		w := e.Fitness
		if w < 0.01 {
			w = 0.01
		}
		w = w / (1 + float64(e.Hits))
		weights[i] = w
		sumW += w
		if e.Hits == 0 || e.Fitness > 0.90 {
			unresolved++
		}
	}

	var concentration float64
	if sumW > 0 {
		for _, w := range weights {
			p := w / sumW
			concentration += p * p
		}
	}
	diversity := 1 - concentration
	load := float64(count) / float64(cache.Capacity())
	unresolvedRatio := float64(unresolved) / float64(count)

	return clamp01(0.55*diversity + 0.30*load + 0.15*unresolvedRatio)
}

// MonitorMetabolicLoad recomputes entropy from cache, evaluates the trigger
// priority policy against energyPct and idle/since-* timers, and — if a
// non-None reason is picked — atomically locks interrupts and increments
// SleepCycles. Returns the chosen reason (ReasonNone if nothing fired).
func (s *Scheduler) MonitorMetabolicLoad(cache *memory.Cache, energyPct float64, idle bool, now time.Time) Reason {
	s.CognitiveEntropyBuffer = EstimateEntropy(cache)

	reason := s.decide(energyPct, idle, now)
	s.LastTrigger = reason
	if reason != ReasonNone {
		s.lockHardwareInterrupts(reason)
		s.SleepCycles++
	}
	return reason
}

func (s *Scheduler) decide(energyPct float64, idle bool, now time.Time) Reason {
	if energyPct < s.CriticalSleepThresholdPercent {
		return ReasonMetabolicDrain
	}
	if s.CognitiveEntropyBuffer > s.MaxEntropyCapacity {
		return ReasonCognitiveOverload
	}
	sinceSleep := now.Sub(s.LastSleepUtc).Seconds()
	sinceActivity := now.Sub(s.LastActivityUtc).Seconds()
	if idle && sinceSleep >= s.OptimalConsolidationIntervalSeconds && sinceActivity >= s.IdleWindowSeconds {
		return ReasonIdleConsolidation
	}
	return ReasonNone
}

// lockHardwareInterrupts is idempotent: locking an already-locked scheduler
// is a no-op besides recording the reason.
func (s *Scheduler) lockHardwareInterrupts(reason Reason) {
	s.InterruptsLocked = true
	s.LastTrigger = reason
}

// CompleteSleep unlocks interrupts, zeros entropy, and advances both
// timestamps to now.
func (s *Scheduler) CompleteSleep(now time.Time) {
	s.InterruptsLocked = false
	s.CognitiveEntropyBuffer = 0
	s.LastSleepUtc = now
	s.LastActivityUtc = now
}

// Reset reinitializes counters as of now, without changing configuration.
func (s *Scheduler) Reset(now time.Time) {
	s.CognitiveEntropyBuffer = 0
	s.InterruptsLocked = false
	s.SleepCycles = 0
	s.LastTrigger = ReasonNone
	s.LastSleepUtc = now
	s.LastActivityUtc = now
}

// TriggerManual forces a ReasonManual sleep cycle, used by
// ProgramManifold.sleep() and admin-triggered consolidation.
func (s *Scheduler) TriggerManual(now time.Time) {
	s.lockHardwareInterrupts(ReasonManual)
	s.SleepCycles++
}
