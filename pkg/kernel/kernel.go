// Package kernel implements KernelLoop: the cognitive ingest pipeline tying
// together hdc, memory, metabolism, scheduler, substrate, adapter, ruleset
// and hfs into the system spec.md calls the Cognitive Kernel Core.
//
// Grounded in the teacher's pkg/core/brain.go Brain.ProcessTick orchestration
// style — a single entrypoint method fanning out to the collaborating
// subsystems in a fixed order, returning one rich result struct the caller
// can log or serialize wholesale — adapted from a per-tick neuron sweep to
// the 9-step ingest pipeline named in spec section 4.8.
package kernel

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/denizumutdereli/cogkernel/pkg/adapter"
	"github.com/denizumutdereli/cogkernel/pkg/errs"
	"github.com/denizumutdereli/cogkernel/pkg/hdc"
	"github.com/denizumutdereli/cogkernel/pkg/memory"
	"github.com/denizumutdereli/cogkernel/pkg/metabolism"
	"github.com/denizumutdereli/cogkernel/pkg/scheduler"
	"github.com/denizumutdereli/cogkernel/pkg/substrate"
	"github.com/denizumutdereli/cogkernel/pkg/tensor"
)

// Outcome is a stable wire value naming how an ingest call resolved.
type Outcome string

const (
	OutcomeSystem1Reflex     Outcome = "system1_reflex"
	OutcomeSystem2Volatile   Outcome = "system2_volatile_hit"
	OutcomeZombieMode        Outcome = "zombie_mode"
	OutcomeFatigueLimit      Outcome = "fatigue_limit"
	OutcomeEncodeFailed      Outcome = "encode_failed"
	OutcomeFailed            Outcome = "failed"
)

// DataStream is one unit of ingest input (spec section 3). NewDataStream
// mints a DatasetID via uuid.NewString when the caller leaves it blank,
// matching the teacher's pattern of minting identity at the boundary rather
// than deep inside the pipeline.
type DataStream struct {
	DatasetType string
	DatasetID   string
	Payload     string
	DimHint     int
}

// NewDataStream builds a DataStream, auto-generating DatasetID when blank.
func NewDataStream(datasetType, datasetID, payload string, dimHint int) DataStream {
	if strings.TrimSpace(datasetID) == "" {
		datasetID = uuid.NewString()
	}
	return DataStream{DatasetType: datasetType, DatasetID: datasetID, Payload: payload, DimHint: dimHint}
}

func toAdapterStream(in DataStream) adapter.DataStream {
	return adapter.DataStream{
		DatasetType: in.DatasetType,
		DatasetID:   in.DatasetID,
		Payload:     in.Payload,
		DimHint:     in.DimHint,
	}
}

// IngestResult is the outcome of one KernelLoop.Ingest call.
type IngestResult struct {
	Success            bool
	ReflexHit          bool
	DeepThinkPath      bool
	ZombieTriggered    bool
	SleepTriggered     bool
	DiscoveryTriggered bool
	Iterations         int
	Outcome            Outcome
	Error              string
	SleepReason        scheduler.Reason
	CacheKey           string
	Similarity         float64
	EnergyRemaining    float64
	Profile            adapter.SignalProfile
}

// StatusSnapshot is a point-in-time composite view of the kernel's state,
// suitable for msgpack encoding over the MCP/HTTP surfaces.
type StatusSnapshot struct {
	ProcessedInputs  uint64          `msgpack:"processed_inputs"`
	EnergyRemaining  float64         `msgpack:"energy_remaining"`
	EnergyPercent    float64         `msgpack:"energy_percent"`
	ZombieModeActive bool            `msgpack:"zombie_mode_active"`
	CacheEntries     int             `msgpack:"cache_entries"`
	CacheCapacity    int             `msgpack:"cache_capacity"`
	AnomalyCount     int             `msgpack:"anomaly_count"`
	SleepCycles      uint64          `msgpack:"sleep_cycles"`
	LastSleepReason  scheduler.Reason `msgpack:"last_sleep_reason"`
	InterruptsLocked bool            `msgpack:"interrupts_locked"`
	SubstrateKnown   bool            `msgpack:"substrate_known"`
	Substrate        substrate.Reading `msgpack:"substrate"`
}

// EncodeStatusSnapshot serializes a snapshot for wire transport, mirroring
// the teacher's EncodeSnapshot/DecodeSnapshot pairing.
func EncodeStatusSnapshot(s StatusSnapshot) ([]byte, error) {
	return msgpack.Marshal(s)
}

// DecodeStatusSnapshot deserializes a snapshot produced by EncodeStatusSnapshot.
func DecodeStatusSnapshot(data []byte) (StatusSnapshot, error) {
	var s StatusSnapshot
	err := msgpack.Unmarshal(data, &s)
	return s, err
}

// Defaults applied by New when the caller passes <= 0 for the corresponding
// config-driven field, matching DefaultConfig()'s Encoding values.
const (
	defaultMaxDeepThinkIterations = 64
	defaultMemorySnapshotSize     = 12
	defaultEncodingDim            = 1024
)

const discoveryPermuteShift = 42

// KernelLoop bundles every collaborating subsystem behind a single ingest
// entrypoint.
type KernelLoop struct {
	Hdc        *hdc.System
	WM         *memory.Cache
	Metabolism *metabolism.Metabolism
	Scheduler  *scheduler.Scheduler
	Substrate  *substrate.Monitor

	K, Stride, MaxKmers int

	// DefaultDim, MaxIterations and MemorySnapshotSize come from
	// cfg.Encoding.{DefaultDim,MaxIterations,MemorySnapshotSize} so operators
	// can retune them without a rebuild.
	DefaultDim         int
	MaxIterations      int
	MemorySnapshotSize int

	processedInputs uint64
}

// New builds a KernelLoop from its already-constructed collaborators.
// defaultDim, maxIterations and memorySnapshotSize come from
// cfg.Encoding.{DefaultDim,MaxIterations,MemorySnapshotSize}; a value <= 0
// falls back to the spec's worked-example defaults.
func New(h *hdc.System, wm *memory.Cache, m *metabolism.Metabolism, sch *scheduler.Scheduler, sub *substrate.Monitor, k, stride, maxKmers int, defaultDim, maxIterations, memorySnapshotSize int) *KernelLoop {
	if defaultDim <= 0 {
		defaultDim = defaultEncodingDim
	}
	if maxIterations <= 0 {
		maxIterations = defaultMaxDeepThinkIterations
	}
	if memorySnapshotSize <= 0 {
		memorySnapshotSize = defaultMemorySnapshotSize
	}
	return &KernelLoop{
		Hdc: h, WM: wm, Metabolism: m, Scheduler: sch, Substrate: sub,
		K: k, Stride: stride, MaxKmers: maxKmers,
		DefaultDim: defaultDim, MaxIterations: maxIterations, MemorySnapshotSize: memorySnapshotSize,
	}
}

// Ingest runs the full 9-step pipeline described in spec section 4.8:
// refresh substrate, validate input, normalize + mark activity, analyze
// heuristics + encode, remember, check the working-memory cache for a
// reflex hit, else run a bounded deep-think search, and finally tick
// bookkeeping (processed count + opportunistic sleep check).
func (k *KernelLoop) Ingest(now time.Time, input DataStream) IngestResult {
	k.RefreshSubstrate()

	if strings.TrimSpace(input.Payload) == "" {
		return IngestResult{Outcome: OutcomeFailed, Error: errs.ErrMissingInput.Error()}
	}

	input.DatasetType = adapter.NormalizeType(input.DatasetType)
	k.Scheduler.MarkActivity(now)

	as := toAdapterStream(input)
	profile := adapter.AnalyzeHeuristics(as)

	target, err := adapter.L2NormalizeAndFlatten(k.Hdc.Encoder, as, k.K, k.Stride, k.MaxKmers, k.DefaultDim)
	if err != nil {
		return IngestResult{Outcome: OutcomeEncodeFailed, Error: errs.ErrEncodeFailed.Error(), Profile: profile}
	}
	k.Hdc.Remember(target)

	cacheKey := input.DatasetType + ":" + input.DatasetID

	if hit := k.WM.CosineSimilarityHit(target, profile.System1SimilarityThreshold); hit.Hit {
		cost := 1.0 + profile.DeepThinkCostBias*0.15
		k.Metabolism.Consume(cost)
		k.WM.PromoteToCache(hit.Key, target, hit.Similarity, input.DatasetType, input.DatasetID, cost)
		result := IngestResult{
			Success: true, ReflexHit: true, Outcome: OutcomeSystem1Reflex,
			CacheKey: hit.Key, Similarity: hit.Similarity,
			EnergyRemaining: k.Metabolism.CurrentEnergyBudget, Profile: profile,
		}
		result.SleepReason, result.SleepTriggered = k.tick(now)
		return result
	}

	result := k.deepThink(now, target, profile, cacheKey, input)
	result.SleepReason, result.SleepTriggered = k.tick(now)
	return result
}

// RefreshSubstrate polls the substrate probe and, on a successful reading,
// rescales Metabolism's MaxCapacity from RecommendedKernelBudget (spec
// section 4.8 step 1: "Refresh substrate (may rescale metabolism)"). Ingest
// calls this on every pass; a host can also poll it independently on a timer
// (e.g. cfg.Substrate.PollIntervalSeconds) to keep the budget current during
// idle stretches between ingests.
func (k *KernelLoop) RefreshSubstrate() substrate.Reading {
	reading := k.Substrate.Refresh()
	if reading.RecommendedKernelBudget > 0 {
		k.Metabolism.RescaleMaxCapacity(reading.RecommendedKernelBudget, true)
	}
	return reading
}

func (k *KernelLoop) deepThink(now time.Time, target tensor.Tensor, profile adapter.SignalProfile, cacheKey string, input DataStream) IngestResult {
	snap := k.WM.SnapshotByPriority(k.MemorySnapshotSize)
	candidates := make([]tensor.Tensor, len(snap))
	for i, e := range snap {
		candidates[i] = e.Vector
	}

	var best adapter.Candidate
	haveBest := false
	iterations := 0
	discoveryTriggered := false

	for iterations = 0; iterations < k.MaxIterations; iterations++ {
		if !k.Metabolism.CanDeepThink() {
			break
		}

		cand, err := adapter.RouteDynamicConnectome(target, profile, candidates, iterations)
		if err != nil {
			return IngestResult{Outcome: OutcomeFailed, Error: err.Error(), Profile: profile, DeepThinkPath: true, Iterations: iterations}
		}
		cost := adapter.CalculateThermodynamicCost(profile, iterations)
		k.Metabolism.Consume(cost)

		if !haveBest || cand.Fitness > best.Fitness {
			best = cand
			haveBest = true
		}

		if adapter.PassesCriticThreshold(cand.Fitness, profile, k.Metabolism) {
			k.WM.PromoteToCache(cacheKey, target, best.Fitness, input.DatasetType, input.DatasetID, cost)
			if cand.Strategy == adapter.StrategyDiscoveryInduction {
				discoveryTriggered = true
				probe := tensor.Permute(target, discoveryPermuteShift)
				if gap, gapErr := adapter.DeduceGeometricGap(target, probe); gapErr == nil {
					k.WM.FlagAnomaly(cacheKey, gap, true)
				}
			}
			iterations++
			return IngestResult{
				Success: true, DeepThinkPath: true, DiscoveryTriggered: discoveryTriggered,
				Iterations: iterations, Outcome: OutcomeSystem2Volatile,
				CacheKey: cacheKey, Similarity: best.Similarity,
				EnergyRemaining: k.Metabolism.CurrentEnergyBudget, Profile: profile,
			}
		}
	}

	if k.Metabolism.ZombieModeActive {
		return IngestResult{
			DeepThinkPath: true, ZombieTriggered: true, Iterations: iterations,
			Outcome: OutcomeZombieMode, Error: errs.ErrFatigueThresholdReached.Error(),
			EnergyRemaining: k.Metabolism.CurrentEnergyBudget, Profile: profile,
		}
	}
	return IngestResult{
		DeepThinkPath: true, Iterations: iterations,
		Outcome: OutcomeFatigueLimit, Error: errs.ErrFatigueThresholdReached.Error(),
		EnergyRemaining: k.Metabolism.CurrentEnergyBudget, Profile: profile,
	}
}

// tick increments processedInputs and opportunistically checks whether a
// sleep cycle should trigger (idle=false, since this call is itself
// activity). Idle-triggered consolidation is driven by TryIdleSleep instead.
func (k *KernelLoop) tick(now time.Time) (scheduler.Reason, bool) {
	k.processedInputs++
	reason := k.evaluateSleep(now, false)
	return reason, reason != scheduler.ReasonNone
}

func (k *KernelLoop) evaluateSleep(now time.Time, idle bool) scheduler.Reason {
	reason := k.Scheduler.MonitorMetabolicLoad(k.WM, k.Metabolism.EnergyPercent(), idle, now)
	if reason != scheduler.ReasonNone {
		k.triggerSleepCycle(now, reason)
	}
	return reason
}

// TryIdleSleep lets a host poll for idle-consolidation opportunities
// between ingest calls, since the scheduler's idle-window reason can only
// fire when the caller reports idle=true.
func (k *KernelLoop) TryIdleSleep(now time.Time) scheduler.Reason {
	return k.evaluateSleep(now, true)
}

// triggerSleepCycle runs the sleep-time consolidation sequence named in
// spec section 4.9: consolidate flagged anomalies into the cache, clear
// them, decay cache fitness, recharge the energy budget, and mark the
// scheduler's sleep as complete.
func (k *KernelLoop) triggerSleepCycle(now time.Time, reason scheduler.Reason) {
	adapter.ConsolidateMemory(k.WM)
	k.WM.ClearAnomalies()
	k.WM.ApplyTimeDecay(0.93, 0.20)
	k.Metabolism.Recharge(0)
	k.Scheduler.CompleteSleep(now)
}

// TriggerManualSleep forces an out-of-band sleep cycle, used by
// ProgramManifold.Sleep and admin-triggered consolidation.
func (k *KernelLoop) TriggerManualSleep(now time.Time) {
	k.Scheduler.TriggerManual(now)
	k.triggerSleepCycle(now, scheduler.ReasonManual)
}

// Status composes a point-in-time snapshot of every subsystem's state.
func (k *KernelLoop) Status() StatusSnapshot {
	reading, known := k.Substrate.LastKnown()
	return StatusSnapshot{
		ProcessedInputs:  k.processedInputs,
		EnergyRemaining:  k.Metabolism.CurrentEnergyBudget,
		EnergyPercent:    k.Metabolism.EnergyPercent(),
		ZombieModeActive: k.Metabolism.ZombieModeActive,
		CacheEntries:     k.WM.Count(),
		CacheCapacity:    k.WM.Capacity(),
		AnomalyCount:     len(k.WM.GetAnomalies()),
		SleepCycles:      k.Scheduler.SleepCycles,
		LastSleepReason:  k.Scheduler.LastTrigger,
		InterruptsLocked: k.Scheduler.InterruptsLocked,
		SubstrateKnown:   known,
		Substrate:        reading,
	}
}
