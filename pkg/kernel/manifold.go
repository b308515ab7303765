package kernel

import (
	"time"

	"github.com/denizumutdereli/cogkernel/pkg/hdc"
	"github.com/denizumutdereli/cogkernel/pkg/memory"
	"github.com/denizumutdereli/cogkernel/pkg/metabolism"
	"github.com/denizumutdereli/cogkernel/pkg/ruleset"
	"github.com/denizumutdereli/cogkernel/pkg/scheduler"
	"github.com/denizumutdereli/cogkernel/pkg/substrate"
	"github.com/denizumutdereli/cogkernel/pkg/tensor"
)

const geometricShiftIntent = "execute_geometric_shift"

// Host is the subset of a hosting KernelLoop a ProgramManifold needs:
// a shared HdcSystem (so symbol registrations are visible across tenants)
// and a substrate monitor to derive its sub-budget from.
type Host struct {
	Hdc       *hdc.System
	Substrate *substrate.Monitor
}

// ProgramManifold is a per-tenant sub-kernel sharing the host's HdcSystem
// but owning its own WorkingMemoryCache, Metabolism and Scheduler, plus a
// private Ruleset that evolves across sleep cycles (spec section 4.9).
type ProgramManifold struct {
	Kernel  *KernelLoop
	Ruleset *ruleset.Ruleset

	host *Host
}

// NewProgramManifold allocates a sub-budget from host (percentage of its
// substrate-recommended kernel budget, floored at minimum), builds a private
// KernelLoop around it sharing host's HdcSystem, and registers rs's symbol
// overrides into the shared SymbolSpace.
func NewProgramManifold(host *Host, rs *ruleset.Ruleset, cacheCapacity int, fatigueRatio, zombieRatio, zombieCritic, percentage, minimum float64, k, stride, maxKmers int, now time.Time) (*ProgramManifold, error) {
	if rs == nil {
		rs = ruleset.New()
	}

	reading, _ := host.Substrate.LastKnown()
	budget := substrate.AllocateFrom(reading, percentage, minimum)

	m := metabolism.New(budget, fatigueRatio, zombieRatio, zombieCritic)
	wm := memory.New(cacheCapacity)
	sch := scheduler.New(0.20, 0.80, 120, 30, now)

	for name, vec := range rs.SymbolDefinitions {
		if err := host.Hdc.Symbols.Register(name, vec); err != nil {
			return nil, err
		}
	}

	loop := New(host.Hdc, wm, m, sch, host.Substrate, k, stride, maxKmers, 0, 0, 0)
	return &ProgramManifold{Kernel: loop, Ruleset: rs, host: host}, nil
}

// Ingest delegates to the manifold's private KernelLoop.
func (p *ProgramManifold) Ingest(now time.Time, input DataStream) IngestResult {
	return p.Kernel.Ingest(now, input)
}

// Sleep evolves the local ruleset from any anomalies the manifold's kernel
// has flagged, then triggers a manual sleep on it. Each anomaly becomes a
// symbol override (registered into the shared SymbolSpace, named after its
// cache key) plus a new ReflexTrigger pointing at it with threshold =
// Ruleset.Heuristics.CriticMin and intent "execute_geometric_shift".
func (p *ProgramManifold) Sleep(now time.Time) error {
	anomalies := p.Kernel.WM.GetAnomalies()
	for key, dc := range anomalies {
		if dc == nil {
			continue
		}
		symbolName := anomalySymbolName(key)
		if err := p.host.Hdc.Symbols.Register(symbolName, normalizeForSymbol(dc.Vector)); err != nil {
			return err
		}
		p.Ruleset.SymbolDefinitions[symbolName] = dc.Vector
		p.Ruleset.ReflexTriggers = append(p.Ruleset.ReflexTriggers, ruleset.ReflexTrigger{
			TargetSymbol:        symbolName,
			SimilarityThreshold: p.Ruleset.Heuristics.CriticMin,
			ActionIntent:        geometricShiftIntent,
		})
	}

	p.Kernel.TriggerManualSleep(now)
	return nil
}

func anomalySymbolName(cacheKey string) string {
	return "anomaly:" + cacheKey
}

func normalizeForSymbol(vec tensor.Tensor) tensor.Tensor {
	return tensor.NormalizeL2(vec)
}
