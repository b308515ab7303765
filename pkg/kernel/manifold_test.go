package kernel

import (
	"testing"
	"time"

	"github.com/denizumutdereli/cogkernel/pkg/hdc"
	"github.com/denizumutdereli/cogkernel/pkg/ruleset"
	"github.com/denizumutdereli/cogkernel/pkg/substrate"
)

func newTestHost(t *testing.T, budget float64) *Host {
	t.Helper()
	h := hdc.NewSystem()
	sub := substrate.New(fakeProbe{reading: substrate.Reading{RecommendedKernelBudget: budget}})
	sub.Refresh()
	return &Host{Hdc: h, Substrate: sub}
}

func TestNewProgramManifoldAllocatesSubBudget(t *testing.T) {
	now := time.Now()
	host := newTestHost(t, 200)

	pm, err := NewProgramManifold(host, nil, 16, 0.28, 0.20, 0.95, 0.5, 10, 3, 1, 32, now)
	if err != nil {
		t.Fatalf("NewProgramManifold: %v", err)
	}
	if pm.Kernel.Metabolism.MaxCapacity != 100 {
		t.Fatalf("sub-budget = %v, want 100 (50%% of 200)", pm.Kernel.Metabolism.MaxCapacity)
	}
}

func TestNewProgramManifoldFloorsAtMinimum(t *testing.T) {
	now := time.Now()
	host := newTestHost(t, 10)

	pm, err := NewProgramManifold(host, nil, 16, 0.28, 0.20, 0.95, 0.5, 25, 3, 1, 32, now)
	if err != nil {
		t.Fatalf("NewProgramManifold: %v", err)
	}
	if pm.Kernel.Metabolism.MaxCapacity != 25 {
		t.Fatalf("sub-budget = %v, want floor 25", pm.Kernel.Metabolism.MaxCapacity)
	}
}

func TestNewProgramManifoldRegistersRulesetSymbols(t *testing.T) {
	now := time.Now()
	host := newTestHost(t, 200)

	rs := ruleset.New()
	target, err := host.Hdc.Encoder.EncodeTokens([]string{"k3:xyz"}, []int{0}, 64)
	if err != nil {
		t.Fatalf("EncodeTokens: %v", err)
	}
	rs.SymbolDefinitions["GREETING"] = target

	pm, pmErr := NewProgramManifold(host, rs, 16, 0.28, 0.20, 0.95, 0.5, 10, 3, 1, 32, now)
	if pmErr != nil {
		t.Fatalf("NewProgramManifold: %v", pmErr)
	}
	if _, resolveErr := host.Hdc.Symbols.ResolveSymbol("GREETING", 64); resolveErr != nil {
		t.Fatalf("expected GREETING to resolve after registration: %v", resolveErr)
	}
	if pm == nil {
		t.Fatalf("expected non-nil manifold")
	}
}

func TestManifoldSleepEvolvesRulesetFromAnomalies(t *testing.T) {
	now := time.Now()
	host := newTestHost(t, 200)
	pm, err := NewProgramManifold(host, nil, 16, 0.28, 0.20, 0.95, 0.5, 10, 3, 1, 32, now)
	if err != nil {
		t.Fatalf("NewProgramManifold: %v", err)
	}

	target, encErr := pm.Kernel.Hdc.Encoder.EncodeTokens([]string{"k3:abc"}, []int{0}, 64)
	if encErr != nil {
		t.Fatalf("EncodeTokens: %v", encErr)
	}
	pm.Kernel.WM.FlagAnomaly("tenant:req-1", target, true)

	beforeTriggers := len(pm.Ruleset.ReflexTriggers)
	if err := pm.Sleep(now.Add(time.Minute)); err != nil {
		t.Fatalf("Sleep: %v", err)
	}
	if len(pm.Ruleset.ReflexTriggers) != beforeTriggers+1 {
		t.Fatalf("expected one new reflex trigger from the consolidated anomaly")
	}
	last := pm.Ruleset.ReflexTriggers[len(pm.Ruleset.ReflexTriggers)-1]
	if last.ActionIntent != geometricShiftIntent {
		t.Fatalf("ActionIntent = %q, want %q", last.ActionIntent, geometricShiftIntent)
	}
	if pm.Kernel.Scheduler.SleepCycles == 0 {
		t.Fatalf("expected Sleep to trigger a manual sleep cycle")
	}
}
