package kernel

import (
	"testing"
	"time"

	"github.com/denizumutdereli/cogkernel/pkg/errs"
	"github.com/denizumutdereli/cogkernel/pkg/hdc"
	"github.com/denizumutdereli/cogkernel/pkg/memory"
	"github.com/denizumutdereli/cogkernel/pkg/metabolism"
	"github.com/denizumutdereli/cogkernel/pkg/scheduler"
	"github.com/denizumutdereli/cogkernel/pkg/substrate"
)

type fakeProbe struct {
	reading substrate.Reading
	err     error
}

func (f fakeProbe) Probe() (substrate.Reading, error) { return f.reading, f.err }

func newTestLoop(t *testing.T, now time.Time) *KernelLoop {
	t.Helper()
	h := hdc.NewSystem()
	wm := memory.New(16)
	m := metabolism.New(100, 0.28, 0.20, 0.95)
	sch := scheduler.New(0.20, 0.80, 120, 30, now)
	// RecommendedKernelBudget matches MaxCapacity so Ingest's substrate
	// rescale (spec 4.8 step 1) is a no-op for tests that depend on a fixed
	// MaxCapacity/FatigueThreshold across repeated Ingest calls.
	sub := substrate.New(fakeProbe{reading: substrate.Reading{RecommendedKernelBudget: 100}})
	return New(h, wm, m, sch, sub, 3, 1, 32, 1024, 64, 12)
}

func TestIngestRejectsEmptyPayload(t *testing.T) {
	now := time.Now()
	k := newTestLoop(t, now)
	result := k.Ingest(now, NewDataStream("log", "", "", 64))
	if result.Success {
		t.Fatalf("expected failure for empty payload")
	}
	if result.Outcome != OutcomeFailed {
		t.Fatalf("outcome = %v, want failed", result.Outcome)
	}
}

func TestIngestFirstCallIsDeepThink(t *testing.T) {
	now := time.Now()
	k := newTestLoop(t, now)
	result := k.Ingest(now, NewDataStream("log", "req-1", "a stream of unrelated payload tokens", 64))
	if !result.DeepThinkPath {
		t.Fatalf("first ingest against an empty cache should take the deep-think path")
	}
}

func TestIngestRepeatedPayloadEventuallyReflexes(t *testing.T) {
	now := time.Now()
	k := newTestLoop(t, now)
	ds := NewDataStream("log", "req-1", "repeated identical payload text", 64)

	var sawReflex bool
	for i := 0; i < 8; i++ {
		result := k.Ingest(now, ds)
		if result.ReflexHit {
			sawReflex = true
			break
		}
	}
	if !sawReflex {
		t.Fatalf("expected a reflex hit after repeated identical ingests")
	}
}

func TestIngestAutoGeneratesDatasetID(t *testing.T) {
	ds := NewDataStream("log", "", "payload", 64)
	if ds.DatasetID == "" {
		t.Fatalf("expected an auto-generated DatasetID")
	}
}

func TestTriggerManualSleepRechargesEnergy(t *testing.T) {
	now := time.Now()
	k := newTestLoop(t, now)
	k.Metabolism.Consume(90)
	if k.Metabolism.CurrentEnergyBudget >= 100 {
		t.Fatalf("expected energy to be consumed before sleep")
	}

	k.TriggerManualSleep(now.Add(time.Minute))
	if k.Metabolism.CurrentEnergyBudget != k.Metabolism.MaxCapacity {
		t.Fatalf("expected full recharge after manual sleep, got %v", k.Metabolism.CurrentEnergyBudget)
	}
	if k.Scheduler.InterruptsLocked {
		t.Fatalf("sleep cycle should unlock interrupts on completion")
	}
}

func TestStatusReflectsSubstrateAndCache(t *testing.T) {
	now := time.Now()
	k := newTestLoop(t, now)
	k.Ingest(now, NewDataStream("log", "req-1", "some payload text", 64))

	status := k.Status()
	if status.ProcessedInputs != 1 {
		t.Fatalf("ProcessedInputs = %d, want 1", status.ProcessedInputs)
	}
	if !status.SubstrateKnown {
		t.Fatalf("expected a known substrate reading after Refresh")
	}
	if status.Substrate.RecommendedKernelBudget != 100 {
		t.Fatalf("Substrate reading not propagated into status")
	}
}

func TestIngestExhaustsEnergyReachesFatigueOrZombie(t *testing.T) {
	now := time.Now()
	k := newTestLoop(t, now)

	var lastOutcome Outcome
	for i := 0; i < 50; i++ {
		ds := NewDataStream("log", "", "distinct unrelated text payload number", 64)
		result := k.Ingest(now, ds)
		lastOutcome = result.Outcome
		if result.Outcome == OutcomeFatigueLimit || result.Outcome == OutcomeZombieMode {
			return
		}
	}
	t.Fatalf("expected eventual fatigue_limit or zombie_mode outcome, last was %v", lastOutcome)
}

func TestStatusSnapshotMsgpackRoundTrip(t *testing.T) {
	now := time.Now()
	k := newTestLoop(t, now)
	k.Ingest(now, NewDataStream("log", "req-1", "some payload text", 64))

	snap := k.Status()
	data, err := EncodeStatusSnapshot(snap)
	if err != nil {
		t.Fatalf("EncodeStatusSnapshot: %v", err)
	}
	decoded, err := DecodeStatusSnapshot(data)
	if err != nil {
		t.Fatalf("DecodeStatusSnapshot: %v", err)
	}
	if decoded.ProcessedInputs != snap.ProcessedInputs || decoded.CacheEntries != snap.CacheEntries {
		t.Fatalf("round trip mismatch: got %+v, want %+v", decoded, snap)
	}
}

func TestIngestRescalesMetabolismFromSubstrate(t *testing.T) {
	now := time.Now()
	h := hdc.NewSystem()
	wm := memory.New(16)
	m := metabolism.New(100, 0.28, 0.20, 0.95)
	sch := scheduler.New(0.20, 0.80, 120, 30, now)
	sub := substrate.New(fakeProbe{reading: substrate.Reading{RecommendedKernelBudget: 40}})
	k := New(h, wm, m, sch, sub, 3, 1, 32, 1024, 64, 12)

	k.Ingest(now, NewDataStream("log", "req-1", "payload", 64))

	if k.Metabolism.MaxCapacity != 40 {
		t.Fatalf("MaxCapacity = %v, want 40 after substrate rescale", k.Metabolism.MaxCapacity)
	}
	if k.Metabolism.FatigueThreshold != 40*0.28 {
		t.Fatalf("FatigueThreshold = %v, want %v", k.Metabolism.FatigueThreshold, 40*0.28)
	}
}

func TestIngestMissingInputErrorMatchesSentinel(t *testing.T) {
	now := time.Now()
	k := newTestLoop(t, now)
	result := k.Ingest(now, NewDataStream("log", "x", "   ", 64))
	if result.Error != errs.ErrMissingInput.Error() {
		t.Fatalf("error = %q, want %q", result.Error, errs.ErrMissingInput.Error())
	}
}
