// Package substrate implements SubstrateMonitor: a thin wrapper around an
// injected SubstrateProbe that tracks the last-known reading and derives a
// recommended energy budget, plus an AllocateFrom helper used by
// ProgramManifold to carve out a tenant sub-budget.
//
// Substrate probing itself (reading real RAM/CPU figures) is explicitly out
// of scope for the core per spec section 1 — "OS substrate probing" is named
// among the external collaborators the core only consumes via interface.
// This package defines that interface and the monitor around it; a concrete
// implementation backed by github.com/klauspost/cpuid/v2 lives in
// cmd/cogkerneld, outside the core.
package substrate

// Reading is one substrate probe result (spec section 6, "Substrate probe contract").
type Reading struct {
	TotalRamMb              uint64
	AvailableRamMb          uint64
	UsedRamEstimate         uint64
	CpuCycleHz              uint64
	RtcHour                 int
	RtcMin                  int
	RtcSec                  int
	RecommendedKernelBudget float64
}

// Probe is the injected collaborator yielding RAM/CPU figures. Implementations
// live outside the core.
type Probe interface {
	Probe() (Reading, error)
}

// Monitor wraps a Probe, remembering the last successful reading so a
// catastrophic probe failure can fall back to it instead of propagating an error.
type Monitor struct {
	probe      Probe
	lastKnown  Reading
	hasReading bool
}

// New builds a Monitor around probe.
func New(probe Probe) *Monitor {
	return &Monitor{probe: probe}
}

// Refresh polls the probe. On failure, it returns the last-known reading
// (zero-value Reading with RecommendedKernelBudget==0 if none has ever
// succeeded) and does not propagate the error to the caller — the kernel
// "never panics on bad input" and substrate failure is exactly this kind of
// recoverable degradation (spec section 7).
func (m *Monitor) Refresh() Reading {
	reading, err := m.probe.Probe()
	if err != nil {
		return m.lastKnown
	}
	m.lastKnown = reading
	m.hasReading = true
	return reading
}

// LastKnown returns the most recently successful reading without polling.
func (m *Monitor) LastKnown() (Reading, bool) {
	return m.lastKnown, m.hasReading
}

// AllocateFrom carves a sub-budget for a tenant out of a host recommendation:
// percentage of the recommended budget, floored at minimum.
func AllocateFrom(reading Reading, percentage, minimum float64) float64 {
	alloc := reading.RecommendedKernelBudget * percentage
	if alloc < minimum {
		alloc = minimum
	}
	return alloc
}
