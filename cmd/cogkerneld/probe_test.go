package main

import "testing"

func TestCPUIDProbeReturnsPlausibleReading(t *testing.T) {
	probe := newCPUIDProbe()
	reading, err := probe.Probe()
	if err != nil {
		t.Fatalf("Probe: %v", err)
	}
	if reading.TotalRamMb == 0 {
		t.Fatalf("expected a nonzero TotalRamMb reading")
	}
	if reading.AvailableRamMb > reading.TotalRamMb {
		t.Fatalf("AvailableRamMb (%d) should not exceed TotalRamMb (%d)", reading.AvailableRamMb, reading.TotalRamMb)
	}
	if reading.RecommendedKernelBudget <= 0 {
		t.Fatalf("expected a positive recommended kernel budget")
	}
	if reading.RtcHour < 0 || reading.RtcHour > 23 {
		t.Fatalf("RtcHour out of range: %d", reading.RtcHour)
	}
}
