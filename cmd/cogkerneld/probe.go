package main

import (
	"syscall"
	"time"

	"github.com/klauspost/cpuid/v2"

	"github.com/denizumutdereli/cogkernel/pkg/substrate"
)

// cpuidProbe implements substrate.Probe against the real host, grounded in
// the teacher's pkg/vector/simd/simd.go use of github.com/klauspost/cpuid/v2
// for hardware feature detection — here repurposed to read cycle frequency
// instead of SIMD capability flags. RAM figures come from syscall.Sysinfo
// (Linux); the recommended kernel budget is 10% of available RAM in MB,
// mirroring spec section 6's "substrate probe contract".
type cpuidProbe struct {
	budgetMbPerPercent float64
}

func newCPUIDProbe() *cpuidProbe {
	return &cpuidProbe{budgetMbPerPercent: 1.0}
}

func (p *cpuidProbe) Probe() (substrate.Reading, error) {
	var info syscall.Sysinfo_t
	if err := syscall.Sysinfo(&info); err != nil {
		return substrate.Reading{}, err
	}

	unit := uint64(info.Unit)
	if unit == 0 {
		unit = 1
	}
	totalMb := (info.Totalram * unit) / (1024 * 1024)
	availMb := (info.Freeram * unit) / (1024 * 1024)
	usedMb := totalMb - availMb

	now := time.Now()
	reading := substrate.Reading{
		TotalRamMb:      totalMb,
		AvailableRamMb:  availMb,
		UsedRamEstimate: usedMb,
		CpuCycleHz:      uint64(cpuid.CPU.Hz),
		RtcHour:         now.Hour(),
		RtcMin:          now.Minute(),
		RtcSec:          now.Second(),
	}
	reading.RecommendedKernelBudget = float64(availMb) * 0.10
	return reading, nil
}
