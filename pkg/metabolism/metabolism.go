// Package metabolism implements SystemMetabolism: the kernel's finite energy
// budget, fatigue/zombie thresholds, and consume/recharge/rescale operations.
//
// Grounded in the teacher's pkg/core/types.go Neuron.Energy/Fire/Decay clamp
// discipline, adapted from a per-neuron energy pool to a single kernel-wide
// budget. Pure arithmetic state machine: no third-party library in the pack
// targets energy-budget clamping, so this stays on the standard library.
package metabolism

const (
	minFatigueRatio     = 0.01
	maxFatigueRatio     = 0.95
	minZombieRatio      = 0.01
	defaultZombieCritic = 0.95
	defaultCriticFloor  = 0.50
)

// Metabolism is the kernel's energy state machine.
type Metabolism struct {
	MaxCapacity               float64
	CurrentEnergyBudget       float64
	FatigueRatio              float64
	ZombieRatio               float64
	FatigueThreshold          float64
	ZombieActivationThreshold float64
	ZombieCriticThreshold     float64
	ZombieModeActive          bool
}

// New builds a Metabolism configured via the canonical relative form.
func New(maxCapacity, fatigueRatio, zombieRatio, zombieCritic float64) *Metabolism {
	m := &Metabolism{CurrentEnergyBudget: maxCapacity}
	m.ConfigureRelative(maxCapacity, fatigueRatio, zombieRatio, zombieCritic)
	m.CurrentEnergyBudget = m.MaxCapacity
	return m
}

// Configure is the absolute form: it derives ratios from the given absolute
// thresholds, then delegates to ConfigureRelative (the canonical form).
func (m *Metabolism) Configure(maxCapacity, fatigueThreshold, zombieThreshold, zombieCritic float64) {
	var fatigueRatio, zombieRatio float64
	if maxCapacity > 0 {
		fatigueRatio = fatigueThreshold / maxCapacity
		zombieRatio = zombieThreshold / maxCapacity
	}
	m.ConfigureRelative(maxCapacity, fatigueRatio, zombieRatio, zombieCritic)
}

// ConfigureRelative is the canonical configuration form: fatigueRatio in
// [0.01,0.95], zombieRatio in [0.01,fatigueRatio], zombieCritic in [0,1]
// (0 defaults to 0.95).
func (m *Metabolism) ConfigureRelative(maxCapacity, fatigueRatio, zombieRatio, zombieCritic float64) {
	if maxCapacity < 0 {
		maxCapacity = 0
	}

	if fatigueRatio < minFatigueRatio {
		fatigueRatio = minFatigueRatio
	}
	if fatigueRatio > maxFatigueRatio {
		fatigueRatio = maxFatigueRatio
	}

	if zombieRatio < minZombieRatio {
		zombieRatio = minZombieRatio
	}
	if zombieRatio > fatigueRatio {
		zombieRatio = fatigueRatio
	}

	if zombieCritic <= 0 {
		zombieCritic = defaultZombieCritic
	}
	if zombieCritic > 1 {
		zombieCritic = 1
	}

	m.MaxCapacity = maxCapacity
	m.FatigueRatio = fatigueRatio
	m.ZombieRatio = zombieRatio
	m.FatigueThreshold = maxCapacity * fatigueRatio
	m.ZombieActivationThreshold = maxCapacity * zombieRatio
	m.ZombieCriticThreshold = zombieCritic

	if m.CurrentEnergyBudget > m.MaxCapacity {
		m.CurrentEnergyBudget = m.MaxCapacity
	}
	m.evaluateZombieLatch()
}

// Consume subtracts amt from the current budget, floored at 0, latching
// zombie mode if the result falls at or below ZombieActivationThreshold.
func (m *Metabolism) Consume(amt float64) {
	if amt < 0 {
		amt = 0
	}
	m.CurrentEnergyBudget -= amt
	if m.CurrentEnergyBudget < 0 {
		m.CurrentEnergyBudget = 0
	}
	if m.CurrentEnergyBudget <= m.ZombieActivationThreshold {
		m.ZombieModeActive = true
	}
}

// Recharge adds amt to the budget, capped at MaxCapacity; amt<=0 refills to
// MaxCapacity. Any call to Recharge clears zombie mode, matching the spec's
// "latches true until Recharge" wording.
func (m *Metabolism) Recharge(amt float64) {
	if amt <= 0 {
		m.CurrentEnergyBudget = m.MaxCapacity
	} else {
		m.CurrentEnergyBudget += amt
		if m.CurrentEnergyBudget > m.MaxCapacity {
			m.CurrentEnergyBudget = m.MaxCapacity
		}
	}
	m.ZombieModeActive = false
}

// RescaleMaxCapacity updates MaxCapacity and proportionally the derived
// thresholds. If preservePercent, CurrentEnergyBudget is scaled to keep the
// same fraction-of-capacity it held before rescaling; otherwise it is simply
// clamped to the new MaxCapacity. The zombie latch is re-evaluated afterward.
func (m *Metabolism) RescaleMaxCapacity(newMax float64, preservePercent bool) {
	if newMax < 0 {
		newMax = 0
	}

	var priorPercent float64
	if m.MaxCapacity > 0 {
		priorPercent = m.CurrentEnergyBudget / m.MaxCapacity
	}

	m.MaxCapacity = newMax
	m.FatigueThreshold = newMax * m.FatigueRatio
	m.ZombieActivationThreshold = newMax * m.ZombieRatio

	if preservePercent {
		m.CurrentEnergyBudget = newMax * priorPercent
	}
	if m.CurrentEnergyBudget > m.MaxCapacity {
		m.CurrentEnergyBudget = m.MaxCapacity
	}
	if m.CurrentEnergyBudget < 0 {
		m.CurrentEnergyBudget = 0
	}
	m.evaluateZombieLatch()
}

func (m *Metabolism) evaluateZombieLatch() {
	if m.CurrentEnergyBudget <= m.ZombieActivationThreshold {
		m.ZombieModeActive = true
	}
}

// CanDeepThink reports whether the budget currently supports deep-think.
func (m *Metabolism) CanDeepThink() bool {
	return m.CurrentEnergyBudget > m.FatigueThreshold && !m.ZombieModeActive
}

// CriticThreshold returns the critic acceptance floor: ZombieCriticThreshold
// while in zombie mode, else a fixed 0.50.
func (m *Metabolism) CriticThreshold() float64 {
	if m.ZombieModeActive {
		return m.ZombieCriticThreshold
	}
	return defaultCriticFloor
}

// EnergyPercent returns CurrentEnergyBudget / MaxCapacity, or 0 if MaxCapacity is 0.
func (m *Metabolism) EnergyPercent() float64 {
	if m.MaxCapacity <= 0 {
		return 0
	}
	return m.CurrentEnergyBudget / m.MaxCapacity
}
