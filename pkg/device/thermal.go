package device

import (
	"github.com/edaworks/schemsim/pkg/matrix"
)

// FailureMode states what a permanently failed device looks like to the
// matrix afterwards.
type FailureMode int

const (
	FailOpen FailureMode = iota
	FailShort
)

// ThermalProfile is the rated envelope of a device that participates in the
// thermal model. Zero-valued profiles opt the device out.
type ThermalProfile struct {
	Rth      float64 // junction-to-ambient thermal resistance (K/W)
	Cth      float64 // thermal capacitance (J/K)
	MaxTemp  float64 // rated junction temperature (K)
	MaxPower float64 // rated dissipation (W)
	FailAs   FailureMode
}

// ThermalState is the per-device accumulator driven once per accepted
// transient step.
type ThermalState struct {
	Temp   float64 // present junction temperature (K)
	Damage float64 // accumulated overstress, device fails at 1.0
	Failed bool
}

// Dissipator devices expose a thermal profile and their dissipated power at
// the last accepted solution.
type Dissipator interface {
	ThermalProfile() *ThermalProfile
	ThermalState() *ThermalState
	Power(solution *matrix.Vector) float64
}

// damageRate: fraction of the damage budget consumed per second while the
// device sits at twice its rated stress.
const damageRate = 0.5

// StepThermal advances one device's first-order thermal model by dt and
// accumulates damage while the device is outside its rated envelope. Failed
// devices are excluded from further updates.
func StepThermal(state *ThermalState, profile *ThermalProfile, power, dt float64, env Environment) {
	if state.Failed || profile == nil || profile.Cth <= 0 || profile.Rth <= 0 {
		return
	}
	if state.Temp == 0 {
		state.Temp = env.Ambient
	}

	// dT/dt = (P - (T - Tambient)/Rth) / Cth
	dTemp := (power - (state.Temp-env.Ambient)/profile.Rth) / profile.Cth
	state.Temp += dTemp * dt

	overTemp := profile.MaxTemp > 0 && state.Temp > profile.MaxTemp
	overPower := profile.MaxPower > 0 && power > profile.MaxPower
	if !overTemp && !overPower {
		return
	}

	stress := 0.0
	if overTemp {
		stress += (state.Temp - profile.MaxTemp) / profile.MaxTemp
	}
	if overPower {
		stress += (power - profile.MaxPower) / profile.MaxPower
	}
	state.Damage += stress * damageRate * dt
	if state.Damage >= 1.0 {
		state.Damage = 1.0
		state.Failed = true
	}
}
