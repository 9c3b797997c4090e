package device

import (
	"fmt"
	"math"

	"github.com/edaworks/schemsim/internal/consts"
	"github.com/edaworks/schemsim/pkg/matrix"
)

type Resistor struct {
	BaseComponent
	Tc1  float64
	Tc2  float64
	Tnom float64

	g float64 // conductance used by the last stamp

	profile ThermalProfile
	thermal ThermalState
}

var _ Component = (*Resistor)(nil)
var _ ACElement = (*Resistor)(nil)
var _ Dissipator = (*Resistor)(nil)
var _ TimeDependent = (*Resistor)(nil)

func NewResistor(name string, value float64) *Resistor {
	return &Resistor{
		BaseComponent: NewBaseComponent(name, 2, value),
		Tnom:          consts.ROOMTEMP,
	}
}

func (r *Resistor) GetType() string { return "R" }

// SetRating enables the thermal model with a rated power and a failure mode.
func (r *Resistor) SetRating(maxPower float64, failAs FailureMode) {
	r.profile = ThermalProfile{
		Rth:      120.0, // generic through-hole part
		Cth:      0.3,
		MaxTemp:  428.15, // 155degC
		MaxPower: maxPower,
		FailAs:   failAs,
	}
}

func (r *Resistor) conductance(env Environment) float64 {
	if r.thermal.Failed {
		if r.profile.FailAs == FailShort {
			return 1e3
		}
		return consts.Gmin
	}
	dt := env.Temp - r.Tnom
	value := r.Value * (1.0 + r.Tc1*dt + r.Tc2*dt*dt)
	return 1.0 / value
}

func (r *Resistor) Stamp(m matrix.DeviceMatrix, status *CircuitStatus) error {
	if len(r.Binds) != 2 {
		return fmt.Errorf("resistor %s: requires exactly 2 nodes", r.Name)
	}

	r.g = r.conductance(status.Env)
	stampConductance(m, r.Binds[0], r.Binds[1], r.g)
	return nil
}

func (r *Resistor) StampAC(m matrix.DeviceMatrix, status *CircuitStatus) error {
	g := r.conductance(status.Env)
	n1, n2 := r.Binds[0], r.Binds[1]
	if n1 != 0 {
		m.AddComplexElement(n1, n1, g, 0)
		if n2 != 0 {
			m.AddComplexElement(n1, n2, -g, 0)
		}
	}
	if n2 != 0 {
		if n1 != 0 {
			m.AddComplexElement(n2, n1, -g, 0)
		}
		m.AddComplexElement(n2, n2, g, 0)
	}
	return nil
}

func (r *Resistor) Current(solution *matrix.Vector) float64 {
	v1 := voltageAt(solution, r.Binds[0])
	v2 := voltageAt(solution, r.Binds[1])
	return (v1 - v2) * r.lastConductance()
}

func (r *Resistor) lastConductance() float64 {
	if r.g != 0 {
		return r.g
	}
	return r.conductance(DefaultEnvironment())
}

// UpdateState is a no-op; the thermal accumulator advances through the
// dissipation pass, not per step state.
func (r *Resistor) UpdateState(solution *matrix.Vector, status *CircuitStatus) {}

func (r *Resistor) Reset() {
	r.thermal = ThermalState{}
	r.g = 0
}

func (r *Resistor) ThermalProfile() *ThermalProfile { return &r.profile }
func (r *Resistor) ThermalState() *ThermalState { return &r.thermal }

func (r *Resistor) Power(solution *matrix.Vector) float64 {
	v := voltageAt(solution, r.Binds[0]) - voltageAt(solution, r.Binds[1])
	return v * v * r.lastConductance()
}

// Thermistor is an NTC resistor; its value tracks the ambient temperature of
// the stamp-time environment.
type Thermistor struct {
	BaseComponent
	Beta float64 // B constant (K)
	Tnom float64 // temperature the nominal value is quoted at (K)
}

var _ Component = (*Thermistor)(nil)

func NewThermistor(name string, value, beta float64) *Thermistor {
	return &Thermistor{
		BaseComponent: NewBaseComponent(name, 2, value),
		Beta:          beta,
		Tnom:          consts.ROOMTEMP,
	}
}

func (t *Thermistor) GetType() string { return "TH" }

func (t *Thermistor) Resistance(env Environment) float64 {
	// R(T) = R0 * exp(B*(1/T - 1/T0))
	return t.Value * math.Exp(t.Beta*(1.0/env.Ambient-1.0/t.Tnom))
}

func (t *Thermistor) Stamp(m matrix.DeviceMatrix, status *CircuitStatus) error {
	if len(t.Binds) != 2 {
		return fmt.Errorf("thermistor %s: requires exactly 2 nodes", t.Name)
	}
	stampConductance(m, t.Binds[0], t.Binds[1], 1.0/t.Resistance(status.Env))
	return nil
}

// Photoresistor is an LDR; resistance interpolates log-linearly between the
// dark and full-light values as the environment light level moves 0 to 1.
type Photoresistor struct {
	BaseComponent
	DarkValue  float64
	LightValue float64
}

var _ Component = (*Photoresistor)(nil)

func NewPhotoresistor(name string, darkValue, lightValue float64) *Photoresistor {
	return &Photoresistor{
		BaseComponent: NewBaseComponent(name, 2, darkValue),
		DarkValue:     darkValue,
		LightValue:    lightValue,
	}
}

func (p *Photoresistor) GetType() string { return "LDR" }

func (p *Photoresistor) Resistance(env Environment) float64 {
	level := env.LightLevel
	if level < 0 {
		level = 0
	}
	if level > 1 {
		level = 1
	}
	return p.DarkValue * math.Pow(p.LightValue/p.DarkValue, level)
}

func (p *Photoresistor) Stamp(m matrix.DeviceMatrix, status *CircuitStatus) error {
	if len(p.Binds) != 2 {
		return fmt.Errorf("photoresistor %s: requires exactly 2 nodes", p.Name)
	}
	stampConductance(m, p.Binds[0], p.Binds[1], 1.0/p.Resistance(status.Env))
	return nil
}

// stampConductance adds G between two nodes: +G on the self terms, -G on the
// cross terms, skipping ground rows/columns.
func stampConductance(m matrix.DeviceMatrix, n1, n2 int, g float64) {
	if n1 != 0 {
		m.AddElement(n1, n1, g)
		if n2 != 0 {
			m.AddElement(n1, n2, -g)
		}
	}
	if n2 != 0 {
		if n1 != 0 {
			m.AddElement(n2, n1, -g)
		}
		m.AddElement(n2, n2, g)
	}
}

// stampCurrentSource pushes I out of n1 and into n2.
func stampCurrentSource(m matrix.DeviceMatrix, n1, n2 int, i float64) {
	if n1 != 0 {
		m.AddRHS(n1, -i)
	}
	if n2 != 0 {
		m.AddRHS(n2, i)
	}
}
