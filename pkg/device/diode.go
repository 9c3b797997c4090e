package device

import (
	"fmt"
	"math"

	"github.com/edaworks/schemsim/internal/consts"
	"github.com/edaworks/schemsim/pkg/matrix"
)

// Diode is the Shockley junction family. Every Newton iteration the diode is
// replaced by the companion pair Gd (tangent conductance at the previous
// iterate) and Ieq = I(vprev) - Gd*vprev stamped as a current source, so the
// linearization point walks toward the operating point.
type Diode struct {
	BaseComponent
	// Model parameters
	Is  float64 // Saturation current
	N   float64 // Emission coefficient
	Vj  float64 // Built-in potential
	M   float64 // Grading coefficient
	Cj0 float64 // Zero-bias junction capacitance
	Bv  float64 // Breakdown voltage (zener region active when breakdown set)
	Eg  float64 // Energy gap (eV)
	Xti float64 // Saturation current temperature exponent

	breakdown bool // zener: conduct exponentially past -Bv

	// Linearization state
	vd float64 // previous-iterate junction voltage
	id float64
	gd float64

	// Transient state
	vdOld float64

	profile ThermalProfile
	thermal ThermalState
}

var _ Component = (*Diode)(nil)
var _ NonLinear = (*Diode)(nil)
var _ TimeDependent = (*Diode)(nil)
var _ ACElement = (*Diode)(nil)
var _ Dissipator = (*Diode)(nil)

func NewDiode(name string) *Diode {
	d := &Diode{
		BaseComponent: NewBaseComponent(name, 2, 0),
	}
	d.setDefaultParameters()
	return d
}

// NewLED is a diode with LED-typical junction parameters.
func NewLED(name string) *Diode {
	d := NewDiode(name)
	d.Is = 1e-18
	d.N = 2.0
	d.Vj = 2.0
	return d
}

// NewZener conducts exponentially once reverse bias passes the breakdown
// voltage.
func NewZener(name string, bv float64) *Diode {
	d := NewDiode(name)
	d.Bv = bv
	d.breakdown = true
	return d
}

func (d *Diode) GetType() string { return "D" }

func (d *Diode) setDefaultParameters() {
	d.Is = 1e-14
	d.N = 1.0
	d.Vj = 1.0
	d.M = 0.5
	d.Cj0 = 0.0
	d.Bv = 100.0
	d.Eg = 1.11
	d.Xti = 3.0
}

func thermalVoltage(temp float64) float64 {
	if temp <= 0 {
		temp = consts.ROOMTEMP
	}
	return consts.BOLTZMANN * temp / consts.CHARGE
}

func (d *Diode) temperatureAdjustedIs(temp float64) float64 {
	vt := thermalVoltage(temp)
	ratio := temp / consts.ROOMTEMP
	egfact := -d.Eg / (2 * vt) * (ratio - 1.0)
	return d.Is * math.Pow(ratio, d.Xti/d.N) * math.Exp(egfact)
}

// CalculateCurrent evaluates the device I-V equation at vd.
func (d *Diode) CalculateCurrent(vd, temp float64) float64 {
	nvt := d.N * thermalVoltage(temp)
	isT := d.temperatureAdjustedIs(temp)

	if d.breakdown && vd < -d.Bv {
		arg := -(vd + d.Bv) / nvt
		if arg > 40.0 {
			arg = 40.0
		}
		return -isT * math.Exp(arg)
	}

	// Forward bias and weak reverse bias
	if vd > -3.0*nvt {
		arg := vd / nvt
		if arg > 40.0 {
			arg = 40.0
		}
		return isT * (math.Exp(arg) - 1.0)
	}

	return -isT
}

// CalculateConductance is dI/dV at the same point, floored at gmin.
func (d *Diode) CalculateConductance(vd, id, temp float64) float64 {
	nvt := d.N * thermalVoltage(temp)

	if d.breakdown && vd < -d.Bv {
		return math.Abs(id)/nvt + consts.Gmin
	}
	if vd > -3.0*nvt {
		return (math.Abs(id)+d.temperatureAdjustedIs(temp))/nvt + consts.Gmin
	}
	return consts.Gmin
}

func (d *Diode) junctionCap(vd float64) float64 {
	if d.Cj0 == 0 {
		return 0
	}
	if vd < 0 {
		arg := 1 - vd/d.Vj
		if arg < 0.1 {
			arg = 0.1
		}
		return d.Cj0 / math.Pow(arg, d.M)
	}
	return d.Cj0 * (1 + d.M*vd/d.Vj)
}

func (d *Diode) Stamp(m matrix.DeviceMatrix, status *CircuitStatus) error {
	if len(d.Binds) != 2 {
		return fmt.Errorf("diode %s: requires exactly 2 nodes", d.Name)
	}

	if d.thermal.Failed {
		if d.profile.FailAs == FailShort {
			stampConductance(m, d.Binds[0], d.Binds[1], 1e3)
		} else {
			stampConductance(m, d.Binds[0], d.Binds[1], consts.Gmin)
		}
		return nil
	}

	temp := status.Env.Temp
	d.id = d.CalculateCurrent(d.vd, temp)
	d.gd = d.CalculateConductance(d.vd, d.id, temp)

	n1, n2 := d.Binds[0], d.Binds[1]
	ieq := d.id - d.gd*d.vd

	stampConductance(m, n1, n2, d.gd)
	if n1 != 0 {
		m.AddRHS(n1, -ieq)
	}
	if n2 != 0 {
		m.AddRHS(n2, ieq)
	}

	return nil
}

func (d *Diode) StampAC(m matrix.DeviceMatrix, status *CircuitStatus) error {
	n1, n2 := d.Binds[0], d.Binds[1]
	omega := 2 * math.Pi * status.Frequency
	cj := d.junctionCap(d.vd)

	// Admittance around the operating point: gd + jwCj
	if n1 != 0 {
		m.AddComplexElement(n1, n1, d.gd, omega*cj)
		if n2 != 0 {
			m.AddComplexElement(n1, n2, -d.gd, -omega*cj)
		}
	}
	if n2 != 0 {
		if n1 != 0 {
			m.AddComplexElement(n2, n1, -d.gd, -omega*cj)
		}
		m.AddComplexElement(n2, n2, d.gd, omega*cj)
	}
	return nil
}

func (d *Diode) UpdateVoltages(solution *matrix.Vector) error {
	if len(d.Binds) != 2 {
		return fmt.Errorf("diode %s: requires exactly 2 nodes", d.Name)
	}
	d.vd = voltageAt(solution, d.Binds[0]) - voltageAt(solution, d.Binds[1])
	return nil
}

func (d *Diode) UpdateState(solution *matrix.Vector, status *CircuitStatus) {
	d.vdOld = d.vd
}

func (d *Diode) Reset() {
	d.vd = 0
	d.id = 0
	d.gd = 0
	d.vdOld = 0
	d.thermal = ThermalState{}
}

// Conductance reports the companion Gd from the last stamp.
func (d *Diode) Conductance() float64 { return d.gd }

func (d *Diode) Current(solution *matrix.Vector) float64 { return d.id }

// SetRating enables the thermal model.
func (d *Diode) SetRating(maxPower float64, failAs FailureMode) {
	d.profile = ThermalProfile{
		Rth:      300.0,
		Cth:      0.02,
		MaxTemp:  448.15, // 175degC
		MaxPower: maxPower,
		FailAs:   failAs,
	}
}

func (d *Diode) ThermalProfile() *ThermalProfile { return &d.profile }
func (d *Diode) ThermalState() *ThermalState    { return &d.thermal }

func (d *Diode) Power(solution *matrix.Vector) float64 {
	return math.Abs(d.id * d.vd)
}
