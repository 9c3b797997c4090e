package device

import (
	"fmt"
	"math"

	"github.com/edaworks/schemsim/internal/consts"
	"github.com/edaworks/schemsim/pkg/matrix"
)

// Bjt is an Ebers-Moll transport model with an optional non-ideal path that
// adds Early-voltage scaling and high-level-injection roll-off to the forward
// and reverse transport currents. The two paths compute Ic from differently
// scaled icf/icr terms. Terminals: 0 = collector, 1 = base, 2 = emitter.
type Bjt struct {
	BaseComponent
	Is  float64 // Transport saturation current
	Bf  float64 // Ideal maximum forward beta
	Br  float64 // Ideal maximum reverse beta
	Nf  float64 // Forward emission coefficient
	Nr  float64 // Reverse emission coefficient
	Vaf float64 // Forward Early voltage (non-ideal path)
	Var float64 // Reverse Early voltage (non-ideal path)
	Ikf float64 // Forward beta roll-off corner current (non-ideal path)
	Ikr float64 // Reverse beta roll-off corner current (non-ideal path)

	NonIdeal bool

	// Linearization state
	vbe, vbc, vce      float64
	ic, ib, ie         float64
	gm, gpi, gmu, gout float64
	seeded             bool

	prevVbe, prevVbc float64
}

var _ Component = (*Bjt)(nil)
var _ NonLinear = (*Bjt)(nil)
var _ TimeDependent = (*Bjt)(nil)
var _ ACElement = (*Bjt)(nil)

func NewBJT(name string) *Bjt {
	b := &Bjt{
		BaseComponent: NewBaseComponent(name, 3, 0),
	}
	b.setDefaultParameters()
	return b
}

// NewNonIdealBJT enables the Early-effect / roll-off path.
func NewNonIdealBJT(name string) *Bjt {
	b := NewBJT(name)
	b.NonIdeal = true
	return b
}

func (b *Bjt) GetType() string { return "Q" }

func (b *Bjt) setDefaultParameters() {
	b.Is = 1e-16
	b.Bf = 100.0
	b.Br = 1.0
	b.Nf = 1.0
	b.Nr = 1.0
	b.Vaf = 100.0
	b.Var = 100.0
	b.Ikf = 0.01
	b.Ikr = 0.01
}

func (b *Bjt) diodeCurrent(v, isT, nvt float64) float64 {
	if v > -3.0*nvt {
		arg := v / nvt
		if arg > 40.0 {
			arg = 40.0
		}
		return isT * (math.Exp(arg) - 1.0)
	}
	return -isT
}

func (b *Bjt) calculateCurrents(vbe, vbc, temp float64) (float64, float64, float64) {
	vt := thermalVoltage(temp)

	iF := b.diodeCurrent(vbe, b.Is, b.Nf*vt)
	iR := b.diodeCurrent(vbc, b.Is, b.Nr*vt)

	var icf, icr float64
	if b.NonIdeal {
		// Early effect scales the transport terms.
		icf = iF * (1.0 + vbc/math.Max(b.Vaf, 1e-10))
		icr = iR * (1.0 + vbe/math.Max(b.Var, 1e-10))

		// High-level injection roll-off.
		qb := b.chargeFactor(vbe, vbc, icf, icr)
		if b.Ikf > 0 {
			icf /= (1.0 + math.Abs(icf/(b.Ikf*qb)))
		}
		if b.Ikr > 0 {
			icr /= (1.0 + math.Abs(icr/(b.Ikr*qb)))
		}
	} else {
		icf = iF
		icr = iR
	}

	// Base current uses the unscaled junction currents on both paths.
	ib := iF/b.Bf + iR/b.Br
	ic := icf - icr
	ie := -(ic + ib)

	return ic, ib, ie
}

func (b *Bjt) chargeFactor(vbe, vbc, icf, icr float64) float64 {
	q1 := 1.0
	if b.Vaf > 0 || b.Var > 0 {
		q1 = 1.0 / (1.0 - vbc/math.Max(b.Vaf, 1e-10) - vbe/math.Max(b.Var, 1e-10))
	}
	q2 := 0.0
	if b.Ikf > 0 {
		q2 += icf / b.Ikf
	}
	if b.Ikr > 0 {
		q2 += icr / b.Ikr
	}
	return q1 * (1.0 + (1.0+4.0*q2)*0.5)
}

func (b *Bjt) calculateConductances(vbe, vbc, ic, ib, temp float64) (float64, float64, float64, float64) {
	vt := thermalVoltage(temp)

	gm := math.Max(math.Abs(ic)/(b.Nf*vt), consts.Gmin)
	gpi := math.Max(math.Abs(ib)/(b.Nf*vt), consts.Gmin)

	gmu := consts.Gmin
	if vbc > -3.0*b.Nr*vt {
		gmu = math.Max(b.Is*math.Exp(vbc/(b.Nr*vt))/(b.Nr*vt), consts.Gmin)
	}

	gout := consts.Gmin
	if b.NonIdeal && b.Vaf > 0 {
		gout += math.Abs(ic) / math.Max(b.Vaf, 1.0)
	}

	return gm, gpi, gmu, gout
}

func (b *Bjt) Stamp(m matrix.DeviceMatrix, status *CircuitStatus) error {
	if len(b.Binds) != 3 {
		return fmt.Errorf("bjt %s: requires exactly 3 nodes", b.Name)
	}

	nc := b.Binds[0]
	nb := b.Binds[1]
	ne := b.Binds[2]

	// Seed the first iteration at a plausible bias point.
	if !b.seeded {
		b.vbe = 0.7
		b.vce = 0.3
		b.vbc = b.vbe - b.vce
		b.seeded = true
		return nil
	}

	temp := status.Env.Temp
	b.ic, b.ib, b.ie = b.calculateCurrents(b.vbe, b.vbc, temp)
	b.gm, b.gpi, b.gmu, b.gout = b.calculateConductances(b.vbe, b.vbc, b.ic, b.ib, temp)

	gmin := status.Gmin
	b.gpi += gmin
	b.gmu += gmin
	b.gout += gmin

	if nc != 0 {
		m.AddElement(nc, nc, b.gout+b.gmu)
		if nb != 0 {
			m.AddElement(nc, nb, -b.gmu)
		}
		if ne != 0 {
			m.AddElement(nc, ne, -b.gout-b.gm)
		}
		m.AddRHS(nc, -(b.ic - b.gout*b.vce + b.gmu*b.vbc))
	}

	if nb != 0 {
		m.AddElement(nb, nb, b.gpi+b.gmu)
		if nc != 0 {
			m.AddElement(nb, nc, -b.gmu)
		}
		if ne != 0 {
			m.AddElement(nb, ne, -b.gpi)
		}
		m.AddRHS(nb, -(b.ib + b.gmu*b.vbc + b.gpi*b.vbe))
	}

	if ne != 0 {
		m.AddElement(ne, ne, b.gout+b.gm+b.gpi)
		if nc != 0 {
			m.AddElement(ne, nc, -b.gout)
		}
		if nb != 0 {
			m.AddElement(ne, nb, -b.gpi-b.gm)
		}
		m.AddRHS(ne, -(b.ie + b.gout*b.vce + b.gpi*b.vbe + b.gm*b.vbe))
	}

	return nil
}

// StampAC loads the small-signal conductances frozen at the bias point of
// the last operating-point solve. There is no junction capacitance model, so
// every entry is purely real; the equivalent bias currents stay out of the
// AC right-hand side.
func (b *Bjt) StampAC(m matrix.DeviceMatrix, status *CircuitStatus) error {
	if len(b.Binds) != 3 {
		return fmt.Errorf("bjt %s: requires exactly 3 nodes", b.Name)
	}

	nc := b.Binds[0]
	nb := b.Binds[1]
	ne := b.Binds[2]

	if nc != 0 {
		m.AddComplexElement(nc, nc, b.gout+b.gmu, 0)
		if nb != 0 {
			m.AddComplexElement(nc, nb, -b.gmu, 0)
		}
		if ne != 0 {
			m.AddComplexElement(nc, ne, -b.gout-b.gm, 0)
		}
	}

	if nb != 0 {
		m.AddComplexElement(nb, nb, b.gpi+b.gmu, 0)
		if nc != 0 {
			m.AddComplexElement(nb, nc, -b.gmu, 0)
		}
		if ne != 0 {
			m.AddComplexElement(nb, ne, -b.gpi, 0)
		}
	}

	if ne != 0 {
		m.AddComplexElement(ne, ne, b.gout+b.gm+b.gpi, 0)
		if nc != 0 {
			m.AddComplexElement(ne, nc, -b.gout, 0)
		}
		if nb != 0 {
			m.AddComplexElement(ne, nb, -b.gpi-b.gm, 0)
		}
	}

	return nil
}

func (b *Bjt) UpdateVoltages(solution *matrix.Vector) error {
	if len(b.Binds) != 3 {
		return fmt.Errorf("bjt %s: requires exactly 3 nodes", b.Name)
	}

	vc := voltageAt(solution, b.Binds[0])
	vb := voltageAt(solution, b.Binds[1])
	ve := voltageAt(solution, b.Binds[2])

	// Damp junction voltage updates so the exponentials cannot run away.
	const maxStep = 0.5
	newVbe := vb - ve
	newVbc := vb - vc
	b.vbe += clamp(newVbe-b.vbe, -maxStep, maxStep)
	b.vbc += clamp(newVbc-b.vbc, -maxStep, maxStep)
	b.vce = b.vbe - b.vbc

	return nil
}

func (b *Bjt) UpdateState(solution *matrix.Vector, status *CircuitStatus) {
	b.prevVbe = b.vbe
	b.prevVbc = b.vbc
}

func (b *Bjt) Reset() {
	b.vbe, b.vbc, b.vce = 0, 0, 0
	b.ic, b.ib, b.ie = 0, 0, 0
	b.prevVbe, b.prevVbc = 0, 0
	b.seeded = false
}

// CollectorCurrent reports Ic at the last linearization point.
func (b *Bjt) CollectorCurrent() float64 { return b.ic }

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
