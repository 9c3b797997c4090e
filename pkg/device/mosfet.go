package device

import (
	"fmt"
	"math"

	"github.com/edaworks/schemsim/internal/consts"
	"github.com/edaworks/schemsim/pkg/matrix"
)

// Mosfet is a square-law (level 1) model. Terminals: 0 = drain, 1 = gate,
// 2 = source. The gate is high-impedance; drain current is linearized into
// gm/gds plus an equivalent current source each Newton iteration.
type Mosfet struct {
	BaseComponent
	PChannel bool
	Vto      float64 // Threshold voltage
	Kp       float64 // Transconductance parameter (A/V²)
	Lambda   float64 // Channel length modulation (1/V)

	// Linearization state
	vgs, vds float64
	id       float64
	gm, gds  float64
	seeded   bool
}

var _ Component = (*Mosfet)(nil)
var _ NonLinear = (*Mosfet)(nil)
var _ ACElement = (*Mosfet)(nil)

func NewMosfet(name string, pchannel bool) *Mosfet {
	return &Mosfet{
		BaseComponent: NewBaseComponent(name, 3, 0),
		PChannel:      pchannel,
		Vto:           2.0,
		Kp:            1e-3,
		Lambda:        0.01,
	}
}

func (f *Mosfet) GetType() string { return "M" }

// evaluate computes id, gm, gds at (vgs, vds) for an n-channel device;
// p-channel flips polarities around it.
func (f *Mosfet) evaluate(vgs, vds float64) (float64, float64, float64) {
	vov := vgs - f.Vto
	if vov <= 0 {
		// Cutoff
		return 0, 0, consts.Gmin
	}

	if vds < vov {
		// Triode
		id := f.Kp * (vov*vds - 0.5*vds*vds) * (1 + f.Lambda*vds)
		gm := f.Kp * vds
		gds := f.Kp*(vov-vds) + f.Kp*f.Lambda*(vov*vds-0.5*vds*vds)
		return id, gm, math.Max(gds, consts.Gmin)
	}

	// Saturation
	id := 0.5 * f.Kp * vov * vov * (1 + f.Lambda*vds)
	gm := f.Kp * vov * (1 + f.Lambda*vds)
	gds := 0.5 * f.Kp * vov * vov * f.Lambda
	return id, gm, math.Max(gds, consts.Gmin)
}

func (f *Mosfet) Stamp(m matrix.DeviceMatrix, status *CircuitStatus) error {
	if len(f.Binds) != 3 {
		return fmt.Errorf("mosfet %s: requires exactly 3 nodes", f.Name)
	}

	nd := f.Binds[0]
	ng := f.Binds[1]
	ns := f.Binds[2]

	if !f.seeded {
		f.vgs = f.Vto + 0.5
		f.vds = 1.0
		f.seeded = true
		return nil
	}

	vgs, vds := f.vgs, f.vds
	sign := 1.0
	if f.PChannel {
		vgs, vds = -vgs, -vds
		sign = -1.0
	}

	id, gm, gds := f.evaluate(vgs, vds)
	f.id = sign * id
	f.gm = gm
	f.gds = gds

	// Drain current linearized: id ≈ Id0 + gm*(vgs - Vgs0) + gds*(vds - Vds0)
	ieq := f.id - f.gm*f.vgs - f.gds*f.vds

	gmin := status.Gmin
	stampConductance(m, nd, ns, f.gds+gmin)

	// gm coupling drain row <- gate-source voltage
	if nd != 0 {
		if ng != 0 {
			m.AddElement(nd, ng, f.gm)
		}
		if ns != 0 {
			m.AddElement(nd, ns, -f.gm)
		}
		m.AddRHS(nd, -ieq)
	}
	if ns != 0 {
		if ng != 0 {
			m.AddElement(ns, ng, -f.gm)
		}
		m.AddElement(ns, ns, f.gm)
		m.AddRHS(ns, ieq)
	}

	return nil
}

// StampAC loads gm and gds from the last bias-point linearization without
// the equivalent-current RHS term.
func (f *Mosfet) StampAC(m matrix.DeviceMatrix, status *CircuitStatus) error {
	if len(f.Binds) != 3 {
		return fmt.Errorf("mosfet %s: requires exactly 3 nodes", f.Name)
	}

	nd := f.Binds[0]
	ng := f.Binds[1]
	ns := f.Binds[2]

	if nd != 0 {
		m.AddComplexElement(nd, nd, f.gds, 0)
		if ng != 0 {
			m.AddComplexElement(nd, ng, f.gm, 0)
		}
		if ns != 0 {
			m.AddComplexElement(nd, ns, -f.gds-f.gm, 0)
		}
	}
	if ns != 0 {
		m.AddComplexElement(ns, ns, f.gds+f.gm, 0)
		if nd != 0 {
			m.AddComplexElement(ns, nd, -f.gds, 0)
		}
		if ng != 0 {
			m.AddComplexElement(ns, ng, -f.gm, 0)
		}
	}

	return nil
}

func (f *Mosfet) UpdateVoltages(solution *matrix.Vector) error {
	if len(f.Binds) != 3 {
		return fmt.Errorf("mosfet %s: requires exactly 3 nodes", f.Name)
	}

	vd := voltageAt(solution, f.Binds[0])
	vg := voltageAt(solution, f.Binds[1])
	vs := voltageAt(solution, f.Binds[2])

	const maxStep = 0.5
	f.vgs += clamp((vg-vs)-f.vgs, -maxStep, maxStep)
	f.vds += clamp((vd-vs)-f.vds, -maxStep, maxStep)

	return nil
}

// DrainCurrent reports Id at the last linearization point.
func (f *Mosfet) DrainCurrent() float64 { return f.id }
