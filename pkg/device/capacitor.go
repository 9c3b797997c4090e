package device

import (
	"fmt"
	"math"

	"github.com/edaworks/schemsim/internal/consts"
	"github.com/edaworks/schemsim/pkg/matrix"
)

// Capacitor uses the backward-Euler companion model during transient runs:
// Geq = C/dt in parallel with Ieq = Geq * v_prev, where v_prev is the voltage
// at the last accepted step.
type Capacitor struct {
	BaseComponent
	voltage0 float64 // voltage at last accepted step
	voltage1 float64 // one step further back
	charge   float64
}

var _ Component = (*Capacitor)(nil)
var _ TimeDependent = (*Capacitor)(nil)
var _ ACElement = (*Capacitor)(nil)

func NewCapacitor(name string, value float64) *Capacitor {
	return &Capacitor{
		BaseComponent: NewBaseComponent(name, 2, value),
	}
}

func (c *Capacitor) GetType() string { return "C" }

func (c *Capacitor) Stamp(m matrix.DeviceMatrix, status *CircuitStatus) error {
	if len(c.Binds) != 2 {
		return fmt.Errorf("capacitor %s: requires exactly 2 nodes", c.Name)
	}

	n1, n2 := c.Binds[0], c.Binds[1]

	dt := status.TimeStep
	if dt <= 0 {
		dt = consts.DCTimeStep
	}
	geq := c.Value / dt
	ieq := geq * c.voltage0

	stampConductance(m, n1, n2, geq)
	if n1 != 0 {
		m.AddRHS(n1, ieq)
	}
	if n2 != 0 {
		m.AddRHS(n2, -ieq)
	}

	return nil
}

func (c *Capacitor) StampAC(m matrix.DeviceMatrix, status *CircuitStatus) error {
	omega := 2 * math.Pi * status.Frequency
	n1, n2 := c.Binds[0], c.Binds[1]
	susceptance := omega * c.Value // jwC

	if n1 != 0 {
		m.AddComplexElement(n1, n1, 0, susceptance)
		if n2 != 0 {
			m.AddComplexElement(n1, n2, 0, -susceptance)
		}
	}
	if n2 != 0 {
		if n1 != 0 {
			m.AddComplexElement(n2, n1, 0, -susceptance)
		}
		m.AddComplexElement(n2, n2, 0, susceptance)
	}
	return nil
}

func (c *Capacitor) UpdateState(solution *matrix.Vector, status *CircuitStatus) {
	vd := voltageAt(solution, c.Binds[0]) - voltageAt(solution, c.Binds[1])
	c.voltage1 = c.voltage0
	c.voltage0 = vd
	c.charge = c.Value * vd
}

func (c *Capacitor) Reset() {
	c.voltage0 = 0
	c.voltage1 = 0
	c.charge = 0
}

// StoredVoltage is the capacitor voltage at the last accepted step.
func (c *Capacitor) StoredVoltage() float64 { return c.voltage0 }
