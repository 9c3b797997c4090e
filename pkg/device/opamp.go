package device

import (
	"fmt"
	"math"

	"github.com/edaworks/schemsim/pkg/matrix"
)

// OpAmp models the amplifier as a VCVS with finite open-loop gain: the output
// is driven against ground through a branch-current unknown, inputs are
// high-impedance. Terminals: 0 = non-inverting, 1 = inverting, 2 = output.
// The output clamps at the supply rails by re-linearizing like any other
// nonlinear device.
type OpAmp struct {
	BaseComponent
	Gain    float64
	RailPos float64
	RailNeg float64

	branchIdx int
	vout      float64 // previous-iterate output, for rail clamping
}

var _ Component = (*OpAmp)(nil)
var _ Branched = (*OpAmp)(nil)
var _ Expander = (*OpAmp)(nil)
var _ NonLinear = (*OpAmp)(nil)

func NewOpAmp(name string) *OpAmp {
	return &OpAmp{
		BaseComponent: NewBaseComponent(name, 3, 0),
		Gain:          1e5,
		RailPos:       15,
		RailNeg:       -15,
	}
}

func (o *OpAmp) GetType() string { return "OP" }

func (o *OpAmp) BranchIndex() int       { return o.branchIdx }
func (o *OpAmp) SetBranchIndex(idx int) { o.branchIdx = idx }

func (o *OpAmp) AllocateExtra(alloc *IndexAllocator) {
	o.branchIdx = alloc.Alloc()
}

func (o *OpAmp) Stamp(m matrix.DeviceMatrix, status *CircuitStatus) error {
	if len(o.Binds) != 3 {
		return fmt.Errorf("opamp %s: requires exactly 3 nodes", o.Name)
	}

	np, nm, nout := o.Binds[0], o.Binds[1], o.Binds[2]
	bIdx := o.branchIdx

	if nout != 0 {
		m.AddElement(nout, bIdx, 1)
		m.AddElement(bIdx, nout, 1)
	}

	if o.saturated() {
		// Output pinned to the rail the previous iterate ran into.
		rail := o.RailPos
		if o.vout < 0 {
			rail = o.RailNeg
		}
		m.AddRHS(bIdx, rail)
		return nil
	}

	// vout = Gain * (v+ - v-)
	if np != 0 {
		m.AddElement(bIdx, np, -o.Gain)
	}
	if nm != 0 {
		m.AddElement(bIdx, nm, o.Gain)
	}
	return nil
}

func (o *OpAmp) saturated() bool {
	return o.vout > o.RailPos || o.vout < o.RailNeg
}

func (o *OpAmp) UpdateVoltages(solution *matrix.Vector) error {
	o.vout = voltageAt(solution, o.Binds[2])
	if math.IsNaN(o.vout) {
		return fmt.Errorf("opamp %s: output is NaN", o.Name)
	}
	return nil
}
