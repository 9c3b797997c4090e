package device

import (
	"fmt"

	"github.com/edaworks/schemsim/pkg/matrix"
)

type GateOp int

const (
	GateBuf GateOp = iota
	GateNot
	GateAnd
	GateOr
	GateNand
	GateNor
	GateXor
)

// LogicGate is the analog side of the digital bridge. Its inputs are sampled
// at high impedance (nothing stamped on input nodes); its output is driven
// like a voltage source against ground at the gate's high/low level. The
// three-phase contract is: SampleInputs reads analog voltages into discrete
// levels, Propagate evaluates the Boolean function, and the next Stamp drives
// the result.
type LogicGate struct {
	BaseComponent
	Op        GateOp
	Threshold float64 // input logic threshold (V)
	HighV     float64
	LowV      float64

	inputs []bool
	output bool
	next   bool

	branchIdx int
}

var _ Component = (*LogicGate)(nil)
var _ Branched = (*LogicGate)(nil)
var _ Expander = (*LogicGate)(nil)
var _ VoltageDefined = (*LogicGate)(nil)
var _ ACElement = (*LogicGate)(nil)

// NewLogicGate builds a gate with numInputs input terminals followed by one
// output terminal.
func NewLogicGate(name string, op GateOp, numInputs int) *LogicGate {
	return &LogicGate{
		BaseComponent: NewBaseComponent(name, numInputs+1, 0),
		Op:            op,
		Threshold:     2.5,
		HighV:         5.0,
		LowV:          0.0,
		inputs:        make([]bool, numInputs),
	}
}

func (g *LogicGate) GetType() string { return "G" }

func (g *LogicGate) VoltageDefined() bool { return true }

func (g *LogicGate) BranchIndex() int       { return g.branchIdx }
func (g *LogicGate) SetBranchIndex(idx int) { g.branchIdx = idx }

func (g *LogicGate) AllocateExtra(alloc *IndexAllocator) {
	g.branchIdx = alloc.Alloc()
}

// OutputNode is the matrix index the gate drives.
func (g *LogicGate) OutputNode() int {
	return g.Binds[len(g.Binds)-1]
}

func (g *LogicGate) Stamp(m matrix.DeviceMatrix, status *CircuitStatus) error {
	if len(g.Binds) < 2 {
		return fmt.Errorf("gate %s: requires at least 1 input and 1 output node", g.Name)
	}

	out := g.OutputNode()
	bIdx := g.branchIdx

	level := g.LowV
	if g.output {
		level = g.HighV
	}

	if out != 0 {
		m.AddElement(bIdx, out, 1)
		m.AddElement(out, bIdx, 1)
	}
	m.AddRHS(bIdx, level)
	return nil
}

// StampAC pins the driven output at zero swing: an ideal gate output holds
// its logic level regardless of the small-signal stimulus, and the DC drive
// level never reaches the AC right-hand side.
func (g *LogicGate) StampAC(m matrix.DeviceMatrix, status *CircuitStatus) error {
	if len(g.Binds) < 2 {
		return fmt.Errorf("gate %s: requires at least 1 input and 1 output node", g.Name)
	}

	out := g.OutputNode()
	bIdx := g.branchIdx

	if out != 0 {
		m.AddComplexElement(bIdx, out, 1, 0)
		m.AddComplexElement(out, bIdx, 1, 0)
	}
	return nil
}

// SampleInputs converts analog input-node voltages into discrete levels
// using the gate's threshold.
func (g *LogicGate) SampleInputs(solution *matrix.Vector) {
	for i := range g.inputs {
		g.inputs[i] = voltageAt(solution, g.Binds[i]) >= g.Threshold
	}
}

// Propagate evaluates the Boolean function into the pending output; the new
// level reaches the matrix at the next stamp, via DriveOutputs.
func (g *LogicGate) Propagate() {
	switch g.Op {
	case GateBuf:
		g.next = g.inputs[0]
	case GateNot:
		g.next = !g.inputs[0]
	case GateAnd, GateNand:
		v := true
		for _, in := range g.inputs {
			v = v && in
		}
		if g.Op == GateNand {
			v = !v
		}
		g.next = v
	case GateOr, GateNor:
		v := false
		for _, in := range g.inputs {
			v = v || in
		}
		if g.Op == GateNor {
			v = !v
		}
		g.next = v
	case GateXor:
		v := false
		for _, in := range g.inputs {
			if in {
				v = !v
			}
		}
		g.next = v
	}
}

// DriveOutputs latches the propagated level for the next analog solve.
func (g *LogicGate) DriveOutputs() {
	g.output = g.next
}

// Output reports the currently driven logic level.
func (g *LogicGate) Output() bool { return g.output }
