package device

import (
	"github.com/edaworks/schemsim/internal/consts"
	"github.com/edaworks/schemsim/pkg/matrix"
)

// Component is one placed device in a schematic. Terminals() holds raw
// schematic node ids; Nodes() holds the compacted matrix indices bound before
// every solve pass (0 is ground).
type Component interface {
	GetName() string
	GetType() string
	NumTerminals() int
	Terminals() []int
	SetTerminals(ids []int)
	Nodes() []int
	Bind(nodes []int)
	Stamp(m matrix.DeviceMatrix, status *CircuitStatus) error
}

// BaseComponent carries the bookkeeping every device shares.
type BaseComponent struct {
	Name  string
	Terms []int // raw schematic node ids, one per terminal
	Binds []int // matrix indices, rebound every solve
	Value float64
}

func NewBaseComponent(name string, numTerminals int, value float64) BaseComponent {
	return BaseComponent{
		Name:  name,
		Terms: make([]int, numTerminals),
		Binds: make([]int, numTerminals),
		Value: value,
	}
}

func (d *BaseComponent) GetName() string { return d.Name }

func (d *BaseComponent) NumTerminals() int { return len(d.Terms) }

func (d *BaseComponent) Terminals() []int { return d.Terms }

func (d *BaseComponent) SetTerminals(ids []int) {
	copy(d.Terms, ids)
}

func (d *BaseComponent) Nodes() []int { return d.Binds }

func (d *BaseComponent) Bind(nodes []int) {
	copy(d.Binds, nodes)
}

func (d *BaseComponent) GetValue() float64 { return d.Value }

type AnalysisMode int

const (
	OperatingPointAnalysis AnalysisMode = iota
	TransientAnalysis
	ACAnalysis
)

// Environment holds the ambient conditions affecting temperature- and
// light-sensitive devices. It is passed explicitly into every stamp call;
// there is no process-wide environment.
type Environment struct {
	Temp       float64 // device junction reference temperature (K)
	Ambient    float64 // ambient temperature for the thermal model (K)
	LightLevel float64 // normalized illumination, 0 (dark) .. 1 (full)
}

func DefaultEnvironment() Environment {
	return Environment{
		Temp:       consts.ROOMTEMP,
		Ambient:    consts.ROOMTEMP,
		LightLevel: 0.5,
	}
}

// CircuitStatus is the per-stamp context. Devices that linearize around the
// previous Newton iterate receive it through UpdateVoltages before stamping;
// the iterate is read-only during stamping and never the vector being solved
// for.
type CircuitStatus struct {
	Mode      AnalysisMode
	Time      float64
	TimeStep  float64
	Gmin      float64
	Env       Environment
	Frequency float64 // AC analysis only
}

// NonLinear devices re-linearize around the previous iterate before each
// stamp.
type NonLinear interface {
	UpdateVoltages(solution *matrix.Vector) error
}

// TimeDependent devices carry per-step state (charge, flux, i2t integrals).
// UpdateState runs once per accepted step, never per Newton iteration.
type TimeDependent interface {
	UpdateState(solution *matrix.Vector, status *CircuitStatus)
	Reset()
}

// ACElement devices participate in the small-signal sweep.
type ACElement interface {
	StampAC(m matrix.DeviceMatrix, status *CircuitStatus) error
}

// Branched devices need their branch current as an explicit matrix unknown
// (ideal voltage sources, inductors, op-amps and other VCVS-like elements).
type Branched interface {
	BranchIndex() int
	SetBranchIndex(idx int)
}

// Expander devices consume matrix slots beyond the node unknowns. The
// allocator is threaded through binding so recursive subcircuit expansion
// stays re-entrant.
type Expander interface {
	AllocateExtra(alloc *IndexAllocator)
}

// VoltageDefined marks devices that force a voltage across two terminals;
// these are the ones the short-circuit pre-check inspects.
type VoltageDefined interface {
	VoltageDefined() bool
}

// CurrentReporter devices can state their terminal-0 to terminal-1 current
// from a solved vector. Used by ammeters, the overcurrent check and the
// wire-current back-annotation.
type CurrentReporter interface {
	Current(solution *matrix.Vector) float64
}

// IndexAllocator hands out matrix row/column slots past the node unknowns,
// in component order. Slots are either branch currents (Alloc) or hidden
// circuit nodes (AllocNode); the split matters because GMIN loading touches
// node rows only.
type IndexAllocator struct {
	next      int
	nodeSlots []int
}

func NewIndexAllocator(numNodes int) *IndexAllocator {
	return &IndexAllocator{next: numNodes + 1}
}

func (a *IndexAllocator) Alloc() int {
	idx := a.next
	a.next++
	return idx
}

// AllocNode hands out a slot that behaves like a circuit node (subcircuit
// internal nodes) rather than a branch current.
func (a *IndexAllocator) AllocNode() int {
	idx := a.Alloc()
	a.nodeSlots = append(a.nodeSlots, idx)
	return idx
}

// NodeSlots lists the extra node-type slots allocated so far.
func (a *IndexAllocator) NodeSlots() []int { return a.nodeSlots }

// MatrixSize is the total unknown count allocated so far.
func (a *IndexAllocator) MatrixSize() int {
	return a.next - 1
}

// voltageAt reads a node voltage with the ground convention applied.
func voltageAt(solution *matrix.Vector, node int) float64 {
	if node == 0 || solution == nil {
		return 0
	}
	return solution.At(node)
}
