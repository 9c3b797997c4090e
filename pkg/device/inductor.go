package device

import (
	"fmt"
	"math"

	"github.com/edaworks/schemsim/internal/consts"
	"github.com/edaworks/schemsim/pkg/matrix"
)

// Inductor carries its branch current as an explicit unknown. Backward Euler
// turns v = L di/dt into the branch equation
//
//	v1 - v2 - (L/dt) i = -(L/dt) i_prev
//
// With the operating-point dt the L/dt term vanishes and the inductor
// degenerates to a short, as it must.
type Inductor struct {
	BaseComponent
	branchIdx int
	current0  float64 // branch current at last accepted step
	current1  float64
	flux      float64
}

var _ Component = (*Inductor)(nil)
var _ TimeDependent = (*Inductor)(nil)
var _ ACElement = (*Inductor)(nil)
var _ Branched = (*Inductor)(nil)
var _ Expander = (*Inductor)(nil)
var _ CurrentReporter = (*Inductor)(nil)

func NewInductor(name string, value float64) *Inductor {
	return &Inductor{
		BaseComponent: NewBaseComponent(name, 2, value),
	}
}

func (l *Inductor) GetType() string { return "L" }

func (l *Inductor) BranchIndex() int       { return l.branchIdx }
func (l *Inductor) SetBranchIndex(idx int) { l.branchIdx = idx }

func (l *Inductor) AllocateExtra(alloc *IndexAllocator) {
	l.branchIdx = alloc.Alloc()
}

func (l *Inductor) Stamp(m matrix.DeviceMatrix, status *CircuitStatus) error {
	if len(l.Binds) != 2 {
		return fmt.Errorf("inductor %s: requires exactly 2 nodes", l.Name)
	}

	n1, n2 := l.Binds[0], l.Binds[1]
	bIdx := l.branchIdx

	dt := status.TimeStep
	if dt <= 0 {
		dt = consts.DCTimeStep
	}
	req := l.Value / dt

	if n1 != 0 {
		m.AddElement(n1, bIdx, 1)
		m.AddElement(bIdx, n1, 1)
	}
	if n2 != 0 {
		m.AddElement(n2, bIdx, -1)
		m.AddElement(bIdx, n2, -1)
	}
	m.AddElement(bIdx, bIdx, -req)
	m.AddRHS(bIdx, -req*l.current0)

	return nil
}

func (l *Inductor) StampAC(m matrix.DeviceMatrix, status *CircuitStatus) error {
	n1, n2 := l.Binds[0], l.Binds[1]
	bIdx := l.branchIdx
	omega := 2 * math.Pi * status.Frequency

	if n1 != 0 {
		m.AddComplexElement(n1, bIdx, 1, 0)
		m.AddComplexElement(bIdx, n1, 1, 0)
	}
	if n2 != 0 {
		m.AddComplexElement(n2, bIdx, -1, 0)
		m.AddComplexElement(bIdx, n2, -1, 0)
	}
	// v1 - v2 = jwL * i
	m.AddComplexElement(bIdx, bIdx, 0, -omega*l.Value)
	return nil
}

func (l *Inductor) UpdateState(solution *matrix.Vector, status *CircuitStatus) {
	l.current1 = l.current0
	l.current0 = solution.At(l.branchIdx)
	l.flux = l.Value * l.current0
}

func (l *Inductor) Reset() {
	l.current0 = 0
	l.current1 = 0
	l.flux = 0
}

func (l *Inductor) Current(solution *matrix.Vector) float64 {
	return solution.At(l.branchIdx)
}

// StoredCurrent is the inductor current at the last accepted step.
func (l *Inductor) StoredCurrent() float64 { return l.current0 }
