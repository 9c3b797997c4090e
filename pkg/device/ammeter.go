package device

import (
	"fmt"

	"github.com/edaworks/schemsim/pkg/matrix"
)

// Ammeter is a zero-volt source: its branch current is an explicit unknown,
// which is exactly the reading. The overcurrent diagnostic watches these
// branches.
type Ammeter struct {
	BaseComponent
	branchIdx int
}

var _ Component = (*Ammeter)(nil)
var _ Branched = (*Ammeter)(nil)
var _ Expander = (*Ammeter)(nil)
var _ CurrentReporter = (*Ammeter)(nil)

func NewAmmeter(name string) *Ammeter {
	return &Ammeter{
		BaseComponent: NewBaseComponent(name, 2, 0),
	}
}

func (a *Ammeter) GetType() string { return "AM" }

func (a *Ammeter) BranchIndex() int       { return a.branchIdx }
func (a *Ammeter) SetBranchIndex(idx int) { a.branchIdx = idx }

func (a *Ammeter) AllocateExtra(alloc *IndexAllocator) {
	a.branchIdx = alloc.Alloc()
}

func (a *Ammeter) Stamp(m matrix.DeviceMatrix, status *CircuitStatus) error {
	if len(a.Binds) != 2 {
		return fmt.Errorf("ammeter %s: requires exactly 2 nodes", a.Name)
	}

	n1, n2 := a.Binds[0], a.Binds[1]
	bIdx := a.branchIdx

	// v1 - v2 = 0
	if n1 != 0 {
		m.AddElement(bIdx, n1, 1)
		m.AddElement(n1, bIdx, 1)
	}
	if n2 != 0 {
		m.AddElement(bIdx, n2, -1)
		m.AddElement(n2, bIdx, -1)
	}
	return nil
}

func (a *Ammeter) Current(solution *matrix.Vector) float64 {
	return -solution.At(a.branchIdx)
}
