package device

import (
	"fmt"

	"github.com/edaworks/schemsim/pkg/matrix"
)

// Transformer is ideal: Vp = n*Vs with n the turns ratio, coupled through one
// branch-current unknown carrying the primary current. Terminals:
// 0 = primary+, 1 = primary-, 2 = secondary+, 3 = secondary-.
type Transformer struct {
	BaseComponent
	Ratio float64 // Np/Ns

	branchIdx int
}

var _ Component = (*Transformer)(nil)
var _ Branched = (*Transformer)(nil)
var _ Expander = (*Transformer)(nil)
var _ CurrentReporter = (*Transformer)(nil)

func NewTransformer(name string, ratio float64) *Transformer {
	return &Transformer{
		BaseComponent: NewBaseComponent(name, 4, ratio),
		Ratio:         ratio,
	}
}

func (t *Transformer) GetType() string { return "T" }

func (t *Transformer) BranchIndex() int       { return t.branchIdx }
func (t *Transformer) SetBranchIndex(idx int) { t.branchIdx = idx }

func (t *Transformer) AllocateExtra(alloc *IndexAllocator) {
	t.branchIdx = alloc.Alloc()
}

func (t *Transformer) Stamp(m matrix.DeviceMatrix, status *CircuitStatus) error {
	if len(t.Binds) != 4 {
		return fmt.Errorf("transformer %s: requires exactly 4 nodes", t.Name)
	}

	pp, pm := t.Binds[0], t.Binds[1]
	sp, sm := t.Binds[2], t.Binds[3]
	bIdx := t.branchIdx
	n := t.Ratio

	// Primary carries i, secondary carries -n*i (power balance), and the
	// constraint row enforces Vp - n*Vs = 0.
	if pp != 0 {
		m.AddElement(pp, bIdx, 1)
		m.AddElement(bIdx, pp, 1)
	}
	if pm != 0 {
		m.AddElement(pm, bIdx, -1)
		m.AddElement(bIdx, pm, -1)
	}
	if sp != 0 {
		m.AddElement(sp, bIdx, -n)
		m.AddElement(bIdx, sp, -n)
	}
	if sm != 0 {
		m.AddElement(sm, bIdx, n)
		m.AddElement(bIdx, sm, n)
	}

	return nil
}

// Current reports the primary branch current.
func (t *Transformer) Current(solution *matrix.Vector) float64 {
	return solution.At(t.branchIdx)
}
