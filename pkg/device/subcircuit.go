package device

import (
	"fmt"

	"github.com/edaworks/schemsim/pkg/matrix"
)

// Subcircuit expands a reusable block into the host matrix. Children use
// local node ids: 0 is ground, 1..NumPins map onto the instance's external
// terminals, and higher ids are internal nodes given fresh matrix slots from
// the allocator at bind time. Binding order matters: AllocateExtra runs
// before Bind so internal slots exist when children are mapped.
type Subcircuit struct {
	BaseComponent
	children      []Component
	internalCount int
	internalIdx   []int
}

var _ Component = (*Subcircuit)(nil)
var _ Expander = (*Subcircuit)(nil)
var _ NonLinear = (*Subcircuit)(nil)
var _ TimeDependent = (*Subcircuit)(nil)
var _ ACElement = (*Subcircuit)(nil)

func NewSubcircuit(name string, numPins, internalNodes int) *Subcircuit {
	return &Subcircuit{
		BaseComponent: NewBaseComponent(name, numPins, 0),
		internalCount: internalNodes,
	}
}

func (s *Subcircuit) GetType() string { return "X" }

// AddChild places a component inside the block. Its terminals must already
// hold local node ids.
func (s *Subcircuit) AddChild(c Component) {
	s.children = append(s.children, c)
}

func (s *Subcircuit) Children() []Component { return s.children }

func (s *Subcircuit) AllocateExtra(alloc *IndexAllocator) {
	s.internalIdx = make([]int, s.internalCount)
	for i := range s.internalIdx {
		s.internalIdx[i] = alloc.AllocNode()
	}
	for _, child := range s.children {
		if ex, ok := child.(Expander); ok {
			ex.AllocateExtra(alloc)
		}
	}
}

func (s *Subcircuit) Bind(nodes []int) {
	s.BaseComponent.Bind(nodes)

	numPins := len(s.Binds)
	for _, child := range s.children {
		locals := child.Terminals()
		mapped := make([]int, len(locals))
		for i, local := range locals {
			switch {
			case local == 0:
				mapped[i] = 0
			case local <= numPins:
				mapped[i] = s.Binds[local-1]
			default:
				mapped[i] = s.internalIdx[local-numPins-1]
			}
		}
		child.Bind(mapped)
	}
}

func (s *Subcircuit) Stamp(m matrix.DeviceMatrix, status *CircuitStatus) error {
	for _, child := range s.children {
		if err := child.Stamp(m, status); err != nil {
			return fmt.Errorf("subcircuit %s: %v", s.Name, err)
		}
	}
	return nil
}

// StampAC gives each child its small-signal stamp; children without one are
// linear and RHS-free, so their large-signal stamp is already correct.
func (s *Subcircuit) StampAC(m matrix.DeviceMatrix, status *CircuitStatus) error {
	for _, child := range s.children {
		var err error
		if ac, ok := child.(ACElement); ok {
			err = ac.StampAC(m, status)
		} else {
			err = child.Stamp(m, status)
		}
		if err != nil {
			return fmt.Errorf("subcircuit %s: %v", s.Name, err)
		}
	}
	return nil
}

func (s *Subcircuit) UpdateVoltages(solution *matrix.Vector) error {
	for _, child := range s.children {
		if nl, ok := child.(NonLinear); ok {
			if err := nl.UpdateVoltages(solution); err != nil {
				return fmt.Errorf("subcircuit %s: %v", s.Name, err)
			}
		}
	}
	return nil
}

func (s *Subcircuit) UpdateState(solution *matrix.Vector, status *CircuitStatus) {
	for _, child := range s.children {
		if td, ok := child.(TimeDependent); ok {
			td.UpdateState(solution, status)
		}
	}
}

func (s *Subcircuit) Reset() {
	for _, child := range s.children {
		if td, ok := child.(TimeDependent); ok {
			td.Reset()
		}
	}
}
