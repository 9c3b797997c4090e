package matrix

import (
	"fmt"
)

// System bundles the dense MNA matrix and right-hand side exercised by every
// real-valued (operating point / transient) solve. It is exclusively owned by
// the active solve call.
type System struct {
	Size     int
	A        *Matrix
	B        *Vector
	solution *Vector
}

func NewSystem(size int) *System {
	return &System{
		Size: size,
		A:    NewRealMatrix(size),
		B:    NewVector(size),
	}
}

func (s *System) AddElement(i, j int, value float64) {
	s.A.Add(i, j, value)
}

func (s *System) AddRHS(i int, value float64) {
	s.B.Add(i, value)
}

// AddComplexElement keeps the DeviceMatrix contract; the dense system carries
// no imaginary part, so only the real term lands.
func (s *System) AddComplexElement(i, j int, real, imag float64) {
	s.A.Add(i, j, real)
}

func (s *System) AddComplexRHS(i int, real, imag float64) {
	s.B.Add(i, real)
}

// LoadGmin adds a small conductance from every true node to ground so
// floating sub-networks cannot leave the matrix singular. numNodes limits the
// loading to node rows; branch-current rows stay untouched.
func (s *System) LoadGmin(gmin float64, numNodes int) {
	if numNodes > s.Size {
		numNodes = s.Size
	}
	for i := 1; i <= numNodes; i++ {
		s.A.Add(i, i, gmin)
	}
}

// LoadGminRows adds gmin on explicit extra rows; subcircuit internal nodes
// live past the top-level node block but still need the loading.
func (s *System) LoadGminRows(gmin float64, rows []int) {
	for _, i := range rows {
		if i >= 1 && i <= s.Size {
			s.A.Add(i, i, gmin)
		}
	}
}

func (s *System) Clear() {
	s.A.Clear()
	s.B.Clear()
}

func (s *System) Solve() error {
	x, err := Solve(s.A, s.B)
	if err != nil {
		return fmt.Errorf("linear solve: %v", err)
	}
	s.solution = x
	return nil
}

func (s *System) Solution() *Vector {
	return s.solution
}
