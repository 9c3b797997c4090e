package matrix

import (
	"fmt"
	"math"

	"github.com/edp1096/sparse"
)

// ACMatrix is the complex sparse system used by the small-signal frequency
// sweep. The sparse package factors and solves; stamping keeps the same
// 1-based accumulate semantics as the dense System.
type ACMatrix struct {
	Size     int
	matrix   *sparse.Matrix
	rhs      []float64
	solution []float64
	config   *sparse.Configuration
}

func NewACMatrix(size int) (*ACMatrix, error) {
	// Translate stays on: Factor reorders the matrix, and the sweep restamps
	// the same ACMatrix at every frequency after that.
	config := &sparse.Configuration{
		Real:                    true,
		Complex:                 true,
		SeparatedComplexVectors: false,
		Expandable:              true,
		Translate:               true,
		ModifiedNodal:           true,
		TiesMultiplier:          5,
		PrinterWidth:            140,
		Annotate:                0,
	}

	m, err := sparse.Create(int64(size), config)
	if err != nil {
		return nil, fmt.Errorf("creating sparse matrix: %v", err)
	}

	// Interleaved real/imag, 1-based indexing.
	vectorSize := 2 * (size + 1)

	return &ACMatrix{
		Size:     size,
		matrix:   m,
		rhs:      make([]float64, vectorSize),
		solution: make([]float64, vectorSize),
		config:   config,
	}, nil
}

// SetupElements touches every element once so the sparse structure is fixed
// before the first factorization.
func (m *ACMatrix) SetupElements() {
	for i := 1; i <= m.Size; i++ {
		for j := 1; j <= m.Size; j++ {
			m.matrix.GetElement(int64(i), int64(j))
		}
	}
}

func (m *ACMatrix) AddElement(i, j int, value float64) {
	m.AddComplexElement(i, j, value, 0)
}

func (m *ACMatrix) AddRHS(i int, value float64) {
	m.AddComplexRHS(i, value, 0)
}

func (m *ACMatrix) AddComplexElement(i, j int, real, imag float64) {
	if i <= 0 || j <= 0 || i > m.Size || j > m.Size {
		return
	}
	element := m.matrix.GetElement(int64(i), int64(j))
	element.Real += real
	element.Imag += imag
}

func (m *ACMatrix) AddComplexRHS(i int, real, imag float64) {
	if i <= 0 || i > m.Size {
		return
	}
	m.rhs[2*i] += real
	m.rhs[2*i+1] += imag
}

func (m *ACMatrix) Clear() {
	m.matrix.Clear()
	for i := range m.rhs {
		m.rhs[i] = 0
	}
}

func (m *ACMatrix) Solve() error {
	if err := m.matrix.Factor(); err != nil {
		return fmt.Errorf("matrix factorization failed: %v", err)
	}

	solution, _, err := m.matrix.SolveComplex(m.rhs, nil)
	if err != nil {
		return fmt.Errorf("matrix solve failed: %v", err)
	}
	m.solution = solution

	return nil
}

// ComplexSolution returns the solved phasor at unknown i.
func (m *ACMatrix) ComplexSolution(i int) complex128 {
	if i <= 0 || i > m.Size {
		return 0
	}
	return complex(m.solution[2*i], m.solution[2*i+1])
}

// Magnitude returns |x_i| of the solved phasor.
func (m *ACMatrix) Magnitude(i int) float64 {
	if i <= 0 || i > m.Size {
		return 0
	}
	return math.Hypot(m.solution[2*i], m.solution[2*i+1])
}

func (m *ACMatrix) Destroy() {
	if m.matrix != nil {
		m.matrix.Destroy()
	}
}
