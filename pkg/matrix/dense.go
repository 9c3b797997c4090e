package matrix

import (
	"gonum.org/v1/gonum/mat"
)

// Matrix is a dense square MNA matrix. Rows and columns are 1-based; index 0
// is the ground slot and is never stored. All stamping accumulates, it never
// overwrites, so devices sharing a node combine correctly.
type Matrix struct {
	Size int
	d    *mat.Dense
}

func NewRealMatrix(size int) *Matrix {
	return &Matrix{
		Size: size,
		d:    mat.NewDense(size, size, nil),
	}
}

func (m *Matrix) At(i, j int) float64 {
	if i <= 0 || j <= 0 || i > m.Size || j > m.Size {
		return 0
	}
	return m.d.At(i-1, j-1)
}

func (m *Matrix) Set(i, j int, value float64) {
	if i <= 0 || j <= 0 || i > m.Size || j > m.Size {
		return
	}
	m.d.Set(i-1, j-1, value)
}

func (m *Matrix) Add(i, j int, value float64) {
	if i <= 0 || j <= 0 || i > m.Size || j > m.Size {
		return
	}
	m.d.Set(i-1, j-1, m.d.At(i-1, j-1)+value)
}

func (m *Matrix) Clear() {
	m.d.Zero()
}

// Mul computes A*x for solver round-trip checks.
func (m *Matrix) Mul(x *Vector) *Vector {
	out := NewVector(m.Size)
	for i := 1; i <= m.Size; i++ {
		sum := 0.0
		for j := 1; j <= m.Size; j++ {
			sum += m.d.At(i-1, j-1) * x.At(j)
		}
		out.Set(i, sum)
	}
	return out
}

// Vector is a dense 1-based vector with the same ground-slot convention as
// Matrix. Entry 0 always reads as zero.
type Vector struct {
	Size int
	v    *mat.VecDense
}

func NewVector(size int) *Vector {
	return &Vector{
		Size: size,
		v:    mat.NewVecDense(size, nil),
	}
}

func (v *Vector) At(i int) float64 {
	if i <= 0 || i > v.Size {
		return 0
	}
	return v.v.AtVec(i - 1)
}

func (v *Vector) Set(i int, value float64) {
	if i <= 0 || i > v.Size {
		return
	}
	v.v.SetVec(i-1, value)
}

func (v *Vector) Add(i int, value float64) {
	if i <= 0 || i > v.Size {
		return
	}
	v.v.SetVec(i-1, v.v.AtVec(i-1)+value)
}

func (v *Vector) Clear() {
	v.v.Zero()
}

// Clone returns an owned snapshot. The Newton loop holds exactly one current
// and one previous vector and swaps them, never aliases them.
func (v *Vector) Clone() *Vector {
	out := NewVector(v.Size)
	out.v.CopyVec(v.v)
	return out
}

func (v *Vector) CopyFrom(src *Vector) {
	if v.Size != src.Size {
		return
	}
	v.v.CopyVec(src.v)
}

// MaxAbsDiff returns the largest component-wise |v - w|, the NR convergence
// measure.
func (v *Vector) MaxAbsDiff(w *Vector) float64 {
	maxDiff := 0.0
	for i := 1; i <= v.Size; i++ {
		diff := v.At(i) - w.At(i)
		if diff < 0 {
			diff = -diff
		}
		if diff > maxDiff {
			maxDiff = diff
		}
	}
	return maxDiff
}
