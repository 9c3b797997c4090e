package matrix

import (
	"fmt"
	"math"

	"github.com/edaworks/schemsim/internal/consts"
)

// Solve computes x with A x = b by Gaussian elimination with partial
// pivoting. A pivot smaller than the floor is clamped rather than failing, so
// weakly connected or floating nodes yield a usable (regularized) solution
// instead of aborting an interactive run. A and b are left untouched.
func Solve(a *Matrix, b *Vector) (*Vector, error) {
	if a == nil || b == nil {
		return nil, fmt.Errorf("solve: nil system")
	}
	if a.Size != b.Size {
		return nil, fmt.Errorf("solve: dimension mismatch (A %dx%d, b %d)", a.Size, a.Size, b.Size)
	}

	n := a.Size
	// Augmented working copy, 0-based.
	work := make([][]float64, n)
	for i := range work {
		work[i] = make([]float64, n+1)
		for j := 0; j < n; j++ {
			work[i][j] = a.At(i+1, j+1)
		}
		work[i][n] = b.At(i + 1)
	}

	for col := 0; col < n; col++ {
		// Partial pivoting, max magnitude in remaining column.
		pivRow := col
		pivMag := math.Abs(work[col][col])
		for row := col + 1; row < n; row++ {
			if mag := math.Abs(work[row][col]); mag > pivMag {
				pivMag = mag
				pivRow = row
			}
		}
		if pivRow != col {
			work[col], work[pivRow] = work[pivRow], work[col]
		}

		pivot := work[col][col]
		if math.Abs(pivot) < consts.PivotFloor {
			if pivot < 0 {
				pivot = -consts.PivotFloor
			} else {
				pivot = consts.PivotFloor
			}
			work[col][col] = pivot
		}

		for row := col + 1; row < n; row++ {
			factor := work[row][col] / pivot
			if factor == 0 {
				continue
			}
			for j := col; j <= n; j++ {
				work[row][j] -= factor * work[col][j]
			}
		}
	}

	x := NewVector(n)
	for row := n - 1; row >= 0; row-- {
		sum := work[row][n]
		for j := row + 1; j < n; j++ {
			sum -= work[row][j] * x.At(j+1)
		}
		diag := work[row][row]
		if math.Abs(diag) < consts.PivotFloor {
			// Unknown is undetermined, leave it at zero.
			x.Set(row+1, 0)
			continue
		}
		x.Set(row+1, sum/diag)
	}

	return x, nil
}
