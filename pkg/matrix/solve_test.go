package matrix

import (
	"math"
	"testing"
)

func TestSolveKnownSystem(t *testing.T) {
	// 2x + y = 3
	// x + 3y = 5
	// x = 4/5, y = 7/5
	a := NewRealMatrix(2)
	a.Add(1, 1, 2)
	a.Add(1, 2, 1)
	a.Add(2, 1, 1)
	a.Add(2, 2, 3)

	b := NewVector(2)
	b.Set(1, 3)
	b.Set(2, 5)

	x, err := Solve(a, b)
	if err != nil {
		t.Fatalf("Solve failed: %v", err)
	}

	if math.Abs(x.At(1)-0.8) > 1e-9 {
		t.Errorf("x1: want 0.8, got %v", x.At(1))
	}
	if math.Abs(x.At(2)-1.4) > 1e-9 {
		t.Errorf("x2: want 1.4, got %v", x.At(2))
	}
}

func TestSolveRoundTrip(t *testing.T) {
	a := NewRealMatrix(3)
	vals := [][]float64{
		{2, 3, 1},
		{1, 2, 3},
		{3, 1, 2},
	}
	for i := 1; i <= 3; i++ {
		for j := 1; j <= 3; j++ {
			a.Add(i, j, vals[i-1][j-1])
		}
	}

	b := NewVector(3)
	b.Set(1, 9)
	b.Set(2, 6)
	b.Set(3, 8)

	x, err := Solve(a, b)
	if err != nil {
		t.Fatalf("Solve failed: %v", err)
	}

	ax := a.Mul(x)
	for i := 1; i <= 3; i++ {
		if math.Abs(ax.At(i)-b.At(i)) > 1e-9 {
			t.Errorf("row %d: A*x = %v, want %v", i, ax.At(i), b.At(i))
		}
	}
}

func TestSolveRequiresPivoting(t *testing.T) {
	// Zero on the leading diagonal; only a row swap solves this.
	a := NewRealMatrix(2)
	a.Add(1, 2, 1)
	a.Add(2, 1, 1)

	b := NewVector(2)
	b.Set(1, 2)
	b.Set(2, 3)

	x, err := Solve(a, b)
	if err != nil {
		t.Fatalf("Solve failed: %v", err)
	}
	if math.Abs(x.At(1)-3) > 1e-9 || math.Abs(x.At(2)-2) > 1e-9 {
		t.Errorf("want [3 2], got [%v %v]", x.At(1), x.At(2))
	}
}

func TestSolveSingularYieldsZeros(t *testing.T) {
	// An all-zero system solves to the all-zero vector instead of NaN; the
	// pivot clamp keeps the elimination finite.
	a := NewRealMatrix(2)
	b := NewVector(2)

	x, err := Solve(a, b)
	if err != nil {
		t.Fatalf("Solve failed: %v", err)
	}
	for i := 1; i <= 2; i++ {
		if x.At(i) != 0 {
			t.Errorf("x%d: want 0, got %v", i, x.At(i))
		}
		if math.IsNaN(x.At(i)) || math.IsInf(x.At(i), 0) {
			t.Errorf("x%d is not finite: %v", i, x.At(i))
		}
	}
}

func TestSolveDimensionMismatch(t *testing.T) {
	a := NewRealMatrix(3)
	b := NewVector(2)
	if _, err := Solve(a, b); err == nil {
		t.Fatal("want error for mismatched dimensions")
	}
}

func TestVectorMaxAbsDiff(t *testing.T) {
	v := NewVector(3)
	w := NewVector(3)
	v.Set(1, 1)
	v.Set(2, -2)
	w.Set(2, 0.5)

	if got := v.MaxAbsDiff(w); math.Abs(got-2.5) > 1e-12 {
		t.Errorf("MaxAbsDiff: want 2.5, got %v", got)
	}
}

func TestSystemGminLoading(t *testing.T) {
	s := NewSystem(3)
	s.LoadGmin(1e-12, 2) // third row is a branch, stays clean

	if got := s.A.At(1, 1); got != 1e-12 {
		t.Errorf("node 1 diagonal: want 1e-12, got %v", got)
	}
	if got := s.A.At(3, 3); got != 0 {
		t.Errorf("branch diagonal: want 0, got %v", got)
	}
}

func TestSystemGminRows(t *testing.T) {
	s := NewSystem(4)
	// Hidden node rows sit past the branch block and get loaded by index.
	s.LoadGminRows(1e-12, []int{3, 99})

	if got := s.A.At(3, 3); got != 1e-12 {
		t.Errorf("extra node diagonal: want 1e-12, got %v", got)
	}
	if got := s.A.At(2, 2); got != 0 {
		t.Errorf("unlisted diagonal: want 0, got %v", got)
	}
	if got := s.A.At(4, 4); got != 0 {
		t.Errorf("branch diagonal: want 0, got %v", got)
	}
}
