package analysis

import (
	"testing"
)

func TestHistoryRecordsDuringTransient(t *testing.T) {
	ckt, _ := buildRCCharge(t)

	sim := NewSimulation(ckt)
	sim.SetTimeStep(10e-6)
	if err := sim.RunTransient(1e-3); err != nil {
		t.Fatalf("RunTransient failed: %v", err)
	}

	h := sim.History()
	if h.Len() == 0 {
		t.Fatal("no samples recorded")
	}

	times := make([]float64, h.Len())
	values := make([]float64, h.Len())
	n := h.GetHistory(0, times, values, h.Len())
	if n != h.Len() {
		t.Fatalf("GetHistory returned %d of %d", n, h.Len())
	}

	for i := 1; i < n; i++ {
		if times[i] <= times[i-1] {
			t.Fatalf("times not ascending at %d: %v then %v", i, times[i-1], times[i])
		}
	}
	// Charging capacitor: last sample above the first.
	if values[n-1] <= values[0] {
		t.Errorf("voltage did not rise: first %v, last %v", values[0], values[n-1])
	}
}

func TestHistoryRespectsMaxPoints(t *testing.T) {
	ckt, _ := buildRCCharge(t)

	sim := NewSimulation(ckt)
	sim.SetTimeStep(10e-6)
	if err := sim.RunTransient(1e-3); err != nil {
		t.Fatalf("RunTransient failed: %v", err)
	}

	times := make([]float64, 10)
	values := make([]float64, 10)
	if n := sim.History().GetHistory(0, times, values, 10); n != 10 {
		t.Errorf("want 10 points, got %d", n)
	}
}

func TestHistoryUnknownProbeYieldsZeros(t *testing.T) {
	ckt, _ := buildRCCharge(t)

	sim := NewSimulation(ckt)
	sim.SetTimeStep(10e-6)
	if err := sim.RunTransient(0.2e-3); err != nil {
		t.Fatalf("RunTransient failed: %v", err)
	}

	times := make([]float64, 5)
	values := make([]float64, 5)
	n := sim.History().GetHistory(7, times, values, 5)
	for i := 0; i < n; i++ {
		if values[i] != 0 {
			t.Fatalf("out-of-range probe returned data: %v", values[i])
		}
	}
}
