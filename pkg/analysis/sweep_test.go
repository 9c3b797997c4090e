package analysis

import (
	"math"
	"math/cmplx"
	"testing"

	"github.com/edaworks/schemsim/pkg/circuit"
	"github.com/edaworks/schemsim/pkg/device"
)

// buildRCFilter wires the 1k / 100n low-pass used by both sweep styles;
// corner sits near 1.59 kHz.
func buildRCFilter(t *testing.T, src *device.VoltageSource) (*circuit.Circuit, *circuit.Probe) {
	t.Helper()
	ckt := circuit.New()

	in := circuit.Point{X: 0, Y: 0}
	out := circuit.Point{X: 2, Y: 0}
	gnd := circuit.Point{X: 0, Y: 2}
	gnd2 := circuit.Point{X: 2, Y: 2}

	ckt.Place(src, in, gnd)
	ckt.Place(device.NewResistor("R1", 1e3), in, out)
	ckt.Place(device.NewCapacitor("C1", 100e-9), out, gnd2)
	ckt.Place(device.NewGround("GND1"), gnd)
	ckt.AddWire(gnd, gnd2)

	return ckt, ckt.AddProbe(out, "out")
}

func TestFrequencyResponseLowPass(t *testing.T) {
	if testing.Short() {
		t.Skip("time-domain sweep is slow")
	}

	src := device.NewSinVoltageSource("V1", 0, 1, 1, 0)
	ckt, probe := buildRCFilter(t, src)

	sim := NewSimulation(ckt)
	points, err := sim.FrequencyResponse(src, probe, 100, 15.9e3, 3)
	if err != nil {
		t.Fatalf("FrequencyResponse failed: %v", err)
	}
	if len(points) != 3 {
		t.Fatalf("want 3 points, got %d", len(points))
	}

	// Deep passband: unity gain, negligible phase shift.
	if math.Abs(points[0].MagnitudeDB) > 1 {
		t.Errorf("passband gain: want ~0dB, got %v", points[0].MagnitudeDB)
	}
	if math.Abs(points[0].PhaseDeg) > 10 {
		t.Errorf("passband phase: want ~0deg, got %v", points[0].PhaseDeg)
	}

	// A decade past the corner: about -20dB, approaching -90deg.
	last := points[len(points)-1]
	if last.MagnitudeDB > -17 || last.MagnitudeDB < -24 {
		t.Errorf("stopband gain: want ~-20dB, got %v", last.MagnitudeDB)
	}
	if last.PhaseDeg > -60 {
		t.Errorf("stopband phase: want near -90deg, got %v", last.PhaseDeg)
	}

	if sim.SweepProgress != 1 {
		t.Errorf("sweep progress: want 1, got %v", sim.SweepProgress)
	}
}

func TestFrequencyResponseCancel(t *testing.T) {
	src := device.NewSinVoltageSource("V1", 0, 1, 1, 0)
	ckt, probe := buildRCFilter(t, src)

	sim := NewSimulation(ckt)

	// A stale cancel flag from a previous sweep must not abort a new one.
	sim.CancelRequested = true
	points, err := sim.FrequencyResponse(src, probe, 100, 1e3, 2)
	if err != nil {
		t.Fatalf("FrequencyResponse failed: %v", err)
	}
	if len(points) != 2 {
		t.Fatalf("want the full 2 points after flag reset, got %d", len(points))
	}
}

func TestFrequencyResponseRejectsBadRange(t *testing.T) {
	src := device.NewSinVoltageSource("V1", 0, 1, 1, 0)
	ckt, probe := buildRCFilter(t, src)

	sim := NewSimulation(ckt)
	if _, err := sim.FrequencyResponse(src, probe, 1e3, 100, 5); err == nil {
		t.Error("want error for fStop < fStart")
	}
	if _, err := sim.FrequencyResponse(src, probe, 0, 100, 5); err == nil {
		t.Error("want error for zero fStart")
	}
	if _, err := sim.FrequencyResponse(src, probe, 100, 1e3, 1); err == nil {
		t.Error("want error for single point")
	}
}

func TestACSweepLowPass(t *testing.T) {
	src := device.NewDCVoltageSource("V1", 0)
	src.SetAC(1, 0)
	ckt, _ := buildRCFilter(t, src)

	sim := NewSimulation(ckt)
	results, err := sim.ACSweep(100, 100e3, 4, "DEC")
	if err != nil {
		t.Fatalf("ACSweep failed: %v", err)
	}
	if len(results) != 4 {
		t.Fatalf("want 4 points, got %d", len(results))
	}

	for _, r := range results {
		v, ok := r.Values["V(out)"]
		if !ok {
			t.Fatalf("missing V(out) at f=%v", r.Frequency)
		}

		fc := 1.0 / (2 * math.Pi * 1e3 * 100e-9)
		want := 1.0 / math.Sqrt(1+(r.Frequency/fc)*(r.Frequency/fc))
		if got := cmplx.Abs(v); math.Abs(got-want) > 0.02 {
			t.Errorf("f=%v: |V(out)| want %v, got %v", r.Frequency, want, got)
		}
	}
}

func TestACSweepExcludesDCBias(t *testing.T) {
	ckt := circuit.New()

	top := circuit.Point{X: 0, Y: 0}
	gnd := circuit.Point{X: 0, Y: 2}

	// 1mA into 1k biases the node at 1V, but nothing carries an AC magnitude,
	// so every phasor in the sweep must come out zero.
	ckt.Place(device.NewDCCurrentSource("I1", 1e-3), gnd, top)
	ckt.Place(device.NewResistor("R1", 1e3), top, gnd)
	ckt.Place(device.NewGround("GND1"), gnd)
	ckt.AddProbe(top, "out")

	sim := NewSimulation(ckt)
	results, err := sim.ACSweep(100, 10e3, 3, "DEC")
	if err != nil {
		t.Fatalf("ACSweep failed: %v", err)
	}

	for _, r := range results {
		if mag := cmplx.Abs(r.Values["V(out)"]); mag > 1e-9 {
			t.Errorf("f=%v: |V(out)| = %v, want 0 with no AC stimulus", r.Frequency, mag)
		}
	}
}

func TestACSweepSpacingValidation(t *testing.T) {
	src := device.NewDCVoltageSource("V1", 0)
	src.SetAC(1, 0)
	ckt, _ := buildRCFilter(t, src)

	sim := NewSimulation(ckt)
	if _, err := sim.ACSweep(100, 1e3, 5, "LOG"); err == nil {
		t.Error("want error for unknown spacing")
	}
}

func TestFrequencyPointsLinear(t *testing.T) {
	freqs, err := frequencyPoints(100, 500, 5, "LIN")
	if err != nil {
		t.Fatalf("frequencyPoints failed: %v", err)
	}
	for i, want := range []float64{100, 200, 300, 400, 500} {
		if math.Abs(freqs[i]-want) > 1e-9 {
			t.Errorf("point %d: want %v, got %v", i, want, freqs[i])
		}
	}
}
