package analysis

import (
	"math"
	"testing"

	"github.com/edaworks/schemsim/pkg/circuit"
	"github.com/edaworks/schemsim/pkg/device"
)

func buildDivider(t *testing.T, v, r1, r2 float64) (*circuit.Circuit, *circuit.Probe) {
	t.Helper()
	ckt := circuit.New()

	top := circuit.Point{X: 0, Y: 0}
	mid := circuit.Point{X: 0, Y: 2}
	bot := circuit.Point{X: 0, Y: 4}

	ckt.Place(device.NewDCVoltageSource("V1", v), top, bot)
	ckt.Place(device.NewResistor("R1", r1), top, mid)
	ckt.Place(device.NewResistor("R2", r2), mid, bot)
	ckt.Place(device.NewGround("GND1"), bot)

	return ckt, ckt.AddProbe(mid, "mid")
}

func TestOperatingPointDivider(t *testing.T) {
	ckt, probe := buildDivider(t, 10, 1e3, 1e3)

	sim := NewSimulation(ckt)
	if err := sim.OperatingPoint(); err != nil {
		t.Fatalf("OperatingPoint failed: %v", err)
	}
	if sim.HasError() {
		t.Fatalf("error flag set: %s", sim.LastError())
	}

	if got := sim.ProbeVoltage(probe); math.Abs(got-5.0) > 1e-6 {
		t.Errorf("divider midpoint: want 5.0, got %v", got)
	}
}

func TestOperatingPointAnnotatesNodes(t *testing.T) {
	ckt, _ := buildDivider(t, 10, 3e3, 1e3)

	sim := NewSimulation(ckt)
	if err := sim.OperatingPoint(); err != nil {
		t.Fatalf("OperatingPoint failed: %v", err)
	}

	if got := sim.NodeVoltageAt(circuit.Point{X: 0, Y: 2}); math.Abs(got-2.5) > 1e-6 {
		t.Errorf("annotated midpoint: want 2.5, got %v", got)
	}
	if got := sim.NodeVoltageAt(circuit.Point{X: 0, Y: 4}); got != 0 {
		t.Errorf("annotated ground: want 0, got %v", got)
	}
}

func TestOperatingPointMissingGround(t *testing.T) {
	ckt := circuit.New()
	ckt.Place(device.NewDCVoltageSource("V1", 5),
		circuit.Point{X: 0, Y: 0}, circuit.Point{X: 0, Y: 2})
	ckt.Place(device.NewResistor("R1", 1e3),
		circuit.Point{X: 0, Y: 0}, circuit.Point{X: 0, Y: 2})

	sim := NewSimulation(ckt)
	if err := sim.OperatingPoint(); err == nil {
		t.Fatal("want error for missing ground")
	}
	if !sim.HasError() {
		t.Error("error flag not set")
	}
}

func TestOperatingPointShortedSource(t *testing.T) {
	ckt := circuit.New()

	a := circuit.Point{X: 0, Y: 0}
	gnd := circuit.Point{X: 0, Y: 4}

	// Both source terminals land on the same point; unification folds them
	// into one node before any stamping happens.
	ckt.Place(device.NewDCVoltageSource("V1", 5), a, a)
	ckt.Place(device.NewResistor("R1", 1e3), a, gnd)
	ckt.Place(device.NewGround("GND1"), gnd)

	sim := NewSimulation(ckt)
	err := sim.OperatingPoint()
	if err == nil {
		t.Fatal("want short-circuit error")
	}
	if !sim.HasError() {
		t.Error("error flag not set")
	}
}

func TestOperatingPointDiodeDrop(t *testing.T) {
	ckt := circuit.New()

	top := circuit.Point{X: 0, Y: 0}
	mid := circuit.Point{X: 0, Y: 2}
	bot := circuit.Point{X: 0, Y: 4}

	ckt.Place(device.NewDCVoltageSource("V1", 5), top, bot)
	ckt.Place(device.NewResistor("R1", 1e3), top, mid)
	ckt.Place(device.NewDiode("D1"), mid, bot)
	ckt.Place(device.NewGround("GND1"), bot)
	probe := ckt.AddProbe(mid, "anode")

	sim := NewSimulation(ckt)
	if err := sim.OperatingPoint(); err != nil {
		t.Fatalf("OperatingPoint failed: %v", err)
	}

	// A silicon junction at a few mA sits near 0.6-0.7V.
	vd := sim.ProbeVoltage(probe)
	if vd < 0.5 || vd > 0.8 {
		t.Errorf("diode drop out of range: %v", vd)
	}
}

func TestOperatingPointClearsPreviousError(t *testing.T) {
	ckt, probe := buildDivider(t, 10, 1e3, 1e3)

	sim := NewSimulation(ckt)
	sim.fail("stale failure")

	if err := sim.OperatingPoint(); err != nil {
		t.Fatalf("OperatingPoint failed: %v", err)
	}
	if sim.HasError() {
		t.Errorf("stale error survived: %s", sim.LastError())
	}
	if got := sim.ProbeVoltage(probe); math.Abs(got-5.0) > 1e-6 {
		t.Errorf("divider midpoint: want 5.0, got %v", got)
	}
}
