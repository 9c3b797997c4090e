package analysis

import (
	"math"
	"testing"

	"github.com/edaworks/schemsim/pkg/circuit"
	"github.com/edaworks/schemsim/pkg/device"
)

// newDividerBlock builds a reusable two-pin attenuator: pin 1 in, pin 2 out,
// with the tap point as a subcircuit-internal node.
func newDividerBlock(name string, r1, r2 float64) *device.Subcircuit {
	sub := device.NewSubcircuit(name, 2, 1)

	top := device.NewResistor(name+".R1", r1)
	top.SetTerminals([]int{1, 3}) // pin 1 -> internal node
	bottom := device.NewResistor(name+".R2", r2)
	bottom.SetTerminals([]int{3, 0}) // internal node -> ground

	tap := device.NewResistor(name+".R3", 1) // tap buffer out to pin 2
	tap.SetTerminals([]int{3, 2})

	sub.AddChild(top)
	sub.AddChild(bottom)
	sub.AddChild(tap)
	return sub
}

func TestSubcircuitExpandsIntoHostMatrix(t *testing.T) {
	ckt := circuit.New()

	in := circuit.Point{X: 0, Y: 0}
	out := circuit.Point{X: 4, Y: 0}
	gnd := circuit.Point{X: 0, Y: 4}

	ckt.Place(device.NewDCVoltageSource("V1", 10), in, gnd)
	ckt.Place(newDividerBlock("X1", 1e3, 1e3), in, out)
	ckt.Place(device.NewGround("GND1"), gnd)
	probe := ckt.AddProbe(out, "out")

	sim := NewSimulation(ckt)
	if err := sim.OperatingPoint(); err != nil {
		t.Fatalf("OperatingPoint failed: %v", err)
	}

	// The unloaded tap sits at half of 10V; the 1 ohm tap resistor drops
	// nothing into the open output node.
	if got := sim.ProbeVoltage(probe); math.Abs(got-5.0) > 1e-3 {
		t.Errorf("subcircuit output: want 5.0, got %v", got)
	}
}

func TestNestedSubcircuit(t *testing.T) {
	ckt := circuit.New()

	in := circuit.Point{X: 0, Y: 0}
	out := circuit.Point{X: 4, Y: 0}
	gnd := circuit.Point{X: 0, Y: 4}

	// Outer block wraps an inner attenuator between its pins.
	outer := device.NewSubcircuit("X1", 2, 0)
	inner := newDividerBlock("X1.X2", 2e3, 2e3)
	inner.SetTerminals([]int{1, 2})
	outer.AddChild(inner)

	ckt.Place(device.NewDCVoltageSource("V1", 8), in, gnd)
	ckt.Place(outer, in, out)
	ckt.Place(device.NewGround("GND1"), gnd)
	probe := ckt.AddProbe(out, "out")

	sim := NewSimulation(ckt)
	if err := sim.OperatingPoint(); err != nil {
		t.Fatalf("OperatingPoint failed: %v", err)
	}

	if got := sim.ProbeVoltage(probe); math.Abs(got-4.0) > 1e-3 {
		t.Errorf("nested output: want 4.0, got %v", got)
	}
}
