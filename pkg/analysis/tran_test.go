package analysis

import (
	"math"
	"testing"

	"github.com/edaworks/schemsim/internal/consts"
	"github.com/edaworks/schemsim/pkg/circuit"
	"github.com/edaworks/schemsim/pkg/device"
)

func buildRCCharge(t *testing.T) (*circuit.Circuit, *circuit.Probe) {
	t.Helper()
	ckt := circuit.New()

	in := circuit.Point{X: 0, Y: 0}
	out := circuit.Point{X: 2, Y: 0}
	gnd := circuit.Point{X: 0, Y: 2}
	gnd2 := circuit.Point{X: 2, Y: 2}

	ckt.Place(device.NewDCVoltageSource("V1", 5), in, gnd)
	ckt.Place(device.NewResistor("R1", 1e3), in, out)
	ckt.Place(device.NewCapacitor("C1", 1e-6), out, gnd2)
	ckt.Place(device.NewGround("GND1"), gnd)
	ckt.AddWire(gnd, gnd2)

	return ckt, ckt.AddProbe(out, "out")
}

func TestTransientRCCharge(t *testing.T) {
	ckt, probe := buildRCCharge(t)

	sim := NewSimulation(ckt)
	sim.SetTimeStep(10e-6)

	if err := sim.RunTransient(1e-3); err != nil {
		t.Fatalf("RunTransient failed: %v", err)
	}

	// tau = 1ms, so after one tau the capacitor sits near 5*(1-1/e).
	want := 5 * (1 - math.Exp(-sim.Time()/1e-3))
	got := sim.ProbeVoltage(probe)
	if math.Abs(got-want) > 0.05 {
		t.Errorf("capacitor voltage after %gs: want %v, got %v", sim.Time(), want, got)
	}
}

func TestTransientTimeAdvances(t *testing.T) {
	ckt, _ := buildRCCharge(t)

	sim := NewSimulation(ckt)
	sim.SetTimeStep(10e-6)

	if err := sim.TransientStep(); err != nil {
		t.Fatalf("TransientStep failed: %v", err)
	}
	if math.Abs(sim.Time()-10e-6) > 1e-12 {
		t.Errorf("time after one step: want 10us, got %v", sim.Time())
	}
}

func TestTransientAdaptiveStepStaysBounded(t *testing.T) {
	ckt := circuit.New()

	in := circuit.Point{X: 0, Y: 0}
	out := circuit.Point{X: 2, Y: 0}
	gnd := circuit.Point{X: 0, Y: 2}
	gnd2 := circuit.Point{X: 2, Y: 2}

	ckt.Place(device.NewSinVoltageSource("V1", 0, 5, 1e3, 0), in, gnd)
	ckt.Place(device.NewResistor("R1", 1e3), in, out)
	ckt.Place(device.NewCapacitor("C1", 100e-9), out, gnd2)
	ckt.Place(device.NewGround("GND1"), gnd)
	ckt.AddWire(gnd, gnd2)

	sim := NewSimulation(ckt)
	sim.SetTimeStep(1e-6)
	sim.SetAdaptive(true, 0.05)

	for i := 0; i < 200; i++ {
		if err := sim.TransientStep(); err != nil {
			t.Fatalf("step %d failed: %v", i, err)
		}
		dt := sim.TimeStep()
		if dt < consts.MinTimeStep || dt > consts.MaxTimeStep {
			t.Fatalf("step %d: dt %v outside [%v, %v]", i, dt, consts.MinTimeStep, consts.MaxTimeStep)
		}
	}
}

func TestTransientResetRestoresInitialState(t *testing.T) {
	ckt, probe := buildRCCharge(t)

	sim := NewSimulation(ckt)
	sim.SetTimeStep(10e-6)
	if err := sim.RunTransient(0.5e-3); err != nil {
		t.Fatalf("RunTransient failed: %v", err)
	}
	if sim.ProbeVoltage(probe) < 1 {
		t.Fatalf("capacitor did not charge: %v", sim.ProbeVoltage(probe))
	}

	sim.Reset()
	if sim.Time() != 0 {
		t.Errorf("time after reset: want 0, got %v", sim.Time())
	}
	if sim.History().Len() != 0 {
		t.Errorf("history survived reset: %d samples", sim.History().Len())
	}

	// Rerun from scratch; the capacitor must charge along the same curve,
	// proving UpdateState history was wiped.
	if err := sim.RunTransient(0.5e-3); err != nil {
		t.Fatalf("rerun failed: %v", err)
	}
	want := 5 * (1 - math.Exp(-sim.Time()/1e-3))
	if got := sim.ProbeVoltage(probe); math.Abs(got-want) > 0.05 {
		t.Errorf("rerun voltage: want %v, got %v", want, got)
	}
}

func TestTransientWireCurrentAnnotated(t *testing.T) {
	ckt := circuit.New()

	in := circuit.Point{X: 0, Y: 0}
	mid := circuit.Point{X: 2, Y: 0}
	far := circuit.Point{X: 4, Y: 0}
	gnd := circuit.Point{X: 0, Y: 2}
	gnd2 := circuit.Point{X: 4, Y: 2}

	ckt.Place(device.NewDCVoltageSource("V1", 5), in, gnd)
	ckt.Place(device.NewAmmeter("A1"), in, mid)
	ckt.Place(device.NewResistor("R1", 1e3), far, gnd2)
	ckt.Place(device.NewGround("GND1"), gnd)
	w := ckt.AddWire(mid, far)
	ckt.AddWire(gnd, gnd2)

	sim := NewSimulation(ckt)
	sim.SetTimeStep(1e-6)
	if err := sim.TransientStep(); err != nil {
		t.Fatalf("TransientStep failed: %v", err)
	}

	// 5V across 1k: the wire carries 5mA.
	if math.Abs(math.Abs(w.Current)-5e-3) > 1e-4 {
		t.Errorf("wire current: want 5mA magnitude, got %v", w.Current)
	}
}

func TestResistorThermalStateClearsOnReset(t *testing.T) {
	ckt := circuit.New()

	in := circuit.Point{X: 0, Y: 0}
	gnd := circuit.Point{X: 0, Y: 2}

	// 10V across 10 ohm dissipates 10W in a 0.25W part.
	res := device.NewResistor("R1", 10)
	res.SetRating(0.25, device.FailOpen)
	ckt.Place(device.NewDCVoltageSource("V1", 10), in, gnd)
	ckt.Place(res, in, gnd)
	ckt.Place(device.NewGround("GND1"), gnd)

	sim := NewSimulation(ckt)
	sim.SetTimeStep(1e-3)

	if err := sim.RunTransient(120e-3); err != nil {
		t.Fatalf("RunTransient failed: %v", err)
	}
	if !res.ThermalState().Failed {
		t.Fatal("resistor survived 40x rated dissipation")
	}

	sim.Reset()

	st := res.ThermalState()
	if st.Failed || st.Damage != 0 || st.Temp != 0 {
		t.Errorf("thermal state survived Reset: failed=%v damage=%v temp=%v",
			st.Failed, st.Damage, st.Temp)
	}
}

func TestFuseBlowsOnOverload(t *testing.T) {
	ckt := circuit.New()

	in := circuit.Point{X: 0, Y: 0}
	mid := circuit.Point{X: 2, Y: 0}
	gnd := circuit.Point{X: 0, Y: 2}
	gnd2 := circuit.Point{X: 2, Y: 2}

	// 5V through a 1 ohm load pushes 5A through a 1A fuse.
	fuse := device.NewFuse("F1", 1)
	ckt.Place(device.NewDCVoltageSource("V1", 5), in, gnd)
	ckt.Place(fuse, in, mid)
	ckt.Place(device.NewResistor("R1", 1), mid, gnd2)
	ckt.Place(device.NewGround("GND1"), gnd)
	ckt.AddWire(gnd, gnd2)
	probe := ckt.AddProbe(mid, "load")

	sim := NewSimulation(ckt)
	sim.SetTimeStep(1e-3)

	if err := sim.RunTransient(50e-3); err != nil {
		t.Fatalf("RunTransient failed: %v", err)
	}

	if !fuse.Blown {
		t.Fatal("fuse did not blow at 5x rating")
	}
	// Blown fuse leaves the load dead.
	if v := sim.ProbeVoltage(probe); math.Abs(v) > 0.1 {
		t.Errorf("load voltage after fuse blew: %v", v)
	}
}
