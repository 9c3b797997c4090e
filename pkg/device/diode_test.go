package device

import (
	"math"
	"testing"

	"github.com/edaworks/schemsim/internal/consts"
)

func TestDiodeCurrentMonotonic(t *testing.T) {
	d := NewDiode("D1")

	prev := d.CalculateCurrent(0.0, consts.ROOMTEMP)
	for vd := 0.05; vd <= 0.8; vd += 0.05 {
		id := d.CalculateCurrent(vd, consts.ROOMTEMP)
		if id <= prev {
			t.Fatalf("current not increasing at vd=%v: %v then %v", vd, prev, id)
		}
		prev = id
	}
}

func TestDiodeConductanceMonotonic(t *testing.T) {
	d := NewDiode("D1")

	prev := 0.0
	for vd := 0.0; vd <= 0.8; vd += 0.05 {
		id := d.CalculateCurrent(vd, consts.ROOMTEMP)
		gd := d.CalculateConductance(vd, id, consts.ROOMTEMP)
		if gd < prev {
			t.Fatalf("conductance decreasing at vd=%v: %v then %v", vd, prev, gd)
		}
		if gd < consts.Gmin {
			t.Fatalf("conductance below gmin floor at vd=%v: %v", vd, gd)
		}
		prev = gd
	}
}

func TestDiodeReverseCurrentSmall(t *testing.T) {
	d := NewDiode("D1")

	id := d.CalculateCurrent(-1.0, consts.ROOMTEMP)
	if id > 0 {
		t.Errorf("reverse current positive: %v", id)
	}
	if math.Abs(id) > 1e-9 {
		t.Errorf("reverse leakage too large: %v", id)
	}
}

func TestDiodeExponentialClampFinite(t *testing.T) {
	d := NewDiode("D1")

	id := d.CalculateCurrent(100.0, consts.ROOMTEMP)
	if math.IsInf(id, 0) || math.IsNaN(id) {
		t.Fatalf("unclamped forward current: %v", id)
	}
}

func TestZenerBreakdownConducts(t *testing.T) {
	d := NewZener("Z1", 5.1)

	// Past breakdown the reverse current turns strongly negative.
	id := d.CalculateCurrent(-6.0, consts.ROOMTEMP)
	if id >= 0 {
		t.Fatalf("zener not conducting past breakdown: %v", id)
	}

	// Before breakdown only leakage flows.
	leak := d.CalculateCurrent(-3.0, consts.ROOMTEMP)
	if math.Abs(leak) > 1e-9 {
		t.Errorf("pre-breakdown leakage too large: %v", leak)
	}
}

func TestThermistorResistanceDropsWithTemperature(t *testing.T) {
	th := NewThermistor("TH1", 10e3, 3950)

	cold := Environment{Temp: consts.ROOMTEMP, Ambient: 273.15, LightLevel: 0}
	hot := Environment{Temp: consts.ROOMTEMP, Ambient: 350.15, LightLevel: 0}

	rCold := th.Resistance(cold)
	rHot := th.Resistance(hot)
	if rHot >= rCold {
		t.Errorf("NTC resistance did not drop: cold %v, hot %v", rCold, rHot)
	}
}

func TestPhotoresistorTracksLight(t *testing.T) {
	pr := NewPhotoresistor("LDR1", 1e6, 1e3)

	dark := Environment{Temp: consts.ROOMTEMP, Ambient: consts.ROOMTEMP, LightLevel: 0}
	bright := Environment{Temp: consts.ROOMTEMP, Ambient: consts.ROOMTEMP, LightLevel: 1}

	rDark := pr.Resistance(dark)
	rBright := pr.Resistance(bright)

	if math.Abs(rDark-1e6) > 1 {
		t.Errorf("dark resistance: want 1e6, got %v", rDark)
	}
	if math.Abs(rBright-1e3) > 1 {
		t.Errorf("bright resistance: want 1e3, got %v", rBright)
	}
}
