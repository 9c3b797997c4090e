package device

import (
	"fmt"
	"math"

	"github.com/edaworks/schemsim/pkg/matrix"
)

// CurrentSource injects its waveform value out of terminal 0 and into
// terminal 1. No extra unknown is needed; it lands purely on the RHS.
type CurrentSource struct {
	BaseComponent
	ctype     SourceType
	dcValue   float64
	amplitude float64
	freq      float64
	phase     float64

	// AC small-signal params
	acMag   float64
	acPhase float64

	current float64 // value used by the last stamp
}

var _ Component = (*CurrentSource)(nil)
var _ CurrentReporter = (*CurrentSource)(nil)
var _ ACElement = (*CurrentSource)(nil)

func NewDCCurrentSource(name string, value float64) *CurrentSource {
	return &CurrentSource{
		BaseComponent: NewBaseComponent(name, 2, value),
		ctype:         DC,
		dcValue:       value,
		current:       value,
	}
}

func NewSinCurrentSource(name string, offset, amplitude, freq, phase float64) *CurrentSource {
	return &CurrentSource{
		BaseComponent: NewBaseComponent(name, 2, offset),
		ctype:         SIN,
		dcValue:       offset,
		amplitude:     amplitude,
		freq:          freq,
		phase:         phase,
		current:       offset,
	}
}

func (cs *CurrentSource) GetType() string { return "I" }

// SetAC gives the source a small-signal magnitude/phase for AC analysis.
func (cs *CurrentSource) SetAC(mag, phase float64) {
	cs.acMag = mag
	cs.acPhase = phase
}

func (cs *CurrentSource) GetCurrentValue(t float64) float64 {
	switch cs.ctype {
	case SIN:
		phaseRad := cs.phase * math.Pi / 180.0
		return cs.dcValue + cs.amplitude*math.Sin(2.0*math.Pi*cs.freq*t+phaseRad)
	default:
		return cs.dcValue
	}
}

func (cs *CurrentSource) Stamp(m matrix.DeviceMatrix, status *CircuitStatus) error {
	if len(cs.Binds) != 2 {
		return fmt.Errorf("current source %s: requires exactly 2 nodes", cs.Name)
	}
	cs.current = cs.GetCurrentValue(status.Time)
	stampCurrentSource(m, cs.Binds[0], cs.Binds[1], cs.current)
	return nil
}

// StampAC lands only the small-signal phasor on the RHS; the DC bias value
// belongs to the operating point, not the AC system.
func (cs *CurrentSource) StampAC(m matrix.DeviceMatrix, status *CircuitStatus) error {
	n1, n2 := cs.Binds[0], cs.Binds[1]

	phaseRad := cs.acPhase * math.Pi / 180.0
	re := cs.acMag * math.Cos(phaseRad)
	im := cs.acMag * math.Sin(phaseRad)

	if n1 != 0 {
		m.AddComplexRHS(n1, -re, -im)
	}
	if n2 != 0 {
		m.AddComplexRHS(n2, re, im)
	}
	return nil
}

// Current reports the waveform value stamped into the last solve.
func (cs *CurrentSource) Current(solution *matrix.Vector) float64 {
	return cs.current
}
