package device

import (
	"fmt"
	"math"

	"github.com/edaworks/schemsim/pkg/matrix"
)

type SourceType int

const (
	DC SourceType = iota
	SIN
	PULSE
	PWL
)

// VoltageSource forces v1 - v2 to the waveform value; its branch current is
// an explicit matrix unknown.
type VoltageSource struct {
	BaseComponent
	vtype   SourceType
	dcValue float64
	// SIN params
	amplitude float64
	freq      float64
	phase     float64
	// PULSE params
	v1     float64
	v2     float64
	delay  float64
	rise   float64
	fall   float64
	pWidth float64
	period float64
	// PWL params
	times  []float64
	values []float64
	// AC small-signal params
	acMag   float64
	acPhase float64

	branchIdx int
}

var _ Component = (*VoltageSource)(nil)
var _ Branched = (*VoltageSource)(nil)
var _ Expander = (*VoltageSource)(nil)
var _ VoltageDefined = (*VoltageSource)(nil)
var _ CurrentReporter = (*VoltageSource)(nil)
var _ ACElement = (*VoltageSource)(nil)

func NewDCVoltageSource(name string, value float64) *VoltageSource {
	return &VoltageSource{
		BaseComponent: NewBaseComponent(name, 2, value),
		vtype:         DC,
		dcValue:       value,
	}
}

func NewSinVoltageSource(name string, offset, amplitude, freq, phase float64) *VoltageSource {
	return &VoltageSource{
		BaseComponent: NewBaseComponent(name, 2, offset),
		vtype:         SIN,
		dcValue:       offset,
		amplitude:     amplitude,
		freq:          freq,
		phase:         phase,
	}
}

func NewPulseVoltageSource(name string, v1, v2, delay, rise, fall, pWidth, period float64) *VoltageSource {
	return &VoltageSource{
		BaseComponent: NewBaseComponent(name, 2, v1),
		vtype:         PULSE,
		v1:            v1,
		v2:            v2,
		delay:         delay,
		rise:          rise,
		fall:          fall,
		pWidth:        pWidth,
		period:        period,
	}
}

func NewPWLVoltageSource(name string, times, values []float64) *VoltageSource {
	return &VoltageSource{
		BaseComponent: NewBaseComponent(name, 2, values[0]),
		vtype:         PWL,
		times:         times,
		values:        values,
	}
}

func (v *VoltageSource) GetType() string { return "V" }

func (v *VoltageSource) VoltageDefined() bool { return true }

func (v *VoltageSource) BranchIndex() int       { return v.branchIdx }
func (v *VoltageSource) SetBranchIndex(idx int) { v.branchIdx = idx }

func (v *VoltageSource) AllocateExtra(alloc *IndexAllocator) {
	v.branchIdx = alloc.Alloc()
}

// SetAC gives the source a small-signal magnitude/phase for AC analysis.
func (v *VoltageSource) SetAC(mag, phase float64) {
	v.acMag = mag
	v.acPhase = phase
}

// SetFrequency retunes a SIN source in place; the frequency-response sweep
// uses this between points.
func (v *VoltageSource) SetFrequency(freq float64) {
	v.freq = freq
}

func (v *VoltageSource) Frequency() float64 { return v.freq }

func (v *VoltageSource) SetValue(value float64) {
	v.Value = value
	v.dcValue = value
}

// GetVoltage evaluates the waveform at time t.
func (v *VoltageSource) GetVoltage(t float64) float64 {
	switch v.vtype {
	case DC:
		return v.dcValue
	case SIN:
		phaseRad := v.phase * math.Pi / 180.0
		return v.dcValue + v.amplitude*math.Sin(2.0*math.Pi*v.freq*t+phaseRad)
	case PULSE:
		return v.getPulseVoltage(t)
	case PWL:
		return v.getPWLVoltage(t)
	default:
		return 0
	}
}

func (v *VoltageSource) Stamp(m matrix.DeviceMatrix, status *CircuitStatus) error {
	if len(v.Binds) != 2 {
		return fmt.Errorf("voltage source %s: requires exactly 2 nodes", v.Name)
	}

	n1, n2 := v.Binds[0], v.Binds[1]
	bIdx := v.branchIdx

	// v1 - v2 = V
	if n1 != 0 {
		m.AddElement(bIdx, n1, 1)
		m.AddElement(n1, bIdx, 1)
	}
	if n2 != 0 {
		m.AddElement(bIdx, n2, -1)
		m.AddElement(n2, bIdx, -1)
	}

	m.AddRHS(bIdx, v.GetVoltage(status.Time))
	return nil
}

func (v *VoltageSource) StampAC(m matrix.DeviceMatrix, status *CircuitStatus) error {
	n1, n2 := v.Binds[0], v.Binds[1]
	bIdx := v.branchIdx

	phaseRad := v.acPhase * math.Pi / 180.0

	if n1 != 0 {
		m.AddComplexElement(bIdx, n1, 1.0, 0.0)
		m.AddComplexElement(n1, bIdx, 1.0, 0.0)
	}
	if n2 != 0 {
		m.AddComplexElement(bIdx, n2, -1.0, 0.0)
		m.AddComplexElement(n2, bIdx, -1.0, 0.0)
	}

	m.AddComplexRHS(bIdx, v.acMag*math.Cos(phaseRad), v.acMag*math.Sin(phaseRad))
	return nil
}

// Current is the branch current flowing from terminal 0 through the source
// to terminal 1.
func (v *VoltageSource) Current(solution *matrix.Vector) float64 {
	return -solution.At(v.branchIdx)
}

func (v *VoltageSource) getPulseVoltage(t float64) float64 {
	if t < v.delay {
		return v.v1
	}

	t = t - v.delay
	if v.period > 0 {
		t = math.Mod(t, v.period)
	}

	if t < v.rise {
		if v.rise == 0 {
			return v.v2
		}
		return v.v1 + (v.v2-v.v1)*t/v.rise
	}

	if t < v.rise+v.pWidth {
		return v.v2
	}

	fallStart := v.rise + v.pWidth
	if t < fallStart+v.fall {
		if v.fall == 0 {
			return v.v1
		}
		return v.v2 - (v.v2-v.v1)*(t-fallStart)/v.fall
	}

	return v.v1
}

func (v *VoltageSource) getPWLVoltage(t float64) float64 {
	if t <= v.times[0] {
		return v.values[0]
	}

	lastIdx := len(v.times) - 1
	if t >= v.times[lastIdx] {
		return v.values[lastIdx]
	}

	for i := 1; i < len(v.times); i++ {
		if t <= v.times[i] {
			t1, t2 := v.times[i-1], v.times[i]
			v1, v2 := v.values[i-1], v.values[i]
			slope := (v2 - v1) / (t2 - t1)
			return v1 + slope*(t-t1)
		}
	}

	return v.values[lastIdx] // Must not reach
}
