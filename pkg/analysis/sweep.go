package analysis

import (
	"math"

	"github.com/edaworks/schemsim/pkg/circuit"
	"github.com/edaworks/schemsim/pkg/device"
)

// SweepPoint is one measured point of a frequency response.
type SweepPoint struct {
	Frequency   float64
	MagnitudeDB float64
	PhaseDeg    float64
}

const (
	sweepSettleCycles  = 4
	sweepMeasureCycles = 2
	sweepStepsPerCycle = 128
)

// FrequencyResponse measures the transfer from a sinusoidal source to a
// probe by brute force: for each log-spaced frequency the circuit is reset,
// driven for a few settling periods, then sampled over whole cycles and the
// gain and phase extracted from the waveforms. Slower than a small-signal
// sweep but exact for nonlinear circuits. CancelRequested is honored between
// points; completed points are returned either way.
func (s *Simulation) FrequencyResponse(src *device.VoltageSource, probe *circuit.Probe, fStart, fStop float64, nPoints int) ([]SweepPoint, error) {
	s.ClearError()
	if fStart <= 0 || fStop <= fStart || nPoints < 2 {
		return nil, s.fail("frequency response: need 0 < fStart < fStop and at least 2 points")
	}

	s.SweepProgress = 0
	s.CancelRequested = false

	logStart := math.Log10(fStart)
	logStop := math.Log10(fStop)

	points := make([]SweepPoint, 0, nPoints)
	for k := 0; k < nPoints; k++ {
		if s.CancelRequested {
			break
		}
		f := math.Pow(10, logStart+(logStop-logStart)*float64(k)/float64(nPoints-1))
		pt, err := s.measureResponse(src, probe, f)
		if err != nil {
			return points, err
		}
		points = append(points, pt)
		s.SweepProgress = float64(k+1) / float64(nPoints)
	}
	return points, nil
}

func (s *Simulation) measureResponse(src *device.VoltageSource, probe *circuit.Probe, f float64) (SweepPoint, error) {
	s.Reset()
	src.SetFrequency(f)

	period := 1 / f
	s.SetTimeStep(clampStep(period / sweepStepsPerCycle))

	wasAdaptive := s.adaptive
	s.adaptive = false
	defer func() { s.adaptive = wasAdaptive }()

	if err := s.prepare(); err != nil {
		return SweepPoint{}, s.fail("%v", err)
	}

	settleEnd := sweepSettleCycles * period
	for s.time < settleEnd {
		if err := s.advance(); err != nil {
			return SweepPoint{}, err
		}
	}

	var times, vin, vout []float64
	measureEnd := settleEnd + sweepMeasureCycles*period
	for s.time < measureEnd {
		if err := s.advance(); err != nil {
			return SweepPoint{}, err
		}
		times = append(times, s.time)
		vin = append(vin, src.GetVoltage(s.time))
		vout = append(vout, s.ProbeVoltage(probe))
	}

	inPP := peakToPeak(vin)
	outPP := peakToPeak(vout)

	magDB := -120.0
	if inPP > 0 && outPP > 0 {
		magDB = 20 * math.Log10(outPP/inPP)
	}

	return SweepPoint{
		Frequency:   f,
		MagnitudeDB: magDB,
		PhaseDeg:    phaseLag(times, vin, vout, period),
	}, nil
}

func peakToPeak(v []float64) float64 {
	if len(v) == 0 {
		return 0
	}
	lo, hi := v[0], v[0]
	for _, x := range v {
		if x < lo {
			lo = x
		}
		if x > hi {
			hi = x
		}
	}
	return hi - lo
}

// phaseLag compares the rising mean-crossings of input and output inside the
// measurement window. Lagging output comes out negative, normalized to
// (-180, 180].
func phaseLag(times, vin, vout []float64, period float64) float64 {
	tIn := risingCrossing(times, vin)
	tOut := risingCrossing(times, vout)
	if math.IsNaN(tIn) || math.IsNaN(tOut) {
		return 0
	}
	deg := -360 * (tOut - tIn) / period
	for deg <= -180 {
		deg += 360
	}
	for deg > 180 {
		deg -= 360
	}
	return deg
}

func risingCrossing(times, v []float64) float64 {
	if len(v) < 2 {
		return math.NaN()
	}
	mean := 0.0
	for _, x := range v {
		mean += x
	}
	mean /= float64(len(v))

	for i := 1; i < len(v); i++ {
		if v[i-1] < mean && v[i] >= mean {
			frac := (mean - v[i-1]) / (v[i] - v[i-1])
			return times[i-1] + frac*(times[i]-times[i-1])
		}
	}
	return math.NaN()
}
