package analysis

import (
	"math"

	"github.com/edaworks/schemsim/internal/consts"
	"github.com/edaworks/schemsim/pkg/device"
	"github.com/edaworks/schemsim/pkg/matrix"
)

// OperatingPoint solves the DC bias: the Newton loop runs with an enormous
// timestep so backward-Euler companions degenerate (capacitors open,
// inductors short). An iteration-cap overrun is non-fatal; the last iterate
// is still accepted with a warning after a gmin-stepping rescue attempt.
func (s *Simulation) OperatingPoint() error {
	s.ClearError()

	if err := s.prepare(); err != nil {
		return s.fail("%v", err)
	}

	status := &device.CircuitStatus{
		Mode:     device.OperatingPointAnalysis,
		Time:     s.time,
		TimeStep: consts.DCTimeStep,
		Gmin:     consts.Gmin,
		Env:      s.env,
	}

	candidate, converged, err := s.newton(status, consts.MaxNewton)
	if err != nil {
		return s.fail("operating point: %v", err)
	}

	if !converged {
		if rescued := s.gminStepping(status); rescued != nil {
			candidate = rescued
		} else {
			s.warning = "operating point did not fully converge; using last iterate"
		}
	}

	s.accept(candidate)

	if err := s.overCurrentCheck(); err != nil {
		return s.fail("%v", err)
	}

	return nil
}

// gminStepping walks an artificially large gmin back down to nominal,
// re-converging at each level; hard bias points often converge this way when
// the plain loop does not. Returns nil when any level fails.
func (s *Simulation) gminStepping(status *device.CircuitStatus) *matrix.Vector {
	const numGminSteps = 10

	startGmin := float64(s.matrixSize) * 0.001
	gmin := startGmin * math.Pow(10, float64(numGminSteps))

	var candidate *matrix.Vector
	for i := 0; i <= numGminSteps; i++ {
		stepped := *status
		stepped.Gmin = gmin

		c, converged, err := s.newton(&stepped, consts.MaxNewton)
		if err != nil || !converged {
			return nil
		}
		candidate = c
		s.solution.CopyFrom(c) // next level linearizes from here
		gmin /= 10
	}

	// Final pass at nominal gmin.
	c, converged, err := s.newton(status, consts.MaxNewton)
	if err != nil || !converged {
		return candidate
	}
	return c
}
