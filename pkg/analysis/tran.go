package analysis

import (
	"math"

	"github.com/edaworks/schemsim/internal/consts"
	"github.com/edaworks/schemsim/pkg/device"
	"github.com/edaworks/schemsim/pkg/matrix"
)

// TransientStep advances simulated time by exactly one accepted step. The
// step actually taken may be smaller than requested when the Newton loop
// fails to converge or the local error estimate rejects the attempt.
func (s *Simulation) TransientStep() error {
	s.ClearError()
	if err := s.prepare(); err != nil {
		return s.fail("%v", err)
	}
	return s.advance()
}

// RunTransient advances until duration simulated seconds have elapsed.
func (s *Simulation) RunTransient(duration float64) error {
	s.ClearError()
	if err := s.prepare(); err != nil {
		return s.fail("%v", err)
	}
	end := s.time + duration
	for s.time < end {
		if err := s.advance(); err != nil {
			return err
		}
	}
	return nil
}

// advance attempts one step, shrinking the timestep on Newton failure or
// local-error rejection. A rejected attempt never touches the accepted
// solution or device state; only the candidate is discarded. The retry loop
// is bounded so a hopeless circuit fails instead of spinning.
func (s *Simulation) advance() error {
	dt := s.actualStep

	for try := 0; try < consts.MaxStepTry; try++ {
		status := &device.CircuitStatus{
			Mode:     device.TransientAnalysis,
			Time:     s.time + dt,
			TimeStep: dt,
			Gmin:     consts.Gmin,
			Env:      s.env,
		}

		candidate, converged, err := s.newton(status, consts.MaxNewton)
		if err != nil {
			return s.fail("transient at t=%g: %v", s.time, err)
		}
		if !converged {
			dt = clampStep(dt / 2)
			continue
		}

		if s.adaptive {
			est := relChange(candidate, s.solution)
			if est > s.errTol && dt > consts.MinTimeStep {
				dt = clampStep(dt * stepFactor(est, s.errTol))
				continue
			}
			// Accepted: carry a smoothly grown step into the next attempt.
			s.actualStep = clampStep(dt * stepFactor(est, s.errTol))
		} else {
			s.actualStep = dt
		}

		s.commit(candidate, status)
		return nil
	}

	return s.fail("transient at t=%g: step rejected %d times without converging", s.time, consts.MaxStepTry)
}

// commit installs an accepted candidate: time moves, the schematic is
// annotated, reactive device state advances, the thermal model and digital
// bridge run, and the probes are recorded. This is the only place transient
// state mutates.
func (s *Simulation) commit(candidate *matrix.Vector, status *device.CircuitStatus) {
	s.time = status.Time
	s.accept(candidate)

	for _, comp := range s.ckt.Components() {
		if td, ok := comp.(device.TimeDependent); ok {
			td.UpdateState(s.solution, status)
		}
	}

	s.updateThermal(status.TimeStep)
	s.updateWireCurrents()

	if s.bridge != nil {
		s.bridge.SampleInputs(s)
		s.bridge.Propagate(s, s.time, status.TimeStep)
		s.bridge.DriveOutputs(s)
	}

	s.history.Append(s)
}

// stepFactor is the smooth growth/shrink ratio for the adaptive controller.
// Errors well under tolerance grow the step, errors over it shrink it; the
// ratio is clamped so one noisy estimate cannot slam the step around.
func stepFactor(est, tol float64) float64 {
	if est <= 0 {
		return 2.0
	}
	f := 0.9 * math.Sqrt(tol/est)
	if f < 0.5 {
		return 0.5
	}
	if f > 2.0 {
		return 2.0
	}
	return f
}

func clampStep(dt float64) float64 {
	if dt < consts.MinTimeStep {
		return consts.MinTimeStep
	}
	if dt > consts.MaxTimeStep {
		return consts.MaxTimeStep
	}
	return dt
}
