package analysis

import (
	"fmt"
	"math"

	"github.com/edaworks/schemsim/internal/consts"
	"github.com/edaworks/schemsim/pkg/circuit"
	"github.com/edaworks/schemsim/pkg/device"
	"github.com/edaworks/schemsim/pkg/matrix"
)

// Simulation binds one circuit to its solver state. There is exactly one
// simulation owner per circuit and no concurrent solves; every step runs to
// completion before control returns.
type Simulation struct {
	ckt    *circuit.Circuit
	env    device.Environment
	bridge LogicBridge

	sys           *matrix.System
	matrixSize    int
	numNodes      int
	extraNodeRows []int

	// solution is the last accepted solve; prevSolution the accepted step
	// before that. Both are owned snapshots, swapped on acceptance, never
	// mutated in place during stamping.
	solution     *matrix.Vector
	prevSolution *matrix.Vector

	time          float64
	requestedStep float64
	actualStep    float64
	adaptive      bool
	errTol        float64

	history *History

	warning string
	lastErr string
	hasErr  bool

	// Sweep bookkeeping, polled cooperatively between sweep points.
	CancelRequested bool
	SweepProgress   float64
}

func NewSimulation(ckt *circuit.Circuit) *Simulation {
	return &Simulation{
		ckt:           ckt,
		env:           device.DefaultEnvironment(),
		bridge:        &GateBridge{},
		requestedStep: 1e-6,
		actualStep:    1e-6,
		errTol:        0.1,
		history:       NewHistory(historyCapacity, historySpan),
	}
}

func (s *Simulation) Circuit() *circuit.Circuit { return s.ckt }

func (s *Simulation) SetEnvironment(env device.Environment) { s.env = env }
func (s *Simulation) Environment() device.Environment       { return s.env }

// SetLogicBridge swaps the digital-logic implementation; nil disables the
// digital phase entirely.
func (s *Simulation) SetLogicBridge(b LogicBridge) { s.bridge = b }

// SetTimeStep sets the requested transient step.
func (s *Simulation) SetTimeStep(dt float64) {
	s.requestedStep = dt
	s.actualStep = dt
}

// SetAdaptive enables local-error step control with the given relative
// tolerance.
func (s *Simulation) SetAdaptive(on bool, tol float64) {
	s.adaptive = on
	if tol > 0 {
		s.errTol = tol
	}
}

func (s *Simulation) Time() float64            { return s.time }
func (s *Simulation) TimeStep() float64        { return s.actualStep }
func (s *Simulation) Solution() *matrix.Vector { return s.solution }
func (s *Simulation) History() *History        { return s.history }

// Error state. One message plus a flag; callers check after every analysis
// call. Cleared explicitly at the start of the next operation.
func (s *Simulation) HasError() bool    { return s.hasErr }
func (s *Simulation) LastError() string { return s.lastErr }
func (s *Simulation) Warning() string   { return s.warning }

func (s *Simulation) ClearError() {
	s.hasErr = false
	s.lastErr = ""
	s.warning = ""
}

func (s *Simulation) fail(format string, args ...any) error {
	err := fmt.Errorf(format, args...)
	s.lastErr = err.Error()
	s.hasErr = true
	return err
}

// Reset clears simulated time, all reactive device state and the history,
// keeping the topology.
func (s *Simulation) Reset() {
	s.time = 0
	s.actualStep = s.requestedStep
	if s.solution != nil {
		s.solution.Clear()
	}
	if s.prevSolution != nil {
		s.prevSolution.Clear()
	}
	for _, comp := range s.ckt.Components() {
		if td, ok := comp.(device.TimeDependent); ok {
			td.Reset()
		}
	}
	s.history.Clear()
	s.ClearError()
}

// prepare rebuilds the node map, runs the short-circuit pre-check, binds
// components to matrix indices and (re)allocates the solve buffers whenever
// the matrix size changed.
func (s *Simulation) prepare() error {
	if err := s.ckt.BuildNodeMap(); err != nil {
		return err
	}
	if err := s.shortCircuitPreCheck(); err != nil {
		return err
	}

	alloc := s.ckt.BindMatrix()
	size := alloc.MatrixSize()

	s.numNodes = s.ckt.NumMatrixNodes()
	s.extraNodeRows = alloc.NodeSlots()
	if s.sys == nil || size != s.matrixSize {
		s.sys = matrix.NewSystem(size)
		s.matrixSize = size
		s.solution = matrix.NewVector(size)
		s.prevSolution = matrix.NewVector(size)
	}

	return nil
}

// newton runs the fixed-point relinearization loop: re-stamp around the
// previous iterate, re-solve, compare. Returns the candidate solution and
// whether it converged within the iteration cap; the accepted solution is
// untouched either way.
func (s *Simulation) newton(status *device.CircuitStatus, maxIter int) (*matrix.Vector, bool, error) {
	iterate := s.solution.Clone()

	for iter := 0; iter < maxIter; iter++ {
		for _, nl := range s.ckt.NonLinearComponents() {
			if err := nl.UpdateVoltages(iterate); err != nil {
				return nil, false, fmt.Errorf("updating nonlinear voltages: %v", err)
			}
		}

		s.sys.Clear()
		for _, comp := range s.ckt.Components() {
			if err := comp.Stamp(s.sys, status); err != nil {
				return nil, false, fmt.Errorf("stamping %s: %v", comp.GetName(), err)
			}
		}
		s.sys.LoadGmin(status.Gmin, s.numNodes)
		s.sys.LoadGminRows(status.Gmin, s.extraNodeRows)

		if err := s.sys.Solve(); err != nil {
			return nil, false, err
		}

		next := s.sys.Solution()
		diff := next.MaxAbsDiff(iterate)
		iterate.CopyFrom(next)

		if iter > 0 && diff < consts.NewtonTol {
			return iterate, true, nil
		}
	}

	return iterate, false, nil
}

// accept installs a candidate as the new solution and back-annotates the
// schematic.
func (s *Simulation) accept(candidate *matrix.Vector) {
	s.prevSolution, s.solution = s.solution, candidate
	s.annotate()
}

// annotate copies solved voltages back onto circuit nodes.
func (s *Simulation) annotate() {
	for _, n := range s.ckt.Nodes() {
		idx := s.ckt.MatrixIndex(n.ID)
		if idx == 0 {
			n.Voltage = 0
			continue
		}
		n.Voltage = s.solution.At(idx)
	}
}

// ProbeVoltage reads one probe's node voltage from the accepted solution.
func (s *Simulation) ProbeVoltage(p *circuit.Probe) float64 {
	idx := s.ckt.MatrixIndex(p.NodeID)
	if idx == 0 || s.solution == nil {
		return 0
	}
	return s.solution.At(idx)
}

// NodeVoltageAt reads the solved voltage of the node at a schematic
// position.
func (s *Simulation) NodeVoltageAt(p circuit.Point) float64 {
	for _, n := range s.ckt.Nodes() {
		if n.Pos.DistanceTo(p) <= consts.SnapTolerance {
			return n.Voltage
		}
	}
	return 0
}

// relChange is the adaptive-stepping local error estimate: largest relative
// component-wise change between two accepted solutions.
func relChange(next, prev *matrix.Vector) float64 {
	maxErr := 0.0
	for i := 1; i <= next.Size; i++ {
		a, b := next.At(i), prev.At(i)
		denom := math.Max(math.Max(math.Abs(a), math.Abs(b)), 1e-6)
		err := math.Abs(a-b) / denom
		if err > maxErr {
			maxErr = err
		}
	}
	return maxErr
}
