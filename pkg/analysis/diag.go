package analysis

import (
	"fmt"
	"math"

	"github.com/edaworks/schemsim/internal/consts"
	"github.com/edaworks/schemsim/pkg/device"
)

// shortCircuitPreCheck refuses to solve a circuit where a voltage-defined
// element has both terminals unified onto the same electrical node: the
// branch equation would be 0 = V, which no pivoting strategy rescues. Runs
// after node unification and before any stamping.
func (s *Simulation) shortCircuitPreCheck() error {
	for _, comp := range s.ckt.Components() {
		vd, ok := comp.(device.VoltageDefined)
		if !ok || !vd.VoltageDefined() {
			continue
		}
		// Only two-terminal elements force a voltage directly across their
		// terminal pair; gates and op-amps drive against ground instead.
		terms := comp.Terminals()
		if len(terms) != 2 {
			continue
		}
		if _, isGate := comp.(*device.LogicGate); isGate {
			continue
		}
		if s.ckt.MatrixIndex(terms[0]) == s.ckt.MatrixIndex(terms[1]) {
			return fmt.Errorf("short circuit: %s has both terminals on the same node", comp.GetName())
		}
	}
	return nil
}

// overCurrentCheck flags implausible branch currents after a solve. These
// come from shorted source loops the pre-check cannot see (a wire path
// rather than coincident terminals), so the error names the sources feeding
// the loop.
func (s *Simulation) overCurrentCheck() error {
	for _, comp := range s.ckt.Components() {
		cr, ok := comp.(device.CurrentReporter)
		if !ok {
			continue
		}
		i := cr.Current(s.solution)
		if math.Abs(i) <= consts.OverCurrentAmps {
			continue
		}
		sources := s.sourceNames()
		if len(sources) > 0 {
			return fmt.Errorf("over-current: %s carries %.3g A; check source wiring of %v", comp.GetName(), i, sources)
		}
		return fmt.Errorf("over-current: %s carries %.3g A", comp.GetName(), i)
	}
	return nil
}

func (s *Simulation) sourceNames() []string {
	var names []string
	for _, comp := range s.ckt.Components() {
		if vd, ok := comp.(device.VoltageDefined); ok && vd.VoltageDefined() {
			names = append(names, comp.GetName())
		}
	}
	return names
}

// updateThermal advances every dissipating device's thermal model by one
// accepted step.
func (s *Simulation) updateThermal(dt float64) {
	for _, comp := range s.ckt.Components() {
		d, ok := comp.(device.Dissipator)
		if !ok {
			continue
		}
		profile := d.ThermalProfile()
		if profile == nil {
			continue
		}
		power := d.Power(s.solution)
		device.StepThermal(d.ThermalState(), profile, power, dt, s.env)
	}
}
