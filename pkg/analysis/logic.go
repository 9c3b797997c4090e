package analysis

import (
	"github.com/edaworks/schemsim/pkg/device"
)

// LogicBridge is the digital phase run once per accepted transient step,
// after the analog solve: sample input voltages into logic levels, evaluate
// the digital network, then latch the outputs the next analog solve will see.
// Swapping the bridge replaces the digital model without touching the solver.
type LogicBridge interface {
	SampleInputs(s *Simulation)
	Propagate(s *Simulation, time, dt float64)
	DriveOutputs(s *Simulation)
}

// GateBridge is the built-in bridge: every placed LogicGate is a
// single-delay element, so each accepted step propagates signals one gate
// deep. Deeper combinational chains settle over successive steps, which is
// the behavior a real gate's propagation delay gives anyway.
type GateBridge struct{}

var _ LogicBridge = (*GateBridge)(nil)

func (b *GateBridge) SampleInputs(s *Simulation) {
	for _, comp := range s.ckt.Components() {
		if g, ok := comp.(*device.LogicGate); ok {
			g.SampleInputs(s.solution)
		}
	}
}

func (b *GateBridge) Propagate(s *Simulation, time, dt float64) {
	for _, comp := range s.ckt.Components() {
		if g, ok := comp.(*device.LogicGate); ok {
			g.Propagate()
		}
	}
}

func (b *GateBridge) DriveOutputs(s *Simulation) {
	for _, comp := range s.ckt.Components() {
		if g, ok := comp.(*device.LogicGate); ok {
			g.DriveOutputs()
		}
	}
}
