package device

import (
	"fmt"

	"github.com/edaworks/schemsim/pkg/matrix"
)

// Switch is resistive in both states so the matrix never loses the branch
// entirely: Ron closed, Roff open.
type Switch struct {
	BaseComponent
	Closed bool
	Ron    float64
	Roff   float64
}

var _ Component = (*Switch)(nil)
var _ CurrentReporter = (*Switch)(nil)

func NewSwitch(name string, closed bool) *Switch {
	return &Switch{
		BaseComponent: NewBaseComponent(name, 2, 0),
		Closed:        closed,
		Ron:           1e-3,
		Roff:          1e9,
	}
}

func (s *Switch) GetType() string { return "SW" }

func (s *Switch) conductance() float64 {
	if s.Closed {
		return 1.0 / s.Ron
	}
	return 1.0 / s.Roff
}

func (s *Switch) Stamp(m matrix.DeviceMatrix, status *CircuitStatus) error {
	if len(s.Binds) != 2 {
		return fmt.Errorf("switch %s: requires exactly 2 nodes", s.Name)
	}
	stampConductance(m, s.Binds[0], s.Binds[1], s.conductance())
	return nil
}

func (s *Switch) Current(solution *matrix.Vector) float64 {
	v1 := voltageAt(solution, s.Binds[0])
	v2 := voltageAt(solution, s.Binds[1])
	return (v1 - v2) * s.conductance()
}
