package device

import (
	"fmt"

	"github.com/edaworks/schemsim/internal/consts"
	"github.com/edaworks/schemsim/pkg/matrix"
)

// Fuse is a low-value resistor that integrates i²t per accepted step and
// fails open once the integral passes its rating.
type Fuse struct {
	BaseComponent
	Rating  float64 // continuous current rating (A)
	I2tMax  float64 // blow threshold (A²s)
	Ron     float64
	i2t     float64
	current float64
	Blown   bool
}

var _ Component = (*Fuse)(nil)
var _ TimeDependent = (*Fuse)(nil)
var _ CurrentReporter = (*Fuse)(nil)

func NewFuse(name string, rating float64) *Fuse {
	return &Fuse{
		BaseComponent: NewBaseComponent(name, 2, rating),
		Rating:        rating,
		I2tMax:        rating * rating * 0.01, // blows after 10ms at 1x rating-squared overload
		Ron:           1e-3,
	}
}

func (f *Fuse) GetType() string { return "F" }

func (f *Fuse) conductance() float64 {
	if f.Blown {
		return consts.Gmin
	}
	return 1.0 / f.Ron
}

func (f *Fuse) Stamp(m matrix.DeviceMatrix, status *CircuitStatus) error {
	if len(f.Binds) != 2 {
		return fmt.Errorf("fuse %s: requires exactly 2 nodes", f.Name)
	}
	stampConductance(m, f.Binds[0], f.Binds[1], f.conductance())
	return nil
}

func (f *Fuse) Current(solution *matrix.Vector) float64 {
	v1 := voltageAt(solution, f.Binds[0])
	v2 := voltageAt(solution, f.Binds[1])
	return (v1 - v2) * f.conductance()
}

func (f *Fuse) UpdateState(solution *matrix.Vector, status *CircuitStatus) {
	if f.Blown {
		return
	}
	f.current = f.Current(solution)

	// Only overload current eats the i²t budget.
	over := f.current*f.current - f.Rating*f.Rating
	if over > 0 {
		f.i2t += over * status.TimeStep
		if f.i2t >= f.I2tMax {
			f.Blown = true
		}
	}
}

func (f *Fuse) Reset() {
	f.i2t = 0
	f.current = 0
	f.Blown = false
}

// I2t reports the accumulated overload integral.
func (f *Fuse) I2t() float64 { return f.i2t }
