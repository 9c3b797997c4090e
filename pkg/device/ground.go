package device

import (
	"github.com/edaworks/schemsim/pkg/matrix"
)

// Ground pins its single terminal to the ground rail. It contributes nothing
// to the matrix; node unification folds every ground terminal into matrix
// index 0.
type Ground struct {
	BaseComponent
}

var _ Component = (*Ground)(nil)

func NewGround(name string) *Ground {
	return &Ground{
		BaseComponent: NewBaseComponent(name, 1, 0),
	}
}

func (g *Ground) GetType() string { return "GND" }

func (g *Ground) Stamp(m matrix.DeviceMatrix, status *CircuitStatus) error {
	return nil
}
