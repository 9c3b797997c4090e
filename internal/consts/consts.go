package consts

// Physical constants
const (
	CHARGE    = 1.6021918e-19 // Elementary charge (C)
	BOLTZMANN = 1.3806226e-23 // Boltzmann constant (J/K)
	KELVIN    = 273.15        // Kelvin temperature (K)
	ROOMTEMP  = 300.15        // 27degC
)

// Solver constants
const (
	Gmin        = 1e-12 // Minimum node-to-ground conductance
	PivotFloor  = 1e-15 // Pivot magnitude clamp for near-singular systems
	NewtonTol   = 1e-9  // Max absolute solution change for NR convergence
	MaxNewton   = 50    // NR iteration cap per solve
	DCTimeStep  = 1e12  // Effective dt for operating point (opens caps, shorts inductors)
	MaxStepTry  = 10    // Adaptive-step rejection retries before giving up
	MinTimeStep = 1e-12 // Smallest accepted transient step (s)
	MaxTimeStep = 1e-3  // Largest accepted transient step (s)
)

// Schematic constants
const (
	SnapTolerance   = 1e-6 // Terminals within this distance share a node
	OverCurrentAmps = 100  // Measured current beyond this is an undetected short
)
