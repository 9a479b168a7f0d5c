package ebm

import "math"

// LayerState holds per-layer temperature anomalies (degC relative to the
// equilibrium baseline, surface first) at a simulation time (years).
type LayerState struct {
	Time  float64
	Temps []float64
}

// NewZeroState returns an all-zero anomaly state at time t, the usual
// initial condition for a run starting from equilibrium.
func NewZeroState(layers int, t float64) LayerState {
	return LayerState{Time: t, Temps: make([]float64, layers)}
}

func (s LayerState) Clone() LayerState {
	c := LayerState{Time: s.Time, Temps: make([]float64, len(s.Temps))}
	copy(c.Temps, s.Temps)
	return c
}

// Surface returns the top-layer temperature anomaly.
func (s LayerState) Surface() float64 {
	return s.Temps[0]
}

func (s LayerState) IsValid() bool {
	for _, v := range s.Temps {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// StepOutput is the immutable per-grid-point record produced by a run:
// the state together with the diagnostics at the state's time.
type StepOutput struct {
	State LayerState

	// Forcing is the effective radiative forcing at State.Time (W/m^2).
	Forcing float64

	// TOAFlux is the net downward top-of-atmosphere flux (W/m^2), which
	// equals the planetary heat uptake rate.
	TOAFlux float64

	// HeatUptake is the heat flux into the sub-surface layers (W/m^2).
	HeatUptake float64
}

// ForcingProvider samples a forcing scenario at arbitrary times.
// Implementations are pure after construction and safe for concurrent
// queries.
type ForcingProvider interface {
	// ValueAt returns the forcing (W/m^2) at time t (years).
	ValueAt(t float64) (float64, error)

	// Span returns the scenario's first and last times.
	Span() (start, end float64)
}

// Stepper advances a layer state by one timestep. Both schemes share this
// contract; a step never mutates its input state.
type Stepper interface {
	Name() string
	Step(p *ParameterSet, f ForcingProvider, s LayerState, dt float64) (StepOutput, error)
}

// Diagnose computes the diagnostics for a state under forcing f.
//
// The TOA balance is N = F + lambda*T1 - (eps-1)*gamma*(T1-T2); the
// efficacy excess radiates out rather than entering the ocean. Heat
// uptake into the sub-surface layers is eps*gamma*(T1-T2).
func Diagnose(p *ParameterSet, s LayerState, f float64) (toaFlux, heatUptake float64) {
	t1 := s.Temps[0]
	exch := p.Gammas[0] * (t1 - s.Temps[1])
	toaFlux = f + p.feedbackAt(t1)*t1 - (p.Efficacy-1)*exch
	heatUptake = p.Efficacy * exch
	return toaFlux, heatUptake
}
