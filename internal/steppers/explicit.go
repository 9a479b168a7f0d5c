package steppers

import (
	"fmt"

	"github.com/nholford/ebsim/internal/ebm"
)

// Explicit advances via direct discretization:
//
//	temps(t+dt) = temps(t) + dt*(A*temps(t) + b(F(t)))
//
// Simpler than the analytical scheme and the only one that supports the
// quadratic feedback term, but it carries timestep-dependent error and
// goes unstable when dt exceeds twice the inverse of the fastest
// eigenvalue magnitude. In strict mode such a dt is refused.
type Explicit struct {
	Strict bool
}

// NewExplicit returns an explicit stepper. With strict set, steps beyond
// the stability bound fail instead of diverging.
func NewExplicit(strict bool) *Explicit {
	return &Explicit{Strict: strict}
}

func (e *Explicit) Name() string { return "explicit" }

func (e *Explicit) Step(p *ebm.ParameterSet, f ebm.ForcingProvider, s ebm.LayerState, dt float64) (ebm.StepOutput, error) {
	if dt <= 0 {
		return ebm.StepOutput{}, fmt.Errorf("%w: dt = %g", ebm.ErrInvalidTimestep, dt)
	}
	if e.Strict {
		if bound := p.MaxStableStep(); dt > bound {
			return ebm.StepOutput{}, fmt.Errorf("%w: dt = %g exceeds stability bound %g", ebm.ErrUnstableTimestep, dt, bound)
		}
	}

	fv, err := f.ValueAt(s.Time)
	if err != nil {
		return ebm.StepOutput{}, err
	}

	d := p.Derivative(s.Temps, fv)
	next := ebm.LayerState{Time: s.Time + dt, Temps: make([]float64, len(s.Temps))}
	for i := range s.Temps {
		next.Temps[i] = s.Temps[i] + dt*d[i]
	}

	fOut, err := f.ValueAt(next.Time)
	if err != nil {
		return ebm.StepOutput{}, err
	}
	toa, uptake := ebm.Diagnose(p, next, fOut)
	return ebm.StepOutput{State: next, Forcing: fOut, TOAFlux: toa, HeatUptake: uptake}, nil
}
