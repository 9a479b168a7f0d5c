// Package sim orchestrates full emulator runs: it builds the time grid
// and initial state, folds a stepper across the forcing scenario and
// assembles the named output series.
package sim

import (
	"context"
	"fmt"

	"github.com/nholford/ebsim/internal/ebm"
	"github.com/nholford/ebsim/internal/forcing"
	"github.com/nholford/ebsim/internal/metrics"
	"github.com/nholford/ebsim/internal/steppers"
)

// Scheme selects the integration algorithm.
type Scheme string

const (
	SchemeAnalytical Scheme = "analytical"
	SchemeExplicit   Scheme = "explicit"
)

// FinalStep selects what happens when the scenario span is not an exact
// multiple of the step size.
type FinalStep string

const (
	// FinalTruncate stops at the last full step inside the span.
	FinalTruncate FinalStep = "truncate"

	// FinalIncludeShort appends one shorter step landing exactly on the
	// scenario end time.
	FinalIncludeShort FinalStep = "include-short-step"
)

// Options configures a run. Zero values select the defaults noted on
// each field.
type Options struct {
	// Step is the timestep in years. Required, must be positive.
	Step float64

	// Scheme defaults to SchemeAnalytical.
	Scheme Scheme

	// ForcingSample is the analytical scheme's within-step sample point
	// (default start).
	ForcingSample steppers.ForcingSample

	// Boundary is the forcing extrapolation policy (default constant).
	Boundary forcing.Boundary

	// FinalStep defaults to FinalTruncate.
	FinalStep FinalStep

	// Strict makes the explicit scheme refuse steps beyond its
	// stability bound.
	Strict bool

	// Lenient returns the successfully computed prefix together with
	// the error instead of discarding it.
	Lenient bool

	// Initial overrides the all-zero initial anomalies.
	Initial *ebm.LayerState

	// Metrics observe every emitted step output.
	Metrics []metrics.Metric
}

func (o *Options) stepper() (ebm.Stepper, error) {
	switch o.Scheme {
	case "", SchemeAnalytical:
		return steppers.NewAnalytical(o.ForcingSample)
	case SchemeExplicit:
		return steppers.NewExplicit(o.Strict), nil
	default:
		return nil, fmt.Errorf("%w: unknown scheme %q", ebm.ErrInvalidParameter, o.Scheme)
	}
}

// gridEps absorbs float accumulation when deciding whether another full
// step fits in the scenario span.
const gridEps = 1e-9

// Run executes a scenario: one StepOutput per grid point from the
// scenario start to its end, start inclusive. The run is a strictly
// sequential fold; the context is checked between steps so ensemble
// callers can cancel. On error the partial result is returned only in
// lenient mode.
func Run(ctx context.Context, p *ebm.ParameterSet, series *forcing.Series, opts Options) (*Result, error) {
	if p == nil {
		return nil, fmt.Errorf("%w: nil parameter set", ebm.ErrInvalidParameter)
	}
	if series == nil {
		return nil, fmt.Errorf("%w: nil forcing series", ebm.ErrInvalidScenario)
	}
	if opts.Step <= 0 {
		return nil, fmt.Errorf("%w: step = %g", ebm.ErrInvalidTimestep, opts.Step)
	}
	switch opts.FinalStep {
	case "", FinalTruncate, FinalIncludeShort:
	default:
		return nil, fmt.Errorf("%w: unknown final-step policy %q", ebm.ErrInvalidParameter, opts.FinalStep)
	}

	stepper, err := opts.stepper()
	if err != nil {
		return nil, err
	}
	if p.A != 0 && opts.Scheme != SchemeExplicit {
		return nil, fmt.Errorf("%w: quadratic feedback (a = %g) requires the explicit scheme", ebm.ErrInvalidParameter, p.A)
	}

	provider := forcing.NewProvider(series, opts.Boundary)
	start, end := series.Span()

	state := ebm.NewZeroState(p.Layers(), start)
	if opts.Initial != nil {
		if len(opts.Initial.Temps) != p.Layers() {
			return nil, invalidInitial(len(opts.Initial.Temps), p.Layers())
		}
		state = opts.Initial.Clone()
		state.Time = start
	}

	for _, m := range opts.Metrics {
		m.Reset()
	}

	capHint := int((end-start)/opts.Step) + 2
	res := &Result{Outputs: make([]ebm.StepOutput, 0, capHint), Layers: p.Layers()}

	f0, err := provider.ValueAt(start)
	if err != nil {
		return finish(res, opts, err)
	}
	toa, uptake := ebm.Diagnose(p, state, f0)
	res.append(ebm.StepOutput{State: state.Clone(), Forcing: f0, TOAFlux: toa, HeatUptake: uptake}, opts.Metrics)

	for i := 0; state.Time+opts.Step <= end+gridEps*opts.Step; i++ {
		select {
		case <-ctx.Done():
			return finish(res, opts, ctx.Err())
		default:
		}

		out, err := stepper.Step(p, provider, state, opts.Step)
		if err != nil {
			return finish(res, opts, &ebm.StepError{Step: i, Time: state.Time, Wrapped: err})
		}
		state = out.State
		res.append(out, opts.Metrics)
	}

	if rem := end - state.Time; opts.FinalStep == FinalIncludeShort && rem > gridEps*opts.Step {
		out, err := stepper.Step(p, provider, state, rem)
		if err != nil {
			return finish(res, opts, &ebm.StepError{Step: len(res.Outputs) - 1, Time: state.Time, Wrapped: err})
		}
		res.append(out, opts.Metrics)
	}

	res.collectMetrics(opts.Metrics)
	return res, nil
}

func finish(res *Result, opts Options, err error) (*Result, error) {
	if !opts.Lenient {
		return nil, err
	}
	res.collectMetrics(opts.Metrics)
	return res, err
}

func invalidInitial(got, want int) error {
	return fmt.Errorf("%w: initial state has %d layers, parameter set has %d", ebm.ErrInvalidParameter, got, want)
}
