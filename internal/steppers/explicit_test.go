package steppers

import (
	"errors"
	"math"
	"testing"

	"github.com/nholford/ebsim/internal/ebm"
)

func TestExplicitConvergesToAnalytical(t *testing.T) {
	p := benchmarkParams(t)
	f := constantForcing(t, 4.0, 100)

	an, err := NewAnalytical(SampleStart)
	if err != nil {
		t.Fatal(err)
	}
	exact := advance(t, an, p, f, 1.0, 50)
	want := exact[len(exact)-1].State.Temps[0]

	prevErr := math.Inf(1)
	for _, dt := range []float64{2.0, 1.0, 0.5, 0.25} {
		outs := advance(t, NewExplicit(true), p, f, dt, int(50/dt))
		got := outs[len(outs)-1].State.Temps[0]
		e := math.Abs(got - want)
		if e >= prevErr {
			t.Errorf("dt=%g: error %g did not shrink from %g", dt, e, prevErr)
		}
		prevErr = e
	}

	// First order: at dt=0.25 the discrepancy is well under a percent.
	if prevErr/want > 0.01 {
		t.Errorf("dt=0.25 error %g exceeds 1%% of %g", prevErr, want)
	}
}

func TestExplicitStabilityBound(t *testing.T) {
	p := benchmarkParams(t)
	f := constantForcing(t, 4.0, 1000)

	// 2*C1/(|lambda| + efficacy*gamma) is roughly 8.6 yr here.
	over := p.MaxStableStep() * 1.5

	strict := NewExplicit(true)
	if _, err := strict.Step(p, f, ebm.NewZeroState(2, 0), over); !errors.Is(err, ebm.ErrUnstableTimestep) {
		t.Fatalf("strict mode: expected ErrUnstableTimestep at dt=%g, got %v", over, err)
	}

	// Lenient mode proceeds and the mode oscillation grows.
	loose := NewExplicit(false)
	outs := advance(t, loose, p, f, over, 40)
	last := outs[len(outs)-1].State.Temps[0]
	if math.Abs(last) < 10 {
		t.Errorf("expected divergence past the stability bound, surface = %g", last)
	}
}

func TestExplicitWithinBoundStaysBounded(t *testing.T) {
	p := benchmarkParams(t)
	f := constantForcing(t, 4.0, 1000)

	outs := advance(t, NewExplicit(true), p, f, 4.0, 250)
	for _, out := range outs {
		if s := out.State.Temps[0]; s < 0 || s > 4.0 {
			t.Fatalf("surface left [0, 4] at t=%g: %g", out.State.Time, s)
		}
	}
}

func TestQuadraticFeedbackDampsWarming(t *testing.T) {
	linear := benchmarkParams(t)
	quad, err := ebm.NewTwoLayerWithFeedback(-1.0, 7.3, 106, 0.7, 1.0, -0.1)
	if err != nil {
		t.Fatal(err)
	}
	f := constantForcing(t, 4.0, 200)

	st := NewExplicit(true)
	base := advance(t, st, linear, f, 0.5, 400)
	damped := advance(t, st, quad, f, 0.5, 400)

	b := base[len(base)-1].State.Temps[0]
	d := damped[len(damped)-1].State.Temps[0]
	if d >= b {
		t.Errorf("state-dependent damping (a<0) gave %g, linear gave %g", d, b)
	}
	if d <= 0 {
		t.Errorf("damped run failed to warm at all: %g", d)
	}
}

func TestExplicitRejectsNonPositiveStep(t *testing.T) {
	p := benchmarkParams(t)
	f := constantForcing(t, 4.0, 100)

	for _, dt := range []float64{0, -0.5} {
		_, err := NewExplicit(false).Step(p, f, ebm.NewZeroState(2, 0), dt)
		if !errors.Is(err, ebm.ErrInvalidTimestep) {
			t.Errorf("dt=%g: expected ErrInvalidTimestep, got %v", dt, err)
		}
	}
}
