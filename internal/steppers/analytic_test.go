package steppers

import (
	"errors"
	"math"
	"testing"

	"github.com/nholford/ebsim/internal/ebm"
	"github.com/nholford/ebsim/internal/forcing"
)

func benchmarkParams(t *testing.T) *ebm.ParameterSet {
	t.Helper()
	p, err := ebm.NewTwoLayer(-1.0, 7.3, 106, 0.7, 1.0)
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func constantForcing(t *testing.T, value, end float64) ebm.ForcingProvider {
	t.Helper()
	s, err := forcing.NewSeries([]forcing.Point{
		{Time: 0, Value: value},
		{Time: end, Value: value},
	})
	if err != nil {
		t.Fatal(err)
	}
	return forcing.NewProvider(s, forcing.BoundaryConstant)
}

// advance runs n fixed steps from the zero state and returns every state.
func advance(t *testing.T, st ebm.Stepper, p *ebm.ParameterSet, f ebm.ForcingProvider, dt float64, n int) []ebm.StepOutput {
	t.Helper()
	state := ebm.NewZeroState(p.Layers(), 0)
	outs := make([]ebm.StepOutput, 0, n)
	for i := 0; i < n; i++ {
		out, err := st.Step(p, f, state, dt)
		if err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		outs = append(outs, out)
		state = out.State
	}
	return outs
}

func TestSteadyStateStaysAtZero(t *testing.T) {
	p := benchmarkParams(t)
	f := constantForcing(t, 0, 100)

	an, err := NewAnalytical(SampleStart)
	if err != nil {
		t.Fatal(err)
	}
	for _, st := range []ebm.Stepper{an, NewExplicit(true)} {
		outs := advance(t, st, p, f, 1.0, 50)
		last := outs[len(outs)-1]
		for i, v := range last.State.Temps {
			if math.Abs(v) > 1e-14 {
				t.Errorf("%s: layer %d drifted to %g under zero forcing", st.Name(), i, v)
			}
		}
		if math.Abs(last.TOAFlux) > 1e-14 || math.Abs(last.HeatUptake) > 1e-14 {
			t.Errorf("%s: nonzero diagnostics at rest: N=%g H=%g", st.Name(), last.TOAFlux, last.HeatUptake)
		}
	}
}

func TestAnalyticalStepHalvingInvariance(t *testing.T) {
	p := benchmarkParams(t)
	f := constantForcing(t, 4.0, 100)

	coarse, err := NewAnalytical(SampleStart)
	if err != nil {
		t.Fatal(err)
	}
	fine, err := NewAnalytical(SampleStart)
	if err != nil {
		t.Fatal(err)
	}

	a := advance(t, coarse, p, f, 2.0, 10)
	b := advance(t, fine, p, f, 1.0, 20)

	// Same state at t=20 regardless of how the interval was subdivided.
	wantTemps := b[len(b)-1].State.Temps
	gotTemps := a[len(a)-1].State.Temps
	for i := range wantTemps {
		if relDiff(gotTemps[i], wantTemps[i]) > 1e-10 {
			t.Errorf("layer %d: dt=2 gives %g, dt=1 gives %g", i, gotTemps[i], wantTemps[i])
		}
	}
}

func TestStepForcingResponse(t *testing.T) {
	p := benchmarkParams(t)
	f := constantForcing(t, 4.0, 300)

	st, err := NewAnalytical(SampleStart)
	if err != nil {
		t.Fatal(err)
	}
	outs := advance(t, st, p, f, 1.0, 300)

	prevSurf, prevDeep := 0.0, 0.0
	for i, out := range outs {
		surf, deep := out.State.Temps[0], out.State.Temps[1]
		if surf <= prevSurf {
			t.Fatalf("surface temperature not monotone at step %d: %g -> %g", i, prevSurf, surf)
		}
		if deep < prevDeep {
			t.Fatalf("deep temperature decreased at step %d: %g -> %g", i, prevDeep, deep)
		}
		if deep >= surf {
			t.Fatalf("deep layer overtook the surface at step %d: T1=%g T2=%g", i, surf, deep)
		}
		prevSurf, prevDeep = surf, deep
	}

	// The surface approaches F/|lambda| = 4 K from below; after three
	// centuries roughly 85% of equilibrium is reached with these values.
	final := outs[len(outs)-1].State.Temps[0]
	if final <= 3.2 || final >= 4.0 {
		t.Errorf("surface after 300 yr = %g, want within (3.2, 4.0)", final)
	}
}

func TestEnergyClosure(t *testing.T) {
	p := benchmarkParams(t)
	f := constantForcing(t, 4.0, 300)

	st, err := NewAnalytical(SampleStart)
	if err != nil {
		t.Fatal(err)
	}
	dt := 1.0
	outs := advance(t, st, p, f, dt, 300)

	// Trapezoidal integral of the TOA flux, starting from N(0) = F.
	integral := 0.0
	prevN := 4.0
	for _, out := range outs {
		integral += dt * (prevN + out.TOAFlux) / 2
		prevN = out.TOAFlux
	}

	last := outs[len(outs)-1].State
	content := 7.3*last.Temps[0] + 106*last.Temps[1]

	if relDiff(integral, content) > 0.02 {
		t.Errorf("energy closure violated: integrated flux %g vs heat content %g", integral, content)
	}
}

func TestForcingSamplePoliciesAgreeOnConstantForcing(t *testing.T) {
	p := benchmarkParams(t)
	f := constantForcing(t, 4.0, 100)

	var ref []ebm.StepOutput
	for _, sample := range []ForcingSample{SampleStart, SampleMidpoint, SampleEnd} {
		st, err := NewAnalytical(sample)
		if err != nil {
			t.Fatal(err)
		}
		outs := advance(t, st, p, f, 1.0, 30)
		if ref == nil {
			ref = outs
			continue
		}
		for i := range outs {
			for j := range outs[i].State.Temps {
				if relDiff(outs[i].State.Temps[j], ref[i].State.Temps[j]) > 1e-12 {
					t.Fatalf("policy %q diverges from start sampling at step %d", sample, i)
				}
			}
		}
	}
}

func TestAnalyticalRejectsBadInput(t *testing.T) {
	p := benchmarkParams(t)
	f := constantForcing(t, 4.0, 100)

	st, err := NewAnalytical(SampleStart)
	if err != nil {
		t.Fatal(err)
	}

	for _, dt := range []float64{0, -1} {
		_, err := st.Step(p, f, ebm.NewZeroState(2, 0), dt)
		if !errors.Is(err, ebm.ErrInvalidTimestep) {
			t.Errorf("dt=%g: expected ErrInvalidTimestep, got %v", dt, err)
		}
	}

	quad, err := ebm.NewTwoLayerWithFeedback(-1.0, 7.3, 106, 0.7, 1.0, -0.05)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := st.Step(quad, f, ebm.NewZeroState(2, 0), 1.0); !errors.Is(err, ebm.ErrInvalidParameter) {
		t.Errorf("quadratic feedback: expected ErrInvalidParameter, got %v", err)
	}

	if _, err := NewAnalytical("quadrature"); !errors.Is(err, ebm.ErrInvalidParameter) {
		t.Errorf("unknown sample policy: expected ErrInvalidParameter, got %v", err)
	}
}

func TestStrictForcingRangePropagates(t *testing.T) {
	p := benchmarkParams(t)
	s, err := forcing.NewSeries([]forcing.Point{{Time: 0, Value: 4}, {Time: 5, Value: 4}})
	if err != nil {
		t.Fatal(err)
	}
	f := forcing.NewProvider(s, forcing.BoundaryStrict)

	st, err := NewAnalytical(SampleStart)
	if err != nil {
		t.Fatal(err)
	}
	state := ebm.LayerState{Time: 5, Temps: []float64{1, 0.5}}
	if _, err := st.Step(p, f, state, 1.0); !errors.Is(err, ebm.ErrForcingOutOfRange) {
		t.Errorf("expected ErrForcingOutOfRange past the scenario end, got %v", err)
	}
}

func relDiff(a, b float64) float64 {
	denom := math.Max(math.Abs(a), math.Abs(b))
	if denom == 0 {
		return 0
	}
	return math.Abs(a-b) / denom
}
