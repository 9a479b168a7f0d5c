package ebm

import (
	"errors"
	"math"
	"testing"
)

func TestTwoLayerValidation(t *testing.T) {
	tests := []struct {
		name                             string
		lambda, c1, c2, gamma, efficacy  float64
	}{
		{"zero surface capacity", -1.0, 0, 106, 0.7, 1.0},
		{"negative surface capacity", -1.0, -7.3, 106, 0.7, 1.0},
		{"zero deep capacity", -1.0, 7.3, 0, 0.7, 1.0},
		{"negative exchange", -1.0, 7.3, 106, -0.1, 1.0},
		{"zero efficacy", -1.0, 7.3, 106, 0.7, 0},
		{"nan lambda", math.NaN(), 7.3, 106, 0.7, 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTwoLayer(tt.lambda, tt.c1, tt.c2, tt.gamma, tt.efficacy)
			if !errors.Is(err, ErrInvalidParameter) {
				t.Errorf("expected ErrInvalidParameter, got %v", err)
			}
		})
	}
}

func TestPositiveLambdaAcceptedWithWarning(t *testing.T) {
	p, err := NewTwoLayer(0.5, 7.3, 106, 0.7, 1.0)
	if err != nil {
		t.Fatalf("positive lambda must not fail construction: %v", err)
	}
	if len(p.Warnings()) != 1 {
		t.Errorf("expected one warning, got %v", p.Warnings())
	}
}

func TestSystemMatrix(t *testing.T) {
	p, err := NewTwoLayer(-1.0, 7.3, 106, 0.7, 1.2)
	if err != nil {
		t.Fatal(err)
	}

	a := p.Matrix()
	checks := []struct {
		i, j int
		want float64
	}{
		{0, 0, (-1.0 - 1.2*0.7) / 7.3},
		{0, 1, 1.2 * 0.7 / 7.3},
		{1, 0, 0.7 / 106},
		{1, 1, -0.7 / 106},
	}
	for _, c := range checks {
		if got := a.At(c.i, c.j); math.Abs(got-c.want) > 1e-15 {
			t.Errorf("A[%d][%d] = %g, want %g", c.i, c.j, got, c.want)
		}
	}
}

func TestTimeConstantsMatchAnalyticalForm(t *testing.T) {
	p, err := NewTwoLayer(-1.0, 7.3, 106, 0.7, 1.0)
	if err != nil {
		t.Fatal(err)
	}

	taus := p.TimeConstants()
	if len(taus) != 2 {
		t.Fatalf("expected 2 time constants, got %v", taus)
	}
	if taus[0] >= taus[1] {
		t.Errorf("time constants not sorted fastest first: %v", taus)
	}

	// The eigensolver and the closed-form Geoffroy timescales must agree.
	ir, err := p.ToImpulseResponse()
	if err != nil {
		t.Fatal(err)
	}
	if rel(taus[0], ir.D1) > 1e-9 || rel(taus[1], ir.D2) > 1e-9 {
		t.Errorf("eigen timescales %v disagree with closed form (%g, %g)", taus, ir.D1, ir.D2)
	}
}

func TestMaxStableStep(t *testing.T) {
	p, err := NewTwoLayer(-1.0, 7.3, 106, 0.7, 1.0)
	if err != nil {
		t.Fatal(err)
	}

	bound := p.MaxStableStep()
	taus := p.TimeConstants()
	if rel(bound, 2*taus[0]) > 1e-12 {
		t.Errorf("stability bound %g, want twice the fastest timescale %g", bound, 2*taus[0])
	}
}

func TestThreeLayer(t *testing.T) {
	p, err := NewThreeLayer(-1.1, 7.3, 50, 150, 0.7, 0.5, 1.0)
	if err != nil {
		t.Fatal(err)
	}
	if p.Layers() != 3 {
		t.Fatalf("expected 3 layers, got %d", p.Layers())
	}
	for _, ev := range p.Eigenvalues() {
		if ev >= 0 {
			t.Errorf("stabilizing three-layer system has non-decaying eigenvalue %g", ev)
		}
	}
	if got := len(p.TimeConstants()); got != 3 {
		t.Errorf("expected 3 time constants, got %d", got)
	}
}

func TestThreeLayerCoefficientCountMismatch(t *testing.T) {
	_, err := newParameterSet(-1.0, []float64{7.3, 106}, []float64{0.7, 0.5}, 1.0, 0)
	if !errors.Is(err, ErrInvalidParameter) {
		t.Errorf("expected ErrInvalidParameter for coefficient count mismatch, got %v", err)
	}
}

func TestDerivativeAtEquilibrium(t *testing.T) {
	p, err := NewTwoLayer(-1.0, 7.3, 106, 0.7, 1.0)
	if err != nil {
		t.Fatal(err)
	}
	d := p.Derivative([]float64{0, 0}, 0)
	for i, v := range d {
		if v != 0 {
			t.Errorf("derivative[%d] = %g at equilibrium under zero forcing", i, v)
		}
	}

	// T1 = F/|lambda| with T2 caught up is the step-forcing equilibrium.
	d = p.Derivative([]float64{4, 4}, 4)
	for i, v := range d {
		if math.Abs(v) > 1e-14 {
			t.Errorf("derivative[%d] = %g at the forced equilibrium", i, v)
		}
	}
}

func rel(a, b float64) float64 {
	denom := math.Max(math.Abs(a), math.Abs(b))
	if denom == 0 {
		return 0
	}
	return math.Abs(a-b) / denom
}
