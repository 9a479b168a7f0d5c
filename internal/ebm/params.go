package ebm

import (
	"fmt"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/mat"
)

// imagTol is the largest imaginary eigenvalue component accepted as
// numerical noise. The physical system relaxes without oscillation, so
// genuinely complex modes mean the parameters are unphysical.
const imagTol = 1e-9

// ParameterSet bundles the physical constants of a two- or three-layer
// energy-balance model. Units: Lambda and Gammas in W/m^2/K, Caps in
// W*yr/m^2/K, Efficacy dimensionless, A in W/m^2/K^2.
//
// The governing equations (surface layer first, lambda < 0 for a
// stabilizing feedback):
//
//	C1 dT1/dt = F(t) + lambda*T1 - eps*g1*(T1 - T2)
//	C2 dT2/dt = g1*(T1 - T2) - g2*(T2 - T3)
//	C3 dT3/dt = g2*(T2 - T3)
//
// A ParameterSet is immutable after construction. The linear system
// matrix and its eigendecomposition are computed once and reused by
// every step of a run.
type ParameterSet struct {
	Lambda   float64
	Caps     []float64
	Gammas   []float64
	Efficacy float64

	// A is the optional state dependence of the feedback
	// (lambda_eff = lambda + A*T1). Only the explicit scheme supports a
	// non-zero A; the analytical scheme requires a linear system.
	A float64

	matrix   *mat.Dense
	eig      *eigDecomp
	warnings []string
}

// eigDecomp is the cached real eigendecomposition A = V diag(values) V^-1.
type eigDecomp struct {
	values []float64
	vecs   *mat.Dense
	inv    *mat.Dense
}

// NewTwoLayer constructs a validated two-layer parameter set.
func NewTwoLayer(lambda, c1, c2, gamma, efficacy float64) (*ParameterSet, error) {
	return newParameterSet(lambda, []float64{c1, c2}, []float64{gamma}, efficacy, 0)
}

// NewThreeLayer constructs a validated three-layer parameter set with two
// exchange coefficients (surface/mid and mid/deep).
func NewThreeLayer(lambda, c1, c2, c3, gamma1, gamma2, efficacy float64) (*ParameterSet, error) {
	return newParameterSet(lambda, []float64{c1, c2, c3}, []float64{gamma1, gamma2}, efficacy, 0)
}

// NewTwoLayerWithFeedback is NewTwoLayer plus the quadratic feedback
// coefficient a.
func NewTwoLayerWithFeedback(lambda, c1, c2, gamma, efficacy, a float64) (*ParameterSet, error) {
	return newParameterSet(lambda, []float64{c1, c2}, []float64{gamma}, efficacy, a)
}

func newParameterSet(lambda float64, caps, gammas []float64, efficacy, a float64) (*ParameterSet, error) {
	n := len(caps)
	if n < 2 || n > 3 {
		return nil, invalidParam("layers", float64(n), "2 or 3 layers")
	}
	if len(gammas) != n-1 {
		return nil, invalidParam("exchange coefficients", float64(len(gammas)),
			fmt.Sprintf("%d coefficients for %d layers", n-1, n))
	}
	for i, c := range caps {
		if !(c > 0) {
			return nil, invalidParam(fmt.Sprintf("C%d", i+1), c, "> 0")
		}
	}
	for i, g := range gammas {
		if g < 0 {
			return nil, invalidParam(fmt.Sprintf("gamma%d", i+1), g, ">= 0")
		}
	}
	if !(efficacy > 0) {
		return nil, invalidParam("efficacy", efficacy, "> 0")
	}
	if math.IsNaN(lambda) || math.IsInf(lambda, 0) {
		return nil, invalidParam("lambda", lambda, "finite")
	}

	p := &ParameterSet{
		Lambda:   lambda,
		Caps:     append([]float64(nil), caps...),
		Gammas:   append([]float64(nil), gammas...),
		Efficacy: efficacy,
		A:        a,
	}
	if lambda >= 0 {
		p.warnings = append(p.warnings,
			fmt.Sprintf("lambda = %g implies a non-stabilizing feedback; anomalies will not equilibrate", lambda))
	}

	p.matrix = p.buildMatrix()
	eig, err := decompose(p.matrix)
	if err != nil {
		return nil, err
	}
	p.eig = eig
	return p, nil
}

// Layers returns the number of thermal layers.
func (p *ParameterSet) Layers() int { return len(p.Caps) }

// Warnings reports physically suspect but accepted parameter choices.
func (p *ParameterSet) Warnings() []string {
	return append([]string(nil), p.warnings...)
}

// buildMatrix assembles A such that d(temps)/dt = A*temps + b(F), with
// b(F) = (F/C1, 0, ...).
func (p *ParameterSet) buildMatrix() *mat.Dense {
	n := p.Layers()
	a := mat.NewDense(n, n, nil)

	g1 := p.Gammas[0]
	a.Set(0, 0, (p.Lambda-p.Efficacy*g1)/p.Caps[0])
	a.Set(0, 1, p.Efficacy*g1/p.Caps[0])

	if n == 2 {
		a.Set(1, 0, g1/p.Caps[1])
		a.Set(1, 1, -g1/p.Caps[1])
		return a
	}

	g2 := p.Gammas[1]
	a.Set(1, 0, g1/p.Caps[1])
	a.Set(1, 1, -(g1+g2)/p.Caps[1])
	a.Set(1, 2, g2/p.Caps[1])
	a.Set(2, 1, g2/p.Caps[2])
	a.Set(2, 2, -g2/p.Caps[2])
	return a
}

// Matrix returns the linear system matrix.
func (p *ParameterSet) Matrix() mat.Matrix { return p.matrix }

// Eigenvalues returns the system's eigenvalues (1/yr), unordered.
func (p *ParameterSet) Eigenvalues() []float64 {
	return append([]float64(nil), p.eig.values...)
}

// TimeConstants returns the e-folding timescales -1/ev (years) of the
// decaying modes, fastest first. Non-decaying modes are skipped.
func (p *ParameterSet) TimeConstants() []float64 {
	taus := make([]float64, 0, len(p.eig.values))
	for _, ev := range p.eig.values {
		if ev < 0 {
			taus = append(taus, -1/ev)
		}
	}
	for i := 1; i < len(taus); i++ {
		for j := i; j > 0 && taus[j] < taus[j-1]; j-- {
			taus[j], taus[j-1] = taus[j-1], taus[j]
		}
	}
	return taus
}

// MaxStableStep returns the largest timestep (years) for which the
// explicit scheme is stable: 2 over the fastest eigenvalue magnitude.
// It returns +Inf when no mode decays.
func (p *ParameterSet) MaxStableStep() float64 {
	fastest := 0.0
	for _, ev := range p.eig.values {
		if m := math.Abs(ev); ev < 0 && m > fastest {
			fastest = m
		}
	}
	if fastest == 0 {
		return math.Inf(1)
	}
	return 2 / fastest
}

// Derivative evaluates d(temps)/dt under forcing f, including the
// optional quadratic feedback term.
func (p *ParameterSet) Derivative(temps []float64, f float64) []float64 {
	n := p.Layers()
	d := make([]float64, n)

	t1 := temps[0]
	g1 := p.Gammas[0]
	d[0] = (f + p.feedbackAt(t1)*t1 - p.Efficacy*g1*(t1-temps[1])) / p.Caps[0]
	if n == 2 {
		d[1] = g1 * (t1 - temps[1]) / p.Caps[1]
		return d
	}

	g2 := p.Gammas[1]
	d[1] = (g1*(t1-temps[1]) - g2*(temps[1]-temps[2])) / p.Caps[1]
	d[2] = g2 * (temps[1] - temps[2]) / p.Caps[2]
	return d
}

// feedbackAt returns the effective feedback parameter at surface
// anomaly t1.
func (p *ParameterSet) feedbackAt(t1 float64) float64 {
	return p.Lambda + p.A*t1
}

// Propagator computes exp(A*dt) together with the forcing gain vector g
// such that, for forcing held constant at F over the step,
//
//	temps(t+dt) = exp(A*dt)*temps(t) + F*g.
//
// Both come straight from the cached eigendecomposition; the gain uses
// the limit (exp(ev*dt)-1)/ev -> dt for a vanishing eigenvalue.
func (p *ParameterSet) Propagator(dt float64) (*mat.Dense, []float64) {
	n := p.Layers()
	e := p.eig

	expDiag := mat.NewDense(n, n, nil)
	gainDiag := mat.NewDense(n, n, nil)
	for i, ev := range e.values {
		expDiag.Set(i, i, math.Exp(ev*dt))
		if math.Abs(ev) < 1e-14 {
			gainDiag.Set(i, i, dt)
		} else {
			gainDiag.Set(i, i, (math.Exp(ev*dt)-1)/ev)
		}
	}

	var prop, gainM, tmp mat.Dense
	tmp.Mul(expDiag, e.inv)
	prop.Mul(e.vecs, &tmp)
	tmp.Mul(gainDiag, e.inv)
	gainM.Mul(e.vecs, &tmp)

	// unit forcing vector (1/C1, 0, ...)
	gain := make([]float64, n)
	for i := 0; i < n; i++ {
		gain[i] = gainM.At(i, 0) / p.Caps[0]
	}
	return &prop, gain
}

func decompose(a *mat.Dense) (*eigDecomp, error) {
	n, _ := a.Dims()

	var eig mat.Eigen
	if ok := eig.Factorize(a, mat.EigenRight); !ok {
		return nil, &ValueError{Field: "system matrix", Constraint: "eigendecomposable", Wrapped: ErrInvalidParameter}
	}

	cvals := eig.Values(nil)
	cvecs := mat.NewCDense(n, n, nil)
	eig.VectorsTo(cvecs)

	values := make([]float64, n)
	vecs := mat.NewDense(n, n, nil)
	for j, cv := range cvals {
		if math.Abs(imag(cv)) > imagTol*(1+cmplx.Abs(cv)) {
			return nil, invalidParam("eigenvalue imaginary part", imag(cv), "real relaxation modes")
		}
		values[j] = real(cv)
		for i := 0; i < n; i++ {
			vecs.Set(i, j, real(cvecs.At(i, j)))
		}
	}

	inv := mat.NewDense(n, n, nil)
	if err := inv.Inverse(vecs); err != nil {
		return nil, &ValueError{Field: "eigenvector matrix", Constraint: "invertible", Wrapped: ErrInvalidParameter}
	}

	return &eigDecomp{values: values, vecs: vecs, inv: inv}, nil
}
