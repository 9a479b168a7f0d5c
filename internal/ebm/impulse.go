package ebm

import "math"

// ImpulseResponse is the two-timescale impulse-response form of the
// two-layer model: the step response of the surface temperature is
// F * (q1*(1-exp(-t/d1)) + q2*(1-exp(-t/d2))). Q1, Q2 in K/(W/m^2),
// D1, D2 in years with D1 the short timescale.
type ImpulseResponse struct {
	Q1, Q2   float64
	D1, D2   float64
	Efficacy float64
}

// NewImpulseResponse validates an impulse-response parameter set.
func NewImpulseResponse(q1, q2, d1, d2, efficacy float64) (*ImpulseResponse, error) {
	for _, v := range []struct {
		name string
		val  float64
	}{{"q1", q1}, {"q2", q2}, {"d1", d1}, {"d2", d2}} {
		if !(v.val > 0) {
			return nil, invalidParam(v.name, v.val, "> 0")
		}
	}
	if !(efficacy > 0) {
		return nil, invalidParam("efficacy", efficacy, "> 0")
	}
	if d1 > d2 {
		return nil, invalidParam("d1", d1, "the short timescale (d1 <= d2)")
	}
	return &ImpulseResponse{Q1: q1, Q2: q2, D1: d1, D2: d2, Efficacy: efficacy}, nil
}

// ToLayers converts to the equivalent two-layer parameter set.
func (ir *ImpulseResponse) ToLayers() (*ParameterSet, error) {
	lambda0 := 1 / (ir.Q1 + ir.Q2)
	c1 := ir.D1 * ir.D2 / (ir.Q1*ir.D2 + ir.Q2*ir.D1)

	a1 := lambda0 * ir.Q1
	a2 := lambda0 * ir.Q2
	c2 := (lambda0*(ir.D1*a1+ir.D2*a2) - c1) / ir.Efficacy
	eta := c2 / (ir.D1*a2 + ir.D2*a1)

	return NewTwoLayer(-lambda0, c1, c2, eta, ir.Efficacy)
}

// geoffroyParams are the analytical mode parameters of the two-layer
// system: timescales tau1 < tau2, mode amplitudes a1 + a2 = 1, and the
// deep-layer mode weights phi1, phi2.
type geoffroyParams struct {
	tau1, tau2 float64
	phi1, phi2 float64
	a1, a2     float64
}

func (p *ParameterSet) geoffroy() geoffroyParams {
	l0 := -p.Lambda
	c1, c2 := p.Caps[0], p.Caps[1]
	g := p.Gammas[0]
	eps := p.Efficacy

	b := (l0+eps*g)/c1 + g/c2
	bStar := (l0+eps*g)/c1 - g/c2
	sq := math.Sqrt(b*b - 4*l0*g/(c1*c2))

	tauCoeff := c1 * c2 / (2 * l0 * g)
	phiCoeff := c1 / (2 * eps * g)

	gp := geoffroyParams{
		tau1: tauCoeff * (b - sq),
		tau2: tauCoeff * (b + sq),
		phi1: phiCoeff * (bStar - sq),
		phi2: phiCoeff * (bStar + sq),
	}
	denom := c1 * (gp.phi2 - gp.phi1)
	gp.a1 = gp.phi2 * gp.tau1 * l0 / denom
	gp.a2 = -gp.phi1 * gp.tau2 * l0 / denom
	return gp
}

// ToImpulseResponse converts a two-layer parameter set into its exact
// impulse-response equivalent. Only defined for two layers with a
// stabilizing feedback and a linear system (A == 0).
func (p *ParameterSet) ToImpulseResponse() (*ImpulseResponse, error) {
	if p.Layers() != 2 {
		return nil, invalidParam("layers", float64(p.Layers()), "2 (impulse-response form is two-layer only)")
	}
	if p.Lambda >= 0 {
		return nil, invalidParam("lambda", p.Lambda, "< 0 for an impulse-response equivalent")
	}
	if p.A != 0 {
		return nil, invalidParam("a", p.A, "0 (impulse-response form is linear)")
	}

	gp := p.geoffroy()
	l0 := -p.Lambda
	return NewImpulseResponse(gp.a1/l0, gp.a2/l0, gp.tau1, gp.tau2, p.Efficacy)
}
