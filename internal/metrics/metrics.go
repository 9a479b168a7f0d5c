// Package metrics provides per-step run diagnostics in observer style.
package metrics

import (
	"math"

	"github.com/nholford/ebsim/internal/ebm"
)

// Metric observes every step output of a run and reduces to one value.
type Metric interface {
	Name() string
	Observe(out ebm.StepOutput)
	Value() float64
	Reset()
}

// PeakWarming tracks the maximum surface temperature anomaly.
type PeakWarming struct {
	peak float64
	seen bool
}

func NewPeakWarming() *PeakWarming { return &PeakWarming{} }

func (m *PeakWarming) Name() string { return "peak_warming" }

func (m *PeakWarming) Observe(out ebm.StepOutput) {
	t1 := out.State.Surface()
	if !m.seen || t1 > m.peak {
		m.peak = t1
		m.seen = true
	}
}

func (m *PeakWarming) Value() float64 { return m.peak }
func (m *PeakWarming) Reset()         { m.peak = 0; m.seen = false }

// EquilibriumFraction reports how far the surface temperature has come
// toward its equilibrium F/|lambda| under the final forcing. Zero when
// the feedback is non-stabilizing or the final forcing vanishes.
type EquilibriumFraction struct {
	lambda float64
	last   ebm.StepOutput
	seen   bool
}

func NewEquilibriumFraction(p *ebm.ParameterSet) *EquilibriumFraction {
	return &EquilibriumFraction{lambda: p.Lambda}
}

func (m *EquilibriumFraction) Name() string { return "equilibrium_fraction" }

func (m *EquilibriumFraction) Observe(out ebm.StepOutput) {
	m.last = out
	m.seen = true
}

func (m *EquilibriumFraction) Value() float64 {
	if !m.seen || m.lambda >= 0 || m.last.Forcing == 0 {
		return 0
	}
	return m.last.State.Surface() / (m.last.Forcing / -m.lambda)
}

func (m *EquilibriumFraction) Reset() {
	m.last = ebm.StepOutput{}
	m.seen = false
}

// ClosureDrift checks energy-balance closure: the time integral of the
// TOA net flux against the heat content held in the layers. The value is
// the relative mismatch at the last observed step.
type ClosureDrift struct {
	caps     []float64
	integral float64
	prev     ebm.StepOutput
	seen     bool
	drift    float64
}

func NewClosureDrift(p *ebm.ParameterSet) *ClosureDrift {
	return &ClosureDrift{caps: append([]float64(nil), p.Caps...)}
}

func (m *ClosureDrift) Name() string { return "closure_drift" }

func (m *ClosureDrift) Observe(out ebm.StepOutput) {
	if m.seen {
		dt := out.State.Time - m.prev.State.Time
		m.integral += dt * (out.TOAFlux + m.prev.TOAFlux) / 2
	}
	m.prev = out
	m.seen = true

	content := 0.0
	for i, c := range m.caps {
		content += c * out.State.Temps[i]
	}
	if scale := math.Max(math.Abs(m.integral), math.Abs(content)); scale > 1e-12 {
		m.drift = math.Abs(m.integral-content) / scale
	}
}

func (m *ClosureDrift) Value() float64 { return m.drift }

func (m *ClosureDrift) Reset() {
	m.integral = 0
	m.prev = ebm.StepOutput{}
	m.seen = false
	m.drift = 0
}
