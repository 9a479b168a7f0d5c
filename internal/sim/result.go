package sim

import (
	"github.com/nholford/ebsim/internal/ebm"
	"github.com/nholford/ebsim/internal/metrics"
)

// Canonical output series names, as consumed by exporters.
const (
	SeriesSurfaceTemperature = "surface_temperature"
	SeriesDeepTemperature    = "deep_temperature"
	SeriesDeep2Temperature   = "deep2_temperature"
	SeriesHeatUptake         = "ocean_heat_uptake"
	SeriesTOAFlux            = "toa_net_flux"
	SeriesForcing            = "effective_forcing"
)

// Result is the ordered, time-indexed output of one run. Outputs are
// appended once and never mutated.
type Result struct {
	Outputs []ebm.StepOutput
	Layers  int
	Metrics map[string]float64
}

func (r *Result) append(out ebm.StepOutput, ms []metrics.Metric) {
	r.Outputs = append(r.Outputs, out)
	for _, m := range ms {
		m.Observe(out)
	}
}

func (r *Result) collectMetrics(ms []metrics.Metric) {
	if len(ms) == 0 {
		return
	}
	r.Metrics = make(map[string]float64, len(ms))
	for _, m := range ms {
		r.Metrics[m.Name()] = m.Value()
	}
}

// Times returns the grid times in years.
func (r *Result) Times() []float64 {
	return r.series(func(o ebm.StepOutput) float64 { return o.State.Time })
}

// SurfaceTemperature returns the top-layer anomaly series.
func (r *Result) SurfaceTemperature() []float64 {
	return r.series(func(o ebm.StepOutput) float64 { return o.State.Surface() })
}

// LayerTemperature returns the anomaly series of layer i (0 = surface).
func (r *Result) LayerTemperature(i int) []float64 {
	return r.series(func(o ebm.StepOutput) float64 { return o.State.Temps[i] })
}

// HeatUptake returns the sub-surface heat uptake series (W/m^2).
func (r *Result) HeatUptake() []float64 {
	return r.series(func(o ebm.StepOutput) float64 { return o.HeatUptake })
}

// TOAFlux returns the TOA net flux series (W/m^2).
func (r *Result) TOAFlux() []float64 {
	return r.series(func(o ebm.StepOutput) float64 { return o.TOAFlux })
}

// Forcing returns the effective forcing echoed back per grid point.
func (r *Result) Forcing() []float64 {
	return r.series(func(o ebm.StepOutput) float64 { return o.Forcing })
}

func (r *Result) series(get func(ebm.StepOutput) float64) []float64 {
	vs := make([]float64, len(r.Outputs))
	for i, o := range r.Outputs {
		vs[i] = get(o)
	}
	return vs
}

// SeriesNames returns the canonical series names for this layer count,
// in export column order.
func (r *Result) SeriesNames() []string {
	names := []string{SeriesSurfaceTemperature, SeriesDeepTemperature}
	if r.Layers == 3 {
		names = append(names, SeriesDeep2Temperature)
	}
	return append(names, SeriesHeatUptake, SeriesTOAFlux, SeriesForcing)
}

// Named returns every output series keyed by canonical name.
func (r *Result) Named() map[string][]float64 {
	named := map[string][]float64{
		SeriesSurfaceTemperature: r.SurfaceTemperature(),
		SeriesDeepTemperature:    r.LayerTemperature(1),
		SeriesHeatUptake:         r.HeatUptake(),
		SeriesTOAFlux:            r.TOAFlux(),
		SeriesForcing:            r.Forcing(),
	}
	if r.Layers == 3 {
		named[SeriesDeep2Temperature] = r.LayerTemperature(2)
	}
	return named
}
