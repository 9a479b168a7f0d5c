// Package forcing turns a radiative-forcing scenario into a sampleable
// function of time.
package forcing

import (
	"fmt"
	"sort"

	"github.com/nholford/ebsim/internal/ebm"
)

// Point is one scenario sample: time in years, forcing in W/m^2.
type Point struct {
	Time  float64 `yaml:"time"`
	Value float64 `yaml:"value"`
}

// Series is a validated, read-only forcing scenario: at least two points,
// times strictly increasing (irregular spacing is fine).
type Series struct {
	points []Point
}

// NewSeries validates and copies the scenario points.
func NewSeries(points []Point) (*Series, error) {
	if len(points) < 2 {
		return nil, fmt.Errorf("%w: need at least 2 points, got %d", ebm.ErrInvalidScenario, len(points))
	}
	for i := 1; i < len(points); i++ {
		if points[i].Time <= points[i-1].Time {
			return nil, fmt.Errorf("%w: times must be strictly increasing (t[%d]=%g, t[%d]=%g)",
				ebm.ErrInvalidScenario, i-1, points[i-1].Time, i, points[i].Time)
		}
	}
	s := &Series{points: make([]Point, len(points))}
	copy(s.points, points)
	return s, nil
}

// Span returns the first and last scenario times.
func (s *Series) Span() (float64, float64) {
	return s.points[0].Time, s.points[len(s.points)-1].Time
}

func (s *Series) Len() int { return len(s.points) }

// Points returns a copy of the scenario samples.
func (s *Series) Points() []Point {
	return append([]Point(nil), s.points...)
}

// Boundary selects the out-of-range query policy.
type Boundary string

const (
	// BoundaryConstant extrapolates with the nearest endpoint value.
	// Silent linear extrapolation would produce implausible forcing
	// excursions, so the trend is never extended.
	BoundaryConstant Boundary = "constant"

	// BoundaryStrict rejects any out-of-range query.
	BoundaryStrict Boundary = "strict"
)

// Provider samples a Series by linear interpolation. It is stateless
// after construction and safe for concurrent queries.
type Provider struct {
	series   *Series
	boundary Boundary
}

// NewProvider wraps a series with the given boundary policy.
func NewProvider(series *Series, boundary Boundary) *Provider {
	if boundary == "" {
		boundary = BoundaryConstant
	}
	return &Provider{series: series, boundary: boundary}
}

var _ ebm.ForcingProvider = (*Provider)(nil)

// ValueAt returns the forcing at time t. Queries on a scenario point
// return that point's value exactly; queries between points interpolate
// linearly; queries outside the range follow the boundary policy.
func (p *Provider) ValueAt(t float64) (float64, error) {
	pts := p.series.points
	first, last := pts[0], pts[len(pts)-1]

	if t < first.Time || t > last.Time {
		if p.boundary == BoundaryStrict {
			return 0, fmt.Errorf("%w: t=%g outside [%g, %g]", ebm.ErrForcingOutOfRange, t, first.Time, last.Time)
		}
		if t < first.Time {
			return first.Value, nil
		}
		return last.Value, nil
	}

	// Index of the first point with time >= t.
	i := sort.Search(len(pts), func(j int) bool { return pts[j].Time >= t })
	if pts[i].Time == t {
		return pts[i].Value, nil
	}

	lo, hi := pts[i-1], pts[i]
	frac := (t - lo.Time) / (hi.Time - lo.Time)
	return lo.Value + frac*(hi.Value-lo.Value), nil
}

// Span implements ebm.ForcingProvider.
func (p *Provider) Span() (float64, float64) {
	return p.series.Span()
}
