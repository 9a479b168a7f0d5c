// Package scenario builds forcing series from declarative specs:
// explicit point lists, simple generator shapes, or CSV files.
package scenario

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/nholford/ebsim/internal/ebm"
	"github.com/nholford/ebsim/internal/forcing"
)

// Point aliases forcing.Point for spec literals.
type Point = forcing.Point

// Kind names a scenario shape.
type Kind string

const (
	KindPoints   Kind = "points"
	KindConstant Kind = "constant"
	KindStep     Kind = "step"
	KindRamp     Kind = "ramp"
	KindPulse    Kind = "pulse"
)

// stepKnee is the interval used to make a forcing jump sharp under
// linear interpolation.
const stepKnee = 1e-6

// Spec is a declarative scenario, typically decoded from yaml.
type Spec struct {
	Kind Kind `yaml:"kind"`

	// Start and End bound the scenario in years.
	Start float64 `yaml:"start"`
	End   float64 `yaml:"end"`

	// Value is the forcing level (W/m^2): the constant level, the
	// post-step level, the ramp end value, or the pulse height.
	Value float64 `yaml:"value"`

	// StepTime is when the step or pulse begins.
	StepTime float64 `yaml:"step_time"`

	// Width is the pulse duration in years.
	Width float64 `yaml:"width"`

	// Points lists explicit samples for KindPoints.
	Points []forcing.Point `yaml:"points"`
}

// Build materializes the spec into a validated series.
func (s Spec) Build() (*forcing.Series, error) {
	switch s.Kind {
	case KindPoints:
		return forcing.NewSeries(s.Points)
	case KindConstant:
		return s.bounded(func() []forcing.Point {
			return []forcing.Point{{Time: s.Start, Value: s.Value}, {Time: s.End, Value: s.Value}}
		})
	case KindStep:
		return s.bounded(func() []forcing.Point {
			if s.StepTime <= s.Start {
				return []forcing.Point{{Time: s.Start, Value: s.Value}, {Time: s.End, Value: s.Value}}
			}
			return []forcing.Point{
				{Time: s.Start},
				{Time: s.StepTime - stepKnee},
				{Time: s.StepTime, Value: s.Value},
				{Time: s.End, Value: s.Value},
			}
		})
	case KindRamp:
		return s.bounded(func() []forcing.Point {
			return []forcing.Point{{Time: s.Start}, {Time: s.End, Value: s.Value}}
		})
	case KindPulse:
		if s.Width <= 0 {
			return nil, fmt.Errorf("%w: pulse width = %g must be positive", ebm.ErrInvalidScenario, s.Width)
		}
		return s.bounded(func() []forcing.Point {
			up := s.StepTime
			down := up + s.Width
			var pts []forcing.Point
			if up <= s.Start {
				up = s.Start
				down = up + s.Width
				pts = []forcing.Point{{Time: up, Value: s.Value}}
			} else {
				pts = []forcing.Point{
					{Time: s.Start},
					{Time: up - stepKnee},
					{Time: up, Value: s.Value},
				}
			}
			pts = append(pts,
				forcing.Point{Time: down, Value: s.Value},
				forcing.Point{Time: down + stepKnee},
				forcing.Point{Time: s.End},
			)
			return pts
		})
	default:
		return nil, fmt.Errorf("%w: unknown scenario kind %q", ebm.ErrInvalidScenario, s.Kind)
	}
}

func (s Spec) bounded(build func() []forcing.Point) (*forcing.Series, error) {
	if s.End <= s.Start {
		return nil, fmt.Errorf("%w: end = %g must be after start = %g", ebm.ErrInvalidScenario, s.End, s.Start)
	}
	return forcing.NewSeries(build())
}

// LoadCSV reads a two-column (time, forcing) CSV file, skipping a header
// row when the first field does not parse as a number.
func LoadCSV(path string) (*forcing.Series, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = 2
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ebm.ErrInvalidScenario, err)
	}

	points := make([]forcing.Point, 0, len(records))
	for i, rec := range records {
		t, err := strconv.ParseFloat(rec[0], 64)
		if err != nil {
			if i == 0 {
				continue // header
			}
			return nil, fmt.Errorf("%w: bad time %q on row %d", ebm.ErrInvalidScenario, rec[0], i+1)
		}
		v, err := strconv.ParseFloat(rec[1], 64)
		if err != nil {
			return nil, fmt.Errorf("%w: bad forcing %q on row %d", ebm.ErrInvalidScenario, rec[1], i+1)
		}
		points = append(points, forcing.Point{Time: t, Value: v})
	}
	return forcing.NewSeries(points)
}
