package config

import "github.com/nholford/ebsim/internal/scenario"

// Presets are ready-made configurations for the common idealized
// experiments. Forcing levels use 3.7 W/m^2 per CO2 doubling.
var Presets = map[string]*Config{
	"abrupt2x": presetWith(scenario.Spec{
		Kind: scenario.KindStep, Start: 0, End: 300, Value: 3.7,
	}),
	"abrupt4x": presetWith(scenario.Spec{
		Kind: scenario.KindStep, Start: 0, End: 300, Value: 7.4,
	}),
	// Linear forcing growth reaching 4x CO2 at year 140, then held.
	"ramp": presetWith(scenario.Spec{
		Kind: scenario.KindPoints,
		Points: []scenario.Point{
			{Time: 0, Value: 0},
			{Time: 140, Value: 7.4},
			{Time: 300, Value: 7.4},
		},
	}),
	// A decade-long volcanic-style negative pulse.
	"pulse": presetWith(scenario.Spec{
		Kind: scenario.KindPulse, Start: 0, End: 100, StepTime: 10, Width: 10, Value: -2.0,
	}),
	// Pre-industrial control: zero forcing throughout.
	"pictrl": presetWith(scenario.Spec{
		Kind: scenario.KindConstant, Start: 0, End: 500, Value: 0,
	}),
}

func presetWith(s scenario.Spec) *Config {
	cfg := Default()
	cfg.Scenario = s
	return cfg
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	cfg, ok := Presets[name]
	if !ok {
		return nil
	}
	c := *cfg
	return &c
}

// ListPresets returns the preset names.
func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	return names
}
