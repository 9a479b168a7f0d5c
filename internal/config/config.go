package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/nholford/ebsim/internal/ebm"
	"github.com/nholford/ebsim/internal/scenario"
)

// Defaults follow the CMIP5 multi-model means of Geoffroy et al. (2013).
const (
	DefaultLambda   = -1.13
	DefaultC1       = 7.3
	DefaultC2       = 106.0
	DefaultGamma    = 0.7
	DefaultEfficacy = 1.0
	DefaultStep     = 1.0
)

// Config is the yaml-serializable description of one run.
type Config struct {
	// Model is "two-layer", "three-layer" or "impulse-response".
	Model string `yaml:"model"`

	Scheme        string  `yaml:"scheme"`
	Step          float64 `yaml:"step"`
	ForcingSample string  `yaml:"forcing_sample,omitempty"`
	Boundary      string  `yaml:"boundary,omitempty"`
	FinalStep     string  `yaml:"final_step,omitempty"`
	Strict        bool    `yaml:"strict,omitempty"`
	Lenient       bool    `yaml:"lenient,omitempty"`

	Params   Params        `yaml:"params"`
	Scenario scenario.Spec `yaml:"scenario"`
}

// Params carries the physical constants for whichever model variant the
// config selects; unused fields stay zero.
type Params struct {
	Lambda   float64 `yaml:"lambda"`
	C1       float64 `yaml:"c1"`
	C2       float64 `yaml:"c2"`
	C3       float64 `yaml:"c3,omitempty"`
	Gamma    float64 `yaml:"gamma"`
	Gamma2   float64 `yaml:"gamma2,omitempty"`
	Efficacy float64 `yaml:"efficacy"`
	A        float64 `yaml:"a,omitempty"`

	// Impulse-response form.
	Q1 float64 `yaml:"q1,omitempty"`
	Q2 float64 `yaml:"q2,omitempty"`
	D1 float64 `yaml:"d1,omitempty"`
	D2 float64 `yaml:"d2,omitempty"`
}

// Default returns a two-layer abrupt-4x configuration.
func Default() *Config {
	return &Config{
		Model:  "two-layer",
		Scheme: "analytical",
		Step:   DefaultStep,
		Params: Params{
			Lambda:   DefaultLambda,
			C1:       DefaultC1,
			C2:       DefaultC2,
			Gamma:    DefaultGamma,
			Efficacy: DefaultEfficacy,
		},
		Scenario: scenario.Spec{Kind: scenario.KindStep, Start: 0, End: 300, Value: 7.4},
	}
}

// Load reads a yaml config, filling unset fields from Default.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the config as yaml.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ParameterSet builds the validated parameter set for the configured
// model variant.
func (c *Config) ParameterSet() (*ebm.ParameterSet, error) {
	p := c.Params
	switch c.Model {
	case "", "two-layer":
		if p.A != 0 {
			return ebm.NewTwoLayerWithFeedback(p.Lambda, p.C1, p.C2, p.Gamma, p.Efficacy, p.A)
		}
		return ebm.NewTwoLayer(p.Lambda, p.C1, p.C2, p.Gamma, p.Efficacy)
	case "three-layer":
		return ebm.NewThreeLayer(p.Lambda, p.C1, p.C2, p.C3, p.Gamma, p.Gamma2, p.Efficacy)
	case "impulse-response":
		ir, err := ebm.NewImpulseResponse(p.Q1, p.Q2, p.D1, p.D2, p.Efficacy)
		if err != nil {
			return nil, err
		}
		return ir.ToLayers()
	default:
		return nil, fmt.Errorf("%w: unknown model %q", ebm.ErrInvalidParameter, c.Model)
	}
}
