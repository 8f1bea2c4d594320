package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/numkit/internal/logging"
	"github.com/san-kum/numkit/internal/ode"
	"github.com/san-kum/numkit/internal/quad"
	"github.com/san-kum/numkit/internal/root"
)

const DefaultDataDir = "runs"

var ErrInvalid = errors.New("config: invalid configuration")

type Config struct {
	Quadrature QuadratureConfig `yaml:"quadrature"`
	ODE        ODEConfig        `yaml:"ode"`
	Root       RootConfig       `yaml:"root"`
	Log        logging.Config   `yaml:"log"`
	DataDir    string           `yaml:"data_dir"`
}

type QuadratureConfig struct {
	Engine      string `yaml:"engine"`
	quad.Params `yaml:",inline"`

	// Overrides adjusts individual dimensions, keyed by zero-based index.
	// Indices beyond the dimension of a problem are ignored.
	Overrides map[int]Override `yaml:"overrides,omitempty"`
}

// Override replaces only the fields it sets.
type Override struct {
	AbsTol  *float64   `yaml:"abs_tol,omitempty"`
	RelTol  *float64   `yaml:"rel_tol,omitempty"`
	MaxEval *int       `yaml:"max_eval,omitempty"`
	Limit   *int       `yaml:"limit,omitempty"`
	Rule    *quad.Rule `yaml:"rule,omitempty"`
}

func (o Override) Apply(p quad.Params) quad.Params {
	if o.AbsTol != nil {
		p.AbsTol = *o.AbsTol
	}
	if o.RelTol != nil {
		p.RelTol = *o.RelTol
	}
	if o.MaxEval != nil {
		p.MaxEval = *o.MaxEval
	}
	if o.Limit != nil {
		p.Limit = *o.Limit
	}
	if o.Rule != nil {
		p.Rule = *o.Rule
	}
	return p
}

// ParamsAt returns the parameters for dimension i.
func (q QuadratureConfig) ParamsAt(i int) quad.Params {
	if o, ok := q.Overrides[i]; ok {
		return o.Apply(q.Params)
	}
	return q.Params
}

type ODEConfig struct {
	Stepper    string `yaml:"stepper"`
	Samples    int    `yaml:"samples"`
	ode.Params `yaml:",inline"`
}

type RootConfig struct {
	Solver      string `yaml:"solver"`
	root.Params `yaml:",inline"`
}

func DefaultConfig() *Config {
	return &Config{
		Quadrature: QuadratureConfig{
			Engine: quad.KindAdaptive,
			Params: quad.DefaultParams(),
		},
		ODE: ODEConfig{
			Stepper: ode.KindRK45,
			Samples: 1000,
			Params:  ode.DefaultParams(),
		},
		Root: RootConfig{
			Solver: root.KindHybridS,
			Params: root.DefaultParams(),
		},
		Log:     logging.DefaultConfig(),
		DataDir: DefaultDataDir,
	}
}

// Load reads a YAML file over the defaults. Keys absent from the file keep
// their default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	if _, err := quad.Factory(c.Quadrature.Engine); err != nil {
		return fmt.Errorf("%w: quadrature: %v", ErrInvalid, err)
	}
	if err := c.Quadrature.Params.Validate(); err != nil {
		return fmt.Errorf("%w: quadrature: %v", ErrInvalid, err)
	}
	for i := range c.Quadrature.Overrides {
		if i < 0 {
			return fmt.Errorf("%w: quadrature override for negative dimension %d", ErrInvalid, i)
		}
		if err := c.Quadrature.ParamsAt(i).Validate(); err != nil {
			return fmt.Errorf("%w: quadrature override %d: %v", ErrInvalid, i, err)
		}
	}

	if !contains(ode.Kinds(), c.ODE.Stepper) {
		return fmt.Errorf("%w: ode: unknown stepper %q", ErrInvalid, c.ODE.Stepper)
	}
	if c.ODE.Samples < 2 {
		return fmt.Errorf("%w: ode: samples must be at least 2, got %d", ErrInvalid, c.ODE.Samples)
	}
	if err := c.ODE.Params.Validate(); err != nil {
		return fmt.Errorf("%w: ode: %v", ErrInvalid, err)
	}

	if !contains(root.Kinds(), c.Root.Solver) {
		return fmt.Errorf("%w: root: unknown solver %q", ErrInvalid, c.Root.Solver)
	}
	if err := c.Root.Params.Validate(); err != nil {
		return fmt.Errorf("%w: root: %v", ErrInvalid, err)
	}

	if err := c.Log.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if c.DataDir == "" {
		return fmt.Errorf("%w: data_dir is empty", ErrInvalid)
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
