package config

import (
	"sort"

	"github.com/san-kum/numkit/internal/quad"
)

// Presets are tolerance profiles applied on top of DefaultConfig.
var Presets = map[string]func(*Config){
	"coarse": func(c *Config) {
		c.Quadrature.AbsTol, c.Quadrature.RelTol = 1e-6, 1e-2
		c.Quadrature.Rule = quad.Rule21
		c.ODE.AbsTol = 1e-4
		c.ODE.Stepper = "rk23"
		c.Root.AbsTol, c.Root.RelTol = 1e-6, 1e-2
	},
	"default": func(*Config) {},
	"fine": func(c *Config) {
		c.Quadrature.AbsTol, c.Quadrature.RelTol = 1e-10, 1e-6
		c.Quadrature.MaxEval, c.Quadrature.Limit = 100_000, 1000
		c.Quadrature.Rule = quad.Rule61
		c.ODE.AbsTol = 1e-9
		c.Root.AbsTol, c.Root.RelTol = 1e-10, 1e-8
		c.Root.MaxIter = 100
	},
}

// GetPreset returns a fresh configuration for the named preset, or nil.
func GetPreset(name string) *Config {
	apply, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := DefaultConfig()
	apply(cfg)
	return cfg
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
