package config

import (
	"maps"
	"slices"
)

// Preset is a named adjustment applied on top of DefaultConfig.
type Preset struct {
	Description string
	apply       func(c *Config)
}

var Presets = map[string]Preset{
	"baseline": {
		Description: "reference actuator: D=10mm, f=150Hz, S=4, tau_R=2",
		apply:       func(c *Config) {},
	},
	"long-memory": {
		Description: "slow hysteresis return, tau_R=5",
		apply:       func(c *Config) { c.Simulation.TauR = 5.0 },
	},
	"short-memory": {
		Description: "fast hysteresis return, tau_R=0.1",
		apply:       func(c *Config) { c.Simulation.TauR = 0.1 },
	},
	"overdriven": {
		Description: "stroke ratio well past the formation optimum, S=7",
		apply:       func(c *Config) { c.Simulation.StrokeRatio = 7.0 },
	},
	"saturated": {
		Description: "tau_R=0.005 so the hysteretic state reaches its bound each stroke",
		apply: func(c *Config) {
			c.Simulation.TauR = 0.005
			c.Simulation.DurationCycles = 5
		},
	},
}

// GetPreset returns a fresh config for the named preset, or nil.
func GetPreset(name string) *Config {
	preset, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := DefaultConfig()
	preset.apply(cfg)
	return cfg
}

// ListPresets returns preset names in sorted order.
func ListPresets() []string {
	return slices.Sorted(maps.Keys(Presets))
}
