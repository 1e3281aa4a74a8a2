package config

import "sort"

// Presets are named controller tunings over the default vehicle. ardusub is
// the stock tuning shipped with the ArduSub integration.
var Presets = map[string]func() *Config{
	"ardusub": DefaultConfig,
	"gentle": func() *Config {
		c := DefaultConfig()
		c.Name = "gentle"
		c.Controller.Beta = []float64{0.5, 0.5, 1, 1}
		c.Controller.Gamma = 0.1
		c.Controller.NominalTheta0 = true
		return c
	},
	"aggressive": func() *Config {
		c := DefaultConfig()
		c.Name = "aggressive"
		c.Controller.Beta = []float64{2, 4, 6, 8}
		c.Controller.C1 = []float64{6, 6, 2, 2}
		c.Controller.Gamma = 20
		return c
	},
	"no_adapt": func() *Config {
		c := DefaultConfig()
		c.Name = "no_adapt"
		c.Controller.Gamma = 0
		c.Controller.NominalTheta0 = true
		return c
	},
	"heading_hold": func() *Config {
		c := DefaultConfig()
		c.Name = "heading_hold"
		c.HeadingHold = true
		c.Initial.Yaw = 0.5
		c.Target = []float64{2, 1, -0.5, 0}
		c.Controller.Gamma = 1
		c.Controller.NominalTheta0 = true
		return c
	},
}

// GetPreset returns a fresh copy of the named preset, or nil.
func GetPreset(name string) *Config {
	build, ok := Presets[name]
	if !ok {
		return nil
	}
	return build()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
