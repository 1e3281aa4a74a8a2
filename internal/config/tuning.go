package config

import (
	"fmt"
	"math"
	"sort"
)

// tuningKnobs are the controller settings an offline search may vary. The
// vector gains take a factor applied to every axis; the rest are absolute.
var tuningKnobs = map[string]func(c *ControllerConfig, v float64){
	"beta":   func(c *ControllerConfig, v float64) { c.Beta = scaled(c.Beta, v) },
	"lambda": func(c *ControllerConfig, v float64) { c.Lambda = scaled(c.Lambda, v) },
	"c1":     func(c *ControllerConfig, v float64) { c.C1 = scaled(c.C1, v) },
	"ki": func(c *ControllerConfig, v float64) {
		c.Ki = []float64{v, v, v, v}
	},
	"gamma": func(c *ControllerConfig, v float64) {
		c.Gamma = v
		c.GammaDiag = nil
	},
	"u_max": func(c *ControllerConfig, v float64) {
		c.UMax, c.UMin = v, -v
	},
}

func scaled(xs []float64, f float64) []float64 {
	out := make([]float64, len(xs))
	for i, x := range xs {
		out[i] = x * f
	}
	return out
}

// SetParam sets one controller knob by name. See TuningKnobs.
func (c *Config) SetParam(name string, value float64) error {
	knob, ok := tuningKnobs[name]
	if !ok {
		return fmt.Errorf("%w: unknown tuning knob %q (known: %v)", ErrInvalid, name, TuningKnobs())
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return fmt.Errorf("%w: %s must be finite", ErrInvalid, name)
	}
	knob(&c.Controller, value)
	return nil
}

func TuningKnobs() []string {
	names := make([]string, 0, len(tuningKnobs))
	for n := range tuningKnobs {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
