package metrics

import (
	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/aflc/internal/aflc"
	"github.com/san-kum/aflc/internal/sim"
)

// ParameterNorm reports ‖θ‖ at the last sample and how far the estimate
// travelled from the first one.
type ParameterNorm struct {
	first, last aflc.Params
	samples     int
}

func NewParameterNorm() *ParameterNorm {
	return &ParameterNorm{}
}

func (p *ParameterNorm) Name() string { return "theta_norm" }

func (p *ParameterNorm) Observe(s sim.Sample) {
	if p.samples == 0 {
		p.first = s.Theta
	}
	p.last = s.Theta
	p.samples++
}

func (p *ParameterNorm) Value() float64 {
	return floats.Norm(p.last[:], 2)
}

// Drift returns ‖θ_last − θ_first‖.
func (p *ParameterNorm) Drift() float64 {
	return floats.Distance(p.last[:], p.first[:], 2)
}

func (p *ParameterNorm) Reset() {
	p.first, p.last = aflc.Params{}, aflc.Params{}
	p.samples = 0
}

// Standard returns the metrics attached to every simulated run.
func Standard() []sim.Metric {
	return []sim.Metric{
		NewTrackingRMS(),
		NewMaxTrackingError(),
		NewControlEffort(),
		NewSaturationRatio(),
		NewParameterNorm(),
		NewHeldTicks(),
	}
}
