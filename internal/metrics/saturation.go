package metrics

import "github.com/san-kum/aflc/internal/sim"

// SaturationRatio is the fraction of ticks in which any axis hit its bound.
type SaturationRatio struct {
	saturated int
	samples   int
}

func NewSaturationRatio() *SaturationRatio {
	return &SaturationRatio{}
}

func (s *SaturationRatio) Name() string { return "saturation_ratio" }

func (s *SaturationRatio) Observe(smp sim.Sample) {
	s.samples++
	for _, sat := range smp.Saturated {
		if sat {
			s.saturated++
			break
		}
	}
}

func (s *SaturationRatio) Value() float64 {
	if s.samples == 0 {
		return 0
	}
	return float64(s.saturated) / float64(s.samples)
}

func (s *SaturationRatio) Reset() {
	s.saturated = 0
	s.samples = 0
}

// HeldTicks counts ticks whose controller update failed.
type HeldTicks struct {
	held int
}

func NewHeldTicks() *HeldTicks { return &HeldTicks{} }

func (h *HeldTicks) Name() string { return "held_ticks" }

func (h *HeldTicks) Observe(smp sim.Sample) {
	if smp.Held {
		h.held++
	}
}

func (h *HeldTicks) Value() float64 { return float64(h.held) }
func (h *HeldTicks) Reset()         { h.held = 0 }
