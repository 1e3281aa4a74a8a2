package metrics

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/aflc/internal/aflc"
	"github.com/san-kum/aflc/internal/sim"
)

// TrackingRMS is the root mean square of ‖η − ηr‖ over a run, heading
// wrapped. Per-axis values are available through Axis.
type TrackingRMS struct {
	name    string
	sumSq   [aflc.DOF]float64
	samples int
}

func NewTrackingRMS() *TrackingRMS {
	return &TrackingRMS{name: "tracking_rms"}
}

func (m *TrackingRMS) Name() string { return m.name }

func (m *TrackingRMS) Observe(s sim.Sample) {
	e := s.TrackingError()
	for i, v := range e {
		m.sumSq[i] += v * v
	}
	m.samples++
}

func (m *TrackingRMS) Value() float64 {
	if m.samples == 0 {
		return 0
	}
	return math.Sqrt(floats.Sum(m.sumSq[:]) / float64(m.samples))
}

// Axis returns the RMS tracking error of one degree of freedom.
func (m *TrackingRMS) Axis(i int) float64 {
	if m.samples == 0 {
		return 0
	}
	return math.Sqrt(m.sumSq[i] / float64(m.samples))
}

func (m *TrackingRMS) Reset() {
	m.sumSq = [aflc.DOF]float64{}
	m.samples = 0
}

// MaxTrackingError is the largest ‖η − ηr‖ seen.
type MaxTrackingError struct {
	max float64
}

func NewMaxTrackingError() *MaxTrackingError { return &MaxTrackingError{} }

func (m *MaxTrackingError) Name() string { return "max_tracking_error" }

func (m *MaxTrackingError) Observe(s sim.Sample) {
	e := s.TrackingError()
	m.max = math.Max(m.max, floats.Norm(e[:], 2))
}

func (m *MaxTrackingError) Value() float64 { return m.max }
func (m *MaxTrackingError) Reset()         { m.max = 0 }
