package analysis

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// DefaultBand is the settling tolerance as a fraction of the step size.
const DefaultBand = 0.02

var ErrNoStep = errors.New("analysis: step has zero magnitude")

// StepResponse summarizes a recorded response to a step from Initial to
// Target. Times are in the units of the input slice.
type StepResponse struct {
	Initial, Target float64

	RiseTime       float64 // 10% to 90% of the step; NaN if 90% is never reached
	Overshoot      float64 // peak excursion past Target, percent of the step
	Peak           float64
	PeakTime       float64
	SettlingTime   float64 // first time after which y stays inside the band
	Settled        bool
	SteadyStateErr float64 // Target minus the final value
}

// MeasureStep analyses y(t). band is the settling tolerance as a fraction of
// |Target − Initial|.
func MeasureStep(t, y []float64, initial, target, band float64) (StepResponse, error) {
	if len(t) != len(y) {
		return StepResponse{}, fmt.Errorf("analysis: %d times for %d values", len(t), len(y))
	}
	if len(y) == 0 {
		return StepResponse{}, errors.New("analysis: empty response")
	}
	step := target - initial
	if step == 0 {
		return StepResponse{}, ErrNoStep
	}

	// Normalize so the step always goes from 0 to 1.
	norm := make([]float64, len(y))
	copy(norm, y)
	floats.AddConst(-initial, norm)
	floats.Scale(1/step, norm)

	r := StepResponse{
		Initial:  initial,
		Target:   target,
		RiseTime: math.NaN(),
	}

	peak := floats.MaxIdx(norm)
	r.Peak = y[peak]
	r.PeakTime = t[peak]
	r.Overshoot = math.Max(0, norm[peak]-1) * 100

	t10, t90 := math.NaN(), math.NaN()
	for i, v := range norm {
		if math.IsNaN(t10) && v >= 0.1 {
			t10 = t[i]
		}
		if v >= 0.9 {
			t90 = t[i]
			break
		}
	}
	if !math.IsNaN(t10) && !math.IsNaN(t90) {
		r.RiseTime = t90 - t10
	}

	last := -1
	for i, v := range norm {
		if math.Abs(v-1) > band {
			last = i
		}
	}
	switch {
	case last == len(norm)-1:
		r.SettlingTime = math.NaN()
	case last < 0:
		r.Settled = true
		r.SettlingTime = t[0]
	default:
		r.Settled = true
		r.SettlingTime = t[last+1]
	}

	r.SteadyStateErr = target - y[len(y)-1]
	return r, nil
}

func (r StepResponse) String() string {
	settle := "not settled"
	if r.Settled {
		settle = fmt.Sprintf("%.3fs", r.SettlingTime)
	}
	return fmt.Sprintf("rise %.3fs  overshoot %.2f%%  settling %s  ss error %.4g", r.RiseTime, r.Overshoot, settle, r.SteadyStateErr)
}
