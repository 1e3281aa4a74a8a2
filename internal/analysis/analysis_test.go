package analysis

import (
	"errors"
	"math"
	"strings"
	"testing"
)

func firstOrder(tau float64, n int, dt float64) (t, y []float64) {
	t = make([]float64, n)
	y = make([]float64, n)
	for i := range t {
		t[i] = float64(i) * dt
		y[i] = 1 - math.Exp(-t[i]/tau)
	}
	return t, y
}

func TestMeasureStep_FirstOrder(t *testing.T) {
	ts, ys := firstOrder(1, 1001, 0.01)

	r, err := MeasureStep(ts, ys, 0, 1, DefaultBand)
	if err != nil {
		t.Fatal(err)
	}
	// 10-90% rise of a first-order lag is τ·ln 9.
	if math.Abs(r.RiseTime-math.Log(9)) > 0.02 {
		t.Errorf("rise time = %v, want %v", r.RiseTime, math.Log(9))
	}
	if r.Overshoot != 0 {
		t.Errorf("overshoot = %v, want 0", r.Overshoot)
	}
	// 2% band is reached at τ·ln 50.
	if !r.Settled || math.Abs(r.SettlingTime-math.Log(50)) > 0.02 {
		t.Errorf("settling = %v (settled %v), want %v", r.SettlingTime, r.Settled, math.Log(50))
	}
	if math.Abs(r.SteadyStateErr-math.Exp(-10)) > 1e-9 {
		t.Errorf("steady-state error = %v", r.SteadyStateErr)
	}
}

func TestMeasureStep_Overshoot(t *testing.T) {
	ts := []float64{0, 1, 2, 3, 4}
	ys := []float64{2, 3, 4.5, 3.9, 4}

	r, err := MeasureStep(ts, ys, 2, 4, DefaultBand)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(r.Overshoot-25) > 1e-9 {
		t.Errorf("overshoot = %v%%, want 25%%", r.Overshoot)
	}
	if r.Peak != 4.5 || r.PeakTime != 2 {
		t.Errorf("peak %v at %v, want 4.5 at 2", r.Peak, r.PeakTime)
	}
	if !r.Settled || r.SettlingTime != 4 {
		t.Errorf("settling = %v, want 4", r.SettlingTime)
	}
}

func TestMeasureStep_Negative(t *testing.T) {
	ts, ys := firstOrder(0.5, 500, 0.01)
	for i := range ys {
		ys[i] = -ys[i]
	}
	r, err := MeasureStep(ts, ys, 0, -1, DefaultBand)
	if err != nil {
		t.Fatal(err)
	}
	if r.Overshoot != 0 || math.IsNaN(r.RiseTime) {
		t.Errorf("downward step measured as %+v", r)
	}
}

func TestMeasureStep_NotSettled(t *testing.T) {
	r, err := MeasureStep([]float64{0, 1, 2}, []float64{0, 0.2, 0.4}, 0, 1, DefaultBand)
	if err != nil {
		t.Fatal(err)
	}
	if r.Settled || !math.IsNaN(r.SettlingTime) || !math.IsNaN(r.RiseTime) {
		t.Errorf("expected an unsettled response without rise time, got %+v", r)
	}
	if !strings.Contains(r.String(), "not settled") {
		t.Errorf("String() = %q", r.String())
	}
}

func TestMeasureStep_Errors(t *testing.T) {
	if _, err := MeasureStep([]float64{0}, []float64{1}, 1, 1, DefaultBand); !errors.Is(err, ErrNoStep) {
		t.Errorf("expected ErrNoStep, got %v", err)
	}
	if _, err := MeasureStep([]float64{0, 1}, []float64{1}, 0, 1, DefaultBand); err == nil {
		t.Error("expected length mismatch error")
	}
	if _, err := MeasureStep(nil, nil, 0, 1, DefaultBand); err == nil {
		t.Error("expected empty response error")
	}
}

func TestPhasePortrait(t *testing.T) {
	p := NewPhasePortrait("e", "s", []float64{-1, 0, 1}, []float64{1, 0, -1, 5})
	if len(p.Points) != 3 {
		t.Fatalf("expected 3 points, got %d", len(p.Points))
	}

	out := p.ASCII(21, 11)
	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	if len(lines) != 11 {
		t.Fatalf("expected 11 rows, got %d", len(lines))
	}
	for _, l := range lines {
		if n := len([]rune(l)); n != 21 {
			t.Fatalf("row width %d, want 21", n)
		}
	}
	if strings.Count(out, "•") != 3 {
		t.Errorf("expected 3 plotted points:\n%s", out)
	}

	var empty *PhasePortrait
	if empty.ASCII(10, 10) != "" {
		t.Error("nil portrait should render empty")
	}
}
