package optim

import (
	"context"
	"errors"
	"io"
	"math"
	"reflect"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/san-kum/aflc/internal/config"
	"github.com/san-kum/aflc/internal/integrators"
	"github.com/san-kum/aflc/internal/physics"
	"github.com/san-kum/aflc/internal/sim"
)

func testConfig() *config.Config {
	cfg := config.GetPreset("gentle")
	cfg.Duration = 2
	return cfg
}

// closedLoop builds cfg around plant, or around cfg's own vehicle when plant
// is nil.
func closedLoop(cfg *config.Config, plant *physics.UUV) (*sim.Simulator, sim.Scenario, error) {
	if err := cfg.Validate(); err != nil {
		return nil, sim.Scenario{}, err
	}
	if plant == nil {
		p, err := cfg.UUV()
		if err != nil {
			return nil, sim.Scenario{}, err
		}
		plant = p
	}
	integ, err := integrators.New(cfg.Integrator)
	if err != nil {
		return nil, sim.Scenario{}, err
	}
	gains, err := cfg.Gains()
	if err != nil {
		return nil, sim.Scenario{}, err
	}
	sc, err := cfg.Scenario()
	if err != nil {
		return nil, sim.Scenario{}, err
	}

	s := sim.New(plant, integ, gains)
	s.SetLogger(log.New(io.Discard))
	s.AddMetric(&finalError{})
	return s, sc, nil
}

type finalError struct{ v float64 }

func (f *finalError) Name() string           { return "final_error" }
func (f *finalError) Observe(smp sim.Sample) { f.v = smp.TargetError().Norm() }
func (f *finalError) Value() float64         { return f.v }
func (f *finalError) Reset()                 { f.v = 0 }

func gridBuilder(params map[string]float64) (*sim.Simulator, sim.Scenario, error) {
	cfg := testConfig()
	for name, v := range params {
		if err := cfg.SetParam(name, v); err != nil {
			return nil, sim.Scenario{}, err
		}
	}
	return closedLoop(cfg, nil)
}

func TestNewGridSearch_Errors(t *testing.T) {
	tests := []struct {
		name   string
		params []string
		ranges [][]float64
	}{
		{"mismatch", []string{"gamma"}, nil},
		{"empty", nil, nil},
		{"no values", []string{"gamma", "c1"}, [][]float64{{1}, {}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewGridSearch(tt.params, tt.ranges); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestGridSearch_RanksCandidates(t *testing.T) {
	g, err := NewGridSearch([]string{"gamma", "c1"}, [][]float64{{0, 0.1}, {0.5, 1, 2}})
	if err != nil {
		t.Fatal(err)
	}
	if g.Size() != 6 {
		t.Fatalf("Size = %d, want 6", g.Size())
	}

	cands, err := g.Search(context.Background(), gridBuilder, "final_error")
	if err != nil {
		t.Fatal(err)
	}
	if len(cands) != 6 {
		t.Fatalf("got %d candidates, want 6", len(cands))
	}

	seen := map[[2]float64]bool{}
	for i, c := range cands {
		if c.Err != nil {
			t.Fatalf("candidate %v failed: %v", c.Params, c.Err)
		}
		if len(c.Params) != 2 {
			t.Errorf("candidate %d has params %v", i, c.Params)
		}
		seen[[2]float64{c.Params["gamma"], c.Params["c1"]}] = true
		if i > 0 && c.Score < cands[i-1].Score {
			t.Errorf("candidates out of order at %d: %v < %v", i, c.Score, cands[i-1].Score)
		}
	}
	if len(seen) != 6 {
		t.Errorf("grid points repeated: %v", seen)
	}
}

func TestGridSearch_FailuresSortLast(t *testing.T) {
	g, _ := NewGridSearch([]string{"c1"}, [][]float64{{-1, 1}})

	cands, err := g.Search(context.Background(), gridBuilder, "final_error")
	if err != nil {
		t.Fatal(err)
	}
	if cands[0].Err != nil || cands[0].Params["c1"] != 1 {
		t.Errorf("best candidate = %+v", cands[0])
	}
	last := cands[1]
	if last.Err == nil {
		t.Errorf("negative c1 should fail, got %v", last.Err)
	}
	if !math.IsInf(last.Score, 1) {
		t.Errorf("failed candidate score = %v, want +Inf", last.Score)
	}
}

func TestGridSearch_UnknownMetric(t *testing.T) {
	g, _ := NewGridSearch([]string{"gamma"}, [][]float64{{0.1}})

	cands, err := g.Search(context.Background(), gridBuilder, "nope")
	if err != nil {
		t.Fatal(err)
	}
	if cands[0].Err == nil {
		t.Error("a missing metric should mark the candidate failed")
	}
}

func TestGridSearch_Cancelled(t *testing.T) {
	g, _ := NewGridSearch([]string{"gamma"}, [][]float64{{0.1, 1}})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := g.Search(ctx, gridBuilder, "final_error"); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func plantBuilder(plant *physics.UUV) (*sim.Simulator, sim.Scenario, error) {
	return closedLoop(testConfig(), plant)
}

func TestMonteCarlo_Validate(t *testing.T) {
	tests := []struct {
		name string
		mc   MonteCarlo
	}{
		{"no trials", MonteCarlo{Trials: 0, Spread: 0.1, Tolerance: 1}},
		{"spread too large", MonteCarlo{Trials: 1, Spread: 1, Tolerance: 1}},
		{"negative spread", MonteCarlo{Trials: 1, Spread: -0.1, Tolerance: 1}},
		{"no tolerance", MonteCarlo{Trials: 1, Spread: 0.1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.mc.Run(context.Background(), physics.NewUUV(), plantBuilder); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestMonteCarlo_Deterministic(t *testing.T) {
	mc := MonteCarlo{Trials: 3, Spread: 0.2, Seed: 7, Tolerance: 1e9}

	a, err := mc.Run(context.Background(), physics.NewUUV(), plantBuilder)
	if err != nil {
		t.Fatal(err)
	}
	b, err := mc.Run(context.Background(), physics.NewUUV(), plantBuilder)
	if err != nil {
		t.Fatal(err)
	}

	nominal := physics.NewUUV().GetParams()
	for i := range a {
		if !reflect.DeepEqual(a[i].Plant, b[i].Plant) {
			t.Errorf("trial %d differs between runs with the same seed", i)
		}
		if a[i].Plant["weight"] != nominal["weight"] {
			t.Errorf("trial %d perturbed the dry weight", i)
		}
		for name, v := range a[i].Plant {
			if math.Abs(v-nominal[name]) > 0.2*math.Abs(nominal[name])+1e-12 {
				t.Errorf("trial %d: %s = %v is outside the spread of %v", i, name, v, nominal[name])
			}
		}
		if a[i].Outcome != Converged {
			t.Errorf("trial %d: outcome %v with a loose tolerance", i, a[i].Outcome)
		}
	}
	if reflect.DeepEqual(a[0].Plant, a[1].Plant) {
		t.Error("trials should draw different plants")
	}
}

func TestMonteCarlo_Outcomes(t *testing.T) {
	nominal := physics.NewUUV()

	tight := MonteCarlo{Trials: 2, Spread: 0, Tolerance: 1e-12}
	trials, err := tight.Run(context.Background(), nominal, plantBuilder)
	if err != nil {
		t.Fatal(err)
	}
	for _, tr := range trials {
		if tr.Outcome != Bounded {
			t.Errorf("2 s is too short to converge to 1e-12, got %v", tr.Outcome)
		}
		if !reflect.DeepEqual(tr.Plant, nominal.GetParams()) {
			t.Error("zero spread should leave the plant nominal")
		}
	}

	broken := func(*physics.UUV) (*sim.Simulator, sim.Scenario, error) {
		return nil, sim.Scenario{}, errors.New("no simulator")
	}
	trials, err = tight.Run(context.Background(), nominal, broken)
	if err != nil {
		t.Fatal(err)
	}
	if trials[0].Outcome != Diverged || trials[0].Err == nil {
		t.Errorf("build failure should count as diverged, got %+v", trials[0])
	}

	if _, err := (MonteCarlo{Trials: 1, Tolerance: 1, Params: []string{"hull"}}).Run(context.Background(), nominal, plantBuilder); err == nil {
		t.Error("unknown parameter should fail")
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize([]Trial{
		{Outcome: Converged, TargetError: 0.01},
		{Outcome: Bounded, TargetError: 0.5},
		{Outcome: Diverged, TargetError: math.NaN()},
		{Outcome: Converged, TargetError: 0.02},
	})
	want := Summary{Converged: 2, Bounded: 1, Diverged: 1, WorstError: 0.5}
	if s != want {
		t.Errorf("Summarize = %+v, want %+v", s, want)
	}
	if Diverged.String() != "diverged" || Bounded.String() != "bounded" {
		t.Error("unexpected outcome names")
	}
}
