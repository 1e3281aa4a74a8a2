package optim

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"slices"

	"github.com/san-kum/aflc/internal/physics"
	"github.com/san-kum/aflc/internal/sim"
)

// PlantBuilder assembles a closed loop around a perturbed plant. The
// controller should keep its nominal tuning.
type PlantBuilder func(plant *physics.UUV) (*sim.Simulator, sim.Scenario, error)

// MonteCarlo checks how the controller copes with plant uncertainty. Every
// trial scales each perturbed parameter by an independent factor drawn
// uniformly from [1-Spread, 1+Spread].
type MonteCarlo struct {
	Trials    int
	Spread    float64
	Seed      int64
	Tolerance float64  // target error below which a trial counts as converged
	Params    []string // plant parameters to perturb; nil means DefaultPerturbed
}

// DefaultPerturbed is every plant parameter except the dry weight, so the
// net buoyancy only moves through the buoyancy term.
func DefaultPerturbed() []string {
	return slices.DeleteFunc(physics.ParamNames(), func(n string) bool { return n == "weight" })
}

type Outcome int

const (
	Converged Outcome = iota
	Bounded
	Diverged
)

func (o Outcome) String() string {
	switch o {
	case Converged:
		return "converged"
	case Bounded:
		return "bounded"
	default:
		return "diverged"
	}
}

type Trial struct {
	ID          int
	Plant       map[string]float64
	Outcome     Outcome
	TargetError float64 // norm of the final target error; NaN without samples
	Metrics     map[string]float64
	Err         error
}

func (mc MonteCarlo) validate() error {
	if mc.Trials < 1 {
		return fmt.Errorf("optim: trials must be at least 1, got %d", mc.Trials)
	}
	if !(mc.Spread >= 0 && mc.Spread < 1) {
		return fmt.Errorf("optim: spread must be in [0, 1), got %v", mc.Spread)
	}
	if !(mc.Tolerance > 0) {
		return fmt.Errorf("optim: tolerance must be positive, got %v", mc.Tolerance)
	}
	return nil
}

// Run draws every trial's plant up front, so results depend only on Seed,
// then runs the trials concurrently.
func (mc MonteCarlo) Run(ctx context.Context, nominal *physics.UUV, build PlantBuilder) ([]Trial, error) {
	if err := mc.validate(); err != nil {
		return nil, err
	}
	names := mc.Params
	if names == nil {
		names = DefaultPerturbed()
	}
	names = slices.Sorted(slices.Values(names))

	rng := rand.New(rand.NewSource(mc.Seed))
	base := nominal.GetParams()

	trials := make([]Trial, mc.Trials)
	jobs := make([]sim.Job, 0, mc.Trials)
	slot := make([]int, 0, mc.Trials)
	for i := range trials {
		plant := *nominal
		for _, name := range names {
			v, ok := base[name]
			if !ok {
				return nil, fmt.Errorf("optim: unknown plant parameter %q", name)
			}
			f := 1 + mc.Spread*(2*rng.Float64()-1)
			if err := plant.SetParam(name, v*f); err != nil {
				return nil, err
			}
		}

		trials[i] = Trial{ID: i, Plant: plant.GetParams(), TargetError: math.NaN()}
		s, sc, err := build(&plant)
		if err != nil {
			trials[i].Outcome, trials[i].Err = Diverged, err
			continue
		}
		jobs = append(jobs, sim.Job{Name: fmt.Sprintf("trial %d", i), Sim: s, Scenario: sc})
		slot = append(slot, i)
	}

	results, errs := sim.RunEach(ctx, jobs)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for j, res := range results {
		t := &trials[slot[j]]
		if res != nil {
			t.Metrics = res.Metrics
			if len(res.Samples) > 0 {
				t.TargetError = res.Final().TargetError().Norm()
			}
		}
		switch {
		case errs[j] != nil:
			t.Outcome, t.Err = Diverged, errs[j]
		case t.TargetError < mc.Tolerance:
			t.Outcome = Converged
		default:
			t.Outcome = Bounded
		}
	}
	return trials, nil
}

// Summary counts trial outcomes.
type Summary struct {
	Converged, Bounded, Diverged int

	WorstError float64 // largest final target error among non-diverged trials
}

func Summarize(trials []Trial) Summary {
	var s Summary
	for _, t := range trials {
		switch t.Outcome {
		case Converged:
			s.Converged++
		case Bounded:
			s.Bounded++
		default:
			s.Diverged++
			continue
		}
		s.WorstError = math.Max(s.WorstError, t.TargetError)
	}
	return s
}
