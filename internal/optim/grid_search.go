package optim

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/san-kum/aflc/internal/sim"
)

var ErrNoCandidates = errors.New("optim: empty search space")

// Builder assembles the simulator and scenario for one point of the grid.
type Builder func(params map[string]float64) (*sim.Simulator, sim.Scenario, error)

// Candidate is one evaluated grid point. Score is +Inf when Err is set.
type Candidate struct {
	Params  map[string]float64
	Score   float64
	Metrics map[string]float64
	Err     error
}

type GridSearch struct {
	paramNames []string
	ranges     [][]float64
}

func NewGridSearch(params []string, ranges [][]float64) (*GridSearch, error) {
	if len(params) != len(ranges) {
		return nil, fmt.Errorf("optim: %d params for %d ranges", len(params), len(ranges))
	}
	if len(params) == 0 {
		return nil, ErrNoCandidates
	}
	for i, r := range ranges {
		if len(r) == 0 {
			return nil, fmt.Errorf("%w: no values for %s", ErrNoCandidates, params[i])
		}
	}
	return &GridSearch{paramNames: params, ranges: ranges}, nil
}

// Size is the number of grid points.
func (g *GridSearch) Size() int {
	n := 1
	for _, r := range g.ranges {
		n *= len(r)
	}
	return n
}

// Search runs every grid point and returns the candidates ordered by the
// named metric, lowest first. Failed candidates sort last, in grid order.
func (g *GridSearch) Search(ctx context.Context, build Builder, metricName string) ([]Candidate, error) {
	points := make([]map[string]float64, 0, g.Size())
	g.enumerate(0, map[string]float64{}, &points)

	cands := make([]Candidate, len(points))
	jobs := make([]sim.Job, 0, len(points))
	slot := make([]int, 0, len(points))
	for i, p := range points {
		cands[i] = Candidate{Params: p, Score: math.Inf(1)}
		s, sc, err := build(p)
		if err != nil {
			cands[i].Err = err
			continue
		}
		jobs = append(jobs, sim.Job{Name: fmt.Sprint(p), Sim: s, Scenario: sc})
		slot = append(slot, i)
	}

	results, errs := sim.RunEach(ctx, jobs)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for j, res := range results {
		c := &cands[slot[j]]
		if errs[j] != nil {
			c.Err = errs[j]
			continue
		}
		c.Metrics = res.Metrics
		v, ok := res.Metrics[metricName]
		switch {
		case !ok:
			c.Err = fmt.Errorf("optim: metric %q not recorded", metricName)
		case math.IsNaN(v):
			c.Err = fmt.Errorf("optim: metric %q is NaN", metricName)
		default:
			c.Score = v
		}
	}

	sort.SliceStable(cands, func(a, b int) bool {
		if (cands[a].Err == nil) != (cands[b].Err == nil) {
			return cands[a].Err == nil
		}
		return cands[a].Score < cands[b].Score
	})
	return cands, nil
}

func (g *GridSearch) enumerate(depth int, current map[string]float64, out *[]map[string]float64) {
	if depth == len(g.paramNames) {
		*out = append(*out, current)
		return
	}

	paramName := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		next := make(map[string]float64, len(current)+1)
		for k, v := range current {
			next[k] = v
		}
		next[paramName] = val

		g.enumerate(depth+1, next, out)
	}
}
