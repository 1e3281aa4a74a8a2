package integrators

import (
	"math"

	"github.com/san-kum/aflc/internal/dynamo"
)

// Dormand-Prince 5(4) tableau.
var (
	dpC = [7]float64{0, 1.0 / 5, 3.0 / 10, 4.0 / 5, 8.0 / 9, 1, 1}
	dpA = [7][6]float64{
		{},
		{1.0 / 5},
		{3.0 / 40, 9.0 / 40},
		{44.0 / 45, -56.0 / 15, 32.0 / 9},
		{19372.0 / 6561, -25360.0 / 2187, 64448.0 / 6561, -212.0 / 729},
		{9017.0 / 3168, -355.0 / 33, 46732.0 / 5247, 49.0 / 176, -5103.0 / 18656},
		{35.0 / 384, 0, 500.0 / 1113, 125.0 / 192, -2187.0 / 6784, 11.0 / 84},
	}
	// fifth-order weights (first-same-as-last: equal to the last row of dpA)
	dpB = [7]float64{35.0 / 384, 0, 500.0 / 1113, 125.0 / 192, -2187.0 / 6784, 11.0 / 84, 0}
	// embedded fourth-order weights
	dpBStar = [7]float64{5179.0 / 57600, 0, 7571.0 / 16695, 393.0 / 640, -92097.0 / 339200, 187.0 / 2100, 1.0 / 40}
)

// RK45 is the Dormand-Prince embedded pair. Step uses a fixed dt; StepAdaptive
// additionally proposes the next step size from the local error estimate.
type RK45 struct {
	Safety   float64
	MinScale float64
	MaxScale float64

	k       [7]dynamo.State
	scratch dynamo.State
}

func NewRK45() *RK45 {
	return &RK45{
		Safety:   0.9,
		MinScale: 0.2,
		MaxScale: 10.0,
	}
}

func (r *RK45) grow(n int) {
	if len(r.scratch) == n {
		return
	}
	for i := range r.k {
		r.k[i] = make(dynamo.State, n)
	}
	r.scratch = make(dynamo.State, n)
}

func (r *RK45) Step(dyn dynamo.System, x dynamo.State, u dynamo.Control, t, dt float64) dynamo.State {
	next, _, _ := r.StepAdaptive(dyn, x, u, t, dt, 1e-6)
	return next
}

// StepAdaptive advances x by dt and returns the suggested next step. It
// reports dynamo.ErrInvalidState when the new state is not finite.
func (r *RK45) StepAdaptive(dyn dynamo.System, x dynamo.State, u dynamo.Control, t, dt, tol float64) (dynamo.State, float64, error) {
	n := len(x)
	r.grow(n)

	copy(r.k[0], dyn.Derive(x, u, t))
	for s := 1; s < 7; s++ {
		for i := 0; i < n; i++ {
			acc := 0.0
			for j := 0; j < s; j++ {
				acc += dpA[s][j] * r.k[j][i]
			}
			r.scratch[i] = x[i] + dt*acc
		}
		copy(r.k[s], dyn.Derive(r.scratch, u, t+dpC[s]*dt))
	}

	// the last stage was evaluated at the fifth-order solution
	next := r.scratch.Clone()
	if !next.IsValid() {
		return next, dt, dynamo.ErrInvalidState
	}

	errMax := 0.0
	for i := 0; i < n; i++ {
		est := 0.0
		for s := 0; s < 7; s++ {
			est += (dpB[s] - dpBStar[s]) * r.k[s][i]
		}
		scale := math.Abs(x[i]) + math.Abs(dt*r.k[0][i]) + 1e-10
		errMax = math.Max(errMax, math.Abs(dt*est)/scale)
	}

	ratio := errMax / tol
	switch {
	case ratio > 1:
		return next, dt * math.Max(r.MinScale, r.Safety*math.Pow(ratio, -0.25)), nil
	case ratio > 0:
		return next, dt * math.Min(r.MaxScale, r.Safety*math.Pow(ratio, -0.2)), nil
	default:
		return next, dt * r.MaxScale, nil
	}
}
