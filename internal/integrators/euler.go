package integrators

import "github.com/san-kum/aflc/internal/dynamo"

// Euler is the explicit first-order method. It is what the controller itself
// uses for its internal filters, so it is the reference choice when the plant
// and controller should share one discretization.
type Euler struct{}

func NewEuler() *Euler {
	return &Euler{}
}

func (e *Euler) Step(dyn dynamo.System, x dynamo.State, u dynamo.Control, t, dt float64) dynamo.State {
	dx := dyn.Derive(x, u, t)
	next := make(dynamo.State, len(x))
	for i := range x {
		next[i] = x[i] + dt*dx[i]
	}
	return next
}
