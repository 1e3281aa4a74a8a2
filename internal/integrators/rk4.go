package integrators

import "github.com/san-kum/aflc/internal/dynamo"

// RK4 is the classical fourth-order Runge-Kutta method. Stage buffers are
// reused between steps; the returned state is always freshly allocated.
type RK4 struct {
	k       [4]dynamo.State
	scratch dynamo.State
}

func NewRK4() *RK4 {
	return &RK4{}
}

func (r *RK4) grow(n int) {
	if len(r.scratch) == n {
		return
	}
	for i := range r.k {
		r.k[i] = make(dynamo.State, n)
	}
	r.scratch = make(dynamo.State, n)
}

// stage evaluates f at x + h·k and stores it in dst.
func (r *RK4) stage(dyn dynamo.System, dst, x, k dynamo.State, u dynamo.Control, t, h float64) {
	for i := range x {
		r.scratch[i] = x[i] + h*k[i]
	}
	copy(dst, dyn.Derive(r.scratch, u, t))
}

func (r *RK4) Step(dyn dynamo.System, x dynamo.State, u dynamo.Control, t, dt float64) dynamo.State {
	r.grow(len(x))
	k1, k2, k3, k4 := r.k[0], r.k[1], r.k[2], r.k[3]

	copy(k1, dyn.Derive(x, u, t))
	r.stage(dyn, k2, x, k1, u, t+dt/2, dt/2)
	r.stage(dyn, k3, x, k2, u, t+dt/2, dt/2)
	r.stage(dyn, k4, x, k3, u, t+dt, dt)

	next := make(dynamo.State, len(x))
	for i := range x {
		next[i] = x[i] + dt/6*(k1[i]+2*k2[i]+2*k3[i]+k4[i])
	}
	return next
}
