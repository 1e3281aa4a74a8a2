package integrators

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/aflc/internal/dynamo"
)

// oscillator is a unit harmonic oscillator with optional forcing u[0].
type oscillator struct{}

func (o *oscillator) StateDim() int   { return 2 }
func (o *oscillator) ControlDim() int { return 1 }

func (o *oscillator) Derive(x dynamo.State, u dynamo.Control, t float64) dynamo.State {
	f := 0.0
	if len(u) > 0 {
		f = u[0]
	}
	return dynamo.State{x[1], -x[0] + f}
}

func (o *oscillator) Energy(x dynamo.State) float64 {
	return 0.5 * (x[0]*x[0] + x[1]*x[1])
}

type blowup struct{}

func (b *blowup) StateDim() int   { return 1 }
func (b *blowup) ControlDim() int { return 0 }
func (b *blowup) Derive(x dynamo.State, u dynamo.Control, t float64) dynamo.State {
	return dynamo.State{math.Inf(1)}
}

func run(integ dynamo.Integrator, steps int, dt float64) dynamo.State {
	x := dynamo.State{1, 0}
	for i := 0; i < steps; i++ {
		x = integ.Step(&oscillator{}, x, nil, float64(i)*dt, dt)
	}
	return x
}

func TestIntegrators_Accuracy(t *testing.T) {
	tests := []struct {
		name string
		tol  float64
	}{
		{"euler", 1e-2},
		{"rk4", 1e-8},
		{"rk45", 1e-9},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			integ, err := New(tt.name)
			if err != nil {
				t.Fatal(err)
			}
			x := run(integ, 1000, 0.001)
			if e := math.Abs(x[0] - math.Cos(1)); e > tt.tol {
				t.Errorf("position error %e exceeds %e", e, tt.tol)
			}
			if e := math.Abs(x[1] + math.Sin(1)); e > tt.tol {
				t.Errorf("velocity error %e exceeds %e", e, tt.tol)
			}
		})
	}
}

func TestRK4_ConvergenceOrder(t *testing.T) {
	errAt := func(dt float64) float64 {
		x := run(NewRK4(), int(math.Round(1/dt)), dt)
		return math.Abs(x[0] - math.Cos(1))
	}
	ratio := errAt(0.1) / errAt(0.05)
	if ratio < 12 || ratio > 20 {
		t.Errorf("halving dt reduced the error by %.2f, want ~16", ratio)
	}
}

func TestRK4_DoesNotAliasInput(t *testing.T) {
	x := dynamo.State{1, 0}
	next := NewRK4().Step(&oscillator{}, x, dynamo.Control{0.5}, 0, 0.1)
	if x[0] != 1 || x[1] != 0 {
		t.Errorf("input mutated: %v", x)
	}
	if &next[0] == &x[0] {
		t.Error("Step returned the input slice")
	}
}

func TestRK45_Adaptive(t *testing.T) {
	r := NewRK45()
	_, coarse, err := r.StepAdaptive(&oscillator{}, dynamo.State{1, 0}, nil, 0, 0.5, 1e-10)
	if err != nil {
		t.Fatal(err)
	}
	if coarse >= 0.5 {
		t.Errorf("tight tolerance should shrink the step, got %v", coarse)
	}

	_, fine, err := r.StepAdaptive(&oscillator{}, dynamo.State{1, 0}, nil, 0, 1e-4, 1e-3)
	if err != nil {
		t.Fatal(err)
	}
	if fine <= 1e-4 {
		t.Errorf("loose tolerance should grow the step, got %v", fine)
	}
}

func TestRK45_InvalidState(t *testing.T) {
	_, _, err := NewRK45().StepAdaptive(&blowup{}, dynamo.State{0}, nil, 0, 0.1, 1e-6)
	if !errors.Is(err, dynamo.ErrInvalidState) {
		t.Errorf("expected ErrInvalidState, got %v", err)
	}
}

func TestNew_Unknown(t *testing.T) {
	if _, err := New("verlet"); !errors.Is(err, ErrUnknown) {
		t.Errorf("expected ErrUnknown, got %v", err)
	}
	if got := Names(); len(got) != 3 || got[0] != "euler" {
		t.Errorf("Names() = %v", got)
	}
}

func BenchmarkEuler(b *testing.B) {
	integ := NewEuler()
	x := dynamo.State{1.0, 0.0}
	for i := 0; i < b.N; i++ {
		x = integ.Step(&oscillator{}, x, nil, 0, 0.01)
	}
}

func BenchmarkRK4(b *testing.B) {
	integ := NewRK4()
	x := dynamo.State{1.0, 0.0}
	for i := 0; i < b.N; i++ {
		x = integ.Step(&oscillator{}, x, nil, 0, 0.01)
	}
}

func BenchmarkRK45(b *testing.B) {
	integ := NewRK45()
	x := dynamo.State{1.0, 0.0}
	for i := 0; i < b.N; i++ {
		x = integ.Step(&oscillator{}, x, nil, 0, 0.01)
	}
}
