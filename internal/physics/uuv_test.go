package physics

import (
	"math"
	"testing"

	"github.com/san-kum/aflc/internal/dynamo"
)

func TestUUV_Derive(t *testing.T) {
	p := NewUUV()
	m := p.TotalInertia()

	tests := []struct {
		name string
		x    dynamo.State
		u    dynamo.Control
		idx  int
		want float64
	}{
		{"surge thrust from rest", make(dynamo.State, 8), dynamo.Control{10, 0, 0, 0}, IdxU, 10 / m[dynamo.Surge]},
		{"yaw torque from rest", make(dynamo.State, 8), dynamo.Control{0, 0, 0, 1}, IdxR, 1 / m[dynamo.Yaw]},
		{"positive net buoyancy rises", make(dynamo.State, 8), nil, IdxW, 2 / m[dynamo.Heave]},
		{"surge rate rotated north", dynamo.State{0, 0, 0, 0, 1, 0, 0, 0}, nil, IdxX, 1},
		{"surge rate rotated east", dynamo.State{0, 0, 0, math.Pi / 2, 1, 0, 0, 0}, nil, IdxY, 1},
		{"surge damping", dynamo.State{0, 0, 0, 0, 1, 0, 0, 0}, nil, IdxU, -(4.03 + 18.18) / m[dynamo.Surge]},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dx := p.Derive(tt.x, tt.u, 0)
			if len(dx) != p.StateDim() {
				t.Fatalf("derivative has %d entries, want %d", len(dx), p.StateDim())
			}
			if math.Abs(dx[tt.idx]-tt.want) > 1e-12 {
				t.Errorf("dx[%d] = %v, want %v", tt.idx, dx[tt.idx], tt.want)
			}
		})
	}
}

func TestUUV_DampingDissipatesEnergy(t *testing.T) {
	p := NewUUV()
	p.Buoyancy = p.Weight

	x := dynamo.State{0, 0, 0, 0, 1, -0.5, 0.3, 0.4}
	prev := p.Energy(x)
	dt := 0.001
	for i := 0; i < 5000; i++ {
		dx := p.Derive(x, nil, 0)
		for k := range x {
			x[k] += dt * dx[k]
		}
		e := p.Energy(x)
		if e > prev+1e-9 {
			t.Fatalf("energy increased at step %d: %v > %v", i, e, prev)
		}
		prev = e
	}
}

func TestUUV_SetParam(t *testing.T) {
	p := NewUUV()
	if err := p.SetParam("mass", 20); err != nil {
		t.Fatal(err)
	}
	if p.GetParams()["mass"] != 20 {
		t.Errorf("mass not updated")
	}
	if err := p.SetParam("quad_damp_w", 10); err != nil || p.QuadDamping[dynamo.Heave] != 10 {
		t.Errorf("quad_damp_w not updated: %v", err)
	}

	bad := []struct {
		name  string
		value float64
	}{
		{"mass", 0},
		{"inertia", -1},
		{"lin_damp_u", -0.1},
		{"buoyancy", math.NaN()},
		{"thrust", 1},
	}
	for _, b := range bad {
		if err := p.SetParam(b.name, b.value); err == nil {
			t.Errorf("SetParam(%q, %v) should fail", b.name, b.value)
		}
	}
	if len(ParamNames()) != len(p.GetParams()) {
		t.Errorf("ParamNames and GetParams disagree")
	}
}
