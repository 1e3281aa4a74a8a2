package vehicle

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

func near(a, b r3.Vec, tol float64) bool {
	return r3.Norm(r3.Sub(a, b)) <= tol
}

func TestEulerRateRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		att  Attitude
		w    r3.Vec
	}{
		{"level", Attitude{}, r3.Vec{X: 0.1, Y: -0.2, Z: 0.3}},
		{"rolled and pitched", Attitude{Roll: 0.4, Pitch: -0.6, Yaw: 2}, r3.Vec{X: 0.5, Y: 0.1, Z: -0.7}},
		{"steep pitch", Attitude{Roll: -0.2, Pitch: 1.4}, r3.Vec{X: 0, Y: 0.3, Z: 0.2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rates, ok := AngVelToEulerRate(tt.att, tt.w)
			if !ok {
				t.Fatal("conversion reported gimbal lock")
			}
			if back := EulerRateToAngVel(tt.att, rates); !near(back, tt.w, 1e-12) {
				t.Errorf("round trip = %v, want %v", back, tt.w)
			}
		})
	}
}

func TestAngVelToEulerRate_Level(t *testing.T) {
	rates, ok := AngVelToEulerRate(Attitude{Yaw: 1}, r3.Vec{Z: 0.25})
	if !ok || rates != (r3.Vec{Z: 0.25}) {
		t.Errorf("level yaw rate = %v (ok=%v), want pure ψ̇ = 0.25", rates, ok)
	}
}

func TestAngVelToEulerRate_GimbalLock(t *testing.T) {
	for _, pitch := range []float64{math.Pi / 2, -math.Pi / 2} {
		if _, ok := AngVelToEulerRate(Attitude{Pitch: pitch}, r3.Vec{Z: 1}); ok {
			t.Errorf("pitch %v should be rejected", pitch)
		}
	}
}

func TestRotation(t *testing.T) {
	r := NewRotation(0, 0, math.Pi/2)
	if got := r.BodyToEarth(r3.Vec{X: 1}); !near(got, r3.Vec{Y: 1}, 1e-12) {
		t.Errorf("forward at ψ=90° maps to %v, want +y", got)
	}

	r = NewRotation(0.3, -0.5, 1.2)
	v := r3.Vec{X: 1, Y: -2, Z: 0.5}
	if back := r.EarthToBody(r.BodyToEarth(v)); !near(back, v, 1e-12) {
		t.Errorf("EarthToBody is not the inverse of BodyToEarth: %v", back)
	}
	if n := r3.Norm(r.BodyToEarth(v)); math.Abs(n-r3.Norm(v)) > 1e-12 {
		t.Errorf("rotation changed the norm: %v", n)
	}

	// pure pitch nose-up maps body forward onto earth -z for a z-up frame
	// under the right-hand rule about +y
	r = NewRotation(0, math.Pi/2, 0)
	if got := r.BodyToEarth(r3.Vec{X: 1}); !near(got, r3.Vec{Z: -1}, 1e-12) {
		t.Errorf("pitched forward = %v, want -z", got)
	}
}
