package aflc

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/aflc/internal/dynamo"
)

func TestFrameTransform_ZeroYawIsIdentity(t *testing.T) {
	var f FrameTransform
	if err := f.Update(dynamo.Vec4{1, 2, 3, 0}, dynamo.Vec4{}); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if f.J() != dynamo.Identity4() {
		t.Errorf("J = %v, want identity", f.J())
	}
	if f.DJ() != (dynamo.Mat4{}) {
		t.Errorf("DJ = %v, want zero", f.DJ())
	}
}

func TestFrameTransform_DerivativeMatchesFiniteDifference(t *testing.T) {
	psi, r := 0.8, 0.3
	var f FrameTransform
	if err := f.Update(dynamo.Vec4{0, 0, 0, psi}, dynamo.Vec4{0, 0, 0, r}); err != nil {
		t.Fatal(err)
	}

	const h = 1e-6
	plus, minus := dynamo.Rotation4(psi+h), dynamo.Rotation4(psi-h)
	dj := f.DJ()
	for i := 0; i < 4; i++ {
		for k := 0; k < 4; k++ {
			want := r * (plus[i][k] - minus[i][k]) / (2 * h)
			if math.Abs(dj[i][k]-want) > 1e-7 {
				t.Errorf("DJ[%d][%d] = %v, want %v", i, k, dj[i][k], want)
			}
		}
	}

	inv, err := f.Inverse()
	if err != nil {
		t.Fatal(err)
	}
	if got := f.J().Mul(inv); math.Abs(got[0][0]-1) > 1e-12 || math.Abs(got[0][1]) > 1e-12 {
		t.Errorf("J·J⁻¹ = %v, want identity", got)
	}
}

func TestFrameTransform_NonFinite(t *testing.T) {
	tests := []struct {
		name    string
		eta, nu dynamo.Vec4
	}{
		{"NaN yaw", dynamo.Vec4{0, 0, 0, math.NaN()}, dynamo.Vec4{}},
		{"Inf yaw", dynamo.Vec4{0, 0, 0, math.Inf(1)}, dynamo.Vec4{}},
		{"NaN yaw rate", dynamo.Vec4{}, dynamo.Vec4{0, 0, 0, math.NaN()}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var f FrameTransform
			if err := f.Update(dynamo.Vec4{0, 0, 0, 0.5}, dynamo.Vec4{0, 0, 0, 0.1}); err != nil {
				t.Fatal(err)
			}
			j, dj := f.J(), f.DJ()

			if err := f.Update(tt.eta, tt.nu); !errors.Is(err, ErrSingularTransform) {
				t.Fatalf("expected ErrSingularTransform, got %v", err)
			}
			if f.J() != j || f.DJ() != dj {
				t.Error("failed update modified J or DJ")
			}
		})
	}
}

func TestFrameTransform_InverseBeforeUpdate(t *testing.T) {
	var f FrameTransform
	if _, err := f.Inverse(); !errors.Is(err, ErrSingularTransform) {
		t.Errorf("expected ErrSingularTransform, got %v", err)
	}
}
