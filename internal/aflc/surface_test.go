package aflc

import (
	"math"
	"testing"

	"github.com/san-kum/aflc/internal/dynamo"
)

func TestTrackingError_WrapsHeading(t *testing.T) {
	tests := []struct {
		name      string
		eta, etaR dynamo.Vec4
		want      dynamo.Vec4
	}{
		{"plain", dynamo.Vec4{1, 2, 3, 0.5}, dynamo.Vec4{0, 0, 0, 0.25}, dynamo.Vec4{1, 2, 3, 0.25}},
		{"across pi", dynamo.Vec4{0, 0, 0, 3.0}, dynamo.Vec4{0, 0, 0, -3.0}, dynamo.Vec4{0, 0, 0, 6.0 - 2*math.Pi}},
		{"position not wrapped", dynamo.Vec4{10, 0, 0, 0}, dynamo.Vec4{}, dynamo.Vec4{10, 0, 0, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TrackingError(tt.eta, tt.etaR)
			for i := range got {
				if math.Abs(got[i]-tt.want[i]) > 1e-12 {
					t.Errorf("TrackingError = %v, want %v", got, tt.want)
					break
				}
			}
		})
	}
}

func TestErrorSurface_RequiresTransform(t *testing.T) {
	ref := newBuiltReference(t, dynamo.Vec4{1, 1, 1, 1}, 0.05)
	var tf FrameTransform
	var awp AntiWindup
	var es ErrorSurface

	err := es.Update(dynamo.Vec4{}, dynamo.Vec4{}, dynamo.Vec4{}, ref, &tf, &awp, dynamo.Vec4{1, 1, 1, 1}, dynamo.Vec4{})
	if err != ErrSingularTransform {
		t.Errorf("expected ErrSingularTransform, got %v", err)
	}
}

func TestErrorSurface_RotatedBodyProjection(t *testing.T) {
	ref := newBuiltReference(t, dynamo.Vec4{1, 1, 1, 1}, 0.05)
	var tf FrameTransform
	if err := tf.Update(dynamo.Vec4{0, 0, 0, math.Pi / 2}, dynamo.Vec4{}); err != nil {
		t.Fatal(err)
	}
	ref.Init(dynamo.Vec4{0, 0, 0, math.Pi / 2}, dynamo.Vec4{})

	var awp AntiWindup
	var es ErrorSurface
	// one metre north of the reference while facing east
	eta := dynamo.Vec4{1, 0, 0, math.Pi / 2}
	if err := es.Update(eta, dynamo.Vec4{}, dynamo.Vec4{}, ref, &tf, &awp, dynamo.Vec4{1, 1, 1, 1}, dynamo.Vec4{}); err != nil {
		t.Fatal(err)
	}

	if s := es.Value(); math.Abs(s[dynamo.Surge]-1) > 1e-12 || math.Abs(s[dynamo.Sway]) > 1e-12 {
		t.Errorf("earth surface = %v, want [1 0 0 0]", s)
	}
	if sb := es.Body(); math.Abs(sb[dynamo.Surge]) > 1e-12 || math.Abs(sb[dynamo.Sway]+1) > 1e-12 {
		t.Errorf("body surface = %v, want [0 -1 0 0]", sb)
	}
}
