package aflc

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/aflc/internal/dynamo"
)

// DOF is the number of controlled degrees of freedom.
const DOF = 4

// NumParams is the length of the adaptive parameter vector θ:
//
//	[m_u, m_v, m_w, I_r, d_u, d_v, d_w, d_r, g_w, c_uv]
//
// inertia (rigid body + added mass) per axis, linear damping per axis, net
// weight in heave and a shared surge/sway Coriolis coefficient.
const NumParams = 10

// Params is a value of the adaptive parameter vector.
type Params [NumParams]float64

// GammaMatrix is the adaptation-rate matrix Γ.
type GammaMatrix [NumParams][NumParams]float64

// Gains is the immutable configuration of a Controller.
type Gains struct {
	N  int     // degrees of freedom, must equal DOF
	Dt float64 // fixed tick period in seconds

	Beta   dynamo.Vec4 // reference-model bandwidth per axis
	Lambda dynamo.Vec4 // error-surface pole placement per axis
	C1     dynamo.Vec4 // error feedback weighting per axis
	Ki     dynamo.Vec4 // integral gain on q; zero disables the integral term

	UUpper float64 // actuator upper bound
	ULower float64 // actuator lower bound

	Gamma GammaMatrix

	// Theta0 seeds the parameter estimate.
	Theta0 Params
}

// GammaScalar returns g·I.
func GammaScalar(g float64) GammaMatrix {
	var m GammaMatrix
	for i := range m {
		m[i][i] = g
	}
	return m
}

// DefaultGains returns the ArduSub tuning of the controller at 20 Hz.
func DefaultGains() Gains {
	return Gains{
		N:      DOF,
		Dt:     0.05,
		Beta:   dynamo.Vec4{1, 2, 3, 4},
		Lambda: dynamo.Vec4{0.4, 0.4, 0.7, 4.0},
		C1:     dynamo.Vec4{3, 3, 1, 1},
		UUpper: 50,
		ULower: -50,
		Gamma:  GammaScalar(10),
	}
}

// Validate checks every gain and returns a *ConfigurationError for the first
// violation found.
func (g Gains) Validate() error {
	if g.N != DOF {
		return &ConfigurationError{Field: "N", Reason: fmt.Sprintf("must be %d, got %d", DOF, g.N)}
	}
	if !(g.Dt > 0) || math.IsInf(g.Dt, 0) {
		return &ConfigurationError{Field: "Dt", Reason: fmt.Sprintf("must be positive and finite, got %v", g.Dt)}
	}
	if err := positive("Beta", g.Beta); err != nil {
		return err
	}
	if err := positive("Lambda", g.Lambda); err != nil {
		return err
	}
	if err := positive("C1", g.C1); err != nil {
		return err
	}
	for i, v := range g.Ki {
		if !(v >= 0) || math.IsInf(v, 0) {
			return &ConfigurationError{Field: fmt.Sprintf("Ki[%d]", i), Reason: fmt.Sprintf("must be non-negative, got %v", v)}
		}
	}
	if math.IsNaN(g.UUpper) || math.IsNaN(g.ULower) || math.IsInf(g.UUpper, 0) || math.IsInf(g.ULower, 0) {
		return &ConfigurationError{Field: "UUpper/ULower", Reason: "bounds must be finite"}
	}
	if g.UUpper <= g.ULower {
		return &ConfigurationError{Field: "UUpper/ULower", Reason: fmt.Sprintf("inverted saturation bounds [%v, %v]", g.ULower, g.UUpper)}
	}
	for i, v := range g.Theta0 {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return &ConfigurationError{Field: fmt.Sprintf("Theta0[%d]", i), Reason: "must be finite"}
		}
	}
	return validateGamma(g.Gamma)
}

func positive(field string, v dynamo.Vec4) error {
	for i, x := range v {
		if !(x > 0) || math.IsInf(x, 0) {
			return &ConfigurationError{Field: fmt.Sprintf("%s[%d]", field, i), Reason: fmt.Sprintf("must be positive and finite, got %v", x)}
		}
	}
	return nil
}

// validateGamma accepts symmetric positive semi-definite matrices. Γ = 0 is
// allowed and freezes θ.
func validateGamma(g GammaMatrix) error {
	scale := 0.0
	for i := range g {
		for j := range g[i] {
			v := g[i][j]
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return &ConfigurationError{Field: "Gamma", Reason: "entries must be finite"}
			}
			scale = math.Max(scale, math.Abs(v))
		}
	}
	if scale == 0 {
		return nil
	}
	tol := 1e-9 * scale

	data := make([]float64, 0, NumParams*NumParams)
	for i := range g {
		for j := range g[i] {
			if math.Abs(g[i][j]-g[j][i]) > tol {
				return &ConfigurationError{Field: "Gamma", Reason: fmt.Sprintf("not symmetric at (%d,%d)", i, j)}
			}
			data = append(data, g[i][j])
		}
	}

	var eig mat.EigenSym
	if ok := eig.Factorize(mat.NewSymDense(NumParams, data), false); !ok {
		return &ConfigurationError{Field: "Gamma", Reason: "eigen decomposition failed"}
	}
	for _, ev := range eig.Values(nil) {
		if ev < -tol {
			return &ConfigurationError{Field: "Gamma", Reason: fmt.Sprintf("not positive semi-definite (eigenvalue %g)", ev)}
		}
	}
	return nil
}
