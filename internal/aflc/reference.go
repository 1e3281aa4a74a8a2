package aflc

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/aflc/internal/dynamo"
)

// ReferenceModel is a critically-damped second-order low-pass filter per axis:
//
//	η̈r + 2β η̇r + β² ηr = β² target
//
// The continuous pair (A, B) acts on x = [ηr; η̇r] and is discretized exactly
// once, so a step in the target is smoothed without overshoot regardless of dt.
type ReferenceModel struct {
	beta dynamo.Vec4
	dt   float64

	a, b *mat.Dense // continuous (8x8, 8x4)

	// per-axis discrete blocks of exp([[A B];[0 0]]·dt)
	ad [DOF][2][2]float64
	bd [DOF][2]float64

	built bool
	ready bool

	etaR, detaR, d2etaR dynamo.Vec4
}

// NewReferenceModel returns an unbuilt model. Call Build before Update.
func NewReferenceModel(beta dynamo.Vec4, dt float64) (*ReferenceModel, error) {
	if err := positive("Beta", beta); err != nil {
		return nil, err
	}
	if !(dt > 0) {
		return nil, &ConfigurationError{Field: "Dt", Reason: fmt.Sprintf("must be positive, got %v", dt)}
	}
	return &ReferenceModel{beta: beta, dt: dt}, nil
}

// Build materializes the continuous state-space matrices and their exact
// zero-order-hold discretization.
func (r *ReferenceModel) Build() error {
	const n = 2 * DOF

	a := mat.NewDense(n, n, nil)
	b := mat.NewDense(n, DOF, nil)
	for i := 0; i < DOF; i++ {
		beta := r.beta[i]
		a.Set(i, DOF+i, 1)
		a.Set(DOF+i, i, -beta*beta)
		a.Set(DOF+i, DOF+i, -2*beta)
		b.Set(DOF+i, i, beta*beta)
	}

	aug := mat.NewDense(n+DOF, n+DOF, nil)
	aug.Slice(0, n, 0, n).(*mat.Dense).Scale(r.dt, a)
	aug.Slice(0, n, n, n+DOF).(*mat.Dense).Scale(r.dt, b)

	var e mat.Dense
	e.Exp(aug)

	for i := 0; i < DOF; i++ {
		p, v := i, DOF+i
		r.ad[i] = [2][2]float64{
			{e.At(p, p), e.At(p, v)},
			{e.At(v, p), e.At(v, v)},
		}
		r.bd[i] = [2]float64{e.At(p, n+i), e.At(v, n+i)}
		if !finite(r.ad[i][0][0], r.ad[i][0][1], r.ad[i][1][0], r.ad[i][1][1], r.bd[i][0], r.bd[i][1]) {
			return fmt.Errorf("reference model axis %d: %w", i, ErrNumerical)
		}
	}

	r.a, r.b = a, b
	r.built = true
	return nil
}

// Init seeds the reference state. With deta0 = 0 and the target equal to
// eta0 the filter starts at rest.
func (r *ReferenceModel) Init(eta0, deta0 dynamo.Vec4) {
	r.etaR = eta0
	r.detaR = deta0
	r.d2etaR = dynamo.Vec4{}
	r.ready = true
}

// Update advances the reference by one tick towards target.
func (r *ReferenceModel) Update(target dynamo.Vec4) error {
	if !r.built || !r.ready {
		return ErrNotInitialized
	}
	if !target.IsValid() {
		return fmt.Errorf("reference target %v: %w", target, ErrNumerical)
	}

	// Track the heading branch closest to the current reference.
	target[dynamo.Yaw] = r.etaR[dynamo.Yaw] + dynamo.WrapPi(target[dynamo.Yaw]-r.etaR[dynamo.Yaw])

	for i := 0; i < DOF; i++ {
		p, v := r.etaR[i], r.detaR[i]
		r.etaR[i] = r.ad[i][0][0]*p + r.ad[i][0][1]*v + r.bd[i][0]*target[i]
		r.detaR[i] = r.ad[i][1][0]*p + r.ad[i][1][1]*v + r.bd[i][1]*target[i]

		beta := r.beta[i]
		r.d2etaR[i] = beta*beta*(target[i]-r.etaR[i]) - 2*beta*r.detaR[i]
	}
	return nil
}

// Continuous returns the continuous-time pair (A, B). Nil before Build.
func (r *ReferenceModel) Continuous() (a, b mat.Matrix) {
	if !r.built {
		return nil, nil
	}
	return mat.DenseCopyOf(r.a), mat.DenseCopyOf(r.b)
}

func (r *ReferenceModel) Position() dynamo.Vec4     { return r.etaR }
func (r *ReferenceModel) Velocity() dynamo.Vec4     { return r.detaR }
func (r *ReferenceModel) Acceleration() dynamo.Vec4 { return r.d2etaR }

func finite(xs ...float64) bool {
	for _, x := range xs {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}
