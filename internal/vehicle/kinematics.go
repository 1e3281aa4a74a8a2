package vehicle

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// gimbalTol is the smallest |cos θ| for which Euler rates are defined.
const gimbalTol = 1e-6

var (
	axisX = r3.Vec{X: 1}
	axisY = r3.Vec{Y: 1}
	axisZ = r3.Vec{Z: 1}
)

// EulerRateToAngVel converts 321 Euler angle rates into a body angular
// velocity.
func EulerRateToAngVel(att Attitude, rates r3.Vec) r3.Vec {
	sTheta, cTheta := math.Sincos(att.Pitch)
	sPhi, cPhi := math.Sincos(att.Roll)
	return r3.Vec{
		X: rates.X - sTheta*rates.Z,
		Y: cPhi*rates.Y + sPhi*cTheta*rates.Z,
		Z: -sPhi*rates.Y + cTheta*cPhi*rates.Z,
	}
}

// AngVelToEulerRate converts a body angular velocity into 321 Euler angle
// rates. It returns false when the vehicle is pitched straight up or down.
func AngVelToEulerRate(att Attitude, w r3.Vec) (r3.Vec, bool) {
	sTheta, cTheta := math.Sincos(att.Pitch)
	if math.Abs(cTheta) < gimbalTol {
		return r3.Vec{}, false
	}
	sPhi, cPhi := math.Sincos(att.Roll)
	tTheta := sTheta / cTheta
	return r3.Vec{
		X: w.X + sPhi*tTheta*w.Y + cPhi*tTheta*w.Z,
		Y: cPhi*w.Y - sPhi*w.Z,
		Z: (sPhi*w.Y + cPhi*w.Z) / cTheta,
	}, true
}

// Rotation is the 321 body-to-earth rotation Rz(ψ)·Ry(θ)·Rx(φ).
type Rotation struct {
	roll, pitch, yaw r3.Rotation
}

func NewRotation(roll, pitch, yaw float64) Rotation {
	return Rotation{
		roll:  r3.NewRotation(roll, axisX),
		pitch: r3.NewRotation(pitch, axisY),
		yaw:   r3.NewRotation(yaw, axisZ),
	}
}

func (r Rotation) BodyToEarth(v r3.Vec) r3.Vec {
	return r.yaw.Rotate(r.pitch.Rotate(r.roll.Rotate(v)))
}

func (r Rotation) EarthToBody(v r3.Vec) r3.Vec {
	return conj(r.roll).Rotate(conj(r.pitch).Rotate(conj(r.yaw).Rotate(v)))
}

func conj(q r3.Rotation) r3.Rotation {
	q.Imag, q.Jmag, q.Kmag = -q.Imag, -q.Jmag, -q.Kmag
	return q
}
