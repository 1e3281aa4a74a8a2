package dynamo

import (
	"fmt"
	"math"
)

// Axis indices shared by every 4-DOF vector.
const (
	Surge = iota
	Sway
	Heave
	Yaw
)

// Vec4 is a 4-DOF vector indexed {surge, sway, heave, yaw}.
type Vec4 [4]float64

// Mat4 is a row-major 4x4 matrix.
type Mat4 [4][4]float64

// Identity4 returns the 4x4 identity.
func Identity4() Mat4 {
	return Mat4{
		{1, 0, 0, 0},
		{0, 1, 0, 0},
		{0, 0, 1, 0},
		{0, 0, 0, 1},
	}
}

func (v Vec4) Add(o Vec4) Vec4 {
	for i := range v {
		v[i] += o[i]
	}
	return v
}

func (v Vec4) Sub(o Vec4) Vec4 {
	for i := range v {
		v[i] -= o[i]
	}
	return v
}

func (v Vec4) Scale(f float64) Vec4 {
	for i := range v {
		v[i] *= f
	}
	return v
}

// Mul is the elementwise (Hadamard) product.
func (v Vec4) Mul(o Vec4) Vec4 {
	for i := range v {
		v[i] *= o[i]
	}
	return v
}

// Div is the elementwise quotient. Zero divisors yield zero rather than Inf.
func (v Vec4) Div(o Vec4) Vec4 {
	for i := range v {
		if o[i] == 0 {
			v[i] = 0
			continue
		}
		v[i] /= o[i]
	}
	return v
}

func (v Vec4) Dot(o Vec4) float64 {
	return v[0]*o[0] + v[1]*o[1] + v[2]*o[2] + v[3]*o[3]
}

func (v Vec4) Norm() float64 {
	return math.Sqrt(v.Dot(v))
}

// Clamp limits every component to [lo, hi].
func (v Vec4) Clamp(lo, hi float64) Vec4 {
	for i := range v {
		v[i] = math.Max(lo, math.Min(hi, v[i]))
	}
	return v
}

func (v Vec4) IsValid() bool {
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}

func (v Vec4) String() string {
	return fmt.Sprintf("[%.4f %.4f %.4f %.4f]", v[0], v[1], v[2], v[3])
}

func (m Mat4) MulVec(v Vec4) Vec4 {
	var out Vec4
	for i := 0; i < 4; i++ {
		out[i] = m[i][0]*v[0] + m[i][1]*v[1] + m[i][2]*v[2] + m[i][3]*v[3]
	}
	return out
}

func (m Mat4) Mul(o Mat4) Mat4 {
	var out Mat4
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			for k := 0; k < 4; k++ {
				out[i][j] += m[i][k] * o[k][j]
			}
		}
	}
	return out
}

func (m Mat4) T() Mat4 {
	var out Mat4
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			out[j][i] = m[i][j]
		}
	}
	return out
}

func (m Mat4) IsValid() bool {
	for i := range m {
		if !Vec4(m[i]).IsValid() {
			return false
		}
	}
	return true
}

// Det computes the determinant by Gaussian elimination with partial pivoting.
func (m Mat4) Det() float64 {
	a := m
	det := 1.0
	for c := 0; c < 4; c++ {
		p := c
		for r := c + 1; r < 4; r++ {
			if math.Abs(a[r][c]) > math.Abs(a[p][c]) {
				p = r
			}
		}
		if a[p][c] == 0 {
			return 0
		}
		if p != c {
			a[p], a[c] = a[c], a[p]
			det = -det
		}
		det *= a[c][c]
		for r := c + 1; r < 4; r++ {
			f := a[r][c] / a[c][c]
			for k := c; k < 4; k++ {
				a[r][k] -= f * a[c][k]
			}
		}
	}
	return det
}

// Inverse computes m⁻¹ by Gauss-Jordan elimination with partial pivoting.
// It returns ErrSingular when a pivot falls below a scale-relative tolerance
// or when m holds non-finite entries.
func (m Mat4) Inverse() (Mat4, error) {
	if !m.IsValid() {
		return Mat4{}, ErrSingular
	}
	scale := 0.0
	for i := range m {
		for j := range m[i] {
			scale = math.Max(scale, math.Abs(m[i][j]))
		}
	}
	if scale == 0 {
		return Mat4{}, ErrSingular
	}
	tol := 1e-12 * scale

	a := m
	inv := Identity4()
	for c := 0; c < 4; c++ {
		p := c
		for r := c + 1; r < 4; r++ {
			if math.Abs(a[r][c]) > math.Abs(a[p][c]) {
				p = r
			}
		}
		if math.Abs(a[p][c]) <= tol {
			return Mat4{}, ErrSingular
		}
		a[p], a[c] = a[c], a[p]
		inv[p], inv[c] = inv[c], inv[p]

		piv := a[c][c]
		for k := 0; k < 4; k++ {
			a[c][k] /= piv
			inv[c][k] /= piv
		}
		for r := 0; r < 4; r++ {
			if r == c {
				continue
			}
			f := a[r][c]
			if f == 0 {
				continue
			}
			for k := 0; k < 4; k++ {
				a[r][k] -= f * a[c][k]
				inv[r][k] -= f * inv[c][k]
			}
		}
	}
	return inv, nil
}

// Rotation4 returns the 4-DOF kinematic transform for heading psi: a planar
// rotation of surge/sway, identity on heave and yaw.
func Rotation4(psi float64) Mat4 {
	s, c := math.Sincos(psi)
	return Mat4{
		{c, -s, 0, 0},
		{s, c, 0, 0},
		{0, 0, 1, 0},
		{0, 0, 0, 1},
	}
}

// WrapPi maps an angle to [-π, π).
func WrapPi(a float64) float64 {
	if a >= -math.Pi && a < math.Pi {
		return a
	}
	a = math.Mod(a+math.Pi, 2*math.Pi)
	if a < 0 {
		a += 2 * math.Pi
	}
	return a - math.Pi
}
