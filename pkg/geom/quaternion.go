package geom

import (
	"math"

	"gonum.org/v1/gonum/num/quat"
)

// Quaternion is a rotation. Unit quaternions are assumed wherever a
// rotation is applied.
type Quaternion struct {
	W, VX, VY, VZ float64
}

// IdentityQuaternion is the rotation that does nothing.
var IdentityQuaternion = Quaternion{W: 1}

func (q Quaternion) number() quat.Number {
	return quat.Number{Real: q.W, Imag: q.VX, Jmag: q.VY, Kmag: q.VZ}
}

func fromNumber(n quat.Number) Quaternion {
	return Quaternion{W: n.Real, VX: n.Imag, VY: n.Jmag, VZ: n.Kmag}
}

// QuaternionFrom builds a quaternion from its components.
func QuaternionFrom(w, vx, vy, vz float64) Quaternion {
	return Quaternion{W: w, VX: vx, VY: vy, VZ: vz}
}

// PureQuaternion builds a quaternion with zero real part. Faces use these
// to carry a normal direction.
func PureQuaternion(v Vector) Quaternion {
	return Quaternion{VX: v.X, VY: v.Y, VZ: v.Z}
}

// QuaternionFromUV returns the rotation that maps the x and y axes onto the
// orthonormal vectors u and v.
func QuaternionFromUV(u, v Vector) Quaternion {
	n := u.Cross(v)
	var q Quaternion
	tr := 1 + u.X + v.Y + n.Z
	switch {
	case tr > 1e-4:
		s := 2 * math.Sqrt(tr)
		q = Quaternion{s / 4, (v.Z - n.Y) / s, (n.X - u.Z) / s, (u.Y - v.X) / s}
	case u.X > v.Y && u.X > n.Z:
		s := 2 * math.Sqrt(1+u.X-v.Y-n.Z)
		q = Quaternion{(v.Z - n.Y) / s, s / 4, (u.Y + v.X) / s, (n.X + u.Z) / s}
	case v.Y > n.Z:
		s := 2 * math.Sqrt(1-u.X+v.Y-n.Z)
		q = Quaternion{(n.X - u.Z) / s, (u.Y + v.X) / s, s / 4, (v.Z + n.Y) / s}
	default:
		s := 2 * math.Sqrt(1-u.X-v.Y+n.Z)
		q = Quaternion{(u.Y - v.X) / s, (n.X + u.Z) / s, (v.Z + n.Y) / s, s / 4}
	}
	return q.WithMagnitude(1)
}

// AxisAngle returns the quaternion cos(theta) + sin(theta)*axis. Applying
// it rotates by 2*theta about axis; the sweep parameters of rotating groups
// store the half angle.
func AxisAngle(axis Vector, theta float64) Quaternion {
	a := WithMagnitude(axis, 1)
	s, c := math.Sin(theta), math.Cos(theta)
	return Quaternion{W: c, VX: s * a.X, VY: s * a.Y, VZ: s * a.Z}
}

// Magnitude returns the norm of q.
func (q Quaternion) Magnitude() float64 { return quat.Abs(q.number()) }

// WithMagnitude scales q to norm s.
func (q Quaternion) WithMagnitude(s float64) Quaternion {
	m := q.Magnitude()
	if m == 0 {
		return IdentityQuaternion
	}
	return fromNumber(quat.Scale(s/m, q.number()))
}

// Times returns the product q*b; applying it rotates by b first, then q.
func (q Quaternion) Times(b Quaternion) Quaternion {
	return fromNumber(quat.Mul(q.number(), b.number()))
}

// Inverse returns the conjugate of a unit quaternion.
func (q Quaternion) Inverse() Quaternion {
	return fromNumber(quat.Conj(q.number()))
}

// Rotate applies q to p.
func (q Quaternion) Rotate(p Vector) Vector {
	r := quat.Mul(quat.Mul(q.number(), quat.Number{Imag: p.X, Jmag: p.Y, Kmag: p.Z}), quat.Conj(q.number()))
	return Vector{X: r.Imag, Y: r.Jmag, Z: r.Kmag}
}

// Vector returns the imaginary part of q.
func (q Quaternion) Vector() Vector { return Vector{X: q.VX, Y: q.VY, Z: q.VZ} }

// RotationU returns the image of the x axis.
func (q Quaternion) RotationU() Vector {
	return Vector{
		X: q.W*q.W + q.VX*q.VX - q.VY*q.VY - q.VZ*q.VZ,
		Y: 2*q.W*q.VZ + 2*q.VX*q.VY,
		Z: 2*q.VX*q.VZ - 2*q.W*q.VY,
	}
}

// RotationV returns the image of the y axis.
func (q Quaternion) RotationV() Vector {
	return Vector{
		X: 2*q.VX*q.VY - 2*q.W*q.VZ,
		Y: q.W*q.W - q.VX*q.VX + q.VY*q.VY - q.VZ*q.VZ,
		Z: 2*q.W*q.VX + 2*q.VY*q.VZ,
	}
}

// RotationN returns the image of the z axis.
func (q Quaternion) RotationN() Vector {
	return Vector{
		X: 2*q.W*q.VY + 2*q.VX*q.VZ,
		Y: 2*q.VY*q.VZ - 2*q.W*q.VX,
		Z: q.W*q.W - q.VX*q.VX - q.VY*q.VY + q.VZ*q.VZ,
	}
}

// Mirror returns the orientation with both in-plane axes negated.
func (q Quaternion) Mirror() Quaternion {
	return QuaternionFromUV(q.RotationU().MulScalar(-1), q.RotationV().MulScalar(-1))
}
