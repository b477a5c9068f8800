// Package geom holds the vector, quaternion and plane arithmetic shared by
// the sketch model and the mesh kernel. Vectors are sdfx's v3.Vec so meshes
// can be handed to sdfx without conversion.
package geom

import (
	"fmt"
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Tolerances used throughout the kernel.
const (
	LengthEps           = 1e-6
	KdTreeEps           = 20 * LengthEps
	AngleCosEps         = 1e-6
	DegenerateNormalEps = 1e-10
	VeryPositive        = 1e10
	VeryNegative        = -1e10
)

// Vector is a point or direction in model space.
type Vector = v3.Vec

// V builds a Vector.
func V(x, y, z float64) Vector { return Vector{X: x, Y: y, Z: z} }

// Element returns the i-th coordinate (0=x, 1=y, 2=z).
func Element(v Vector, i int) float64 {
	switch i {
	case 0:
		return v.X
	case 1:
		return v.Y
	case 2:
		return v.Z
	}
	panic(fmt.Sprintf("geom: axis %d out of range", i))
}

// WithMagnitude scales v to length s. A zero vector stays zero.
func WithMagnitude(v Vector, s float64) Vector {
	m := v.Length()
	if m == 0 {
		return Vector{}
	}
	return v.MulScalar(s / m)
}

// Equals reports whether a and b coincide within LengthEps.
func Equals(a, b Vector) bool { return EqualsTol(a, b, LengthEps) }

// EqualsTol reports whether a and b coincide within tol.
func EqualsTol(a, b Vector, tol float64) bool {
	d := a.Sub(b)
	if math.Abs(d.X) > tol || math.Abs(d.Y) > tol || math.Abs(d.Z) > tol {
		return false
	}
	return MagSquared(d) < tol*tol
}

// MagSquared returns the squared length of v.
func MagSquared(v Vector) float64 { return v.Dot(v) }

// DivProjected returns the parameter t such that t*d is the projection of
// v onto d.
func DivProjected(v, d Vector) float64 {
	return v.Dot(d) / d.Dot(d)
}

// OnLineSegment reports whether p lies on the segment ab within tol.
func OnLineSegment(p, a, b Vector, tol float64) bool {
	if EqualsTol(p, a, tol) || EqualsTol(p, b, tol) {
		return true
	}
	d := b.Sub(a)
	m := MagSquared(d)
	if m == 0 {
		return false
	}
	distsq := MagSquared(p.Sub(a).Cross(d)) / m
	if distsq >= tol*tol {
		return false
	}
	t := DivProjected(p.Sub(a), d)
	return t >= 0 && t <= 1
}

// DistanceToLine returns the distance from p to the infinite line through
// p0 with direction dp.
func DistanceToLine(p, p0, dp Vector) float64 {
	m := dp.Length()
	if m == 0 {
		return p.Sub(p0).Length()
	}
	return p.Sub(p0).Cross(dp).Length() / m
}

// ClosestPointOnLine returns the point on the line through p0 with
// direction dp nearest to p.
func ClosestPointOnLine(p, p0, dp Vector) Vector {
	if MagSquared(dp) == 0 {
		return p0
	}
	return p0.Add(dp.MulScalar(DivProjected(p.Sub(p0), dp)))
}

// IntersectPlaneLine returns the point where the line through a and b
// meets the plane n·x = d. ok is false when the line is parallel.
func IntersectPlaneLine(n Vector, d float64, a, b Vector) (p Vector, ok bool) {
	ab := b.Sub(a)
	den := n.Dot(ab)
	if math.Abs(den) < DegenerateNormalEps {
		return Vector{}, false
	}
	t := (d - n.Dot(a)) / den
	return a.Add(ab.MulScalar(t)), true
}

// ProjectXy drops the z coordinate.
func ProjectXy(v Vector) Point2d { return Point2d{X: v.X, Y: v.Y} }

// Newell returns the (unnormalized) normal of a closed polygon. Its length
// is twice the polygon's area.
func Newell(pts []Vector) Vector {
	var n Vector
	for i := range pts {
		a, b := pts[i], pts[(i+1)%len(pts)]
		n.X += (a.Y - b.Y) * (a.Z + b.Z)
		n.Y += (a.Z - b.Z) * (a.X + b.X)
		n.Z += (a.X - b.X) * (a.Y + b.Y)
	}
	return n
}

// BasisFor returns two unit vectors u, v that complete n to a right-handed
// orthonormal basis.
func BasisFor(n Vector) (u, v Vector) {
	n = WithMagnitude(n, 1)
	ref := V(0, 0, 1)
	if math.Abs(n.Z) > 0.9 {
		ref = V(1, 0, 0)
	}
	u = WithMagnitude(ref.Cross(n), 1)
	// u x v = n
	v = n.Cross(u)
	return u, v
}

// RotatedAbout rotates p by angle radians about the axis through origin
// with direction axis, right-handed.
func RotatedAbout(p, origin, axis Vector, angle float64) Vector {
	return AxisAngle(axis, angle/2).Rotate(p.Sub(origin)).Add(origin)
}

// Point2d is a point or direction in a projected plane.
type Point2d struct {
	X, Y float64
}

// Minus returns a-b.
func (a Point2d) Minus(b Point2d) Point2d { return Point2d{a.X - b.X, a.Y - b.Y} }

// Plus returns a+b.
func (a Point2d) Plus(b Point2d) Point2d { return Point2d{a.X + b.X, a.Y + b.Y} }

// Dot returns the dot product.
func (a Point2d) Dot(b Point2d) float64 { return a.X*b.X + a.Y*b.Y }

// Magnitude returns the length.
func (a Point2d) Magnitude() float64 { return math.Hypot(a.X, a.Y) }

// Normal returns a perpendicular, rotated clockwise.
func (a Point2d) Normal() Point2d { return Point2d{a.Y, -a.X} }

// WithMagnitude scales a to length s.
func (a Point2d) WithMagnitude(s float64) Point2d {
	m := a.Magnitude()
	if m == 0 {
		return Point2d{}
	}
	return Point2d{a.X * s / m, a.Y * s / m}
}
