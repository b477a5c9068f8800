package geom

import (
	"math"
	"testing"
)

func near(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func nearVec(a, b Vector) bool { return EqualsTol(a, b, 1e-9) }

func TestOnLineSegment(t *testing.T) {
	a, b := V(0, 0, 0), V(2, 0, 0)
	tests := []struct {
		name string
		p    Vector
		want bool
	}{
		{"midpoint", V(1, 0, 0), true},
		{"endpoint", V(2, 0, 0), true},
		{"beyond end", V(2.5, 0, 0), false},
		{"off line", V(1, 1e-3, 0), false},
		{"within tolerance", V(1, 1e-8, 0), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := OnLineSegment(tt.p, a, b, LengthEps); got != tt.want {
				t.Errorf("OnLineSegment(%v) = %v, want %v", tt.p, got, tt.want)
			}
		})
	}
}

func TestNewellAreaAndDirection(t *testing.T) {
	square := []Vector{V(0, 0, 0), V(2, 0, 0), V(2, 2, 0), V(0, 2, 0)}
	n := Newell(square)
	if !near(n.Z, 8) || !near(n.X, 0) || !near(n.Y, 0) {
		t.Errorf("Newell(ccw square) = %v, want (0,0,8)", n)
	}
}

func TestBasisForIsRightHanded(t *testing.T) {
	for _, n := range []Vector{V(0, 0, 1), V(1, 0, 0), V(1, 2, 3)} {
		u, v := BasisFor(n)
		if !nearVec(u.Cross(v), WithMagnitude(n, 1)) {
			t.Errorf("BasisFor(%v): u x v = %v", n, u.Cross(v))
		}
	}
}

func TestQuaternionFromUVRoundTrip(t *testing.T) {
	u := WithMagnitude(V(1, 1, 0), 1)
	v := WithMagnitude(V(-1, 1, 0), 1)
	q := QuaternionFromUV(u, v)
	if !nearVec(q.RotationU(), u) {
		t.Errorf("RotationU = %v, want %v", q.RotationU(), u)
	}
	if !nearVec(q.RotationV(), v) {
		t.Errorf("RotationV = %v, want %v", q.RotationV(), v)
	}
	if !nearVec(q.Rotate(V(1, 0, 0)), u) {
		t.Errorf("Rotate(x) = %v, want %v", q.Rotate(V(1, 0, 0)), u)
	}
}

func TestAxisAngleRotatesByTwiceTheta(t *testing.T) {
	q := AxisAngle(V(0, 0, 1), math.Pi/4)
	got := q.Rotate(V(1, 0, 0))
	if !nearVec(got, V(0, 1, 0)) {
		t.Errorf("quarter turn of x = %v, want y", got)
	}
	p := RotatedAbout(V(2, 0, 0), V(1, 0, 0), V(0, 0, 1), math.Pi)
	if !nearVec(p, V(0, 0, 0)) {
		t.Errorf("RotatedAbout = %v, want origin", p)
	}
}

func TestQuaternionTimesComposes(t *testing.T) {
	a := AxisAngle(V(0, 0, 1), math.Pi/4)
	b := AxisAngle(V(1, 0, 0), math.Pi/4)
	p := V(0, 1, 0)
	if !nearVec(a.Times(b).Rotate(p), a.Rotate(b.Rotate(p))) {
		t.Error("(a*b).Rotate(p) != a.Rotate(b.Rotate(p))")
	}
}

func TestIntersectPlaneLine(t *testing.T) {
	p, ok := IntersectPlaneLine(V(0, 0, 1), 2, V(1, 1, 0), V(1, 1, 4))
	if !ok || !nearVec(p, V(1, 1, 2)) {
		t.Errorf("IntersectPlaneLine = %v, %v", p, ok)
	}
	if _, ok := IntersectPlaneLine(V(0, 0, 1), 2, V(0, 0, 0), V(1, 0, 0)); ok {
		t.Error("parallel line reported an intersection")
	}
}
