package kernel

import (
	"math"
	"testing"

	"github.com/chazu/facet/pkg/geom"
)

func near(a, b, tol float64) bool { return math.Abs(a-b) < tol }

func unitBox() *Mesh {
	return Box(TriMeta{Face: 1}, geom.V(0, 0, 0), geom.V(1, 1, 1))
}

func totalArea(m *Mesh) float64 {
	var a float64
	for i := range m.Triangles {
		a += m.Triangles[i].Area()
	}
	return a
}

func TestAddTriangleWinding(t *testing.T) {
	tests := []struct {
		name string
		n    Vector
		want Vector
	}{
		{"agrees with hint", geom.V(0, 0, 1), geom.V(0, 0, 1)},
		{"reversed for opposite hint", geom.V(0, 0, -1), geom.V(0, 0, -1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var m Mesh
			m.AddTriangle(TriMeta{}, tt.n, geom.V(0, 0, 0), geom.V(1, 0, 0), geom.V(0, 1, 0))
			if len(m.Triangles) != 1 {
				t.Fatalf("got %d triangles, want 1", len(m.Triangles))
			}
			got := geom.WithMagnitude(m.Triangles[0].Normal(), 1)
			if !geom.Equals(got, tt.want) {
				t.Errorf("normal = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAddTriangleDropsDegenerate(t *testing.T) {
	var m Mesh
	m.AddTriangle(TriMeta{}, geom.V(0, 0, 1), geom.V(0, 0, 0), geom.V(1, 0, 0), geom.V(2, 0, 0))
	if !m.IsEmpty() {
		t.Errorf("collinear triangle was kept")
	}
}

func TestBoxVolume(t *testing.T) {
	m := Box(TriMeta{}, geom.V(0, 0, 0), geom.V(2, 3, 4))
	if len(m.Triangles) != 12 {
		t.Fatalf("box has %d triangles, want 12", len(m.Triangles))
	}
	if v := m.CalculateVolume(); !near(v, 24, 1e-9) {
		t.Errorf("volume = %v, want 24", v)
	}
	bb := m.BoundingBox()
	if !geom.Equals(bb.Min, geom.V(0, 0, 0)) || !geom.Equals(bb.Max, geom.V(2, 3, 4)) {
		t.Errorf("bounding box = %v", bb)
	}
}

func TestSimplifyMergesCoplanarStrip(t *testing.T) {
	var m Mesh
	n := geom.V(0, 0, 1)
	m.AddTriangle(TriMeta{}, n, geom.V(0, 0, 0), geom.V(1, 0, 0), geom.V(1, 1, 0))
	m.AddTriangle(TriMeta{}, n, geom.V(0, 0, 0), geom.V(1, 1, 0), geom.V(0, 1, 0))
	m.AddTriangle(TriMeta{}, n, geom.V(1, 0, 0), geom.V(2, 0, 0), geom.V(2, 1, 0))
	m.AddTriangle(TriMeta{}, n, geom.V(1, 0, 0), geom.V(2, 1, 0), geom.V(1, 1, 0))

	m.Simplify(0)

	if len(m.Triangles) != 2 {
		t.Errorf("simplified to %d triangles, want 2", len(m.Triangles))
	}
	if a := totalArea(&m); !near(a, 2, 1e-9) {
		t.Errorf("area = %v, want 2", a)
	}
}

func TestSimplifyKeepsPrefix(t *testing.T) {
	var m Mesh
	n := geom.V(0, 0, 1)
	m.AddTriangle(TriMeta{Face: 7}, n, geom.V(5, 5, 5), geom.V(6, 5, 5), geom.V(5, 6, 5))
	m.AddTriangle(TriMeta{}, n, geom.V(0, 0, 0), geom.V(1, 0, 0), geom.V(1, 1, 0))
	m.AddTriangle(TriMeta{}, n, geom.V(0, 0, 0), geom.V(1, 1, 0), geom.V(0, 1, 0))

	m.Simplify(1)

	if m.Triangles[0].Meta.Face != 7 {
		t.Errorf("triangle before start was touched")
	}
	if a := totalArea(&m); !near(a, 1.5, 1e-9) {
		t.Errorf("area = %v, want 1.5", a)
	}
}

func TestUnionOfOverlappingBoxes(t *testing.T) {
	a := unitBox()
	b := Box(TriMeta{Face: 1}, geom.V(0.5, 0, 0), geom.V(1.5, 1, 1))

	u := CombineMeshes(CombineUnion, a, b)

	if v := u.CalculateVolume(); !near(v, 1.5, 1e-6) {
		t.Errorf("union volume = %v, want 1.5", v)
	}
	if w := CheckWatertight(u); !w.OK() {
		t.Errorf("union not watertight: %d naked edges", w.Naked.Len())
	}
}

func TestUnionOfDisjointBoxes(t *testing.T) {
	a := unitBox()
	b := Box(TriMeta{Face: 1}, geom.V(3, 0, 0), geom.V(4, 1, 1))

	u := CombineMeshes(CombineUnion, a, b)

	if len(u.Triangles) != 24 {
		t.Errorf("union has %d triangles, want 24", len(u.Triangles))
	}
	if v := u.CalculateVolume(); !near(v, 2, 1e-9) {
		t.Errorf("union volume = %v, want 2", v)
	}
}

func TestDifferenceOfBoxes(t *testing.T) {
	tests := []struct {
		name   string
		lo, hi Vector
		want   float64
	}{
		{"shared faces", geom.V(0.5, 0, 0), geom.V(1.5, 1, 1), 0.5},
		{"poking through", geom.V(0.5, -0.5, -0.5), geom.V(1.5, 1.5, 1.5), 0.5},
		{"pocket", geom.V(0.25, 0.25, 0.5), geom.V(0.75, 0.75, 2), 1 - 0.125},
		{"disjoint", geom.V(3, 3, 3), geom.V(4, 4, 4), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := CombineMeshes(CombineDifference, unitBox(), Box(TriMeta{Face: 1}, tt.lo, tt.hi))
			if v := d.CalculateVolume(); !near(v, tt.want, 1e-6) {
				t.Errorf("volume = %v, want %v", v, tt.want)
			}
		})
	}
}

func TestUnionWithEmpty(t *testing.T) {
	u := CombineMeshes(CombineUnion, &Mesh{}, unitBox())
	if v := u.CalculateVolume(); !near(v, 1, 1e-9) {
		t.Errorf("volume = %v, want 1", v)
	}
}

func TestAssemblyConcatenates(t *testing.T) {
	a := CombineMeshes(CombineAssemble, unitBox(), unitBox())
	if len(a.Triangles) != 24 {
		t.Errorf("assembly has %d triangles, want 24", len(a.Triangles))
	}
}

func TestBooleansAreDeterministic(t *testing.T) {
	b := Box(TriMeta{Face: 1}, geom.V(0.5, 0.5, 0.5), geom.V(1.5, 1.5, 1.5))
	first := CombineMeshes(CombineUnion, unitBox(), b)
	second := CombineMeshes(CombineUnion, unitBox(), b)
	if len(first.Triangles) != len(second.Triangles) {
		t.Fatalf("runs differ: %d vs %d triangles", len(first.Triangles), len(second.Triangles))
	}
	for i := range first.Triangles {
		if first.Triangles[i] != second.Triangles[i] {
			t.Fatalf("triangle %d differs", i)
		}
	}
}

func TestCheckWatertightFindsHole(t *testing.T) {
	m := unitBox()
	m.Triangles = m.Triangles[1:]
	w := CheckWatertight(m)
	if !w.Leaks {
		t.Error("missing triangle not reported as a leak")
	}
	if w.Naked.Len() != 3 {
		t.Errorf("got %d naked edges, want 3", w.Naked.Len())
	}
	if w := CheckWatertight(unitBox()); !w.OK() {
		t.Errorf("closed box reported %d naked edges", w.Naked.Len())
	}
}
