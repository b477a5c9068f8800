package kernel

import (
	"testing"

	"github.com/chazu/facet/pkg/geom"
)

func edgeLength(l *EdgeList) float64 {
	var s float64
	for _, e := range l.Edges {
		s += e.B.Sub(e.A).Length()
	}
	return s
}

func TestKdTreeListsEachTriangleOnce(t *testing.T) {
	p := NewPass()
	defer p.Release()

	m := CombineMeshes(CombineAssemble, unitBox(), Box(TriMeta{}, geom.V(2, 0, 0), geom.V(3, 1, 1)))
	k := KdTreeFromMesh(p, m)

	var out Mesh
	k.ListTrianglesInto(&out)
	if len(out.Triangles) != len(m.Triangles) {
		t.Errorf("listed %d triangles, want %d", len(out.Triangles), len(m.Triangles))
	}
	if v := out.CalculateVolume(); !near(v, 2, 1e-9) {
		t.Errorf("listed volume = %v, want 2", v)
	}
}

func TestSnapToMeshSplitsTJunction(t *testing.T) {
	n := geom.V(0, 0, 1)
	var m Mesh
	// The big triangle's bottom edge passes through (1,0,0), a vertex of
	// the small one.
	m.AddTriangle(TriMeta{}, n, geom.V(0, 0, 0), geom.V(2, 0, 0), geom.V(0, 2, 0))
	m.AddTriangle(TriMeta{}, n, geom.V(1, 0, 0), geom.V(2, -1, 0), geom.V(2, 0, 0))

	p := NewPass()
	defer p.Release()
	k := KdTreeFromMesh(p, &m)
	k.SnapToMesh(&m)

	var once Mesh
	k.ListTrianglesInto(&once)
	if len(once.Triangles) != 3 {
		t.Fatalf("after snapping got %d triangles, want 3", len(once.Triangles))
	}
	if a := totalArea(&once); !near(a, totalArea(&m), 1e-9) {
		t.Errorf("snapping changed area: %v vs %v", a, totalArea(&m))
	}

	k.SnapToMesh(&once)
	var twice Mesh
	k.ListTrianglesInto(&twice)
	if len(twice.Triangles) != 3 {
		t.Errorf("second snap produced %d triangles, want 3", len(twice.Triangles))
	}
}

func TestTurningEdgesOfBox(t *testing.T) {
	p := NewPass()
	defer p.Release()
	k := KdTreeFromMesh(p, unitBox())

	var sel EdgeList
	k.MakeCertainEdgesInto(&sel, EdgeTurning, false, 0)
	if sel.Len() != 4 {
		t.Fatalf("got %d turning edges, want 4", sel.Len())
	}
	for _, e := range sel.Edges {
		if !near(e.A.Z, 1, 1e-9) || !near(e.B.Z, 1, 1e-9) {
			t.Errorf("turning edge %v-%v not on the top rim", e.A, e.B)
		}
	}
}

func TestEmphasizedEdgesOfBox(t *testing.T) {
	p := NewPass()
	defer p.Release()
	k := KdTreeFromMesh(p, unitBox())

	var sel EdgeList
	k.MakeCertainEdgesInto(&sel, EdgeEmphasized, false, 5)
	if sel.Len() != 12 {
		t.Fatalf("got %d emphasized edges, want 12", sel.Len())
	}
	if l := edgeLength(&sel); !near(l, 12, 1e-9) {
		t.Errorf("total length = %v, want 12", l)
	}
	if sel.Edges[0].AuxA != 5 {
		t.Errorf("auxA = %d, want 5", sel.Edges[0].AuxA)
	}
}

func TestEmphasizedEdgesWithNearlyEqualVertices(t *testing.T) {
	// The x=0 side sees the origin corner nudged in x, well inside
	// LengthEps; its edges still pair with the neighbouring faces.
	m := unitBox()
	for i := range m.Triangles {
		tr := &m.Triangles[i]
		if tr.Meta.Face != 1 {
			continue
		}
		for _, v := range []*Vector{&tr.A, &tr.B, &tr.C} {
			if geom.Equals(*v, geom.V(0, 0, 0)) {
				v.X += 1e-8
			}
		}
	}

	p := NewPass()
	defer p.Release()
	k := KdTreeFromMesh(p, m)

	var sel EdgeList
	k.MakeCertainEdgesInto(&sel, EdgeEmphasized, false, 0)
	if sel.Len() != 12 {
		t.Fatalf("got %d emphasized edges, want 12", sel.Len())
	}
	if l := edgeLength(&sel); !near(l, 12, 1e-6) {
		t.Errorf("total length = %v, want 12", l)
	}
}

func TestVectorLessTolerance(t *testing.T) {
	tests := []struct {
		name string
		a, b Vector
		want bool
	}{
		{"x decides", geom.V(0, 5, 5), geom.V(1, 0, 0), true},
		{"x within eps falls to y", geom.V(1e-8, 0, 0), geom.V(0, 1, 0), true},
		{"y within eps falls to z", geom.V(0, 1e-8, 1), geom.V(0, 0, 0), false},
		{"equal within eps", geom.V(1e-8, 0, -1e-8), geom.V(0, 1e-8, 0), false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := vectorLess(tc.a, tc.b); got != tc.want {
				t.Errorf("vectorLess(%v, %v) = %v, want %v", tc.a, tc.b, got, tc.want)
			}
		})
	}
}

func TestSelfIntersectionDetected(t *testing.T) {
	m := CombineMeshes(CombineAssemble, unitBox(),
		Box(TriMeta{}, geom.V(0.5, 0.2, 0.3), geom.V(1.5, 0.7, 0.8)))

	p := NewPass()
	defer p.Release()
	k := KdTreeFromMesh(p, m)

	var sel EdgeList
	inter, leaky := k.MakeCertainEdgesInto(&sel, EdgeSelfInter, false, 0)
	if !inter {
		t.Error("overlapping boxes not reported as intersecting")
	}
	if leaky {
		t.Error("SelfInter reported a leak")
	}
	if sel.Len() == 0 {
		t.Error("no intersecting edges listed")
	}
}

func TestSplitLinesAgainstTriangle(t *testing.T) {
	var occluder Mesh
	n := geom.V(0, 0, 1)
	occluder.AddQuad(TriMeta{}, n, geom.V(0, 0, 1), geom.V(1, 0, 1), geom.V(1, 1, 1), geom.V(0, 1, 1))

	tests := []struct {
		name    string
		a, b    Vector
		visible float64
	}{
		{"behind and crossing", geom.V(-1, 0.5, 0), geom.V(2, 0.5, 0), 2},
		{"fully behind", geom.V(0.25, 0.5, 0), geom.V(0.75, 0.5, 0), 0},
		{"in front", geom.V(-1, 0.5, 2), geom.V(2, 0.5, 2), 3},
		{"beside", geom.V(-1, 2, 0), geom.V(2, 2, 0), 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var sel EdgeList
			sel.AddEdge(tt.a, tt.b, 0, 0)
			for i := range occluder.Triangles {
				SplitLinesAgainstTriangle(&sel, &occluder.Triangles[i])
			}
			if l := edgeLength(&sel); !near(l, tt.visible, 1e-9) {
				t.Errorf("visible length = %v, want %v", l, tt.visible)
			}
		})
	}
}

func TestRemoveHiddenLinesOfBox(t *testing.T) {
	p := NewPass()
	defer p.Release()
	k := KdTreeFromMesh(p, unitBox())

	var sel EdgeList
	// The first segment lies on the bottom face under the top; the second
	// is outside the box.
	sel.AddEdge(geom.V(0.25, 0.5, 0), geom.V(0.75, 0.5, 0), 3, 0)
	sel.AddEdge(geom.V(-1, 0.5, 0.5), geom.V(0, 0.5, 0.5), 3, 0)

	out := k.RemoveHiddenLines(&sel)
	if l := edgeLength(out); !near(l, 1, 1e-9) {
		t.Errorf("visible length = %v, want 1", l)
	}
	for _, e := range out.Edges {
		if e.AuxA != 3 {
			t.Errorf("auxA lost: %d", e.AuxA)
		}
	}
}

func TestOutlineEdgesOfBox(t *testing.T) {
	all := OutlineEdges(unitBox(), false)
	visible := OutlineEdges(unitBox(), true)
	if edgeLength(visible) >= edgeLength(all) {
		t.Errorf("hidden-line removal kept %v of %v", edgeLength(visible), edgeLength(all))
	}
}
