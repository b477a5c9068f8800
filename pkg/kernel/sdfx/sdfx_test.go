package sdfx

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/facet/pkg/geom"
	"github.com/chazu/facet/pkg/kernel"
)

func TestFromSDFBox(t *testing.T) {
	box, err := sdf.Box3D(v3.Vec{X: 100, Y: 50, Z: 25}, 0)
	if err != nil {
		t.Fatalf("Box3D: %v", err)
	}
	mesh := FromSDF(box, 64, kernel.TriMeta{Face: 3})
	if mesh.IsEmpty() {
		t.Fatal("mesh is empty")
	}
	for _, tr := range mesh.Triangles {
		if tr.Meta.Face != 3 {
			t.Fatalf("triangle meta = %+v, want face 3", tr.Meta)
		}
	}

	// Marching cubes rounds the corners a little; the enclosed volume
	// should still be close to the box's.
	want := 100.0 * 50 * 25
	if v := mesh.CalculateVolume(); math.Abs(v-want)/want > 0.05 {
		t.Errorf("volume = %v, want about %v", v, want)
	}

	bb := mesh.BoundingBox()
	if bb.Min.X < -51 || bb.Max.X > 51 {
		t.Errorf("bounding box x = [%v, %v], want about [-50, 50]", bb.Min.X, bb.Max.X)
	}
}

func TestFromSDFCylinderIsPositive(t *testing.T) {
	cyl, err := sdf.Cylinder3D(50, 10, 0)
	if err != nil {
		t.Fatalf("Cylinder3D: %v", err)
	}
	mesh := FromSDF(cyl, 48, kernel.TriMeta{})
	if mesh.IsEmpty() {
		t.Fatal("mesh is empty")
	}
	if v := mesh.CalculateVolume(); v <= 0 {
		t.Errorf("volume = %v, want positive (outward normals)", v)
	}
}

func TestTrianglesPreservesWinding(t *testing.T) {
	mesh := kernel.Box(kernel.TriMeta{}, geom.V(0, 0, 0), geom.V(1, 1, 1))
	tris := Triangles(mesh)
	if len(tris) != len(mesh.Triangles) {
		t.Fatalf("got %d triangles, want %d", len(tris), len(mesh.Triangles))
	}
	for i, tri := range tris {
		got := geom.WithMagnitude(tri.Normal(), 1)
		want := geom.WithMagnitude(mesh.Triangles[i].Normal(), 1)
		if !geom.EqualsTol(got, want, 1e-9) {
			t.Errorf("triangle %d normal = %v, want %v", i, got, want)
		}
	}
}

func TestSaveSTL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "box.stl")
	mesh := kernel.Box(kernel.TriMeta{}, geom.V(0, 0, 0), geom.V(1, 1, 1))
	if err := SaveSTL(path, mesh); err != nil {
		t.Fatalf("SaveSTL failed: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	// Binary STL: 80-byte header, count, 50 bytes per triangle.
	if want := int64(84 + 50*12); info.Size() != want {
		t.Errorf("file size = %d, want %d", info.Size(), want)
	}

	if err := SaveSTL(path, &kernel.Mesh{}); err == nil {
		t.Error("expected error for empty mesh")
	}
}
