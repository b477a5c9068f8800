// Package sdfx bridges kernel meshes and the github.com/deadsy/sdfx CAD
// library. Linked groups import sdfx solids through FromSDF; finished
// meshes go out as STL.
package sdfx

import (
	"fmt"

	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"

	"github.com/chazu/facet/pkg/kernel"
)

// DefaultMeshCells controls marching cubes tessellation resolution.
const DefaultMeshCells = 200

// FromSDF tessellates s with marching cubes into a kernel mesh. Every
// triangle carries meta. cells <= 0 selects DefaultMeshCells.
func FromSDF(s sdf.SDF3, cells int, meta kernel.TriMeta) *kernel.Mesh {
	if cells <= 0 {
		cells = DefaultMeshCells
	}
	renderer := render.NewMarchingCubesUniform(cells)
	triangles := render.ToTriangles(s, renderer)

	m := &kernel.Mesh{}
	for _, tri := range triangles {
		m.AddTriangle(meta, tri.Normal(), tri[0], tri[1], tri[2])
	}
	kernel.Logger().Debug("tessellated sdf", "cells", cells, "triangles", len(m.Triangles))
	return m
}

// Triangles converts m to sdfx triangles, preserving winding.
func Triangles(m *kernel.Mesh) []*sdf.Triangle3 {
	out := make([]*sdf.Triangle3, 0, len(m.Triangles))
	for i := range m.Triangles {
		t := &m.Triangles[i]
		out = append(out, &sdf.Triangle3{t.A, t.B, t.C})
	}
	return out
}

// SaveSTL writes m to path as a binary STL file.
func SaveSTL(path string, m *kernel.Mesh) error {
	if m.IsEmpty() {
		return fmt.Errorf("save %s: mesh is empty", path)
	}
	if err := render.SaveSTL(path, Triangles(m)); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}
