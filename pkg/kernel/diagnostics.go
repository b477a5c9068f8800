package kernel

// Watertightness is the result of CheckWatertight.
type Watertightness struct {
	// Naked holds the offending edges: naked ones and ones that pierce
	// another triangle.
	Naked EdgeList
	// Leaks is set when some edge has no unique mate.
	Leaks bool
	// Inters is set when some edge pierces the mesh.
	Inters bool
}

// OK reports whether the mesh is closed and free of self-intersections.
func (w *Watertightness) OK() bool { return !w.Leaks && !w.Inters }

// CheckWatertight snaps m against its own vertices and reports naked and
// self-intersecting edges. m itself is not modified.
func CheckWatertight(m *Mesh) Watertightness {
	p := NewPass()
	defer p.Release()

	k := KdTreeFromMesh(p, m)
	k.SnapToMesh(m)

	var w Watertightness
	w.Inters, w.Leaks = k.MakeCertainEdgesInto(&w.Naked, EdgeNakedOrSelfInter, false, 0)
	if !w.OK() {
		Logger().Warn("mesh is not watertight",
			"nakedEdges", w.Naked.Len(),
			"leaks", w.Leaks,
			"inters", w.Inters)
	}
	return w
}

// OutlineEdges returns the silhouette and face-boundary edges of m, with
// hidden portions removed when removeHidden is set. The view is along -z.
func OutlineEdges(m *Mesh, removeHidden bool) *EdgeList {
	p := NewPass()
	defer p.Release()

	k := KdTreeFromMesh(p, m)
	var sel EdgeList
	k.MakeCertainEdgesInto(&sel, EdgeEmphasized, false, 0)
	k.MakeCertainEdgesInto(&sel, EdgeTurning, false, 0)
	if !removeHidden {
		return &sel
	}
	return k.RemoveHiddenLines(&sel)
}
