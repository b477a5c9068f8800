package kernel

import "github.com/chazu/facet/pkg/geom"

// Box returns a closed, outward-facing mesh of the axis-aligned box
// spanning lo to hi. Each side gets its own face id, starting at
// meta.Face.
func Box(meta TriMeta, lo, hi Vector) *Mesh {
	m := &Mesh{}
	c := func(x, y, z int) Vector {
		pick := func(i int, a, b float64) float64 {
			if i == 0 {
				return a
			}
			return b
		}
		return geom.V(pick(x, lo.X, hi.X), pick(y, lo.Y, hi.Y), pick(z, lo.Z, hi.Z))
	}
	sides := []struct {
		n    Vector
		quad [4]Vector
	}{
		{geom.V(-1, 0, 0), [4]Vector{c(0, 0, 0), c(0, 0, 1), c(0, 1, 1), c(0, 1, 0)}},
		{geom.V(1, 0, 0), [4]Vector{c(1, 0, 0), c(1, 1, 0), c(1, 1, 1), c(1, 0, 1)}},
		{geom.V(0, -1, 0), [4]Vector{c(0, 0, 0), c(1, 0, 0), c(1, 0, 1), c(0, 0, 1)}},
		{geom.V(0, 1, 0), [4]Vector{c(0, 1, 0), c(0, 1, 1), c(1, 1, 1), c(1, 1, 0)}},
		{geom.V(0, 0, -1), [4]Vector{c(0, 0, 0), c(0, 1, 0), c(1, 1, 0), c(1, 0, 0)}},
		{geom.V(0, 0, 1), [4]Vector{c(0, 0, 1), c(1, 0, 1), c(1, 1, 1), c(0, 1, 1)}},
	}
	for i, s := range sides {
		fm := meta
		fm.Face = meta.Face + uint32(i)
		m.AddQuad(fm, s.n, s.quad[0], s.quad[1], s.quad[2], s.quad[3])
	}
	return m
}
