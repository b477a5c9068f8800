package kernel

import (
	"math"

	"github.com/deadsy/sdfx/sdf"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/chazu/facet/pkg/geom"
)

// Vector is re-exported so callers of the kernel rarely need geom.
type Vector = geom.Vector

// TriMeta is the per-triangle metadata carried through Booleans.
type TriMeta struct {
	Face  uint32         `json:"face"`
	Color colorful.Color `json:"color"`
}

// Triangle is an oriented triangle; its outward normal follows the
// right-hand rule on A, B, C.
type Triangle struct {
	Meta    TriMeta `json:"meta"`
	A, B, C Vector
	Tag     int `json:"-"`
}

// Normal returns the unnormalized normal (B-A)x(C-B).
func (t *Triangle) Normal() Vector {
	return t.B.Sub(t.A).Cross(t.C.Sub(t.B))
}

// Area returns the triangle's area.
func (t *Triangle) Area() float64 {
	return t.Normal().Length() / 2
}

// Vertex returns A, B or C for i = 0, 1, 2.
func (t *Triangle) Vertex(i int) Vector {
	switch i % 3 {
	case 0:
		return t.A
	case 1:
		return t.B
	default:
		return t.C
	}
}

// Flipped returns the triangle with reversed winding.
func (t Triangle) Flipped() Triangle {
	t.A, t.C = t.C, t.A
	return t
}

// MinAltitude returns the smallest of the three altitudes.
func (t *Triangle) MinAltitude() float64 {
	altA := geom.DistanceToLine(t.A, t.B, t.C.Sub(t.B))
	altB := geom.DistanceToLine(t.B, t.C, t.A.Sub(t.C))
	altC := geom.DistanceToLine(t.C, t.A, t.B.Sub(t.A))
	return math.Min(altA, math.Min(altB, altC))
}

// IsDegenerate reports whether any vertex lies on the opposite edge.
func (t *Triangle) IsDegenerate() bool {
	return geom.OnLineSegment(t.A, t.B, t.C, geom.LengthEps) ||
		geom.OnLineSegment(t.B, t.A, t.C, geom.LengthEps) ||
		geom.OnLineSegment(t.C, t.A, t.B, geom.LengthEps)
}

// ContainsPoint reports whether p projects inside the triangle along its
// own normal.
func (t *Triangle) ContainsPoint(p Vector) bool {
	if t.MinAltitude() < geom.LengthEps {
		return false
	}
	return t.ContainsPointProjd(geom.WithMagnitude(t.Normal(), 1), p)
}

// ContainsPointProjd reports whether p projects inside the triangle when
// viewed along n. Boundary points count as inside.
func (t *Triangle) ContainsPointProjd(n, p Vector) bool {
	ab, bc, ca := t.B.Sub(t.A), t.C.Sub(t.B), t.A.Sub(t.C)

	noAB := n.Cross(ab)
	if noAB.Dot(p) < noAB.Dot(t.A)-geom.LengthEps {
		return false
	}
	noBC := n.Cross(bc)
	if noBC.Dot(p) < noBC.Dot(t.B)-geom.LengthEps {
		return false
	}
	noCA := n.Cross(ca)
	if noCA.Dot(p) < noCA.Dot(t.C)-geom.LengthEps {
		return false
	}
	return true
}

// ----------------------------------------------------------------------------
// Mesh
// ----------------------------------------------------------------------------

// Mesh is a triangle soup. FlipNormal and KeepCoplanar are the policy used
// while the mesh is being filled from a BSP classification.
type Mesh struct {
	Triangles []Triangle `json:"triangles"`

	FlipNormal   bool `json:"-"`
	KeepCoplanar bool `json:"-"`

	atLeastOneDiscarded bool
}

// AddTriangle appends a, b, c oriented so that its normal agrees with n.
// Triangles whose normal is numerically zero are dropped.
func (m *Mesh) AddTriangle(meta TriMeta, n, a, b, c Vector) {
	np := b.Sub(a).Cross(c.Sub(b))
	if np.Length() < geom.DegenerateNormalEps {
		return
	}
	if np.Dot(n) > 0 {
		m.addRaw(meta, a, b, c)
	} else {
		m.addRaw(meta, c, b, a)
	}
}

// AddTriangleRaw appends a, b, c in the given order.
func (m *Mesh) AddTriangleRaw(meta TriMeta, a, b, c Vector) {
	m.addRaw(meta, a, b, c)
}

func (m *Mesh) addRaw(meta TriMeta, a, b, c Vector) {
	m.Triangles = append(m.Triangles, Triangle{Meta: meta, A: a, B: b, C: c})
}

// AddQuad appends the quad a, b, c, d as two triangles facing n.
func (m *Mesh) AddQuad(meta TriMeta, n, a, b, c, d Vector) {
	m.AddTriangle(meta, n, a, b, c)
	m.AddTriangle(meta, n, a, c, d)
}

// Append copies every triangle of o into m.
func (m *Mesh) Append(o *Mesh) {
	m.Triangles = append(m.Triangles, o.Triangles...)
}

// Clone returns a deep copy of m without the classification policy.
func (m *Mesh) Clone() *Mesh {
	out := &Mesh{Triangles: make([]Triangle, len(m.Triangles))}
	copy(out.Triangles, m.Triangles)
	return out
}

// IsEmpty reports whether m holds no triangles.
func (m *Mesh) IsEmpty() bool { return len(m.Triangles) == 0 }

// Flip reverses the winding of every triangle.
func (m *Mesh) Flip() {
	for i := range m.Triangles {
		m.Triangles[i] = m.Triangles[i].Flipped()
	}
}

// CalculateVolume returns the signed volume enclosed by m. It is positive
// for a closed mesh with outward normals.
func (m *Mesh) CalculateVolume() float64 {
	var vol float64
	for i := range m.Triangles {
		t := &m.Triangles[i]
		vol += t.A.Dot(t.B.Cross(t.C))
	}
	return vol / 6
}

// BoundingBox returns the axis-aligned bounds of m.
func (m *Mesh) BoundingBox() sdf.Box3 {
	if len(m.Triangles) == 0 {
		return sdf.Box3{}
	}
	lo := geom.V(geom.VeryPositive, geom.VeryPositive, geom.VeryPositive)
	hi := geom.V(geom.VeryNegative, geom.VeryNegative, geom.VeryNegative)
	for i := range m.Triangles {
		for j := 0; j < 3; j++ {
			v := m.Triangles[i].Vertex(j)
			lo = geom.V(math.Min(lo.X, v.X), math.Min(lo.Y, v.Y), math.Min(lo.Z, v.Z))
			hi = geom.V(math.Max(hi.X, v.X), math.Max(hi.Y, v.Y), math.Max(hi.Z, v.Z))
		}
	}
	return sdf.Box3{Min: lo, Max: hi}
}

// Transformed returns a copy of m with every vertex mapped through the
// rigid transform t.
func (m *Mesh) Transformed(t sdf.M44) *Mesh {
	out := &Mesh{Triangles: make([]Triangle, len(m.Triangles))}
	for i, tr := range m.Triangles {
		tr.A = t.MulPosition(tr.A)
		tr.B = t.MulPosition(tr.B)
		tr.C = t.MulPosition(tr.C)
		out.Triangles[i] = tr
	}
	return out
}

// ----------------------------------------------------------------------------
// Simplify
// ----------------------------------------------------------------------------

// Simplify merges the triangles from index start onward into fewer,
// larger triangles. Coplanar neighbors sharing metadata are grown into
// convex polygons that are then fan-triangulated. If a merged polygon
// turns out non-convex the range is left untouched.
func (m *Mesh) Simplify(start int) {
	if start >= len(m.Triangles) {
		return
	}
	tris := m.Triangles[start:]
	tagged := make([]bool, len(tris))
	for i := range tris {
		if tris[i].MinAltitude() < geom.LengthEps {
			tagged[i] = true
		}
	}

	var out []Triangle
	for {
		seed := -1
		for i := range tris {
			if !tagged[i] {
				seed = i
				break
			}
		}
		if seed < 0 {
			break
		}
		tagged[seed] = true
		tr := tris[seed]
		meta := tr.Meta
		n := geom.WithMagnitude(tr.Normal(), 1)

		conv := []Vector{tr.A, tr.B, tr.C}
	grow:
		for {
			for j := 0; j < len(conv); j++ {
				a := conv[wrap(j-1, len(conv))]
				b := conv[j]
				d := conv[wrap(j+1, len(conv))]
				e := conv[wrap(j+2, len(conv))]

				c, k, ok := findReverseEdge(tris, tagged, meta, n, d, b)
				if !ok {
					continue
				}

				bDot := b.Sub(a).Cross(c.Sub(b)).Dot(n)
				bDot /= math.Min(b.Sub(a).Length(), c.Sub(b).Length())
				dDot := d.Sub(c).Cross(e.Sub(d)).Dot(n)
				dDot /= math.Min(d.Sub(c).Length(), e.Sub(d).Length())

				switch {
				case math.Abs(bDot) < geom.LengthEps && math.Abs(dDot) < geom.LengthEps:
					conv[wrap(j+1, len(conv))] = c
					conv = append(conv[:j], conv[j+1:]...)
				case math.Abs(bDot) < geom.LengthEps && dDot > 0:
					conv[j] = c
				case math.Abs(dDot) < geom.LengthEps && bDot > 0:
					conv[wrap(j+1, len(conv))] = c
				case bDot > 0 && dDot > 0:
					conv = append(conv[:j+1], append([]Vector{c}, conv[j+1:]...)...)
				default:
					continue
				}
				tagged[k] = true
				continue grow
			}
			break
		}

		for i := range conv {
			a := conv[wrap(i-1, len(conv))]
			b := conv[i]
			c := conv[wrap(i+1, len(conv))]
			ab, bc := b.Sub(a), c.Sub(b)
			bDot := ab.Cross(bc).Dot(n) / math.Min(ab.Length(), bc.Length())
			if bDot < 0 {
				Logger().Warn("simplify produced a non-convex polygon; keeping input",
					"vertices", len(conv))
				return
			}
		}

		for i := 0; i+2 < len(conv); i++ {
			t := Triangle{Meta: meta, A: conv[0], B: conv[i+1], C: conv[i+2]}
			if t.MinAltitude() > geom.LengthEps {
				out = append(out, t)
			}
		}
	}

	m.Triangles = append(m.Triangles[:start], out...)
}

// findReverseEdge looks for an untagged triangle with the same metadata and
// normal that has the directed edge a->b, returning its third vertex.
func findReverseEdge(tris []Triangle, tagged []bool, meta TriMeta, n, a, b Vector) (Vector, int, bool) {
	for k := range tris {
		if tagged[k] || tris[k].Meta != meta {
			continue
		}
		t := &tris[k]
		if geom.WithMagnitude(t.Normal(), 1).Dot(n) < 1-geom.AngleCosEps {
			continue
		}
		for i := 0; i < 3; i++ {
			if geom.Equals(t.Vertex(i), a) && geom.Equals(t.Vertex(i+1), b) {
				return t.Vertex(i + 2), k, true
			}
		}
	}
	return Vector{}, -1, false
}

func wrap(i, n int) int {
	return ((i % n) + n) % n
}
