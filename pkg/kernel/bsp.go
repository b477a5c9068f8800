package kernel

import (
	"fmt"
	"math/rand"

	"github.com/chazu/facet/pkg/geom"
)

type bspClass int

const (
	bspPos bspClass = iota
	bspNeg
	bspCoplanar
)

// bspNode splits space by the plane n·x = d. faces holds every input
// triangle (or fragment) lying in that plane, in either orientation.
type bspNode struct {
	n     Vector
	d     float64
	faces []Triangle
	pos   *bspNode
	neg   *bspNode
}

// BSP is a binary space partition of a closed mesh. Points on the neg side
// of every leaf-reaching path are inside the solid.
type BSP struct {
	root *bspNode
	pass *Pass
}

// shuffledTriangles returns a copy of tris in a deterministic random order.
func shuffledTriangles(tris []Triangle) []Triangle {
	out := make([]Triangle, len(tris))
	copy(out, tris)
	rng := rand.New(rand.NewSource(0))
	for n := len(out); n > 1; {
		k := rng.Intn(n)
		n--
		out[k], out[n] = out[n], out[k]
	}
	return out
}

// BSPFromMesh builds a BSP of m, allocating its nodes in p. The insertion
// order is a seeded shuffle of m so repeated builds give identical trees.
// An empty mesh gives a BSP with no root, which classifies all of space as
// outside.
func BSPFromMesh(p *Pass, m *Mesh) *BSP {
	b := &BSP{pass: p}
	for _, tr := range shuffledTriangles(m.Triangles) {
		if tr.Normal().Length() < geom.DegenerateNormalEps {
			continue
		}
		poly := []Vector{tr.A, tr.B, tr.C}
		if b.root == nil {
			b.root = b.newNode(tr.Meta, poly)
			continue
		}
		b.root.insertConvex(b, tr.Meta, poly, nil)
	}
	return b
}

func (b *BSP) newNode(meta TriMeta, poly []Vector) *bspNode {
	r := b.pass.bsp.alloc()
	r.n = geom.WithMagnitude(geom.Newell(poly), 1)
	r.d = poly[0].Dot(r.n)
	r.faces = appendFan(r.faces, meta, poly)
	return r
}

// appendFan appends the fan triangulation of the convex polygon poly,
// skipping zero-area pieces.
func appendFan(dst []Triangle, meta TriMeta, poly []Vector) []Triangle {
	for i := 0; i+2 < len(poly); i++ {
		t := Triangle{Meta: meta, A: poly[0], B: poly[i+1], C: poly[i+2]}
		if t.Normal().Length() < geom.DegenerateNormalEps {
			continue
		}
		dst = append(dst, t)
	}
	return dst
}

func polygonArea2(poly []Vector) float64 {
	return geom.Newell(poly).Length()
}

// splitConvex cuts poly by the plane with signed vertex distances dist.
// Vertices within LengthEps of the plane go to both halves.
func splitConvex(poly []Vector, dist []float64) (pos, neg []Vector) {
	for i := range poly {
		j := (i + 1) % len(poly)
		cur, next := poly[i], poly[j]
		dc, dn := dist[i], dist[j]
		switch {
		case dc > geom.LengthEps:
			pos = append(pos, cur)
		case dc < -geom.LengthEps:
			neg = append(neg, cur)
		default:
			pos = append(pos, cur)
			neg = append(neg, cur)
		}
		if (dc > geom.LengthEps && dn < -geom.LengthEps) || (dc < -geom.LengthEps && dn > geom.LengthEps) {
			t := dc / (dc - dn)
			p := cur.Add(next.Sub(cur).MulScalar(t))
			pos = append(pos, p)
			neg = append(neg, p)
		}
	}
	if len(pos) < 3 || polygonArea2(pos) < geom.DegenerateNormalEps {
		pos = nil
	}
	if len(neg) < 3 || polygonArea2(neg) < geom.DegenerateNormalEps {
		neg = nil
	}
	return pos, neg
}

// insertConvex classifies the convex polygon poly. While building (instead
// is nil) fragments that reach an empty child become new nodes. While
// classifying, fragments that reach a leaf are kept or discarded into
// instead according to its FlipNormal/KeepCoplanar policy.
func (nd *bspNode) insertConvex(b *BSP, meta TriMeta, poly []Vector, instead *Mesh) {
	dist := make([]float64, len(poly))
	var posc, negc int
	for i, v := range poly {
		dist[i] = v.Dot(nd.n) - nd.d
		switch {
		case dist[i] > geom.LengthEps:
			posc++
		case dist[i] < -geom.LengthEps:
			negc++
		}
	}

	switch {
	case posc == 0 && negc == 0:
		nd.insertCoplanar(b, meta, poly, instead)
	case negc == 0:
		nd.insertHow(b, bspPos, meta, poly, instead)
	case posc == 0:
		nd.insertHow(b, bspNeg, meta, poly, instead)
	default:
		pos, neg := splitConvex(poly, dist)
		if pos != nil {
			nd.insertHow(b, bspPos, meta, pos, instead)
		}
		if neg != nil {
			nd.insertHow(b, bspNeg, meta, neg, instead)
		}
	}
}

func (nd *bspNode) insertHow(b *BSP, how bspClass, meta TriMeta, poly []Vector, instead *Mesh) {
	var child **bspNode
	switch how {
	case bspPos:
		child = &nd.pos
	case bspNeg:
		child = &nd.neg
	default:
		panic(fmt.Sprintf("kernel: unexpected bsp class %d", how))
	}
	if *child != nil {
		(*child).insertConvex(b, meta, poly, instead)
		return
	}
	if instead == nil {
		*child = b.newNode(meta, poly)
		return
	}

	switch {
	case how == bspPos && !instead.FlipNormal:
		emitPolygon(instead, meta, poly, false)
	case how == bspNeg && instead.FlipNormal:
		emitPolygon(instead, meta, poly, true)
	default:
		instead.atLeastOneDiscarded = true
	}
}

// insertCoplanar handles a polygon lying in the node's plane. The parts
// that overlap one of the node's faces are decided here by orientation;
// the rest continues down the pos side.
func (nd *bspNode) insertCoplanar(b *BSP, meta TriMeta, poly []Vector, instead *Mesh) {
	if instead == nil {
		nd.faces = appendFan(nd.faces, meta, poly)
		return
	}

	pn := geom.Newell(poly)
	pending := [][]Vector{poly}
	for fi := range nd.faces {
		if len(pending) == 0 {
			break
		}
		f := &nd.faces[fi]
		fn := f.Normal()
		if fn.Length() < geom.DegenerateNormalEps {
			continue
		}
		var outside [][]Vector
		for _, piece := range pending {
			inside, out := clipToTriangle(piece, f, geom.WithMagnitude(fn, 1))
			outside = append(outside, out...)
			if inside != nil {
				sameNormal := fn.Dot(pn) > 0
				insertInPlane(instead, meta, inside, sameNormal)
			}
		}
		pending = outside
	}

	for _, piece := range pending {
		nd.insertHow(b, bspPos, meta, piece, instead)
	}
}

// clipToTriangle splits the coplanar convex polygon poly into the part
// inside triangle f and the convex parts outside it.
func clipToTriangle(poly []Vector, f *Triangle, fn Vector) (inside []Vector, outside [][]Vector) {
	inside = poly
	for i := 0; i < 3; i++ {
		a, b := f.Vertex(i), f.Vertex(i+1)
		inward := fn.Cross(b.Sub(a))
		dist := make([]float64, len(inside))
		for k, v := range inside {
			// Positive is inside the triangle.
			dist[k] = inward.Dot(v.Sub(a)) / inward.Length()
		}
		in, out := splitConvex(inside, dist)
		if out != nil {
			outside = append(outside, out)
		}
		inside = in
		if inside == nil {
			return nil, outside
		}
	}
	return inside, outside
}

func insertInPlane(instead *Mesh, meta TriMeta, poly []Vector, sameNormal bool) {
	switch {
	case instead.FlipNormal && !sameNormal && instead.KeepCoplanar:
		emitPolygon(instead, meta, poly, true)
	case !instead.FlipNormal && sameNormal && instead.KeepCoplanar:
		emitPolygon(instead, meta, poly, false)
	default:
		instead.atLeastOneDiscarded = true
	}
}

func emitPolygon(m *Mesh, meta TriMeta, poly []Vector, reverse bool) {
	for _, t := range appendFan(nil, meta, poly) {
		if reverse {
			t = t.Flipped()
		}
		m.Triangles = append(m.Triangles, t)
	}
}

// classifyTriangle runs one triangle through the tree into m.
func (b *BSP) classifyTriangle(m *Mesh, tr *Triangle) {
	poly := []Vector{tr.A, tr.B, tr.C}
	if b.root == nil {
		if m.FlipNormal {
			m.atLeastOneDiscarded = true
			return
		}
		m.addRaw(tr.Meta, tr.A, tr.B, tr.C)
		return
	}
	b.root.insertConvex(b, tr.Meta, poly, m)
}

// ----------------------------------------------------------------------------
// Booleans
// ----------------------------------------------------------------------------

// AddAgainstBSP classifies every triangle of src against bsp and appends
// the surviving pieces to m, using m's FlipNormal/KeepCoplanar policy. A
// triangle that was cut but lost nothing is put back whole; one that lost
// pieces has its survivors simplified.
func (m *Mesh) AddAgainstBSP(src *Mesh, bsp *BSP) {
	for i := range src.Triangles {
		tr := &src.Triangles[i]
		if tr.Normal().Length() < geom.DegenerateNormalEps {
			continue
		}
		pn := len(m.Triangles)
		m.atLeastOneDiscarded = false
		bsp.classifyTriangle(m, tr)

		added := len(m.Triangles) - pn
		if !m.atLeastOneDiscarded && added != 1 {
			m.Triangles = m.Triangles[:pn]
			whole := *tr
			if m.FlipNormal {
				whole = whole.Flipped()
			}
			whole.Tag = 0
			m.Triangles = append(m.Triangles, whole)
		}
		if len(m.Triangles)-pn > 1 {
			m.Simplify(pn)
		}
	}
	m.FlipNormal = false
	m.KeepCoplanar = false
}

// MakeFromUnionOf fills m with the union of a and b. Coplanar faces with
// matching orientation are kept once, from a.
func (m *Mesh) MakeFromUnionOf(a, b *Mesh) {
	p := NewPass()
	defer p.Release()
	bspA := BSPFromMesh(p, a)
	bspB := BSPFromMesh(p, b)

	m.FlipNormal, m.KeepCoplanar = false, false
	m.AddAgainstBSP(b, bspA)

	m.FlipNormal, m.KeepCoplanar = false, true
	m.AddAgainstBSP(a, bspB)
}

// MakeFromDifferenceOf fills m with a minus b.
func (m *Mesh) MakeFromDifferenceOf(a, b *Mesh) {
	p := NewPass()
	defer p.Release()
	bspA := BSPFromMesh(p, a)
	bspB := BSPFromMesh(p, b)

	m.FlipNormal, m.KeepCoplanar = true, true
	m.AddAgainstBSP(b, bspA)

	m.FlipNormal, m.KeepCoplanar = false, false
	m.AddAgainstBSP(a, bspB)
}

// MakeFromAssemblyOf fills m with the triangles of a followed by b.
func (m *Mesh) MakeFromAssemblyOf(a, b *Mesh) {
	m.Triangles = append(m.Triangles, a.Triangles...)
	m.Triangles = append(m.Triangles, b.Triangles...)
}
