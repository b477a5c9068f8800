package kernel

import (
	"math"

	"github.com/chazu/facet/pkg/geom"
)

// kdNode is either an interior node splitting axis which at c, or a leaf
// holding triangles. A triangle straddling the split lives in both
// children.
type kdNode struct {
	which int
	c     float64
	gt    *kdNode
	lt    *kdNode
	tris  []*Triangle
}

func (n *kdNode) isLeaf() bool { return n.gt == nil || n.lt == nil }

// KdTree indexes copies of a mesh's triangles for proximity queries. The
// tree owns its triangles; snapping edits them in place.
type KdTree struct {
	root   *kdNode
	pass   *Pass
	owned  []*Triangle
	tokens int
}

// KdTreeFromMesh builds a kd-tree over a copy of m's triangles in p.
func KdTreeFromMesh(p *Pass, m *Mesh) *KdTree {
	shuffled := shuffledTriangles(m.Triangles)
	k := &KdTree{pass: p, owned: make([]*Triangle, len(shuffled))}
	for i := range shuffled {
		shuffled[i].Tag = 0
		k.owned[i] = &shuffled[i]
	}
	list := make([]*Triangle, len(k.owned))
	copy(list, k.owned)
	k.root = k.build(list)
	Logger().Debug("built kd-tree", "triangles", len(list), "nodes", p.kd.count)
	return k
}

func straddles(t *Triangle, axis int, c float64) (lt, gt bool) {
	for j := 0; j < 3; j++ {
		e := geom.Element(t.Vertex(j), axis)
		if e < c+geom.KdTreeEps {
			lt = true
		}
		if e > c-geom.KdTreeEps {
			gt = true
		}
	}
	return lt, gt
}

func (k *KdTree) build(tris []*Triangle) *kdNode {
	ret := k.pass.kd.alloc()
	if len(tris) == 0 {
		return ret
	}

	var split, badness [3]float64
	for i := 0; i < 3; i++ {
		for _, t := range tris {
			split[i] += geom.Element(t.A, i) + geom.Element(t.B, i) + geom.Element(t.C, i)
		}
		split[i] /= float64(len(tris) * 3)

		var ltc, gtc int
		for _, t := range tris {
			lt, gt := straddles(t, i, split[i])
			if lt {
				ltc++
			}
			if gt {
				gtc++
			}
		}
		badness[i] = math.Pow(float64(ltc), 4) + math.Pow(float64(gtc), 4)
	}

	which := 2
	switch {
	case badness[0] < badness[1] && badness[0] < badness[2]:
		which = 0
	case badness[1] < badness[2]:
		which = 1
	}

	var ltl, gtl []*Triangle
	for _, t := range tris {
		lt, gt := straddles(t, which, split[which])
		if lt {
			ltl = append(ltl, t)
		}
		if gt {
			gtl = append(gtl, t)
		}
	}

	allc := len(tris)
	if allc < 3 || allc == len(gtl) || allc == len(ltl) {
		ret.tris = tris
		return ret
	}
	ret.which = which
	ret.c = split[which]
	ret.gt = k.build(gtl)
	ret.lt = k.build(ltl)
	return ret
}

// nextToken returns a tag value no triangle in the tree carries yet.
func (k *KdTree) nextToken() int {
	k.tokens++
	return k.tokens
}

// AddTriangle inserts t (owned by the tree from now on) into every leaf
// whose region it touches.
func (k *KdTree) AddTriangle(t *Triangle) {
	k.owned = append(k.owned, t)
	k.root.addTriangle(t)
}

func (n *kdNode) addTriangle(t *Triangle) {
	if n.isLeaf() {
		n.tris = append(n.tris, t)
		return
	}
	lt, gt := straddles(t, n.which, n.c)
	if lt {
		n.lt.addTriangle(t)
	}
	if gt {
		n.gt.addTriangle(t)
	}
}

// ListTrianglesInto appends one copy of each triangle in the tree to m.
func (k *KdTree) ListTrianglesInto(m *Mesh) {
	token := k.nextToken()
	k.root.listTriangles(m, token)
}

func (n *kdNode) listTriangles(m *Mesh, token int) {
	if !n.isLeaf() {
		n.gt.listTriangles(m, token)
		n.lt.listTriangles(m, token)
		return
	}
	for _, t := range n.tris {
		if t.Tag == token {
			continue
		}
		t.Tag = token
		out := *t
		out.Tag = 0
		m.Triangles = append(m.Triangles, out)
	}
}

// ----------------------------------------------------------------------------
// Snapping
// ----------------------------------------------------------------------------

// SnapToVertex splits every triangle that has v in the interior of one of
// its edges, so that v becomes a vertex of the mesh. New triangles are
// appended to extras; vertices within LengthEps of v are set to v exactly.
func (k *KdTree) SnapToVertex(v Vector, extras *Mesh) {
	k.root.snapToVertex(v, extras)
}

func (n *kdNode) snapToVertex(v Vector, extras *Mesh) {
	if !n.isLeaf() {
		vc := geom.Element(v, n.which)
		if vc < n.c+geom.KdTreeEps {
			n.lt.snapToVertex(v, extras)
		}
		if vc > n.c-geom.KdTreeEps {
			n.gt.snapToVertex(v, extras)
		}
		return
	}

	for _, tr := range n.tris {
		if tr.IsDegenerate() {
			continue
		}
		if !inBoundingBox(tr, v) {
			continue
		}
		switch {
		case geom.Equals(v, tr.A):
			tr.A = v
		case geom.Equals(v, tr.B):
			tr.B = v
		case geom.Equals(v, tr.C):
			tr.C = v
		case geom.OnLineSegment(v, tr.A, tr.B, geom.LengthEps):
			extras.addRaw(tr.Meta, tr.A, v, tr.C)
			tr.A = v
		case geom.OnLineSegment(v, tr.B, tr.C, geom.LengthEps):
			extras.addRaw(tr.Meta, tr.B, v, tr.A)
			tr.B = v
		case geom.OnLineSegment(v, tr.C, tr.A, geom.LengthEps):
			extras.addRaw(tr.Meta, tr.C, v, tr.B)
			tr.C = v
		}
	}
}

func inBoundingBox(tr *Triangle, v Vector) bool {
	for i := 0; i < 3; i++ {
		a, b, c := geom.Element(tr.A, i), geom.Element(tr.B, i), geom.Element(tr.C, i)
		e := geom.Element(v, i)
		if e < math.Min(a, math.Min(b, c))-geom.KdTreeEps {
			return false
		}
		if e > math.Max(a, math.Max(b, c))+geom.KdTreeEps {
			return false
		}
	}
	return true
}

// SnapToMesh snaps the tree's triangles to every vertex of m.
func (k *KdTree) SnapToMesh(m *Mesh) {
	for i := range m.Triangles {
		tr := &m.Triangles[i]
		if tr.IsDegenerate() {
			continue
		}
		for j := 0; j < 3; j++ {
			var extras Mesh
			k.SnapToVertex(tr.Vertex(j), &extras)
			for e := range extras.Triangles {
				t := extras.Triangles[e]
				k.AddTriangle(&t)
			}
		}
	}
}

// ----------------------------------------------------------------------------
// Edge analysis
// ----------------------------------------------------------------------------

type edgeOnInfo struct {
	count          int
	frontFacing    bool
	intersectsMesh bool
	tr             *Triangle
}

// findEdgeOn counts the triangles carrying the reversed edge b->a and
// detects triangles that the segment pierces. token marks triangles already
// visited through another leaf.
func (n *kdNode) findEdgeOn(a, b Vector, token int, coplanarIsInter bool, info *edgeOnInfo) {
	if !n.isLeaf() {
		ac, bc := geom.Element(a, n.which), geom.Element(b, n.which)
		if ac < n.c+geom.KdTreeEps || bc < n.c+geom.KdTreeEps {
			n.lt.findEdgeOn(a, b, token, coplanarIsInter, info)
		}
		if ac > n.c-geom.KdTreeEps || bc > n.c-geom.KdTreeEps {
			n.gt.findEdgeOn(a, b, token, coplanarIsInter, info)
		}
		return
	}

	for _, tr := range n.tris {
		if tr.Tag == token {
			continue
		}
		tr.Tag = token

		switch {
		case hasEdge(tr, b, a):
			info.count++
			info.tr = tr
			info.frontFacing = tr.Normal().Z > geom.LengthEps
		case hasEdge(tr, a, b):
		default:
			if piercesTriangle(tr, a, b, coplanarIsInter) {
				info.intersectsMesh = true
			}
		}
	}
}

func hasEdge(tr *Triangle, a, b Vector) bool {
	for i := 0; i < 3; i++ {
		if geom.Equals(tr.Vertex(i), a) && geom.Equals(tr.Vertex(i+1), b) {
			return true
		}
	}
	return false
}

func piercesTriangle(tr *Triangle, a, b Vector, coplanarIsInter bool) bool {
	n := geom.WithMagnitude(tr.Normal(), 1)
	d := tr.A.Dot(n)
	pa, pb := a.Dot(n)-d, b.Dot(n)-d
	if math.Abs(pa) <= geom.LengthEps || math.Abs(pb) <= geom.LengthEps || pa*pb >= 0 {
		return false
	}
	if !tr.ContainsPointProjd(b.Sub(a), a) {
		return false
	}
	if coplanarIsInter {
		return true
	}
	p, ok := geom.IntersectPlaneLine(n, d, a, b)
	if !ok {
		return false
	}
	// A crossing on one of the triangle's edges is two coplanar triangles
	// meeting, not a piercing.
	for i := 0; i < 3; i++ {
		va, vb := tr.Vertex(i), tr.Vertex(i+1)
		if geom.DistanceToLine(p, va, vb.Sub(va)) < geom.LengthEps {
			return false
		}
	}
	return true
}

// MakeCertainEdgesInto appends edges of the requested kind to sel, tagging
// them with auxA. inter reports a self-intersection and leaky a naked edge;
// both are only meaningful for the NakedOrSelfInter and SelfInter kinds.
func (k *KdTree) MakeCertainEdgesInto(sel *EdgeList, how EdgeKind, coplanarIsInter bool, auxA int) (inter, leaky bool) {
	var m Mesh
	k.ListTrianglesInto(&m)

	for i := range m.Triangles {
		tr := &m.Triangles[i]
		for j := 0; j < 3; j++ {
			a, b := tr.Vertex(j), tr.Vertex(j+1)
			var info edgeOnInfo
			k.root.findEdgeOn(a, b, k.nextToken(), coplanarIsInter, &info)

			switch how {
			case EdgeNakedOrSelfInter:
				if info.count != 1 || info.intersectsMesh {
					sel.AddEdge(a, b, auxA, 0)
				}
				if info.count != 1 {
					leaky = true
				}
				if info.intersectsMesh {
					inter = true
				}
			case EdgeSelfInter:
				if info.intersectsMesh {
					sel.AddEdge(a, b, auxA, 0)
					inter = true
				}
			case EdgeTurning:
				if tr.Normal().Z < geom.LengthEps && info.count == 1 && info.frontFacing {
					sel.AddEdge(a, b, auxA, 0)
				}
			case EdgeEmphasized:
				if info.count == 1 && tr.Meta.Face != info.tr.Meta.Face && vectorLess(a, b) {
					sel.AddEdge(a, b, auxA, 0)
				}
			}
		}
	}
	return inter, leaky
}

// vectorLess orders vectors lexicographically by x, y, z. Components
// within geom.LengthEps compare equal, so an edge and its mate agree on
// which one is kept even when their endpoints are not bit-identical.
func vectorLess(a, b Vector) bool {
	switch {
	case math.Abs(a.X-b.X) > geom.LengthEps:
		return a.X < b.X
	case math.Abs(a.Y-b.Y) > geom.LengthEps:
		return a.Y < b.Y
	case math.Abs(a.Z-b.Z) > geom.LengthEps:
		return a.Z < b.Z
	default:
		return false
	}
}

// ----------------------------------------------------------------------------
// Hidden lines
// ----------------------------------------------------------------------------

// SplitLinesAgainstTriangle cuts the edges in sel where tr could hide them,
// then removes the pieces tr hides from a viewer looking down -z. Only
// front-facing triangles occlude.
func SplitLinesAgainstTriangle(sel *EdgeList, tr *Triangle) {
	tn := geom.WithMagnitude(tr.Normal(), 1)
	if tn.Z <= geom.LengthEps {
		return
	}
	td := tn.Dot(tr.A)

	n := len(sel.Edges)
	for i := 0; i < n; i++ {
		se := &sel.Edges[i]
		da, db := se.A.Dot(tn)-td, se.B.Dot(tn)-td
		if (da < -geom.LengthEps && db > geom.LengthEps) || (db < -geom.LengthEps && da > geom.LengthEps) {
			m, ok := geom.IntersectPlaneLine(tn, td, se.A, se.B)
			if !ok {
				continue
			}
			se.Tag = true
			a, b, auxA := se.A, se.B, se.AuxA
			sel.AddEdge(m, a, auxA, 0)
			sel.AddEdge(m, b, auxA, 0)
		}
	}
	sel.RemoveTagged()

	// Pieces in front of or on the plane cannot be hidden by tr.
	for i := range sel.Edges {
		se := &sel.Edges[i]
		mid := se.A.Add(se.B).MulScalar(0.5)
		if mid.Dot(tn)-td > -geom.LengthEps {
			se.AuxB = 1
		} else {
			se.AuxB = 0
		}
	}

	var ns [3]geom.Point2d
	var ds [3]float64
	for i := 0; i < 3; i++ {
		a, b := geom.ProjectXy(tr.Vertex(i)), geom.ProjectXy(tr.Vertex(i+1))
		ns[i] = b.Minus(a).Normal()
		ds[i] = ns[i].Dot(a)
	}

	for i := 0; i < 3; i++ {
		n := len(sel.Edges)
		for j := 0; j < n; j++ {
			se := &sel.Edges[j]
			if se.AuxB != 0 {
				continue
			}
			pa, pb := geom.ProjectXy(se.A), geom.ProjectXy(se.B)
			da, db := ns[i].Dot(pa)-ds[i], ns[i].Dot(pb)-ds[i]
			if (da < -geom.LengthEps && db > geom.LengthEps) || (db < -geom.LengthEps && da > geom.LengthEps) {
				t := da / (da - db)
				m := se.A.Add(se.B.Sub(se.A).MulScalar(t))
				se.Tag = true
				a, b, auxA, auxB := se.A, se.B, se.AuxA, se.AuxB
				sel.AddEdge(a, m, auxA, auxB)
				sel.AddEdge(m, b, auxA, auxB)
			}
		}
		sel.RemoveTagged()
	}

	for i := range sel.Edges {
		se := &sel.Edges[i]
		if se.AuxB != 0 {
			continue
		}
		mid := geom.ProjectXy(se.A.Add(se.B).MulScalar(0.5))
		outside := false
		for k := 0; k < 3; k++ {
			if ns[k].Dot(mid)-ds[k] > geom.LengthEps {
				outside = true
				break
			}
		}
		if !outside {
			se.Tag = true
		}
	}
	sel.RemoveTagged()
}

// OcclusionTestLine clips orig against every triangle that could hide it
// and appends the visible pieces to sel.
func (k *KdTree) OcclusionTestLine(orig Edge, sel *EdgeList) {
	var pieces EdgeList
	pieces.AddEdge(orig.A, orig.B, orig.AuxA, 0)
	k.root.occlusionTestLine(orig, &pieces, k.nextToken())
	for _, e := range pieces.Edges {
		sel.AddEdge(e.A, e.B, e.AuxA, 0)
	}
}

func (n *kdNode) occlusionTestLine(orig Edge, sel *EdgeList, token int) {
	if !n.isLeaf() {
		ac, bc := geom.Element(orig.A, n.which), geom.Element(orig.B, n.which)
		// Occluders may be anywhere along the view axis.
		if ac < n.c+geom.KdTreeEps || bc < n.c+geom.KdTreeEps || n.which == 2 {
			n.lt.occlusionTestLine(orig, sel, token)
		}
		if ac > n.c-geom.KdTreeEps || bc > n.c-geom.KdTreeEps || n.which == 2 {
			n.gt.occlusionTestLine(orig, sel, token)
		}
		return
	}
	for _, tr := range n.tris {
		if tr.Tag == token {
			continue
		}
		tr.Tag = token
		SplitLinesAgainstTriangle(sel, tr)
	}
}

// RemoveHiddenLines returns the visible parts of edges as seen from +z.
func (k *KdTree) RemoveHiddenLines(edges *EdgeList) *EdgeList {
	out := &EdgeList{}
	for _, e := range edges.Edges {
		k.OcclusionTestLine(e, out)
	}
	return out
}
