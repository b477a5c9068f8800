package kernel

import "fmt"

// Edge is a line segment with two auxiliary integers. Hidden-line removal
// uses AuxB as a front/back marker; emphasized edges carry face ids.
type Edge struct {
	A, B Vector
	AuxA int  `json:"auxA"`
	AuxB int  `json:"auxB"`
	Tag  bool `json:"-"`
}

// EdgeList is an unordered collection of edges.
type EdgeList struct {
	Edges []Edge `json:"edges"`
}

// AddEdge appends the segment a->b.
func (l *EdgeList) AddEdge(a, b Vector, auxA, auxB int) {
	l.Edges = append(l.Edges, Edge{A: a, B: b, AuxA: auxA, AuxB: auxB})
}

// RemoveTagged drops every edge whose Tag is set.
func (l *EdgeList) RemoveTagged() {
	keep := l.Edges[:0]
	for _, e := range l.Edges {
		if !e.Tag {
			keep = append(keep, e)
		}
	}
	l.Edges = keep
}

// Len returns the number of edges.
func (l *EdgeList) Len() int { return len(l.Edges) }

// EdgeKind selects which edges MakeCertainEdgesInto reports.
type EdgeKind int

const (
	// EdgeNakedOrSelfInter reports edges without exactly one mate and edges
	// that pierce another triangle.
	EdgeNakedOrSelfInter EdgeKind = iota
	// EdgeSelfInter reports only piercing edges.
	EdgeSelfInter
	// EdgeTurning reports silhouette edges for a view along -z.
	EdgeTurning
	// EdgeEmphasized reports edges between triangles of different faces.
	EdgeEmphasized
)

func (k EdgeKind) String() string {
	switch k {
	case EdgeNakedOrSelfInter:
		return "naked-or-self-inter"
	case EdgeSelfInter:
		return "self-inter"
	case EdgeTurning:
		return "turning"
	case EdgeEmphasized:
		return "emphasized"
	default:
		return fmt.Sprintf("EdgeKind(%d)", int(k))
	}
}
