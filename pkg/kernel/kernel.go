// Package kernel is the triangle-mesh geometry kernel. It stores meshes as
// triangle soups, combines them with a BSP-tree Boolean engine, and
// analyzes them with a kd-tree (vertex snapping, naked/self-intersecting
// edge detection, silhouette and face-boundary edges, hidden-line removal).
//
// All operations are synchronous and deterministic: trees are built from a
// seeded shuffle, live in a Pass arena for the duration of one operation,
// and are discarded afterwards.
package kernel

import "fmt"

// Combine selects how a group's mesh is merged into the running mesh.
type Combine int

const (
	CombineUnion      Combine = iota // keep the outside of both solids
	CombineDifference                // subtract the new solid
	CombineAssemble                  // concatenate without interaction
)

func (c Combine) String() string {
	switch c {
	case CombineUnion:
		return "union"
	case CombineDifference:
		return "difference"
	case CombineAssemble:
		return "assemble"
	default:
		return fmt.Sprintf("Combine(%d)", int(c))
	}
}

// CombineMeshes returns a new mesh holding running combined with this.
func CombineMeshes(how Combine, running, this *Mesh) *Mesh {
	out := &Mesh{}
	switch how {
	case CombineUnion:
		out.MakeFromUnionOf(running, this)
	case CombineDifference:
		out.MakeFromDifferenceOf(running, this)
	case CombineAssemble:
		out.MakeFromAssemblyOf(running, this)
	default:
		panic(fmt.Sprintf("kernel: unexpected combine mode %v", how))
	}
	Logger().Debug("combined meshes",
		"how", how.String(),
		"running", len(running.Triangles),
		"this", len(this.Triangles),
		"result", len(out.Triangles))
	return out
}
