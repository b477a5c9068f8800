package sketch

import (
	"fmt"

	"github.com/chazu/facet/pkg/handle"
)

// ---------------------------------------------------------------------------
// Geometric validation (warnings on the last regeneration)
// ---------------------------------------------------------------------------

// validateGeometry reports problems found while regenerating: sketches
// that do not close, meshes that failed or came out empty, and running
// meshes that leak or intersect themselves.
func validateGeometry(d *Document) []ValidationError {
	var warnings []ValidationError
	warnings = append(warnings, validateLoops(d)...)
	warnings = append(warnings, validateMeshes(d)...)
	return warnings
}

// validateLoops warns about sketches whose curves could not be joined.
// Only sketches used by a solid matter.
func validateLoops(d *Document) []ValidationError {
	used := make(map[handle.Group]bool)
	for _, g := range d.Groups.All() {
		switch g.Kind {
		case GroupExtrude, GroupLathe, GroupRevolve, GroupHelix:
			used[g.OpA] = true
		}
	}

	var warnings []ValidationError
	for h, g := range d.Groups.All() {
		if g.LoopErr == nil || !used[h] {
			continue
		}
		warnings = append(warnings, ValidationError{
			Group:    h,
			Message:  fmt.Sprintf("sketch outline: %v", g.LoopErr),
			Severity: SeverityWarning,
		})
	}
	return warnings
}

// validateMeshes warns about solid groups whose meshes failed, came out
// empty, or are not watertight.
func validateMeshes(d *Document) []ValidationError {
	var warnings []ValidationError
	warn := func(g *Group, format string, args ...any) {
		warnings = append(warnings, ValidationError{
			Group:    g.H,
			Message:  fmt.Sprintf(format, args...),
			Severity: SeverityWarning,
		})
	}

	for _, g := range d.groupOrder() {
		if !g.Kind.solid() || g.Suppress || g.ThisMesh == nil {
			continue
		}
		switch {
		case g.MeshErr != nil:
			warn(g, "mesh failed: %v", g.MeshErr)
			continue
		case g.ThisMesh.IsEmpty():
			warn(g, "%s group produced an empty mesh", g.Kind)
			continue
		}
		if g.Leaks {
			warn(g, "mesh is not closed: %d naked edges", g.NakedEdges.Len())
		}
		if g.Inters {
			warn(g, "mesh intersects itself")
		}
	}
	return warnings
}
