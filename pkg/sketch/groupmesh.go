package sketch

import (
	"fmt"
	"math"

	"github.com/deadsy/sdfx/sdf"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/chazu/facet/pkg/geom"
	"github.com/chazu/facet/pkg/handle"
	"github.com/chazu/facet/pkg/kernel"
	"github.com/chazu/facet/pkg/kernel/sdfx"
	"github.com/chazu/facet/pkg/tessellate"
)

// generateMesh builds the group's own mesh and merges it into the running
// mesh of the groups before it.
func (g *Group) generateMesh(d *Document) {
	log := kernel.Logger()
	g.ThisMesh = &kernel.Mesh{}
	g.MeshErr = nil
	g.Inters, g.Leaks = false, false
	g.NakedEdges = kernel.EdgeList{}
	g.Emphasized = kernel.EdgeList{}

	prev := d.runningBefore(g.Order)
	if !g.Kind.solid() || g.Suppress {
		g.RunningMesh = prev
		return
	}

	m, err := g.buildMesh(d)
	if err != nil {
		g.MeshErr = err
		log.Warn("mesh generation failed", "group", g.H.String(), "kind", g.Kind.String(), "error", err)
		g.RunningMesh = prev
		return
	}
	g.ThisMesh = m
	if m.IsEmpty() {
		g.RunningMesh = prev
		return
	}

	// A step and repeat replaces its operand's contribution, so it merges
	// into what came before the operand.
	base := prev
	if g.Kind == GroupTranslate || g.Kind == GroupRotate {
		base = d.runningBefore(d.Groups.FindByID(g.OpA).Order)
	}
	g.RunningMesh = kernel.CombineMeshes(g.MeshCombine, base, m)

	if d.Settings.CheckWatertight {
		w := kernel.CheckWatertight(g.RunningMesh)
		g.Leaks, g.Inters, g.NakedEdges = w.Leaks, w.Inters, w.Naked
	}
	if d.Settings.FaceEdges {
		p := kernel.NewPass()
		k := kernel.KdTreeFromMesh(p, g.RunningMesh)
		k.MakeCertainEdgesInto(&g.Emphasized, kernel.EdgeEmphasized, false, 0)
		p.Release()
	}
}

func (g *Group) buildMesh(d *Document) (*kernel.Mesh, error) {
	switch g.Kind {
	case GroupExtrude:
		return g.extrudeMesh(d)
	case GroupLathe, GroupRevolve, GroupHelix:
		return g.sweepMesh(d)
	case GroupTranslate, GroupRotate:
		return g.repeatMesh(d)
	case GroupLinked:
		return g.linkedMesh(d)
	}
	panic(fmt.Sprintf("sketch: %v groups have no mesh", g.Kind))
}

// color returns the group's own color, or a palette color picked by the
// group's position among solid groups.
func (g *Group) color(d *Document) colorful.Color {
	if g.Color != "" {
		if c, err := colorful.Hex(g.Color); err == nil {
			return c
		}
		kernel.Logger().Warn("ignoring bad group color", "group", g.H.String(), "color", g.Color)
	}
	i := 0
	for _, o := range d.groupOrder() {
		if o.H == g.H {
			break
		}
		if o.Kind.solid() {
			i++
		}
	}
	return d.Settings.palette(i)
}

// faceID returns the mesh face id for copy copyIndex of src, or zero.
func (g *Group) faceID(src handle.Entity, copyIndex int) uint32 {
	if h, ok := g.RemapLookup(src, copyIndex); ok {
		return uint32(h)
	}
	return 0
}

// operandRegions classifies the loops of the operand sketch, tagging each
// edge with the face its line sweeps into.
func (g *Group) operandRegions(d *Document) ([]tessellate.Region, geom.Vector, error) {
	op := d.Groups.FindByID(g.OpA)
	if op.LoopErr != nil {
		return nil, geom.Vector{}, fmt.Errorf("sketch %v: %w", op.H, op.LoopErr)
	}
	loops := make([]tessellate.Loop, len(op.PolyLoops.Loops))
	for i, pl := range op.PolyLoops.Loops {
		l := tessellate.Loop{Points: pl.Points, Faces: make([]uint32, len(pl.Sources))}
		for k, src := range pl.Sources {
			l.Faces[k] = g.faceID(src, RemapLineToFace)
		}
		loops[i] = l
	}
	n := d.sketchNormal(g.OpA)
	regions, err := tessellate.Classify(loops, n)
	if err != nil {
		return nil, n, fmt.Errorf("sketch %v: %w", op.H, err)
	}
	return regions, n, nil
}

func (g *Group) paramValue(d *Document, i int) float64 { return d.val(g.param(i)) }

func (g *Group) paramVector(d *Document, base int) geom.Vector {
	return geom.V(g.paramValue(d, base), g.paramValue(d, base+1), g.paramValue(d, base+2))
}

func (g *Group) extrudeMesh(d *Document) (*kernel.Mesh, error) {
	regions, n, err := g.operandRegions(d)
	if err != nil {
		return nil, err
	}
	trans := g.paramVector(d, 0)
	ai, af := g.sides()
	return tessellate.Extrude(regions, n,
		trans.MulScalar(float64(ai)), trans.MulScalar(float64(af)),
		tessellate.Meta{
			Color:  g.color(d),
			Bottom: g.faceID(handle.NoEntity, RemapBottom),
			Top:    g.faceID(handle.NoEntity, RemapTop),
		})
}

func (g *Group) segments(d *Document, angle float64) int {
	if g.Segments > 0 {
		return max(int(math.Ceil(float64(g.Segments)*math.Abs(angle)/(2*math.Pi))), 1)
	}
	return d.Settings.chords(angle)
}

func (g *Group) sweepMesh(d *Document) (*kernel.Mesh, error) {
	regions, n, err := g.operandRegions(d)
	if err != nil {
		return nil, err
	}
	meta := tessellate.Meta{Color: g.color(d)}

	if g.Kind == GroupLathe {
		sp := tessellate.SweepParams{
			AxisPos:  d.PointGetNum(g.Predef.Origin),
			AxisDir:  d.VectorGetNum(g.Predef.EntityB),
			Angle:    2 * math.Pi,
			Segments: g.segments(d, 2*math.Pi),
		}
		return tessellate.Sweep(regions, n, sp, meta)
	}

	axisPos := g.paramVector(d, 0)
	theta := g.paramValue(d, 3)
	axisDir := g.paramVector(d, 4)
	var pitch float64
	if g.Kind == GroupHelix {
		pitch = g.paramValue(d, 7)
	}
	ai, af := g.sides()

	// Start the sweep at the first copy of the sketch.
	startAngle := 2 * theta * float64(ai)
	startShift := geom.WithMagnitude(axisDir, pitch*float64(ai))
	place := func(p geom.Vector) geom.Vector {
		return geom.RotatedAbout(p, axisPos, axisDir, startAngle).Add(startShift)
	}
	regions = transformRegions(regions, place)
	n = geom.RotatedAbout(n, geom.Vector{}, axisDir, startAngle)

	angle := 2 * theta * float64(af-ai)
	sp := tessellate.SweepParams{
		AxisPos:  axisPos.Add(startShift),
		AxisDir:  axisDir,
		Angle:    angle,
		Pitch:    pitch * float64(af-ai),
		Segments: g.segments(d, angle),
	}
	meta.Bottom = g.faceID(handle.NoEntity, RemapLatheStart)
	meta.Top = g.faceID(handle.NoEntity, RemapLatheEnd)
	return tessellate.Sweep(regions, n, sp, meta)
}

func transformRegions(regions []tessellate.Region, f func(geom.Vector) geom.Vector) []tessellate.Region {
	loop := func(l tessellate.Loop) tessellate.Loop {
		out := tessellate.Loop{Points: make([]geom.Vector, len(l.Points)), Faces: l.Faces}
		for i, p := range l.Points {
			out.Points[i] = f(p)
		}
		return out
	}
	out := make([]tessellate.Region, len(regions))
	for i, r := range regions {
		out[i].Outer = loop(r.Outer)
		for _, h := range r.Holes {
			out[i].Holes = append(out[i].Holes, loop(h))
		}
	}
	return out
}

// remapFaces points the face ids of m at this group's copies of the faces.
func (g *Group) remapFaces(m *kernel.Mesh, copyIndex int) {
	for i := range m.Triangles {
		t := &m.Triangles[i]
		if t.Meta.Face != 0 {
			t.Meta.Face = g.faceID(handle.Entity(t.Meta.Face), copyIndex)
		}
	}
}

// repeatTransform returns the placement of the copy applied timesApplied
// times.
func (g *Group) repeatTransform(d *Document, timesApplied int) sdf.M44 {
	if g.Kind == GroupTranslate {
		return sdf.Translate3d(g.paramVector(d, 0).MulScalar(float64(timesApplied)))
	}
	c := g.paramVector(d, 0)
	angle := 2 * g.paramValue(d, 3) * float64(timesApplied)
	axis := geom.WithMagnitude(g.paramVector(d, 4), 1)
	return sdf.Translate3d(c).Mul(sdf.Rotate3d(axis, angle)).Mul(sdf.Translate3d(c.MulScalar(-1)))
}

func (g *Group) repeatMesh(d *Document) (*kernel.Mesh, error) {
	op := d.Groups.FindByID(g.OpA)
	if op.ThisMesh == nil || op.ThisMesh.IsEmpty() {
		return &kernel.Mesh{}, nil
	}
	how := kernel.CombineUnion
	if op.MeshCombine == kernel.CombineAssemble {
		how = kernel.CombineAssemble
	}

	out := &kernel.Mesh{}
	a0, n := g.repetitions()
	for a := a0; a < n; a++ {
		c := op.ThisMesh.Transformed(g.repeatTransform(d, g.timesApplied(a, n)))
		g.remapFaces(c, remapIndex(a, n))
		if out.IsEmpty() {
			out = c
			continue
		}
		out = kernel.CombineMeshes(how, out, c)
	}
	return out, nil
}

func (g *Group) linkedMesh(d *Document) (*kernel.Mesh, error) {
	var src *kernel.Mesh
	if g.Solid != nil {
		src = sdfx.FromSDF(g.Solid, g.SolidCells, kernel.TriMeta{Color: g.color(d)})
	} else {
		src = g.Linked.FinalMesh()
	}
	if src.IsEmpty() {
		return &kernel.Mesh{}, nil
	}
	q := geom.QuaternionFrom(g.paramValue(d, 3), g.paramValue(d, 4), g.paramValue(d, 5), g.paramValue(d, 6))
	q = q.WithMagnitude(1)
	xf := sdf.Translate3d(g.paramVector(d, 0))
	if v := q.Vector(); v.Length() > geom.LengthEps {
		angle := 2 * math.Atan2(v.Length(), q.W)
		xf = xf.Mul(sdf.Rotate3d(geom.WithMagnitude(v, 1), angle))
	}
	s := g.scale()
	xf = xf.Mul(sdf.Scale3d(geom.V(s, s, s)))

	m := src.Transformed(xf)
	if s < 0 {
		m.Flip()
	}
	g.remapFaces(m, 0)
	return m, nil
}
