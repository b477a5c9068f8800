package sketch

import (
	"fmt"
	"math"

	"github.com/deadsy/sdfx/sdf"

	"github.com/chazu/facet/pkg/geom"
	"github.com/chazu/facet/pkg/handle"
	"github.com/chazu/facet/pkg/kernel"
)

// GroupKind is the operation a group performs.
type GroupKind int

const (
	GroupDrawing3D GroupKind = iota + 1
	GroupDrawingWorkplane
	GroupExtrude
	GroupLathe
	GroupRevolve
	GroupHelix
	GroupTranslate
	GroupRotate
	GroupLinked
)

func (k GroupKind) String() string {
	switch k {
	case GroupDrawing3D:
		return "DRAWING_3D"
	case GroupDrawingWorkplane:
		return "DRAWING_WORKPLANE"
	case GroupExtrude:
		return "EXTRUDE"
	case GroupLathe:
		return "LATHE"
	case GroupRevolve:
		return "REVOLVE"
	case GroupHelix:
		return "HELIX"
	case GroupTranslate:
		return "TRANSLATE"
	case GroupRotate:
		return "ROTATE"
	case GroupLinked:
		return "LINKED"
	default:
		return fmt.Sprintf("GroupKind(%d)", int(k))
	}
}

// needsOperand reports whether groups of kind k derive from OpA.
func (k GroupKind) needsOperand() bool {
	switch k {
	case GroupExtrude, GroupLathe, GroupRevolve, GroupHelix, GroupTranslate, GroupRotate:
		return true
	}
	return false
}

// solid reports whether groups of kind k produce a mesh.
func (k GroupKind) solid() bool {
	return k.needsOperand() || k == GroupLinked
}

// Subtype refines a group kind. The zero value selects the kind's
// default: by-point-ortho for workplanes, one-sided otherwise.
type Subtype int

const (
	SubtypeWorkplaneByPointOrtho Subtype = iota + 1
	SubtypeWorkplaneByLineSegments
	SubtypeOneSided
	SubtypeTwoSided
)

func (s Subtype) String() string {
	switch s {
	case SubtypeWorkplaneByPointOrtho:
		return "WORKPLANE_BY_POINT_ORTHO"
	case SubtypeWorkplaneByLineSegments:
		return "WORKPLANE_BY_LINE_SEGMENTS"
	case SubtypeOneSided:
		return "ONE_SIDED"
	case SubtypeTwoSided:
		return "TWO_SIDED"
	default:
		return fmt.Sprintf("Subtype(%d)", int(s))
	}
}

// CopyAs selects how CopyEntity ties a copy to the group's params.
type CopyAs int

const (
	// CopyNumeric snapshots the source with no live params.
	CopyNumeric CopyAs = iota
	// CopyNTrans translates by Param(0..2) times TimesApplied.
	CopyNTrans
	// CopyNRotTrans rotates by the quaternion Param(3..6), then
	// translates by Param(0..2).
	CopyNRotTrans
	// CopyNRotAA rotates about the axis through Param(0..2) by the half
	// angle Param(3) about direction Param(4..6), TimesApplied times.
	CopyNRotAA
	// CopyNRotAxisTrans is CopyNRotAA plus a shift of Param(7) along the
	// axis per application.
	CopyNRotAxisTrans
)

// Remap copy indices with a fixed meaning. Repeat groups use the
// repetition index below these.
const (
	RemapLast = 1000 + iota
	RemapTop
	RemapBottom
	RemapPtToLine
	RemapLineToFace
	_
	RemapLatheStart
	RemapLatheEnd
	RemapPtToArc
	RemapPtToNormal
	RemapLatheArcCenter
)

// Predef holds the references and orientation a group was created with.
type Predef struct {
	Q       geom.Quaternion
	Origin  handle.Entity
	EntityB handle.Entity
	EntityC handle.Entity
	SwapUV  bool
	NegateU bool
	NegateV bool
}

type refKind int

const (
	refPoint refKind = iota
	refDirection
)

func (k refKind) String() string {
	if k == refPoint {
		return "point"
	}
	return "line or normal"
}

func (k refKind) accepts(e EntityKind) bool {
	if k == refPoint {
		return e.IsPoint()
	}
	return e == KindLineSegment || e.IsNormal()
}

// predefRef is one entity a group reads from its Predef.
type predefRef struct {
	name string
	h    handle.Entity
	kind refKind
}

// predefRefs lists the entities the group's kind reads from Predef.
// Unset optional ones are left out.
func (g *Group) predefRefs() []predefRef {
	var refs []predefRef
	add := func(name string, h handle.Entity, k refKind) {
		if h != handle.NoEntity {
			refs = append(refs, predefRef{name, h, k})
		}
	}
	switch g.Kind {
	case GroupDrawingWorkplane:
		add("origin", g.Predef.Origin, refPoint)
		if g.subtype() == SubtypeWorkplaneByLineSegments {
			add("u line", g.Predef.EntityB, refDirection)
			add("v line", g.Predef.EntityC, refDirection)
		}
	case GroupLathe, GroupRevolve, GroupHelix, GroupRotate:
		add("axis point", g.Predef.Origin, refPoint)
		add("axis direction", g.Predef.EntityB, refDirection)
	}
	return refs
}

type remapKey struct {
	src  handle.Entity
	copy int
}

// RemapEntry records one (source, copy index) to handle assignment.
type RemapEntry struct {
	Source handle.Entity
	Copy   int
	To     handle.Entity
}

// Group is one stage of the regeneration pipeline.
type Group struct {
	H       handle.Group
	Kind    GroupKind
	Subtype Subtype
	Order   int
	OpA     handle.Group
	Name    string
	Predef  Predef

	// ValA is the repeat count of translate and rotate groups.
	ValA      int
	SkipFirst bool
	// Scale applies to linked entities; zero means 1.
	Scale           float64
	ExtrudeDistance float64
	// Translation is the step of a translate group and the placement of
	// a linked group.
	Translation geom.Vector
	// SweepAngle is the total angle of a revolve or helix and the step of
	// a rotate group, in radians.
	SweepAngle float64
	// HelixPitch is the total shift along the axis over a helix.
	HelixPitch float64
	// Segments overrides Settings.ChordSegments when positive.
	Segments    int
	MeshCombine kernel.Combine
	// Color is a hex color; empty picks one from the palette.
	Color    string
	Suppress bool
	// Linked is the document a linked group imports. A linked group may
	// import an SDF solid instead, tessellated with SolidCells marching
	// cubes cells (zero picks the default) on every regeneration.
	Linked     *Document
	Solid      sdf.SDF3
	SolidCells int

	remap      map[remapKey]int
	remapOrder []RemapEntry

	PolyLoops PolyLoops
	LoopErr   error

	ThisMesh    *kernel.Mesh
	RunningMesh *kernel.Mesh
	MeshErr     error
	Inters      bool
	Leaks       bool
	NakedEdges  kernel.EdgeList
	Emphasized  kernel.EdgeList

	tag bool
}

func (g *Group) Handle() handle.Group     { return g.H }
func (g *Group) SetHandle(h handle.Group) { g.H = h }
func (g *Group) Tagged() bool             { return g.tag }
func (g *Group) SetTag(t bool)            { g.tag = t }

// GroupList stores groups by handle.
type GroupList = handle.IDList[Group, *Group, handle.Group]

// WorkplaneEntity returns the workplane entity a workplane group
// generates.
func (g *Group) WorkplaneEntity() handle.Entity { return g.H.Entity(0) }

func (g *Group) subtype() Subtype {
	if g.Subtype != 0 {
		return g.Subtype
	}
	if g.Kind == GroupDrawingWorkplane {
		return SubtypeWorkplaneByPointOrtho
	}
	return SubtypeOneSided
}

// sides returns the TimesApplied of the start and end copies of an
// extrusion or sweep.
func (g *Group) sides() (ai, af int) {
	switch g.subtype() {
	case SubtypeOneSided:
		return 0, 2
	case SubtypeTwoSided:
		return -1, 1
	}
	panic(fmt.Sprintf("sketch: unexpected subtype %v for %v group", g.subtype(), g.Kind))
}

func (g *Group) scale() float64 {
	if g.Scale == 0 {
		return 1
	}
	return g.Scale
}

// Remap returns the handle of copy number copyIndex of src. The first
// call for a pair allocates the next group-local handle; later calls in
// the same regeneration return the same handle.
func (g *Group) Remap(src handle.Entity, copyIndex int) handle.Entity {
	key := remapKey{src, copyIndex}
	if i, ok := g.remap[key]; ok {
		return g.H.Entity(i)
	}
	if g.remap == nil {
		g.remap = make(map[remapKey]int)
	}
	i := len(g.remapOrder)
	h := g.H.Entity(i)
	g.remap[key] = i
	g.remapOrder = append(g.remapOrder, RemapEntry{Source: src, Copy: copyIndex, To: h})
	return h
}

// RemapLookup returns the handle of copy copyIndex of src without
// allocating one.
func (g *Group) RemapLookup(src handle.Entity, copyIndex int) (handle.Entity, bool) {
	i, ok := g.remap[remapKey{src, copyIndex}]
	if !ok {
		return handle.NoEntity, false
	}
	return g.H.Entity(i), true
}

// RemapEntries returns the remap table in allocation order.
func (g *Group) RemapEntries() []RemapEntry {
	out := make([]RemapEntry, len(g.remapOrder))
	copy(out, g.remapOrder)
	return out
}

func (g *Group) resetRemap() {
	g.remap = nil
	g.remapOrder = nil
}

// param returns the handle of the group's i-th param.
func (g *Group) param(i int) handle.Param { return g.H.Param(i) }

// Generate adds the group's params and derived entities to d. Entities of
// the operand group must already be regenerated.
func (g *Group) Generate(d *Document) {
	g.resetRemap()
	switch g.Kind {
	case GroupDrawing3D:
		// Entities come from the group's requests only.
	case GroupDrawingWorkplane:
		g.generateWorkplane(d)
	case GroupExtrude:
		g.generateExtrude(d)
	case GroupLathe:
		g.generateLathe(d)
	case GroupRevolve:
		g.generateRevolve(d, false)
	case GroupHelix:
		g.generateRevolve(d, true)
	case GroupTranslate, GroupRotate:
		g.generateRepeat(d)
	case GroupLinked:
		g.generateLinked(d)
	default:
		panic(fmt.Sprintf("sketch: unexpected group kind %v", g.Kind))
	}
}

func (g *Group) generateWorkplane(d *Document) {
	var q geom.Quaternion
	switch g.subtype() {
	case SubtypeWorkplaneByLineSegments:
		u := geom.WithMagnitude(d.VectorGetNum(g.Predef.EntityB), 1)
		v := d.VectorGetNum(g.Predef.EntityC)
		n := u.Cross(v)
		v = geom.WithMagnitude(n.Cross(u), 1)
		if g.Predef.SwapUV {
			u, v = v, u
		}
		if g.Predef.NegateU {
			u = u.MulScalar(-1)
		}
		if g.Predef.NegateV {
			v = v.MulScalar(-1)
		}
		q = geom.QuaternionFromUV(u, v)
	case SubtypeWorkplaneByPointOrtho:
		q = g.Predef.Q
		if q.Magnitude() == 0 {
			q = geom.IdentityQuaternion
		}
	default:
		panic(fmt.Sprintf("sketch: unexpected workplane subtype %v", g.subtype()))
	}

	normal := newEntity(g.H.Entity(1), KindNormalNCopy, g.H)
	normal.NumNormal = q
	normal.Points[0] = g.H.Entity(2)
	d.Entities.Add(normal)

	point := newEntity(g.H.Entity(2), KindPointNCopy, g.H)
	if g.Predef.Origin != handle.NoEntity {
		point.NumPoint = d.PointGetNum(g.Predef.Origin)
	}
	point.Construction = true
	d.Entities.Add(point)

	wp := newEntity(g.H.Entity(0), KindWorkplane, g.H)
	wp.Normal = normal.H
	wp.Points[0] = point.H
	d.Entities.Add(wp)
}

func (g *Group) generateExtrude(d *Document) {
	n := d.sketchNormal(g.OpA)
	trans := n.MulScalar(g.ExtrudeDistance / 2)
	d.addParam(g.param(0), trans.X)
	d.addParam(g.param(1), trans.Y)
	d.addParam(g.param(2), trans.Z)
	ai, af := g.sides()

	// Any point of the sketch anchors the top and bottom faces.
	pt := handle.NoEntity
	for _, he := range d.entitiesOf(g.OpA) {
		d.CalculateNumerical(he)
		if d.Entity(he).Kind.IsPoint() {
			pt = he
		}
		g.CopyEntity(d, *d.Entity(he), ai, RemapBottom, CopyNTrans)
		g.CopyEntity(d, *d.Entity(he), af, RemapTop, CopyNTrans)
		g.makeExtrusionLines(d, he)
	}
	g.makeExtrusionTopBottomFaces(d, pt)
}

// makeExtrusionLines joins a point's copies with a line and turns a line
// into the side face it sweeps.
func (g *Group) makeExtrusionLines(d *Document, he handle.Entity) {
	src := *d.Entity(he)
	switch {
	case src.Kind.IsPoint():
		en := newEntity(g.Remap(he, RemapPtToLine), KindLineSegment, g.H)
		en.Points[0] = g.Remap(he, RemapTop)
		en.Points[1] = g.Remap(he, RemapBottom)
		en.Construction = src.Construction
		en.Style = src.Style
		d.Entities.Add(en)
	case src.Kind == KindLineSegment:
		a := d.PointGetNum(src.Points[0])
		b := d.PointGetNum(src.Points[1])
		en := newEntity(g.Remap(he, RemapLineToFace), KindFaceXProd, g.H)
		en.Params[0], en.Params[1], en.Params[2] = g.param(0), g.param(1), g.param(2)
		en.NumPoint = a
		en.NumNormal = geom.PureQuaternion(b.Sub(a))
		en.Construction = src.Construction
		en.Style = src.Style
		d.Entities.Add(en)
	}
}

func (g *Group) makeExtrusionTopBottomFaces(d *Document, pt handle.Entity) {
	if pt == handle.NoEntity {
		return
	}
	n := d.sketchNormal(g.OpA)
	for _, remap := range []int{RemapTop, RemapBottom} {
		en := newEntity(g.Remap(handle.NoEntity, remap), KindFaceNormalPt, g.H)
		en.NumNormal = geom.PureQuaternion(n)
		en.Points[0] = g.Remap(pt, remap)
		d.Entities.Add(en)
	}
}

func (g *Group) generateLathe(d *Document) {
	axisPos := d.PointGetNum(g.Predef.Origin)
	axisDir := d.VectorGetNum(g.Predef.EntityB)
	for _, he := range d.entitiesOf(g.OpA) {
		d.CalculateNumerical(he)
		// A full turn ends where it starts, so one copy serves both.
		g.CopyEntity(d, *d.Entity(he), 0, RemapLatheStart, CopyNumeric)
		g.makeLatheCircles(d, he, axisPos, axisDir)
		g.makeLatheSurfacesSelectable(d, he, axisDir)
	}
}

// makeLatheCircles revolves an off-axis point into a full circle.
func (g *Group) makeLatheCircles(d *Document, he handle.Entity, axisPos, axisDir geom.Vector) {
	src := *d.Entity(he)
	if !src.Kind.IsPoint() {
		return
	}
	center := geom.ClosestPointOnLine(src.ActPoint, axisPos, axisDir)
	if src.ActPoint.Sub(center).Length() < geom.LengthEps {
		return
	}
	start := g.Remap(he, RemapLatheStart)
	g.addArc(d, src, center, start, start, axisDir)
}

// addArc adds a numeric center point, a normal along axis and an arc
// from start to end around it. The start point must already exist.
func (g *Group) addArc(d *Document, src Entity, center geom.Vector, start, end handle.Entity, axis geom.Vector) {
	c := newEntity(g.Remap(src.H, RemapLatheArcCenter), KindPointNCopy, g.H)
	c.NumPoint = center
	c.Construction = true
	d.Entities.Add(c)

	u := geom.WithMagnitude(d.PointGetNum(start).Sub(center), 1)
	v := geom.WithMagnitude(axis.Cross(u), 1)
	n := newEntity(g.Remap(src.H, RemapPtToNormal), KindNormalNCopy, g.H)
	n.NumNormal = geom.QuaternionFromUV(u, v)
	n.Points[0] = start
	n.Style = src.Style
	d.Entities.Add(n)

	arc := newEntity(g.Remap(src.H, RemapPtToArc), KindArcOfCircle, g.H)
	arc.Points[0] = c.H
	arc.Points[1] = start
	arc.Points[2] = end
	arc.Normal = n.H
	arc.Construction = src.Construction
	arc.Style = src.Style
	d.Entities.Add(arc)
}

// makeLatheSurfacesSelectable turns a line perpendicular to the axis into
// the planar face it sweeps.
func (g *Group) makeLatheSurfacesSelectable(d *Document, he handle.Entity, axis geom.Vector) {
	src := *d.Entity(he)
	if src.Kind != KindLineSegment {
		return
	}
	a := d.PointGetNum(src.Points[0])
	b := d.PointGetNum(src.Points[1])
	u := geom.WithMagnitude(b.Sub(a), 1)
	if math.Abs(u.Dot(axis)/axis.Length()) >= geom.AngleCosEps {
		return
	}
	v := geom.WithMagnitude(axis.Cross(u), 1)
	en := newEntity(g.Remap(he, RemapLineToFace), KindFaceNormalPt, g.H)
	en.NumNormal = geom.PureQuaternion(u.Cross(v))
	en.Points[0] = src.Points[0]
	en.Construction = src.Construction
	en.Style = src.Style
	d.Entities.Add(en)
}

// generateRevolve handles revolve groups and, with helix set, helix
// groups. The sweep is 2*Param(3) per unit of TimesApplied, so the half
// angle is a quarter of the total over the two units from start to end.
func (g *Group) generateRevolve(d *Document, helix bool) {
	axisPos := d.PointGetNum(g.Predef.Origin)
	axisDir := geom.WithMagnitude(d.VectorGetNum(g.Predef.EntityB), 1)
	d.addParam(g.param(0), axisPos.X)
	d.addParam(g.param(1), axisPos.Y)
	d.addParam(g.param(2), axisPos.Z)
	d.addParam(g.param(3), g.SweepAngle/4)
	d.addParam(g.param(4), axisDir.X)
	d.addParam(g.param(5), axisDir.Y)
	d.addParam(g.param(6), axisDir.Z)
	as := CopyNRotAA
	if helix {
		d.addParam(g.param(7), g.HelixPitch/2)
		as = CopyNRotAxisTrans
	}
	ai, af := g.sides()

	arcAxis := axisDir
	if g.SweepAngle < 0 {
		arcAxis = arcAxis.MulScalar(-1)
	}
	pt := handle.NoEntity
	for _, he := range d.entitiesOf(g.OpA) {
		d.CalculateNumerical(he)
		src := *d.Entity(he)
		if src.Kind.IsPoint() {
			pt = he
		}
		g.CopyEntity(d, src, ai, RemapLatheStart, as)
		g.CopyEntity(d, src, af, RemapLatheEnd, as)

		if src.Kind.IsPoint() {
			start, end := g.Remap(he, RemapLatheStart), g.Remap(he, RemapLatheEnd)
			center := geom.ClosestPointOnLine(src.ActPoint, axisPos, axisDir)
			onAxis := src.ActPoint.Sub(center).Length() < geom.LengthEps
			switch {
			case helix && onAxis:
				en := newEntity(g.Remap(he, RemapPtToLine), KindLineSegment, g.H)
				en.Points[0] = start
				en.Points[1] = end
				en.Construction = src.Construction
				en.Style = src.Style
				d.Entities.Add(en)
			case !helix && !onAxis:
				g.addArc(d, src, center, start, end, arcAxis)
			}
		}
		g.makeLatheSurfacesSelectable(d, he, axisDir)
	}
	g.makeRevolveEndFaces(d, pt, ai, af)
}

func (g *Group) makeRevolveEndFaces(d *Document, pt handle.Entity, ai, af int) {
	if pt == handle.NoEntity {
		return
	}
	n := d.sketchNormal(g.OpA)
	for _, end := range []struct {
		remap, times int
		normal       geom.Vector
	}{
		{RemapLatheEnd, af, n},
		{RemapLatheStart, ai, n.MulScalar(-1)},
	} {
		en := newEntity(g.Remap(handle.NoEntity, end.remap), KindFaceRotNormalPt, g.H)
		for i := 0; i < 7; i++ {
			en.Params[i] = g.param(i)
		}
		en.NumNormal = geom.PureQuaternion(end.normal)
		en.Points[0] = g.Remap(pt, end.remap)
		en.TimesApplied = end.times
		d.Entities.Add(en)
	}
}

// repetitions returns the range of repetition indices of a step and
// repeat group.
func (g *Group) repetitions() (a0, n int) {
	n = g.ValA
	if g.subtype() == SubtypeOneSided && g.SkipFirst {
		a0++
		n++
	}
	return a0, n
}

// timesApplied maps repetition a of n to its multiple of the step.
// Two-sided repeats are centered on the original.
func (g *Group) timesApplied(a, n int) int {
	if g.subtype() == SubtypeOneSided {
		return a * 2
	}
	return a*2 - (n - 1)
}

func remapIndex(a, n int) int {
	if a == n-1 {
		return RemapLast
	}
	return a
}

func (g *Group) generateRepeat(d *Document) {
	op := d.Groups.FindByID(g.OpA)
	g.MeshCombine = op.MeshCombine

	as := CopyNTrans
	if g.Kind == GroupTranslate {
		// Copies are 2*TimesApplied steps apart.
		d.addParam(g.param(0), g.Translation.X/2)
		d.addParam(g.param(1), g.Translation.Y/2)
		d.addParam(g.param(2), g.Translation.Z/2)
	} else {
		center, axis := g.rotationAxis(d)
		d.addParam(g.param(0), center.X)
		d.addParam(g.param(1), center.Y)
		d.addParam(g.param(2), center.Z)
		d.addParam(g.param(3), g.SweepAngle/4)
		d.addParam(g.param(4), axis.X)
		d.addParam(g.param(5), axis.Y)
		d.addParam(g.param(6), axis.Z)
		as = CopyNRotAA
	}

	sources := d.entitiesOf(g.OpA)
	for _, he := range sources {
		d.CalculateNumerical(he)
	}
	a0, n := g.repetitions()
	for a := a0; a < n; a++ {
		for _, he := range sources {
			g.CopyEntity(d, *d.Entity(he), g.timesApplied(a, n), remapIndex(a, n), as)
		}
	}
}

// rotationAxis returns the center and unit axis of a rotate group,
// defaulting to the z axis through the origin.
func (g *Group) rotationAxis(d *Document) (center, axis geom.Vector) {
	axis = geom.V(0, 0, 1)
	if g.Predef.Origin != handle.NoEntity {
		center = d.PointGetNum(g.Predef.Origin)
	}
	if g.Predef.EntityB != handle.NoEntity {
		axis = geom.WithMagnitude(d.VectorGetNum(g.Predef.EntityB), 1)
	}
	return center, axis
}

func (g *Group) generateLinked(d *Document) {
	q := g.Predef.Q
	if q.Magnitude() == 0 {
		q = geom.IdentityQuaternion
	}
	d.addParam(g.param(0), g.Translation.X)
	d.addParam(g.param(1), g.Translation.Y)
	d.addParam(g.param(2), g.Translation.Z)
	d.addParam(g.param(3), q.W)
	d.addParam(g.param(4), q.VX)
	d.addParam(g.param(5), q.VY)
	d.addParam(g.param(6), q.VZ)

	if g.Linked == nil {
		return
	}
	for _, he := range g.Linked.Entities.Handles() {
		g.CopyEntity(d, *g.Linked.Entity(he), 0, 0, CopyNRotTrans)
	}
}

// CopyEntity adds to d a copy of src, transformed as selected by as and
// applied timesApplied times, under the handle Remap(src.H, remap).
// Workplanes are not copied.
func (g *Group) CopyEntity(d *Document, src Entity, timesApplied, remap int, as CopyAs) {
	if src.Kind == KindWorkplane {
		return
	}
	scale := g.scale()
	en := newEntity(g.Remap(src.H, remap), src.Kind, g.H)
	en.ExtraPoints = src.ExtraPoints
	en.TimesApplied = timesApplied
	en.Construction = src.Construction
	en.Style = src.Style
	en.Str = src.Str
	en.ForceHidden = !src.Visible || src.ForceHidden

	setParams := func(n int) {
		for i := 0; i < n; i++ {
			en.Params[i] = g.param(i)
		}
	}
	// Live rotations need the center, the rotation and, for helices, the
	// shift along the axis.
	rotParams := func() {
		if as == CopyNRotAxisTrans {
			setParams(8)
		} else {
			setParams(7)
		}
	}

	switch {
	case src.Kind.IsPoint():
		switch as {
		case CopyNumeric:
			en.Kind = KindPointNCopy
		case CopyNTrans:
			en.Kind = KindPointNTrans
			setParams(3)
		case CopyNRotTrans:
			en.Kind = KindPointNRotTrans
			rotParams()
		case CopyNRotAA:
			en.Kind = KindPointNRotAA
			rotParams()
		case CopyNRotAxisTrans:
			en.Kind = KindPointNRotAxisTrans
			rotParams()
		default:
			panic(fmt.Sprintf("sketch: unexpected copy mode %d", as))
		}
		en.NumPoint = src.ActPoint.MulScalar(scale)

	case src.Kind.IsNormal():
		switch as {
		case CopyNumeric, CopyNTrans:
			en.Kind = KindNormalNCopy
		case CopyNRotTrans:
			en.Kind = KindNormalNRot
		case CopyNRotAA, CopyNRotAxisTrans:
			en.Kind = KindNormalNRotAA
		default:
			panic(fmt.Sprintf("sketch: unexpected copy mode %d", as))
		}
		if en.Kind != KindNormalNCopy {
			for i := 0; i < 4; i++ {
				en.Params[i] = g.param(3 + i)
			}
		}
		en.NumNormal = src.ActNormal
		if scale < 0 {
			en.NumNormal = en.NumNormal.Mirror()
		}
		if src.Points[0] != handle.NoEntity {
			en.Points[0] = g.Remap(src.Points[0], remap)
		}

	case src.Kind.IsDistance():
		en.Kind = KindDistanceNCopy
		en.NumDistance = src.ActDistance * math.Abs(scale)

	case src.Kind.IsFace():
		switch as {
		case CopyNumeric:
			en.Kind = KindFaceNormalPt
		case CopyNTrans:
			en.Kind = KindFaceNTrans
			setParams(3)
		case CopyNRotTrans:
			en.Kind = KindFaceNRotTrans
			rotParams()
		case CopyNRotAA:
			en.Kind = KindFaceNRotAA
			rotParams()
		case CopyNRotAxisTrans:
			en.Kind = KindFaceNRotAxisTrans
			rotParams()
		default:
			panic(fmt.Sprintf("sketch: unexpected copy mode %d", as))
		}
		en.NumPoint = src.ActPoint.MulScalar(scale)
		en.NumNormal = src.ActNormal
		if scale < 0 {
			en.NumNormal = en.NumNormal.Mirror()
		}

	default:
		points, hasNormal, hasDistance := entityInfo(src.Kind, src.ExtraPoints)
		for i := 0; i < points; i++ {
			en.Points[i] = g.Remap(src.Points[i], remap)
		}
		if hasNormal {
			en.Normal = g.Remap(src.Normal, remap)
		}
		if hasDistance {
			en.Distance = g.Remap(src.Distance, remap)
		}
	}
	d.Entities.Add(en)
}
