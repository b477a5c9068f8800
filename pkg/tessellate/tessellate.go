// Package tessellate turns closed planar loops into solid triangle meshes:
// straight extrusions and sweeps about an axis (lathe, revolve, helix).
// Caps are triangulated with earcut, holes included.
package tessellate

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/rclancey/earcut"

	"github.com/chazu/facet/pkg/geom"
	"github.com/chazu/facet/pkg/kernel"
)

// ErrNoLoops is returned when there is nothing to tessellate.
var ErrNoLoops = errors.New("tessellate: no closed loops")

// Loop is a closed polyline. The last point connects back to the first.
// Faces[i], when present, is the face id of the edge from Points[i] to
// Points[i+1].
type Loop struct {
	Points []geom.Vector
	Faces  []uint32
}

func (l Loop) face(i int, fallback uint32) uint32 {
	if i < len(l.Faces) && l.Faces[i] != 0 {
		return l.Faces[i]
	}
	return fallback
}

// SignedArea returns the loop's area, positive when it winds
// counter-clockwise about n.
func (l Loop) SignedArea(n geom.Vector) float64 {
	return geom.Newell(l.Points).Dot(geom.WithMagnitude(n, 1)) / 2
}

// Reversed returns the loop traversed the other way, keeping each edge's
// face id.
func (l Loop) Reversed() Loop {
	k := len(l.Points)
	out := Loop{Points: make([]geom.Vector, k)}
	for i := range l.Points {
		out.Points[i] = l.Points[k-1-i]
	}
	if len(l.Faces) > 0 {
		out.Faces = make([]uint32, k)
		for i := 0; i < k; i++ {
			// Edge i of the reversed loop is edge k-2-i of the original.
			out.Faces[i] = l.face((2*k-2-i)%k, 0)
		}
	}
	return out
}

// Region is an outer loop, counter-clockwise about the plane normal, with
// its clockwise holes.
type Region struct {
	Outer Loop
	Holes []Loop
}

// Meta carries the metadata stamped onto generated triangles.
type Meta struct {
	Color colorful.Color
	// Face ids of the two caps; Side is used for edges without their own.
	Bottom, Top, Side uint32
}

func (m Meta) tri(face uint32) kernel.TriMeta {
	return kernel.TriMeta{Face: face, Color: m.Color}
}

// ----------------------------------------------------------------------------
// Classification
// ----------------------------------------------------------------------------

type planeBasis struct {
	u, v geom.Vector
}

func newPlaneBasis(n geom.Vector) planeBasis {
	u, v := geom.BasisFor(n)
	return planeBasis{u: u, v: v}
}

func (b planeBasis) project(p geom.Vector) geom.Point2d {
	return geom.Point2d{X: p.Dot(b.u), Y: p.Dot(b.v)}
}

func (b planeBasis) contains(l Loop, p geom.Vector) bool {
	pt := b.project(p)
	inside := false
	k := len(l.Points)
	for i, j := 0, k-1; i < k; j, i = i, i+1 {
		a, c := b.project(l.Points[i]), b.project(l.Points[j])
		if (a.Y > pt.Y) != (c.Y > pt.Y) &&
			pt.X < (c.X-a.X)*(pt.Y-a.Y)/(c.Y-a.Y)+a.X {
			inside = !inside
		}
	}
	return inside
}

// Classify nests loops lying in the plane with normal n into regions.
// A loop inside an even number of other loops is an outer boundary; one
// inside an odd number is a hole of its innermost enclosing outer loop.
// Loops are reoriented as Region requires.
func Classify(loops []Loop, n geom.Vector) ([]Region, error) {
	if len(loops) == 0 {
		return nil, ErrNoLoops
	}
	for i, l := range loops {
		if len(l.Points) < 3 {
			return nil, fmt.Errorf("tessellate: loop %d has %d points", i, len(l.Points))
		}
	}

	order := make([]int, len(loops))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return math.Abs(loops[order[a]].SignedArea(n)) > math.Abs(loops[order[b]].SignedArea(n))
	})

	basis := newPlaneBasis(n)
	depth := make([]int, len(loops))
	parent := make([]int, len(loops))
	for oi, i := range order {
		parent[i] = -1
		// Larger loops come first, so any container is earlier in order.
		for _, j := range order[:oi] {
			if basis.contains(loops[j], samplePoint(loops[i])) {
				depth[i]++
				if parent[i] < 0 || math.Abs(loops[j].SignedArea(n)) < math.Abs(loops[parent[i]].SignedArea(n)) {
					parent[i] = j
				}
			}
		}
	}

	index := make(map[int]int)
	var regions []Region
	for _, i := range order {
		if depth[i]%2 != 0 {
			continue
		}
		outer := loops[i]
		if outer.SignedArea(n) < 0 {
			outer = outer.Reversed()
		}
		index[i] = len(regions)
		regions = append(regions, Region{Outer: outer})
	}
	for _, i := range order {
		if depth[i]%2 == 0 {
			continue
		}
		hole := loops[i]
		if hole.SignedArea(n) > 0 {
			hole = hole.Reversed()
		}
		r := index[parent[i]]
		regions[r].Holes = append(regions[r].Holes, hole)
	}
	return regions, nil
}

// samplePoint returns a point on l for nesting tests. Loops that are not
// nested never touch, so any boundary point will do.
func samplePoint(l Loop) geom.Vector {
	return l.Points[0].Add(l.Points[1]).MulScalar(0.5)
}

// ----------------------------------------------------------------------------
// Caps
// ----------------------------------------------------------------------------

// triangulate returns the cap triangles of r in plane coordinates of n,
// as triples of 3-D points.
func triangulate(r Region, n geom.Vector) ([][3]geom.Vector, error) {
	basis := newPlaneBasis(n)
	var pts []geom.Vector
	var coords []float64
	var holeIndices []int
	add := func(l Loop) {
		for _, p := range l.Points {
			q := basis.project(p)
			coords = append(coords, q.X, q.Y)
			pts = append(pts, p)
		}
	}
	add(r.Outer)
	for _, h := range r.Holes {
		holeIndices = append(holeIndices, len(pts))
		add(h)
	}

	indices, err := earcut.Earcut(coords, holeIndices, 2)
	if err != nil {
		return nil, fmt.Errorf("tessellate: triangulating %d-vertex region: %w", len(pts), err)
	}
	if len(indices)%3 != 0 {
		return nil, fmt.Errorf("tessellate: earcut returned %d indices", len(indices))
	}
	out := make([][3]geom.Vector, 0, len(indices)/3)
	for i := 0; i < len(indices); i += 3 {
		out = append(out, [3]geom.Vector{pts[indices[i]], pts[indices[i+1]], pts[indices[i+2]]})
	}
	return out, nil
}

func addCap(m *kernel.Mesh, r Region, n, normal geom.Vector, xf func(geom.Vector) geom.Vector, meta kernel.TriMeta) error {
	tris, err := triangulate(r, n)
	if err != nil {
		return err
	}
	for _, t := range tris {
		m.AddTriangle(meta, normal, xf(t[0]), xf(t[1]), xf(t[2]))
	}
	return nil
}

// ----------------------------------------------------------------------------
// Extrusion
// ----------------------------------------------------------------------------

// Extrude sweeps the regions, which lie in the plane with normal n, along
// a straight line. The bottom copy is the sketch moved by bottom, the top
// copy the sketch moved by top.
func Extrude(regions []Region, n, bottom, top geom.Vector, meta Meta) (*kernel.Mesh, error) {
	if len(regions) == 0 {
		return nil, ErrNoLoops
	}
	n = geom.WithMagnitude(n, 1)
	dir := top.Sub(bottom)
	if math.Abs(dir.Dot(n)) < geom.LengthEps {
		return nil, fmt.Errorf("tessellate: extrusion direction %v lies in the sketch plane", dir)
	}
	s := 1.0
	if dir.Dot(n) < 0 {
		s = -1
	}

	m := &kernel.Mesh{}
	for _, r := range regions {
		for _, l := range append([]Loop{r.Outer}, r.Holes...) {
			k := len(l.Points)
			for i := 0; i < k; i++ {
				p, q := l.Points[i], l.Points[(i+1)%k]
				out := q.Sub(p).Cross(n)
				m.AddQuad(meta.tri(l.face(i, meta.Side)), out,
					p.Add(bottom), q.Add(bottom), q.Add(top), p.Add(top))
			}
		}
		moveBy := func(d geom.Vector) func(geom.Vector) geom.Vector {
			return func(p geom.Vector) geom.Vector { return p.Add(d) }
		}
		if err := addCap(m, r, n, n.MulScalar(-s), moveBy(bottom), meta.tri(meta.Bottom)); err != nil {
			return nil, err
		}
		if err := addCap(m, r, n, n.MulScalar(s), moveBy(top), meta.tri(meta.Top)); err != nil {
			return nil, err
		}
	}
	kernel.Logger().Debug("extruded regions", "regions", len(regions), "triangles", len(m.Triangles))
	return m, nil
}

// ----------------------------------------------------------------------------
// Sweeps
// ----------------------------------------------------------------------------

// SweepParams describes a rotation about an axis, optionally combined with
// a translation along it.
type SweepParams struct {
	AxisPos geom.Vector
	AxisDir geom.Vector
	// Angle in radians; 2*pi with zero Pitch is a closed lathe.
	Angle float64
	// Pitch is the total translation along AxisDir over the sweep.
	Pitch    float64
	Segments int
}

func (sp SweepParams) closed() bool {
	return math.Abs(sp.Angle-2*math.Pi) < geom.AngleCosEps && math.Abs(sp.Pitch) < geom.LengthEps
}

func (sp SweepParams) at(k int) func(geom.Vector) geom.Vector {
	frac := float64(k) / float64(sp.Segments)
	shift := geom.WithMagnitude(sp.AxisDir, sp.Pitch*frac)
	return func(p geom.Vector) geom.Vector {
		return geom.RotatedAbout(p, sp.AxisPos, sp.AxisDir, sp.Angle*frac).Add(shift)
	}
}

// Sweep rotates the regions, which lie in the plane with normal n, about
// an axis. Open sweeps get caps at both ends. The result is oriented so
// that its enclosed volume is positive.
func Sweep(regions []Region, n geom.Vector, sp SweepParams, meta Meta) (*kernel.Mesh, error) {
	if len(regions) == 0 {
		return nil, ErrNoLoops
	}
	if sp.Segments < 1 {
		return nil, fmt.Errorf("tessellate: sweep needs at least one segment, got %d", sp.Segments)
	}
	if geom.MagSquared(sp.AxisDir) == 0 {
		return nil, errors.New("tessellate: sweep axis has zero length")
	}
	n = geom.WithMagnitude(n, 1)

	m := &kernel.Mesh{}
	for _, r := range regions {
		// The direction the region moves decides which way the side
		// quads face.
		far := r.Outer.Points[0]
		for _, p := range r.Outer.Points {
			if geom.DistanceToLine(p, sp.AxisPos, sp.AxisDir) > geom.DistanceToLine(far, sp.AxisPos, sp.AxisDir) {
				far = p
			}
		}
		tangent := geom.WithMagnitude(sp.AxisDir, 1).Cross(far.Sub(sp.AxisPos))
		if sp.Angle < 0 {
			tangent = tangent.MulScalar(-1)
		}
		s := 1.0
		if tangent.Dot(n) < 0 {
			s = -1
		}

		for _, l := range append([]Loop{r.Outer}, r.Holes...) {
			k := len(l.Points)
			for step := 0; step < sp.Segments; step++ {
				f0, f1 := sp.at(step), sp.at(step+1)
				for i := 0; i < k; i++ {
					p, q := l.Points[i], l.Points[(i+1)%k]
					a, b, c, d := f0(p), f0(q), f1(q), f1(p)
					if s < 0 {
						a, b, c, d = d, c, b, a
					}
					tm := meta.tri(l.face(i, meta.Side))
					addOriented(m, tm, a, b, c)
					addOriented(m, tm, a, c, d)
				}
			}
		}

		if sp.closed() {
			continue
		}
		start := n.MulScalar(-s)
		end := sp.at(sp.Segments)(sp.AxisPos.Add(n.MulScalar(s))).Sub(sp.at(sp.Segments)(sp.AxisPos))
		if err := addCap(m, r, n, start, sp.at(0), meta.tri(meta.Bottom)); err != nil {
			return nil, err
		}
		if err := addCap(m, r, n, end, sp.at(sp.Segments), meta.tri(meta.Top)); err != nil {
			return nil, err
		}
	}

	if m.CalculateVolume() < 0 {
		m.Flip()
	}
	kernel.Logger().Debug("swept regions",
		"regions", len(regions),
		"angle", sp.Angle,
		"pitch", sp.Pitch,
		"triangles", len(m.Triangles))
	return m, nil
}

// addOriented appends a, b, c in that order unless it has no area.
func addOriented(m *kernel.Mesh, meta kernel.TriMeta, a, b, c geom.Vector) {
	m.AddTriangle(meta, b.Sub(a).Cross(c.Sub(b)), a, b, c)
}
