package sketch

import (
	"errors"
	"fmt"
	"math"

	"github.com/chazu/facet/pkg/geom"
	"github.com/chazu/facet/pkg/handle"
)

var (
	// ErrNotClosed means some curve endpoint has no matching endpoint.
	ErrNotClosed = errors.New("sketch: contour is not closed")
	// ErrNotCoplanar means the curves of a 3d sketch do not share a plane.
	ErrNotCoplanar = errors.New("sketch: contour is not coplanar")
	// ErrUnsupportedCurve means a curve cannot be turned into a polyline.
	ErrUnsupportedCurve = errors.New("sketch: unsupported curve")
)

// PolyLoop is a closed polyline; the last point joins the first.
type PolyLoop struct {
	Points []geom.Vector
	// Sources[i] is the entity the edge from Points[i] came from.
	Sources []handle.Entity
}

// PolyLoops is the piecewise-linear outline of a sketch group.
type PolyLoops struct {
	Loops  []PolyLoop
	Normal geom.Vector
}

type polyPiece struct {
	pts []geom.Vector
	src handle.Entity
}

func (p polyPiece) start() geom.Vector { return p.pts[0] }
func (p polyPiece) end() geom.Vector   { return p.pts[len(p.pts)-1] }
func (p polyPiece) closed() bool       { return len(p.pts) > 2 && geom.Equals(p.start(), p.end()) }

func (p polyPiece) reversed() polyPiece {
	out := polyPiece{pts: make([]geom.Vector, len(p.pts)), src: p.src}
	for i, v := range p.pts {
		out.pts[len(p.pts)-1-i] = v
	}
	return out
}

// assembleLoops chains the group's curves into closed loops.
func (g *Group) assembleLoops(d *Document) {
	g.PolyLoops = PolyLoops{}
	g.LoopErr = nil
	if g.Kind != GroupDrawing3D && g.Kind != GroupDrawingWorkplane {
		return
	}

	var pieces []polyPiece
	for _, he := range d.entitiesOf(g.H) {
		e := d.Entity(he)
		if e.Construction || e.ForceHidden {
			continue
		}
		p, ok, err := d.piecewiseLinear(e, g.Segments)
		if err != nil {
			g.LoopErr = err
			return
		}
		if ok {
			pieces = append(pieces, p)
		}
	}
	if len(pieces) == 0 {
		return
	}

	loops, err := chainPieces(pieces)
	if err != nil {
		g.LoopErr = err
		return
	}

	var n geom.Vector
	if g.Kind == GroupDrawingWorkplane {
		n = d.sketchNormal(g.H)
	} else {
		n = geom.Newell(loops[0].Points)
		if n.Length() < geom.LengthEps {
			g.LoopErr = fmt.Errorf("%w: first loop encloses no area", ErrNotCoplanar)
			return
		}
		n = geom.WithMagnitude(n, 1)
	}
	origin := loops[0].Points[0]
	for _, l := range loops {
		for _, p := range l.Points {
			if math.Abs(p.Sub(origin).Dot(n)) > geom.LengthEps {
				g.LoopErr = fmt.Errorf("%w: point %v is off the plane", ErrNotCoplanar, p)
				return
			}
		}
	}
	g.PolyLoops = PolyLoops{Loops: loops, Normal: n}
}

// piecewiseLinear approximates a curve entity. ok is false for entities
// that contribute nothing to the outline.
func (d *Document) piecewiseLinear(e *Entity, segments int) (p polyPiece, ok bool, err error) {
	chords := func(angle float64) int {
		if segments > 0 {
			k := int(math.Ceil(float64(segments) * math.Abs(angle) / (2 * math.Pi)))
			return max(k, 1)
		}
		return d.Settings.chords(angle)
	}

	switch e.Kind {
	case KindLineSegment:
		a, b := d.PointGetNum(e.Points[0]), d.PointGetNum(e.Points[1])
		if geom.Equals(a, b) {
			return p, false, nil
		}
		return polyPiece{pts: []geom.Vector{a, b}, src: e.H}, true, nil

	case KindCircle:
		r := d.CircleRadius(e.H)
		if r < geom.LengthEps {
			return p, false, nil
		}
		c := d.PointGetNum(e.Points[0])
		q := d.NormalGetNum(e.Normal)
		u, v := q.RotationU(), q.RotationV()
		n := chords(2 * math.Pi)
		pts := make([]geom.Vector, n+1)
		for i := 0; i < n; i++ {
			t := 2 * math.Pi * float64(i) / float64(n)
			pts[i] = c.Add(u.MulScalar(r * math.Cos(t))).Add(v.MulScalar(r * math.Sin(t)))
		}
		pts[n] = pts[0]
		return polyPiece{pts: pts, src: e.H}, true, nil

	case KindArcOfCircle:
		r := d.CircleRadius(e.H)
		if r < geom.LengthEps {
			return p, false, nil
		}
		c := d.PointGetNum(e.Points[0])
		q := d.NormalGetNum(e.Normal)
		u, v := q.RotationU(), q.RotationV()
		start, sweep := d.ArcAngles(e.H)
		n := chords(sweep)
		pts := make([]geom.Vector, n+1)
		// The ends are the endpoints themselves so arcs meet their
		// neighbors exactly.
		pts[0] = d.PointGetNum(e.Points[1])
		for i := 1; i < n; i++ {
			t := start + sweep*float64(i)/float64(n)
			pts[i] = c.Add(u.MulScalar(r * math.Cos(t))).Add(v.MulScalar(r * math.Sin(t)))
		}
		pts[n] = d.PointGetNum(e.Points[2])
		return polyPiece{pts: pts, src: e.H}, true, nil

	case KindCubic:
		if e.ExtraPoints != 0 {
			return p, false, fmt.Errorf("%w: cubic %v has %d extra points", ErrUnsupportedCurve, e.H, e.ExtraPoints)
		}
		var cp [4]geom.Vector
		for i := range cp {
			cp[i] = d.PointGetNum(e.Points[i])
		}
		n := chords(math.Pi)
		pts := make([]geom.Vector, n+1)
		for i := 0; i <= n; i++ {
			pts[i] = bezier(cp, float64(i)/float64(n))
		}
		pts[0], pts[n] = cp[0], cp[3]
		return polyPiece{pts: pts, src: e.H}, true, nil

	case KindCubicPeriodic:
		return p, false, fmt.Errorf("%w: periodic cubic %v", ErrUnsupportedCurve, e.H)
	}
	return p, false, nil
}

func bezier(cp [4]geom.Vector, t float64) geom.Vector {
	s := 1 - t
	return cp[0].MulScalar(s * s * s).
		Add(cp[1].MulScalar(3 * s * s * t)).
		Add(cp[2].MulScalar(3 * s * t * t)).
		Add(cp[3].MulScalar(t * t * t))
}

// chainPieces joins pieces end to end into closed loops. Pieces may be
// used in either direction.
func chainPieces(pieces []polyPiece) ([]PolyLoop, error) {
	var loops []PolyLoop
	used := make([]bool, len(pieces))

	appendPiece := func(l *PolyLoop, p polyPiece) {
		// The last point is the next piece's first.
		for i := 0; i < len(p.pts)-1; i++ {
			l.Points = append(l.Points, p.pts[i])
			l.Sources = append(l.Sources, p.src)
		}
	}

	for i, p := range pieces {
		if used[i] || !p.closed() {
			continue
		}
		used[i] = true
		var l PolyLoop
		appendPiece(&l, p)
		loops = append(loops, l)
	}

	for i := range pieces {
		if used[i] {
			continue
		}
		used[i] = true
		var l PolyLoop
		first := pieces[i].start()
		appendPiece(&l, pieces[i])
		end := pieces[i].end()
		for !geom.Equals(end, first) {
			next := -1
			var np polyPiece
			for j := range pieces {
				if used[j] {
					continue
				}
				switch {
				case geom.Equals(pieces[j].start(), end):
					next, np = j, pieces[j]
				case geom.Equals(pieces[j].end(), end):
					next, np = j, pieces[j].reversed()
				}
				if next >= 0 {
					break
				}
			}
			if next < 0 {
				return nil, fmt.Errorf("%w: nothing meets %v", ErrNotClosed, end)
			}
			used[next] = true
			appendPiece(&l, np)
			end = np.end()
		}
		if len(l.Points) < 3 {
			return nil, fmt.Errorf("%w: degenerate loop at %v", ErrNotClosed, first)
		}
		loops = append(loops, l)
	}
	return loops, nil
}
