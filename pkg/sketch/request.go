package sketch

import (
	"fmt"

	"github.com/chazu/facet/pkg/handle"
)

// RequestKind is what the user asked for.
type RequestKind int

const (
	RequestWorkplane RequestKind = iota + 1
	RequestDatumPoint
	RequestLineSegment
	RequestCubic
	RequestCubicPeriodic
	RequestCircle
	RequestArcOfCircle
	RequestTTFText
	RequestImage
)

func (k RequestKind) String() string {
	switch k {
	case RequestWorkplane:
		return "WORKPLANE"
	case RequestDatumPoint:
		return "DATUM_POINT"
	case RequestLineSegment:
		return "LINE_SEGMENT"
	case RequestCubic:
		return "CUBIC"
	case RequestCubicPeriodic:
		return "CUBIC_PERIODIC"
	case RequestCircle:
		return "CIRCLE"
	case RequestArcOfCircle:
		return "ARC_OF_CIRCLE"
	case RequestTTFText:
		return "TTF_TEXT"
	case RequestImage:
		return "IMAGE"
	default:
		return fmt.Sprintf("RequestKind(%d)", int(k))
	}
}

// Request is a user-authored curve, point or workplane. It holds no
// numeric state; every regeneration expands it into entities and params.
type Request struct {
	H            handle.Request
	Kind         RequestKind
	Group        handle.Group
	Workplane    handle.Entity
	Construction bool
	// Hidden requests still regenerate; copies of their entities are
	// force-hidden.
	Hidden      bool
	Style       handle.Style
	ExtraPoints int
	Str         string

	tag bool
}

func (r *Request) Handle() handle.Request     { return r.H }
func (r *Request) SetHandle(h handle.Request) { r.H = h }
func (r *Request) Tagged() bool               { return r.tag }
func (r *Request) SetTag(t bool)              { r.tag = t }

// RequestList stores requests by handle.
type RequestList = handle.IDList[Request, *Request, handle.Request]

// Local indices of the entities and params a request generates.
const (
	requestPointParam    = 16
	requestNormalEntity  = 32
	requestNormalParam   = 32
	requestDistEntity    = 64
	requestDistanceParam = 64
)

// requestInfo maps a request kind to the entity it generates (zero for a
// bare datum point) and that entity's sub-entities.
func requestInfo(k RequestKind, extraPoints int) (kind EntityKind, points int, hasNormal, hasDistance bool) {
	switch k {
	case RequestWorkplane:
		kind = KindWorkplane
	case RequestDatumPoint:
		return 0, 1, false, false
	case RequestLineSegment:
		kind = KindLineSegment
	case RequestCubic:
		kind = KindCubic
	case RequestCubicPeriodic:
		kind = KindCubicPeriodic
	case RequestCircle:
		kind = KindCircle
	case RequestArcOfCircle:
		kind = KindArcOfCircle
	case RequestTTFText:
		kind = KindTTFText
	case RequestImage:
		kind = KindImage
	default:
		panic(fmt.Sprintf("sketch: unexpected request kind %v", k))
	}
	points, hasNormal, hasDistance = entityInfo(kind, extraPoints)
	return kind, points, hasNormal, hasDistance
}

// PointParam returns the handle of coordinate k of the i-th point of r.
func PointParam(r handle.Request, i, k int) handle.Param {
	return r.Param(requestPointParam + 3*i + k)
}

// DistanceParam returns the handle of the distance param of r.
func DistanceParam(r handle.Request) handle.Param { return r.Param(requestDistanceParam) }

// requestEntityKind returns the kind of the entity r generates at local
// index i, and false if r generates none there.
func requestEntityKind(r *Request, i int) (EntityKind, bool) {
	kind, points, hasNormal, hasDistance := requestInfo(r.Kind, r.ExtraPoints)
	first := 1
	if kind == 0 {
		first = 0
	}
	switch {
	case i == 0 && kind != 0:
		return kind, true
	case i >= first && i < first+points:
		if r.Workplane != handle.FreeIn3D {
			return KindPointIn2D, true
		}
		return KindPointIn3D, true
	case i == requestNormalEntity && hasNormal:
		if r.Workplane != handle.FreeIn3D {
			return KindNormalIn2D, true
		}
		return KindNormalIn3D, true
	case i == requestDistEntity && hasDistance:
		return KindDistance, true
	}
	return 0, false
}

// Generate adds the entities and params of r to d: the request's own
// entity as Entity(0), its points from Entity(1) (Entity(0) for a datum
// point), its normal as Entity(32) and its distance as Entity(64).
func (r *Request) Generate(d *Document) {
	kind, points, hasNormal, hasDistance := requestInfo(r.Kind, r.ExtraPoints)

	e := newEntity(r.H.Entity(0), kind, r.Group)
	e.ExtraPoints = r.ExtraPoints
	e.Style = r.Style
	e.Workplane = r.Workplane
	e.Construction = r.Construction
	e.Visible = !r.Hidden
	e.Str = r.Str

	first := 1
	if kind == 0 {
		first = 0
	}
	for i := 0; i < points; i++ {
		p := newEntity(r.H.Entity(first+i), KindPointIn3D, r.Group)
		p.Workplane = r.Workplane
		p.Style = r.Style
		p.Construction = r.Construction
		coords := 3
		if r.Workplane != handle.FreeIn3D {
			p.Kind = KindPointIn2D
			coords = 2
		}
		for k := 0; k < coords; k++ {
			p.Params[k] = d.addParam(PointParam(r.H, i, k), 0)
		}
		d.Entities.Add(p)
		e.Points[i] = p.H
	}
	if hasNormal {
		n := newEntity(r.H.Entity(requestNormalEntity), KindNormalIn3D, r.Group)
		n.Workplane = r.Workplane
		n.Style = r.Style
		n.Construction = r.Construction
		if r.Workplane == handle.FreeIn3D {
			// Identity orientation until the solver says otherwise.
			n.Params[0] = d.addParam(r.H.Param(requestNormalParam), 1)
			for k := 1; k < 4; k++ {
				n.Params[k] = d.addParam(r.H.Param(requestNormalParam+k), 0)
			}
		} else {
			n.Kind = KindNormalIn2D
		}
		// Only says where the normal is drawn.
		n.Points[0] = e.Points[0]
		d.Entities.Add(n)
		e.Normal = n.H
	}
	if hasDistance {
		dist := newEntity(r.H.Entity(requestDistEntity), KindDistance, r.Group)
		dist.Workplane = r.Workplane
		dist.Style = r.Style
		dist.Params[0] = d.addParam(DistanceParam(r.H), 0)
		d.Entities.Add(dist)
		e.Distance = dist.H
	}
	if kind != 0 {
		d.Entities.Add(e)
	}
}
