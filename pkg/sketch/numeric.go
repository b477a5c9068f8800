package sketch

import (
	"fmt"
	"math"

	"github.com/chazu/facet/pkg/geom"
	"github.com/chazu/facet/pkg/handle"
)

// Entity returns the entity with handle h. It panics if there is none.
func (d *Document) Entity(h handle.Entity) *Entity { return d.Entities.FindByID(h) }

// Param returns the param with handle h. It panics if there is none.
func (d *Document) Param(h handle.Param) *Param { return d.Params.FindByID(h) }

func (d *Document) val(h handle.Param) float64 { return d.Params.FindByID(h).Val }

func (d *Document) paramVector(e *Entity, base int) geom.Vector {
	return geom.V(d.val(e.Params[base]), d.val(e.Params[base+1]), d.val(e.Params[base+2]))
}

func (d *Document) paramQuaternion(e *Entity, base int) geom.Quaternion {
	return geom.QuaternionFrom(d.val(e.Params[base]), d.val(e.Params[base+1]),
		d.val(e.Params[base+2]), d.val(e.Params[base+3]))
}

// axisAngle returns the rotation stored as half angle Params[base] about
// axis Params[base+1:base+4], applied TimesApplied times.
func (d *Document) axisAngle(e *Entity, base int) geom.Quaternion {
	theta := float64(e.TimesApplied) * d.val(e.Params[base])
	axis := geom.V(d.val(e.Params[base+1]), d.val(e.Params[base+2]), d.val(e.Params[base+3]))
	return geom.AxisAngle(axis, theta)
}

// PointGetNum returns the position of point entity h.
func (d *Document) PointGetNum(h handle.Entity) geom.Vector {
	return d.pointNum(d.Entity(h))
}

func (d *Document) pointNum(e *Entity) geom.Vector {
	switch e.Kind {
	case KindPointIn3D:
		return d.paramVector(e, 0)
	case KindPointIn2D:
		wp := d.Entity(e.Workplane)
		u, v := d.workplaneBasis(wp)
		origin := d.PointGetNum(wp.Points[0])
		return origin.Add(u.MulScalar(d.val(e.Params[0]))).Add(v.MulScalar(d.val(e.Params[1])))
	case KindPointNTrans:
		return e.NumPoint.Add(d.paramVector(e, 0).MulScalar(float64(e.TimesApplied)))
	case KindPointNRotTrans:
		q := d.paramQuaternion(e, 3)
		return q.Rotate(e.NumPoint).Add(d.paramVector(e, 0))
	case KindPointNRotAA:
		offset := d.paramVector(e, 0)
		return d.axisAngle(e, 3).Rotate(e.NumPoint.Sub(offset)).Add(offset)
	case KindPointNRotAxisTrans:
		offset := d.paramVector(e, 0)
		axis := geom.V(d.val(e.Params[4]), d.val(e.Params[5]), d.val(e.Params[6]))
		displace := geom.WithMagnitude(axis, d.val(e.Params[7])).MulScalar(float64(e.TimesApplied))
		return d.axisAngle(e, 3).Rotate(e.NumPoint.Sub(offset)).Add(offset).Add(displace)
	case KindPointNCopy:
		return e.NumPoint
	}
	panic(fmt.Sprintf("sketch: %v is not a point", e.Kind))
}

// NormalGetNum returns the orientation of normal entity h.
func (d *Document) NormalGetNum(h handle.Entity) geom.Quaternion {
	return d.normalNum(d.Entity(h))
}

func (d *Document) normalNum(e *Entity) geom.Quaternion {
	switch e.Kind {
	case KindNormalIn3D:
		return d.paramQuaternion(e, 0)
	case KindNormalIn2D:
		wp := d.Entity(e.Workplane)
		return d.NormalGetNum(wp.Normal)
	case KindNormalNRot:
		return d.paramQuaternion(e, 0).Times(e.NumNormal)
	case KindNormalNRotAA:
		return d.axisAngle(e, 0).Times(e.NumNormal)
	case KindNormalNCopy:
		return e.NumNormal
	}
	panic(fmt.Sprintf("sketch: %v is not a normal", e.Kind))
}

// DistanceGetNum returns the value of distance entity h.
func (d *Document) DistanceGetNum(h handle.Entity) float64 {
	e := d.Entity(h)
	switch e.Kind {
	case KindDistance:
		return d.val(e.Params[0])
	case KindDistanceNCopy:
		return e.NumDistance
	}
	panic(fmt.Sprintf("sketch: %v is not a distance", e.Kind))
}

// FaceGetNormalNum returns the unit normal of face entity h.
func (d *Document) FaceGetNormalNum(h handle.Entity) geom.Vector {
	e := d.Entity(h)
	var r geom.Vector
	switch e.Kind {
	case KindFaceNormalPt, KindFaceNTrans:
		r = e.NumNormal.Vector()
	case KindFaceXProd:
		r = d.paramVector(e, 0).Cross(e.NumNormal.Vector())
	case KindFaceNRotTrans:
		r = d.paramQuaternion(e, 3).Rotate(e.NumNormal.Vector())
	case KindFaceNRotAA, KindFaceRotNormalPt, KindFaceNRotAxisTrans:
		r = d.axisAngle(e, 3).Rotate(e.NumNormal.Vector())
	default:
		panic(fmt.Sprintf("sketch: %v is not a face", e.Kind))
	}
	return geom.WithMagnitude(r, 1)
}

// FaceGetPointNum returns a point on the plane of face entity h.
func (d *Document) FaceGetPointNum(h handle.Entity) geom.Vector {
	e := d.Entity(h)
	switch e.Kind {
	case KindFaceNormalPt, KindFaceRotNormalPt:
		if e.Points[0] == handle.NoEntity {
			// Numeric copy.
			return e.NumPoint
		}
		return d.PointGetNum(e.Points[0])
	case KindFaceXProd:
		return e.NumPoint
	case KindFaceNTrans:
		return e.NumPoint.Add(d.paramVector(e, 0).MulScalar(float64(e.TimesApplied)))
	case KindFaceNRotTrans:
		return d.paramQuaternion(e, 3).Rotate(e.NumPoint).Add(d.paramVector(e, 0))
	case KindFaceNRotAA:
		offset := d.paramVector(e, 0)
		return d.axisAngle(e, 3).Rotate(e.NumPoint.Sub(offset)).Add(offset)
	case KindFaceNRotAxisTrans:
		offset := d.paramVector(e, 0)
		axis := geom.V(d.val(e.Params[4]), d.val(e.Params[5]), d.val(e.Params[6]))
		displace := geom.WithMagnitude(axis, d.val(e.Params[7])).MulScalar(float64(e.TimesApplied))
		return d.axisAngle(e, 3).Rotate(e.NumPoint.Sub(offset)).Add(offset).Add(displace)
	}
	panic(fmt.Sprintf("sketch: %v is not a face", e.Kind))
}

// VectorGetNum returns the direction of a line segment (first point minus
// second) or the n axis of a normal.
func (d *Document) VectorGetNum(h handle.Entity) geom.Vector {
	e := d.Entity(h)
	switch {
	case e.Kind == KindLineSegment:
		return d.PointGetNum(e.Points[0]).Sub(d.PointGetNum(e.Points[1]))
	case e.Kind.IsNormal():
		return d.normalNum(e).RotationN()
	}
	panic(fmt.Sprintf("sketch: %v has no direction", e.Kind))
}

// WorkplaneGetOffset returns the origin of workplane h.
func (d *Document) WorkplaneGetOffset(h handle.Entity) geom.Vector {
	return d.PointGetNum(d.Entity(h).Points[0])
}

func (d *Document) workplaneBasis(wp *Entity) (u, v geom.Vector) {
	q := d.NormalGetNum(wp.Normal)
	return q.RotationU(), q.RotationV()
}

// CircleRadius returns the radius of a circle or arc.
func (d *Document) CircleRadius(h handle.Entity) float64 {
	e := d.Entity(h)
	switch e.Kind {
	case KindCircle:
		return math.Abs(d.DistanceGetNum(e.Distance))
	case KindArcOfCircle:
		return d.PointGetNum(e.Points[1]).Sub(d.PointGetNum(e.Points[0])).Length()
	}
	panic(fmt.Sprintf("sketch: %v is not a circle", e.Kind))
}

// ArcAngles returns the start angle of arc h in its normal's u,v basis and
// the counter-clockwise sweep to its end point, in (0, 2*pi]. An arc whose
// end meets its start is a full circle.
func (d *Document) ArcAngles(h handle.Entity) (start, sweep float64) {
	e := d.Entity(h)
	if e.Kind != KindArcOfCircle {
		panic(fmt.Sprintf("sketch: %v is not an arc", e.Kind))
	}
	q := d.NormalGetNum(e.Normal)
	u, v := q.RotationU(), q.RotationV()
	c := d.PointGetNum(e.Points[0])
	pa := d.PointGetNum(e.Points[1]).Sub(c)
	pb := d.PointGetNum(e.Points[2]).Sub(c)
	start = math.Atan2(pa.Dot(v), pa.Dot(u))
	end := math.Atan2(pb.Dot(v), pb.Dot(u))
	sweep = end - start
	for sweep <= geom.AngleCosEps {
		sweep += 2 * math.Pi
	}
	for sweep > 2*math.Pi+geom.AngleCosEps {
		sweep -= 2 * math.Pi
	}
	return start, sweep
}

// CalculateNumerical caches the resolved point, normal and distance of
// entity h in its Act fields.
func (d *Document) CalculateNumerical(h handle.Entity) {
	e := d.Entity(h)
	switch {
	case e.Kind.IsPoint():
		e.ActPoint = d.pointNum(e)
	case e.Kind.IsNormal():
		e.ActNormal = d.normalNum(e)
	case e.Kind.IsDistance():
		e.ActDistance = d.DistanceGetNum(h)
	case e.Kind.IsFace():
		e.ActPoint = d.FaceGetPointNum(h)
		e.ActNormal = geom.PureQuaternion(d.FaceGetNormalNum(h))
	}
}
