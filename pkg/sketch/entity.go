package sketch

import (
	"fmt"

	"github.com/chazu/facet/pkg/geom"
	"github.com/chazu/facet/pkg/handle"
)

// EntityKind identifies the variant of an Entity. The zero value is not a
// valid kind.
type EntityKind int

const (
	KindPointIn3D EntityKind = iota + 1
	KindPointIn2D
	KindPointNTrans
	KindPointNRotTrans
	KindPointNCopy
	KindPointNRotAA
	KindPointNRotAxisTrans

	KindNormalIn3D
	KindNormalIn2D
	KindNormalNCopy
	KindNormalNRot
	KindNormalNRotAA

	KindDistance
	KindDistanceNCopy

	KindFaceNormalPt
	KindFaceXProd
	KindFaceNRotTrans
	KindFaceNTrans
	KindFaceNRotAA
	KindFaceRotNormalPt
	KindFaceNRotAxisTrans

	KindWorkplane
	KindLineSegment
	KindCubic
	KindCubicPeriodic
	KindCircle
	KindArcOfCircle
	KindTTFText
	KindImage
)

var entityKindNames = map[EntityKind]string{
	KindPointIn3D:          "POINT_IN_3D",
	KindPointIn2D:          "POINT_IN_2D",
	KindPointNTrans:        "POINT_N_TRANS",
	KindPointNRotTrans:     "POINT_N_ROT_TRANS",
	KindPointNCopy:         "POINT_N_COPY",
	KindPointNRotAA:        "POINT_N_ROT_AA",
	KindPointNRotAxisTrans: "POINT_N_ROT_AXIS_TRANS",
	KindNormalIn3D:         "NORMAL_IN_3D",
	KindNormalIn2D:         "NORMAL_IN_2D",
	KindNormalNCopy:        "NORMAL_N_COPY",
	KindNormalNRot:         "NORMAL_N_ROT",
	KindNormalNRotAA:       "NORMAL_N_ROT_AA",
	KindDistance:           "DISTANCE",
	KindDistanceNCopy:      "DISTANCE_N_COPY",
	KindFaceNormalPt:       "FACE_NORMAL_PT",
	KindFaceXProd:          "FACE_XPROD",
	KindFaceNRotTrans:      "FACE_N_ROT_TRANS",
	KindFaceNTrans:         "FACE_N_TRANS",
	KindFaceNRotAA:         "FACE_N_ROT_AA",
	KindFaceRotNormalPt:    "FACE_ROT_NORMAL_PT",
	KindFaceNRotAxisTrans:  "FACE_N_ROT_AXIS_TRANS",
	KindWorkplane:          "WORKPLANE",
	KindLineSegment:        "LINE_SEGMENT",
	KindCubic:              "CUBIC",
	KindCubicPeriodic:      "CUBIC_PERIODIC",
	KindCircle:             "CIRCLE",
	KindArcOfCircle:        "ARC_OF_CIRCLE",
	KindTTFText:            "TTF_TEXT",
	KindImage:              "IMAGE",
}

func (k EntityKind) String() string {
	if s, ok := entityKindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("EntityKind(%d)", int(k))
}

// IsPoint reports whether k is one of the point variants.
func (k EntityKind) IsPoint() bool { return k >= KindPointIn3D && k <= KindPointNRotAxisTrans }

// IsNormal reports whether k is one of the normal variants.
func (k EntityKind) IsNormal() bool { return k >= KindNormalIn3D && k <= KindNormalNRotAA }

// IsDistance reports whether k is one of the distance variants.
func (k EntityKind) IsDistance() bool { return k == KindDistance || k == KindDistanceNCopy }

// IsFace reports whether k is one of the face variants.
func (k EntityKind) IsFace() bool { return k >= KindFaceNormalPt && k <= KindFaceNRotAxisTrans }

// MaxPointsInEntity bounds Entity.Points; cubics with extra points use
// the tail.
const MaxPointsInEntity = 12

// Entity is a point, normal, distance, face, curve or workplane. Entities
// refer to each other only by handle.
type Entity struct {
	H         handle.Entity
	Kind      EntityKind
	Group     handle.Group
	Workplane handle.Entity

	Points      [MaxPointsInEntity]handle.Entity
	ExtraPoints int
	Normal      handle.Entity
	Distance    handle.Entity
	Params      [8]handle.Param

	Style        handle.Style
	Construction bool
	Visible      bool
	// ForceHidden propagates invisibility through copies of imported
	// entities.
	ForceHidden  bool
	TimesApplied int
	Str          string

	// Numeric values captured when the entity was copied.
	NumPoint    geom.Vector
	NumNormal   geom.Quaternion
	NumDistance float64

	// Resolved values, filled in by CalculateNumerical.
	ActPoint    geom.Vector
	ActNormal   geom.Quaternion
	ActDistance float64

	tag bool
}

func (e *Entity) Handle() handle.Entity     { return e.H }
func (e *Entity) SetHandle(h handle.Entity) { e.H = h }
func (e *Entity) Tagged() bool              { return e.tag }
func (e *Entity) SetTag(t bool)             { e.tag = t }

// EntityList stores entities by handle.
type EntityList = handle.IDList[Entity, *Entity, handle.Entity]

func newEntity(h handle.Entity, kind EntityKind, g handle.Group) Entity {
	return Entity{H: h, Kind: kind, Group: g, Visible: true}
}

// entityInfo reports how many points a curve-like entity references and
// whether it has a normal and a distance.
func entityInfo(k EntityKind, extraPoints int) (points int, hasNormal, hasDistance bool) {
	switch k {
	case KindWorkplane:
		return 1, true, false
	case KindLineSegment:
		return 2, false, false
	case KindCubic:
		return 4 + extraPoints, false, false
	case KindCubicPeriodic:
		return 3 + extraPoints, false, false
	case KindCircle:
		return 1, true, true
	case KindArcOfCircle:
		return 3, true, false
	case KindTTFText, KindImage:
		return 4, true, false
	}
	panic(fmt.Sprintf("sketch: unexpected entity kind %v", k))
}
