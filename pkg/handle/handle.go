// Package handle defines the opaque 32-bit identifiers used to address
// groups, requests, entities, parameters, constraints and styles, and the
// ordered IDList collection that stores objects by handle.
//
// Handles are the only way one kernel object refers to another. The bit
// layout encodes the owner of derived objects, so an entity handle tells
// whether it was produced by a request or by a group's regeneration.
package handle

import "fmt"

const (
	groupOwnedBit      = 0x8000_0000
	constraintOwnedBit = 0x4000_0000
	ownerShift         = 16
	localMask          = 0xffff
	ownerMask          = 0x3fff
)

// MaxLocalIndex is the largest local index that fits in a handle.
const MaxLocalIndex = localMask

// Group identifies a pipeline stage.
type Group uint32

// Request identifies a user-authored request.
type Request uint32

// Entity identifies a point, normal, distance, face, curve or workplane.
type Entity uint32

// Param identifies a scalar parameter.
type Param uint32

// Constraint identifies a constraint. Constraints are solved outside the
// kernel; only their parameter handles are generated here.
type Constraint uint32

// Style identifies a display style.
type Style uint32

// NoEntity is the zero entity handle, never issued for a real entity.
const NoEntity Entity = 0

// NoParam is the zero parameter handle.
const NoParam Param = 0

// FreeIn3D is the workplane handle of entities that are not in a workplane.
const FreeIn3D Entity = 0

func compose(owner uint32, local int, bits uint32) uint32 {
	if local < 0 || local > MaxLocalIndex {
		panic(fmt.Sprintf("handle: local index %d out of range", local))
	}
	if owner > ownerMask {
		panic(fmt.Sprintf("handle: owner %d out of range", owner))
	}
	return bits | owner<<ownerShift | uint32(local)
}

// Entity returns the handle of the i-th entity generated by group g.
func (g Group) Entity(i int) Entity {
	return Entity(compose(uint32(g), i, groupOwnedBit))
}

// Param returns the handle of the i-th parameter generated by group g.
func (g Group) Param(i int) Param {
	return Param(compose(uint32(g), i, groupOwnedBit))
}

func (g Group) String() string { return fmt.Sprintf("g%03x", uint32(g)) }

// Entity returns the handle of the i-th entity generated by request r.
func (r Request) Entity(i int) Entity {
	return Entity(compose(uint32(r), i, 0))
}

// Param returns the handle of the i-th parameter generated by request r.
func (r Request) Param(i int) Param {
	return Param(compose(uint32(r), i, 0))
}

func (r Request) String() string { return fmt.Sprintf("r%03x", uint32(r)) }

// Param returns the handle of the i-th parameter generated by constraint c.
func (c Constraint) Param(i int) Param {
	return Param(compose(uint32(c), i, constraintOwnedBit))
}

// IsFromRequest reports whether e was generated by a request.
func (e Entity) IsFromRequest() bool { return uint32(e)&groupOwnedBit == 0 }

// Request returns the request that generated e. It panics for entities
// generated by a group.
func (e Entity) Request() Request {
	if !e.IsFromRequest() {
		panic(fmt.Sprintf("handle: entity %s was not generated by a request", e))
	}
	return Request(uint32(e) >> ownerShift)
}

// Group returns the group that generated e. It panics for entities
// generated by a request.
func (e Entity) Group() Group {
	if e.IsFromRequest() {
		panic(fmt.Sprintf("handle: entity %s was not generated by a group", e))
	}
	return Group((uint32(e) >> ownerShift) & ownerMask)
}

// Local returns the owner-local index of e.
func (e Entity) Local() int { return int(uint32(e) & localMask) }

func (e Entity) String() string { return fmt.Sprintf("e%08x", uint32(e)) }

// IsFromRequest reports whether p was generated by a request.
func (p Param) IsFromRequest() bool {
	return uint32(p)&(groupOwnedBit|constraintOwnedBit) == 0
}

// IsFromConstraint reports whether p was generated by a constraint.
func (p Param) IsFromConstraint() bool {
	return uint32(p)&groupOwnedBit == 0 && uint32(p)&constraintOwnedBit != 0
}

// Request returns the request that generated p.
func (p Param) Request() Request {
	if !p.IsFromRequest() {
		panic(fmt.Sprintf("handle: param %s was not generated by a request", p))
	}
	return Request(uint32(p) >> ownerShift)
}

// Group returns the group that generated p.
func (p Param) Group() Group {
	if uint32(p)&groupOwnedBit == 0 {
		panic(fmt.Sprintf("handle: param %s was not generated by a group", p))
	}
	return Group((uint32(p) >> ownerShift) & ownerMask)
}

func (p Param) String() string { return fmt.Sprintf("p%08x", uint32(p)) }
