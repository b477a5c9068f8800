package sketch

import "github.com/chazu/facet/pkg/handle"

// Param is a scalar unknown. Its value is set by regeneration, by the
// solver, or pinned by ForceParam.
type Param struct {
	H   handle.Param
	Val float64
	// Free params may be changed by the solver.
	Free bool
	// Known is set once the value is final for this regeneration.
	Known bool

	tag bool
}

func (p *Param) Handle() handle.Param     { return p.H }
func (p *Param) SetHandle(h handle.Param) { p.H = h }
func (p *Param) Tagged() bool             { return p.tag }
func (p *Param) SetTag(t bool)            { p.tag = t }

// ParamList stores params by handle.
type ParamList = handle.IDList[Param, *Param, handle.Param]

// Solver assigns values to the free params of a group after the group has
// been generated. Documents without a Solver keep generated values.
type Solver interface {
	Solve(d *Document, g handle.Group) error
}
