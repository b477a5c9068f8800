// Package sketch is the parametric model: groups, requests, the entities
// and params they expand into, and the regeneration pipeline that turns
// them into sketches, polygon loops and solid meshes.
package sketch

import (
	"errors"
	"fmt"
	"sort"

	"github.com/chazu/facet/pkg/expr"
	"github.com/chazu/facet/pkg/geom"
	"github.com/chazu/facet/pkg/handle"
	"github.com/chazu/facet/pkg/kernel"
)

// Document is a complete model. Groups and requests are authored; entities
// and params are rebuilt from them by Regenerate.
type Document struct {
	Settings Settings
	Groups   GroupList
	Requests RequestList
	Entities EntityList
	Params   ParamList

	// Vars are the named values available to forced param expressions.
	Vars   map[string]float64
	Solver Solver
	// Warnings from the last Regenerate.
	Warnings []ValidationError

	eval    *expr.Evaluator
	prev    ParamList
	pending map[handle.Param]float64
	forced  map[handle.Param]string
	pinned  map[handle.Param]float64
	reseed  map[handle.Group]bool
}

// NewDocument returns an empty document.
func NewDocument(s Settings) *Document {
	return &Document{
		Settings: s,
		Vars:     make(map[string]float64),
		eval:     expr.New(s.ExprTimeout),
		pending:  make(map[handle.Param]float64),
		forced:   make(map[handle.Param]string),
		reseed:   make(map[handle.Group]bool),
	}
}

// AddGroup assigns g a handle and adds it. A zero Order places the group
// after every existing one. The returned pointer is valid until the next
// AddGroup.
func (d *Document) AddGroup(g Group) *Group {
	if g.Order == 0 {
		for _, o := range d.Groups.All() {
			if o.Order >= g.Order {
				g.Order = o.Order + 1
			}
		}
		if g.Order == 0 {
			g.Order = 1
		}
	}
	h := d.Groups.AddAndAssignID(g)
	return d.Groups.FindByID(h)
}

// AddRequest assigns r a handle and adds it. Requests in a workplane
// group are drawn in that group's workplane unless they set one. The
// returned pointer is valid until the next AddRequest.
func (d *Document) AddRequest(r Request) *Request {
	if r.Workplane == handle.FreeIn3D && r.Kind != RequestWorkplane {
		if g := d.Groups.FindByIDNoOops(r.Group); g != nil && g.Kind == GroupDrawingWorkplane {
			r.Workplane = g.WorkplaneEntity()
		}
	}
	h := d.Requests.AddAndAssignID(r)
	return d.Requests.FindByID(h)
}

// PlacePoint sets the coordinates of point i of request r for the next
// regeneration: u, v in a workplane, x, y, z otherwise.
func (d *Document) PlacePoint(r handle.Request, i int, coords ...float64) {
	d.lazyInit()
	for k, c := range coords {
		d.pending[PointParam(r, i, k)] = c
	}
}

// SetParam sets param h for the next regeneration. Later regenerations
// carry the value over.
func (d *Document) SetParam(h handle.Param, v float64) {
	d.lazyInit()
	d.pending[h] = v
}

// ForceParam pins param h to the value of the expression src, evaluated
// against Vars at every regeneration. A pinned param is not free.
func (d *Document) ForceParam(h handle.Param, src string) error {
	if _, err := d.evaluator().Eval(src, d.Vars); err != nil {
		return fmt.Errorf("sketch: force %v: %w", h, err)
	}
	d.lazyInit()
	d.forced[h] = src
	return nil
}

// UnforceParam releases a param pinned by ForceParam. It keeps its last
// value.
func (d *Document) UnforceParam(h handle.Param) {
	delete(d.forced, h)
}

// ReseedParams makes the next regeneration of group g start from the
// values it generates rather than the previous ones.
func (d *Document) ReseedParams(g handle.Group) {
	d.lazyInit()
	d.reseed[g] = true
}

// lazyInit makes a zero Document usable.
func (d *Document) lazyInit() {
	if d.pending == nil {
		d.pending = make(map[handle.Param]float64)
	}
	if d.forced == nil {
		d.forced = make(map[handle.Param]string)
	}
	if d.reseed == nil {
		d.reseed = make(map[handle.Group]bool)
	}
}

func (d *Document) evaluator() *expr.Evaluator {
	if d.eval == nil {
		d.eval = expr.New(d.Settings.ExprTimeout)
	}
	return d.eval
}

// paramGroup returns the group that owns param h.
func (d *Document) paramGroup(h handle.Param) handle.Group {
	if h.IsFromConstraint() {
		return 0
	}
	if h.IsFromRequest() {
		if r := d.Requests.FindByIDNoOops(h.Request()); r != nil {
			return r.Group
		}
		return 0
	}
	return h.Group()
}

// addParam adds param h with generated value v and returns its handle.
// The value from the previous regeneration wins over v unless the group
// is being reseeded; pending and pinned values win over both.
func (d *Document) addParam(h handle.Param, v float64) handle.Param {
	p := Param{H: h, Val: v, Free: true}
	if old := d.prev.FindByIDNoOops(h); old != nil && !d.reseed[d.paramGroup(h)] {
		p.Val = old.Val
	}
	if pv, ok := d.pending[h]; ok {
		p.Val = pv
	}
	if pv, ok := d.pinned[h]; ok {
		p.Val = pv
		p.Free = false
		p.Known = true
	}
	d.Params.Add(p)
	return h
}

// entitiesOf returns the handles of the entities in group g.
func (d *Document) entitiesOf(g handle.Group) []handle.Entity {
	var out []handle.Entity
	for h, e := range d.Entities.All() {
		if e.Group == g {
			out = append(out, h)
		}
	}
	return out
}

// groupOrder returns the groups sorted by Order.
func (d *Document) groupOrder() []*Group {
	out := make([]*Group, 0, d.Groups.Len())
	for _, g := range d.Groups.All() {
		out = append(out, g)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}

// runningBefore returns the running mesh of the last group ordered before
// order, or an empty mesh.
func (d *Document) runningBefore(order int) *kernel.Mesh {
	var best *Group
	for _, g := range d.Groups.All() {
		if g.Order < order && g.RunningMesh != nil && (best == nil || g.Order > best.Order) {
			best = g
		}
	}
	if best == nil {
		return &kernel.Mesh{}
	}
	return best.RunningMesh
}

// FinalMesh returns the running mesh of the last group.
func (d *Document) FinalMesh() *kernel.Mesh {
	groups := d.groupOrder()
	if len(groups) == 0 || groups[len(groups)-1].RunningMesh == nil {
		return &kernel.Mesh{}
	}
	return groups[len(groups)-1].RunningMesh
}

// sketchNormal returns the plane normal of the sketch in group g: its
// workplane's, or that of its loops for a 3d sketch.
func (d *Document) sketchNormal(g handle.Group) geom.Vector {
	grp := d.Groups.FindByID(g)
	if grp.Kind == GroupDrawingWorkplane {
		return d.NormalGetNum(d.Entity(grp.WorkplaneEntity()).Normal).RotationN()
	}
	if n := grp.PolyLoops.Normal; geom.MagSquared(n) > 0 {
		return n
	}
	return geom.V(0, 0, 1)
}

// Regenerate rebuilds every entity, param, loop and mesh from the groups
// and requests. Structural problems are returned as an error and leave
// the previous results in place; geometric problems become Warnings.
func (d *Document) Regenerate() error {
	log := kernel.Logger()
	d.Warnings = nil
	if errs := ValidateAll(d).Errors; len(errs) > 0 {
		joined := make([]error, len(errs))
		for i := range errs {
			joined[i] = errs[i]
		}
		return fmt.Errorf("sketch: document is invalid: %w", errors.Join(joined...))
	}

	for _, g := range d.Groups.All() {
		if g.Kind == GroupLinked && g.Linked != nil {
			if err := g.Linked.Regenerate(); err != nil {
				return fmt.Errorf("sketch: linked group %v: %w", g.H, err)
			}
		}
	}

	pinned := make(map[handle.Param]float64, len(d.forced))
	for h, src := range d.forced {
		v, err := d.evaluator().Eval(src, d.Vars)
		if err != nil {
			return fmt.Errorf("sketch: force %v: %w", h, err)
		}
		pinned[h] = v
	}
	d.pinned = pinned

	savedParams, savedEntities := d.Params, d.Entities
	var savedGroups GroupList
	for _, g := range d.Groups.All() {
		savedGroups.Add(*g)
	}

	d.prev = d.Params
	d.Params = ParamList{}
	d.Entities = EntityList{}

	for _, g := range d.groupOrder() {
		for _, r := range d.Requests.All() {
			if r.Group == g.H {
				r.Generate(d)
			}
		}
		if err := d.checkPredefs(g); err != nil {
			d.Params, d.Entities, d.Groups = savedParams, savedEntities, savedGroups
			d.prev = ParamList{}
			return fmt.Errorf("sketch: document is invalid: %w", err)
		}
		g.Generate(d)

		if d.Solver != nil {
			if err := d.Solver.Solve(d, g.H); err != nil {
				log.Warn("solve failed", "group", g.H.String(), "error", err)
				d.Warnings = append(d.Warnings, ValidationError{
					Group:    g.H,
					Message:  fmt.Sprintf("solve failed: %v", err),
					Severity: SeverityWarning,
				})
			}
		}
		for _, he := range d.entitiesOf(g.H) {
			d.CalculateNumerical(he)
		}

		g.assembleLoops(d)
		g.generateMesh(d)
		log.Debug("regenerated group",
			"group", g.H.String(),
			"kind", g.Kind.String(),
			"entities", len(d.entitiesOf(g.H)),
			"triangles", len(g.ThisMesh.Triangles))
	}

	clear(d.pending)
	clear(d.reseed)
	d.prev = ParamList{}
	d.Warnings = append(d.Warnings, ValidateAll(d).Warnings...)
	return nil
}

// checkPredefs checks the entities g reads from its Predef against the
// entities regenerated so far.
func (d *Document) checkPredefs(g *Group) error {
	for _, ref := range g.predefRefs() {
		e := d.Entities.FindByIDNoOops(ref.h)
		switch {
		case e == nil:
			return ValidationError{
				Group:    g.H,
				Message:  fmt.Sprintf("%s %s does not exist", ref.name, ref.h),
				Severity: SeverityError,
			}
		case !ref.kind.accepts(e.Kind):
			return ValidationError{
				Group:    g.H,
				Message:  fmt.Sprintf("%s %s is a %s, not a %s", ref.name, ref.h, e.Kind, ref.kind),
				Severity: SeverityError,
			}
		}
	}
	return nil
}
