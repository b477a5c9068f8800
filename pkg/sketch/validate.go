package sketch

import (
	"fmt"

	"github.com/chazu/facet/pkg/handle"
)

// ValidationSeverity indicates whether a validation finding blocks
// regeneration or is merely informational.
type ValidationSeverity int

const (
	SeverityError   ValidationSeverity = iota // blocks regeneration
	SeverityWarning                           // informational
)

func (s ValidationSeverity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return fmt.Sprintf("ValidationSeverity(%d)", int(s))
	}
}

// ValidationError describes a single validation finding.
type ValidationError struct {
	Group    handle.Group   // which group has the problem (zero if document-level)
	Request  handle.Request // which request, if any
	Message  string
	Severity ValidationSeverity
}

func (e ValidationError) Error() string {
	switch {
	case e.Request != 0:
		return fmt.Sprintf("[%s] request %s: %s", e.Severity, e.Request, e.Message)
	case e.Group != 0:
		return fmt.Sprintf("[%s] group %s: %s", e.Severity, e.Group, e.Message)
	}
	return fmt.Sprintf("[%s] %s", e.Severity, e.Message)
}

// ValidationResult bundles errors (blocking) and warnings (advisory).
type ValidationResult struct {
	Errors   []ValidationError
	Warnings []ValidationError
}

// Validate runs the structural checks on d and returns what it finds. An
// empty slice means d can be regenerated. It never mutates d.
func Validate(d *Document) []ValidationError {
	var errs []ValidationError
	errs = append(errs, validateOrders(d)...)
	errs = append(errs, validateOperands(d)...)
	errs = append(errs, validateAcyclic(d)...)
	errs = append(errs, validateRequests(d)...)
	errs = append(errs, validateGroupSettings(d)...)
	errs = append(errs, validatePredefs(d)...)
	return errs
}

// ValidateAll runs the structural checks and, on the results of the last
// regeneration, the geometric ones.
func ValidateAll(d *Document) ValidationResult {
	var result ValidationResult
	for _, e := range Validate(d) {
		if e.Severity == SeverityWarning {
			result.Warnings = append(result.Warnings, e)
		} else {
			result.Errors = append(result.Errors, e)
		}
	}
	result.Warnings = append(result.Warnings, validateGeometry(d)...)
	return result
}

// validateOrders checks that no two groups share an Order.
func validateOrders(d *Document) []ValidationError {
	var errs []ValidationError
	seen := make(map[int]handle.Group)
	for h, g := range d.Groups.All() {
		if other, ok := seen[g.Order]; ok {
			errs = append(errs, ValidationError{
				Group:    h,
				Message:  fmt.Sprintf("order %d is also used by group %s", g.Order, other),
				Severity: SeverityError,
			})
			continue
		}
		seen[g.Order] = h
	}
	return errs
}

// validateOperands checks that derived groups name an existing operand
// that regenerates before them.
func validateOperands(d *Document) []ValidationError {
	var errs []ValidationError
	for h, g := range d.Groups.All() {
		if !g.Kind.needsOperand() {
			continue
		}
		op := d.Groups.FindByIDNoOops(g.OpA)
		if op == nil {
			errs = append(errs, ValidationError{
				Group:    h,
				Message:  fmt.Sprintf("operand %s does not exist", g.OpA),
				Severity: SeverityError,
			})
			continue
		}
		if op.Order >= g.Order {
			errs = append(errs, ValidationError{
				Group:    h,
				Message:  fmt.Sprintf("operand %s is ordered at %d, not before %d", g.OpA, op.Order, g.Order),
				Severity: SeverityError,
			})
		}
		switch g.Kind {
		case GroupExtrude, GroupLathe, GroupRevolve, GroupHelix:
			if op.Kind != GroupDrawing3D && op.Kind != GroupDrawingWorkplane {
				errs = append(errs, ValidationError{
					Group:    h,
					Message:  fmt.Sprintf("operand %s is a %s group, not a sketch", g.OpA, op.Kind),
					Severity: SeverityError,
				})
			}
		}
	}
	return errs
}

// validateAcyclic checks for operand cycles using DFS with 3-color
// marking. White (0) = unvisited, gray (1) = on the current path,
// black (2) = fully explored.
func validateAcyclic(d *Document) []ValidationError {
	const (
		white = iota
		gray
		black
	)

	color := make(map[handle.Group]int)
	var errs []ValidationError

	var visit func(h handle.Group) bool
	visit = func(h handle.Group) bool {
		switch color[h] {
		case black:
			return false
		case gray:
			errs = append(errs, ValidationError{
				Group:    h,
				Message:  fmt.Sprintf("cycle detected: group %s is its own operand", h),
				Severity: SeverityError,
			})
			return true
		}
		color[h] = gray
		g := d.Groups.FindByIDNoOops(h)
		if g == nil || !g.Kind.needsOperand() {
			// Missing operands are reported by validateOperands.
			color[h] = black
			return false
		}
		if visit(g.OpA) {
			return true
		}
		color[h] = black
		return false
	}

	for h := range d.Groups.All() {
		if color[h] == white && visit(h) {
			// One cycle is enough.
			break
		}
	}
	return errs
}

// validateRequests checks that every request belongs to a group and draws
// in a workplane that exists.
func validateRequests(d *Document) []ValidationError {
	var errs []ValidationError
	for h, r := range d.Requests.All() {
		g := d.Groups.FindByIDNoOops(r.Group)
		if g == nil {
			errs = append(errs, ValidationError{
				Request:  h,
				Message:  fmt.Sprintf("group %s does not exist", r.Group),
				Severity: SeverityError,
			})
			continue
		}
		if g.Kind != GroupDrawing3D && g.Kind != GroupDrawingWorkplane {
			errs = append(errs, ValidationError{
				Request:  h,
				Message:  fmt.Sprintf("group %s is a %s group and cannot hold requests", r.Group, g.Kind),
				Severity: SeverityError,
			})
		}
		if r.Kind == RequestCubic && r.ExtraPoints+4 > MaxPointsInEntity ||
			r.Kind == RequestCubicPeriodic && r.ExtraPoints+3 > MaxPointsInEntity {
			errs = append(errs, ValidationError{
				Request:  h,
				Message:  fmt.Sprintf("%d extra points exceed the limit of %d points", r.ExtraPoints, MaxPointsInEntity),
				Severity: SeverityError,
			})
		}
		// Workplanes drawn as requests are checked when they regenerate.
		if r.Workplane != handle.FreeIn3D && !r.Workplane.IsFromRequest() {
			wg := d.Groups.FindByIDNoOops(r.Workplane.Group())
			if wg == nil || wg.Kind != GroupDrawingWorkplane || wg.WorkplaneEntity() != r.Workplane {
				errs = append(errs, ValidationError{
					Request:  h,
					Message:  fmt.Sprintf("workplane %s does not exist", r.Workplane),
					Severity: SeverityError,
				})
			}
		}
	}
	return errs
}

// validateGroupSettings checks the per-kind configuration of each group.
func validateGroupSettings(d *Document) []ValidationError {
	var errs []ValidationError
	bad := func(h handle.Group, format string, args ...any) {
		errs = append(errs, ValidationError{
			Group:    h,
			Message:  fmt.Sprintf(format, args...),
			Severity: SeverityError,
		})
	}
	for h, g := range d.Groups.All() {
		switch g.Kind {
		case GroupDrawing3D:
		case GroupDrawingWorkplane:
			switch g.subtype() {
			case SubtypeWorkplaneByPointOrtho:
			case SubtypeWorkplaneByLineSegments:
				if g.Predef.EntityB == handle.NoEntity || g.Predef.EntityC == handle.NoEntity {
					bad(h, "workplane by line segments needs two lines")
				}
			default:
				bad(h, "subtype %s does not apply to workplanes", g.subtype())
			}
		case GroupExtrude, GroupRevolve, GroupHelix:
			if s := g.subtype(); s != SubtypeOneSided && s != SubtypeTwoSided {
				bad(h, "subtype %s does not apply to %s groups", s, g.Kind)
			}
			if g.Kind != GroupExtrude && (g.Predef.Origin == handle.NoEntity || g.Predef.EntityB == handle.NoEntity) {
				bad(h, "%s needs an axis point and direction", g.Kind)
			}
		case GroupLathe:
			if g.Predef.Origin == handle.NoEntity || g.Predef.EntityB == handle.NoEntity {
				bad(h, "lathe needs an axis point and direction")
			}
		case GroupTranslate, GroupRotate:
			if g.ValA < 1 {
				bad(h, "repeat count %d is less than 1", g.ValA)
			}
			if s := g.subtype(); s != SubtypeOneSided && s != SubtypeTwoSided {
				bad(h, "subtype %s does not apply to %s groups", s, g.Kind)
			}
		case GroupLinked:
			switch {
			case g.Linked == nil && g.Solid == nil:
				bad(h, "linked group has no document or solid")
			case g.Linked != nil && g.Solid != nil:
				bad(h, "linked group has both a document and a solid")
			case g.Linked == nil:
				// Imports a solid.
			case g.Linked == d:
				bad(h, "linked group links its own document")
			case linksTo(g.Linked, d, make(map[*Document]bool)):
				bad(h, "linked document links back to this one")
			}
		default:
			bad(h, "unknown group kind %s", g.Kind)
		}
	}
	return errs
}

// linksTo reports whether from, or a document it links, links target.
func linksTo(from, target *Document, seen map[*Document]bool) bool {
	if from == target {
		return true
	}
	if from == nil || seen[from] {
		return false
	}
	seen[from] = true
	for _, g := range from.Groups.All() {
		if g.Kind == GroupLinked && linksTo(g.Linked, target, seen) {
			return true
		}
	}
	return false
}

// validatePredefs checks that the points and directions a group is built
// from belong to earlier groups and are of the right kind. Entities of
// other groups are only known after a regeneration; the ones that do not
// exist yet are checked again while regenerating.
func validatePredefs(d *Document) []ValidationError {
	var errs []ValidationError
	for h, g := range d.Groups.All() {
		for _, ref := range g.predefRefs() {
			if msg := d.checkPredefStatic(g, ref); msg != "" {
				errs = append(errs, ValidationError{
					Group:    h,
					Message:  msg,
					Severity: SeverityError,
				})
			}
		}
	}
	return errs
}

func (d *Document) checkPredefStatic(g *Group, ref predefRef) string {
	var order int
	if ref.h.IsFromRequest() {
		r := d.Requests.FindByIDNoOops(ref.h.Request())
		if r == nil {
			return fmt.Sprintf("%s %s: request %s does not exist", ref.name, ref.h, ref.h.Request())
		}
		rg := d.Groups.FindByIDNoOops(r.Group)
		if rg == nil {
			// Reported by validateRequests.
			return ""
		}
		kind, ok := requestEntityKind(r, ref.h.Local())
		if !ok {
			return fmt.Sprintf("%s %s: request %s has no such entity", ref.name, ref.h, r.H)
		}
		if !ref.kind.accepts(kind) {
			return fmt.Sprintf("%s %s is a %s, not a %s", ref.name, ref.h, kind, ref.kind)
		}
		order = rg.Order
	} else {
		og := d.Groups.FindByIDNoOops(ref.h.Group())
		if og == nil {
			return fmt.Sprintf("%s %s: group %s does not exist", ref.name, ref.h, ref.h.Group())
		}
		if e := d.Entities.FindByIDNoOops(ref.h); e != nil && !ref.kind.accepts(e.Kind) {
			return fmt.Sprintf("%s %s is a %s, not a %s", ref.name, ref.h, e.Kind, ref.kind)
		}
		order = og.Order
	}
	if order >= g.Order {
		return fmt.Sprintf("%s %s is ordered at %d, not before %d", ref.name, ref.h, order, g.Order)
	}
	return ""
}
