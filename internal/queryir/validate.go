package queryir

import (
	"fmt"

	"github.com/roach88/activeset/internal/ir"
)

// ValidationResult lists the problems found in a query.
type ValidationResult struct {
	// IsValid is true when Problems is empty.
	IsValid bool

	// Problems describes each rejected node.
	Problems []string
}

// Validate checks that a query only references known fields, compares
// scalar columns to scalar values, and uses JSON columns through
// ContainsInt only.
//
// Validate is a pure function with no side effects.
func Validate(query Query) ValidationResult {
	v := &validator{problems: []string{}}
	v.validateQuery(query)

	return ValidationResult{
		IsValid:  len(v.problems) == 0,
		Problems: v.problems,
	}
}

type validator struct {
	problems []string
}

func (v *validator) addProblem(format string, args ...any) {
	v.problems = append(v.problems, fmt.Sprintf(format, args...))
}

func (v *validator) validateQuery(q Query) {
	if q == nil {
		v.addProblem("nil query")
		return
	}

	switch query := q.(type) {
	case Select:
		v.validateSelect(query)
	case *Select:
		v.validateSelect(*query)
	case Count:
		v.validateCount(query)
	case *Count:
		v.validateCount(*query)
	default:
		v.addProblem("unknown query type: %T", q)
	}
}

func (v *validator) validateSource(from string) {
	if from != EventsTable {
		v.addProblem("unknown source %q", from)
	}
}

func (v *validator) validateSelect(sel Select) {
	v.validateSource(sel.From)
	for _, f := range sel.Fields {
		if _, ok := EventFields[f]; !ok {
			v.addProblem("unknown field %q", f)
		}
	}
	if sel.Limit < 0 {
		v.addProblem("negative limit %d", sel.Limit)
	}
	v.validatePredicate(sel.Filter)
}

func (v *validator) validateCount(c Count) {
	v.validateSource(c.From)
	v.scalarField(c.GroupBy)
	v.validatePredicate(c.Filter)
}

// scalarField reports unknown fields and JSON columns used as scalars.
func (v *validator) scalarField(field string) {
	isJSON, ok := EventFields[field]
	switch {
	case !ok:
		v.addProblem("unknown field %q", field)
	case isJSON:
		v.addProblem("field %q holds a JSON array and can only be matched with ContainsInt", field)
	}
}

func (v *validator) validatePredicate(p Predicate) {
	if p == nil {
		return
	}

	switch pred := p.(type) {
	case Equals:
		v.validateEquals(pred)
	case *Equals:
		v.validateEquals(*pred)
	case In:
		v.validateIn(pred)
	case *In:
		v.validateIn(*pred)
	case AtLeast:
		v.scalarField(pred.Field)
	case *AtLeast:
		v.scalarField(pred.Field)
	case AtMost:
		v.scalarField(pred.Field)
	case *AtMost:
		v.scalarField(pred.Field)
	case ContainsInt:
		v.validateContains(pred)
	case *ContainsInt:
		v.validateContains(*pred)
	case And:
		v.validateAnd(pred)
	case *And:
		v.validateAnd(*pred)
	case AnyOf:
		v.validateAnd(And(pred))
	case *AnyOf:
		v.validateAnd(And(*pred))
	default:
		v.addProblem("unknown predicate type: %T", p)
	}
}

func (v *validator) validateEquals(eq Equals) {
	v.scalarField(eq.Field)
	v.scalarValue(eq.Field, eq.Value)
}

func (v *validator) validateIn(in In) {
	v.scalarField(in.Field)
	for _, val := range in.Values {
		v.scalarValue(in.Field, val)
	}
}

func (v *validator) validateContains(c ContainsInt) {
	isJSON, ok := EventFields[c.Field]
	switch {
	case !ok:
		v.addProblem("unknown field %q", c.Field)
	case !isJSON:
		v.addProblem("field %q is not a JSON array", c.Field)
	}
}

func (v *validator) validateAnd(and And) {
	for _, sub := range and.Predicates {
		v.validatePredicate(sub)
	}
}

// scalarValue rejects values that cannot be bound as a single SQL parameter.
func (v *validator) scalarValue(field string, val ir.Value) {
	switch val.(type) {
	case ir.String, ir.Int, ir.Bool:
	case ir.Null, nil:
		v.addProblem("field %q compared to null", field)
	default:
		v.addProblem("field %q compared to non-scalar %T", field, val)
	}
}
