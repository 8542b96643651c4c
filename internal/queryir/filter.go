package queryir

import (
	"errors"
	"fmt"

	"github.com/roach88/activeset/internal/ir"
)

// Filter is the common shape of an event log query: one engine, optional
// event types, a seq window, and an optional content index.
type Filter struct {
	EngineID string
	Types    []string
	FromSeq  int64  // inclusive, 0 = from the start
	ToSeq    int64  // inclusive, 0 = to the end
	Index    *int64 // events touching this index in Indexes or EvictedIndexes
	Limit    int    // 0 = unlimited
}

// Validate checks the filter bounds.
func (f Filter) Validate() error {
	var errs []error
	if f.FromSeq < 0 {
		errs = append(errs, fmt.Errorf("from seq must be >= 0, got %d", f.FromSeq))
	}
	if f.ToSeq < 0 {
		errs = append(errs, fmt.Errorf("to seq must be >= 0, got %d", f.ToSeq))
	}
	if f.ToSeq > 0 && f.FromSeq > f.ToSeq {
		errs = append(errs, fmt.Errorf("from seq %d is after to seq %d", f.FromSeq, f.ToSeq))
	}
	if f.Index != nil && *f.Index < 0 {
		errs = append(errs, fmt.Errorf("index must be >= 0, got %d", *f.Index))
	}
	if f.Limit < 0 {
		errs = append(errs, fmt.Errorf("limit must be >= 0, got %d", f.Limit))
	}
	for i, t := range f.Types {
		if t == "" {
			errs = append(errs, fmt.Errorf("types[%d] is empty", i))
		}
	}
	return errors.Join(errs...)
}

// predicate builds the conjunction described by the filter.
func (f Filter) predicate() Predicate {
	var preds []Predicate
	if f.EngineID != "" {
		preds = append(preds, Equals{Field: FieldEngineID, Value: ir.String(f.EngineID)})
	}
	if len(f.Types) > 0 {
		values := make([]ir.Value, len(f.Types))
		for i, t := range f.Types {
			values[i] = ir.String(t)
		}
		preds = append(preds, In{Field: FieldType, Values: values})
	}
	if f.FromSeq > 0 {
		preds = append(preds, AtLeast{Field: FieldSeq, Value: f.FromSeq})
	}
	if f.ToSeq > 0 {
		preds = append(preds, AtMost{Field: FieldSeq, Value: f.ToSeq})
	}
	if f.Index != nil {
		preds = append(preds, AnyOf{Predicates: []Predicate{
			ContainsInt{Field: FieldIndexes, Value: *f.Index},
			ContainsInt{Field: FieldEvictedIndexes, Value: *f.Index},
		}})
	}
	if len(preds) == 0 {
		return nil
	}
	return And{Predicates: preds}
}

// Query returns the Select reading every matching event.
func (f Filter) Query() Select {
	return Select{
		From:   EventsTable,
		Filter: f.predicate(),
		Limit:  f.Limit,
	}
}

// CountQuery returns the Count of matching events per type. Limit is
// ignored.
func (f Filter) CountQuery() Count {
	return Count{
		From:    EventsTable,
		GroupBy: FieldType,
		Filter:  f.predicate(),
	}
}
