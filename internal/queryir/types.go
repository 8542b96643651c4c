package queryir

import "github.com/roach88/activeset/internal/ir"

// EventsTable is the only source queries can read from.
const EventsTable = "events"

// Columns of the events table.
const (
	FieldID             = "id"
	FieldEngineID       = "engine_id"
	FieldSeq            = "seq"
	FieldType           = "type"
	FieldTime           = "time_unix_nano"
	FieldValues         = "values_json"
	FieldIndexes        = "indexes_json"
	FieldEvictedValues  = "evicted_values_json"
	FieldEvictedIndexes = "evicted_indexes_json"
)

// EventFields is the set of fields a query may reference. The boolean
// marks JSON array columns, which only ContainsInt may inspect.
var EventFields = map[string]bool{
	FieldID:             false,
	FieldEngineID:       false,
	FieldSeq:            false,
	FieldType:           false,
	FieldTime:           false,
	FieldValues:         true,
	FieldIndexes:        true,
	FieldEvictedValues:  true,
	FieldEvictedIndexes: true,
}

// Query represents an abstract query.
//
// This is a sealed interface - only types in this package implement it.
type Query interface {
	queryNode()
}

// Predicate represents a filter condition.
//
// This is a sealed interface - only types in this package implement it.
type Predicate interface {
	predicateNode()
}

// Select reads rows from From.
//
//	SELECT <fields> FROM <from> WHERE <filter> ORDER BY seq, id LIMIT <limit>
//
// Empty Fields selects every column in EventFields order. Limit 0 means no
// limit.
type Select struct {
	From   string
	Fields []string
	Filter Predicate
	Limit  int
}

func (Select) queryNode() {}

// Count counts rows grouped by one field.
//
//	SELECT <group_by>, COUNT(*) FROM <from> WHERE <filter> GROUP BY <group_by>
type Count struct {
	From    string
	GroupBy string
	Filter  Predicate
}

func (Count) queryNode() {}

// Equals matches rows whose field equals a literal.
type Equals struct {
	Field string
	Value ir.Value
}

func (Equals) predicateNode() {}

// In matches rows whose field equals any of Values. An empty In matches
// nothing.
type In struct {
	Field  string
	Values []ir.Value
}

func (In) predicateNode() {}

// AtLeast matches rows whose integer field is >= Value.
type AtLeast struct {
	Field string
	Value int64
}

func (AtLeast) predicateNode() {}

// AtMost matches rows whose integer field is <= Value.
type AtMost struct {
	Field string
	Value int64
}

func (AtMost) predicateNode() {}

// ContainsInt matches rows whose JSON array field holds Value.
type ContainsInt struct {
	Field string
	Value int64
}

func (ContainsInt) predicateNode() {}

// And represents a conjunction of predicates. Empty Predicates is always
// true.
type And struct {
	Predicates []Predicate
}

func (And) predicateNode() {}

// AnyOf represents a disjunction of predicates. Empty Predicates is always
// false.
type AnyOf struct {
	Predicates []Predicate
}

func (AnyOf) predicateNode() {}
