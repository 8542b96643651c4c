package querysql

import (
	"fmt"
	"strings"

	"github.com/roach88/activeset/internal/ir"
	"github.com/roach88/activeset/internal/queryir"
)

// selectColumns is the column list used when a Select names no fields.
// The order matches the scan order in the store.
var selectColumns = []string{
	queryir.FieldID,
	queryir.FieldEngineID,
	queryir.FieldSeq,
	queryir.FieldType,
	queryir.FieldTime,
	queryir.FieldValues,
	queryir.FieldIndexes,
	queryir.FieldEvictedValues,
	queryir.FieldEvictedIndexes,
}

// SQLCompiler compiles queryir queries to parameterized SQL for SQLite.
//
// Every Select is ordered by seq then id with COLLATE BINARY, so results
// never depend on insertion order. Values are always bound as parameters;
// identifiers are checked against queryir.EventFields before they are
// written into the SQL text.
type SQLCompiler struct{}

// NewSQLCompiler creates a new SQLCompiler.
func NewSQLCompiler() *SQLCompiler {
	return &SQLCompiler{}
}

// Compile converts a query to parameterized SQL.
// Returns (sql, params, error) tuple.
func (c *SQLCompiler) Compile(q queryir.Query) (string, []any, error) {
	if q == nil {
		return "", nil, fmt.Errorf("cannot compile nil query")
	}
	if res := queryir.Validate(q); !res.IsValid {
		return "", nil, fmt.Errorf("invalid query: %s", strings.Join(res.Problems, "; "))
	}

	switch query := q.(type) {
	case queryir.Select:
		return c.compileSelect(query)
	case *queryir.Select:
		return c.compileSelect(*query)
	case queryir.Count:
		return c.compileCount(query)
	case *queryir.Count:
		return c.compileCount(*query)
	default:
		return "", nil, fmt.Errorf("unsupported query type: %T", q)
	}
}

// CompileFilter compiles the Select described by f.
func CompileFilter(f queryir.Filter) (string, []any, error) {
	if err := f.Validate(); err != nil {
		return "", nil, fmt.Errorf("invalid filter: %w", err)
	}
	return NewSQLCompiler().Compile(f.Query())
}

func (c *SQLCompiler) compileSelect(q queryir.Select) (string, []any, error) {
	fields := q.Fields
	if len(fields) == 0 {
		fields = selectColumns
	}

	whereClause, params, err := c.compileWhere(q.Filter)
	if err != nil {
		return "", nil, err
	}

	sql := fmt.Sprintf("SELECT %s FROM %s%s ORDER BY %s",
		strings.Join(fields, ", "),
		q.From,
		whereClause,
		stableOrderKey())

	if q.Limit > 0 {
		sql += " LIMIT ?"
		params = append(params, int64(q.Limit))
	}
	return sql, params, nil
}

func (c *SQLCompiler) compileCount(q queryir.Count) (string, []any, error) {
	whereClause, params, err := c.compileWhere(q.Filter)
	if err != nil {
		return "", nil, err
	}

	sql := fmt.Sprintf("SELECT %s, COUNT(*) FROM %s%s GROUP BY %s ORDER BY %s ASC COLLATE BINARY",
		q.GroupBy,
		q.From,
		whereClause,
		q.GroupBy,
		q.GroupBy)
	return sql, params, nil
}

func (c *SQLCompiler) compileWhere(p queryir.Predicate) (string, []any, error) {
	if p == nil {
		return "", nil, nil
	}
	sql, params, err := c.compilePredicate(p)
	if err != nil {
		return "", nil, fmt.Errorf("compile filter: %w", err)
	}
	return " WHERE " + sql, params, nil
}

// stableOrderKey is the ORDER BY clause of every Select.
// COLLATE BINARY keeps text ordering identical across SQLite builds.
func stableOrderKey() string {
	return "seq ASC, id ASC COLLATE BINARY"
}

// compilePredicate compiles a predicate to a WHERE clause fragment.
// Values are never interpolated.
func (c *SQLCompiler) compilePredicate(p queryir.Predicate) (string, []any, error) {
	if p == nil {
		return "1 = 1", nil, nil
	}

	switch pred := p.(type) {
	case queryir.Equals:
		return compileEquals(pred)
	case *queryir.Equals:
		return compileEquals(*pred)
	case queryir.In:
		return compileIn(pred)
	case *queryir.In:
		return compileIn(*pred)
	case queryir.AtLeast:
		return pred.Field + " >= ?", []any{pred.Value}, nil
	case *queryir.AtLeast:
		return pred.Field + " >= ?", []any{pred.Value}, nil
	case queryir.AtMost:
		return pred.Field + " <= ?", []any{pred.Value}, nil
	case *queryir.AtMost:
		return pred.Field + " <= ?", []any{pred.Value}, nil
	case queryir.ContainsInt:
		return compileContains(pred)
	case *queryir.ContainsInt:
		return compileContains(*pred)
	case queryir.And:
		return c.compileJunction(pred.Predicates, " AND ", "1 = 1")
	case *queryir.And:
		return c.compileJunction(pred.Predicates, " AND ", "1 = 1")
	case queryir.AnyOf:
		return c.compileJunction(pred.Predicates, " OR ", "1 = 0")
	case *queryir.AnyOf:
		return c.compileJunction(pred.Predicates, " OR ", "1 = 0")
	default:
		return "", nil, fmt.Errorf("unsupported predicate type: %T", p)
	}
}

func compileEquals(eq queryir.Equals) (string, []any, error) {
	param, err := valueToParam(eq.Value)
	if err != nil {
		return "", nil, fmt.Errorf("convert value: %w", err)
	}
	return eq.Field + " = ?", []any{param}, nil
}

func compileIn(in queryir.In) (string, []any, error) {
	if len(in.Values) == 0 {
		return "1 = 0", nil, nil
	}
	params := make([]any, len(in.Values))
	for i, v := range in.Values {
		param, err := valueToParam(v)
		if err != nil {
			return "", nil, fmt.Errorf("convert value %d: %w", i, err)
		}
		params[i] = param
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(params)), ", ")
	return fmt.Sprintf("%s IN (%s)", in.Field, placeholders), params, nil
}

func compileContains(c queryir.ContainsInt) (string, []any, error) {
	sql := fmt.Sprintf("EXISTS (SELECT 1 FROM json_each(%s) WHERE json_each.value = ?)", c.Field)
	return sql, []any{c.Value}, nil
}

// compileJunction joins sub-predicates with sep. Nested junctions are
// parenthesized so AND/OR precedence never changes the meaning.
func (c *SQLCompiler) compileJunction(preds []queryir.Predicate, sep, empty string) (string, []any, error) {
	if len(preds) == 0 {
		return empty, nil, nil
	}

	var (
		parts  []string
		params []any
	)
	for _, pred := range preds {
		sql, ps, err := c.compilePredicate(pred)
		if err != nil {
			return "", nil, err
		}
		if isJunction(pred) {
			sql = "(" + sql + ")"
		}
		parts = append(parts, sql)
		params = append(params, ps...)
	}
	return strings.Join(parts, sep), params, nil
}

func isJunction(p queryir.Predicate) bool {
	switch p.(type) {
	case queryir.And, *queryir.And, queryir.AnyOf, *queryir.AnyOf:
		return true
	}
	return false
}

// valueToParam converts a scalar ir.Value to a Go value for a SQL
// parameter.
func valueToParam(v ir.Value) (any, error) {
	switch val := v.(type) {
	case ir.String:
		return string(val), nil
	case ir.Int:
		return int64(val), nil
	case ir.Bool:
		return bool(val), nil
	default:
		return nil, fmt.Errorf("unsupported value type for SQL parameter: %T", v)
	}
}
