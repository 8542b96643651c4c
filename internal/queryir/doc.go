// Package queryir provides an abstract query representation over the
// recorded event log.
//
// Queries are built once, validated, and handed to a backend compiler
// (internal/querysql for SQLite). Callers never write SQL, and the backend
// never sees anything it cannot parameterize.
//
//	[Filter] → [Query IR] → [SQL backend]
//
// SEALED INTERFACES:
//
// Query and Predicate are sealed interfaces using the marker method pattern.
// Only types in this package can implement them, so backends can switch
// exhaustively:
//
//	switch q := query.(type) {
//	case Select:
//	    // rows
//	case Count:
//	    // grouped counts
//	}
//
// FIELDS:
//
// Field names are identifiers, not values, and end up in the SQL text. They
// are therefore restricted to the columns listed in EventFields; Validate
// rejects anything else and the backend refuses to compile it.
//
// ORDERING:
//
// Every Select is ordered by (seq, id). Seq is the engine's logical clock;
// id breaks ties between engines that share a log. Wall-clock time is never
// used for ordering.
package queryir
