package ir

// EventRecord is the type-erased form of an engine event, as written to the
// event log and golden traces.
type EventRecord struct {
	ID             string  `json:"id"` // Content-addressed hash (EventID)
	EngineID       string  `json:"engine_id"`
	Seq            int64   `json:"seq"` // Logical clock; orders the log
	Type           string  `json:"type"`
	TimeUnixNano   int64   `json:"time_unix_nano"` // Informational only
	Values         Array   `json:"values"`
	Indexes        []int64 `json:"indexes"`
	EvictedValues  Array   `json:"evicted_values,omitempty"`
	EvictedIndexes []int64 `json:"evicted_indexes,omitempty"`
}

// EngineSummary aggregates the recorded events of one engine.
type EngineSummary struct {
	EngineID     string           `json:"engine_id"`
	Events       int64            `json:"events"`
	FirstSeq     int64            `json:"first_seq"`
	LastSeq      int64            `json:"last_seq"`
	CountsByType map[string]int64 `json:"counts_by_type"`
}
