package testutil

// FixedIDGenerator returns the same engine ID every time.
//
// Scenario runs use it so the recorded event trace is byte-identical between
// runs, which golden snapshot comparison depends on.
//
// Unlike engine.FixedGenerator which returns ids in sequence, this generator
// never runs out.
//
// Thread-safety: FixedIDGenerator is stateless and safe for concurrent use.
type FixedIDGenerator struct {
	id string
}

// NewFixedIDGenerator creates a generator returning id.
// If id is empty, Generate() returns "test-engine-default".
func NewFixedIDGenerator(id string) *FixedIDGenerator {
	if id == "" {
		id = "test-engine-default"
	}
	return &FixedIDGenerator{id: id}
}

// Generate returns the fixed id.
//
// Implements engine.IDGenerator interface.
func (g *FixedIDGenerator) Generate() string {
	return g.id
}
