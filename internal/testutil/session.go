// Package testutil provides deterministic helpers for tests and scenario
// runs.
package testutil

// DefaultSessionID is used when a scenario does not name its session.
const DefaultSessionID = "test-session-default"

// FixedSessionGenerator returns the same session id every time.
//
// The same scenario run with the same FixedSessionGenerator produces
// byte-identical journals.
//
// Unlike journal.FixedGenerator, which returns ids in sequence, this
// generator never runs out.
//
// Thread-safety: FixedSessionGenerator is stateless and safe for concurrent use.
type FixedSessionGenerator struct {
	id string
}

// NewFixedSessionGenerator creates a fixed session id generator.
// If id is empty, Generate returns DefaultSessionID.
func NewFixedSessionGenerator(id string) *FixedSessionGenerator {
	if id == "" {
		id = DefaultSessionID
	}
	return &FixedSessionGenerator{id: id}
}

// Generate returns the fixed session id.
//
// Implements journal.SessionIDGenerator.
func (g *FixedSessionGenerator) Generate() string {
	return g.id
}
