package ir

// Version constants for journal records and the engine.
const (
	// IRVersion is the record schema version.
	IRVersion = "1"

	// EngineVersion is the causal engine version.
	EngineVersion = "0.1.0"
)
