package ir

// Version constants for the journal schema and engine.
const (
	// IRVersion is the IR schema version written alongside every transition.
	IRVersion = "1"

	// EngineVersion is the jokebox engine version.
	EngineVersion = "0.1.0"
)
