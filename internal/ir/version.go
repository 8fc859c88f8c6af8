package ir

// Version constants recorded with every pass run.
const (
	// IRVersion is the graph schema version used by graph files and hashes.
	IRVersion = "1"

	// ToolVersion is the datamove version.
	ToolVersion = "0.1.0"
)
