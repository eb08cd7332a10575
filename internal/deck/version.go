package deck

// Version constants for the deck schema and engine.
const (
	// DeckVersion is the deck schema version.
	DeckVersion = "1"

	// EngineVersion is the cellcad engine version.
	EngineVersion = "0.1.0"
)
