package generator

// Config drives the synthetic lead generator.
type Config struct {
	NumLeads int
	// InvalidChance is the probability that a payload is deliberately malformed.
	InvalidChance float64
	NoteChance    float64
	Seed          int64
}

// DefaultConfig returns baseline settings suitable for load testing.
func DefaultConfig() Config {
	return Config{
		NumLeads:      500,
		InvalidChance: 0.05,
		NoteChance:    0.6,
		Seed:          42,
	}
}
