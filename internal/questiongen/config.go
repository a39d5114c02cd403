package questiongen

// Config controls LLMSource.
type Config struct {
	// Validators run in order on each generated question; the first
	// failure drops that question.
	Validators []Validator

	MaxTokens   int
	Temperature float64

	// MaxPriorQuestions bounds the already-asked list sent in the prompt.
	MaxPriorQuestions int

	// MaxBatch caps questions requested per call.
	MaxBatch int
}

// DefaultConfig returns the standard validator chain and limits.
func DefaultConfig() Config {
	return Config{
		Validators:        []Validator{&StructuralValidator{}, &DedupValidator{}},
		MaxTokens:         2048,
		Temperature:       0.8,
		MaxPriorQuestions: 12,
		MaxBatch:          10,
	}
}
