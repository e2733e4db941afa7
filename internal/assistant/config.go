package assistant

// Config holds assistant request settings.
type Config struct {
	MaxTokens   int
	Temperature float64

	// HistoryTurns is how many earlier question and answer pairs of the
	// same conversation are resent with a new question.
	HistoryTurns int

	// MaxLessonChars caps the lesson text sent as context.
	MaxLessonChars int
}

// DefaultConfig returns sensible defaults for the assistant.
func DefaultConfig() Config {
	return Config{
		MaxTokens:      512,
		Temperature:    0.4,
		HistoryTurns:   3,
		MaxLessonChars: 6000,
	}
}
