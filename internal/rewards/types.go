package rewards

// Kind identifies what earned the experience points.
type Kind string

const (
	KindQuizPass Kind = "quiz-pass"
	KindReading  Kind = "reading"
	KindBypass   Kind = "bypass"
	KindModule   Kind = "module-complete"
)

// AllKinds returns all award kinds in display order.
func AllKinds() []Kind {
	return []Kind{KindQuizPass, KindReading, KindBypass, KindModule}
}

// DisplayName returns a human-readable label for the kind.
func (k Kind) DisplayName() string {
	switch k {
	case KindQuizPass:
		return "Quiz passed"
	case KindReading:
		return "Lesson read"
	case KindBypass:
		return "Perfect pre-assessment"
	case KindModule:
		return "Module complete"
	default:
		return string(k)
	}
}

// Icon returns the display icon for the kind.
func (k Kind) Icon() string {
	switch k {
	case KindQuizPass:
		return "✅"
	case KindReading:
		return "📖"
	case KindBypass:
		return "⚡"
	case KindModule:
		return "🏆"
	default:
		return "✦"
	}
}
