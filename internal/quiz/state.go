package quiz

// Phase is the lifecycle position of the current question.
type Phase int

const (
	PhasePresenting Phase = iota
	PhaseSubmitted
	PhaseFinished
)

func (p Phase) String() string {
	switch p {
	case PhasePresenting:
		return "presenting"
	case PhaseSubmitted:
		return "submitted"
	case PhaseFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// NoSelection marks that no option is selected.
const NoSelection = -1

// Stats is the running tally.
type Stats struct {
	Correct   int
	Incorrect int
}

// State is an immutable snapshot of a quiz run. Each event produces a new
// State through Reduce.
type State struct {
	Phase    Phase
	Index    int
	Total    int
	Options  []Option
	Selected int

	// Remaining counts the countdown units left for the current question.
	Remaining int
	Duration  int
	// TimerActive is false while a lazy first-question timer waits for
	// the first selection, and after submission.
	TimerActive bool
	LazyTimer   bool

	LastCorrect bool
	TimedOut    bool
	Stats       Stats
}

// NewState returns the initial state for a run of total questions.
// With lazy set, the first question's countdown starts on the first
// selection instead of immediately.
func NewState(total, duration int, lazy bool, first []Option) State {
	return State{
		Phase:       PhasePresenting,
		Total:       total,
		Options:     first,
		Selected:    NoSelection,
		Remaining:   duration,
		Duration:    duration,
		TimerActive: !lazy,
		LazyTimer:   lazy,
	}
}

// Answered returns the number of questions already evaluated.
func (s State) Answered() int {
	return s.Stats.Correct + s.Stats.Incorrect
}

// Interactive reports whether option selection is currently accepted.
func (s State) Interactive() bool {
	return s.Phase == PhasePresenting
}

// Result returns the tally as a Result.
func (s State) Result() Result {
	return NewResult(s.Stats.Correct, s.Total)
}
