package quiz

// Event is an input to Reduce.
type Event interface {
	isEvent()
}

// Select picks option Option for question Question.
type Select struct {
	Question int
	Option   int
}

// Submit evaluates the current selection of question Question.
type Submit struct {
	Question int
}

// Tick reports the countdown of question Question reaching Remaining.
type Tick struct {
	Question  int
	Remaining int
}

// Expire reports the countdown of question Question reaching zero.
type Expire struct {
	Question int
}

// Advance moves past a submitted question. Options holds the shuffled
// options of the next question and is ignored on the last one.
type Advance struct {
	Options []Option
}

func (Select) isEvent()  {}
func (Submit) isEvent()  {}
func (Tick) isEvent()    {}
func (Expire) isEvent()  {}
func (Advance) isEvent() {}

// Reduce applies ev to s and returns the resulting state. Events that do
// not apply to the current phase or question are ignored, which makes a
// second submit, a stale tick or a selection after submission no-ops.
func Reduce(s State, ev Event) State {
	switch e := ev.(type) {
	case Select:
		if s.Phase != PhasePresenting || e.Question != s.Index {
			return s
		}
		if e.Option < 0 || e.Option >= len(s.Options) {
			return s
		}
		s.Selected = e.Option
		if s.LazyTimer && !s.TimerActive && s.Index == 0 {
			s.TimerActive = true
			s.Remaining = s.Duration
		}
		return s

	case Submit:
		if s.Phase != PhasePresenting || e.Question != s.Index {
			return s
		}
		return evaluate(s, false)

	case Expire:
		if s.Phase != PhasePresenting || e.Question != s.Index || !s.TimerActive {
			return s
		}
		s.Remaining = 0
		return evaluate(s, true)

	case Tick:
		if s.Phase != PhasePresenting || e.Question != s.Index || !s.TimerActive {
			return s
		}
		s.Remaining = e.Remaining
		return s

	case Advance:
		if s.Phase != PhaseSubmitted {
			return s
		}
		if s.Index+1 >= s.Total {
			s.Phase = PhaseFinished
			return s
		}
		s.Phase = PhasePresenting
		s.Index++
		s.Options = e.Options
		s.Selected = NoSelection
		s.Remaining = s.Duration
		s.TimerActive = true
		s.LastCorrect = false
		s.TimedOut = false
		return s
	}
	return s
}

// evaluate scores the current selection. No selection counts as wrong.
func evaluate(s State, timedOut bool) State {
	correct := s.Selected >= 0 && s.Selected < len(s.Options) && s.Options[s.Selected].Correct
	if correct {
		s.Stats.Correct++
	} else {
		s.Stats.Incorrect++
	}
	s.Phase = PhaseSubmitted
	s.TimerActive = false
	s.LastCorrect = correct
	s.TimedOut = timedOut
	return s
}
