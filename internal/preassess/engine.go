package preassess

import (
	"github.com/abhisek/ladder/internal/catalog"
	"github.com/abhisek/ladder/internal/quiz"
)

// Engine runs a pre-assessment over the first SampleSize questions. The
// countdown on the first question starts with the first selection; every
// later question is timed from the moment it appears. The run always
// plays all questions before reporting.
type Engine struct {
	quiz *quiz.Engine
}

// NewEngine prepares a pre-assessment. onFinish receives the outcome once.
func NewEngine(bank []catalog.Question, onFinish func(Outcome), opts ...quiz.EngineOption) (*Engine, error) {
	sample := Sample(bank)
	if sample == nil {
		return nil, ErrBankTooSmall
	}
	opts = append(opts, quiz.WithLazyFirstTimer())
	q := quiz.NewEngine(sample, func(r quiz.Result) {
		if onFinish != nil {
			onFinish(outcomeOf(r))
		}
	}, opts...)
	return &Engine{quiz: q}, nil
}

// Start presents the first question.
func (e *Engine) Start() bool { return e.quiz.Start() }

// Select picks a display option on the current question.
func (e *Engine) Select(option int) { e.quiz.Select(option) }

// Submit evaluates the current selection.
func (e *Engine) Submit() { e.quiz.Submit() }

// Stop cancels all timers.
func (e *Engine) Stop() { e.quiz.Stop() }

// State returns the underlying quiz state.
func (e *Engine) State() quiz.State { return e.quiz.State() }

// Question returns the question currently shown.
func (e *Engine) Question() catalog.Question { return e.quiz.Question() }

// Failing reports whether the run can no longer pass.
func (e *Engine) Failing() bool { return e.quiz.State().Stats.Incorrect > 0 }
