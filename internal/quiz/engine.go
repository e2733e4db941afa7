// Package quiz runs timed multiple-choice quizzes. Question flow is a pure
// reducer over State; Engine drives it with a countdown per question and a
// short feedback pause before advancing.
package quiz

import (
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/abhisek/ladder/internal/catalog"
	"github.com/abhisek/ladder/internal/countdown"
)

const (
	// DefaultDuration is the per-question countdown in units.
	DefaultDuration = 10
	// DefaultUnit is the length of one countdown unit.
	DefaultUnit = time.Second
	// DefaultFeedbackDelay is how long the correctness indicator shows
	// before the next question.
	DefaultFeedbackDelay = 1500 * time.Millisecond
)

// Engine runs one quiz attempt. It is discarded after the attempt.
type Engine struct {
	mu sync.Mutex

	clock         clockwork.Clock
	unit          time.Duration
	duration      int
	feedbackDelay time.Duration
	lazy          bool
	shuffler      Shuffler
	logger        *slog.Logger

	questions []catalog.Question
	state     State
	started   bool
	stopped   bool
	finished  bool

	timer         *countdown.Handle
	timerQuestion int
	feedback      clockwork.Timer

	onFinish func(Result)
	onChange func(State)
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithClock sets the clock driving countdowns and the feedback pause.
func WithClock(c clockwork.Clock) EngineOption {
	return func(e *Engine) { e.clock = c }
}

// WithUnit sets the length of one countdown unit.
func WithUnit(d time.Duration) EngineOption {
	return func(e *Engine) { e.unit = d }
}

// WithDuration sets the per-question countdown in units.
func WithDuration(units int) EngineOption {
	return func(e *Engine) { e.duration = units }
}

// WithFeedbackDelay sets the pause between submission and advancing.
func WithFeedbackDelay(d time.Duration) EngineOption {
	return func(e *Engine) { e.feedbackDelay = d }
}

// WithShuffler sets the option shuffler.
func WithShuffler(s Shuffler) EngineOption {
	return func(e *Engine) { e.shuffler = s }
}

// WithLazyFirstTimer delays the first question's countdown until the
// first option is selected.
func WithLazyFirstTimer() EngineOption {
	return func(e *Engine) { e.lazy = true }
}

// WithLogger sets the engine logger.
func WithLogger(l *slog.Logger) EngineOption {
	return func(e *Engine) { e.logger = l }
}

// OnChange registers a callback receiving every new state. It runs
// outside the engine lock.
func OnChange(f func(State)) EngineOption {
	return func(e *Engine) { e.onChange = f }
}

// NewEngine prepares a quiz over the playable questions of bank. onFinish
// is called exactly once with the final result.
func NewEngine(bank []catalog.Question, onFinish func(Result), opts ...EngineOption) *Engine {
	e := &Engine{
		clock:         clockwork.NewRealClock(),
		unit:          DefaultUnit,
		duration:      DefaultDuration,
		feedbackDelay: DefaultFeedbackDelay,
		shuffler:      DefaultShuffler,
		logger:        slog.Default(),
		onFinish:      onFinish,
		timerQuestion: -1,
	}
	for _, opt := range opts {
		opt(e)
	}
	for i, q := range bank {
		if !q.Valid() {
			e.logger.Warn("quiz skipping malformed question", "index", i, "prompt", q.Prompt)
			continue
		}
		e.questions = append(e.questions, q)
	}
	return e
}

// Start presents the first question. It returns false, and does nothing,
// when there are no playable questions.
func (e *Engine) Start() bool {
	e.mu.Lock()
	if e.started || e.stopped || len(e.questions) == 0 {
		e.mu.Unlock()
		return false
	}
	e.started = true
	e.state = NewState(len(e.questions), e.duration, e.lazy, Shuffle(e.questions[0], e.shuffler))
	e.reconcile(State{Phase: -1})
	st := e.state
	e.mu.Unlock()

	e.notify(st, nil)
	return true
}

// Select picks a display option on the current question.
func (e *Engine) Select(option int) {
	e.mu.Lock()
	q := e.state.Index
	e.mu.Unlock()
	e.dispatch(Select{Question: q, Option: option})
}

// Submit evaluates the current selection.
func (e *Engine) Submit() {
	e.mu.Lock()
	q := e.state.Index
	e.mu.Unlock()
	e.dispatch(Submit{Question: q})
}

// Stop tears the engine down. Pending timers are cancelled and no
// callback fires afterwards.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stopped = true
	e.cancelTimer()
	if e.feedback != nil {
		e.feedback.Stop()
		e.feedback = nil
	}
}

// State returns the current state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Question returns the question currently shown.
func (e *Engine) Question() catalog.Question {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state.Index < len(e.questions) {
		return e.questions[e.state.Index]
	}
	return catalog.Question{}
}

// Len returns the number of playable questions.
func (e *Engine) Len() int {
	return len(e.questions)
}

// TimerRunning reports whether a countdown is active.
func (e *Engine) TimerRunning() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.timer.Active()
}

func (e *Engine) dispatch(ev Event) {
	e.mu.Lock()
	if !e.started || e.stopped {
		e.mu.Unlock()
		return
	}
	prev := e.state
	e.state = Reduce(prev, ev)
	result := e.reconcile(prev)
	st := e.state
	e.mu.Unlock()

	e.notify(st, result)
}

// reconcile aligns timers with the state after a transition. It keeps at
// most one countdown alive, bound to the current question. Must be called
// with e.mu held. Returns the final result the first time the run finishes.
func (e *Engine) reconcile(prev State) *Result {
	s := e.state

	wantTimer := s.Phase == PhasePresenting && s.TimerActive
	if !wantTimer || e.timerQuestion != s.Index {
		e.cancelTimer()
	}
	if wantTimer && e.timer == nil {
		q := s.Index
		e.timerQuestion = q
		e.timer = countdown.Start(e.clock, e.unit, s.Duration,
			func(remaining int) { e.dispatch(Tick{Question: q, Remaining: remaining}) },
			func() { e.dispatch(Expire{Question: q}) },
		)
	}

	if s.Phase == PhaseSubmitted && prev.Phase != PhaseSubmitted {
		q := s.Index
		e.logger.Debug("quiz answer", "question", q, "correct", s.LastCorrect, "timed_out", s.TimedOut)
		e.feedback = e.clock.AfterFunc(e.feedbackDelay, func() { e.advance(q) })
	}

	if s.Phase == PhaseFinished && !e.finished {
		e.finished = true
		r := s.Result()
		return &r
	}
	return nil
}

func (e *Engine) cancelTimer() {
	if e.timer != nil {
		e.timer.Cancel()
		e.timer = nil
	}
	e.timerQuestion = -1
}

// advance fires after the feedback pause of question q.
func (e *Engine) advance(q int) {
	e.mu.Lock()
	if e.stopped || e.state.Phase != PhaseSubmitted || e.state.Index != q {
		e.mu.Unlock()
		return
	}
	e.feedback = nil
	var next []Option
	if q+1 < len(e.questions) {
		next = Shuffle(e.questions[q+1], e.shuffler)
	}
	e.mu.Unlock()

	e.dispatch(Advance{Options: next})
}

func (e *Engine) notify(st State, result *Result) {
	if e.onChange != nil {
		e.onChange(st)
	}
	if result != nil && e.onFinish != nil {
		e.onFinish(*result)
	}
}
