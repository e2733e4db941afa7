// Package quiz is the screen that runs a sub-module quiz or a
// pre-assessment and records the outcome.
package quiz

import (
	"fmt"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/ladder/internal/catalog"
	"github.com/abhisek/ladder/internal/preassess"
	"github.com/abhisek/ladder/internal/progression"
	qz "github.com/abhisek/ladder/internal/quiz"
	"github.com/abhisek/ladder/internal/router"
	"github.com/abhisek/ladder/internal/screen"
	"github.com/abhisek/ladder/internal/screens/shell"
	"github.com/abhisek/ladder/internal/ui/layout"
)

// Mode selects what the run decides.
type Mode int

const (
	// ModeQuiz gates completion on the pass threshold.
	ModeQuiz Mode = iota
	// ModeBypass is the pre-assessment: a perfect run skips the lesson.
	ModeBypass
)

// runner is the engine surface the screen drives. Both quiz and
// pre-assessment engines satisfy it.
type runner interface {
	Start() bool
	Select(option int)
	Submit()
	Stop()
}

// QuizScreen runs one attempt. It is discarded when the attempt ends.
type QuizScreen struct {
	deps *shell.Deps
	ref  progression.Ref
	sub  catalog.SubModule
	mode Mode

	// questions are the playable questions in run order; state.Index
	// points into it.
	questions []catalog.Question
	engine    runner
	events    chan tea.Msg
	done      chan struct{}

	state   qz.State
	started bool

	finished   bool
	result     qz.Result
	outcome    *preassess.Outcome
	recorded   bool
	transition *progression.Transition

	// explanations holds the explanation per missed question index.
	explanations map[int]string
	explaining   int

	onBypass    func(preassess.Outcome)
	confirmQuit bool
	errMsg      string
}

var _ screen.Screen = (*QuizScreen)(nil)
var _ screen.KeyHintProvider = (*QuizScreen)(nil)

// New creates a quiz over the sub-module's question bank.
func New(deps *shell.Deps, ref progression.Ref, sub catalog.SubModule) *QuizScreen {
	return &QuizScreen{
		deps:         deps,
		ref:          ref,
		sub:          sub,
		mode:         ModeQuiz,
		questions:    sub.Playable(),
		explanations: make(map[int]string),
		explaining:   -1,
	}
}

// NewBypass creates a pre-assessment. onFinish, if set, receives the
// outcome when the run ends so the lesson can switch to read mode.
func NewBypass(deps *shell.Deps, ref progression.Ref, sub catalog.SubModule, onFinish func(preassess.Outcome)) *QuizScreen {
	s := New(deps, ref, sub)
	s.mode = ModeBypass
	s.questions = preassess.Sample(sub.Questions)
	s.onBypass = onFinish
	return s
}

func (s *QuizScreen) Init() tea.Cmd {
	s.events = make(chan tea.Msg, 64)
	s.done = make(chan struct{})

	opts := append([]qz.EngineOption{
		qz.WithLogger(s.deps.Log()),
		qz.OnChange(func(st qz.State) { s.post(stateMsg{State: st}) }),
	}, s.deps.QuizOptions...)

	switch s.mode {
	case ModeBypass:
		eng, err := preassess.NewEngine(s.sub.Questions, func(o preassess.Outcome) {
			s.post(finishedMsg{Result: o.Result(), Outcome: &o})
		}, opts...)
		if err != nil {
			s.errMsg = err.Error()
			return nil
		}
		s.engine = eng
	default:
		s.engine = qz.NewEngine(s.sub.Questions, func(r qz.Result) {
			s.post(finishedMsg{Result: r})
		}, opts...)
	}

	if !s.engine.Start() {
		s.errMsg = "this lesson has no playable questions"
		return nil
	}
	s.started = true
	s.deps.Log().Info("quiz started", "ref", s.ref.String(), "mode", s.modeName(), "questions", len(s.questions))
	return s.listen()
}

// post hands an engine event to the screen. It gives up once the screen
// has been torn down.
func (s *QuizScreen) post(msg tea.Msg) {
	select {
	case s.events <- msg:
	case <-s.done:
	}
}

// listen waits for the next engine event.
func (s *QuizScreen) listen() tea.Cmd {
	events, done := s.events, s.done
	return func() tea.Msg {
		select {
		case msg := <-events:
			return msg
		case <-done:
			return nil
		}
	}
}

// teardown stops the engine and releases any waiting listener.
func (s *QuizScreen) teardown() {
	if s.engine != nil {
		s.engine.Stop()
	}
	if s.done != nil {
		select {
		case <-s.done:
		default:
			close(s.done)
		}
	}
}

func (s *QuizScreen) Title() string {
	if s.mode == ModeBypass {
		return "Pre-assessment: " + s.sub.Title
	}
	return "Quiz: " + s.sub.Title
}

func (s *QuizScreen) modeName() string {
	if s.mode == ModeBypass {
		return "bypass"
	}
	return "quiz"
}

func (s *QuizScreen) KeyHints() []layout.KeyHint {
	switch {
	case s.errMsg != "":
		return []layout.KeyHint{{Key: "any key", Description: "Back"}}
	case s.confirmQuit:
		return []layout.KeyHint{
			{Key: "Y", Description: "Leave quiz"},
			{Key: "N", Description: "Keep going"},
		}
	case s.finished:
		hints := []layout.KeyHint{{Key: "Enter", Description: "Continue"}}
		if s.canRetry() {
			hints = append(hints, layout.KeyHint{Key: "R", Description: "Retry"})
		}
		return hints
	case s.state.Phase == qz.PhaseSubmitted:
		return []layout.KeyHint{{Key: "Esc", Description: "Leave"}}
	}
	return []layout.KeyHint{
		{Key: "↑↓ 1-9", Description: "Choose"},
		{Key: "Enter", Description: "Submit"},
		{Key: "Esc", Description: "Leave"},
	}
}

// Capturing keeps esc inside the screen so leaving asks for confirmation.
func (s *QuizScreen) Capturing() bool {
	return s.errMsg == "" && !s.finished
}

func (s *QuizScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case stateMsg:
		return s.handleState(msg)
	case finishedMsg:
		return s.handleFinished(msg)
	case recordedMsg:
		return s.handleRecorded(msg)
	case explainedMsg:
		return s.handleExplained(msg)
	case tea.KeyPressMsg:
		return s.handleKey(msg)
	}
	return s, nil
}

func (s *QuizScreen) handleState(msg stateMsg) (screen.Screen, tea.Cmd) {
	prev := s.state
	s.state = msg.State

	cmds := []tea.Cmd{s.listen()}
	freshMiss := s.state.Phase == qz.PhaseSubmitted && !s.state.LastCorrect &&
		(prev.Phase != qz.PhaseSubmitted || prev.Index != s.state.Index)
	if freshMiss {
		cmds = append(cmds, s.explain(s.state))
	}
	return s, tea.Batch(cmds...)
}

func (s *QuizScreen) handleFinished(msg finishedMsg) (screen.Screen, tea.Cmd) {
	s.finished = true
	s.result = msg.Result
	s.outcome = msg.Outcome
	s.deps.Log().Info("quiz finished", "ref", s.ref.String(), "mode", s.modeName(), "result", s.result.String())

	if s.outcome != nil && s.onBypass != nil {
		s.onBypass(*s.outcome)
	}
	return s, s.record()
}

func (s *QuizScreen) record() tea.Cmd {
	deps, ref, mode, result, outcome := s.deps, s.ref, s.mode, s.result, s.outcome
	return func() tea.Msg {
		ctx, cancel := deps.Context()
		defer cancel()

		var t *progression.Transition
		var err error
		if mode == ModeBypass && outcome != nil {
			t, err = deps.Progression.RecordBypassOutcome(ctx, ref, *outcome)
		} else {
			t, err = deps.Progression.RecordQuizOutcome(ctx, ref, result)
		}
		return recordedMsg{Transition: t, Err: err}
	}
}

func (s *QuizScreen) handleRecorded(msg recordedMsg) (screen.Screen, tea.Cmd) {
	s.recorded = true
	s.transition = msg.Transition
	if msg.Err != nil {
		if progression.IsRejected(msg.Err) {
			s.deps.Log().Info("quiz outcome not applied", "ref", s.ref.String(), "reason", msg.Err)
		} else {
			s.errMsg = msg.Err.Error()
		}
	}
	return s, nil
}

// explain asks for an explanation of the miss in st.
func (s *QuizScreen) explain(st qz.State) tea.Cmd {
	if st.Index >= len(s.questions) {
		return nil
	}
	q := s.questions[st.Index]
	if !s.deps.Assistant.Enabled() && q.Explanation == "" {
		return nil
	}
	chosen := -1
	if !st.TimedOut && st.Selected >= 0 && st.Selected < len(st.Options) {
		chosen = authoredIndex(q, st.Options[st.Selected].Text)
	}

	s.explaining = st.Index
	a, idx := s.deps.Assistant, st.Index
	deps := s.deps
	return func() tea.Msg {
		ctx, cancel := deps.Context()
		defer cancel()
		reply, err := a.ExplainMiss(ctx, q, chosen)
		return explainedMsg{Index: idx, Reply: reply, Err: err}
	}
}

func (s *QuizScreen) handleExplained(msg explainedMsg) (screen.Screen, tea.Cmd) {
	if s.explaining == msg.Index {
		s.explaining = -1
	}
	if msg.Err != nil {
		s.deps.Log().Debug("no explanation available", "index", msg.Index, "error", msg.Err)
		return s, nil
	}
	s.explanations[msg.Index] = msg.Reply.Answer
	return s, nil
}

// authoredIndex maps a displayed option back to its authored position.
func authoredIndex(q catalog.Question, text string) int {
	for i, opt := range q.Options {
		if opt == text {
			return i
		}
	}
	return -1
}

func (s *QuizScreen) handleKey(msg tea.KeyPressMsg) (screen.Screen, tea.Cmd) {
	key := msg.String()

	if s.errMsg != "" {
		s.teardown()
		return s, router.Pop
	}

	if s.confirmQuit {
		switch key {
		case "y", "Y":
			s.teardown()
			s.deps.Log().Info("quiz abandoned", "ref", s.ref.String(), "answered", s.state.Answered())
			return s, router.Pop
		case "n", "N", "esc":
			s.confirmQuit = false
		}
		return s, nil
	}

	if s.finished {
		switch key {
		case "enter", "esc", "q":
			s.teardown()
			return s, router.Pop
		case "r", "R":
			if s.canRetry() {
				s.teardown()
				return s, router.Replace(New(s.deps, s.ref, s.sub))
			}
		}
		return s, nil
	}

	if key == "esc" {
		s.confirmQuit = true
		return s, nil
	}
	if !s.started || !s.state.Interactive() {
		return s, nil
	}

	switch key {
	case "up", "k":
		s.engine.Select(max(s.state.Selected-1, 0))
	case "down", "j":
		if s.state.Selected == qz.NoSelection {
			s.engine.Select(0)
		} else {
			s.engine.Select(min(s.state.Selected+1, len(s.state.Options)-1))
		}
	case "enter", "space":
		if s.state.Selected != qz.NoSelection {
			s.engine.Submit()
		}
	default:
		if n, ok := digit(key); ok && n <= len(s.state.Options) {
			s.engine.Select(n - 1)
		}
	}
	return s, nil
}

func digit(key string) (int, bool) {
	if len(key) == 1 && key[0] >= '1' && key[0] <= '9' {
		return int(key[0] - '0'), true
	}
	return 0, false
}

// canRetry reports whether a failed quiz may be taken again right away.
// A failed pre-assessment sends the learner to read instead.
func (s *QuizScreen) canRetry() bool {
	return s.finished && s.recorded && s.mode == ModeQuiz && s.transition == nil && !s.passed()
}

func (s *QuizScreen) passed() bool {
	if s.mode == ModeBypass {
		return s.outcome != nil && s.outcome.Passed
	}
	return s.result.PassedAt(s.deps.Progression.Policy().PassThreshold)
}

func (s *QuizScreen) progressLabel() string {
	n := s.state.Index + 1
	if s.state.Phase == qz.PhaseFinished {
		n = s.state.Total
	}
	return fmt.Sprintf("Question %d/%d", n, s.state.Total)
}
