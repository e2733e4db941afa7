// Package lesson is the screen that shows one sub-module's reading
// material and leads into its quiz, pre-assessment or completion.
package lesson

import (
	"errors"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/ladder/internal/assistant"
	"github.com/abhisek/ladder/internal/catalog"
	"github.com/abhisek/ladder/internal/llm"
	"github.com/abhisek/ladder/internal/preassess"
	"github.com/abhisek/ladder/internal/progression"
	"github.com/abhisek/ladder/internal/router"
	"github.com/abhisek/ladder/internal/screen"
	quizscreen "github.com/abhisek/ladder/internal/screens/quiz"
	"github.com/abhisek/ladder/internal/screens/shell"
	"github.com/abhisek/ladder/internal/ui/components"
	"github.com/abhisek/ladder/internal/ui/layout"
	"github.com/abhisek/ladder/internal/ui/theme"
)

// completedMsg reports the result of marking a reading lesson complete.
type completedMsg struct {
	Transition *progression.Transition
	Err        error
}

// answeredMsg carries the assistant's reply to a question.
type answeredMsg struct {
	Question string
	Reply    assistant.Reply
	Err      error
}

// LessonScreen shows a lesson. One screen is one visit: the bypass choice
// made here is forgotten when the learner leaves.
type LessonScreen struct {
	deps  *shell.Deps
	ref   progression.Ref
	sub   catalog.SubModule
	index int
	visit preassess.Visit

	lines  []string
	width  int
	scroll int

	asking   bool
	waiting  bool
	input    components.TextInput
	question string
	reply    *assistant.Reply

	transition *progression.Transition
	notice     string
	errMsg     string
}

var _ screen.Screen = (*LessonScreen)(nil)
var _ screen.KeyHintProvider = (*LessonScreen)(nil)
var _ screen.Resumer = (*LessonScreen)(nil)
var _ screen.Capturer = (*LessonScreen)(nil)

// New creates a lesson screen for ref.
func New(deps *shell.Deps, ref progression.Ref) *LessonScreen {
	s := &LessonScreen{deps: deps, ref: ref}
	sub, idx, ok := deps.Progression.Catalog().SubModule(ref.ModuleID, ref.SubModuleID)
	if !ok {
		s.errMsg = fmt.Sprintf("unknown lesson %s", ref)
		return s
	}
	s.sub, s.index = sub, idx
	return s
}

func (s *LessonScreen) Init() tea.Cmd {
	if s.errMsg != "" {
		return nil
	}
	if err := s.deps.Progression.Open(s.ref); err != nil {
		if errors.Is(err, progression.ErrLocked) {
			s.errMsg = "this lesson is still locked"
		} else {
			s.errMsg = err.Error()
		}
		return nil
	}
	s.deps.Log().Info("lesson opened", "ref", s.ref.String(), "offer", s.offering())
	return nil
}

func (s *LessonScreen) Title() string {
	return s.sub.Title
}

// Resume refreshes the screen when a quiz or pre-assessment returns.
func (s *LessonScreen) Resume() tea.Cmd {
	if o, ok := s.visit.Outcome(); ok && s.visit.Decision() == preassess.Read && !o.Passed {
		s.notice = fmt.Sprintf("Pre-assessment: %d of %d. Read on, then take the quiz.", o.Correct, o.Total)
	}
	if s.completed() && s.notice == "" {
		s.notice = "Lesson complete."
	}
	return nil
}

// Capturing keeps keys inside the assistant prompt while it is open.
func (s *LessonScreen) Capturing() bool {
	return s.asking
}

func (s *LessonScreen) KeyHints() []layout.KeyHint {
	switch {
	case s.errMsg != "":
		return []layout.KeyHint{{Key: "any key", Description: "Back"}}
	case s.asking:
		return []layout.KeyHint{
			{Key: "Enter", Description: "Ask"},
			{Key: "Esc", Description: "Close"},
		}
	case s.offering():
		return []layout.KeyHint{
			{Key: "B", Description: "Pre-assessment"},
			{Key: "R", Description: "Read"},
			{Key: "Esc", Description: "Back"},
		}
	}
	hints := []layout.KeyHint{{Key: "↑↓", Description: "Scroll"}}
	switch {
	case s.completed():
		if _, ok := s.next(); ok {
			hints = append(hints, layout.KeyHint{Key: "N", Description: "Next lesson"})
		}
	case s.sub.HasQuiz():
		hints = append(hints, layout.KeyHint{Key: "T", Description: "Take quiz"})
	default:
		hints = append(hints, layout.KeyHint{Key: "C", Description: "Mark complete"})
	}
	if s.deps.Assistant.Enabled() {
		hints = append(hints, layout.KeyHint{Key: "?", Description: "Ask"})
	}
	return append(hints, layout.KeyHint{Key: "Esc", Description: "Back"})
}

// offering reports whether the read-or-bypass choice is shown.
func (s *LessonScreen) offering() bool {
	if s.errMsg != "" {
		return false
	}
	return s.visit.Offer(
		s.deps.Progression.Accessible(s.ref.ModuleID, s.index),
		s.deps.Progression.HasRecord(s.ref),
		len(s.sub.Playable()),
	)
}

func (s *LessonScreen) completed() bool {
	p, _ := s.deps.Progression.Progress(s.ref)
	return p.Completed
}

// next returns the lesson after this one, following into the next module,
// when it is open.
func (s *LessonScreen) next() (progression.Ref, bool) {
	cat := s.deps.Progression.Catalog()
	if sub, ok := cat.SubModuleAt(s.ref.ModuleID, s.index+1); ok {
		if s.deps.Progression.Accessible(s.ref.ModuleID, s.index+1) {
			return progression.Ref{ModuleID: s.ref.ModuleID, SubModuleID: sub.ID}, true
		}
		return progression.Ref{}, false
	}
	m, ok := cat.NextModule(s.ref.ModuleID)
	if !ok || len(m.SubModules) == 0 || !s.deps.Progression.Accessible(m.ID, 0) {
		return progression.Ref{}, false
	}
	return progression.Ref{ModuleID: m.ID, SubModuleID: m.SubModules[0].ID}, true
}

func (s *LessonScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case completedMsg:
		return s.handleCompleted(msg)
	case answeredMsg:
		return s.handleAnswered(msg)
	case tea.KeyPressMsg:
		return s.handleKey(msg)
	}
	if s.asking {
		var cmd tea.Cmd
		s.input, cmd = s.input.Update(msg)
		return s, cmd
	}
	return s, nil
}

func (s *LessonScreen) handleKey(msg tea.KeyPressMsg) (screen.Screen, tea.Cmd) {
	key := msg.String()

	if s.errMsg != "" {
		return s, router.Pop
	}
	if s.asking {
		return s.handlePromptKey(msg)
	}

	if s.offering() {
		switch key {
		case "b", "B":
			if s.visit.ChooseBypass() {
				s.deps.Log().Info("bypass chosen", "ref", s.ref.String())
				return s, router.Push(quizscreen.NewBypass(s.deps, s.ref, s.sub, s.visit.Finish))
			}
		case "r", "R":
			s.visit.ChooseRead()
			s.deps.Log().Info("read chosen", "ref", s.ref.String())
		case "q":
			return s, router.Pop
		}
		return s, nil
	}

	switch key {
	case "up", "k":
		s.scroll = max(s.scroll-1, 0)
	case "down", "j":
		s.scroll++
	case "pgup":
		s.scroll = max(s.scroll-10, 0)
	case "pgdown", "space":
		s.scroll += 10
	case "home", "g":
		s.scroll = 0
	case "t", "T":
		if s.sub.HasQuiz() && !s.completed() {
			s.notice = ""
			return s, router.Push(quizscreen.New(s.deps, s.ref, s.sub))
		}
	case "c", "C":
		if !s.sub.HasQuiz() && !s.completed() {
			return s, s.markComplete()
		}
	case "n", "N":
		if !s.completed() {
			return s, nil
		}
		if ref, ok := s.next(); ok {
			return s, router.Replace(New(s.deps, ref))
		}
	case "?":
		if !s.deps.Assistant.Enabled() {
			s.notice = "The assistant is not configured."
			return s, nil
		}
		s.asking = true
		s.input = components.NewTextInput("Ask about this lesson...", 280)
		return s, s.input.Init()
	case "q":
		return s, router.Pop
	}
	return s, nil
}

func (s *LessonScreen) handlePromptKey(msg tea.KeyPressMsg) (screen.Screen, tea.Cmd) {
	switch msg.String() {
	case "esc":
		s.asking = false
		return s, nil
	case "enter":
		q := s.input.Value()
		if q == "" || s.waiting {
			return s, nil
		}
		s.waiting = true
		s.question = q
		s.input.Clear()
		return s, s.ask(q)
	}
	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)
	return s, cmd
}

func (s *LessonScreen) ask(question string) tea.Cmd {
	deps, key, sub := s.deps, s.ref.String(), s.sub
	return func() tea.Msg {
		ctx, cancel := deps.Context()
		defer cancel()
		reply, err := deps.Assistant.Ask(ctx, key, sub, question)
		return answeredMsg{Question: question, Reply: reply, Err: err}
	}
}

func (s *LessonScreen) handleAnswered(msg answeredMsg) (screen.Screen, tea.Cmd) {
	s.waiting = false
	if msg.Err != nil {
		s.deps.Log().Warn("assistant ask failed", "ref", s.ref.String(), "error", msg.Err)
		s.reply = nil
		s.notice = askFailure(msg.Err)
		return s, nil
	}
	s.notice = ""
	r := msg.Reply
	s.reply = &r
	return s, nil
}

func askFailure(err error) string {
	var unavailable *llm.ErrProviderUnavailable
	switch {
	case errors.Is(err, llm.ErrNotConfigured):
		return "The assistant is not configured."
	case errors.As(err, &unavailable):
		return "The assistant is unavailable right now."
	}
	return "The assistant could not answer. Try again."
}

func (s *LessonScreen) markComplete() tea.Cmd {
	deps, ref := s.deps, s.ref
	return func() tea.Msg {
		ctx, cancel := deps.Context()
		defer cancel()
		t, err := deps.Progression.MarkCompleteNoQuiz(ctx, ref)
		return completedMsg{Transition: t, Err: err}
	}
}

func (s *LessonScreen) handleCompleted(msg completedMsg) (screen.Screen, tea.Cmd) {
	if msg.Err != nil {
		if progression.IsRejected(msg.Err) {
			s.notice = "This lesson cannot be marked complete."
			return s, nil
		}
		s.errMsg = msg.Err.Error()
		return s, nil
	}
	s.transition = msg.Transition
	s.notice = ""
	return s, nil
}

func (s *LessonScreen) View(width, height int) string {
	if s.errMsg != "" {
		return shell.RenderError(width, s.errMsg)
	}
	if s.offering() {
		return s.renderOffer(width)
	}

	cw := min(width-6, 88)
	if s.lines == nil || s.width != cw {
		s.lines = renderContent(s.sub.Content, cw)
		s.width = cw
	}

	bottom := s.renderBottom(width, cw)
	avail := max(height-lipgloss.Height(bottom)-1, 3)
	s.scroll = min(s.scroll, max(len(s.lines)-avail, 0))
	end := min(s.scroll+avail, len(s.lines))

	body := strings.Join(s.lines[s.scroll:end], "\n")
	body = lipgloss.NewStyle().PaddingLeft(3).Render(body)
	if end < len(s.lines) {
		body += "\n" + theme.Hint.Render(fmt.Sprintf("   ↓ %d more lines", len(s.lines)-end))
	}
	return body + "\n" + bottom
}

func (s *LessonScreen) renderOffer(width int) string {
	var b strings.Builder
	b.WriteString("\n\n")
	b.WriteString(shell.Centered(width, theme.Title, s.sub.Title))
	b.WriteString("\n\n")
	b.WriteString(shell.Centered(width, lipgloss.NewStyle().Foreground(theme.Text),
		"Already know this? Answer the first five questions without a miss to skip the lesson."))
	b.WriteString("\n")
	b.WriteString(shell.Centered(width, theme.Hint, "One wrong answer and you read the lesson instead."))
	b.WriteString("\n\n")
	b.WriteString(shell.Centered(width, lipgloss.NewStyle().Foreground(theme.Accent).Bold(true), "[B] Take the pre-assessment"))
	b.WriteString("\n")
	b.WriteString(shell.Centered(width, lipgloss.NewStyle().Foreground(theme.Primary), "[R] Read the lesson"))
	return b.String()
}

// renderBottom renders the status area under the content: transition
// results, notices, the assistant panel and the action line.
func (s *LessonScreen) renderBottom(width, cw int) string {
	var parts []string
	parts = append(parts, lipgloss.NewStyle().Foreground(theme.Border).Render(strings.Repeat("─", max(width-4, 0))))

	if t := s.transition; t != nil {
		line := fmt.Sprintf("Lesson complete! +%d XP", t.XP)
		if t.ModuleCompleted {
			line = fmt.Sprintf("Module complete! +%d XP", t.XP)
		}
		parts = append(parts, components.Banner("★ "+line+" ★", width))
	}
	if s.notice != "" {
		parts = append(parts, shell.Centered(width, lipgloss.NewStyle().Foreground(theme.Warning), s.notice))
	}

	if s.asking || s.reply != nil || s.waiting {
		parts = append(parts, s.renderAssistant(cw))
	}

	parts = append(parts, shell.Centered(width, theme.Hint, s.actionLine()))
	return strings.Join(parts, "\n")
}

func (s *LessonScreen) renderAssistant(cw int) string {
	var b strings.Builder
	if s.question != "" {
		b.WriteString(lipgloss.NewStyle().Foreground(theme.Secondary).Bold(true).Render("You: "))
		b.WriteString(lipgloss.NewStyle().Foreground(theme.Text).Render(s.question))
		b.WriteString("\n")
	}
	switch {
	case s.waiting:
		b.WriteString(theme.Hint.Render("Thinking..."))
	case s.reply != nil:
		b.WriteString(lipgloss.NewStyle().Width(cw - 6).Foreground(theme.Text).Render(s.reply.Answer))
		if s.reply.FollowUp != "" {
			b.WriteString("\n")
			b.WriteString(theme.Hint.Render("Next you might ask: " + s.reply.FollowUp))
		}
	}
	if s.asking {
		b.WriteString("\n\n")
		b.WriteString(s.input.View())
	}
	return lipgloss.NewStyle().PaddingLeft(3).Render(components.Card(b.String(), cw))
}

func (s *LessonScreen) actionLine() string {
	switch {
	case s.completed():
		if ref, ok := s.next(); ok {
			title := ref.SubModuleID
			if sub, _, found := s.deps.Progression.Catalog().SubModule(ref.ModuleID, ref.SubModuleID); found {
				title = sub.Title
			}
			return "Completed. Press N for " + title + "."
		}
		return "Completed."
	case s.sub.HasQuiz():
		return "Press T to take the quiz."
	default:
		return "Press C to mark this lesson complete."
	}
}
