package lesson

import (
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/ladder/internal/assistant"
	"github.com/abhisek/ladder/internal/catalog"
	"github.com/abhisek/ladder/internal/llm"
	"github.com/abhisek/ladder/internal/preassess"
	"github.com/abhisek/ladder/internal/progression"
	"github.com/abhisek/ladder/internal/router"
	quizscreen "github.com/abhisek/ladder/internal/screens/quiz"
	"github.com/abhisek/ladder/internal/screens/shell/shelltest"
)

func keyPress(r rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: r, Text: string(r)}
}

var (
	introRef   = progression.Ref{ModuleID: "basics", SubModuleID: "intro"}
	readingRef = progression.Ref{ModuleID: "basics", SubModuleID: "reading"}
	shortRef   = progression.Ref{ModuleID: "basics", SubModuleID: "short"}
)

func TestLesson_OffersBypassOnFirstVisit(t *testing.T) {
	deps, _ := shelltest.Deps(t)
	s := New(deps, introRef)
	s.Init()

	if s.Title() != "Intro" {
		t.Errorf("Title = %q", s.Title())
	}
	if !s.offering() {
		t.Fatal("fresh lesson with a full bank should offer the pre-assessment")
	}
	if !strings.Contains(s.View(100, 30), "Take the pre-assessment") {
		t.Error("view should show the offer")
	}

	s.Update(keyPress('r'))
	if s.offering() {
		t.Fatal("choosing to read should withdraw the offer")
	}
	view := s.View(100, 30)
	if !strings.Contains(view, "Models predict the next token.") {
		t.Errorf("reading view missing content:\n%s", view)
	}
	if !strings.Contains(view, "Press T to take the quiz.") {
		t.Error("reading view should point at the quiz")
	}
	s.Update(keyPress('b'))
	if s.visit.Decision() != preassess.Read {
		t.Error("bypass must not be chosen after reading")
	}
}

func TestLesson_BypassPushesPreassessment(t *testing.T) {
	deps, _ := shelltest.Deps(t)
	s := New(deps, introRef)
	s.Init()

	_, cmd := s.Update(keyPress('b'))
	if cmd == nil {
		t.Fatal("b should start the pre-assessment")
	}
	push, ok := cmd().(router.PushScreenMsg)
	if !ok {
		t.Fatal("expected a push")
	}
	q, ok := push.Screen.(*quizscreen.QuizScreen)
	if !ok || q.Title() != "Pre-assessment: Intro" {
		t.Fatalf("pushed %T", push.Screen)
	}

	s.visit.Finish(preassess.Outcome{Passed: false, Correct: 4, Total: 5})
	s.Resume()
	if s.offering() {
		t.Error("failed pre-assessment should switch to reading")
	}
	if !strings.Contains(s.notice, "4 of 5") {
		t.Errorf("notice = %q", s.notice)
	}
}

func TestLesson_NoOfferWhenRecorded(t *testing.T) {
	deps, _ := shelltest.Deps(t)
	deps.Progression.Merge(progression.Account{
		SubModules: map[progression.Ref]progression.SubModuleProgress{
			introRef: {Score: 40, Scored: true},
		},
	})
	s := New(deps, introRef)
	s.Init()
	if s.offering() {
		t.Error("a lesson with a recorded attempt should not offer the pre-assessment")
	}
}

func TestLesson_MarkCompleteReading(t *testing.T) {
	deps, _ := shelltest.Deps(t)
	s := New(deps, readingRef)
	s.Init()

	if s.offering() {
		t.Fatal("reading-only lesson has nothing to bypass")
	}
	if !strings.Contains(s.View(100, 30), "No quiz here.") {
		t.Error("view should render the callout")
	}

	_, cmd := s.Update(keyPress('c'))
	if cmd == nil {
		t.Fatal("c should mark the lesson complete")
	}
	s.Update(cmd())

	if s.transition == nil || s.transition.Kind != progression.KindRead {
		t.Fatalf("transition = %+v", s.transition)
	}
	if !s.completed() {
		t.Error("lesson should be completed")
	}
	view := s.View(100, 30)
	if !strings.Contains(view, "Lesson complete! +50 XP") {
		t.Errorf("view missing completion banner:\n%s", view)
	}
	if !strings.Contains(view, "Press N for Short quiz.") {
		t.Error("view should point at the next lesson")
	}

	_, cmd = s.Update(keyPress('n'))
	msg, ok := cmd().(router.ReplaceScreenMsg)
	if !ok {
		t.Fatal("n should replace the screen")
	}
	next, ok := msg.Screen.(*LessonScreen)
	if !ok || next.ref != shortRef {
		t.Errorf("next lesson = %+v", msg.Screen)
	}
}

func TestLesson_TakeQuizRequiresQuiz(t *testing.T) {
	deps, _ := shelltest.Deps(t)
	s := New(deps, readingRef)
	s.Init()
	if _, cmd := s.Update(keyPress('t')); cmd != nil {
		t.Error("t on a reading-only lesson should do nothing")
	}

	q := New(deps, introRef)
	q.Init()
	q.Update(keyPress('r'))
	_, cmd := q.Update(keyPress('t'))
	push, ok := cmd().(router.PushScreenMsg)
	if !ok {
		t.Fatal("t should push the quiz")
	}
	if push.Screen.Title() != "Quiz: Intro" {
		t.Errorf("pushed %q", push.Screen.Title())
	}
}

func TestLesson_LockedLessonShowsError(t *testing.T) {
	deps, _ := shelltest.Deps(t)
	s := New(deps, shortRef)
	s.Init()
	if !strings.Contains(s.View(100, 30), "still locked") {
		t.Error("locked lesson should explain itself")
	}
	_, cmd := s.Update(keyPress('x'))
	if _, ok := cmd().(router.PopScreenMsg); !ok {
		t.Error("any key should leave a locked lesson")
	}
}

func TestLesson_UnknownLesson(t *testing.T) {
	deps, _ := shelltest.Deps(t)
	s := New(deps, progression.Ref{ModuleID: "basics", SubModuleID: "nope"})
	if s.Init() != nil || s.errMsg == "" {
		t.Error("unknown lesson should fail")
	}
}

func TestLesson_AskAssistant(t *testing.T) {
	deps, _ := shelltest.Deps(t)
	mock := llm.NewMockProvider(llm.MockJSON(map[string]any{
		"answer":    "A token is a piece of text.",
		"follow_up": "How are tokens counted?",
	}))
	deps.Assistant = assistant.New(mock, assistant.DefaultConfig(), deps.Logger)

	s := New(deps, readingRef)
	s.Init()
	s.Update(keyPress('?'))
	if !s.Capturing() {
		t.Fatal("? should open the prompt")
	}

	s.input.Model.SetValue("What is a token?")
	_, cmd := s.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	if cmd == nil || !s.waiting {
		t.Fatal("enter should send the question")
	}
	s.Update(cmd())

	if s.reply == nil || s.reply.Answer != "A token is a piece of text." {
		t.Fatalf("reply = %+v", s.reply)
	}
	view := s.View(100, 40)
	for _, want := range []string{"What is a token?", "A token is a piece of text.", "How are tokens counted?"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}

	req, _ := mock.LastCall()
	if !strings.Contains(req.System, "No quiz here.") {
		t.Error("the lesson should be sent as context")
	}

	s.Update(tea.KeyPressMsg{Code: tea.KeyEscape})
	if s.Capturing() {
		t.Error("esc should close the prompt")
	}
}

func TestLesson_AskWithoutAssistant(t *testing.T) {
	deps, _ := shelltest.Deps(t)
	s := New(deps, readingRef)
	s.Init()
	s.Update(keyPress('?'))
	if s.Capturing() {
		t.Error("prompt should stay closed without an assistant")
	}
	if !strings.Contains(s.notice, "not configured") {
		t.Errorf("notice = %q", s.notice)
	}
}

func TestLesson_ScrollIsClamped(t *testing.T) {
	deps, _ := shelltest.Deps(t)
	s := New(deps, readingRef)
	s.Init()
	for i := 0; i < 50; i++ {
		s.Update(tea.KeyPressMsg{Code: tea.KeyDown})
	}
	s.View(100, 30)
	if s.scroll != 0 {
		t.Errorf("short lesson should not scroll, got %d", s.scroll)
	}
	s.Update(tea.KeyPressMsg{Code: tea.KeyUp})
	if s.scroll != 0 {
		t.Errorf("scroll = %d", s.scroll)
	}
}

func TestRenderContent(t *testing.T) {
	lines := renderContent(catalog.Content{
		{Heading: "Tokens", Blocks: []catalog.Block{
			{Table: &catalog.Table{Header: []string{"text", "tokens"}, Rows: [][]string{{"hello", "1"}}}},
			{Link: &catalog.Link{URL: "https://example.com/tokens"}},
			{List: []string{"one", "two"}},
		}},
	}, 60)
	text := strings.Join(lines, "\n")
	for _, want := range []string{"Tokens", "text  │ tokens", "hello │ 1", "https://example.com/tokens", "• two"} {
		if !strings.Contains(text, want) {
			t.Errorf("content missing %q:\n%s", want, text)
		}
	}

	if empty := renderContent(nil, 60); !strings.Contains(empty[0], "no reading material") {
		t.Errorf("empty content = %q", empty)
	}
}
