package app

import (
	"context"
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/ladder/internal/progress"
	"github.com/abhisek/ladder/internal/progression"
	"github.com/abhisek/ladder/internal/quiz"
	"github.com/abhisek/ladder/internal/router"
	"github.com/abhisek/ladder/internal/screen"
	"github.com/abhisek/ladder/internal/screens/coursemap"
	"github.com/abhisek/ladder/internal/screens/home"
	"github.com/abhisek/ladder/internal/screens/shell/shelltest"
	"github.com/abhisek/ladder/internal/screens/welcome"
)

type capturingScreen struct {
	keys int
}

func (c *capturingScreen) Init() tea.Cmd { return nil }
func (c *capturingScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	if _, ok := msg.(tea.KeyPressMsg); ok {
		c.keys++
	}
	return c, nil
}
func (c *capturingScreen) View(int, int) string { return "typing" }
func (c *capturingScreen) Title() string        { return "Prompt" }
func (c *capturingScreen) Capturing() bool      { return true }

type fixedStatus progress.Status

func (s fixedStatus) Status() progress.Status { return progress.Status(s) }

// run feeds msg to m and then the message its command produces, if any.
func run(m *AppModel, msg tea.Msg) {
	_, cmd := m.Update(msg)
	if cmd != nil {
		if next := cmd(); next != nil {
			m.Update(next)
		}
	}
}

func TestApp_WelcomeLeadsHome(t *testing.T) {
	deps, _ := shelltest.Deps(t)
	m := newAppModel(Options{Deps: deps})

	if _, ok := m.router.Active().(*welcome.WelcomeScreen); !ok {
		t.Fatalf("first screen = %T", m.router.Active())
	}
	run(m, tea.KeyPressMsg{Code: 'x', Text: "x"})
	if _, ok := m.router.Active().(*home.HomeScreen); !ok {
		t.Fatalf("after a key the active screen is %T", m.router.Active())
	}
	if m.router.Depth() != 1 {
		t.Errorf("home should replace the welcome screen, depth = %d", m.router.Depth())
	}
}

func TestApp_EscPops(t *testing.T) {
	deps, _ := shelltest.Deps(t)
	m := newAppModel(Options{Deps: deps, SkipWelcome: true})

	m.Update(router.PushScreenMsg{Screen: coursemap.New(deps)})
	if m.router.Depth() != 2 {
		t.Fatalf("depth = %d", m.router.Depth())
	}
	run(m, tea.KeyPressMsg{Code: tea.KeyEscape})
	if m.router.Depth() != 1 {
		t.Errorf("esc should pop, depth = %d", m.router.Depth())
	}

	if _, cmd := m.Update(tea.KeyPressMsg{Code: tea.KeyEscape}); cmd != nil {
		t.Error("esc on the root screen should do nothing")
	}
}

func TestApp_EscRespectsCapture(t *testing.T) {
	deps, _ := shelltest.Deps(t)
	m := newAppModel(Options{Deps: deps, SkipWelcome: true})

	prompt := &capturingScreen{}
	m.Update(router.PushScreenMsg{Screen: prompt})
	run(m, tea.KeyPressMsg{Code: tea.KeyEscape})

	if m.router.Depth() != 2 {
		t.Error("esc must stay with a capturing screen")
	}
	if prompt.keys != 1 {
		t.Errorf("screen saw %d keys, want 1", prompt.keys)
	}
}

func TestApp_CtrlCQuits(t *testing.T) {
	deps, _ := shelltest.Deps(t)
	m := newAppModel(Options{Deps: deps, SkipWelcome: true})
	m.Update(router.PushScreenMsg{Screen: &capturingScreen{}})

	_, cmd := m.Update(tea.KeyPressMsg{Code: 'c', Mod: tea.ModCtrl})
	if cmd == nil {
		t.Fatal("ctrl+c should quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected a quit message")
	}
}

func TestApp_AccountUpdatesMerge(t *testing.T) {
	deps, _ := shelltest.Deps(t)
	updates := make(chan progression.Account, 1)
	m := newAppModel(Options{Deps: deps, SkipWelcome: true, Updates: updates})

	updates <- progression.Account{XP: 500}
	m.Update(m.listenUpdates()())
	if deps.Progression.XP() != 500 {
		t.Errorf("XP = %d, want 500", deps.Progression.XP())
	}

	close(updates)
	if _, cmd := m.Update(m.listenUpdates()()); cmd != nil {
		t.Error("a closed subscription should stop listening")
	}
}

func TestApp_ModuleCompletionToast(t *testing.T) {
	deps, _ := shelltest.Deps(t)
	m := newAppModel(Options{Deps: deps, SkipWelcome: true})
	ctx := context.Background()

	reading := progression.Ref{ModuleID: "basics", SubModuleID: "reading"}
	if _, err := deps.Progression.MarkCompleteNoQuiz(ctx, reading); err != nil {
		t.Fatalf("MarkCompleteNoQuiz: %v", err)
	}
	intro := progression.Ref{ModuleID: "basics", SubModuleID: "intro"}
	if _, err := deps.Progression.RecordQuizOutcome(ctx, intro, quiz.NewResult(5, 5)); err != nil {
		t.Fatalf("RecordQuizOutcome intro: %v", err)
	}
	short := progression.Ref{ModuleID: "basics", SubModuleID: "short"}
	tr, err := deps.Progression.RecordQuizOutcome(ctx, short, quiz.NewResult(3, 3))
	if err != nil || tr == nil || !tr.ModuleCompleted {
		t.Fatalf("RecordQuizOutcome short: %+v, %v", tr, err)
	}

	m.Update(m.listenToasts()())
	if m.toast != "★ Basics complete! ★" {
		t.Fatalf("toast = %q", m.toast)
	}
	m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	if !strings.Contains(m.render(), "Basics complete!") {
		t.Error("header should show the toast")
	}

	m.Update(toastExpiredMsg{Seq: m.toastSeq - 1})
	if m.toast == "" {
		t.Error("a stale expiry must not clear a newer toast")
	}
	m.Update(toastExpiredMsg{Seq: m.toastSeq})
	if m.toast != "" {
		t.Error("toast should expire")
	}
}

func TestApp_Render(t *testing.T) {
	deps, _ := shelltest.Deps(t)
	deps.Saves = fixedStatus(progress.Unreachable)
	m := newAppModel(Options{Deps: deps, SkipWelcome: true})
	m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})

	out := m.render()
	for _, want := range []string{"Ladder", "Home", "Offline", "Novice", "Ctrl+C"} {
		if !strings.Contains(out, want) {
			t.Errorf("render missing %q", want)
		}
	}
}

func TestApp_UpdateAvailable(t *testing.T) {
	deps, _ := shelltest.Deps(t)
	m := newAppModel(Options{
		Deps:        deps,
		SkipWelcome: true,
		CheckUpdate: func(context.Context) (string, error) { return "v9.9.9", nil },
	})

	m.Update(m.findUpdate()())
	if deps.LatestVersion != "v9.9.9" {
		t.Errorf("LatestVersion = %q", deps.LatestVersion)
	}
}
