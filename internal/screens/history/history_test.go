package history

import (
	"context"
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/ladder/internal/progression"
	"github.com/abhisek/ladder/internal/quiz"
	"github.com/abhisek/ladder/internal/screens/shell/shelltest"
)

func key(code rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: code}
}

func TestHistory_ListsAwards(t *testing.T) {
	deps, _ := shelltest.Deps(t)
	shelltest.WithRewards(t, deps, nil)
	ctx := context.Background()

	intro := progression.Ref{ModuleID: "basics", SubModuleID: "intro"}
	if _, err := deps.Progression.RecordQuizOutcome(ctx, intro, quiz.NewResult(5, 5)); err != nil {
		t.Fatalf("RecordQuizOutcome: %v", err)
	}
	reading := progression.Ref{ModuleID: "basics", SubModuleID: "reading"}
	if _, err := deps.Progression.MarkCompleteNoQuiz(ctx, reading); err != nil {
		t.Fatalf("MarkCompleteNoQuiz: %v", err)
	}

	s := New(deps)
	s.Update(s.Init()())

	if len(s.records) != 2 || s.total != 150 {
		t.Fatalf("records = %d total = %d", len(s.records), s.total)
	}
	view := s.View(120, 30)
	for _, want := range []string{"Total: 150 XP from 2 awards", "Quiz passed", "Lesson read", "All (2)"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}

	s.Update(key(tea.KeyTab))
	rows := s.filtered()
	if len(rows) != 1 || rows[0].Kind != "quiz-pass" {
		t.Fatalf("quiz filter rows = %+v", rows)
	}

	s.Update(key(tea.KeyEnter))
	if !strings.Contains(s.View(120, 30), "Passed intro (basics/intro)") {
		t.Error("enter should expand the award details")
	}

	s.Update(tea.KeyPressMsg{Code: tea.KeyTab, Mod: tea.ModShift})
	if s.filter != 0 {
		t.Errorf("shift+tab filter = %d, want 0", s.filter)
	}
	s.Update(key(tea.KeyDown))
	s.Update(key(tea.KeyDown))
	if s.selected != 1 {
		t.Errorf("selected = %d, want 1", s.selected)
	}
}

func TestHistory_EmptyWithoutRewards(t *testing.T) {
	deps, _ := shelltest.Deps(t)
	s := New(deps)
	if !strings.Contains(s.View(100, 30), "Loading history") {
		t.Error("expected loading state")
	}
	s.Update(s.Init()())
	if !strings.Contains(s.View(100, 30), "No XP yet") {
		t.Error("expected empty state")
	}
}
