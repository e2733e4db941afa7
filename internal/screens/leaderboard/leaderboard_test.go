package leaderboard

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/ladder/internal/rewards"
	"github.com/abhisek/ladder/internal/screens/shell/shelltest"
	"github.com/abhisek/ladder/internal/store"
)

type failingRanker struct{}

func (failingRanker) Top(context.Context, string, int) ([]store.Standing, error) {
	return nil, errors.New("redis down")
}

func load(t *testing.T, s *LeaderboardScreen) {
	t.Helper()
	cmd := s.Init()
	if cmd == nil {
		t.Fatal("Init should load standings")
	}
	s.Update(cmd())
}

func TestLeaderboard_HighlightsLearner(t *testing.T) {
	deps, _ := shelltest.Deps(t)
	docs := store.NewMemoryDocuments()
	ctx := context.Background()
	for id, xp := range map[string]int{"alice": 900, "tester": 300, "bob": 300, "carol": 40} {
		if err := docs.Patch(ctx, id, store.Document{"xp": xp}); err != nil {
			t.Fatal(err)
		}
	}
	deps.Rewards = rewards.NewService(nil, nil, docs)

	s := New(deps)
	load(t, s)

	if len(s.standings) != 4 {
		t.Fatalf("standings = %+v", s.standings)
	}
	me, ok := s.own()
	if !ok || me.Rank != 2 {
		t.Fatalf("own standing = %+v, %v", me, ok)
	}

	view := s.View(100, 30)
	for _, want := range []string{"You are #2 with 300 XP", "alice", "Practitioner", "Apprentice", "#4"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestLeaderboard_NotRanked(t *testing.T) {
	deps, _ := shelltest.Deps(t)
	docs := store.NewMemoryDocuments()
	docs.Patch(context.Background(), "alice", store.Document{"xp": 100})
	deps.Rewards = rewards.NewService(nil, nil, docs)

	s := New(deps)
	load(t, s)
	if !strings.Contains(s.View(100, 30), "Earn XP to join the board.") {
		t.Error("unranked learner should be invited to join")
	}
}

func TestLeaderboard_Empty(t *testing.T) {
	deps, _ := shelltest.Deps(t)
	s := New(deps)
	if !strings.Contains(s.View(100, 30), "Loading") {
		t.Error("expected loading state before the first result")
	}
	load(t, s)
	if !strings.Contains(s.View(100, 30), "No one is on the board yet.") {
		t.Error("expected empty board")
	}
}

func TestLeaderboard_ErrorAndRefresh(t *testing.T) {
	deps, _ := shelltest.Deps(t)
	deps.Rewards = rewards.NewService(nil, nil, failingRanker{})

	s := New(deps)
	load(t, s)
	if !strings.Contains(s.View(100, 30), "redis down") {
		t.Error("view should show the load error")
	}

	docs := store.NewMemoryDocuments()
	docs.Patch(context.Background(), "tester", store.Document{"xp": 10})
	deps.Rewards = rewards.NewService(nil, nil, docs)

	_, cmd := s.Update(tea.KeyPressMsg{Code: 'r', Text: "r"})
	if cmd == nil {
		t.Fatal("r should reload")
	}
	s.Update(cmd())
	if s.errMsg != "" || len(s.standings) != 1 {
		t.Errorf("after refresh errMsg=%q standings=%+v", s.errMsg, s.standings)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Errorf("truncate = %q", got)
	}
	if got := truncate("a-very-long-learner-id", 8); got != "a-very-…" {
		t.Errorf("truncate = %q", got)
	}
}
