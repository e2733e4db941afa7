// Package shelltest builds screen dependencies over a small in-memory
// course for screen tests.
package shelltest

import (
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/abhisek/ladder/internal/catalog"
	"github.com/abhisek/ladder/internal/progression"
	"github.com/abhisek/ladder/internal/quiz"
	"github.com/abhisek/ladder/internal/rewards"
	"github.com/abhisek/ladder/internal/screens/shell"
	"github.com/abhisek/ladder/internal/store"
)

// FeedbackDelay is the pause between submitting and the next question.
const FeedbackDelay = time.Millisecond

// Questions returns n playable questions whose correct answer is the
// second option.
func Questions(n int) []catalog.Question {
	out := make([]catalog.Question, n)
	for i := range out {
		out[i] = catalog.Question{
			Prompt:      "Which option is right?",
			Options:     []string{"wrong", "right", "also wrong"},
			Correct:     1,
			Explanation: "The second option is right.",
		}
	}
	return out
}

// Catalog returns a two-module course. Module "basics" has two lessons
// open from the start; "advanced" opens once basics is complete.
func Catalog(t testing.TB) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.New([]catalog.Module{
		{
			ID: "basics", Title: "Basics", Level: 1, PreUnlocked: 2,
			SubModules: []catalog.SubModule{
				{ID: "intro", Title: "Intro", Questions: Questions(5), Content: catalog.Content{
					{Heading: "Welcome", Blocks: []catalog.Block{
						{Text: "Models predict the next token."},
						{List: []string{"read", "practise"}},
					}},
				}},
				{ID: "reading", Title: "Reading", Content: catalog.Content{
					{Heading: "Notes", Blocks: []catalog.Block{{Callout: "No quiz here."}}},
				}},
				{ID: "short", Title: "Short quiz", Questions: Questions(3)},
			},
		},
		{
			ID: "advanced", Title: "Advanced", Level: 2,
			SubModules: []catalog.SubModule{
				{ID: "first", Title: "First", Questions: Questions(5)},
			},
		},
	})
	if err != nil {
		t.Fatalf("build catalog: %v", err)
	}
	return cat
}

type noShuffle struct{}

func (noShuffle) Shuffle(int, func(i, j int)) {}

// Deps returns dependencies over Catalog for learner "tester". The
// returned fake clock drives every quiz; countdown units are an hour long
// so only FeedbackDelay matters unless a test advances further. Its
// timer callbacks run on their own goroutines.
func Deps(t testing.TB) (*shell.Deps, *clockwork.FakeClock) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	clock := clockwork.NewFakeClock()
	svc := progression.NewService(progression.Session{LearnerID: "tester"}, Catalog(t), progression.NewAccount(),
		progression.WithLogger(logger))
	return &shell.Deps{
		LearnerID:   "tester",
		Progression: svc,
		Logger:      logger,
		QuizOptions: []quiz.EngineOption{
			quiz.WithClock(clock),
			quiz.WithUnit(time.Hour),
			quiz.WithFeedbackDelay(FeedbackDelay),
			quiz.WithShuffler(noShuffle{}),
		},
	}, clock
}

// WithRewards wires deps to an in-memory SQLite ledger and ranks the
// leaderboard over docs. The progression service is rebuilt so that
// completions pay out and are recorded.
func WithRewards(t testing.TB, deps *shell.Deps, docs store.DocumentStore) *store.Store {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	st, err := store.Open("file:" + name + "?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	deps.Rewards = rewards.NewService(st.EventRepo(), nil, docs)
	deps.Progression = progression.NewService(progression.Session{LearnerID: deps.LearnerID},
		deps.Progression.Catalog(), progression.NewAccount(),
		progression.WithLogger(deps.Logger),
		progression.WithRewarder(deps.Rewards),
		progression.WithEventRecorder(st.EventRepo()),
	)
	return st
}
