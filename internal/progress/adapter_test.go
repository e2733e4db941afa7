package progress

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/ladder/internal/catalog"
	"github.com/abhisek/ladder/internal/progression"
	"github.com/abhisek/ladder/internal/quiz"
	"github.com/abhisek/ladder/internal/store"
)

var errOffline = errors.New("network unreachable")

// flakyDocs fails every call while offline is set.
type flakyDocs struct {
	store.DocumentStore

	mu      sync.Mutex
	offline bool
}

func newFlaky() (*flakyDocs, *store.MemoryDocuments) {
	mem := store.NewMemoryDocuments()
	return &flakyDocs{DocumentStore: mem}, mem
}

func (f *flakyDocs) setOffline(v bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.offline = v
}

func (f *flakyDocs) err() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.offline {
		return errOffline
	}
	return nil
}

func (f *flakyDocs) Get(ctx context.Context, key string) (store.Document, error) {
	if err := f.err(); err != nil {
		return nil, err
	}
	return f.DocumentStore.Get(ctx, key)
}

func (f *flakyDocs) Patch(ctx context.Context, key string, fields store.Document) error {
	if err := f.err(); err != nil {
		return err
	}
	return f.DocumentStore.Patch(ctx, key, fields)
}

func (f *flakyDocs) Increment(ctx context.Context, key, path string, delta int64) (int64, error) {
	if err := f.err(); err != nil {
		return 0, err
	}
	return f.DocumentStore.Increment(ctx, key, path, delta)
}

func newAdapter(t *testing.T, docs store.DocumentStore, opts ...Option) *Adapter {
	t.Helper()
	a := New(docs, append([]Option{WithRetryInterval(time.Hour)}, opts...)...)
	t.Cleanup(func() { a.Close(context.Background()) })
	return a
}

var intro = progression.Ref{ModuleID: "basics", SubModuleID: "intro"}

func TestLoadMissingLearnerIsFresh(t *testing.T) {
	a := newAdapter(t, store.NewMemoryDocuments())

	acct, err := a.Load(context.Background(), "ada")
	require.NoError(t, err)
	assert.True(t, acct.Empty())
}

func TestLoadFailureIsDistinct(t *testing.T) {
	docs, _ := newFlaky()
	docs.setOffline(true)
	a := newAdapter(t, docs)

	acct, err := a.Load(context.Background(), "ada")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrLoadFailed)
	assert.ErrorIs(t, err, errOffline)
	assert.True(t, acct.Empty(), "a failed load still yields a usable fresh account")
}

func TestLoadDecodesStoredAccount(t *testing.T) {
	mem := store.NewMemoryDocuments()
	ctx := context.Background()
	require.NoError(t, mem.Patch(ctx, "ada", store.Document{
		"xp":                                    float64(350),
		"modules.basics.unlocked":               true,
		"submodules.basics.intro.completed":     true,
		"submodules.basics.intro.quizCompleted": true,
		"submodules.basics.intro.score":         float64(80),
		"submodules.basics.intro.completedAt":   "2026-01-02T03:04:05Z",
		"legacy.field":                          "ignored",
	}))

	acct, err := newAdapter(t, mem).Load(ctx, "ada")
	require.NoError(t, err)

	assert.Equal(t, 350, acct.XP)
	assert.True(t, acct.Modules["basics"].Unlocked)
	p := acct.SubModules[intro]
	assert.True(t, p.Completed)
	assert.True(t, p.QuizCompleted)
	assert.True(t, p.Scored)
	assert.Equal(t, 80, p.Score)
	assert.Equal(t, time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC), p.CompletedAt)
}

func TestSaveIsMergePatch(t *testing.T) {
	mem := store.NewMemoryDocuments()
	ctx := context.Background()
	require.NoError(t, mem.Patch(ctx, "ada", store.Document{
		"submodules.other.done.completed": true,
		"xp":                              int64(40),
	}))

	a := newAdapter(t, mem)
	ch := progression.Change{
		SubModules: map[progression.Ref]progression.SubModuleProgress{
			intro: {Unlocked: true, Completed: true, QuizCompleted: true, Score: 60, Scored: true, Correct: 3, Total: 5},
		},
		Modules: map[string]progression.ModuleProgress{},
	}
	a.SaveChange("ada", ch)
	a.AwardExperience("ada", 100)
	a.AwardExperience("ada", 50)
	require.NoError(t, a.Flush(ctx))

	doc, err := mem.Get(ctx, "ada")
	require.NoError(t, err)
	assert.Equal(t, true, doc["submodules.other.done.completed"], "unrelated fields survive")
	assert.Equal(t, true, doc["submodules.basics.intro.completed"])
	assert.EqualValues(t, 60, doc.Int("submodules.basics.intro.score"))
	assert.EqualValues(t, 190, doc.Int("xp"))
	_, hasBypassed := doc["submodules.basics.intro.bypassed"]
	assert.False(t, hasBypassed, "unset flags are not written")
	assert.Equal(t, Healthy, a.Status())
}

func TestBackgroundWriter(t *testing.T) {
	mem := store.NewMemoryDocuments()
	a := newAdapter(t, mem)

	a.Save("ada", store.Document{"modules.basics.unlocked": true})

	require.Eventually(t, func() bool {
		doc, err := mem.Get(context.Background(), "ada")
		return err == nil && doc["modules.basics.unlocked"] == true
	}, 2*time.Second, 10*time.Millisecond)
}

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	q := catalog.Question{Prompt: "q", Options: []string{"a", "b"}, Correct: 0}
	cat, err := catalog.New([]catalog.Module{{
		ID: "basics", Title: "Basics", Level: 1,
		SubModules: []catalog.SubModule{
			{ID: "intro", Title: "Intro", Questions: []catalog.Question{q, q, q, q, q}},
			{ID: "next", Title: "Next", Questions: []catalog.Question{q}},
		},
	}})
	require.NoError(t, err)
	return cat
}

// TestSaveFailureKeepsProgressInMemory: a failed save after a passing quiz
// leaves the session progressed, and a later flush reconciles the store.
func TestSaveFailureKeepsProgressInMemory(t *testing.T) {
	docs, mem := newFlaky()
	a := newAdapter(t, docs)
	svc := progression.NewService(progression.Session{LearnerID: "ada"}, testCatalog(t), progression.NewAccount(),
		progression.WithPersister(a))
	ctx := context.Background()

	docs.setOffline(true)
	tr, err := svc.RecordQuizOutcome(ctx, intro, quiz.NewResult(5, 5))
	require.NoError(t, err)
	require.NotNil(t, tr)

	require.ErrorIs(t, a.Flush(ctx), errOffline)
	assert.Equal(t, Unreachable, a.Status())

	p, _ := svc.Progress(intro)
	assert.True(t, p.Completed, "in-memory state stays authoritative")
	assert.True(t, svc.Accessible("basics", 1), "next sub-module is interactable")

	docs.setOffline(false)
	require.NoError(t, a.Flush(ctx))
	assert.Equal(t, Healthy, a.Status())

	doc, err := mem.Get(ctx, "ada")
	require.NoError(t, err)
	assert.Equal(t, true, doc["submodules.basics.intro.completed"])
	assert.Equal(t, true, doc["submodules.basics.next.unlocked"])
}

func TestFailedLoadCannotLowerStoredScore(t *testing.T) {
	docs, mem := newFlaky()
	ctx := context.Background()
	require.NoError(t, mem.Patch(ctx, "ada", store.Document{
		"submodules.basics.intro.completed": true,
		"submodules.basics.intro.score":     100,
		"submodules.basics.intro.correct":   5,
		"submodules.basics.intro.total":     5,
	}))

	var reconciled []progression.Account
	var mu sync.Mutex
	a := newAdapter(t, docs, WithReconcile(func(_ string, acct progression.Account) {
		mu.Lock()
		reconciled = append(reconciled, acct)
		mu.Unlock()
	}))

	docs.setOffline(true)
	_, err := a.Load(ctx, "ada")
	require.ErrorIs(t, err, ErrLoadFailed)

	a.SaveChange("ada", progression.Change{
		SubModules: map[progression.Ref]progression.SubModuleProgress{
			intro: {Completed: true, QuizCompleted: true, Score: 60, Scored: true, Correct: 3, Total: 5},
		},
	})

	docs.setOffline(false)
	require.NoError(t, a.Flush(ctx))

	doc, err := mem.Get(ctx, "ada")
	require.NoError(t, err)
	assert.EqualValues(t, 100, doc.Int("submodules.basics.intro.score"))
	assert.EqualValues(t, 5, doc.Int("submodules.basics.intro.correct"))
	assert.Equal(t, true, doc["submodules.basics.intro.quizCompleted"])

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, reconciled, 1)
	assert.Equal(t, 100, reconciled[0].SubModules[intro].Score)
}

func TestRequeueKeepsNewerWrites(t *testing.T) {
	docs, mem := newFlaky()
	a := newAdapter(t, docs)
	ctx := context.Background()

	docs.setOffline(true)
	a.Save("ada", store.Document{"modules.basics.unlocked": true})
	a.AwardExperience("ada", 100)
	require.Error(t, a.Flush(ctx))

	a.AwardExperience("ada", 50)
	docs.setOffline(false)
	require.NoError(t, a.Flush(ctx))

	doc, err := mem.Get(ctx, "ada")
	require.NoError(t, err)
	assert.EqualValues(t, 150, doc.Int("xp"))
	assert.Equal(t, true, doc["modules.basics.unlocked"])
	assert.Zero(t, a.PendingCount())
}

func TestCloseFlushes(t *testing.T) {
	mem := store.NewMemoryDocuments()
	a := New(mem, WithRetryInterval(time.Hour))

	a.AwardExperience("ada", 25)
	require.NoError(t, a.Close(context.Background()))

	doc, err := mem.Get(context.Background(), "ada")
	require.NoError(t, err)
	assert.EqualValues(t, 25, doc.Int("xp"))
}

func TestStatusHook(t *testing.T) {
	docs, _ := newFlaky()
	seen := make(chan Status, 8)
	a := newAdapter(t, docs, WithStatusHook(func(s Status) { seen <- s }))

	docs.setOffline(true)
	a.Save("ada", store.Document{"xp": 1})
	a.Flush(context.Background())

	select {
	case s := <-seen:
		assert.Equal(t, Pending, s)
	default:
		t.Fatal("queueing a save did not report Pending")
	}
	select {
	case s := <-seen:
		assert.Equal(t, Unreachable, s)
	default:
		t.Fatal("a failed flush did not report Unreachable")
	}
}

func TestStatusHookEndsOnCurrentStatus(t *testing.T) {
	var (
		mu   sync.Mutex
		seen []Status
	)
	a := newAdapter(t, store.NewMemoryDocuments(), WithStatusHook(func(s Status) {
		mu.Lock()
		seen = append(seen, s)
		mu.Unlock()
	}))

	for i := range 50 {
		a.Save("ada", store.Document{"xp": i})
		require.NoError(t, a.Flush(context.Background()))

		mu.Lock()
		last := seen[len(seen)-1]
		mu.Unlock()
		require.Equal(t, a.Status(), last, "round %d", i)
		require.Equal(t, Healthy, last, "round %d", i)
	}
}

func TestSubscribeDecodesAccounts(t *testing.T) {
	mem := store.NewMemoryDocuments()
	a := newAdapter(t, mem)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := a.Subscribe(ctx, "ada")
	require.NoError(t, err)

	require.NoError(t, mem.Patch(context.Background(), "ada", store.Document{"submodules.basics.intro.completed": true}))

	select {
	case acct := <-ch:
		assert.True(t, acct.SubModules[intro].Completed)
	case <-time.After(2 * time.Second):
		t.Fatal("no account published")
	}
}

func TestReset(t *testing.T) {
	mem := store.NewMemoryDocuments()
	a := newAdapter(t, mem)
	ctx := context.Background()

	require.NoError(t, mem.Patch(ctx, "ada", store.Document{"xp": 10}))
	require.NoError(t, a.Reset(ctx, "ada"))

	_, err := mem.Get(ctx, "ada")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestAccountRoundTrip(t *testing.T) {
	acct := progression.NewAccount()
	acct.XP = 450
	acct.Modules["basics"] = progression.ModuleProgress{Unlocked: true, Completed: true}
	acct.SubModules[intro] = progression.SubModuleProgress{
		Unlocked: true, Completed: true, QuizCompleted: true, Bypassed: true,
		Score: 100, Scored: true, Correct: 5, Total: 5,
		CompletedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}

	got := DecodeAccount(EncodeAccount(acct))
	assert.Equal(t, acct, got)
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "healthy", Healthy.String())
	assert.Equal(t, "unreachable", Unreachable.String())
	assert.Equal(t, "Status(9)", Status(9).String())
}
