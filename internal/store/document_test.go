package store

import (
	"context"
	"errors"
	"testing"
)

// documentStores returns every backend that runs without external services.
func documentStores(t *testing.T) map[string]DocumentStore {
	return map[string]DocumentStore{
		"memory": NewMemoryDocuments(),
		"sqlite": openTestStore(t).Documents(),
	}
}

func TestDocumentStores(t *testing.T) {
	for name, docs := range documentStores(t) {
		t.Run(name, func(t *testing.T) {
			testDocumentStore(t, docs)
		})
	}
}

func testDocumentStore(t *testing.T, docs DocumentStore) {
	ctx := context.Background()

	if _, err := docs.Get(ctx, "ada"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("get missing err = %v, want ErrNotFound", err)
	}

	err := docs.Patch(ctx, "ada", Document{
		"modules.basics.unlocked":          true,
		"submodules.basics.intro.score":    80,
		"submodules.basics.intro.bypassed": false,
	})
	if err != nil {
		t.Fatalf("patch: %v", err)
	}

	// A second patch merges with the first.
	if err := docs.Patch(ctx, "ada", Document{"submodules.basics.intro.completed": true}); err != nil {
		t.Fatalf("patch merge: %v", err)
	}

	doc, err := docs.Get(ctx, "ada")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if doc["modules.basics.unlocked"] != true {
		t.Errorf("unlocked = %v, want true", doc["modules.basics.unlocked"])
	}
	if doc["submodules.basics.intro.completed"] != true {
		t.Errorf("completed = %v, want true", doc["submodules.basics.intro.completed"])
	}
	if doc.Int("submodules.basics.intro.score") != 80 {
		t.Errorf("score = %v, want 80", doc["submodules.basics.intro.score"])
	}

	// A nil value removes the path.
	if err := docs.Patch(ctx, "ada", Document{"submodules.basics.intro.bypassed": nil}); err != nil {
		t.Fatalf("patch delete: %v", err)
	}
	doc, _ = docs.Get(ctx, "ada")
	if _, ok := doc["submodules.basics.intro.bypassed"]; ok {
		t.Error("path not removed by nil patch")
	}

	n, err := docs.Increment(ctx, "ada", "xp", 100)
	if err != nil || n != 100 {
		t.Fatalf("increment = %d, %v; want 100", n, err)
	}
	n, err = docs.Increment(ctx, "ada", "xp", 50)
	if err != nil || n != 150 {
		t.Fatalf("increment = %d, %v; want 150", n, err)
	}

	if _, err := docs.Increment(ctx, "bob", "xp", 300); err != nil {
		t.Fatalf("increment bob: %v", err)
	}
	if err := docs.Patch(ctx, "cy", Document{"xp": 20}); err != nil {
		t.Fatalf("patch cy: %v", err)
	}

	top, err := docs.Top(ctx, "xp", 2)
	if err != nil {
		t.Fatalf("top: %v", err)
	}
	want := []Standing{{Key: "bob", Value: 300}, {Key: "ada", Value: 150}}
	if len(top) != len(want) {
		t.Fatalf("top = %+v, want %+v", top, want)
	}
	for i := range want {
		if top[i] != want[i] {
			t.Errorf("top[%d] = %+v, want %+v", i, top[i], want[i])
		}
	}

	if err := docs.Delete(ctx, "ada"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := docs.Get(ctx, "ada"); !errors.Is(err, ErrNotFound) {
		t.Errorf("get after delete err = %v, want ErrNotFound", err)
	}

	subCtx, cancel := context.WithCancel(ctx)
	ch, err := docs.Subscribe(subCtx, "dee")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if err := docs.Patch(ctx, "dee", Document{"xp": 5}); err != nil {
		t.Fatalf("patch dee: %v", err)
	}
	if got := waitDoc(t, ch); got.Int("xp") != 5 {
		t.Errorf("published xp = %d, want 5", got.Int("xp"))
	}

	cancel()
	for range ch {
	}

	if err := docs.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if _, err := docs.Subscribe(ctx, "dee"); err == nil {
		t.Error("subscribe after close should fail")
	}
}

func TestHubKeepsLatestSnapshot(t *testing.T) {
	h := newHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := h.subscribe(ctx, "ada")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	h.publish("ada", Document{"xp": 1})
	h.publish("ada", Document{"xp": 2})
	h.publish("bob", Document{"xp": 9})

	if got := waitDoc(t, ch); got.Int("xp") != 2 {
		t.Errorf("xp = %d, want latest 2", got.Int("xp"))
	}
	if h.watched("bob") {
		t.Error("bob should have no subscribers")
	}

	h.closeAll()
	if _, ok := <-ch; ok {
		t.Error("channel should be closed")
	}
}

func TestToInt64(t *testing.T) {
	tests := []struct {
		in     any
		want   int64
		wantOK bool
	}{
		{3, 3, true},
		{int64(7), 7, true},
		{float64(120), 120, true},
		{"42", 42, true},
		{true, 0, false},
		{nil, 0, false},
	}
	for _, tt := range tests {
		got, ok := toInt64(tt.in)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("toInt64(%v) = %d, %v; want %d, %v", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestOpenDocuments(t *testing.T) {
	ctx := context.Background()
	local := openTestStore(t)

	docs, err := OpenDocuments(ctx, "", "", local)
	if err != nil {
		t.Fatalf("default backend: %v", err)
	}
	if docs != local.Documents() {
		t.Error("default backend should share the local store")
	}

	if _, err := OpenDocuments(ctx, BackendMemory, "", nil); err != nil {
		t.Errorf("memory backend: %v", err)
	}
	if _, err := OpenDocuments(ctx, BackendSQLite, "", nil); err == nil {
		t.Error("sqlite backend without a store should fail")
	}
	if _, err := OpenDocuments(ctx, "etcd", "", nil); err == nil {
		t.Error("unknown backend should fail")
	}
}
