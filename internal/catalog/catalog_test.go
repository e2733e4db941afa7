package catalog

import (
	"strings"
	"testing"
	"testing/fstest"
)

func TestDefault_Loads(t *testing.T) {
	c, err := Default()
	if err != nil {
		t.Fatalf("Default() error: %v", err)
	}

	mods := c.Modules()
	if len(mods) != 3 {
		t.Fatalf("Modules() = %d, want 3", len(mods))
	}
	wantOrder := []string{"genai-foundations", "prompt-engineering", "responsible-ai"}
	for i, id := range wantOrder {
		if mods[i].ID != id {
			t.Errorf("module[%d] = %q, want %q", i, mods[i].ID, id)
		}
	}
	if mods[0].PreUnlocked != 2 {
		t.Errorf("PreUnlocked = %d, want 2", mods[0].PreUnlocked)
	}
}

func TestDefault_QuestionBanks(t *testing.T) {
	c, err := Default()
	if err != nil {
		t.Fatalf("Default() error: %v", err)
	}

	bank := c.QuestionBank("genai-foundations", "intro-basics")
	if len(bank) != 5 {
		t.Errorf("intro-basics bank = %d, want 5", len(bank))
	}
	for i, q := range bank {
		if !q.Valid() {
			t.Errorf("intro-basics question %d invalid", i)
		}
	}

	s, idx, ok := c.SubModule("genai-foundations", "prompt-basics")
	if !ok {
		t.Fatal("prompt-basics not found")
	}
	if idx != 2 {
		t.Errorf("prompt-basics index = %d, want 2", idx)
	}
	if s.HasQuiz() {
		t.Error("prompt-basics should have no quiz")
	}
	if got := c.QuestionBank("genai-foundations", "prompt-basics"); len(got) != 0 {
		t.Errorf("prompt-basics bank = %d, want 0", len(got))
	}
	if got := c.QuestionBank("nope", "nope"); got != nil {
		t.Errorf("unknown bank = %v, want nil", got)
	}
}

func TestCatalog_Navigation(t *testing.T) {
	c, err := Default()
	if err != nil {
		t.Fatalf("Default() error: %v", err)
	}

	next, ok := c.NextModule("genai-foundations")
	if !ok || next.ID != "prompt-engineering" {
		t.Errorf("NextModule = %q, %v; want prompt-engineering", next.ID, ok)
	}
	if _, ok := c.NextModule("responsible-ai"); ok {
		t.Error("last module should have no next")
	}
	if got := c.ModuleIndex("responsible-ai"); got != 2 {
		t.Errorf("ModuleIndex = %d, want 2", got)
	}
	if got := c.ModuleIndex("missing"); got != -1 {
		t.Errorf("ModuleIndex(missing) = %d, want -1", got)
	}
	if _, ok := c.SubModuleAt("genai-foundations", 99); ok {
		t.Error("SubModuleAt out of range should fail")
	}
}

func TestQuestion_Valid(t *testing.T) {
	tests := []struct {
		name string
		q    Question
		want bool
	}{
		{"ok", Question{Prompt: "p", Options: []string{"a", "b"}, Correct: 1}, true},
		{"one option", Question{Prompt: "p", Options: []string{"a"}, Correct: 0}, false},
		{"index too high", Question{Prompt: "p", Options: []string{"a", "b"}, Correct: 2}, false},
		{"negative index", Question{Prompt: "p", Options: []string{"a", "b"}, Correct: -1}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.q.Valid(); got != tt.want {
				t.Errorf("Valid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSubModule_AllMalformedIsNoQuiz(t *testing.T) {
	s := SubModule{
		ID: "x",
		Questions: []Question{
			{Prompt: "a", Options: []string{"only"}},
			{Prompt: "b", Options: []string{"a", "b"}, Correct: 5},
		},
	}
	if s.HasQuiz() {
		t.Error("HasQuiz() = true for all-malformed bank")
	}
	if len(s.Playable()) != 0 {
		t.Errorf("Playable() = %d, want 0", len(s.Playable()))
	}
}

func TestNew_ValidationErrors(t *testing.T) {
	modules := []Module{
		{ID: "a", Title: "A", SubModules: []SubModule{{ID: "s", Title: "S"}, {ID: "s", Title: "S2"}}},
		{ID: "a", Title: "A again", SubModules: []SubModule{{ID: "t", Title: "T"}}},
		{ID: "b.c", Title: "Dotted", PreUnlocked: 4, SubModules: []SubModule{{ID: "u", Title: "U"}}},
		{ID: "empty", Title: "Empty"},
	}
	_, err := New(modules)
	if err == nil {
		t.Fatal("New() should fail")
	}
	for _, want := range []string{
		`duplicate module ID: "a"`,
		`duplicate sub-module ID "s"`,
		`module ID "b.c" must not contain '.'`,
		`module "b.c": pre_unlocked`,
		`module "empty" has no sub-modules`,
	} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error missing %q:\n%v", want, err)
		}
	}
}

func TestLoadFS_SkipsInvalidFiles(t *testing.T) {
	fsys := fstest.MapFS{
		"a.yaml": {Data: []byte(`
id: basics
title: Basics
level: 1
submodules:
  - id: one
    title: One
    content:
      - heading: H
        blocks:
          - text: hello world
          - list: [a, b]
    questions:
      - prompt: Q?
        options: [x, y]
        answer: 1
`)},
		"broken.yaml": {Data: []byte("id: [unclosed")},
		"bad-schema.yml": {Data: []byte(`
id: Bad Id
title: Bad
submodules: []
`)},
		"notes.txt": {Data: []byte("ignored")},
	}

	c, err := LoadFS(fsys)
	if err != nil {
		t.Fatalf("LoadFS() error: %v", err)
	}
	mods := c.Modules()
	if len(mods) != 1 || mods[0].ID != "basics" {
		t.Fatalf("Modules() = %+v, want only basics", mods)
	}
	blocks := mods[0].SubModules[0].Content[0].Blocks
	if blocks[0].Kind() != BlockText || blocks[1].Kind() != BlockList {
		t.Errorf("block kinds = %s, %s", blocks[0].Kind(), blocks[1].Kind())
	}
}

func TestParseModule_RejectsUnknownBlock(t *testing.T) {
	_, err := ParseModule([]byte(`
id: m
title: M
submodules:
  - id: s
    title: S
    content:
      - blocks:
          - video: clip.mp4
`))
	if err == nil {
		t.Fatal("ParseModule() should reject an unknown block kind")
	}
}

func TestContent_WordCount(t *testing.T) {
	c := Content{{Heading: "Two words", Blocks: []Block{{Text: "three more words"}, {List: []string{"x y"}}}}}
	if got := c.WordCount(); got != 7 {
		t.Errorf("WordCount() = %d, want 7", got)
	}
}
