// Package catalog holds the course content: an ordered list of modules,
// each with ordered sub-modules, lesson content and optional question banks.
// A Catalog is immutable once built.
package catalog

import (
	"fmt"
	"sort"
)

// Module is a top-level curriculum unit (a "level").
type Module struct {
	ID          string      `yaml:"id" json:"id"`
	Title       string      `yaml:"title" json:"title"`
	Description string      `yaml:"description,omitempty" json:"description,omitempty"`
	Level       int         `yaml:"level" json:"level"`
	PreUnlocked int         `yaml:"pre_unlocked,omitempty" json:"pre_unlocked,omitempty"`
	SubModules  []SubModule `yaml:"submodules" json:"submodules"`
}

// SubModule is one lesson inside a module.
type SubModule struct {
	ID        string     `yaml:"id" json:"id"`
	Title     string     `yaml:"title" json:"title"`
	Content   Content    `yaml:"content,omitempty" json:"content,omitempty"`
	Questions []Question `yaml:"questions,omitempty" json:"questions,omitempty"`
}

// Question is a single multiple-choice question. Correct indexes Options.
type Question struct {
	Prompt      string   `yaml:"prompt" json:"prompt"`
	Options     []string `yaml:"options" json:"options"`
	Correct     int      `yaml:"answer" json:"answer"`
	Explanation string   `yaml:"explanation,omitempty" json:"explanation,omitempty"`
}

// Valid reports whether the question can be asked: at least two options
// and a correct index within range.
func (q Question) Valid() bool {
	return len(q.Options) >= 2 && q.Correct >= 0 && q.Correct < len(q.Options)
}

// Playable returns the valid questions of the sub-module in authored order.
func (s SubModule) Playable() []Question {
	out := make([]Question, 0, len(s.Questions))
	for _, q := range s.Questions {
		if q.Valid() {
			out = append(out, q)
		}
	}
	return out
}

// HasQuiz reports whether the sub-module gates on a quiz. A bank in which
// no question is playable counts as no quiz.
func (s SubModule) HasQuiz() bool {
	for _, q := range s.Questions {
		if q.Valid() {
			return true
		}
	}
	return false
}

// Catalog is an indexed, read-only view over a set of modules.
type Catalog struct {
	modules  []Module
	byID     map[string]int
	subIndex map[string]map[string]int
}

// New builds a catalog after validating the modules. Modules are ordered
// by Level; modules sharing a level keep their given order.
func New(modules []Module) (*Catalog, error) {
	if err := validateModules(modules); err != nil {
		return nil, err
	}

	sorted := make([]Module, len(modules))
	copy(sorted, modules)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Level < sorted[j].Level
	})

	c := &Catalog{
		modules:  sorted,
		byID:     make(map[string]int, len(sorted)),
		subIndex: make(map[string]map[string]int, len(sorted)),
	}
	for i, m := range sorted {
		c.byID[m.ID] = i
		idx := make(map[string]int, len(m.SubModules))
		for j, s := range m.SubModules {
			idx[s.ID] = j
		}
		c.subIndex[m.ID] = idx
	}
	return c, nil
}

// Modules returns all modules in course order.
func (c *Catalog) Modules() []Module {
	out := make([]Module, len(c.modules))
	copy(out, c.modules)
	return out
}

// Module returns the module with the given ID.
func (c *Catalog) Module(id string) (Module, bool) {
	i, ok := c.byID[id]
	if !ok {
		return Module{}, false
	}
	return c.modules[i], true
}

// ModuleIndex returns the position of a module in course order, or -1.
func (c *Catalog) ModuleIndex(id string) int {
	i, ok := c.byID[id]
	if !ok {
		return -1
	}
	return i
}

// NextModule returns the module after id, if any.
func (c *Catalog) NextModule(id string) (Module, bool) {
	i, ok := c.byID[id]
	if !ok || i+1 >= len(c.modules) {
		return Module{}, false
	}
	return c.modules[i+1], true
}

// SubModules returns the ordered sub-modules of a module. Unknown modules
// yield nil.
func (c *Catalog) SubModules(moduleID string) []SubModule {
	m, ok := c.Module(moduleID)
	if !ok {
		return nil
	}
	out := make([]SubModule, len(m.SubModules))
	copy(out, m.SubModules)
	return out
}

// SubModule looks up a sub-module by ID and returns it with its index.
func (c *Catalog) SubModule(moduleID, subModuleID string) (SubModule, int, bool) {
	idx, ok := c.subIndex[moduleID][subModuleID]
	if !ok {
		return SubModule{}, -1, false
	}
	return c.modules[c.byID[moduleID]].SubModules[idx], idx, true
}

// SubModuleAt returns the sub-module at position index of a module.
func (c *Catalog) SubModuleAt(moduleID string, index int) (SubModule, bool) {
	i, ok := c.byID[moduleID]
	if !ok {
		return SubModule{}, false
	}
	subs := c.modules[i].SubModules
	if index < 0 || index >= len(subs) {
		return SubModule{}, false
	}
	return subs[index], true
}

// QuestionBank returns the playable questions of a sub-module in authored
// order. An unknown sub-module or a sub-module without a quiz yields an
// empty bank.
func (c *Catalog) QuestionBank(moduleID, subModuleID string) []Question {
	s, _, ok := c.SubModule(moduleID, subModuleID)
	if !ok {
		return nil
	}
	return s.Playable()
}

// Count returns the number of modules and sub-modules in the catalog.
func (c *Catalog) Count() (modules, subModules int) {
	for _, m := range c.modules {
		subModules += len(m.SubModules)
	}
	return len(c.modules), subModules
}

// String summarises the catalog for diagnostics.
func (c *Catalog) String() string {
	m, s := c.Count()
	return fmt.Sprintf("catalog(%d modules, %d sub-modules)", m, s)
}
