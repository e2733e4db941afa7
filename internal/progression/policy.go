package progression

import (
	"maps"

	"github.com/abhisek/ladder/internal/catalog"
	"github.com/abhisek/ladder/internal/quiz"
)

// Policy holds the tunable progression rules.
type Policy struct {
	// PassThreshold is the minimum quiz score, in percent, that completes
	// a sub-module.
	PassThreshold int

	QuizPassXP    int
	ReadingXP     int
	ModuleBonusXP int
	BypassBonusXP int

	// PreUnlocked maps a module ID to the number of leading sub-modules
	// that are open regardless of progress.
	PreUnlocked map[string]int
}

// DefaultPolicy returns the standard rules.
func DefaultPolicy() Policy {
	return Policy{
		PassThreshold: quiz.PassThreshold,
		QuizPassXP:    100,
		ReadingXP:     50,
		ModuleBonusXP: 250,
		PreUnlocked:   map[string]int{},
	}
}

// WithCatalog returns a copy of p that also honours the pre_unlocked
// settings of the catalog's modules. Explicit entries in p win.
func (p Policy) WithCatalog(c *catalog.Catalog) Policy {
	out := p
	out.PreUnlocked = maps.Clone(p.PreUnlocked)
	if out.PreUnlocked == nil {
		out.PreUnlocked = make(map[string]int)
	}
	for _, m := range c.Modules() {
		if _, ok := out.PreUnlocked[m.ID]; !ok && m.PreUnlocked > 0 {
			out.PreUnlocked[m.ID] = m.PreUnlocked
		}
	}
	return out
}

func (p Policy) preUnlocked(moduleID string) int {
	return p.PreUnlocked[moduleID]
}
