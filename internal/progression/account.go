package progression

import (
	"maps"
	"time"
)

// Ref identifies a sub-module within a module.
type Ref struct {
	ModuleID    string
	SubModuleID string
}

func (r Ref) String() string {
	return r.ModuleID + "/" + r.SubModuleID
}

// SubModuleProgress is a learner's state for one sub-module. An absent
// record means not started.
type SubModuleProgress struct {
	Unlocked      bool
	Completed     bool
	QuizCompleted bool
	Score         int
	Scored        bool
	Correct       int
	Total         int
	Bypassed      bool
	CompletedAt   time.Time
}

// ModuleProgress is a learner's state for one module.
type ModuleProgress struct {
	Unlocked  bool
	Completed bool
}

// Account is the full progression state of one learner.
type Account struct {
	SubModules map[Ref]SubModuleProgress
	Modules    map[string]ModuleProgress
	XP         int
}

// NewAccount returns an empty account: a learner at the start of the course.
func NewAccount() Account {
	return Account{
		SubModules: make(map[Ref]SubModuleProgress),
		Modules:    make(map[string]ModuleProgress),
	}
}

// Clone returns a deep copy.
func (a Account) Clone() Account {
	out := Account{
		SubModules: maps.Clone(a.SubModules),
		Modules:    maps.Clone(a.Modules),
		XP:         a.XP,
	}
	if out.SubModules == nil {
		out.SubModules = make(map[Ref]SubModuleProgress)
	}
	if out.Modules == nil {
		out.Modules = make(map[string]ModuleProgress)
	}
	return out
}

// Empty reports whether the account holds no progress at all.
func (a Account) Empty() bool {
	return len(a.SubModules) == 0 && len(a.Modules) == 0 && a.XP == 0
}

// Merge combines two accounts without ever losing progress: flags are
// OR-ed, the better score wins and XP takes the larger total.
func (a Account) Merge(b Account) Account {
	out := a.Clone()
	for ref, theirs := range b.SubModules {
		out.SubModules[ref] = mergeSubModule(out.SubModules[ref], theirs)
	}
	for id, theirs := range b.Modules {
		ours := out.Modules[id]
		out.Modules[id] = ModuleProgress{
			Unlocked:  ours.Unlocked || theirs.Unlocked,
			Completed: ours.Completed || theirs.Completed,
		}
	}
	out.XP = max(a.XP, b.XP)
	return out
}

func mergeSubModule(a, b SubModuleProgress) SubModuleProgress {
	out := SubModuleProgress{
		Unlocked:      a.Unlocked || b.Unlocked,
		Completed:     a.Completed || b.Completed,
		QuizCompleted: a.QuizCompleted || b.QuizCompleted,
		Bypassed:      a.Bypassed || b.Bypassed,
		CompletedAt:   earliest(a.CompletedAt, b.CompletedAt),
	}
	best := a
	if b.Scored && (!a.Scored || b.Score > a.Score) {
		best = b
	}
	out.Score, out.Scored, out.Correct, out.Total = best.Score, best.Scored, best.Correct, best.Total
	return out
}

func earliest(a, b time.Time) time.Time {
	switch {
	case a.IsZero():
		return b
	case b.IsZero():
		return a
	case b.Before(a):
		return b
	default:
		return a
	}
}

// Change lists the records touched by one transition.
type Change struct {
	SubModules map[Ref]SubModuleProgress
	Modules    map[string]ModuleProgress
}

func newChange() Change {
	return Change{
		SubModules: make(map[Ref]SubModuleProgress),
		Modules:    make(map[string]ModuleProgress),
	}
}

// Empty reports whether nothing changed.
func (c Change) Empty() bool {
	return len(c.SubModules) == 0 && len(c.Modules) == 0
}
