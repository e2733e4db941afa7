package progression

// Kind names how a sub-module was completed.
type Kind string

const (
	KindQuizPassed Kind = "quiz-passed"
	KindBypassed   Kind = "bypassed"
	KindRead       Kind = "read"
)

// Transition describes one completion and everything it caused.
type Transition struct {
	Ref    Ref
	Kind   Kind
	Score  int
	Scored bool

	// XP is the experience awarded by this transition; TotalXP is the
	// learner's total afterwards.
	XP      int
	TotalXP int

	UnlockedNext    *Ref
	ModuleCompleted bool
	UnlockedModule  string

	// Celebrate tells the shell to play its completion effect.
	Celebrate bool
}

// Listener receives completion signals. Calls happen after the state
// change, outside the service lock.
type Listener interface {
	SubModuleCompleted(ref Ref, score int)
	ModuleCompleted(moduleID string)
}

// ListenerFuncs adapts plain functions to Listener. Nil fields are skipped.
type ListenerFuncs struct {
	OnSubModuleCompleted func(ref Ref, score int)
	OnModuleCompleted    func(moduleID string)
}

// SubModuleCompleted implements Listener.
func (f ListenerFuncs) SubModuleCompleted(ref Ref, score int) {
	if f.OnSubModuleCompleted != nil {
		f.OnSubModuleCompleted(ref, score)
	}
}

// ModuleCompleted implements Listener.
func (f ListenerFuncs) ModuleCompleted(moduleID string) {
	if f.OnModuleCompleted != nil {
		f.OnModuleCompleted(moduleID)
	}
}
