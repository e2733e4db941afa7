package progression

import "github.com/abhisek/ladder/internal/catalog"

// ViewState is what the shell needs to draw one sub-module entry.
type ViewState struct {
	Locked    bool
	Active    bool
	Completed bool
	Score     int
	HasScore  bool
	HasQuiz   bool
}

// SubModuleView pairs a sub-module with its view state.
type SubModuleView struct {
	SubModule catalog.SubModule
	Index     int
	State     ViewState
}

// ModuleView is one module with its sub-module entries.
type ModuleView struct {
	Module     catalog.Module
	Locked     bool
	Completed  bool
	Done       int
	SubModules []SubModuleView
}

// ViewState returns the display state of sub-module index of a module.
// Active marks the sub-module the learner has open, or the resume point
// when nothing is open.
func (s *Service) ViewState(moduleID string, index int) ViewState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewStateLocked(moduleID, index, s.activeLocked())
}

func (s *Service) activeLocked() Ref {
	if s.current != nil {
		return *s.current
	}
	ref, _ := s.resumeLocked()
	return ref
}

func (s *Service) viewStateLocked(moduleID string, index int, active Ref) ViewState {
	sub, ok := s.catalog.SubModuleAt(moduleID, index)
	if !ok {
		return ViewState{Locked: true}
	}
	ref := Ref{ModuleID: moduleID, SubModuleID: sub.ID}
	p := s.account.SubModules[ref]
	return ViewState{
		Locked:    !s.accessibleLocked(moduleID, index),
		Active:    ref == active,
		Completed: p.Completed,
		Score:     p.Score,
		HasScore:  p.Scored,
		HasQuiz:   sub.HasQuiz(),
	}
}

// Outline returns the whole course with view states, for the sidebar.
func (s *Service) Outline() []ModuleView {
	s.mu.Lock()
	defer s.mu.Unlock()

	active := s.activeLocked()
	mods := s.catalog.Modules()
	out := make([]ModuleView, 0, len(mods))
	for _, m := range mods {
		mv := ModuleView{
			Module:    m,
			Locked:    !s.moduleUnlockedLocked(m.ID),
			Completed: s.account.Modules[m.ID].Completed,
		}
		for i, sub := range m.SubModules {
			vs := s.viewStateLocked(m.ID, i, active)
			if vs.Completed {
				mv.Done++
			}
			mv.SubModules = append(mv.SubModules, SubModuleView{SubModule: sub, Index: i, State: vs})
		}
		out = append(out, mv)
	}
	return out
}
