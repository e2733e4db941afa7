// Package progression decides what a learner may open and records what
// happens when they finish a lesson. It is the only code that changes a
// learner's progress; persistence and rewards are plugged in as
// collaborators.
package progression

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/abhisek/ladder/internal/catalog"
	"github.com/abhisek/ladder/internal/preassess"
	"github.com/abhisek/ladder/internal/quiz"
	"github.com/abhisek/ladder/internal/rewards"
	"github.com/abhisek/ladder/internal/store"
)

// Session identifies whose progress a Service manages.
type Session struct {
	LearnerID string
}

// Persister stores changed records. Implementations must not block.
type Persister interface {
	SaveChange(learnerID string, ch Change)
}

// Rewarder grants experience points.
type Rewarder interface {
	Award(ctx context.Context, learnerID string, a rewards.Award) error
}

// EventRecorder appends to the progression history.
type EventRecorder interface {
	AppendProgressionEvent(ctx context.Context, data store.ProgressionEventData) error
}

// Service is the progression state machine for one learner session.
type Service struct {
	mu      sync.Mutex
	session Session
	catalog *catalog.Catalog
	policy  Policy
	account Account
	current *Ref

	persister Persister
	rewarder  Rewarder
	events    EventRecorder
	listeners []Listener
	logger    *slog.Logger
	now       func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithPolicy overrides the default rules. Catalog pre-unlock settings are
// merged in.
func WithPolicy(p Policy) Option {
	return func(s *Service) { s.policy = p }
}

// WithPersister sets where changes are saved.
func WithPersister(p Persister) Option {
	return func(s *Service) { s.persister = p }
}

// WithRewarder sets who grants experience points.
func WithRewarder(r Rewarder) Option {
	return func(s *Service) { s.rewarder = r }
}

// WithEventRecorder sets the progression history sink.
func WithEventRecorder(e EventRecorder) Option {
	return func(s *Service) { s.events = e }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithClock sets the time source for completion timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates the state machine over a loaded account.
func NewService(session Session, cat *catalog.Catalog, account Account, opts ...Option) *Service {
	s := &Service{
		session: session,
		catalog: cat,
		policy:  DefaultPolicy(),
		account: account.Clone(),
		logger:  slog.Default(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.policy = s.policy.WithCatalog(cat)
	s.bootstrap()
	return s
}

// bootstrap sets the in-memory unlocked flags implied by the rules for a
// fresh or partially loaded account. Nothing is persisted.
func (s *Service) bootstrap() {
	mods := s.catalog.Modules()
	for mi, m := range mods {
		if !s.moduleUnlockedLocked(m.ID) {
			continue
		}
		if mi == 0 {
			mp := s.account.Modules[m.ID]
			mp.Unlocked = true
			s.account.Modules[m.ID] = mp
		}
		for i, sub := range m.SubModules {
			if !s.isUnlockedLocked(m.ID, i) {
				continue
			}
			ref := Ref{ModuleID: m.ID, SubModuleID: sub.ID}
			p := s.account.SubModules[ref]
			if !p.Unlocked {
				p.Unlocked = true
				s.account.SubModules[ref] = p
			}
		}
	}
}

// Session returns the session the service runs for.
func (s *Service) Session() Session {
	return s.session
}

// Catalog returns the course catalog.
func (s *Service) Catalog() *catalog.Catalog {
	return s.catalog
}

// Policy returns the effective rules.
func (s *Service) Policy() Policy {
	return s.policy
}

// Subscribe registers a listener for completion signals.
func (s *Service) Subscribe(l Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}

// Account returns a copy of the learner's state.
func (s *Service) Account() Account {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.account.Clone()
}

// XP returns the learner's experience total.
func (s *Service) XP() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.account.XP
}

// Progress returns the stored record for a sub-module.
func (s *Service) Progress(ref Ref) (SubModuleProgress, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.account.SubModules[ref]
	return p, ok
}

// HasRecord reports whether the learner has started or finished the
// sub-module. An unlocked flag alone does not count.
func (s *Service) HasRecord(ref Ref) bool {
	p, _ := s.Progress(ref)
	return p.Completed || p.QuizCompleted || p.Scored
}

// Merge folds externally loaded state into the session without losing
// local progress.
func (s *Service) Merge(other Account) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.account = s.account.Merge(other)
	s.bootstrap()
}

// IsUnlocked reports whether sub-module index of a module is open: the
// first one always is, so is a configured pre-unlocked prefix, and any
// other once its predecessor is completed and, if it has a quiz, passed.
func (s *Service) IsUnlocked(moduleID string, index int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isUnlockedLocked(moduleID, index)
}

func (s *Service) isUnlockedLocked(moduleID string, index int) bool {
	subs := s.catalog.SubModules(moduleID)
	if index < 0 || index >= len(subs) {
		return false
	}
	if index == 0 || index < s.policy.preUnlocked(moduleID) {
		return true
	}
	prev := subs[index-1]
	p := s.account.SubModules[Ref{ModuleID: moduleID, SubModuleID: prev.ID}]
	return p.Completed && (!prev.HasQuiz() || p.QuizCompleted)
}

// ModuleUnlocked reports whether a module is open: the first module
// always is, any other once the module before it is completed.
func (s *Service) ModuleUnlocked(moduleID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.moduleUnlockedLocked(moduleID)
}

func (s *Service) moduleUnlockedLocked(moduleID string) bool {
	idx := s.catalog.ModuleIndex(moduleID)
	switch {
	case idx < 0:
		return false
	case idx == 0:
		return true
	}
	if s.account.Modules[moduleID].Unlocked {
		return true
	}
	prev := s.catalog.Modules()[idx-1]
	return s.account.Modules[prev.ID].Completed
}

// Accessible reports whether the learner may open the sub-module: both
// the module and the sub-module are unlocked.
func (s *Service) Accessible(moduleID string, index int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accessibleLocked(moduleID, index)
}

func (s *Service) accessibleLocked(moduleID string, index int) bool {
	return s.moduleUnlockedLocked(moduleID) && s.isUnlockedLocked(moduleID, index)
}

// Open marks a sub-module as the one the learner is viewing. Locked
// sub-modules are rejected.
func (s *Service) Open(ref Ref) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, idx, ok := s.catalog.SubModule(ref.ModuleID, ref.SubModuleID)
	if !ok {
		return fmt.Errorf("open %s: %w", ref, ErrUnknownSubModule)
	}
	if !s.accessibleLocked(ref.ModuleID, idx) {
		return fmt.Errorf("open %s: %w", ref, ErrLocked)
	}
	s.current = &ref
	return nil
}

// Resume returns the first open sub-module the learner has not completed,
// in course order.
func (s *Service) Resume() (Ref, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resumeLocked()
}

func (s *Service) resumeLocked() (Ref, bool) {
	for _, m := range s.catalog.Modules() {
		if !s.moduleUnlockedLocked(m.ID) {
			continue
		}
		for i, sub := range m.SubModules {
			ref := Ref{ModuleID: m.ID, SubModuleID: sub.ID}
			if s.isUnlockedLocked(m.ID, i) && !s.account.SubModules[ref].Completed {
				return ref, true
			}
		}
	}
	return Ref{}, false
}

// RecordQuizOutcome applies a finished quiz. A passing score completes the
// sub-module and cascades unlocks; a failing score changes nothing and
// returns a nil transition so the learner can retry.
func (s *Service) RecordQuizOutcome(ctx context.Context, ref Ref, r quiz.Result) (*Transition, error) {
	return s.record(ctx, ref, KindQuizPassed, func(sub catalog.SubModule) (bool, error) {
		if !sub.HasQuiz() {
			return false, ErrNoQuiz
		}
		if !r.PassedAt(s.policy.PassThreshold) {
			s.logger.Info("quiz not passed", "ref", ref.String(), "score", r.Score, "threshold", s.policy.PassThreshold)
			return false, nil
		}
		return true, nil
	}, r, false)
}

// RecordBypassOutcome applies a finished pre-assessment. Only a perfect
// run completes the sub-module; otherwise nothing changes and the learner
// reads the lesson instead.
func (s *Service) RecordBypassOutcome(ctx context.Context, ref Ref, o preassess.Outcome) (*Transition, error) {
	return s.record(ctx, ref, KindBypassed, func(sub catalog.SubModule) (bool, error) {
		if !sub.HasQuiz() {
			return false, ErrNoQuiz
		}
		if !o.Passed {
			s.logger.Info("bypass not passed", "ref", ref.String(), "correct", o.Correct, "total", o.Total)
			return false, nil
		}
		return true, nil
	}, o.Result(), true)
}

// MarkCompleteNoQuiz completes a reading-only sub-module.
func (s *Service) MarkCompleteNoQuiz(ctx context.Context, ref Ref) (*Transition, error) {
	return s.record(ctx, ref, KindRead, func(sub catalog.SubModule) (bool, error) {
		if sub.HasQuiz() {
			return false, ErrQuizRequired
		}
		return true, nil
	}, quiz.Result{}, false)
}

// record runs the shared completion path. accept decides whether the
// outcome completes the sub-module.
func (s *Service) record(ctx context.Context, ref Ref, kind Kind, accept func(catalog.SubModule) (bool, error), r quiz.Result, bypassed bool) (*Transition, error) {
	s.mu.Lock()

	sub, idx, ok := s.catalog.SubModule(ref.ModuleID, ref.SubModuleID)
	if !ok {
		s.mu.Unlock()
		return nil, s.reject(ref, kind, ErrUnknownSubModule)
	}
	if !s.accessibleLocked(ref.ModuleID, idx) {
		s.mu.Unlock()
		return nil, s.reject(ref, kind, ErrLocked)
	}
	if p := s.account.SubModules[ref]; p.Completed || p.QuizCompleted {
		s.mu.Unlock()
		return nil, s.reject(ref, kind, ErrAlreadyCompleted)
	}
	passed, err := accept(sub)
	if err != nil {
		s.mu.Unlock()
		return nil, s.reject(ref, kind, err)
	}
	if !passed {
		s.mu.Unlock()
		return nil, nil
	}

	t, ch, awards := s.completeLocked(ref, idx, kind, r, bypassed)
	listeners := append([]Listener(nil), s.listeners...)
	s.mu.Unlock()

	s.apply(ctx, t, ch, awards)
	for _, l := range listeners {
		l.SubModuleCompleted(t.Ref, t.Score)
		if t.ModuleCompleted {
			l.ModuleCompleted(t.Ref.ModuleID)
		}
	}
	return t, nil
}

func (s *Service) reject(ref Ref, kind Kind, err error) error {
	s.logger.Debug("progression rejected", "ref", ref.String(), "kind", string(kind), "reason", err.Error())
	return fmt.Errorf("%s %s: %w", kind, ref, err)
}

// completeLocked mutates the account for a completed sub-module and
// returns what changed. Must be called with s.mu held.
func (s *Service) completeLocked(ref Ref, idx int, kind Kind, r quiz.Result, bypassed bool) (*Transition, Change, []rewards.Award) {
	ch := newChange()
	now := s.now()
	t := &Transition{Ref: ref, Kind: kind, Celebrate: true}
	var awards []rewards.Award

	p := s.account.SubModules[ref]
	p.Unlocked = true
	p.Completed = true
	p.QuizCompleted = true
	p.CompletedAt = now
	p.Bypassed = bypassed
	if kind != KindRead {
		p.Score, p.Scored, p.Correct, p.Total = r.Score, true, r.Correct, r.Total
		t.Score, t.Scored = r.Score, true
	}
	s.account.SubModules[ref] = p
	ch.SubModules[ref] = p

	switch kind {
	case KindRead:
		awards = append(awards, s.award(rewards.KindReading, s.policy.ReadingXP, ref, "Read "+ref.SubModuleID))
	case KindBypassed:
		awards = append(awards, s.award(rewards.KindQuizPass, s.policy.QuizPassXP, ref, "Bypassed "+ref.SubModuleID))
		awards = append(awards, s.award(rewards.KindBypass, s.policy.BypassBonusXP, ref, "Perfect pre-assessment"))
	default:
		awards = append(awards, s.award(rewards.KindQuizPass, s.policy.QuizPassXP, ref, "Passed "+ref.SubModuleID))
	}

	subs := s.catalog.SubModules(ref.ModuleID)
	if idx+1 < len(subs) && s.isUnlockedLocked(ref.ModuleID, idx+1) {
		next := Ref{ModuleID: ref.ModuleID, SubModuleID: subs[idx+1].ID}
		np := s.account.SubModules[next]
		if !np.Unlocked {
			np.Unlocked = true
			s.account.SubModules[next] = np
			ch.SubModules[next] = np
		}
		t.UnlockedNext = &next
	}

	if s.allCompleteLocked(ref.ModuleID) && !s.account.Modules[ref.ModuleID].Completed {
		s.account.Modules[ref.ModuleID] = ModuleProgress{Unlocked: true, Completed: true}
		ch.Modules[ref.ModuleID] = s.account.Modules[ref.ModuleID]
		t.ModuleCompleted = true
		awards = append(awards, s.award(rewards.KindModule, s.policy.ModuleBonusXP,
			Ref{ModuleID: ref.ModuleID}, "Completed "+ref.ModuleID))

		if next, ok := s.catalog.NextModule(ref.ModuleID); ok {
			mp := s.account.Modules[next.ID]
			mp.Unlocked = true
			s.account.Modules[next.ID] = mp
			ch.Modules[next.ID] = mp
			t.UnlockedModule = next.ID

			first := Ref{ModuleID: next.ID, SubModuleID: next.SubModules[0].ID}
			fp := s.account.SubModules[first]
			if !fp.Unlocked {
				fp.Unlocked = true
				s.account.SubModules[first] = fp
				ch.SubModules[first] = fp
			}
		}
	}

	for _, a := range awards {
		s.account.XP += a.Amount
		t.XP += a.Amount
	}
	t.TotalXP = s.account.XP
	return t, ch, awards
}

func (s *Service) allCompleteLocked(moduleID string) bool {
	for _, sub := range s.catalog.SubModules(moduleID) {
		if !s.account.SubModules[Ref{ModuleID: moduleID, SubModuleID: sub.ID}].Completed {
			return false
		}
	}
	return true
}

func (s *Service) award(kind rewards.Kind, amount int, ref Ref, reason string) rewards.Award {
	return rewards.Award{
		Kind:        kind,
		Amount:      amount,
		ModuleID:    ref.ModuleID,
		SubModuleID: ref.SubModuleID,
		Reason:      reason,
		Key:         rewards.Key(s.session.LearnerID, kind, ref.ModuleID, ref.SubModuleID),
		AwardedAt:   s.now(),
	}
}

// apply pushes a transition to the collaborators. Failures are logged and
// never undo the in-memory transition.
func (s *Service) apply(ctx context.Context, t *Transition, ch Change, awards []rewards.Award) {
	if s.persister != nil && !ch.Empty() {
		s.persister.SaveChange(s.session.LearnerID, ch)
	}

	if s.rewarder != nil {
		for _, a := range awards {
			if a.Amount <= 0 {
				continue
			}
			if err := s.rewarder.Award(ctx, s.session.LearnerID, a); err != nil {
				s.logger.Warn("award failed", "learner", s.session.LearnerID, "kind", string(a.Kind), "error", err)
			}
		}
	}

	if s.events != nil {
		err := s.events.AppendProgressionEvent(ctx, store.ProgressionEventData{
			LearnerID:       s.session.LearnerID,
			ModuleID:        t.Ref.ModuleID,
			SubModuleID:     t.Ref.SubModuleID,
			Kind:            string(t.Kind),
			Score:           t.Score,
			XP:              t.XP,
			ModuleCompleted: t.ModuleCompleted,
		})
		if err != nil {
			s.logger.Warn("progression event not recorded", "ref", t.Ref.String(), "error", err)
		}
	}

	s.logger.Info("sub-module completed",
		"learner", s.session.LearnerID, "ref", t.Ref.String(), "kind", string(t.Kind),
		"score", t.Score, "xp", t.XP, "module_completed", t.ModuleCompleted)
}
