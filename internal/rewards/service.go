// Package rewards grants experience points, keeps the award ledger and
// ranks learners.
package rewards

import (
	"context"
	"fmt"
	"sync"

	"github.com/abhisek/ladder/internal/store"
)

// XPSink receives granted experience points, typically the persistence
// adapter that increments the learner's stored total.
type XPSink interface {
	AwardExperience(learnerID string, delta int)
}

// Ledger records awards. AppendXPEvent must report false for a key it has
// already seen.
type Ledger interface {
	AppendXPEvent(ctx context.Context, data store.XPEventData) (bool, error)
	QueryXPEvents(ctx context.Context, learnerID string, opts store.QueryOpts) ([]store.XPEventRecord, error)
	XPTotal(ctx context.Context, learnerID string) (int, error)
}

// Ranker orders learners by a numeric document field.
type Ranker interface {
	Top(ctx context.Context, path string, limit int) ([]store.Standing, error)
}

// Standing is one leaderboard row.
type Standing struct {
	Rank      int
	LearnerID string
	XP        int
	Level     Level
}

// Service grants awards and answers leaderboard queries.
type Service struct {
	ledger Ledger
	sink   XPSink
	ranker Ranker

	mu sync.Mutex
	// sessionAwards accumulates awards paid during the current session.
	sessionAwards []Award
}

// NewService creates a rewards service. Any collaborator may be nil.
func NewService(ledger Ledger, sink XPSink, ranker Ranker) *Service {
	return &Service{ledger: ledger, sink: sink, ranker: ranker}
}

// Award records a and pays it to the sink. An award whose key is already
// in the ledger is skipped without error.
func (s *Service) Award(ctx context.Context, learnerID string, a Award) error {
	if a.Amount <= 0 {
		return nil
	}

	if s.ledger != nil {
		added, err := s.ledger.AppendXPEvent(ctx, store.XPEventData{
			LearnerID:   learnerID,
			Kind:        string(a.Kind),
			Amount:      a.Amount,
			ModuleID:    a.ModuleID,
			SubModuleID: a.SubModuleID,
			Reason:      a.Reason,
			Key:         a.Key,
		})
		if err != nil {
			return fmt.Errorf("record award %s: %w", a.Key, err)
		}
		if !added {
			return nil
		}
	}

	if s.sink != nil {
		s.sink.AwardExperience(learnerID, a.Amount)
	}

	s.mu.Lock()
	s.sessionAwards = append(s.sessionAwards, a)
	s.mu.Unlock()
	return nil
}

// SessionAwards returns the awards paid since the last reset.
func (s *Service) SessionAwards() []Award {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Award(nil), s.sessionAwards...)
}

// SessionXP sums the awards paid since the last reset.
func (s *Service) SessionXP() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, a := range s.sessionAwards {
		total += a.Amount
	}
	return total
}

// ResetSession clears the session accumulator. Called at session start.
func (s *Service) ResetSession() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessionAwards = nil
}

// History lists a learner's recorded awards, newest first.
func (s *Service) History(ctx context.Context, learnerID string, limit int) ([]store.XPEventRecord, error) {
	if s.ledger == nil {
		return nil, nil
	}
	return s.ledger.QueryXPEvents(ctx, learnerID, store.QueryOpts{Limit: limit})
}

// LedgerTotal sums a learner's recorded awards.
func (s *Service) LedgerTotal(ctx context.Context, learnerID string) (int, error) {
	if s.ledger == nil {
		return 0, nil
	}
	return s.ledger.XPTotal(ctx, learnerID)
}

// Leaderboard ranks learners by stored XP, highest first. Equal totals
// share a rank.
func (s *Service) Leaderboard(ctx context.Context, limit int) ([]Standing, error) {
	if s.ranker == nil {
		return nil, nil
	}
	top, err := s.ranker.Top(ctx, "xp", limit)
	if err != nil {
		return nil, fmt.Errorf("leaderboard: %w", err)
	}

	out := make([]Standing, 0, len(top))
	for i, t := range top {
		rank := i + 1
		if i > 0 && t.Value == top[i-1].Value {
			rank = out[i-1].Rank
		}
		xp := int(t.Value)
		out = append(out, Standing{Rank: rank, LearnerID: t.Key, XP: xp, Level: LevelFor(xp)})
	}
	return out, nil
}
