// Package progress loads and saves learner progress through a document
// store. Writes are merge patches queued in memory and flushed in the
// background, so a slow or unreachable store never blocks the learner.
package progress

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"sync"
	"time"

	"github.com/abhisek/ladder/internal/progression"
	"github.com/abhisek/ladder/internal/store"
)

// ErrLoadFailed means the store could not be read. It is distinct from a
// learner with no record, which loads as a fresh account without error.
var ErrLoadFailed = errors.New("progress load failed")

// Status describes the adapter's view of the store.
type Status int

const (
	// Healthy means every write has reached the store.
	Healthy Status = iota
	// Pending means writes are queued but not yet attempted.
	Pending
	// Unreachable means the last write attempt failed; writes are kept
	// and retried.
	Unreachable
)

func (s Status) String() string {
	switch s {
	case Healthy:
		return "healthy"
	case Pending:
		return "pending"
	case Unreachable:
		return "unreachable"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Default timings.
const (
	DefaultRetryInterval = 5 * time.Second
	DefaultWriteTimeout  = 3 * time.Second
)

// pending is the coalesced, not yet written state of one learner.
type pending struct {
	patch store.Document
	xp    int64
}

func (p *pending) empty() bool {
	return len(p.patch) == 0 && p.xp == 0
}

// Adapter is the persistence adapter for learner progress.
type Adapter struct {
	docs   store.DocumentStore
	logger *slog.Logger

	retry     time.Duration
	timeout   time.Duration
	onStatus  func(Status)
	reconcile func(learnerID string, a progression.Account)

	mu        sync.Mutex
	queue     map[string]*pending
	degraded  map[string]bool
	status    Status
	statusSeq uint64

	// hookMu serializes onStatus; published is the statusSeq last handed
	// to it.
	hookMu    sync.Mutex
	published uint64

	flushMu sync.Mutex
	kick    chan struct{}
	done    chan struct{}
	stopped chan struct{}
	once    sync.Once
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(a *Adapter) { a.logger = l }
}

// WithRetryInterval sets how long to wait before retrying a failed write.
func WithRetryInterval(d time.Duration) Option {
	return func(a *Adapter) { a.retry = d }
}

// WithWriteTimeout bounds each store call made by the background writer.
func WithWriteTimeout(d time.Duration) Option {
	return func(a *Adapter) { a.timeout = d }
}

// WithStatusHook is called whenever the status changes. Calls never
// overlap and never deliver an older status after a newer one; a burst of
// changes may be reported as its latest status only.
func WithStatusHook(fn func(Status)) Option {
	return func(a *Adapter) { a.onStatus = fn }
}

// WithReconcile is called with the stored account once a learner whose
// load failed can be read again.
func WithReconcile(fn func(learnerID string, a progression.Account)) Option {
	return func(a *Adapter) { a.reconcile = fn }
}

// New creates an adapter over docs and starts its background writer.
// Close stops it.
func New(docs store.DocumentStore, opts ...Option) *Adapter {
	a := &Adapter{
		docs:     docs,
		logger:   slog.Default(),
		retry:    DefaultRetryInterval,
		timeout:  DefaultWriteTimeout,
		queue:    make(map[string]*pending),
		degraded: make(map[string]bool),
		kick:     make(chan struct{}, 1),
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(a)
	}
	go a.run()
	return a
}

// Load reads a learner's account. A learner with no record gets a fresh
// account. Any other failure also returns a fresh account, together with
// an error wrapping ErrLoadFailed; later writes for that learner are then
// checked against the store so they cannot lower a stored score.
func (a *Adapter) Load(ctx context.Context, learnerID string) (progression.Account, error) {
	doc, err := a.docs.Get(ctx, learnerID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		a.logger.Debug("no stored progress", "learner", learnerID)
		return progression.NewAccount(), nil
	case err != nil:
		a.mu.Lock()
		a.degraded[learnerID] = true
		a.mu.Unlock()
		a.logger.Warn("progress load failed; starting fresh", "learner", learnerID, "error", err)
		return progression.NewAccount(), fmt.Errorf("%w: %w", ErrLoadFailed, err)
	}
	return DecodeAccount(doc), nil
}

// SaveChange queues the records touched by a transition. It never blocks
// on the store.
func (a *Adapter) SaveChange(learnerID string, ch progression.Change) {
	a.Save(learnerID, EncodeChange(ch))
}

// Save queues a merge patch keyed by dotted paths. Later patches to the
// same path replace earlier ones that have not been written yet.
func (a *Adapter) Save(learnerID string, patch store.Document) {
	if len(patch) == 0 {
		return
	}
	a.mu.Lock()
	p := a.pendingLocked(learnerID)
	maps.Copy(p.patch, patch)
	a.mu.Unlock()
	a.setStatusIfHealthy(Pending)
	a.wake()
}

// AwardExperience queues an XP increment.
func (a *Adapter) AwardExperience(learnerID string, delta int) {
	if delta == 0 {
		return
	}
	a.mu.Lock()
	a.pendingLocked(learnerID).xp += int64(delta)
	a.mu.Unlock()
	a.setStatusIfHealthy(Pending)
	a.wake()
}

func (a *Adapter) pendingLocked(learnerID string) *pending {
	p, ok := a.queue[learnerID]
	if !ok {
		p = &pending{patch: make(store.Document)}
		a.queue[learnerID] = p
	}
	return p
}

// Status returns the current write status.
func (a *Adapter) Status() Status {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.status
}

// PendingCount returns the number of learners with unwritten changes.
func (a *Adapter) PendingCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.queue)
}

// Flush writes everything queued. Writes that fail stay queued and the
// first error is returned.
func (a *Adapter) Flush(ctx context.Context) error {
	a.flushMu.Lock()
	defer a.flushMu.Unlock()

	a.mu.Lock()
	batch := a.queue
	a.queue = make(map[string]*pending)
	a.mu.Unlock()

	var firstErr error
	for learnerID, p := range batch {
		if err := a.write(ctx, learnerID, p); err != nil {
			a.requeue(learnerID, p)
			if firstErr == nil {
				firstErr = err
			}
			a.logger.Warn("progress save failed; will retry", "learner", learnerID, "error", err)
		}
	}

	a.mu.Lock()
	switch {
	case firstErr != nil:
		a.setStatusLocked(Unreachable)
	case len(a.queue) > 0:
		a.setStatusLocked(Pending)
	default:
		a.setStatusLocked(Healthy)
	}
	a.mu.Unlock()
	a.publishStatus()
	return firstErr
}

// write sends one learner's pending state. A partial write leaves the
// unwritten remainder in p.
func (a *Adapter) write(ctx context.Context, learnerID string, p *pending) error {
	if err := a.reconcileIfDegraded(ctx, learnerID, p); err != nil {
		return err
	}
	if len(p.patch) > 0 {
		if err := a.docs.Patch(ctx, learnerID, p.patch); err != nil {
			return fmt.Errorf("patch %s: %w", learnerID, err)
		}
		p.patch = make(store.Document)
	}
	if p.xp != 0 {
		if _, err := a.docs.Increment(ctx, learnerID, pathXP, p.xp); err != nil {
			return fmt.Errorf("increment %s xp: %w", learnerID, err)
		}
		p.xp = 0
	}
	return nil
}

func (a *Adapter) reconcileIfDegraded(ctx context.Context, learnerID string, p *pending) error {
	a.mu.Lock()
	degraded := a.degraded[learnerID]
	a.mu.Unlock()
	if !degraded {
		return nil
	}

	doc, err := a.docs.Get(ctx, learnerID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		doc = store.Document{}
	case err != nil:
		return fmt.Errorf("reload %s: %w", learnerID, err)
	}
	guardScores(doc, p.patch)

	a.mu.Lock()
	delete(a.degraded, learnerID)
	a.mu.Unlock()

	a.logger.Info("progress store reachable again", "learner", learnerID)
	if a.reconcile != nil && len(doc) > 0 {
		a.reconcile(learnerID, DecodeAccount(doc))
	}
	return nil
}

// requeue puts unwritten state back under anything queued since.
func (a *Adapter) requeue(learnerID string, p *pending) {
	if p.empty() {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	cur := a.pendingLocked(learnerID)
	for path, v := range p.patch {
		if _, newer := cur.patch[path]; !newer {
			cur.patch[path] = v
		}
	}
	cur.xp += p.xp
}

// Subscribe streams the learner's stored account after each change.
func (a *Adapter) Subscribe(ctx context.Context, learnerID string) (<-chan progression.Account, error) {
	docs, err := a.docs.Subscribe(ctx, learnerID)
	if err != nil {
		return nil, err
	}
	out := make(chan progression.Account, 1)
	go func() {
		defer close(out)
		for doc := range docs {
			select {
			case out <- DecodeAccount(doc):
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// Reset deletes a learner's stored progress and anything queued for it.
func (a *Adapter) Reset(ctx context.Context, learnerID string) error {
	a.mu.Lock()
	delete(a.queue, learnerID)
	delete(a.degraded, learnerID)
	a.mu.Unlock()
	if err := a.docs.Delete(ctx, learnerID); err != nil {
		return fmt.Errorf("reset %s: %w", learnerID, err)
	}
	return nil
}

// Close stops the background writer and makes a final flush attempt.
func (a *Adapter) Close(ctx context.Context) error {
	a.once.Do(func() { close(a.done) })
	<-a.stopped
	return a.Flush(ctx)
}

func (a *Adapter) wake() {
	select {
	case a.kick <- struct{}{}:
	default:
	}
}

func (a *Adapter) run() {
	defer close(a.stopped)

	var retry <-chan time.Time
	for {
		select {
		case <-a.done:
			return
		case <-a.kick:
		case <-retry:
		}
		retry = nil

		ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
		err := a.Flush(ctx)
		cancel()
		if err != nil {
			retry = time.After(a.retry)
		}
	}
}

func (a *Adapter) setStatusIfHealthy(s Status) {
	a.mu.Lock()
	if a.status == Healthy {
		a.setStatusLocked(s)
	}
	a.mu.Unlock()
	a.publishStatus()
}

func (a *Adapter) setStatusLocked(s Status) {
	if a.status == s {
		return
	}
	a.status = s
	a.statusSeq++
}

// publishStatus hands the current status to the hook unless it has
// already seen it. Must be called without a.mu held.
func (a *Adapter) publishStatus() {
	if a.onStatus == nil {
		return
	}
	a.hookMu.Lock()
	defer a.hookMu.Unlock()

	a.mu.Lock()
	s, seq := a.status, a.statusSeq
	a.mu.Unlock()
	if seq == a.published {
		return
	}
	a.published = seq
	a.onStatus(s)
}
