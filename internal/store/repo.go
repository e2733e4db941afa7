package store

import (
	"context"
	"time"
)

// QueryOpts configures event queries with filtering and pagination.
type QueryOpts struct {
	Limit  int       // max results (0 = unlimited)
	After  int64     // sequence > After
	Before int64     // sequence < Before
	From   time.Time // timestamp >= From
	To     time.Time // timestamp <= To
}

// ProgressionEventData records one completed sub-module.
type ProgressionEventData struct {
	LearnerID       string
	ModuleID        string
	SubModuleID     string
	Kind            string
	Score           int
	XP              int
	ModuleCompleted bool
}

// ProgressionEventRecord is a stored progression event.
type ProgressionEventRecord struct {
	ProgressionEventData
	Sequence  int64
	Timestamp time.Time
}

// XPEventData records one experience award. Key makes the award
// idempotent: a second append with the same key is ignored.
type XPEventData struct {
	LearnerID   string
	Kind        string
	Amount      int
	ModuleID    string
	SubModuleID string
	Reason      string
	Key         string
}

// XPEventRecord is a stored experience award.
type XPEventRecord struct {
	XPEventData
	Sequence  int64
	Timestamp time.Time
}

// LLMRequestEventData captures the data for a single LLM request event.
type LLMRequestEventData struct {
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

// LLMRequestEventRecord is a stored LLM request event.
type LLMRequestEventRecord struct {
	LLMRequestEventData
	ID        int
	Sequence  int64
	Timestamp time.Time
}

// LLMUsageStats aggregates LLM usage for one purpose.
type LLMUsageStats struct {
	Purpose      string
	Requests     int
	Failures     int
	InputTokens  int
	OutputTokens int
	AvgLatencyMs int64
}

// EventRepo provides append and query access to the ledger.
type EventRepo interface {
	// AppendProgressionEvent records a sub-module completion.
	AppendProgressionEvent(ctx context.Context, data ProgressionEventData) error
	// QueryProgressionEvents lists a learner's completions, newest first.
	QueryProgressionEvents(ctx context.Context, learnerID string, opts QueryOpts) ([]ProgressionEventRecord, error)

	// AppendXPEvent records an award. It reports false, without error,
	// when an award with the same key already exists.
	AppendXPEvent(ctx context.Context, data XPEventData) (bool, error)
	// QueryXPEvents lists a learner's awards, newest first.
	QueryXPEvents(ctx context.Context, learnerID string, opts QueryOpts) ([]XPEventRecord, error)
	// XPTotal sums a learner's recorded awards.
	XPTotal(ctx context.Context, learnerID string) (int, error)

	// AppendLLMRequest records an LLM API call event.
	AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error
	QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]LLMRequestEventRecord, error)
	GetLLMEvent(ctx context.Context, id int) (*LLMRequestEventRecord, error)
	LLMUsageByPurpose(ctx context.Context) ([]LLMUsageStats, error)

	// Reset deletes a learner's ledger entries.
	Reset(ctx context.Context, learnerID string) error
}
