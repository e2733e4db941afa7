package llm

import "context"

// Purposes recorded with each request in the event ledger.
const (
	PurposeAsk     = "lesson-ask"
	PurposeExplain = "explain-miss"
	PurposeUnknown = "unknown"
)

type purposeKey struct{}

// WithPurpose attaches a purpose label to the context for event logging.
func WithPurpose(ctx context.Context, purpose string) context.Context {
	return context.WithValue(ctx, purposeKey{}, purpose)
}

// PurposeFrom extracts the purpose label from the context.
func PurposeFrom(ctx context.Context) string {
	if v, ok := ctx.Value(purposeKey{}).(string); ok && v != "" {
		return v
	}
	return PurposeUnknown
}
