package rewards

import (
	"strings"
	"time"
)

// Award is one grant of experience points.
type Award struct {
	Kind        Kind
	Amount      int
	ModuleID    string
	SubModuleID string // empty for module awards
	Reason      string // e.g. "Passed intro-basics"
	Key         string // identifies the award; a repeated key is not paid twice
	AwardedAt   time.Time
}

// Key builds the idempotency key of an award. A learner earns each kind of
// award at most once per sub-module (or per module).
func Key(learnerID string, kind Kind, moduleID, subModuleID string) string {
	parts := []string{learnerID, string(kind), moduleID}
	if subModuleID != "" {
		parts = append(parts, subModuleID)
	}
	return strings.Join(parts, "/")
}
