// Package preassess implements the bypass check: a learner may skip a
// lesson by answering its first five questions without a single mistake.
package preassess

import (
	"errors"
	"fmt"

	"github.com/abhisek/ladder/internal/catalog"
	"github.com/abhisek/ladder/internal/quiz"
)

// SampleSize is the number of questions in a pre-assessment.
const SampleSize = 5

// ErrBankTooSmall is returned when a bank has fewer than SampleSize
// playable questions.
var ErrBankTooSmall = errors.New("question bank too small for pre-assessment")

// Decision is the learner's per-visit choice for a lesson.
type Decision int

const (
	Undecided Decision = iota
	Read
	Bypass
)

func (d Decision) String() string {
	switch d {
	case Read:
		return "read"
	case Bypass:
		return "bypass"
	default:
		return "undecided"
	}
}

// Trigger holds the facts that decide whether the bypass offer is shown.
type Trigger struct {
	Unlocked  bool
	HasRecord bool
	Decision  Decision
	BankSize  int
}

// Eligible reports whether the learner should be offered the bypass.
func Eligible(t Trigger) bool {
	return t.Unlocked && !t.HasRecord && t.Decision == Undecided && t.BankSize >= SampleSize
}

// Sample returns the first SampleSize playable questions in authored
// order, or nil when there are not enough.
func Sample(bank []catalog.Question) []catalog.Question {
	out := make([]catalog.Question, 0, SampleSize)
	for _, q := range bank {
		if !q.Valid() {
			continue
		}
		out = append(out, q)
		if len(out) == SampleSize {
			return out
		}
	}
	return nil
}

// Outcome is the result of a finished pre-assessment.
type Outcome struct {
	Passed  bool
	Correct int
	Total   int
}

// Result converts the outcome to the common quiz result shape.
func (o Outcome) Result() quiz.Result {
	return quiz.NewResult(o.Correct, o.Total)
}

func (o Outcome) String() string {
	verdict := "failed"
	if o.Passed {
		verdict = "passed"
	}
	return fmt.Sprintf("%s %d/%d", verdict, o.Correct, o.Total)
}

// outcomeOf applies the perfect-run rule.
func outcomeOf(r quiz.Result) Outcome {
	return Outcome{
		Passed:  r.Total == SampleSize && r.Incorrect() == 0,
		Correct: r.Correct,
		Total:   r.Total,
	}
}
