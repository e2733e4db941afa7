package quiz

import "fmt"

// PassThreshold is the minimum score, in percent, that passes a quiz.
const PassThreshold = 60

// Result is the outcome of a finished quiz or pre-assessment.
type Result struct {
	Score   int // percent, 0-100
	Correct int
	Total   int
}

// NewResult computes the rounded percentage score.
func NewResult(correct, total int) Result {
	r := Result{Correct: correct, Total: total}
	if total > 0 {
		r.Score = (correct*100 + total/2) / total
	}
	return r
}

// Incorrect returns the number of wrong or unanswered questions.
func (r Result) Incorrect() int {
	return r.Total - r.Correct
}

// Passed reports whether the score meets PassThreshold.
func (r Result) Passed() bool {
	return r.PassedAt(PassThreshold)
}

// PassedAt reports whether the score meets the given threshold.
func (r Result) PassedAt(threshold int) bool {
	return r.Total > 0 && r.Score >= threshold
}

func (r Result) String() string {
	return fmt.Sprintf("%d%% (%d/%d)", r.Score, r.Correct, r.Total)
}
