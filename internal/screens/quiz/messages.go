package quiz

import (
	"github.com/abhisek/ladder/internal/assistant"
	"github.com/abhisek/ladder/internal/preassess"
	"github.com/abhisek/ladder/internal/progression"
	qz "github.com/abhisek/ladder/internal/quiz"
)

// stateMsg carries a state published by the engine.
type stateMsg struct {
	State qz.State
}

// finishedMsg is sent once when the engine completes the run.
type finishedMsg struct {
	Result  qz.Result
	Outcome *preassess.Outcome
}

// recordedMsg reports the progression outcome of a finished run.
type recordedMsg struct {
	Transition *progression.Transition
	Err        error
}

// explainedMsg carries the explanation for a missed question.
type explainedMsg struct {
	Index int
	Reply assistant.Reply
	Err   error
}
