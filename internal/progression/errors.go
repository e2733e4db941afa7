package progression

import "errors"

// Policy violations. The service rejects the operation and leaves state
// untouched; the shell treats these as no-ops.
var (
	ErrUnknownSubModule = errors.New("unknown sub-module")
	ErrLocked           = errors.New("sub-module is locked")
	ErrAlreadyCompleted = errors.New("sub-module already completed")
	ErrQuizRequired     = errors.New("sub-module requires a quiz")
	ErrNoQuiz           = errors.New("sub-module has no quiz")
)

// IsRejected reports whether err is a policy violation rather than a
// failure.
func IsRejected(err error) bool {
	return errors.Is(err, ErrUnknownSubModule) ||
		errors.Is(err, ErrLocked) ||
		errors.Is(err, ErrAlreadyCompleted) ||
		errors.Is(err, ErrQuizRequired) ||
		errors.Is(err, ErrNoQuiz)
}
