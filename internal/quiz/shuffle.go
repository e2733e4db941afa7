package quiz

import (
	"math/rand/v2"

	"github.com/abhisek/ladder/internal/catalog"
)

// Option is one answer as displayed. Correct travels with the text so
// shuffling never has to re-derive the answer position.
type Option struct {
	Text    string
	Correct bool
}

// Shuffler permutes n elements through swap. *rand.Rand satisfies it.
type Shuffler interface {
	Shuffle(n int, swap func(i, j int))
}

type globalShuffler struct{}

func (globalShuffler) Shuffle(n int, swap func(i, j int)) { rand.Shuffle(n, swap) }

// DefaultShuffler uses the process-wide random source.
var DefaultShuffler Shuffler = globalShuffler{}

// Shuffle returns the question's options in a fresh random order, each
// flagged with whether it is the correct answer.
func Shuffle(q catalog.Question, s Shuffler) []Option {
	opts := make([]Option, len(q.Options))
	for i, text := range q.Options {
		opts[i] = Option{Text: text, Correct: i == q.Correct}
	}
	if s == nil {
		s = DefaultShuffler
	}
	s.Shuffle(len(opts), func(i, j int) { opts[i], opts[j] = opts[j], opts[i] })
	return opts
}

// CorrectIndex returns the display position of the correct option, or -1.
func CorrectIndex(opts []Option) int {
	for i, o := range opts {
		if o.Correct {
			return i
		}
	}
	return -1
}

// Texts returns the option labels in display order.
func Texts(opts []Option) []string {
	out := make([]string, len(opts))
	for i, o := range opts {
		out[i] = o.Text
	}
	return out
}
