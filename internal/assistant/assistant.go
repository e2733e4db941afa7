// Package assistant answers learner questions about the lesson in front of
// them and explains missed quiz questions, using an llm.Provider. Without
// a provider it stays usable but answers only from authored explanations.
package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/abhisek/ladder/internal/catalog"
	"github.com/abhisek/ladder/internal/llm"
)

// ErrEmptyQuestion is returned by Ask for a blank question.
var ErrEmptyQuestion = errors.New("question is empty")

// Reply is one assistant answer.
type Reply struct {
	ConversationID string
	Answer         string
	FollowUp       string

	// Authored is set when the answer is the question author's own
	// explanation rather than a generated one.
	Authored bool
}

type replyOutput struct {
	Answer   string `json:"answer"`
	FollowUp string `json:"follow_up"`
}

// conversation is the running exchange about one lesson.
type conversation struct {
	id    string
	turns []llm.Message
}

// Assistant is safe for concurrent use.
type Assistant struct {
	provider llm.Provider
	cfg      Config
	logger   *slog.Logger

	mu    sync.Mutex
	convs map[string]*conversation // keyed by lesson
}

// New creates an assistant. provider may be nil.
func New(provider llm.Provider, cfg Config, logger *slog.Logger) *Assistant {
	if logger == nil {
		logger = slog.Default()
	}
	return &Assistant{
		provider: provider,
		cfg:      cfg,
		logger:   logger,
		convs:    make(map[string]*conversation),
	}
}

// Enabled reports whether generated answers are available.
func (a *Assistant) Enabled() bool {
	return a != nil && a.provider != nil
}

// Ask answers a free-form question about a lesson. Questions about the
// same lesson share a conversation, so follow-ups have context.
func (a *Assistant) Ask(ctx context.Context, lessonKey string, sub catalog.SubModule, question string) (Reply, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return Reply{}, ErrEmptyQuestion
	}
	if !a.Enabled() {
		return Reply{}, llm.ErrNotConfigured
	}

	conv := a.conversation(lessonKey)
	msgs := append(conv.turns, llm.Message{Role: llm.RoleUser, Content: question})
	system := systemPrompt + "\n\n" + lessonText(sub, a.cfg.MaxLessonChars)

	out, err := a.generate(llm.WithPurpose(ctx, llm.PurposeAsk), system, msgs)
	if err != nil {
		return Reply{}, fmt.Errorf("ask about %s: %w", lessonKey, err)
	}

	a.remember(lessonKey, question, out.Answer)
	return Reply{ConversationID: conv.id, Answer: out.Answer, FollowUp: out.FollowUp}, nil
}

// ExplainMiss explains why a quiz answer was wrong. chosen is the option
// index the learner picked, or -1 if time ran out. Without a provider, or
// when generation fails, the authored explanation is returned if present.
func (a *Assistant) ExplainMiss(ctx context.Context, q catalog.Question, chosen int) (Reply, error) {
	authored := Reply{Answer: q.Explanation, Authored: true}
	if !a.Enabled() {
		if q.Explanation != "" {
			return authored, nil
		}
		return Reply{}, llm.ErrNotConfigured
	}

	msgs := []llm.Message{{Role: llm.RoleUser, Content: explainMessage(q, chosen)}}
	out, err := a.generate(llm.WithPurpose(ctx, llm.PurposeExplain), explainPrompt, msgs)
	if err != nil {
		if q.Explanation != "" {
			a.logger.Warn("explanation generation failed; using authored text", "error", err)
			return authored, nil
		}
		return Reply{}, fmt.Errorf("explain miss: %w", err)
	}
	return Reply{ConversationID: uuid.NewString(), Answer: out.Answer, FollowUp: out.FollowUp}, nil
}

// Forget drops the conversation about a lesson.
func (a *Assistant) Forget(lessonKey string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.convs, lessonKey)
}

// Turns returns how many exchanges are remembered for a lesson.
func (a *Assistant) Turns(lessonKey string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	if c, ok := a.convs[lessonKey]; ok {
		return len(c.turns) / 2
	}
	return 0
}

func (a *Assistant) generate(ctx context.Context, system string, msgs []llm.Message) (replyOutput, error) {
	resp, err := a.provider.Generate(ctx, llm.Request{
		System:      system,
		Messages:    msgs,
		Schema:      ReplySchema,
		MaxTokens:   a.cfg.MaxTokens,
		Temperature: a.cfg.Temperature,
	})
	if err != nil {
		return replyOutput{}, err
	}

	var out replyOutput
	if err := json.Unmarshal(resp.Content, &out); err != nil {
		return replyOutput{}, fmt.Errorf("parse reply: %w", err)
	}
	out.Answer = strings.TrimSpace(out.Answer)
	out.FollowUp = strings.TrimSpace(out.FollowUp)
	return out, nil
}

// conversation returns a snapshot of the lesson's conversation.
func (a *Assistant) conversation(lessonKey string) conversation {
	a.mu.Lock()
	defer a.mu.Unlock()
	c, ok := a.convs[lessonKey]
	if !ok {
		c = &conversation{id: uuid.NewString()}
		a.convs[lessonKey] = c
	}
	return conversation{id: c.id, turns: append([]llm.Message(nil), c.turns...)}
}

// remember appends an exchange, keeping at most HistoryTurns of them.
func (a *Assistant) remember(lessonKey, question, answer string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	c, ok := a.convs[lessonKey]
	if !ok {
		return
	}
	c.turns = append(c.turns,
		llm.Message{Role: llm.RoleUser, Content: question},
		llm.Message{Role: llm.RoleAssistant, Content: answer},
	)
	if keep := 2 * a.cfg.HistoryTurns; len(c.turns) > keep {
		c.turns = c.turns[len(c.turns)-keep:]
	}
}
