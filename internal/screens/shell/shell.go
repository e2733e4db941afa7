// Package shell holds what every screen shares: the learner's services
// and a few common renderers.
package shell

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/ladder/internal/assistant"
	"github.com/abhisek/ladder/internal/progress"
	"github.com/abhisek/ladder/internal/progression"
	"github.com/abhisek/ladder/internal/quiz"
	"github.com/abhisek/ladder/internal/rewards"
	"github.com/abhisek/ladder/internal/ui/theme"
)

// DefaultTimeout bounds store and assistant calls made from screens.
const DefaultTimeout = 30 * time.Second

// SaveStatus reports how far the store lags behind the session.
type SaveStatus interface {
	Status() progress.Status
}

// Deps are the services screens act on. Rewards, Assistant and Saves may
// be nil.
type Deps struct {
	LearnerID   string
	Progression *progression.Service
	Rewards     *rewards.Service
	Assistant   *assistant.Assistant
	Saves       SaveStatus
	Logger      *slog.Logger

	// LatestVersion is set once a newer release is known to exist.
	LatestVersion string

	// QuizOptions are applied to every quiz and pre-assessment engine.
	QuizOptions []quiz.EngineOption
}

// Context returns a context bounded by DefaultTimeout.
func (d *Deps) Context() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), DefaultTimeout)
}

// Log returns the logger, falling back to the default one.
func (d *Deps) Log() *slog.Logger {
	if d == nil || d.Logger == nil {
		return slog.Default()
	}
	return d.Logger
}

// SaveState returns the store status, Healthy when nothing is tracked.
func (d *Deps) SaveState() progress.Status {
	if d.Saves == nil {
		return progress.Healthy
	}
	return d.Saves.Status()
}

// SaveNotice is the header notice shown while the store is unreachable,
// or "".
func (d *Deps) SaveNotice() string {
	if d.SaveState() != progress.Unreachable {
		return ""
	}
	return "Offline: progress will sync when the store is back"
}

// Level returns the learner's level name for their current XP.
func (d *Deps) Level() string {
	return rewards.LevelFor(d.Progression.XP()).DisplayName()
}

// RenderLoading renders a dim centred message.
func RenderLoading(width int, text string) string {
	return lipgloss.NewStyle().
		Width(width).Align(lipgloss.Center).Foreground(theme.TextDim).
		Render("\n\n  " + text)
}

// RenderError renders a centred error message.
func RenderError(width int, errMsg string) string {
	return lipgloss.NewStyle().
		Width(width).Align(lipgloss.Center).Foreground(theme.Error).
		Render(fmt.Sprintf("\n\n  Error: %s\n\n  Press any key to go back.", errMsg))
}

// Centered renders one line centred in width with style.
func Centered(width int, style lipgloss.Style, text string) string {
	return style.Width(width).Align(lipgloss.Center).Render(text)
}
