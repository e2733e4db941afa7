// Package home is the main menu with the learner's dashboard.
package home

import (
	"strings"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/ladder/internal/progress"
	"github.com/abhisek/ladder/internal/router"
	"github.com/abhisek/ladder/internal/screen"
	"github.com/abhisek/ladder/internal/screens/coursemap"
	"github.com/abhisek/ladder/internal/screens/history"
	"github.com/abhisek/ladder/internal/screens/leaderboard"
	"github.com/abhisek/ladder/internal/screens/lesson"
	"github.com/abhisek/ladder/internal/screens/shell"
	"github.com/abhisek/ladder/internal/ui/components"
	"github.com/abhisek/ladder/internal/ui/layout"
)

// Menu positions.
const (
	ItemContinue = iota
	ItemCourseMap
	ItemLeaderboard
	ItemHistory
	ItemQuit
)

// HomeScreen is the main home screen of the application.
type HomeScreen struct {
	deps   *shell.Deps
	menu   components.Menu
	stats  dashboard
	mascot MascotVariant
}

var _ screen.Screen = (*HomeScreen)(nil)
var _ screen.Resumer = (*HomeScreen)(nil)
var _ screen.KeyHintProvider = (*HomeScreen)(nil)

// New creates a new HomeScreen.
func New(deps *shell.Deps) *HomeScreen {
	h := &HomeScreen{deps: deps}
	h.rebuild()
	return h
}

// rebuild recomputes the dashboard and the menu from current progress,
// keeping the selection when it is still enabled.
func (h *HomeScreen) rebuild() {
	deps := h.deps

	h.stats = dashboard{xp: deps.Progression.XP()}
	for _, mv := range deps.Progression.Outline() {
		h.stats.lessons += mv.Done
		h.stats.lessonsAll += len(mv.SubModules)
	}

	h.mascot = MascotIdle
	switch {
	case deps.SaveState() == progress.Unreachable:
		h.mascot = MascotAlert
	case deps.Rewards != nil && deps.Rewards.SessionXP() > 0:
		h.mascot = MascotCelebrating
	}

	ref, resumable := deps.Progression.Resume()
	continueLabel := "CONTINUE"
	if !resumable && h.stats.lessons == h.stats.lessonsAll {
		continueLabel = "COURSE COMPLETE"
	}
	noRewards := deps.Rewards == nil

	items := []components.MenuItem{
		{Label: continueLabel, Disabled: !resumable, Action: func() tea.Cmd {
			return router.Push(lesson.New(deps, ref))
		}},
		{Label: "COURSE MAP", Action: func() tea.Cmd {
			return router.Push(coursemap.New(deps))
		}},
		{Label: "LEADERBOARD", Disabled: noRewards, Action: func() tea.Cmd {
			return router.Push(leaderboard.New(deps))
		}},
		{Label: "XP HISTORY", Disabled: noRewards, Action: func() tea.Cmd {
			return router.Push(history.New(deps))
		}},
		{Label: "QUIT", Action: func() tea.Cmd {
			return tea.Quit
		}},
	}

	prev := h.menu.Selected
	hadMenu := len(h.menu.Items) > 0
	h.menu = components.NewMenu(items)
	if hadMenu && prev < len(items) && !items[prev].Disabled {
		h.menu.Selected = prev
	}
}

func (h *HomeScreen) Init() tea.Cmd {
	return nil
}

// Resume refreshes the dashboard after a lesson or the course map.
func (h *HomeScreen) Resume() tea.Cmd {
	h.rebuild()
	return nil
}

func (h *HomeScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	if kmsg, ok := msg.(tea.KeyPressMsg); ok && kmsg.String() == "q" {
		return h, tea.Quit
	}
	var cmd tea.Cmd
	h.menu, cmd = h.menu.Update(msg)
	return h, cmd
}

func (h *HomeScreen) View(width, height int) string {
	// height is the content area; add back header, footer and frame gaps
	termHeight := height + 8
	compact := layout.IsCompactHeight(termHeight) || layout.IsCompactWidth(width)
	cw := components.ContentWidth(width)

	var sections []string
	sections = append(sections, renderTitle(cw, compact))
	if !compact {
		sections = append(sections, renderMascotBox(h.mascot, cw))
	}
	sections = append(sections, renderStatsBar(h.stats, cw, compact))

	labels, disabled := h.menu.Labels()
	if height < 20 {
		sections = append(sections, renderMenuCompact(labels, h.menu.Selected, disabled, cw))
	} else {
		sections = append(sections, renderMenu(labels, h.menu.Selected, disabled, cw))
	}

	if h.deps.Assistant == nil && !compact {
		sections = append(sections, renderAssistantNote(cw))
	}
	if h.deps.LatestVersion != "" {
		sections = append(sections, renderUpdateNote(h.deps.LatestVersion, cw))
	}

	return components.CabinetFrame(strings.Join(sections, "\n\n"), width, height)
}

func (h *HomeScreen) Title() string {
	return "Home"
}

func (h *HomeScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Navigate"},
		{Key: "Enter", Description: "Select"},
		{Key: "Q", Description: "Quit"},
	}
}
