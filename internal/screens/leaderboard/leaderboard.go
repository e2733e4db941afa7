// Package leaderboard is the screen ranking learners by experience.
package leaderboard

import (
	"fmt"
	"image/color"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/ladder/internal/rewards"
	"github.com/abhisek/ladder/internal/router"
	"github.com/abhisek/ladder/internal/screen"
	"github.com/abhisek/ladder/internal/screens/shell"
	"github.com/abhisek/ladder/internal/ui/layout"
	"github.com/abhisek/ladder/internal/ui/theme"
)

// Limit is how many standings are shown.
const Limit = 20

type standingsLoadedMsg struct {
	Standings []rewards.Standing
	Err       error
}

// LeaderboardScreen shows the top learners and where the current learner
// stands.
type LeaderboardScreen struct {
	deps      *shell.Deps
	standings []rewards.Standing
	loaded    bool
	errMsg    string
}

var _ screen.Screen = (*LeaderboardScreen)(nil)
var _ screen.KeyHintProvider = (*LeaderboardScreen)(nil)

// New creates a new LeaderboardScreen.
func New(deps *shell.Deps) *LeaderboardScreen {
	return &LeaderboardScreen{deps: deps}
}

func (s *LeaderboardScreen) Init() tea.Cmd {
	return s.load()
}

func (s *LeaderboardScreen) load() tea.Cmd {
	deps := s.deps
	return func() tea.Msg {
		if deps.Rewards == nil {
			return standingsLoadedMsg{}
		}
		ctx, cancel := deps.Context()
		defer cancel()
		standings, err := deps.Rewards.Leaderboard(ctx, Limit)
		return standingsLoadedMsg{Standings: standings, Err: err}
	}
}

func (s *LeaderboardScreen) Title() string {
	return "Leaderboard"
}

func (s *LeaderboardScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "R", Description: "Refresh"},
		{Key: "Esc", Description: "Back"},
	}
}

func (s *LeaderboardScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case standingsLoadedMsg:
		s.loaded = true
		if msg.Err != nil {
			s.deps.Log().Warn("leaderboard load failed", "error", msg.Err)
			s.errMsg = msg.Err.Error()
			return s, nil
		}
		s.errMsg = ""
		s.standings = msg.Standings
		return s, nil

	case tea.KeyPressMsg:
		switch msg.String() {
		case "r", "R":
			s.loaded = false
			return s, s.load()
		case "q":
			return s, router.Pop
		}
	}
	return s, nil
}

// own returns the current learner's standing, if ranked.
func (s *LeaderboardScreen) own() (rewards.Standing, bool) {
	for _, st := range s.standings {
		if st.LearnerID == s.deps.LearnerID {
			return st, true
		}
	}
	return rewards.Standing{}, false
}

func (s *LeaderboardScreen) View(width, height int) string {
	if s.errMsg != "" {
		return shell.RenderError(width, s.errMsg)
	}
	if !s.loaded {
		return shell.RenderLoading(width, "Loading standings...")
	}
	if len(s.standings) == 0 {
		return lipgloss.NewStyle().
			Width(width).Align(lipgloss.Center).Foreground(theme.TextDim).Italic(true).
			Render("\n\n  No one is on the board yet.")
	}

	var b strings.Builder
	b.WriteString("\n")
	if me, ok := s.own(); ok {
		b.WriteString(shell.Centered(width, lipgloss.NewStyle().Foreground(theme.Highlight).Bold(true),
			fmt.Sprintf("You are #%d with %d XP", me.Rank, me.XP)))
	} else {
		b.WriteString(shell.Centered(width, theme.Hint, "Earn XP to join the board."))
	}
	b.WriteString("\n\n")

	header := fmt.Sprintf("  %-5s %-24s %8s  %-12s", "RANK", "LEARNER", "XP", "LEVEL")
	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center,
		lipgloss.NewStyle().Foreground(theme.Secondary).Bold(true).Render(header)))
	b.WriteString("\n")
	divider := lipgloss.NewStyle().Foreground(theme.Border).Render(strings.Repeat("─", min(width-8, 56)))
	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, divider))
	b.WriteString("\n")

	maxVisible := max(height-8, 3)
	for i, st := range s.standings {
		if i >= maxVisible {
			b.WriteString(shell.Centered(width, theme.Hint, fmt.Sprintf("... %d more", len(s.standings)-i)))
			break
		}
		mark := "  "
		if st.LearnerID == s.deps.LearnerID {
			mark = "▸ "
		}
		line := fmt.Sprintf("%s%-5s %-24s %8d  %-12s",
			mark, fmt.Sprintf("#%d", st.Rank), truncate(st.LearnerID, 24), st.XP, st.Level.DisplayName())
		style := lipgloss.NewStyle().Foreground(rankColor(st.Rank))
		if st.LearnerID == s.deps.LearnerID {
			style = style.Bold(true).Background(theme.BgCard)
		}
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, style.Render(line)))
		b.WriteString("\n")
	}
	return b.String()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func rankColor(rank int) color.Color {
	switch rank {
	case 1:
		return theme.Highlight
	case 2:
		return theme.Text
	case 3:
		return theme.Accent
	default:
		return theme.TextDim
	}
}
