// Package history is the screen listing the learner's experience awards.
package history

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
	"github.com/abhisek/ladder/internal/store"
	"github.com/abhisek/ladder/internal/ui/layout"
	"github.com/abhisek/ladder/internal/ui/theme"
)

// Limit is how many awards the screen loads.
const Limit = 200

type historyLoadedMsg struct {
	Records []store.XPEventRecord
	Total   int
	Err     error
}

// HistoryScreen lists awards newest first, filterable by kind.
type HistoryScreen struct {
	deps     *shell.Deps
	records  []store.XPEventRecord
	total    int
	filter   int // 0 is all kinds, otherwise index+1 into rewards.AllKinds
	selected int
	expanded map[int64]bool
	loaded   bool
	errMsg   string
}

var _ screen.Screen = (*HistoryScreen)(nil)
var _ screen.KeyHintProvider = (*HistoryScreen)(nil)

// New creates a new HistoryScreen.
func New(deps *shell.Deps) *HistoryScreen {
	return &HistoryScreen{
		deps:     deps,
		expanded: make(map[int64]bool),
	}
}

func (s *HistoryScreen) Init() tea.Cmd {
	deps := s.deps
	return func() tea.Msg {
		if deps.Rewards == nil {
			return historyLoadedMsg{}
		}
		ctx, cancel := deps.Context()
		defer cancel()

		records, err := deps.Rewards.History(ctx, deps.LearnerID, Limit)
		if err != nil {
			return historyLoadedMsg{Err: err}
		}
		total, err := deps.Rewards.LedgerTotal(ctx, deps.LearnerID)
		if err != nil {
			deps.Log().Warn("ledger total failed", "error", err)
		}
		return historyLoadedMsg{Records: records, Total: total}
	}
}

func (s *HistoryScreen) Title() string {
	return "XP History"
}

func (s *HistoryScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "Tab", Description: "Filter"},
		{Key: "Enter", Description: "Details"},
		{Key: "↑↓", Description: "Navigate"},
		{Key: "Esc", Description: "Back"},
	}
}

func (s *HistoryScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case historyLoadedMsg:
		if msg.Err != nil {
			s.errMsg = msg.Err.Error()
		} else {
			s.records = msg.Records
			s.total = msg.Total
		}
		s.loaded = true
		return s, nil

	case tea.KeyPressMsg:
		switch msg.String() {
		case "q":
			return s, router.Pop
		case "tab":
			s.filter = (s.filter + 1) % (len(rewards.AllKinds()) + 1)
			s.selected = 0
		case "shift+tab":
			n := len(rewards.AllKinds()) + 1
			s.filter = (s.filter - 1 + n) % n
			s.selected = 0
		case "up", "k":
			if s.selected > 0 {
				s.selected--
			}
		case "down", "j":
			if s.selected < len(s.filtered())-1 {
				s.selected++
			}
		case "enter":
			if rows := s.filtered(); s.selected < len(rows) {
				seq := rows[s.selected].Sequence
				s.expanded[seq] = !s.expanded[seq]
			}
		}
	}
	return s, nil
}

// filtered returns the records of the selected kind.
func (s *HistoryScreen) filtered() []store.XPEventRecord {
	if s.filter == 0 {
		return s.records
	}
	kind := string(rewards.AllKinds()[s.filter-1])
	var out []store.XPEventRecord
	for _, r := range s.records {
		if r.Kind == kind {
			out = append(out, r)
		}
	}
	return out
}

func (s *HistoryScreen) View(width, height int) string {
	if s.errMsg != "" {
		return shell.RenderError(width, s.errMsg)
	}
	if !s.loaded {
		return shell.RenderLoading(width, "Loading history...")
	}
	if len(s.records) == 0 {
		return lipgloss.NewStyle().
			Width(width).Align(lipgloss.Center).Foreground(theme.TextDim).Italic(true).
			Render("\n\n  No XP yet. Finish a lesson to earn some!")
	}

	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().
		Width(width).Align(lipgloss.Center).Foreground(theme.Text).
		Render(fmt.Sprintf("\nTotal: %d XP from %d awards\n", s.total, len(s.records))))
	b.WriteString("\n")
	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, s.renderTabs()))
	b.WriteString("\n\n")

	rows := s.filtered()
	if len(rows) == 0 {
		b.WriteString(lipgloss.NewStyle().
			Width(width).Align(lipgloss.Center).Foreground(theme.TextDim).Italic(true).
			Render("Nothing of this kind yet"))
		return b.String()
	}

	maxVisible := max(height-8, 3)
	start := max(s.selected-maxVisible+1, 0)
	end := min(start+maxVisible, len(rows))

	for i := start; i < end; i++ {
		rec := rows[i]
		kind := rewards.Kind(rec.Kind)

		prefix := "  "
		if i == s.selected {
			prefix = "> "
		}
		line := fmt.Sprintf("%s%s  %s %-22s %+5d XP",
			prefix, rec.Timestamp.Format("Jan 02 15:04"), kind.Icon(), kind.DisplayName(), rec.Amount)

		style := lipgloss.NewStyle().Foreground(kindColor(kind))
		if i == s.selected {
			style = style.Bold(true)
		}
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, style.Render(line)))
		b.WriteString("\n")

		if s.expanded[rec.Sequence] {
			where := rec.ModuleID
			if rec.SubModuleID != "" {
				where += "/" + rec.SubModuleID
			}
			detail := fmt.Sprintf("    %s (%s)", rec.Reason, where)
			b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center,
				lipgloss.NewStyle().Foreground(theme.TextDim).Italic(true).Render(detail)))
			b.WriteString("\n")
		}
	}

	if end < len(rows) {
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().
			Width(width).Align(lipgloss.Center).Foreground(theme.TextDim).
			Render(fmt.Sprintf("... %d more", len(rows)-end)))
	}
	return b.String()
}

func (s *HistoryScreen) renderTabs() string {
	labels := []string{fmt.Sprintf("All (%d)", len(s.records))}
	for _, k := range rewards.AllKinds() {
		n := 0
		for _, r := range s.records {
			if r.Kind == string(k) {
				n++
			}
		}
		labels = append(labels, fmt.Sprintf("%s %s (%d)", k.Icon(), k.DisplayName(), n))
	}

	tabs := make([]string, len(labels))
	for i, label := range labels {
		if i == s.filter {
			tabs[i] = lipgloss.NewStyle().Foreground(theme.Primary).Bold(true).Render(label)
		} else {
			tabs[i] = lipgloss.NewStyle().Foreground(theme.TextDim).Render(label)
		}
	}
	return strings.Join(tabs, "   ")
}

func kindColor(k rewards.Kind) color.Color {
	switch k {
	case rewards.KindQuizPass:
		return theme.Success
	case rewards.KindReading:
		return theme.Secondary
	case rewards.KindBypass:
		return theme.Highlight
	case rewards.KindModule:
		return theme.Accent
	default:
		return theme.Text
	}
}
