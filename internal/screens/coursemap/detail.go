package coursemap

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/ladder/internal/progression"
	"github.com/abhisek/ladder/internal/screen"
	"github.com/abhisek/ladder/internal/ui/components"
	"github.com/abhisek/ladder/internal/ui/layout"
	"github.com/abhisek/ladder/internal/ui/theme"
)

// ModuleDetailScreen summarises one module.
type ModuleDetailScreen struct {
	module progression.ModuleView
}

var _ screen.Screen = (*ModuleDetailScreen)(nil)
var _ screen.KeyHintProvider = (*ModuleDetailScreen)(nil)

func newModuleDetail(mv progression.ModuleView) *ModuleDetailScreen {
	return &ModuleDetailScreen{module: mv}
}

func (d *ModuleDetailScreen) Init() tea.Cmd { return nil }
func (d *ModuleDetailScreen) Title() string { return d.module.Module.Title }

func (d *ModuleDetailScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	return d, nil
}

func (d *ModuleDetailScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "Esc", Description: "Back"},
	}
}

func (d *ModuleDetailScreen) View(width, height int) string {
	mv := d.module
	cw := min(width-8, 70)

	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().
		Foreground(theme.Primary).
		Bold(true).
		Render(fmt.Sprintf("  %s", mv.Module.Title)))
	b.WriteString("\n")

	status := "In progress"
	switch {
	case mv.Locked:
		status = "Locked: finish the previous module first"
	case mv.Completed:
		status = "Completed"
	}
	b.WriteString(lipgloss.NewStyle().
		Foreground(theme.TextDim).
		Render(fmt.Sprintf("  Level %d · %s", mv.Module.Level, status)))
	b.WriteString("\n\n")

	if mv.Module.Description != "" {
		b.WriteString(lipgloss.NewStyle().
			Foreground(theme.Text).
			Width(cw).
			PaddingLeft(2).
			Render(mv.Module.Description))
		b.WriteString("\n\n")
	}

	pct := 0.0
	if n := len(mv.SubModules); n > 0 {
		pct = float64(mv.Done) / float64(n)
	}
	bar := components.ProgressBar{
		Label:       fmt.Sprintf("%d of %d lessons", mv.Done, len(mv.SubModules)),
		Percent:     pct,
		ShowPercent: true,
		Width:       cw,
	}
	b.WriteString("  " + bar.View())
	b.WriteString("\n\n")

	b.WriteString(lipgloss.NewStyle().Foreground(theme.Secondary).Bold(true).Render("  Lessons"))
	b.WriteString("\n")
	for _, sv := range mv.SubModules {
		quiz := fmt.Sprintf("%d questions", len(sv.SubModule.Questions))
		if !sv.State.HasQuiz {
			quiz = "reading only"
		}
		b.WriteString(lipgloss.NewStyle().Foreground(theme.Text).
			Render(fmt.Sprintf("    %s %s", stateIcon(sv.State), sv.SubModule.Title)))
		b.WriteString(lipgloss.NewStyle().Foreground(theme.TextDim).
			Render(fmt.Sprintf("  (%s, %s)", quiz, stateLabel(sv.State))))
		b.WriteString("\n")
	}
	return b.String()
}
