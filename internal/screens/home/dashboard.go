package home

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/ladder/internal/rewards"
	"github.com/abhisek/ladder/internal/ui/components"
	"github.com/abhisek/ladder/internal/ui/theme"
)

// buttonWidth is the fixed width for menu buttons.
const buttonWidth = 22

// dashboard is what the stats bar shows.
type dashboard struct {
	xp         int
	lessons    int
	lessonsAll int
}

func renderTitle(cw int, compact bool) string {
	return lipgloss.NewStyle().
		Width(cw).
		Align(lipgloss.Center).
		Render(components.Wordmark(cw, compact, theme.Highlight))
}

// renderStatsBar renders XP, level and course progress in a bordered box
// matching content width.
func renderStatsBar(d dashboard, cw int, compact bool) string {
	xpStyle := lipgloss.NewStyle().Foreground(theme.Highlight).Bold(true)
	levelStyle := lipgloss.NewStyle().Foreground(theme.Accent).Bold(true)
	lessonStyle := lipgloss.NewStyle().Foreground(theme.Secondary).Bold(true)

	level := rewards.LevelFor(d.xp)
	var stats string
	if compact {
		stats = fmt.Sprintf("%s %s %s",
			xpStyle.Render(fmt.Sprintf("★%d", d.xp)),
			levelStyle.Render(level.DisplayName()),
			lessonStyle.Render(fmt.Sprintf("✓%d/%d", d.lessons, d.lessonsAll)),
		)
	} else {
		stats = fmt.Sprintf("%s  %s  %s",
			xpStyle.Render(fmt.Sprintf("★ %d XP", d.xp)),
			levelStyle.Render("▲ "+strings.ToUpper(level.DisplayName())),
			lessonStyle.Render(fmt.Sprintf("✓ %d/%d LESSONS", d.lessons, d.lessonsAll)),
		)
		stats += "\n" + renderLevelBar(d.xp, cw-6)
	}

	return lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(theme.Secondary).
		Width(cw - 2).
		Align(lipgloss.Center).
		Padding(0, 1).
		Render(stats)
}

// renderLevelBar shows the way from the current level floor to the next.
func renderLevelBar(xp, width int) string {
	level := rewards.LevelFor(xp)
	next, missing := rewards.NextLevel(xp)
	if missing == 0 {
		return lipgloss.NewStyle().Foreground(theme.Highlight).Render("Top level reached")
	}
	span := next.Floor() - level.Floor()
	pct := float64(xp-level.Floor()) / float64(span)
	return components.ProgressBar{
		Label:   fmt.Sprintf("%d to %s", missing, next.DisplayName()),
		Percent: pct,
		Width:   width,
	}.View()
}

// renderMenu renders each menu item as a fixed-width button.
func renderMenu(labels []string, selected int, disabled map[int]bool, cw int) string {
	buttons := make([]string, len(labels))
	for i, label := range labels {
		buttons[i] = components.MenuButton(label, i == selected, disabled[i], buttonWidth)
	}
	return lipgloss.NewStyle().
		Width(cw).
		Align(lipgloss.Center).
		Render(strings.Join(buttons, "\n"))
}

// renderMenuCompact renders menu items as plain lines for terminals where
// bordered buttons would overflow.
func renderMenuCompact(labels []string, selected int, disabled map[int]bool, cw int) string {
	var lines []string
	for i, label := range labels {
		var line string
		switch {
		case disabled[i]:
			line = lipgloss.NewStyle().Foreground(theme.Locked).Render("   " + label)
		case i == selected:
			line = lipgloss.NewStyle().
				Foreground(theme.BgDark).
				Background(theme.Highlight).
				Bold(true).
				Render(" ▸ " + label + " ")
		default:
			line = lipgloss.NewStyle().Foreground(theme.Text).Render("   " + label)
		}
		lines = append(lines, line)
	}
	return lipgloss.NewStyle().
		Width(cw).
		Align(lipgloss.Center).
		Render(strings.Join(lines, "\n"))
}

func renderMascotBox(variant MascotVariant, cw int) string {
	return lipgloss.NewStyle().
		Width(cw).
		Align(lipgloss.Center).
		Render(RenderMascot(variant))
}

// renderAssistantNote tells the learner how to enable lesson questions.
func renderAssistantNote(cw int) string {
	return lipgloss.NewStyle().
		Foreground(theme.TextDim).
		Width(cw).
		Align(lipgloss.Center).
		Render("Set an LLM API key to ask questions in lessons (see ladder --help)")
}

func renderUpdateNote(latestVersion string, cw int) string {
	return lipgloss.NewStyle().
		Foreground(theme.TextDim).
		Width(cw).
		Align(lipgloss.Center).
		Render(fmt.Sprintf("New version %s available, run ladder update", latestVersion))
}
