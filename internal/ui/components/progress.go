package components

import (
	"fmt"

	"charm.land/bubbles/v2/progress"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/ladder/internal/ui/theme"
)

// ProgressBar is a static bar drawn with bubbles/progress, prefixed by an
// optional label. Width covers label, bar and percentage together.
type ProgressBar struct {
	Label       string
	Percent     float64
	ShowPercent bool
	Width       int
	Urgent      bool
}

const minBarWidth = 4

func (p ProgressBar) View() string {
	label := ""
	if p.Label != "" {
		label = theme.Body.Render(p.Label) + "  "
	}

	fill := theme.Secondary
	if p.Urgent {
		fill = theme.Error
	}
	opts := []progress.Option{
		progress.WithColors(fill),
		progress.WithFillCharacters('█', '░'),
		progress.WithWidth(max(p.Width-lipgloss.Width(label), minBarWidth)),
	}
	if !p.ShowPercent {
		opts = append(opts, progress.WithoutPercentage())
	}
	bar := progress.New(opts...)
	bar.EmptyColor = theme.Border
	bar.PercentageStyle = lipgloss.NewStyle().Foreground(theme.TextDim)

	return label + bar.ViewAs(min(max(p.Percent, 0), 1))
}

// Countdown draws the per-question timer. Before the countdown starts the
// bar is full and labelled "wait"; the last 30% turns red.
func Countdown(remaining, total int, running bool, width int) string {
	if total <= 0 {
		return ""
	}
	label := "wait"
	if running {
		label = fmt.Sprintf("%2ds", remaining)
	}
	return ProgressBar{
		Label:   label,
		Percent: float64(remaining) / float64(total),
		Width:   width,
		Urgent:  running && remaining*10 <= total*3,
	}.View()
}
