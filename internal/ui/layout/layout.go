// Package layout frames the active screen between a header and a footer
// bar and decides when the terminal is too small to draw anything.
package layout

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/ladder/internal/ui/theme"
)

const (
	MinWidth  = 80
	MinHeight = 24

	// HeaderHeight and FooterHeight include the bar borders.
	HeaderHeight = 3
	FooterHeight = 3

	compactWidth  = 100
	compactHeight = 30
)

// KeyHint is one key binding shown in the footer.
type KeyHint struct {
	Key         string
	Description string
}

// Stats is the learner summary on the right of the header. Notice is a
// passive status such as unsaved progress; empty hides it.
type Stats struct {
	XP     int
	Level  string
	Notice string
}

func IsCompactWidth(width int) bool   { return width < compactWidth }
func IsCompactHeight(height int) bool { return height < compactHeight }

// IsTooSmall reports whether the terminal is below MinWidth x MinHeight.
func IsTooSmall(width, height int) bool {
	return width < MinWidth || height < MinHeight
}

// ContentHeight is what remains for the active screen.
func ContentHeight(totalHeight int) int {
	return max(totalHeight-HeaderHeight-FooterHeight, 0)
}

func RenderMinSizeMessage(width, height int) string {
	msg := fmt.Sprintf("The ladder needs more room.\n\nResize to %d x %d or larger.\nNow: %d x %d",
		MinWidth, MinHeight, width, height)
	return theme.Body.Width(width).Height(height).
		Align(lipgloss.Center, lipgloss.Center).
		Render(msg)
}

// bar is the bordered strip used for both header and footer.
func bar(width int, content string) string {
	return theme.Header.Padding(0).
		Width(width).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(theme.Border).
		Render(content)
}

// RenderHeader puts the app name left, the screen title centred and the
// learner stats right.
func RenderHeader(title string, stats Stats, width int) string {
	left := "  " + theme.Title.Render("Ladder")
	center := theme.Body.Render(title)
	right := renderStats(stats)

	inner := max(width-4, 0)
	lw, cw, rw := lipgloss.Width(left), lipgloss.Width(center), lipgloss.Width(right)
	gapL := max((inner-cw)/2-lw, 1)
	gapR := max(inner-lw-gapL-cw-rw, 1)

	return bar(width, left+strings.Repeat(" ", gapL)+center+strings.Repeat(" ", gapR)+right)
}

func renderStats(s Stats) string {
	var parts []string
	if s.Notice != "" {
		parts = append(parts, lipgloss.NewStyle().Foreground(theme.Warning).Render("⚠ "+s.Notice))
	}
	parts = append(parts, lipgloss.NewStyle().Foreground(theme.Accent).Render(fmt.Sprintf("✦ %d XP", s.XP)))
	if s.Level != "" {
		parts = append(parts, theme.Heading.Bold(false).Render(s.Level))
	}
	return strings.Join(parts, "   ") + "  "
}

func RenderFooter(hints []KeyHint, width int) string {
	key := theme.Body.Bold(true)
	var b strings.Builder
	b.WriteString("  ")
	for i, h := range hints {
		if i > 0 {
			b.WriteString("   ")
		}
		b.WriteString(key.Render(h.Key) + " " + theme.Hint.Italic(false).Render(h.Description))
	}
	return bar(width, b.String())
}

// RenderFrame stacks header, content and footer; content is padded or
// clipped to the rows the bars leave.
func RenderFrame(header, content, footer string, width, height int) string {
	rows := max(height-lipgloss.Height(header)-lipgloss.Height(footer), 0)
	body := lipgloss.NewStyle().Width(width).Height(rows).MaxHeight(rows).Render(content)
	return lipgloss.JoinVertical(lipgloss.Left, header, body, footer)
}
