package components

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/ladder/internal/ui/theme"
)

// Choices renders the options of a multiple-choice question. It holds no
// state of its own; callers fill it from the quiz state on every frame.
type Choices struct {
	Options  []string
	Selected int

	// Revealed shows correctness: Correct is highlighted green and Chosen,
	// if wrong, red.
	Revealed bool
	Correct  int
	Chosen   int

	Disabled bool
}

// OptionLabel returns the letter shown for option i.
func OptionLabel(i int) string {
	return string(rune('A' + i))
}

func (c Choices) View() string {
	var b strings.Builder
	for i, opt := range c.Options {
		prefix := "  "
		if i == c.Selected && !c.Revealed {
			prefix = "▸ "
		}
		line := fmt.Sprintf("%s%s)  %s", prefix, OptionLabel(i), opt)

		var style lipgloss.Style
		switch {
		case c.Revealed && i == c.Correct:
			style = theme.Correct
			line += "  ✓"
		case c.Revealed && i == c.Chosen:
			style = theme.Incorrect
			line += "  ✗"
		case c.Revealed, c.Disabled:
			style = lipgloss.NewStyle().Foreground(theme.TextDim)
		case i == c.Selected:
			style = theme.Selected
		default:
			style = theme.Unselected
		}
		b.WriteString(style.Render(line))
		b.WriteString("\n")
	}
	return b.String()
}
