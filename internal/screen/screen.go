// Package screen defines the contract every view in the shell implements.
package screen

import (
	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/ladder/internal/ui/layout"
)

// Screen is one view on the router stack.
type Screen interface {
	Init() tea.Cmd
	Update(msg tea.Msg) (Screen, tea.Cmd)

	// View renders the screen body; the shell draws the header and footer.
	View(width, height int) string

	// Title is shown in the header.
	Title() string
}

// KeyHintProvider lets a screen replace the default footer hints.
type KeyHintProvider interface {
	KeyHints() []layout.KeyHint
}

// Resumer is implemented by screens that must refresh derived state when
// they become active again after the screen above them is popped.
type Resumer interface {
	Resume() tea.Cmd
}

// Capturer is implemented by screens that own text input. While Capturing
// is true the shell does not treat esc or q as navigation.
type Capturer interface {
	Capturing() bool
}
