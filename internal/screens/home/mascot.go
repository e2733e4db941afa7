package home

import (
	"charm.land/lipgloss/v2"

	"github.com/abhisek/ladder/internal/ui/theme"
)

// MascotVariant selects which mascot art to display.
type MascotVariant int

const (
	MascotIdle        MascotVariant = iota // Default indigo
	MascotCelebrating                      // Yellow, star eyes: XP earned this session
	MascotAlert                            // Orange, exclamation: store unreachable
)

const mascotIdle = ` ,___,
 (O,O)
 /)_)
══"═"══`

const mascotCelebrating = ` ,___,
 (★,★)
\/)_)/
══"═"══`

const mascotAlert = ` ,___,  !
 (O,O)
 /)_)
══"═"══`

// RenderMascot returns the mascot art for the given variant.
func RenderMascot(variant MascotVariant) string {
	art := mascotIdle
	fg := theme.Primary

	switch variant {
	case MascotCelebrating:
		art = mascotCelebrating
		fg = theme.Highlight
	case MascotAlert:
		art = mascotAlert
		fg = theme.Warning
	}

	return lipgloss.NewStyle().
		Foreground(fg).
		Render(art)
}
