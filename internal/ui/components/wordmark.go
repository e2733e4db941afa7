package components

import (
	"image/color"

	"charm.land/lipgloss/v2"
)

const wordmarkFull = `██╗      █████╗ ██████╗ ██████╗ ███████╗██████╗
██║     ██╔══██╗██╔══██╗██╔══██╗██╔════╝██╔══██╗
██║     ███████║██║  ██║██║  ██║█████╗  ██████╔╝
██║     ██╔══██║██║  ██║██║  ██║██╔══╝  ██╔══██╗
███████╗██║  ██║██████╔╝██████╔╝███████╗██║  ██║
╚══════╝╚═╝  ╚═╝╚═════╝ ╚═════╝ ╚══════╝╚═╝  ╚═╝`

const wordmarkCompact = "L · A · D · D · E · R"

// WordmarkWidth is the width of the block-letter wordmark.
const WordmarkWidth = 48

// Wordmark renders the block-letter name in fg, or the spaced-out
// fallback when compact or narrower than the art.
func Wordmark(width int, compact bool, fg color.Color) string {
	style := lipgloss.NewStyle().Foreground(fg).Bold(true)
	if compact || width < WordmarkWidth+4 {
		return style.Render(wordmarkCompact)
	}
	return style.Render(wordmarkFull)
}
