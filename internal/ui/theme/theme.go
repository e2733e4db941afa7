// Package theme holds the colors and lipgloss styles shared by every screen.
package theme

import (
	"image/color"

	"charm.land/lipgloss/v2"
)

// Night-sky palette; amber marks the rung you are on.
var (
	Primary   = lipgloss.Color("#818CF8")
	Secondary = lipgloss.Color("#2DD4BF")
	Accent    = lipgloss.Color("#FBBF24")
	Highlight = lipgloss.Color("#FDE047")
	Success   = lipgloss.Color("#4ADE80")
	Error     = lipgloss.Color("#FB7185")
	Warning   = lipgloss.Color("#FDBA74")
	Text      = lipgloss.Color("#E2E8F0")
	TextDim   = lipgloss.Color("#8B9BB4")
	Locked    = lipgloss.Color("#4B5563")
	BgDark    = lipgloss.Color("#0B1120")
	BgCard    = lipgloss.Color("#172033")
	Border    = lipgloss.Color("#2E3A52")
)

func fg(c color.Color) lipgloss.Style { return lipgloss.NewStyle().Foreground(c) }
func bg(c color.Color) lipgloss.Style { return lipgloss.NewStyle().Background(c) }

// Text styles.
var (
	Title    = fg(Primary).Bold(true).Align(lipgloss.Center)
	Subtitle = fg(TextDim).Align(lipgloss.Center)
	Body     = fg(Text)
	Hint     = fg(TextDim).Italic(true)
	Heading  = fg(Secondary).Bold(true)
)

// Lesson sections.
var (
	Quote   = fg(TextDim).Italic(true).PaddingLeft(1).Border(lipgloss.ThickBorder(), false, false, false, true).BorderForeground(Border)
	Example = fg(Text).Background(BgCard).Padding(0, 1)
	Callout = fg(Accent).Padding(0, 1).Border(lipgloss.RoundedBorder()).BorderForeground(Accent)
	Link    = fg(Secondary).Underline(true)
)

// Chrome.
var (
	Header = bg(BgCard).Padding(0, 2)
	Footer = Header
	Card   = bg(BgCard).Padding(1, 2).Border(lipgloss.RoundedBorder()).BorderForeground(Border)
)

// Selection and answer states.
var (
	Selected   = fg(Accent).Bold(true)
	Unselected = fg(Text)
	Disabled   = fg(Locked)
	Correct    = fg(Success).Bold(true)
	Incorrect  = fg(Error).Bold(true)
	Celebrate  = fg(BgDark).Background(Highlight).Bold(true).Padding(0, 2)
)

// Bars and buttons.
var (
	ProgressFilled = bg(Secondary)
	ProgressEmpty  = bg(Border)
	ProgressUrgent = bg(Error)
	ButtonActive   = fg(BgDark).Background(Accent).Bold(true).Padding(0, 2)
	ButtonInactive = fg(TextDim).Padding(0, 2).Border(lipgloss.RoundedBorder()).BorderForeground(Border)
)
