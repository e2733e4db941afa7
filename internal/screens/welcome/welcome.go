// Package welcome is the splash screen: the owl climbs the ladder, the
// wordmark appears, and any key moves on to the home screen.
package welcome

import (
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/ladder/internal/router"
	"github.com/abhisek/ladder/internal/screen"
	"github.com/abhisek/ladder/internal/ui/components"
	"github.com/abhisek/ladder/internal/ui/theme"
)

const (
	frameInterval = 120 * time.Millisecond

	// rungs is the ladder height; the owl climbs one rung per frame.
	rungs = 5
	// holdFrames is how long the wordmark shows before the prompt.
	holdFrames = 4
)

// Tagline is shown under the wordmark.
const Tagline = "One rung at a time."

type stage int

const (
	stageClimb stage = iota
	stageWordmark
	stageReady
)

const (
	owlHead = " ◉ ◉ "
	owlBody = "( ▽ )"
	rail    = "═╪═════╪═"
	gap     = " │     │ "
)

var glints = []string{"★", "✦", "·"}

type frameMsg time.Time

// WelcomeScreen plays the splash and hands over to the home screen on the
// first key press, whether or not the animation has finished.
type WelcomeScreen struct {
	next   func() screen.Screen
	frames int
	left   bool
}

var _ screen.Screen = (*WelcomeScreen)(nil)

// New creates a WelcomeScreen that replaces itself with next() on a key.
func New(next func() screen.Screen) *WelcomeScreen {
	return &WelcomeScreen{next: next}
}

func (w *WelcomeScreen) Title() string { return "" }

func (w *WelcomeScreen) Init() tea.Cmd { return nextFrame() }

func nextFrame() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg { return frameMsg(t) })
}

func (w *WelcomeScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg.(type) {
	case frameMsg:
		w.frames++
		return w, nextFrame()
	case tea.KeyPressMsg:
		if w.left {
			return w, nil
		}
		w.left = true
		return w, router.Replace(w.next())
	}
	return w, nil
}

func (w *WelcomeScreen) stage() stage {
	switch {
	case w.frames < rungs:
		return stageClimb
	case w.frames < rungs+holdFrames:
		return stageWordmark
	default:
		return stageReady
	}
}

// height returns the rung the owl sits on, 0 being the bottom.
func (w *WelcomeScreen) height() int {
	return min(w.frames, rungs)
}

func (w *WelcomeScreen) View(width, height int) string {
	parts := []string{w.renderLadder()}

	st := w.stage()
	if st >= stageWordmark {
		parts = append(parts, "",
			components.Wordmark(width, false, theme.Primary),
			"",
			lipgloss.NewStyle().Foreground(theme.Text).Bold(true).Render(Tagline),
		)
	}
	if st == stageReady {
		parts = append(parts, "",
			lipgloss.NewStyle().Foreground(theme.TextDim).Italic(true).Render("press any key to start climbing"),
		)
	}

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, strings.Join(parts, "\n"))
}

// renderLadder draws the ladder top rung first with the owl standing on
// its current rung.
func (w *WelcomeScreen) renderLadder() string {
	railStyle := lipgloss.NewStyle().Foreground(theme.Secondary)
	owlStyle := lipgloss.NewStyle().Foreground(theme.Primary).Bold(true)
	glint := lipgloss.NewStyle().Foreground(theme.Accent).Render(glints[w.frames%len(glints)])

	at := w.height()
	var lines []string
	for r := rungs; r >= 0; r-- {
		if r == at {
			head, body := owlStyle.Render(owlHead), owlStyle.Render(owlBody)
			if at == rungs {
				head = glint + " " + head + " " + glint
				body = "  " + body + "  "
			}
			lines = append(lines, center(head, len(rail)), center(body, len(rail)))
		} else {
			lines = append(lines, railStyle.Render(gap), railStyle.Render(gap))
		}
		lines = append(lines, railStyle.Render(rail))
	}
	return lipgloss.JoinVertical(lipgloss.Center, lines...)
}

func center(s string, width int) string {
	return lipgloss.PlaceHorizontal(width, lipgloss.Center, s)
}
