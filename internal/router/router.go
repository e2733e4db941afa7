// Package router keeps the stack of screens the learner has walked
// through. Screens navigate by returning the commands below; the app
// model feeds the resulting messages back into Update.
package router

import (
	"strings"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/ladder/internal/screen"
)

type (
	// PushScreenMsg opens Screen on top of the current one.
	PushScreenMsg struct{ Screen screen.Screen }
	// PopScreenMsg closes the active screen.
	PopScreenMsg struct{}
	// ReplaceScreenMsg swaps the active screen for Screen.
	ReplaceScreenMsg struct{ Screen screen.Screen }
	// PopToRootMsg closes everything above the root screen.
	PopToRootMsg struct{}
)

func Push(s screen.Screen) tea.Cmd {
	return func() tea.Msg { return PushScreenMsg{Screen: s} }
}

func Replace(s screen.Screen) tea.Cmd {
	return func() tea.Msg { return ReplaceScreenMsg{Screen: s} }
}

func Pop() tea.Msg       { return PopScreenMsg{} }
func PopToRoot() tea.Msg { return PopToRootMsg{} }

// Router is a screen stack whose root is never popped.
type Router struct {
	stack []screen.Screen
}

func New(root screen.Screen) *Router {
	return &Router{stack: []screen.Screen{root}}
}

func (r *Router) Depth() int { return len(r.stack) }

func (r *Router) Active() screen.Screen {
	if len(r.stack) == 0 {
		return nil
	}
	return r.stack[len(r.stack)-1]
}

// Push opens s and runs its Init.
func (r *Router) Push(s screen.Screen) tea.Cmd {
	r.stack = append(r.stack, s)
	return s.Init()
}

// Replace swaps the active screen for s without changing the depth.
func (r *Router) Replace(s screen.Screen) tea.Cmd {
	r.stack[len(r.stack)-1] = s
	return s.Init()
}

// Pop closes the active screen and resumes the one it covered.
func (r *Router) Pop() tea.Cmd { return r.truncate(len(r.stack) - 1) }

// PopToRoot closes every screen above the root and resumes it.
func (r *Router) PopToRoot() tea.Cmd { return r.truncate(1) }

// truncate shrinks the stack to n screens, never below the root. The
// newly exposed screen is resumed if it asks to be.
func (r *Router) truncate(n int) tea.Cmd {
	if n < 1 || n >= len(r.stack) {
		return nil
	}
	clear(r.stack[n:])
	r.stack = r.stack[:n]
	if rs, ok := r.Active().(screen.Resumer); ok {
		return rs.Resume()
	}
	return nil
}

// Trail joins the titles of the open screens, root first.
func (r *Router) Trail(sep string) string {
	titles := make([]string, 0, len(r.stack))
	for _, s := range r.stack {
		if t := s.Title(); t != "" {
			titles = append(titles, t)
		}
	}
	return strings.Join(titles, sep)
}

// Update applies navigation messages and hands anything else to the
// active screen.
func (r *Router) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case PushScreenMsg:
		return r.Push(msg.Screen)
	case ReplaceScreenMsg:
		return r.Replace(msg.Screen)
	case PopScreenMsg:
		return r.Pop()
	case PopToRootMsg:
		return r.PopToRoot()
	}
	active := r.Active()
	if active == nil {
		return nil
	}
	next, cmd := active.Update(msg)
	r.stack[len(r.stack)-1] = next
	return cmd
}

func (r *Router) View(width, height int) string {
	if active := r.Active(); active != nil {
		return active.View(width, height)
	}
	return ""
}
