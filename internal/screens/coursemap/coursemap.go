// Package coursemap is the course outline screen: every module and
// lesson with its lock, progress and score.
package coursemap

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/ladder/internal/progression"
	"github.com/abhisek/ladder/internal/router"
	"github.com/abhisek/ladder/internal/screen"
	"github.com/abhisek/ladder/internal/screens/lesson"
	"github.com/abhisek/ladder/internal/screens/shell"
	"github.com/abhisek/ladder/internal/ui/layout"
	"github.com/abhisek/ladder/internal/ui/theme"
)

type rowKind int

const (
	rowModule rowKind = iota
	rowLesson
)

type row struct {
	kind   rowKind
	module progression.ModuleView
	lesson progression.SubModuleView
}

// CourseMapScreen lists the course grouped by module.
type CourseMapScreen struct {
	deps         *shell.Deps
	rows         []row
	cursor       int
	scrollOffset int
	flash        string
}

var _ screen.Screen = (*CourseMapScreen)(nil)
var _ screen.KeyHintProvider = (*CourseMapScreen)(nil)
var _ screen.Resumer = (*CourseMapScreen)(nil)

// New creates the course map with the cursor on the resume point.
func New(deps *shell.Deps) *CourseMapScreen {
	s := &CourseMapScreen{deps: deps}
	s.refresh()
	s.cursor = -1
	for i, r := range s.rows {
		if r.kind != rowLesson {
			continue
		}
		if s.cursor < 0 {
			s.cursor = i
		}
		if r.lesson.State.Active {
			s.cursor = i
			break
		}
	}
	s.cursor = max(s.cursor, 0)
	return s
}

// refresh rebuilds the rows from the learner's current progress.
func (s *CourseMapScreen) refresh() {
	var rows []row
	for _, mv := range s.deps.Progression.Outline() {
		rows = append(rows, row{kind: rowModule, module: mv})
		for _, sv := range mv.SubModules {
			rows = append(rows, row{kind: rowLesson, module: mv, lesson: sv})
		}
	}
	s.rows = rows
	if s.cursor >= len(rows) {
		s.cursor = max(len(rows)-1, 0)
	}
}

func (s *CourseMapScreen) Init() tea.Cmd {
	return nil
}

// Resume picks up progress made in a lesson.
func (s *CourseMapScreen) Resume() tea.Cmd {
	s.refresh()
	s.flash = ""
	return nil
}

func (s *CourseMapScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyPressMsg:
		s.flash = ""
		switch msg.String() {
		case "up", "k":
			s.moveCursor(-1)
		case "down", "j":
			s.moveCursor(1)
		case "tab":
			s.nextModule()
		case "shift+tab":
			s.prevModule()
		case "enter":
			return s, s.open()
		case "i":
			if r, ok := s.current(); ok {
				return s, router.Push(newModuleDetail(r.module))
			}
		case "q":
			return s, router.Pop
		}
	}
	return s, nil
}

func (s *CourseMapScreen) View(width, height int) string {
	if len(s.rows) == 0 {
		return shell.RenderLoading(width, "The course is empty.")
	}

	listHeight := height
	if s.flash != "" {
		listHeight--
	}
	s.adjustScroll(listHeight)

	var lines []string
	for i := s.scrollOffset; i < len(s.rows) && len(lines) < listHeight; i++ {
		r := s.rows[i]
		switch r.kind {
		case rowModule:
			lines = append(lines, renderModuleHeader(r.module, width))
		case rowLesson:
			lines = append(lines, renderLessonRow(r.lesson, i == s.cursor, width))
		}
	}
	if s.flash != "" {
		lines = append(lines, lipgloss.NewStyle().Foreground(theme.Warning).PaddingLeft(2).Render(s.flash))
	}
	return strings.Join(lines, "\n")
}

func (s *CourseMapScreen) Title() string {
	return "Course Map"
}

func (s *CourseMapScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Navigate"},
		{Key: "Tab", Description: "Module"},
		{Key: "Enter", Description: "Open"},
		{Key: "I", Description: "Module info"},
		{Key: "Esc", Description: "Back"},
	}
}

func (s *CourseMapScreen) current() (row, bool) {
	if s.cursor < 0 || s.cursor >= len(s.rows) {
		return row{}, false
	}
	return s.rows[s.cursor], true
}

// moveCursor moves the cursor by delta, skipping module headers.
func (s *CourseMapScreen) moveCursor(delta int) {
	for next := s.cursor + delta; next >= 0 && next < len(s.rows); next += delta {
		if s.rows[next].kind == rowLesson {
			s.cursor = next
			return
		}
	}
}

// nextModule jumps to the first lesson of the next module.
func (s *CourseMapScreen) nextModule() {
	cur := s.rows[s.cursor].module.Module.ID
	for i := s.cursor + 1; i < len(s.rows); i++ {
		if s.rows[i].kind == rowLesson && s.rows[i].module.Module.ID != cur {
			s.cursor = i
			return
		}
	}
}

// prevModule jumps to the first lesson of the previous module.
func (s *CourseMapScreen) prevModule() {
	cur := s.rows[s.cursor].module.Module.ID
	prev := ""
	for i := s.cursor - 1; i >= 0; i-- {
		if s.rows[i].kind == rowLesson && s.rows[i].module.Module.ID != cur {
			prev = s.rows[i].module.Module.ID
			break
		}
	}
	if prev == "" {
		return
	}
	for i, r := range s.rows {
		if r.kind == rowLesson && r.module.Module.ID == prev {
			s.cursor = i
			return
		}
	}
}

// adjustScroll keeps the cursor, and its module header when possible,
// inside the viewport.
func (s *CourseMapScreen) adjustScroll(height int) {
	if height <= 0 {
		return
	}
	top := s.cursor
	for top > 0 && s.rows[top-1].kind == rowModule {
		top--
	}
	if top < s.scrollOffset {
		s.scrollOffset = top
	}
	if s.cursor >= s.scrollOffset+height {
		s.scrollOffset = s.cursor - height + 1
	}
}

// open enters the lesson under the cursor. Locked lessons only explain
// why they are locked.
func (s *CourseMapScreen) open() tea.Cmd {
	r, ok := s.current()
	if !ok || r.kind != rowLesson {
		return nil
	}
	if r.module.Locked {
		s.flash = "Finish the previous module to unlock " + r.module.Module.Title + "."
		return nil
	}
	if r.lesson.State.Locked {
		s.flash = "Complete the previous lesson to unlock this one."
		return nil
	}
	ref := progression.Ref{ModuleID: r.module.Module.ID, SubModuleID: r.lesson.SubModule.ID}
	return router.Push(lesson.New(s.deps, ref))
}

func renderModuleHeader(mv progression.ModuleView, width int) string {
	name := fmt.Sprintf("%s  %d/%d", strings.ToUpper(mv.Module.Title), mv.Done, len(mv.SubModules))
	fg := theme.Secondary
	switch {
	case mv.Locked:
		name += "  LOCKED"
		fg = theme.Locked
	case mv.Completed:
		name += "  ✓"
		fg = theme.Success
	}
	return lipgloss.NewStyle().
		Foreground(fg).
		Bold(true).
		Width(width).
		Padding(1, 0, 0, 2).
		Render(name)
}

func stateIcon(st progression.ViewState) string {
	switch {
	case st.Completed:
		return "✓"
	case st.Locked:
		return "⊘"
	case st.Active:
		return "▶"
	default:
		return "○"
	}
}

func stateLabel(st progression.ViewState) string {
	switch {
	case st.Completed && st.HasScore:
		return fmt.Sprintf("%d%%", st.Score)
	case st.Completed:
		return "done"
	case st.Locked:
		return "locked"
	case st.HasScore:
		return fmt.Sprintf("best %d%%", st.Score)
	case !st.HasQuiz:
		return "reading"
	default:
		return "open"
	}
}

func renderLessonRow(sv progression.SubModuleView, selected bool, width int) string {
	st := sv.State
	labelWidth := 10
	nameWidth := max(width-4-3-labelWidth-4, 10)

	name := sv.SubModule.Title
	if lipgloss.Width(name) > nameWidth {
		name = string([]rune(name)[:nameWidth-1]) + "…"
	}

	var nameStyle, labelStyle lipgloss.Style
	switch {
	case selected:
		nameStyle = lipgloss.NewStyle().Foreground(theme.Primary).Bold(true)
		labelStyle = lipgloss.NewStyle().Foreground(theme.Primary)
	case st.Completed:
		nameStyle = lipgloss.NewStyle().Foreground(theme.Success)
		labelStyle = lipgloss.NewStyle().Foreground(theme.Success)
	case st.Locked:
		nameStyle = lipgloss.NewStyle().Foreground(theme.Locked)
		labelStyle = lipgloss.NewStyle().Foreground(theme.Locked)
	case st.Active:
		nameStyle = lipgloss.NewStyle().Foreground(theme.Highlight).Bold(true)
		labelStyle = lipgloss.NewStyle().Foreground(theme.Secondary)
	default:
		nameStyle = lipgloss.NewStyle().Foreground(theme.Text)
		labelStyle = lipgloss.NewStyle().Foreground(theme.Secondary)
	}

	cursor := "  "
	if selected {
		cursor = "▸ "
	}
	return fmt.Sprintf("  %s%s %s  %s",
		cursor,
		stateIcon(st),
		nameStyle.Render(fmt.Sprintf("%-*s", nameWidth, name)),
		labelStyle.Render(fmt.Sprintf("%*s", labelWidth, stateLabel(st))),
	)
}
