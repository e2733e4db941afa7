package quiz

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	qz "github.com/abhisek/ladder/internal/quiz"
	"github.com/abhisek/ladder/internal/screens/shell"
	"github.com/abhisek/ladder/internal/ui/components"
	"github.com/abhisek/ladder/internal/ui/theme"
)

func (s *QuizScreen) View(width, height int) string {
	switch {
	case s.errMsg != "":
		return shell.RenderError(width, s.errMsg)
	case !s.started:
		return shell.RenderLoading(width, "Preparing questions...")
	case s.confirmQuit:
		return renderQuitConfirm(width)
	case s.finished:
		return s.renderResult(width)
	}
	return s.renderQuestion(width)
}

func (s *QuizScreen) renderQuestion(width int) string {
	st := s.state
	var b strings.Builder

	infoLeft := lipgloss.NewStyle().
		Foreground(theme.Secondary).
		Bold(true).
		Render("  " + s.progressLabel())
	infoRight := lipgloss.NewStyle().
		Foreground(theme.TextDim).
		Render(fmt.Sprintf("%s %d  %s %d",
			lipgloss.NewStyle().Foreground(theme.Success).Render("✓"), st.Stats.Correct,
			lipgloss.NewStyle().Foreground(theme.Error).Render("✗"), st.Stats.Incorrect,
		))
	infoLine := infoLeft
	if pad := width - lipgloss.Width(infoLeft) - lipgloss.Width(infoRight) - 4; pad > 0 {
		infoLine += strings.Repeat(" ", pad) + infoRight
	}
	b.WriteString(infoLine)
	b.WriteString("\n")

	cw := min(width-8, 70)
	timer := components.Countdown(st.Remaining, st.Duration, st.TimerActive, cw)
	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, timer))
	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().Foreground(theme.Border).Render(strings.Repeat("─", max(width-4, 0))))
	b.WriteString("\n\n")

	var prompt string
	if st.Index < len(s.questions) {
		prompt = s.questions[st.Index].Prompt
	}
	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center,
		lipgloss.NewStyle().Width(cw).Foreground(theme.Text).Bold(true).Render(prompt)))
	b.WriteString("\n\n")

	choices := components.Choices{
		Options:  qz.Texts(st.Options),
		Selected: st.Selected,
		Revealed: st.Phase == qz.PhaseSubmitted,
		Correct:  qz.CorrectIndex(st.Options),
		Chosen:   st.Selected,
	}
	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center,
		lipgloss.NewStyle().Width(cw).Render(choices.View())))

	if st.Phase == qz.PhaseSubmitted {
		b.WriteString("\n")
		b.WriteString(s.renderFeedback(width, cw))
	} else if st.LazyTimer && !st.TimerActive {
		b.WriteString("\n")
		b.WriteString(shell.Centered(width, theme.Hint, "The timer starts when you pick an answer."))
	}
	return b.String()
}

func (s *QuizScreen) renderFeedback(width, cw int) string {
	st := s.state
	var b strings.Builder
	switch {
	case st.LastCorrect:
		b.WriteString(shell.Centered(width, theme.Correct, "Correct!"))
	case st.TimedOut:
		b.WriteString(shell.Centered(width, theme.Incorrect, "Time's up"))
	default:
		b.WriteString(shell.Centered(width, theme.Incorrect, "Not quite"))
	}

	if !st.LastCorrect {
		if text, ok := s.explanations[st.Index]; ok {
			b.WriteString("\n\n")
			exp := lipgloss.NewStyle().Width(cw).Foreground(theme.Text).Render(text)
			b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, exp))
		} else if s.explaining == st.Index {
			b.WriteString("\n\n")
			b.WriteString(shell.Centered(width, theme.Hint, "Fetching an explanation..."))
		}
	}
	return b.String()
}

func (s *QuizScreen) renderResult(width int) string {
	var b strings.Builder
	b.WriteString("\n\n")

	passed := s.passed()
	heading := "Quiz passed!"
	switch {
	case s.mode == ModeBypass && passed:
		heading = "Perfect run: lesson skipped!"
	case s.mode == ModeBypass:
		heading = "Not this time. Let's read the lesson."
	case !passed:
		heading = "Not passed yet"
	}
	style := theme.Correct
	if !passed {
		style = theme.Incorrect
	}
	b.WriteString(shell.Centered(width, style, heading))
	b.WriteString("\n\n")

	score := fmt.Sprintf("Score: %d%%   (%d of %d correct)", s.result.Score, s.result.Correct, s.result.Total)
	b.WriteString(shell.Centered(width, lipgloss.NewStyle().Foreground(theme.Text), score))
	b.WriteString("\n")
	if s.mode == ModeQuiz {
		need := fmt.Sprintf("Pass mark: %d%%", s.deps.Progression.Policy().PassThreshold)
		b.WriteString(shell.Centered(width, lipgloss.NewStyle().Foreground(theme.TextDim), need))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	if !s.recorded {
		b.WriteString(shell.Centered(width, theme.Hint, "Saving..."))
		return b.String()
	}

	if t := s.transition; t != nil {
		if t.XP > 0 {
			b.WriteString(shell.Centered(width, lipgloss.NewStyle().Foreground(theme.Accent).Bold(true),
				fmt.Sprintf("+%d XP", t.XP)))
			b.WriteString("\n\n")
		}
		if t.Celebrate {
			banner := "Lesson complete!"
			if t.ModuleCompleted {
				banner = "Module complete!"
			}
			b.WriteString(components.Banner("★ "+banner+" ★", width))
			b.WriteString("\n\n")
		}
		if t.UnlockedNext != nil {
			b.WriteString(shell.Centered(width, lipgloss.NewStyle().Foreground(theme.Secondary),
				"Unlocked: "+s.unlockedTitle(t.UnlockedNext.ModuleID, t.UnlockedNext.SubModuleID)))
			b.WriteString("\n")
		}
		if t.UnlockedModule != "" {
			title := t.UnlockedModule
			if m, ok := s.deps.Progression.Catalog().Module(t.UnlockedModule); ok {
				title = m.Title
			}
			b.WriteString(shell.Centered(width, lipgloss.NewStyle().Foreground(theme.Secondary),
				"New module unlocked: "+title))
			b.WriteString("\n")
		}
	} else if s.canRetry() {
		b.WriteString(shell.Centered(width, theme.Hint, "Review the lesson and try again whenever you're ready."))
	}
	return b.String()
}

func (s *QuizScreen) unlockedTitle(moduleID, subModuleID string) string {
	if sub, _, ok := s.deps.Progression.Catalog().SubModule(moduleID, subModuleID); ok {
		return sub.Title
	}
	return subModuleID
}

func renderQuitConfirm(width int) string {
	var b strings.Builder
	b.WriteString("\n\n\n")
	b.WriteString(shell.Centered(width, lipgloss.NewStyle().Foreground(theme.Text).Bold(true), "Leave this quiz?"))
	b.WriteString("\n")
	b.WriteString(shell.Centered(width, lipgloss.NewStyle().Foreground(theme.TextDim), "This attempt will not count."))
	b.WriteString("\n\n")
	b.WriteString(shell.Centered(width, lipgloss.NewStyle().Foreground(theme.Success), "[Y] Yes, leave"))
	b.WriteString("\n")
	b.WriteString(shell.Centered(width, lipgloss.NewStyle().Foreground(theme.Primary), "[N] No, keep going"))
	return b.String()
}
