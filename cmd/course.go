package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/ladder/internal/progression"
)

var courseCmd = &cobra.Command{
	Use:   "course",
	Short: "Inspect the course and where the learner stands in it",
}

var courseListCmd = &cobra.Command{
	Use:   "list",
	Short: "List modules with their unlock state",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd, false)
		if err != nil {
			return err
		}
		defer e.Close()

		t := newTable(cmd.OutOrStdout(), "LEVEL", "ID", "TITLE", "LESSONS", "STATE")
		for _, mv := range e.svc.Outline() {
			t.row(mv.Module.Level, mv.Module.ID, clip(mv.Module.Title, 32),
				fmt.Sprintf("%d/%d", mv.Done, len(mv.SubModules)), moduleState(mv))
		}
		return t.flush()
	},
}

var courseShowCmd = &cobra.Command{
	Use:   "show <module>",
	Short: "Show a module's lessons",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd, false)
		if err != nil {
			return err
		}
		defer e.Close()

		for _, mv := range e.svc.Outline() {
			if mv.Module.ID != args[0] {
				continue
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s (level %d) %s\n", mv.Module.Title, mv.Module.Level, moduleState(mv))
			if mv.Module.Description != "" {
				fmt.Fprintln(out, mv.Module.Description)
			}
			fmt.Fprintln(out)
			t := newTable(out)
			for _, sv := range mv.SubModules {
				t.row(" "+lessonMark(sv.State), fmt.Sprintf("%d.", sv.Index+1), sv.SubModule.ID,
					clip(sv.SubModule.Title, 36), lessonDetail(sv))
			}
			return t.flush()
		}
		return fmt.Errorf("unknown module %q (see ladder course list)", args[0])
	},
}

func init() {
	courseCmd.AddCommand(courseListCmd)
	courseCmd.AddCommand(courseShowCmd)
}

func moduleState(mv progression.ModuleView) string {
	switch {
	case mv.Completed:
		return "complete"
	case mv.Locked:
		return "locked"
	case mv.Done > 0:
		return "in progress"
	default:
		return "open"
	}
}

func lessonMark(s progression.ViewState) string {
	switch {
	case s.Completed:
		return "✓"
	case s.Locked:
		return "🔒"
	case s.Active:
		return "▶"
	default:
		return "○"
	}
}

func lessonDetail(sv progression.SubModuleView) string {
	var parts []string
	if sv.State.HasQuiz {
		parts = append(parts, fmt.Sprintf("%d questions", len(sv.SubModule.Playable())))
	} else {
		parts = append(parts, "reading")
	}
	if sv.State.HasScore {
		parts = append(parts, fmt.Sprintf("score %d%%", sv.State.Score))
	}
	return strings.Join(parts, ", ")
}

// clip shortens s to n runes.
func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
