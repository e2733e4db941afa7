package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/ladder/internal/progression"
)

var completeCmd = &cobra.Command{
	Use:   "complete <module>/<lesson>",
	Short: "Mark a reading-only lesson as read",
	Long: `Mark a lesson without a quiz as read. Lessons that end in a quiz can
only be completed by passing it in the terminal UI.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		moduleID, subID, ok := strings.Cut(args[0], "/")
		if !ok || moduleID == "" || subID == "" {
			return fmt.Errorf("expected <module>/<lesson>, got %q", args[0])
		}

		e, err := openEnv(cmd, false)
		if err != nil {
			return err
		}
		defer e.Close()

		ref := progression.Ref{ModuleID: moduleID, SubModuleID: subID}
		t, err := e.svc.MarkCompleteNoQuiz(cmd.Context(), ref)
		switch {
		case errors.Is(err, progression.ErrQuizRequired):
			return fmt.Errorf("%s ends in a quiz; pass it in the terminal UI", ref)
		case errors.Is(err, progression.ErrAlreadyCompleted):
			fmt.Printf("%s is already complete.\n", ref)
			return nil
		case err != nil:
			return fmt.Errorf("complete %s: %w", ref, err)
		}

		fmt.Printf("Completed %s (+%d XP, %d total)\n", ref, t.XP, t.TotalXP)
		if t.ModuleCompleted {
			fmt.Printf("Module %s complete!\n", ref.ModuleID)
		}
		if t.UnlockedModule != "" {
			fmt.Printf("Unlocked module %s\n", t.UnlockedModule)
		}
		if t.UnlockedNext != nil {
			fmt.Printf("Next up: %s\n", t.UnlockedNext)
		}
		return nil
	},
}
