package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset learner data",
	Long:  "Delete the learner's stored progress and local history, starting the course over.",
	RunE: func(cmd *cobra.Command, args []string) error {
		yes, _ := cmd.Flags().GetBool("yes")

		e, err := openEnv(cmd, false)
		if err != nil {
			return err
		}
		defer e.Close()

		if !yes {
			fmt.Printf("Reset all progress for %s? [y/N] ", e.learnerID)
			answer, _ := bufio.NewReader(os.Stdin).ReadString('\n')
			if a := strings.ToLower(strings.TrimSpace(answer)); a != "y" && a != "yes" {
				fmt.Println("Nothing changed.")
				return nil
			}
		}

		ctx := cmd.Context()
		if err := e.adapter.Reset(ctx, e.learnerID); err != nil {
			return err
		}
		if err := e.store.EventRepo().Reset(ctx, e.learnerID); err != nil {
			return fmt.Errorf("reset history: %w", err)
		}
		fmt.Printf("Progress for %s has been reset.\n", e.learnerID)
		return nil
	},
}

func init() {
	resetCmd.Flags().BoolP("yes", "y", false, "Skip the confirmation prompt")
}
