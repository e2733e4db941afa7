package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var leaderboardCmd = &cobra.Command{
	Use:   "leaderboard",
	Short: "Rank learners sharing the progress store by XP",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		e, err := openEnv(cmd, false)
		if err != nil {
			return err
		}
		defer e.Close()

		standings, err := e.rewards.Leaderboard(cmd.Context(), limit)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(standings) == 0 {
			fmt.Fprintln(out, "No learners yet.")
			return nil
		}

		t := newTable(out, "", "RANK", "LEARNER", "XP", "LEVEL")
		for _, s := range standings {
			you := ""
			if s.LearnerID == e.learnerID {
				you = "▶"
			}
			t.row(you, s.Rank, clip(s.LearnerID, 38), s.XP, s.Level.DisplayName())
		}
		return t.flush()
	},
}

func init() {
	leaderboardCmd.Flags().Int("limit", 10, "Number of learners to show")
}
