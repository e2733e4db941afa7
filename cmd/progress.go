package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/ladder/internal/progression"
	"github.com/abhisek/ladder/internal/rewards"
	"github.com/abhisek/ladder/internal/store"
)

var progressCmd = &cobra.Command{
	Use:   "progress",
	Short: "Show the learner's XP, level and recent completions",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		e, err := openEnv(cmd, false)
		if err != nil {
			return err
		}
		defer e.Close()
		ctx := cmd.Context()

		xp := e.svc.XP()
		level := rewards.LevelFor(xp)
		name := e.learnerID
		if e.cfg.Learner.Name != "" {
			name = fmt.Sprintf("%s (%s)", e.cfg.Learner.Name, e.learnerID)
		}

		out := cmd.OutOrStdout()
		field(out, "Learner", name)
		field(out, "XP", xp)
		field(out, "Level", level.DisplayName())
		if next, missing := rewards.NextLevel(xp); missing > 0 {
			field(out, "Next", fmt.Sprintf("%s in %d XP", next.DisplayName(), missing))
		}
		if ledger, err := e.rewards.LedgerTotal(ctx, e.learnerID); err == nil && ledger != xp {
			field(out, "Ledger", fmt.Sprintf("%d XP recorded on this machine", ledger))
		}

		done, total := 0, 0
		for _, mv := range e.svc.Outline() {
			done += mv.Done
			total += len(mv.SubModules)
		}
		field(out, "Lessons", fmt.Sprintf("%d/%d", done, total))
		if ref, ok := e.svc.Resume(); ok {
			field(out, "Continue", ref)
		} else {
			field(out, "Continue", "course complete")
		}

		events, err := e.store.EventRepo().QueryProgressionEvents(ctx, e.learnerID, store.QueryOpts{Limit: limit})
		if err != nil {
			return fmt.Errorf("query completions: %w", err)
		}
		if len(events) == 0 {
			return nil
		}

		fmt.Fprintln(out)
		t := newTable(out, "WHEN", "LESSON", "HOW", "SCORE", "XP")
		for _, ev := range events {
			score := "-"
			if ev.Kind != string(progression.KindRead) {
				score = fmt.Sprintf("%d%%", ev.Score)
			}
			lesson := ev.ModuleID + "/" + ev.SubModuleID
			if ev.ModuleCompleted {
				lesson += " ★"
			}
			t.row(ev.Timestamp.Local().Format(timeLayout), clip(lesson, 32), ev.Kind, score, ev.XP)
		}
		return t.flush()
	},
}

func init() {
	progressCmd.Flags().Int("limit", 10, "Number of recent completions to show")
}
