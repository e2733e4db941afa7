package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "ladder",
	Short: "Learn AI concepts one rung at a time",
	Long: `Ladder is a terminal course on AI concepts. Modules unlock in order,
each lesson ends in a timed quiz, and experienced learners can test out
of a module with a short pre-assessment.

Environment:
  LADDER_DB                SQLite database file
  LADDER_LEARNER           learner ID (default: generated on first run)
  LADDER_BACKEND           progress store: sqlite, memory, redis or postgres
  LADDER_BACKEND_URL       URL for the redis or postgres backend
  LADDER_CATALOG           directory of module YAML files
  LADDER_LOG_LEVEL         debug, info, warn or error
  LADDER_LLM_PROVIDER      anthropic, openai, openrouter, gemini or mock
  ANTHROPIC_API_KEY, OPENAI_API_KEY, OPENROUTER_API_KEY, GEMINI_API_KEY
                           enable the lesson assistant`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runApp(cmd)
	},
}

// Execute runs the command line until it finishes or the process is
// interrupted.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("db", "", "Path to SQLite database file (overrides LADDER_DB)")
	flags.String("learner", "", "Learner ID (overrides LADDER_LEARNER)")
	flags.String("backend", "", "Progress store: sqlite, memory, redis or postgres (overrides LADDER_BACKEND)")
	flags.String("backend-url", "", "Redis or Postgres URL (overrides LADDER_BACKEND_URL)")
	flags.String("catalog", "", "Directory of module YAML files (overrides LADDER_CATALOG)")

	rootCmd.AddCommand(courseCmd)
	rootCmd.AddCommand(progressCmd)
	rootCmd.AddCommand(completeCmd)
	rootCmd.AddCommand(leaderboardCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(updateCmd)
}
