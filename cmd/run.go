package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/abhisek/ladder/internal/app"
	"github.com/abhisek/ladder/internal/assistant"
	"github.com/abhisek/ladder/internal/llm"
	"github.com/abhisek/ladder/internal/screens/shell"
	"github.com/abhisek/ladder/internal/selfupdate"
)

// runApp opens the learner's progress, builds dependencies, and launches
// the TUI.
func runApp(cmd *cobra.Command) error {
	ctx := cmd.Context()
	e, err := openEnv(cmd, true)
	if err != nil {
		return err
	}
	defer e.Close()

	deps := &shell.Deps{
		LearnerID:   e.learnerID,
		Progression: e.svc,
		Rewards:     e.rewards,
		Saves:       e.adapter,
		Logger:      e.logger,
	}

	provider, err := llm.NewProvider(ctx, e.cfg.LLM, e.store.EventRepo(), e.logger.With("component", "llm"))
	switch {
	case errors.Is(err, llm.ErrNotConfigured):
		e.logger.Info("lesson assistant disabled", "reason", err)
	case err != nil:
		fmt.Fprintln(os.Stderr, "LLM provider not available:", err)
		fmt.Fprintln(os.Stderr, "The lesson assistant will be unavailable.")
	default:
		deps.Assistant = assistant.New(provider, assistant.DefaultConfig(), e.logger.With("component", "assistant"))
	}

	opts := app.Options{Deps: deps}
	if updates, err := e.adapter.Subscribe(ctx, e.learnerID); err != nil {
		e.logger.Warn("live progress updates unavailable", "error", err)
	} else {
		opts.Updates = updates
	}

	checker := selfupdate.NewChecker()
	opts.CheckUpdate = func(ctx context.Context) (string, error) {
		return checker.Latest(ctx, version)
	}

	return app.Run(ctx, opts)
}
