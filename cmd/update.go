package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/ladder/internal/selfupdate"
)

const updateTimeout = 2 * time.Minute

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Replace this binary with the newest release",
	RunE: func(cmd *cobra.Command, _ []string) error {
		out := cmd.OutOrStdout()
		target, _ := cmd.Flags().GetString("to")

		ctx, cancel := context.WithTimeout(cmd.Context(), updateTimeout)
		defer cancel()

		in := &selfupdate.UpdateInput{CurrentVersion: version, TargetVersion: target}
		err := selfupdate.NewChecker(selfupdate.WithTimeout(updateTimeout)).Update(ctx, in, func(p selfupdate.UpdateProgress) {
			fmt.Fprintf(out, "[%s] %s\n", p.Stage, p.Message)
		})
		switch {
		case err == nil:
			return nil
		case errors.Is(err, selfupdate.ErrDevBuild):
			fmt.Fprintln(out, "This is a development build; install a release to enable updates.")
			return nil
		case errors.Is(err, selfupdate.ErrAlreadyLatest):
			fmt.Fprintf(out, "ladder %s is the newest release.\n", version)
			return nil
		case os.IsPermission(err):
			return fmt.Errorf("%w (the binary's directory is not writable; retry with elevated permissions)", err)
		}
		return err
	},
}

func init() {
	updateCmd.Flags().String("to", "", "install this release tag instead of the newest")
}
