package cmd

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/ladder/internal/selfupdate"
)

// version is stamped by the release build with -ldflags "-X".
var version = selfupdate.DevVersion

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show the installed version",
	RunE: func(cmd *cobra.Command, _ []string) error {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "ladder %s (%s/%s)\n", version, runtime.GOOS, runtime.GOARCH)

		if check, _ := cmd.Flags().GetBool("check"); !check {
			return nil
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
		defer cancel()
		latest, err := selfupdate.NewChecker(selfupdate.WithTimeout(10*time.Second)).Latest(ctx, version)
		switch {
		case err != nil:
			return fmt.Errorf("check for a newer release: %w", err)
		case latest == "":
			fmt.Fprintln(out, "You are on the latest release.")
		default:
			fmt.Fprintf(out, "%s is available; run `ladder update`.\n", latest)
		}
		return nil
	},
}

func init() {
	versionCmd.Flags().Bool("check", false, "also look for a newer release")
}
