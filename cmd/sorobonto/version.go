package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Dawdaborje/sorobonto-backend/apps/status"
)

var (
	// Set via ldflags at build time
	commit    = "none"
	buildDate = "unknown"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "sorobonto %s\n", status.Version)
			fmt.Fprintf(out, "  commit:  %s\n", commit)
			fmt.Fprintf(out, "  built:   %s\n", buildDate)
		},
	}
}
