package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Dawdaborje/sorobonto-backend/bootstrap"
	"github.com/Dawdaborje/sorobonto-backend/registry"
)

func newModulesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "modules",
		Short: "Show how every configured module resolves",
		Long: `Resolve the configured modules without composing or serving the schema.

Every identifier is listed in configuration order with its status (loaded,
absent or failed), its query and mutation fields, or the load error.`,
		RunE: runModules,
	}
}

func runModules(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	res := bootstrap.Resolve(cfg, registry.Default)
	defer res.Close()

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "MODULE\tSTATUS\tQUERY\tMUTATION\tERROR")
	fmt.Fprintln(w, "------\t------\t-----\t--------\t-----")
	for _, o := range res.Outcomes() {
		var query, mutation, cause string
		if o.Contribution != nil {
			q, m := o.Contribution.Capabilities()
			query = strings.Join(q.FieldNames(), ",")
			mutation = strings.Join(m.FieldNames(), ",")
		}
		if o.Err != nil {
			cause = o.Err.Error()
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", o.Module, o.Status, dash(query), dash(mutation), cause)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	s := res.Summary()
	fmt.Fprintf(cmd.OutOrStdout(), "\n%d loaded, %d absent, %d failed\n", s.Loaded, s.Absent, s.Failed)
	return nil
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
