package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Dawdaborje/sorobonto-backend/bootstrap"
	"github.com/Dawdaborje/sorobonto-backend/introspection"
)

var schemaRootsOnly bool

func newSchemaCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Print the introspection result of the composed schema",
		Long: `Compose the schema from the configured modules and print the result of the
standard introspection query as JSON. With --roots only the fields of the
query and mutation roots are printed.

Composition conflicts make the command fail.`,
		RunE: runSchema,
	}
	cmd.Flags().BoolVar(&schemaRootsOnly, "roots", false, "print only the root fields")
	return cmd
}

func runSchema(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cfg.Metrics.Enabled = false

	app, err := bootstrap.New(cfg, bootstrap.Options{Output: cmd.ErrOrStderr()})
	if err != nil {
		return fmt.Errorf("error initializing: %w", err)
	}
	defer app.Close()

	data, err := introspection.ComputeSchemaJSON(app.Schema)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if !schemaRootsOnly {
		_, err = fmt.Fprintln(out, string(data))
		return err
	}

	doc, err := introspection.Parse(data)
	if err != nil {
		return err
	}
	query, mutation := doc.RootFields()
	fmt.Fprintf(out, "Query: %s\n", strings.Join(query, ", "))
	fmt.Fprintf(out, "Mutation: %s\n", strings.Join(mutation, ", "))
	return nil
}
