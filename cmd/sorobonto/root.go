package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Dawdaborje/sorobonto-backend/config"
)

var (
	// Global flags
	cfgFile string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sorobonto",
		Short: "GraphQL server assembled from pluggable schema modules",
		Long: `Sorobonto serves one GraphQL schema composed from the modules listed in
its configuration.

Each configured module contributes query and mutation fields. Modules that
are not installed are skipped; modules that fail to load are logged and
skipped. Two modules defining the same field stop startup.

  sorobonto serve     # Start the GraphQL server
  sorobonto modules   # Show how every configured module resolves
  sorobonto schema    # Print the introspection result of the schema`,
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "sorobonto.yaml", "config file path")

	cmd.AddCommand(newServeCmd(), newModulesCmd(), newSchemaCmd(), newVersionCmd())
	return cmd
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads --config when the file exists and falls back to the
// environment otherwise.
func loadConfig() (*config.Config, error) {
	path := cfgFile
	if _, err := os.Stat(path); err != nil {
		path = ""
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("error loading config: %w", err)
	}
	return cfg, nil
}
