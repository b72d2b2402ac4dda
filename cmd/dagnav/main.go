// Command dagnav inspects and edits faceted DAGMC-style models: volumes,
// surfaces, groups and their material and boundary metadata.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:   "dagnav",
		Short: "Navigate and edit DAGMC model metadata",
		Long: `dagnav reads a faceted model (native .db file or a single-surface
.stl), reports its volumes, surfaces and groups, and edits material and
boundary assignments.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.flushMetrics()
		},
	}

	cmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "Config file path (YAML)")
	cmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&a.metricsFile, "metrics-file", "", "Write counters in Prometheus text format to this file")

	cmd.AddCommand(
		infoCmd(a),
		materialsCmd(a),
		setMaterialCmd(a),
		exportVTKCmd(a),
		scriptCmd(a),
		demoCmd(a),
	)
	return cmd
}
