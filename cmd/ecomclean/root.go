// cmd/ecomclean/root.go
package main

import (
	"github.com/spf13/cobra"
)

type rootFlags struct {
	json           bool
	audit          bool
	export         bool
	snowflakeTable string
	metricsFile    string
	envFile        string
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:   "ecomclean",
		Short: "Clean e-commerce transaction files and summarise them",
		Long: `ecomclean turns a raw transactions file into an analysis-ready table.

Rows with missing keys, duplicates and invalid prices, quantities or
discounts are removed; missing quantities are imputed with the median.
Every change is counted in a cleaning report and can be audited to
PostgreSQL. The cleaned set can be exported to PostgreSQL as well.

Configuration is read from the environment and from a .env file.`,
		SilenceUsage: true,
	}

	pf := root.PersistentFlags()
	pf.BoolVar(&flags.json, "json", false, "Print machine-readable JSON")
	pf.BoolVar(&flags.audit, "audit", false, "Record cleaning operations in PostgreSQL")
	pf.BoolVar(&flags.export, "export", false, "Export the cleaned records to PostgreSQL")
	pf.StringVar(&flags.snowflakeTable, "snowflake-table", "", "Read input from a Snowflake table instead of a file")
	pf.StringVar(&flags.metricsFile, "metrics-file", "", "Write run metrics in Prometheus text format to this path")
	pf.StringVar(&flags.envFile, "env-file", ".env", "Environment file to load")

	root.AddCommand(newCleanCmd(flags), newInsightsCmd(flags))
	return root
}

// inputArgs accepts a file argument unless the input comes from Snowflake
func inputArgs(flags *rootFlags) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if flags.snowflakeTable != "" {
			return cobra.NoArgs(cmd, args)
		}
		return cobra.ExactArgs(1)(cmd, args)
	}
}
