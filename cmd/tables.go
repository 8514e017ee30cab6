package cmd

import (
	"github.com/relloyd/snowmerge/actions"
	"github.com/relloyd/snowmerge/constants"
	"github.com/spf13/cobra"
)

var tablesOutput string
var tablesTables tableFlags

var tablesCmd = &cobra.Command{
	Use:   "tables",
	Short: "Print the ordered list of tables that migrate would copy",
	Long: `Print the ordered list of tables that migrate would copy, without connecting to any database.
The output can be saved and edited for use with --tables-file.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTables(cmd)
	},
}

func init() {
	switches.addFlag(tablesCmd, &tablesTables.TablesCsv, "tables", constants.DefaultTables, false, "")
	switches.addFlag(tablesCmd, &tablesTables.TablesFile, "tables-file", "", false, "")
	switches.addFlag(tablesCmd, &tablesOutput, "output", "yaml", false, "")
	rootCmd.AddCommand(tablesCmd)
}

func runTables(cmd *cobra.Command) error {
	t, err := tablesTables.resolve()
	if err != nil {
		return err
	}
	return actions.OutputTables(cmd.OutOrStdout(), tablesOutput, t)
}
