package cmd

import (
	"os"
	"strconv"

	"github.com/relloyd/snowmerge/actions"
	"github.com/relloyd/snowmerge/config"
	"github.com/relloyd/snowmerge/constants"
	"github.com/spf13/cobra"
)

// tableFlags are shared by commands that need the table list.
type tableFlags struct {
	TablesCsv  string
	TablesFile string
}

// resolve returns the ordered list of tables from the file if one is set, else from the CSV.
func (f *tableFlags) resolve() ([]actions.TableDescriptor, error) {
	if f.TablesFile != "" {
		return actions.LoadTablesFile(f.TablesFile)
	}
	return actions.ParseTables(f.TablesCsv)
}

var migrateCfg actions.MigrateConfig
var migrateTables tableFlags
var migrateEnvFile string

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Copy tables from SQL Server and merge them into Snowflake",
	Long: `Copy tables from SQL Server and merge them into Snowflake.

For each table in order, all rows are read using SELECT * and column names are upper cased.
Empty tables are skipped. Otherwise a temporary table <TABLE>_STAGE is created with STRING
columns, the rows are loaded into it and then merged into <TABLE> on the primary key.
The target tables must already exist in Snowflake.

Connection details are read from the environment:
  SQL_SERVER, SQL_DATABASE, SQL_USERNAME, SQL_PASSWORD and optionally SQL_DRIVER (use ODBC)
  SNOWFLAKE_USER, SNOWFLAKE_PASSWORD, SNOWFLAKE_ACCOUNT, SNOWFLAKE_DATABASE, SNOWFLAKE_SCHEMA,
  SNOWFLAKE_WAREHOUSE and SNOWFLAKE_ROLE
or as DSNs in ` + sourceDsnEnvVar + ` and ` + targetDsnEnvVar + `.`,
	Args:    cobra.NoArgs,
	Example: `  snowmerge migrate --tables CUSTOMERS:CUSTOMERID,INVOICES:INVOICEID --output yaml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMigrate()
	},
}

func init() {
	switches.addFlag(migrateCmd, &migrateTables.TablesCsv, "tables", constants.DefaultTables, false, "")
	switches.addFlag(migrateCmd, &migrateTables.TablesFile, "tables-file", "", false, "")
	switches.addFlag(migrateCmd, &migrateEnvFile, "env-file", config.DefaultEnvFile, false, "")
	switches.addFlag(migrateCmd, &migrateCfg.Loader, "loader", constants.LoaderInsert, false, "")
	switches.addFlag(migrateCmd, &migrateCfg.BatchRows, "batch-rows", strconv.Itoa(constants.DefaultBatchRows), false, "")
	switches.addFlag(migrateCmd, &migrateCfg.StageName, "stage", "", false, "")
	switches.addFlag(migrateCmd, &migrateCfg.BucketName, "s3-bucket", "", false, "")
	switches.addFlag(migrateCmd, &migrateCfg.BucketPrefix, "s3-prefix", "", false, "")
	switches.addFlag(migrateCmd, &migrateCfg.BucketRegion, "s3-region", os.Getenv("AWS_REGION"), false, "")
	switches.addFlag(migrateCmd, &migrateCfg.CsvDirectory, "csv-dir", "", false, "")
	switches.addFlag(migrateCmd, &migrateCfg.CsvMaxFileRows, "csv-rows", "0", false, "")
	switches.addFlag(migrateCmd, &migrateCfg.CsvMaxFileBytes, "csv-bytes", "104857600", false, "")
	switches.addFlag(migrateCmd, &migrateCfg.RepeatInterval, "repeat", "0", false, "")
	switches.addFlag(migrateCmd, &migrateCfg.Port, "port", "0", false, "")
	switches.addFlag(migrateCmd, &migrateCfg.Output, "output", "", false, "")
	switches.addFlag(migrateCmd, &migrateCfg.LogLevel, "log-level", "info", false, "")
	switches.addFlag(migrateCmd, &migrateCfg.LogDir, "log-dir", defaultLogDir(), false, "")
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate() error {
	var err error
	migrateCfg.StackDumpOnPanic = stackDumpOnPanic
	if err = config.LoadEnvFile(migrateEnvFile); err != nil {
		return err
	}
	if migrateCfg.Tables, err = migrateTables.resolve(); err != nil {
		return err
	}
	if migrateCfg.Source, err = config.SourceConnectionFromEnv(); err != nil {
		return err
	}
	if migrateCfg.Warehouse, err = config.WarehouseConnectionFromEnv(); err != nil {
		return err
	}
	return actions.RunMigrate(&migrateCfg)
}
