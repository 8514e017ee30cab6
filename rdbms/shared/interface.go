package shared

import (
	"context"

	"github.com/relloyd/snowmerge/logger"
)

// Connector abstracts all access to Go SQL functionality.
type Connector interface {
	// Go SQL entry points:
	ExecContext(ctx context.Context, query string, args ...interface{}) (Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (Rows, error)
	Close()
	// snowmerge functionality:
	GetType() string
	GetDmlGenerator() DmlGenerator
}

// Result matches database/sql.Result.
type Result interface {
	LastInsertId() (int64, error)
	RowsAffected() (int64, error)
}

// Rows is the subset of *sql.Rows used to read query results.
type Rows interface {
	Columns() ([]string, error)
	Next() bool
	Scan(dest ...interface{}) error
	Err() error
	Close() error
}

// ColumnTypeNamer is implemented by Rows that can report the database type name of each column,
// e.g. UNIQUEIDENTIFIER or VARBINARY. Names are upper case and empty where the driver does not say.
type ColumnTypeNamer interface {
	DatabaseTypeNames() ([]string, error)
}

// DmlGenerator builds the warehouse statements used to stage and merge a table.
type DmlGenerator interface {
	NewCreateStageGenerator(cfg *SqlStatementGeneratorConfig) SqlStmtGenerator
	NewInsertGenerator(cfg *SqlStatementGeneratorConfig) SqlStmtGenerator
	NewMergeGenerator(cfg *SqlStatementGeneratorConfig) SqlStmtGenerator
}

// SqlStmtGenerator is used as part of SqlStmtTxtBatcher.
// This is implemented by:
//   Connector.GetDmlGenerator() DmlGenerator -> <multiple functions>.SqlStmtGenerator.
type SqlStmtGenerator interface {
	GetStatement() string
}

// SqlStmtTxtBatcher is used to combine many rows into one INSERT statement, aiming
// to improve performance and reduce network round trips.
type SqlStmtTxtBatcher interface {
	SqlStmtGenerator
	InitBatch(batchSize int)                             // reset variables and preallocate slices for the given batch size.
	AddValuesToBatch(values []interface{}) (bool, error) // add values to SQL statement.
	GetValues() []interface{}                            // get all values added to the batch so they can be supplied as args to exec the SQL returned by getStatement().
}

type SqlResultHandler interface {
	HandleHeader(i []interface{}) error
	HandleRow(i []interface{}) error
}

// ODBC plugin interfaces.

type OdbcConnector interface {
	NewOdbcConnection(log logger.Logger, d *DsnConnectionDetails) (Connector, error)
}
