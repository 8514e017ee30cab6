package actions

import (
	"context"
	"fmt"
	"strings"
	"time"

	om "github.com/cevaris/ordered_map"
	"github.com/relloyd/snowmerge/components"
	"github.com/relloyd/snowmerge/constants"
	"github.com/relloyd/snowmerge/logger"
	"github.com/relloyd/snowmerge/rdbms"
	"github.com/relloyd/snowmerge/rdbms/shared"
)

const maxDuplicateKeysReported = 10

// Migrator copies a single table and reports the outcome.
type Migrator interface {
	MigrateTable(ctx context.Context, t TableDescriptor) TableResult
}

// TableMigrator copies a table from the source database into Snowflake:
// 1) extract all rows from the source;
// 2) load them into a temporary staging table with text columns;
// 3) MERGE the staging table into the target table on the primary key.
// Each call opens and closes its own connections.
type TableMigrator struct {
	Log       logger.Logger
	Source    ConnectionOpener
	Warehouse ConnectionOpener
	Loader    components.StageLoader
}

func (m *TableMigrator) MigrateTable(ctx context.Context, t TableDescriptor) (result TableResult) {
	started := time.Now()
	table := rdbms.SchemaTable{SchemaTable: t.Table}.ToUpper()
	pk := strings.ToUpper(t.PrimaryKey)
	result = TableResult{Table: table.String(), PrimaryKey: pk}
	defer func() {
		result.Seconds = time.Since(started).Seconds()
	}()
	fail := func(kind FailureKind, err error) TableResult {
		if ctx.Err() != nil { // if we were stopped part way through...
			kind = Cancelled
		}
		result.Status = StatusFailed
		result.Kind = kind
		result.Err = &TableError{Table: table.String(), Kind: kind, Err: err}
		result.Error = err.Error()
		return result
	}

	// Extract.
	m.Log.Info("Connecting to source database for table ", table.String())
	src, err := m.Source.Open(ctx, m.Log)
	if err != nil {
		m.Log.Error("Error connecting to source database for table ", table.String(), ": ", err)
		return fail(ConnectionFailure, err)
	}
	m.Log.Info("Fetching data from source table ", table.String())
	rows, err := rdbms.ExtractTable(ctx, m.Log, src, table)
	src.Close() // release the source before the warehouse work starts.
	if err != nil {
		m.Log.Error("Error fetching data from source for table ", table.String(), ": ", err)
		return fail(ExtractFailure, err)
	}
	rows.UpperCaseColumns()
	result.RowsExtracted = rows.Len()
	m.Log.Info(fmt.Sprintf("Fetched %v rows from %v", rows.Len(), table.String()))
	if rows.IsEmpty() {
		m.Log.Warn("No data found for table ", table.String(), ", skipping migration.")
		result.Status = StatusSkipped
		result.Kind = EmptyResult
		return result
	}

	// Check the columns and key before touching the warehouse.
	if c := duplicateColumn(rows.Columns); c != "" {
		err = fmt.Errorf("%w: %v", ErrDuplicateColumn, c)
		m.Log.Error("Failed to create staging table for ", table.String(), ": ", err)
		return fail(StageLoadFailure, err)
	}
	keyCols, otherCols, err := splitKeyAndOtherColumns(pk, rows)
	if err != nil {
		m.Log.Error("Error merging data into Snowflake for table ", table.String(), ": ", err)
		return fail(MergeFailure, err)
	}

	// Stage.
	m.Log.Info("Connecting to Snowflake for table ", table.String())
	wh, err := m.Warehouse.Open(ctx, m.Log)
	if err != nil {
		m.Log.Error("Error connecting to Snowflake for table ", table.String(), ": ", err)
		return fail(ConnectionFailure, err)
	}
	defer wh.Close()
	stage := rdbms.SchemaTable{SchemaTable: table.AppendSuffix(constants.StageTableSuffix)}
	m.Log.Info("Creating temporary staging table ", stage.String())
	if err = components.CreateStage(ctx, m.Log, wh, stage, rows); err != nil {
		m.Log.Error("Failed to create staging table ", stage.String(), ": ", err)
		return fail(StageLoadFailure, err)
	}
	m.Log.Info("Inserting data into staging table ", stage.String())
	staged, err := m.Loader.LoadStage(ctx, m.Log, wh, stage, rows)
	result.RowsStaged = staged
	if err != nil {
		m.Log.Error("Failed to insert into staging table ", stage.String(), ": ", err)
		return fail(StageLoadFailure, err)
	}
	if staged != int64(rows.Len()) {
		err = fmt.Errorf("%w: staged %v of %v rows", ErrStageRowCountMismatch, staged, rows.Len())
		m.Log.Error("Failed to insert into staging table ", stage.String(), ": ", err)
		return fail(StageLoadFailure, err)
	}
	m.Log.Info(fmt.Sprintf("Inserted %v rows into staging table %v", staged, stage.String()))

	// Merge.
	m.Log.Info("Merging data into target table ", table.String())
	gen := wh.GetDmlGenerator().NewMergeGenerator(&shared.SqlStatementGeneratorConfig{
		Log:             m.Log,
		OutputSchema:    table.GetSchema(),
		OutputTable:     table.GetTable(),
		SourceTable:     stage.String(),
		TargetKeyCols:   keyCols,
		TargetOtherCols: otherCols,
	})
	res, err := wh.ExecContext(ctx, gen.GetStatement())
	if err != nil {
		m.Log.Error("Error merging data into Snowflake for table ", table.String(), ": ", err)
		return fail(MergeFailure, err)
	}
	if n, err := res.RowsAffected(); err == nil {
		result.RowsMerged = n
	}
	m.Log.Info("Merge completed for table ", table.String())
	result.Status = StatusMerged
	return result
}

// splitKeyAndOtherColumns returns ordered maps of the key column and all other columns in rows.
// The key must exist in rows and its values must be unique, since MERGE cannot apply more
// than one source row to a target row.
func splitKeyAndOtherColumns(pk string, rows *shared.RowSet) (keys *om.OrderedMap, others *om.OrderedMap, err error) {
	pkIdx := rows.ColumnIndex(pk)
	if pkIdx < 0 {
		return nil, nil, fmt.Errorf("%w: %v not in %v", ErrPrimaryKeyNotFound, pk, rows.Columns)
	}
	if dupes := rows.DuplicateKeys(pkIdx); len(dupes) > 0 {
		if len(dupes) > maxDuplicateKeysReported {
			dupes = append(dupes[:maxDuplicateKeysReported], "...")
		}
		return nil, nil, fmt.Errorf("%w: column %v has repeated values %v", ErrDuplicatePrimaryKey, pk, strings.Join(dupes, ", "))
	}
	keys = om.NewOrderedMap()
	keys.Set(pk, pk)
	others = om.NewOrderedMap()
	for _, c := range rows.Columns {
		if c != pk {
			others.Set(c, c)
		}
	}
	return keys, others, nil
}

// duplicateColumn returns the first column name that appears more than once, or the empty string.
func duplicateColumn(cols []string) string {
	seen := make(map[string]struct{}, len(cols))
	for _, c := range cols {
		if _, ok := seen[c]; ok {
			return c
		}
		seen[c] = struct{}{}
	}
	return ""
}
