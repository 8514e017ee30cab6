package components

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	om "github.com/cevaris/ordered_map"
	h "github.com/relloyd/snowmerge/helper"
	"github.com/relloyd/snowmerge/logger"
	"github.com/relloyd/snowmerge/rdbms"
	"github.com/relloyd/snowmerge/rdbms/shared"
)

// StageColumns returns an ordered map of the row set columns suitable for SqlStatementGeneratorConfig.
func StageColumns(rows *shared.RowSet) *om.OrderedMap {
	return h.StringSliceToOrderedMap(rows.Columns)
}

// CreateStage creates the temporary staging table for rows, with one STRING column per row set column.
func CreateStage(ctx context.Context, log logger.Logger, db shared.Connector, stage rdbms.SchemaTable, rows *shared.RowSet) error {
	gen := db.GetDmlGenerator().NewCreateStageGenerator(&shared.SqlStatementGeneratorConfig{
		Log:             log,
		OutputSchema:    stage.GetSchema(),
		OutputTable:     stage.GetTable(),
		TargetOtherCols: StageColumns(rows),
	})
	stmt := gen.GetStatement()
	if _, err := db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("error creating staging table %v: %w", stage.String(), err)
	}
	return nil
}

// CountStage returns the number of rows in the staging table.
func CountStage(ctx context.Context, db shared.Connector, stage rdbms.SchemaTable) (int64, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf("select count(*) from %v", stage.String()))
	if err != nil {
		return 0, fmt.Errorf("error counting rows in staging table %v: %w", stage.String(), err)
	}
	defer func() {
		_ = rows.Close()
	}()
	if !rows.Next() {
		if err = rows.Err(); err != nil {
			return 0, err
		}
		return 0, fmt.Errorf("no row returned counting staging table %v", stage.String())
	}
	var v interface{}
	if err = rows.Scan(&v); err != nil {
		return 0, err
	}
	// Drivers may return the count as a number or as text.
	n, err := strconv.ParseInt(strings.TrimSpace(h.GetStringFromInterface(v, false)), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("unexpected row count %v from staging table %v: %w", v, stage.String(), err)
	}
	return n, nil
}

// GetSqlSnowflakeCopyInto generates SQL to copy CSV data from the Snowflake stage location into the staging table.
// The files are expected to be gzip compressed, have no header and use \N for NULL.
// Backslashes in unenclosed fields are loaded as they are, since encoding/csv never escapes them.
func GetSqlSnowflakeCopyInto(stage rdbms.SchemaTable, cols []string, location string, purge bool) string {
	purgeSql := ""
	if purge { // if Snowflake should remove the files after loading...
		purgeSql = " PURGE = TRUE"
	}
	return fmt.Sprintf(`COPY INTO %v (%v) FROM %v FILE_FORMAT = (TYPE = CSV FIELD_OPTIONALLY_ENCLOSED_BY = '"' ESCAPE_UNENCLOSED_FIELD = NONE EMPTY_FIELD_AS_NULL = FALSE NULL_IF = ('\\N') COMPRESSION = GZIP)%v`,
		stage.String(),
		strings.Join(h.QuoteIdentifiers(cols), ","),
		location,
		purgeSql)
}
