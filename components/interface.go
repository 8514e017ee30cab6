package components

import (
	"context"

	"github.com/relloyd/snowmerge/logger"
	"github.com/relloyd/snowmerge/rdbms"
	"github.com/relloyd/snowmerge/rdbms/shared"
)

// StageLoader fills an existing staging table with every row in rows and returns the number of rows
// counted in the staging table afterwards.
// All values are loaded as text; NULL values stay NULL.
type StageLoader interface {
	LoadStage(ctx context.Context, log logger.Logger, db shared.Connector, stage rdbms.SchemaTable, rows *shared.RowSet) (int64, error)
}

// StageLoaderFunc is an adapter to allow the use of ordinary functions as StageLoader.
type StageLoaderFunc func(ctx context.Context, log logger.Logger, db shared.Connector, stage rdbms.SchemaTable, rows *shared.RowSet) (int64, error)

func (f StageLoaderFunc) LoadStage(ctx context.Context, log logger.Logger, db shared.Connector, stage rdbms.SchemaTable, rows *shared.RowSet) (int64, error) {
	return f(ctx, log, db, stage, rows)
}
