package components

import (
	"context"
	"fmt"

	"github.com/relloyd/snowmerge/constants"
	h "github.com/relloyd/snowmerge/helper"
	"github.com/relloyd/snowmerge/logger"
	"github.com/relloyd/snowmerge/rdbms"
	"github.com/relloyd/snowmerge/rdbms/shared"
)

// InsertLoader loads the staging table using multi-row INSERT statements with bind variables.
type InsertLoader struct {
	BatchRows int // rows per INSERT; defaults to constants.DefaultBatchRows
}

func (l *InsertLoader) LoadStage(ctx context.Context, log logger.Logger, db shared.Connector, stage rdbms.SchemaTable, rows *shared.RowSet) (int64, error) {
	batchRows := l.BatchRows
	if batchRows <= 0 {
		batchRows = constants.DefaultBatchRows
	}
	gen := db.GetDmlGenerator().NewInsertGenerator(&shared.SqlStatementGeneratorConfig{
		Log:             log,
		OutputSchema:    stage.GetSchema(),
		OutputTable:     stage.GetTable(),
		TargetOtherCols: StageColumns(rows),
	}).(shared.SqlStmtTxtBatcher)
	bar := newProgressBar(rows.Len(), fmt.Sprintf("staging %v", stage.String()))
	defer func() {
		_ = bar.Finish()
	}()
	var total int64
	flush := func() error {
		res, err := db.ExecContext(ctx, gen.GetStatement(), gen.GetValues()...)
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err == nil {
			total += n
		}
		return nil
	}
	gen.InitBatch(batchRows)
	pending := 0
	for _, row := range rows.Rows { // for each row...
		values := make([]interface{}, len(row))
		for idx, v := range row {
			values[idx] = h.StageText(v)
		}
		full, err := gen.AddValuesToBatch(values)
		if err != nil {
			return total, err
		}
		pending++
		if full { // if the batch is full...
			if err = flush(); err != nil {
				return total, err
			}
			_ = bar.Add(pending)
			pending = 0
			gen.InitBatch(batchRows)
		}
	}
	if pending > 0 { // if there is a partial batch...
		if err := flush(); err != nil {
			return total, err
		}
		_ = bar.Add(pending)
	}
	log.Debug("inserted ", total, " rows into ", stage.String())
	return total, nil
}
