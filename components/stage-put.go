package components

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/relloyd/snowmerge/constants"
	"github.com/relloyd/snowmerge/logger"
	"github.com/relloyd/snowmerge/rdbms"
	"github.com/relloyd/snowmerge/rdbms/shared"
)

// PutLoader loads the staging table by writing gzip CSV files locally, uploading them to a
// temporary Snowflake internal stage using PUT and then running COPY INTO.
type PutLoader struct {
	Csv CsvConfig
}

func (l *PutLoader) LoadStage(ctx context.Context, log logger.Logger, db shared.Connector, stage rdbms.SchemaTable, rows *shared.RowSet) (int64, error) {
	files, err := writeRowSetToCsv(ctx, log, l.Csv, stage.GetTable(), rows)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err := files.Remove(); err != nil {
			log.Warn("unable to remove CSV files for ", stage.String(), ": ", err)
		}
	}()
	internalStage := stage.AppendSuffix(constants.StageFilesSuffix) // e.g. CUSTOMERS_STAGE_STAGE_FILES
	for _, stmt := range GetSqlSlicePutCopyInto(stage, internalStage, rows.Columns, files.ListOfOutputFiles) {
		log.Debug("executing: ", stmt)
		if _, err = db.ExecContext(ctx, stmt); err != nil {
			return 0, fmt.Errorf("error loading staging table %v: %w", stage.String(), err)
		}
	}
	return CountStage(ctx, db, stage)
}

// GetSqlSlicePutCopyInto generates SQL to create a temporary internal stage, PUT each local file into it
// and COPY the files into the staging table.
func GetSqlSlicePutCopyInto(stage rdbms.SchemaTable, internalStage string, cols []string, fileNames []string) []string {
	retval := make([]string, 0, len(fileNames)+2)
	retval = append(retval, fmt.Sprintf("CREATE TEMPORARY STAGE %v", internalStage))
	for _, f := range fileNames {
		abs, err := filepath.Abs(f)
		if err != nil {
			abs = f
		}
		retval = append(retval, fmt.Sprintf("PUT 'file://%v' @%v SOURCE_COMPRESSION = GZIP AUTO_COMPRESS = FALSE", filepath.ToSlash(abs), internalStage))
	}
	retval = append(retval, GetSqlSnowflakeCopyInto(stage, cols, "@"+internalStage, true))
	return retval
}
