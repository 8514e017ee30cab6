package components

import (
	"context"
	"fmt"

	"github.com/relloyd/snowmerge/constants"
	"github.com/relloyd/snowmerge/file"
	h "github.com/relloyd/snowmerge/helper"
	"github.com/relloyd/snowmerge/logger"
	"github.com/relloyd/snowmerge/rdbms/shared"
)

// CsvConfig controls how a row set is split into gzip CSV files.
type CsvConfig struct {
	Directory    string // empty string to use OS temp space
	MaxFileRows  int
	MaxFileBytes int
}

// writeRowSetToCsv writes rows to gzip CSV files without a header row.
// NULL values are written as \N so they can be told apart from the empty string.
// The caller should Remove() the returned files once they are loaded.
func writeRowSetToCsv(ctx context.Context, log logger.Logger, cfg CsvConfig, prefix string, rows *shared.RowSet) (*file.CSVFileOutput, error) {
	out, err := file.NewCSVFileOutput(log, cfg.Directory, prefix, "csv", cfg.MaxFileRows, cfg.MaxFileBytes, true)
	if err != nil {
		return nil, err
	}
	bar := newProgressBar(rows.Len(), fmt.Sprintf("writing %v", prefix))
	record := make([]string, len(rows.Columns))
	for _, row := range rows.Rows { // for each row...
		if err = ctx.Err(); err != nil {
			break
		}
		for idx, v := range row {
			if v == nil {
				record[idx] = constants.CsvNullMarker
			} else {
				record[idx] = h.GetStringFromInterface(v, false)
			}
		}
		if _, err = out.WriteToCSV(record); err != nil {
			break
		}
		_ = bar.Add(1)
	}
	_ = bar.Finish()
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = out.Remove()
		return nil, err
	}
	log.Debug("wrote ", out.TotalRows(), " rows to ", len(out.ListOfOutputFiles), " CSV file(s) for ", prefix)
	return out, nil
}
