package rdbms

import (
	"context"
	"fmt"
	"strings"

	"github.com/relloyd/snowmerge/logger"
	"github.com/relloyd/snowmerge/rdbms/shared"
)

// SqlQuery runs sqltext and sends the column names followed by every row to handler i.
func SqlQuery(ctx context.Context, log logger.Logger, db shared.Connector, sqltext string, i shared.SqlResultHandler) error {
	rows, err := db.QueryContext(ctx, sqltext)
	if err != nil {
		return fmt.Errorf("error during database query using SQL: '%v': %w", sqltext, err)
	}
	defer func() {
		_ = rows.Close()
	}()
	// Set up columns for Scan(...)
	cols, err := rows.Columns()
	if err != nil {
		return fmt.Errorf("error fetching columns using SQL: '%v': %w", sqltext, err)
	}
	log.Debug("fetched columns: ", cols)
	converters, err := getValueConverters(rows, len(cols))
	if err != nil {
		return err
	}
	// Scan the values dynamically.
	lenCols := len(cols)
	scanPtrs := make([]interface{}, lenCols)
	scanVals := make([]interface{}, lenCols)
	for idx := 0; idx < lenCols; idx++ { // for each column...
		scanPtrs[idx] = &scanVals[idx]
	}
	// Build and send the header.
	header := make([]interface{}, lenCols)
	for idx := range cols {
		header[idx] = cols[idx]
	}
	if err = i.HandleHeader(header); err != nil {
		return err
	}
	// Send the rows via callback interface.
	for rows.Next() {
		if err = ctx.Err(); err != nil { // quit if asked to, else continue...
			return err
		}
		if err = rows.Scan(scanPtrs...); err != nil {
			return fmt.Errorf("error scanning row: %w", err)
		}
		// Make a new row.
		row := make([]interface{}, lenCols)
		for idx := range scanVals { // for each value...
			if b, ok := scanVals[idx].([]byte); ok { // copy bytes since drivers may reuse the buffer.
				scanVals[idx] = append([]byte(nil), b...)
			}
			if converters[idx] != nil { // if the column type needs converting...
				if scanVals[idx], err = converters[idx](scanVals[idx]); err != nil {
					return fmt.Errorf("error converting column %v: %w", cols[idx], err)
				}
			}
			row[idx] = scanVals[idx]
		}
		if err = i.HandleRow(row); err != nil {
			return err
		}
	}
	if err = rows.Err(); err != nil {
		return fmt.Errorf("error reading rows using SQL: '%v': %w", sqltext, err)
	}
	return nil
}

// ExtractTable reads every row and column of table into memory.
// The table name is upper cased. Column names are returned as the database reports them.
func ExtractTable(ctx context.Context, log logger.Logger, db shared.Connector, table SchemaTable) (*shared.RowSet, error) {
	name := strings.ToUpper(table.String())
	r := &shared.RowSet{Table: name}
	if err := SqlQuery(ctx, log, db, fmt.Sprintf("SELECT * FROM %v", name), r); err != nil {
		return nil, err
	}
	return r, nil
}
