package rdbms

import (
	"encoding/hex"
	"fmt"
	"strings"

	mssql "github.com/denisenkom/go-mssqldb"
	"github.com/relloyd/snowmerge/rdbms/shared"
)

// valueConverter turns a scanned value into the value kept in the row set.
type valueConverter func(v interface{}) (interface{}, error)

// uniqueIdentifierText converts the 16 raw bytes that go-mssqldb returns for a UNIQUEIDENTIFIER
// into the text SQL Server shows, e.g. 6F9619FF-8B86-D011-B42D-00C04FC964FF.
// Values that are already text (ODBC) and NULL pass through.
func uniqueIdentifierText(v interface{}) (interface{}, error) {
	b, ok := v.([]byte)
	if !ok {
		return v, nil
	}
	var u mssql.UniqueIdentifier
	if err := u.Scan(b); err != nil {
		return nil, err
	}
	return u.String(), nil
}

// binaryText hex encodes binary values, which Snowflake reads with its default BINARY_INPUT_FORMAT.
func binaryText(v interface{}) (interface{}, error) {
	b, ok := v.([]byte)
	if !ok {
		return v, nil
	}
	return strings.ToUpper(hex.EncodeToString(b)), nil
}

// getValueConverters returns one converter per column, or nil for columns that need none.
// Rows that cannot report their column types get no converters.
func getValueConverters(rows shared.Rows, lenCols int) ([]valueConverter, error) {
	retval := make([]valueConverter, lenCols)
	n, ok := rows.(shared.ColumnTypeNamer)
	if !ok {
		return retval, nil
	}
	types, err := n.DatabaseTypeNames()
	if err != nil {
		return nil, fmt.Errorf("error fetching column types: %w", err)
	}
	for idx := 0; idx < lenCols && idx < len(types); idx++ { // for each column type...
		switch types[idx] {
		case "UNIQUEIDENTIFIER":
			retval[idx] = uniqueIdentifierText
		case "BINARY", "VARBINARY", "IMAGE":
			retval[idx] = binaryText
		}
	}
	return retval, nil
}
