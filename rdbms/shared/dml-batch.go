package shared

import (
	om "github.com/cevaris/ordered_map"
	h "github.com/relloyd/snowmerge/helper"
	"github.com/relloyd/snowmerge/logger"
)

// DmlGeneratorTxtBatch generates Snowflake statements as plain text with positional bind variables.
type DmlGeneratorTxtBatch struct{}

type SqlStatementGeneratorConfig struct {
	Log             logger.Logger
	OutputSchema    string
	SchemaSeparator string
	OutputTable     string
	SourceTable     string         // table to read from, where the statement needs one e.g. the stage table used by MERGE
	TargetKeyCols   *om.OrderedMap // ordered map of: key = source column name; value = target table column name
	TargetOtherCols *om.OrderedMap // ordered map of: key = source column name; value = target table column name
}

type sqlCoreCfg struct {
	sqlStmt                string
	sqlStmtTemplate        string
	sqlValues              []interface{} // slice to hold data values for all rows in batch
	batchSize              int
	rowsInBatch            int
	previousNumRowsInBatch int
}

// setSeparator checks the output table is set and chooses the schema separator.
func (cfg *SqlStatementGeneratorConfig) setSeparator() {
	if cfg.OutputTable == "" {
		cfg.Log.Fatal("Error, missing output table name.")
	}
	cfg.SchemaSeparator = ""
	if cfg.OutputSchema != "" {
		cfg.SchemaSeparator = "."
	}
}

// targetTable returns the qualified name of the output table.
func (cfg *SqlStatementGeneratorConfig) targetTable() string {
	return cfg.OutputSchema + cfg.SchemaSeparator + cfg.OutputTable
}

// columnLists returns the quoted target column names: key columns, other columns and then all of them in order.
func (cfg *SqlStatementGeneratorConfig) columnLists() (keyCols []string, otherCols []string, allCols []string) {
	var idx int
	if cfg.TargetKeyCols == nil {
		cfg.TargetKeyCols = om.NewOrderedMap()
	}
	if cfg.TargetOtherCols == nil {
		cfg.TargetOtherCols = om.NewOrderedMap()
	}
	keyCols = make([]string, cfg.TargetKeyCols.Len())
	h.OrderedMapValuesToStringSlice(cfg.Log, cfg.TargetKeyCols, &keyCols, &idx)
	idx = 0
	otherCols = make([]string, cfg.TargetOtherCols.Len())
	h.OrderedMapValuesToStringSlice(cfg.Log, cfg.TargetOtherCols, &otherCols, &idx)
	keyCols = h.QuoteIdentifiers(keyCols)
	otherCols = h.QuoteIdentifiers(otherCols)
	allCols = make([]string, 0, len(keyCols)+len(otherCols))
	allCols = append(allCols, keyCols...)
	allCols = append(allCols, otherCols...)
	return
}
