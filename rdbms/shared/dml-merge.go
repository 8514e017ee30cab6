package shared

import (
	"fmt"
	"strings"

	h "github.com/relloyd/snowmerge/helper"
)

const (
	tgtAlias = "TARGET"
	srcAlias = "SOURCE"
)

// SqlMerge generates a Snowflake MERGE that upserts all rows from SourceTable into the output table.
// Rows are matched on TargetKeyCols; TargetOtherCols are updated on a match.
type SqlMerge struct {
	SqlStatementGeneratorConfig
}

// NewMergeGenerator
// Configure defaults in SqlStatementGeneratorConfig.
func (o *DmlGeneratorTxtBatch) NewMergeGenerator(cfg *SqlStatementGeneratorConfig) SqlStmtGenerator {
	cfg.setSeparator()
	cfg.Log.Debug("Creating new SqlMerge")
	return &SqlMerge{SqlStatementGeneratorConfig: *cfg}
}

func (o *SqlMerge) getSqlTemplate(withUpdate bool) string {
	s := `MERGE INTO <SCHEMA><SEPARATOR><TABLE> AS <TGT-ALIAS> USING <SOURCE> AS <SRC-ALIAS> ON <KEY-COLS-EQUALS>`
	if withUpdate {
		s += ` WHEN MATCHED THEN UPDATE SET <OTHER-COLS-EQUALS>`
	}
	return s + ` WHEN NOT MATCHED THEN INSERT (<ALL-COLS>) VALUES (<SRC-COLS>)`
}

func (o *SqlMerge) GetStatement() string {
	keyCols, otherCols, allCols := o.columnLists()
	// A table made only of key columns has nothing to update.
	s := o.getSqlTemplate(len(otherCols) > 0)
	s = strings.Replace(s, "<SCHEMA>", o.OutputSchema, 1)
	s = strings.Replace(s, "<SEPARATOR>", o.SchemaSeparator, 1)
	s = strings.Replace(s, "<TABLE>", o.OutputTable, 1)
	s = strings.Replace(s, "<SOURCE>", o.SourceTable, 1)
	s = strings.Replace(s, "<TGT-ALIAS>", tgtAlias, 1)
	s = strings.Replace(s, "<SRC-ALIAS>", srcAlias, 1)
	s = strings.Replace(s, "<KEY-COLS-EQUALS>", h.GenerateStringOfColsEqualsCols(keyCols, tgtAlias, srcAlias, " AND "), 1)
	s = strings.Replace(s, "<OTHER-COLS-EQUALS>", h.GenerateStringOfColsEqualsCols(otherCols, tgtAlias, srcAlias, ", "), 1)
	s = strings.Replace(s, "<ALL-COLS>", strings.Join(allCols, ","), 1)
	s = strings.Replace(s, "<SRC-COLS>", strings.Join(h.PrefixEach(allCols, srcAlias), ","), 1)
	o.Log.Debug(fmt.Sprintf("SQL Merge Generator returning SQL: %v", s))
	return s
}
