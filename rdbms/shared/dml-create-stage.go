package shared

import (
	"fmt"
	"strings"
)

// SqlCreateStage generates CREATE TEMPORARY TABLE for a staging table where every column is a STRING.
// Temporary tables are dropped by Snowflake when the session ends.
type SqlCreateStage struct {
	SqlStatementGeneratorConfig
}

func (*DmlGeneratorTxtBatch) NewCreateStageGenerator(cfg *SqlStatementGeneratorConfig) SqlStmtGenerator {
	cfg.setSeparator()
	cfg.Log.Debug("Creating NewCreateStageGenerator")
	return &SqlCreateStage{SqlStatementGeneratorConfig: *cfg}
}

func (o *SqlCreateStage) GetStatement() string {
	_, _, allCols := o.columnLists()
	defs := make([]string, len(allCols))
	for idx, c := range allCols {
		defs[idx] = fmt.Sprintf("%v STRING", c)
	}
	s := fmt.Sprintf("CREATE TEMPORARY TABLE %v (%v)", o.targetTable(), strings.Join(defs, ", "))
	o.Log.Debug("SQL CREATE TEMPORARY TABLE generated statement: ", s)
	return s
}
