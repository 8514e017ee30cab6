package shared

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// SqlInsertTxtBatch implements interface SqlStmtTxtBatcher
// and is able to generate INSERT statements with batches of rows supplied.
type SqlInsertTxtBatch struct {
	SqlStatementGeneratorConfig // mandatory to be populated.
	sqlCoreCfg
	ColList []string // list of quoted columns extracted from SqlStatementGeneratorConfig.
}

// NewInsertGenerator creates a new SqlStmtGenerator that implements interface SqlStmtTxtBatcher.
// Configure defaults in SqlStatementGeneratorConfig.
func (*DmlGeneratorTxtBatch) NewInsertGenerator(cfg *SqlStatementGeneratorConfig) SqlStmtGenerator {
	cfg.setSeparator()
	cfg.Log.Debug("Creating NewInsertGenerator")
	o := &SqlInsertTxtBatch{SqlStatementGeneratorConfig: *cfg}
	o.setupSqlStatement()
	return o
}

func (o *SqlInsertTxtBatch) setupSqlStatement() {
	_, _, o.ColList = o.columnLists()
	// Populate the SQL template.
	o.sqlStmtTemplate = `insert into <SCHEMA><SEPARATOR><TABLE> (<TGT-COLS>) values <VALUES>`
	o.sqlStmtTemplate = strings.Replace(o.sqlStmtTemplate, "<SCHEMA>", o.OutputSchema, 1)
	o.sqlStmtTemplate = strings.Replace(o.sqlStmtTemplate, "<SEPARATOR>", o.SchemaSeparator, 1)
	o.sqlStmtTemplate = strings.Replace(o.sqlStmtTemplate, "<TABLE>", o.OutputTable, 1)
	o.sqlStmtTemplate = strings.Replace(o.sqlStmtTemplate, "<TGT-COLS>", strings.Join(o.ColList, ","), 1)
	o.Log.Debug("setup INSERT generator with SQL (VALUES pending): ", o.sqlStmtTemplate)
}

func (o *SqlInsertTxtBatch) InitBatch(batchSize int) {
	o.Log.Debug("initBatch() for INSERT...")
	o.batchSize = batchSize
	o.rowsInBatch = 0
	// Allocate a new buffer to hold all values (args) to exec.
	o.sqlValues = make([]interface{}, 0, o.batchSize*len(o.ColList)) // many values per row in a batch.
	o.Log.Debug("batchSize = ", o.batchSize)
}

func (o *SqlInsertTxtBatch) AddValuesToBatch(values []interface{}) (batchIsFull bool, err error) {
	if o.rowsInBatch >= o.batchSize {
		err = errors.New("no more rows allowed in INSERT batch")
		batchIsFull = true
		return
	}
	if len(values) != len(o.ColList) {
		err = fmt.Errorf("the number of values supplied (%v) does not match the number of table columns (%v)", len(values), len(o.ColList))
		return
	}
	// Append values to buffer.
	o.sqlValues = append(o.sqlValues, values...)
	o.rowsInBatch++                           // keep track of how close we are to the batch limit.
	batchIsFull = o.rowsInBatch >= o.batchSize // caller should exec SQL when the batch is full.
	return
}

func (o *SqlInsertTxtBatch) GetValues() []interface{} {
	return o.sqlValues
}

// GetStatement returns the INSERT with one row of bind variables per row added to the batch.
// The statement is cached while the number of rows in the batch stays the same.
func (o *SqlInsertTxtBatch) GetStatement() string {
	if o.previousNumRowsInBatch != o.rowsInBatch || o.sqlStmt == "" { // if we need to generate SQL...
		allRows := strings.Builder{}
		valIdx := 1
		for rowIdx := 1; rowIdx <= o.rowsInBatch; rowIdx++ { // for each row in the batch...
			// Build the current row of bind variables.
			// ,:1,:2,:3 etc   <<< trim left comma later.
			row := strings.Builder{}
			for idy := 0; idy < len(o.ColList); idy++ {
				row.WriteString(fmt.Sprintf(",:%v", valIdx))
				valIdx++
			}
			// Save the row of bind variables: ',( :1,:2,:n )'  <<< ltrim later.
			allRows.WriteString(fmt.Sprintf(",( %v )", strings.TrimLeft(row.String(), ",")))
		}
		o.sqlStmt = strings.Replace(o.sqlStmtTemplate, "<VALUES>", strings.TrimLeft(allRows.String(), ","), 1)
		o.previousNumRowsInBatch = o.rowsInBatch
	} // else we have the same number of rows and can use cached SQL...
	o.Log.Debug("SQL batch INSERT generated statement: ", o.sqlStmt)
	return o.sqlStmt
}
