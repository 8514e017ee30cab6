package shared

import (
	"fmt"
	"sort"
	"strings"

	h "github.com/relloyd/snowmerge/helper"
)

// RowSet holds the full contents of a table read into memory.
// It implements SqlResultHandler so it can be filled by rdbms.SqlQuery.
type RowSet struct {
	Table   string
	Columns []string
	Rows    [][]interface{}
}

func (r *RowSet) HandleHeader(i []interface{}) error {
	r.Columns = make([]string, len(i))
	for idx, v := range i {
		s, ok := v.(string)
		if !ok {
			return fmt.Errorf("unexpected type %T for column name at position %v", v, idx)
		}
		r.Columns[idx] = s
	}
	return nil
}

func (r *RowSet) HandleRow(i []interface{}) error {
	if len(i) != len(r.Columns) {
		return fmt.Errorf("row has %v values but the header has %v columns", len(i), len(r.Columns))
	}
	r.Rows = append(r.Rows, i)
	return nil
}

func (r *RowSet) Len() int {
	return len(r.Rows)
}

func (r *RowSet) IsEmpty() bool {
	return len(r.Rows) == 0
}

// UpperCaseColumns converts all column names to upper case in place.
func (r *RowSet) UpperCaseColumns() {
	for idx, c := range r.Columns {
		r.Columns[idx] = strings.ToUpper(c)
	}
}

// ColumnIndex returns the position of the named column or -1 if it is not found.
// The match is exact so call UpperCaseColumns first to compare upper-case names.
func (r *RowSet) ColumnIndex(name string) int {
	for idx, c := range r.Columns {
		if c == name {
			return idx
		}
	}
	return -1
}

// DuplicateKeys returns the sorted, distinct text of every key value that occurs in more than one row
// when rows are keyed on the column at position pkIdx.
// Keys are compared in their staged text form, which is how the warehouse will compare them.
// NULL keys are counted apart from text keys and are reported as NULL when there is more than one.
func (r *RowSet) DuplicateKeys(pkIdx int) []string {
	seen := make(map[string]int, len(r.Rows))
	nulls := 0
	for _, row := range r.Rows {
		if row[pkIdx] == nil {
			nulls++
			continue
		}
		seen[h.GetStringFromInterface(row[pkIdx], false)]++
	}
	var dupes []string
	for k, n := range seen {
		if n > 1 {
			dupes = append(dupes, k)
		}
	}
	sort.Strings(dupes)
	if nulls > 1 {
		dupes = append(dupes, "NULL")
	}
	return dupes
}
