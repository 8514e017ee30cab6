package rdbms

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	reQuotedDottedTable = regexp.MustCompile(`".+\..+"`)   // "random.table"
	reQuotedSchemaTable = regexp.MustCompile(`".+"\.".+"`) // "schema"."table"
	reQuoted            = regexp.MustCompile(`".+"`)
)

// SchemaTable is a table name with an optional schema prefix, [<schema>.]<table>.
type SchemaTable struct {
	SchemaTable string `errorTxt:"[<schema>.]<object>" mandatory:"yes"`
}

func NewSchemaTable(schema string, table string) SchemaTable {
	if schema == "" {
		return SchemaTable{table}
	}
	return SchemaTable{schema + "." + table}
}

func (st *SchemaTable) isQuotedTable() bool {
	// if the schemaTable is a quoted "random.table" and not a regular "schema"."table"...
	return reQuotedDottedTable.MatchString(st.SchemaTable) && !reQuotedSchemaTable.MatchString(st.SchemaTable)
}

func (st *SchemaTable) GetTable() string {
	if st.isQuotedTable() {
		return st.SchemaTable // return the "random.table"
	}
	sep := "."
	i := strings.Index(st.SchemaTable, sep)
	if i < 0 { // if we have just a table...
		return st.SchemaTable
	}
	return st.SchemaTable[i+len(sep):]
}

func (st *SchemaTable) GetSchema() string {
	if st.isQuotedTable() {
		return ""
	}
	i := strings.Index(st.SchemaTable, ".")
	if i < 0 { // if we have just a table...
		return ""
	}
	return st.SchemaTable[:i]
}

// AppendSuffix returns the schema and table with suffix added to the table name, inside any quotes.
func (st *SchemaTable) AppendSuffix(suffix string) string {
	schema := st.GetSchema()
	table := st.GetTable()
	sep := "."
	if schema == "" {
		sep = ""
	}
	appendQuote := ""
	if reQuoted.MatchString(table) { // if the table is quoted...
		// Remove the trailing quote and save that we want to add it back later.
		appendQuote = `"`
		table = strings.TrimRight(table, `"`)
	}
	return fmt.Sprintf("%v%v%v%v%v", schema, sep, table, suffix, appendQuote)
}

// ToUpper returns a copy of st with the name upper cased.
func (st SchemaTable) ToUpper() SchemaTable {
	return SchemaTable{strings.ToUpper(st.SchemaTable)}
}

func (st *SchemaTable) String() string {
	return st.SchemaTable
}
