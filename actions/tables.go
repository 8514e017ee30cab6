package actions

import (
	"encoding/json"
	"fmt"
	"io"
	"io/ioutil"
	"strings"

	om "github.com/cevaris/ordered_map"
	"github.com/ghodss/yaml"
	"github.com/relloyd/snowmerge/helper"
)

// TableDescriptor names a table to copy and its single-column primary key.
type TableDescriptor struct {
	Table      string `json:"table" errorTxt:"table name" mandatory:"yes"`
	PrimaryKey string `json:"primaryKey" errorTxt:"primary key column" mandatory:"yes"`
}

func (t TableDescriptor) String() string {
	return fmt.Sprintf("%v:%v", t.Table, t.PrimaryKey)
}

type tablesFile struct {
	Tables []TableDescriptor `json:"tables"`
}

// ParseTables converts a string of the form 'TABLE1:PK1,TABLE2:PK2' into an ordered list of tables.
// Whitespace is trimmed. Each token must have a table and a key, and a table may only appear once.
func ParseTables(s string) ([]TableDescriptor, error) {
	m := om.NewOrderedMap()
	for _, token := range helper.CsvToStringSliceTrimSpaces(s) { // for each table:pk...
		kv := helper.TokensToOrderedMap(token)
		if kv.Len() != 1 {
			return nil, fmt.Errorf("bad table token %q: expected <table>:<primary key>", token)
		}
		iter := kv.IterFunc()
		x, _ := iter()
		if err := addTable(m, TableDescriptor{Table: x.Key.(string), PrimaryKey: x.Value.(string)}); err != nil {
			return nil, err
		}
	}
	return orderedMapToTables(m)
}

// LoadTablesFile reads a YAML or JSON file of the form:
//
//	tables:
//	  - table: CUSTOMERS
//	    primaryKey: CUSTOMERID
func LoadTablesFile(fileName string) ([]TableDescriptor, error) {
	raw, err := ioutil.ReadFile(fileName)
	if err != nil {
		return nil, err
	}
	b, err := yaml.YAMLToJSON(raw) // JSON is valid YAML so this handles both.
	if err != nil {
		return nil, fmt.Errorf("error reading tables file %v: %w", fileName, err)
	}
	f := tablesFile{}
	if err = json.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("error reading tables file %v: %w", fileName, err)
	}
	m := om.NewOrderedMap()
	for _, t := range f.Tables {
		t.Table = strings.TrimSpace(t.Table)
		t.PrimaryKey = strings.TrimSpace(t.PrimaryKey)
		if err = addTable(m, t); err != nil {
			return nil, fmt.Errorf("error in tables file %v: %w", fileName, err)
		}
	}
	return orderedMapToTables(m)
}

func addTable(m *om.OrderedMap, t TableDescriptor) error {
	if err := helper.ValidateStructIsPopulated(t); err != nil {
		return fmt.Errorf("bad table %q: %w", t.String(), err)
	}
	k := strings.ToUpper(t.Table) // table names are upper cased before use.
	if _, exists := m.Get(k); exists {
		return fmt.Errorf("table %v is listed more than once", t.Table)
	}
	m.Set(k, t)
	return nil
}

func orderedMapToTables(m *om.OrderedMap) ([]TableDescriptor, error) {
	if m.Len() == 0 {
		return nil, fmt.Errorf("no tables supplied")
	}
	retval := make([]TableDescriptor, 0, m.Len())
	iter := m.IterFunc()
	for kv, ok := iter(); ok; kv, ok = iter() {
		retval = append(retval, kv.Value.(TableDescriptor))
	}
	return retval, nil
}

// OutputTables writes the table list to w as "yaml" or "json", in the same shape LoadTablesFile reads.
func OutputTables(w io.Writer, format string, tables []TableDescriptor) error {
	var b []byte
	var err error
	f := tablesFile{Tables: tables}
	switch format {
	case "yaml":
		b, err = yaml.Marshal(f)
	case "json":
		b, err = json.MarshalIndent(f, "", "  ")
		b = append(b, '\n')
	default:
		return fmt.Errorf("unsupported output format %q", format)
	}
	if err != nil {
		return err
	}
	_, err = w.Write(b)
	return err
}
