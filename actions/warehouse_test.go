package actions

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/relloyd/snowmerge/constants"
	"github.com/relloyd/snowmerge/logger"
	"github.com/relloyd/snowmerge/rdbms/shared"
)

var (
	reFakeCreate = regexp.MustCompile(`^CREATE TEMPORARY TABLE (\S+) \((.*)\)$`)
	reFakeCol    = regexp.MustCompile(`"([^"]+)" STRING`)
	reFakeInsert = regexp.MustCompile(`^insert into (\S+) \(([^)]*)\) values `)
	reFakeMerge  = regexp.MustCompile(`^MERGE INTO (\S+) AS TARGET USING (\S+) AS SOURCE ON TARGET\."([^"]+)" = SOURCE\."([^"]+)"`)
)

type fakeTable struct {
	cols []string
	rows [][]interface{}
}

func (t *fakeTable) colIndex(c string) int {
	for idx, v := range t.cols {
		if v == c {
			return idx
		}
	}
	return -1
}

// fakeWarehouse behaves enough like Snowflake for the migrator: target tables outlive sessions,
// temporary tables belong to the session that created them.
type fakeWarehouse struct {
	mu        sync.Mutex
	tables    map[string]*fakeTable
	sessions  []*shared.MockConnection
	openErr   error
	mergeErr  error
	insertErr error
}

func newFakeWarehouse() *fakeWarehouse {
	return &fakeWarehouse{tables: make(map[string]*fakeTable)}
}

func (w *fakeWarehouse) createTarget(name string, cols ...string) {
	w.tables[name] = &fakeTable{cols: cols}
}

func (w *fakeWarehouse) Open(ctx context.Context, log logger.Logger) (shared.Connector, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.openErr != nil {
		return nil, w.openErr
	}
	temp := make(map[string]*fakeTable)
	c := shared.NewMockConnection(constants.ConnectionTypeSnowflake)
	c.ExecFn = func(query string, args []interface{}) (shared.Result, error) {
		return w.exec(temp, query, args)
	}
	w.sessions = append(w.sessions, c)
	return c, nil
}

func (w *fakeWarehouse) exec(temp map[string]*fakeTable, query string, args []interface{}) (shared.Result, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if m := reFakeCreate.FindStringSubmatch(query); m != nil {
		t := &fakeTable{}
		for _, c := range reFakeCol.FindAllStringSubmatch(m[2], -1) {
			t.cols = append(t.cols, c[1])
		}
		temp[m[1]] = t
		return shared.MockResult{}, nil
	}
	if m := reFakeInsert.FindStringSubmatch(query); m != nil {
		if w.insertErr != nil {
			return nil, w.insertErr
		}
		t, ok := temp[m[1]]
		if !ok {
			return nil, fmt.Errorf("Object '%v' does not exist or not authorized", m[1])
		}
		width := len(strings.Split(m[2], ","))
		if len(args)%width != 0 {
			return nil, fmt.Errorf("bind count %v is not a multiple of %v", len(args), width)
		}
		for idx := 0; idx < len(args); idx += width {
			t.rows = append(t.rows, append([]interface{}{}, args[idx:idx+width]...))
		}
		return shared.MockResult{Rows: int64(len(args) / width)}, nil
	}
	if m := reFakeMerge.FindStringSubmatch(query); m != nil {
		if w.mergeErr != nil {
			return nil, w.mergeErr
		}
		return w.merge(temp, m[1], m[2], m[3])
	}
	return nil, fmt.Errorf("unexpected statement: %v", query)
}

func (w *fakeWarehouse) merge(temp map[string]*fakeTable, target string, source string, key string) (shared.Result, error) {
	tgt, ok := w.tables[target]
	if !ok {
		return nil, fmt.Errorf("Object '%v' does not exist or not authorized", target)
	}
	src, ok := temp[source]
	if !ok {
		return nil, fmt.Errorf("Object '%v' does not exist or not authorized", source)
	}
	srcKey, tgtKey := src.colIndex(key), tgt.colIndex(key)
	if srcKey < 0 || tgtKey < 0 {
		return nil, fmt.Errorf("invalid identifier '%v'", key)
	}
	mapping := make([]int, len(src.cols))
	for idx, c := range src.cols {
		if mapping[idx] = tgt.colIndex(c); mapping[idx] < 0 {
			return nil, fmt.Errorf("invalid identifier 'SOURCE.%v'", c)
		}
	}
	seen := make(map[string]bool)
	for _, row := range src.rows {
		k := fmt.Sprint(row[srcKey])
		if seen[k] {
			return nil, fmt.Errorf("Duplicate row detected during DML action")
		}
		seen[k] = true
	}
	for _, row := range src.rows {
		var match []interface{}
		for _, t := range tgt.rows {
			if fmt.Sprint(t[tgtKey]) == fmt.Sprint(row[srcKey]) {
				match = t
				break
			}
		}
		if match == nil {
			match = make([]interface{}, len(tgt.cols))
			tgt.rows = append(tgt.rows, match)
		}
		for idx, v := range row {
			match[mapping[idx]] = v
		}
	}
	return shared.MockResult{Rows: int64(len(src.rows))}, nil
}

// row returns the target row with key value k, or nil.
func (w *fakeWarehouse) row(table string, key string, k string) map[string]interface{} {
	w.mu.Lock()
	defer w.mu.Unlock()
	t := w.tables[table]
	kIdx := t.colIndex(key)
	for _, r := range t.rows {
		if fmt.Sprint(r[kIdx]) == k {
			retval := make(map[string]interface{})
			for idx, c := range t.cols {
				retval[c] = r[idx]
			}
			return retval
		}
	}
	return nil
}

func (w *fakeWarehouse) allClosed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, s := range w.sessions {
		if !s.Closed {
			return false
		}
	}
	return true
}

// fakeSource serves SELECT * FROM <table> from in-memory tables.
type fakeSource struct {
	mu       sync.Mutex
	tables   map[string]*fakeTable
	sessions []*shared.MockConnection
	openErr  error
	queryErr error
}

func newFakeSource() *fakeSource {
	return &fakeSource{tables: make(map[string]*fakeTable)}
}

func (s *fakeSource) add(name string, cols []string, rows ...[]interface{}) {
	s.tables[name] = &fakeTable{cols: cols, rows: rows}
}

func (s *fakeSource) Open(ctx context.Context, log logger.Logger) (shared.Connector, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.openErr != nil {
		return nil, s.openErr
	}
	c := shared.NewMockConnection(constants.ConnectionTypeSqlServer)
	c.QueryFn = func(query string, args []interface{}) (shared.Rows, error) {
		if s.queryErr != nil {
			return nil, s.queryErr
		}
		name := strings.TrimPrefix(query, "SELECT * FROM ")
		t, ok := s.tables[name]
		if !ok {
			return nil, fmt.Errorf("Invalid object name '%v'", name)
		}
		return shared.NewMockRows(t.cols, t.rows), nil
	}
	s.sessions = append(s.sessions, c)
	return c, nil
}

func (s *fakeSource) allClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.sessions {
		if !c.Closed {
			return false
		}
	}
	return true
}
