package shared

import (
	"context"
	"errors"
	"io"
)

// MockConnection implements Connector for use in tests.
// Every statement is recorded in Statements. ExecFn and QueryFn may be set to control the results.
type MockConnection struct {
	DbType     string
	Dml        DmlGenerator
	ExecFn     func(query string, args []interface{}) (Result, error)
	QueryFn    func(query string, args []interface{}) (Rows, error)
	Statements []string
	Args       [][]interface{}
	Closed     bool
}

func NewMockConnection(dbType string) *MockConnection {
	return &MockConnection{DbType: dbType, Dml: &DmlGeneratorTxtBatch{}}
}

func (m *MockConnection) ExecContext(ctx context.Context, query string, args ...interface{}) (Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.Statements = append(m.Statements, query)
	m.Args = append(m.Args, args)
	if m.ExecFn != nil {
		return m.ExecFn(query, args)
	}
	return MockResult{Rows: 0}, nil
}

func (m *MockConnection) QueryContext(ctx context.Context, query string, args ...interface{}) (Rows, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.Statements = append(m.Statements, query)
	m.Args = append(m.Args, args)
	if m.QueryFn != nil {
		return m.QueryFn(query, args)
	}
	return NewMockRows(nil, nil), nil
}

func (m *MockConnection) Close() {
	m.Closed = true
}

func (m *MockConnection) GetType() string {
	return m.DbType
}

func (m *MockConnection) GetDmlGenerator() DmlGenerator {
	return m.Dml
}

// MockResult implements Result.
type MockResult struct {
	Rows int64
}

func (r MockResult) LastInsertId() (int64, error) {
	return 0, errors.New("LastInsertId is not supported")
}

func (r MockResult) RowsAffected() (int64, error) {
	return r.Rows, nil
}

// MockRows implements Rows over an in-memory grid of values.
type MockRows struct {
	cols   []string
	data   [][]interface{}
	pos    int
	ErrAt  int // if > 0, Next fails once this many rows have been read
	ErrVal error
	Types  []string // optional database type names returned by DatabaseTypeNames
	closed bool
}

func NewMockRows(cols []string, data [][]interface{}) *MockRows {
	return &MockRows{cols: cols, data: data}
}

func (r *MockRows) Columns() ([]string, error) {
	if r.closed {
		return nil, errors.New("rows are closed")
	}
	return r.cols, nil
}

func (r *MockRows) DatabaseTypeNames() ([]string, error) {
	if r.Types == nil {
		return make([]string, len(r.cols)), nil
	}
	return r.Types, nil
}

func (r *MockRows) Next() bool {
	if r.closed || r.pos >= len(r.data) {
		return false
	}
	if r.ErrAt > 0 && r.pos >= r.ErrAt {
		return false
	}
	r.pos++
	return true
}

func (r *MockRows) Scan(dest ...interface{}) error {
	if r.pos == 0 || r.pos > len(r.data) {
		return io.EOF
	}
	row := r.data[r.pos-1]
	if len(dest) != len(row) {
		return errors.New("wrong number of scan destinations")
	}
	for idx, v := range row {
		p, ok := dest[idx].(*interface{})
		if !ok {
			return errors.New("scan destination must be *interface{}")
		}
		*p = v
	}
	return nil
}

func (r *MockRows) Err() error {
	if r.ErrAt > 0 && r.pos >= r.ErrAt {
		return r.ErrVal
	}
	return nil
}

func (r *MockRows) Close() error {
	r.closed = true
	return nil
}

func (r *MockRows) Closed() bool {
	return r.closed
}
