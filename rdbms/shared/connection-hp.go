package shared

import (
	"context"
	"database/sql"
	"errors"
	"strings"
)

// HpConnection is a wrapper around:
// 1) Go native sql.DB; and optionally
// 2) a single sql.Conn taken from that pool.
// When DbConn is set all statements run on that one session, which is required for
// session-scoped objects like Snowflake temporary tables.
// It also adds the DmlGenerator interface for use by components that write to the database.
type HpConnection struct {
	DbSql  *sql.DB
	DbConn *sql.Conn
	Dml    DmlGenerator
	DbType string
}

// Pin takes a single session from the pool so subsequent statements share it.
func (c *HpConnection) Pin(ctx context.Context) error {
	if c.DbSql == nil {
		return errors.New("HpConnection was not configured correctly: DbSql is missing")
	}
	if c.DbConn != nil { // if we are already pinned...
		return nil
	}
	conn, err := c.DbSql.Conn(ctx)
	if err != nil {
		return err
	}
	c.DbConn = conn
	return nil
}

// Connector:

func (c *HpConnection) ExecContext(ctx context.Context, query string, args ...interface{}) (Result, error) {
	if c.DbConn != nil {
		return c.DbConn.ExecContext(ctx, query, args...)
	}
	return c.DbSql.ExecContext(ctx, query, args...)
}

func (c *HpConnection) QueryContext(ctx context.Context, query string, args ...interface{}) (Rows, error) {
	var r *sql.Rows
	var err error
	if c.DbConn != nil {
		r, err = c.DbConn.QueryContext(ctx, query, args...)
	} else {
		r, err = c.DbSql.QueryContext(ctx, query, args...)
	}
	if err != nil { // if there was an error return a nil interface, not a typed nil...
		return nil, err
	}
	return &sqlRows{Rows: r}, nil
}

// sqlRows adds DatabaseTypeNames to *sql.Rows.
type sqlRows struct {
	*sql.Rows
}

func (r *sqlRows) DatabaseTypeNames() ([]string, error) {
	types, err := r.ColumnTypes()
	if err != nil {
		return nil, err
	}
	retval := make([]string, len(types))
	for idx, t := range types {
		retval[idx] = strings.ToUpper(t.DatabaseTypeName())
	}
	return retval, nil
}

// Close releases the pinned session, if any, and then the pool.
func (c *HpConnection) Close() {
	if c.DbConn != nil {
		_ = c.DbConn.Close()
		c.DbConn = nil
	}
	if c.DbSql != nil {
		_ = c.DbSql.Close()
	}
}

func (c *HpConnection) GetDmlGenerator() DmlGenerator {
	return c.Dml
}

func (c *HpConnection) GetType() string {
	return c.DbType
}
