package rdbms

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/IBM/nzgo/v12"
	_ "github.com/denisenkom/go-mssqldb"
	"github.com/relloyd/snowmerge/constants"
	"github.com/relloyd/snowmerge/logger"
	"github.com/relloyd/snowmerge/rdbms/shared"
	"github.com/xo/dburl"
)

// supportedOdbcConnectionTypes is a map where keys are the connection types served by the ODBC plugin.
// Snowflake, Netezza and native SQL Server connections are handled explicitly so do not need to be here.
var supportedOdbcConnectionTypes = map[string]struct{}{
	constants.ConnectionTypeOdbc:          {},
	constants.ConnectionTypeOdbcSqlServer: {},
}

// isSupportedOdbcConnection returns true if it can look up the supplied connection type in map
// supportedOdbcConnectionTypes.
func isSupportedOdbcConnection(connectionType string) bool {
	_, ok := supportedOdbcConnectionTypes[connectionType]
	return ok
}

// OpenDbConnection opens a database connection using the supplied ConnectionDetails struct in c.
// Snowflake connections are pinned to a single session so that temporary objects survive between statements.
func OpenDbConnection(ctx context.Context, log logger.Logger, c shared.ConnectionDetails) (db shared.Connector, err error) {
	log.Debug("opening connection type ", c.Type, " with logicalName ", c.LogicalName) // don't log password details in c.Data!
	switch c.Type {
	case constants.ConnectionTypeSnowflake:
		db, err = newSnowflakeConnection(ctx, log, shared.GetDsnConnectionDetails(&c))
	case constants.ConnectionTypeSqlServer:
		db, err = newConnectionWithDsn(ctx, log, shared.GetDsnConnectionDetails(&c))
	case constants.ConnectionTypeNetezza:
		db, err = newNetezzaConnection(ctx, log, shared.GetDsnConnectionDetails(&c))
	default: // else if connection is ODBC or unsupported...
		if isSupportedOdbcConnection(c.Type) { // if the connection type is supported...
			db, err = NewOdbcConnection(log, shared.GetDsnConnectionDetails(&c))
		} else { // else we have an unsupported database...
			err = fmt.Errorf("unsupported database type, %q", c.Type)
		}
	}
	return
}

func newConnectionWithDsn(ctx context.Context, log logger.Logger, d *shared.DsnConnectionDetails) (shared.Connector, error) {
	log.Debug("Opening database connection: ", d)
	u, err := dburl.Parse(d.Dsn)
	if err != nil { // if the DSN could not be parsed...
		return nil, fmt.Errorf("error parsing DSN %q: %w", d.String(), err)
	}
	// Create the new Connector.
	conn := &shared.HpConnection{
		Dml:    &shared.DmlGeneratorTxtBatch{},
		DbType: u.OriginalScheme,
	}
	// Open the connection.
	conn.DbSql, err = sql.Open(u.Driver, u.DSN)
	if err != nil {
		return nil, err
	}
	// Test the connection.
	if err = conn.DbSql.PingContext(ctx); err != nil {
		conn.Close()
		return nil, err
	}
	log.Debug("Successful connection to: ", d)
	return conn, nil
}
