package rdbms

import (
	"context"
	"database/sql"

	"github.com/relloyd/snowmerge/constants"
	"github.com/relloyd/snowmerge/logger"
	"github.com/relloyd/snowmerge/rdbms/shared"
)

// newNetezzaConnection opens the Netezza database connection specified in d.
// Netezza can act as an alternative source of tables.
func newNetezzaConnection(ctx context.Context, log logger.Logger, d *shared.DsnConnectionDetails) (shared.Connector, error) {
	conn := &shared.HpConnection{
		Dml:    &shared.DmlGeneratorTxtBatch{},
		DbType: constants.ConnectionTypeNetezza,
	}
	var err error
	var dsn string
	n := shared.NetezzaConnectionDetails{Dsn: d.Dsn}
	if dsn, err = n.GetNzgoConnectionString(); err != nil {
		return nil, err
	}
	if conn.DbSql, err = sql.Open("nzgo", dsn); err != nil {
		return nil, err
	}
	if err = conn.DbSql.PingContext(ctx); err != nil {
		conn.Close()
		return nil, err
	}
	log.Debug("Successful database connection to Netezza.")
	return conn, nil
}
