package actions

import (
	"context"

	"github.com/relloyd/snowmerge/logger"
	"github.com/relloyd/snowmerge/rdbms"
	"github.com/relloyd/snowmerge/rdbms/shared"
)

// ConnectionOpener opens a new database connection each time it is called.
// The caller owns the connection and must Close it.
type ConnectionOpener interface {
	Open(ctx context.Context, log logger.Logger) (shared.Connector, error)
}

// ConnectionOpenerFunc is an adapter to allow the use of ordinary functions as ConnectionOpener.
type ConnectionOpenerFunc func(ctx context.Context, log logger.Logger) (shared.Connector, error)

func (f ConnectionOpenerFunc) Open(ctx context.Context, log logger.Logger) (shared.Connector, error) {
	return f(ctx, log)
}

// NewConnectionOpener returns a ConnectionOpener for the supplied connection details.
func NewConnectionOpener(c shared.ConnectionDetails) ConnectionOpener {
	return ConnectionOpenerFunc(func(ctx context.Context, log logger.Logger) (shared.Connector, error) {
		return rdbms.OpenDbConnection(ctx, log, c)
	})
}
