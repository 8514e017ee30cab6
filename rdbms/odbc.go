package rdbms

import (
	"fmt"
	"reflect"

	"github.com/relloyd/snowmerge/constants"
	"github.com/relloyd/snowmerge/logger"
	pluginloader "github.com/relloyd/snowmerge/plugin-loader"
	"github.com/relloyd/snowmerge/rdbms/shared"
)

// NewOdbcConnection loads the ODBC plugin and uses it to open the connection in d.
// The plugin keeps the cgo ODBC driver out of the main binary.
func NewOdbcConnection(log logger.Logger, d *shared.DsnConnectionDetails) (shared.Connector, error) {
	exports, err := pluginloader.LoadPluginExports(constants.SmPluginOdbc)
	if err != nil {
		return nil, err
	}
	i, ok := exports.(shared.OdbcConnector)
	if !ok {
		r := reflect.TypeOf(exports)
		return nil, fmt.Errorf("plugin %v does not implement the required interface: OdbcConnector: %v", constants.SmPluginOdbc, r.String())
	}
	return i.NewOdbcConnection(log, d)
}
