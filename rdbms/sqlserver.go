package rdbms

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/relloyd/snowmerge/constants"
)

// SqlServerConnectionDetails holds the parts of a SQL Server source connection.
// When Driver is set the connection is made through ODBC using that installed driver name.
type SqlServerConnectionDetails struct {
	Server   string `errorTxt:"SQL Server host[\\instance][,port]" mandatory:"yes"`
	Database string `errorTxt:"SQL Server database" mandatory:"yes"`
	User     string `errorTxt:"SQL Server username" mandatory:"yes"`
	Password string `errorTxt:"SQL Server password" mandatory:"yes"`
	Driver   string `errorTxt:"ODBC driver name"`
}

// GetType returns the connection type used to open these details.
func (d SqlServerConnectionDetails) GetType() string {
	if d.Driver != "" {
		return constants.ConnectionTypeOdbc
	}
	return constants.ConnectionTypeSqlServer
}

// GetDsn returns an ODBC connection string if a driver is set, else a native go-mssqldb URL.
// Server certificates are trusted in both cases.
func (d SqlServerConnectionDetails) GetDsn() string {
	if d.Driver != "" {
		return fmt.Sprintf("DRIVER={%v};SERVER=%v;DATABASE=%v;UID=%v;PWD=%v;TrustServerCertificate=yes;",
			strings.Trim(d.Driver, "{}"), d.Server, d.Database, d.User, d.Password)
	}
	host := d.Server
	var path string
	if i := strings.Index(host, `\`); i >= 0 { // if there is a named instance...
		host, path = host[:i], host[i+1:]
	}
	host = strings.Replace(host, ",", ":", 1) // SQL Server style host,port to host:port.
	q := url.Values{}
	q.Set("database", d.Database)
	q.Set("TrustServerCertificate", "true")
	u := &url.URL{
		Scheme:   constants.ConnectionTypeSqlServer,
		User:     url.UserPassword(d.User, d.Password),
		Host:     host,
		Path:     path,
		RawQuery: q.Encode(),
	}
	return u.String()
}
