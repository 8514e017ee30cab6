package shared

import (
	"github.com/pkg/errors"
	"github.com/xo/dburl"
)

var DefaultDsnConnectionKeyNames = struct {
	Dsn string
}{
	Dsn: "dsn",
}

// DsnConnectionDetails is a simple struct to hold a DSN only.
type DsnConnectionDetails struct {
	Dsn            string `errorTxt:"data source name i.e. connect string" mandatory:"yes"`
	OriginalScheme string
}

// String returns the DSN with redacted password.
// Raw ODBC connection strings are not URLs so they are redacted by key instead.
func (d DsnConnectionDetails) String() string {
	u, err := dburl.Parse(d.Dsn)
	if err != nil {
		return RedactOdbcConnectionString(d.Dsn)
	}
	return u.Redacted()
}

// GetScheme returns the full connection type e.g. odbc+sqlserver.
func (d DsnConnectionDetails) GetScheme() (string, error) {
	if d.OriginalScheme != "" {
		return d.OriginalScheme, nil
	}
	if d.Dsn == "" {
		return "", errors.New("DSN not found")
	}
	u, err := dburl.Parse(d.Dsn)
	if err != nil {
		return "", errors.Wrap(err, "DSN could not be parsed")
	}
	return u.OriginalScheme, nil
}

func (d DsnConnectionDetails) GetMap(m map[string]string) map[string]string {
	if m == nil {
		m = make(map[string]string)
	}
	m[DefaultDsnConnectionKeyNames.Dsn] = d.Dsn
	return m
}

// GetDsnConnectionDetails converts generic ConnectionDetails to DsnConnectionDetails
// and returns a pointer to the new struct.
func GetDsnConnectionDetails(c *ConnectionDetails) *DsnConnectionDetails {
	return &DsnConnectionDetails{
		Dsn:            c.Data[DefaultDsnConnectionKeyNames.Dsn],
		OriginalScheme: c.Type,
	}
}
