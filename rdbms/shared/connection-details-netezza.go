package shared

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/relloyd/snowmerge/constants"
	"github.com/relloyd/snowmerge/helper"
)

var reNetezzaDsn = regexp.MustCompile(`^netezza://.+?/.+?@//.+:[0-9]+/.+$`)

// NetezzaConnectionDetails holds a DSN of the form netezza://user/password@//host:port/dbname[?params].
type NetezzaConnectionDetails struct {
	Dsn            string `errorTxt:"data source name i.e. connect string" mandatory:"yes"`
	OriginalScheme string
}

// String returns the DSN with the password removed.
func (d NetezzaConnectionDetails) String() string {
	if !reNetezzaDsn.MatchString(d.Dsn) {
		return "<unsupported Netezza DSN>"
	}
	userPwd, theRest := helper.SplitRight(strings.TrimPrefix(d.Dsn, constants.ConnectionTypeNetezza+"://"), `@`)
	user, _ := helper.SplitRight(userPwd, `/`)
	return fmt.Sprintf("%v://%v/xxxxx@%v", constants.ConnectionTypeNetezza, user, theRest)
}

func (d NetezzaConnectionDetails) GetScheme() (string, error) {
	return constants.ConnectionTypeNetezza, nil
}

// GetNzgoConnectionString will parse the connection string and convert it to the format required by nzgo library
// which is space separated key=value.
// https://pkg.go.dev/github.com/IBM/nzgo
func (d NetezzaConnectionDetails) GetNzgoConnectionString() (string, error) {
	if !reNetezzaDsn.MatchString(d.Dsn) {
		return "", errors.New("unsupported Netezza DSN format")
	}
	// Parse our connect string.
	dsn := strings.TrimPrefix(d.Dsn, constants.ConnectionTypeNetezza+"://")
	userPwd, theRest := helper.SplitRight(dsn, `@`)
	user, pass := helper.SplitRight(userPwd, `/`)
	hostPort, dbNameParams := helper.SplitRight(theRest, `/`)
	host, port := helper.SplitRight(hostPort, `:`)
	host = strings.TrimLeft(host, "/")
	dbName, params := helper.SplitRight(dbNameParams, `?`)
	params = strings.Replace(params, "&", " ", -1) // use space as the separator.
	// Create the nzgo connect string.
	connStr := strings.TrimSpace(fmt.Sprintf("user=%s password='%s' host=%s port=%s dbname=%s logLevel=Off %s", user, pass, host, port, dbName, params))
	return connStr, nil
}
