package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/relloyd/snowmerge/constants"
	"github.com/relloyd/snowmerge/helper"
	"github.com/relloyd/snowmerge/rdbms"
	"github.com/relloyd/snowmerge/rdbms/shared"
)

const (
	DefaultEnvFile        = ".env"
	SourceLogicalName     = "source"
	WarehouseLogicalName  = "target"
	EnvSqlServer          = "SQL_SERVER"
	EnvSqlDatabase        = "SQL_DATABASE"
	EnvSqlUsername        = "SQL_USERNAME"
	EnvSqlPassword        = "SQL_PASSWORD"
	EnvSqlDriver          = "SQL_DRIVER"
	EnvSnowflakeUser      = "SNOWFLAKE_USER"
	EnvSnowflakePassword  = "SNOWFLAKE_PASSWORD"
	EnvSnowflakeAccount   = "SNOWFLAKE_ACCOUNT"
	EnvSnowflakeRole      = "SNOWFLAKE_ROLE"
	EnvSnowflakeWarehouse = "SNOWFLAKE_WAREHOUSE"
	EnvSnowflakeDatabase  = "SNOWFLAKE_DATABASE"
	EnvSnowflakeSchema    = "SNOWFLAKE_SCHEMA"
)

// LoadEnvFile adds the variables in fileName to the environment without overwriting existing ones.
// A missing file is ignored when it is the default.
func LoadEnvFile(fileName string) error {
	if fileName == "" {
		return nil
	}
	if _, err := os.Stat(fileName); os.IsNotExist(err) && fileName == DefaultEnvFile {
		return nil
	}
	if err := godotenv.Load(fileName); err != nil {
		return fmt.Errorf("error loading environment file %v: %w", fileName, err)
	}
	return nil
}

// SourceConnectionFromEnv returns the source connection from SM_SOURCE_DSN if it is set,
// otherwise from the SQL_* variables.
func SourceConnectionFromEnv() (*shared.ConnectionDetails, error) {
	if dsn := os.Getenv(helper.GetDsnEnvVarName(SourceLogicalName)); dsn != "" {
		return &shared.ConnectionDetails{
			Type:        connectionTypeOfDsn(dsn),
			LogicalName: SourceLogicalName,
			Data:        map[string]string{shared.DefaultDsnConnectionKeyNames.Dsn: dsn},
		}, nil
	}
	d := rdbms.SqlServerConnectionDetails{
		Server:   os.Getenv(EnvSqlServer),
		Database: os.Getenv(EnvSqlDatabase),
		User:     os.Getenv(EnvSqlUsername),
		Password: os.Getenv(EnvSqlPassword),
		Driver:   os.Getenv(EnvSqlDriver),
	}
	if err := helper.ValidateStructIsPopulated(d); err != nil {
		return nil, fmt.Errorf("source connection: %w (or set %v)", err, helper.GetDsnEnvVarName(SourceLogicalName))
	}
	return &shared.ConnectionDetails{
		Type:        d.GetType(),
		LogicalName: SourceLogicalName,
		Data:        map[string]string{shared.DefaultDsnConnectionKeyNames.Dsn: d.GetDsn()},
	}, nil
}

// WarehouseConnectionFromEnv returns the Snowflake connection from SM_TARGET_DSN if it is set,
// otherwise from the SNOWFLAKE_* variables.
func WarehouseConnectionFromEnv() (*shared.ConnectionDetails, error) {
	dsn := os.Getenv(helper.GetDsnEnvVarName(WarehouseLogicalName))
	if dsn == "" {
		d := &rdbms.SnowflakeConnectionDetails{
			Account:   os.Getenv(EnvSnowflakeAccount),
			DBName:    os.Getenv(EnvSnowflakeDatabase),
			Schema:    os.Getenv(EnvSnowflakeSchema),
			User:      os.Getenv(EnvSnowflakeUser),
			Password:  os.Getenv(EnvSnowflakePassword),
			Warehouse: os.Getenv(EnvSnowflakeWarehouse),
			RoleName:  os.Getenv(EnvSnowflakeRole),
		}
		if err := helper.ValidateStructIsPopulated(d); err != nil {
			return nil, fmt.Errorf("target connection: %w (or set %v)", err, helper.GetDsnEnvVarName(WarehouseLogicalName))
		}
		var err error
		if dsn, err = rdbms.SnowflakeGetDSN(d); err != nil {
			return nil, fmt.Errorf("target connection: %w", err)
		}
	}
	return &shared.ConnectionDetails{
		Type:        constants.ConnectionTypeSnowflake,
		LogicalName: WarehouseLogicalName,
		Data:        map[string]string{shared.DefaultDsnConnectionKeyNames.Dsn: dsn},
	}, nil
}

// connectionTypeOfDsn returns the URL scheme of dsn, or odbc for a raw ODBC connection string.
func connectionTypeOfDsn(dsn string) string {
	if i := strings.Index(dsn, "://"); i > 0 {
		return strings.ToLower(dsn[:i])
	}
	return constants.ConnectionTypeOdbc
}
