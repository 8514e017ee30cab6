package constants

const (
	EnvVarPrefix                = "SM" // prefix for environment variables in twelveFactorMode and DSN overrides
	EnvVarPluginDir             = EnvVarPrefix + "_PLUGIN_DIR"
	SmPluginOdbc                = "sm-odbc-plugin.so"
	ConnectionTypeSnowflake     = "snowflake"
	ConnectionTypeNetezza       = "netezza"
	ConnectionTypeOdbc          = "odbc" // raw ODBC connection string i.e. DRIVER={...};SERVER=...;
	ConnectionTypeOdbcSqlServer = "odbc+sqlserver"
	ConnectionTypeSqlServer     = "sqlserver"
	ConnectionTypeS3            = "s3"
	TimeFormatYearSeconds       = "20060102_150405"               // used for human readable file names
	TimeFormatStageText         = "2006-01-02 15:04:05.000000000" // text form of date-times written to staging tables
	TimeFormatStageTextTZ       = TimeFormatStageText + " -07:00" // as above for values that carry a zone offset e.g. DATETIMEOFFSET
	LogFileNamePrefix           = "migration_sqlserver_to_snowflake_"
	DefaultLogDir               = "Logs"
	LogFileNameExt              = ".log"
	StageTableSuffix            = "_STAGE"
	StageFilesSuffix            = "_STAGE_FILES"
	CsvNullMarker               = `\N`
	LoaderInsert                = "insert"
	LoaderPut                   = "put"
	LoaderS3                    = "s3"
	DefaultBatchRows            = 1000
	MaxBatchRows                = 16384 // Snowflake limit on rows in one VALUES list
	DefaultTables               = "CUSTOMERS:CUSTOMERID,EMPLOYEES:EMPLOYEEID,INVOICES:INVOICEID," +
		"MAINTENANCE:MAINTENANCEID,PAYMENTS:PAYMENTID,RENTAL_AGREEMENTS:AGREEMENTID,RENTAL_ITEMS:ITEMID"
	ServiceName = "snowmerge"
)
