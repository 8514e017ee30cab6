package actions

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/relloyd/snowmerge/aws/s3"
	"github.com/relloyd/snowmerge/components"
	"github.com/relloyd/snowmerge/constants"
	"github.com/relloyd/snowmerge/helper"
	"github.com/relloyd/snowmerge/logger"
	"github.com/relloyd/snowmerge/rdbms/shared"
	"github.com/rs/xid"
)

type MigrateConfig struct {
	// Connections
	Source    *shared.ConnectionDetails
	Warehouse *shared.ConnectionDetails
	Tables    []TableDescriptor
	// Generic
	LogLevel         string `errorTxt:"log level" mandatory:"yes"`
	LogDir           string
	StackDumpOnPanic bool
	RepeatInterval   int `errorTxt:"repeat interval"`
	Port             int
	Output           string // report format: yaml, json or empty for none
	OutputWriter     io.Writer
	// Staging
	Loader          string `errorTxt:"loader" mandatory:"yes"`
	BatchRows       int
	StageName       string `errorTxt:"Snowflake stage"`
	BucketName      string `errorTxt:"s3 bucket"`
	BucketPrefix    string `errorTxt:"s3 prefix"`
	BucketRegion    string `errorTxt:"s3 region"`
	CsvDirectory    string
	CsvMaxFileRows  int `errorTxt:"csv max file rows"`
	CsvMaxFileBytes int `errorTxt:"csv max file bytes"`
}

func (c *MigrateConfig) validate() error {
	if err := helper.ValidateStructIsPopulated(c); err != nil {
		return err
	}
	if c.Source == nil || c.Source.Type == "" {
		return fmt.Errorf("please supply source connection details")
	}
	if c.Warehouse == nil || c.Warehouse.Type == "" {
		return fmt.Errorf("please supply Snowflake connection details")
	}
	if c.Warehouse.Type != constants.ConnectionTypeSnowflake {
		return fmt.Errorf("unsupported target database type %q, expected %v", c.Warehouse.Type, constants.ConnectionTypeSnowflake)
	}
	if len(c.Tables) == 0 {
		return fmt.Errorf("please supply at least one table")
	}
	if c.BatchRows < 0 || c.BatchRows > constants.MaxBatchRows {
		return fmt.Errorf("batch rows must be between 0 and %v", constants.MaxBatchRows)
	}
	if c.RepeatInterval < 0 {
		return fmt.Errorf("repeat interval must not be negative")
	}
	switch c.Output {
	case "", "yaml", "json":
	default:
		return fmt.Errorf("unsupported output format %q", c.Output)
	}
	switch c.Loader {
	case constants.LoaderInsert, constants.LoaderPut:
	case constants.LoaderS3:
		if c.BucketName == "" || c.BucketRegion == "" || c.StageName == "" {
			return fmt.Errorf("the %v loader requires values for s3 bucket, s3 region and Snowflake stage", constants.LoaderS3)
		}
		b, err := s3.ParseDSN(c.BucketName, c.BucketRegion)
		if err != nil {
			return err
		}
		if b.Prefix != "" { // if the bucket was given as s3://<bucket>/<prefix>...
			if c.BucketPrefix != "" {
				return fmt.Errorf("s3 prefix supplied twice: %v and %v", b.String(), c.BucketPrefix)
			}
			c.BucketPrefix = b.Prefix
		}
		c.BucketName = b.Name
	default:
		return fmt.Errorf("unsupported loader %q", c.Loader)
	}
	return nil
}

// newStageLoader returns the components.StageLoader matching cfg.Loader.
func newStageLoader(cfg *MigrateConfig, runID string) components.StageLoader {
	csv := components.CsvConfig{Directory: cfg.CsvDirectory, MaxFileRows: cfg.CsvMaxFileRows, MaxFileBytes: cfg.CsvMaxFileBytes}
	switch cfg.Loader {
	case constants.LoaderPut:
		return &components.PutLoader{Csv: csv}
	case constants.LoaderS3:
		return &components.S3Loader{
			Bucket:    s3.NewBasicClient(cfg.BucketName, cfg.BucketRegion, cfg.BucketPrefix),
			StageName: cfg.StageName,
			RunID:     runID,
			Csv:       csv,
		}
	default:
		return &components.InsertLoader{BatchRows: cfg.BatchRows}
	}
}

// RunMigrate copies every table in cfg.Tables from the source database into Snowflake.
// Table failures are written to the log and the report but they do not produce an error.
// SIGINT and SIGTERM stop the run after tidying up the current table.
func RunMigrate(cfg *MigrateConfig) error {
	if err := cfg.validate(); err != nil {
		return err
	}
	// Setup logging.
	var log logger.Logger
	if cfg.LogDir != "" {
		fl, err := logger.NewFileLogger(constants.ServiceName, cfg.LogLevel, cfg.StackDumpOnPanic, cfg.LogDir)
		if err != nil {
			return err
		}
		defer fl.Close()
		log = fl
	} else {
		log = logger.NewLogger(constants.ServiceName, cfg.LogLevel, cfg.StackDumpOnPanic)
	}
	log.Info("Source: ", cfg.Source.String())
	log.Info("Target: ", cfg.Warehouse.String())
	m := &TableMigrator{
		Log:       log,
		Source:    NewConnectionOpener(*cfg.Source),
		Warehouse: NewConnectionOpener(*cfg.Warehouse),
		Loader:    newStageLoader(cfg, xid.New().String()),
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return runMigrations(ctx, log, cfg, m, stop)
}

// runMigrations runs the table list once, or repeatedly when cfg.RepeatInterval is set, until ctx is done.
// If cfg.Port is set, a status server runs for the duration and its /stop route calls stop.
func runMigrations(ctx context.Context, log logger.Logger, cfg *MigrateConfig, m Migrator, stop func()) error {
	status := NewRunStatus()
	if cfg.Port > 0 {
		srv, err := runStatusServer(log, cfg.Port, status, stop)
		if err != nil {
			return err
		}
		defer shutdownStatusServer(log, srv)
	}
	w := cfg.OutputWriter
	if w == nil {
		w = os.Stdout
	}
	d := &Driver{Log: log, Migrator: m, Status: status}
	for {
		r := d.Run(ctx, xid.New().String(), cfg.Tables)
		if cfg.Output != "" {
			if err := r.Output(w, cfg.Output); err != nil {
				return err
			}
		}
		if cfg.RepeatInterval <= 0 || ctx.Err() != nil {
			return nil
		}
		log.Info(fmt.Sprintf("Sleeping for %v seconds before the next run", cfg.RepeatInterval))
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(time.Duration(cfg.RepeatInterval) * time.Second):
		}
	}
}
