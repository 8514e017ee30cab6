package components

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/relloyd/snowmerge/aws/s3"
	"github.com/relloyd/snowmerge/logger"
	"github.com/relloyd/snowmerge/rdbms"
	"github.com/relloyd/snowmerge/rdbms/shared"
)

// S3Loader loads the staging table by uploading gzip CSV files to S3 and running COPY INTO
// from an existing Snowflake external stage that points at the bucket.
// Files are written below <RunID>/<table>/ so concurrent runs do not collide.
type S3Loader struct {
	Bucket    s3.StagingClient
	StageName string // the external stage in Snowflake, including any path that matches the bucket prefix
	RunID     string
	Csv       CsvConfig
}

func (l *S3Loader) LoadStage(ctx context.Context, log logger.Logger, db shared.Connector, stage rdbms.SchemaTable, rows *shared.RowSet) (int64, error) {
	if l.Bucket == nil || l.StageName == "" {
		return 0, fmt.Errorf("the S3 loader requires a bucket and a Snowflake stage name")
	}
	files, err := writeRowSetToCsv(ctx, log, l.Csv, stage.GetTable(), rows)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err := files.Remove(); err != nil {
			log.Warn("unable to remove CSV files for ", stage.String(), ": ", err)
		}
	}()
	dir := path.Join(l.RunID, stage.String())
	keys := make([]string, 0, len(files.ListOfOutputFiles))
	defer func() {
		if len(keys) == 0 {
			return
		}
		if err := l.Bucket.DeleteKeys(keys); err != nil {
			log.Warn("unable to delete staged S3 files for ", stage.String(), ": ", err)
		}
	}()
	for _, name := range files.ListOfOutputFiles { // for each CSV file...
		k := path.Join(dir, filepath.Base(name))
		if err = putFile(l.Bucket, k, name); err != nil {
			return 0, fmt.Errorf("error uploading %v to S3: %w", name, err)
		}
		keys = append(keys, k)
		log.Debug("uploaded ", name, " to S3 key ", k)
	}
	location := fmt.Sprintf("'@%v/%v/'", strings.TrimRight(l.StageName, "/"), dir)
	stmt := GetSqlSnowflakeCopyInto(stage, rows.Columns, location, false)
	log.Debug("executing: ", stmt)
	if _, err = db.ExecContext(ctx, stmt); err != nil {
		return 0, fmt.Errorf("error loading staging table %v: %w", stage.String(), err)
	}
	return CountStage(ctx, db, stage)
}

func putFile(b s3.BufferPutter, key string, name string) error {
	f, err := os.Open(name)
	if err != nil {
		return err
	}
	defer f.Close()
	return b.BufferPut(key, f)
}
