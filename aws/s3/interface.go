package s3

import (
	"io"
)

// StagingClient holds the calls needed to stage files for Snowflake COPY INTO.
type StagingClient interface {
	BufferPutter
	Deleter
}

// BufferPutter can be used to put a file to S3 since File implements Read and Seek.
type BufferPutter interface {
	BufferPut(key string, buf io.ReadSeeker) (err error)
}

// Deleter removes keys from the bucket.
// DeleteKeys reports the first key that could not be deleted.
type Deleter interface {
	Delete(key string) error
	DeleteKeys(keys []string) error
}
