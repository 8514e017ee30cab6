package actions

import (
	"errors"
	"fmt"
)

// FailureKind classifies the outcome of a table that was not merged.
type FailureKind string

const (
	ConnectionFailure FailureKind = "ConnectionFailure" // the source or warehouse could not be opened
	ExtractFailure    FailureKind = "ExtractFailure"    // the source query failed
	EmptyResult       FailureKind = "EmptyResult"       // the source table has no rows; the table is skipped
	StageLoadFailure  FailureKind = "StageLoadFailure"  // the staging table could not be created or loaded
	MergeFailure      FailureKind = "MergeFailure"      // the MERGE into the target table failed or was not attempted
	Cancelled         FailureKind = "Cancelled"         // the run was stopped before the table completed
)

var (
	ErrStageRowCountMismatch = errors.New("the number of rows in the staging table does not match the rows extracted")
	ErrPrimaryKeyNotFound    = errors.New("primary key column not found in the source table")
	ErrDuplicatePrimaryKey   = errors.New("duplicate primary key values found in the source table")
	ErrDuplicateColumn       = errors.New("column names are not unique once upper cased")
)

// TableError is returned for a table that failed, carrying the kind of failure.
type TableError struct {
	Table string
	Kind  FailureKind
	Err   error
}

func (e *TableError) Error() string {
	return fmt.Sprintf("table %v: %v: %v", e.Table, e.Kind, e.Err)
}

func (e *TableError) Unwrap() error {
	return e.Err
}

// KindOf returns the FailureKind held in err, if err wraps a *TableError.
func KindOf(err error) (FailureKind, bool) {
	var te *TableError
	if errors.As(err, &te) {
		return te.Kind, true
	}
	return "", false
}
