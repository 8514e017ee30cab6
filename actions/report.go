package actions

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/ghodss/yaml"
)

type TableStatus string

const (
	StatusMerged  TableStatus = "merged"
	StatusSkipped TableStatus = "skipped"
	StatusFailed  TableStatus = "failed"
)

// TableResult is the outcome of copying one table.
type TableResult struct {
	Table         string      `json:"table"`
	PrimaryKey    string      `json:"primaryKey"`
	Status        TableStatus `json:"status"`
	Kind          FailureKind `json:"kind,omitempty"`
	Err           error       `json:"-"`
	Error         string      `json:"error,omitempty"`
	RowsExtracted int         `json:"rowsExtracted"`
	RowsStaged    int64       `json:"rowsStaged"`
	RowsMerged    int64       `json:"rowsMerged"`
	Seconds       float64     `json:"seconds"`
}

func (r TableResult) Merged() bool {
	return r.Status == StatusMerged
}

func (r TableResult) Skipped() bool {
	return r.Status == StatusSkipped
}

func (r TableResult) Failed() bool {
	return r.Status == StatusFailed
}

// Report aggregates the results of one run over the table list, in the order the tables were processed.
type Report struct {
	RunID    string        `json:"runId"`
	Started  time.Time     `json:"started"`
	Finished time.Time     `json:"finished"`
	Tables   []TableResult `json:"tables"`
}

func NewReport(runID string) *Report {
	return &Report{RunID: runID, Started: time.Now(), Tables: make([]TableResult, 0)}
}

func (r *Report) Add(t TableResult) {
	r.Tables = append(r.Tables, t)
}

// Counts returns the number of tables merged, skipped and failed.
func (r *Report) Counts() (merged int, skipped int, failed int) {
	for _, t := range r.Tables {
		switch t.Status {
		case StatusMerged:
			merged++
		case StatusSkipped:
			skipped++
		case StatusFailed:
			failed++
		}
	}
	return
}

// Failed returns the results of tables that failed.
func (r *Report) Failed() []TableResult {
	var retval []TableResult
	for _, t := range r.Tables {
		if t.Failed() {
			retval = append(retval, t)
		}
	}
	return retval
}

func (r *Report) Summary() string {
	merged, skipped, failed := r.Counts()
	return fmt.Sprintf("%v tables: %v merged, %v skipped, %v failed", len(r.Tables), merged, skipped, failed)
}

// Output writes the report to w as "yaml" or "json".
func (r *Report) Output(w io.Writer, format string) error {
	var data []byte
	var err error
	switch format {
	case "yaml":
		data, err = yaml.Marshal(r)
	case "json":
		data, err = json.MarshalIndent(r, "", "  ")
		data = append(data, '\n')
	default:
		return fmt.Errorf("unsupported output format %q", format)
	}
	if err != nil {
		return fmt.Errorf("unable to marshal the report: %w", err)
	}
	_, err = w.Write(data)
	return err
}
