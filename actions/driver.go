package actions

import (
	"context"
	"sync"
	"time"

	"github.com/relloyd/snowmerge/logger"
	"github.com/rs/xid"
)

// RunStatus is shared with the status web server so it can report progress while tables run.
type RunStatus struct {
	sync.RWMutex
	runs         int
	running      bool
	currentTable string
	pending      []string
	current      *Report
	last         *Report
}

// StatusSnapshot is a copy of RunStatus that is safe to marshal.
type StatusSnapshot struct {
	Runs         int      `json:"runs"`
	Running      bool     `json:"running"`
	CurrentTable string   `json:"currentTable,omitempty"`
	Pending      []string `json:"pending"`
	Current      *Report  `json:"current,omitempty"`
	Last         *Report  `json:"last,omitempty"`
}

func NewRunStatus() *RunStatus {
	return &RunStatus{}
}

func (s *RunStatus) Snapshot() StatusSnapshot {
	s.RLock()
	defer s.RUnlock()
	snap := StatusSnapshot{
		Runs:         s.runs,
		Running:      s.running,
		CurrentTable: s.currentTable,
		Pending:      append([]string{}, s.pending...),
	}
	if s.current != nil {
		c := *s.current
		c.Tables = append([]TableResult{}, s.current.Tables...)
		snap.Current = &c
	}
	if s.last != nil {
		l := *s.last
		snap.Last = &l
	}
	return snap
}

func (s *RunStatus) startRun(r *Report, tables []TableDescriptor) {
	s.Lock()
	defer s.Unlock()
	s.runs++
	s.running = true
	s.current = r
	s.pending = make([]string, len(tables))
	for idx, t := range tables {
		s.pending[idx] = t.Table
	}
}

func (s *RunStatus) startTable(name string) {
	s.Lock()
	defer s.Unlock()
	s.currentTable = name
	if len(s.pending) > 0 {
		s.pending = s.pending[1:]
	}
}

func (s *RunStatus) finishTable(r *Report, t TableResult) {
	s.Lock()
	defer s.Unlock()
	r.Add(t)
	s.currentTable = ""
}

// finishRun stamps r as finished and publishes it as the last run.
func (s *RunStatus) finishRun(r *Report) {
	s.Lock()
	defer s.Unlock()
	r.Finished = time.Now()
	s.running = false
	s.current = nil
	s.pending = nil
	s.last = r
}

// Driver runs a Migrator over an ordered table list, one table at a time.
type Driver struct {
	Log      logger.Logger
	Migrator Migrator
	Status   *RunStatus // optional
}

// RunTables migrates each table in order and returns the aggregated report.
// A table failure does not stop the run. Once ctx is done, tables not yet started are skipped as Cancelled.
func RunTables(ctx context.Context, log logger.Logger, m Migrator, tables []TableDescriptor) *Report {
	d := &Driver{Log: log, Migrator: m}
	return d.Run(ctx, xid.New().String(), tables)
}

func (d *Driver) Run(ctx context.Context, runID string, tables []TableDescriptor) *Report {
	status := d.Status
	if status == nil {
		status = NewRunStatus()
	}
	r := NewReport(runID)
	status.startRun(r, tables)
	d.Log.Info("Starting migration run ", runID, " for ", len(tables), " tables")
	for _, t := range tables { // for each table in order...
		status.startTable(t.Table)
		var result TableResult
		if ctx.Err() != nil { // if we have been told to stop...
			result = TableResult{Table: t.Table, PrimaryKey: t.PrimaryKey, Status: StatusSkipped, Kind: Cancelled, Error: ctx.Err().Error()}
			d.Log.Warn("Skipping table ", t.Table, ": run cancelled")
		} else {
			result = d.Migrator.MigrateTable(ctx, t)
		}
		status.finishTable(r, result)
	}
	status.finishRun(r)
	d.Log.Info("Migration completed for all tables!")
	d.Log.Info(r.Summary())
	for _, f := range r.Failed() {
		d.Log.Warn("Table ", f.Table, " failed with ", f.Kind, ": ", f.Error)
	}
	return r
}
