package actions

import (
	"bytes"
	"context"
	"encoding/json"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

// scriptedMigrator returns canned results and records the tables it was asked to migrate.
type scriptedMigrator struct {
	results map[string]TableResult
	seen    []string
	onTable func(t TableDescriptor)
}

func (s *scriptedMigrator) MigrateTable(ctx context.Context, t TableDescriptor) TableResult {
	s.seen = append(s.seen, t.Table)
	if s.onTable != nil {
		s.onTable(t)
	}
	if r, ok := s.results[t.Table]; ok {
		return r
	}
	return TableResult{Table: t.Table, PrimaryKey: t.PrimaryKey, Status: StatusMerged, RowsMerged: 1}
}

var _ = Describe("Driver", func() {
	tables := []TableDescriptor{
		{Table: "CUSTOMERS", PrimaryKey: "CUSTOMERID"},
		{Table: "EMPLOYEES", PrimaryKey: "EMPLOYEEID"},
		{Table: "INVOICES", PrimaryKey: "INVOICEID"},
	}

	It("runs every table in order and keeps going after a failure", func() {
		m := &scriptedMigrator{results: map[string]TableResult{
			"CUSTOMERS": {Table: "CUSTOMERS", Status: StatusFailed, Kind: ConnectionFailure, Error: "boom"},
			"EMPLOYEES": {Table: "EMPLOYEES", Status: StatusSkipped, Kind: EmptyResult},
		}}
		r := RunTables(context.Background(), quietLogger(), m, tables)
		Expect(m.seen).To(Equal([]string{"CUSTOMERS", "EMPLOYEES", "INVOICES"}))
		Expect(r.Tables).To(HaveLen(3))
		merged, skipped, failed := r.Counts()
		Expect([]int{merged, skipped, failed}).To(Equal([]int{1, 1, 1}))
		Expect(r.Summary()).To(Equal("3 tables: 1 merged, 1 skipped, 1 failed"))
		Expect(r.Failed()).To(HaveLen(1))
		Expect(r.RunID).ToNot(BeEmpty())
		Expect(r.Finished).ToNot(BeZero())
	})

	It("logs completion and each failed table after a run with failures", func() {
		log, hook := test.NewNullLogger()
		m := &scriptedMigrator{results: map[string]TableResult{
			"EMPLOYEES": {Table: "EMPLOYEES", Status: StatusFailed, Kind: MergeFailure, Error: "duplicate primary key"},
		}}
		RunTables(context.Background(), log, m, tables)
		info := loggedAt(hook, logrus.InfoLevel)
		Expect(info).To(ContainElement("Migration completed for all tables!"))
		Expect(info[len(info)-1]).To(Equal("3 tables: 2 merged, 0 skipped, 1 failed"))
		warn := loggedAt(hook, logrus.WarnLevel)
		Expect(warn).To(HaveLen(1))
		Expect(warn[0]).To(HavePrefix("Table EMPLOYEES failed with "))
		Expect(warn[0]).To(HaveSuffix(": duplicate primary key"))
		Expect(hook.LastEntry().Message).To(Equal(warn[0]))
	})

	It("logs completion when every table fails", func() {
		log, hook := test.NewNullLogger()
		failAll := map[string]TableResult{}
		for _, t := range tables {
			failAll[t.Table] = TableResult{Table: t.Table, Status: StatusFailed, Kind: ConnectionFailure, Error: "login failed"}
		}
		RunTables(context.Background(), log, &scriptedMigrator{results: failAll}, tables)
		Expect(loggedAt(hook, logrus.InfoLevel)).To(ContainElement("Migration completed for all tables!"))
		Expect(loggedAt(hook, logrus.WarnLevel)).To(HaveLen(3))
	})

	It("stamps the finish time while the status is being read", func() {
		status := NewRunStatus()
		done := make(chan struct{})
		polled := make(chan struct{})
		go func() {
			defer close(polled)
			for {
				select {
				case <-done:
					return
				default:
					_ = status.Snapshot()
				}
			}
		}()
		d := &Driver{Log: quietLogger(), Migrator: &scriptedMigrator{}, Status: status}
		r := d.Run(context.Background(), "run1", tables)
		close(done)
		<-polled
		Expect(r.Finished).ToNot(BeZero())
		Expect(status.Snapshot().Last.Finished).To(Equal(r.Finished))
	})

	It("skips the remaining tables once cancelled", func() {
		ctx, cancel := context.WithCancel(context.Background())
		m := &scriptedMigrator{onTable: func(t TableDescriptor) { cancel() }}
		r := RunTables(ctx, quietLogger(), m, tables)
		Expect(m.seen).To(Equal([]string{"CUSTOMERS"}))
		Expect(r.Tables).To(HaveLen(3))
		Expect(r.Tables[1].Status).To(Equal(StatusSkipped))
		Expect(r.Tables[1].Kind).To(Equal(Cancelled))
		Expect(r.Tables[2].Kind).To(Equal(Cancelled))
	})

	It("publishes progress to the run status", func() {
		status := NewRunStatus()
		var during StatusSnapshot
		m := &scriptedMigrator{onTable: func(t TableDescriptor) {
			if t.Table == "EMPLOYEES" {
				during = status.Snapshot()
			}
		}}
		d := &Driver{Log: quietLogger(), Migrator: m, Status: status}
		d.Run(context.Background(), "run1", tables)
		Expect(during.Running).To(BeTrue())
		Expect(during.CurrentTable).To(Equal("EMPLOYEES"))
		Expect(during.Pending).To(Equal([]string{"INVOICES"}))
		Expect(during.Current.Tables).To(HaveLen(1))
		after := status.Snapshot()
		Expect(after.Running).To(BeFalse())
		Expect(after.Runs).To(Equal(1))
		Expect(after.Last.RunID).To(Equal("run1"))
		Expect(after.Last.Tables).To(HaveLen(3))
	})
})

var _ = Describe("runMigrations", func() {
	It("writes the report in the requested format", func() {
		buf := &bytes.Buffer{}
		cfg := &MigrateConfig{
			Tables:       []TableDescriptor{{Table: "CUSTOMERS", PrimaryKey: "CUSTOMERID"}},
			Output:       "json",
			OutputWriter: buf,
		}
		Expect(runMigrations(context.Background(), quietLogger(), cfg, &scriptedMigrator{}, func() {})).To(Succeed())
		r := Report{}
		Expect(json.Unmarshal(buf.Bytes(), &r)).To(Succeed())
		Expect(r.Tables).To(HaveLen(1))
		Expect(r.Tables[0].Status).To(Equal(StatusMerged))
	})

	It("repeats until cancelled", func() {
		ctx, cancel := context.WithCancel(context.Background())
		m := &scriptedMigrator{}
		m.onTable = func(t TableDescriptor) {
			if len(m.seen) == 2 {
				cancel()
			}
		}
		cfg := &MigrateConfig{
			Tables:         []TableDescriptor{{Table: "CUSTOMERS", PrimaryKey: "CUSTOMERID"}},
			RepeatInterval: 1,
		}
		Expect(runMigrations(ctx, quietLogger(), cfg, m, cancel)).To(Succeed())
		Expect(m.seen).To(HaveLen(2))
	})
})
