package actions

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
	"github.com/relloyd/snowmerge/components"
	"github.com/relloyd/snowmerge/logger"
	"github.com/relloyd/snowmerge/rdbms"
	"github.com/relloyd/snowmerge/rdbms/shared"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

func quietLogger() *logrus.Logger {
	l, _ := test.NewNullLogger()
	return l
}

// loggedAt returns the messages logged at level.
func loggedAt(hook *test.Hook, level logrus.Level) []string {
	var retval []string
	for _, e := range hook.AllEntries() {
		if e.Level == level {
			retval = append(retval, e.Message)
		}
	}
	return retval
}

var _ = Describe("TableMigrator", func() {
	var src *fakeSource
	var wh *fakeWarehouse
	var m *TableMigrator
	var hook *test.Hook
	ctx := context.Background()
	customers := TableDescriptor{Table: "customers", PrimaryKey: "customerId"}

	BeforeEach(func() {
		src = newFakeSource()
		wh = newFakeWarehouse()
		wh.createTarget("CUSTOMERS", "CUSTOMERID", "NAME", "BALANCE")
		var log *logrus.Logger
		log, hook = test.NewNullLogger()
		m = &TableMigrator{
			Log:       log,
			Source:    src,
			Warehouse: wh,
			Loader:    &components.InsertLoader{BatchRows: 2},
		}
	})

	AfterEach(func() {
		Expect(src.allClosed()).To(BeTrue(), "source connections left open")
		Expect(wh.allClosed()).To(BeTrue(), "warehouse connections left open")
	})

	It("inserts new rows into the target table", func() {
		src.add("CUSTOMERS", []string{"customerId", "name", "balance"},
			[]interface{}{int64(1), "Ann", []byte("10.50")},
			[]interface{}{int64(2), "Bob", nil},
			[]interface{}{int64(3), "", []byte("0.00")},
		)
		r := m.MigrateTable(ctx, customers)
		Expect(r.Err).To(BeNil())
		Expect(r.Status).To(Equal(StatusMerged))
		Expect(r.Table).To(Equal("CUSTOMERS"))
		Expect(r.PrimaryKey).To(Equal("CUSTOMERID"))
		Expect(r.RowsExtracted).To(Equal(3))
		Expect(r.RowsStaged).To(Equal(int64(3)))
		Expect(r.RowsMerged).To(Equal(int64(3)))
		Expect(wh.row("CUSTOMERS", "CUSTOMERID", "1")).To(Equal(map[string]interface{}{"CUSTOMERID": "1", "NAME": "Ann", "BALANCE": "10.50"}))
		Expect(wh.row("CUSTOMERS", "CUSTOMERID", "2")["BALANCE"]).To(BeNil())
		Expect(wh.row("CUSTOMERS", "CUSTOMERID", "3")["NAME"]).To(Equal(""))
	})

	It("updates existing rows and is idempotent", func() {
		src.add("CUSTOMERS", []string{"CUSTOMERID", "NAME", "BALANCE"},
			[]interface{}{int64(1), "Ann", "1"},
		)
		Expect(m.MigrateTable(ctx, customers).Status).To(Equal(StatusMerged))
		src.add("CUSTOMERS", []string{"CUSTOMERID", "NAME", "BALANCE"},
			[]interface{}{int64(1), "Annie", "2"},
			[]interface{}{int64(4), "Dan", "3"},
		)
		Expect(m.MigrateTable(ctx, customers).Status).To(Equal(StatusMerged))
		Expect(m.MigrateTable(ctx, customers).Status).To(Equal(StatusMerged))
		Expect(wh.tables["CUSTOMERS"].rows).To(HaveLen(2))
		Expect(wh.row("CUSTOMERS", "CUSTOMERID", "1")["NAME"]).To(Equal("Annie"))
		Expect(wh.row("CUSTOMERS", "CUSTOMERID", "4")["BALANCE"]).To(Equal("3"))
	})

	It("skips an empty table without connecting to Snowflake", func() {
		src.add("CUSTOMERS", []string{"CUSTOMERID", "NAME"})
		r := m.MigrateTable(ctx, customers)
		Expect(r.Status).To(Equal(StatusSkipped))
		Expect(r.Kind).To(Equal(EmptyResult))
		Expect(r.Err).To(BeNil())
		Expect(wh.sessions).To(BeEmpty())
		Expect(loggedAt(hook, logrus.WarnLevel)).To(ContainElement("No data found for table CUSTOMERS, skipping migration."))
		Expect(loggedAt(hook, logrus.ErrorLevel)).To(BeEmpty())
	})

	It("reports a source connection failure", func() {
		src.openErr = errors.New("login failed")
		r := m.MigrateTable(ctx, customers)
		Expect(r.Status).To(Equal(StatusFailed))
		Expect(r.Kind).To(Equal(ConnectionFailure))
		Expect(r.Error).To(ContainSubstring("login failed"))
		k, ok := KindOf(r.Err)
		Expect(ok).To(BeTrue())
		Expect(k).To(Equal(ConnectionFailure))
	})

	It("reports an extract failure", func() {
		r := m.MigrateTable(ctx, TableDescriptor{Table: "MISSING", PrimaryKey: "ID"})
		Expect(r.Kind).To(Equal(ExtractFailure))
		Expect(r.Error).To(ContainSubstring("Invalid object name"))
	})

	Context("with source rows", func() {
		BeforeEach(func() {
			src.add("CUSTOMERS", []string{"CUSTOMERID", "NAME", "BALANCE"},
				[]interface{}{int64(1), "Ann", "1"},
			)
		})

		It("reports a warehouse connection failure", func() {
			wh.openErr = errors.New("incorrect username or password")
			r := m.MigrateTable(ctx, customers)
			Expect(r.Kind).To(Equal(ConnectionFailure))
		})

		It("reports a stage load failure", func() {
			wh.insertErr = errors.New("warehouse suspended")
			r := m.MigrateTable(ctx, customers)
			Expect(r.Kind).To(Equal(StageLoadFailure))
			Expect(wh.row("CUSTOMERS", "CUSTOMERID", "1")).To(BeNil())
		})

		It("reports a merge failure", func() {
			wh.mergeErr = errors.New("merge failed")
			r := m.MigrateTable(ctx, customers)
			Expect(r.Kind).To(Equal(MergeFailure))
			Expect(r.RowsStaged).To(Equal(int64(1)))
		})

		It("reports a merge failure when the target table does not exist", func() {
			delete(wh.tables, "CUSTOMERS")
			r := m.MigrateTable(ctx, customers)
			Expect(r.Kind).To(Equal(MergeFailure))
			Expect(r.Error).To(ContainSubstring("does not exist"))
		})

		It("reports a stage that does not hold every row", func() {
			m.Loader = components.StageLoaderFunc(func(ctx context.Context, log logger.Logger, db shared.Connector, stage rdbms.SchemaTable, rows *shared.RowSet) (int64, error) {
				Expect(stage.String()).To(Equal("CUSTOMERS_STAGE"))
				return 0, nil
			})
			r := m.MigrateTable(ctx, customers)
			Expect(r.Kind).To(Equal(StageLoadFailure))
			Expect(errors.Is(r.Err, ErrStageRowCountMismatch)).To(BeTrue())
			Expect(wh.row("CUSTOMERS", "CUSTOMERID", "1")).To(BeNil())
		})

		It("reports an unsupported warehouse as a connection failure", func() {
			m.Warehouse = NewConnectionOpener(shared.ConnectionDetails{Type: "oracle", LogicalName: "target"})
			r := m.MigrateTable(ctx, customers)
			Expect(r.Kind).To(Equal(ConnectionFailure))
			Expect(r.Error).To(ContainSubstring("unsupported database type"))
		})

		It("reports a missing primary key column", func() {
			r := m.MigrateTable(ctx, TableDescriptor{Table: "CUSTOMERS", PrimaryKey: "ID"})
			Expect(r.Kind).To(Equal(MergeFailure))
			Expect(errors.Is(r.Err, ErrPrimaryKeyNotFound)).To(BeTrue())
			Expect(wh.sessions).To(BeEmpty())
		})

		It("reports cancellation", func() {
			c, cancel := context.WithCancel(ctx)
			cancel()
			r := m.MigrateTable(c, customers)
			Expect(r.Status).To(Equal(StatusFailed))
			Expect(r.Kind).To(Equal(Cancelled))
		})
	})

	It("reports duplicate primary keys as a merge failure", func() {
		src.add("CUSTOMERS", []string{"CUSTOMERID", "NAME", "BALANCE"},
			[]interface{}{int64(1), "Ann", "1"},
			[]interface{}{int64(1), "Ann again", "2"},
		)
		r := m.MigrateTable(ctx, customers)
		Expect(r.Kind).To(Equal(MergeFailure))
		Expect(errors.Is(r.Err, ErrDuplicatePrimaryKey)).To(BeTrue())
		Expect(r.Error).To(ContainSubstring("1"))
		Expect(wh.tables["CUSTOMERS"].rows).To(BeEmpty())
		errs := loggedAt(hook, logrus.ErrorLevel)
		Expect(errs).To(HaveLen(1))
		Expect(errs[0]).To(HavePrefix("Error merging data into Snowflake for table CUSTOMERS: "))
		Expect(errs[0]).To(ContainSubstring(ErrDuplicatePrimaryKey.Error()))
	})

	It("reports columns that clash once upper cased", func() {
		src.add("CUSTOMERS", []string{"CUSTOMERID", "Name", "NAME"},
			[]interface{}{int64(1), "a", "b"},
		)
		r := m.MigrateTable(ctx, customers)
		Expect(r.Kind).To(Equal(StageLoadFailure))
		Expect(errors.Is(r.Err, ErrDuplicateColumn)).To(BeTrue())
	})

	It("merges a table made only of the key column", func() {
		wh.createTarget("CODES", "CODE")
		src.add("CODES", []string{"code"}, []interface{}{"A"}, []interface{}{"B"})
		r := m.MigrateTable(ctx, TableDescriptor{Table: "codes", PrimaryKey: "code"})
		Expect(r.Status).To(Equal(StatusMerged))
		Expect(wh.tables["CODES"].rows).To(HaveLen(2))
	})
})
