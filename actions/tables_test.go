package actions

import (
	"bytes"
	"io/ioutil"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/ginkgo/extensions/table"
	. "github.com/onsi/gomega"
	"github.com/relloyd/snowmerge/constants"
)

var _ = Describe("Tables", func() {
	It("parses the default table list in order", func() {
		t, err := ParseTables(constants.DefaultTables)
		Expect(err).To(BeNil())
		Expect(t).To(HaveLen(7))
		Expect(t[0]).To(Equal(TableDescriptor{Table: "CUSTOMERS", PrimaryKey: "CUSTOMERID"}))
		Expect(t[6]).To(Equal(TableDescriptor{Table: "RENTAL_ITEMS", PrimaryKey: "ITEMID"}))
	})

	It("trims spaces and keeps a schema prefix", func() {
		t, err := ParseTables(" dbo.Customers : CustomerId , invoices:InvoiceId")
		Expect(err).To(BeNil())
		Expect(t).To(Equal([]TableDescriptor{
			{Table: "dbo.Customers", PrimaryKey: "CustomerId"},
			{Table: "invoices", PrimaryKey: "InvoiceId"},
		}))
	})

	DescribeTable("rejects bad lists",
		func(s string) {
			_, err := ParseTables(s)
			Expect(err).ToNot(BeNil())
		},
		Entry("empty", ""),
		Entry("missing key", "CUSTOMERS"),
		Entry("empty key", "CUSTOMERS:"),
		Entry("empty table", ":ID"),
		Entry("duplicate table", "CUSTOMERS:A,customers:B"),
	)

	Context("from a file", func() {
		var dir string

		BeforeEach(func() {
			var err error
			dir, err = ioutil.TempDir("", "tables-test-")
			Expect(err).To(BeNil())
		})

		AfterEach(func() {
			_ = os.RemoveAll(dir)
		})

		write := func(name string, content string) string {
			f := filepath.Join(dir, name)
			Expect(ioutil.WriteFile(f, []byte(content), 0644)).To(Succeed())
			return f
		}

		It("reads YAML", func() {
			f := write("tables.yaml", "tables:\n  - table: CUSTOMERS\n    primaryKey: CUSTOMERID\n  - table: PAYMENTS\n    primaryKey: PAYMENTID\n")
			t, err := LoadTablesFile(f)
			Expect(err).To(BeNil())
			Expect(t).To(HaveLen(2))
			Expect(t[1].Table).To(Equal("PAYMENTS"))
		})

		It("reads JSON", func() {
			f := write("tables.json", `{"tables": [{"table": "CUSTOMERS", "primaryKey": "CUSTOMERID"}]}`)
			t, err := LoadTablesFile(f)
			Expect(err).To(BeNil())
			Expect(t).To(Equal([]TableDescriptor{{Table: "CUSTOMERS", PrimaryKey: "CUSTOMERID"}}))
		})

		It("rejects a table without a key", func() {
			f := write("tables.yaml", "tables:\n  - table: CUSTOMERS\n")
			_, err := LoadTablesFile(f)
			Expect(err).ToNot(BeNil())
		})

		It("reads back what OutputTables writes", func() {
			in := []TableDescriptor{{Table: "CUSTOMERS", PrimaryKey: "CUSTOMERID"}, {Table: "dbo.PAYMENTS", PrimaryKey: "PAYMENTID"}}
			for _, format := range []string{"yaml", "json"} {
				buf := &bytes.Buffer{}
				Expect(OutputTables(buf, format, in)).To(Succeed())
				f := write("tables."+format, buf.String())
				out, err := LoadTablesFile(f)
				Expect(err).To(BeNil())
				Expect(out).To(Equal(in))
			}
		})

		It("fails on a missing file", func() {
			_, err := LoadTablesFile(filepath.Join(dir, "nope.yaml"))
			Expect(err).ToNot(BeNil())
		})
	})
})
