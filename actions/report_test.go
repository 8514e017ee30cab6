package actions

import (
	"bytes"
	"errors"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("Report", func() {
	var r *Report

	BeforeEach(func() {
		r = NewReport("abc")
		r.Add(TableResult{Table: "CUSTOMERS", PrimaryKey: "CUSTOMERID", Status: StatusMerged, RowsExtracted: 2, RowsStaged: 2, RowsMerged: 2})
		r.Add(TableResult{Table: "INVOICES", PrimaryKey: "INVOICEID", Status: StatusFailed, Kind: MergeFailure,
			Err: errors.New("boom"), Error: "boom"})
	})

	It("writes YAML", func() {
		buf := &bytes.Buffer{}
		Expect(r.Output(buf, "yaml")).To(Succeed())
		Expect(buf.String()).To(ContainSubstring("runId: abc"))
		Expect(buf.String()).To(ContainSubstring("kind: MergeFailure"))
		Expect(buf.String()).To(ContainSubstring("error: boom"))
	})

	It("writes JSON without the error value", func() {
		buf := &bytes.Buffer{}
		Expect(r.Output(buf, "json")).To(Succeed())
		Expect(buf.String()).To(ContainSubstring(`"status": "merged"`))
		Expect(buf.String()).ToNot(ContainSubstring(`"Err"`))
	})

	It("rejects other formats", func() {
		Expect(r.Output(&bytes.Buffer{}, "xml")).ToNot(Succeed())
	})

	It("wraps table errors", func() {
		err := error(&TableError{Table: "T", Kind: StageLoadFailure, Err: ErrStageRowCountMismatch})
		Expect(err.Error()).To(Equal("table T: StageLoadFailure: " + ErrStageRowCountMismatch.Error()))
		Expect(errors.Is(err, ErrStageRowCountMismatch)).To(BeTrue())
		_, ok := KindOf(errors.New("plain"))
		Expect(ok).To(BeFalse())
	})
})
