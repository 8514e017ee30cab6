package actions

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("Status server", func() {
	var status *RunStatus
	var stopped int
	var srv *httptest.Server

	BeforeEach(func() {
		status = NewRunStatus()
		stopped = 0
		srv = httptest.NewServer(newStatusRouter(quietLogger(), status, func() { stopped++ }))
	})

	AfterEach(func() {
		srv.Close()
	})

	get := func(path string) (int, map[string]interface{}) {
		resp, err := http.Get(srv.URL + path)
		Expect(err).To(BeNil())
		defer resp.Body.Close()
		body := make(map[string]interface{})
		Expect(json.NewDecoder(resp.Body).Decode(&body)).To(Succeed())
		return resp.StatusCode, body
	}

	It("reports health", func() {
		code, body := get("/health")
		Expect(code).To(Equal(http.StatusOK))
		Expect(body["status"]).To(Equal("ok"))
	})

	It("reports the last run", func() {
		d := &Driver{Log: quietLogger(), Migrator: &scriptedMigrator{}, Status: status}
		d.Run(context.Background(), "run9", []TableDescriptor{{Table: "CUSTOMERS", PrimaryKey: "CUSTOMERID"}})
		code, body := get("/status")
		Expect(code).To(Equal(http.StatusOK))
		run := body["run"].(map[string]interface{})
		Expect(run["runs"]).To(BeEquivalentTo(1))
		Expect(run["last"].(map[string]interface{})["runId"]).To(Equal("run9"))
	})

	It("stops the run", func() {
		code, _ := get("/stop")
		Expect(code).To(Equal(http.StatusOK))
		Expect(stopped).To(Equal(1))
	})

	It("returns 404 for unknown routes", func() {
		resp, err := http.Get(srv.URL + "/nope")
		Expect(err).To(BeNil())
		_ = resp.Body.Close()
		Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
	})

	It("marshals response values", func() {
		b, err := json.Marshal(ResponseSimple{ServerStatus: Error})
		Expect(err).To(BeNil())
		Expect(string(b)).To(Equal(`{"status":"error"}`))
		_, err = json.Marshal(ResponseSimple{})
		Expect(err).ToNot(BeNil())
	})
})
