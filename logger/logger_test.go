package logger_test

import (
	"bytes"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
	"github.com/relloyd/snowmerge/logger"
)

var _ = Describe("Logger", func() {
	var l *logger.LoggerImpl
	var logOutput *bytes.Buffer

	BeforeEach(func() {
		l = logger.NewLogger("test-service", "debug", false)
		logOutput = bytes.NewBufferString("")
		l.SetOutput(logOutput)
	})

	It("Should have `test-service` as service name", func() {
		l.Info("Testing")
		Expect(logOutput.String()).To(ContainSubstring("service=test-service"))
	})

	It("Should have info as log level", func() {
		l.Info("Testing")
		Expect(logOutput.String()).To(ContainSubstring("level=info"))
	})

	It("Should have warning as log level", func() {
		l.Warn("Testing")
		Expect(logOutput.String()).To(ContainSubstring("level=warning"))
	})

	It("Should have `Testing` as msg", func() {
		l.Info("Testing")
		Expect(logOutput.String()).To(ContainSubstring("msg=Testing"))
	})

	It("Should include a timestamp", func() {
		l.Info("Testing")
		Expect(logOutput.String()).To(MatchRegexp(`time="\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}"`))
	})

	It("Should not log debug lines at info level", func() {
		l = logger.NewLogger("test-service", "info", false)
		l.SetOutput(logOutput)
		l.Debug("hidden")
		Expect(logOutput.String()).To(BeEmpty())
	})

	It("Should add a stack trace to errors when stack dumps are enabled", func() {
		l = logger.NewLogger("test-service", "info", true)
		l.SetOutput(logOutput)
		l.Error("Testing")
		Expect(logOutput.String()).To(ContainSubstring("level=error"))
		Expect(logOutput.String()).To(ContainSubstring("stackTrace="))
	})

	Context("with a log directory", func() {
		var dir string

		BeforeEach(func() {
			var err error
			dir, err = ioutil.TempDir("", "logger-test-")
			Expect(err).To(BeNil())
		})

		AfterEach(func() {
			_ = os.RemoveAll(dir)
		})

		It("Should create a per-run log file and write to it", func() {
			fl, err := logger.NewFileLogger("test-service", "info", false, filepath.Join(dir, "logs"))
			Expect(err).To(BeNil())
			Expect(filepath.Base(fl.FileName)).To(MatchRegexp(`^migration_sqlserver_to_snowflake_\d{8}_\d{6}\.log$`))
			fl.Warn("No data found")
			Expect(fl.Close()).To(Succeed())
			b, err := ioutil.ReadFile(fl.FileName)
			Expect(err).To(BeNil())
			content := string(b)
			Expect(content).To(ContainSubstring("Logging started. Log file: "))
			Expect(strings.Count(content, "\n")).To(Equal(2))
			Expect(content).To(ContainSubstring("level=warning"))
		})

		It("Should reject a bad log level", func() {
			_, err := logger.NewFileLogger("test-service", "loud", false, dir)
			Expect(err).ToNot(BeNil())
		})
	})
})
