package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime/debug"
	"time"

	"github.com/relloyd/snowmerge/constants"
	log "github.com/sirupsen/logrus"
)

// Logger type is interface for available logging methods.
type Logger interface {
	Trace(...interface{})
	Debug(...interface{})
	Info(...interface{})
	Warn(...interface{})
	Error(...interface{})
	Panic(...interface{})
	Fatal(...interface{})
}

// LoggerImpl is a struct that extends sirupsen/logrus.
type LoggerImpl struct {
	Logger         *log.Entry
	Service        string
	LogLevelStr    string
	PrintStackDump bool
	FileName       string // full path to the log file, if any
	base           *log.Logger
	file           *os.File
}

// NewLogger will create a new logger implementation that writes text lines to stderr.
func NewLogger(serviceName string, level string, stackDumpOnPanic bool) *LoggerImpl {
	l, err := newLogger(serviceName, level, stackDumpOnPanic, os.Stderr)
	if err != nil {
		fmt.Println("Error setting up logging: ", err)
		os.Exit(1)
	}
	return l
}

// NewFileLogger creates a logger that writes timestamped text lines to stdout and to a new log file in dir.
// The file name includes the current time so each run gets its own file.
// The caller should Close() the logger to release the file.
func NewFileLogger(serviceName string, level string, stackDumpOnPanic bool, dir string) (*LoggerImpl, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("error creating log directory %q: %w", dir, err)
	}
	name := filepath.Join(dir, fmt.Sprintf("%v%v%v", constants.LogFileNamePrefix, time.Now().Format(constants.TimeFormatYearSeconds), constants.LogFileNameExt))
	f, err := os.OpenFile(name, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("error opening log file %q: %w", name, err)
	}
	l, err := newLogger(serviceName, level, stackDumpOnPanic, io.MultiWriter(os.Stdout, f))
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	l.file = f
	l.FileName = name
	l.Info("Logging started. Log file: ", name)
	return l, nil
}

func newLogger(serviceName string, level string, stackDumpOnPanic bool, w io.Writer) (*LoggerImpl, error) {
	logLevel, err := log.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	base := log.New()
	base.SetOutput(w)
	base.SetLevel(logLevel)
	base.SetFormatter(&log.TextFormatter{FullTimestamp: true, TimestampFormat: "2006-01-02 15:04:05", DisableColors: true})
	entry := base.WithFields(log.Fields{
		"service": serviceName,
	})
	return &LoggerImpl{Logger: entry, Service: serviceName, LogLevelStr: level, PrintStackDump: stackDumpOnPanic, base: base}, nil
}

// Trace log.
func (l *LoggerImpl) Trace(message ...interface{}) {
	l.Logger.Trace(message...)
}

// Debug log.
func (l *LoggerImpl) Debug(message ...interface{}) {
	l.Logger.Debug(message...)
}

// Info log.
func (l *LoggerImpl) Info(message ...interface{}) {
	l.Logger.Info(message...)
}

// Warn log.
func (l *LoggerImpl) Warn(message ...interface{}) {
	l.Logger.Warn(message...)
}

// Error (with stack trace if the user asked for stack dumps).
func (l *LoggerImpl) Error(message ...interface{}) {
	if l.PrintStackDump {
		l.Logger.WithField("stackTrace", fmt.Sprintf("%s", debug.Stack())).Error(message...)
	} else {
		l.Logger.Error(message...)
	}
}

// Panic (with stack trace in debug mode, or if user explicitly sets PrintStackDump).
func (l *LoggerImpl) Panic(message ...interface{}) {
	if l.PrintStackDump { // if the user wants a stack dump without having to use debug|trace levels...
		l.Logger.WithField("stackTrace", fmt.Sprintf("%s", debug.Stack())).Panic(message...)
	} else { // else log the message and quit without a stack dump...
		l.Logger.Fatal(message...)
	}
}

// Fatal (with stack trace in debug mode).
// This causes exit(1) without a stack dump by default.
func (l *LoggerImpl) Fatal(message ...interface{}) {
	if l.LogLevelStr == "debug" || l.LogLevelStr == "trace" {
		l.Logger.WithField("stackTrace", fmt.Sprintf("%s", debug.Stack())).Fatal(message...)
	} else {
		l.Logger.Fatal(message...)
	}
}

// SetOutput will set the log output to the Writer supplied.
func (l *LoggerImpl) SetOutput(writer io.Writer) {
	l.base.SetOutput(writer)
}

// Close releases the log file if there is one.
func (l *LoggerImpl) Close() error {
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}
