package cmd

import (
	"fmt"
	"os"
	"strings"

	c "github.com/relloyd/snowmerge/constants"
	"github.com/relloyd/snowmerge/helper"
	"github.com/relloyd/snowmerge/logger"
)

// init will be called first due to the lexical order in which these functions are executed.
// This ensures the value of twelveFactorMode is set such that other init() functions that configure
// Cobra can read environment variables in place of CLI flags.
func init() {
	setupTwelveFactorMode()
}

// setupTwelveFactorMode will enable or disable 12 factor mode based on environment variable.
func setupTwelveFactorMode() {
	mode := os.Getenv(envVarTwelveFactorMode)
	if mode != "" { // if variable for 12factor mode is set and we should read env vars to determine actions...
		twelveFactorMode = true
		lambdaMode = strings.ToLower(mode) == "lambda"
	} else { // else 12factor mode should be off...
		twelveFactorMode = false // explicitly turn off this mode since tests may have turned it on while others require it off.
		lambdaMode = false
	}
}

// defaultLogDir is blank in lambda mode since only /tmp is writable there; SM_LOG_DIR can still set one.
func defaultLogDir() string {
	if lambdaMode {
		return ""
	}
	return c.DefaultLogDir
}

const (
	envVarTwelveFactorMode = c.EnvVarPrefix + "_" + "12FACTOR_MODE"
	envVarCommand          = c.EnvVarPrefix + "_" + "COMMAND"
	envVarLogLevel         = c.EnvVarPrefix + "_" + "LOG_LEVEL"
	sourceDsnEnvVar        = c.EnvVarPrefix + "_SOURCE_DSN"
	targetDsnEnvVar        = c.EnvVarPrefix + "_TARGET_DSN"
)

var (
	twelveFactorMode bool // true if os env var envVarTwelveFactorMode is set
	lambdaMode       bool // true if envVarTwelveFactorMode is "lambda"
	twelveFactorVars = []string{
		envVarCommand,
		envVarLogLevel,
		helper.GetDsnEnvVarName("source"),
		helper.GetDsnEnvVarName("target"),
	}
	twelveFactorVarsSensitive = map[string]struct{}{ // DSNs may contain passwords.
		helper.GetDsnEnvVarName("source"): {},
		helper.GetDsnEnvVarName("target"): {},
	}
)

// twelveFactorActions maps the value of SM_COMMAND to the func that runs it.
// Flag values have already been read from SM_<FLAG> variables by addFlag.
var twelveFactorActions = map[string]func() error{
	"migrate": runMigrate,
	"tables":  func() error { return runTables(tablesCmd) },
}

func execute12FactorMode(acts map[string]func() error) (err error) {
	logLevel := helper.ReadValueFromEnvWithDefault(envVarLogLevel, "warn")
	log := logger.NewLogger(c.ServiceName, logLevel, stackDumpOnPanic)
	log.Info("snowmerge is running in 12 Factor mode...")
	for _, k := range twelveFactorVars { // for each env variable that we use...
		if _, sensitive := twelveFactorVarsSensitive[k]; sensitive {
			log.Debug(k, " set = ", os.Getenv(k) != "")
		} else {
			log.Debug(k, "=", os.Getenv(k))
		}
	}
	command := strings.ToLower(strings.TrimSpace(os.Getenv(envVarCommand)))
	run, ok := acts[command]
	if !ok {
		err = fmt.Errorf("invalid command %q in %v", command, envVarCommand)
		log.Error(err.Error())
		return
	}
	if err = run(); err != nil {
		log.Error("Error: ", err)
	}
	return err
}
