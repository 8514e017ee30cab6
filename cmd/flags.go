package cmd

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"

	"github.com/relloyd/snowmerge/config"
	"github.com/relloyd/snowmerge/constants"
	"github.com/relloyd/snowmerge/helper"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

type cliFlag struct {
	name      string // name of flag
	val       string // default value
	shortHand string // single character name for the flag
	desc      string // description of the flag; the long text
}

type cliFlags map[string]cliFlag

var switches = cliFlags{
	"mock": cliFlag{name: "mock", shortHand: "m", desc: "mock switch for testing"},
	"tables": cliFlag{name: "tables", shortHand: "t",
		desc: "Ordered CSV of <table>:<primary key> pairs to copy, where table may be [<schema>.]<table>"},
	"tables-file": cliFlag{name: "tables-file", shortHand: "T",
		desc: "YAML or JSON file listing tables to copy (takes priority over --tables). Use format:\n" +
			"tables: [{table: <name>, primaryKey: <column>}, ...]"},
	"env-file": cliFlag{name: "env-file", shortHand: "e",
		desc: "File of KEY=value lines added to the environment before connection details are read.\n" +
			"Variables already set in the environment take priority"},
	"loader": cliFlag{name: "loader", shortHand: "L",
		desc: "How to load staging tables: \"insert\" (batched bind INSERTs), \"put\" (gzip CSV\n" +
			"files uploaded to a temporary internal stage) or \"s3\" (gzip CSV files uploaded to\n" +
			"an S3 bucket behind an existing external stage)"},
	"batch-rows": cliFlag{name: "batch-rows", shortHand: "B",
		desc: "Number of rows combined into a single INSERT statement when using the insert loader (max 16384)"},
	"stage": cliFlag{name: "stage", shortHand: "s",
		desc: "The external Snowflake stage name to load data from. Only required for the s3 loader"},
	"s3-bucket": cliFlag{name: "s3-bucket", shortHand: "b",
		desc: "AWS S3 bucket name in which to stage CSV files. Only required for the s3 loader \n" +
			"(set AWS environment variables for access)"},
	"s3-prefix": cliFlag{name: "s3-prefix", shortHand: "P",
		desc: "AWS S3 bucket prefix, matching the URL of the external stage"},
	"s3-region": cliFlag{name: "s3-region", shortHand: "R",
		desc: "AWS S3 bucket region"},
	"csv-dir": cliFlag{name: "csv-dir", shortHand: "D",
		desc: "Directory for CSV files written by the put and s3 loaders (default is a new temp dir)"},
	"csv-bytes": cliFlag{name: "csv-bytes", shortHand: "y",
		desc: "Max number of bytes a CSV file should grow to before a\n" +
			"new one is created (0 for unlimited)"},
	"csv-rows": cliFlag{name: "csv-rows", shortHand: "r",
		desc: "Max number of rows to store in a single CSV file (0 for unlimited)"},
	"repeat": cliFlag{name: "repeat", shortHand: "i",
		desc: "Optional: the interval in seconds to sleep between runs over all tables. \n" +
			"Use 0 to disable repeating"},
	"port": cliFlag{name: "port", shortHand: "p",
		desc: "Port for a status web server exposing /health, /status and /stop (0 to disable)"},
	"output": cliFlag{name: "output", shortHand: "o",
		desc: "Specify \"yaml\" or \"json\" to print the results to STDOUT"},
	"log-level": cliFlag{name: "log-level", shortHand: "l",
		desc: "Log level: \"error | warn | info | debug\""},
	"log-dir": cliFlag{name: "log-dir", shortHand: "d",
		desc: "Directory for per-run log files; lines are written to STDOUT and the file.\n" +
			"Set to \"\" to log to STDERR only"},
}

// addFlag add a flag to cobra.Command c, based on the type of targetVar (which must be a pointer).
// The name of the flag is looked up in map, cliFlags.
// When running in twelveFactorMode, the targetVar is populated using the value of environment variable for the supplied
// name, or if not set then the supplied default value is used.
// When NOT running in twelveFactorMode, the default value is fetched from config if it exists else the supplied
// defaultValue is applied.
// The flag is marked as required in Cobra based on the value of required.
// Supply a value for desc2 to append to the existing description found in map cliFlags.
func (f *cliFlags) addFlag(c *cobra.Command, targetVar interface{}, name string, defaultValue string, required bool, desc2 string) {
	v := reflect.ValueOf(targetVar)
	if v.Kind() != reflect.Ptr {
		fmt.Println("error adding flag: targetVar must be a pointer")
		os.Exit(1)
	}
	sw := f.getCliFlag(name, defaultValue, config.Main.Get) // get the cliFlag details, with defaults taken from config or the supplied defaultValue
	desc := sw.desc + desc2
	switch p := targetVar.(type) {
	case *string:
		if twelveFactorMode {
			*p = sw.val
		} else {
			c.Flags().StringVarP(p, sw.name, sw.shortHand, sw.val, desc)
			if sw.val != "" { // if there is a value via config or default...
				mustSetFlag(c.Flags(), sw.name, sw.val)
			}
		}
	case *bool:
		defaultBool := sw.val != "" && strings.ToLower(sw.val) != "false"
		if twelveFactorMode {
			*p = defaultBool
		} else {
			c.Flags().BoolVarP(p, sw.name, sw.shortHand, defaultBool, desc)
		}
	case *int:
		defaultInt := 0
		if sw.val != "" {
			var err error
			if defaultInt, err = strconv.Atoi(sw.val); err != nil {
				fmt.Printf("the value for flag %q must be an integer: %v\n", sw.name, err)
				os.Exit(1)
			}
		}
		if twelveFactorMode {
			*p = defaultInt
		} else {
			c.Flags().IntVarP(p, sw.name, sw.shortHand, defaultInt, desc)
		}
	default:
		panic("Error: unhandled CLI flag target value type")
	}
	// Optionally mark the flag as mandatory.
	if required && !twelveFactorMode { // if the flag is required...
		_ = c.MarkFlagRequired(sw.name)
	}
}

// getCliFlag fetches the value of name from the environment, when running in twelveFactorMode,
// else read the Main config file to find it.
// If a value cannot be found then use the supplied defaultValue in its place.
func (f *cliFlags) getCliFlag(name string, defaultValue string, fnGetConfig func(key string, out interface{}) error) cliFlag {
	s, ok := (*f)[name]
	if !ok {
		panic(fmt.Sprintf("unregistered CLI flag, %q", name))
	}
	if twelveFactorMode { // if we should read env vars...
		if err := helper.ReadValueFromEnv(flagNameToEnvVar(name), &s.val); err != nil { // if there's no value for the env var...
			s.val = defaultValue
		}
	} else { // else check the config file or apply default...
		err := fnGetConfig(s.name, &s.val)
		if errors.As(err, &config.KeyNotFoundError{}) || s.val == "" { // if there was no key found...
			s.val = defaultValue
		}
	}
	return s
}

// flagNameToEnvVar will form a sanitised environment variable name using constants.EnvVarPrefix.
func flagNameToEnvVar(name string) string {
	return constants.EnvVarPrefix + "_" + strings.ToUpper(strings.ReplaceAll(name, "-", "_"))
}

func mustSetFlag(f *pflag.FlagSet, name string, val string) {
	if err := f.Set(name, val); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
