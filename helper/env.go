package helper

import (
	"fmt"
	"os"
	"strings"

	"github.com/relloyd/snowmerge/constants"
)

// GetEnvVar fetches OS environment variable.
// If the variable is not set it returns empty string.
// It also returns an error if there is a missing value AND mandatory == true.
func GetEnvVar(k string, mandatory bool) (string, error) {
	if value := os.Getenv(k); value != "" {
		return value, nil
	}
	if mandatory {
		return "", fmt.Errorf("environment variable %v is not set", k)
	}
	return "", nil
}

// ReadValueFromEnv will read the env var called name and populate the supplied val.
// If the env var is not set then return an error and leave val alone.
func ReadValueFromEnv(name string, val *string) error {
	v := os.Getenv(name)
	if v == "" { // if there was no environment variable set...
		return fmt.Errorf("value for environment variable %v not found", name)
	}
	*val = v
	return nil
}

// ReadValueFromEnvWithDefault will read the value of name from the environment into v.
// If it's not set then it will apply the supplied defaultValue and return v.
func ReadValueFromEnvWithDefault(name string, defaultValue string) (v string) {
	if err := ReadValueFromEnv(name, &v); err != nil {
		v = defaultValue
	}
	return
}

// GetDsnEnvVarName returns the name of the variable that may hold a full DSN for connectionName,
// e.g. SM_SOURCE_DSN.
func GetDsnEnvVarName(connectionName string) string {
	n := strings.TrimSpace(strings.ToUpper(connectionName))
	return fmt.Sprintf("%v_%v_DSN", constants.EnvVarPrefix, n)
}
