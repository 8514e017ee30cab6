package plugin_loader

import (
	"fmt"
	"os"
	"path/filepath"
	"plugin"
	"strings"

	"github.com/relloyd/snowmerge/constants"
)

const symbolName = "Exports"

type Loc []string

// Locations are searched in order, after the directory of the running executable.
var Locations = Loc{
	"/usr/local/lib",
}

func (l Loc) String() string {
	tmp := make([]string, 0, len(l))
	for _, v := range l {
		tmp = append(tmp, fmt.Sprintf("'%v'", v))
	}
	return strings.Join(tmp, ", ")
}

// searchPath returns the directories used to find plugins:
// the executable's directory, then Locations, then the directory in environment variable SM_PLUGIN_DIR.
func searchPath() Loc {
	l := make(Loc, 0, len(Locations)+2)
	if ex, err := os.Executable(); err == nil {
		if exReal, err := filepath.EvalSymlinks(ex); err == nil {
			l = append(l, filepath.Dir(exReal))
		}
	}
	l = append(l, Locations...)
	if d := os.Getenv(constants.EnvVarPluginDir); d != "" {
		l = append(l, d)
	}
	return l
}

// LoadPluginExports opens the named plugin and returns its exported symbol "Exports".
func LoadPluginExports(pluginName string) (interface{}, error) {
	var errs []string
	for _, dir := range searchPath() { // for each location...
		fullPath := filepath.Join(dir, pluginName)
		plug, err := plugin.Open(fullPath)
		if err != nil {
			errs = append(errs, fmt.Sprintf("%v: %v", fullPath, err))
			continue
		}
		t, err := plug.Lookup(symbolName)
		if err != nil {
			return nil, fmt.Errorf("symbol %v not found in plugin %v: %w", symbolName, fullPath, err)
		}
		return t, nil
	}
	if os.Getenv(constants.EnvVarPluginDir) == "" {
		errs = append(errs, fmt.Sprintf("environment variable %v not set", constants.EnvVarPluginDir))
	}
	// Build one error string from all errors.
	var errTxt string
	for i, e := range errs { // for each error returned...
		// Build one combined string of format: (<n>) <error>
		errTxt = fmt.Sprintf("%v (%v) %v", errTxt, i+1, e)
	}
	return nil, fmt.Errorf("unable to load plugin %v due to the following error(s): %v", pluginName, strings.TrimSpace(errTxt))
}
