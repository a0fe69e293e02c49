package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cloe-engine/cloe/internal/confval"
)

// readConfigFile decodes path (JSON or YAML, by extension) into a
// confval.Map suitable for Stack.FromConf. YAML is decoded generically
// and round-tripped through JSON so confval's own decoder (which only
// understands JSON) does the actual type tagging.
func readConfigFile(path string) (confval.Map, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		var generic any
		if err := yaml.Unmarshal(data, &generic); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		jsonData, err := json.Marshal(generic)
		if err != nil {
			return nil, fmt.Errorf("convert %s to json: %w", path, err)
		}
		data = jsonData
	}

	val, err := confval.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	root, ok := val.(confval.Map)
	if !ok {
		return nil, fmt.Errorf("%s: top-level value must be an object", path)
	}
	return root, nil
}

var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// interpolateEnv substitutes ${VAR} references against the process
// environment. The second return reports whether every reference
// resolved; undefinedOK controls whether an unresolved reference is
// left as-is (true) or reported as missing (false) — the CLI's
// --interpolate-undefined flag toggles which behavior the caller wants.
func interpolateEnv(undefinedOK bool) func(s, file string) (string, bool) {
	return func(s, file string) (string, bool) {
		ok := true
		out := envVarPattern.ReplaceAllStringFunc(s, func(m string) string {
			name := strings.TrimSuffix(strings.TrimPrefix(m, "${"), "}")
			if v, present := os.LookupEnv(name); present {
				return v
			}
			if !undefinedOK {
				ok = false
			}
			return m
		})
		return out, ok
	}
}

// resolveInclude builds the IncludeReader used by Stack.FromConf: include
// paths are resolved relative to the including file's directory.
func resolveInclude(interpolate bool, undefinedOK bool) func(path string) (confval.Map, string, error) {
	return func(path string) (confval.Map, string, error) {
		resolved := path
		if interpolate {
			s, _ := interpolateEnv(undefinedOK)(path, "")
			resolved = s
		}
		root, err := readConfigFile(resolved)
		if err != nil {
			return nil, "", err
		}
		return root, resolved, nil
	}
}
