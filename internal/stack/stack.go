// Package stack implements the Stack aggregate: the ordered
// configuration tree assembled by merging the system config, zero or
// more included stack files, and command-line overrides, validated
// against the schema registry and resolved against a plugin registry.
package stack

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/cloe-engine/cloe/internal/conf"
	"github.com/cloe-engine/cloe/internal/confval"
	"github.com/cloe-engine/cloe/internal/plugin"
	"github.com/cloe-engine/cloe/internal/schema"
)

// IncludeReader resolves an include path (already `${VAR}`-interpolated
// by the caller) to its parsed root map and the canonical file name to
// record as provenance.
type IncludeReader func(path string) (root confval.Map, file string, err error)

// Stack is the Stack(top-level) from the Data Model: an ordered
// configuration tree with persistent plugin-discovery and provenance
// state threaded through every layer merged into it.
type Stack struct {
	conf        *conf.Conf
	scannedDirs map[string]bool
	registry    *plugin.Registry
	schemaReg   *schema.Registry
	inputs      []InputLayer
	ignore      []string
	security    SecuritySettings
	hooks       Hooks
	pluginPath  []string
	readInclude IncludeReader
	interpolate func(s string, file string) (string, bool)
}

// InputLayer is one raw Conf as it was applied, retained in order for
// input_config() reproduction.
type InputLayer struct {
	File string
	Root confval.Map
}

// New constructs an empty Stack.
func New(registry *plugin.Registry, schemaReg *schema.Registry, readInclude IncludeReader, interpolate func(s, file string) (string, bool)) *Stack {
	return &Stack{
		conf:        conf.New(),
		scannedDirs: map[string]bool{},
		registry:    registry,
		schemaReg:   schemaReg,
		security:    DefaultSecuritySettings(),
		readInclude: readInclude,
		interpolate: interpolate,
	}
}

// FromConf merges one configuration layer following the eight-step
// order: version check, ignores, engine block (first pass), includes
// (recursive, depth-guarded), engine block (second pass, so a parent's
// explicit settings win over an included child's), plugin-path scan,
// explicit plugins, and finally residual schema validation deferred to
// Validate (called once by the CLI when the user intends to run).
func (s *Stack) FromConf(ctx context.Context, root confval.Map, file string, depth int) error {
	// Step 1: version check.
	versionVal, ok := root["version"]
	if !ok {
		return &Error{Code: ErrMissingRequired, Message: "missing required field \"version\"", File: file, Pointer: "/version"}
	}
	versionStr, ok := versionVal.(confval.String)
	if !ok {
		return &Error{Code: ErrMissingRequired, Message: "\"version\" must be a string", File: file, Pointer: "/version"}
	}
	if !SupportedVersions[string(versionStr)] {
		return &Error{
			Code:    ErrVersionMismatch,
			Message: fmt.Sprintf("unsupported config version %q; this engine understands %s — see the migration guide", versionStr, supportedVersionsList()),
			File:    file,
			Pointer: "/version",
		}
	}

	layer := conf.FromValue(root, file)

	// Step 2: ignores.
	if ignoreVal, err := layer.Get("/engine/ignore"); err == nil {
		if arr, ok := ignoreVal.(confval.Array); ok {
			for _, v := range arr {
				if p, ok := v.(confval.String); ok {
					s.ignore = append(s.ignore, string(p))
					_ = layer.Erase(string(p))
				}
			}
		}
	}

	// Step 3: engine block, first pass (so include-depth and plugin
	// path directives take effect before includes are processed).
	s.applyEngineBlock(layer, file)

	// Step 4: includes.
	if includeVal, err := layer.Get("/include"); err == nil {
		if arr, ok := includeVal.(confval.Array); ok {
			for i, v := range arr {
				p, ok := v.(confval.String)
				if !ok {
					continue
				}
				if err := s.processInclude(ctx, string(p), file, depth, i); err != nil {
					return err
				}
			}
		}
	}

	// Step 5: engine block, second pass — this layer's own settings
	// override anything an included child set.
	s.applyEngineBlock(layer, file)

	// Step 6: plugin-path scan.
	if err := s.scanPluginPaths(ctx); err != nil {
		return err
	}

	// Step 7: explicit plugins.
	if err := s.applyExplicitPlugins(ctx, layer, file); err != nil {
		return err
	}

	// Merge this layer's tree into the cumulative config: its engine,
	// include and plugins blocks are merged too (only the /engine/ignore
	// pointers were erased above).
	s.conf.Merge(layer.Root(), file)
	s.inputs = append(s.inputs, InputLayer{File: file, Root: root})

	return nil
}

func supportedVersionsList() string {
	out := ""
	for v := range SupportedVersions {
		if out != "" {
			out += ", "
		}
		out += v
	}
	return out
}

func (s *Stack) processInclude(ctx context.Context, path, parentFile string, depth, index int) error {
	if depth+1 > s.security.MaxIncludeDepth {
		return &Error{
			Code:    ErrIncludeCycle,
			Message: fmt.Sprintf("maximum include recursion depth reached: %d", s.security.MaxIncludeDepth),
			File:    parentFile,
			Pointer: fmt.Sprintf("/include/%d", index),
		}
	}

	resolved := path
	if s.interpolate != nil {
		expanded, ok := s.interpolate(path, parentFile)
		if !ok {
			return &Error{Code: ErrInterpolation, Message: fmt.Sprintf("undefined variable in include path %q", path), File: parentFile, Pointer: fmt.Sprintf("/include/%d", index)}
		}
		resolved = expanded
	}
	if !filepath.IsAbs(resolved) && parentFile != "" {
		resolved = filepath.Join(filepath.Dir(parentFile), resolved)
	}

	root, file, err := s.readInclude(resolved)
	if err != nil {
		return &Error{Code: ErrIncludeCycle, Message: fmt.Sprintf("resolve include %q: %v", resolved, err), File: parentFile, Pointer: fmt.Sprintf("/include/%d", index)}
	}

	return s.FromConf(ctx, root, file, depth+1)
}

func (s *Stack) applyEngineBlock(layer *conf.Conf, file string) {
	if v, err := layer.Get("/engine/security/max_include_depth"); err == nil {
		if i, ok := v.(confval.Int); ok {
			s.security.MaxIncludeDepth = int(i)
		}
	}
	if v, err := layer.Get("/engine/security/enable_hooks"); err == nil {
		if b, ok := v.(confval.Bool); ok {
			s.security.EnableHooks = bool(b)
		}
	}
	if v, err := layer.Get("/engine/security/enable_command_action"); err == nil {
		if b, ok := v.(confval.Bool); ok {
			s.security.EnableCommandAction = bool(b)
		}
	}
	if v, err := layer.Get("/engine/security/secure_mode"); err == nil {
		if b, ok := v.(confval.Bool); ok {
			s.security.SecureMode = bool(b)
		}
	}
	if v, err := layer.Get("/engine/plugin_path"); err == nil {
		if arr, ok := v.(confval.Array); ok {
			for _, item := range arr {
				if p, ok := item.(confval.String); ok {
					s.pluginPath = append(s.pluginPath, string(p))
				}
			}
		}
	}
	if v, err := layer.Get("/engine/hooks/pre_connect"); err == nil {
		if arr, ok := v.(confval.Array); ok {
			s.hooks.PreConnect = nil
			for _, item := range arr {
				if c, ok := item.(confval.String); ok {
					s.hooks.PreConnect = append(s.hooks.PreConnect, string(c))
				}
			}
		}
	}
	if v, err := layer.Get("/engine/hooks/post_disconnect"); err == nil {
		if arr, ok := v.(confval.Array); ok {
			s.hooks.PostDisconnect = nil
			for _, item := range arr {
				if c, ok := item.(confval.String); ok {
					s.hooks.PostDisconnect = append(s.hooks.PostDisconnect, string(c))
				}
			}
		}
	}
}

// Security returns the cumulative /engine/security settings.
func (s *Stack) Security() SecuritySettings { return s.security }

// HookCommands returns the cumulative pre-connect and post-disconnect
// hook command lists.
func (s *Stack) HookCommands() Hooks { return s.hooks }

// Conf exposes the merged configuration tree for read access (e.g. by
// `dump`/`usage` CLI commands).
func (s *Stack) Conf() *conf.Conf { return s.conf }

// InputConfig returns the ordered list of raw Confs as applied, for
// `input_config()` reproduction.
func (s *Stack) InputConfig() []InputLayer { return s.inputs }
