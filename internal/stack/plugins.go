package stack

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cloe-engine/cloe/internal/conf"
	"github.com/cloe-engine/cloe/internal/confval"
)

// pluginSuffix is the shared-library extension this build's platform
// expects Go plugins to use.
const pluginSuffix = ".so"

// scanPluginPaths iterates every cumulative plugin-path directory not
// yet scanned and loads each shared-library entry with ignore-missing
// enabled (a directory listing a non-plugin .so is skipped, not fatal).
func (s *Stack) scanPluginPaths(ctx context.Context) error {
	for _, dir := range s.pluginPath {
		if s.scannedDirs[dir] {
			continue
		}
		s.scannedDirs[dir] = true

		entries, err := os.ReadDir(dir)
		if err != nil {
			if os.IsNotExist(err) {
				continue // ignore-missing
			}
			return &Error{Code: ErrPluginLoad, Message: fmt.Sprintf("scan plugin path %s: %v", dir, err)}
		}
		for _, ent := range entries {
			if ent.IsDir() || filepath.Ext(ent.Name()) != pluginSuffix {
				continue
			}
			path := filepath.Join(dir, ent.Name())
			if _, err := s.registry.Load(ctx, path, false); err != nil {
				// Directory scanning treats a bad plugin as skip, not fatal,
				// unlike an explicit /plugins entry.
				continue
			}
		}
	}
	return nil
}

// applyExplicitPlugins loads each entry under /plugins, honoring
// ignore_missing, ignore_failure, and allow_clobber.
func (s *Stack) applyExplicitPlugins(ctx context.Context, layer *conf.Conf, file string) error {
	v, err := layer.Get("/plugins")
	if err != nil {
		return nil // no explicit plugins in this layer
	}
	arr, ok := v.(confval.Array)
	if !ok {
		return &Error{Code: ErrMissingRequired, Message: "\"plugins\" must be an array", File: file, Pointer: "/plugins"}
	}

	for i, item := range arr {
		entry, err := parsePluginEntry(item)
		if err != nil {
			return &Error{Code: ErrMissingRequired, Message: err.Error(), File: file, Pointer: fmt.Sprintf("/plugins/%d", i)}
		}

		path := entry.Path
		if _, statErr := os.Stat(path); statErr != nil {
			if entry.IgnoreMissing {
				continue
			}
			return &Error{Code: ErrPluginLoad, Message: fmt.Sprintf("plugin %s: %v", path, statErr), File: file, Pointer: fmt.Sprintf("/plugins/%d", i)}
		}

		clobbered, loadErr := s.registry.Load(ctx, path, entry.AllowClobber)
		if loadErr != nil {
			if entry.IgnoreFailure {
				continue
			}
			return &Error{Code: ErrPluginLoad, Message: loadErr.Error(), File: file, Pointer: fmt.Sprintf("/plugins/%d", i)}
		}
		_ = clobbered // logging a clobber warning is the CLI layer's job
	}
	return nil
}

func parsePluginEntry(v confval.Value) (PluginEntry, error) {
	m, ok := v.(confval.Map)
	if !ok {
		return PluginEntry{}, fmt.Errorf("plugin entry must be an object")
	}
	entry := PluginEntry{}
	if p, ok := m["path"].(confval.String); ok {
		entry.Path = string(p)
	} else {
		return entry, fmt.Errorf("plugin entry missing required \"path\"")
	}
	if n, ok := m["name"].(confval.String); ok {
		entry.Name = string(n)
	}
	if b, ok := m["ignore_missing"].(confval.Bool); ok {
		entry.IgnoreMissing = bool(b)
	}
	if b, ok := m["ignore_failure"].(confval.Bool); ok {
		entry.IgnoreFailure = bool(b)
	}
	if b, ok := m["allow_clobber"].(confval.Bool); ok {
		entry.AllowClobber = bool(b)
	}
	return entry, nil
}
