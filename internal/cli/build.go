package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cloe-engine/cloe/internal/plugin"
	"github.com/cloe-engine/cloe/internal/schema"
	"github.com/cloe-engine/cloe/internal/stack"
)

// systemConfDir and systemPluginDir are consulted unless the
// corresponding --no-system-* flag is set; both are conventional unix
// locations, not spec-mandated paths.
const (
	systemConfDir   = "/etc/cloe/conf.d"
	systemPluginDir = "/usr/lib/cloe/plugins"
)

// buildStack assembles and merges a Stack from the given files plus
// whatever system configuration/plugin paths the flags allow,
// following the same FromConf layering Stack itself implements.
func buildStack(ctx context.Context, opts *RootOptions, files []string) (*stack.Stack, *plugin.Registry, error) {
	schemaReg, err := schema.NewRegistry()
	if err != nil {
		return nil, nil, fmt.Errorf("compile schema: %w", err)
	}

	cacheDir, _ := os.UserCacheDir()
	var cache *plugin.Cache
	if cacheDir != "" {
		_ = os.MkdirAll(filepath.Join(cacheDir, "cloe"), 0o755)
		if c, err := plugin.OpenCache(filepath.Join(cacheDir, "cloe", "plugins.db")); err == nil {
			cache = c
		}
	}
	registry := plugin.NewRegistry(cache, func() int64 { return 0 })

	interpolate := interpolateEnv(opts.InterpolateUndef)
	var interpFn func(s, file string) (string, bool)
	if opts.Interpolate {
		interpFn = interpolate
	}

	st := stack.New(registry, schemaReg, resolveInclude(opts.Interpolate, opts.InterpolateUndef), interpFn)

	pluginPaths := append([]string{}, opts.PluginPaths...)
	if !opts.NoSystemPlugins {
		pluginPaths = append(pluginPaths, systemPluginDir)
	}
	for _, p := range pluginPaths {
		entries, err := os.ReadDir(p)
		if err != nil {
			continue // a missing search path is not an error: it is simply empty
		}
		for _, e := range entries {
			if e.IsDir() || filepath.Ext(e.Name()) != ".so" {
				continue
			}
			_, _ = registry.Load(ctx, filepath.Join(p, e.Name()), false)
		}
	}

	if !opts.NoSystemConfs {
		if entries, err := os.ReadDir(systemConfDir); err == nil {
			for _, e := range entries {
				if e.IsDir() {
					continue
				}
				root, err := readConfigFile(filepath.Join(systemConfDir, e.Name()))
				if err != nil {
					continue
				}
				if err := st.FromConf(ctx, root, filepath.Join(systemConfDir, e.Name()), 0); err != nil {
					return nil, nil, err
				}
			}
		}
	}

	for _, f := range files {
		root, err := readConfigFile(f)
		if err != nil {
			return nil, nil, err
		}
		if err := st.FromConf(ctx, root, f, 0); err != nil {
			return nil, nil, fmt.Errorf("%s: %w", f, err)
		}
	}

	for _, p := range opts.IgnorePointers {
		_ = st.Conf().Erase(p)
	}

	st.ApplyDefaults()

	return st, registry, nil
}
