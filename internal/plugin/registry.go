package plugin

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
)

// Registry holds every plugin discovered across the configured search
// paths, keyed by canonical path (unique) and by short name (unique
// unless clobber is allowed).
type Registry struct {
	byPath  map[string]entry
	byName  map[string]entry
	cache   *Cache
	nowUnix func() int64
}

type entry struct {
	manifest *Manifest
	factory  Factory
}

// NewRegistry builds an empty registry. cache may be nil, in which case
// every plugin is probed fresh (no discovery cache). nowUnix supplies
// the current Unix timestamp for cache writes; tests can pass a fixed
// clock for determinism.
func NewRegistry(cache *Cache, nowUnix func() int64) *Registry {
	return &Registry{
		byPath:  map[string]entry{},
		byName:  map[string]entry{},
		cache:   cache,
		nowUnix: nowUnix,
	}
}

// Load probes a single shared object at path and inserts it, honoring
// the registry's duplication rules:
//   - a second insertion at the same canonical path is a silent skip
//   - a duplicate short name is an error unless allowClobber is set, in
//     which case the later plugin wins and a warning is the caller's
//     responsibility to log (Load returns a boolean indicating a clobber
//     occurred so the caller can do so).
func (r *Registry) Load(ctx context.Context, path string, allowClobber bool) (clobbered bool, err error) {
	canonical, err := filepath.Abs(path)
	if err != nil {
		return false, fmt.Errorf("resolve canonical path for %s: %w", path, err)
	}

	if _, exists := r.byPath[canonical]; exists {
		return false, nil // duplicate canonical path: silent skip
	}

	m, factory, err := r.probeWithCache(ctx, canonical)
	if err != nil {
		return false, err
	}

	name := m.ShortName
	if name == "" {
		name = filepath.Base(canonical)
	}
	m.ShortName = name

	if existing, exists := r.byName[name]; exists {
		if !allowClobber {
			return false, fmt.Errorf("duplicate plugin short name %q: %s and %s", name, existing.manifest.CanonicalPath, canonical)
		}
		clobbered = true
	}

	e := entry{manifest: m, factory: factory}
	r.byPath[canonical] = e
	r.byName[name] = e
	return clobbered, nil
}

func (r *Registry) probeWithCache(ctx context.Context, canonical string) (*Manifest, Factory, error) {
	// Probing opens the .so every time, because Go's plugin package is
	// the only source of the Factory value; the decoded manifest is then
	// written to the cache, which this package never reads back.
	m, factory, err := Probe(canonical)
	if err != nil {
		return nil, nil, err
	}
	if r.cache != nil {
		if err := r.cache.Put(ctx, m, r.nowUnix()); err != nil {
			return nil, nil, err
		}
	}
	return m, factory, nil
}

// Lookup resolves a plugin by the short name used in a Stack's
// `binding` field.
func (r *Registry) Lookup(name string) (*Manifest, Factory, bool) {
	e, ok := r.byName[name]
	if !ok {
		return nil, nil, false
	}
	return e.manifest, e.factory, true
}

// Manifests returns every registered manifest sorted by canonical path,
// for deterministic `probe`/`check` output.
func (r *Registry) Manifests() []*Manifest {
	out := make([]*Manifest, 0, len(r.byPath))
	for _, e := range r.byPath {
		out = append(out, e.manifest)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CanonicalPath < out[j].CanonicalPath })
	return out
}
