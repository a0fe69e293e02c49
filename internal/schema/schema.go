// Package schema compiles the CUE definitions backing cloe's Stack
// configuration and plugin manifests, and validates candidate values
// against them.
package schema

import (
	"embed"
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
)

//go:embed cue/*.cue
var cueFS embed.FS

// Registry holds a compiled CUE context plus the named top-level
// definitions (#Stack, #PluginManifest, ...) that Validate checks
// candidate values against.
type Registry struct {
	ctx   *cue.Context
	defs  map[string]cue.Value
	files map[string]string // definition name -> source file it came from, for diagnostics
}

// NewRegistry compiles the built-in schema definitions. It never fails
// under normal operation (the embedded CUE is part of the binary); a
// compile error here indicates the embedded schema itself is broken.
func NewRegistry() (*Registry, error) {
	ctx := cuecontext.New()

	entries, err := cueFS.ReadDir("cue")
	if err != nil {
		return nil, fmt.Errorf("read embedded schema dir: %w", err)
	}

	r := &Registry{ctx: ctx, defs: map[string]cue.Value{}, files: map[string]string{}}

	var combined cue.Value
	for _, ent := range entries {
		data, err := cueFS.ReadFile("cue/" + ent.Name())
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", ent.Name(), err)
		}
		v := ctx.CompileBytes(data, cue.Filename(ent.Name()))
		if v.Err() != nil {
			return nil, fmt.Errorf("compile %s: %w", ent.Name(), formatCUEError(v.Err()))
		}
		if !combined.Exists() {
			combined = v
		} else {
			combined = combined.Unify(v)
		}
	}
	if err := combined.Err(); err != nil {
		return nil, fmt.Errorf("unify embedded schema: %w", formatCUEError(err))
	}

	for _, name := range []string{"#Stack", "#PluginManifest"} {
		def := combined.LookupPath(cue.ParsePath(name))
		if !def.Exists() {
			return nil, fmt.Errorf("embedded schema missing definition %s", name)
		}
		r.defs[name] = def
	}

	return r, nil
}

// Definition returns a named top-level CUE definition ("#Stack",
// "#PluginManifest"), for callers that want to unify or encode against
// it directly rather than going through Validate.
func (r *Registry) Definition(name string) (cue.Value, bool) {
	v, ok := r.defs[name]
	return v, ok
}

func formatCUEError(err error) error {
	if err == nil {
		return nil
	}
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}
	return errs[0]
}
