package conf

import "strings"

// Interpolator expands "${NAME}" and "${NAME-default}" references in a
// string against a resolver function. Per-file context values such as
// THIS_STACKFILE_FILE take precedence over the process environment by
// being folded into the same resolver closure at the call site.
type Interpolator struct {
	Lookup func(name string) (string, bool)
}

// Expand scans s for ${...} references and substitutes them. A reference
// with no "-default" suffix that the resolver cannot find is left
// untouched by the raw scan but reported via ok=false so the caller (the
// stack loader) can turn it into a ConfError pointing at the offending
// file and pointer.
func (in Interpolator) Expand(s string) (result string, ok bool) {
	var b strings.Builder
	ok = true
	i := 0
	for i < len(s) {
		start := strings.Index(s[i:], "${")
		if start < 0 {
			b.WriteString(s[i:])
			break
		}
		start += i
		b.WriteString(s[i:start])

		end := strings.Index(s[start:], "}")
		if end < 0 {
			// Unterminated reference: copy through verbatim.
			b.WriteString(s[start:])
			i = len(s)
			break
		}
		end += start

		ref := s[start+2 : end]
		name, def, hasDefault := splitDefault(ref)

		if val, found := in.Lookup(name); found {
			b.WriteString(val)
		} else if hasDefault {
			b.WriteString(def)
		} else {
			ok = false
			b.WriteString(s[start : end+1])
		}

		i = end + 1
	}
	return b.String(), ok
}

func splitDefault(ref string) (name, def string, hasDefault bool) {
	idx := strings.Index(ref, "-")
	if idx < 0 {
		return ref, "", false
	}
	return ref[:idx], ref[idx+1:], true
}

// EnvLookup adapts os.LookupEnv (or a test double) plus a set of
// per-file overlay values (THIS_STACKFILE_FILE, THIS_STACKFILE_DIR) into
// a single Interpolator.Lookup function, overlay taking precedence.
func EnvLookup(osLookup func(string) (string, bool), overlay map[string]string) func(string) (string, bool) {
	return func(name string) (string, bool) {
		if v, ok := overlay[name]; ok {
			return v, true
		}
		return osLookup(name)
	}
}
