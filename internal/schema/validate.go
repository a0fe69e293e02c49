package schema

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"

	"github.com/cloe-engine/cloe/internal/confval"
)

// Validate encodes a confval.Map and unifies it against the named
// definition, returning every structural or type error CUE reports.
// A nil slice means the value conforms.
func (r *Registry) Validate(definition string, v confval.Map) ([]*Error, error) {
	def, ok := r.defs[definition]
	if !ok {
		return nil, fmt.Errorf("unknown schema definition %q", definition)
	}

	goVal, err := toPlainGo(v)
	if err != nil {
		return []*Error{{Code: ErrEncodeFail, Field: "$", Message: err.Error()}}, nil
	}

	candidate := r.ctx.Encode(goVal)
	if candidate.Err() != nil {
		return []*Error{{Code: ErrEncodeFail, Field: "$", Message: candidate.Err().Error()}}, nil
	}

	unified := def.Unify(candidate)
	if err := unified.Validate(cue.Concrete(false), cue.All()); err != nil {
		return collectErrors(err), nil
	}
	return nil, nil
}

func collectErrors(err error) []*Error {
	var out []*Error
	for _, e := range errors.Errors(err) {
		se := &Error{
			Code:    ErrUnificationFail,
			Field:   fieldPathOf(e),
			Message: e.Error(),
		}
		if positions := errors.Positions(e); len(positions) > 0 {
			se.Pos = positions[0]
		}
		out = append(out, se)
	}
	return out
}

func fieldPathOf(e errors.Error) string {
	path := e.Path()
	if len(path) == 0 {
		return "$"
	}
	s := ""
	for i, seg := range path {
		if i > 0 {
			s += "."
		}
		s += seg
	}
	return s
}

// toPlainGo converts a confval.Map tree into plain Go maps/slices so
// cue.Context.Encode can ingest it without needing to know about
// confval's sealed Value types.
func toPlainGo(v confval.Value) (any, error) {
	switch val := v.(type) {
	case nil, confval.Null:
		return nil, nil
	case confval.String:
		return string(val), nil
	case confval.Int:
		return int64(val), nil
	case confval.Float:
		return float64(val), nil
	case confval.Bool:
		return bool(val), nil
	case confval.Array:
		out := make([]any, len(val))
		for i, elem := range val {
			g, err := toPlainGo(elem)
			if err != nil {
				return nil, fmt.Errorf("index %d: %w", i, err)
			}
			out[i] = g
		}
		return out, nil
	case confval.Map:
		out := make(map[string]any, len(val))
		for k, elem := range val {
			g, err := toPlainGo(elem)
			if err != nil {
				return nil, fmt.Errorf("key %q: %w", k, err)
			}
			out[k] = g
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported confval.Value type %T", v)
	}
}
