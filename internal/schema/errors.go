package schema

import (
	"fmt"

	"cuelang.org/go/cue/token"
)

// Error reports a single schema-validation failure against a Stack
// configuration or plugin manifest, with a CUE source position when one
// is available (top-level structural errors from Encode may not have
// one).
type Error struct {
	Field   string
	Message string
	Code    string
	Pos     token.Pos
}

func (e *Error) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Error codes, continuing the S1xx range used for schema-layer failures
// (the Conf layer uses C0xx, the compiler-derived stack layer uses ST1xx
// — see internal/stack/errors.go).
const (
	ErrUnknownSchema    = "S100" // Validate called against a schema name the Registry never loaded
	ErrUnificationFail  = "S101" // the candidate value does not unify with its schema
	ErrEncodeFail       = "S102" // the Go value could not be encoded into a cue.Value at all
	ErrMissingField     = "S103"
	ErrUnknownField     = "S104" // strict-object violation (spec: "Unknown keys under strict-object containers are errors")
	ErrIncompatibleType = "S105"
)
