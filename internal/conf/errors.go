package conf

import "fmt"

// Error reports a failure reading, merging, or looking up a Conf tree.
// Code is a short machine-checkable string (see the Err* constants); File
// and Pointer pinpoint where in the configuration tree the problem was
// found, mirroring how a compiler error names a source position.
type Error struct {
	Code    string
	Message string
	File    string
	Pointer string
}

func (e *Error) Error() string {
	if e.File == "" && e.Pointer == "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	if e.Pointer == "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.File)
	}
	return fmt.Sprintf("%s: %s (%s%s)", e.Code, e.Message, e.File, e.Pointer)
}

// Error codes for Conf-layer failures. Schema- and model-layer errors use
// their own code ranges (see internal/schema and internal/stack).
const (
	ErrNotFound      = "C001" // pointer does not resolve to any node
	ErrTypeMismatch  = "C002" // node exists but is not the expected shape
	ErrInvalidPath   = "C003" // malformed JSON pointer
	ErrMergeConflict = "C004" // two sources set the same scalar with different values under a non-mergeable policy
	ErrParse         = "C005" // the underlying JSON/YAML could not be decoded
)

func newError(code, msg, file, ptr string) *Error {
	return &Error{Code: code, Message: msg, File: file, Pointer: ptr}
}
