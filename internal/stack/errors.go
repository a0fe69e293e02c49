package stack

import "fmt"

// Error is a Stack-assembly or validation failure, reported with the
// source file and JSON pointer of the offending node per §4.1's error
// list (duplicate short name, missing required field, wrong type,
// unknown key, version mismatch, include cycle, missing
// simulator/vehicle/controller, unresolved reference, unknown
// event/action name).
type Error struct {
	Code    string
	Message string
	File    string
	Pointer string
}

func (e *Error) Error() string {
	if e.File == "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s (%s%s)", e.Code, e.Message, e.File, e.Pointer)
}

const (
	ErrVersionMismatch    = "ST100"
	ErrIncludeCycle       = "ST101"
	ErrDuplicateShortName = "ST102"
	ErrMissingRequired    = "ST103"
	ErrUnresolvedRef      = "ST104"
	ErrUnknownEventAction = "ST105"
	ErrIncompleteStack    = "ST106" // missing at least one simulator/vehicle/controller
	ErrReservedName       = "ST107"
	ErrPluginLoad         = "ST108"
	ErrInterpolation      = "ST109"
)
