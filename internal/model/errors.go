package model

import "fmt"

// Error represents a civ6map decoding error
type Error struct {
	Code    string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error of the same kind
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// With returns a copy of e carrying a more specific message
func (e *Error) With(format string, args ...interface{}) *Error {
	return &Error{
		Code:    e.Code,
		Message: e.Message + ": " + fmt.Sprintf(format, args...),
		Cause:   e.Cause,
	}
}

// Wrap returns a copy of e with cause attached
func (e *Error) Wrap(cause error) *Error {
	return &Error{Code: e.Code, Message: e.Message, Cause: cause}
}

// Error kinds. All of them abort decoding of the file.
var (
	ErrBadMagic            = &Error{Code: "bad_magic", Message: "not a Civilization VI save (missing CIV6 signature)"}
	ErrNoCompressedBlock   = &Error{Code: "no_compressed_block", Message: "no compressed block found"}
	ErrNoMapInAnyBlock     = &Error{Code: "no_map", Message: "no compressed block contains a map"}
	ErrMapNotFound         = &Error{Code: "map_not_found", Message: "no map marker in game-state stream"}
	ErrUnrecognizedMapSize = &Error{Code: "unrecognized_map_size", Message: "unrecognized map size"}
	ErrTruncatedRecord     = &Error{Code: "truncated_record", Message: "truncated map record"}
	ErrNoFogTable          = &Error{Code: "no_fog_table", Message: "no visibility table found"}
)
