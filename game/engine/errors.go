package engine

import "errors"

// Code is a machine-readable error code
type Code string

const (
	CodeValidation       Code = "VALIDATION"
	CodeInvalidState     Code = "INVALID_STATE"
	CodeUnknownToken     Code = "UNKNOWN_TOKEN"
	CodeOutOfBounds      Code = "OUT_OF_BOUNDS"
	CodeIngenuityTooFar  Code = "INGENUITY_TOO_FAR"
	CodeDuplicateName    Code = "DUPLICATE_NAME"
	CodeNotEnoughBattery Code = "NOT_ENOUGH_BATTERY"
	CodeGameNotFound     Code = "GAME_NOT_FOUND"
	CodeUnauthorized     Code = "UNAUTHORIZED"
)

// Error is a recoverable game error. It never leaves a session in a partial state.
type Error struct {
	Code     Code
	Message  string
	Metadata map[string]string
}

func (e *Error) Error() string {
	return e.Message
}

// Is matches by code so callers can compare against the sentinels below
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// NewError creates an error with a code and message
func NewError(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WithMetadata creates an error carrying extra context for the caller
func WithMetadata(code Code, message string, metadata map[string]string) *Error {
	return &Error{Code: code, Message: message, Metadata: metadata}
}

var (
	ErrValidation       = NewError(CodeValidation, "validation failed")
	ErrInvalidState     = NewError(CodeInvalidState, "operation not allowed in current game state")
	ErrUnknownToken     = NewError(CodeUnknownToken, "unknown token")
	ErrOutOfBounds      = NewError(CodeOutOfBounds, "location is outside the board")
	ErrIngenuityTooFar  = NewError(CodeIngenuityTooFar, "ingenuity destination is too far")
	ErrDuplicateName    = NewError(CodeDuplicateName, "player name already taken")
	ErrNotEnoughBattery = NewError(CodeNotEnoughBattery, "not enough battery")
	ErrGameNotFound     = NewError(CodeGameNotFound, "game not found")
	ErrUnauthorized     = NewError(CodeUnauthorized, "unauthorized")
)

// CodeOf extracts the code from err, or "" when err is not a game error
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
