package engine

import (
	"errors"
	"fmt"
)

// Error represents a rejected or partially applied engine operation.
//
// Error codes fall in two groups:
//   - Rejections (INDEX_OUT_OF_BOUNDS, ITEM_NOT_FOUND, ACTIVATION_LIMIT_REACHED)
//     are returned before any state is touched.
//   - Timer failures (COOLDOWN_DURATION_INVALID, AUTOPLAY_DURATION_INVALID) are
//     returned after the triggering activation or deactivation has been applied.
//     The engine is left valid but without a cooldown window or autoplay timer,
//     and no event is emitted for that operation.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Op is the public operation that failed (e.g. "activate", "swap").
	Op string

	// Details contains additional context.
	Details map[string]string
}

// ErrorCode categorizes engine errors.
type ErrorCode string

const (
	// ErrCodeIndexOutOfBounds indicates a position outside [0, length), or
	// outside [0, length] for insertion.
	ErrCodeIndexOutOfBounds ErrorCode = "INDEX_OUT_OF_BOUNDS"

	// ErrCodeItemNotFound indicates a value or predicate lookup matched nothing.
	ErrCodeItemNotFound ErrorCode = "ITEM_NOT_FOUND"

	// ErrCodeActivationLimitReached indicates an activation beyond the limit
	// while the limit behavior is LimitError.
	ErrCodeActivationLimitReached ErrorCode = "ACTIVATION_LIMIT_REACHED"

	// ErrCodeCooldownDurationInvalid indicates a resolved cooldown <= 0.
	ErrCodeCooldownDurationInvalid ErrorCode = "COOLDOWN_DURATION_INVALID"

	// ErrCodeAutoplayDurationInvalid indicates a resolved autoplay duration <= 0.
	ErrCodeAutoplayDurationInvalid ErrorCode = "AUTOPLAY_DURATION_INVALID"
)

// Sentinel errors for use with errors.Is. Matching is by Code only.
var (
	ErrIndexOutOfBounds        = &Error{Code: ErrCodeIndexOutOfBounds}
	ErrItemNotFound            = &Error{Code: ErrCodeItemNotFound}
	ErrActivationLimitReached  = &Error{Code: ErrCodeActivationLimitReached}
	ErrCooldownDurationInvalid = &Error{Code: ErrCodeCooldownDurationInvalid}
	ErrAutoplayDurationInvalid = &Error{Code: ErrCodeAutoplayDurationInvalid}
)

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("%s: %s: %s", e.Code, e.Op, e.Message)
	}
	if e.Message == "" {
		return string(e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is reports whether target is an *Error with the same code.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// CodeOf returns the ErrorCode carried by err, or "" if err is not an
// engine error. Uses errors.As to handle wrapped errors.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsIndexOutOfBounds returns true if err is an INDEX_OUT_OF_BOUNDS error.
func IsIndexOutOfBounds(err error) bool {
	return CodeOf(err) == ErrCodeIndexOutOfBounds
}

// IsItemNotFound returns true if err is an ITEM_NOT_FOUND error.
func IsItemNotFound(err error) bool {
	return CodeOf(err) == ErrCodeItemNotFound
}

// IsTimerError returns true if err was raised after the state change had
// already been applied (cooldown or autoplay duration failures).
func IsTimerError(err error) bool {
	code := CodeOf(err)
	return code == ErrCodeCooldownDurationInvalid || code == ErrCodeAutoplayDurationInvalid
}

func newIndexError(op string, index, length int, inclusive bool) *Error {
	upper := fmt.Sprintf("%d)", length)
	if inclusive {
		upper = fmt.Sprintf("%d]", length)
	}
	return &Error{
		Code:    ErrCodeIndexOutOfBounds,
		Message: fmt.Sprintf("index %d is outside [0, %s", index, upper),
		Op:      op,
		Details: map[string]string{
			"index":  fmt.Sprintf("%d", index),
			"length": fmt.Sprintf("%d", length),
		},
	}
}

func newNotFoundError(op, what string) *Error {
	return &Error{
		Code:    ErrCodeItemNotFound,
		Message: fmt.Sprintf("%s not found", what),
		Op:      op,
	}
}

func newLimitError(op string, limit int) *Error {
	return &Error{
		Code:    ErrCodeActivationLimitReached,
		Message: fmt.Sprintf("cannot exceed max activation limit of %d", limit),
		Op:      op,
		Details: map[string]string{
			"limit": fmt.Sprintf("%d", limit),
		},
	}
}

func newDurationError(code ErrorCode, op string, d fmt.Stringer) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf("duration must be positive, got %s", d),
		Op:      op,
	}
}
