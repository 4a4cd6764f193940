// Package errors defines the typed errors whose codes double as process exit
// codes and envelope error types.
package errors

import (
	"errors"
	"fmt"
)

type Code int

const (
	CodeSuccess       Code = 0
	CodeInternal      Code = 1
	CodeUsage         Code = 2
	CodeAuth          Code = 10
	CodeRateLimited   Code = 11
	CodeUnavailable   Code = 12
	CodeUnsupported   Code = 13
	CodeStale         Code = 14
	CodePartialStrict Code = 15
	CodeBlocked       Code = 16
	CodeSigner        Code = 20
	CodeTxInvalid     Code = 21
	CodeTxSimulation  Code = 22
	CodeTxTimeout     Code = 23
)

var typeNames = map[Code]string{
	CodeUsage:         "usage_error",
	CodeAuth:          "auth_error",
	CodeRateLimited:   "rate_limited",
	CodeUnavailable:   "upstream_unavailable",
	CodeUnsupported:   "unsupported",
	CodeStale:         "stale_data",
	CodePartialStrict: "partial_results",
	CodeBlocked:       "command_blocked",
	CodeSigner:        "signer_error",
	CodeTxInvalid:     "tx_invalid",
	CodeTxSimulation:  "tx_simulation_failed",
	CodeTxTimeout:     "tx_timeout",
}

type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Cause)
}

func (e *Error) Unwrap() error { return e.Cause }

func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// As finds the outermost *Error in err's chain.
func As(err error) (*Error, bool) {
	var target *Error
	if errors.As(err, &target) {
		return target, true
	}
	return nil, false
}

// Is reports whether err carries code.
func Is(err error, code Code) bool {
	cErr, ok := As(err)
	return ok && cErr.Code == code
}

func ExitCode(err error) int {
	if err == nil {
		return int(CodeSuccess)
	}
	if cErr, ok := As(err); ok {
		return int(cErr.Code)
	}
	return int(CodeInternal)
}

// TypeName returns the envelope error type for a code. Unknown codes are
// reported as internal errors.
func TypeName(code Code) string {
	if name, ok := typeNames[code]; ok {
		return name
	}
	return "internal_error"
}
