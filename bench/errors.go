package bench

import (
	"errors"
	"fmt"
)

// Kind classifies an error by the stage of a run that produced it.
type Kind string

const (
	KindConfig      Kind = "CONFIG"
	KindConnection  Kind = "CONNECTION"
	KindQuery       Kind = "QUERY"
	KindLoad        Kind = "LOAD"
	KindAggregation Kind = "AGGREGATION"
)

// Error codes.
const (
	CodeMissingArg      = "MISSING_ARGUMENT"
	CodeInvalidLevels   = "INVALID_LEVELS"
	CodeInvalidCount    = "INVALID_COUNT"
	CodeInvalidTemplate = "INVALID_TEMPLATE"
	CodeSuiteNotFound   = "SUITE_NOT_FOUND"
	CodeInvalidDSN      = "INVALID_DSN"
	CodeUnknownDriver   = "UNKNOWN_DRIVER"
	CodeInvalidTimeout  = "INVALID_TIMEOUT"
	CodeConfigFile      = "CONFIG_FILE"
	CodeInvalidFlag     = "INVALID_FLAG"

	CodeOpenFailed = "OPEN_FAILED"

	CodeExecFailed = "EXEC_FAILED"
	CodeNoElapsed  = "NO_ELAPSED"

	CodeCopyFailed = "COPY_FAILED"

	CodeNoSamples   = "NO_SAMPLES"
	CodeZeroCount   = "ZERO_COUNT"
	CodeSampleCount = "SAMPLE_COUNT"
)

// Error is the structured error returned by every stage of a run.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Details map[string]any
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s:%s] %s: %v", e.Kind, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s:%s] %s", e.Kind, e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error with the same kind and code.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Kind == t.Kind && e.Code == t.Code
	}
	return false
}

// WithDetails returns a copy of the error carrying details.
func (e *Error) WithDetails(details map[string]any) *Error {
	cp := *e
	cp.Details = details
	return &cp
}

// NewError creates an Error without a cause.
func NewError(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

// WrapError creates an Error around cause.
func WrapError(kind Kind, code, message string, cause error) *Error {
	return &Error{Kind: kind, Code: code, Message: message, Cause: cause}
}

// Sentinels usable with errors.Is.
var (
	ErrNoSamples   = NewError(KindAggregation, CodeNoSamples, "no samples to aggregate")
	ErrZeroCount   = NewError(KindAggregation, CodeZeroCount, "call count must be positive")
	ErrSampleCount = NewError(KindAggregation, CodeSampleCount, "sample count does not match concurrency level")
)

// KindOf returns the kind of the first *Error in err's chain, or "".
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind reports whether err's chain holds an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// ConfigError reports invalid or missing configuration.
func ConfigError(code, format string, args ...any) *Error {
	return NewError(KindConfig, code, fmt.Sprintf(format, args...))
}

// QueryError wraps a statement execution failure.
func QueryError(message string, cause error) *Error {
	return WrapError(KindQuery, CodeExecFailed, message, cause)
}

// ConnectionError wraps a failure to open a session.
func ConnectionError(driver string, cause error) *Error {
	return WrapError(KindConnection, CodeOpenFailed, "open "+driver+" session", cause)
}

// LoadError wraps a bulk fixture load failure.
func LoadError(file, table string, cause error) *Error {
	return WrapError(KindLoad, CodeCopyFailed, fmt.Sprintf("load %s into %s", file, table), cause).
		WithDetails(map[string]any{"file": file, "table": table})
}
