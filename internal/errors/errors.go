package errors

import (
	"errors"
	"fmt"
)

// Error is the structured error type for whosaid.
// It carries enough context for logging and for the one-line message the CLI
// prints before exiting.
type Error struct {
	// Code is the unique error code (e.g., "ERR_404_NICKNAME_NOT_FOUND").
	Code string

	// Message is the human-readable error message.
	Message string

	// Category is the error category (Config, IO, Validation, Internal).
	Category Category

	// Severity is the error severity level.
	Severity Severity

	// Details contains additional context as key-value pairs.
	Details map[string]string

	// Cause is the underlying error that caused this error.
	Cause error

	// Suggestion is an actionable suggestion for the user.
	Suggestion string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is checks if this error matches the target error by code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail adds a key-value detail to the error.
// Returns the error for method chaining.
func (e *Error) WithDetail(key, value string) *Error {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// WithSuggestion adds an actionable suggestion for the user.
func (e *Error) WithSuggestion(suggestion string) *Error {
	e.Suggestion = suggestion
	return e
}

// New creates a new Error with the given code and message.
// Category and severity are derived from the code.
func New(code string, message string, cause error) *Error {
	return &Error{
		Code:     code,
		Message:  message,
		Category: categoryFromCode(code),
		Severity: severityFromCode(code),
		Cause:    cause,
	}
}

// Wrap creates an Error from an existing error.
// The error's message becomes the Error message.
func Wrap(code string, err error) *Error {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// Sentinels for errors.Is checks. Only the code is compared.
var (
	ErrFileAccess       = &Error{Code: ErrCodeFileAccess}
	ErrMalformedIndex   = &Error{Code: ErrCodeMalformedIndex}
	ErrIndexLocked      = &Error{Code: ErrCodeIndexLocked}
	ErrInvalidInput     = &Error{Code: ErrCodeInvalidInput}
	ErrInvalidPattern   = &Error{Code: ErrCodeInvalidPattern}
	ErrNicknameNotFound = &Error{Code: ErrCodeNicknameNotFound}
	ErrConfigInvalid    = &Error{Code: ErrCodeConfigInvalid}
)

// ConfigError creates a configuration-related error.
func ConfigError(message string, cause error) *Error {
	return New(ErrCodeConfigInvalid, message, cause)
}

// FileAccess creates an error for a log or index file that cannot be opened or read.
func FileAccess(path string, cause error) *Error {
	return New(ErrCodeFileAccess, fmt.Sprintf("cannot read %s", path), cause).
		WithDetail("path", path)
}

// MalformedIndex creates an error for index input that is not a mapping of
// nicknames to path lists.
func MalformedIndex(message string, cause error) *Error {
	return New(ErrCodeMalformedIndex, message, cause).
		WithSuggestion("rebuild the index with 'whosaid build'")
}

// InvalidPattern creates an error for a regular expression that does not compile.
func InvalidPattern(pattern string, cause error) *Error {
	return New(ErrCodeInvalidPattern, fmt.Sprintf("invalid pattern %q", pattern), cause).
		WithDetail("pattern", pattern)
}

// ValidationError creates a validation-related error.
func ValidationError(message string, cause error) *Error {
	return New(ErrCodeInvalidInput, message, cause)
}

// NicknameNotFound creates the error returned when a requested nickname has
// no entry in the index.
func NicknameNotFound(nick string) *Error {
	return New(ErrCodeNicknameNotFound, fmt.Sprintf("nickname %q not found in index", nick), nil).
		WithDetail("nickname", nick)
}

// InternalError creates an internal error.
func InternalError(message string, cause error) *Error {
	return New(ErrCodeInternal, message, cause)
}

// Nickname returns the missing nickname carried by a NicknameNotFound error
// anywhere in err's chain.
func Nickname(err error) (string, bool) {
	var e *Error
	if !errors.As(err, &e) || e.Code != ErrCodeNicknameNotFound {
		return "", false
	}
	nick, ok := e.Details["nickname"]
	return nick, ok
}

// IsFatal checks if an error has fatal severity.
func IsFatal(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Severity == SeverityFatal
	}
	return false
}

// GetCode extracts the error code from an Error anywhere in err's chain.
// Returns empty string if there is none.
func GetCode(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// GetCategory extracts the category from an Error.
// Returns empty string if there is none.
func GetCategory(err error) Category {
	var e *Error
	if errors.As(err, &e) {
		return e.Category
	}
	return ""
}
