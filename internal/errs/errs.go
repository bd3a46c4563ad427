// Package errs defines the coded errors shared across the update client.
// Every failure that crosses a component boundary is normalized into an
// *Error so callers can branch on the code instead of string matching.
package errs

import (
	"errors"
	"fmt"
)

type Code string

const (
	CodeNetwork            Code = "NETWORK_ERROR"
	CodeTimeout            Code = "TIMEOUT"
	CodeConnection         Code = "CONNECTION_ERROR"
	CodeServer             Code = "SERVER_ERROR"
	CodeServiceUnavailable Code = "SERVICE_UNAVAILABLE"
	CodeDownload           Code = "DOWNLOAD_ERROR"
	CodeDownloadTimeout    Code = "DOWNLOAD_TIMEOUT"
	CodeDownloadCanceled   Code = "DOWNLOAD_CANCELED"
	CodeParse              Code = "PARSE_ERROR"
	CodeInvalidResponse    Code = "INVALID_RESPONSE"
	CodeFile               Code = "FILE_ERROR"
	CodeChecksumMismatch   Code = "MD5_MISMATCH"
	CodeMissingURL         Code = "MISSING_URL"
	CodeMissingVersion     Code = "MISSING_VERSION"
	CodeInvalidMethod      Code = "INVALID_METHOD"
	CodeInvalidBody        Code = "INVALID_BODY"
	CodePermissionDenied   Code = "PERMISSION_DENIED"
	CodePlatform           Code = "PLATFORM_NOT_SUPPORTED"
	CodeInstallFailed      Code = "INSTALL_FAILED"
)

// Error carries a domain code, a human-readable message, and optionally the
// underlying cause for diagnostics and retry classification.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func New(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

func Wrap(code Code, err error, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Err: err}
}

// CodeOf returns the domain code of err if it is (or wraps) an *Error, and
// "" otherwise.
func CodeOf(err error) Code {
	if e := AsError(err); e != nil {
		return e.Code
	}
	return ""
}

// AsError unwraps err to the outermost *Error, or nil.
func AsError(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return nil
}
