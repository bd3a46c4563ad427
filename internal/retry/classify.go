package retry

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"net"
	"net/url"
	"strings"
	"syscall"

	"github.com/tanq16/revup/internal/errs"
)

var retryableCodes = map[errs.Code]bool{
	errs.CodeNetwork:            true,
	errs.CodeTimeout:            true,
	errs.CodeConnection:         true,
	errs.CodeServer:             true,
	errs.CodeServiceUnavailable: true,
}

var terminalCodes = map[errs.Code]bool{
	errs.CodeParse:            true,
	errs.CodeInvalidResponse:  true,
	errs.CodeMissingURL:       true,
	errs.CodeMissingVersion:   true,
	errs.CodeInvalidMethod:    true,
	errs.CodeInvalidBody:      true,
	errs.CodeFile:             true,
	errs.CodeChecksumMismatch: true,
	errs.CodePermissionDenied: true,
	errs.CodePlatform:         true,
	errs.CodeDownloadCanceled: true,
}

// Statuses a flaky origin or intermediary produces; other HTTP statuses mean
// the request itself is wrong and repeating it cannot help.
var retryableStatusTokens = []string{"500", "502", "503", "504"}

// Retryable classifies err: transient network faults and server-side 5xx
// conditions are retryable, everything that would fail identically on the
// next attempt is not. Unrecognized errors fail closed.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	if de := errs.AsError(err); de != nil {
		if retryableCodes[de.Code] {
			return true
		}
		if terminalCodes[de.Code] {
			return false
		}
		// Unknown code: classify whatever it wrapped, if anything.
		if de.Err != nil {
			return Retryable(de.Err)
		}
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	if errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNABORTED) || errors.Is(err, syscall.EPIPE) {
		return true
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		// Transport-level failures (DNS, dial, reset) wrap their cause.
		if urlErr.Err != nil && Retryable(urlErr.Err) {
			return true
		}
		return statusInMessage(urlErr.Error())
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return dnsErr.IsTimeout || dnsErr.IsTemporary
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var pathErr *fs.PathError
	if errors.As(err, &pathErr) {
		return false
	}
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return false
	}
	// No structured status is guaranteed on transport errors, so 5xx is
	// sniffed from the message as a last resort.
	if statusInMessage(err.Error()) {
		return true
	}
	if cause := errors.Unwrap(err); cause != nil {
		return Retryable(cause)
	}
	return false
}

// statusInMessage looks for a retryable status as a standalone number; a
// token embedded in a longer digit run (ports, byte counts) does not count.
func statusInMessage(msg string) bool {
	for _, token := range retryableStatusTokens {
		for idx := 0; ; {
			i := strings.Index(msg[idx:], token)
			if i < 0 {
				break
			}
			start := idx + i
			end := start + len(token)
			if (start == 0 || !isDigit(msg[start-1])) && (end == len(msg) || !isDigit(msg[end])) {
				return true
			}
			idx = end
		}
	}
	return false
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }
