package resilience

import (
	"context"
	"errors"
	"net"
	"strings"
)

// transientMarkers are substrings that identify a retryable backend error.
// Providers surface these inconsistently, so matching on the message text is
// the most reliable common denominator.
var transientMarkers = []string{
	"503",
	"502",
	"500",
	"429",
	"rate_limit",
	"rate limit",
	"too many requests",
	"overloaded",
	"service unavailable",
	"service temporarily unavailable",
	"connection reset",
	"connection refused",
	"connection error",
	"timeout",
	"deadline exceeded",
	"eof",
}

// terminalMarkers identify errors that retrying cannot fix. Checked before
// the transient list so "401" wins over an embedded "50x" in a URL.
var terminalMarkers = []string{
	"400",
	"401",
	"403",
	"invalid_request",
	"invalid api key",
	"authentication",
	"unauthorized",
	"not found",
	"unsupported",
}

// DefaultClassifier labels timeouts, resets, and 5xx/429-style errors as
// transient and everything else as terminal. Unknown errors default to
// terminal so genuine code bugs are never retried.
func DefaultClassifier(err error) Class {
	if err == nil {
		return Terminal
	}
	if errors.Is(err, context.Canceled) {
		return Terminal
	}
	// A deadline here is a per-attempt timeout: the parent context was
	// already checked by the Retrier, so the call itself timed out.
	if errors.Is(err, context.DeadlineExceeded) {
		return Transient
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return Transient
	}

	msg := strings.ToLower(err.Error())
	for _, marker := range terminalMarkers {
		if strings.Contains(msg, marker) {
			return Terminal
		}
	}
	for _, marker := range transientMarkers {
		if strings.Contains(msg, marker) {
			return Transient
		}
	}
	return Terminal
}
