// Package apierr provides the error taxonomy and retry infrastructure for
// HTTP-based API clients. Transport failures (connection reset, timeout,
// generic network failure) are transient and eligible for retry; provider
// rejections carry an HTTP status and are never retried.
package apierr

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// ErrTransport indicates a network-level failure before a provider response
// was received. Transport failures are retryable.
var ErrTransport = errors.New("transport failure")

// ProviderError is a rejection from the transcription provider: the request
// reached the remote end and was refused with an HTTP error response.
// Provider errors are never retried.
type ProviderError struct {
	Status  int    // HTTP status mirrored from the provider
	Message string // upstream message when available
}

func (e *ProviderError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("provider rejected request (HTTP %d)", e.Status)
	}
	return fmt.Sprintf("provider rejected request (HTTP %d): %s", e.Status, e.Message)
}

// Transport wraps err as a retryable transport failure.
func Transport(err error) error {
	return fmt.Errorf("%w: %v", ErrTransport, err)
}

// Classify maps an error from an HTTP round trip into the taxonomy.
// Network errors, timeouts, and deadline expiry become ErrTransport;
// everything else passes through unchanged.
func Classify(err error) error {
	if err == nil {
		return nil
	}

	// Cancellation is never transient, even when the transport wraps it
	// in a *url.Error that satisfies net.Error.
	if errors.Is(err, context.Canceled) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return Transport(err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return Transport(err)
	}
	// http.Client wraps connection resets and DNS failures in *url.Error,
	// which satisfies net.Error for timeouts only; treat the rest as
	// transport failures too.
	return Transport(err)
}

// IsRetryable reports whether an error is transient and worth retrying.
// Only transport-level failures qualify; provider rejections and
// cancellation are final.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrTransport)
}
