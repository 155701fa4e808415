package generator

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// ErrTimeout indicates a timeout while issuing a request. Retryable.
type ErrTimeout struct {
	Err error
}

func (e ErrTimeout) Error() string {
	return fmt.Errorf("timeout: %w", e.Err).Error()
}

func (e ErrTimeout) Unwrap() error {
	return e.Err
}

// ErrRateLimited indicates the provider rate-limited the request. Retryable.
type ErrRateLimited struct {
	Err error
}

func (e ErrRateLimited) Error() string {
	return fmt.Errorf("rate_limited: %w", e.Err).Error()
}

func (e ErrRateLimited) Unwrap() error {
	return e.Err
}

// ErrUnavailable indicates a transient provider or connectivity failure.
// Retryable.
type ErrUnavailable struct {
	Err error
}

func (e ErrUnavailable) Error() string {
	return fmt.Errorf("unavailable: %w", e.Err).Error()
}

func (e ErrUnavailable) Unwrap() error {
	return e.Err
}

// ErrMalformed indicates the provider returned a response that could not be
// parsed or contained no usable text. Retryable with the same prompt.
type ErrMalformed struct {
	Err error
}

func (e ErrMalformed) Error() string {
	return fmt.Errorf("malformed_response: %w", e.Err).Error()
}

func (e ErrMalformed) Unwrap() error {
	return e.Err
}

// ErrAuthFailure indicates invalid credentials or exhausted quota. Fatal to
// the whole run: retrying cannot help and continuing burns budget.
type ErrAuthFailure struct {
	Err error
}

func (e ErrAuthFailure) Error() string {
	return fmt.Errorf("auth_failure: %w", e.Err).Error()
}

func (e ErrAuthFailure) Unwrap() error {
	return e.Err
}

// Retryable reports whether the error is a transient generator failure worth
// retrying with backoff. Auth failures and cancellations are not.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	var (
		timeout     ErrTimeout
		rateLimited ErrRateLimited
		unavailable ErrUnavailable
		malformed   ErrMalformed
	)
	return errors.As(err, &timeout) ||
		errors.As(err, &rateLimited) ||
		errors.As(err, &unavailable) ||
		errors.As(err, &malformed)
}

// Fatal reports whether the error must abort the whole run immediately.
func Fatal(err error) bool {
	var auth ErrAuthFailure
	return errors.As(err, &auth)
}

// TypeLabel returns the taxonomy label for a classified error, for failure
// manifests and metrics.
func TypeLabel(err error) string {
	return errorTypeLabel(err)
}

func errorTypeLabel(err error) string {
	if err == nil {
		return "unknown"
	}
	var timeout ErrTimeout
	if errors.As(err, &timeout) {
		return "timeout"
	}
	var rateLimited ErrRateLimited
	if errors.As(err, &rateLimited) {
		return "rate_limited"
	}
	var unavailable ErrUnavailable
	if errors.As(err, &unavailable) {
		return "unavailable"
	}
	var malformed ErrMalformed
	if errors.As(err, &malformed) {
		return "malformed_response"
	}
	var auth ErrAuthFailure
	if errors.As(err, &auth) {
		return "auth_failure"
	}
	return "other"
}

// classifyError maps a transport error and/or HTTP status onto the generator
// error taxonomy.
func classifyError(err error, statusCode int) error {
	if err == nil && statusCode == 0 {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout{Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrTimeout{Err: err}
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return ErrUnavailable{Err: err}
	}

	if statusCode != 0 {
		wrapped := err
		if wrapped == nil {
			wrapped = fmt.Errorf("http status %d", statusCode)
		}
		switch {
		case statusCode == http.StatusTooManyRequests:
			return ErrRateLimited{Err: wrapped}
		case statusCode == http.StatusUnauthorized,
			statusCode == http.StatusForbidden,
			statusCode == http.StatusPaymentRequired:
			return ErrAuthFailure{Err: wrapped}
		case statusCode == http.StatusRequestTimeout,
			statusCode == http.StatusGatewayTimeout:
			return ErrTimeout{Err: wrapped}
		case statusCode >= 500:
			return ErrUnavailable{Err: wrapped}
		case statusCode >= 400:
			return ErrMalformed{Err: wrapped}
		}
	}

	return err
}
