package generator

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"testing"
	"time"
)

type fakeTimeoutError struct{}

func (fakeTimeoutError) Error() string   { return "i/o timeout" }
func (fakeTimeoutError) Timeout() bool   { return true }
func (fakeTimeoutError) Temporary() bool { return true }

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		statusCode int
		wantType   string
		retryable  bool
		fatal      bool
	}{
		{
			name:      "deadline exceeded",
			err:       context.DeadlineExceeded,
			wantType:  "timeout",
			retryable: true,
		},
		{
			name:      "net timeout",
			err:       fakeTimeoutError{},
			wantType:  "timeout",
			retryable: true,
		},
		{
			name:      "connection refused",
			err:       &net.OpError{Op: "dial", Err: errors.New("connection refused")},
			wantType:  "unavailable",
			retryable: true,
		},
		{
			name:       "rate limited",
			statusCode: http.StatusTooManyRequests,
			wantType:   "rate_limited",
			retryable:  true,
		},
		{
			name:       "unauthorized",
			statusCode: http.StatusUnauthorized,
			wantType:   "auth_failure",
			fatal:      true,
		},
		{
			name:       "forbidden",
			statusCode: http.StatusForbidden,
			wantType:   "auth_failure",
			fatal:      true,
		},
		{
			name:       "payment required",
			statusCode: http.StatusPaymentRequired,
			wantType:   "auth_failure",
			fatal:      true,
		},
		{
			name:       "gateway timeout",
			statusCode: http.StatusGatewayTimeout,
			wantType:   "timeout",
			retryable:  true,
		},
		{
			name:       "server error",
			statusCode: http.StatusInternalServerError,
			wantType:   "unavailable",
			retryable:  true,
		},
		{
			name:       "bad request",
			statusCode: http.StatusBadRequest,
			wantType:   "malformed_response",
			retryable:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyError(tt.err, tt.statusCode)
			if got == nil {
				t.Fatal("classifyError() = nil, want classified error")
			}
			if label := errorTypeLabel(got); label != tt.wantType {
				t.Errorf("errorTypeLabel() = %q, want %q", label, tt.wantType)
			}
			if Retryable(got) != tt.retryable {
				t.Errorf("Retryable() = %v, want %v", Retryable(got), tt.retryable)
			}
			if Fatal(got) != tt.fatal {
				t.Errorf("Fatal() = %v, want %v", Fatal(got), tt.fatal)
			}
		})
	}
}

func TestClassifyErrorNilInputs(t *testing.T) {
	if got := classifyError(nil, 0); got != nil {
		t.Fatalf("classifyError(nil, 0) = %v, want nil", got)
	}
}

func TestRetryableCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if Retryable(ctx.Err()) {
		t.Fatal("Retryable(context.Canceled) = true, want false")
	}
}

func TestErrorsUnwrap(t *testing.T) {
	base := errors.New("boom")
	wrapped := ErrRateLimited{Err: fmt.Errorf("request failed: %w", base)}
	if !errors.Is(wrapped, base) {
		t.Fatal("errors.Is() could not reach the wrapped cause")
	}
}

func TestClassifyWrappedDeadline(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	<-ctx.Done()

	got := classifyError(fmt.Errorf("doing request: %w", ctx.Err()), 0)
	if errorTypeLabel(got) != "timeout" {
		t.Fatalf("errorTypeLabel() = %q, want %q", errorTypeLabel(got), "timeout")
	}
}
