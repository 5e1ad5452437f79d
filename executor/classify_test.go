package executor

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestDefaultClassifier(t *testing.T) {
	plain := errors.New("connection reset by peer")
	marked := Permanent(errors.New("invalid config"))
	wrapped := fmt.Errorf("stage failed: %w", marked)

	tests := []struct {
		name string
		err  error
		want Class
	}{
		{"plain error retryable", plain, ClassRetryable},
		{"permanent fatal", marked, ClassFatal},
		{"wrapped permanent fatal", wrapped, ClassFatal},
		{"context canceled fatal", context.Canceled, ClassFatal},
		{"deadline exceeded fatal", context.DeadlineExceeded, ClassFatal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DefaultClassifier(tt.err); got != tt.want {
				t.Errorf("DefaultClassifier(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestClassifyHTTP(t *testing.T) {
	tests := []struct {
		err    error
		expect Class
	}{
		{&HTTPError{StatusCode: 500, Message: "Internal Server Error"}, ClassRetryable},
		{&HTTPError{StatusCode: 503, Message: "Service Unavailable"}, ClassRetryable},
		{&HTTPError{StatusCode: 429, Message: "Too Many Requests"}, ClassRetryable},
		{&HTTPError{StatusCode: 408, Message: "Request Timeout"}, ClassRetryable},
		{&HTTPError{StatusCode: 400, Message: "Bad Request"}, ClassFatal},
		{&HTTPError{StatusCode: 401, Message: "Unauthorized"}, ClassFatal},
		{&HTTPError{StatusCode: 403, Message: "Forbidden"}, ClassFatal},
		{errors.New("dial tcp: connection refused"), ClassRetryable},
		{fmt.Errorf("upload: %w", &HTTPError{StatusCode: 502, Message: "Bad Gateway"}), ClassRetryable},
		{Permanent(errors.New("missing API key")), ClassFatal},
	}

	for _, tt := range tests {
		if got := ClassifyHTTP(tt.err); got != tt.expect {
			t.Errorf("ClassifyHTTP(%q) = %v, want %v", tt.err, got, tt.expect)
		}
	}
}

func TestPermanentNil(t *testing.T) {
	if Permanent(nil) != nil {
		t.Error("Permanent(nil) must be nil")
	}
	if IsPermanent(nil) {
		t.Error("IsPermanent(nil) must be false")
	}
}

func TestPermanentUnwraps(t *testing.T) {
	base := errors.New("quota exhausted for project")
	marked := Permanent(base)
	if !errors.Is(marked, base) {
		t.Error("Permanent must preserve the wrapped error for errors.Is")
	}
}
