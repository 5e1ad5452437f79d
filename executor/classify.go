package executor

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// Class is the closed classification tag for an attempt error.
type Class int

const (
	// ClassRetryable marks transient conditions worth re-attempting.
	ClassRetryable Class = iota
	// ClassFatal marks conditions retrying cannot fix; the executor
	// aborts immediately.
	ClassFatal
)

// Classifier maps an attempt error to a Class.
type Classifier func(error) Class

type permanentError struct {
	err error
}

func (p *permanentError) Error() string { return p.err.Error() }
func (p *permanentError) Unwrap() error { return p.err }

// Permanent marks an error so the default classifiers treat it as fatal.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent reports whether err carries a Permanent mark anywhere in
// its chain.
func IsPermanent(err error) bool {
	var p *permanentError
	return errors.As(err, &p)
}

// DefaultClassifier treats every error as retryable except ones marked
// Permanent and context cancellation.
func DefaultClassifier(err error) Class {
	if err == nil {
		return ClassRetryable
	}
	if IsPermanent(err) {
		return ClassFatal
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return ClassFatal
	}
	return ClassRetryable
}

// HTTPError carries an HTTP status so classification works on the code,
// not the message text.
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// ClassifyHTTP classifies API call errors by status code: 5xx, 429 and
// 408 are retryable, any other 4xx is fatal. Network timeouts and
// unrecognised errors stay retryable.
func ClassifyHTTP(err error) Class {
	if err == nil {
		return ClassRetryable
	}
	if IsPermanent(err) {
		return ClassFatal
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return ClassFatal
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ClassRetryable
	}

	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		switch {
		case httpErr.StatusCode == http.StatusTooManyRequests,
			httpErr.StatusCode == http.StatusRequestTimeout:
			return ClassRetryable
		case httpErr.StatusCode >= 500:
			return ClassRetryable
		case httpErr.StatusCode >= 400:
			return ClassFatal
		}
	}

	return ClassRetryable
}
