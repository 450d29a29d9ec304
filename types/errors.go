package types

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrorKind groups per-article failures for the run summary.
type ErrorKind string

const (
	KindFetch          ErrorKind = "fetch"
	KindExtraction     ErrorKind = "extraction"
	KindRateLimit      ErrorKind = "rate_limit"
	KindRewriteService ErrorKind = "rewrite_service"
	KindValidation     ErrorKind = "validation"
	KindPersistence    ErrorKind = "persistence"
)

// Kinded is implemented by every error in the taxonomy.
type Kinded interface {
	error
	Kind() ErrorKind
}

// KindOf finds the first taxonomy error in err's chain.
func KindOf(err error) (ErrorKind, bool) {
	var k Kinded
	if errors.As(err, &k) {
		return k.Kind(), true
	}
	return "", false
}

// FetchError covers network failures, timeouts and non-2xx responses.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error   { return e.Err }
func (e *FetchError) Kind() ErrorKind { return KindFetch }

// Temporary reports whether retrying could help.
func (e *FetchError) Temporary() bool {
	return e.StatusCode == 0 || e.StatusCode == 429 || e.StatusCode >= 500
}

// ExtractionError means the page did not yield an article.
type ExtractionError struct {
	URL    string
	Reason string
	Err    error
}

func (e *ExtractionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("extract %s: %s: %v", e.URL, e.Reason, e.Err)
	}
	return fmt.Sprintf("extract %s: %s", e.URL, e.Reason)
}

func (e *ExtractionError) Unwrap() error   { return e.Err }
func (e *ExtractionError) Kind() ErrorKind { return KindExtraction }

// RateLimitError is returned when the rewriting service throttles us.
type RateLimitError struct {
	RetryAfter time.Duration
	Err        error
}

func (e *RateLimitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("rate limited: %v", e.Err)
	}
	return "rate limited"
}

func (e *RateLimitError) Unwrap() error   { return e.Err }
func (e *RateLimitError) Kind() ErrorKind { return KindRateLimit }

// RewriteServiceError covers empty, malformed or rejected service responses.
// Permanent errors are not retried.
type RewriteServiceError struct {
	StatusCode int
	Permanent  bool
	Err        error
}

func (e *RewriteServiceError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("rewrite service: status %d: %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("rewrite service: %v", e.Err)
}

func (e *RewriteServiceError) Unwrap() error   { return e.Err }
func (e *RewriteServiceError) Kind() ErrorKind { return KindRewriteService }

// ValidationFailure lists why a rewrite was rejected.
type ValidationFailure struct {
	Reasons []string
}

func (e *ValidationFailure) Error() string {
	return "validation failed: " + strings.Join(e.Reasons, "; ")
}

func (e *ValidationFailure) Kind() ErrorKind { return KindValidation }

// PersistenceError is a rejected or failed store write.
type PersistenceError struct {
	Collection string
	ID         string
	Err        error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist %s/%s: %v", e.Collection, e.ID, e.Err)
}

func (e *PersistenceError) Unwrap() error   { return e.Err }
func (e *PersistenceError) Kind() ErrorKind { return KindPersistence }
