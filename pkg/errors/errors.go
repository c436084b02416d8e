package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// ErrorTypeNetwork represents transport failures, timeouts and non-success statuses
	ErrorTypeNetwork ErrorType = "network"
	// ErrorTypeParsing represents pages that could not be turned into a document
	ErrorTypeParsing ErrorType = "parsing"
	// ErrorTypeRateLimit represents rate limiting by the listing service
	ErrorTypeRateLimit ErrorType = "rate_limit"
	// ErrorTypeCache represents cache-related errors
	ErrorTypeCache ErrorType = "cache"
	// ErrorTypePublisher represents publisher-related errors
	ErrorTypePublisher ErrorType = "publisher"
	// ErrorTypeValidation represents invalid crawl requests
	ErrorTypeValidation ErrorType = "validation"
	// ErrorTypeConfiguration represents configuration errors
	ErrorTypeConfiguration ErrorType = "configuration"
)

// CrawlerError is a page-level (or setup-level) failure.
// Target and Offset identify the page when the error is tied to one.
type CrawlerError struct {
	Type    ErrorType
	Target  string
	Offset  int
	Message string
	Err     error
	Time    time.Time
}

// Error implements the error interface
func (e *CrawlerError) Error() string {
	scope := e.Target
	if scope != "" {
		scope = fmt.Sprintf("%s@%d", e.Target, e.Offset)
	}
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %s - %v", e.Type, scope, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Type, scope, e.Message)
}

// Unwrap returns the underlying error
func (e *CrawlerError) Unwrap() error {
	return e.Err
}

// IsRetryable returns true if the error is retryable
func (e *CrawlerError) IsRetryable() bool {
	switch e.Type {
	case ErrorTypeNetwork:
		return true
	default:
		return false
	}
}

// New creates a new CrawlerError
func New(errType ErrorType, target string, offset int, message string, err error) *CrawlerError {
	return &CrawlerError{
		Type:    errType,
		Target:  target,
		Offset:  offset,
		Message: message,
		Err:     err,
		Time:    time.Now(),
	}
}

// NewNetwork creates a new network error
func NewNetwork(target string, offset int, message string, err error) *CrawlerError {
	return New(ErrorTypeNetwork, target, offset, message, err)
}

// NewParsing creates a new parsing error
func NewParsing(target string, offset int, message string, err error) *CrawlerError {
	return New(ErrorTypeParsing, target, offset, message, err)
}

// NewRateLimit creates a new rate limit error
func NewRateLimit(target string, offset int, retryAfter string) *CrawlerError {
	message := "rate limited"
	if retryAfter != "" {
		message = fmt.Sprintf("rate limited; retry after %s", retryAfter)
	}
	return New(ErrorTypeRateLimit, target, offset, message, nil)
}

// NewBlocked reports a request that was skipped because a rate-limit block is active
func NewBlocked(target string, offset int, remaining time.Duration) *CrawlerError {
	message := fmt.Sprintf("blocked after rate limiting for %v", remaining)
	return New(ErrorTypeRateLimit, target, offset, message, nil)
}

// NewCache creates a new cache error
func NewCache(message string, err error) *CrawlerError {
	return New(ErrorTypeCache, "", 0, message, err)
}

// NewPublisher creates a new publisher error
func NewPublisher(message string, err error) *CrawlerError {
	return New(ErrorTypePublisher, "", 0, message, err)
}

// NewValidation creates a new validation error
func NewValidation(message string) *CrawlerError {
	return New(ErrorTypeValidation, "", 0, message, nil)
}

// NewConfiguration creates a new configuration error
func NewConfiguration(message string, err error) *CrawlerError {
	return New(ErrorTypeConfiguration, "", 0, message, err)
}

// Is reports whether any error in err's chain is a CrawlerError of the given type
func Is(err error, errType ErrorType) bool {
	var ce *CrawlerError
	if stderrors.As(err, &ce) {
		return ce.Type == errType
	}
	return false
}

// IsRetryable reports whether err's chain holds a retryable CrawlerError
func IsRetryable(err error) bool {
	var ce *CrawlerError
	if stderrors.As(err, &ce) {
		return ce.IsRetryable()
	}
	return false
}

// TypeOf returns the CrawlerError type in err's chain, or "" if there is none
func TypeOf(err error) ErrorType {
	var ce *CrawlerError
	if stderrors.As(err, &ce) {
		return ce.Type
	}
	return ""
}
