package helpers

import (
	"context"
	"fmt"
	"sync"
	"time"

	"chart-feed/src/logger"
)

// -----------------------------------------------------------------------------
// Custom Error Types
// -----------------------------------------------------------------------------

type ChartFeedError struct {
	Message string
	Cause   error
}

func (e *ChartFeedError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *ChartFeedError) Unwrap() error {
	return e.Cause
}

// Distinct error types for errors.As checks
type ConfigurationError struct{ ChartFeedError }
type SourceError struct{ ChartFeedError }
type StorageError struct{ ChartFeedError }
type ValidationError struct{ ChartFeedError }

// NewSourceError wraps a value source failure.
func NewSourceError(source string, cause error) *SourceError {
	return &SourceError{ChartFeedError{Message: fmt.Sprintf("source %s unavailable", source), Cause: cause}}
}

// NewStorageError wraps a recorder failure.
func NewStorageError(operation string, cause error) *StorageError {
	return &StorageError{ChartFeedError{Message: fmt.Sprintf("storage %s failed", operation), Cause: cause}}
}

// NewValidationError reports a rejected request.
func NewValidationError(format string, args ...interface{}) *ValidationError {
	return &ValidationError{ChartFeedError{Message: fmt.Sprintf(format, args...)}}
}

// -----------------------------------------------------------------------------
// Retry Logic
// -----------------------------------------------------------------------------

// RetryWithBackoff attempts the operation up to maxRetries times with exponential
// backoff. The wait between attempts is interrupted by ctx.
func RetryWithBackoff(ctx context.Context, log *logger.Logger, operation string, maxRetries int, baseDelay time.Duration, fn func() error) error {
	if maxRetries < 1 {
		maxRetries = 1
	}

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}

		lastErr = err
		if attempt == maxRetries-1 {
			break
		}

		delay := baseDelay * (1 << attempt)
		log.Warning("Attempt %d/%d failed for %s: %v. Retrying in %v", attempt+1, maxRetries, operation, err, delay)

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operation, maxRetries, lastErr)
}

// -----------------------------------------------------------------------------
// Error Handler
// -----------------------------------------------------------------------------

// ErrorHandler counts consecutive failures of a recurring operation and escalates
// from WARNING to ERROR once MaxErrorsBeforeAlert is reached.
type ErrorHandler struct {
	Logger               *logger.Logger
	MaxErrorsBeforeAlert int

	mu         sync.Mutex
	errorCount int
}

func NewErrorHandler(log *logger.Logger, maxErrors int) *ErrorHandler {
	if maxErrors <= 0 {
		maxErrors = 10
	}
	return &ErrorHandler{
		Logger:               log,
		MaxErrorsBeforeAlert: maxErrors,
	}
}

// -----------------------------------------------------------------------------

// ResetErrorCount clears the failure streak.
func (e *ErrorHandler) ResetErrorCount() {
	e.mu.Lock()
	e.errorCount = 0
	e.mu.Unlock()
}

// -----------------------------------------------------------------------------

// ErrorCount returns the current failure streak.
func (e *ErrorHandler) ErrorCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.errorCount
}

// -----------------------------------------------------------------------------

// Handle logs err and grows the failure streak. Returns true once the streak has
// reached the alert threshold.
func (e *ErrorHandler) Handle(err error, context string) bool {
	if err == nil {
		return false
	}

	e.mu.Lock()
	e.errorCount++
	count := e.errorCount
	e.mu.Unlock()

	if count >= e.MaxErrorsBeforeAlert {
		e.Logger.Error("Error in %s (%d consecutive): %v", context, count, err)
		return true
	}
	e.Logger.Warning("Error in %s: %v", context, err)
	return false
}
