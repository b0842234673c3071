package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// ErrorTypeValidation represents malformed date or race identifier input
	ErrorTypeValidation ErrorType = "validation"
	// ErrorTypeNavigation represents a missing link/tab or a timed out navigation step
	ErrorTypeNavigation ErrorType = "navigation"
	// ErrorTypeExtraction represents a field that failed to parse
	ErrorTypeExtraction ErrorType = "extraction"
	// ErrorTypeResolver represents a failed race identifier lookup
	ErrorTypeResolver ErrorType = "resolver"
	// ErrorTypeBrowser represents a browser session that could not be started
	ErrorTypeBrowser ErrorType = "browser"
	// ErrorTypeCache represents cache-related errors
	ErrorTypeCache ErrorType = "cache"
	// ErrorTypePublisher represents publisher-related errors
	ErrorTypePublisher ErrorType = "publisher"
	// ErrorTypeConfiguration represents configuration errors
	ErrorTypeConfiguration ErrorType = "configuration"
)

// OddsError is the error value used across the odds worker.
// Subject is the race identifier or date the error is about.
type OddsError struct {
	Type    ErrorType
	Subject string
	Message string
	Err     error
	Time    time.Time
}

// Error implements the error interface
func (e *OddsError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %s - %v", e.Type, e.Subject, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Type, e.Subject, e.Message)
}

// Unwrap returns the underlying error
func (e *OddsError) Unwrap() error {
	return e.Err
}

// New creates a new OddsError
func New(errType ErrorType, subject, message string, err error) *OddsError {
	return &OddsError{
		Type:    errType,
		Subject: subject,
		Message: message,
		Err:     err,
		Time:    time.Now(),
	}
}

// NewValidation creates a new validation error
func NewValidation(subject, message string) *OddsError {
	return New(ErrorTypeValidation, subject, message, nil)
}

// NewNavigation creates a new navigation error
func NewNavigation(raceID, message string, err error) *OddsError {
	return New(ErrorTypeNavigation, raceID, message, err)
}

// NewExtraction creates a new extraction error
func NewExtraction(raceID, message string, err error) *OddsError {
	return New(ErrorTypeExtraction, raceID, message, err)
}

// NewResolver creates a new resolver error
func NewResolver(date, message string, err error) *OddsError {
	return New(ErrorTypeResolver, date, message, err)
}

// NewBrowser creates a new browser error
func NewBrowser(raceID, message string, err error) *OddsError {
	return New(ErrorTypeBrowser, raceID, message, err)
}

// NewCache creates a new cache error
func NewCache(key, message string, err error) *OddsError {
	return New(ErrorTypeCache, key, message, err)
}

// NewPublisher creates a new publisher error
func NewPublisher(key, message string, err error) *OddsError {
	return New(ErrorTypePublisher, key, message, err)
}

// NewConfiguration creates a new configuration error
func NewConfiguration(message string, err error) *OddsError {
	return New(ErrorTypeConfiguration, "", message, err)
}

// TypeOf returns the ErrorType of the first OddsError in err's chain.
func TypeOf(err error) (ErrorType, bool) {
	var oe *OddsError
	if stderrors.As(err, &oe) {
		return oe.Type, true
	}
	return "", false
}

// Is reports whether err carries an OddsError of the given type.
func Is(err error, errType ErrorType) bool {
	t, ok := TypeOf(err)
	return ok && t == errType
}

// Reason returns the human-readable message of an OddsError, or err.Error() otherwise.
func Reason(err error) string {
	var oe *OddsError
	if stderrors.As(err, &oe) {
		if oe.Err != nil {
			return fmt.Sprintf("%s: %v", oe.Message, oe.Err)
		}
		return oe.Message
	}
	return err.Error()
}
