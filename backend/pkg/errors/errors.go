package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// ErrorType represents the category of error
type ErrorType string

const (
	// ErrorTypeGraph represents graph database errors
	ErrorTypeGraph ErrorType = "graph"
	// ErrorTypeExtraction represents LLM extraction errors
	ErrorTypeExtraction ErrorType = "extraction"
	// ErrorTypeStore represents relational store errors
	ErrorTypeStore ErrorType = "store"
	// ErrorTypeAuth represents authentication errors
	ErrorTypeAuth ErrorType = "auth"
	// ErrorTypeConfig represents configuration errors
	ErrorTypeConfig ErrorType = "config"
)

// BaseError is the base error type with common fields
type BaseError struct {
	Type      ErrorType
	Message   string
	Timestamp time.Time
	Err       error // Wrapped error
}

// Category returns the error's type; promoted through embedding so typed
// errors classify without extra code
func (e *BaseError) Category() ErrorType {
	return e.Type
}

// Error implements the error interface
func (e *BaseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap returns the wrapped error for error unwrapping
func (e *BaseError) Unwrap() error {
	return e.Err
}

// NewBaseError creates a new base error
func NewBaseError(errType ErrorType, message string, err error) *BaseError {
	return &BaseError{
		Type:      errType,
		Message:   message,
		Timestamp: time.Now(),
		Err:       err,
	}
}

// Graph Errors

// ErrGraphUnavailable is returned when the Neo4j store cannot be reached
type ErrGraphUnavailable struct {
	*BaseError
	URI string
}

func NewGraphUnavailable(uri string, err error) *ErrGraphUnavailable {
	return &ErrGraphUnavailable{
		BaseError: NewBaseError(ErrorTypeGraph, fmt.Sprintf("graph store unavailable: %s", uri), err),
		URI:       uri,
	}
}

// ErrGraphQueryFailed is returned when a graph query fails
type ErrGraphQueryFailed struct {
	*BaseError
	Operation string
}

func NewGraphQueryFailed(operation string, err error) *ErrGraphQueryFailed {
	return &ErrGraphQueryFailed{
		BaseError: NewBaseError(ErrorTypeGraph, fmt.Sprintf("graph operation failed: %s", operation), err),
		Operation: operation,
	}
}

// Store Errors

// ErrUserNotFound is returned when a user does not exist in the relational store
type ErrUserNotFound struct {
	*BaseError
	UserID string
}

func NewUserNotFound(userID string) *ErrUserNotFound {
	return &ErrUserNotFound{
		BaseError: NewBaseError(ErrorTypeStore, fmt.Sprintf("user not found: %s", userID), nil),
		UserID:    userID,
	}
}

// ErrDuplicateUser is returned when a username or email is already taken
type ErrDuplicateUser struct {
	*BaseError
	Username string
}

func NewDuplicateUser(username string, err error) *ErrDuplicateUser {
	return &ErrDuplicateUser{
		BaseError: NewBaseError(ErrorTypeStore, fmt.Sprintf("username or email already exists: %s", username), err),
		Username:  username,
	}
}

// Auth Errors

// ErrInvalidCredentials is returned when username/password verification fails
var ErrInvalidCredentials = NewBaseError(ErrorTypeAuth, "incorrect username or password", nil)

// ErrInvalidToken is returned when a bearer token cannot be validated
var ErrInvalidToken = NewBaseError(ErrorTypeAuth, "could not validate credentials", nil)

// Extraction Errors

// ErrExtractionUnavailable marks a failed LLM collaborator call; the
// extraction adapter recovers it as an empty characteristic set rather than
// surfacing it to callers
type ErrExtractionUnavailable struct {
	*BaseError
}

func NewExtractionUnavailable(err error) *ErrExtractionUnavailable {
	return &ErrExtractionUnavailable{
		BaseError: NewBaseError(ErrorTypeExtraction, "extraction collaborator unavailable", err),
	}
}

// Helper functions

// IsErrorType checks if an error (or anything it wraps) belongs to a category
func IsErrorType(err error, errType ErrorType) bool {
	var categorized interface{ Category() ErrorType }
	if stderrors.As(err, &categorized) {
		return categorized.Category() == errType
	}
	return false
}
