package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/smithy-go"
)

var (
	// ErrConflict is returned when an item with the same key already exists.
	ErrConflict = errors.New("store: item already exists")

	// ErrThrottled is returned when the table or account throughput limit was hit.
	ErrThrottled = errors.New("store: request throttled")

	// ErrPayloadTooLarge is returned when an item exceeds the store's item size limit.
	ErrPayloadTooLarge = errors.New("store: item too large")

	// ErrNotFound is returned when the table (or index) does not exist.
	ErrNotFound = errors.New("store: resource not found")

	// ErrUnauthorized is returned when the credentials are missing, invalid or lack permission.
	ErrUnauthorized = errors.New("store: unauthorized")

	// ErrUnknown matches store-reported errors that map to no other kind.
	ErrUnknown = errors.New("store: unknown store error")

	// ErrCanceled is returned when the caller's context was canceled or timed out.
	ErrCanceled = errors.New("store: operation canceled")

	// ErrInvalidQuery is returned for an empty statement or an empty scope key.
	ErrInvalidQuery = errors.New("store: invalid query")

	// ErrInvalidItem is returned for an item that cannot be written (e.g. empty partition key).
	ErrInvalidItem = errors.New("store: invalid item")
)

// ErrorKind classifies a store failure.
type ErrorKind int

// Failure kinds. KindUnknown also covers transport failures.
const (
	KindUnknown ErrorKind = iota
	KindConflict
	KindThrottled
	KindPayloadTooLarge
	KindNotFound
	KindUnauthorized
	KindCanceled
)

func (k ErrorKind) String() string {
	switch k {
	case KindConflict:
		return "Conflict"
	case KindThrottled:
		return "Throttled"
	case KindPayloadTooLarge:
		return "PayloadTooLarge"
	case KindNotFound:
		return "NotFound"
	case KindUnauthorized:
		return "Unauthorized"
	case KindCanceled:
		return "Canceled"
	default:
		return "Unknown"
	}
}

func (k ErrorKind) sentinel() error {
	switch k {
	case KindConflict:
		return ErrConflict
	case KindThrottled:
		return ErrThrottled
	case KindPayloadTooLarge:
		return ErrPayloadTooLarge
	case KindNotFound:
		return ErrNotFound
	case KindUnauthorized:
		return ErrUnauthorized
	case KindCanceled:
		return ErrCanceled
	default:
		return ErrUnknown
	}
}

// Error is a failure reported by the store itself, carrying the service error code.
// Failures without a service response (dial errors, timeouts below the API layer)
// are not wrapped in Error; see IsStoreReported.
type Error struct {
	// Op is the store operation that failed ("write", "query", "ping").
	Op string

	// Kind is the classified failure kind.
	Kind ErrorKind

	// Code is the service error code (e.g. "ConditionalCheckFailedException").
	Code string

	// StatusCode is the HTTP status of the failed response, 0 if unknown.
	StatusCode int

	// Message is the service error message.
	Message string

	// Err is the underlying SDK error.
	Err error
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("store: %s: %s (%s, status %d): %s", e.Op, e.Kind, e.Code, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("store: %s: %s (%s): %s", e.Op, e.Kind, e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches the sentinel for the error's kind, so errors.Is(err, ErrThrottled) works.
func (e *Error) Is(target error) bool {
	return target == e.Kind.sentinel()
}

// KindOf returns the kind of err. Transport failures report KindUnknown.
func KindOf(err error) ErrorKind {
	if err == nil {
		return KindUnknown
	}
	if errors.Is(err, ErrCanceled) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return KindCanceled
	}
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindUnknown
}

// IsStoreReported reports whether err carries a store error code.
func IsStoreReported(err error) bool {
	var se *Error
	return errors.As(err, &se)
}

// IsRetryable reports whether the caller may retry the failed operation.
// Conflict and throttling failures are retryable; transport failures are not.
func IsRetryable(err error) bool {
	if !IsStoreReported(err) {
		return false
	}
	switch KindOf(err) {
	case KindConflict, KindThrottled:
		return true
	}
	return false
}

// classify converts an SDK error into the store's error taxonomy.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s: %w", ErrCanceled, op, err)
	}

	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return fmt.Errorf("store: %s: %w", op, err)
	}

	se := &Error{
		Op:      op,
		Kind:    kindForCode(apiErr.ErrorCode(), apiErr.ErrorMessage()),
		Code:    apiErr.ErrorCode(),
		Message: apiErr.ErrorMessage(),
		Err:     err,
	}
	var respErr *awshttp.ResponseError
	if errors.As(err, &respErr) {
		se.StatusCode = respErr.HTTPStatusCode()
	}
	return se
}

func kindForCode(code, message string) ErrorKind {
	switch code {
	case "ConditionalCheckFailedException", "TransactionConflictException", "DuplicateItemException":
		return KindConflict
	case "ProvisionedThroughputExceededException", "RequestLimitExceeded", "ThrottlingException":
		return KindThrottled
	case "ResourceNotFoundException":
		return KindNotFound
	case "AccessDeniedException", "UnrecognizedClientException", "MissingAuthenticationToken",
		"InvalidSignatureException", "ExpiredTokenException":
		return KindUnauthorized
	case "ValidationException":
		if strings.Contains(strings.ToLower(message), "item size") {
			return KindPayloadTooLarge
		}
	}
	return KindUnknown
}
