package errors

import (
	"errors"
	"fmt"
)

// ErrorCode identifies the class of an application error.
type ErrorCode int

const (
	CodeValidation ErrorCode = iota + 1000
	CodeNotFound
	CodePrecondition
	CodeInvalidTransition
	CodePaymentInsufficient
	CodeConflict
	CodeUnauthorized
	CodeForbidden
	CodeInternal
)

// String returns the stable name of the code, used in logs and metric labels.
func (c ErrorCode) String() string {
	switch c {
	case CodeValidation:
		return "validation"
	case CodeNotFound:
		return "not_found"
	case CodePrecondition:
		return "precondition"
	case CodeInvalidTransition:
		return "invalid_transition"
	case CodePaymentInsufficient:
		return "payment_insufficient"
	case CodeConflict:
		return "conflict"
	case CodeUnauthorized:
		return "unauthorized"
	case CodeForbidden:
		return "forbidden"
	default:
		return "internal"
	}
}

// AppError represents an application error
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Err     error     `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// PaymentInsufficientError is returned when a lifecycle guard requires more
// payment than has been recorded. Amounts are integer cents.
type PaymentInsufficientError struct {
	RequiredCents int64 `json:"required_cents"`
	PaidCents     int64 `json:"paid_cents"`
}

func (e *PaymentInsufficientError) Error() string {
	return fmt.Sprintf("insufficient payment: %d of %d cents paid, short by %d",
		e.PaidCents, e.RequiredCents, e.ShortfallCents())
}

func (e *PaymentInsufficientError) ShortfallCents() int64 {
	return e.RequiredCents - e.PaidCents
}

func NewPaymentInsufficient(requiredCents, paidCents int64) *AppError {
	return &AppError{
		Code:    CodePaymentInsufficient,
		Message: "payment below required amount",
		Err:     &PaymentInsufficientError{RequiredCents: requiredCents, PaidCents: paidCents},
	}
}

// Error constructors
func Validation(message string, err error) *AppError {
	return &AppError{Code: CodeValidation, Message: message, Err: err}
}

func NotFound(resource string, err error) *AppError {
	return &AppError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s not found", resource),
		Err:     err,
	}
}

func Precondition(message string) *AppError {
	return &AppError{Code: CodePrecondition, Message: message}
}

func InvalidTransition(from, to string) *AppError {
	return &AppError{
		Code:    CodeInvalidTransition,
		Message: fmt.Sprintf("no transition from %q to %q", from, to),
	}
}

func Conflict(resource string) *AppError {
	return &AppError{
		Code:    CodeConflict,
		Message: fmt.Sprintf("%s was modified concurrently, retry", resource),
	}
}

func Unauthorized(message string) *AppError {
	return &AppError{Code: CodeUnauthorized, Message: message}
}

func Forbidden(message string) *AppError {
	return &AppError{Code: CodeForbidden, Message: message}
}

func Internal(err error) *AppError {
	return &AppError{Code: CodeInternal, Message: "internal server error", Err: err}
}

// Code extracts the ErrorCode from err, or CodeInternal for plain errors.
func Code(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeInternal
}

// AsPaymentInsufficient unwraps err into a PaymentInsufficientError if it
// carries one.
func AsPaymentInsufficient(err error) (*PaymentInsufficientError, bool) {
	var pe *PaymentInsufficientError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}
