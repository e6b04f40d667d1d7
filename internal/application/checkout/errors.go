package checkout

import (
	"errors"

	"github.com/shopfront/backend/internal/domain/shared"
)

// Error codes surfaced by checkout.
const (
	CodeSubmissionFailed     = "ERR_SUBMISSION_FAILED"
	CodeSubmissionInProgress = "SUBMISSION_IN_PROGRESS"
	CodeProductUnavailable   = "PRODUCT_UNAVAILABLE"
	CodeProductNotFound      = "PRODUCT_NOT_FOUND"
)

// SubmissionFailedMessage is the only thing a shopper learns about a failed order call.
const SubmissionFailedMessage = "We could not place your order. Please try again."

var (
	// ErrSubmissionInProgress is returned while another checkout for the same cart is running.
	ErrSubmissionInProgress = shared.NewDomainError(CodeSubmissionInProgress, "An order for this cart is already being placed")

	// ErrProductUnavailable is returned when an inactive product is added to a cart.
	ErrProductUnavailable = shared.NewDomainError(CodeProductUnavailable, "This product is not available")

	// ErrProductNotFound is returned when the product to add does not exist.
	ErrProductNotFound = shared.NewDomainError(CodeProductNotFound, "Product not found")
)

// SubmissionError wraps a failed order-store call. Error() is the generic
// shopper-facing message; the cause is kept for logs only.
type SubmissionError struct {
	Cause error
}

// Error implements the error interface.
func (e *SubmissionError) Error() string {
	return SubmissionFailedMessage
}

// Unwrap returns the cause.
func (e *SubmissionError) Unwrap() error {
	return e.Cause
}

// IsSubmissionError reports whether err is a SubmissionError.
func IsSubmissionError(err error) bool {
	var subErr *SubmissionError
	return errors.As(err, &subErr)
}
