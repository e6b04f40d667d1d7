package dto

import (
	"net/http"
	"strings"
)

// API error codes. Every code a handler can emit is listed in statusByCode.
const (
	ErrCodeInternal   = "ERR_INTERNAL"
	ErrCodeValidation = "ERR_VALIDATION"

	ErrCodeUnauthorized = "ERR_UNAUTHORIZED"
	ErrCodeForbidden    = "ERR_FORBIDDEN"
	ErrCodeTokenExpired = "ERR_TOKEN_EXPIRED"
	ErrCodeTokenInvalid = "ERR_TOKEN_INVALID"

	ErrCodeNotFound            = "ERR_NOT_FOUND"
	ErrCodeAlreadyExists       = "ERR_ALREADY_EXISTS"
	ErrCodeConflict            = "ERR_CONFLICT"
	ErrCodeConcurrencyConflict = "ERR_CONCURRENCY_CONFLICT"
	ErrCodeInvalidState        = "ERR_INVALID_STATE"
	ErrCodeInvalidStatus       = "ERR_INVALID_STATUS"

	ErrCodeBadRequest   = "ERR_BAD_REQUEST"
	ErrCodeInvalidInput = "ERR_INVALID_INPUT"
	ErrCodeInvalidJSON  = "ERR_INVALID_JSON"
	ErrCodeRateLimited  = "ERR_RATE_LIMITED"
)

// Storefront codes.
const (
	ErrCodeEmptyCart              = "ERR_EMPTY_CART"
	ErrCodeMissingCustomerName    = "ERR_MISSING_CUSTOMER_NAME"
	ErrCodeMissingCustomerAddress = "ERR_MISSING_CUSTOMER_ADDRESS"
	ErrCodeProductNotFound        = "ERR_PRODUCT_NOT_FOUND"
	ErrCodeProductUnavailable     = "ERR_PRODUCT_UNAVAILABLE"
	// ErrCodeSubmissionInProgress: another checkout of the same cart is running.
	ErrCodeSubmissionInProgress = "ERR_SUBMISSION_IN_PROGRESS"
	// ErrCodeSubmissionFailed: the order store did not accept the order.
	ErrCodeSubmissionFailed = "ERR_SUBMISSION_FAILED"
	// ErrCodeUpstreamUnavailable: a dependency such as object storage failed.
	ErrCodeUpstreamUnavailable = "ERR_UPSTREAM_UNAVAILABLE"
)

var statusByCode = map[string]int{
	ErrCodeInternal:   http.StatusInternalServerError,
	ErrCodeValidation: http.StatusBadRequest,

	ErrCodeUnauthorized: http.StatusUnauthorized,
	ErrCodeTokenExpired: http.StatusUnauthorized,
	ErrCodeTokenInvalid: http.StatusUnauthorized,
	ErrCodeForbidden:    http.StatusForbidden,

	ErrCodeNotFound:            http.StatusNotFound,
	ErrCodeProductNotFound:     http.StatusNotFound,
	ErrCodeAlreadyExists:       http.StatusConflict,
	ErrCodeConflict:            http.StatusConflict,
	ErrCodeConcurrencyConflict: http.StatusConflict,

	ErrCodeSubmissionInProgress: http.StatusConflict,

	ErrCodeInvalidState:       http.StatusUnprocessableEntity,
	ErrCodeInvalidStatus:      http.StatusUnprocessableEntity,
	ErrCodeProductUnavailable: http.StatusUnprocessableEntity,

	ErrCodeBadRequest:             http.StatusBadRequest,
	ErrCodeInvalidInput:           http.StatusBadRequest,
	ErrCodeInvalidJSON:            http.StatusBadRequest,
	ErrCodeEmptyCart:              http.StatusBadRequest,
	ErrCodeMissingCustomerName:    http.StatusBadRequest,
	ErrCodeMissingCustomerAddress: http.StatusBadRequest,

	ErrCodeRateLimited: http.StatusTooManyRequests,

	ErrCodeSubmissionFailed:    http.StatusBadGateway,
	ErrCodeUpstreamUnavailable: http.StatusBadGateway,
}

// GetHTTPStatus maps an API error code to its status. Field-level
// ERR_INVALID_* codes are bad requests; other unknown codes are 500s.
func GetHTTPStatus(code string) int {
	if status, ok := statusByCode[code]; ok {
		return status
	}
	if strings.HasPrefix(code, "ERR_INVALID_") {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// domainCodes translates the codes domain errors carry into API codes
// where the two differ in more than the ERR_ prefix.
var domainCodes = map[string]string{
	"VALIDATION_ERROR":        ErrCodeValidation,
	"INTERNAL_ERROR":          ErrCodeInternal,
	"ALREADY_ACTIVE":          ErrCodeInvalidState,
	"ALREADY_INACTIVE":        ErrCodeInvalidState,
	"ALREADY_SUSPENDED":       ErrCodeInvalidState,
	"ORDER_NUMBER_EXHAUSTED":  ErrCodeConflict,
	"DOMAIN_TAKEN":            ErrCodeConflict,
	"UPLOAD_URL_FAILED":       ErrCodeUpstreamUnavailable,
	"DISALLOWED_CONTENT_TYPE": ErrCodeInvalidInput,
}

// NormalizeErrorCode turns a domain error code into an API code. Codes
// already in API form pass through; a known or INVALID_* code gains the
// ERR_ prefix; anything else is returned as is.
func NormalizeErrorCode(code string) string {
	if strings.HasPrefix(code, "ERR_") {
		return code
	}
	if mapped, ok := domainCodes[code]; ok {
		return mapped
	}
	prefixed := "ERR_" + code
	if _, ok := statusByCode[prefixed]; ok || strings.HasPrefix(code, "INVALID_") {
		return prefixed
	}
	return code
}
