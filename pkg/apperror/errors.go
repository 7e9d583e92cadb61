package apperror

import (
	"errors"
	"net/http"
)

// Reason codes surfaced to API clients.
const (
	ReasonValidation           = "VALIDATION_FAILED"
	ReasonRecipeValidation     = "RECIPE_VALIDATION_FAILED"
	ReasonProductNotFound      = "PRODUCT_NOT_FOUND"
	ReasonRecipeNotFound       = "RECIPE_NOT_FOUND"
	ReasonInvoiceNotFound      = "INVOICE_NOT_FOUND"
	ReasonSnapshotNotFound     = "SNAPSHOT_NOT_FOUND"
	ReasonSnapshotApproved     = "SNAPSHOT_APPROVED"
	ReasonSnapshotConflict     = "SNAPSHOT_CONFLICT"
	ReasonOrderExists          = "ORDER_ALREADY_EXISTS"
	ReasonOrderNotFound        = "ORDER_NOT_FOUND"
	ReasonTaxRuleOverlap       = "TAX_RULE_OVERLAP"
	ReasonRecipeVersionClash   = "RECIPE_VERSION_CONFLICT"
	ReasonInvoiceChainConflict = "INVOICE_CHAIN_CONFLICT"
	ReasonLockNotObtained      = "LOCK_NOT_OBTAINED"
)

// Field-level codes used in validation error lists.
const (
	CodeRawItemNotFound = "RAW_ITEM_NOT_FOUND"
	CodeInvalidQuantity = "INVALID_QUANTITY"
	CodeUnsupportedUnit = "UNSUPPORTED_UNIT"
	CodeRequired        = "REQUIRED"
	CodeInvalid         = "INVALID"
)

// AppError represents an application error with HTTP status code
type AppError struct {
	Code    int          `json:"code"`
	Reason  string       `json:"reason"`
	Message string       `json:"message"`
	Errors  []FieldError `json:"errors,omitempty"`
}

// FieldError represents a validation error for a specific field
type FieldError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *AppError) Error() string {
	return e.Message
}

// Is matches on Reason so callers can compare against sentinel values.
func (e *AppError) Is(target error) bool {
	var t *AppError
	if !errors.As(target, &t) {
		return false
	}
	return e.Reason == t.Reason
}

func NewValidationError(reason string, fieldErrors []FieldError) *AppError {
	if reason == "" {
		reason = ReasonValidation
	}
	return &AppError{
		Code:    http.StatusUnprocessableEntity,
		Reason:  reason,
		Message: "Validation failed",
		Errors:  fieldErrors,
	}
}

// NewNotFoundError creates a not found error with a custom message
func NewNotFoundError(reason, resource string) *AppError {
	return &AppError{
		Code:    http.StatusNotFound,
		Reason:  reason,
		Message: resource + " not found",
	}
}

// NewConflictError creates a conflict error with a custom message
func NewConflictError(reason, message string) *AppError {
	return &AppError{
		Code:    http.StatusConflict,
		Reason:  reason,
		Message: message,
	}
}

// NewIntegrityError reports a write that kept colliding after all retries.
func NewIntegrityError(reason, message string) *AppError {
	return &AppError{
		Code:    http.StatusConflict,
		Reason:  reason,
		Message: message,
	}
}

func NewBadRequestError(message string) *AppError {
	return &AppError{
		Code:    http.StatusBadRequest,
		Reason:  ReasonValidation,
		Message: message,
	}
}

// GetAppError converts an error to AppError if possible
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return &AppError{
		Code:    http.StatusInternalServerError,
		Reason:  "INTERNAL",
		Message: err.Error(),
	}
}

// HasReason reports whether err is an AppError carrying reason.
func HasReason(err error, reason string) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Reason == reason
}
