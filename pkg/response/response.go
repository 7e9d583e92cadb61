package response

import "cafeledger/pkg/apperror"

// Response represents a standard API response format
type Response struct {
	Status     string                `json:"status"`      // "success" or "error"
	StatusCode int                   `json:"status_code"` // HTTP status code
	Data       interface{}           `json:"data,omitempty"`
	Warnings   []string              `json:"warnings,omitempty"`
	Error      string                `json:"error,omitempty"`
	Reason     string                `json:"reason,omitempty"`
	Errors     []apperror.FieldError `json:"errors,omitempty"`
}

// Success returns a standard success response wrapping the data
func Success(statusCode int, data interface{}) Response {
	return Response{
		Status:     "success",
		StatusCode: statusCode,
		Data:       data,
	}
}

// SuccessWithWarnings is Success plus the data-gap warnings raised while building data.
func SuccessWithWarnings(statusCode int, data interface{}, warnings []string) Response {
	r := Success(statusCode, data)
	r.Warnings = warnings
	return r
}

// Error returns a standard error response wrapping the error message
func Error(statusCode int, err string) Response {
	return Response{
		Status:     "error",
		StatusCode: statusCode,
		Error:      err,
	}
}

// FromAppError renders an application error with its reason and field errors.
func FromAppError(e *apperror.AppError) Response {
	return Response{
		Status:     "error",
		StatusCode: e.Code,
		Error:      e.Message,
		Reason:     e.Reason,
		Errors:     e.Errors,
	}
}
