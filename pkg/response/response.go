package response

import (
	"net/http"
)

// Response is the envelope every club API endpoint answers with
type Response struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *ErrorInfo `json:"error,omitempty"`
	Meta    *Meta      `json:"meta,omitempty"`
}

// ErrorInfo represents error details in the response
type ErrorInfo struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

// Meta describes one limit/offset window of a list
type Meta struct {
	Total      int64 `json:"total"`
	Limit      int   `json:"limit"`
	Offset     int   `json:"offset"`
	Page       int   `json:"page"`
	TotalPages int   `json:"total_pages"`
	HasMore    bool  `json:"has_more"`
}

// Error codes
const (
	ErrCodeBadRequest      = "BAD_REQUEST"
	ErrCodeNotFound        = "NOT_FOUND"
	ErrCodePayloadTooLarge = "PAYLOAD_TOO_LARGE"
	ErrCodeTooManyRequests = "TOO_MANY_REQUESTS"

	// Auth errors
	ErrCodeMissingToken = "MISSING_TOKEN"
	ErrCodeInvalidToken = "INVALID_TOKEN"
	ErrCodeTokenExpired = "TOKEN_EXPIRED"

	// Content errors
	ErrCodeImageRequired = "IMAGE_REQUIRED"
	ErrCodeInvalidImage  = "INVALID_IMAGE"
	ErrCodeAlreadyExists = "ALREADY_EXISTS"

	ErrCodeInternalError      = "INTERNAL_ERROR"
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE"
)

var statusByCode = map[string]int{
	ErrCodeBadRequest:         http.StatusBadRequest,
	ErrCodeNotFound:           http.StatusNotFound,
	ErrCodePayloadTooLarge:    http.StatusRequestEntityTooLarge,
	ErrCodeTooManyRequests:    http.StatusTooManyRequests,
	ErrCodeMissingToken:       http.StatusUnauthorized,
	ErrCodeInvalidToken:       http.StatusUnauthorized,
	ErrCodeTokenExpired:       http.StatusUnauthorized,
	ErrCodeImageRequired:      http.StatusBadRequest,
	ErrCodeInvalidImage:       http.StatusUnsupportedMediaType,
	ErrCodeAlreadyExists:      http.StatusConflict,
	ErrCodeInternalError:      http.StatusInternalServerError,
	ErrCodeServiceUnavailable: http.StatusServiceUnavailable,
}

// Status returns the HTTP status for an error code; unknown codes are 500
func Status(code string) int {
	if status, ok := statusByCode[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// Success wraps data in a success envelope
func Success(data any) *Response {
	return &Response{Success: true, Data: data}
}

// Error creates an error response
func Error(code, message string) *Response {
	return &Response{
		Error: &ErrorInfo{Code: code, Message: message},
	}
}

// ErrorWithDetails creates an error response carrying per-field or
// per-dependency details
func ErrorWithDetails(code, message string, details map[string]string) *Response {
	return &Response{
		Error: &ErrorInfo{Code: code, Message: message, Details: details},
	}
}

// Paginated wraps one window of a list. limit must be positive for the
// page numbers to mean anything.
func Paginated(data any, limit, offset int, total int64) *Response {
	meta := &Meta{
		Total:   total,
		Limit:   limit,
		Offset:  offset,
		Page:    1,
		HasMore: int64(offset+limit) < total,
	}
	if limit > 0 {
		meta.Page = offset/limit + 1
		meta.TotalPages = int((total + int64(limit) - 1) / int64(limit))
	}
	return &Response{Success: true, Data: data, Meta: meta}
}

// BadRequest creates a bad request error response
func BadRequest(message string) *Response {
	return Error(ErrCodeBadRequest, message)
}

// TooManyRequests creates a rate limit error response
func TooManyRequests(message string) *Response {
	if message == "" {
		message = "Too many requests, please try again later"
	}
	return Error(ErrCodeTooManyRequests, message)
}
