package httpx

import (
	"fmt"
	"net/http"
)

// Business error codes
const (
	// Success
	CodeSuccess = 0

	// Authentication/Authorization errors (1000-1099)
	CodeUnauthorized       = 1001 // Not logged in / Token missing
	CodeInvalidToken       = 1002 // Token invalid
	CodeTokenExpired       = 1003 // Token expired
	CodeForbidden          = 1004 // No permission
	CodeInvalidCredentials = 1005 // Unknown email or wrong password
	CodeNotActivated       = 1006 // Account awaiting admin activation

	// Parameter errors (2000-2099)
	CodeParamMissing         = 2001 // Parameter missing
	CodeParamInvalid         = 2002 // Parameter format error
	CodeInvalidCaptcha       = 2003 // Captcha wrong, expired or already consumed
	CodeUnsupportedMediaType = 2004 // File type not in upload whitelist
	CodePayloadTooLarge      = 2005 // Upload exceeds size ceiling

	// Resource/Business errors (3000-3999)
	CodeNotFound      = 3001 // Resource not found
	CodeAlreadyExists = 3002 // Duplicate title/username/email

	// Throttling (4000-4099)
	CodeRateLimited = 4001 // Too many requests from one client

	// System errors (5000-5999)
	CodeInternalError = 5001 // Internal service error
	CodeDatabaseError = 5002 // Database error
	CodeMailError     = 5003 // Outbound mail delivery failure
)

// AppError represents an application error with HTTP status and business code
type AppError struct {
	HTTPStatus int         // HTTP status code
	Code       int         // Business error code
	Message    string      // User-facing error message
	Err        error       // Internal error (for logging only, not returned to client)
	Data       interface{} // Additional data (for detailed error information)
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("code=%d, message=%s, err=%v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("code=%d, message=%s", e.Code, e.Message)
}

// WithData adds additional data to the error
func (e *AppError) WithData(data interface{}) *AppError {
	e.Data = data
	return e
}

// NewAppError creates a new AppError
func NewAppError(httpStatus, code int, message string, err error) *AppError {
	return &AppError{
		HTTPStatus: httpStatus,
		Code:       code,
		Message:    message,
		Err:        err,
	}
}

// Authentication/Authorization error constructors

// ErrUnauthorized creates a 401 unauthorized error
func ErrUnauthorized(message string) *AppError {
	if message == "" {
		message = "unauthorized"
	}
	return NewAppError(http.StatusUnauthorized, CodeUnauthorized, message, nil)
}

// ErrInvalidToken creates a 401 invalid token error
func ErrInvalidToken(message string) *AppError {
	if message == "" {
		message = "invalid token"
	}
	return NewAppError(http.StatusUnauthorized, CodeInvalidToken, message, nil)
}

// ErrTokenExpired creates a 401 token expired error
func ErrTokenExpired(message string) *AppError {
	if message == "" {
		message = "token expired"
	}
	return NewAppError(http.StatusUnauthorized, CodeTokenExpired, message, nil)
}

// ErrForbidden creates a 403 forbidden error
func ErrForbidden(message string) *AppError {
	if message == "" {
		message = "access denied"
	}
	return NewAppError(http.StatusForbidden, CodeForbidden, message, nil)
}

// ErrInvalidCredentials creates a 400 bad credentials error. Unknown email
// and wrong password share one message so the endpoint does not leak which
// accounts exist.
func ErrInvalidCredentials() *AppError {
	return NewAppError(http.StatusBadRequest, CodeInvalidCredentials, "invalid email or password", nil)
}

// ErrNotActivated creates a 403 account-not-activated error
func ErrNotActivated() *AppError {
	return NewAppError(http.StatusForbidden, CodeNotActivated,
		"your account is not activated yet, please wait for admin approval", nil)
}

// Parameter error constructors

// ErrParamMissing creates a 400 parameter missing error
func ErrParamMissing(message string) *AppError {
	if message == "" {
		message = "parameter missing"
	}
	return NewAppError(http.StatusBadRequest, CodeParamMissing, message, nil)
}

// ErrParamInvalid creates a 400 parameter invalid error
func ErrParamInvalid(message string) *AppError {
	if message == "" {
		message = "parameter format error"
	}
	return NewAppError(http.StatusBadRequest, CodeParamInvalid, message, nil)
}

// ErrInvalidCaptcha creates a 400 captcha error
func ErrInvalidCaptcha() *AppError {
	return NewAppError(http.StatusBadRequest, CodeInvalidCaptcha, "invalid captcha", nil)
}

// ErrUnsupportedMediaType creates a 415 upload type error
func ErrUnsupportedMediaType(message string) *AppError {
	if message == "" {
		message = "unsupported file type"
	}
	return NewAppError(http.StatusUnsupportedMediaType, CodeUnsupportedMediaType, message, nil)
}

// ErrPayloadTooLarge creates a 413 upload size error
func ErrPayloadTooLarge(message string) *AppError {
	if message == "" {
		message = "file exceeds maximum upload size"
	}
	return NewAppError(http.StatusRequestEntityTooLarge, CodePayloadTooLarge, message, nil)
}

// Resource/Business error constructors

// ErrNotFound creates a 404 not found error
func ErrNotFound(message string) *AppError {
	if message == "" {
		message = "resource not found"
	}
	return NewAppError(http.StatusNotFound, CodeNotFound, message, nil)
}

// ErrAlreadyExists creates a duplicate-resource error. Conflicts surface as
// 400 with a message, matching the public API contract.
func ErrAlreadyExists(message string) *AppError {
	if message == "" {
		message = "resource already exists"
	}
	return NewAppError(http.StatusBadRequest, CodeAlreadyExists, message, nil)
}

// ErrRateLimited creates a 429 throttling error
func ErrRateLimited(message string) *AppError {
	if message == "" {
		message = "too many requests, please try again later"
	}
	return NewAppError(http.StatusTooManyRequests, CodeRateLimited, message, nil)
}

// System error constructors

// ErrInternalError creates a 500 internal error
func ErrInternalError(message string, err error) *AppError {
	if message == "" {
		message = "internal server error"
	}
	return NewAppError(http.StatusInternalServerError, CodeInternalError, message, err)
}

// ErrDatabaseError creates a 500 database error
func ErrDatabaseError(message string, err error) *AppError {
	if message == "" {
		message = "database error"
	}
	return NewAppError(http.StatusInternalServerError, CodeDatabaseError, message, err)
}

// ErrMailDelivery creates a 500 mail delivery error
func ErrMailDelivery(err error) *AppError {
	return NewAppError(http.StatusInternalServerError, CodeMailError, "failed to send email", err)
}
