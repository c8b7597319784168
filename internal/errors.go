package internal

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

type ErrorType string

const (
	ErrorTypeValidation   ErrorType = "VALIDATION_ERROR"
	ErrorTypeNotFound     ErrorType = "NOT_FOUND"
	ErrorTypeUnauthorized ErrorType = "UNAUTHORIZED"
	ErrorTypeForbidden    ErrorType = "FORBIDDEN"
	ErrorTypeConflict     ErrorType = "CONFLICT"
	ErrorTypeInternal     ErrorType = "INTERNAL_ERROR"
	ErrorTypeExternal     ErrorType = "EXTERNAL_ERROR"
	ErrorTypeTransient    ErrorType = "TRANSIENT_ERROR"
)

type ErrorCode string

const (
	ErrCodeValidationFailed  ErrorCode = "VALIDATION_FAILED"
	ErrCodeInvalidProgress   ErrorCode = "INVALID_PROGRESS"
	ErrCodeInvalidContent    ErrorCode = "INVALID_CONTENT"
	ErrCodeInvalidType       ErrorCode = "INVALID_RESOLUTION_TYPE"
	ErrCodeInvalidDate       ErrorCode = "INVALID_DATE"
	ErrCodeReasonRequired    ErrorCode = "REASON_REQUIRED"
	ErrCodeDeadlineRequired  ErrorCode = "DEADLINE_REQUIRED"
	ErrCodeExecutorRequired  ErrorCode = "EXECUTOR_REQUIRED"
	ErrCodeInvalidUnits      ErrorCode = "INVALID_UNITS"
	ErrCodeInvalidTransition ErrorCode = "INVALID_TRANSITION"
	ErrCodeTransitionPending ErrorCode = "TRANSITION_IN_FLIGHT"

	ErrCodeResolutionNotFound ErrorCode = "RESOLUTION_NOT_FOUND"
	ErrCodeUserNotFound       ErrorCode = "USER_NOT_FOUND"
	ErrCodeInteractionMissing ErrorCode = "INTERACTION_NOT_FOUND"
	ErrCodeUnauthorizedAccess ErrorCode = "UNAUTHORIZED_ACCESS"
	ErrCodeActionNotAllowed   ErrorCode = "ACTION_NOT_ALLOWED"
	ErrCodeChatClosed         ErrorCode = "CHAT_CLOSED"

	ErrCodeInvalidToken ErrorCode = "INVALID_TOKEN"
	ErrCodeTokenExpired ErrorCode = "TOKEN_EXPIRED"

	ErrCodeAuthorityUnavailable ErrorCode = "AUTHORITY_UNAVAILABLE"
	ErrCodeAuthorityResponse    ErrorCode = "AUTHORITY_BAD_RESPONSE"
)

type AppError struct {
	Type       ErrorType   `json:"type"`
	Code       ErrorCode   `json:"code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
	StatusCode int         `json:"-"`
	Cause      error       `json:"-"`
}

func (e *AppError) Error() string {
	if e.Details != nil {
		if validationErrors, ok := e.Details.(ValidationErrors); ok && len(validationErrors.Errors) > 0 {
			return validationErrors.Errors[0].Message
		}
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) GetDetailedMessage() string {
	if e.Details != nil {
		if validationErrors, ok := e.Details.(ValidationErrors); ok {
			if len(validationErrors.Errors) == 1 {
				return validationErrors.Errors[0].Message
			} else if len(validationErrors.Errors) > 1 {
				messages := make([]string, len(validationErrors.Errors))
				for i, err := range validationErrors.Errors {
					messages[i] = err.Message
				}
				return strings.Join(messages, "; ")
			}
		}
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is matches on type and code so that copies of a sentinel (for example a
// decoded server response) compare equal with errors.Is.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Type == t.Type && e.Code == t.Code
}

func (e *AppError) WithCause(cause error) *AppError {
	clone := *e
	clone.Cause = cause
	return &clone
}

func (e *AppError) WithDetails(details interface{}) *AppError {
	clone := *e
	clone.Details = details
	return &clone
}

func (e *AppError) WithMessage(message string) *AppError {
	clone := *e
	clone.Message = message
	return &clone
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func NewValidationError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

func NewValidationFieldError(field, message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Code:       ErrCodeValidationFailed,
		Message:    "Validation failed",
		StatusCode: http.StatusBadRequest,
		Details: ValidationErrors{
			Errors: []ValidationError{
				{Field: field, Message: message, Code: string(code)},
			},
		},
	}
}

func NewNotFoundError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeNotFound,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusNotFound,
	}
}

func NewUnauthorizedError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeUnauthorized,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusUnauthorized,
	}
}

func NewForbiddenError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeForbidden,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusForbidden,
	}
}

func NewInternalError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Code:       "INTERNAL_ERROR",
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

// NewBadResponseError reports a 2xx answer from the authority that could not
// be decoded.
func NewBadResponseError(cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Code:       ErrCodeAuthorityResponse,
		Message:    "unexpected response from the server",
		StatusCode: http.StatusBadGateway,
		Cause:      cause,
	}
}

func NewConflictError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeConflict,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusConflict,
	}
}

// NewTransientError marks a failure the caller may retry without changing
// its input (network errors, unavailable upstream).
func NewTransientError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeTransient,
		Code:       ErrCodeAuthorityUnavailable,
		Message:    message,
		StatusCode: http.StatusServiceUnavailable,
		Cause:      cause,
	}
}

var (
	ErrResolutionNotFound = NewNotFoundError("Resolution not found", ErrCodeResolutionNotFound)
	ErrUserNotFound       = NewNotFoundError("User not found", ErrCodeUserNotFound)
	ErrInteractionMissing = NewNotFoundError("The message being replied to no longer exists", ErrCodeInteractionMissing)
	ErrUnauthorizedAccess = NewForbiddenError("unauthorized access to resolution", ErrCodeUnauthorizedAccess)
	ErrActionNotAllowed   = NewForbiddenError("you are not allowed to perform this action", ErrCodeActionNotAllowed)
	ErrChatClosed         = NewForbiddenError("discussion is closed for this resolution", ErrCodeChatClosed)

	ErrInvalidTransition  = NewConflictError("invalid status transition for this resolution", ErrCodeInvalidTransition)
	ErrTransitionInFlight = NewConflictError("another action is already being processed", ErrCodeTransitionPending)
	ErrDeadlineRequired   = NewValidationError("a deadline must be set before approving this resolution", ErrCodeDeadlineRequired)
	ErrReasonRequired     = NewValidationError("a reason is required for this action", ErrCodeReasonRequired)
	ErrExecutorRequired   = NewValidationError("an executor unit is required for operational resolutions", ErrCodeExecutorRequired)
	ErrInvalidProgress    = NewValidationError("progress must be between 0 and 100", ErrCodeInvalidProgress)
	ErrEmptyContent       = NewValidationError("message content is required", ErrCodeInvalidContent)

	ErrInvalidToken = NewUnauthorizedError("Invalid token", ErrCodeInvalidToken)
	ErrTokenExpired = NewUnauthorizedError("Token has expired", ErrCodeTokenExpired)
)

func IsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsRetryable reports whether err is a transient failure whose input can be
// resubmitted unchanged.
func IsRetryable(err error) bool {
	appErr, ok := IsAppError(err)
	return ok && appErr.Type == ErrorTypeTransient
}

// UserMessage returns the human readable reason to surface for err.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	if appErr, ok := IsAppError(err); ok {
		return appErr.GetDetailedMessage()
	}
	return err.Error()
}

type Response struct {
	Error *AppError `json:"error"`
}

func (e *AppError) ToHTTPResponse() (int, interface{}) {
	return e.StatusCode, Response{Error: e}
}

func (e *AppError) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type    ErrorType   `json:"type"`
		Code    ErrorCode   `json:"code"`
		Message string      `json:"message"`
		Details interface{} `json:"details,omitempty"`
	}{
		Type:    e.Type,
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
	})
}

// NewAppErrorFromResponse rebuilds the error envelope returned by the
// authority. Bodies that are not an error envelope keep the raw text as the
// message so it can still be shown verbatim.
func NewAppErrorFromResponse(statusCode int, body []byte) *AppError {
	var envelope struct {
		Error *struct {
			Type    ErrorType         `json:"type"`
			Code    ErrorCode         `json:"code"`
			Message string            `json:"message"`
			Details *ValidationErrors `json:"details,omitempty"`
		} `json:"error"`
	}

	appErr := &AppError{
		Type:       errorTypeForStatus(statusCode),
		Code:       ErrCodeAuthorityResponse,
		Message:    strings.TrimSpace(string(body)),
		StatusCode: statusCode,
	}
	if appErr.Message == "" {
		appErr.Message = http.StatusText(statusCode)
	}

	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error != nil {
		appErr.Type = envelope.Error.Type
		appErr.Code = envelope.Error.Code
		appErr.Message = envelope.Error.Message
		if envelope.Error.Details != nil && len(envelope.Error.Details.Errors) > 0 {
			appErr.Details = *envelope.Error.Details
		}
	}
	return appErr
}

func errorTypeForStatus(statusCode int) ErrorType {
	switch {
	case statusCode == http.StatusBadRequest || statusCode == http.StatusUnprocessableEntity:
		return ErrorTypeValidation
	case statusCode == http.StatusUnauthorized:
		return ErrorTypeUnauthorized
	case statusCode == http.StatusForbidden:
		return ErrorTypeForbidden
	case statusCode == http.StatusNotFound:
		return ErrorTypeNotFound
	case statusCode == http.StatusConflict:
		return ErrorTypeConflict
	case statusCode == http.StatusBadGateway || statusCode == http.StatusServiceUnavailable || statusCode == http.StatusGatewayTimeout:
		return ErrorTypeTransient
	default:
		return ErrorTypeExternal
	}
}
