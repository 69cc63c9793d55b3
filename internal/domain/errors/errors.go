package errors

import (
	"errors"
	"net/http"
)

// Domain errors
var (
	ErrNotFound      = errors.New("resource not found")
	ErrAlreadyExists = errors.New("resource already exists")
	ErrInvalidInput  = errors.New("invalid input")
	ErrBadRequest    = errors.New("bad request")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrForbidden     = errors.New("forbidden")
	ErrConflict      = errors.New("conflict")
)

// Payment core errors. All are recoverable by the caller.
var (
	ErrInvalidAddress          = errors.New("invalid address")
	ErrPrecisionLoss           = errors.New("canonical address does not fit target chain")
	ErrInvalidAmount           = errors.New("invalid amount")
	ErrUnsupportedRoute        = errors.New("unsupported payment route")
	ErrInvalidBridgeParameters = errors.New("invalid bridge parameters")
	ErrInvalidState            = errors.New("invalid state transition")
)

// Error codes returned to API clients
const (
	CodeNotFound                = "ERR_NOT_FOUND"
	CodeBadRequest              = "ERR_BAD_REQUEST"
	CodeUnauthorized            = "ERR_UNAUTHORIZED"
	CodeForbidden               = "ERR_FORBIDDEN"
	CodeConflict                = "ERR_CONFLICT"
	CodeInternalError           = "ERR_INTERNAL"
	CodeInvalidAddress          = "ERR_INVALID_ADDRESS"
	CodePrecisionLoss           = "ERR_PRECISION_LOSS"
	CodeInvalidAmount           = "ERR_INVALID_AMOUNT"
	CodeUnsupportedRoute        = "ERR_UNSUPPORTED_ROUTE"
	CodeInvalidBridgeParameters = "ERR_INVALID_BRIDGE_PARAMETERS"
	CodeInvalidState            = "ERR_INVALID_STATE"
)

// AppError represents application error with HTTP status
type AppError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a new app error
func NewAppError(status int, code, message string, err error) *AppError {
	return &AppError{
		Status:  status,
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common error constructors
func NotFound(message string) *AppError {
	return NewAppError(http.StatusNotFound, CodeNotFound, message, ErrNotFound)
}

func BadRequest(message string) *AppError {
	return NewAppError(http.StatusBadRequest, CodeBadRequest, message, ErrInvalidInput)
}

func Unauthorized(message string) *AppError {
	return NewAppError(http.StatusUnauthorized, CodeUnauthorized, message, ErrUnauthorized)
}

func Forbidden(message string) *AppError {
	return NewAppError(http.StatusForbidden, CodeForbidden, message, ErrForbidden)
}

func Conflict(message string) *AppError {
	return NewAppError(http.StatusConflict, CodeConflict, message, ErrConflict)
}

func InternalError(err error) *AppError {
	return NewAppError(http.StatusInternalServerError, CodeInternalError, "internal server error", err)
}

// NewError creates a bad request error with a custom message wrapping an existing error
func NewError(message string, err error) *AppError {
	return NewAppError(http.StatusBadRequest, CodeBadRequest, message, err)
}

// FromDomain maps a wrapped domain error onto an AppError so that payment
// initiation failures carry an explanatory message. Unknown errors become
// internal errors.
func FromDomain(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	switch {
	case errors.Is(err, ErrNotFound):
		return NewAppError(http.StatusNotFound, CodeNotFound, err.Error(), err)
	case errors.Is(err, ErrInvalidAddress):
		return NewAppError(http.StatusBadRequest, CodeInvalidAddress, err.Error(), err)
	case errors.Is(err, ErrPrecisionLoss):
		return NewAppError(http.StatusBadRequest, CodePrecisionLoss, err.Error(), err)
	case errors.Is(err, ErrInvalidAmount):
		return NewAppError(http.StatusBadRequest, CodeInvalidAmount, err.Error(), err)
	case errors.Is(err, ErrUnsupportedRoute):
		return NewAppError(http.StatusUnprocessableEntity, CodeUnsupportedRoute, err.Error(), err)
	case errors.Is(err, ErrInvalidBridgeParameters):
		return NewAppError(http.StatusUnprocessableEntity, CodeInvalidBridgeParameters, err.Error(), err)
	case errors.Is(err, ErrInvalidState):
		return NewAppError(http.StatusConflict, CodeInvalidState, err.Error(), err)
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrBadRequest):
		return NewAppError(http.StatusBadRequest, CodeBadRequest, err.Error(), err)
	case errors.Is(err, ErrAlreadyExists), errors.Is(err, ErrConflict):
		return NewAppError(http.StatusConflict, CodeConflict, err.Error(), err)
	case errors.Is(err, ErrUnauthorized):
		return NewAppError(http.StatusUnauthorized, CodeUnauthorized, err.Error(), err)
	}
	return InternalError(err)
}
