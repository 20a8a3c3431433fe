package common

import (
	"errors"
	"net/http"
)

// AppError represents an error with an attached code and HTTP status.
type AppError struct {
	Code       string
	Message    string
	HTTPStatus int
	Err        error
	Details    any
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

// Unwrap allows errors.Is/As to inspect the underlying error.
func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewAppError constructs an AppError.
func NewAppError(code, message string, status int, err error) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: status, Err: err}
}

// WithDetails attaches a details payload rendered alongside the error body.
func (e *AppError) WithDetails(details any) *AppError {
	if e == nil {
		return nil
	}
	e.Details = details
	return e
}

// IsAppError checks whether the error is an AppError.
func IsAppError(err error) bool {
	var target *AppError
	return errors.As(err, &target)
}

// NotFound, BadRequest, Conflict and Unprocessable build the AppErrors the
// document and template handlers return most often.
func NotFound(code, message string, err error) *AppError {
	return NewAppError(code, message, http.StatusNotFound, err)
}

func BadRequest(code, message string, err error) *AppError {
	return NewAppError(code, message, http.StatusBadRequest, err)
}

func Conflict(code, message string, err error) *AppError {
	return NewAppError(code, message, http.StatusConflict, err)
}

func Unprocessable(code, message string, err error) *AppError {
	return NewAppError(code, message, http.StatusUnprocessableEntity, err)
}
