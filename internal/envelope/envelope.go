// Package envelope defines the uniform result shape returned by every
// gateway operation: a success flag, a payload on success and a
// human-readable message on failure.
package envelope

import (
	"encoding/json"
	"net/http"
)

// Failure codes. They share one shape but callers branch on them, e.g. to
// tell an absent entity apart from a rejected input.
const (
	CodeValidation = "validation"
	CodeNotFound   = "not_found"
	CodeInternal   = "internal"
)

// Envelope carries the outcome of an operation. Data is set iff Success;
// Error and Code are set iff !Success.
type Envelope[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Code    string `json:"code,omitempty"`
}

// Empty is the payload of operations that return nothing on success.
type Empty struct{}

// OK wraps a successful result.
func OK[T any](data T) Envelope[T] {
	return Envelope[T]{Success: true, Data: data}
}

// Fail builds a failure envelope with an explicit code.
func Fail[T any](code, message string) Envelope[T] {
	return Envelope[T]{Code: code, Error: message}
}

// Invalid reports input rejected by validation.
func Invalid[T any](message string) Envelope[T] {
	return Fail[T](CodeValidation, message)
}

// NotFound reports an absent entity. It is a normal outcome, not a fault.
func NotFound[T any](message string) Envelope[T] {
	return Fail[T](CodeNotFound, message)
}

// Internal reports a store or runtime fault with a generic message.
func Internal[T any](message string) Envelope[T] {
	return Fail[T](CodeInternal, message)
}

// Recast copies a failure into an envelope of another payload type.
func Recast[T, U any](e Envelope[U]) Envelope[T] {
	return Envelope[T]{Success: e.Success, Error: e.Error, Code: e.Code}
}

// MarshalJSON always writes data on success, so an empty list stays a
// list, and never writes it on failure.
func (e Envelope[T]) MarshalJSON() ([]byte, error) {
	out := struct {
		Success bool   `json:"success"`
		Data    any    `json:"data,omitempty"`
		Error   string `json:"error,omitempty"`
		Code    string `json:"code,omitempty"`
	}{Success: e.Success, Error: e.Error, Code: e.Code}
	if e.Success {
		out.Data = e.Data
	}
	return json.Marshal(out)
}

// IsNotFound reports a not_found failure.
func (e Envelope[T]) IsNotFound() bool { return !e.Success && e.Code == CodeNotFound }

// IsInvalid reports a validation failure.
func (e Envelope[T]) IsInvalid() bool { return !e.Success && e.Code == CodeValidation }

// HTTPStatus maps the envelope to a response status. okStatus is used on
// success so creates can answer 201.
func (e Envelope[T]) HTTPStatus(okStatus int) int {
	if e.Success {
		return okStatus
	}
	switch e.Code {
	case CodeValidation:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
