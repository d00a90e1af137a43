package errors

import (
	"fmt"
	"net/http"
)

// Error is a user facing error that knows the HTTP status it maps to.
type Error interface {
	error
	StatusCode() int
}

// ErrorInvalidArgument is the error for malformed request input, e.g. a grade
// ID that is not a 24 character hex string.
type ErrorInvalidArgument struct {
	Reason string
}

func (ei *ErrorInvalidArgument) Error() string {
	if ei.Reason == "" {
		return "invalid argument"
	}
	return ei.Reason
}

func (ei *ErrorInvalidArgument) StatusCode() int {
	return http.StatusBadRequest
}

// ErrorBodyTooLarge is the error for request bodies over Limit bytes.
type ErrorBodyTooLarge struct {
	Limit int64
}

func (eb *ErrorBodyTooLarge) Error() string {
	return fmt.Sprintf("request body must not be larger than %d bytes", eb.Limit)
}

func (eb *ErrorBodyTooLarge) StatusCode() int {
	return http.StatusRequestEntityTooLarge
}

// ErrorNotFound is the error for requests that matched no grade record.
type ErrorNotFound struct{}

func (en *ErrorNotFound) Error() string {
	return "Not found"
}

func (en *ErrorNotFound) StatusCode() int {
	return http.StatusNotFound
}

// ErrorStore is returned when the database call itself failed. The wrapped
// error is kept for logging and is never shown to the client.
type ErrorStore struct {
	Err error
}

func (es *ErrorStore) Error() string {
	return "Internal Server Error"
}

func (es *ErrorStore) StatusCode() int {
	return http.StatusInternalServerError
}

func (es *ErrorStore) Unwrap() error {
	return es.Err
}

// ErrorUnhandled is the error for any failure that escaped a handler.
type ErrorUnhandled struct{}

func (eu *ErrorUnhandled) Error() string {
	return "Seems like we messed up somewhere..."
}

func (eu *ErrorUnhandled) StatusCode() int {
	return http.StatusInternalServerError
}
