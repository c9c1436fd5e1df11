// Package apperr modela los errores que terminan en una respuesta HTTP.
// Los validadores devuelven *Error en vez de escribir la respuesta, así el handler
// puede cortar devolviendo el payload tal cual.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

const internalMessage = "Internal server error"

type Error struct {
	Status  int
	Message string
	Err     error // detalle interno, solo para logs
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%d %s: %v", e.Status, e.Message, e.Err)
	}
	return fmt.Sprintf("%d %s", e.Status, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, msg string) *Error {
	return &Error{Status: status, Message: msg}
}

func BadRequest(msg string) *Error      { return New(http.StatusBadRequest, msg) }
func Unprocessable(msg string) *Error   { return New(http.StatusUnprocessableEntity, msg) }
func Unauthorized(msg string) *Error    { return New(http.StatusUnauthorized, msg) }
func Forbidden(msg string) *Error       { return New(http.StatusForbidden, msg) }
func NotFound(msg string) *Error        { return New(http.StatusNotFound, msg) }
func TooManyRequests(msg string) *Error { return New(http.StatusTooManyRequests, msg) }
func PayloadTooLarge(msg string) *Error { return New(http.StatusRequestEntityTooLarge, msg) }

// Internal oculta el detalle al cliente; err queda disponible para el log.
func Internal(err error) *Error {
	return &Error{Status: http.StatusInternalServerError, Message: internalMessage, Err: err}
}

// From normaliza cualquier error a *Error (500 si no es uno conocido).
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	return Internal(err)
}
