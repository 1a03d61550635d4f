// Package response writes the JSON envelope shared by every HTTP endpoint and maps errors to it.
package response

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"restaurant-pos/backend/internal/logging"
	"restaurant-pos/backend/internal/platform/pagination"
)

// Envelope is the body of every JSON response.
type Envelope struct {
	Success bool             `json:"success"`
	Data    any              `json:"data,omitempty"`
	Meta    *pagination.Meta `json:"meta,omitempty"`
	Message string           `json:"message,omitempty"`
}

// Error is an HTTP error with a client-facing message.
type Error struct {
	Status  int
	Message string
	// Cause is logged by the error handler and never sent to the client.
	Cause error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Cause }

func newError(status int, msg string) *Error {
	if msg == "" {
		msg = http.StatusText(status)
	}
	return &Error{Status: status, Message: msg}
}

func BadRequest(msg string) *Error   { return newError(fiber.StatusBadRequest, msg) }
func Unauthorized(msg string) *Error { return newError(fiber.StatusUnauthorized, msg) }
func Forbidden(msg string) *Error    { return newError(fiber.StatusForbidden, msg) }
func NotFound(msg string) *Error     { return newError(fiber.StatusNotFound, msg) }
func Conflict(msg string) *Error     { return newError(fiber.StatusConflict, msg) }

// Unavailable is used when an optional backing service (object storage, database) is not configured or down.
func Unavailable(msg string) *Error { return newError(fiber.StatusServiceUnavailable, msg) }

// Internal wraps an unexpected error. The client sees a generic message.
func Internal(cause error) *Error {
	return &Error{Status: fiber.StatusInternalServerError, Message: "internal server error", Cause: cause}
}

// OK writes 200 with data.
func OK(c *fiber.Ctx, data any) error {
	return c.Status(fiber.StatusOK).JSON(Envelope{Success: true, Data: data})
}

// Created writes 201 with data.
func Created(c *fiber.Ctx, data any) error {
	return c.Status(fiber.StatusCreated).JSON(Envelope{Success: true, Data: data})
}

// Page writes 200 with a list and its pagination meta.
func Page(c *fiber.Ctx, data any, meta pagination.Meta) error {
	return c.Status(fiber.StatusOK).JSON(Envelope{Success: true, Data: data, Meta: &meta})
}

// Empty writes 200 with {"success": true}.
func Empty(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(Envelope{Success: true})
}

// Fail writes a failure envelope with the given status.
func Fail(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(Envelope{Success: false, Message: msg})
}

// Classify maps err to a status and client message. Unknown errors become 500.
func Classify(err error) (status int, msg string) {
	var re *Error
	if errors.As(err, &re) {
		return re.Status, re.Message
	}
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code, fe.Message
	}
	return fiber.StatusInternalServerError, "internal server error"
}

// ErrorHandler is the fiber error handler: it writes the failure envelope and logs 5xx causes.
func ErrorHandler(log logging.Logger) fiber.ErrorHandler {
	if log == nil {
		log = logging.Nop()
	}
	return func(c *fiber.Ctx, err error) error {
		status, msg := Classify(err)
		if status >= fiber.StatusInternalServerError {
			log.Error(c.UserContext(), "request failed", "method", c.Method(), "path", c.Path(), "status", status, "error", err)
		}
		return Fail(c, status, msg)
	}
}
