package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Error is an application error carrying the HTTP status to answer with.
type Error struct {
	Code    int
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// MarshalJSON renders the storefront failure shape.
func (e *Error) MarshalJSON() ([]byte, error) {
	body := struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
		Error   string `json:"error,omitempty"`
	}{Message: e.Message}
	if e.Err != nil {
		body.Error = e.Err.Error()
	}
	return json.Marshal(body)
}

func New(code int, message string, err error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Wrap returns a copy of the sentinel with err attached.
func (e *Error) Wrap(err error) *Error {
	return New(e.Code, e.Message, err)
}

// StatusCode returns the HTTP status of err, or 500 when err is not an *Error.
func StatusCode(err error) int {
	var appErr *Error
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return http.StatusInternalServerError
}

var (
	ErrInternalServer     = New(http.StatusInternalServerError, "Internal server error", nil)
	ErrValidation         = New(http.StatusBadRequest, "Invalid request", nil)
	ErrMissingEmail       = New(http.StatusBadRequest, "Email is required", nil)
	ErrCustomerResolution = New(http.StatusBadGateway, "Customer lookup failed", nil)
	ErrPaymentFailed      = New(http.StatusBadGateway, "Transaction failed. Please check the card information and try again.", nil)
)

// ErrorMiddleware renders the last error pushed with c.Error.
func ErrorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		var appErr *Error
		if !stderrors.As(err, &appErr) {
			appErr = ErrInternalServer.Wrap(err)
		}
		c.AbortWithStatusJSON(appErr.Code, appErr)
	}
}
