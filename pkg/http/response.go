package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

// Result is the error envelope: {"message": ..., "errors": [...]}. Values
// are copied on every With call so a shared Result is never mutated.
type Result struct {
	Message string      `json:"message"`
	Errors  interface{} `json:"errors,omitempty"`
}

// NewResult starts an envelope with the status text as message.
func NewResult(status int) Result {
	return Result{Message: http.StatusText(status)}
}

// WithMessage returns a copy with message replaced.
func (r Result) WithMessage(message string) Result {
	r.Message = message
	return r
}

// WithErrors returns a copy carrying errs.
func (r Result) WithErrors(errs interface{}) Result {
	r.Errors = errs
	return r
}

// DataResponse writes API response with status and data.
func DataResponse(c echo.Context, statusCode int, data interface{}) error {
	return c.JSON(statusCode, APIResponse{
		Status:  statusCode,
		Message: http.StatusText(statusCode),
		Data:    data,
	})
}

// SuccessResponse writes success response.
func SuccessResponse(c echo.Context, data interface{}) error {
	return DataResponse(c, http.StatusOK, data)
}

// RawResponse writes data as the whole body, for consumers that read the
// payload without an envelope.
func RawResponse(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusOK, data)
}

// BadRequestResponse writes validation errors.
func BadRequestResponse(c echo.Context, errs interface{}) error {
	return c.JSON(http.StatusBadRequest, NewResult(http.StatusBadRequest).WithErrors(errs))
}

// InternalServerErrorResponse writes internal server error.
func InternalServerErrorResponse(c echo.Context) error {
	return c.JSON(http.StatusInternalServerError, NewResult(http.StatusInternalServerError).WithMessage("Something went wrong"))
}

// AppErrorResponse writes application error response.
func AppErrorResponse(c echo.Context, err error) error {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return c.JSON(appErr.Status, NewResult(appErr.Status).
			WithMessage(appErr.Message).
			WithErrors([]*AppError{appErr}))
	}
	return InternalServerErrorResponse(c)
}
