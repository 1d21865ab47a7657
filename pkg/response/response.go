package response

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/connectsphere/backend/internal/apperrors"
)

// Envelope is the uniform response wrapper returned by every endpoint.
type Envelope struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Errors  interface{} `json:"errors,omitempty"`
}

// Success writes a success envelope with the given payload.
func Success(c echo.Context, code int, data interface{}) error {
	return c.JSON(code, Envelope{Status: "success", Data: data})
}

// SuccessMessage writes a success envelope with a message and payload.
func SuccessMessage(c echo.Context, code int, message string, data interface{}) error {
	return c.JSON(code, Envelope{Status: "success", Message: message, Data: data})
}

// NoContent writes an empty 204 response.
func NoContent(c echo.Context) error {
	return c.NoContent(http.StatusNoContent)
}

// NewErrorHandler builds the echo HTTPErrorHandler that maps the error
// taxonomy onto status codes and the error envelope. Internal error
// detail is only included in development mode.
func NewErrorHandler(log *logrus.Logger, development bool) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status := http.StatusInternalServerError
		message := "Internal server error"
		var fields interface{}

		var appErr *apperrors.Error
		var httpErr *echo.HTTPError
		switch {
		case errors.As(err, &appErr):
			status = appErr.Kind.HTTPStatus()
			message = appErr.Message
			if len(appErr.Fields) > 0 {
				fields = appErr.Fields
			}
			if appErr.Kind == apperrors.KindInternal {
				log.WithFields(logrus.Fields{
					"path":   c.Path(),
					"method": c.Request().Method,
					"error":  appErr.Error(),
				}).Error("request failed")
				if !development {
					message = "Internal server error"
				}
			}
		case errors.As(err, &httpErr):
			status = httpErr.Code
			if msg, ok := httpErr.Message.(string); ok {
				message = msg
			}
		default:
			log.WithFields(logrus.Fields{
				"path":   c.Path(),
				"method": c.Request().Method,
				"error":  err.Error(),
			}).Error("request failed")
			if development {
				message = err.Error()
			}
		}

		resp := Envelope{Status: "error", Message: message, Errors: fields}
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(status)
			return
		}
		_ = c.JSON(status, resp)
	}
}
