package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/auth-system/internal/core/domain"
)

// envelope is the JSON shape of every auth API response.
type envelope struct {
	Message string   `json:"message"`
	Result  any      `json:"result,omitempty"`
	Error   string   `json:"error,omitempty"`
	Errors  []string `json:"errors,omitempty"`
}

func success(c echo.Context, message string, result any) error {
	return c.JSON(http.StatusOK, envelope{Message: message, Result: result})
}

// bindAndValidate binds the body into req and runs the registered validator.
// A non-nil error has already been written to the response.
func bindAndValidate(c echo.Context, req any) (bool, error) {
	if err := c.Bind(req); err != nil {
		return false, c.JSON(http.StatusBadRequest, envelope{Message: "Validation error", Errors: []string{"invalid payload"}})
	}
	if err := c.Validate(req); err != nil {
		var ve *ValidationError
		if errors.As(err, &ve) {
			return false, c.JSON(http.StatusBadRequest, envelope{Message: "Validation error", Errors: ve.Fields})
		}
		return false, c.JSON(http.StatusBadRequest, envelope{Message: "Validation error", Errors: []string{err.Error()}})
	}
	return true, nil
}

// domainError writes a 400 for *domain.AuthServiceError. Anything else is
// returned for the central error handler.
func domainError(c echo.Context, action string, err error) error {
	var authErr *domain.AuthServiceError
	if errors.As(err, &authErr) {
		return c.JSON(http.StatusBadRequest, envelope{
			Message: "AuthServiceError: Failed to " + action,
			Error:   authErr.Message,
		})
	}
	return err
}

func clientInfo(c echo.Context) domain.ClientInfo {
	return domain.ClientInfo{
		UserAgent: c.Request().UserAgent(),
		IPAddress: c.RealIP(),
	}
}
