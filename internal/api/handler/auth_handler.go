package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/auth-system/internal/core/domain"
	"github.com/99minutos/auth-system/internal/core/ports"
	"github.com/99minutos/auth-system/internal/pkg/metrics"
)

type AuthHandler struct {
	authService ports.AuthService
}

func NewAuthHandler(authService ports.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

type signInRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type signUpRequest struct {
	Email    string `json:"email"          validate:"required,email"`
	Password string `json:"password"       validate:"required,min=8"`
	Name     string `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
}

type refreshTokenRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

// SignIn authenticates with email and password.
//
// @Summary      Sign in
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      signInRequest  true  "Credentials"
// @Success      200   {object}  envelope{result=domain.AuthResult}
// @Failure      400   {object}  envelope
// @Failure      429   {object}  envelope
// @Failure      500   {object}  envelope
// @Router       /auth/sign-in [post]
func (h *AuthHandler) SignIn(c echo.Context) error {
	var req signInRequest
	if valid, err := bindAndValidate(c, &req); !valid {
		metrics.SignInsTotal.WithLabelValues(metrics.ResultRejected).Inc()
		return err
	}

	result, err := h.authService.SignInWithEmailAndPassword(c.Request().Context(), req.Email, req.Password, clientInfo(c))
	if err != nil {
		metrics.SignInsTotal.WithLabelValues(outcome(err)).Inc()
		return domainError(c, "login", err)
	}

	metrics.SignInsTotal.WithLabelValues(metrics.ResultSuccess).Inc()
	countIssued(result)
	return success(c, "Login successful", result)
}

// SignUp creates an account and signs it in.
//
// @Summary      Sign up
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      signUpRequest  true  "New account"
// @Success      200   {object}  envelope{result=domain.AuthResult}
// @Failure      400   {object}  envelope
// @Failure      429   {object}  envelope
// @Failure      500   {object}  envelope
// @Router       /auth/sign-up [post]
func (h *AuthHandler) SignUp(c echo.Context) error {
	var req signUpRequest
	if valid, err := bindAndValidate(c, &req); !valid {
		metrics.SignUpsTotal.WithLabelValues(metrics.ResultRejected).Inc()
		return err
	}

	result, err := h.authService.SignUpWithEmailAndPassword(c.Request().Context(), req.Email, req.Password, req.Name, clientInfo(c))
	if err != nil {
		metrics.SignUpsTotal.WithLabelValues(outcome(err)).Inc()
		return domainError(c, "signup", err)
	}

	metrics.SignUpsTotal.WithLabelValues(metrics.ResultSuccess).Inc()
	countIssued(result)
	return success(c, "Signup successful", result)
}

// Refresh exchanges a refresh token for a new access token.
//
// @Summary      Refresh access token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      refreshTokenRequest  true  "Refresh token"
// @Success      200   {object}  envelope{result=domain.TokenResult}
// @Failure      400   {object}  envelope
// @Failure      401   {object}  envelope
// @Failure      409   {object}  envelope
// @Router       /auth/refresh [post]
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshTokenRequest
	if valid, err := bindAndValidate(c, &req); !valid {
		metrics.TokenRefreshesTotal.WithLabelValues(metrics.ResultRejected).Inc()
		return err
	}

	result, err := h.authService.RefreshToken(c.Request().Context(), req.RefreshToken)
	if err != nil {
		metrics.TokenRefreshesTotal.WithLabelValues(outcome(err)).Inc()
		return domainError(c, "refresh token", err)
	}

	metrics.TokenRefreshesTotal.WithLabelValues(metrics.ResultSuccess).Inc()
	metrics.TokensIssuedTotal.WithLabelValues(string(domain.TokenKindAccess)).Inc()
	return success(c, "Token refreshed", result)
}

// SignOut ends the session behind a refresh token. Unknown tokens succeed.
//
// @Summary      Sign out
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      refreshTokenRequest  true  "Refresh token"
// @Success      200   {object}  envelope
// @Failure      400   {object}  envelope
// @Router       /auth/sign-out [post]
func (h *AuthHandler) SignOut(c echo.Context) error {
	var req refreshTokenRequest
	if err := c.Bind(&req); err != nil || req.RefreshToken == "" {
		return c.JSON(http.StatusBadRequest, envelope{Message: "Refresh token is required"})
	}

	if err := h.authService.SignOutRefreshToken(c.Request().Context(), req.RefreshToken); err != nil {
		return domainError(c, "signout", err)
	}
	return success(c, "Signout successful", nil)
}

// SignOutAll ends every session of the caller.
//
// @Summary      Sign out everywhere
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200   {object}  envelope
// @Failure      401   {object}  envelope
// @Router       /auth/sign-out-all [post]
func (h *AuthHandler) SignOutAll(c echo.Context) error {
	id, err := ctxIdentity(c)
	if err != nil {
		return err
	}
	if err := h.authService.SignOutAll(c.Request().Context(), id.ID); err != nil {
		return err
	}
	return success(c, "Signout successful", nil)
}

// Me returns the authenticated account.
//
// @Summary      Current user
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200   {object}  meResponse
// @Failure      401   {object}  envelope
// @Router       /auth/me [get]
func (h *AuthHandler) Me(c echo.Context) error {
	id, err := ctxIdentity(c)
	if err != nil {
		return err
	}
	user, err := h.authService.CurrentUser(c.Request().Context(), id.ID)
	if errors.Is(err, domain.ErrUserNotFound) {
		return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized")
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, meResponse{Message: "Me", User: user})
}

type meResponse struct {
	Message string           `json:"message"`
	User    *domain.SafeUser `json:"user"`
}

func outcome(err error) string {
	var authErr *domain.AuthServiceError
	switch {
	case errors.As(err, &authErr), errors.Is(err, domain.ErrInvalidRefreshToken):
		return metrics.ResultRejected
	case errors.Is(err, domain.ErrRefreshInProgress):
		return metrics.ResultConflict
	default:
		return metrics.ResultError
	}
}

func countIssued(result *domain.AuthResult) {
	metrics.TokensIssuedTotal.WithLabelValues(string(domain.TokenKindAccess)).Inc()
	if result.RefreshToken != "" {
		metrics.TokensIssuedTotal.WithLabelValues(string(domain.TokenKindRefresh)).Inc()
	}
}
