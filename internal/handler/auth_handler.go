package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/medaminemghirbi/SallaPro/internal/dto"
	"github.com/medaminemghirbi/SallaPro/internal/middleware"
	"github.com/medaminemghirbi/SallaPro/internal/service"
)

type AuthHandler struct {
	svc service.AuthService
}

func NewAuthHandler(svc service.AuthService) *AuthHandler {
	return &AuthHandler{svc: svc}
}

func (h *AuthHandler) RegisterRoutes(e *echo.Echo, authMw echo.MiddlewareFunc) {
	e.POST("/api/v1/auth/login", h.Login)
	e.POST("/api/v1/auth/logout", h.Logout, authMw)
	e.GET("/api/v1/me", h.Me, authMw)
}

func (h *AuthHandler) Login(c echo.Context) error {
	var req dto.LoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	session, err := h.svc.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return toHTTPError(err)
	}

	return c.JSON(http.StatusOK, dto.LoginResponse{
		Token:     session.Token.Value,
		ExpiresAt: session.Token.ExpiresAt,
		User:      dto.ToUserResponse(session.User),
	})
}

func (h *AuthHandler) Logout(c echo.Context) error {
	claims := middleware.ClaimsFrom(c)
	if claims == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing credentials")
	}
	if err := h.svc.Logout(c.Request().Context(), claims); err != nil {
		return toHTTPError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *AuthHandler) Me(c echo.Context) error {
	claims := middleware.ClaimsFrom(c)
	if claims == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing credentials")
	}
	user, err := h.svc.Me(c.Request().Context(), claims.UserID())
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, dto.ToUserResponse(user))
}
