package middleware

import (
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/medaminemghirbi/SallaPro/internal/auth"
	"github.com/medaminemghirbi/SallaPro/internal/models"
)

const claimsKey = "claims"

// JWTAuth validates the Bearer token, rejects revoked token ids and stores the
// claims on the context.
func JWTAuth(issuer *auth.Issuer, revoker auth.Revoker) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			if !strings.HasPrefix(header, "Bearer ") {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing bearer token")
			}

			claims, err := issuer.Parse(strings.TrimPrefix(header, "Bearer "))
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
			}

			revoked, err := revoker.IsRevoked(c.Request().Context(), claims)
			if err != nil {
				log.Printf("[Auth] revocation check failed: %v", err)
				return echo.NewHTTPError(http.StatusServiceUnavailable, "authentication unavailable")
			}
			if revoked {
				return echo.NewHTTPError(http.StatusUnauthorized, "token has been revoked")
			}

			c.Set(claimsKey, claims)
			return next(c)
		}
	}
}

// CompanyScope rejects requests whose :company_id differs from the token's
// company.
func CompanyScope() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims := ClaimsFrom(c)
			if claims == nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing credentials")
			}
			companyID, err := strconv.ParseUint(c.Param("company_id"), 10, 64)
			if err != nil {
				return echo.NewHTTPError(http.StatusBadRequest, "invalid company id")
			}
			if uint(companyID) != claims.CompanyID {
				return echo.NewHTTPError(http.StatusForbidden, "access to this company is not allowed")
			}
			return next(c)
		}
	}
}

func RequireRole(roles ...models.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims := ClaimsFrom(c)
			if claims == nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing credentials")
			}
			for _, r := range roles {
				if claims.Role == r {
					return next(c)
				}
			}
			return echo.NewHTTPError(http.StatusForbidden, "insufficient role")
		}
	}
}

func ClaimsFrom(c echo.Context) *auth.Claims {
	claims, _ := c.Get(claimsKey).(*auth.Claims)
	return claims
}

// SetClaims stores claims directly, for callers that bypass JWTAuth.
func SetClaims(c echo.Context, claims *auth.Claims) {
	c.Set(claimsKey, claims)
}
