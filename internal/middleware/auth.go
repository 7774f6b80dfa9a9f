package middleware

import (
	"errors"
	"net/http"
	"strings"

	"linkcart/internal/model"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

const (
	GuestSessionHeader = "X-Guest-Session"
	RoleOperator       = "operator"

	buyerKey = "buyer"
	roleKey  = "role"
)

// BuyerClaims is the token payload issued by the storefront's login flow.
type BuyerClaims struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// Auth resolves the caller into a model.Buyer. A valid HS256 bearer token
// yields an authenticated buyer; no token yields a guest keyed by the
// X-Guest-Session header. A token that fails to verify is rejected.
func Auth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, ok := bearerToken(c.Request())
			if !ok {
				c.Set(buyerKey, model.Buyer{GuestSession: c.Request().Header.Get(GuestSessionHeader)})
				return next(c)
			}
			if secret == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "authentication is not configured")
			}

			claims, err := parseClaims(raw, secret)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			c.Set(buyerKey, model.Buyer{
				ID:    claims.Subject,
				Email: claims.Email,
				Name:  claims.Name,
			})
			c.Set(roleKey, claims.Role)
			return next(c)
		}
	}
}

// RequireRole rejects callers whose token does not carry role.
func RequireRole(role string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if r, _ := c.Get(roleKey).(string); r != role {
				return echo.NewHTTPError(http.StatusForbidden, "forbidden")
			}
			return next(c)
		}
	}
}

// BuyerFrom returns the buyer Auth stored on c, or an anonymous guest.
func BuyerFrom(c echo.Context) model.Buyer {
	b, _ := c.Get(buyerKey).(model.Buyer)
	return b
}

func parseClaims(raw, secret string) (*BuyerClaims, error) {
	claims := &BuyerClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("token is not valid")
	}
	if strings.TrimSpace(claims.Email) == "" {
		return nil, errors.New("token has no email claim")
	}
	return claims, nil
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get(echo.HeaderAuthorization)
	if h == "" {
		return "", false
	}
	scheme, token, found := strings.Cut(h, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
