package httpapi

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gofrs/uuid/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/ecosort/smartbin/internal/errs"
)

const userIDContextKey = "smartbin.userID"

// Authenticator verifies access tokens issued by the external auth service
// (HS256, user ID in the subject claim).
type Authenticator struct {
	signKey []byte
}

// NewAuthenticator constructs a verifier over the shared signing key.
func NewAuthenticator(signKey []byte) *Authenticator {
	return &Authenticator{signKey: signKey}
}

// UserID extracts and validates the bearer token, returning the subject.
func (a *Authenticator) UserID(authorization string) (uuid.UUID, error) {
	const prefix = "Bearer "
	if !strings.HasPrefix(authorization, prefix) {
		return uuid.Nil, errs.ErrUnauthorized
	}
	raw := strings.TrimSpace(strings.TrimPrefix(authorization, prefix))

	var claims jwt.RegisteredClaims
	tok, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return a.signKey, nil
	})
	if err != nil || !tok.Valid {
		return uuid.Nil, errs.ErrUnauthorized
	}
	id, err := uuid.FromString(claims.Subject)
	if err != nil {
		return uuid.Nil, errs.ErrUnauthorized
	}
	return id, nil
}

// Middleware rejects unauthenticated requests and stores the user ID in the
// echo context for handlers.
func (a *Authenticator) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id, err := a.UserID(c.Request().Header.Get(echo.HeaderAuthorization))
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
			}
			c.Set(userIDContextKey, id)
			return next(c)
		}
	}
}

// userIDFromContext fetches the authenticated user set by Middleware.
func userIDFromContext(c echo.Context) (uuid.UUID, bool) {
	id, ok := c.Get(userIDContextKey).(uuid.UUID)
	return id, ok
}
