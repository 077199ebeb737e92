package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/nursix/gims/internal/core/access"
	"github.com/nursix/gims/internal/ctxutil"
)

const issuer = "gims"

// Claims are the JWT claims carrying the acting user.
type Claims struct {
	Role      string   `json:"role"`
	AuthRoles []string `json:"auth_roles,omitempty"`
	Email     string   `json:"email,omitempty"`
	Org       string   `json:"org,omitempty"`
	jwt.RegisteredClaims
}

// IssueToken signs an HS256 token for actor, valid for ttl from now.
func IssueToken(secret string, actor ctxutil.Actor, ttl time.Duration, now time.Time) (string, error) {
	if actor.UserID == "" {
		return "", errors.New("user ID is required")
	}
	if _, err := access.ParseRole(actor.Role); err != nil {
		return "", err
	}

	claims := Claims{
		Role:      actor.Role,
		AuthRoles: actor.AuthRoles,
		Email:     actor.Email,
		Org:       actor.OrganisationID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   actor.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ParseToken verifies a token and returns the actor it carries.
func ParseToken(secret, raw string) (ctxutil.Actor, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer(issuer))
	if err != nil {
		return ctxutil.Actor{}, err
	}

	if _, err := access.ParseRole(claims.Role); err != nil {
		return ctxutil.Actor{}, err
	}

	return ctxutil.Actor{
		UserID:    claims.Subject,
		Role:      claims.Role,
		AuthRoles: claims.AuthRoles,
		Email:     claims.Email,

		OrganisationID: claims.Org,
	}, nil
}

// JWTAuth validates the bearer token and stores the actor in the request
// context.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get(echo.HeaderAuthorization)
			raw, ok := strings.CutPrefix(auth, "Bearer ")
			if !ok || raw == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing bearer token")
			}

			actor, err := ParseToken(secret, raw)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token").WithInternal(err)
			}

			req := c.Request()
			c.SetRequest(req.WithContext(ctxutil.WithActor(req.Context(), actor)))
			return next(c)
		}
	}
}

// RequireRole rejects requests whose actor does not hold the workflow role.
func RequireRole(role access.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			actor, ok := ctxutil.ActorFromContext(c.Request().Context())
			if !ok || access.Role(actor.Role) != role {
				return echo.NewHTTPError(http.StatusForbidden, fmt.Sprintf("requires role %s", role))
			}
			return next(c)
		}
	}
}
