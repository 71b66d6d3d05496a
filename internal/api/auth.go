// Package api exposes the alerting engine's management HTTP surface:
// rule listing/status, manual triggers, history queries, and reload.
// Built on gofiber/fiber/v2, the teacher's chosen web framework (present
// in its go.mod even though none of its reconciler code used it — the
// teacher ran purely as a Kubernetes operator with no HTTP surface of
// its own). Bearer-token auth is opt-in, the Go counterpart of the
// original JWT middleware in middleware/auth.py.
package api

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"prosimcorp.com/alerting/internal/config"
)

const roleAdmin = "admin"

// authUser is the identity extracted from a validated Bearer token.
type authUser struct {
	Username string
	Role     string
}

// requireAuth returns fiber middleware that, when cfg.AuthEnabled is
// true, rejects requests without a valid Bearer JWT. When auth is
// disabled (the default) it's a no-op, matching the original
// get_current_user's "return None" fast path.
func requireAuth(cfg *config.Settings) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !cfg.AuthEnabled {
			return c.Next()
		}

		user, err := parseBearerToken(c, cfg)
		if err != nil {
			c.Set("WWW-Authenticate", "Bearer")
			return fiber.NewError(fiber.StatusUnauthorized, err.Error())
		}

		c.Locals("user", user)
		return c.Next()
	}
}

// requireAdmin builds on requireAuth: when auth is enabled, the caller
// must additionally hold the "admin" role. Routes that mutate state
// (manual trigger, reload) use this; read-only routes use requireAuth.
func requireAdmin(cfg *config.Settings) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !cfg.AuthEnabled {
			return c.Next()
		}
		user, err := parseBearerToken(c, cfg)
		if err != nil {
			c.Set("WWW-Authenticate", "Bearer")
			return fiber.NewError(fiber.StatusUnauthorized, err.Error())
		}
		c.Locals("user", user)
		if user.Role != roleAdmin {
			return fiber.NewError(fiber.StatusForbidden, "admin access required")
		}
		return c.Next()
	}
}

func parseBearerToken(c *fiber.Ctx, cfg *config.Settings) (*authUser, error) {
	header := c.Get("Authorization")
	if header == "" || !strings.HasPrefix(header, "Bearer ") {
		return nil, fiber.NewError(fiber.StatusUnauthorized, "authentication required")
	}
	tokenString := strings.TrimPrefix(header, "Bearer ")

	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(cfg.SecretKey), nil
	}, jwt.WithValidMethods([]string{cfg.Algorithm}))
	if err != nil || !token.Valid {
		return nil, fiber.NewError(fiber.StatusUnauthorized, "invalid authentication token")
	}

	username, _ := claims["sub"].(string)
	if username == "" {
		return nil, fiber.NewError(fiber.StatusUnauthorized, "invalid token")
	}

	role, _ := claims["role"].(string)
	if role == "" {
		role = "viewer"
	}

	return &authUser{Username: username, Role: role}, nil
}
