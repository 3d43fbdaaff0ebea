package middleware

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"libralend/internal/core/domain"
	"libralend/internal/pkg/jwt"
	"libralend/internal/pkg/response"
)

// AuthMiddleware validates the access token and stores the caller's
// identity in the request context. The token is read from the
// access_token cookie first, then from the Authorization header.
func AuthMiddleware(jwtSecret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := c.Cookies("access_token")

		if token == "" {
			authHeader := c.Get("Authorization")
			if authHeader != "" && strings.HasPrefix(authHeader, "Bearer ") {
				token = strings.TrimPrefix(authHeader, "Bearer ")
			}
		}

		if token == "" {
			return response.Unauthorized(c, "Missing authentication token")
		}

		claims, err := jwt.ValidateAccessToken(token, jwtSecret)
		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				return response.Unauthorized(c, "Token has expired")
			}
			return response.Unauthorized(c, "Invalid authentication token")
		}

		c.Locals("userID", claims.UserID)
		c.Locals("username", claims.Username)
		c.Locals("role", claims.Role)

		return c.Next()
	}
}

// AdminOnly allows only callers with the admin role. Must run after
// AuthMiddleware.
func AdminOnly() fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, ok := c.Locals("role").(string)
		if !ok || domain.Role(role) != domain.RoleAdmin {
			return response.Forbidden(c, "Admin access required")
		}
		return c.Next()
	}
}

// IdentityFromCtx rebuilds the caller's identity from the values set
// by AuthMiddleware.
func IdentityFromCtx(c *fiber.Ctx) domain.Identity {
	id := domain.Identity{}
	if v, ok := c.Locals("userID").(uint); ok {
		id.UserID = v
	}
	if v, ok := c.Locals("username").(string); ok {
		id.Username = v
	}
	if v, ok := c.Locals("role").(string); ok {
		id.Role = domain.Role(v)
	}
	return id
}
