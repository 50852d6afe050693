package middleware

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/noah-isme/scoped-query-api/internal/utils"
)

// AdminAuth validates an HMAC bearer token and requires its admin claim to
// match the :adminID route parameter. An empty secret disables the check.
func AdminAuth(secret string) fiber.Handler {
	if strings.TrimSpace(secret) == "" {
		return func(c *fiber.Ctx) error { return c.Next() }
	}

	return func(c *fiber.Ctx) error {
		authorization := c.Get(fiber.HeaderAuthorization)
		if authorization == "" {
			return utils.SendError(c, fiber.StatusUnauthorized, "authorization header missing")
		}

		const bearer = "Bearer "
		if len(authorization) < len(bearer) || !strings.EqualFold(authorization[:len(bearer)], bearer) {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid authorization header")
		}

		tokenString := strings.TrimSpace(authorization[len(bearer):])
		if tokenString == "" {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid token")
		}

		token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method")
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid token")
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid token claims")
		}

		adminID := extractAdminIDFromClaims(claims)
		if adminID == "" {
			return utils.SendError(c, fiber.StatusUnauthorized, "token carries no admin")
		}
		if requested := strings.TrimSpace(c.Params("adminID")); requested != "" && requested != adminID {
			return utils.SendError(c, fiber.StatusForbidden, "access denied for this admin")
		}

		c.Locals("admin_id", adminID)
		return c.Next()
	}
}

func extractAdminIDFromClaims(claims jwt.MapClaims) string {
	for _, key := range []string{"admin_id", "sub"} {
		if value, ok := claims[key]; ok {
			if id := normalizeAdminID(value); id != "" {
				return id
			}
		}
	}
	return ""
}

func normalizeAdminID(value interface{}) string {
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		if v < 0 || v != float64(int64(v)) {
			return ""
		}
		return fmt.Sprintf("%d", int64(v))
	default:
		return ""
	}
}
