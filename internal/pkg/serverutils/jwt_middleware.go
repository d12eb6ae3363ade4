package serverutils

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// JwtMiddleware validates the Authorization bearer token and stores the
// caller's identity claims in the request locals.
func JwtMiddleware(secret string) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		authHeader := ctx.Get("Authorization")
		if authHeader == "" {
			return NewUnauthorized("Missing authorization header")
		}

		tokenStr := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenStr == authHeader {
			return NewUnauthorized("Invalid authorization header format")
		}

		token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			return NewUnauthorized("Invalid or expired token")
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			return NewUnauthorized("Invalid token claims")
		}

		userId, _ := claims["user_id"].(string)
		if userId == "" {
			return NewUnauthorized("Token missing user identity")
		}
		ctx.Locals("user_id", userId)

		if email, ok := claims["email"].(string); ok {
			ctx.Locals("email", email)
		}
		if role, ok := claims["role"].(string); ok {
			ctx.Locals("role", role)
		}
		if tier, ok := claims["tier"].(string); ok {
			ctx.Locals("tier", tier)
		}
		if approved, ok := claims["approved"].(bool); ok {
			ctx.Locals("approved", approved)
		}

		return ctx.Next()
	}
}

// AdminMiddleware rejects callers whose token does not carry the admin role.
// It must run after JwtMiddleware.
func AdminMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		role, _ := ctx.Locals("role").(string)
		if role != "admin" {
			return NewForbidden("Admin access required")
		}
		return ctx.Next()
	}
}

// CronMiddleware guards scheduler-invoked endpoints with a shared bearer secret.
func CronMiddleware(cronSecret string) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		authHeader := ctx.Get("Authorization")
		if cronSecret == "" || authHeader != "Bearer "+cronSecret {
			return NewUnauthorized("Invalid cron secret")
		}
		return ctx.Next()
	}
}
