package middleware

import (
	jwtware "github.com/gofiber/contrib/jwt"
	"github.com/gofiber/fiber/v2"

	"github.com/ahmetcoskunkizilkaya/civic-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/civic-backend/internal/dto"
)

// userLocal is where the parsed token is stored; identity and AdminRequired
// read it from there.
const userLocal = "user"

// JWTProtected accepts only HS256 access tokens signed with JWT_SECRET, read
// from the Authorization bearer header.
func JWTProtected(cfg *config.Config) fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey:  jwtware.SigningKey{JWTAlg: jwtware.HS256, Key: []byte(cfg.JWTSecret)},
		ContextKey:  userLocal,
		TokenLookup: "header:" + fiber.HeaderAuthorization,
		AuthScheme:  "Bearer",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error:   true,
				Message: "Unauthorized: invalid or expired token",
			})
		},
	})
}

// OptionalJWT runs jwtHandler only when an Authorization header is present, so
// admin routes can also be reached with X-Admin-Token alone. A header that is
// present but invalid is still rejected.
func OptionalJWT(jwtHandler fiber.Handler) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Get(fiber.HeaderAuthorization) == "" {
			return c.Next()
		}
		return jwtHandler(c)
	}
}
