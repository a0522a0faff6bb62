package identity

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrNoToken = errors.New("invalid token in context")

func claims(c *fiber.Ctx) (jwt.MapClaims, error) {
	token, ok := c.Locals("user").(*jwt.Token)
	if !ok {
		return nil, ErrNoToken
	}
	mc, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("invalid claims")
	}
	return mc, nil
}

// GetUserID extracts the user UUID from JWT claims in context.
func GetUserID(c *fiber.Ctx) (uuid.UUID, error) {
	mc, err := claims(c)
	if err != nil {
		return uuid.Nil, err
	}
	sub, ok := mc["sub"].(string)
	if !ok {
		return uuid.Nil, errors.New("missing sub claim")
	}
	return uuid.Parse(sub)
}

func GetEmail(c *fiber.Ctx) string {
	mc, err := claims(c)
	if err != nil {
		return ""
	}
	email, _ := mc["email"].(string)
	return email
}

func GetRole(c *fiber.Ctx) string {
	mc, err := claims(c)
	if err != nil {
		return ""
	}
	role, _ := mc["role"].(string)
	return role
}
