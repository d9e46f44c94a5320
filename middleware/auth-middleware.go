package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/krishkalaria12/snap-social/auth"
)

const identityKey = "identity"

// Authenticator resolves a token to the caller's identity.
type Authenticator interface {
	Authenticate(ctx context.Context, tokenStr string) (auth.Identity, error)
}

var errNotLoggedIn = errors.New("user not authenticated")

func AuthMiddleware(a Authenticator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		var tokenStr string

		if after, ok := strings.CutPrefix(authHeader, "Bearer "); ok && after != "" {
			tokenStr = after
		} else {
			tokenStr = c.Cookies(auth.CookieName)
		}

		if tokenStr == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Requête non authentifiée !",
			})
		}

		identity, err := a.Authenticate(c.UserContext(), tokenStr)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Jeton invalide",
			})
		}

		c.Locals(identityKey, identity)

		return c.Next()
	}
}

// CurrentIdentity returns the identity stored by AuthMiddleware.
func CurrentIdentity(c *fiber.Ctx) (auth.Identity, error) {
	identity, ok := c.Locals(identityKey).(auth.Identity)
	if !ok {
		return auth.Identity{}, errNotLoggedIn
	}
	return identity, nil
}

// CurrentUserID returns the session identity of the caller.
func CurrentUserID(c *fiber.Ctx) (uint, error) {
	identity, err := CurrentIdentity(c)
	if err != nil {
		return 0, err
	}
	return identity.UserID, nil
}
