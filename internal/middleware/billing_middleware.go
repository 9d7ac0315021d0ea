package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"huddle_backend/pkg/billing"
	"huddle_backend/pkg/database"
	"huddle_backend/pkg/utils/jwt"
)

// RequireFullAccess gates organizer actions on the resolved lifecycle state.
// The refusal is phrased in lifecycle terms, never raw processor errors.
func RequireFullAccess() fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims := c.Locals("user").(*jwt.Claims)

		rec, err := billing.EnsureRecord(database.GetDB(), claims.OrganizerID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Could not load subscription",
			})
		}

		info := billing.Resolve(rec, time.Now())
		if !info.HasFullAccess {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": billing.AccessMessage(info.State),
				"state": info.State,
			})
		}

		return c.Next()
	}
}
