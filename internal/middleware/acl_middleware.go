package middleware

import (
	"huddle_backend/internal/model"
	"huddle_backend/pkg/database"
	"huddle_backend/pkg/utils/jwt"

	"github.com/gofiber/fiber/v2"
)

// CheckCommunityOwnership verifies the community in :id belongs to the
// authenticated organizer.
func CheckCommunityOwnership() fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims := c.Locals("user").(*jwt.Claims)
		communityID := c.Params("id")

		var community model.Community
		if err := database.GetDB().First(&community, communityID).Error; err != nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Community not found",
			})
		}

		if community.OrganizerID != claims.OrganizerID {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "You don't have permission to access this community",
			})
		}

		c.Locals("community", &community)
		return c.Next()
	}
}
