package controller

import (
	"log"

	"github.com/gofiber/fiber/v2"

	"huddle_backend/internal/model"
	"huddle_backend/pkg/database"
	"huddle_backend/pkg/utils/storage"
)

// UploadCommunityCover replaces the cover image of an owned community.
func UploadCommunityCover(c *fiber.Ctx) error {
	community := c.Locals("community").(*model.Community)

	file, err := c.FormFile("image")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "No file uploaded",
		})
	}

	url, err := storage.UploadCommunityCover(file, community.ID)
	if err != nil {
		log.Printf("Cover upload failed for community %d: %v", community.ID, err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	if err := database.GetDB().Model(community).Update("cover_url", url).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not save cover image",
		})
	}

	return c.JSON(fiber.Map{
		"message":   "Cover image uploaded",
		"cover_url": url,
	})
}
