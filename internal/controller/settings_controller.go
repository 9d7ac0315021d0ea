package controller

import (
	"github.com/gofiber/fiber/v2"

	"huddle_backend/internal/model"
	"huddle_backend/pkg/database"
	"huddle_backend/pkg/utils/jwt"
)

type ProfileInput struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Bio         string `json:"bio"`
	PhoneNumber string `json:"phone_number"`
	Website     string `json:"website"`
}

func GetProfile(c *fiber.Ctx) error {
	claims := c.Locals("user").(*jwt.Claims)

	var organizer model.Organizer
	if err := database.GetDB().First(&organizer, claims.OrganizerID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Organizer not found",
		})
	}

	return c.JSON(organizer.GetPublicProfile())
}

func UpdateProfile(c *fiber.Ctx) error {
	claims := c.Locals("user").(*jwt.Claims)

	input := new(ProfileInput)
	if err := c.BodyParser(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid input",
		})
	}

	var organizer model.Organizer
	if err := database.GetDB().First(&organizer, claims.OrganizerID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Organizer not found",
		})
	}

	organizer.FirstName = input.FirstName
	organizer.LastName = input.LastName
	organizer.Bio = input.Bio
	organizer.PhoneNumber = input.PhoneNumber
	organizer.Website = input.Website

	if err := database.GetDB().Save(&organizer).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not update profile",
		})
	}

	return c.JSON(organizer.GetPublicProfile())
}

func GetLoginHistory(c *fiber.Ctx) error {
	claims := c.Locals("user").(*jwt.Claims)

	var history []model.LoginHistory
	if err := database.GetDB().Where("organizer_id = ?", claims.OrganizerID).
		Order("created_at DESC").Limit(20).Find(&history).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not fetch login history",
		})
	}

	return c.JSON(history)
}
