package controller

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gosimple/slug"

	"huddle_backend/internal/model"
	"huddle_backend/pkg/billing"
	"huddle_backend/pkg/database"
	"huddle_backend/pkg/utils/jwt"
)

type CommunityInput struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
	Topic       string `json:"topic"`
	City        string `json:"city"`
}

// CreateCommunity creates a community for the organizer. Its visibility is
// derived from the resolved billing state, never taken from the request.
func CreateCommunity(c *fiber.Ctx) error {
	claims := c.Locals("user").(*jwt.Claims)
	input := new(CommunityInput)

	if err := c.BodyParser(input); err != nil || input.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid input",
		})
	}

	rec, err := billing.EnsureRecord(database.GetDB(), claims.OrganizerID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not load subscription",
		})
	}

	status := model.CommunityStatusDraft
	if billing.Resolve(rec, time.Now()).HasFullAccess {
		status = model.CommunityStatusActive
	}

	community := model.Community{
		OrganizerID: claims.OrganizerID,
		Name:        input.Name,
		Slug:        slug.Make(input.Name),
		Description: input.Description,
		Topic:       input.Topic,
		City:        input.City,
		Status:      status,
	}

	if err := database.GetDB().Create(&community).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not create community",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(community)
}

func ListMyCommunities(c *fiber.Ctx) error {
	claims := c.Locals("user").(*jwt.Claims)

	var communities []model.Community
	if err := database.GetDB().Where("organizer_id = ?", claims.OrganizerID).
		Order("created_at DESC").Find(&communities).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not fetch communities",
		})
	}

	return c.JSON(communities)
}

// CommunityUpdateInput patches only the fields present in the request body;
// omitted fields keep their stored value.
type CommunityUpdateInput struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Topic       *string `json:"topic"`
	City        *string `json:"city"`
}

// UpdateCommunity edits profile fields. Status is deliberately not
// updatable here; only billing side effects change it.
func UpdateCommunity(c *fiber.Ctx) error {
	community := c.Locals("community").(*model.Community)
	input := new(CommunityUpdateInput)

	if err := c.BodyParser(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid input",
		})
	}

	if input.Name != nil && *input.Name != "" {
		community.Name = *input.Name
		community.Slug = slug.Make(*input.Name)
	}
	if input.Description != nil {
		community.Description = *input.Description
	}
	if input.Topic != nil {
		community.Topic = *input.Topic
	}
	if input.City != nil {
		community.City = *input.City
	}

	if err := database.GetDB().Save(community).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not update community",
		})
	}

	return c.JSON(community)
}

func DeleteCommunity(c *fiber.Ctx) error {
	community := c.Locals("community").(*model.Community)

	if err := database.GetDB().Delete(community).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not delete community",
		})
	}

	return c.JSON(fiber.Map{"message": "Community deleted"})
}

// GetCommunityBySlug is the public page. The owning organizer's resolved
// state decides visibility on every read; a drifted community status is
// corrected inline before answering.
func GetCommunityBySlug(c *fiber.Ctx) error {
	var community model.Community
	if err := database.GetDB().Preload("Organizer").
		Where("slug = ?", c.Params("slug")).First(&community).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Community not found",
		})
	}

	rec, err := billing.RecordForOrganizer(database.GetDB(), community.OrganizerID)
	now := time.Now()
	info := billing.Resolve(rec, now)
	if err == nil {
		if syncErr := billing.SyncCommunityVisibility(database.GetDB(), rec, now); syncErr == nil {
			if info.IsPublicAllowed {
				community.Status = model.CommunityStatusActive
			} else {
				community.Status = model.CommunityStatusDraft
			}
		}
	}

	if !info.IsPublicAllowed || community.Status != model.CommunityStatusActive {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Community not found",
		})
	}

	return c.JSON(fiber.Map{
		"community": community,
		"organizer": community.Organizer.GetPublicProfile(),
	})
}
