package controller

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gosimple/slug"

	"huddle_backend/internal/model"
	"huddle_backend/pkg/billing"
	"huddle_backend/pkg/database"
	"huddle_backend/pkg/utils/jwt"
)

type EventInput struct {
	Title       string    `json:"title" validate:"required"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	StartsAt    time.Time `json:"starts_at"`
	EndsAt      time.Time `json:"ends_at"`
	Capacity    int       `json:"capacity"`
}

func CreateEvent(c *fiber.Ctx) error {
	community := c.Locals("community").(*model.Community)
	input := new(EventInput)

	if err := c.BodyParser(input); err != nil || input.Title == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid input",
		})
	}

	event := model.Event{
		CommunityID: community.ID,
		Title:       input.Title,
		Slug:        slug.Make(input.Title),
		Description: input.Description,
		Location:    input.Location,
		StartsAt:    input.StartsAt,
		EndsAt:      input.EndsAt,
		Capacity:    input.Capacity,
	}

	if err := database.GetDB().Create(&event).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not create event",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(event)
}

func ListCommunityEvents(c *fiber.Ctx) error {
	community := c.Locals("community").(*model.Community)

	var events []model.Event
	if err := database.GetDB().Where("community_id = ?", community.ID).
		Order("starts_at ASC").Find(&events).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not fetch events",
		})
	}

	return c.JSON(events)
}

// EventUpdateInput patches only the fields present in the request body;
// omitted fields keep their stored value.
type EventUpdateInput struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	Location    *string    `json:"location"`
	StartsAt    *time.Time `json:"starts_at"`
	EndsAt      *time.Time `json:"ends_at"`
	Capacity    *int       `json:"capacity"`
}

func UpdateEvent(c *fiber.Ctx) error {
	community := c.Locals("community").(*model.Community)
	input := new(EventUpdateInput)

	if err := c.BodyParser(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid input",
		})
	}

	var event model.Event
	if err := database.GetDB().Where("id = ? AND community_id = ?", c.Params("event_id"), community.ID).
		First(&event).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Event not found",
		})
	}

	if input.Title != nil && *input.Title != "" {
		event.Title = *input.Title
		event.Slug = slug.Make(*input.Title)
	}
	if input.Description != nil {
		event.Description = *input.Description
	}
	if input.Location != nil {
		event.Location = *input.Location
	}
	if input.StartsAt != nil {
		event.StartsAt = *input.StartsAt
	}
	if input.EndsAt != nil {
		event.EndsAt = *input.EndsAt
	}
	if input.Capacity != nil {
		event.Capacity = *input.Capacity
	}

	if err := database.GetDB().Save(&event).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not update event",
		})
	}

	return c.JSON(event)
}

func DeleteEvent(c *fiber.Ctx) error {
	community := c.Locals("community").(*model.Community)

	res := database.GetDB().Where("id = ? AND community_id = ?", c.Params("event_id"), community.ID).
		Delete(&model.Event{})
	if res.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not delete event",
		})
	}
	if res.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Event not found",
		})
	}

	return c.JSON(fiber.Map{"message": "Event deleted"})
}

// FeatureEvent promotes an event to a featured placement, spending one
// placement credit. Featuring an already-featured event is a no-op success,
// so a double-submit can't spend two credits.
func FeatureEvent(c *fiber.Ctx) error {
	claims := c.Locals("user").(*jwt.Claims)
	community := c.Locals("community").(*model.Community)

	var event model.Event
	if err := database.GetDB().Where("id = ? AND community_id = ?", c.Params("event_id"), community.ID).
		First(&event).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Event not found",
		})
	}

	if event.Featured {
		return c.JSON(fiber.Map{
			"message": "Event is already featured",
			"event":   event,
		})
	}

	if err := billing.DeductCredits(database.GetDB(), claims.OrganizerID, 1); err != nil {
		if errors.Is(err, billing.ErrInsufficientCredits) || errors.Is(err, billing.ErrNoSubscription) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Not enough placement credits",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not feature event",
		})
	}

	now := time.Now()
	event.Featured = true
	event.FeaturedAt = &now
	if err := database.GetDB().Save(&event).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not feature event",
		})
	}

	return c.JSON(fiber.Map{
		"message": "Event featured",
		"event":   event,
	})
}

// ListFeaturedEvents is the public featured feed; only events of visible
// communities appear.
func ListFeaturedEvents(c *fiber.Ctx) error {
	var events []model.Event
	err := database.GetDB().
		Joins("JOIN communities ON communities.id = events.community_id").
		Where("events.featured = ? AND communities.status = ?", true, model.CommunityStatusActive).
		Order("events.starts_at ASC").
		Find(&events).Error
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not fetch featured events",
		})
	}

	return c.JSON(events)
}
