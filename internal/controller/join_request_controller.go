package controller

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"huddle_backend/internal/model"
	"huddle_backend/pkg/billing"
	"huddle_backend/pkg/database"
	"huddle_backend/pkg/email"
	"huddle_backend/pkg/utils/jwt"
)

type JoinRequestInput struct {
	Name    string `json:"name" validate:"required"`
	Email   string `json:"email" validate:"required,email"`
	Message string `json:"message"`
}

// CreateJoinRequest is the public "ask to join" form. It only works while
// the community's organizer has a publicly visible state.
func CreateJoinRequest(c *fiber.Ctx) error {
	var community model.Community
	if err := database.GetDB().Preload("Organizer").
		Where("slug = ?", c.Params("slug")).First(&community).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Community not found",
		})
	}

	rec, err := billing.RecordForOrganizer(database.GetDB(), community.OrganizerID)
	if err != nil || !billing.Resolve(rec, time.Now()).IsPublicAllowed {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Community not found",
		})
	}

	input := new(JoinRequestInput)
	if err := c.BodyParser(input); err != nil || input.Name == "" || input.Email == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid input",
		})
	}

	request := model.JoinRequest{
		CommunityID: community.ID,
		Name:        input.Name,
		Email:       input.Email,
		Message:     input.Message,
		Status:      "new",
	}

	if err := database.GetDB().Create(&request).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not create join request",
		})
	}

	if email.GlobalEmailService != nil {
		err := email.GlobalEmailService.SendJoinRequestNotification(
			community.Organizer.Email,
			community.Name,
			input.Name,
			input.Email,
			input.Message,
		)
		if err != nil {
			log.Printf("Could not send join request notification: %v", err)
		}
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Join request sent",
	})
}

func GetMyJoinRequests(c *fiber.Ctx) error {
	claims := c.Locals("user").(*jwt.Claims)

	var requests []model.JoinRequest
	err := database.GetDB().
		Joins("JOIN communities ON communities.id = join_requests.community_id").
		Where("communities.organizer_id = ?", claims.OrganizerID).
		Preload("Community").
		Order("join_requests.created_at DESC").
		Find(&requests).Error
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not fetch join requests",
		})
	}

	return c.JSON(requests)
}

func MarkJoinRequestRead(c *fiber.Ctx) error {
	claims := c.Locals("user").(*jwt.Claims)

	request, errResp := ownedJoinRequest(c, claims.OrganizerID)
	if request == nil {
		return errResp
	}

	if err := database.GetDB().Model(request).Update("read_status", true).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not update join request",
		})
	}

	return c.JSON(fiber.Map{"message": "Marked as read"})
}

type JoinRequestStatusInput struct {
	Status string `json:"status" validate:"required"`
}

func UpdateJoinRequestStatus(c *fiber.Ctx) error {
	claims := c.Locals("user").(*jwt.Claims)

	request, errResp := ownedJoinRequest(c, claims.OrganizerID)
	if request == nil {
		return errResp
	}

	input := new(JoinRequestStatusInput)
	if err := c.BodyParser(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid input",
		})
	}

	switch input.Status {
	case "new", "approved", "declined":
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid status",
		})
	}

	now := time.Now()
	updates := map[string]interface{}{"status": input.Status}
	if input.Status != "new" {
		updates["responded_at"] = now
	}

	if err := database.GetDB().Model(request).Updates(updates).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not update join request",
		})
	}

	if input.Status == "approved" {
		if err := database.GetDB().Model(&model.Community{}).
			Where("id = ?", request.CommunityID).
			Update("member_count", gorm.Expr("member_count + 1")).Error; err != nil {
			log.Printf("Could not bump member count: %v", err)
		}
	}

	return c.JSON(fiber.Map{"message": "Join request updated"})
}

func ownedJoinRequest(c *fiber.Ctx, organizerID uint) (*model.JoinRequest, error) {
	var request model.JoinRequest
	err := database.GetDB().
		Joins("JOIN communities ON communities.id = join_requests.community_id").
		Where("join_requests.id = ? AND communities.organizer_id = ?", c.Params("id"), organizerID).
		First(&request).Error
	if err != nil {
		return nil, c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Join request not found",
		})
	}
	return &request, nil
}
