package controller

import (
	"errors"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stripe/stripe-go/v74/webhook"

	"huddle_backend/internal/model"
	"huddle_backend/pkg/billing"
	"huddle_backend/pkg/config"
	"huddle_backend/pkg/database"
	"huddle_backend/pkg/email"
	"huddle_backend/pkg/utils/jwt"
)

// GetPlan describes the single paid plan.
func GetPlan(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"name":                "Huddle Pro",
		"price_id":            config.Get().Stripe.PriceID,
		"trial_days":          billing.PlatformTrialDays,
		"placement_credits":   billing.MonthlyPlacementCredits,
		"billing_interval":    "month",
		"communities":         "unlimited",
		"featured_placements": billing.MonthlyPlacementCredits,
	})
}

// Subscribe starts Stripe checkout for the organizer and returns the client
// secret the frontend confirms with.
func Subscribe(c *fiber.Ctx) error {
	claims := c.Locals("user").(*jwt.Claims)

	var org model.Organizer
	if err := database.GetDB().First(&org, claims.OrganizerID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Organizer not found",
		})
	}

	rec, clientSecret, err := billing.StartSubscription(database.GetDB(), &org, config.Get().Stripe.PriceID)
	if err != nil {
		if errors.Is(err, billing.ErrAlreadySubscribed) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "You already have an active subscription",
			})
		}
		log.Printf("Could not start subscription for organizer %d: %v", claims.OrganizerID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not create subscription, please try again",
		})
	}

	return c.JSON(fiber.Map{
		"subscription_id": rec.StripeSubscriptionID,
		"client_secret":   clientSecret,
		"status":          rec.Status,
	})
}

// ConfirmSubscription finalizes checkout after the client-side payment or
// setup step. Safe to call twice.
func ConfirmSubscription(c *fiber.Ctx) error {
	claims := c.Locals("user").(*jwt.Claims)

	rec, err := billing.RecordForOrganizer(database.GetDB(), claims.OrganizerID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "No subscription found",
		})
	}

	info, err := billing.ConfirmSubscription(database.GetDB(), rec)
	if err != nil {
		if errors.Is(err, billing.ErrNotSetUp) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Subscription checkout has not been started",
			})
		}
		log.Printf("Could not confirm subscription for organizer %d: %v", claims.OrganizerID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not confirm subscription, please try again",
		})
	}

	if info.HasFullAccess && email.GlobalEmailService != nil {
		var org model.Organizer
		if err := database.GetDB().First(&org, claims.OrganizerID).Error; err == nil {
			if err := email.GlobalEmailService.SendSubscriptionStartedEmail(org.Email, org.Name, rec.CurrentPeriodEnd); err != nil {
				log.Printf("Could not send subscription email: %v", err)
			}
		}
	}

	return c.JSON(fiber.Map{
		"message": "Subscription confirmed",
		"state":   info,
	})
}

// GetMySubscription returns the raw record plus the freshly resolved state,
// and corrects this organizer's community visibility inline when it has
// drifted (the localized version of the sweep).
func GetMySubscription(c *fiber.Ctx) error {
	claims := c.Locals("user").(*jwt.Claims)

	rec, err := billing.EnsureRecord(database.GetDB(), claims.OrganizerID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not load subscription",
		})
	}

	now := time.Now()
	if err := billing.SyncCommunityVisibility(database.GetDB(), rec, now); err != nil {
		log.Printf("Inline visibility sync failed for organizer %d: %v", claims.OrganizerID, err)
	}

	return c.JSON(fiber.Map{
		"subscription": rec,
		"state":        billing.Resolve(rec, now),
	})
}

// CancelSubscription requests a period-end cancellation; access continues
// until the paid-through time elapses.
func CancelSubscription(c *fiber.Ctx) error {
	claims := c.Locals("user").(*jwt.Claims)

	rec, err := billing.RecordForOrganizer(database.GetDB(), claims.OrganizerID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "No subscription found",
		})
	}

	if err := billing.CancelSubscription(database.GetDB(), rec); err != nil {
		if errors.Is(err, billing.ErrNotSetUp) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "There is no subscription to cancel",
			})
		}
		log.Printf("Could not cancel subscription for organizer %d: %v", claims.OrganizerID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not cancel subscription, please try again",
		})
	}

	if email.GlobalEmailService != nil {
		var org model.Organizer
		if err := database.GetDB().First(&org, claims.OrganizerID).Error; err == nil {
			if err := email.GlobalEmailService.SendSubscriptionCancelledEmail(org.Email, org.Name, rec.CancelAt); err != nil {
				log.Printf("Could not send cancellation email: %v", err)
			}
		}
	}

	return c.JSON(fiber.Map{
		"message": "Subscription will end at the close of the billing period",
		"state":   billing.Resolve(rec, time.Now()),
	})
}

// CreatePortalSession opens the Stripe billing portal for payment method and
// invoice management.
func CreatePortalSession(c *fiber.Ctx) error {
	claims := c.Locals("user").(*jwt.Claims)

	rec, err := billing.RecordForOrganizer(database.GetDB(), claims.OrganizerID)
	if err != nil || rec.StripeCustomerID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "No billing account found",
		})
	}

	sess, err := billing.CreatePortalSession(rec.StripeCustomerID, config.Get().Stripe.PortalReturn)
	if err != nil {
		log.Printf("Could not create portal session for organizer %d: %v", claims.OrganizerID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not open billing portal",
		})
	}

	return c.JSON(fiber.Map{"url": sess.URL})
}

type CreditCheckInput struct {
	Needed int `json:"needed"`
}

func CheckCredits(c *fiber.Ctx) error {
	claims := c.Locals("user").(*jwt.Claims)

	input := new(CreditCheckInput)
	if err := c.BodyParser(input); err != nil || input.Needed <= 0 {
		input.Needed = 1
	}

	status, err := billing.CheckCredits(database.GetDB(), claims.OrganizerID, input.Needed)
	if err != nil {
		if errors.Is(err, billing.ErrNoSubscription) {
			return c.JSON(billing.CreditStatus{})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not check credits",
		})
	}

	return c.JSON(status)
}

type CreditSpendInput struct {
	Amount int `json:"amount"`
}

func SpendCredits(c *fiber.Ctx) error {
	claims := c.Locals("user").(*jwt.Claims)

	input := new(CreditSpendInput)
	if err := c.BodyParser(input); err != nil || input.Amount <= 0 {
		input.Amount = 1
	}

	err := billing.DeductCredits(database.GetDB(), claims.OrganizerID, input.Amount)
	if err != nil {
		if errors.Is(err, billing.ErrInsufficientCredits) || errors.Is(err, billing.ErrNoSubscription) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Not enough placement credits",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not spend credits",
		})
	}

	status, _ := billing.CheckCredits(database.GetDB(), claims.OrganizerID, 1)
	return c.JSON(fiber.Map{
		"message":   "Credits spent",
		"available": status.Available,
	})
}

// HandleStripeWebhook verifies the signature, logs the raw event, and
// dispatches it. A handler failure returns 500 so Stripe redelivers; replay
// of a processed event is a no-op 200.
func HandleStripeWebhook(c *fiber.Ctx) error {
	payload := c.Body()
	signatureHeader := c.Get("Stripe-Signature")

	event, err := webhook.ConstructEvent(payload, signatureHeader, config.Get().Stripe.WebhookSecret)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid webhook signature",
		})
	}

	log.Printf("Processing Stripe webhook event: %s (%s)", event.Type, event.ID)

	if err := billing.ProcessWebhookEvent(database.GetDB(), event); err != nil {
		log.Printf("Webhook event %s failed: %v", event.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Event processing failed",
		})
	}

	return c.SendStatus(fiber.StatusOK)
}
