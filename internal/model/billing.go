package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// SubscriptionStatus is the raw Stripe subscription status, persisted
// verbatim. Anything Stripe sends that we don't recognize is stored as
// StatusUnknown and never grants access.
type SubscriptionStatus string

const (
	StatusIncomplete        SubscriptionStatus = "incomplete"
	StatusIncompleteExpired SubscriptionStatus = "incomplete_expired"
	StatusTrialing          SubscriptionStatus = "trialing"
	StatusActive            SubscriptionStatus = "active"
	StatusPastDue           SubscriptionStatus = "past_due"
	StatusCanceled          SubscriptionStatus = "canceled"
	StatusUnknown           SubscriptionStatus = "unknown"
)

func ParseSubscriptionStatus(raw string) SubscriptionStatus {
	switch s := SubscriptionStatus(raw); s {
	case StatusIncomplete, StatusIncompleteExpired, StatusTrialing,
		StatusActive, StatusPastDue, StatusCanceled:
		return s
	default:
		return StatusUnknown
	}
}

// BillingSubscription is the one billing record per organizer. It mirrors
// the Stripe subscription once one exists; before that, CreatedAt anchors
// the platform trial window. Records are never deleted.
type BillingSubscription struct {
	gorm.Model
	OrganizerID uint `json:"organizer_id" gorm:"index;not null"`

	Status SubscriptionStatus `json:"status" gorm:"size:32;default:'incomplete'"`

	StripeCustomerID     string `json:"stripe_customer_id" gorm:"size:191"`
	StripeSubscriptionID string `json:"stripe_subscription_id" gorm:"size:191;index"`

	TrialStart         *time.Time `json:"trial_start"`
	TrialEnd           *time.Time `json:"trial_end"`
	CurrentPeriodStart *time.Time `json:"current_period_start"`
	CurrentPeriodEnd   *time.Time `json:"current_period_end"`

	// A cancellation request sets CancelAt while Status stays whatever Stripe
	// reports; the grace period runs until CancelAt passes.
	CancelAt   *time.Time `json:"cancel_at"`
	CanceledAt *time.Time `json:"canceled_at"`

	PlacementCreditsAvailable int        `json:"placement_credits_available" gorm:"default:0"`
	PlacementCreditsUsed      int        `json:"placement_credits_used" gorm:"default:0"`
	CreditsResetDate          *time.Time `json:"credits_reset_date"`

	Organizer Organizer `json:"-" gorm:"foreignKey:OrganizerID"`
}

// WebhookEvent logs every Stripe event before it is dispatched, so that
// redelivered events can be recognized and a failed handler can be retried.
type WebhookEvent struct {
	gorm.Model
	StripeEventID   string         `json:"stripe_event_id" gorm:"size:191;uniqueIndex;not null"`
	EventType       string         `json:"event_type" gorm:"size:100;index"`
	Payload         datatypes.JSON `json:"payload"`
	ProcessedAt     *time.Time     `json:"processed_at"`
	ProcessingError string         `json:"processing_error" gorm:"type:text"`
}
