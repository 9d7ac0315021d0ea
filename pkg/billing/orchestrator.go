package billing

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/stripe/stripe-go/v74"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"huddle_backend/internal/model"
)

var (
	ErrAlreadySubscribed = errors.New("an active subscription already exists")
	ErrNoSubscription    = errors.New("no billing record found")
	ErrNotSetUp          = errors.New("subscription checkout has not been started")
)

// RecordForOrganizer returns the newest billing record for the organizer, or
// ErrNoSubscription when none exists.
func RecordForOrganizer(db *gorm.DB, organizerID uint) (*model.BillingSubscription, error) {
	var rec model.BillingSubscription
	err := db.Where("organizer_id = ?", organizerID).
		Order("created_at DESC").
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNoSubscription
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// EnsureRecord lazily creates the billing record on first billing read; its
// CreatedAt anchors the platform trial from that moment on.
func EnsureRecord(db *gorm.DB, organizerID uint) (*model.BillingSubscription, error) {
	rec, err := RecordForOrganizer(db, organizerID)
	if err == nil {
		return rec, nil
	}
	if !errors.Is(err, ErrNoSubscription) {
		return nil, err
	}

	rec = &model.BillingSubscription{
		OrganizerID: organizerID,
		Status:      model.StatusIncomplete,
	}
	if err := db.Create(rec).Error; err != nil {
		return nil, err
	}
	return rec, nil
}

// TrialEligible reports whether the organizer may still receive a Stripe
// trial. Eligibility is a one-way ratchet over every historical record: once
// any record carries a Stripe subscription, a trial timestamp, or has moved
// past the initial status, it is gone for good.
func TrialEligible(db *gorm.DB, organizerID uint) (bool, error) {
	var recs []model.BillingSubscription
	if err := db.Unscoped().Where("organizer_id = ?", organizerID).Find(&recs).Error; err != nil {
		return false, err
	}
	for _, r := range recs {
		if r.StripeSubscriptionID != "" {
			return false, nil
		}
		if r.TrialStart != nil || r.TrialEnd != nil {
			return false, nil
		}
		if r.Status != model.StatusIncomplete {
			return false, nil
		}
	}
	return true, nil
}

// ApplyStripeSubscription writes the Stripe subscription's raw facts to the
// record verbatim. It never interprets them; the resolver does that on read.
// Applying the same subscription twice leaves the record unchanged.
func ApplyStripeSubscription(db *gorm.DB, rec *model.BillingSubscription, sub *stripe.Subscription) error {
	rec.Status = model.ParseSubscriptionStatus(string(sub.Status))
	rec.StripeSubscriptionID = sub.ID
	if sub.Customer != nil && sub.Customer.ID != "" {
		rec.StripeCustomerID = sub.Customer.ID
	}
	rec.TrialStart = unixTime(sub.TrialStart)
	rec.TrialEnd = unixTime(sub.TrialEnd)
	rec.CurrentPeriodStart = unixTime(sub.CurrentPeriodStart)
	rec.CurrentPeriodEnd = unixTime(sub.CurrentPeriodEnd)
	rec.CancelAt = unixTime(sub.CancelAt)
	rec.CanceledAt = unixTime(sub.CanceledAt)
	if sub.CancelAtPeriodEnd && rec.CancelAt == nil {
		rec.CancelAt = rec.CurrentPeriodEnd
	}

	return db.Save(rec).Error
}

// SetCommunityVisibility flips every community of the organizer whose status
// differs. This is the only mutation surface for community visibility.
func SetCommunityVisibility(db *gorm.DB, organizerID uint, status model.CommunityStatus) error {
	return db.Model(&model.Community{}).
		Where("organizer_id = ? AND status <> ?", organizerID, status).
		Update("status", status).Error
}

// SyncCommunityVisibility corrects a single organizer whose resolved state
// and community status disagree. Cheap enough to run inline on reads, which
// bounds staleness to the next read instead of the next sweep.
func SyncCommunityVisibility(db *gorm.DB, rec *model.BillingSubscription, now time.Time) error {
	info := Resolve(rec, now)
	if info.HasFullAccess {
		return SetCommunityVisibility(db, rec.OrganizerID, model.CommunityStatusActive)
	}
	return SetCommunityVisibility(db, rec.OrganizerID, model.CommunityStatusDraft)
}

// StartSubscription creates the Stripe customer and subscription for the
// organizer and persists the result in one write, so a gateway failure
// leaves the record in its prior state. Returns the client secret the
// frontend confirms with.
func StartSubscription(db *gorm.DB, org *model.Organizer, priceID string) (*model.BillingSubscription, string, error) {
	rec, err := EnsureRecord(db, org.ID)
	if err != nil {
		return nil, "", err
	}

	if rec.StripeSubscriptionID != "" {
		info := Resolve(rec, time.Now())
		if info.HasFullAccess {
			return nil, "", ErrAlreadySubscribed
		}
	}

	eligible, err := TrialEligible(db, org.ID)
	if err != nil {
		return nil, "", err
	}

	customerID := rec.StripeCustomerID
	if customerID == "" {
		cust, err := CreateStripeCustomer(org)
		if err != nil {
			return nil, "", fmt.Errorf("could not create stripe customer: %w", err)
		}
		customerID = cust.ID
	}

	var trialDays int64
	if eligible {
		trialDays = PlatformTrialDays
	}

	sub, err := CreateStripeSubscription(customerID, priceID, trialDays)
	if err != nil {
		return nil, "", fmt.Errorf("could not create stripe subscription: %w", err)
	}

	rec.StripeCustomerID = customerID
	if err := ApplyStripeSubscription(db, rec, sub); err != nil {
		return nil, "", err
	}

	secret := ClientSecretFromSubscription(sub)
	if secret == "" {
		si, err := CreateSetupIntent(customerID)
		if err != nil {
			return nil, "", fmt.Errorf("could not create setup intent: %w", err)
		}
		secret = si.ClientSecret
	}

	return rec, secret, nil
}

// ConfirmSubscription re-fetches the authoritative state from Stripe after
// the client-side payment/setup step, settles a still-open first invoice
// with the saved payment method, persists whatever Stripe now reports, and
// turns community visibility on when the resolved state grants access.
// Safe to call twice; the second call finds everything already settled.
func ConfirmSubscription(db *gorm.DB, rec *model.BillingSubscription) (StateInfo, error) {
	if rec.StripeSubscriptionID == "" {
		return StateInfo{}, ErrNotSetUp
	}

	sub, err := RetrieveStripeSubscription(rec.StripeSubscriptionID)
	if err != nil {
		return StateInfo{}, fmt.Errorf("could not retrieve stripe subscription: %w", err)
	}

	// A trial-less subscription needs its first invoice charged after the
	// payment method was saved; setup intents and payment intents are
	// mutually exclusive per subscription.
	if sub.Status == stripe.SubscriptionStatusIncomplete &&
		sub.LatestInvoice != nil && sub.LatestInvoice.Status == stripe.InvoiceStatusOpen {
		if _, err := PayStripeInvoice(sub.LatestInvoice.ID); err != nil {
			return StateInfo{}, fmt.Errorf("could not pay open invoice: %w", err)
		}
		if sub, err = RetrieveStripeSubscription(rec.StripeSubscriptionID); err != nil {
			return StateInfo{}, fmt.Errorf("could not retrieve stripe subscription: %w", err)
		}
	}

	if err := ApplyStripeSubscription(db, rec, sub); err != nil {
		return StateInfo{}, err
	}

	info := Resolve(rec, time.Now())
	if info.HasFullAccess {
		// The only place visibility is turned on by a request.
		if err := SetCommunityVisibility(db, rec.OrganizerID, model.CommunityStatusActive); err != nil {
			return info, err
		}
		if rec.CreditsResetDate == nil && (info.State == StateActive || info.State == StateStripeTrial) {
			if err := ResetCredits(db, rec, time.Now()); err != nil {
				return info, err
			}
		}
	}

	return info, nil
}

// CancelSubscription asks Stripe for a period-end cancellation and persists
// the cancellation marker. Status is left for the webhook to confirm.
func CancelSubscription(db *gorm.DB, rec *model.BillingSubscription) error {
	if rec.StripeSubscriptionID == "" {
		return ErrNotSetUp
	}

	sub, err := CancelStripeAtPeriodEnd(rec.StripeSubscriptionID)
	if err != nil {
		return fmt.Errorf("could not cancel stripe subscription: %w", err)
	}

	return ApplyStripeSubscription(db, rec, sub)
}

// ProcessWebhookEvent logs the raw event, dispatches it, and marks it
// processed only after the handler succeeds. A redelivered event that was
// already processed is a no-op; a logged-but-failed one is retried on the
// next delivery.
func ProcessWebhookEvent(db *gorm.DB, event stripe.Event) error {
	var logged model.WebhookEvent
	err := db.Where("stripe_event_id = ?", event.ID).First(&logged).Error
	switch {
	case err == nil:
		if logged.ProcessedAt != nil {
			log.Printf("Skipping already processed webhook event %s", event.ID)
			return nil
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		logged = model.WebhookEvent{
			StripeEventID: event.ID,
			EventType:     string(event.Type),
			Payload:       datatypes.JSON(event.Data.Raw),
		}
		if err := db.Create(&logged).Error; err != nil {
			return err
		}
	default:
		return err
	}

	if err := dispatchWebhookEvent(db, event); err != nil {
		db.Model(&logged).Update("processing_error", err.Error())
		return err
	}

	now := time.Now()
	return db.Model(&logged).Updates(map[string]interface{}{
		"processed_at":     now,
		"processing_error": "",
	}).Error
}

func dispatchWebhookEvent(db *gorm.DB, event stripe.Event) error {
	switch event.Type {
	case "customer.subscription.created", "customer.subscription.updated":
		sub, err := unmarshalSubscription(event)
		if err != nil {
			return err
		}
		rec, err := recordForStripeSubscription(db, sub)
		if err != nil || rec == nil {
			return err
		}
		return ApplyStripeSubscription(db, rec, sub)

	case "customer.subscription.deleted":
		sub, err := unmarshalSubscription(event)
		if err != nil {
			return err
		}
		rec, err := recordForStripeSubscription(db, sub)
		if err != nil || rec == nil {
			return err
		}
		if err := ApplyStripeSubscription(db, rec, sub); err != nil {
			return err
		}
		// Deletion means the grace period is provably over, so this is the
		// one webhook that flips visibility directly.
		return SetCommunityVisibility(db, rec.OrganizerID, model.CommunityStatusDraft)

	case "invoice.payment_succeeded":
		var inv stripe.Invoice
		if err := json.Unmarshal(event.Data.Raw, &inv); err != nil {
			return fmt.Errorf("could not unmarshal invoice: %w", err)
		}
		if inv.Subscription == nil {
			return nil
		}
		rec, err := recordForSubscriptionID(db, inv.Subscription.ID)
		if err != nil || rec == nil {
			return err
		}
		// A new billing cycle rolls the placement credit allowance.
		if inv.BillingReason == stripe.InvoiceBillingReasonSubscriptionCycle ||
			inv.BillingReason == stripe.InvoiceBillingReasonSubscriptionCreate {
			return ResetCredits(db, rec, time.Now())
		}
		return nil

	case "invoice.payment_failed":
		var inv stripe.Invoice
		if err := json.Unmarshal(event.Data.Raw, &inv); err != nil {
			return fmt.Errorf("could not unmarshal invoice: %w", err)
		}
		if inv.Subscription == nil {
			return nil
		}
		rec, err := recordForSubscriptionID(db, inv.Subscription.ID)
		if err != nil || rec == nil {
			return err
		}
		rec.Status = model.StatusPastDue
		return db.Save(rec).Error

	default:
		log.Printf("Unhandled webhook event type: %s", event.Type)
		return nil
	}
}

func unmarshalSubscription(event stripe.Event) (*stripe.Subscription, error) {
	var sub stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		return nil, fmt.Errorf("could not unmarshal subscription: %w", err)
	}
	return &sub, nil
}

func recordForStripeSubscription(db *gorm.DB, sub *stripe.Subscription) (*model.BillingSubscription, error) {
	rec, err := recordForSubscriptionID(db, sub.ID)
	if err != nil || rec != nil {
		return rec, err
	}
	if sub.Customer != nil && sub.Customer.ID != "" {
		var byCustomer model.BillingSubscription
		err := db.Where("stripe_customer_id = ?", sub.Customer.ID).
			Order("created_at DESC").First(&byCustomer).Error
		if err == nil {
			return &byCustomer, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}
	log.Printf("No billing record for stripe subscription %s, ignoring", sub.ID)
	return nil, nil
}

func recordForSubscriptionID(db *gorm.DB, subscriptionID string) (*model.BillingSubscription, error) {
	var rec model.BillingSubscription
	err := db.Where("stripe_subscription_id = ?", subscriptionID).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func unixTime(sec int64) *time.Time {
	if sec == 0 {
		return nil
	}
	t := time.Unix(sec, 0)
	return &t
}
