package billing

import (
	"math"
	"time"

	"huddle_backend/internal/model"
)

// LifecycleState is the single canonical state every part of the app reads.
// It is derived fresh from the persisted record on every call, never cached.
type LifecycleState string

const (
	StatePlatformTrial LifecycleState = "platform_trial"
	StateStripeTrial   LifecycleState = "stripe_trial"
	StateActive        LifecycleState = "active"
	StateGracePeriod   LifecycleState = "grace_period"
	StatePastDue       LifecycleState = "past_due"
	StateEnded         LifecycleState = "ended"
	StateNone          LifecycleState = "none"
)

// PlatformTrialDays is the access window granted from record creation alone,
// before any Stripe subscription exists. The same length is used for the
// Stripe-side trial when the organizer is still trial-eligible.
const PlatformTrialDays = 14

type StateInfo struct {
	State                      LifecycleState `json:"state"`
	AccessExpiresAt            *time.Time     `json:"access_expires_at,omitempty"`
	TrialEndsAt                *time.Time     `json:"trial_ends_at,omitempty"`
	TrialDaysRemaining         int            `json:"trial_days_remaining"`
	PlatformTrialDaysRemaining int            `json:"platform_trial_days_remaining"`
	IsPublicAllowed            bool           `json:"is_public_allowed"`
	HasFullAccess              bool           `json:"has_full_access"`
}

// Resolve maps the persisted billing record and the current time to the
// canonical lifecycle state. Pure function, no I/O; branches are evaluated
// in order and later ones only apply when earlier ones don't match.
func Resolve(rec *model.BillingSubscription, now time.Time) StateInfo {
	if rec == nil {
		return StateInfo{State: StateNone}
	}

	// Checkout never completed: only the platform trial clock applies.
	if rec.StripeSubscriptionID == "" {
		if rec.Status == model.StatusCanceled {
			return StateInfo{State: StateEnded}
		}
		return resolvePlatformTrial(rec, now)
	}

	switch rec.Status {
	case model.StatusTrialing:
		// Legacy records can miss trial_end; fall back to the creation anchor.
		trialEnd := rec.CreatedAt.Add(PlatformTrialDays * 24 * time.Hour)
		if rec.TrialEnd != nil {
			trialEnd = *rec.TrialEnd
		}
		if !now.Before(trialEnd) {
			return StateInfo{State: StateEnded}
		}
		end := trialEnd
		return StateInfo{
			State:              StateStripeTrial,
			TrialEndsAt:        &end,
			TrialDaysRemaining: daysUntil(end, now),
			IsPublicAllowed:    true,
			HasFullAccess:      true,
		}

	case model.StatusActive:
		if rec.CancelAt != nil || rec.CanceledAt != nil {
			// Cancellation requested but paid-through time is honored.
			periodEnd := rec.CancelAt
			if periodEnd == nil {
				periodEnd = rec.CurrentPeriodEnd
			}
			if periodEnd != nil && periodEnd.After(now) {
				end := *periodEnd
				return StateInfo{
					State:           StateGracePeriod,
					AccessExpiresAt: &end,
					IsPublicAllowed: true,
					HasFullAccess:   true,
				}
			}
			return StateInfo{State: StateEnded}
		}
		return StateInfo{State: StateActive, IsPublicAllowed: true, HasFullAccess: true}

	case model.StatusPastDue:
		// Access is kept through Stripe's payment retry window. No local
		// timeout; Stripe's dunning cycle eventually emits a deletion.
		info := StateInfo{State: StatePastDue, IsPublicAllowed: true, HasFullAccess: true}
		if rec.CurrentPeriodEnd != nil {
			end := *rec.CurrentPeriodEnd
			info.AccessExpiresAt = &end
		}
		return info

	case model.StatusCanceled:
		if rec.CurrentPeriodEnd != nil && rec.CurrentPeriodEnd.After(now) {
			end := *rec.CurrentPeriodEnd
			return StateInfo{
				State:           StateGracePeriod,
				AccessExpiresAt: &end,
				IsPublicAllowed: true,
				HasFullAccess:   true,
			}
		}
		return StateInfo{State: StateEnded}

	case model.StatusIncomplete, model.StatusIncompleteExpired:
		// Payment was never confirmed, so the setup failure degrades to the
		// platform trial clock instead of granting paid benefits.
		return resolvePlatformTrial(rec, now)
	}

	// Unrecognized status never grants access.
	return StateInfo{State: StateEnded}
}

func resolvePlatformTrial(rec *model.BillingSubscription, now time.Time) StateInfo {
	trialEnd := rec.CreatedAt.Add(PlatformTrialDays * 24 * time.Hour)
	if !now.Before(trialEnd) {
		return StateInfo{State: StateEnded}
	}
	end := trialEnd
	return StateInfo{
		State:                      StatePlatformTrial,
		TrialEndsAt:                &end,
		PlatformTrialDaysRemaining: daysUntil(end, now),
		IsPublicAllowed:            true,
		HasFullAccess:              true,
	}
}

// daysUntil counts whole days left until target, rounding up, never negative.
func daysUntil(target, now time.Time) int {
	d := target.Sub(now)
	if d <= 0 {
		return 0
	}
	return int(math.Ceil(d.Hours() / 24))
}

// AccessMessage phrases the loss of access in lifecycle terms instead of raw
// processor errors.
func AccessMessage(state LifecycleState) string {
	switch state {
	case StateEnded:
		return "Your trial has ended. Please subscribe to continue."
	case StateNone:
		return "No subscription found. Please subscribe to continue."
	default:
		return "Your subscription does not allow this action."
	}
}
