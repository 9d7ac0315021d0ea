package billing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	"huddle_backend/internal/model"
)

func recordCreatedAt(created time.Time) *model.BillingSubscription {
	return &model.BillingSubscription{
		Model:  gorm.Model{ID: 1, CreatedAt: created},
		Status: model.StatusIncomplete,
	}
}

func timePtr(t time.Time) *time.Time {
	return &t
}

func TestResolveNilRecord(t *testing.T) {
	info := Resolve(nil, time.Now())

	assert.Equal(t, StateNone, info.State)
	assert.False(t, info.HasFullAccess)
	assert.False(t, info.IsPublicAllowed)
}

func TestResolvePlatformTrial(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name         string
		createdAgo   time.Duration
		wantState    LifecycleState
		wantDaysLeft int
		wantAccess   bool
	}{
		{"brand new", 0, StatePlatformTrial, 14, true},
		{"mid trial", 7*24*time.Hour + 12*time.Hour, StatePlatformTrial, 7, true},
		{"last day", 13*24*time.Hour + 12*time.Hour, StatePlatformTrial, 1, true},
		{"exactly expired", 14 * 24 * time.Hour, StateEnded, 0, false},
		{"long expired", 15 * 24 * time.Hour, StateEnded, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := recordCreatedAt(now.Add(-tt.createdAgo))
			info := Resolve(rec, now)

			assert.Equal(t, tt.wantState, info.State)
			assert.Equal(t, tt.wantDaysLeft, info.PlatformTrialDaysRemaining)
			assert.Equal(t, tt.wantAccess, info.HasFullAccess)
			assert.Equal(t, tt.wantAccess, info.IsPublicAllowed)
			assert.GreaterOrEqual(t, info.PlatformTrialDaysRemaining, 0)
			assert.LessOrEqual(t, info.PlatformTrialDaysRemaining, PlatformTrialDays)
		})
	}
}

func TestResolveNoSubscriptionCanceled(t *testing.T) {
	now := time.Now()
	rec := recordCreatedAt(now) // still inside the trial window
	rec.Status = model.StatusCanceled

	info := Resolve(rec, now)

	assert.Equal(t, StateEnded, info.State)
	assert.False(t, info.HasFullAccess)
}

// Scenario: record with no Stripe subscription created 15 days ago.
func TestResolveExpiredSetupNeverCompleted(t *testing.T) {
	now := time.Now()
	rec := recordCreatedAt(now.Add(-15 * 24 * time.Hour))

	info := Resolve(rec, now)

	assert.Equal(t, StateEnded, info.State)
	assert.False(t, info.HasFullAccess)
	assert.False(t, info.IsPublicAllowed)
	assert.Equal(t, 0, info.PlatformTrialDaysRemaining)
}

func TestResolveStripeTrial(t *testing.T) {
	now := time.Now()
	rec := recordCreatedAt(now.Add(-2 * 24 * time.Hour))
	rec.StripeSubscriptionID = "sub_1"
	rec.Status = model.StatusTrialing
	rec.TrialEnd = timePtr(now.Add(5 * 24 * time.Hour))

	info := Resolve(rec, now)

	assert.Equal(t, StateStripeTrial, info.State)
	assert.Equal(t, 5, info.TrialDaysRemaining)
	assert.True(t, info.HasFullAccess)
	assert.True(t, info.IsPublicAllowed)
	assert.NotNil(t, info.TrialEndsAt)
}

func TestResolveStripeTrialExpired(t *testing.T) {
	now := time.Now()
	rec := recordCreatedAt(now.Add(-20 * 24 * time.Hour))
	rec.StripeSubscriptionID = "sub_1"
	rec.Status = model.StatusTrialing
	rec.TrialEnd = timePtr(now.Add(-1 * time.Hour))

	info := Resolve(rec, now)

	assert.Equal(t, StateEnded, info.State)
	assert.Equal(t, 0, info.TrialDaysRemaining)
	assert.False(t, info.HasFullAccess)
}

func TestResolveStripeTrialMissingTrialEnd(t *testing.T) {
	// Legacy shape: trialing but no trial_end; the creation anchor decides.
	now := time.Now()
	rec := recordCreatedAt(now.Add(-3 * 24 * time.Hour))
	rec.StripeSubscriptionID = "sub_1"
	rec.Status = model.StatusTrialing

	info := Resolve(rec, now)

	assert.Equal(t, StateStripeTrial, info.State)
	assert.Equal(t, 11, info.TrialDaysRemaining)
}

func TestResolveActiveNoCancellation(t *testing.T) {
	// Active with no cancellation marker never expires, whatever now is.
	for _, offset := range []time.Duration{0, 30 * 24 * time.Hour, 365 * 24 * time.Hour} {
		now := time.Now().Add(offset)
		rec := recordCreatedAt(time.Now().Add(-100 * 24 * time.Hour))
		rec.StripeSubscriptionID = "sub_1"
		rec.Status = model.StatusActive

		info := Resolve(rec, now)

		assert.Equal(t, StateActive, info.State)
		assert.True(t, info.HasFullAccess)
		assert.Nil(t, info.AccessExpiresAt)
	}
}

// Scenario: cancellation requested with 10 days of paid-through time left.
func TestResolveGracePeriodThenEnded(t *testing.T) {
	now := time.Now()
	cancelAt := now.Add(10 * 24 * time.Hour)

	rec := recordCreatedAt(now.Add(-40 * 24 * time.Hour))
	rec.StripeSubscriptionID = "sub_1"
	rec.Status = model.StatusActive
	rec.CancelAt = timePtr(cancelAt)

	info := Resolve(rec, now)
	assert.Equal(t, StateGracePeriod, info.State)
	assert.True(t, info.HasFullAccess)
	if assert.NotNil(t, info.AccessExpiresAt) {
		assert.True(t, info.AccessExpiresAt.Equal(cancelAt))
	}

	// The same unmodified record, re-evaluated after the boundary.
	later := Resolve(rec, now.Add(11*24*time.Hour))
	assert.Equal(t, StateEnded, later.State)
	assert.False(t, later.HasFullAccess)
	assert.False(t, later.IsPublicAllowed)
}

func TestResolveActiveCanceledAtFallsBackToPeriodEnd(t *testing.T) {
	now := time.Now()
	periodEnd := now.Add(6 * 24 * time.Hour)

	rec := recordCreatedAt(now.Add(-40 * 24 * time.Hour))
	rec.StripeSubscriptionID = "sub_1"
	rec.Status = model.StatusActive
	rec.CanceledAt = timePtr(now.Add(-1 * time.Hour))
	rec.CurrentPeriodEnd = timePtr(periodEnd)

	info := Resolve(rec, now)

	assert.Equal(t, StateGracePeriod, info.State)
	if assert.NotNil(t, info.AccessExpiresAt) {
		assert.True(t, info.AccessExpiresAt.Equal(periodEnd))
	}
}

func TestResolvePastDueKeepsAccess(t *testing.T) {
	now := time.Now()
	rec := recordCreatedAt(now.Add(-60 * 24 * time.Hour))
	rec.StripeSubscriptionID = "sub_1"
	rec.Status = model.StatusPastDue
	rec.CurrentPeriodEnd = timePtr(now.Add(-3 * 24 * time.Hour))

	info := Resolve(rec, now)

	assert.Equal(t, StatePastDue, info.State)
	assert.True(t, info.HasFullAccess)
	assert.True(t, info.IsPublicAllowed)
	assert.NotNil(t, info.AccessExpiresAt)
}

func TestResolveCanceledStatus(t *testing.T) {
	now := time.Now()

	rec := recordCreatedAt(now.Add(-60 * 24 * time.Hour))
	rec.StripeSubscriptionID = "sub_1"
	rec.Status = model.StatusCanceled
	rec.CurrentPeriodEnd = timePtr(now.Add(2 * 24 * time.Hour))

	info := Resolve(rec, now)
	assert.Equal(t, StateGracePeriod, info.State)
	assert.True(t, info.HasFullAccess)

	rec.CurrentPeriodEnd = timePtr(now.Add(-2 * time.Hour))
	info = Resolve(rec, now)
	assert.Equal(t, StateEnded, info.State)
	assert.False(t, info.HasFullAccess)
}

func TestResolveIncompleteWithSubscriptionUsesCreationAnchor(t *testing.T) {
	now := time.Now()

	rec := recordCreatedAt(now.Add(-2 * 24 * time.Hour))
	rec.StripeSubscriptionID = "sub_1"
	rec.Status = model.StatusIncomplete

	info := Resolve(rec, now)
	assert.Equal(t, StatePlatformTrial, info.State)
	assert.Equal(t, 12, info.PlatformTrialDaysRemaining)

	rec.Status = model.StatusIncompleteExpired
	info = Resolve(rec, now)
	assert.Equal(t, StatePlatformTrial, info.State)
}

func TestResolveUnknownStatusFailsClosed(t *testing.T) {
	now := time.Now()
	rec := recordCreatedAt(now) // fresh record, trial clock would still run
	rec.StripeSubscriptionID = "sub_1"
	rec.Status = model.StatusUnknown

	info := Resolve(rec, now)

	assert.Equal(t, StateEnded, info.State)
	assert.False(t, info.HasFullAccess)
	assert.False(t, info.IsPublicAllowed)
}

func TestParseSubscriptionStatus(t *testing.T) {
	assert.Equal(t, model.StatusActive, model.ParseSubscriptionStatus("active"))
	assert.Equal(t, model.StatusTrialing, model.ParseSubscriptionStatus("trialing"))
	assert.Equal(t, model.StatusIncompleteExpired, model.ParseSubscriptionStatus("incomplete_expired"))
	assert.Equal(t, model.StatusUnknown, model.ParseSubscriptionStatus("paused"))
	assert.Equal(t, model.StatusUnknown, model.ParseSubscriptionStatus(""))
	assert.Equal(t, model.StatusUnknown, model.ParseSubscriptionStatus("something_new"))
}

func TestDaysUntilNeverNegative(t *testing.T) {
	now := time.Now()

	assert.Equal(t, 0, daysUntil(now.Add(-time.Hour), now))
	assert.Equal(t, 0, daysUntil(now, now))
	assert.Equal(t, 1, daysUntil(now.Add(30*time.Minute), now))
	assert.Equal(t, 1, daysUntil(now.Add(24*time.Hour), now))
	assert.Equal(t, 2, daysUntil(now.Add(25*time.Hour), now))
}
