package billing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"huddle_backend/internal/model"
)

func TestRunSubscriptionSweep(t *testing.T) {
	db := newTestDB(t)

	// Organizer 1: platform trial expired, community still public.
	expired := &model.BillingSubscription{
		OrganizerID: 1,
		Status:      model.StatusIncomplete,
	}
	expired.CreatedAt = daysAgo(PlatformTrialDays + 2)
	createRecord(t, db, expired)
	stale := createCommunity(t, db, 1, model.CommunityStatusActive)

	// Organizer 2: paying, community stuck in draft.
	createRecord(t, db, activeRecord(2, 3, 0))
	hidden := createCommunity(t, db, 2, model.CommunityStatusDraft)

	// Organizer 3: already consistent, must stay untouched.
	createRecord(t, db, activeRecord(3, 3, 0))
	steady := createCommunity(t, db, 3, model.CommunityStatusActive)

	require.NoError(t, RunSubscriptionSweep(db))

	var got model.Community
	require.NoError(t, db.First(&got, stale.ID).Error)
	assert.Equal(t, model.CommunityStatusDraft, got.Status)

	got = model.Community{}
	require.NoError(t, db.First(&got, hidden.ID).Error)
	assert.Equal(t, model.CommunityStatusActive, got.Status)

	got = model.Community{}
	require.NoError(t, db.First(&got, steady.ID).Error)
	assert.Equal(t, model.CommunityStatusActive, got.Status)
}

// Historical records coexist with the current one (they are never deleted);
// only the newest record may drive visibility.
func TestRunSubscriptionSweepUsesCurrentRecordOnly(t *testing.T) {
	db := newTestDB(t)

	createRecord(t, db, activeRecord(1, 3, 0))

	// Expired historical record inserted after the entitled one, the way a
	// legacy backfill would land.
	stale := &model.BillingSubscription{
		OrganizerID: 1,
		Status:      model.StatusIncomplete,
	}
	stale.CreatedAt = daysAgo(44)
	createRecord(t, db, stale)

	community := createCommunity(t, db, 1, model.CommunityStatusActive)

	require.NoError(t, RunSubscriptionSweep(db))

	var got model.Community
	require.NoError(t, db.First(&got, community.ID).Error)
	assert.Equal(t, model.CommunityStatusActive, got.Status)
}

func TestTrialsEndingWithinSkipsHistoricalRecords(t *testing.T) {
	db := newTestDB(t)

	// Dead trial record with three days left on its own clock.
	stale := &model.BillingSubscription{
		OrganizerID: 1,
		Status:      model.StatusIncomplete,
	}
	stale.CreatedAt = daysAgo(PlatformTrialDays - 3)
	createRecord(t, db, stale)

	// The organizer has since subscribed; no warning email is due.
	createRecord(t, db, activeRecord(1, 3, 0))

	recs, err := TrialsEndingWithin(db, 3, time.Now())
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestRunSubscriptionSweepGracePeriodKeepsAccess(t *testing.T) {
	db := newTestDB(t)

	rec := activeRecord(1, 3, 0)
	cancelAt := time.Now().Add(5 * 24 * time.Hour)
	rec.CancelAt = &cancelAt
	createRecord(t, db, rec)
	community := createCommunity(t, db, 1, model.CommunityStatusActive)

	require.NoError(t, RunSubscriptionSweep(db))

	var got model.Community
	require.NoError(t, db.First(&got, community.ID).Error)
	assert.Equal(t, model.CommunityStatusActive, got.Status)
}

func TestTrialsEndingWithin(t *testing.T) {
	db := newTestDB(t)

	// Platform trial with three whole days left.
	platform := &model.BillingSubscription{
		OrganizerID: 1,
		Status:      model.StatusIncomplete,
	}
	platform.CreatedAt = daysAgo(PlatformTrialDays - 3)
	createRecord(t, db, platform)

	// Stripe trial ending tomorrow.
	stripeTrial := &model.BillingSubscription{
		OrganizerID:          2,
		Status:               model.StatusTrialing,
		StripeSubscriptionID: "sub_2",
	}
	end := time.Now().Add(23 * time.Hour)
	stripeTrial.TrialEnd = &end
	createRecord(t, db, stripeTrial)

	// Active subscription, never warned.
	createRecord(t, db, activeRecord(3, 3, 0))

	now := time.Now()

	threeDay, err := TrialsEndingWithin(db, 3, now)
	require.NoError(t, err)
	require.Len(t, threeDay, 1)
	assert.EqualValues(t, 1, threeDay[0].OrganizerID)

	oneDay, err := TrialsEndingWithin(db, 1, now)
	require.NoError(t, err)
	require.Len(t, oneDay, 1)
	assert.EqualValues(t, 2, oneDay[0].OrganizerID)

	tenDay, err := TrialsEndingWithin(db, 10, now)
	require.NoError(t, err)
	assert.Empty(t, tenDay)
}
