package billing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"huddle_backend/internal/model"
)

func TestCheckCreditsActiveSubscription(t *testing.T) {
	db := newTestDB(t)
	createRecord(t, db, activeRecord(1, 3, 1))

	status, err := CheckCredits(db, 1, 1)
	require.NoError(t, err)

	assert.True(t, status.HasCredits)
	assert.Equal(t, 2, status.Available)

	status, err = CheckCredits(db, 1, 3)
	require.NoError(t, err)
	assert.False(t, status.HasCredits)
	assert.Equal(t, 2, status.Available)
}

func TestCheckCreditsStripeTrial(t *testing.T) {
	db := newTestDB(t)
	rec := activeRecord(1, 3, 0)
	rec.Status = model.StatusTrialing
	end := time.Now().Add(5 * 24 * time.Hour)
	rec.TrialEnd = &end
	createRecord(t, db, rec)

	status, err := CheckCredits(db, 1, 1)
	require.NoError(t, err)

	assert.True(t, status.HasCredits)
	assert.Equal(t, 3, status.Available)
}

// Grace period grants platform access but never credits, whatever the raw
// counters say.
func TestCheckCreditsGracePeriod(t *testing.T) {
	db := newTestDB(t)
	rec := activeRecord(1, 3, 0)
	cancelAt := time.Now().Add(10 * 24 * time.Hour)
	rec.CancelAt = &cancelAt
	createRecord(t, db, rec)

	status, err := CheckCredits(db, 1, 1)
	require.NoError(t, err)

	assert.False(t, status.HasCredits)
	assert.Equal(t, 0, status.Available)
}

func TestCheckCreditsPlatformTrial(t *testing.T) {
	db := newTestDB(t)
	rec := &model.BillingSubscription{
		OrganizerID:               1,
		Status:                    model.StatusIncomplete,
		PlacementCreditsAvailable: 3,
	}
	createRecord(t, db, rec)

	status, err := CheckCredits(db, 1, 1)
	require.NoError(t, err)

	assert.False(t, status.HasCredits)
}

func TestCheckCreditsNoRecord(t *testing.T) {
	db := newTestDB(t)

	_, err := CheckCredits(db, 99, 1)
	assert.ErrorIs(t, err, ErrNoSubscription)
}

func TestDeductCredits(t *testing.T) {
	db := newTestDB(t)
	createRecord(t, db, activeRecord(1, 3, 0))

	require.NoError(t, DeductCredits(db, 1, 2))

	var rec model.BillingSubscription
	require.NoError(t, db.Where("organizer_id = ?", 1).First(&rec).Error)
	assert.Equal(t, 2, rec.PlacementCreditsUsed)

	// Second deduction would exceed the allowance; nothing partial happens.
	err := DeductCredits(db, 1, 2)
	assert.ErrorIs(t, err, ErrInsufficientCredits)

	require.NoError(t, db.Where("organizer_id = ?", 1).First(&rec).Error)
	assert.Equal(t, 2, rec.PlacementCreditsUsed)
	assert.LessOrEqual(t, rec.PlacementCreditsUsed, rec.PlacementCreditsAvailable)

	require.NoError(t, DeductCredits(db, 1, 1))
	err = DeductCredits(db, 1, 1)
	assert.ErrorIs(t, err, ErrInsufficientCredits)

	require.NoError(t, db.Where("organizer_id = ?", 1).First(&rec).Error)
	assert.Equal(t, 3, rec.PlacementCreditsUsed)
}

func TestDeductCreditsOutsideEntitledStates(t *testing.T) {
	db := newTestDB(t)
	rec := activeRecord(1, 3, 0)
	cancelAt := time.Now().Add(10 * 24 * time.Hour)
	rec.CancelAt = &cancelAt
	createRecord(t, db, rec)

	err := DeductCredits(db, 1, 1)
	assert.ErrorIs(t, err, ErrInsufficientCredits)

	var got model.BillingSubscription
	require.NoError(t, db.Where("organizer_id = ?", 1).First(&got).Error)
	assert.Equal(t, 0, got.PlacementCreditsUsed)
}

func TestResetCredits(t *testing.T) {
	db := newTestDB(t)
	rec := createRecord(t, db, activeRecord(1, 3, 3))

	now := time.Now()
	require.NoError(t, ResetCredits(db, rec, now))

	var got model.BillingSubscription
	require.NoError(t, db.Where("organizer_id = ?", 1).First(&got).Error)

	assert.Equal(t, MonthlyPlacementCredits, got.PlacementCreditsAvailable)
	assert.Equal(t, 0, got.PlacementCreditsUsed)
	if assert.NotNil(t, got.CreditsResetDate) {
		assert.WithinDuration(t, now.AddDate(0, 1, 0), *got.CreditsResetDate, time.Minute)
	}
}
