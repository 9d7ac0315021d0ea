package billing

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"huddle_backend/internal/model"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&model.Organizer{},
		&model.Community{},
		&model.Event{},
		&model.BillingSubscription{},
		&model.WebhookEvent{},
	))

	return db
}

func createRecord(t *testing.T, db *gorm.DB, rec *model.BillingSubscription) *model.BillingSubscription {
	t.Helper()

	createdAt := rec.CreatedAt
	require.NoError(t, db.Create(rec).Error)

	if !createdAt.IsZero() {
		// gorm overwrites CreatedAt on insert; pin the trial anchor back.
		require.NoError(t, db.Model(rec).UpdateColumn("created_at", createdAt).Error)
		rec.CreatedAt = createdAt
	}
	return rec
}

func activeRecord(organizerID uint, credits, used int) *model.BillingSubscription {
	return &model.BillingSubscription{
		OrganizerID:               organizerID,
		Status:                    model.StatusActive,
		StripeCustomerID:          "cus_test",
		StripeSubscriptionID:      fmt.Sprintf("sub_test_%d", organizerID),
		PlacementCreditsAvailable: credits,
		PlacementCreditsUsed:      used,
	}
}

func daysAgo(n int) time.Time {
	return time.Now().Add(-time.Duration(n) * 24 * time.Hour)
}
