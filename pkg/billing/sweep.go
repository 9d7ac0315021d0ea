package billing

import (
	"log"
	"time"

	"gorm.io/gorm"

	"huddle_backend/internal/model"
)

// currentRecords returns each organizer's newest billing record, the same
// notion of "current" RecordForOrganizer uses. Older historical records stay
// in the table (the trial ratchet reads them) but must never drive side
// effects.
func currentRecords(db *gorm.DB) ([]model.BillingSubscription, error) {
	var recs []model.BillingSubscription
	if err := db.Order("created_at ASC, id ASC").Find(&recs).Error; err != nil {
		return nil, err
	}

	byOrganizer := make(map[uint]model.BillingSubscription, len(recs))
	for _, rec := range recs {
		byOrganizer[rec.OrganizerID] = rec
	}

	out := make([]model.BillingSubscription, 0, len(byOrganizer))
	for _, rec := range byOrganizer {
		out = append(out, rec)
	}
	return out, nil
}

// RunSubscriptionSweep re-evaluates every organizer's current billing record
// and corrects any community whose visibility no longer matches the resolved
// state. Webhook delivery is not guaranteed, so this is the self-healing
// backstop: expired organizers get drafted, entitled ones whose communities
// were created before the subscription get activated.
func RunSubscriptionSweep(db *gorm.DB) error {
	recs, err := currentRecords(db)
	if err != nil {
		return err
	}

	now := time.Now()
	for i := range recs {
		if err := SyncCommunityVisibility(db, &recs[i], now); err != nil {
			log.Printf("Sweep could not sync organizer %d: %v", recs[i].OrganizerID, err)
		}
	}

	log.Printf("Subscription sweep finished: %d organizers evaluated", len(recs))
	return nil
}

// TrialsEndingWithin returns current records whose resolved trial (platform
// or Stripe) has exactly `days` whole days left, for the warning emails.
func TrialsEndingWithin(db *gorm.DB, days int, now time.Time) ([]model.BillingSubscription, error) {
	recs, err := currentRecords(db.Preload("Organizer"))
	if err != nil {
		return nil, err
	}

	var out []model.BillingSubscription
	for _, rec := range recs {
		info := Resolve(&rec, now)
		switch info.State {
		case StatePlatformTrial:
			if info.PlatformTrialDaysRemaining == days {
				out = append(out, rec)
			}
		case StateStripeTrial:
			if info.TrialDaysRemaining == days {
				out = append(out, rec)
			}
		}
	}
	return out, nil
}
