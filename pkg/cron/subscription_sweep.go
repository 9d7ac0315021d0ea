package cron

import (
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"huddle_backend/pkg/billing"
	"huddle_backend/pkg/database"
	"huddle_backend/pkg/email"
)

// InitSubscriptionSweepCron schedules the periodic sweep that re-resolves
// every billing record and corrects community visibility, plus the trial
// ending warning emails.
func InitSubscriptionSweepCron() {
	c := cron.New()

	_, err := c.AddFunc("0 */3 * * *", func() {
		if err := billing.RunSubscriptionSweep(database.GetDB()); err != nil {
			log.Printf("Subscription sweep failed: %v", err)
		}
	})
	if err != nil {
		log.Printf("Could not initialize subscription sweep cron: %v", err)
		return
	}

	_, err = c.AddFunc("0 9 * * *", func() {
		sendTrialEndingWarnings()
	})
	if err != nil {
		log.Printf("Could not initialize trial warning cron: %v", err)
		return
	}

	c.Start()
}

func sendTrialEndingWarnings() {
	log.Println("Checking for trials about to end...")

	warningDays := []int{3, 1}
	now := time.Now()

	for _, days := range warningDays {
		recs, err := billing.TrialsEndingWithin(database.GetDB(), days, now)
		if err != nil {
			log.Printf("Error fetching ending trials: %v", err)
			continue
		}

		log.Printf("Found %d trials ending in %d days", len(recs), days)

		for _, rec := range recs {
			if email.GlobalEmailService == nil {
				continue
			}
			err := email.GlobalEmailService.SendTrialEndingEmail(
				rec.Organizer.Email,
				rec.Organizer.Name,
				days,
			)
			if err != nil {
				log.Printf("Error sending trial warning to %s: %v", rec.Organizer.Email, err)
			} else {
				log.Printf("Sent trial warning to %s (%d days left)", rec.Organizer.Email, days)
			}
		}
	}
}
