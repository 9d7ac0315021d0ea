package billing

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"huddle_backend/internal/model"
)

// MonthlyPlacementCredits is the per-billing-cycle featured placement
// allowance of the plan.
const MonthlyPlacementCredits = 3

var ErrInsufficientCredits = errors.New("insufficient placement credits")

type CreditStatus struct {
	HasCredits bool `json:"has_credits"`
	Available  int  `json:"available"`
}

// CheckCredits reports whether the organizer can draw down `needed` credits.
// Credits only exist while the resolved state is active or stripe_trial;
// platform trial and grace period grant access but never credits.
func CheckCredits(db *gorm.DB, organizerID uint, needed int) (CreditStatus, error) {
	rec, err := RecordForOrganizer(db, organizerID)
	if err != nil {
		return CreditStatus{}, err
	}
	return creditStatus(rec, needed, time.Now()), nil
}

func creditStatus(rec *model.BillingSubscription, needed int, now time.Time) CreditStatus {
	info := Resolve(rec, now)
	if info.State != StateActive && info.State != StateStripeTrial {
		return CreditStatus{}
	}

	available := rec.PlacementCreditsAvailable - rec.PlacementCreditsUsed
	if available < 0 {
		available = 0
	}
	return CreditStatus{
		HasCredits: needed > 0 && available >= needed,
		Available:  available,
	}
}

// DeductCredits draws down `amount` credits. The availability check and the
// increment happen in one conditional UPDATE, so two concurrent requests
// can't both spend the last credit; losing the race reports insufficient
// credits, nothing partial.
func DeductCredits(db *gorm.DB, organizerID uint, amount int) error {
	rec, err := RecordForOrganizer(db, organizerID)
	if err != nil {
		return err
	}

	if status := creditStatus(rec, amount, time.Now()); !status.HasCredits {
		return ErrInsufficientCredits
	}

	res := db.Model(&model.BillingSubscription{}).
		Where("id = ? AND placement_credits_used + ? <= placement_credits_available", rec.ID, amount).
		UpdateColumn("placement_credits_used", gorm.Expr("placement_credits_used + ?", amount))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrInsufficientCredits
	}
	return nil
}

// ResetCredits restores the monthly allowance on a billing cycle rollover.
func ResetCredits(db *gorm.DB, rec *model.BillingSubscription, now time.Time) error {
	next := now.AddDate(0, 1, 0)
	rec.PlacementCreditsAvailable = MonthlyPlacementCredits
	rec.PlacementCreditsUsed = 0
	rec.CreditsResetDate = &next
	return db.Model(rec).Updates(map[string]interface{}{
		"placement_credits_available": MonthlyPlacementCredits,
		"placement_credits_used":      0,
		"credits_reset_date":          next,
	}).Error
}
