package seed

import (
	"log"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"huddle_backend/internal/model"
)

// SeedDemoOrganizer creates a demo organizer with a draft community for
// local development.
func SeedDemoOrganizer(db *gorm.DB) {
	hashed, err := bcrypt.GenerateFromPassword([]byte("demo1234"), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("Could not hash demo password: %v", err)
		return
	}

	organizer := model.Organizer{
		Email:    "demo@huddle.events",
		Password: string(hashed),
		Username: "demo-organizer",
		Name:     "Demo Organizer",
	}

	result := db.FirstOrCreate(&organizer, model.Organizer{Email: organizer.Email})
	if result.Error != nil {
		log.Printf("Error creating demo organizer: %v", result.Error)
		return
	}

	community := model.Community{
		OrganizerID: organizer.ID,
		Name:        "Demo Makers Club",
		Slug:        "demo-makers-club",
		Description: "A demo community seeded for development.",
		Topic:       "Technology",
		City:        "Berlin",
		Status:      model.CommunityStatusDraft,
	}

	if err := db.FirstOrCreate(&community, model.Community{Slug: community.Slug}).Error; err != nil {
		log.Printf("Error creating demo community: %v", err)
		return
	}

	log.Println("Demo organizer seeded successfully!")
}
