package model

import (
	"time"

	"gorm.io/gorm"
)

type Event struct {
	gorm.Model
	CommunityID uint      `json:"community_id" gorm:"index;not null"`
	Title       string    `json:"title" gorm:"not null"`
	Slug        string    `json:"slug" gorm:"index;not null"`
	Description string    `json:"description" gorm:"type:text"`
	Location    string    `json:"location"`
	StartsAt    time.Time `json:"starts_at"`
	EndsAt      time.Time `json:"ends_at"`
	Capacity    int       `json:"capacity" gorm:"default:0"`

	// Featured placement, paid for with a placement credit
	Featured   bool       `json:"featured" gorm:"default:false"`
	FeaturedAt *time.Time `json:"featured_at"`

	Community Community `json:"-" gorm:"foreignKey:CommunityID"`
}
