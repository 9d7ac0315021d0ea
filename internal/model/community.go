package model

import (
	"gorm.io/gorm"
)

// CommunityStatus controls public visibility. It is only ever changed by the
// billing side effects (confirm, webhook, sweep), never by the update endpoint.
type CommunityStatus string

const (
	CommunityStatusActive CommunityStatus = "active"
	CommunityStatusDraft  CommunityStatus = "draft"
)

type Community struct {
	gorm.Model
	OrganizerID uint            `json:"organizer_id" gorm:"index;not null"`
	Name        string          `json:"name" gorm:"not null"`
	Slug        string          `json:"slug" gorm:"uniqueIndex;not null"`
	Description string          `json:"description" gorm:"type:text"`
	Topic       string          `json:"topic"`
	City        string          `json:"city"`
	CoverURL    string          `json:"cover_url"`
	MemberCount int             `json:"member_count" gorm:"default:0"`
	Status      CommunityStatus `json:"status" gorm:"size:16;default:'draft'"`

	Organizer Organizer `json:"-" gorm:"foreignKey:OrganizerID"`
	Events    []Event   `json:"-"`
}
