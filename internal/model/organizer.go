package model

import (
	"strings"

	"gorm.io/gorm"
)

type Organizer struct {
	gorm.Model
	Email    string `gorm:"uniqueIndex;not null"`
	Password string `gorm:"not null"`
	Username string `gorm:"uniqueIndex;not null"`
	Name     string `json:"name" gorm:"not null"`

	// Optional profile fields, editable from settings
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Bio         string `json:"bio" gorm:"type:text"`
	PhoneNumber string `json:"phone_number"`
	Website     string `json:"website"`
	Avatar      string `json:"avatar"`

	IsVerified bool `json:"is_verified" gorm:"default:false"`

	Communities []Community `json:"-"`
}

func (o *Organizer) GetFullName() string {
	return strings.TrimSpace(o.FirstName + " " + o.LastName)
}

func (o *Organizer) GetPublicProfile() map[string]interface{} {
	return map[string]interface{}{
		"id":          o.ID,
		"username":    o.Username,
		"name":        o.Name,
		"full_name":   o.GetFullName(),
		"bio":         o.Bio,
		"website":     o.Website,
		"avatar":      o.Avatar,
		"is_verified": o.IsVerified,
	}
}
