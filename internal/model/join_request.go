package model

import (
	"time"

	"gorm.io/gorm"
)

type JoinRequest struct {
	gorm.Model
	CommunityID uint       `json:"community_id" gorm:"index"`
	Name        string     `json:"name"`
	Email       string     `json:"email"`
	Message     string     `json:"message" gorm:"type:text"`
	Status      string     `json:"status" gorm:"default:'new'"` // new, approved, declined
	ReadStatus  bool       `json:"read_status" gorm:"default:false"`
	RespondedAt *time.Time `json:"responded_at"`

	Community Community `json:"community" gorm:"foreignKey:CommunityID"`
}
