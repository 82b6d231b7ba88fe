package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	gorm.Model
	ID                         uuid.UUID `gorm:"primaryKey;"`
	Email                      string    `gorm:"uniqueIndex;not null"`
	DisplayName                string
	EmailVerified              bool `gorm:"not null;default:false"`
	EmailVerificationToken     string
	EmailVerificationExpiresAt *time.Time
	EmailVerificationSentAt    *time.Time
}

type UserList []User
