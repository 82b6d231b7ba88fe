package model

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type NotificationType string

const (
	NotificationTypeSystem        NotificationType = "SYSTEM"
	NotificationTypeChapterUpdate NotificationType = "CHAPTER_UPDATE"
)

type Notification struct {
	gorm.Model
	ID        uuid.UUID        `gorm:"primaryKey;"`
	UserID    uuid.UUID        `gorm:"index;not null"`
	Title     string           `gorm:"not null"`
	Message   string           `gorm:"size:2048"`
	Type      NotificationType `gorm:"not null"`
	Reference string
	Read      bool `gorm:"not null;default:false"`
}

type NotificationList []Notification
