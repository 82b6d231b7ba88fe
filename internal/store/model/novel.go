package model

import (
	"encoding/json"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Novel struct {
	gorm.Model
	ID            uuid.UUID `gorm:"primaryKey;"`
	Title         string    `gorm:"not null"`
	Slug          string    `gorm:"uniqueIndex;not null"`
	Author        string
	Description   string    `gorm:"size:4096"`
	TotalChapters int
	CreatedBy     uuid.UUID
}

type NovelList []Novel

func (n Novel) String() string {
	val, _ := json.Marshal(n)
	return string(val)
}
