package model

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Chapter rows carry a unique (novel_id, chapter_number) constraint so
// that a replayed import message cannot create duplicates.
type Chapter struct {
	gorm.Model
	ID            uuid.UUID `gorm:"primaryKey;"`
	NovelID       uuid.UUID `gorm:"uniqueIndex:chapters_novel_id_number;index;not null"`
	ChapterNumber int       `gorm:"uniqueIndex:chapters_novel_id_number;not null"`
	Title         string    `gorm:"not null"`
	ContentHtml   string
	AudioURL      *string
	HasAudio      bool `gorm:"not null;default:false"`
}

type ChapterList []Chapter
