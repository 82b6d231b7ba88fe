package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SyncStatus string

const (
	SyncStatusIdle    SyncStatus = "IDLE"
	SyncStatusSyncing SyncStatus = "SYNCING"
	SyncStatusSuccess SyncStatus = "SUCCESS"
	SyncStatusFailed  SyncStatus = "FAILED"
)

// NovelSource holds the per-(novel, source) sync cursor, schedule and
// health counters. LastSyncedChapter counts source chapters already
// synced, so it doubles as the 0-based index of the next list entry to
// pull. The Version column backs the compare-and-set claim that grants a
// worker exclusive rights to run one sync attempt.
type NovelSource struct {
	gorm.Model
	ID                  uuid.UUID `gorm:"primaryKey;"`
	NovelID             uuid.UUID `gorm:"uniqueIndex:novel_sources_novel_id_source_url;index;not null"`
	SourceURL           string    `gorm:"uniqueIndex:novel_sources_novel_id_source_url;size:2048;not null"`
	SourcePlatform      string    `gorm:"size:100;not null;default:69shuba"`
	Enabled             bool      `gorm:"not null;default:true;index"`
	LastSyncedChapter   int
	LastSyncTime        *time.Time
	SyncStatus          SyncStatus `gorm:"not null;default:IDLE"`
	SyncStartedAt       *time.Time
	NextSyncTime        *time.Time `gorm:"index"`
	SyncIntervalMinutes int        `gorm:"not null;default:60"`
	ErrorMessage        string     `gorm:"size:2048"`
	ConsecutiveFailures int
	Version             int `gorm:"not null;default:0"`
	CreatedBy           uuid.UUID
}

type NovelSourceList []NovelSource

func (s NovelSource) String() string {
	val, _ := json.Marshal(s)
	return string(val)
}
