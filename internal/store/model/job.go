package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type JobType string

const (
	JobTypeEpubImport   JobType = "EPUB_IMPORT"
	JobTypeSourceImport JobType = "SOURCE_IMPORT"
)

type JobStatus string

const (
	JobStatusQueued          JobStatus = "QUEUED"
	JobStatusParsing         JobStatus = "PARSING"
	JobStatusChaptersCreated JobStatus = "CHAPTERS_CREATED"
	JobStatusWaitingForAudio JobStatus = "WAITING_FOR_AUDIO"
	JobStatusCompleted       JobStatus = "COMPLETED"
	JobStatusFailed          JobStatus = "FAILED"
)

// jobTransitions is the authoritative transition table for the job state
// machine. A job may move to FAILED from any non-terminal state.
var jobTransitions = map[JobStatus][]JobStatus{
	JobStatusQueued:          {JobStatusParsing, JobStatusFailed},
	JobStatusParsing:         {JobStatusChaptersCreated, JobStatusCompleted, JobStatusFailed},
	JobStatusChaptersCreated: {JobStatusWaitingForAudio, JobStatusCompleted, JobStatusFailed},
	JobStatusWaitingForAudio: {JobStatusCompleted, JobStatusFailed},
	JobStatusCompleted:       {},
	JobStatusFailed:          {},
}

// Terminal reports whether the status accepts no further transitions.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// CanTransition reports whether moving from s to next is a legal step of
// the job state machine.
func (s JobStatus) CanTransition(next JobStatus) bool {
	for _, allowed := range jobTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Job is the durable ledger row for one long-running operation. It is
// created QUEUED, mutated only by the orchestrator consuming its message,
// and becomes immutable once terminal.
type Job struct {
	gorm.Model
	ID                uuid.UUID `gorm:"primaryKey;"`
	JobType           JobType   `gorm:"not null"`
	Status            JobStatus `gorm:"not null;index"`
	StatusMessage     string    `gorm:"size:2048"`
	TotalChapters     int
	ChaptersProcessed int
	AudioCompleted    int
	UserID            uuid.UUID `gorm:"not null"`
	NovelID           *uuid.UUID
	Slug              string
	CompletedAt       *time.Time
}

type JobList []Job

func (j Job) String() string {
	val, _ := json.Marshal(j)
	return string(val)
}
