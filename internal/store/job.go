package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/novelvip/novelsync/internal/store/model"
	"gorm.io/gorm"
)

// Job is the interface over the job ledger. Status changes go through
// UpdateStatus so that every transition is checked against the state
// machine; a terminal status freezes the row.
type Job interface {
	InitialMigration() error
	Create(ctx context.Context, job model.Job) (*model.Job, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Job, error)
	Update(ctx context.Context, job *model.Job) error
	UpdateStatus(ctx context.Context, id uuid.UUID, next model.JobStatus, message string) (*model.Job, error)
	IncrementAudioCompleted(ctx context.Context, id uuid.UUID) (*model.Job, error)
}

type JobStore struct {
	db *gorm.DB
}

// Make sure we conform to Job interface
var _ Job = (*JobStore)(nil)

func NewJobStore(db *gorm.DB) Job {
	return &JobStore{db: db}
}

func (s *JobStore) InitialMigration() error {
	return s.db.AutoMigrate(&model.Job{})
}

func (s *JobStore) Create(ctx context.Context, job model.Job) (*model.Job, error) {
	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}
	if job.Status == "" {
		job.Status = model.JobStatusQueued
	}
	result := s.getDB(ctx).Create(&job)
	if result.Error != nil {
		return nil, fmt.Errorf("creating job: %w", result.Error)
	}
	return &job, nil
}

func (s *JobStore) Get(ctx context.Context, id uuid.UUID) (*model.Job, error) {
	var job model.Job
	result := s.getDB(ctx).First(&job, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("querying job: %w", result.Error)
	}
	return &job, nil
}

func (s *JobStore) Update(ctx context.Context, job *model.Job) error {
	result := s.getDB(ctx).Save(job)
	if result.Error != nil {
		return fmt.Errorf("updating job: %w", result.Error)
	}
	return nil
}

// UpdateStatus performs one step of the job state machine. It refuses
// steps the transition table does not allow and stamps CompletedAt when
// the job enters a terminal state.
func (s *JobStore) UpdateStatus(ctx context.Context, id uuid.UUID, next model.JobStatus, message string) (*model.Job, error) {
	job, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if !job.Status.CanTransition(next) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, job.Status, next)
	}

	job.Status = next
	job.StatusMessage = message
	if next.Terminal() {
		now := time.Now()
		job.CompletedAt = &now
	}

	if err := s.Update(ctx, job); err != nil {
		return nil, err
	}
	return job, nil
}

// IncrementAudioCompleted bumps the audio counter atomically and returns
// the refreshed row so the caller can decide whether the job is done.
func (s *JobStore) IncrementAudioCompleted(ctx context.Context, id uuid.UUID) (*model.Job, error) {
	result := s.getDB(ctx).Model(&model.Job{}).
		Where("id = ?", id).
		Update("audio_completed", gorm.Expr("audio_completed + 1"))
	if result.Error != nil {
		return nil, fmt.Errorf("incrementing audio counter: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrRecordNotFound
	}
	return s.Get(ctx, id)
}

func (s *JobStore) getDB(ctx context.Context) *gorm.DB {
	tx := FromContext(ctx)
	if tx != nil {
		return tx
	}
	return s.db
}
