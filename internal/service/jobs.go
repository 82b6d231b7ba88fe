package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/novelvip/novelsync/internal/store"
	"github.com/novelvip/novelsync/internal/store/model"
	"go.uber.org/zap"
)

// JobService exposes ledger reads for clients polling progress and the
// audio sub-step accounting shared by the epub and audio pipelines.
type JobService struct {
	store         store.Store
	notifications *NotificationService
	log           *zap.SugaredLogger
}

func NewJobService(s store.Store, notifications *NotificationService) *JobService {
	return &JobService{
		store:         s,
		notifications: notifications,
		log:           zap.S().Named("jobs"),
	}
}

func (s *JobService) Get(ctx context.Context, id uuid.UUID) (*model.Job, error) {
	return s.store.Job().Get(ctx, id)
}

// MarkChapterAudioComplete records one finished audio sub-step. When the
// last chapter's audio lands the job moves to COMPLETED.
func (s *JobService) MarkChapterAudioComplete(ctx context.Context, jobID uuid.UUID) error {
	if jobID == uuid.Nil {
		return nil
	}

	job, err := s.store.Job().IncrementAudioCompleted(ctx, jobID)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil
		}
		return err
	}

	if job.AudioCompleted >= job.TotalChapters && job.Status == model.JobStatusWaitingForAudio {
		if _, err := s.store.Job().UpdateStatus(ctx, jobID, model.JobStatusCompleted,
			"Import and audio generation completed"); err != nil {
			return err
		}
		return nil
	}

	job.StatusMessage = audioProgressMessage(job.AudioCompleted, job.TotalChapters)
	return s.store.Job().Update(ctx, job)
}

// MarkJobFailed drives the job to FAILED and notifies the owner. A job
// already terminal is left untouched.
func (s *JobService) MarkJobFailed(ctx context.Context, jobID uuid.UUID, reason string) {
	if jobID == uuid.Nil {
		return
	}

	job, err := s.store.Job().Get(ctx, jobID)
	if err != nil {
		s.log.Warnw("cannot fail unknown job", "job", jobID, "error", err)
		return
	}
	if job.Status.Terminal() {
		return
	}

	if _, err := s.store.Job().UpdateStatus(ctx, jobID, model.JobStatusFailed, reason); err != nil {
		s.log.Errorw("failed to mark job failed", "job", jobID, "error", err)
		return
	}

	if err := s.notifications.Notify(ctx, job.UserID, "Import failed", reason,
		model.NotificationTypeSystem, job.Slug); err != nil {
		s.log.Warnw("failed to send failure notification", "job", jobID, "error", err)
	}
}

func audioProgressMessage(done, total int) string {
	return fmt.Sprintf("Audio generated for %d/%d chapters", done, total)
}
