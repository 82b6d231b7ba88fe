package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/novelvip/novelsync/internal/queue"
	"github.com/novelvip/novelsync/internal/store"
	"github.com/novelvip/novelsync/internal/store/model"
	"go.uber.org/zap"
)

// NovelSourceService manages the sources attached to a novel and turns
// sync requests into a QUEUED job plus a published import message.
type NovelSourceService struct {
	store     store.Store
	publisher queue.Publisher
	log       *zap.SugaredLogger
}

func NewNovelSourceService(s store.Store, publisher queue.Publisher) *NovelSourceService {
	return &NovelSourceService{
		store:     s,
		publisher: publisher,
		log:       zap.S().Named("novel_source"),
	}
}

type AttachSourceParams struct {
	NovelID             uuid.UUID
	SourceURL           string
	SourcePlatform      string
	SyncIntervalMinutes int
	CreatedBy           uuid.UUID
}

func (s *NovelSourceService) AttachSource(ctx context.Context, params AttachSourceParams) (*model.NovelSource, error) {
	if _, err := s.store.Novel().Get(ctx, params.NovelID); err != nil {
		return nil, err
	}

	source := model.NovelSource{
		NovelID:        params.NovelID,
		SourceURL:      params.SourceURL,
		SourcePlatform: params.SourcePlatform,
		Enabled:        true,
		SyncStatus:     model.SyncStatusIdle,
		CreatedBy:      params.CreatedBy,
	}
	if params.SourcePlatform == "" {
		source.SourcePlatform = "69shuba"
	}
	source.SyncIntervalMinutes = params.SyncIntervalMinutes
	if source.SyncIntervalMinutes <= 0 {
		source.SyncIntervalMinutes = 60
	}
	return s.store.NovelSource().Create(ctx, source)
}

func (s *NovelSourceService) ListByNovel(ctx context.Context, novelID uuid.UUID) (model.NovelSourceList, error) {
	return s.store.NovelSource().ListByNovel(ctx, novelID)
}

func (s *NovelSourceService) SetEnabled(ctx context.Context, id uuid.UUID, enabled bool) (*model.NovelSource, error) {
	source, err := s.store.NovelSource().Get(ctx, id)
	if err != nil {
		return nil, err
	}
	source.Enabled = enabled
	if err := s.store.NovelSource().Update(ctx, source); err != nil {
		return nil, err
	}
	return source, nil
}

func (s *NovelSourceService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.store.NovelSource().Delete(ctx, id)
}

type TriggerSyncParams struct {
	SourceID     uuid.UUID
	FullImport   bool
	StartChapter *int
	EndChapter   *int
	RequestedBy  uuid.UUID
}

// TriggerSync creates the job ledger row and publishes the import
// message. The job is observable immediately; all further progress is
// written by the orchestrator consuming the message.
func (s *NovelSourceService) TriggerSync(ctx context.Context, params TriggerSyncParams) (*model.Job, error) {
	source, err := s.store.NovelSource().Get(ctx, params.SourceID)
	if err != nil {
		return nil, err
	}
	if !source.Enabled {
		return nil, fmt.Errorf("novel source %s is disabled", source.ID)
	}

	userID := params.RequestedBy
	if userID == uuid.Nil {
		userID = source.CreatedBy
	}

	job, err := s.store.Job().Create(ctx, model.Job{
		JobType:       model.JobTypeSourceImport,
		Status:        model.JobStatusQueued,
		StatusMessage: "Queued for sync",
		UserID:        userID,
		NovelID:       &source.NovelID,
	})
	if err != nil {
		return nil, err
	}

	msg := queue.ImportMessage{
		JobID:         job.ID,
		NovelSourceID: source.ID,
		NovelID:       source.NovelID,
		UserID:        userID,
		FullImport:    params.FullImport,
		StartChapter:  params.StartChapter,
		EndChapter:    params.EndChapter,
	}
	if err := s.publisher.Publish(ctx, queue.SourceImport, msg); err != nil {
		return nil, fmt.Errorf("publishing import message: %w", err)
	}

	s.log.Infow("queued sync job", "job", job.ID, "source", source.ID, "full", params.FullImport)
	return job, nil
}

// TriggerDueSyncs enqueues an incremental sync for every enabled source
// whose schedule has come up. Returns the number of jobs queued.
func (s *NovelSourceService) TriggerDueSyncs(ctx context.Context, now time.Time) (int, error) {
	due, err := s.store.NovelSource().DueForSync(ctx, now)
	if err != nil {
		return 0, err
	}

	queued := 0
	for i := range due {
		source := due[i]
		if _, err := s.TriggerSync(ctx, TriggerSyncParams{
			SourceID:    source.ID,
			FullImport:  false,
			RequestedBy: source.CreatedBy,
		}); err != nil {
			s.log.Errorw("failed to trigger sync", "source", source.ID, "error", err)
			continue
		}
		queued++
	}
	return queued, nil
}
