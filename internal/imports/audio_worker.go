package imports

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/novelvip/novelsync/internal/queue"
	"github.com/novelvip/novelsync/internal/service"
	"github.com/novelvip/novelsync/internal/store"
	"github.com/novelvip/novelsync/internal/store/model"
	"go.uber.org/zap"
)

// AudioOrchestrator consumes chapter-audio messages. It follows the same
// shape as the import orchestrator: mutate the job ledger, notify
// best-effort, and never let a notification failure affect the job
// outcome.
type AudioOrchestrator struct {
	store         store.Store
	chapters      *service.ChapterService
	jobs          *service.JobService
	notifications *service.NotificationService
	log           *zap.SugaredLogger
}

func NewAudioOrchestrator(s store.Store, chapters *service.ChapterService, jobs *service.JobService, notifications *service.NotificationService) *AudioOrchestrator {
	return &AudioOrchestrator{
		store:         s,
		chapters:      chapters,
		jobs:          jobs,
		notifications: notifications,
		log:           zap.S().Named("audio"),
	}
}

// Process is the queue handler for the chapter-audio queue.
func (o *AudioOrchestrator) Process(ctx context.Context, body []byte) error {
	var msg queue.ChapterAudioMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		o.log.Errorw("dropping malformed audio message", "error", err)
		return nil
	}
	if msg.ChapterID == uuid.Nil {
		o.log.Warn("chapter id missing in audio message, skipping")
		return nil
	}

	chapter, err := o.chapters.EnsureAudioGenerated(ctx, msg.ChapterID)
	if err != nil {
		o.log.Errorw("failed to generate audio", "chapter", msg.ChapterID, "error", err)
		o.jobs.MarkJobFailed(ctx, msg.JobID,
			fmt.Sprintf("Audio generation failed for chapter %s: %v", msg.ChapterID, err))
		o.notifyFailure(ctx, &msg, err.Error())
		return nil
	}

	if err := o.jobs.MarkChapterAudioComplete(ctx, msg.JobID); err != nil {
		o.log.Errorw("failed to record audio progress", "job", msg.JobID, "error", err)
	}
	o.notifySuccess(ctx, &msg, chapter)
	return nil
}

func (o *AudioOrchestrator) notifySuccess(ctx context.Context, msg *queue.ChapterAudioMessage, chapter *model.Chapter) {
	if msg.UserID == uuid.Nil {
		return
	}

	reference := ""
	title := fmt.Sprintf("Audio for chapter %d is ready.", chapter.ChapterNumber)
	if novel, err := o.store.Novel().Get(ctx, chapter.NovelID); err == nil {
		title = fmt.Sprintf("Audio for %s - Chapter %d is ready.", novel.Title, chapter.ChapterNumber)
		reference = fmt.Sprintf("%s/chapters/%d", novel.Slug, chapter.ChapterNumber)
	}

	err := o.notifications.Notify(ctx, msg.UserID, "Chapter audio ready", title,
		model.NotificationTypeChapterUpdate, reference)
	if err != nil {
		o.log.Errorw("failed to send audio ready notification", "chapter", chapter.ID, "error", err)
	}
}

func (o *AudioOrchestrator) notifyFailure(ctx context.Context, msg *queue.ChapterAudioMessage, reason string) {
	if msg.UserID == uuid.Nil {
		return
	}
	if reason == "" {
		reason = "Unable to generate chapter audio."
	}
	err := o.notifications.Notify(ctx, msg.UserID, "Chapter audio failed", reason,
		model.NotificationTypeSystem, "")
	if err != nil {
		o.log.Errorw("failed to send audio failure notification", "chapter", msg.ChapterID, "error", err)
	}
}
