package imports

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"
	"github.com/novelvip/novelsync/internal/config"
	"github.com/novelvip/novelsync/internal/crawler"
	"github.com/novelvip/novelsync/internal/queue"
	"github.com/novelvip/novelsync/internal/service"
	"github.com/novelvip/novelsync/internal/store"
	"github.com/novelvip/novelsync/internal/store/model"
	"github.com/novelvip/novelsync/internal/translate"
	"github.com/novelvip/novelsync/pkg/metrics"
	"go.uber.org/zap"
)

// Orchestrator consumes one import message and drives the whole
// fetch -> translate -> persist loop against the job ledger and the
// source sync state. It holds no state across messages: everything
// resumable lives in the two rows it mutates.
type Orchestrator struct {
	store         store.Store
	crawler       crawler.Crawler
	translator    translate.Translator
	chapters      *service.ChapterService
	novels        *service.NovelService
	search        service.Search
	notifications *service.NotificationService

	batchSize  int
	fetchDelay time.Duration
	log        *zap.SugaredLogger
}

func NewOrchestrator(
	cfg *config.Config,
	s store.Store,
	c crawler.Crawler,
	t translate.Translator,
	chapters *service.ChapterService,
	novels *service.NovelService,
	search service.Search,
	notifications *service.NotificationService,
) *Orchestrator {
	return &Orchestrator{
		store:         s,
		crawler:       c,
		translator:    t,
		chapters:      chapters,
		novels:        novels,
		search:        search,
		notifications: notifications,
		batchSize:     cfg.Crawler.BatchSize,
		fetchDelay:    cfg.Crawler.FetchDelay,
		log:           zap.S().Named("import"),
	}
}

// Process is the queue handler for the novel-source import queue. It
// never returns an error: every failure is folded into the job ledger and
// the source sync state, so broker redelivery is not the retry mechanism.
func (o *Orchestrator) Process(ctx context.Context, body []byte) error {
	var msg queue.ImportMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		o.log.Errorw("dropping malformed import message", "error", err)
		return nil
	}

	job, err := o.store.Job().Get(ctx, msg.JobID)
	if err != nil {
		o.log.Warnw("received import message for unknown job", "job", msg.JobID, "error", err)
		return nil
	}
	if job.Status.Terminal() {
		o.log.Warnw("ignoring replayed message for finished job", "job", job.ID, "status", job.Status)
		return nil
	}

	// Claim the source before mutating anything. Of two workers racing on
	// the same source exactly one gets past this point.
	source, err := o.store.NovelSource().ClaimForSync(ctx, msg.NovelSourceID)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrClaimRejected):
			o.log.Warnw("sync already in progress, dropping message", "source", msg.NovelSourceID, "job", job.ID)
			o.failJob(ctx, job, "Another sync for this source is already running")
		case errors.Is(err, store.ErrRecordNotFound):
			// the source row is gone; nothing to mutate, drop the message
			o.log.Warnw("received import message for unknown source", "source", msg.NovelSourceID, "job", job.ID)
		default:
			o.failJob(ctx, job, fmt.Sprintf("Import failed: %v", err))
		}
		return nil
	}

	o.log.Infow("processing import job", "job", job.ID, "source", source.ID)

	if runErr := o.run(ctx, &msg, job, source); runErr != nil {
		o.log.Errorw("import job failed", "job", job.ID, "error", runErr)
		o.finalizeFailure(ctx, job, source, fmt.Sprintf("Import failed: %v", runErr), runErr.Error(), true)
		metrics.SyncAttempts.WithLabelValues("failed").Inc()
	}
	return nil
}

func (o *Orchestrator) run(ctx context.Context, msg *queue.ImportMessage, job *model.Job, source *model.NovelSource) error {
	job, err := o.store.Job().UpdateStatus(ctx, job.ID, model.JobStatusParsing, "Fetching chapter list from "+source.SourcePlatform)
	if err != nil {
		return err
	}

	allChapters, err := o.crawler.FetchChapterList(ctx, source.SourceURL)
	if err != nil {
		return fmt.Errorf("fetching chapter list: %w", err)
	}
	if len(allChapters) == 0 {
		o.finalizeFailure(ctx, job, source, "No chapters found at source URL", "No chapters found", false)
		metrics.SyncAttempts.WithLabelValues("failed").Inc()
		return nil
	}

	window := ComputeWindow(len(allChapters), source.LastSyncedChapter, msg.FullImport, msg.StartChapter, msg.EndChapter)
	if window.Empty() {
		o.log.Infow("no new chapters to import", "source", source.ID)
		o.completeJob(ctx, job, source, "No new chapters to import")
		metrics.SyncAttempts.WithLabelValues("success").Inc()
		return nil
	}

	job.TotalChapters = window.Size()
	job.ChaptersProcessed = 0
	job.StatusMessage = fmt.Sprintf("Importing %d new chapters", window.Size())
	if err := o.store.Job().Update(ctx, job); err != nil {
		return err
	}

	// Captured once at the start of the run; the claim above guarantees no
	// concurrent import is assigning numbers against the same novel.
	highestChapterNumber, err := o.store.Chapter().HighestNumber(ctx, msg.NovelID)
	if err != nil {
		return fmt.Errorf("querying highest chapter number: %w", err)
	}

	result := o.processWindow(ctx, msg, job, source, allChapters, window, highestChapterNumber)

	if err := o.novels.RecountChapters(ctx, msg.NovelID); err != nil {
		return fmt.Errorf("recounting chapters: %w", err)
	}

	// best-effort: a failed index never fails the import
	if novel, err := o.store.Novel().Get(ctx, msg.NovelID); err == nil {
		if err := o.search.IndexNovel(ctx, novel); err != nil {
			o.log.Warnw("failed to index novel after import", "novel", msg.NovelID, "error", err)
		}
		o.completeJob(ctx, job, source, fmt.Sprintf("Successfully imported %d chapters", result.Processed()))
		o.notifySuccess(ctx, msg.UserID, novel.Title, result.Processed())
	} else {
		o.completeJob(ctx, job, source, fmt.Sprintf("Successfully imported %d chapters", result.Processed()))
	}

	metrics.SyncAttempts.WithLabelValues("success").Inc()
	o.log.Infow("import job completed", "job", job.ID, "processed", result.Processed(), "failed", result.Failed())
	return nil
}

// processWindow walks the window in order, in fixed-size batches. A
// failing item is recorded and skipped; the loop never aborts for one
// chapter. The cursor and the processed counter advance only on the
// successful path, but every item pays the politeness delay so a streak
// of failures does not hammer the source site.
func (o *Orchestrator) processWindow(
	ctx context.Context,
	msg *queue.ImportMessage,
	job *model.Job,
	source *model.NovelSource,
	allChapters []crawler.ChapterInfo,
	window Window,
	highestChapterNumber int,
) *RunResult {
	result := &RunResult{}

	for batchStart := window.Start; batchStart < window.End; batchStart += o.batchSize {
		batchEnd := min(batchStart+o.batchSize, window.End)
		o.log.Infof("processing batch %d-%d of %d", batchStart-window.Start+1, batchEnd-window.Start, window.Size())

		for i := batchStart; i < batchEnd; i++ {
			info := allChapters[i]
			targetNumber := highestChapterNumber + (i - window.Start + 1)

			if err := o.importChapter(ctx, msg, job, info, targetNumber); err != nil {
				o.log.Errorw("failed to process chapter", "chapter", info.ChapterNumber, "error", err)
				metrics.ChapterFailures.Inc()
				result.Add(ChapterResult{Chapter: info, TargetNumber: targetNumber, Err: err})
			} else {
				result.Add(ChapterResult{Chapter: info, TargetNumber: targetNumber})
				metrics.ChaptersImported.Inc()

				job.ChaptersProcessed = result.Processed()
				job.StatusMessage = fmt.Sprintf("Imported %d/%d chapters", result.Processed(), window.Size())
				if err := o.store.Job().Update(ctx, job); err != nil {
					o.log.Errorw("failed to persist job progress", "job", job.ID, "error", err)
				}

				if cursor, ok := result.Cursor(); ok {
					source.LastSyncedChapter = cursor
					if err := o.store.NovelSource().Update(ctx, source); err != nil {
						o.log.Errorw("failed to persist sync cursor", "source", source.ID, "error", err)
					}
				}
			}

			o.politenessSleep(ctx)
		}
	}

	return result
}

func (o *Orchestrator) importChapter(ctx context.Context, msg *queue.ImportMessage, job *model.Job, info crawler.ChapterInfo, targetNumber int) error {
	raw, err := o.crawler.FetchChapter(ctx, info)
	if err != nil {
		return fmt.Errorf("fetching chapter %d: %w", info.ChapterNumber, err)
	}

	job.StatusMessage = fmt.Sprintf("Translating chapter %d: %s", raw.ChapterNumber, raw.Title)
	if err := o.store.Job().Update(ctx, job); err != nil {
		o.log.Warnw("failed to persist job progress", "job", job.ID, "error", err)
	}

	translatedContent, err := o.translator.TranslateHtmlToVietnamese(ctx, raw.ContentHtml)
	if err != nil {
		return fmt.Errorf("translating chapter %d: %w", info.ChapterNumber, err)
	}

	translatedTitle, err := o.translator.TranslateText(ctx, raw.Title)
	if err != nil || translatedTitle == "" {
		// the html prompt asks for the title in the first paragraph
		translatedTitle = titleFromFirstParagraph(translatedContent)
	}
	if translatedTitle == "" {
		translatedTitle = raw.Title
	}

	_, err = o.chapters.CreateChapter(ctx, service.CreateChapterParams{
		NovelID:       msg.NovelID,
		ChapterNumber: targetNumber,
		Title:         translatedTitle,
		ContentHtml:   translatedContent,
	})
	if err != nil {
		return fmt.Errorf("persisting chapter %d: %w", targetNumber, err)
	}
	return nil
}

func (o *Orchestrator) politenessSleep(ctx context.Context) {
	if o.fetchDelay <= 0 {
		return
	}
	select {
	case <-ctx.Done():
	case <-time.After(o.fetchDelay):
	}
}

// withTransaction runs fn against a transaction context so the job ledger
// and the source sync state commit or roll back as a unit.
func (o *Orchestrator) withTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	txCtx, err := o.store.NewTransactionContext(ctx)
	if err != nil {
		return err
	}
	if err := fn(txCtx); err != nil {
		if _, rbErr := store.Rollback(txCtx); rbErr != nil {
			o.log.Errorw("failed to rollback transaction", "error", rbErr)
		}
		return err
	}
	_, err = store.Commit(txCtx)
	return err
}

// completeJob finalizes the ledger row and the source schedule together;
// a crash between the two writes must not leave them disagreeing.
func (o *Orchestrator) completeJob(ctx context.Context, job *model.Job, source *model.NovelSource, message string) {
	now := time.Now()
	next := now.Add(time.Duration(source.SyncIntervalMinutes) * time.Minute)
	source.SyncStatus = model.SyncStatusSuccess
	source.LastSyncTime = &now
	source.NextSyncTime = &next
	source.ConsecutiveFailures = 0
	source.ErrorMessage = ""

	err := o.withTransaction(ctx, func(txCtx context.Context) error {
		if _, err := o.store.Job().UpdateStatus(txCtx, job.ID, model.JobStatusCompleted, message); err != nil {
			return err
		}
		return o.store.NovelSource().Update(txCtx, source)
	})
	if err != nil {
		o.log.Errorw("failed to finalize job", "job", job.ID, "error", err)
	}
}

func (o *Orchestrator) failJob(ctx context.Context, job *model.Job, message string) {
	if _, err := o.store.Job().UpdateStatus(ctx, job.ID, model.JobStatusFailed, message); err != nil {
		o.log.Errorw("failed to mark job failed", "job", job.ID, "error", err)
	}
}

// finalizeFailure drives the job and the source to FAILED in one
// transaction and reschedules the next attempt; a source that is never
// rescheduled would silently stop syncing. countFailure separates real
// faults, which feed the failure streak, from content conditions like an
// empty chapter list, which do not.
func (o *Orchestrator) finalizeFailure(ctx context.Context, job *model.Job, source *model.NovelSource, jobMessage, sourceMessage string, countFailure bool) {
	now := time.Now()
	next := now.Add(time.Duration(source.SyncIntervalMinutes) * time.Minute)
	source.SyncStatus = model.SyncStatusFailed
	source.ErrorMessage = sourceMessage
	source.NextSyncTime = &next
	if countFailure {
		source.ConsecutiveFailures++
	}

	err := o.withTransaction(ctx, func(txCtx context.Context) error {
		if _, err := o.store.Job().UpdateStatus(txCtx, job.ID, model.JobStatusFailed, jobMessage); err != nil {
			return err
		}
		return o.store.NovelSource().Update(txCtx, source)
	})
	if err != nil {
		o.log.Errorw("failed to finalize failed job", "job", job.ID, "error", err)
	}
}

// notifySuccess is best-effort: a notification failure never changes the
// outcome of the job.
func (o *Orchestrator) notifySuccess(ctx context.Context, userID uuid.UUID, novelTitle string, processed int) {
	err := o.notifications.Notify(ctx, userID,
		"Import complete",
		fmt.Sprintf("Successfully imported %d chapters for novel: %s", processed, novelTitle),
		model.NotificationTypeSystem, "")
	if err != nil {
		o.log.Warnw("failed to send notification", "user", userID, "error", err)
	}
}

// titleFromFirstParagraph pulls the text of the first <p> element out of
// translated html.
func titleFromFirstParagraph(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(doc.Find("p").First().Text())
}
