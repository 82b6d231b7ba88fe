package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/novelvip/novelsync/internal/audio"
	"github.com/novelvip/novelsync/internal/config"
	"github.com/novelvip/novelsync/internal/crawler"
	"github.com/novelvip/novelsync/internal/imports"
	"github.com/novelvip/novelsync/internal/queue"
	"github.com/novelvip/novelsync/internal/scheduler"
	"github.com/novelvip/novelsync/internal/service"
	"github.com/novelvip/novelsync/internal/store"
	"github.com/novelvip/novelsync/internal/translate"
	"github.com/novelvip/novelsync/pkg/log"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.New()
	if err != nil {
		zap.S().Fatalw("reading configuration", "error", err)
	}

	logger := log.InitLog(log.Level(cfg.Service.LogLevel))
	defer func() { _ = logger.Sync() }()
	undo := zap.ReplaceGlobals(logger)
	defer undo()

	zap.S().Info("starting worker")
	defer zap.S().Info("worker stopped")

	db, err := store.InitDB(cfg)
	if err != nil {
		zap.S().Fatalw("initializing data store", "error", err)
	}

	st := store.NewStore(db)
	defer st.Close()

	if err := st.InitialMigration(); err != nil {
		zap.S().Fatalw("running initial migration", "error", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGHUP, syscall.SIGTERM, syscall.SIGQUIT)
	defer cancel()

	broker, err := queue.New(ctx, cfg)
	if err != nil {
		zap.S().Fatalw("connecting message broker", "error", err)
	}
	defer broker.Close()

	translator, err := translate.New(cfg)
	if err != nil {
		zap.S().Fatalw("configuring translator", "error", err)
	}

	generator, err := audio.NewTTSGenerator(cfg)
	if err != nil {
		zap.S().Fatalw("configuring audio generator", "error", err)
	}

	notifications := service.NewNotificationService(st)
	chapters := service.NewChapterService(st, generator)
	novels := service.NewNovelService(st)
	search := service.NewSearchService(cfg)
	jobs := service.NewJobService(st, notifications)
	email := service.NewEmailService(cfg)
	sources := service.NewNovelSourceService(st, broker)

	autoSync := scheduler.NewAutoSync(sources, cfg.Crawler.SyncInterval)
	if err := autoSync.Start(ctx); err != nil {
		zap.S().Fatalw("starting auto sync scheduler", "error", err)
	}
	defer autoSync.Stop()

	importer := imports.NewOrchestrator(cfg, st, crawler.NewShubaCrawler(cfg), translator,
		chapters, novels, search, notifications)
	audioWorker := imports.NewAudioOrchestrator(st, chapters, jobs, notifications)
	emailWorker := imports.NewEmailWorker(st, email)

	broker.OnMessage(queue.SourceImport, importer.Process)
	broker.OnMessage(queue.ChapterAudio, audioWorker.Process)
	broker.OnMessage(queue.EmailVerification, emailWorker.Process)

	if err := broker.Run(ctx); err != nil {
		zap.S().Fatalw("running message consumers", "error", err)
	}
}
