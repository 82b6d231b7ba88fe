package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	apiserver "github.com/novelvip/novelsync/internal/api_server"
	"github.com/novelvip/novelsync/internal/config"
	"github.com/novelvip/novelsync/internal/queue"
	"github.com/novelvip/novelsync/internal/service"
	"github.com/novelvip/novelsync/internal/store"
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

	zap.S().Info("starting api service")
	defer zap.S().Info("api service stopped")

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

	notifications := service.NewNotificationService(st)
	jobs := service.NewJobService(st, notifications)
	sources := service.NewNovelSourceService(st, broker)

	server := apiserver.New(cfg, sources, jobs)
	if err := server.Run(ctx); err != nil {
		zap.S().Fatalw("running api server", "error", err)
	}
}
