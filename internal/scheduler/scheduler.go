// Package scheduler periodically scans for novel sources whose next
// sync time has come up and queues an incremental sync job for each.
package scheduler

import (
	"context"
	"time"

	"github.com/novelvip/novelsync/internal/service"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

type AutoSync struct {
	sources  *service.NovelSourceService
	interval time.Duration
	cron     *cron.Cron
	log      *zap.SugaredLogger
}

func NewAutoSync(sources *service.NovelSourceService, interval time.Duration) *AutoSync {
	return &AutoSync{
		sources:  sources,
		interval: interval,
		log:      zap.S().Named("autosync"),
	}
}

// Start registers the periodic scan and begins running it. The first
// scan fires one interval after start.
func (s *AutoSync) Start(ctx context.Context) error {
	s.cron = cron.New()
	_, err := s.cron.AddFunc("@every "+s.interval.String(), func() {
		s.runOnce(ctx)
	})
	if err != nil {
		return err
	}
	s.cron.Start()
	s.log.Infow("auto sync scheduler started", "interval", s.interval)
	return nil
}

func (s *AutoSync) Stop() {
	if s.cron == nil {
		return
	}
	<-s.cron.Stop().Done()
	s.log.Info("auto sync scheduler stopped")
}

func (s *AutoSync) runOnce(ctx context.Context) {
	queued, err := s.sources.TriggerDueSyncs(ctx, time.Now())
	if err != nil {
		s.log.Errorw("auto sync scan failed", "error", err)
		return
	}
	if queued > 0 {
		s.log.Infow("auto sync scan queued jobs", "count", queued)
	}
}
