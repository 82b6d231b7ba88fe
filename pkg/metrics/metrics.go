package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "novelsync"

var (
	SyncAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sync_attempts_total",
		Help:      "Sync attempts by terminal outcome.",
	}, []string{"outcome"})

	ChaptersImported = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "chapters_imported_total",
		Help:      "Chapters successfully imported across all sources.",
	})

	ChapterFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "chapter_failures_total",
		Help:      "Per-chapter failures tolerated during imports.",
	})

	MessagesPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "queue_messages_published_total",
		Help:      "Messages published by queue name.",
	}, []string{"queue"})
)
