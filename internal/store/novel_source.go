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

type NovelSource interface {
	InitialMigration() error
	Create(ctx context.Context, source model.NovelSource) (*model.NovelSource, error)
	Get(ctx context.Context, id uuid.UUID) (*model.NovelSource, error)
	ListByNovel(ctx context.Context, novelID uuid.UUID) (model.NovelSourceList, error)
	Update(ctx context.Context, source *model.NovelSource) error
	Delete(ctx context.Context, id uuid.UUID) error
	DueForSync(ctx context.Context, now time.Time) (model.NovelSourceList, error)
	ClaimForSync(ctx context.Context, id uuid.UUID) (*model.NovelSource, error)
}

type NovelSourceStore struct {
	db *gorm.DB
}

// Make sure we conform to NovelSource interface
var _ NovelSource = (*NovelSourceStore)(nil)

func NewNovelSourceStore(db *gorm.DB) NovelSource {
	return &NovelSourceStore{db: db}
}

func (s *NovelSourceStore) InitialMigration() error {
	return s.db.AutoMigrate(&model.NovelSource{})
}

func (s *NovelSourceStore) Create(ctx context.Context, source model.NovelSource) (*model.NovelSource, error) {
	if source.ID == uuid.Nil {
		source.ID = uuid.New()
	}
	if source.SyncStatus == "" {
		source.SyncStatus = model.SyncStatusIdle
	}
	result := s.getDB(ctx).Create(&source)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateKey
		}
		return nil, fmt.Errorf("creating novel source: %w", result.Error)
	}
	return &source, nil
}

func (s *NovelSourceStore) Get(ctx context.Context, id uuid.UUID) (*model.NovelSource, error) {
	var source model.NovelSource
	result := s.getDB(ctx).First(&source, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("querying novel source: %w", result.Error)
	}
	return &source, nil
}

func (s *NovelSourceStore) ListByNovel(ctx context.Context, novelID uuid.UUID) (model.NovelSourceList, error) {
	var sources model.NovelSourceList
	result := s.getDB(ctx).Where("novel_id = ?", novelID).Order("created_at").Find(&sources)
	if result.Error != nil {
		return nil, result.Error
	}
	return sources, nil
}

func (s *NovelSourceStore) Update(ctx context.Context, source *model.NovelSource) error {
	result := s.getDB(ctx).Save(source)
	if result.Error != nil {
		return fmt.Errorf("updating novel source: %w", result.Error)
	}
	return nil
}

func (s *NovelSourceStore) Delete(ctx context.Context, id uuid.UUID) error {
	result := s.getDB(ctx).Unscoped().Delete(&model.NovelSource{}, "id = ?", id)
	if result.Error != nil && !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return result.Error
	}
	return nil
}

// DueForSync lists enabled sources whose next_sync_time has passed.
func (s *NovelSourceStore) DueForSync(ctx context.Context, now time.Time) (model.NovelSourceList, error) {
	var sources model.NovelSourceList
	result := s.getDB(ctx).
		Where("enabled = ?", true).
		Where("next_sync_time IS NULL OR next_sync_time <= ?", now).
		Order("next_sync_time").
		Find(&sources)
	if result.Error != nil {
		return nil, result.Error
	}
	return sources, nil
}

// syncClaimTTL bounds how long a SYNCING claim is honored. A worker that
// died mid-run never flips its source back, so a claim older than the TTL
// is treated as abandoned and may be taken over.
const syncClaimTTL = 30 * time.Minute

// ClaimForSync grants the caller exclusive rights to run one sync attempt.
// The transition * -> SYNCING is a conditional update guarded by the
// current sync_status and a version bump, so of two workers racing on the
// same source exactly one wins; the loser gets ErrClaimRejected and must
// drop the message. A claim whose sync_started_at is older than
// syncClaimTTL no longer blocks: the holder is assumed dead.
func (s *NovelSourceStore) ClaimForSync(ctx context.Context, id uuid.UUID) (*model.NovelSource, error) {
	now := time.Now()
	result := s.getDB(ctx).Model(&model.NovelSource{}).
		Where("id = ? AND (sync_status <> ? OR sync_started_at IS NULL OR sync_started_at < ?)",
			id, model.SyncStatusSyncing, now.Add(-syncClaimTTL)).
		Updates(map[string]interface{}{
			"sync_status":     model.SyncStatusSyncing,
			"sync_started_at": now,
			"version":         gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return nil, fmt.Errorf("claiming novel source: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		// either the row is gone or another worker holds the claim
		if _, err := s.Get(ctx, id); err != nil {
			return nil, err
		}
		return nil, ErrClaimRejected
	}
	return s.Get(ctx, id)
}

func (s *NovelSourceStore) getDB(ctx context.Context) *gorm.DB {
	tx := FromContext(ctx)
	if tx != nil {
		return tx
	}
	return s.db
}
