package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/novelvip/novelsync/internal/store/model"
	"gorm.io/gorm"
)

type Novel interface {
	InitialMigration() error
	Create(ctx context.Context, novel model.Novel) (*model.Novel, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Novel, error)
	GetBySlug(ctx context.Context, slug string) (*model.Novel, error)
	Update(ctx context.Context, novel *model.Novel) error
	SetTotalChapters(ctx context.Context, id uuid.UUID, total int) error
}

type NovelStore struct {
	db *gorm.DB
}

// Make sure we conform to Novel interface
var _ Novel = (*NovelStore)(nil)

func NewNovelStore(db *gorm.DB) Novel {
	return &NovelStore{db: db}
}

func (s *NovelStore) InitialMigration() error {
	return s.db.AutoMigrate(&model.Novel{})
}

func (s *NovelStore) Create(ctx context.Context, novel model.Novel) (*model.Novel, error) {
	if novel.ID == uuid.Nil {
		novel.ID = uuid.New()
	}
	result := s.getDB(ctx).Create(&novel)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateKey
		}
		return nil, fmt.Errorf("creating novel: %w", result.Error)
	}
	return &novel, nil
}

func (s *NovelStore) Get(ctx context.Context, id uuid.UUID) (*model.Novel, error) {
	var novel model.Novel
	result := s.getDB(ctx).First(&novel, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("querying novel: %w", result.Error)
	}
	return &novel, nil
}

func (s *NovelStore) GetBySlug(ctx context.Context, slug string) (*model.Novel, error) {
	var novel model.Novel
	result := s.getDB(ctx).First(&novel, "slug = ?", slug)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("querying novel: %w", result.Error)
	}
	return &novel, nil
}

func (s *NovelStore) Update(ctx context.Context, novel *model.Novel) error {
	result := s.getDB(ctx).Save(novel)
	if result.Error != nil {
		return fmt.Errorf("updating novel: %w", result.Error)
	}
	return nil
}

func (s *NovelStore) SetTotalChapters(ctx context.Context, id uuid.UUID, total int) error {
	result := s.getDB(ctx).Model(&model.Novel{}).Where("id = ?", id).Update("total_chapters", total)
	if result.Error != nil {
		return fmt.Errorf("updating novel chapter count: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

func (s *NovelStore) getDB(ctx context.Context) *gorm.DB {
	tx := FromContext(ctx)
	if tx != nil {
		return tx
	}
	return s.db
}
