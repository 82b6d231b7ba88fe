package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/novelvip/novelsync/internal/store/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Chapter interface {
	InitialMigration() error
	Create(ctx context.Context, chapter model.Chapter) (*model.Chapter, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Chapter, error)
	GetByNumber(ctx context.Context, novelID uuid.UUID, number int) (*model.Chapter, error)
	Numbers(ctx context.Context, novelID uuid.UUID) ([]int, error)
	HighestNumber(ctx context.Context, novelID uuid.UUID) (int, error)
	CountByNovel(ctx context.Context, novelID uuid.UUID) (int64, error)
	SetAudio(ctx context.Context, id uuid.UUID, audioURL string) error
}

type ChapterStore struct {
	db *gorm.DB
}

// Make sure we conform to Chapter interface
var _ Chapter = (*ChapterStore)(nil)

func NewChapterStore(db *gorm.DB) Chapter {
	return &ChapterStore{db: db}
}

func (s *ChapterStore) InitialMigration() error {
	return s.db.AutoMigrate(&model.Chapter{})
}

// Create inserts a chapter, tolerating replays: when a row with the same
// (novel_id, chapter_number) already exists the insert is a no-op and the
// existing row is returned.
func (s *ChapterStore) Create(ctx context.Context, chapter model.Chapter) (*model.Chapter, error) {
	if chapter.ID == uuid.Nil {
		chapter.ID = uuid.New()
	}
	result := s.getDB(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "novel_id"}, {Name: "chapter_number"}},
		DoNothing: true,
	}).Create(&chapter)
	if result.Error != nil {
		return nil, fmt.Errorf("creating chapter: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return s.GetByNumber(ctx, chapter.NovelID, chapter.ChapterNumber)
	}
	return &chapter, nil
}

func (s *ChapterStore) Get(ctx context.Context, id uuid.UUID) (*model.Chapter, error) {
	var chapter model.Chapter
	result := s.getDB(ctx).First(&chapter, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("querying chapter: %w", result.Error)
	}
	return &chapter, nil
}

func (s *ChapterStore) GetByNumber(ctx context.Context, novelID uuid.UUID, number int) (*model.Chapter, error) {
	var chapter model.Chapter
	result := s.getDB(ctx).First(&chapter, "novel_id = ? AND chapter_number = ?", novelID, number)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("querying chapter: %w", result.Error)
	}
	return &chapter, nil
}

func (s *ChapterStore) Numbers(ctx context.Context, novelID uuid.UUID) ([]int, error) {
	var numbers []int
	result := s.getDB(ctx).Model(&model.Chapter{}).
		Where("novel_id = ?", novelID).
		Order("chapter_number").
		Pluck("chapter_number", &numbers)
	if result.Error != nil {
		return nil, result.Error
	}
	return numbers, nil
}

func (s *ChapterStore) HighestNumber(ctx context.Context, novelID uuid.UUID) (int, error) {
	var highest *int
	result := s.getDB(ctx).Model(&model.Chapter{}).
		Where("novel_id = ?", novelID).
		Select("MAX(chapter_number)").
		Scan(&highest)
	if result.Error != nil {
		return 0, result.Error
	}
	if highest == nil {
		return 0, nil
	}
	return *highest, nil
}

func (s *ChapterStore) CountByNovel(ctx context.Context, novelID uuid.UUID) (int64, error) {
	var count int64
	result := s.getDB(ctx).Model(&model.Chapter{}).Where("novel_id = ?", novelID).Count(&count)
	if result.Error != nil {
		return 0, result.Error
	}
	return count, nil
}

func (s *ChapterStore) SetAudio(ctx context.Context, id uuid.UUID, audioURL string) error {
	result := s.getDB(ctx).Model(&model.Chapter{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"audio_url": audioURL, "has_audio": true})
	if result.Error != nil {
		return fmt.Errorf("updating chapter audio: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

func (s *ChapterStore) getDB(ctx context.Context) *gorm.DB {
	tx := FromContext(ctx)
	if tx != nil {
		return tx
	}
	return s.db
}
