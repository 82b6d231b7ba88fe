package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/novelvip/novelsync/internal/store"
)

type NovelService struct {
	store store.Store
}

func NewNovelService(s store.Store) *NovelService {
	return &NovelService{store: s}
}

// RecountChapters recomputes the novel's chapter total from the chapters
// table. Called after bulk imports instead of incrementing per chapter.
func (s *NovelService) RecountChapters(ctx context.Context, novelID uuid.UUID) error {
	count, err := s.store.Chapter().CountByNovel(ctx, novelID)
	if err != nil {
		return err
	}
	return s.store.Novel().SetTotalChapters(ctx, novelID, int(count))
}
