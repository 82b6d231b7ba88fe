package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/novelvip/novelsync/internal/audio"
	"github.com/novelvip/novelsync/internal/store"
	"github.com/novelvip/novelsync/internal/store/model"
)

// ChapterService owns chapter persistence. CreateChapter tolerates
// replays of the same (novel, number) pair, which is what allows the
// import pipeline to be re-run safely after a crash or redelivery.
type ChapterService struct {
	store     store.Store
	generator audio.Generator
}

func NewChapterService(s store.Store, generator audio.Generator) *ChapterService {
	return &ChapterService{store: s, generator: generator}
}

type CreateChapterParams struct {
	NovelID       uuid.UUID
	ChapterNumber int
	Title         string
	ContentHtml   string
	AudioURL      *string
}

func (s *ChapterService) CreateChapter(ctx context.Context, params CreateChapterParams) (*model.Chapter, error) {
	chapter := model.Chapter{
		NovelID:       params.NovelID,
		ChapterNumber: params.ChapterNumber,
		Title:         params.Title,
		ContentHtml:   params.ContentHtml,
	}
	if params.AudioURL != nil {
		chapter.AudioURL = params.AudioURL
		chapter.HasAudio = true
	}
	return s.store.Chapter().Create(ctx, chapter)
}

// EnsureAudioGenerated generates narration for the chapter unless it
// already has one. Safe to call repeatedly.
func (s *ChapterService) EnsureAudioGenerated(ctx context.Context, chapterID uuid.UUID) (*model.Chapter, error) {
	chapter, err := s.store.Chapter().Get(ctx, chapterID)
	if err != nil {
		return nil, err
	}
	if chapter.HasAudio {
		return chapter, nil
	}

	url, err := s.generator.Generate(ctx, chapter)
	if err != nil {
		return nil, err
	}
	if err := s.store.Chapter().SetAudio(ctx, chapterID, url); err != nil {
		return nil, err
	}

	chapter.AudioURL = &url
	chapter.HasAudio = true
	return chapter, nil
}
