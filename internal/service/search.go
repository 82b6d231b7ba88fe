package service

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"
	"github.com/novelvip/novelsync/internal/config"
	"github.com/novelvip/novelsync/internal/store/model"
)

// Search indexes catalog items for full-text search. Indexing is a
// best-effort side effect everywhere it is called from.
type Search interface {
	IndexNovel(ctx context.Context, novel *model.Novel) error
}

type SearchService struct {
	client *resty.Client
	index  string
}

var _ Search = (*SearchService)(nil)

func NewSearchService(cfg *config.Config) *SearchService {
	client := resty.New().SetBaseURL(cfg.Search.Url)
	if cfg.Search.ApiKey != "" {
		client.SetAuthToken(cfg.Search.ApiKey)
	}
	return &SearchService{
		client: client,
		index:  cfg.Search.Index,
	}
}

type novelDocument struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	Slug          string `json:"slug"`
	Author        string `json:"author"`
	Description   string `json:"description"`
	TotalChapters int    `json:"totalChapters"`
}

func (s *SearchService) IndexNovel(ctx context.Context, novel *model.Novel) error {
	if s.client.BaseURL == "" {
		return nil // search backend not configured
	}

	doc := novelDocument{
		ID:            novel.ID.String(),
		Title:         novel.Title,
		Slug:          novel.Slug,
		Author:        novel.Author,
		Description:   novel.Description,
		TotalChapters: novel.TotalChapters,
	}

	resp, err := s.client.R().
		SetContext(ctx).
		SetBody([]novelDocument{doc}).
		Put(fmt.Sprintf("/indexes/%s/documents", s.index))
	if err != nil {
		return fmt.Errorf("indexing novel %s: %w", novel.ID, err)
	}
	if resp.IsError() {
		return fmt.Errorf("indexing novel %s: status %d", novel.ID, resp.StatusCode())
	}
	return nil
}
