// Package crawler turns a source site URL into an ordered chapter list
// and individual chapter contents. The import orchestrator consumes it
// through the Crawler interface only.
package crawler

import "context"

// ChapterInfo is one entry of a source's chapter listing. ChapterNumber is
// source-relative, not catalog-relative.
type ChapterInfo struct {
	ChapterNumber   int
	Title           string
	ChapterURL      string
	SourceChapterID string
}

// SourceChapter is a fully fetched chapter, still in the source language.
type SourceChapter struct {
	ChapterNumber int
	Title         string
	ContentHtml   string
}

// Crawler lists and fetches chapters from a source site. FetchChapterList
// is restartable: calling it again returns the same ordered, finite list.
type Crawler interface {
	FetchChapterList(ctx context.Context, sourceURL string) ([]ChapterInfo, error)
	FetchChapter(ctx context.Context, info ChapterInfo) (*SourceChapter, error)
}
