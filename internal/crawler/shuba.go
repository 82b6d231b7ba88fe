package crawler

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"github.com/novelvip/novelsync/internal/config"
	"go.uber.org/zap"
)

var chapterNumberRe = regexp.MustCompile(`第\s*(\d+)\s*[章节回]|^\s*(\d+)[\s.、]`)

// ShubaCrawler scrapes 69shuba-style catalog pages.
type ShubaCrawler struct {
	client *resty.Client
	log    *zap.SugaredLogger
}

var _ Crawler = (*ShubaCrawler)(nil)

func NewShubaCrawler(cfg *config.Config) *ShubaCrawler {
	client := resty.New().
		SetHeader("User-Agent", cfg.Crawler.UserAgent).
		SetTimeout(cfg.Crawler.RequestTimeout).
		SetRetryCount(2)

	return &ShubaCrawler{
		client: client,
		log:    zap.S().Named("crawler"),
	}
}

func (c *ShubaCrawler) FetchChapterList(ctx context.Context, sourceURL string) ([]ChapterInfo, error) {
	doc, err := c.fetchDocument(ctx, sourceURL)
	if err != nil {
		return nil, err
	}

	var chapters []ChapterInfo
	doc.Find("div#catalog ul li a").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		title := strings.TrimSpace(sel.Text())
		if href == "" || title == "" {
			return
		}

		number := extractChapterNumber(title)
		if number <= 0 {
			c.log.Warnf("could not extract chapter number from title: %s", title)
			return
		}

		chapters = append(chapters, ChapterInfo{
			ChapterNumber:   number,
			Title:           title,
			ChapterURL:      href,
			SourceChapterID: extractChapterID(href),
		})
	})

	c.log.Infof("found %d chapters at %s", len(chapters), sourceURL)
	return chapters, nil
}

func (c *ShubaCrawler) FetchChapter(ctx context.Context, info ChapterInfo) (*SourceChapter, error) {
	doc, err := c.fetchDocument(ctx, info.ChapterURL)
	if err != nil {
		return nil, err
	}

	content := doc.Find(".txtnav").First()
	if content.Length() == 0 {
		content = doc.Find("#content, .content, .chapter-content").First()
	}
	if content.Length() == 0 {
		return nil, fmt.Errorf("no chapter content found at %s", info.ChapterURL)
	}

	// strip the in-page header, metadata line and nav garbage
	content.Find("h1, .txtinfo, #txtright, script, style, .ad").Remove()

	contentHtml, err := content.Html()
	if err != nil {
		return nil, fmt.Errorf("extracting chapter html: %w", err)
	}
	contentHtml = strings.TrimSpace(strings.ReplaceAll(contentHtml, "&emsp;", " "))
	contentHtml = strings.TrimSpace(strings.TrimPrefix(contentHtml, info.Title))

	return &SourceChapter{
		ChapterNumber: info.ChapterNumber,
		Title:         info.Title,
		ContentHtml:   contentHtml,
	}, nil
}

func (c *ShubaCrawler) fetchDocument(ctx context.Context, url string) (*goquery.Document, error) {
	resp, err := c.client.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", url, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("fetching %s: status %d", url, resp.StatusCode())
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body()))
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", url, err)
	}
	return doc, nil
}

func extractChapterNumber(title string) int {
	matches := chapterNumberRe.FindStringSubmatch(title)
	if matches == nil {
		return 0
	}
	for _, m := range matches[1:] {
		if m == "" {
			continue
		}
		if n, err := strconv.Atoi(m); err == nil {
			return n
		}
	}
	return 0
}

func extractChapterID(href string) string {
	trimmed := strings.TrimSuffix(href, ".html")
	if idx := strings.LastIndex(trimmed, "/"); idx >= 0 {
		return trimmed[idx+1:]
	}
	return trimmed
}
