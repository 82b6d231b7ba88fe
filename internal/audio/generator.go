// Package audio generates narration for chapters and stores the artifact
// in object storage.
package audio

import (
	"bytes"
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/novelvip/novelsync/internal/config"
	"github.com/novelvip/novelsync/internal/store/model"
)

// Generator produces an audio artifact for a chapter and returns its URL.
type Generator interface {
	Generate(ctx context.Context, chapter *model.Chapter) (string, error)
}

// TTSGenerator calls an external text-to-speech endpoint and uploads the
// result to an S3-compatible bucket.
type TTSGenerator struct {
	tts    *resty.Client
	s3     *minio.Client
	bucket string
}

var _ Generator = (*TTSGenerator)(nil)

func NewTTSGenerator(cfg *config.Config) (*TTSGenerator, error) {
	s3Client, err := minio.New(cfg.Storage.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.Storage.AccessKey, cfg.Storage.SecretKey, ""),
		Secure: cfg.Storage.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("creating object storage client: %w", err)
	}

	return &TTSGenerator{
		tts:    resty.New().SetBaseURL(cfg.Storage.TtsUrl),
		s3:     s3Client,
		bucket: cfg.Storage.Bucket,
	}, nil
}

type ttsRequest struct {
	Text  string `json:"text"`
	Voice string `json:"voice"`
}

func (g *TTSGenerator) Generate(ctx context.Context, chapter *model.Chapter) (string, error) {
	if g.tts.BaseURL == "" {
		return "", fmt.Errorf("tts endpoint not configured")
	}

	resp, err := g.tts.R().
		SetContext(ctx).
		SetBody(ttsRequest{Text: chapter.ContentHtml, Voice: "vi-VN"}).
		Post("/synthesize")
	if err != nil {
		return "", fmt.Errorf("synthesizing audio for chapter %s: %w", chapter.ID, err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("synthesizing audio for chapter %s: status %d", chapter.ID, resp.StatusCode())
	}

	objectName := fmt.Sprintf("%s/%d.mp3", chapter.NovelID, chapter.ChapterNumber)
	body := resp.Body()
	_, err = g.s3.PutObject(ctx, g.bucket, objectName, bytes.NewReader(body), int64(len(body)),
		minio.PutObjectOptions{ContentType: "audio/mpeg"})
	if err != nil {
		return "", fmt.Errorf("uploading audio for chapter %s: %w", chapter.ID, err)
	}

	return fmt.Sprintf("%s/%s", g.bucket, objectName), nil
}
