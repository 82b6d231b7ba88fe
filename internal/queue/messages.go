package queue

import "github.com/google/uuid"

// ImportMessage asks the import orchestrator to run one sync attempt
// against a novel source. Immutable once published.
type ImportMessage struct {
	JobID         uuid.UUID `json:"jobId"`
	NovelSourceID uuid.UUID `json:"novelSourceId"`
	NovelID       uuid.UUID `json:"novelId"`
	UserID        uuid.UUID `json:"userId"`
	FullImport    bool      `json:"fullImport"`
	StartChapter  *int      `json:"startChapter,omitempty"`
	EndChapter    *int      `json:"endChapter,omitempty"`
}

type ChapterAudioMessage struct {
	ChapterID uuid.UUID `json:"chapterId"`
	JobID     uuid.UUID `json:"jobId"`
	UserID    uuid.UUID `json:"userId"`
}

type EpubImportMessage struct {
	JobID          uuid.UUID `json:"jobId"`
	FileMetadataID uuid.UUID `json:"fileMetadataId"`
	UserID         uuid.UUID `json:"userId"`
}

type EmailVerificationMessage struct {
	UserID              uuid.UUID `json:"userId"`
	ValidForSeconds     int64     `json:"validForSeconds"`
	IssuedAtEpochSecond int64     `json:"issuedAtEpochSecond"`
}
