package store

import (
	"context"

	"gorm.io/gorm"
)

type Store interface {
	NewTransactionContext(ctx context.Context) (context.Context, error)
	Job() Job
	NovelSource() NovelSource
	Novel() Novel
	Chapter() Chapter
	Notification() Notification
	User() User
	InitialMigration() error
	Close() error
}

type DataStore struct {
	db           *gorm.DB
	job          Job
	novelSource  NovelSource
	novel        Novel
	chapter      Chapter
	notification Notification
	user         User
}

func NewStore(db *gorm.DB) Store {
	return &DataStore{
		db:           db,
		job:          NewJobStore(db),
		novelSource:  NewNovelSourceStore(db),
		novel:        NewNovelStore(db),
		chapter:      NewChapterStore(db),
		notification: NewNotificationStore(db),
		user:         NewUserStore(db),
	}
}

func (s *DataStore) NewTransactionContext(ctx context.Context) (context.Context, error) {
	return newTransactionContext(ctx, s.db)
}

func (s *DataStore) Job() Job {
	return s.job
}

func (s *DataStore) NovelSource() NovelSource {
	return s.novelSource
}

func (s *DataStore) Novel() Novel {
	return s.novel
}

func (s *DataStore) Chapter() Chapter {
	return s.chapter
}

func (s *DataStore) Notification() Notification {
	return s.notification
}

func (s *DataStore) User() User {
	return s.user
}

func (s *DataStore) InitialMigration() error {
	for _, m := range []func() error{
		s.job.InitialMigration,
		s.novelSource.InitialMigration,
		s.novel.InitialMigration,
		s.chapter.InitialMigration,
		s.notification.InitialMigration,
		s.user.InitialMigration,
	} {
		if err := m(); err != nil {
			return err
		}
	}
	return nil
}

func (s *DataStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
