package store_test

import (
	"context"

	"github.com/google/uuid"
	"github.com/novelvip/novelsync/internal/config"
	"github.com/novelvip/novelsync/internal/store"
	"github.com/novelvip/novelsync/internal/store/model"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"
)

var _ = Describe("job store", Ordered, func() {
	var (
		s      store.Store
		gormdb *gorm.DB
	)

	BeforeAll(func() {
		db, err := store.InitDB(config.NewDefault())
		Expect(err).To(BeNil())

		s = store.NewStore(db)
		gormdb = db
		Expect(s.InitialMigration()).To(BeNil())
	})

	AfterAll(func() {
		s.Close()
	})

	AfterEach(func() {
		gormdb.Exec("DELETE FROM jobs;")
	})

	Context("create", func() {
		It("assigns an id and defaults the status to QUEUED", func() {
			job, err := s.Job().Create(context.TODO(), model.Job{
				JobType: model.JobTypeSourceImport,
				UserID:  uuid.New(),
			})
			Expect(err).To(BeNil())
			Expect(job.ID).ToNot(Equal(uuid.Nil))
			Expect(job.Status).To(Equal(model.JobStatusQueued))
			Expect(job.CompletedAt).To(BeNil())
		})

		It("round-trips through Get", func() {
			job, err := s.Job().Create(context.TODO(), model.Job{
				JobType:       model.JobTypeSourceImport,
				Status:        model.JobStatusQueued,
				StatusMessage: "Queued for sync",
				UserID:        uuid.New(),
			})
			Expect(err).To(BeNil())

			got, err := s.Job().Get(context.TODO(), job.ID)
			Expect(err).To(BeNil())
			Expect(got.StatusMessage).To(Equal("Queued for sync"))
		})

		It("returns ErrRecordNotFound for an unknown id", func() {
			_, err := s.Job().Get(context.TODO(), uuid.New())
			Expect(err).To(MatchError(store.ErrRecordNotFound))
		})
	})

	Context("update status", func() {
		It("walks a legal transition and records the message", func() {
			job, err := s.Job().Create(context.TODO(), model.Job{
				JobType: model.JobTypeSourceImport,
				UserID:  uuid.New(),
			})
			Expect(err).To(BeNil())

			updated, err := s.Job().UpdateStatus(context.TODO(), job.ID, model.JobStatusParsing, "Fetching chapter list")
			Expect(err).To(BeNil())
			Expect(updated.Status).To(Equal(model.JobStatusParsing))
			Expect(updated.StatusMessage).To(Equal("Fetching chapter list"))
			Expect(updated.CompletedAt).To(BeNil())
		})

		It("rejects an illegal transition", func() {
			job, err := s.Job().Create(context.TODO(), model.Job{
				JobType: model.JobTypeSourceImport,
				UserID:  uuid.New(),
			})
			Expect(err).To(BeNil())

			_, err = s.Job().UpdateStatus(context.TODO(), job.ID, model.JobStatusCompleted, "skipping ahead")
			Expect(err).To(MatchError(store.ErrInvalidTransition))

			got, err := s.Job().Get(context.TODO(), job.ID)
			Expect(err).To(BeNil())
			Expect(got.Status).To(Equal(model.JobStatusQueued))
		})

		It("stamps CompletedAt when the job turns terminal", func() {
			job, err := s.Job().Create(context.TODO(), model.Job{
				JobType: model.JobTypeSourceImport,
				UserID:  uuid.New(),
			})
			Expect(err).To(BeNil())

			failed, err := s.Job().UpdateStatus(context.TODO(), job.ID, model.JobStatusFailed, "boom")
			Expect(err).To(BeNil())
			Expect(failed.CompletedAt).ToNot(BeNil())
		})

		It("freezes a terminal job", func() {
			job, err := s.Job().Create(context.TODO(), model.Job{
				JobType: model.JobTypeSourceImport,
				UserID:  uuid.New(),
			})
			Expect(err).To(BeNil())

			_, err = s.Job().UpdateStatus(context.TODO(), job.ID, model.JobStatusFailed, "boom")
			Expect(err).To(BeNil())

			_, err = s.Job().UpdateStatus(context.TODO(), job.ID, model.JobStatusParsing, "retrying")
			Expect(err).To(MatchError(store.ErrInvalidTransition))
		})
	})

	Context("audio counter", func() {
		It("increments atomically and returns the fresh row", func() {
			job, err := s.Job().Create(context.TODO(), model.Job{
				JobType:       model.JobTypeEpubImport,
				UserID:        uuid.New(),
				TotalChapters: 3,
			})
			Expect(err).To(BeNil())

			for i := 1; i <= 3; i++ {
				got, err := s.Job().IncrementAudioCompleted(context.TODO(), job.ID)
				Expect(err).To(BeNil())
				Expect(got.AudioCompleted).To(Equal(i))
			}
		})

		It("returns ErrRecordNotFound for an unknown job", func() {
			_, err := s.Job().IncrementAudioCompleted(context.TODO(), uuid.New())
			Expect(err).To(MatchError(store.ErrRecordNotFound))
		})
	})
})
