package service_test

import (
	"context"

	"github.com/google/uuid"
	"github.com/novelvip/novelsync/internal/config"
	"github.com/novelvip/novelsync/internal/service"
	"github.com/novelvip/novelsync/internal/store"
	"github.com/novelvip/novelsync/internal/store/model"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"
)

var _ = Describe("job service", Ordered, func() {
	var (
		s      store.Store
		gormdb *gorm.DB
		jobs   *service.JobService
	)

	waitingJob := func(total, audioDone int) *model.Job {
		job, err := s.Job().Create(context.TODO(), model.Job{
			JobType:        model.JobTypeEpubImport,
			Status:         model.JobStatusWaitingForAudio,
			TotalChapters:  total,
			AudioCompleted: audioDone,
			UserID:         uuid.New(),
		})
		Expect(err).To(BeNil())
		return job
	}

	BeforeAll(func() {
		db, err := store.InitDB(config.NewDefault())
		Expect(err).To(BeNil())

		s = store.NewStore(db)
		gormdb = db
		Expect(s.InitialMigration()).To(BeNil())

		jobs = service.NewJobService(s, service.NewNotificationService(s))
	})

	AfterAll(func() {
		s.Close()
	})

	AfterEach(func() {
		gormdb.Exec("DELETE FROM jobs;")
		gormdb.Exec("DELETE FROM notifications;")
	})

	Context("audio accounting", func() {
		It("keeps the job waiting while chapters remain", func() {
			job := waitingJob(3, 0)

			Expect(jobs.MarkChapterAudioComplete(context.TODO(), job.ID)).To(BeNil())

			got, err := s.Job().Get(context.TODO(), job.ID)
			Expect(err).To(BeNil())
			Expect(got.Status).To(Equal(model.JobStatusWaitingForAudio))
			Expect(got.AudioCompleted).To(Equal(1))
			Expect(got.StatusMessage).To(Equal("Audio generated for 1/3 chapters"))
		})

		It("completes the job when the last chapter's audio lands", func() {
			job := waitingJob(3, 2)

			Expect(jobs.MarkChapterAudioComplete(context.TODO(), job.ID)).To(BeNil())

			got, err := s.Job().Get(context.TODO(), job.ID)
			Expect(err).To(BeNil())
			Expect(got.Status).To(Equal(model.JobStatusCompleted))
			Expect(got.AudioCompleted).To(Equal(3))
			Expect(got.CompletedAt).ToNot(BeNil())
		})

		It("ignores an unknown job id", func() {
			Expect(jobs.MarkChapterAudioComplete(context.TODO(), uuid.New())).To(BeNil())
		})

		It("ignores a nil job id", func() {
			Expect(jobs.MarkChapterAudioComplete(context.TODO(), uuid.Nil)).To(BeNil())
		})
	})

	Context("failing a job", func() {
		It("marks the job failed and notifies the owner", func() {
			userID := uuid.New()
			job, err := s.Job().Create(context.TODO(), model.Job{
				JobType: model.JobTypeSourceImport,
				Status:  model.JobStatusQueued,
				UserID:  userID,
			})
			Expect(err).To(BeNil())

			jobs.MarkJobFailed(context.TODO(), job.ID, "crawler unreachable")

			got, err := s.Job().Get(context.TODO(), job.ID)
			Expect(err).To(BeNil())
			Expect(got.Status).To(Equal(model.JobStatusFailed))
			Expect(got.StatusMessage).To(Equal("crawler unreachable"))

			count := 0
			Expect(gormdb.Raw("SELECT COUNT(*) FROM notifications;").Scan(&count).Error).To(BeNil())
			Expect(count).To(Equal(1))
		})

		It("leaves a terminal job untouched", func() {
			job, err := s.Job().Create(context.TODO(), model.Job{
				JobType: model.JobTypeSourceImport,
				Status:  model.JobStatusQueued,
				UserID:  uuid.New(),
			})
			Expect(err).To(BeNil())

			_, err = s.Job().UpdateStatus(context.TODO(), job.ID, model.JobStatusFailed, "first failure")
			Expect(err).To(BeNil())

			jobs.MarkJobFailed(context.TODO(), job.ID, "second failure")

			got, err := s.Job().Get(context.TODO(), job.ID)
			Expect(err).To(BeNil())
			Expect(got.StatusMessage).To(Equal("first failure"))
		})
	})
})
