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

var _ = Describe("transactions", Ordered, func() {
	var (
		s      store.Store
		gormdb *gorm.DB
	)

	newJob := func(ctx context.Context) *model.Job {
		job, err := s.Job().Create(ctx, model.Job{
			JobType: model.JobTypeSourceImport,
			Status:  model.JobStatusQueued,
			UserID:  uuid.New(),
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
	})

	AfterAll(func() {
		s.Close()
	})

	AfterEach(func() {
		gormdb.Exec("DELETE FROM jobs;")
	})

	It("commits writes made through the transaction context", func() {
		txCtx, err := s.NewTransactionContext(context.TODO())
		Expect(err).To(BeNil())

		job := newJob(txCtx)

		_, err = store.Commit(txCtx)
		Expect(err).To(BeNil())

		got, err := s.Job().Get(context.TODO(), job.ID)
		Expect(err).To(BeNil())
		Expect(got.Status).To(Equal(model.JobStatusQueued))
	})

	It("discards writes on rollback", func() {
		txCtx, err := s.NewTransactionContext(context.TODO())
		Expect(err).To(BeNil())

		job := newJob(txCtx)

		// visible inside the transaction
		_, err = s.Job().Get(txCtx, job.ID)
		Expect(err).To(BeNil())

		_, err = store.Rollback(txCtx)
		Expect(err).To(BeNil())

		_, err = s.Job().Get(context.TODO(), job.ID)
		Expect(err).To(MatchError(store.ErrRecordNotFound))
	})

	It("reuses an open transaction instead of nesting", func() {
		txCtx, err := s.NewTransactionContext(context.TODO())
		Expect(err).To(BeNil())

		again, err := s.NewTransactionContext(txCtx)
		Expect(err).To(BeNil())
		Expect(again).To(BeIdenticalTo(txCtx))

		_, err = store.Rollback(txCtx)
		Expect(err).To(BeNil())
	})

	It("is a no-op to commit without an open transaction", func() {
		_, err := store.Commit(context.TODO())
		Expect(err).To(BeNil())
	})
})
