package store_test

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/novelvip/novelsync/internal/config"
	"github.com/novelvip/novelsync/internal/store"
	"github.com/novelvip/novelsync/internal/store/model"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"
)

var _ = Describe("novel source store", Ordered, func() {
	var (
		s      store.Store
		gormdb *gorm.DB
	)

	newSource := func(novelID uuid.UUID, url string) *model.NovelSource {
		source, err := s.NovelSource().Create(context.TODO(), model.NovelSource{
			NovelID:             novelID,
			SourceURL:           url,
			SourcePlatform:      "69shuba",
			Enabled:             true,
			SyncIntervalMinutes: 60,
		})
		Expect(err).To(BeNil())
		return source
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
		gormdb.Exec("DELETE FROM novel_sources;")
	})

	Context("create", func() {
		It("defaults the sync status to IDLE", func() {
			source := newSource(uuid.New(), "https://www.69shuba.com/book/1.htm")
			Expect(source.SyncStatus).To(Equal(model.SyncStatusIdle))
			Expect(source.Version).To(Equal(0))
		})

		It("rejects a duplicate (novel, url) pair", func() {
			novelID := uuid.New()
			newSource(novelID, "https://www.69shuba.com/book/1.htm")

			_, err := s.NovelSource().Create(context.TODO(), model.NovelSource{
				NovelID:   novelID,
				SourceURL: "https://www.69shuba.com/book/1.htm",
			})
			Expect(err).To(MatchError(store.ErrDuplicateKey))
		})
	})

	Context("claim", func() {
		It("grants the claim and bumps the version", func() {
			source := newSource(uuid.New(), "https://www.69shuba.com/book/2.htm")

			claimed, err := s.NovelSource().ClaimForSync(context.TODO(), source.ID)
			Expect(err).To(BeNil())
			Expect(claimed.SyncStatus).To(Equal(model.SyncStatusSyncing))
			Expect(claimed.Version).To(Equal(source.Version + 1))
		})

		It("rejects a second claim while the first one is held", func() {
			source := newSource(uuid.New(), "https://www.69shuba.com/book/3.htm")

			_, err := s.NovelSource().ClaimForSync(context.TODO(), source.ID)
			Expect(err).To(BeNil())

			_, err = s.NovelSource().ClaimForSync(context.TODO(), source.ID)
			Expect(err).To(MatchError(store.ErrClaimRejected))
		})

		It("allows a new claim after the previous sync settled", func() {
			source := newSource(uuid.New(), "https://www.69shuba.com/book/4.htm")

			claimed, err := s.NovelSource().ClaimForSync(context.TODO(), source.ID)
			Expect(err).To(BeNil())

			claimed.SyncStatus = model.SyncStatusSuccess
			Expect(s.NovelSource().Update(context.TODO(), claimed)).To(BeNil())

			again, err := s.NovelSource().ClaimForSync(context.TODO(), source.ID)
			Expect(err).To(BeNil())
			Expect(again.Version).To(Equal(source.Version + 2))
		})

		It("takes over a stale claim left by a dead worker", func() {
			source := newSource(uuid.New(), "https://www.69shuba.com/book/10.htm")

			_, err := s.NovelSource().ClaimForSync(context.TODO(), source.ID)
			Expect(err).To(BeNil())

			// age the claim past the TTL, as if its holder never came back
			stale := time.Now().Add(-time.Hour)
			Expect(gormdb.Model(&model.NovelSource{}).
				Where("id = ?", source.ID).
				Update("sync_started_at", stale).Error).To(BeNil())

			again, err := s.NovelSource().ClaimForSync(context.TODO(), source.ID)
			Expect(err).To(BeNil())
			Expect(again.SyncStatus).To(Equal(model.SyncStatusSyncing))
			Expect(again.Version).To(Equal(source.Version + 2))
			Expect(again.SyncStartedAt).ToNot(BeNil())
			Expect(again.SyncStartedAt.After(stale)).To(BeTrue())
		})

		It("returns ErrRecordNotFound for an unknown source", func() {
			_, err := s.NovelSource().ClaimForSync(context.TODO(), uuid.New())
			Expect(err).To(MatchError(store.ErrRecordNotFound))
		})
	})

	Context("due for sync", func() {
		It("includes sources that never synced", func() {
			newSource(uuid.New(), "https://www.69shuba.com/book/5.htm")

			due, err := s.NovelSource().DueForSync(context.TODO(), time.Now())
			Expect(err).To(BeNil())
			Expect(due).To(HaveLen(1))
		})

		It("includes sources whose schedule has passed and skips future ones", func() {
			past := newSource(uuid.New(), "https://www.69shuba.com/book/6.htm")
			pastTime := time.Now().Add(-time.Hour)
			past.NextSyncTime = &pastTime
			Expect(s.NovelSource().Update(context.TODO(), past)).To(BeNil())

			future := newSource(uuid.New(), "https://www.69shuba.com/book/7.htm")
			futureTime := time.Now().Add(time.Hour)
			future.NextSyncTime = &futureTime
			Expect(s.NovelSource().Update(context.TODO(), future)).To(BeNil())

			due, err := s.NovelSource().DueForSync(context.TODO(), time.Now())
			Expect(err).To(BeNil())
			Expect(due).To(HaveLen(1))
			Expect(due[0].ID).To(Equal(past.ID))
		})

		It("skips disabled sources", func() {
			source := newSource(uuid.New(), "https://www.69shuba.com/book/8.htm")
			source.Enabled = false
			Expect(s.NovelSource().Update(context.TODO(), source)).To(BeNil())

			due, err := s.NovelSource().DueForSync(context.TODO(), time.Now())
			Expect(err).To(BeNil())
			Expect(due).To(BeEmpty())
		})
	})

	Context("delete", func() {
		It("removes the source", func() {
			source := newSource(uuid.New(), "https://www.69shuba.com/book/9.htm")
			Expect(s.NovelSource().Delete(context.TODO(), source.ID)).To(BeNil())

			_, err := s.NovelSource().Get(context.TODO(), source.ID)
			Expect(err).To(MatchError(store.ErrRecordNotFound))
		})
	})
})
