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

var _ = Describe("chapter store", Ordered, func() {
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
		gormdb.Exec("DELETE FROM chapters;")
	})

	Context("create", func() {
		It("inserts a chapter", func() {
			novelID := uuid.New()
			chapter, err := s.Chapter().Create(context.TODO(), model.Chapter{
				NovelID:       novelID,
				ChapterNumber: 1,
				Title:         "Chương 1",
				ContentHtml:   "<p>Chương 1</p>",
			})
			Expect(err).To(BeNil())
			Expect(chapter.ID).ToNot(Equal(uuid.Nil))
		})

		It("returns the existing row when the same number is replayed", func() {
			novelID := uuid.New()
			first, err := s.Chapter().Create(context.TODO(), model.Chapter{
				NovelID:       novelID,
				ChapterNumber: 1,
				Title:         "Chương 1",
			})
			Expect(err).To(BeNil())

			second, err := s.Chapter().Create(context.TODO(), model.Chapter{
				NovelID:       novelID,
				ChapterNumber: 1,
				Title:         "Chương 1 (replayed)",
			})
			Expect(err).To(BeNil())
			Expect(second.ID).To(Equal(first.ID))
			Expect(second.Title).To(Equal("Chương 1"))

			count, err := s.Chapter().CountByNovel(context.TODO(), novelID)
			Expect(err).To(BeNil())
			Expect(count).To(Equal(int64(1)))
		})

		It("allows the same number on different novels", func() {
			_, err := s.Chapter().Create(context.TODO(), model.Chapter{
				NovelID:       uuid.New(),
				ChapterNumber: 1,
				Title:         "Chương 1",
			})
			Expect(err).To(BeNil())

			_, err = s.Chapter().Create(context.TODO(), model.Chapter{
				NovelID:       uuid.New(),
				ChapterNumber: 1,
				Title:         "Chương 1",
			})
			Expect(err).To(BeNil())
		})
	})

	Context("numbers", func() {
		It("reports the highest assigned number", func() {
			novelID := uuid.New()
			for _, n := range []int{1, 2, 5} {
				_, err := s.Chapter().Create(context.TODO(), model.Chapter{
					NovelID:       novelID,
					ChapterNumber: n,
					Title:         "Chương",
				})
				Expect(err).To(BeNil())
			}

			highest, err := s.Chapter().HighestNumber(context.TODO(), novelID)
			Expect(err).To(BeNil())
			Expect(highest).To(Equal(5))

			numbers, err := s.Chapter().Numbers(context.TODO(), novelID)
			Expect(err).To(BeNil())
			Expect(numbers).To(Equal([]int{1, 2, 5}))
		})

		It("reports zero for a novel without chapters", func() {
			highest, err := s.Chapter().HighestNumber(context.TODO(), uuid.New())
			Expect(err).To(BeNil())
			Expect(highest).To(Equal(0))
		})
	})

	Context("audio", func() {
		It("records the generated narration", func() {
			chapter, err := s.Chapter().Create(context.TODO(), model.Chapter{
				NovelID:       uuid.New(),
				ChapterNumber: 1,
				Title:         "Chương 1",
			})
			Expect(err).To(BeNil())
			Expect(chapter.HasAudio).To(BeFalse())

			Expect(s.Chapter().SetAudio(context.TODO(), chapter.ID, "https://cdn.example.com/1.mp3")).To(BeNil())

			got, err := s.Chapter().Get(context.TODO(), chapter.ID)
			Expect(err).To(BeNil())
			Expect(got.HasAudio).To(BeTrue())
			Expect(*got.AudioURL).To(Equal("https://cdn.example.com/1.mp3"))
		})

		It("returns ErrRecordNotFound for an unknown chapter", func() {
			err := s.Chapter().SetAudio(context.TODO(), uuid.New(), "https://cdn.example.com/1.mp3")
			Expect(err).To(MatchError(store.ErrRecordNotFound))
		})
	})
})
