package imports_test

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/novelvip/novelsync/internal/config"
	"github.com/novelvip/novelsync/internal/imports"
	"github.com/novelvip/novelsync/internal/queue"
	"github.com/novelvip/novelsync/internal/store"
	"github.com/novelvip/novelsync/internal/store/model"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"
)

type fakeSender struct {
	sent []uuid.UUID
	err  error
}

func (f *fakeSender) SendVerification(user *model.User, validFor time.Duration) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, user.ID)
	return nil
}

var _ = Describe("email worker", Ordered, func() {
	var (
		s      store.Store
		gormdb *gorm.DB

		sender *fakeSender
		worker *imports.EmailWorker
		user   *model.User
	)

	message := func(userID uuid.UUID) []byte {
		body, err := json.Marshal(queue.EmailVerificationMessage{
			UserID:          userID,
			ValidForSeconds: 3600,
		})
		Expect(err).To(BeNil())
		return body
	}

	BeforeAll(func() {
		cfg := config.NewDefault()
		db, err := store.InitDB(cfg)
		Expect(err).To(BeNil())
		s = store.NewStore(db)
		gormdb = db
		Expect(s.InitialMigration()).To(BeNil())
	})

	AfterAll(func() {
		s.Close()
	})

	BeforeEach(func() {
		sender = &fakeSender{}
		worker = imports.NewEmailWorker(s, sender)

		expires := time.Now().Add(24 * time.Hour)
		var err error
		user, err = s.User().Create(context.TODO(), model.User{
			Email:                      uuid.NewString() + "@example.com",
			DisplayName:                "Người đọc",
			EmailVerificationToken:     uuid.NewString(),
			EmailVerificationExpiresAt: &expires,
		})
		Expect(err).To(BeNil())
	})

	AfterEach(func() {
		gormdb.Exec("DELETE FROM users;")
	})

	It("sends the mail and records the dispatch time", func() {
		Expect(worker.Process(context.TODO(), message(user.ID))).To(BeNil())

		Expect(sender.sent).To(Equal([]uuid.UUID{user.ID}))

		got, err := s.User().Get(context.TODO(), user.ID)
		Expect(err).To(BeNil())
		Expect(got.EmailVerificationSentAt).ToNot(BeNil())
	})

	It("skips a message for an unknown user", func() {
		Expect(worker.Process(context.TODO(), message(uuid.New()))).To(BeNil())
		Expect(sender.sent).To(BeEmpty())
	})

	It("skips a user that is already verified", func() {
		user.EmailVerified = true
		Expect(s.User().Update(context.TODO(), user)).To(BeNil())

		Expect(worker.Process(context.TODO(), message(user.ID))).To(BeNil())
		Expect(sender.sent).To(BeEmpty())
	})

	It("skips a user without a verification token", func() {
		user.EmailVerificationToken = ""
		Expect(s.User().Update(context.TODO(), user)).To(BeNil())

		Expect(worker.Process(context.TODO(), message(user.ID))).To(BeNil())
		Expect(sender.sent).To(BeEmpty())
	})

	It("skips a token that already expired", func() {
		expired := time.Now().Add(-time.Minute)
		user.EmailVerificationExpiresAt = &expired
		Expect(s.User().Update(context.TODO(), user)).To(BeNil())

		Expect(worker.Process(context.TODO(), message(user.ID))).To(BeNil())
		Expect(sender.sent).To(BeEmpty())
	})

	It("returns the error when dispatch fails so the broker redelivers", func() {
		sender.err = fmt.Errorf("smtp connect refused")

		Expect(worker.Process(context.TODO(), message(user.ID))).ToNot(BeNil())

		got, err := s.User().Get(context.TODO(), user.ID)
		Expect(err).To(BeNil())
		Expect(got.EmailVerificationSentAt).To(BeNil())
	})

	It("drops messages without a user id", func() {
		Expect(worker.Process(context.TODO(), message(uuid.Nil))).To(BeNil())
		Expect(sender.sent).To(BeEmpty())
	})
})
