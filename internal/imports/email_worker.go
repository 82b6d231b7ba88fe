package imports

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/novelvip/novelsync/internal/queue"
	"github.com/novelvip/novelsync/internal/store"
	"github.com/novelvip/novelsync/internal/store/model"
	"go.uber.org/zap"
)

// VerificationSender dispatches a single verification mail carrying the
// user's current token. Satisfied by service.EmailService.
type VerificationSender interface {
	SendVerification(user *model.User, validFor time.Duration) error
}

// EmailWorker consumes email-verification messages. Stale or pointless
// jobs (user gone, already verified, token expired) are skipped silently;
// an actual dispatch failure is returned so the broker can redeliver.
type EmailWorker struct {
	store store.Store
	email VerificationSender
	log   *zap.SugaredLogger
}

func NewEmailWorker(s store.Store, email VerificationSender) *EmailWorker {
	return &EmailWorker{
		store: s,
		email: email,
		log:   zap.S().Named("email"),
	}
}

func (w *EmailWorker) Process(ctx context.Context, body []byte) error {
	var msg queue.EmailVerificationMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		w.log.Errorw("dropping malformed email verification message", "error", err)
		return nil
	}
	if msg.UserID == uuid.Nil {
		w.log.Warn("received email verification job without user id")
		return nil
	}

	user, err := w.store.User().Get(ctx, msg.UserID)
	if err != nil {
		w.log.Warnw("skipping email verification job, user not found", "user", msg.UserID)
		return nil
	}
	if user.EmailVerified {
		w.log.Infow("user already verified, skipping email job", "user", user.ID)
		return nil
	}
	if user.EmailVerificationToken == "" {
		w.log.Warnw("user has no verification token, skipping email job", "user", user.ID)
		return nil
	}
	if user.EmailVerificationExpiresAt != nil && time.Now().After(*user.EmailVerificationExpiresAt) {
		w.log.Infow("verification token already expired, skipping email job", "user", user.ID)
		return nil
	}

	validFor := time.Duration(max(msg.ValidForSeconds, 1)) * time.Second
	if err := w.email.SendVerification(user, validFor); err != nil {
		w.log.Errorw("failed to send verification email", "user", user.ID, "error", err)
		return err
	}

	now := time.Now()
	user.EmailVerificationSentAt = &now
	if err := w.store.User().Update(ctx, user); err != nil {
		w.log.Errorw("failed to record email dispatch", "user", user.ID, "error", err)
	}

	w.log.Infow("verification email dispatched", "user", user.ID)
	return nil
}
