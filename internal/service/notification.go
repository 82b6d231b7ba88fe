package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/novelvip/novelsync/internal/store"
	"github.com/novelvip/novelsync/internal/store/model"
)

// NotificationService persists user-facing notifications. Callers in the
// import pipeline treat it as best-effort: failures are logged, never
// propagated into job state.
type NotificationService struct {
	store store.Store
}

func NewNotificationService(s store.Store) *NotificationService {
	return &NotificationService{store: s}
}

func (s *NotificationService) Notify(ctx context.Context, userID uuid.UUID, title, message string, kind model.NotificationType, reference string) error {
	if userID == uuid.Nil {
		return nil
	}
	_, err := s.store.Notification().Create(ctx, model.Notification{
		UserID:    userID,
		Title:     title,
		Message:   message,
		Type:      kind,
		Reference: reference,
	})
	return err
}
