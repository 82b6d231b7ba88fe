package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/novelvip/novelsync/internal/store/model"
	"gorm.io/gorm"
)

type User interface {
	InitialMigration() error
	Create(ctx context.Context, user model.User) (*model.User, error)
	Get(ctx context.Context, id uuid.UUID) (*model.User, error)
	Update(ctx context.Context, user *model.User) error
}

type UserStore struct {
	db *gorm.DB
}

// Make sure we conform to User interface
var _ User = (*UserStore)(nil)

func NewUserStore(db *gorm.DB) User {
	return &UserStore{db: db}
}

func (s *UserStore) InitialMigration() error {
	return s.db.AutoMigrate(&model.User{})
}

func (s *UserStore) Create(ctx context.Context, user model.User) (*model.User, error) {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	result := s.getDB(ctx).Create(&user)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateKey
		}
		return nil, fmt.Errorf("creating user: %w", result.Error)
	}
	return &user, nil
}

func (s *UserStore) Get(ctx context.Context, id uuid.UUID) (*model.User, error) {
	var user model.User
	result := s.getDB(ctx).First(&user, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("querying user: %w", result.Error)
	}
	return &user, nil
}

func (s *UserStore) Update(ctx context.Context, user *model.User) error {
	result := s.getDB(ctx).Save(user)
	if result.Error != nil {
		return fmt.Errorf("updating user: %w", result.Error)
	}
	return nil
}

func (s *UserStore) getDB(ctx context.Context) *gorm.DB {
	tx := FromContext(ctx)
	if tx != nil {
		return tx
	}
	return s.db
}
