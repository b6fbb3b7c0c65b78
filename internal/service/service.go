package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/yingshengwanyue/zhouzhou/internal/models"
	"github.com/yingshengwanyue/zhouzhou/internal/repository"
)

// Service handles business logic
type Service struct {
	repo *repository.Repository
	log  *logrus.Logger
}

// NewService initializes a new service
func NewService(repo *repository.Repository, log *logrus.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// Login verifies credentials and returns the matching user. Unknown
// usernames and wrong passwords are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, username, password string) (*models.User, error) {
	user, err := s.repo.FindUserByUsername(ctx, username)
	if errors.Is(err, models.ErrNotFound) {
		return nil, models.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, models.ErrInvalidCredentials
	}

	s.log.Infof("User logged in: %s", user.Username)
	return user, nil
}

// CreateUser provisions a new account with a hashed password.
func (s *Service) CreateUser(ctx context.Context, username, password string) (int64, error) {
	if strings.TrimSpace(username) == "" || password == "" {
		return 0, models.ErrValidation
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return 0, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username:     username,
		PasswordHash: string(hashed),
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		return 0, err
	}

	s.log.Infof("User created: %s", user.Username)
	return user.ID, nil
}

// EnsureDefaultUser provisions the configured default account when the
// users table is empty, so a fresh install is usable out of the box.
func (s *Service) EnsureDefaultUser(ctx context.Context, username, password string) error {
	count, err := s.repo.CountUsers(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	if _, err := s.CreateUser(ctx, username, password); err != nil {
		// Lost a race with another instance bootstrapping the same store.
		if errors.Is(err, models.ErrDuplicateUsername) {
			return nil
		}
		return err
	}

	s.log.Infof("Default user created: username=%s", username)
	return nil
}

// CreateEntry validates and stores a new diary entry for the user.
func (s *Service) CreateEntry(ctx context.Context, userID int64, title, content string, images []string) (int64, error) {
	if strings.TrimSpace(title) == "" || strings.TrimSpace(content) == "" {
		return 0, models.ErrValidation
	}

	entry := &models.DiaryEntry{
		UserID:  userID,
		Title:   title,
		Content: content,
		Images:  images,
	}
	if err := s.repo.CreateEntry(ctx, entry); err != nil {
		return 0, err
	}

	s.log.Infof("Diary entry %d created for user %d", entry.ID, userID)
	return entry.ID, nil
}

// ListEntries returns the user's entries, newest first.
func (s *Service) ListEntries(ctx context.Context, userID int64) ([]models.DiaryEntry, error) {
	return s.repo.ListEntries(ctx, userID)
}

// GetEntry returns one owned entry, or models.ErrNotFound.
func (s *Service) GetEntry(ctx context.Context, userID, id int64) (*models.DiaryEntry, error) {
	return s.repo.GetEntry(ctx, userID, id)
}

// UpdateEntry validates and rewrites an owned entry. models.ErrNotFound
// covers both an absent id and an id owned by another user.
func (s *Service) UpdateEntry(ctx context.Context, userID, id int64, title, content string, images []string) error {
	if strings.TrimSpace(title) == "" || strings.TrimSpace(content) == "" {
		return models.ErrValidation
	}

	affected, err := s.repo.UpdateEntry(ctx, userID, id, title, content, images)
	if err != nil {
		return err
	}
	if affected == 0 {
		return models.ErrNotFound
	}

	s.log.Infof("Diary entry %d updated for user %d", id, userID)
	return nil
}

// DeleteEntry removes an owned entry permanently.
func (s *Service) DeleteEntry(ctx context.Context, userID, id int64) error {
	affected, err := s.repo.DeleteEntry(ctx, userID, id)
	if err != nil {
		return err
	}
	if affected == 0 {
		return models.ErrNotFound
	}

	s.log.Infof("Diary entry %d deleted for user %d", id, userID)
	return nil
}

// SearchEntries returns the user's entries matching the literal query.
func (s *Service) SearchEntries(ctx context.Context, userID int64, query string) ([]models.DiaryEntry, error) {
	return s.repo.SearchEntries(ctx, userID, query)
}
