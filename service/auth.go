package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/cinevault/cinevault/config"
	"github.com/cinevault/cinevault/entity"
	"github.com/cinevault/cinevault/repository"
	"github.com/cinevault/cinevault/utils"
)

// RegisterRequest carries a signup attempt. ConfirmPassword is checked
// before anything touches the database.
type RegisterRequest struct {
	Email           string
	Password        string
	ConfirmPassword string
}

// AuthService owns account creation and session lifecycle. One active
// session per user: the issued token is cached under session:<uid> and
// login replaces whatever was there.
type AuthService struct {
	cfg   *config.EnvConfig
	users *repository.UserRepository
	cache Cache
}

func NewAuthService(cfg *config.EnvConfig, users *repository.UserRepository, cache Cache) *AuthService {
	return &AuthService{
		cfg:   cfg,
		users: users,
		cache: cache,
	}
}

func sessionKey(userID uuid.UUID) string {
	return fmt.Sprintf("session:%s", userID)
}

// Register creates a new account. Field-level problems (missing email,
// password mismatch, short password) are rejected locally; only a
// clean request reaches the users table.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*entity.User, error) {
	if req.Email == "" || req.Password == "" {
		return nil, fmt.Errorf("%w: email and password are required", ErrInvalidInput)
	}
	if req.Password != req.ConfirmPassword {
		return nil, fmt.Errorf("%w: passwords do not match", ErrInvalidInput)
	}
	if len(req.Password) < 6 {
		return nil, fmt.Errorf("%w: password must be at least 6 characters", ErrInvalidInput)
	}

	if _, err := s.users.FindByEmail(req.Email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("check existing email: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &entity.User{
		ID:           uuid.New(),
		Email:        req.Email,
		PasswordHash: string(hash),
	}
	if err := s.users.Create(user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// Login verifies credentials and issues a signed token. The token is
// also cached so logout can revoke it before its expiry.
func (s *AuthService) Login(ctx context.Context, email, password string) (*entity.User, string, error) {
	if email == "" || password == "" {
		return nil, "", fmt.Errorf("%w: email and password are required", ErrInvalidInput)
	}

	user, err := s.users.FindByEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrUnauthorized
		}
		return nil, "", fmt.Errorf("find user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, "", ErrUnauthorized
	}

	token, err := utils.GenerateToken(user.ID, user.Email, s.cfg)
	if err != nil {
		return nil, "", fmt.Errorf("generate token: %w", err)
	}

	expire := time.Duration(s.cfg.JWT.Expire) * time.Second
	if err := s.cache.Set(ctx, sessionKey(user.ID), token, expire); err != nil {
		return nil, "", fmt.Errorf("store session: %w", err)
	}
	return user, token, nil
}

// Logout revokes the cached session. A token that passes signature
// checks is still refused by the middleware once this key is gone.
func (s *AuthService) Logout(ctx context.Context, userID uuid.UUID) error {
	if err := s.cache.Delete(ctx, sessionKey(userID)); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}

// ValidateSession reports whether the presented token is the one
// currently cached for the user.
func (s *AuthService) ValidateSession(ctx context.Context, userID uuid.UUID, token string) (bool, error) {
	var cached string
	if err := s.cache.Get(ctx, sessionKey(userID), &cached); err != nil {
		return false, nil
	}
	return cached == token, nil
}

// CurrentUser loads the account behind an authenticated request.
func (s *AuthService) CurrentUser(ctx context.Context, userID uuid.UUID) (*entity.User, error) {
	user, err := s.users.FindByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return user, nil
}
