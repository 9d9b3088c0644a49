package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/psundaram/drillmaster/internal/model/user"
	"github.com/psundaram/drillmaster/internal/store"
)

var (
	ErrMissingFields      = errors.New("email and password are required")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// Service manages account creation and password verification.
type Service struct {
	repo store.Repository
}

// NewService creates the auth service.
func NewService(repo store.Repository) *Service {
	return &Service{repo: repo}
}

// SignUp registers a new account.
func (s *Service) SignUp(ctx context.Context, email, password string) (*user.User, error) {
	if email == "" || password == "" {
		return nil, ErrMissingFields
	}

	if _, err := s.repo.GetUserByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &user.User{Email: email, PasswordHash: string(hash)}
	if err := s.repo.CreateUser(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Login verifies credentials and stamps the last login time.
func (s *Service) Login(ctx context.Context, email, password string) (*user.User, error) {
	if email == "" || password == "" {
		return nil, ErrMissingFields
	}

	u, err := s.repo.GetUserByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}

	now := time.Now().UTC()
	if err := s.repo.UpdateLastLogin(ctx, u.ID, now); err != nil {
		log.Printf("[auth] failed to update last login for user=%s: %v", u.ID, err)
	} else {
		u.LastLogin = now
	}

	return u, nil
}

// EnsureAdmin creates the bootstrap admin account when it does not exist.
func (s *Service) EnsureAdmin(ctx context.Context, email, password string) error {
	if _, err := s.repo.GetUserByEmail(ctx, email); err == nil {
		return nil
	} else if !errors.Is(err, store.ErrNotFound) {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	u := &user.User{Email: email, PasswordHash: string(hash), IsAdmin: true}
	if err := s.repo.CreateUser(ctx, u); err != nil {
		return err
	}
	log.Printf("[auth] bootstrap admin account created: %s", email)
	return nil
}
