package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/containerhub/containerhub/internal/config"
	"github.com/containerhub/containerhub/internal/entities"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidToken       = errors.New("invalid token")
	ErrInvalidRole        = errors.New("invalid role")
	ErrUsernameTaken      = errors.New("username already exists")
)

// UserStore is the subset of database operations the auth service needs.
type UserStore interface {
	GetUserByUsername(username string) (*entities.User, error)
	GetUserByTokenHash(tokenHash string) (*entities.User, error)
	CreateUser(user *entities.User) error
	UpdateUser(id uint, updates map[string]interface{}) error
	HasUsers() (bool, error)
}

// Service handles user management and token validation.
type Service struct {
	store  UserStore
	config config.Auth
}

func NewService(store UserStore, cfg config.Auth) *Service {
	return &Service{store: store, config: cfg}
}

// IsAuthEnabled reports whether token authentication is active.
func (s *Service) IsAuthEnabled() bool {
	return s.config.Mode == config.AuthModeToken
}

// CreateUser registers a new user with the given role.
func (s *Service) CreateUser(orgID uint, username, email, password string, role entities.UserRole) (*entities.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, fmt.Errorf("username must not be empty")
	}
	if !entities.ValidUserRole(role) {
		return nil, ErrInvalidRole
	}

	if _, err := s.store.GetUserByUsername(username); err == nil {
		return nil, ErrUsernameTaken
	}

	hash, err := HashPassword(password, s.config.BcryptCost)
	if err != nil {
		return nil, err
	}

	user := &entities.User{
		OrganizationID: orgID,
		Username:       username,
		Email:          email,
		PasswordHash:   hash,
		Role:           role,
	}
	if err := s.store.CreateUser(user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// Authenticate checks a username/password pair.
func (s *Service) Authenticate(username, password string) (*entities.User, error) {
	user, err := s.store.GetUserByUsername(username)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	if err := CheckPassword(password, user.PasswordHash); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// ValidateToken checks a plaintext bearer token and returns the associated user.
func (s *Service) ValidateToken(token string) (*entities.User, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}
	user, err := s.store.GetUserByTokenHash(HashToken(token))
	if err != nil {
		return nil, ErrInvalidToken
	}
	return user, nil
}

// GenerateToken creates a new API token for a user.
// Returns the plaintext token (shown once) - only the hash is stored.
func (s *Service) GenerateToken(userID uint) (string, error) {
	plaintext, hash, err := GenerateAPIToken()
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}

	now := time.Now()
	err = s.store.UpdateUser(userID, map[string]interface{}{
		"token_hash":       hash,
		"token_created_at": now,
	})
	if err != nil {
		return "", fmt.Errorf("failed to save token: %w", err)
	}
	return plaintext, nil
}

// RevokeToken removes a user's API token.
func (s *Service) RevokeToken(userID uint) error {
	return s.store.UpdateUser(userID, map[string]interface{}{
		"token_hash":       "",
		"token_created_at": nil,
	})
}

// HasUsers reports whether any user exists yet.
func (s *Service) HasUsers() (bool, error) {
	return s.store.HasUsers()
}
