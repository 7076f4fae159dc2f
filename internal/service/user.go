// Package service provides business logic for the chat backend.
package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/capitalize-ai/aichat/internal/model"
	"github.com/capitalize-ai/aichat/pkg/logger"
)

const (
	minUsernameLength = 3
	maxUsernameLength = 50
	minPasswordLength = 6
)

type account struct {
	user model.User
	hash []byte
}

// UserService handles accounts and credentials.
type UserService struct {
	logger *logger.Logger
	cost   int
	now    func() time.Time

	// In-memory storage for accounts (would be replaced with a database in production)
	users  map[int64]*account
	byName map[string]int64
	nextID int64
	mu     sync.RWMutex
}

// NewUserService creates a new user service. A zero cost selects bcrypt.DefaultCost.
func NewUserService(cost int, log *logger.Logger) *UserService {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &UserService{
		logger: log,
		cost:   cost,
		now:    time.Now,
		users:  make(map[int64]*account),
		byName: make(map[string]int64),
	}
}

// Register creates an account with a unique username.
func (s *UserService) Register(ctx context.Context, req model.RegisterRequest) (model.User, error) {
	username := strings.TrimSpace(req.Username)
	if n := len(username); n < minUsernameLength || n > maxUsernameLength {
		return model.User{}, Invalid("username must be between 3 and 50 characters")
	}
	if len(req.Password) < minPasswordLength {
		return model.User{}, Invalid("password must be at least 6 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cost)
	if err != nil {
		return model.User{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.byName[username]; taken {
		return model.User{}, ErrUsernameTaken
	}
	if req.Email != "" && s.emailTakenLocked(req.Email, 0) {
		return model.User{}, ErrEmailTaken
	}

	s.nextID++
	acct := &account{
		user: model.User{
			ID:        s.nextID,
			Username:  username,
			Email:     req.Email,
			Nickname:  req.Nickname,
			CreatedAt: s.now(),
		},
		hash: hash,
	}
	s.users[acct.user.ID] = acct
	s.byName[username] = acct.user.ID

	s.logger.Info("user registered",
		zap.Int64("user_id", acct.user.ID),
		zap.String("username", username),
	)

	return acct.user, nil
}

// Authenticate checks a username and password pair.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (model.User, error) {
	s.mu.RLock()
	id, ok := s.byName[strings.TrimSpace(username)]
	var acct account
	if ok {
		acct = *s.users[id]
	}
	s.mu.RUnlock()

	if !ok || bcrypt.CompareHashAndPassword(acct.hash, []byte(password)) != nil {
		return model.User{}, ErrInvalidCredentials
	}
	return acct.user, nil
}

// Get returns the profile of a user.
func (s *UserService) Get(ctx context.Context, id int64) (model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	acct, ok := s.users[id]
	if !ok {
		return model.User{}, ErrUserNotFound
	}
	return acct.user, nil
}

// UpdateProfile changes the non-empty profile fields.
func (s *UserService) UpdateProfile(ctx context.Context, id int64, req model.UpdateProfileRequest) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acct, ok := s.users[id]
	if !ok {
		return model.User{}, ErrUserNotFound
	}

	if req.Email != "" && req.Email != acct.user.Email {
		if s.emailTakenLocked(req.Email, id) {
			return model.User{}, ErrEmailTaken
		}
		acct.user.Email = req.Email
	}
	if req.Nickname != "" {
		acct.user.Nickname = req.Nickname
	}
	if req.Avatar != "" {
		acct.user.Avatar = req.Avatar
	}

	return acct.user, nil
}

// ChangePassword replaces the password after checking the current one.
func (s *UserService) ChangePassword(ctx context.Context, id int64, req model.ChangePasswordRequest) error {
	if len(req.NewPassword) < minPasswordLength {
		return Invalid("password must be at least 6 characters")
	}

	s.mu.RLock()
	acct, ok := s.users[id]
	var current []byte
	if ok {
		current = acct.hash
	}
	s.mu.RUnlock()

	if !ok {
		return ErrUserNotFound
	}
	if bcrypt.CompareHashAndPassword(current, []byte(req.OldPassword)) != nil {
		return ErrWrongPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), s.cost)
	if err != nil {
		return err
	}

	s.mu.Lock()
	acct.hash = hash
	s.mu.Unlock()

	s.logger.Info("password changed", zap.Int64("user_id", id))
	return nil
}

func (s *UserService) emailTakenLocked(email string, except int64) bool {
	for id, acct := range s.users {
		if id != except && strings.EqualFold(acct.user.Email, email) {
			return true
		}
	}
	return false
}
