package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/capitalize-ai/aichat/internal/model"
	"github.com/capitalize-ai/aichat/pkg/logger"
)

const maxRoleNameLength = 100

// systemOwner owns the built-in public roles.
const systemOwner int64 = 0

type roleRecord struct {
	ownerID int64
	role    model.AIRole
}

// RoleService manages AI role presets.
type RoleService struct {
	logger *logger.Logger
	now    func() time.Time

	roles  map[int64]*roleRecord
	nextID int64
	mu     sync.RWMutex
}

// NewRoleService creates a new role service.
func NewRoleService(log *logger.Logger) *RoleService {
	return &RoleService{
		logger: log,
		now:    time.Now,
		roles:  make(map[int64]*roleRecord),
	}
}

// SeedDefaults installs the built-in public roles.
func (s *RoleService) SeedDefaults() {
	defaults := []model.RoleRequest{
		{
			Name:         "General Assistant",
			Description:  "A helpful assistant for everyday questions",
			SystemPrompt: defaultSystemPrompt,
			IsPublic:     true,
		},
		{
			Name:         "Code Reviewer",
			Description:  "Reviews code for bugs and readability",
			SystemPrompt: "You are a senior software engineer. Review the code you are given and point out bugs, risks and readability problems.",
			IsPublic:     true,
		},
		{
			Name:         "Translator",
			Description:  "Translates text between languages",
			SystemPrompt: "You are a professional translator. Translate the user's text faithfully and keep its tone.",
			IsPublic:     true,
		},
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, req := range defaults {
		s.insertLocked(systemOwner, req)
	}
}

// Create adds a role owned by userID.
func (s *RoleService) Create(ctx context.Context, userID int64, req model.RoleRequest) (model.AIRole, error) {
	if err := validateRole(req); err != nil {
		return model.AIRole{}, err
	}

	s.mu.Lock()
	role := s.insertLocked(userID, req)
	s.mu.Unlock()

	s.logger.Info("role created", zap.Int64("role_id", role.ID), zap.Int64("user_id", userID))
	return role, nil
}

// Mine lists the roles owned by userID.
func (s *RoleService) Mine(ctx context.Context, userID int64) []model.AIRole {
	return s.filter(func(rec *roleRecord) bool { return rec.ownerID == userID })
}

// Public lists the roles visible to everyone.
func (s *RoleService) Public(ctx context.Context) []model.AIRole {
	return s.filter(func(rec *roleRecord) bool { return rec.role.IsPublic })
}

// Update replaces a role's fields. Only the owner may update it.
func (s *RoleService) Update(ctx context.Context, userID, id int64, req model.RoleRequest) (model.AIRole, error) {
	if err := validateRole(req); err != nil {
		return model.AIRole{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.roles[id]
	if !ok || rec.ownerID != userID {
		return model.AIRole{}, ErrRoleNotFound
	}
	rec.role.Name = strings.TrimSpace(req.Name)
	rec.role.Description = req.Description
	rec.role.SystemPrompt = req.SystemPrompt
	rec.role.Model = req.Model
	rec.role.IsPublic = req.IsPublic
	return rec.role, nil
}

// Delete removes a role. Only the owner may delete it.
func (s *RoleService) Delete(ctx context.Context, userID, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.roles[id]
	if !ok || rec.ownerID != userID {
		return ErrRoleNotFound
	}
	delete(s.roles, id)
	return nil
}

// Visible returns a role the user may attach: their own or a public one.
func (s *RoleService) Visible(userID, id int64) (model.AIRole, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.roles[id]
	if !ok || (rec.ownerID != userID && !rec.role.IsPublic) {
		return model.AIRole{}, false
	}
	return rec.role, true
}

// CountOwned returns how many roles userID owns.
func (s *RoleService) CountOwned(userID int64) int {
	return len(s.Mine(context.Background(), userID))
}

func (s *RoleService) insertLocked(ownerID int64, req model.RoleRequest) model.AIRole {
	s.nextID++
	rec := &roleRecord{
		ownerID: ownerID,
		role: model.AIRole{
			ID:           s.nextID,
			Name:         strings.TrimSpace(req.Name),
			Description:  req.Description,
			SystemPrompt: req.SystemPrompt,
			Model:        req.Model,
			IsPublic:     req.IsPublic,
			CreatedAt:    s.now(),
		},
	}
	s.roles[rec.role.ID] = rec
	return rec.role
}

func (s *RoleService) filter(keep func(*roleRecord) bool) []model.AIRole {
	s.mu.RLock()
	defer s.mu.RUnlock()

	roles := make([]model.AIRole, 0)
	for _, rec := range s.roles {
		if keep(rec) {
			roles = append(roles, rec.role)
		}
	}
	sort.Slice(roles, func(i, j int) bool { return roles[i].ID < roles[j].ID })
	return roles
}

func validateRole(req model.RoleRequest) error {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return Invalid("role name is required")
	}
	if len(name) > maxRoleNameLength {
		return Invalid("role name exceeds maximum length")
	}
	return nil
}
