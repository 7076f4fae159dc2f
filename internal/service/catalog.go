package service

import (
	"context"

	"github.com/capitalize-ai/aichat/internal/llm"
	"github.com/capitalize-ai/aichat/internal/model"
)

// ModelCatalog lists the models the configured provider serves.
type ModelCatalog struct {
	client llm.Client
}

// NewModelCatalog creates a catalog over client.
func NewModelCatalog(client llm.Client) *ModelCatalog {
	return &ModelCatalog{client: client}
}

func (c *ModelCatalog) List(ctx context.Context) []model.AIModel {
	names := c.client.Models()
	models := make([]model.AIModel, 0, len(names))
	for _, name := range names {
		models = append(models, model.AIModel{
			ID:        name,
			Name:      c.client.Name() + "/" + name,
			Available: true,
		})
	}
	return models
}

// StatisticsService summarizes a user's usage.
type StatisticsService struct {
	conversations *ConversationService
	roles         *RoleService
}

// NewStatisticsService creates a new statistics service.
func NewStatisticsService(conversations *ConversationService, roles *RoleService) *StatisticsService {
	return &StatisticsService{conversations: conversations, roles: roles}
}

func (s *StatisticsService) Get(ctx context.Context, userID int64) model.Statistics {
	active, recycled, messages := s.conversations.Counts(userID)
	return model.Statistics{
		TotalConversations:   active,
		TotalMessages:        messages,
		DeletedConversations: recycled,
		TotalRoles:           s.roles.CountOwned(userID),
	}
}
