package service

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/capitalize-ai/aichat/internal/model"
	"github.com/capitalize-ai/aichat/pkg/logger"
	"github.com/capitalize-ai/aichat/pkg/metrics"
)

const maxTitleLength = 30

type conversationRecord struct {
	userID int64
	conv   model.Conversation
}

// ConversationService handles conversation operations.
type ConversationService struct {
	roles  *RoleService
	events EventPublisher
	logger *logger.Logger
	now    func() time.Time

	// In-memory storage for conversations (would be replaced with a database in production)
	conversations map[int64]*conversationRecord
	nextConvID    int64
	nextMsgID     int64
	mu            sync.RWMutex
}

// NewConversationService creates a new conversation service.
func NewConversationService(roles *RoleService, events EventPublisher, log *logger.Logger) *ConversationService {
	if events == nil {
		events = NopPublisher{}
	}
	return &ConversationService{
		roles:         roles,
		events:        events,
		logger:        log,
		now:           time.Now,
		conversations: make(map[int64]*conversationRecord),
	}
}

// Create creates a new conversation, optionally bound to an AI role.
func (s *ConversationService) Create(ctx context.Context, userID int64, req model.CreateConversationRequest) (model.Conversation, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = model.DefaultConversationTitle
	}

	conv := model.Conversation{
		Title:         title,
		SelectedModel: req.SelectedModel,
		Messages:      []model.Message{},
	}
	if req.AIRoleID != nil {
		role, ok := s.roles.Visible(userID, *req.AIRoleID)
		if !ok {
			return model.Conversation{}, ErrAIRoleNotFound
		}
		id := role.ID
		conv.AIRoleID = &id
		conv.AIRoleName = role.Name
		conv.AIRoleDescription = role.Description
		if conv.SelectedModel == "" {
			conv.SelectedModel = role.Model
		}
	}

	s.mu.Lock()
	s.nextConvID++
	conv.ID = s.nextConvID
	conv.CreatedAt = s.now()
	s.conversations[conv.ID] = &conversationRecord{userID: userID, conv: conv}
	s.mu.Unlock()

	s.logger.Info("conversation created",
		zap.Int64("conversation_id", conv.ID),
		zap.Int64("user_id", userID),
	)
	s.publish(ctx, userID, conv.ID, model.EventTypeCreated, nil)

	return conv, nil
}

// List returns the active conversations of a user, most recently active first.
// Messages are omitted.
func (s *ConversationService) List(ctx context.Context, userID int64) []model.Conversation {
	convs := s.collect(userID, func(c *model.Conversation) bool { return !c.Recycled() })
	sort.Slice(convs, func(i, j int) bool {
		ai, aj := activity(&convs[i]), activity(&convs[j])
		if ai.Equal(aj) {
			return convs[i].ID > convs[j].ID
		}
		return ai.After(aj)
	})
	return convs
}

// ListDeleted returns the recycle bin of a user, most recently deleted first.
func (s *ConversationService) ListDeleted(ctx context.Context, userID int64) []model.Conversation {
	convs := s.collect(userID, func(c *model.Conversation) bool { return c.Recycled() })
	sort.Slice(convs, func(i, j int) bool {
		return convs[i].DeletedAt.After(*convs[j].DeletedAt)
	})
	return convs
}

// Get returns a conversation with its messages.
func (s *ConversationService) Get(ctx context.Context, userID, id int64) (model.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, err := s.lookupLocked(userID, id)
	if err != nil {
		return model.Conversation{}, err
	}
	return copyConversation(&rec.conv, true), nil
}

// Delete moves a conversation to the recycle bin. A permanent delete, or a
// delete of a conversation already in the recycle bin, removes it for good.
func (s *ConversationService) Delete(ctx context.Context, userID, id int64, permanent bool) error {
	s.mu.Lock()
	rec, err := s.lookupLocked(userID, id)
	if err != nil {
		s.mu.Unlock()
		return err
	}

	event := model.EventTypeDeleted
	if permanent || rec.conv.Recycled() {
		delete(s.conversations, id)
		event = model.EventTypePurged
	} else {
		now := s.now()
		rec.conv.DeletedAt = &now
	}
	s.mu.Unlock()

	s.logger.Info("conversation deleted",
		zap.Int64("conversation_id", id),
		zap.Bool("permanent", event == model.EventTypePurged),
	)
	s.publish(ctx, userID, id, event, nil)
	return nil
}

// Restore takes a conversation out of the recycle bin.
func (s *ConversationService) Restore(ctx context.Context, userID, id int64) error {
	s.mu.Lock()
	rec, err := s.lookupLocked(userID, id)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	if !rec.conv.Recycled() {
		s.mu.Unlock()
		return ErrNotInRecycleBin
	}
	rec.conv.DeletedAt = nil
	s.mu.Unlock()

	s.publish(ctx, userID, id, model.EventTypeRestored, nil)
	return nil
}

// EmptyRecycleBin permanently removes every recycled conversation of a user.
func (s *ConversationService) EmptyRecycleBin(ctx context.Context, userID int64) int {
	s.mu.Lock()
	var purged []int64
	for id, rec := range s.conversations {
		if rec.userID == userID && rec.conv.Recycled() {
			delete(s.conversations, id)
			purged = append(purged, id)
		}
	}
	s.mu.Unlock()

	for _, id := range purged {
		s.publish(ctx, userID, id, model.EventTypePurged, nil)
	}
	s.logger.Info("recycle bin emptied",
		zap.Int64("user_id", userID),
		zap.Int("count", len(purged)),
	)
	return len(purged)
}

// UpdateModel binds a model to a conversation.
func (s *ConversationService) UpdateModel(ctx context.Context, userID, id int64, selectedModel string) (model.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.lookupLocked(userID, id)
	if err != nil {
		return model.Conversation{}, err
	}
	rec.conv.SelectedModel = selectedModel
	return copyConversation(&rec.conv, false), nil
}

// Counts returns the active, recycled and message totals of a user.
func (s *ConversationService) Counts(userID int64) (active, recycled, messages int) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, rec := range s.conversations {
		if rec.userID != userID {
			continue
		}
		if rec.conv.Recycled() {
			recycled++
		} else {
			active++
		}
		messages += len(rec.conv.Messages)
	}
	return active, recycled, messages
}

// appendExchange stores a user message and its reply, stamps the activity time
// and derives a title from the first message of an untitled conversation.
func (s *ConversationService) appendExchange(ctx context.Context, userID, id int64, prompt string, user, reply model.Message) (model.Message, error) {
	s.mu.Lock()
	rec, err := s.lookupLocked(userID, id)
	if err != nil {
		s.mu.Unlock()
		return model.Message{}, err
	}

	now := s.now()
	s.nextMsgID++
	user.ID = s.nextMsgID
	user.CreatedAt = now
	s.nextMsgID++
	reply.ID = s.nextMsgID
	reply.CreatedAt = now

	if len(rec.conv.Messages) == 0 && rec.conv.Title == model.DefaultConversationTitle {
		rec.conv.Title = deriveTitle(prompt)
	}
	rec.conv.Messages = append(rec.conv.Messages, user, reply)
	rec.conv.LastMessageAt = &now
	s.mu.Unlock()

	s.publish(ctx, userID, id, model.EventTypeMessage, map[string]string{
		"message_id": strconv.FormatInt(reply.ID, 10),
	})
	return reply, nil
}

func (s *ConversationService) lookupLocked(userID, id int64) (*conversationRecord, error) {
	rec, ok := s.conversations[id]
	if !ok || rec.userID != userID {
		return nil, ErrConversationNotFound
	}
	return rec, nil
}

func (s *ConversationService) collect(userID int64, keep func(*model.Conversation) bool) []model.Conversation {
	s.mu.RLock()
	defer s.mu.RUnlock()

	convs := make([]model.Conversation, 0)
	for _, rec := range s.conversations {
		if rec.userID == userID && keep(&rec.conv) {
			convs = append(convs, copyConversation(&rec.conv, false))
		}
	}
	return convs
}

func (s *ConversationService) publish(ctx context.Context, userID, convID int64, eventType model.EventType, meta map[string]string) {
	metrics.ConversationEventsTotal.WithLabelValues(string(eventType)).Inc()

	_, err := s.events.PublishEvent(ctx, &model.ConversationEvent{
		ID:             uuid.Must(uuid.NewV7()).String(),
		ConversationID: convID,
		UserID:         userID,
		Type:           eventType,
		Metadata:       meta,
		CreatedAt:      s.now(),
	})
	if err != nil {
		s.logger.Warn("failed to publish conversation event",
			zap.Int64("conversation_id", convID),
			zap.String("type", string(eventType)),
			zap.Error(err),
		)
	}
}

func copyConversation(c *model.Conversation, withMessages bool) model.Conversation {
	out := *c
	out.Messages = nil
	if withMessages {
		out.Messages = append([]model.Message{}, c.Messages...)
	}
	return out
}

func activity(c *model.Conversation) time.Time {
	if c.LastMessageAt != nil {
		return *c.LastMessageAt
	}
	return c.CreatedAt
}

func deriveTitle(prompt string) string {
	prompt = strings.Join(strings.Fields(prompt), " ")
	if prompt == "" {
		return model.DefaultConversationTitle
	}
	if utf8.RuneCountInString(prompt) <= maxTitleLength {
		return prompt
	}
	return string([]rune(prompt)[:maxTitleLength]) + "..."
}
