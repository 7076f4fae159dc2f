package chat

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/capitalize-ai/aichat/internal/model"
	"github.com/capitalize-ai/aichat/internal/notify"
	"github.com/capitalize-ai/aichat/pkg/metrics"
)

// Select makes the directory entry id the active conversation.
func (s *Store) Select(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.conversations[id]; !ok {
		return ErrConversationNotLoaded
	}
	s.activeID = id
	return nil
}

// Clear detaches the active conversation.
func (s *Store) Clear() {
	s.mu.Lock()
	s.activeID = 0
	s.mu.Unlock()
}

// Active returns the active conversation.
func (s *Store) Active() (model.Conversation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	conv := s.conversations[s.activeID]
	if conv == nil {
		return model.Conversation{}, false
	}
	return snapshot(conv), true
}

// ActiveID returns the id of the active conversation, or 0.
func (s *Store) ActiveID() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activeID
}

// LoadConversation fetches a conversation with its messages and selects it.
func (s *Store) LoadConversation(ctx context.Context, id int64) (model.Conversation, error) {
	done := s.beginLoading()
	defer done()

	conv, err := s.api.GetConversation(ctx, id)
	if err != nil {
		notify.Error(s.notifier, "Failed to load conversation")
		return model.Conversation{}, fmt.Errorf("load conversation %d: %w", id, err)
	}

	s.mu.Lock()
	stored := s.upsertLocked(*conv)
	s.activeID = stored.ID
	out := snapshot(stored)
	s.mu.Unlock()
	return out, nil
}

// UpdateModel changes the model bound to the active conversation.
func (s *Store) UpdateModel(ctx context.Context, selectedModel string) error {
	id := s.ActiveID()
	if id == 0 {
		notify.Error(s.notifier, "Please select a conversation first")
		return ErrNoActiveConversation
	}

	if err := s.api.UpdateConversationModel(ctx, id, selectedModel); err != nil {
		notify.Error(s.notifier, "Failed to update model")
		return fmt.Errorf("update model: %w", err)
	}

	s.mu.Lock()
	if conv := s.conversations[id]; conv != nil {
		conv.SelectedModel = selectedModel
	}
	s.mu.Unlock()
	return nil
}

// SendMessage appends the user's message optimistically, sends it and appends
// the reply. On failure the optimistic message is removed again, so the log is
// exactly as it was before the call. Calls are serialized.
func (s *Store) SendMessage(ctx context.Context, content, modelName string) (model.Message, error) {
	s.sendMu.Lock()
	defer s.sendMu.Unlock()

	s.mu.Lock()
	conv := s.conversations[s.activeID]
	if conv == nil {
		s.mu.Unlock()
		notify.Error(s.notifier, "Please select a conversation first")
		return model.Message{}, ErrNoActiveConversation
	}

	s.sending = true
	now := s.now()
	optimistic := model.Message{
		ID:        now.UnixMilli(),
		Content:   content,
		Role:      model.RoleUser,
		CreatedAt: now,
	}
	conv.Messages = append(conv.Messages, optimistic)
	req := model.SendMessageRequest{
		ConversationID: conv.ID,
		Content:        content,
		AIRoleID:       conv.AIRoleID,
		Model:          modelName,
	}
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.sending = false
		s.mu.Unlock()
	}()

	reply, err := s.api.SendMessage(ctx, req)

	s.mu.Lock()
	target := s.conversations[req.ConversationID]
	if target == nil {
		// Deleted while the send was in flight; the old entry is detached.
		target = conv
	}
	if err != nil {
		target.Messages = dropMessage(target.Messages, optimistic)
		s.mu.Unlock()

		metrics.MessagesSentTotal.WithLabelValues("failed").Inc()
		s.logger.Warn("send failed", zap.Int64("conversation_id", req.ConversationID), zap.Error(err))
		notify.Error(s.notifier, "Failed to send message")
		return model.Message{}, fmt.Errorf("send message: %w", err)
	}

	target.Messages = append(target.Messages, *reply)
	at := reply.CreatedAt
	target.LastMessageAt = &at
	s.mu.Unlock()

	metrics.MessagesSentTotal.WithLabelValues("ok").Inc()
	return *reply, nil
}

// dropMessage removes the last occurrence of the optimistic message.
func dropMessage(msgs []model.Message, m model.Message) []model.Message {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].ID == m.ID && msgs[i].Role == m.Role && msgs[i].Content == m.Content {
			return append(msgs[:i], msgs[i+1:]...)
		}
	}
	return msgs
}
