package chat

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/capitalize-ai/aichat/internal/model"
	"github.com/capitalize-ai/aichat/internal/notify"
	"github.com/capitalize-ai/aichat/pkg/metrics"
)

// LoadAll replaces the directory with the server's active list. Overlapping
// calls are not serialized; the last to resolve wins.
func (s *Store) LoadAll(ctx context.Context) error {
	done := s.beginLoading()
	defer done()

	convs, err := s.api.ListConversations(ctx)
	if err != nil {
		notify.Error(s.notifier, "Failed to load conversations")
		return fmt.Errorf("load conversations: %w", err)
	}

	s.mu.Lock()
	s.replaceAllLocked(convs)
	s.mu.Unlock()

	s.logger.Debug("conversations loaded", zap.Int("count", len(convs)))
	return nil
}

// Create starts a conversation, puts it first in the directory and selects it.
func (s *Store) Create(ctx context.Context, title string, aiRoleID *int64, selectedModel string) (model.Conversation, error) {
	conv, err := s.api.CreateConversation(ctx, model.CreateConversationRequest{
		Title:         title,
		AIRoleID:      aiRoleID,
		SelectedModel: selectedModel,
	})
	if err != nil {
		notify.Error(s.notifier, "Failed to create conversation")
		return model.Conversation{}, fmt.Errorf("create conversation: %w", err)
	}

	s.mu.Lock()
	stored := s.upsertLocked(*conv)
	s.activeID = stored.ID
	out := snapshot(stored)
	s.mu.Unlock()

	s.logger.Info("conversation created", zap.Int64("conversation_id", out.ID))
	return out, nil
}

// SoftDelete moves a conversation to the recycle bin.
func (s *Store) SoftDelete(ctx context.Context, id int64) error {
	return s.delete(ctx, id, false)
}

// PermanentDelete purges a conversation.
func (s *Store) PermanentDelete(ctx context.Context, id int64) error {
	return s.delete(ctx, id, true)
}

// delete issues the request, drops the entry locally on success and always
// resynchronizes with the server before returning.
func (s *Store) delete(ctx context.Context, id int64, permanent bool) error {
	err := s.api.DeleteConversation(ctx, id, permanent)
	if err == nil {
		s.mu.Lock()
		s.removeLocked(id)
		s.mu.Unlock()

		if permanent {
			notify.Success(s.notifier, "Conversation permanently deleted")
		} else {
			notify.Success(s.notifier, "Conversation moved to recycle bin")
		}
	}

	trigger := "delete"
	if err != nil {
		trigger = "delete_failed"
	}
	s.reconcile(ctx, id, trigger)

	if err != nil {
		notify.Error(s.notifier, "Failed to delete conversation")
		return fmt.Errorf("delete conversation %d: %w", id, err)
	}
	return nil
}

// reconcile re-lists the directory per the reconcile policy. List failures are
// already reported by LoadAll and only logged here.
func (s *Store) reconcile(ctx context.Context, id int64, trigger string) {
	attempts := s.policy.Attempts
	if attempts < 1 {
		attempts = 1
	}
	wait := s.policy.Delay

	for i := 0; i < attempts; i++ {
		if err := sleepCtx(ctx, wait); err != nil {
			s.logger.Warn("reconcile abandoned", zap.Int64("conversation_id", id), zap.Error(err))
			return
		}
		metrics.ReconcilesTotal.WithLabelValues(trigger).Inc()

		err := s.LoadAll(ctx)
		if err != nil {
			s.logger.Warn("reconcile list failed", zap.Int64("conversation_id", id), zap.Int("attempt", i+1), zap.Error(err))
		} else if !s.listed(id) {
			return
		}
		wait = s.policy.Interval
	}
}

// LoadDeleted replaces the recycle-bin list with the server's.
func (s *Store) LoadDeleted(ctx context.Context) error {
	done := s.beginLoading()
	defer done()

	convs, err := s.api.ListDeletedConversations(ctx)
	if err != nil {
		notify.Error(s.notifier, "Failed to load recycle bin")
		return fmt.Errorf("load deleted conversations: %w", err)
	}

	s.mu.Lock()
	s.deleted = append([]model.Conversation(nil), convs...)
	s.mu.Unlock()
	return nil
}

// Restore brings a recycled conversation back and reloads the directory.
func (s *Store) Restore(ctx context.Context, id int64) error {
	if err := s.api.RestoreConversation(ctx, id); err != nil {
		notify.Error(s.notifier, "Failed to restore conversation")
		return fmt.Errorf("restore conversation %d: %w", id, err)
	}

	s.mu.Lock()
	for i := range s.deleted {
		if s.deleted[i].ID == id {
			s.deleted = append(s.deleted[:i], s.deleted[i+1:]...)
			break
		}
	}
	s.mu.Unlock()

	notify.Success(s.notifier, "Conversation restored")
	// The restore stands even when the reload fails; LoadAll reports that itself.
	if err := s.LoadAll(ctx); err != nil {
		s.logger.Warn("reload after restore failed", zap.Int64("conversation_id", id), zap.Error(err))
	}
	return nil
}

// EmptyRecycleBin purges every recycled conversation.
func (s *Store) EmptyRecycleBin(ctx context.Context) error {
	if err := s.api.EmptyRecycleBin(ctx); err != nil {
		notify.Error(s.notifier, "Failed to empty recycle bin")
		return fmt.Errorf("empty recycle bin: %w", err)
	}

	s.mu.Lock()
	s.deleted = nil
	s.mu.Unlock()

	notify.Success(s.notifier, "Recycle bin emptied")
	return nil
}
