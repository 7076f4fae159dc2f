// Package chat keeps the client-side conversation state: the directory of
// conversations, the recycle bin and the active session.
package chat

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/capitalize-ai/aichat/internal/model"
	"github.com/capitalize-ai/aichat/internal/notify"
	"github.com/capitalize-ai/aichat/pkg/logger"
)

// API is the subset of the chat API the store drives.
type API interface {
	ListConversations(ctx context.Context) ([]model.Conversation, error)
	CreateConversation(ctx context.Context, req model.CreateConversationRequest) (*model.Conversation, error)
	GetConversation(ctx context.Context, id int64) (*model.Conversation, error)
	DeleteConversation(ctx context.Context, id int64, permanent bool) error
	ListDeletedConversations(ctx context.Context) ([]model.Conversation, error)
	RestoreConversation(ctx context.Context, id int64) error
	EmptyRecycleBin(ctx context.Context) error
	UpdateConversationModel(ctx context.Context, id int64, selectedModel string) error
	SendMessage(ctx context.Context, req model.SendMessageRequest) (*model.Message, error)
}

// ReconcilePolicy controls the resynchronization that follows every delete.
// The directory is re-listed after Delay; while the deleted id is still listed
// it is re-listed every Interval, at most Attempts times in total.
type ReconcilePolicy struct {
	Delay    time.Duration
	Interval time.Duration
	Attempts int
}

// DefaultReconcilePolicy re-lists exactly once, 100ms after the delete settles.
func DefaultReconcilePolicy() ReconcilePolicy {
	return ReconcilePolicy{Delay: 100 * time.Millisecond, Interval: 250 * time.Millisecond, Attempts: 1}
}

// Store owns every conversation the client knows about. The directory order
// and the active session both refer to entries of one id-keyed map, so a
// message appended through the session is visible through the directory.
type Store struct {
	api      API
	notifier notify.Notifier
	logger   *logger.Logger
	policy   ReconcilePolicy
	now      func() time.Time

	mu            sync.RWMutex
	conversations map[int64]*model.Conversation
	order         []int64
	deleted       []model.Conversation
	activeID      int64
	loading       int
	sending       bool

	// sendMu serializes SendMessage calls.
	sendMu sync.Mutex
}

type Option func(*Store)

func WithNotifier(n notify.Notifier) Option {
	return func(s *Store) {
		s.notifier = n
	}
}

func WithLogger(log *logger.Logger) Option {
	return func(s *Store) {
		s.logger = log
	}
}

func WithReconcilePolicy(p ReconcilePolicy) Option {
	return func(s *Store) {
		s.policy = p
	}
}

// WithClock replaces the clock used for optimistic message ids and timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// NewStore creates an empty store over api.
func NewStore(api API, opts ...Option) (*Store, error) {
	if api == nil {
		return nil, errors.New("chat: api must not be nil")
	}
	s := &Store{
		api:           api,
		notifier:      notify.Nop{},
		logger:        logger.NewNop(),
		policy:        DefaultReconcilePolicy(),
		now:           time.Now,
		conversations: make(map[int64]*model.Conversation),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Conversations returns the active directory, most recent first.
func (s *Store) Conversations() []model.Conversation {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Conversation, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, snapshot(s.conversations[id]))
	}
	return out
}

// Conversation returns one directory entry.
func (s *Store) Conversation(id int64) (model.Conversation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	conv, ok := s.conversations[id]
	if !ok {
		return model.Conversation{}, false
	}
	return snapshot(conv), true
}

// Deleted returns the recycle-bin list.
func (s *Store) Deleted() []model.Conversation {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Conversation, 0, len(s.deleted))
	for i := range s.deleted {
		out = append(out, snapshot(&s.deleted[i]))
	}
	return out
}

// Loading reports whether a list load is in flight.
func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading > 0
}

// Sending reports whether a message send is in flight.
func (s *Store) Sending() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sending
}

func (s *Store) beginLoading() func() {
	s.mu.Lock()
	s.loading++
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		s.loading--
		s.mu.Unlock()
	}
}

// replaceAllLocked installs the server's active list. Entries already held are
// updated in place; a locally held message log survives when the server omits one.
func (s *Store) replaceAllLocked(convs []model.Conversation) {
	next := make(map[int64]*model.Conversation, len(convs))
	order := make([]int64, 0, len(convs))

	for i := range convs {
		incoming := convs[i]
		if prev, ok := s.conversations[incoming.ID]; ok {
			if incoming.Messages == nil {
				incoming.Messages = prev.Messages
			}
			*prev = incoming
			next[incoming.ID] = prev
		} else {
			conv := incoming
			next[incoming.ID] = &conv
		}
		order = append(order, incoming.ID)
	}

	s.conversations = next
	s.order = order
	if _, ok := next[s.activeID]; !ok {
		s.activeID = 0
	}
}

// upsertLocked stores conv, keeping the existing pointer when present. New
// entries go to the front of the directory.
func (s *Store) upsertLocked(conv model.Conversation) *model.Conversation {
	if prev, ok := s.conversations[conv.ID]; ok {
		*prev = conv
		return prev
	}
	c := conv
	s.conversations[c.ID] = &c
	s.order = append([]int64{c.ID}, s.order...)
	return &c
}

func (s *Store) removeLocked(id int64) {
	delete(s.conversations, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	for i := range s.deleted {
		if s.deleted[i].ID == id {
			s.deleted = append(s.deleted[:i], s.deleted[i+1:]...)
			break
		}
	}
	if s.activeID == id {
		s.activeID = 0
	}
}

func (s *Store) listed(id int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.conversations[id]
	return ok
}

func snapshot(c *model.Conversation) model.Conversation {
	out := *c
	out.Messages = append([]model.Message(nil), c.Messages...)
	return out
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
