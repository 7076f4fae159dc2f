package chat

import (
	"context"
	"sync"
	"time"

	"github.com/capitalize-ai/aichat/internal/model"
)

// fakeAPI is an in-memory backend with switchable failures.
type fakeAPI struct {
	mu      sync.Mutex
	nextID  int64
	active  []model.Conversation
	deleted []model.Conversation

	listCalls int
	// staleLists makes the next n list calls still include deleted ids.
	staleLists int
	stale      []model.Conversation

	listErr    error
	deleteErr  error
	sendErr    error
	restoreErr error
	emptyErr   error

	sendGate   chan struct{}
	getGate    chan struct{}
	inFlight   int
	maxFlight  int
	sendCalls  []model.SendMessageRequest
	modelCalls map[int64]string
}

func newFakeAPI(convs ...model.Conversation) *fakeAPI {
	f := &fakeAPI{nextID: 100, modelCalls: map[int64]string{}}
	f.active = append(f.active, convs...)
	return f
}

func (f *fakeAPI) ListConversations(context.Context) ([]model.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := append([]model.Conversation(nil), f.active...)
	if f.staleLists > 0 {
		f.staleLists--
		out = append(out, f.stale...)
	}
	return out, nil
}

func (f *fakeAPI) CreateConversation(_ context.Context, req model.CreateConversationRequest) (*model.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	conv := model.Conversation{
		ID:            f.nextID,
		Title:         req.Title,
		AIRoleID:      req.AIRoleID,
		SelectedModel: req.SelectedModel,
		CreatedAt:     time.Now(),
	}
	f.active = append([]model.Conversation{conv}, f.active...)
	return &conv, nil
}

func (f *fakeAPI) GetConversation(_ context.Context, id int64) (*model.Conversation, error) {
	f.mu.Lock()
	gate := f.getGate
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.active {
		if c.ID == id {
			c := c
			return &c, nil
		}
	}
	return nil, &notFound{}
}

func (f *fakeAPI) DeleteConversation(_ context.Context, id int64, permanent bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	for i, c := range f.active {
		if c.ID == id {
			f.active = append(f.active[:i], f.active[i+1:]...)
			if !permanent {
				now := time.Now()
				c.DeletedAt = &now
				f.deleted = append(f.deleted, c)
			}
			return nil
		}
	}
	for i, c := range f.deleted {
		if c.ID == id {
			f.deleted = append(f.deleted[:i], f.deleted[i+1:]...)
			return nil
		}
	}
	return &notFound{}
}

func (f *fakeAPI) ListDeletedConversations(context.Context) ([]model.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]model.Conversation(nil), f.deleted...), nil
}

func (f *fakeAPI) RestoreConversation(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.restoreErr != nil {
		return f.restoreErr
	}
	for i, c := range f.deleted {
		if c.ID == id {
			f.deleted = append(f.deleted[:i], f.deleted[i+1:]...)
			c.DeletedAt = nil
			f.active = append([]model.Conversation{c}, f.active...)
			return nil
		}
	}
	return &notFound{}
}

func (f *fakeAPI) EmptyRecycleBin(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.emptyErr != nil {
		return f.emptyErr
	}
	f.deleted = nil
	return nil
}

func (f *fakeAPI) UpdateConversationModel(_ context.Context, id int64, selectedModel string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.modelCalls[id] = selectedModel
	return nil
}

func (f *fakeAPI) SendMessage(ctx context.Context, req model.SendMessageRequest) (*model.Message, error) {
	f.mu.Lock()
	f.sendCalls = append(f.sendCalls, req)
	f.inFlight++
	if f.inFlight > f.maxFlight {
		f.maxFlight = f.inFlight
	}
	gate := f.sendGate
	err := f.sendErr
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.inFlight--
		f.mu.Unlock()
	}()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	return &model.Message{
		ID:        time.Now().UnixNano(),
		Content:   "echo: " + req.Content,
		Role:      model.RoleAssistant,
		CreatedAt: time.Now(),
	}, nil
}

func (f *fakeAPI) lists() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listCalls
}

type notFound struct{}

func (*notFound) Error() string { return "Conversation not found" }
