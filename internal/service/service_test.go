package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/capitalize-ai/aichat/internal/llm"
	"github.com/capitalize-ai/aichat/internal/model"
	"github.com/capitalize-ai/aichat/pkg/logger"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []model.ConversationEvent
	err    error
}

func (p *recordingPublisher) PublishEvent(_ context.Context, e *model.ConversationEvent) (uint64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, *e)
	return uint64(len(p.events)), p.err
}

func (p *recordingPublisher) types() []model.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]model.EventType, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type stubLLM struct {
	resp *llm.CompletionResponse
	err  error
	last *llm.CompletionRequest
}

func (s *stubLLM) Complete(_ context.Context, req *llm.CompletionRequest) (*llm.CompletionResponse, error) {
	s.last = req
	return s.resp, s.err
}
func (s *stubLLM) Name() string     { return "stub" }
func (s *stubLLM) Models() []string { return []string{"stub-1", "stub-2"} }

type fixture struct {
	roles  *RoleService
	convs  *ConversationService
	chat   *ChatService
	events *recordingPublisher
	clock  time.Time
}

func newFixture(t *testing.T, client llm.Client) *fixture {
	t.Helper()
	log := logger.NewNop()
	f := &fixture{events: &recordingPublisher{}, clock: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	f.roles = NewRoleService(log)
	f.convs = NewConversationService(f.roles, f.events, log)
	f.convs.now = func() time.Time {
		f.clock = f.clock.Add(time.Second)
		return f.clock
	}
	if client == nil {
		client = llm.NewEchoClient()
	}
	f.chat = NewChatService(f.convs, f.roles, client, log)
	return f
}

func businessCode(t *testing.T, err error) int {
	t.Helper()
	var be *Error
	require.True(t, errors.As(err, &be), "expected business error, got %v", err)
	return be.Code
}

func TestConversation_CreateDefaultsTitle(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	conv, err := f.convs.Create(ctx, 1, model.CreateConversationRequest{})
	require.NoError(t, err)
	assert.Equal(t, model.DefaultConversationTitle, conv.Title)
	assert.NotZero(t, conv.ID)
	assert.Equal(t, []model.EventType{model.EventTypeCreated}, f.events.types())
}

func TestConversation_CreateWithRole(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	role, err := f.roles.Create(ctx, 1, model.RoleRequest{Name: "Poet", SystemPrompt: "Rhyme.", Model: "stub-2"})
	require.NoError(t, err)

	conv, err := f.convs.Create(ctx, 1, model.CreateConversationRequest{Title: "verse", AIRoleID: &role.ID})
	require.NoError(t, err)
	assert.Equal(t, "Poet", conv.AIRoleName)
	assert.Equal(t, "stub-2", conv.SelectedModel)

	// another user's private role is not attachable
	_, err = f.convs.Create(ctx, 2, model.CreateConversationRequest{AIRoleID: &role.ID})
	assert.Equal(t, 404, businessCode(t, err))
}

func TestConversation_ListIsPerUserAndOrderedByActivity(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	a, _ := f.convs.Create(ctx, 1, model.CreateConversationRequest{Title: "a"})
	b, _ := f.convs.Create(ctx, 1, model.CreateConversationRequest{Title: "b"})
	_, _ = f.convs.Create(ctx, 2, model.CreateConversationRequest{Title: "other"})

	list := f.convs.List(ctx, 1)
	require.Len(t, list, 2)
	assert.Equal(t, b.ID, list[0].ID)

	_, err := f.chat.Send(ctx, 1, model.SendMessageRequest{ConversationID: a.ID, Content: "hi"})
	require.NoError(t, err)

	list = f.convs.List(ctx, 1)
	assert.Equal(t, a.ID, list[0].ID)
	assert.Nil(t, list[0].Messages)
}

func TestConversation_DeleteSemantics(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	conv, _ := f.convs.Create(ctx, 1, model.CreateConversationRequest{})

	require.NoError(t, f.convs.Delete(ctx, 1, conv.ID, false))
	assert.Empty(t, f.convs.List(ctx, 1))
	deleted := f.convs.ListDeleted(ctx, 1)
	require.Len(t, deleted, 1)
	assert.NotNil(t, deleted[0].DeletedAt)

	// deleting a recycled conversation removes it for good
	require.NoError(t, f.convs.Delete(ctx, 1, conv.ID, false))
	assert.Empty(t, f.convs.ListDeleted(ctx, 1))

	_, err := f.convs.Get(ctx, 1, conv.ID)
	assert.Equal(t, 404, businessCode(t, err))

	assert.Equal(t, []model.EventType{
		model.EventTypeCreated, model.EventTypeDeleted, model.EventTypePurged,
	}, f.events.types())
}

func TestConversation_PermanentDelete(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	conv, _ := f.convs.Create(ctx, 1, model.CreateConversationRequest{})
	require.NoError(t, f.convs.Delete(ctx, 1, conv.ID, true))
	assert.Empty(t, f.convs.List(ctx, 1))
	assert.Empty(t, f.convs.ListDeleted(ctx, 1))
}

func TestConversation_DeleteOtherUsersConversation(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	conv, _ := f.convs.Create(ctx, 1, model.CreateConversationRequest{})
	err := f.convs.Delete(ctx, 2, conv.ID, false)
	assert.ErrorIs(t, err, ErrConversationNotFound)
	assert.Len(t, f.convs.List(ctx, 1), 1)
}

func TestConversation_Restore(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	conv, _ := f.convs.Create(ctx, 1, model.CreateConversationRequest{})

	err := f.convs.Restore(ctx, 1, conv.ID)
	assert.ErrorIs(t, err, ErrNotInRecycleBin)
	assert.Equal(t, "Conversation is not in recycle bin", err.Error())

	require.NoError(t, f.convs.Delete(ctx, 1, conv.ID, false))
	require.NoError(t, f.convs.Restore(ctx, 1, conv.ID))

	list := f.convs.List(ctx, 1)
	require.Len(t, list, 1)
	assert.Nil(t, list[0].DeletedAt)
}

func TestConversation_EmptyRecycleBin(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	keep, _ := f.convs.Create(ctx, 1, model.CreateConversationRequest{Title: "keep"})
	for i := 0; i < 3; i++ {
		c, _ := f.convs.Create(ctx, 1, model.CreateConversationRequest{})
		require.NoError(t, f.convs.Delete(ctx, 1, c.ID, false))
	}
	other, _ := f.convs.Create(ctx, 2, model.CreateConversationRequest{})
	require.NoError(t, f.convs.Delete(ctx, 2, other.ID, false))

	assert.Equal(t, 3, f.convs.EmptyRecycleBin(ctx, 1))
	assert.Empty(t, f.convs.ListDeleted(ctx, 1))
	assert.Len(t, f.convs.ListDeleted(ctx, 2), 1)

	list := f.convs.List(ctx, 1)
	require.Len(t, list, 1)
	assert.Equal(t, keep.ID, list[0].ID)
}

func TestConversation_UpdateModel(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	conv, _ := f.convs.Create(ctx, 1, model.CreateConversationRequest{})
	updated, err := f.convs.UpdateModel(ctx, 1, conv.ID, "stub-2")
	require.NoError(t, err)
	assert.Equal(t, "stub-2", updated.SelectedModel)

	_, err = f.convs.UpdateModel(ctx, 1, 999, "stub-2")
	assert.ErrorIs(t, err, ErrConversationNotFound)
}

func TestConversation_PublishFailureIsNotFatal(t *testing.T) {
	f := newFixture(t, nil)
	f.events.err = errors.New("stream unavailable")

	_, err := f.convs.Create(context.Background(), 1, model.CreateConversationRequest{})
	assert.NoError(t, err)
}

func TestChat_SendAppendsExchangeAndTitles(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	conv, _ := f.convs.Create(ctx, 1, model.CreateConversationRequest{})
	reply, err := f.chat.Send(ctx, 1, model.SendMessageRequest{ConversationID: conv.ID, Content: "What is the capital of France?"})
	require.NoError(t, err)
	assert.Equal(t, model.RoleAssistant, reply.Role)
	assert.Equal(t, "Echo: What is the capital of France?", reply.Content)

	got, err := f.convs.Get(ctx, 1, conv.ID)
	require.NoError(t, err)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, model.RoleUser, got.Messages[0].Role)
	assert.Equal(t, reply.ID, got.Messages[1].ID)
	assert.Equal(t, "What is the capital of France?", got.Title)
	assert.NotNil(t, got.LastMessageAt)
}

func TestChat_TitleIsTruncated(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	conv, _ := f.convs.Create(ctx, 1, model.CreateConversationRequest{})
	long := strings.Repeat("word ", 20)
	_, err := f.chat.Send(ctx, 1, model.SendMessageRequest{ConversationID: conv.ID, Content: long})
	require.NoError(t, err)

	got, _ := f.convs.Get(ctx, 1, conv.ID)
	assert.Equal(t, maxTitleLength+3, len([]rune(got.Title)))
	assert.True(t, strings.HasSuffix(got.Title, "..."))
}

func TestChat_ExplicitTitleIsKept(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	conv, _ := f.convs.Create(ctx, 1, model.CreateConversationRequest{Title: "Trip planning"})
	_, err := f.chat.Send(ctx, 1, model.SendMessageRequest{ConversationID: conv.ID, Content: "hello"})
	require.NoError(t, err)

	got, _ := f.convs.Get(ctx, 1, conv.ID)
	assert.Equal(t, "Trip planning", got.Title)
}

func TestChat_ThinkingModeStripsMarker(t *testing.T) {
	stub := &stubLLM{resp: &llm.CompletionResponse{Content: "deep thoughts", TokensOut: 7}}
	f := newFixture(t, stub)
	ctx := context.Background()

	conv, _ := f.convs.Create(ctx, 1, model.CreateConversationRequest{})
	content := model.ThinkingModeMarker + "\nprove it"
	reply, err := f.chat.Send(ctx, 1, model.SendMessageRequest{ConversationID: conv.ID, Content: content})
	require.NoError(t, err)
	assert.Equal(t, 7, reply.TokenCount)

	require.NotNil(t, stub.last)
	assert.Equal(t, thinkingMaxTokens, stub.last.MaxTokens)
	assert.Equal(t, "prove it", stub.last.Messages[len(stub.last.Messages)-1].Content)
	assert.Equal(t, defaultSystemPrompt, stub.last.SystemPrompt)

	got, _ := f.convs.Get(ctx, 1, conv.ID)
	assert.Equal(t, content, got.Messages[0].Content)
	assert.Equal(t, "prove it", got.Title)
}

func TestChat_UsesRolePromptAndModel(t *testing.T) {
	stub := &stubLLM{resp: &llm.CompletionResponse{Content: "ok"}}
	f := newFixture(t, stub)
	ctx := context.Background()

	role, _ := f.roles.Create(ctx, 1, model.RoleRequest{Name: "Pirate", SystemPrompt: "Talk like a pirate."})
	conv, _ := f.convs.Create(ctx, 1, model.CreateConversationRequest{AIRoleID: &role.ID, SelectedModel: "stub-2"})

	_, err := f.chat.Send(ctx, 1, model.SendMessageRequest{ConversationID: conv.ID, Content: "ahoy"})
	require.NoError(t, err)
	assert.Equal(t, "Talk like a pirate.", stub.last.SystemPrompt)
	assert.Equal(t, "stub-2", stub.last.Model)

	_, err = f.chat.Send(ctx, 1, model.SendMessageRequest{ConversationID: conv.ID, Content: "again", Model: "stub-1"})
	require.NoError(t, err)
	assert.Equal(t, "stub-1", stub.last.Model)
	assert.Len(t, stub.last.Messages, 3)
}

func TestChat_ContextWindowIsBounded(t *testing.T) {
	stub := &stubLLM{resp: &llm.CompletionResponse{Content: "ok"}}
	f := newFixture(t, stub)
	ctx := context.Background()

	conv, _ := f.convs.Create(ctx, 1, model.CreateConversationRequest{})
	for i := 0; i < 15; i++ {
		_, err := f.chat.Send(ctx, 1, model.SendMessageRequest{ConversationID: conv.ID, Content: "turn"})
		require.NoError(t, err)
	}
	assert.Len(t, stub.last.Messages, maxContextMessages+1)
}

func TestChat_ProviderFailureBecomesReply(t *testing.T) {
	stub := &stubLLM{err: errors.New("upstream down")}
	f := newFixture(t, stub)
	ctx := context.Background()

	conv, _ := f.convs.Create(ctx, 1, model.CreateConversationRequest{})
	reply, err := f.chat.Send(ctx, 1, model.SendMessageRequest{ConversationID: conv.ID, Content: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "[Error] Failed to get AI response: upstream down", reply.Content)
}

func TestChat_UnknownConversation(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.chat.Send(context.Background(), 1, model.SendMessageRequest{ConversationID: 42, Content: "hi"})
	assert.ErrorIs(t, err, ErrConversationNotFound)
}

func TestRoles_OwnershipRules(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	f.roles.SeedDefaults()

	public := f.roles.Public(ctx)
	require.NotEmpty(t, public)

	mine, err := f.roles.Create(ctx, 1, model.RoleRequest{Name: "Mine", IsPublic: true})
	require.NoError(t, err)
	assert.Len(t, f.roles.Public(ctx), len(public)+1)
	assert.Len(t, f.roles.Mine(ctx, 1), 1)
	assert.Empty(t, f.roles.Mine(ctx, 2))

	_, err = f.roles.Update(ctx, 2, mine.ID, model.RoleRequest{Name: "Stolen"})
	assert.ErrorIs(t, err, ErrRoleNotFound)
	assert.ErrorIs(t, f.roles.Delete(ctx, 2, mine.ID), ErrRoleNotFound)

	// built-in roles belong to nobody
	assert.ErrorIs(t, f.roles.Delete(ctx, 1, public[0].ID), ErrRoleNotFound)

	updated, err := f.roles.Update(ctx, 1, mine.ID, model.RoleRequest{Name: " Renamed "})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Name)
	assert.False(t, updated.IsPublic)

	require.NoError(t, f.roles.Delete(ctx, 1, mine.ID))
	assert.Empty(t, f.roles.Mine(ctx, 1))

	_, err = f.roles.Create(ctx, 1, model.RoleRequest{Name: "  "})
	assert.Equal(t, 400, businessCode(t, err))
}

func TestUsers_RegisterAndAuthenticate(t *testing.T) {
	users := NewUserService(bcrypt.MinCost, logger.NewNop())
	ctx := context.Background()

	u, err := users.Register(ctx, model.RegisterRequest{Username: "alice", Password: "secret1", Email: "a@example.com"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), u.ID)

	_, err = users.Register(ctx, model.RegisterRequest{Username: "alice", Password: "secret2"})
	assert.ErrorIs(t, err, ErrUsernameTaken)
	_, err = users.Register(ctx, model.RegisterRequest{Username: "bob", Password: "secret2", Email: "A@example.com"})
	assert.ErrorIs(t, err, ErrEmailTaken)
	_, err = users.Register(ctx, model.RegisterRequest{Username: "al", Password: "secret2"})
	assert.Equal(t, 400, businessCode(t, err))
	_, err = users.Register(ctx, model.RegisterRequest{Username: "carol", Password: "123"})
	assert.Equal(t, 400, businessCode(t, err))

	got, err := users.Authenticate(ctx, "alice", "secret1")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = users.Authenticate(ctx, "alice", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = users.Authenticate(ctx, "nobody", "secret1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestUsers_ProfileAndPassword(t *testing.T) {
	users := NewUserService(bcrypt.MinCost, logger.NewNop())
	ctx := context.Background()

	u, err := users.Register(ctx, model.RegisterRequest{Username: "alice", Password: "secret1"})
	require.NoError(t, err)

	updated, err := users.UpdateProfile(ctx, u.ID, model.UpdateProfileRequest{Nickname: "Al"})
	require.NoError(t, err)
	assert.Equal(t, "Al", updated.Nickname)

	err = users.ChangePassword(ctx, u.ID, model.ChangePasswordRequest{OldPassword: "nope", NewPassword: "secret2"})
	assert.ErrorIs(t, err, ErrWrongPassword)

	require.NoError(t, users.ChangePassword(ctx, u.ID, model.ChangePasswordRequest{OldPassword: "secret1", NewPassword: "secret2"}))
	_, err = users.Authenticate(ctx, "alice", "secret2")
	assert.NoError(t, err)

	_, err = users.Get(ctx, 99)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestExport_Formats(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	conv, _ := f.convs.Create(ctx, 1, model.CreateConversationRequest{Title: "Export me"})
	_, err := f.chat.Send(ctx, 1, model.SendMessageRequest{ConversationID: conv.ID, Content: "hello"})
	require.NoError(t, err)

	text, err := f.convs.Export(ctx, 1, conv.ID, model.ExportText)
	require.NoError(t, err)
	assert.Contains(t, string(text), "Title: Export me")
	assert.Contains(t, string(text), "USER:\nhello")
	assert.Contains(t, string(text), "Messages: 2")

	md, err := f.convs.Export(ctx, 1, conv.ID, model.ExportMarkdown)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(md), "# Export me\n"))
	assert.Contains(t, string(md), "### Assistant\n")

	raw, err := f.convs.Export(ctx, 1, conv.ID, model.ExportJSON)
	require.NoError(t, err)
	var doc exportedConversation
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.Equal(t, conv.ID, doc.ConversationID)
	require.Len(t, doc.Messages, 2)
	assert.Equal(t, "assistant", doc.Messages[1].Role)

	_, err = f.convs.Export(ctx, 1, conv.ID, "pdf")
	assert.Equal(t, 400, businessCode(t, err))
	_, err = f.convs.Export(ctx, 2, conv.ID, model.ExportText)
	assert.ErrorIs(t, err, ErrConversationNotFound)

	assert.Equal(t, "conversation_7.md", ExportFilename(7, model.ExportMarkdown))
	assert.Equal(t, "application/json", ExportContentType(model.ExportJSON))
}

func TestStatisticsAndCatalog(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	a, _ := f.convs.Create(ctx, 1, model.CreateConversationRequest{})
	b, _ := f.convs.Create(ctx, 1, model.CreateConversationRequest{})
	_, _ = f.chat.Send(ctx, 1, model.SendMessageRequest{ConversationID: a.ID, Content: "hi"})
	require.NoError(t, f.convs.Delete(ctx, 1, b.ID, false))
	_, _ = f.roles.Create(ctx, 1, model.RoleRequest{Name: "r"})

	stats := NewStatisticsService(f.convs, f.roles).Get(ctx, 1)
	assert.Equal(t, model.Statistics{
		TotalConversations:   1,
		TotalMessages:        2,
		DeletedConversations: 1,
		TotalRoles:           1,
	}, stats)

	models := NewModelCatalog(&stubLLM{}).List(ctx)
	require.Len(t, models, 2)
	assert.Equal(t, "stub-1", models[0].ID)
	assert.True(t, models[0].Available)
}
