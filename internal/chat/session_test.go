package chat

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capitalize-ai/aichat/internal/apiclient"
	"github.com/capitalize-ai/aichat/internal/model"
)

func TestSendMessageRequiresActiveConversation(t *testing.T) {
	api := newFakeAPI(conv(1, "a"))
	s, rec := newTestStore(t, api)
	require.NoError(t, s.LoadAll(context.Background()))

	_, err := s.SendMessage(context.Background(), "hi", "gpt")

	require.ErrorIs(t, err, ErrNoActiveConversation)
	var pre *PreconditionError
	require.ErrorAs(t, err, &pre)
	assert.Empty(t, api.sendCalls)
	assert.False(t, s.Sending())
	assert.Equal(t, []string{"Please select a conversation first"}, rec.Errors())
	c, _ := s.Conversation(1)
	assert.Empty(t, c.Messages)
}

func TestSendMessageSuccessAppendsUserAndReply(t *testing.T) {
	api := newFakeAPI(conv(1, "a"))
	fixed := time.UnixMilli(1700000000123)
	s, _ := newTestStore(t, api, WithClock(func() time.Time { return fixed }))
	ctx := context.Background()
	require.NoError(t, s.LoadAll(ctx))
	require.NoError(t, s.Select(1))
	before, _ := s.Active()

	reply, err := s.SendMessage(ctx, "hi", "gpt")
	require.NoError(t, err)

	after, _ := s.Active()
	require.Len(t, after.Messages, len(before.Messages)+2)
	assert.Equal(t, reply, after.Messages[len(after.Messages)-1])

	user := after.Messages[0]
	assert.Equal(t, int64(1700000000123), user.ID)
	assert.Equal(t, model.RoleUser, user.Role)
	assert.Equal(t, "hi", user.Content)
	assert.Equal(t, model.RoleAssistant, reply.Role)
	assert.NotNil(t, after.LastMessageAt)

	// the directory entry is the same conversation
	listed, _ := s.Conversation(1)
	assert.Equal(t, after.Messages, listed.Messages)

	require.Len(t, api.sendCalls, 1)
	assert.Equal(t, model.SendMessageRequest{ConversationID: 1, Content: "hi", Model: "gpt"}, api.sendCalls[0])
	assert.False(t, s.Sending())
}

func TestSendMessageCarriesRoleID(t *testing.T) {
	api := newFakeAPI()
	s, _ := newTestStore(t, api)
	roleID := int64(7)
	_, err := s.Create(context.Background(), "Test", &roleID, "gpt")
	require.NoError(t, err)

	_, err = s.SendMessage(context.Background(), "hi", "gpt")
	require.NoError(t, err)
	require.NotNil(t, api.sendCalls[0].AIRoleID)
	assert.Equal(t, int64(7), *api.sendCalls[0].AIRoleID)
}

func TestSendMessageFailureRollsBack(t *testing.T) {
	api := newFakeAPI()
	s, rec := newTestStore(t, api)
	ctx := context.Background()

	roleID := int64(7)
	_, err := s.Create(ctx, "Test", &roleID, "gpt")
	require.NoError(t, err)
	assert.Equal(t, "Test", s.Conversations()[0].Title)

	api.sendErr = &apiclient.NetworkError{Message: "Network error"}
	_, err = s.SendMessage(ctx, "hi", "gpt")

	var netErr *apiclient.NetworkError
	require.ErrorAs(t, err, &netErr)
	active, ok := s.Active()
	require.True(t, ok)
	assert.Empty(t, active.Messages)
	assert.False(t, s.Sending())
	assert.Equal(t, []string{"Failed to send message"}, rec.Errors())
}

func TestSendMessageFailureKeepsEarlierMessages(t *testing.T) {
	api := newFakeAPI(conv(1, "a"))
	s, _ := newTestStore(t, api)
	ctx := context.Background()
	require.NoError(t, s.LoadAll(ctx))
	require.NoError(t, s.Select(1))

	_, err := s.SendMessage(ctx, "first", "gpt")
	require.NoError(t, err)
	before, _ := s.Active()

	api.sendErr = errors.New("boom")
	_, err = s.SendMessage(ctx, "second", "gpt")
	require.Error(t, err)

	after, _ := s.Active()
	assert.Equal(t, before.Messages, after.Messages)
}

func TestSendingFlagHeldDuringSend(t *testing.T) {
	api := newFakeAPI(conv(1, "a"))
	api.sendGate = make(chan struct{})
	s, _ := newTestStore(t, api)
	ctx := context.Background()
	require.NoError(t, s.LoadAll(ctx))
	require.NoError(t, s.Select(1))

	done := make(chan error, 1)
	go func() {
		_, err := s.SendMessage(ctx, "hi", "gpt")
		done <- err
	}()

	require.Eventually(t, s.Sending, time.Second, time.Millisecond)
	active, _ := s.Active()
	require.Len(t, active.Messages, 1)
	assert.Equal(t, model.RoleUser, active.Messages[0].Role)

	close(api.sendGate)
	require.NoError(t, <-done)
	assert.False(t, s.Sending())
}

func TestSendMessageSerialized(t *testing.T) {
	api := newFakeAPI(conv(1, "a"))
	api.sendGate = make(chan struct{})
	s, _ := newTestStore(t, api)
	ctx := context.Background()
	require.NoError(t, s.LoadAll(ctx))
	require.NoError(t, s.Select(1))

	var wg sync.WaitGroup
	for _, content := range []string{"one", "two", "three"} {
		wg.Add(1)
		go func(content string) {
			defer wg.Done()
			_, _ = s.SendMessage(ctx, content, "gpt")
		}(content)
	}

	for i := 0; i < 3; i++ {
		api.sendGate <- struct{}{}
	}
	wg.Wait()

	assert.Equal(t, 1, api.maxFlight)
	active, _ := s.Active()
	require.Len(t, active.Messages, 6)
	for i := 0; i < 6; i += 2 {
		assert.Equal(t, model.RoleUser, active.Messages[i].Role)
		assert.Equal(t, "echo: "+active.Messages[i].Content, active.Messages[i+1].Content)
	}
}

func TestSendMessageDeletedMidFlight(t *testing.T) {
	api := newFakeAPI(conv(1, "a"), conv(2, "b"))
	api.sendGate = make(chan struct{})
	s, _ := newTestStore(t, api)
	ctx := context.Background()
	require.NoError(t, s.LoadAll(ctx))
	require.NoError(t, s.Select(1))

	done := make(chan error, 1)
	go func() {
		_, err := s.SendMessage(ctx, "hi", "gpt")
		done <- err
	}()
	require.Eventually(t, s.Sending, time.Second, time.Millisecond)

	require.NoError(t, s.SoftDelete(ctx, 1))
	close(api.sendGate)
	require.NoError(t, <-done)

	assert.Equal(t, []int64{2}, ids(s.Conversations()))
	_, ok := s.Active()
	assert.False(t, ok)
}

func TestSelectAndClear(t *testing.T) {
	api := newFakeAPI(conv(1, "a"))
	s, _ := newTestStore(t, api)
	require.NoError(t, s.LoadAll(context.Background()))

	require.ErrorIs(t, s.Select(99), ErrConversationNotLoaded)
	require.NoError(t, s.Select(1))
	assert.Equal(t, int64(1), s.ActiveID())

	s.Clear()
	_, ok := s.Active()
	assert.False(t, ok)
}

func TestLoadConversationSelects(t *testing.T) {
	api := newFakeAPI(conv(1, "a"))
	api.active[0].Messages = []model.Message{{ID: 1, Content: "hello", Role: model.RoleUser}}
	s, _ := newTestStore(t, api)

	got, err := s.LoadConversation(context.Background(), 1)
	require.NoError(t, err)
	assert.Len(t, got.Messages, 1)
	assert.Equal(t, int64(1), s.ActiveID())
	assert.Equal(t, []int64{1}, ids(s.Conversations()))

	_, err = s.LoadConversation(context.Background(), 42)
	require.Error(t, err)
}

func TestLoadConversationHoldsLoadingFlag(t *testing.T) {
	api := newFakeAPI(conv(1, "a"))
	api.getGate = make(chan struct{})
	s, _ := newTestStore(t, api)

	done := make(chan error, 1)
	go func() {
		_, err := s.LoadConversation(context.Background(), 1)
		done <- err
	}()

	require.Eventually(t, s.Loading, time.Second, time.Millisecond)
	close(api.getGate)
	require.NoError(t, <-done)
	assert.False(t, s.Loading())

	_, err := s.LoadConversation(context.Background(), 42)
	require.Error(t, err)
	assert.False(t, s.Loading())
}

func TestUpdateModel(t *testing.T) {
	api := newFakeAPI(conv(1, "a"))
	s, _ := newTestStore(t, api)
	ctx := context.Background()
	require.NoError(t, s.LoadAll(ctx))

	require.ErrorIs(t, s.UpdateModel(ctx, "claude"), ErrNoActiveConversation)

	require.NoError(t, s.Select(1))
	require.NoError(t, s.UpdateModel(ctx, "claude"))

	active, _ := s.Active()
	assert.Equal(t, "claude", active.SelectedModel)
	assert.Equal(t, "claude", api.modelCalls[1])
}
