package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvelopeDecode(t *testing.T) {
	env, err := Success(Conversation{ID: 9, Title: "Test"})
	require.NoError(t, err)
	require.True(t, env.OK())

	var conv Conversation
	require.NoError(t, env.Decode(&conv))
	assert.Equal(t, int64(9), conv.ID)
	assert.Equal(t, "Test", conv.Title)
}

func TestEnvelopeDecodeFailure(t *testing.T) {
	env := Failure(400, "bad")
	assert.False(t, env.OK())
	assert.ErrorIs(t, env.Decode(&Conversation{}), ErrEnvelopeNotOK)
}

func TestEnvelopeDecodeNullData(t *testing.T) {
	env, err := Success(nil)
	require.NoError(t, err)
	assert.NoError(t, env.Decode(&Conversation{}))
}

func TestExportFormatValid(t *testing.T) {
	assert.True(t, ExportMarkdown.Valid())
	assert.False(t, ExportFormat("pdf").Valid())
}
