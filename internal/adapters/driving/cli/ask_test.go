package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragpipe/internal/core/domain"
)

func TestOutputAnswerJSON_RendersSnakeCase(t *testing.T) {
	buf := new(bytes.Buffer)
	cmd := &cobra.Command{}
	cmd.SetOut(buf)

	answer := &domain.Answer{
		Text:       "Paris",
		FullPrompt: "## Document No: 1\n...",
		ChatHistory: []domain.ChatMessage{
			{Role: domain.RoleSystem, Content: "You are a helpful assistant."},
		},
	}
	require.NoError(t, outputAnswerJSON(cmd, answer))

	var out map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))

	assert.Equal(t, "Paris", out["answer"])
	assert.Equal(t, "## Document No: 1\n...", out["full_prompt"])

	history, ok := out["chat_history"].([]any)
	require.True(t, ok)
	require.Len(t, history, 1)
	turn, ok := history[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "system", turn["role"])
	assert.Equal(t, "You are a helpful assistant.", turn["content"])
}

func TestOutputAnswerJSON_NoKnowledgeIsNullTriple(t *testing.T) {
	buf := new(bytes.Buffer)
	cmd := &cobra.Command{}
	cmd.SetOut(buf)

	require.NoError(t, outputAnswerJSON(cmd, nil))

	var out map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))

	assert.Nil(t, out["answer"])
	assert.Nil(t, out["full_prompt"])
	assert.Nil(t, out["chat_history"])
}
