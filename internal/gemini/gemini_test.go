package gemini

import (
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/routine-advisor/advisor/internal/models"
)

func TestSplitHistory(t *testing.T) {
	prior, last, err := splitHistory([]models.ChatMessage{
		{Role: models.RoleSystem, Content: "ignored"},
		{Role: models.RoleUser, Content: "hi"},
		{Role: models.RoleAssistant, Content: "hello"},
		{Role: models.RoleUser, Content: "what next?"},
	})
	require.NoError(t, err)
	assert.Equal(t, "what next?", last)
	require.Len(t, prior, 2)
	assert.Equal(t, "user", prior[0].Role)
	assert.Equal(t, "model", prior[1].Role)
	assert.Equal(t, genai.Text("hello"), prior[1].Parts[0])
}

func TestSplitHistoryRejectsBadEndings(t *testing.T) {
	_, _, err := splitHistory(nil)
	require.Error(t, err)

	_, _, err = splitHistory([]models.ChatMessage{{Role: models.RoleAssistant, Content: "hello"}})
	require.Error(t, err)
}
