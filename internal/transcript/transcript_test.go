package transcript

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/routine-advisor/advisor/internal/models"
)

var at = time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

func sample() Transcript {
	return New(
		Config{Provider: "ollama", Model: "mistral-small3.2:24b"},
		[]models.Product{{ID: "7", Name: "Hydrating Serum", Brand: "L'Oreal", Category: "skincare"}},
		[]models.ChatMessage{
			{Role: models.RoleUser, Content: "Here are my selected products:\n- Hydrating Serum"},
			{Role: models.RoleAssistant, Content: "1. Apply serum"},
		},
		at,
	)
}

func TestWrite(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sample()))

	var doc map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &doc))
	cfg := doc["config"].(map[string]any)
	assert.Equal(t, "2026-03-14T09:26:53Z", cfg["timestamp"])
	assert.Equal(t, "ollama", cfg["provider"])
	assert.NotContains(t, cfg, "endpoint")

	messages := doc["messages"].([]any)
	require.Len(t, messages, 2)
	assert.Equal(t, "assistant", messages[1].(map[string]any)["role"])
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "exports", Filename(at))
	assert.Equal(t, "routine-2026-03-14_09-26-53.yaml", filepath.Base(path))

	want := sample()
	require.NoError(t, Save(path, want))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
