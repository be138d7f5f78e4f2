package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"modelrouter/internal/models"
)

func testEntries() []models.ModelEntry {
	return []models.ModelEntry{
		{ID: "deepseek-coder", Endpoint: "http://localhost:11434", Mode: models.ModeChat},
		{ID: "qwen3-4b", Endpoint: "http://localhost:11435", Mode: models.ModeInline},
	}
}

func TestRegistryResolve(t *testing.T) {
	reg, err := New(testEntries())
	require.NoError(t, err)

	entry, err := reg.Resolve("deepseek-coder")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:11434", entry.Endpoint)
	assert.Equal(t, models.ModeChat, entry.Mode)

	_, err = reg.Resolve("gpt-4")
	assert.ErrorIs(t, err, ErrUnknownModel)
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	entries := testEntries()
	entries = append(entries, entries[0])

	_, err := New(entries)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate")
}

func TestRegistryRejectsInvalidEntry(t *testing.T) {
	_, err := New([]models.ModelEntry{{ID: "broken", Mode: models.ModeChat}})
	assert.Error(t, err)
}

func TestRegistryListKeepsConfiguredOrder(t *testing.T) {
	reg, err := New(testEntries())
	require.NoError(t, err)

	list := reg.List()
	require.Len(t, list, 2)
	assert.Equal(t, "deepseek-coder", list[0].ID)
	assert.Equal(t, "qwen3-4b", list[1].ID)
	assert.Equal(t, 2, reg.Len())
}
