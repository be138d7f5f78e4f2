package routing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"modelrouter/internal/models"
	"modelrouter/internal/registry"
	"modelrouter/internal/utils"
)

func testRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	reg, err := registry.New([]models.ModelEntry{
		{ID: "deepseek-coder", Endpoint: "http://localhost:11434", Mode: models.ModeChat},
		{ID: "qwen3-4b", Endpoint: "http://localhost:11435", Mode: models.ModeChat},
		{ID: "qwen3-8b", Endpoint: "http://localhost:11436", Mode: models.ModeChat},
	})
	require.NoError(t, err)
	return reg
}

func defaultRules() []models.RoutingRule {
	return []models.RoutingRule{
		{Match: models.Match{PromptContains: []string{"use coder"}}, RouteTo: "deepseek-coder"},
		{Match: models.Match{FileExtensions: []string{"py", "js", "ts"}}, RouteTo: "deepseek-coder"},
		{RouteTo: "qwen3-4b"},
	}
}

func quiet() *utils.Logger {
	return utils.NewLogger("routing-test", utils.Error)
}

func TestSelectModelFirstMatchWins(t *testing.T) {
	engine := NewEngine(defaultRules(), testRegistry(t), quiet())

	t.Run("extension rule before catch-all", func(t *testing.T) {
		model, err := engine.SelectModel(Request{Extension: "py", Prompt: "fix this bug"})
		require.NoError(t, err)
		assert.Equal(t, "deepseek-coder", model)
	})

	t.Run("keyword rule beats extension rule by position", func(t *testing.T) {
		model, err := engine.SelectModel(Request{Extension: "md", Prompt: "use coder please"})
		require.NoError(t, err)
		assert.Equal(t, "deepseek-coder", model)
	})

	t.Run("catch-all picks up the rest", func(t *testing.T) {
		model, err := engine.SelectModel(Request{Extension: "md", Prompt: "hello"})
		require.NoError(t, err)
		assert.Equal(t, "qwen3-4b", model)
	})
}

func TestSelectModelIsDeterministic(t *testing.T) {
	engine := NewEngine(defaultRules(), testRegistry(t), quiet())
	req := Request{Extension: "ts", Prompt: "refactor this"}

	first, err := engine.SelectModel(req)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := engine.SelectModel(req)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestSelectModelOrderEncodesPriority(t *testing.T) {
	// Two rules both match; the earlier one wins regardless of specificity.
	rules := []models.RoutingRule{
		{RouteTo: "qwen3-4b"}, // catch-all placed first shadows everything
		{Match: models.Match{FileExtensions: []string{"py"}}, RouteTo: "deepseek-coder"},
	}
	engine := NewEngine(rules, testRegistry(t), quiet())

	model, err := engine.SelectModel(Request{Extension: "py", Prompt: "fix"})
	require.NoError(t, err)
	assert.Equal(t, "qwen3-4b", model)
}

func TestSelectModelExtensionNormalization(t *testing.T) {
	rules := []models.RoutingRule{
		{Match: models.Match{FileExtensions: []string{"py"}}, RouteTo: "deepseek-coder"},
	}
	engine := NewEngine(rules, testRegistry(t), quiet())

	for _, ext := range []string{".PY", "py", ".py", "Py"} {
		model, err := engine.SelectModel(Request{Extension: ext, Prompt: "x"})
		require.NoError(t, err, "extension %q", ext)
		assert.Equal(t, "deepseek-coder", model)
	}
}

func TestSelectModelKeywordIsCaseInsensitiveSubstring(t *testing.T) {
	rules := []models.RoutingRule{
		{Match: models.Match{PromptContains: []string{"use coder"}}, RouteTo: "deepseek-coder"},
	}
	engine := NewEngine(rules, testRegistry(t), quiet())

	model, err := engine.SelectModel(Request{Prompt: "please USE CODER now"})
	require.NoError(t, err)
	assert.Equal(t, "deepseek-coder", model)
}

func TestSelectModelBothConditionsMustHold(t *testing.T) {
	rules := []models.RoutingRule{
		{
			Match: models.Match{
				FileExtensions: []string{"py"},
				PromptContains: []string{"test"},
			},
			RouteTo: "qwen3-8b",
		},
	}
	engine := NewEngine(rules, testRegistry(t), quiet())

	_, err := engine.SelectModel(Request{Extension: "py", Prompt: "refactor"})
	assert.ErrorIs(t, err, ErrNoRoute)

	_, err = engine.SelectModel(Request{Extension: "go", Prompt: "write a test"})
	assert.ErrorIs(t, err, ErrNoRoute)

	model, err := engine.SelectModel(Request{Extension: "py", Prompt: "write a test"})
	require.NoError(t, err)
	assert.Equal(t, "qwen3-8b", model)
}

func TestSelectModelNoRoute(t *testing.T) {
	rules := []models.RoutingRule{
		{Match: models.Match{FileExtensions: []string{"py"}}, RouteTo: "deepseek-coder"},
	}
	engine := NewEngine(rules, testRegistry(t), quiet())

	t.Run("no match and no catch-all", func(t *testing.T) {
		_, err := engine.SelectModel(Request{Extension: "md", Prompt: "hello"})
		assert.ErrorIs(t, err, ErrNoRoute)
	})

	t.Run("absent extension does not satisfy an extension condition", func(t *testing.T) {
		_, err := engine.SelectModel(Request{Prompt: "hello"})
		assert.ErrorIs(t, err, ErrNoRoute)
	})
}

func TestSelectModelUnknownTarget(t *testing.T) {
	rules := []models.RoutingRule{{RouteTo: "llama-unconfigured"}}
	engine := NewEngine(rules, testRegistry(t), quiet())

	_, err := engine.SelectModel(Request{Prompt: "hello"})
	assert.ErrorIs(t, err, registry.ErrUnknownModel)
}

func TestExtensionOf(t *testing.T) {
	assert.Equal(t, "py", ExtensionOf("src/app/main.PY"))
	assert.Equal(t, "go", ExtensionOf("engine.go"))
	assert.Equal(t, "", ExtensionOf("Makefile"))
	assert.Equal(t, "", ExtensionOf("trailing."))
	assert.Equal(t, "", ExtensionOf(""))
}

func TestExtensionOfIgnoresDottedDirectories(t *testing.T) {
	assert.Equal(t, "", ExtensionOf("v1.2/Makefile"))
	assert.Equal(t, "py", ExtensionOf("release-1.0/src/main.py"))
	assert.Equal(t, "go", ExtensionOf(`C:\repo.v2\engine.GO`))
	assert.Equal(t, "", ExtensionOf(`builds\v1.2\README`))
}
