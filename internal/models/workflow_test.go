package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkflowStepValidate(t *testing.T) {
	t.Run("valid model step", func(t *testing.T) {
		step := WorkflowStep{Kind: StepModel, Model: "qwen3-4b", Action: "Summarize: {input}"}
		assert.NoError(t, step.Validate())
	})

	t.Run("model step without action", func(t *testing.T) {
		step := WorkflowStep{Kind: StepModel, Model: "qwen3-4b"}
		assert.Error(t, step.Validate())
	})

	t.Run("valid tool step", func(t *testing.T) {
		step := WorkflowStep{Kind: StepTool, Tool: "word_count"}
		assert.NoError(t, step.Validate())
	})

	t.Run("unknown kind", func(t *testing.T) {
		step := WorkflowStep{Kind: "branch", Model: "qwen3-4b"}
		assert.Error(t, step.Validate())
	})
}

func TestWorkflowStepTarget(t *testing.T) {
	model := WorkflowStep{Kind: StepModel, Model: "qwen3-8b", Action: "Refine: {input}"}
	tool := WorkflowStep{Kind: StepTool, Tool: "uppercase"}

	assert.Equal(t, "qwen3-8b", model.Target())
	assert.Equal(t, "uppercase", tool.Target())
}

func TestWorkflowDefinitionValidate(t *testing.T) {
	def := WorkflowDefinition{
		Name: "summarize_then_refine",
		Steps: []WorkflowStep{
			{Kind: StepModel, Model: "qwen3-4b", Action: "Summarize: {input}"},
			{Kind: StepModel, Model: "qwen3-8b", Action: "Refine: {input}"},
		},
	}
	require.NoError(t, def.Validate())

	t.Run("empty steps", func(t *testing.T) {
		assert.Error(t, WorkflowDefinition{Name: "empty"}.Validate())
	})

	t.Run("invalid step reported with index", func(t *testing.T) {
		bad := WorkflowDefinition{
			Name: "broken",
			Steps: []WorkflowStep{
				{Kind: StepModel, Model: "qwen3-4b", Action: "ok {input}"},
				{Kind: StepTool},
			},
		}
		err := bad.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "step 1")
	})
}

func TestModelEntryValidate(t *testing.T) {
	entry := ModelEntry{ID: "deepseek-coder", Endpoint: "http://localhost:11434", Mode: ModeChat}
	assert.NoError(t, entry.Validate())

	assert.Error(t, ModelEntry{Endpoint: "http://localhost:11434", Mode: ModeChat}.Validate())
	assert.Error(t, ModelEntry{ID: "x", Mode: ModeChat}.Validate())
	assert.Error(t, ModelEntry{ID: "x", Endpoint: "http://localhost", Mode: "batch"}.Validate())
}
