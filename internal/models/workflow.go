package models

import "fmt"

// StepKind tags the two workflow step variants.
type StepKind string

const (
	StepModel StepKind = "model"
	StepTool  StepKind = "tool"
)

// WorkflowStep is a single step of a workflow. Kind selects which variant
// fields are meaningful: a model step carries Model and Action, a tool step
// carries Tool and Args. Either variant may read from and write to the
// shared memory store via ReadMemory and SaveTo.
type WorkflowStep struct {
	Kind StepKind `yaml:"type" json:"type"`

	// model step
	Model  string `yaml:"model,omitempty" json:"model,omitempty"`
	Action string `yaml:"action,omitempty" json:"action,omitempty"`

	// tool step
	Tool string            `yaml:"tool,omitempty" json:"tool,omitempty"`
	Args map[string]string `yaml:"args,omitempty" json:"args,omitempty"`

	// ReadMemory substitutes the stored value for {memory} before the step
	// runs; a missing key reads as the empty string. SaveTo stores the step
	// output under the given key after the step, last write wins.
	ReadMemory string `yaml:"read_memory,omitempty" json:"read_memory,omitempty"`
	SaveTo     string `yaml:"save_to,omitempty" json:"save_to,omitempty"`
}

// Target returns the model or tool identifier the step dispatches to.
func (s WorkflowStep) Target() string {
	if s.Kind == StepTool {
		return s.Tool
	}
	return s.Model
}

// Validate checks the step variant is complete.
func (s WorkflowStep) Validate() error {
	switch s.Kind {
	case StepModel:
		if s.Model == "" {
			return fmt.Errorf("model step missing model")
		}
		if s.Action == "" {
			return fmt.Errorf("model step for %q missing action", s.Model)
		}
	case StepTool:
		if s.Tool == "" {
			return fmt.Errorf("tool step missing tool")
		}
	default:
		return fmt.Errorf("unknown step type %q", s.Kind)
	}
	return nil
}

// WorkflowDefinition is a named, ordered, non-branching step sequence.
// Step order is execution order.
type WorkflowDefinition struct {
	Name  string         `yaml:"name" json:"name"`
	Steps []WorkflowStep `yaml:"steps" json:"steps"`
}

// Validate checks the definition and every step in it.
func (w WorkflowDefinition) Validate() error {
	if w.Name == "" {
		return fmt.Errorf("workflow missing name")
	}
	if len(w.Steps) == 0 {
		return fmt.Errorf("workflow %q has no steps", w.Name)
	}
	for i, step := range w.Steps {
		if err := step.Validate(); err != nil {
			return fmt.Errorf("workflow %q step %d: %w", w.Name, i, err)
		}
	}
	return nil
}
