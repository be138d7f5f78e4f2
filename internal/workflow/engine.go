package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"modelrouter/internal/benchmark"
	"modelrouter/internal/memory"
	"modelrouter/internal/models"
	"modelrouter/internal/registry"
	"modelrouter/internal/utils"
)

// ErrNotFound is returned when a requested workflow name is not configured.
var ErrNotFound = errors.New("workflow not found")

// Invoker is one blocking round trip to a model backend.
type Invoker interface {
	Complete(ctx context.Context, entry models.ModelEntry, instruction string) (string, error)
}

// ToolRunner executes a named local tool.
type ToolRunner interface {
	Run(ctx context.Context, name string, args map[string]string) (string, error)
}

// StepResult records one executed step of a run, in execution order.
type StepResult struct {
	Index     int             `json:"index"`
	Kind      models.StepKind `json:"kind"`
	Target    string          `json:"target"`
	Output    string          `json:"output,omitempty"`
	Error     string          `json:"error,omitempty"`
	LatencyMS int64           `json:"latency_ms"`
}

// RunResult is the aggregate outcome of a workflow run. When a run fails
// partway, Steps holds the trace up to and including the failing step and
// Output is empty.
type RunResult struct {
	Workflow string       `json:"workflow"`
	RunID    string       `json:"run_id"`
	Steps    []StepResult `json:"steps"`
	Output   string       `json:"output"`
}

// StepError reports the failing step of a run and wraps the underlying
// cause.
type StepError struct {
	Workflow string
	Index    int
	Err      error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("workflow %s step %d: %v", e.Workflow, e.Index, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// Engine executes named workflows: strictly sequential step chains that
// thread each step's output into the next and share the ephemeral memory
// store. Definitions are immutable after construction; concurrent runs are
// independent apart from the memory store.
type Engine struct {
	workflows map[string]models.WorkflowDefinition
	reg       *registry.Registry
	mem       memory.Store
	invoker   Invoker
	tools     ToolRunner
	sink      benchmark.Sink
	log       *utils.Logger
}

// NewEngine builds an engine over the configured definitions. The sink may
// be nil when per-step benchmarking is disabled.
func NewEngine(
	defs []models.WorkflowDefinition,
	reg *registry.Registry,
	mem memory.Store,
	invoker Invoker,
	tools ToolRunner,
	sink benchmark.Sink,
	log *utils.Logger,
) *Engine {
	if sink == nil {
		sink = benchmark.NewNoopSink()
	}
	if log == nil {
		log = utils.NewLogger("workflow")
	}
	workflows := make(map[string]models.WorkflowDefinition, len(defs))
	for _, def := range defs {
		workflows[def.Name] = def
	}
	return &Engine{
		workflows: workflows,
		reg:       reg,
		mem:       mem,
		invoker:   invoker,
		tools:     tools,
		sink:      sink,
		log:       log,
	}
}

// Len returns the number of configured workflows.
func (e *Engine) Len() int {
	return len(e.workflows)
}

// Run executes the named workflow with the given initial input. The first
// step sees input as its running context; each later step sees the previous
// step's output. A failing step aborts the run: the returned RunResult
// holds the partial trace and the error is a *StepError carrying the step
// position and cause. Cancelling ctx stops the run before the next step is
// issued; an in-flight backend call owns its own timeout.
func (e *Engine) Run(ctx context.Context, name string, input string) (*RunResult, error) {
	def, ok := e.workflows[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}

	result := &RunResult{
		Workflow: name,
		RunID:    uuid.New().String(),
		Steps:    make([]StepResult, 0, len(def.Steps)),
	}

	running := input
	for i, step := range def.Steps {
		if err := ctx.Err(); err != nil {
			return result, &StepError{Workflow: name, Index: i, Err: err}
		}

		start := time.Now()
		output, err := e.runStep(ctx, step, running)
		latency := time.Since(start).Milliseconds()

		trace := StepResult{
			Index:     i,
			Kind:      step.Kind,
			Target:    step.Target(),
			LatencyMS: latency,
		}

		if err != nil {
			trace.Error = err.Error()
			result.Steps = append(result.Steps, trace)
			e.record(result, trace, running)
			e.log.Error("step failed", "workflow", name, "step", i, "target", step.Target(), "error", err)
			return result, &StepError{Workflow: name, Index: i, Err: err}
		}

		trace.Output = output
		result.Steps = append(result.Steps, trace)
		e.record(result, trace, running)
		e.log.Info("step done", "workflow", name, "step", i, "target", step.Target(), "latency_ms", latency)

		if step.SaveTo != "" {
			// Memory is best-effort state; a failed write never aborts
			// the run.
			if err := e.mem.Set(ctx, step.SaveTo, output); err != nil {
				e.log.Warn("memory write failed", "key", step.SaveTo, "error", err)
			}
		}

		running = output
	}

	result.Output = running
	return result, nil
}

// runStep dispatches on the step variant.
func (e *Engine) runStep(ctx context.Context, step models.WorkflowStep, running string) (string, error) {
	memValue := e.readMemory(ctx, step)

	switch step.Kind {
	case models.StepModel:
		entry, err := e.reg.Resolve(step.Model)
		if err != nil {
			return "", err
		}
		instruction := renderInstruction(step.Action, running, memValue, step.ReadMemory != "")
		return e.invoker.Complete(ctx, entry, instruction)

	case models.StepTool:
		args := make(map[string]string, len(step.Args)+2)
		for k, v := range step.Args {
			args[k] = v
		}
		args["input"] = running
		if step.ReadMemory != "" {
			args["memory"] = memValue
		}
		return e.tools.Run(ctx, step.Tool, args)

	default:
		return "", fmt.Errorf("unknown step type %q", step.Kind)
	}
}

// readMemory resolves a step's declared memory read. A missing key, or a
// store error, reads as the empty string so workflows tolerate cold memory.
func (e *Engine) readMemory(ctx context.Context, step models.WorkflowStep) string {
	if step.ReadMemory == "" {
		return ""
	}
	value, ok, err := e.mem.Get(ctx, step.ReadMemory)
	if err != nil {
		e.log.Warn("memory read failed", "key", step.ReadMemory, "error", err)
		return ""
	}
	if !ok {
		return ""
	}
	return value
}

// renderInstruction combines a step's action template with the running
// context and any memory value. {memory} is substituted only when the step
// declares read_memory, so the token stays literal otherwise. An action
// without {input} gets the running context appended after a blank line.
func renderInstruction(action, running, memValue string, readsMemory bool) string {
	out := action
	if readsMemory {
		out = strings.ReplaceAll(out, "{memory}", memValue)
	}
	if strings.Contains(out, "{input}") {
		return strings.ReplaceAll(out, "{input}", running)
	}
	if running == "" {
		return out
	}
	return out + "\n\n" + running
}

// record emits a per-step benchmark record. Sink failures are swallowed;
// benchmarking never affects the run.
func (e *Engine) record(result *RunResult, trace StepResult, prompt string) {
	_ = e.sink.Enqueue(&benchmark.Record{
		Timestamp: time.Now().UTC(),
		RequestID: result.RunID,
		Kind:      "workflow_step",
		Workflow:  result.Workflow,
		StepIndex: trace.Index,
		Model:     trace.Target,
		Prompt:    benchmark.Sample(prompt),
		LatencyMS: trace.LatencyMS,
		Error:     trace.Error,
	})
}
