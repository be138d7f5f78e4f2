package tools

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrUnknownTool is returned when a workflow step names a tool that is not
// registered.
var ErrUnknownTool = errors.New("unknown tool")

// Func is a single local tool. It receives the step's configured args merged
// with the workflow's running context under "input" (and the step's memory
// read under "memory", when declared).
type Func func(ctx context.Context, args map[string]string) (string, error)

// Registry maps tool names to implementations. It is populated at startup
// and read-only afterwards.
type Registry struct {
	tools map[string]Func
}

// NewRegistry creates a registry with the built-in tools.
func NewRegistry() *Registry {
	r := &Registry{tools: make(map[string]Func)}
	r.Register("word_count", wordCount)
	r.Register("uppercase", uppercase)
	r.Register("extract_code", extractCode)
	return r
}

// Register adds or replaces a tool.
func (r *Registry) Register(name string, fn Func) {
	r.tools[name] = fn
}

// Run executes a tool by name.
func (r *Registry) Run(ctx context.Context, name string, args map[string]string) (string, error) {
	fn, ok := r.tools[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}
	out, err := fn(ctx, args)
	if err != nil {
		return "", fmt.Errorf("tool %s: %w", name, err)
	}
	return out, nil
}

// Names returns the registered tool names, for diagnostics.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	return names
}

func wordCount(ctx context.Context, args map[string]string) (string, error) {
	return strconv.Itoa(len(strings.Fields(args["input"]))), nil
}

func uppercase(ctx context.Context, args map[string]string) (string, error) {
	return strings.ToUpper(args["input"]), nil
}

// extractCode pulls the contents of fenced code blocks out of model output.
// Language hints after the opening fence are dropped. Input without fences
// is returned unchanged so the tool is safe to chain after any model step.
func extractCode(ctx context.Context, args map[string]string) (string, error) {
	input := args["input"]
	if !strings.Contains(input, "```") {
		return input, nil
	}

	var blocks []string
	rest := input
	for {
		start := strings.Index(rest, "```")
		if start < 0 {
			break
		}
		rest = rest[start+3:]
		end := strings.Index(rest, "```")
		if end < 0 {
			break
		}
		block := rest[:end]
		rest = rest[end+3:]

		// Drop the language hint line, if any.
		if nl := strings.IndexByte(block, '\n'); nl >= 0 {
			block = block[nl+1:]
		} else {
			block = ""
		}
		block = strings.TrimRight(block, "\n")
		if block != "" {
			blocks = append(blocks, block)
		}
	}

	if len(blocks) == 0 {
		return "", nil
	}
	return strings.Join(blocks, "\n\n"), nil
}
