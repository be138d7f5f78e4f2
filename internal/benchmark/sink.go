package benchmark

import "time"

// promptSample is how much of a prompt is kept in a record. Full prompts do
// not belong in benchmark data.
const promptSample = 100

// Record captures one routed request or workflow step for latency
// benchmarking.
type Record struct {
	Timestamp time.Time `json:"timestamp" db:"created_at"`
	RequestID string    `json:"request_id" db:"request_id"`
	Kind      string    `json:"kind" db:"kind"` // "chat" or "workflow_step"
	Workflow  string    `json:"workflow,omitempty" db:"workflow"`
	StepIndex int       `json:"step_index" db:"step_index"`
	Model     string    `json:"model" db:"model"`
	Prompt    string    `json:"prompt" db:"prompt"`
	LatencyMS int64     `json:"latency_ms" db:"latency_ms"`
	Error     string    `json:"error,omitempty" db:"error"`
}

// Sample truncates a prompt for inclusion in a Record.
func Sample(prompt string) string {
	runes := []rune(prompt)
	if len(runes) <= promptSample {
		return prompt
	}
	return string(runes[:promptSample])
}

// Sink receives benchmark records. Enqueue must never block the request
// path; callers ignore its error and a failed enqueue loses the record.
type Sink interface {
	Enqueue(rec *Record) error
}

// NoopSink discards records. Used when benchmark persistence is disabled.
type NoopSink struct{}

func NewNoopSink() *NoopSink {
	return &NoopSink{}
}

func (s *NoopSink) Enqueue(rec *Record) error {
	return nil
}
