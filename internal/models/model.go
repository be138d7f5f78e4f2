package models

import "fmt"

// Mode describes how a backend model is meant to be driven by the editor
// client: full chat turns, inline completions, or agent-style tool use.
type Mode string

const (
	ModeChat   Mode = "chat"
	ModeInline Mode = "inline"
	ModeAgent  Mode = "agent"
)

// Valid reports whether the mode is one of the known values.
func (m Mode) Valid() bool {
	switch m {
	case ModeChat, ModeInline, ModeAgent:
		return true
	}
	return false
}

// ModelEntry describes one locally hosted backend model and how to reach it.
// Entries are loaded once at startup and never mutated afterwards.
type ModelEntry struct {
	ID       string `yaml:"id" json:"id"`
	Endpoint string `yaml:"endpoint" json:"endpoint"`
	Mode     Mode   `yaml:"mode" json:"mode"`
}

// Validate checks the entry is complete enough to be routed to.
func (e ModelEntry) Validate() error {
	if e.ID == "" {
		return fmt.Errorf("model entry missing id")
	}
	if e.Endpoint == "" {
		return fmt.Errorf("model %q missing endpoint", e.ID)
	}
	if e.Mode == "" {
		return fmt.Errorf("model %q missing mode", e.ID)
	}
	if !e.Mode.Valid() {
		return fmt.Errorf("model %q has unknown mode %q", e.ID, e.Mode)
	}
	return nil
}
