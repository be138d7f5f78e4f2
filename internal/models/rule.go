package models

import "fmt"

// Match holds the optional conditions of a routing rule. A condition that is
// absent (empty list) places no constraint; a rule with no conditions at all
// matches every request and acts as a catch-all.
type Match struct {
	FileExtensions []string `yaml:"file_extensions,omitempty" json:"file_extensions,omitempty"`
	PromptContains []string `yaml:"prompt_contains,omitempty" json:"prompt_contains,omitempty"`
}

// Empty reports whether the match has no conditions.
func (m Match) Empty() bool {
	return len(m.FileExtensions) == 0 && len(m.PromptContains) == 0
}

// RoutingRule maps a match condition to a target model. Rules are evaluated
// strictly in configured order and the first satisfied rule wins, so the
// position of a rule in the sequence is its priority.
type RoutingRule struct {
	Name    string `yaml:"name,omitempty" json:"name,omitempty"`
	Match   Match  `yaml:"match" json:"match"`
	RouteTo string `yaml:"route_to" json:"route_to"`
}

// Validate checks the rule has a routing target.
func (r RoutingRule) Validate() error {
	if r.RouteTo == "" {
		return fmt.Errorf("routing rule %q missing route_to", r.Name)
	}
	return nil
}
