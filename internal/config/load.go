package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"modelrouter/internal/auth"
	"modelrouter/internal/models"
)

// File names expected under ConfigDir. Only models.yaml is mandatory; the
// router runs fine with no rules (every request is a no-route), no
// workflows, and no API keys (open access).
const (
	modelsFile    = "models.yaml"
	rulesFile     = "routing_rules.yaml"
	workflowsFile = "workflows.yaml"
	apiKeysFile   = "api_keys.yaml"
)

// RouterConfig holds the declarative objects loaded from YAML: the model
// registry entries, the ordered routing rules, the workflow definitions and
// the API keys.
type RouterConfig struct {
	Models    []models.ModelEntry        `yaml:"models"`
	Rules     []models.RoutingRule       `yaml:"rules"`
	Workflows []models.WorkflowDefinition `yaml:"workflows"`
	APIKeys   []auth.KeyEntry            `yaml:"api_keys"`
}

type modelsDoc struct {
	Models []models.ModelEntry `yaml:"models"`
}

type rulesDoc struct {
	Rules []models.RoutingRule `yaml:"rules"`
}

type workflowsDoc struct {
	Workflows []models.WorkflowDefinition `yaml:"workflows"`
}

type apiKeysDoc struct {
	APIKeys []auth.KeyEntry `yaml:"api_keys"`
}

// LoadRouterConfig reads the YAML files under dir and cross-validates them:
// every rule target and every model-step model must name a configured model,
// and file order is preserved so rule position stays rule priority.
func LoadRouterConfig(dir string) (*RouterConfig, error) {
	cfg := &RouterConfig{}

	var mdoc modelsDoc
	if err := readYAML(filepath.Join(dir, modelsFile), &mdoc, true); err != nil {
		return nil, err
	}
	cfg.Models = mdoc.Models

	var rdoc rulesDoc
	if err := readYAML(filepath.Join(dir, rulesFile), &rdoc, false); err != nil {
		return nil, err
	}
	cfg.Rules = rdoc.Rules

	var wdoc workflowsDoc
	if err := readYAML(filepath.Join(dir, workflowsFile), &wdoc, false); err != nil {
		return nil, err
	}
	cfg.Workflows = wdoc.Workflows

	var kdoc apiKeysDoc
	if err := readYAML(filepath.Join(dir, apiKeysFile), &kdoc, false); err != nil {
		return nil, err
	}
	cfg.APIKeys = kdoc.APIKeys

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// readYAML unmarshals one file into out. A missing optional file leaves out
// untouched.
func readYAML(path string, out any, required bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !required {
			return nil
		}
		return fmt.Errorf("reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}

// Validate checks each object and the references between them.
func (c *RouterConfig) Validate() error {
	if len(c.Models) == 0 {
		return fmt.Errorf("no models configured")
	}
	known := make(map[string]bool, len(c.Models))
	for i, entry := range c.Models {
		if err := entry.Validate(); err != nil {
			return fmt.Errorf("models[%d]: %w", i, err)
		}
		if known[entry.ID] {
			return fmt.Errorf("duplicate model id %q", entry.ID)
		}
		known[entry.ID] = true
	}

	for i, rule := range c.Rules {
		if err := rule.Validate(); err != nil {
			return fmt.Errorf("rules[%d]: %w", i, err)
		}
		if !known[rule.RouteTo] {
			return fmt.Errorf("rules[%d] (%s): route_to %q is not a configured model", i, rule.Name, rule.RouteTo)
		}
	}

	names := make(map[string]bool, len(c.Workflows))
	for i, wf := range c.Workflows {
		if err := wf.Validate(); err != nil {
			return fmt.Errorf("workflows[%d]: %w", i, err)
		}
		if names[wf.Name] {
			return fmt.Errorf("duplicate workflow name %q", wf.Name)
		}
		names[wf.Name] = true
		for j, step := range wf.Steps {
			if step.Kind == models.StepModel && !known[step.Model] {
				return fmt.Errorf("workflow %q step %d: model %q is not a configured model", wf.Name, j, step.Model)
			}
		}
	}

	for i, key := range c.APIKeys {
		if key.KeyHash == "" {
			return fmt.Errorf("api_keys[%d] (%s): missing key_hash", i, key.Name)
		}
	}

	return nil
}
