package routing

import (
	"errors"
	"fmt"
	"strings"

	"modelrouter/internal/models"
	"modelrouter/internal/registry"
	"modelrouter/internal/utils"
)

// ErrNoRoute is returned when no rule matched the request and no catch-all
// rule is configured. The server layer decides the externally visible
// fallback; the engine never picks a default on its own.
var ErrNoRoute = errors.New("no routing rule matched")

// Request is the routable view of an inbound chat request. Extension may be
// empty when the client did not send a file; it is normalized during
// matching so ".PY", "py" and ".py" are equivalent.
type Request struct {
	Extension string
	Prompt    string
}

// Engine evaluates an ordered rule list against incoming requests. Rules
// are immutable after construction and evaluation is stateless, so a single
// engine serves any number of concurrent requests.
type Engine struct {
	rules []models.RoutingRule
	reg   *registry.Registry
	log   *utils.Logger
}

// NewEngine builds an engine over the configured rules and registry.
func NewEngine(rules []models.RoutingRule, reg *registry.Registry, log *utils.Logger) *Engine {
	if log == nil {
		log = utils.NewLogger("routing")
	}
	return &Engine{rules: rules, reg: reg, log: log}
}

// SelectModel walks the rules in configured order and returns the target of
// the first satisfied rule. A rule is satisfied when all of its present
// conditions hold; a rule with no conditions matches unconditionally. The
// chosen target is validated against the registry before it is returned.
func (e *Engine) SelectModel(req Request) (string, error) {
	ext := NormalizeExtension(req.Extension)
	prompt := strings.ToLower(req.Prompt)

	for i, rule := range e.rules {
		if !extensionMatches(rule.Match.FileExtensions, ext) {
			continue
		}
		if !keywordMatches(rule.Match.PromptContains, prompt) {
			continue
		}
		if _, err := e.reg.Resolve(rule.RouteTo); err != nil {
			return "", fmt.Errorf("rule %d routes to %q: %w", i, rule.RouteTo, err)
		}
		e.log.Info("rule matched", "rule", i, "model", rule.RouteTo, "ext", ext)
		return rule.RouteTo, nil
	}

	return "", ErrNoRoute
}

// NormalizeExtension lowercases an extension token and strips a leading dot.
func NormalizeExtension(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// ExtensionOf returns the normalized extension of a file path, or "" when
// the path has none. Only the final path segment is considered, so a dotted
// directory name never leaks into the extension.
func ExtensionOf(path string) string {
	if sep := strings.LastIndexAny(path, `/\`); sep >= 0 {
		path = path[sep+1:]
	}
	idx := strings.LastIndexByte(path, '.')
	if idx < 0 || idx == len(path)-1 {
		return ""
	}
	return NormalizeExtension(path[idx:])
}

// extensionMatches holds when the condition is absent or the request's
// extension is a member. An absent extension never satisfies a present
// condition.
func extensionMatches(exts []string, ext string) bool {
	if len(exts) == 0 {
		return true
	}
	if ext == "" {
		return false
	}
	for _, candidate := range exts {
		if NormalizeExtension(candidate) == ext {
			return true
		}
	}
	return false
}

// keywordMatches holds when the condition is absent or at least one keyword
// occurs as a substring of the lowercased prompt.
func keywordMatches(keywords []string, prompt string) bool {
	if len(keywords) == 0 {
		return true
	}
	for _, kw := range keywords {
		if strings.Contains(prompt, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}
