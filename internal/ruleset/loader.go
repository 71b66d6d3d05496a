// Package ruleset loads and validates alert rule definitions from a
// directory of per-rule files, the Go counterpart of the original
// RuleLoader service and a direct generalization of the teacher's
// AlertsStore pool (internal/controller/searchrule_pool.go): the same
// mutex-guarded map, now keyed by rule name instead of alert key.
package ruleset

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"prosimcorp.com/alerting/internal/alertmodel"
	"prosimcorp.com/alerting/internal/syncmap"
)

// Loader reads alert rule files from a directory, validates them, and
// exposes the resulting rule set by name.
type Loader struct {
	dir    string
	logger zerolog.Logger
	rules  *syncmap.Store[*alertmodel.Rule]
}

// New returns a Loader rooted at dir. No files are read until LoadAll.
func New(dir string, logger zerolog.Logger) *Loader {
	return &Loader{dir: dir, logger: logger, rules: syncmap.New[*alertmodel.Rule]()}
}

// LoadAll scans the configured directory for rule files, parses and
// validates each, and replaces the previously loaded set. A per-file
// failure is logged and that file is skipped; other files still load.
// Duplicate names across files resolve last-loaded-wins, with files
// processed in sorted filename order so the outcome is deterministic.
func (l *Loader) LoadAll() map[string]*alertmodel.Rule {
	entries, err := ruleFiles(l.dir)
	if err != nil {
		l.logger.Warn().Str("dir", l.dir).Err(err).Msg("alert rules directory not found")
		l.rules.Replace(map[string]*alertmodel.Rule{})
		return l.rules.All()
	}

	loaded := make(map[string]*alertmodel.Rule, len(entries))
	for _, path := range entries {
		rule, err := l.loadRuleFile(path)
		if err != nil {
			l.logger.Error().Str("file", path).Err(err).Msg("failed to load alert rule")
			continue
		}
		loaded[rule.Name] = rule
		l.logger.Info().Str("rule", rule.Name).Bool("enabled", rule.Enabled).Msg("loaded alert rule")
	}

	l.rules.Replace(loaded)
	l.logger.Info().Int("count", len(loaded)).Msg("loaded alert rules")
	return l.rules.All()
}

// Validate loads every rule file under the configured directory without
// touching the live rule set, returning the names that parsed cleanly
// and an error per file that didn't. Built for the validate-rules CLI
// command, which needs a non-zero exit on any bad file rather than the
// skip-and-continue behavior LoadAll uses at service startup.
func (l *Loader) Validate() (valid []string, failures map[string]error) {
	entries, err := ruleFiles(l.dir)
	if err != nil {
		return nil, map[string]error{l.dir: err}
	}

	failures = make(map[string]error)
	for _, path := range entries {
		rule, err := l.loadRuleFile(path)
		if err != nil {
			failures[path] = err
			continue
		}
		valid = append(valid, rule.Name)
	}
	return valid, failures
}

// Reload is equivalent to LoadAll, named separately to match the
// operator-facing "reload rules" operation.
func (l *Loader) Reload() map[string]*alertmodel.Rule {
	l.logger.Info().Msg("reloading alert rules")
	return l.LoadAll()
}

// GetEnabled returns the subset of loaded rules with Enabled=true.
func (l *Loader) GetEnabled() []*alertmodel.Rule {
	all := l.rules.All()
	out := make([]*alertmodel.Rule, 0, len(all))
	for _, r := range all {
		if r.Enabled {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Get returns a single rule by name.
func (l *Loader) Get(name string) (*alertmodel.Rule, bool) {
	return l.rules.Get(name)
}

// All returns every loaded rule, enabled or not.
func (l *Loader) All() map[string]*alertmodel.Rule {
	return l.rules.All()
}

func (l *Loader) loadRuleFile(path string) (*alertmodel.Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &alertmodel.ConfigError{File: path, Reason: err.Error()}
	}

	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, &alertmodel.ConfigError{File: path, Reason: fmt.Sprintf("parse error: %v", err)}
	}

	resolved := resolveEnvVars(normalizeYAML(raw))

	// Round-trip through YAML to land the resolved generic tree onto the
	// typed Rule struct without a bespoke decoder.
	resolvedBytes, err := yaml.Marshal(resolved)
	if err != nil {
		return nil, &alertmodel.ConfigError{File: path, Reason: fmt.Sprintf("re-encode error: %v", err)}
	}

	var rule alertmodel.Rule
	if err := yaml.Unmarshal(resolvedBytes, &rule); err != nil {
		return nil, &alertmodel.ConfigError{File: path, Reason: fmt.Sprintf("decode error: %v", err)}
	}

	if err := validateRule(&rule); err != nil {
		return nil, &alertmodel.ConfigError{File: path, Reason: err.Error()}
	}

	rule.FilePath = path
	return &rule, nil
}

// normalizeYAML converts yaml.v3's map[string]interface{} keys (already
// strings) and nested map[interface{}]interface{} (only ever produced by
// the older yaml.v2 decoder, not v3) into the map[string]any/[]any shape
// resolveEnvVars expects. yaml.v3 already decodes into map[string]any, so
// this is effectively an identity pass that also guards against stray
// map[any]any values if a rule file round-trips through another decoder.
func normalizeYAML(value any) any {
	switch v := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, item := range v {
			out[k] = normalizeYAML(item)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(v))
		for k, item := range v {
			out[fmt.Sprintf("%v", k)] = normalizeYAML(item)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = normalizeYAML(item)
		}
		return out
	default:
		return value
	}
}

// ruleFiles lists .yml/.yaml/.json files directly under dir, sorted by
// filename for deterministic load order.
func ruleFiles(dir string) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if ext == ".yml" || ext == ".yaml" || ext == ".json" {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}
