// Package notify renders webhook bodies and dispatches them with retry,
// the Go counterpart of the original TemplateRenderer and
// WebhookNotifier services. Template rendering is deliberately a
// hand-rolled regex substitution, not a general template engine — the
// only supported syntax is "{{alert.<dot.path>}}" against a fixed
// notification context, so text/template (and the teacher's
// Masterminds/sprig-based renderer) would be more machinery than the
// job needs.
package notify

import (
	"fmt"
	"regexp"
	"strings"
)

// templatePattern matches {{alert.<path>}} placeholders, ported directly
// from the original TEMPLATE_PATTERN.
var templatePattern = regexp.MustCompile(`\{\{alert\.([^}]+)\}\}`)

// RenderTemplate recursively substitutes "{{alert.<path>}}" patterns
// found in template (a string, map, or slice leaf) with values resolved
// from context by dot-notation path. Non-string, non-container values
// pass through unchanged. An unresolved path (missing key anywhere along
// it) leaves the placeholder text untouched.
func RenderTemplate(template any, context map[string]any) any {
	switch t := template.(type) {
	case string:
		return renderString(t, context)
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, v := range t {
			out[k] = RenderTemplate(v, context)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, v := range t {
			out[i] = RenderTemplate(v, context)
		}
		return out
	default:
		return template
	}
}

func renderString(text string, context map[string]any) string {
	return templatePattern.ReplaceAllStringFunc(text, func(match string) string {
		submatch := templatePattern.FindStringSubmatch(match)
		path := submatch[1]
		value, ok := resolvePath(path, context)
		if !ok || value == nil {
			return match
		}
		return fmt.Sprintf("%v", value)
	})
}

// resolvePath walks a dot-notation path against context, returning
// false the moment any segment is missing or the current value isn't a
// map to descend into.
func resolvePath(path string, context map[string]any) (any, bool) {
	var current any = context
	for _, part := range strings.Split(path, ".") {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		value, ok := m[part]
		if !ok {
			return nil, false
		}
		current = value
	}
	return current, true
}
