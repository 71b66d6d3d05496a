package ruleset

import (
	"os"
	"regexp"
)

// envVarPattern matches ${ENV_VAR} placeholders, ported directly from the
// original Python RuleLoader._resolve_env_vars.
var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// resolveEnvVars recursively replaces ${ENV_VAR} patterns with environment
// variable values across string, map, and slice leaves. Unresolved
// placeholders (the env var is unset) are preserved verbatim.
func resolveEnvVars(value any) any {
	switch v := value.(type) {
	case string:
		return envVarPattern.ReplaceAllStringFunc(v, func(match string) string {
			name := envVarPattern.FindStringSubmatch(match)[1]
			if resolved, ok := os.LookupEnv(name); ok {
				return resolved
			}
			return match
		})
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, item := range v {
			out[k] = resolveEnvVars(item)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = resolveEnvVars(item)
		}
		return out
	default:
		return value
	}
}
