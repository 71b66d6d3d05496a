package alertmodel

import "fmt"

// ConfigError marks an invalid rule file, missing required field, or
// unparseable interval. Surfaced at load time; the offending rule is
// skipped while other rules continue loading.
type ConfigError struct {
	File   string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error in %s: %s", e.File, e.Reason)
}

// QueryError marks an OpenSearch search failure (transport, 4xx/5xx,
// shape mismatch). Converted into a QueryResult with Success=false; it
// never propagates past the scheduler.
type QueryError struct {
	RuleName string
	Reason   string
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("query error for rule %q: %s", e.RuleName, e.Reason)
}

// PersistenceError marks a state or history write failure. Logged only;
// in-memory state remains authoritative for the current run.
type PersistenceError struct {
	Index  string
	Reason string
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence error writing to %q: %s", e.Index, e.Reason)
}

// NotificationError marks a webhook failure after retries are exhausted.
type NotificationError struct {
	Action string
	Reason string
}

func (e *NotificationError) Error() string {
	return fmt.Sprintf("notification error for action %q: %s", e.Action, e.Reason)
}

// ValidationError marks malformed management-API input (unknown rule
// name, bad pagination). Carries a stable Code for 4xx mapping.
type ValidationError struct {
	Code    string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}
