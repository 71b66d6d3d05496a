// Package alertmodel holds the data types shared across the alerting
// engine: rule definitions, persisted state, and history events.
package alertmodel

import (
	"fmt"
	"regexp"
)

// intervalPattern matches schedule.interval strings like "30s", "5m", "1h", "2d".
var intervalPattern = regexp.MustCompile(`^(\d+)([smhd])$`)

// Rule is a named, periodic threshold check with notification actions.
//
// It is the Go shape of one alert rule definition file; field names and
// nesting mirror the YAML/JSON on disk exactly so decoding needs no
// translation layer.
type Rule struct {
	Name        string          `yaml:"name" json:"name" validate:"required"`
	Description string          `yaml:"description" json:"description"`
	Enabled     bool            `yaml:"enabled" json:"enabled"`
	Schedule    Schedule        `yaml:"schedule" json:"schedule" validate:"required"`
	Query       Query           `yaml:"query" json:"query" validate:"required"`
	Condition   Condition       `yaml:"condition" json:"condition" validate:"required"`
	Actions     []WebhookAction `yaml:"actions" json:"actions" validate:"required,min=1,dive"`
	Throttle    Throttle        `yaml:"throttle" json:"throttle" validate:"required"`
	Metadata    Metadata        `yaml:"metadata" json:"metadata"`

	// FilePath is the file this rule was loaded from, set by the loader.
	FilePath string `yaml:"-" json:"-"`
}

// Schedule is the alert check schedule.
type Schedule struct {
	Interval string `yaml:"interval" json:"interval" validate:"required"`
}

// ParsedInterval splits an interval string into its numeric value and unit.
func (s Schedule) ParsedInterval() (value int, unit string, err error) {
	m := intervalPattern.FindStringSubmatch(s.Interval)
	if m == nil {
		return 0, "", fmt.Errorf("invalid interval format: %q", s.Interval)
	}
	var n int
	_, err = fmt.Sscanf(m[1], "%d", &n)
	if err != nil {
		return 0, "", fmt.Errorf("invalid interval value: %q", s.Interval)
	}
	return n, m[2], nil
}

// TimeRange is the relative OpenSearch time window for a query.
type TimeRange struct {
	From string `yaml:"from" json:"from" validate:"required"`
	To   string `yaml:"to" json:"to" validate:"required"`
}

// Query is the OpenSearch query definition for a rule.
type Query struct {
	Index       []string       `yaml:"index" json:"index" validate:"required,min=1"`
	TimeField   string         `yaml:"time_field" json:"time_field"`
	TimeRange   TimeRange      `yaml:"time_range" json:"time_range" validate:"required"`
	Filter      map[string]any `yaml:"filter" json:"filter"`
	Aggregation map[string]any `yaml:"aggregation,omitempty" json:"aggregation,omitempty"`
}

// EffectiveTimeField returns TimeField, defaulting to "@timestamp".
func (q Query) EffectiveTimeField() string {
	if q.TimeField == "" {
		return "@timestamp"
	}
	return q.TimeField
}

// Condition is a threshold condition for firing an alert.
type Condition struct {
	Type               string  `yaml:"type" json:"type"`
	Operator           string  `yaml:"operator" json:"operator" validate:"required,oneof=gt gte lt lte eq"`
	Value              float64 `yaml:"value" json:"value"`
	AggregationField   string  `yaml:"aggregation_field,omitempty" json:"aggregation_field,omitempty"`
}

// WebhookConfig is a webhook endpoint configuration.
type WebhookConfig struct {
	URL     string            `yaml:"url" json:"url" validate:"required,url"`
	Method  string            `yaml:"method" json:"method" validate:"required,oneof=POST PUT PATCH"`
	Headers map[string]string `yaml:"headers" json:"headers"`
	Body    any               `yaml:"body" json:"body"`
}

// WebhookAction is an alert notification action.
type WebhookAction struct {
	Type    string        `yaml:"type" json:"type"`
	Name    string        `yaml:"name" json:"name" validate:"required"`
	Webhook WebhookConfig `yaml:"webhook" json:"webhook" validate:"required"`
}

// Throttle prevents alert spam while a rule stays firing.
type Throttle struct {
	Value int    `yaml:"value" json:"value" validate:"required,min=1"`
	Unit  string `yaml:"unit" json:"unit" validate:"required,oneof=seconds minutes hours"`
}

// Seconds converts the throttle window into seconds, defaulting unknown
// units to minutes (60x), matching the original throttle parser.
func (t Throttle) Seconds() int {
	multipliers := map[string]int{"seconds": 1, "minutes": 60, "hours": 3600}
	m, ok := multipliers[t.Unit]
	if !ok {
		m = 60
	}
	return t.Value * m
}

// Metadata is alert metadata for categorization and ownership.
type Metadata struct {
	Severity string   `yaml:"severity" json:"severity" validate:"required,oneof=critical high medium low"`
	Category string   `yaml:"category" json:"category"`
	Owner    string   `yaml:"owner" json:"owner"`
	Runbook  string   `yaml:"runbook,omitempty" json:"runbook,omitempty"`
	Tags     []string `yaml:"tags,omitempty" json:"tags,omitempty"`
}
