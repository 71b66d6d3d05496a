// Package query builds OpenSearch search bodies from alert rules and
// extracts the single numeric result the condition evaluator compares
// against a threshold. Ported from the original query_executor.py, with
// response-field extraction done through tidwall/gjson the way the
// teacher's searchrule_sync.go extracted fields from Elasticsearch
// responses.
package query

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	opensearch "github.com/opensearch-project/opensearch-go/v2"
	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"

	"prosimcorp.com/alerting/internal/alertmodel"
)

const aggKey = "alert_agg"

// Executor runs a rule's query against OpenSearch.
type Executor struct {
	client *opensearch.Client
	logger zerolog.Logger
}

// New returns an Executor backed by client.
func New(client *opensearch.Client, logger zerolog.Logger) *Executor {
	return &Executor{client: client, logger: logger}
}

// Execute builds the search body for rule, runs it, and extracts the
// numeric result. Any failure (transport, non-2xx, or a response shape
// the extractor can't parse) is captured in QueryResult.Success=false
// rather than returned as an error — the scheduler records it as an
// "error" history event and moves on.
func (e *Executor) Execute(ctx context.Context, rule *alertmodel.Rule) alertmodel.QueryResult {
	body, err := buildQueryBody(rule)
	if err != nil {
		return alertmodel.QueryResult{Success: false, Error: err.Error()}
	}

	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return alertmodel.QueryResult{Success: false, Error: fmt.Sprintf("marshal query body: %v", err)}
	}

	res, err := e.client.Search(
		e.client.Search.WithContext(ctx),
		e.client.Search.WithIndex(strings.Join(rule.Query.Index, ",")),
		e.client.Search.WithBody(bytes.NewReader(bodyBytes)),
		e.client.Search.WithSize(0),
	)
	if err != nil {
		return alertmodel.QueryResult{Success: false, Error: fmt.Sprintf("search request failed: %v", err)}
	}
	defer res.Body.Close()

	respBytes, err := io.ReadAll(res.Body)
	if err != nil {
		return alertmodel.QueryResult{Success: false, Error: fmt.Sprintf("reading search response: %v", err)}
	}

	if res.IsError() {
		return alertmodel.QueryResult{Success: false, Error: fmt.Sprintf("opensearch returned %s: %s", res.Status(), string(respBytes))}
	}

	response := gjson.ParseBytes(respBytes)
	tookMs := int(response.Get("took").Int())

	var value float64
	if len(rule.Query.Aggregation) > 0 && rule.Condition.AggregationField != "" {
		value = extractAggregationResult(response, rule.Condition.AggregationField, rule.Name, e.logger)
	} else {
		value = extractCountResult(response)
	}

	return alertmodel.QueryResult{Value: value, TookMs: tookMs, Success: true}
}

// buildQueryBody wraps the rule's filter and a synthesized time range
// filter inside a bool.must array, and attaches the rule's aggregation
// (if any) under the fixed key "alert_agg". size is always 0 — alerting
// never needs the matching documents.
func buildQueryBody(rule *alertmodel.Rule) (map[string]any, error) {
	timeRangeFilter := map[string]any{
		"range": map[string]any{
			rule.Query.EffectiveTimeField(): map[string]any{
				"gte": rule.Query.TimeRange.From,
				"lte": rule.Query.TimeRange.To,
			},
		},
	}

	filter := rule.Query.Filter
	if filter == nil {
		filter = map[string]any{"match_all": map[string]any{}}
	}

	body := map[string]any{
		"query": map[string]any{
			"bool": map[string]any{
				"must": []any{filter, timeRangeFilter},
			},
		},
		"size": 0,
	}

	if len(rule.Query.Aggregation) > 0 {
		body["aggs"] = map[string]any{aggKey: rule.Query.Aggregation}
	}

	return body, nil
}

// extractCountResult reads hits.total, accepting both the object form
// ({value, relation}) and the legacy bare-integer form.
func extractCountResult(response gjson.Result) float64 {
	total := response.Get("hits.total")
	if total.IsObject() {
		return total.Get("value").Float()
	}
	return total.Float()
}

// extractAggregationResult navigates aggregations.alert_agg using
// condition.aggregation_field. Percentile-shaped aggregations carry a
// "values" sub-object keyed by everything after the first dot-segment
// (e.g. "percentiles.95.0" -> values["95.0"]); simple metric
// aggregations (avg, sum, min, max, ...) carry a bare "value". Missing
// values default to 0.0 and log a warning, since a silent 0.0 would be
// indistinguishable from a genuine zero-valued aggregation result.
func extractAggregationResult(response gjson.Result, aggField string, ruleName string, logger zerolog.Logger) float64 {
	agg := response.Get("aggregations." + aggKey)

	if values := agg.Get("values"); values.Exists() {
		parts := strings.SplitN(aggField, ".", 2)
		if len(parts) == 2 {
			if v := values.Get(gjsonEscape(parts[1])); v.Exists() {
				return v.Float()
			}
		}
	}

	if v := agg.Get("value"); v.Exists() {
		return v.Float()
	}

	logger.Warn().Str("rule", ruleName).Str("aggregation_field", aggField).Msg("aggregation result missing from opensearch response, defaulting to 0.0")
	return 0.0
}

// gjsonEscape guards dotted percentile keys like "95.0" from being
// mis-parsed as a nested gjson path.
func gjsonEscape(key string) string {
	return strings.ReplaceAll(key, ".", `\.`)
}
