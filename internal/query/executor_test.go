package query

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"

	"prosimcorp.com/alerting/internal/alertmodel"
)

func TestBuildQueryBodyCount(t *testing.T) {
	rule := &alertmodel.Rule{
		Query: alertmodel.Query{
			Index:     []string{"logs-*"},
			TimeField: "@timestamp",
			TimeRange: alertmodel.TimeRange{From: "now-5m", To: "now"},
			Filter: map[string]any{
				"term": map[string]any{"level": "error"},
			},
		},
	}

	body, err := buildQueryBody(rule)
	if err != nil {
		t.Fatalf("buildQueryBody returned error: %v", err)
	}
	if body["size"] != 0 {
		t.Fatalf("expected size=0, got %v", body["size"])
	}
	if _, ok := body["aggs"]; ok {
		t.Fatalf("expected no aggs for a count-only rule")
	}

	q := body["query"].(map[string]any)
	must := q["bool"].(map[string]any)["must"].([]any)
	if len(must) != 2 {
		t.Fatalf("expected 2 must clauses, got %d", len(must))
	}
}

func TestBuildQueryBodyDefaultsMatchAll(t *testing.T) {
	rule := &alertmodel.Rule{
		Query: alertmodel.Query{
			Index:     []string{"logs-*"},
			TimeRange: alertmodel.TimeRange{From: "now-5m", To: "now"},
		},
	}

	body, _ := buildQueryBody(rule)
	q := body["query"].(map[string]any)
	must := q["bool"].(map[string]any)["must"].([]any)
	filter := must[0].(map[string]any)
	if _, ok := filter["match_all"]; !ok {
		t.Fatalf("expected match_all default filter, got %v", filter)
	}
}

func TestBuildQueryBodyWithAggregation(t *testing.T) {
	rule := &alertmodel.Rule{
		Query: alertmodel.Query{
			Index:     []string{"logs-*"},
			TimeRange: alertmodel.TimeRange{From: "now-5m", To: "now"},
			Aggregation: map[string]any{
				"percentiles": map[string]any{"field": "duration_ms", "percents": []any{95.0}},
			},
		},
	}

	body, _ := buildQueryBody(rule)
	aggs := body["aggs"].(map[string]any)
	if _, ok := aggs[aggKey]; !ok {
		t.Fatalf("expected aggregation keyed under %q, got %v", aggKey, aggs)
	}
}

func TestExtractCountResultObjectForm(t *testing.T) {
	resp := gjson.Parse(`{"hits":{"total":{"value":42,"relation":"eq"}}}`)
	if got := extractCountResult(resp); got != 42 {
		t.Fatalf("expected 42, got %v", got)
	}
}

func TestExtractCountResultBareForm(t *testing.T) {
	resp := gjson.Parse(`{"hits":{"total":17}}`)
	if got := extractCountResult(resp); got != 17 {
		t.Fatalf("expected 17, got %v", got)
	}
}

func TestExtractAggregationResultPercentile(t *testing.T) {
	resp := gjson.Parse(`{"aggregations":{"alert_agg":{"values":{"95.0":123.4}}}}`)
	if got := extractAggregationResult(resp, "percentiles.95.0", "test-rule", zerolog.Nop()); got != 123.4 {
		t.Fatalf("expected 123.4, got %v", got)
	}
}

func TestExtractAggregationResultSimpleMetric(t *testing.T) {
	resp := gjson.Parse(`{"aggregations":{"alert_agg":{"value":7.5}}}`)
	if got := extractAggregationResult(resp, "avg", "test-rule", zerolog.Nop()); got != 7.5 {
		t.Fatalf("expected 7.5, got %v", got)
	}
}

func TestExtractAggregationResultMissingDefaultsZero(t *testing.T) {
	resp := gjson.Parse(`{"aggregations":{"alert_agg":{}}}`)
	if got := extractAggregationResult(resp, "avg", "test-rule", zerolog.Nop()); got != 0.0 {
		t.Fatalf("expected 0.0, got %v", got)
	}
}
