package history

import "testing"

func TestBuildHistoryQueryDefaultsTimeFromAndPassesLimitThrough(t *testing.T) {
	body := buildHistoryQuery("", "", 0)
	if body["size"] != 0 {
		t.Fatalf("expected size passthrough, got %v", body["size"])
	}
	must := body["query"].(map[string]any)["bool"].(map[string]any)["must"].([]any)
	if len(must) != 1 {
		t.Fatalf("expected only the time range clause when rule_name is empty, got %d clauses", len(must))
	}
	rangeClause := must[0].(map[string]any)["range"].(map[string]any)["timestamp"].(map[string]any)
	if rangeClause["gte"] != defaultTimeFrom {
		t.Fatalf("expected default time_from %q, got %v", defaultTimeFrom, rangeClause["gte"])
	}
}

func TestBuildHistoryQueryFiltersByRuleName(t *testing.T) {
	body := buildHistoryQuery("high-error-rate", "now-1h", 50)
	must := body["query"].(map[string]any)["bool"].(map[string]any)["must"].([]any)
	if len(must) != 2 {
		t.Fatalf("expected 2 must clauses when rule_name is set, got %d", len(must))
	}
	term := must[1].(map[string]any)["term"].(map[string]any)
	if term["rule_name"] != "high-error-rate" {
		t.Fatalf("expected rule_name term clause, got %v", term)
	}
}

func TestBuildHistoryQuerySortsNewestFirst(t *testing.T) {
	body := buildHistoryQuery("", "", 10)
	sort := body["sort"].([]any)[0].(map[string]any)["timestamp"].(map[string]any)
	if sort["order"] != "desc" {
		t.Fatalf("expected desc sort order, got %v", sort["order"])
	}
}
