package notify

import "testing"

func TestRenderStringSubstitutesKnownPath(t *testing.T) {
	ctx := map[string]any{"name": "high-error-rate", "result_count": 42}
	got := RenderTemplate("alert {{alert.name}} fired with count {{alert.result_count}}", ctx)
	want := "alert high-error-rate fired with count 42"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestRenderStringLeavesUnknownPathVerbatim(t *testing.T) {
	ctx := map[string]any{"name": "high-error-rate"}
	got := RenderTemplate("missing: {{alert.nonexistent}}", ctx)
	if got != "missing: {{alert.nonexistent}}" {
		t.Fatalf("expected placeholder left untouched, got %q", got)
	}
}

func TestRenderStringResolvesNestedPath(t *testing.T) {
	ctx := map[string]any{"metadata": map[string]any{"severity": "critical"}}
	got := RenderTemplate("{{alert.metadata.severity}}", ctx)
	if got != "critical" {
		t.Fatalf("got %q, want %q", got, "critical")
	}
}

func TestRenderTemplateRecursesThroughMapsAndSlices(t *testing.T) {
	ctx := map[string]any{"name": "high-error-rate", "state": "firing"}
	template := map[string]any{
		"text": "{{alert.name}} is {{alert.state}}",
		"tags": []any{"{{alert.state}}", "static"},
	}

	got := RenderTemplate(template, ctx).(map[string]any)
	if got["text"] != "high-error-rate is firing" {
		t.Fatalf("unexpected text: %v", got["text"])
	}
	tags := got["tags"].([]any)
	if tags[0] != "firing" || tags[1] != "static" {
		t.Fatalf("unexpected tags: %v", tags)
	}
}

func TestRenderTemplatePassesThroughNonStringScalars(t *testing.T) {
	got := RenderTemplate(42, map[string]any{})
	if got != 42 {
		t.Fatalf("expected scalar passthrough, got %v", got)
	}
}
