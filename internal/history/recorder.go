// Package history persists alert events to an append-only OpenSearch
// index and serves them back to the management API, the Go counterpart
// of the original AlertHistoryStorage service.
package history

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	opensearch "github.com/opensearch-project/opensearch-go/v2"
	"github.com/opensearch-project/opensearch-go/v2/opensearchapi"
	"github.com/rs/zerolog"

	"prosimcorp.com/alerting/internal/alertmodel"
)

const historyIndexMapping = `{
	"settings": {"number_of_shards": 1, "number_of_replicas": 1},
	"mappings": {
		"properties": {
			"rule_name": {"type": "keyword"},
			"event_type": {"type": "keyword"},
			"timestamp": {"type": "date"},
			"value": {"type": "float"},
			"threshold": {"type": "float"},
			"operator": {"type": "keyword"},
			"condition_met": {"type": "boolean"},
			"notification_sent": {"type": "boolean"},
			"notification_status": {"type": "keyword"},
			"metadata": {"type": "object", "enabled": true},
			"query_took_ms": {"type": "integer"},
			"error": {"type": "text"}
		}
	}
}`

const defaultTimeFrom = "now-24h"
const maxHistoryLimit = 1000

// Recorder records alert events and answers history queries.
type Recorder struct {
	client *opensearch.Client
	index  string
	logger zerolog.Logger
}

// New returns a Recorder. Call Initialize before using it.
func New(client *opensearch.Client, index string, logger zerolog.Logger) *Recorder {
	return &Recorder{client: client, index: index, logger: logger}
}

// Initialize creates the history index with its mapping if it doesn't
// already exist.
func (r *Recorder) Initialize(ctx context.Context) error {
	exists, err := opensearchapi.IndicesExistsRequest{Index: []string{r.index}}.Do(ctx, r.client)
	if err != nil {
		return fmt.Errorf("checking history index: %w", err)
	}
	if exists.StatusCode != 404 {
		return nil
	}

	res, err := opensearchapi.IndicesCreateRequest{
		Index: r.index,
		Body:  bytes.NewReader([]byte(historyIndexMapping)),
	}.Do(ctx, r.client)
	if err != nil {
		return fmt.Errorf("creating history index: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("creating history index: %s", res.String())
	}
	r.logger.Info().Str("index", r.index).Msg("created alert history index")
	return nil
}

// Record indexes an alert event. Failure is logged, not returned — a
// history write must never block or fail an evaluation tick.
func (r *Recorder) Record(ctx context.Context, event alertmodel.AlertEvent) {
	body, err := json.Marshal(event)
	if err != nil {
		r.logger.Error().Err(err).Str("rule", event.RuleName).Msg("failed to marshal alert event")
		return
	}

	res, err := opensearchapi.IndexRequest{
		Index: r.index,
		Body:  bytes.NewReader(body),
	}.Do(ctx, r.client)
	if err != nil {
		r.logger.Error().Err(err).Str("rule", event.RuleName).Msg("failed to record alert event")
		return
	}
	defer res.Body.Close()
	if res.IsError() {
		r.logger.Error().Str("status", res.String()).Str("rule", event.RuleName).Msg("failed to record alert event")
	}
}

// Query parameters for History.
type Query struct {
	RuleName string // empty matches every rule
	Limit    int    // <=0 defaults to 100, capped at maxHistoryLimit
	TimeFrom string // empty defaults to "now-24h"
}

// History returns alert events, newest first, matching query. A query
// failure is logged and an empty slice is returned, matching the
// original get_history's fail-open behavior.
func (r *Recorder) History(ctx context.Context, query Query) []alertmodel.AlertEvent {
	limit := query.Limit
	if limit <= 0 {
		limit = 100
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	body := buildHistoryQuery(query.RuleName, query.TimeFrom, limit)
	searchBody, _ := json.Marshal(body)

	res, err := r.client.Search(
		r.client.Search.WithContext(ctx),
		r.client.Search.WithIndex(r.index),
		r.client.Search.WithBody(bytes.NewReader(searchBody)),
	)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query alert history")
		return []alertmodel.AlertEvent{}
	}
	defer res.Body.Close()
	if res.IsError() {
		r.logger.Error().Str("status", res.Status()).Msg("failed to query alert history")
		return []alertmodel.AlertEvent{}
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				Source alertmodel.AlertEvent `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		r.logger.Error().Err(err).Msg("failed to decode alert history response")
		return []alertmodel.AlertEvent{}
	}

	events := make([]alertmodel.AlertEvent, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		events = append(events, hit.Source)
	}
	return events
}

// buildHistoryQuery constructs the search body for a history lookup:
// always time-bounded, optionally restricted to one rule, newest first.
func buildHistoryQuery(ruleName, timeFrom string, limit int) map[string]any {
	if timeFrom == "" {
		timeFrom = defaultTimeFrom
	}

	must := []any{
		map[string]any{"range": map[string]any{"timestamp": map[string]any{"gte": timeFrom}}},
	}
	if ruleName != "" {
		must = append(must, map[string]any{"term": map[string]any{"rule_name": ruleName}})
	}

	return map[string]any{
		"query": map[string]any{"bool": map[string]any{"must": must}},
		"sort":  []any{map[string]any{"timestamp": map[string]any{"order": "desc"}}},
		"size":  limit,
	}
}
