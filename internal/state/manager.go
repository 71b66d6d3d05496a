// Package state tracks per-rule alert state and enforces throttling,
// the Go counterpart of the original StateManager service. Persistence
// goes through opensearch-go/v2 the same way the teacher's reconcilers
// persisted status onto the Kubernetes API server — write-through on
// every transition, best-effort (a failed write is logged, not fatal).
package state

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	opensearch "github.com/opensearch-project/opensearch-go/v2"
	"github.com/opensearch-project/opensearch-go/v2/opensearchapi"
	"github.com/rs/zerolog"

	"prosimcorp.com/alerting/internal/alertmodel"
	"prosimcorp.com/alerting/internal/syncmap"
)

const stateIndexMapping = `{
	"settings": {"number_of_shards": 1, "number_of_replicas": 1},
	"mappings": {
		"properties": {
			"rule_name": {"type": "keyword"},
			"state": {"type": "keyword"},
			"last_checked": {"type": "date"},
			"last_fired": {"type": "date"},
			"last_resolved": {"type": "date"},
			"last_notified": {"type": "date"},
			"consecutive_fires": {"type": "integer"},
			"current_value": {"type": "float"},
			"threshold": {"type": "float"},
			"message": {"type": "text"}
		}
	}
}`

// Manager owns the in-memory alert state table and mirrors it to
// OpenSearch on every transition.
type Manager struct {
	client *opensearch.Client
	index  string
	logger zerolog.Logger
	states *syncmap.Store[*alertmodel.StateRecord]
}

// New returns a Manager. Call Initialize before using it.
func New(client *opensearch.Client, index string, logger zerolog.Logger) *Manager {
	return &Manager{client: client, index: index, logger: logger, states: syncmap.New[*alertmodel.StateRecord]()}
}

// Initialize creates the state index if it doesn't exist yet and loads
// any previously persisted states into memory.
func (m *Manager) Initialize(ctx context.Context) error {
	exists, err := opensearchapi.IndicesExistsRequest{Index: []string{m.index}}.Do(ctx, m.client)
	if err != nil {
		return fmt.Errorf("checking state index: %w", err)
	}
	if exists.StatusCode == 404 {
		createRes, err := opensearchapi.IndicesCreateRequest{
			Index: m.index,
			Body:  bytes.NewReader([]byte(stateIndexMapping)),
		}.Do(ctx, m.client)
		if err != nil {
			return fmt.Errorf("creating state index: %w", err)
		}
		defer createRes.Body.Close()
		if createRes.IsError() {
			return fmt.Errorf("creating state index: %s", createRes.String())
		}
		m.logger.Info().Str("index", m.index).Msg("created alert state index")
	}

	m.loadStates(ctx)
	return nil
}

// loadStates bulk-loads existing state records. Failure here is logged,
// not fatal — the engine starts from a clean OK slate for every rule
// rather than refusing to boot.
func (m *Manager) loadStates(ctx context.Context) {
	searchBody, _ := json.Marshal(map[string]any{
		"query": map[string]any{"match_all": map[string]any{}},
		"size":  1000,
	})

	res, err := m.client.Search(
		m.client.Search.WithContext(ctx),
		m.client.Search.WithIndex(m.index),
		m.client.Search.WithBody(bytes.NewReader(searchBody)),
	)
	if err != nil {
		m.logger.Warn().Err(err).Msg("could not load existing alert states")
		return
	}
	defer res.Body.Close()
	if res.IsError() {
		m.logger.Warn().Str("status", res.Status()).Msg("could not load existing alert states")
		return
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				Source alertmodel.StateRecord `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		m.logger.Warn().Err(err).Msg("could not decode existing alert states")
		return
	}

	loaded := make(map[string]*alertmodel.StateRecord, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		record := hit.Source
		loaded[record.RuleName] = &record
	}
	m.states.Replace(loaded)
	m.logger.Info().Int("count", len(loaded)).Msg("loaded existing alert states")
}

// Get returns the current state record for a rule, creating a fresh OK
// record on first access.
func (m *Manager) Get(ruleName string) *alertmodel.StateRecord {
	if record, ok := m.states.Get(ruleName); ok {
		return record
	}
	record := alertmodel.NewStateRecord(ruleName)
	m.states.Set(ruleName, record)
	return record
}

// Update applies the state machine transition for a single evaluation
// tick and persists the resulting record. now is passed in by the
// caller (the scheduler) so tests can supply a fixed clock.
func (m *Manager) Update(ctx context.Context, rule *alertmodel.Rule, conditionMet bool, currentValue float64, now time.Time) alertmodel.StateTransition {
	record := m.Get(rule.Name)
	transition := applyTransition(record, rule, conditionMet, currentValue, now)
	m.persist(ctx, record)
	return transition
}

// applyTransition mutates record in place according to the state machine
// table and returns the resulting transition. Kept free of any
// OpenSearch dependency so it can be exercised without a live client.
func applyTransition(record *alertmodel.StateRecord, rule *alertmodel.Rule, conditionMet bool, currentValue float64, now time.Time) alertmodel.StateTransition {
	previous := record.State

	record.LastChecked = &now
	record.CurrentValue = currentValue
	record.Threshold = rule.Condition.Value

	var shouldNotify bool
	switch {
	case conditionMet && (previous == alertmodel.StateOK || previous == alertmodel.StateResolved):
		record.State = alertmodel.StateFiring
		record.LastFired = &now
		record.ConsecutiveFires = 1
		shouldNotify = true

	case conditionMet:
		record.ConsecutiveFires++
		shouldNotify = throttleElapsed(rule, record, now)

	case !conditionMet && previous == alertmodel.StateFiring:
		record.State = alertmodel.StateResolved
		record.LastResolved = &now
		record.ConsecutiveFires = 0
		shouldNotify = true

	case !conditionMet && previous == alertmodel.StateResolved:
		record.State = alertmodel.StateOK
		record.ConsecutiveFires = 0
		shouldNotify = false

	default:
		shouldNotify = false
	}

	newState := record.State
	changed := previous != newState

	if shouldNotify {
		record.LastNotified = &now
	}

	return alertmodel.StateTransition{
		PreviousState: previous,
		NewState:      newState,
		Changed:       changed,
		ShouldNotify:  shouldNotify,
	}
}

// throttleElapsed reports whether the throttle window for an
// already-firing rule has elapsed since the last notification.
func throttleElapsed(rule *alertmodel.Rule, record *alertmodel.StateRecord, now time.Time) bool {
	if record.LastNotified == nil {
		return true
	}
	elapsed := now.Sub(*record.LastNotified)
	return elapsed >= time.Duration(rule.Throttle.Seconds())*time.Second
}

func (m *Manager) persist(ctx context.Context, record *alertmodel.StateRecord) {
	body, err := json.Marshal(record)
	if err != nil {
		m.logger.Error().Err(err).Str("rule", record.RuleName).Msg("failed to marshal alert state")
		return
	}

	res, err := opensearchapi.IndexRequest{
		Index:      m.index,
		DocumentID: record.RuleName,
		Body:       bytes.NewReader(body),
		Refresh:    "wait_for",
	}.Do(ctx, m.client)
	if err != nil {
		m.logger.Error().Err(err).Str("rule", record.RuleName).Msg("failed to persist alert state")
		return
	}
	defer res.Body.Close()
	if res.IsError() {
		m.logger.Error().Str("status", res.String()).Str("rule", record.RuleName).Msg("failed to persist alert state")
	}
}
