package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"prosimcorp.com/alerting/internal/alertmodel"
)

// NotificationContext carries the values a webhook body template can
// reference as "{{alert.<field>}}". AggregationValue is only populated
// for aggregation-based rules, matching the original NotificationContext
// dataclass's optional p95_response_time-style field.
type NotificationContext struct {
	Name             string
	Description      string
	ResultCount      float64
	Threshold        float64
	Timestamp        string
	Severity         string
	Environment      string
	Service          string
	State            string
	Operator         string
	AggregationValue *float64
}

// toMap renders the context the way the template renderer expects:
// string keys, nil fields omitted so an unset optional field leaves its
// "{{alert.x}}" placeholder untouched rather than rendering "<nil>".
func (c NotificationContext) toMap() map[string]any {
	m := map[string]any{
		"name":         c.Name,
		"description":  c.Description,
		"result_count": c.ResultCount,
		"threshold":    c.Threshold,
		"timestamp":    c.Timestamp,
		"severity":     c.Severity,
		"environment":  c.Environment,
		"service":      c.Service,
		"state":        c.State,
		"operator":     c.Operator,
	}
	if c.AggregationValue != nil {
		m["aggregation_value"] = *c.AggregationValue
	}
	return m
}

// NotificationResult is the outcome of one webhook send, retries
// included.
type NotificationResult struct {
	Success    bool
	StatusCode int
	Error      string
	Attempts   int
}

// WebhookNotifier sends a rule's webhook actions, retrying transport
// failures and responses with status >= 400, with a 2^(attempt-1)-second
// wait between attempts.
type WebhookNotifier struct {
	httpClient *http.Client
	retries    int
	logger     zerolog.Logger
}

// New returns a WebhookNotifier with the given request timeout and
// maximum attempt count.
func New(timeout time.Duration, retries int, logger zerolog.Logger) *WebhookNotifier {
	return &WebhookNotifier{
		httpClient: &http.Client{Timeout: timeout},
		retries:    retries,
		logger:     logger,
	}
}

// Send renders action's webhook body against context and dispatches it,
// making up to n.retries attempts in total. A transport error or a
// response with status >= 400 is logged and retried after an exponential
// backoff sleep; any status below 400 counts as success.
func (n *WebhookNotifier) Send(ctx context.Context, action alertmodel.WebhookAction, notifCtx NotificationContext) NotificationResult {
	renderedBody := RenderTemplate(action.Webhook.Body, notifCtx.toMap())

	payload, err := json.Marshal(renderedBody)
	if err != nil {
		return NotificationResult{Success: false, Error: fmt.Sprintf("rendering webhook body: %v", err), Attempts: 0}
	}

	boff := newExponentialSecondsBackOff()

	for attempt := 1; attempt <= n.retries; attempt++ {
		statusCode, err := n.attempt(ctx, action, payload)
		if err != nil {
			n.logger.Warn().Err(err).Str("webhook", action.Name).Int("attempt", attempt).Int("retries", n.retries).Msg("webhook request failed")
			if attempt < n.retries {
				sleepBackOff(ctx, boff)
			}
			continue
		}

		if statusCode < 400 {
			n.logger.Info().Str("webhook", action.Name).Int("status", statusCode).Int("attempt", attempt).Msg("webhook sent successfully")
			return NotificationResult{Success: true, StatusCode: statusCode, Attempts: attempt}
		}

		n.logger.Warn().Str("webhook", action.Name).Int("status", statusCode).Int("attempt", attempt).Int("retries", n.retries).Msg("webhook returned a non-success status")
		if attempt < n.retries {
			sleepBackOff(ctx, boff)
		}
	}

	return NotificationResult{Success: false, Error: fmt.Sprintf("failed after %d attempts", n.retries), Attempts: n.retries}
}

func (n *WebhookNotifier) attempt(ctx context.Context, action alertmodel.WebhookAction, payload []byte) (int, error) {
	req, err := http.NewRequestWithContext(ctx, action.Webhook.Method, action.Webhook.URL, bytes.NewReader(payload))
	if err != nil {
		return 0, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for key, value := range action.Webhook.Headers {
		req.Header.Set(key, value)
	}

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	return resp.StatusCode, nil
}

// exponentialSecondsBackOff reproduces the original notifier's
// 2^(attempt-1)-second retry delay: 1s, 2s, 4s, 8s, ... It implements
// backoff.BackOff so it can be dropped in wherever the rest of the
// engine expects one; Send drives it manually from its own retry loop.
type exponentialSecondsBackOff struct {
	attempt int
}

func newExponentialSecondsBackOff() *exponentialSecondsBackOff {
	return &exponentialSecondsBackOff{}
}

func (b *exponentialSecondsBackOff) NextBackOff() time.Duration {
	b.attempt++
	return time.Duration(1<<(b.attempt-1)) * time.Second
}

func (b *exponentialSecondsBackOff) Reset() {
	b.attempt = 0
}

// sleepBackOff waits for the next backoff interval or ctx cancellation,
// whichever comes first.
func sleepBackOff(ctx context.Context, boff backoff.BackOff) {
	timer := time.NewTimer(boff.NextBackOff())
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}
