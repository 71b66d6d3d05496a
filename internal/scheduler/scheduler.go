// Package scheduler ties the rule loader, query executor, condition
// evaluator, state manager, notifier, and history recorder together
// behind periodic per-rule checks. It is the Go counterpart of the
// original AlertScheduler, built on robfig/cron/v3 in place of
// APScheduler: each rule becomes a "@every <interval>" cron entry
// wrapped in cron.SkipIfStillRunning so a slow check never overlaps
// itself, mirroring APScheduler's default of one in-flight job per id.
package scheduler

import (
	"context"
	"fmt"
	"regexp"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"prosimcorp.com/alerting/internal/alertmodel"
	"prosimcorp.com/alerting/internal/condition"
	"prosimcorp.com/alerting/internal/history"
	"prosimcorp.com/alerting/internal/notify"
	"prosimcorp.com/alerting/internal/query"
	"prosimcorp.com/alerting/internal/ruleset"
	"prosimcorp.com/alerting/internal/state"
)

var intervalPattern = regexp.MustCompile(`^(\d+)([smhd])$`)

// Scheduler runs periodic alert checks for every enabled rule.
type Scheduler struct {
	loader   *ruleset.Loader
	executor *query.Executor
	states   *state.Manager
	notifier *notify.WebhookNotifier
	recorder *history.Recorder
	logger   zerolog.Logger
	cron     *cron.Cron
	mu       sync.Mutex
	entryIDs map[string]cron.EntryID
	running  bool
}

// New wires the components the scheduler drives on each tick.
func New(
	loader *ruleset.Loader,
	executor *query.Executor,
	states *state.Manager,
	notifier *notify.WebhookNotifier,
	recorder *history.Recorder,
	logger zerolog.Logger,
) *Scheduler {
	return &Scheduler{
		loader:   loader,
		executor: executor,
		states:   states,
		notifier: notifier,
		recorder: recorder,
		logger:   logger,
		cron:     cron.New(cron.WithLogger(cronLogAdapter{logger})),
		entryIDs: make(map[string]cron.EntryID),
	}
}

// Start loads rules, schedules a cron entry per enabled rule, and
// starts the cron loop.
func (s *Scheduler) Start(ctx context.Context) error {
	s.loader.LoadAll()
	rules := s.loader.GetEnabled()

	s.mu.Lock()
	for _, rule := range rules {
		if err := s.scheduleRule(ctx, rule); err != nil {
			s.logger.Error().Err(err).Str("rule", rule.Name).Msg("failed to schedule alert rule")
		}
	}
	s.mu.Unlock()

	s.cron.Start()
	s.running = true
	s.logger.Info().Int("count", len(rules)).Msg("scheduler started")
	return nil
}

// Stop gracefully drains in-flight checks and stops the cron loop.
func (s *Scheduler) Stop() {
	if !s.running {
		return
	}
	stopCtx := s.cron.Stop()
	<-stopCtx.Done()
	s.running = false
	s.logger.Info().Msg("scheduler stopped")
}

// Reload clears every scheduled entry, reloads rules from disk, and
// reschedules the enabled ones.
func (s *Scheduler) Reload(ctx context.Context) {
	s.mu.Lock()
	for name, id := range s.entryIDs {
		s.cron.Remove(id)
		delete(s.entryIDs, name)
	}
	s.mu.Unlock()

	s.loader.Reload()
	rules := s.loader.GetEnabled()

	s.mu.Lock()
	for _, rule := range rules {
		if err := s.scheduleRule(ctx, rule); err != nil {
			s.logger.Error().Err(err).Str("rule", rule.Name).Msg("failed to schedule alert rule")
		}
	}
	s.mu.Unlock()

	s.logger.Info().Int("count", len(rules)).Msg("reloaded and rescheduled alert rules")
}

// scheduleRule installs a cron entry for rule. Must be called with s.mu
// held.
func (s *Scheduler) scheduleRule(ctx context.Context, rule *alertmodel.Rule) error {
	spec, err := cronSpec(rule.Schedule.Interval)
	if err != nil {
		return err
	}

	name := rule.Name
	job := cron.NewChain(cron.SkipIfStillRunning(cronLogAdapter{s.logger})).Then(cron.FuncJob(func() {
		current, ok := s.loader.Get(name)
		if !ok {
			return
		}
		s.checkAlert(ctx, current)
	}))

	id, err := s.cron.AddJob(spec, job)
	if err != nil {
		return fmt.Errorf("scheduling rule %q: %w", name, err)
	}
	s.entryIDs[name] = id
	s.logger.Debug().Str("rule", name).Str("interval", rule.Schedule.Interval).Msg("scheduled alert rule")
	return nil
}

// checkAlert runs the full per-tick algorithm for one rule: query,
// evaluate, update state, notify if the transition calls for it, and
// record a history event.
func (s *Scheduler) checkAlert(ctx context.Context, rule *alertmodel.Rule) {
	now := time.Now().UTC()
	s.logger.Debug().Str("rule", rule.Name).Msg("checking alert")

	result := s.executor.Execute(ctx, rule)
	if !result.Success {
		s.recorder.Record(ctx, alertmodel.AlertEvent{
			RuleName:  rule.Name,
			EventType: alertmodel.EventError,
			Timestamp: now,
			Threshold: rule.Condition.Value,
			Operator:  rule.Condition.Operator,
			Error:     result.Error,
		})
		return
	}

	evalResult := condition.Evaluate(rule, result)
	s.logger.Debug().Str("rule", rule.Name).Msg(evalResult.Message)

	transition := s.states.Update(ctx, rule, evalResult.ConditionMet, evalResult.ActualValue, now)

	var notificationSent bool
	var notificationStatus *string
	var notificationResults []alertmodel.NotificationOutcome

	if transition.ShouldNotify {
		notificationResults = s.notifyAll(ctx, rule, evalResult, transition, now)
		notificationSent, notificationStatus = aggregateNotificationStatus(notificationResults)
	}

	if transition.Changed || transition.ShouldNotify {
		s.recorder.Record(ctx, alertmodel.AlertEvent{
			RuleName:            rule.Name,
			EventType:           eventTypeFor(transition.NewState),
			Timestamp:           now,
			Value:               evalResult.ActualValue,
			Threshold:           evalResult.Threshold,
			Operator:            evalResult.Operator,
			ConditionMet:        evalResult.ConditionMet,
			NotificationSent:    notificationSent,
			NotificationStatus:  notificationStatus,
			NotificationResults: notificationResults,
			Metadata: map[string]any{
				"severity": rule.Metadata.Severity,
				"category": rule.Metadata.Category,
			},
			QueryTookMs: result.TookMs,
		})
	}
}

// notifyAll sends every action concurrently via errgroup, then returns
// the per-action outcomes in rule declaration order. A barrier before
// the history write is required: the history event records the
// aggregate outcome of every action, so it can't be written until all
// of them land.
func (s *Scheduler) notifyAll(ctx context.Context, rule *alertmodel.Rule, evalResult alertmodel.EvaluationResult, transition alertmodel.StateTransition, now time.Time) []alertmodel.NotificationOutcome {
	notifCtx := notify.NotificationContext{
		Name:        rule.Name,
		Description: rule.Description,
		ResultCount: evalResult.ActualValue,
		Threshold:   evalResult.Threshold,
		Timestamp:   now.Format(time.RFC3339),
		Severity:    rule.Metadata.Severity,
		Environment: rule.Metadata.Category,
		Service:     rule.Metadata.Owner,
		State:       string(transition.NewState),
		Operator:    evalResult.Operator,
	}
	if rule.Condition.AggregationField != "" {
		aggValue := evalResult.ActualValue
		notifCtx.AggregationValue = &aggValue
	}

	outcomes := make([]alertmodel.NotificationOutcome, len(rule.Actions))
	group, groupCtx := errgroup.WithContext(ctx)

	for i, action := range rule.Actions {
		i, action := i, action
		group.Go(func() error {
			result := s.notifier.Send(groupCtx, action, notifCtx)
			status := alertmodel.NotificationFailed
			if result.Success {
				status = alertmodel.NotificationSuccess
			}
			outcomes[i] = alertmodel.NotificationOutcome{Action: action.Type, Success: result.Success, Status: status}
			return nil
		})
	}
	_ = group.Wait()

	return outcomes
}

// aggregateNotificationStatus rolls per-action outcomes up into the
// single sent flag and status string recorded on the history event.
func aggregateNotificationStatus(outcomes []alertmodel.NotificationOutcome) (bool, *string) {
	if len(outcomes) == 0 {
		return false, nil
	}

	successes := 0
	for _, o := range outcomes {
		if o.Success {
			successes++
		}
	}

	var status string
	switch {
	case successes == len(outcomes):
		status = alertmodel.NotificationSuccess
	case successes > 0:
		status = alertmodel.NotificationPartial
	default:
		status = alertmodel.NotificationFailed
	}
	return successes > 0, &status
}

func eventTypeFor(s alertmodel.State) string {
	if s == alertmodel.StateFiring {
		return alertmodel.EventFired
	}
	return alertmodel.EventResolved
}

// TriggerManual runs a single check for ruleName outside its normal
// schedule, for the operator-facing POST /rules/:name/trigger route.
// Returns nil if the rule doesn't exist.
func (s *Scheduler) TriggerManual(ctx context.Context, ruleName string) *alertmodel.AlertEvent {
	rule, ok := s.loader.Get(ruleName)
	if !ok {
		return nil
	}

	s.checkAlert(ctx, rule)

	record := s.states.Get(ruleName)
	return &alertmodel.AlertEvent{
		RuleName:     ruleName,
		EventType:    alertmodel.EventManualTrigger,
		Timestamp:    time.Now().UTC(),
		Value:        record.CurrentValue,
		Threshold:    record.Threshold,
		ConditionMet: record.State == alertmodel.StateFiring,
	}
}

// cronSpec translates a "<N><s|m|h|d>" interval into a robfig/cron
// "@every" spec. Days are expanded to an hour count since cron/v3's
// @every parser only understands time.ParseDuration units.
func cronSpec(interval string) (string, error) {
	match := intervalPattern.FindStringSubmatch(interval)
	if match == nil {
		return "", fmt.Errorf("invalid interval format: %q", interval)
	}

	value := match[1]
	unit := match[2]
	if unit == "d" {
		var days int
		fmt.Sscanf(value, "%d", &days)
		return fmt.Sprintf("@every %dh", days*24), nil
	}
	return fmt.Sprintf("@every %s%s", value, unit), nil
}

// cronLogAdapter satisfies cron.Logger on top of zerolog.
type cronLogAdapter struct {
	logger zerolog.Logger
}

func (a cronLogAdapter) Info(msg string, keysAndValues ...interface{}) {
	a.logger.Debug().Fields(keysAndValues).Msg(msg)
}

func (a cronLogAdapter) Error(err error, msg string, keysAndValues ...interface{}) {
	a.logger.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
