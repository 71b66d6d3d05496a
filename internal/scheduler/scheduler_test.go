package scheduler

import (
	"testing"

	"prosimcorp.com/alerting/internal/alertmodel"
)

func TestCronSpecSeconds(t *testing.T) {
	spec, err := cronSpec("30s")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if spec != "@every 30s" {
		t.Fatalf("got %q", spec)
	}
}

func TestCronSpecMinutes(t *testing.T) {
	spec, err := cronSpec("5m")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if spec != "@every 5m" {
		t.Fatalf("got %q", spec)
	}
}

func TestCronSpecDaysExpandsToHours(t *testing.T) {
	spec, err := cronSpec("2d")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if spec != "@every 48h" {
		t.Fatalf("got %q", spec)
	}
}

func TestCronSpecRejectsInvalidInterval(t *testing.T) {
	if _, err := cronSpec("five minutes"); err == nil {
		t.Fatalf("expected an error for an unparseable interval")
	}
}

func TestAggregateNotificationStatusAllSucceed(t *testing.T) {
	sent, status := aggregateNotificationStatus([]alertmodel.NotificationOutcome{
		{Success: true}, {Success: true},
	})
	if !sent || status == nil || *status != alertmodel.NotificationSuccess {
		t.Fatalf("expected success, got sent=%v status=%v", sent, status)
	}
}

func TestAggregateNotificationStatusPartial(t *testing.T) {
	sent, status := aggregateNotificationStatus([]alertmodel.NotificationOutcome{
		{Success: true}, {Success: false},
	})
	if !sent || status == nil || *status != alertmodel.NotificationPartial {
		t.Fatalf("expected partial, got sent=%v status=%v", sent, status)
	}
}

func TestAggregateNotificationStatusAllFail(t *testing.T) {
	sent, status := aggregateNotificationStatus([]alertmodel.NotificationOutcome{
		{Success: false}, {Success: false},
	})
	if sent || status == nil || *status != alertmodel.NotificationFailed {
		t.Fatalf("expected failed, got sent=%v status=%v", sent, status)
	}
}

func TestAggregateNotificationStatusNoActions(t *testing.T) {
	sent, status := aggregateNotificationStatus(nil)
	if sent || status != nil {
		t.Fatalf("expected no-op for zero actions, got sent=%v status=%v", sent, status)
	}
}

func TestEventTypeForState(t *testing.T) {
	if eventTypeFor(alertmodel.StateFiring) != alertmodel.EventFired {
		t.Fatalf("expected firing -> fired")
	}
	if eventTypeFor(alertmodel.StateResolved) != alertmodel.EventResolved {
		t.Fatalf("expected resolved -> resolved")
	}
}
