package alertmodel

import (
	"testing"
	"time"
)

func TestNewStateRecordDefaultsToOK(t *testing.T) {
	r := NewStateRecord("high-error-rate")
	if r.State != StateOK {
		t.Fatalf("expected new record to default to OK, got %v", r.State)
	}
	if r.LastChecked != nil || r.LastFired != nil {
		t.Fatalf("expected new record timestamps to be nil")
	}
}

func TestCloneIsIndependentOfSource(t *testing.T) {
	now := time.Now()
	original := &StateRecord{RuleName: "r", State: StateFiring, LastFired: &now}

	clone := original.Clone()
	*clone.LastFired = now.Add(time.Hour)

	if original.LastFired.Equal(*clone.LastFired) {
		t.Fatalf("expected clone's timestamp pointer to be independent of the original")
	}
}

func TestCloneOfNilIsNil(t *testing.T) {
	var r *StateRecord
	if r.Clone() != nil {
		t.Fatalf("expected Clone on a nil receiver to return nil")
	}
}
