package alertmodel

import "testing"

func TestParsedIntervalAcceptsEachUnit(t *testing.T) {
	cases := map[string]struct {
		value int
		unit  string
	}{
		"30s": {30, "s"},
		"5m":  {5, "m"},
		"1h":  {1, "h"},
		"2d":  {2, "d"},
	}
	for interval, want := range cases {
		s := Schedule{Interval: interval}
		value, unit, err := s.ParsedInterval()
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", interval, err)
		}
		if value != want.value || unit != want.unit {
			t.Fatalf("%s: got (%d,%s), want (%d,%s)", interval, value, unit, want.value, want.unit)
		}
	}
}

func TestParsedIntervalRejectsMalformed(t *testing.T) {
	for _, interval := range []string{"", "5", "m5", "5 minutes", "-5m"} {
		s := Schedule{Interval: interval}
		if _, _, err := s.ParsedInterval(); err == nil {
			t.Fatalf("expected %q to be rejected", interval)
		}
	}
}

func TestEffectiveTimeFieldDefaultsToTimestamp(t *testing.T) {
	q := Query{}
	if q.EffectiveTimeField() != "@timestamp" {
		t.Fatalf("expected default @timestamp, got %q", q.EffectiveTimeField())
	}
	q.TimeField = "event.time"
	if q.EffectiveTimeField() != "event.time" {
		t.Fatalf("expected override to win, got %q", q.EffectiveTimeField())
	}
}

func TestThrottleSecondsConvertsEachUnit(t *testing.T) {
	cases := []struct {
		throttle Throttle
		want     int
	}{
		{Throttle{Value: 30, Unit: "seconds"}, 30},
		{Throttle{Value: 5, Unit: "minutes"}, 300},
		{Throttle{Value: 2, Unit: "hours"}, 7200},
		{Throttle{Value: 5, Unit: "fortnights"}, 300},
	}
	for _, c := range cases {
		if got := c.throttle.Seconds(); got != c.want {
			t.Fatalf("%+v: got %d, want %d", c.throttle, got, c.want)
		}
	}
}
