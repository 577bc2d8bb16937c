package telemetry

import (
	"testing"
	"time"
)

type counting struct {
	incs     int
	observed int
}

func (c *counting) Inc(name string, tags map[string]string) {
	c.incs++
}

func (c *counting) Observe(name string, d time.Duration, tags map[string]string) {
	c.observed++
}

func TestNoopDoesNotPanic(t *testing.T) {
	var n Noop
	n.Inc("x", nil)
	n.Observe("y", time.Millisecond, nil)
	timer := StartTimer(nil, "op", nil)
	timer.Stop()
}

func TestStartTimerRecordsOnStop(t *testing.T) {
	rec := &counting{}
	timer := StartTimer(rec, "op", map[string]string{"a": "b"})
	timer.Stop()
	if rec.observed != 1 {
		t.Errorf("expected 1 observation, got %d", rec.observed)
	}
}
