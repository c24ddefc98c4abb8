package scheduler

import (
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/stemsi/classhub-backend/internal/config"
)

func testScheduler(hours float64) *Scheduler {
	cfg := &config.Config{SessionTimeoutHours: hours}
	return New(nil, cfg, zerolog.Nop())
}

func TestSweepIntervalIsQuarterOfTimeout(t *testing.T) {
	s := testScheduler(8)
	if got, want := s.sweepInterval(), 2*time.Hour; got != want {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestSweepIntervalFloorsAtOneMinute(t *testing.T) {
	// 0.01h is 36s; a quarter of that (9s) is under the one-minute floor.
	s := testScheduler(0.01)
	if got, want := s.sweepInterval(), time.Minute; got != want {
		t.Errorf("got %v, want %v (floor)", got, want)
	}
}

func TestSweepIntervalDefaultsWhenUnset(t *testing.T) {
	s := testScheduler(0)
	if got, want := s.sweepInterval(), 5*time.Minute; got != want {
		t.Errorf("got %v, want %v", got, want)
	}
}
