package tasks

import (
	"errors"
	"log/slog"
	"sync/atomic"
	"testing"

	"github.com/BrightFrames/tapx-go/internal/infrastructure/observability/logging"
)

func testLogger(t *testing.T) *logging.ChanneledLogger {
	t.Helper()
	logger, err := logging.NewChanneledLogger(&logging.LoggerConfig{
		OutputToConsole: true,
		DefaultLevel:    slog.LevelError,
		ChannelLevels:   map[logging.Channel]slog.Level{},
	})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return logger
}

func TestRunnerRunsSubmittedTasks(t *testing.T) {
	r := NewRunner(testLogger(t))

	var ran atomic.Int32
	for i := 0; i < 10; i++ {
		r.Submit("count", func() error {
			ran.Add(1)
			return nil
		})
	}
	r.Drain()

	if got := ran.Load(); got != 10 {
		t.Errorf("ran = %d, want 10", got)
	}
}

func TestRunnerSwallowsFailures(t *testing.T) {
	r := NewRunner(testLogger(t))

	r.Submit("fails", func() error { return errors.New("boom") })
	r.Submit("panics", func() error { panic("boom") })

	var ran atomic.Bool
	r.Submit("still-runs", func() error {
		ran.Store(true)
		return nil
	})
	r.Drain()

	if !ran.Load() {
		t.Error("task after a failing one did not run")
	}
}

func TestRunnerDropsAfterDrain(t *testing.T) {
	r := NewRunner(testLogger(t))
	r.Drain()

	var ran atomic.Bool
	r.Submit("late", func() error {
		ran.Store(true)
		return nil
	})
	if ran.Load() {
		t.Error("task submitted after Drain must be dropped")
	}
}
