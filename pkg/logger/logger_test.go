package logger

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestLoggerInit(t *testing.T) {
	if err := Init(); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}
	if Get() == nil {
		t.Fatal("logger is nil after initialization")
	}
}

func TestLoggerBasic(t *testing.T) {
	if err := Init(); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}

	ctx := context.Background()
	Get().Info(ctx, "test message",
		String("k", "v"),
		Int("n", 1),
		Int64("n64", 2),
		Float64("f", 3.5),
		Duration("d", time.Second),
		Any("any", struct{}{}),
		Error(errors.New("boom")),
	)
}

func TestLoggerNamed(t *testing.T) {
	if err := Init(); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}

	named := Named("test")
	if named == nil {
		t.Fatal("named logger is nil")
	}
	named.Info(context.Background(), "test message")
}

func TestSetLevelString(t *testing.T) {
	if err := Init(); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}

	for _, level := range []string{"debug", "info", "warn", "warning", "error", ""} {
		if err := SetLevelString(level); err != nil {
			t.Errorf("SetLevelString(%q) failed: %v", level, err)
		}
	}
	if err := SetLevelString("shout"); err == nil {
		t.Error("expected error for unknown level")
	}
}
