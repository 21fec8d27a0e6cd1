package cmd

import (
	"context"
	"errors"
	"flag"
	"testing"
)

func TestParseConfigRejectsNil(t *testing.T) {
	if err := ParseConfig[struct{}](nil); err == nil {
		t.Fatal("expected error for nil config target")
	}
}

func TestParseArgsRejectsNilFlagSet(t *testing.T) {
	if err := ParseArgs(nil, nil); err == nil {
		t.Fatal("expected error for nil flag set")
	}
}

func TestParseArgsAcceptsNilArgs(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	if err := ParseArgs(fs, nil); err != nil {
		t.Fatalf("parse args: %v", err)
	}
}

func TestRunWithTelemetryRequiresService(t *testing.T) {
	err := RunWithTelemetry(context.Background(), "  ", func(context.Context) error { return nil })
	if err == nil {
		t.Fatal("expected error for empty service name")
	}
}

func TestRunWithTelemetryRequiresRun(t *testing.T) {
	if err := RunWithTelemetry(context.Background(), ServiceTracker, nil); err == nil {
		t.Fatal("expected error for missing run function")
	}
}

func TestRunWithTelemetryPropagatesRunError(t *testing.T) {
	t.Setenv("COLLECTIONTRACKER_OTEL_ENDPOINT", "")
	want := errors.New("boom")
	err := RunWithTelemetry(context.Background(), ServiceTracker, func(context.Context) error { return want })
	if !errors.Is(err, want) {
		t.Fatalf("expected run error, got %v", err)
	}
}
