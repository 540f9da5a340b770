package logger

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
)

func TestLoggerInit(t *testing.T) {
	if err := Init(); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}
	defer func() {
		if err := Sync(); err != nil {
			t.Errorf("failed to sync logger: %v", err)
		}
	}()

	if Get() == nil {
		t.Fatal("logger is nil after initialization")
	}
}

func TestLoggerWritesFields(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf)

	l.Info(context.Background(), "query done", String("collection", "events"), Int("rows", 3))

	out := buf.String()
	for _, want := range []string{"query done", "collection=events", "rows=3", "source=logger_test.go"} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q missing %q", out, want)
		}
	}
}

func TestLoggerErrorField(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf)

	l.Error(context.Background(), "boom", Error(errors.New("connection refused")))

	if !strings.Contains(buf.String(), "connection refused") {
		t.Fatalf("error text not logged: %q", buf.String())
	}
}

func TestLoggerNamed(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf).Named("analytics")

	l.Warn(context.Background(), "slow query")

	if !strings.Contains(buf.String(), "component=analytics") {
		t.Fatalf("component not logged: %q", buf.String())
	}
}

func TestLoggerLevel(t *testing.T) {
	defer func() { _ = SetLevelString("info") }()

	var buf bytes.Buffer
	l := New(&buf)

	if err := SetLevelString("warn"); err != nil {
		t.Fatal(err)
	}
	l.Info(context.Background(), "hidden")
	if buf.Len() != 0 {
		t.Fatalf("info logged at warn level: %q", buf.String())
	}

	if err := SetLevelString("verbose"); err == nil {
		t.Fatal("expected error for unknown level")
	}
}

func TestSetFormat(t *testing.T) {
	defer func() { _ = SetFormat("text") }()

	if err := SetFormat("json"); err != nil {
		t.Fatalf("json format rejected: %v", err)
	}
	if err := SetFormat("xml"); err == nil {
		t.Fatal("expected error for unknown format")
	}
}
