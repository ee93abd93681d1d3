package console_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/goliatone/go-pagekit/internal/logging"
	"github.com/goliatone/go-pagekit/internal/logging/console"
	"github.com/goliatone/go-pagekit/pkg/interfaces"
)

func TestConsoleLoggerWritesSortedFields(t *testing.T) {
	var buf bytes.Buffer
	now := time.Date(2024, 3, 14, 15, 9, 26, 0, time.UTC)
	provider := console.NewProvider(console.Options{
		Writer:   &buf,
		TimeFunc: func() time.Time { return now },
	})

	logger := provider.GetLogger("pagekit.sections").(interfaces.FieldsLogger).WithFields(map[string]any{"module": "pagekit.sections"})
	ctx := logging.ContextWithFields(context.Background(), map[string]any{"request_id": "req-1"})
	logger = logger.WithContext(ctx)

	logger.Warn("sections.unknown_template", "section", "sections.2", "template", "carousel")

	got := strings.TrimSpace(buf.String())
	want := "2024-03-14T15:09:26Z WARN sections.unknown_template logger=pagekit.sections module=pagekit.sections request_id=req-1 section=sections.2 template=carousel"
	if got != want {
		t.Fatalf("unexpected entry\nwant: %s\ngot:  %s", want, got)
	}
}

func TestConsoleLoggerLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	level := console.ParseLevel("warn")
	provider := console.NewProvider(console.Options{Writer: &buf, MinLevel: &level})

	logger := provider.GetLogger("pagekit.test")
	logger.Info("skipped")
	logger.Error("kept", "error", errors.New("save failed"))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected one line, got %d: %q", len(lines), buf.String())
	}
	if !strings.Contains(lines[0], `error="save failed"`) {
		t.Fatalf("expected quoted error value, got %s", lines[0])
	}
}

func TestConsoleLoggerPositionalArgs(t *testing.T) {
	var buf bytes.Buffer
	provider := console.NewProvider(console.Options{Writer: &buf})

	provider.GetLogger("x").Debug("odd", 42, "value", "dangling")

	line := buf.String()
	if !strings.Contains(line, "arg_0=value") || !strings.Contains(line, "arg_1=dangling") {
		t.Fatalf("expected positional fields, got %s", line)
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]console.Level{
		"trace":   console.LevelTrace,
		"DEBUG":   console.LevelDebug,
		"warning": console.LevelWarn,
		"":        console.LevelInfo,
		"bogus":   console.LevelInfo,
	}
	for name, want := range cases {
		if got := console.ParseLevel(name); got != want {
			t.Fatalf("ParseLevel(%q): expected %s, got %s", name, want, got)
		}
	}
}
