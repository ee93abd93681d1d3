package logging

import (
	"context"
	"testing"

	"github.com/goliatone/go-pagekit/pkg/interfaces"
)

type recordingLogger struct {
	fields []map[string]any
}

func (r *recordingLogger) Trace(string, ...any) {}
func (r *recordingLogger) Debug(string, ...any) {}
func (r *recordingLogger) Info(string, ...any)  {}
func (r *recordingLogger) Warn(string, ...any)  {}
func (r *recordingLogger) Error(string, ...any) {}
func (r *recordingLogger) Fatal(string, ...any) {}

func (r *recordingLogger) WithFields(fields map[string]any) interfaces.Logger {
	r.fields = append(r.fields, fields)
	return r
}

func (r *recordingLogger) WithContext(context.Context) interfaces.Logger { return r }

type stubProvider struct {
	requested []string
	logger    interfaces.Logger
}

func (s *stubProvider) GetLogger(name string) interfaces.Logger {
	s.requested = append(s.requested, name)
	return s.logger
}

func TestModuleLoggerFallsBackToNoOp(t *testing.T) {
	logger := ModuleLogger(nil, "pagekit.test")
	if _, ok := logger.(noopLogger); !ok {
		t.Fatalf("expected noopLogger fallback, got %T", logger)
	}
	logger.WithContext(context.Background()).Debug("noop")
}

func TestModuleLoggerTagsModule(t *testing.T) {
	recorder := &recordingLogger{}
	provider := &stubProvider{logger: recorder}

	SectionsLogger(provider)

	if len(provider.requested) != 1 || provider.requested[0] != sectionsModule {
		t.Fatalf("expected %q to be requested, got %v", sectionsModule, provider.requested)
	}
	if len(recorder.fields) != 1 || recorder.fields[0]["module"] != sectionsModule {
		t.Fatalf("expected module field, got %v", recorder.fields)
	}
}

func TestModuleLoggerDefaultsToRoot(t *testing.T) {
	provider := &stubProvider{logger: &recordingLogger{}}
	ModuleLogger(provider, "  ")
	if provider.requested[0] != rootModule {
		t.Fatalf("expected root module, got %q", provider.requested[0])
	}
}

func TestWithSectionContextSkipsEmptyValues(t *testing.T) {
	recorder := &recordingLogger{}
	WithSectionContext(recorder, "sections.1", "")
	if len(recorder.fields) != 1 {
		t.Fatalf("expected one WithFields call, got %d", len(recorder.fields))
	}
	got := recorder.fields[0]
	if got[fieldSectionToken] != "sections.1" {
		t.Fatalf("expected token field, got %v", got)
	}
	if _, ok := got[fieldSectionTemplate]; ok {
		t.Fatalf("expected empty template to be skipped, got %v", got)
	}

	WithSectionContext(recorder, "", " ")
	if len(recorder.fields) != 1 {
		t.Fatalf("expected no call for empty context, got %d", len(recorder.fields))
	}
}

func TestContextFieldsMerge(t *testing.T) {
	ctx := ContextWithFields(context.Background(), map[string]any{"a": 1})
	ctx = ContextWithFields(ctx, map[string]any{"b": 2})

	fields := ContextFields(ctx)
	if fields["a"] != 1 || fields["b"] != 2 {
		t.Fatalf("expected merged fields, got %v", fields)
	}
	fields["a"] = 3
	if ContextFields(ctx)["a"] != 1 {
		t.Fatal("expected ContextFields to return a copy")
	}
}
