package logging

import (
	"context"
	"testing"

	"github.com/iansherr/nvim-initmd/pkg/interfaces"
)

type recordingLogger struct {
	fields map[string]any
}

func (r *recordingLogger) Trace(string, ...any) {}
func (r *recordingLogger) Debug(string, ...any) {}
func (r *recordingLogger) Info(string, ...any)  {}
func (r *recordingLogger) Warn(string, ...any)  {}
func (r *recordingLogger) Error(string, ...any) {}
func (r *recordingLogger) Fatal(string, ...any) {}

func (r *recordingLogger) WithContext(context.Context) interfaces.Logger { return r }

func (r *recordingLogger) WithFields(fields map[string]any) interfaces.Logger {
	merged := make(map[string]any, len(r.fields)+len(fields))
	for k, v := range r.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return &recordingLogger{fields: merged}
}

type recordingProvider struct {
	requested []string
}

func (r *recordingProvider) GetLogger(name string) interfaces.Logger {
	r.requested = append(r.requested, name)
	return &recordingLogger{}
}

func TestModuleLoggerAttachesModuleField(t *testing.T) {
	provider := &recordingProvider{}

	logger := ModuleLogger(provider, "initmd.extract")

	if len(provider.requested) != 1 || provider.requested[0] != "initmd.extract" {
		t.Fatalf("provider must be asked for the module namespace, got %v", provider.requested)
	}
	recorded, ok := logger.(*recordingLogger)
	if !ok {
		t.Fatalf("expected the provider's logger back, got %T", logger)
	}
	if recorded.fields["module"] != "initmd.extract" {
		t.Fatalf("module field missing, got %v", recorded.fields)
	}
}

func TestModuleLoggerDefaultsToRootNamespace(t *testing.T) {
	provider := &recordingProvider{}

	ModuleLogger(provider, "")

	if len(provider.requested) != 1 || provider.requested[0] != "initmd" {
		t.Fatalf("empty module must fall back to the root namespace, got %v", provider.requested)
	}
}

func TestStageLoggersUseReservedNamespaces(t *testing.T) {
	provider := &recordingProvider{}

	ExtractLogger(provider)
	ChangeLogger(provider)
	ClassifyLogger(provider)
	ScheduleLogger(provider)
	ReconcileLogger(provider)
	PipelineLogger(provider)
	StateLogger(provider)

	want := []string{
		"initmd.extract",
		"initmd.change",
		"initmd.classify",
		"initmd.schedule",
		"initmd.reconcile",
		"initmd.pipeline",
		"initmd.state",
	}
	if len(provider.requested) != len(want) {
		t.Fatalf("expected %d namespace requests, got %v", len(want), provider.requested)
	}
	for i, name := range want {
		if provider.requested[i] != name {
			t.Fatalf("namespace %d: expected %q, got %q", i, name, provider.requested[i])
		}
	}
}

func TestWithBlockContextAttachesBlockFields(t *testing.T) {
	logger := WithBlockContext(&recordingLogger{}, 3, "plugins", "spec")

	recorded, ok := logger.(*recordingLogger)
	if !ok {
		t.Fatalf("expected fields logger back, got %T", logger)
	}
	if recorded.fields["block_index"] != 3 {
		t.Fatalf("block index missing, got %v", recorded.fields)
	}
	if recorded.fields["section"] != "plugins" {
		t.Fatalf("section missing, got %v", recorded.fields)
	}
	if recorded.fields["kind"] != "spec" {
		t.Fatalf("kind missing, got %v", recorded.fields)
	}
}

func TestWithBlockContextSkipsEmptyValues(t *testing.T) {
	base := &recordingLogger{}

	logger := WithBlockContext(base, 0, "  ", "")

	if logger != interfaces.Logger(base) {
		t.Fatalf("no usable fields must return the logger unchanged")
	}
}
