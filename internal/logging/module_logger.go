package logging

import (
	"context"
	"strings"

	"github.com/iansherr/nvim-initmd/pkg/interfaces"
)

const (
	rootModule      = "initmd"
	extractModule   = "initmd.extract"
	changeModule    = "initmd.change"
	classifyModule  = "initmd.classify"
	scheduleModule  = "initmd.schedule"
	reconcileModule = "initmd.reconcile"
	pipelineModule  = "initmd.pipeline"
	stateModule     = "initmd.state"
)

const (
	fieldBlockIndex   = "block_index"
	fieldBlockSection = "section"
	fieldBlockKind    = "kind"
)

// ModuleLogger returns a module-scoped logger, defaulting to a no-op
// implementation when no provider is supplied. The returned logger attaches
// the module identifier as structured context so downstream entries can be
// filtered predictably.
func ModuleLogger(provider interfaces.LoggerProvider, module string) interfaces.Logger {
	if module == "" {
		module = rootModule
	}

	logger := NoOp()
	if provider != nil {
		if provided := provider.GetLogger(module); provided != nil {
			logger = provided
		}
	}

	if fieldsLogger, ok := logger.(interfaces.FieldsLogger); ok {
		return fieldsLogger.WithFields(map[string]any{
			"module": module,
		})
	}

	return WithFields(logger, map[string]any{
		"module": module,
	})
}

// ExtractLogger returns the logger namespace reserved for block extraction.
func ExtractLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, extractModule)
}

// ChangeLogger returns the logger namespace reserved for change detection.
func ChangeLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, changeModule)
}

// ClassifyLogger returns the logger namespace reserved for block classification.
func ClassifyLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, classifyModule)
}

// ScheduleLogger returns the logger namespace reserved for setup scheduling.
func ScheduleLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, scheduleModule)
}

// ReconcileLogger returns the logger namespace reserved for reconciliation.
func ReconcileLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, reconcileModule)
}

// PipelineLogger returns the logger namespace reserved for run orchestration.
func PipelineLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, pipelineModule)
}

// StateLogger returns the logger namespace reserved for state persistence.
func StateLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, stateModule)
}

// WithBlockContext enriches the provided logger with common block fields such
// as index, section, and classification kind. Empty values are ignored.
func WithBlockContext(logger interfaces.Logger, index int, section, kind string) interfaces.Logger {
	fields := map[string]any{}
	if index > 0 {
		fields[fieldBlockIndex] = index
	}
	if trimmed := strings.TrimSpace(section); trimmed != "" {
		fields[fieldBlockSection] = trimmed
	}
	if trimmed := strings.TrimSpace(kind); trimmed != "" {
		fields[fieldBlockKind] = trimmed
	}
	return WithFields(logger, fields)
}

// NoOp returns a logger that drops every log entry. It satisfies the Logger
// contract so services can safely operate when logging is disabled.
func NoOp() interfaces.Logger {
	return noopLogger{}
}

type noopLogger struct{}

var _ interfaces.Logger = noopLogger{}

func (noopLogger) Trace(string, ...any) {}
func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
func (noopLogger) Fatal(string, ...any) {}

func (n noopLogger) WithFields(map[string]any) interfaces.Logger {
	return n
}

func (n noopLogger) WithContext(context.Context) interfaces.Logger {
	return n
}
