package pipelinecmd

import (
	"context"

	"github.com/iansherr/nvim-initmd/internal/commands"
	"github.com/iansherr/nvim-initmd/pkg/interfaces"
)

// ResultSink receives a run's result after the handler completes. Hosts use
// it to surface summaries; a nil sink discards results.
type ResultSink func(*interfaces.RunResult)

// ApplyHandler executes full pipeline runs via the shared handler foundation.
type ApplyHandler struct {
	inner *commands.Handler[ApplyCommand]
}

// NewApplyHandler constructs a handler wired to the provided pipeline service.
func NewApplyHandler(service interfaces.PipelineService, logger interfaces.Logger, sink ResultSink, opts ...commands.HandlerOption[ApplyCommand]) *ApplyHandler {
	exec := func(ctx context.Context, msg ApplyCommand) error {
		result, err := service.Run(ctx, interfaces.RunOptions{Document: msg.Document})
		if err != nil {
			return err
		}
		if sink != nil {
			sink(result)
		}
		return nil
	}

	handlerOpts := []commands.HandlerOption[ApplyCommand]{
		commands.WithLogger[ApplyCommand](logger),
		commands.WithOperation[ApplyCommand]("pipeline.apply"),
		commands.WithTelemetry[ApplyCommand](commands.DefaultTelemetry[ApplyCommand](logger)),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &ApplyHandler{inner: commands.NewHandler[ApplyCommand](exec, handlerOpts...)}
}

// Execute satisfies command.Commander[ApplyCommand].Execute.
func (h *ApplyHandler) Execute(ctx context.Context, msg ApplyCommand) error {
	return h.inner.Execute(ctx, msg)
}

// PlanHandler executes dry runs.
type PlanHandler struct {
	inner *commands.Handler[PlanCommand]
}

// NewPlanHandler constructs a handler that routes runs through no-op adapters.
func NewPlanHandler(service interfaces.PipelineService, logger interfaces.Logger, sink ResultSink, opts ...commands.HandlerOption[PlanCommand]) *PlanHandler {
	exec := func(ctx context.Context, msg PlanCommand) error {
		result, err := service.Run(ctx, interfaces.RunOptions{Document: msg.Document, DryRun: true})
		if err != nil {
			return err
		}
		if sink != nil {
			sink(result)
		}
		return nil
	}

	handlerOpts := []commands.HandlerOption[PlanCommand]{
		commands.WithLogger[PlanCommand](logger),
		commands.WithOperation[PlanCommand]("pipeline.plan"),
		commands.WithTelemetry[PlanCommand](commands.DefaultTelemetry[PlanCommand](logger)),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &PlanHandler{inner: commands.NewHandler[PlanCommand](exec, handlerOpts...)}
}

// Execute satisfies command.Commander[PlanCommand].Execute.
func (h *PlanHandler) Execute(ctx context.Context, msg PlanCommand) error {
	return h.inner.Execute(ctx, msg)
}
