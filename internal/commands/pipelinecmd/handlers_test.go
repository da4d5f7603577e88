package pipelinecmd

import (
	"context"
	"errors"
	"testing"

	goerrors "github.com/goliatone/go-errors"

	"github.com/iansherr/nvim-initmd/pkg/interfaces"
)

type stubService struct {
	lastOpts interfaces.RunOptions
	result   *interfaces.RunResult
	err      error
}

func (s *stubService) Run(_ context.Context, opts interfaces.RunOptions) (*interfaces.RunResult, error) {
	s.lastOpts = opts
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

func TestApplyHandlerForwardsDocumentAndResult(t *testing.T) {
	service := &stubService{result: &interfaces.RunResult{RunID: "r1", Blocks: 3}}

	var got *interfaces.RunResult
	h := NewApplyHandler(service, nil, func(result *interfaces.RunResult) { got = result })

	if err := h.Execute(context.Background(), ApplyCommand{Document: "init.md"}); err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if service.lastOpts.Document != "init.md" || service.lastOpts.DryRun {
		t.Fatalf("unexpected run options %+v", service.lastOpts)
	}
	if got == nil || got.RunID != "r1" {
		t.Fatalf("expected result forwarded to sink, got %+v", got)
	}
}

func TestPlanHandlerForcesDryRun(t *testing.T) {
	service := &stubService{result: &interfaces.RunResult{RunID: "r2"}}
	h := NewPlanHandler(service, nil, nil)

	if err := h.Execute(context.Background(), PlanCommand{}); err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if !service.lastOpts.DryRun {
		t.Fatalf("plan must run dry, got %+v", service.lastOpts)
	}
}

func TestApplyCommandRejectsTraversal(t *testing.T) {
	service := &stubService{result: &interfaces.RunResult{}}
	h := NewApplyHandler(service, nil, nil)

	err := h.Execute(context.Background(), ApplyCommand{Document: "../outside.md"})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !goerrors.IsCategory(err, goerrors.CategoryValidation) {
		t.Fatalf("expected validation category, got %v", err)
	}
}

func TestApplyHandlerWrapsServiceError(t *testing.T) {
	service := &stubService{err: errors.New("no documents")}
	h := NewApplyHandler(service, nil, nil)

	err := h.Execute(context.Background(), ApplyCommand{})
	if err == nil {
		t.Fatal("expected error")
	}
	if !goerrors.IsCategory(err, goerrors.CategoryCommand) {
		t.Fatalf("expected command category, got %v", err)
	}
}
