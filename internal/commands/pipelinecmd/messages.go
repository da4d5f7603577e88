// Package pipelinecmd exposes pipeline runs as validated command messages so
// hosts can dispatch them through go-command buses.
package pipelinecmd

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

const (
	applyMessageType = "initmd.pipeline.apply"
	planMessageType  = "initmd.pipeline.plan"
)

// ApplyCommand requests a full pipeline run with side effects.
type ApplyCommand struct {
	// Document restricts the run to a single file; empty means the whole
	// configured directory.
	Document string `json:"document,omitempty"`
}

// Type implements command.Message.
func (ApplyCommand) Type() string { return applyMessageType }

// Validate ensures the message carries a safe document path.
func (m ApplyCommand) Validate() error {
	return validateDocument(m.Document, "initmd.pipeline.apply")
}

// PlanCommand requests a dry run: every stage computes but installation and
// persistence are routed through no-op adapters.
type PlanCommand struct {
	Document string `json:"document,omitempty"`
}

// Type implements command.Message.
func (PlanCommand) Type() string { return planMessageType }

// Validate ensures the message carries a safe document path.
func (m PlanCommand) Validate() error {
	return validateDocument(m.Document, "initmd.pipeline.plan")
}

func validateDocument(document, codePrefix string) error {
	errs := validation.Errors{}
	if strings.Contains(document, "..") {
		errs["document"] = validation.NewError(codePrefix+".document_invalid", "document must not traverse outside the documents directory")
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}
