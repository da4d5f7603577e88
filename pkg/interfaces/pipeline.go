package interfaces

import "context"

// RunOptions customise a single pipeline run.
type RunOptions struct {
	// Document restricts the run to one file; the empty string sentinel
	// means scan the whole configured directory.
	Document string
	// DryRun computes every stage but routes installation through a no-op
	// installer and skips destructive persistence.
	DryRun bool
}

// RunResult summarises one completed pipeline run.
type RunResult struct {
	RunID          string
	Blocks         int
	Specs          int
	Entries        int
	ChangedBlocks  []int
	RemovedBlocks  []int
	Associations   AssociationRecord
	Desired        []string
	Removals       []string
	ImmediateRuns  int
	DeferredQueued int
	Errors         []error
}

// PipelineService runs the extraction, classification, association,
// scheduling and reconciliation pipeline end to end.
type PipelineService interface {
	Run(ctx context.Context, opts RunOptions) (*RunResult, error)
}
