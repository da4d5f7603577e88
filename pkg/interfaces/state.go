package interfaces

import "context"

// Ledger maps 1-based block indices to content hashes for one run.
type Ledger map[int]string

// AssociationRecord maps setup-entry block indices to the plugin identifier
// they configure. The pipeline writes it for external inspection and never
// reads it back.
type AssociationRecord map[int]string

// RunMetadata captures bookkeeping persisted alongside the state records.
type RunMetadata struct {
	RunID      string `yaml:"run_id"`
	StartedAt  string `yaml:"started_at"`
	Blocks     int    `yaml:"blocks"`
	Specs      int    `yaml:"specs"`
	Entries    int    `yaml:"entries"`
	Changed    int    `yaml:"changed"`
	Removed    int    `yaml:"removed"`
	Removals   int    `yaml:"removals"`
	Document   string `yaml:"document,omitempty"`
	DurationMS int64  `yaml:"duration_ms"`
}

// StateStore persists the pipeline's on-disk records. Reads happen once at
// the start of a run and writes once at the end; corrupt or missing records
// are treated as empty, never as errors.
type StateStore interface {
	LoadLedger(ctx context.Context) (Ledger, error)
	SaveLedger(ctx context.Context, ledger Ledger) error
	SaveAssociations(ctx context.Context, record AssociationRecord) error
	SaveBlockDump(ctx context.Context, blocks []string) error
	LoadBlockDump(ctx context.Context) ([]string, error)
	SaveRunMetadata(ctx context.Context, meta RunMetadata) error
}
