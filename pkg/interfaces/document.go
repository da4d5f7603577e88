package interfaces

import (
	"context"
	"time"
)

// Document represents one literate configuration file: Markdown prose with
// fenced Lua blocks. The struct is shared between the interfaces package and
// internal implementations so consumers can depend on a stable contract.
type Document struct {
	FilePath     string
	FrontMatter  FrontMatter
	Body         []byte
	LastModified time.Time
	// Checksum stores a SHA-256 digest of the original file content so
	// change detection can run without re-reading unchanged files.
	Checksum []byte
}

// FrontMatter models the optional metadata envelope at the top of a literate
// document. Custom keeps author-specific keys available without schema churn.
type FrontMatter struct {
	Title   string
	Section string
	Raw     map[string]any
}

// DocumentSource discovers and loads literate documents. Discovery order is
// deterministic (lexicographic by file path) so block indices stay stable
// across runs.
type DocumentSource interface {
	// Load reads a single document relative to the configured base path.
	Load(ctx context.Context, path string) (*Document, error)
	// LoadAll reads every matching document under the base path in
	// lexicographic order.
	LoadAll(ctx context.Context) ([]*Document, error)
}

// LoadOptions provide call-specific overrides for document discovery.
type LoadOptions struct {
	Pattern   string
	Recursive *bool
}
