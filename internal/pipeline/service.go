// Package pipeline runs the literate-config stages end to end: document
// loading, block extraction, change detection, classification, spec
// building, association, scheduling and plugin reconciliation.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/iansherr/nvim-initmd/internal/adapters/noop"
	"github.com/iansherr/nvim-initmd/internal/associate"
	"github.com/iansherr/nvim-initmd/internal/change"
	"github.com/iansherr/nvim-initmd/internal/classify"
	"github.com/iansherr/nvim-initmd/internal/document"
	"github.com/iansherr/nvim-initmd/internal/extract"
	"github.com/iansherr/nvim-initmd/internal/logging"
	"github.com/iansherr/nvim-initmd/internal/plugins"
	"github.com/iansherr/nvim-initmd/internal/reconcile"
	"github.com/iansherr/nvim-initmd/internal/runtimeconfig"
	"github.com/iansherr/nvim-initmd/internal/schedule"
	"github.com/iansherr/nvim-initmd/pkg/interfaces"
)

// ErrLoaderRequired indicates the pipeline was built without a document loader.
var ErrLoaderRequired = errors.New("pipeline: document loader is required")

// ErrEvaluatorRequired indicates the pipeline was built without an evaluator.
var ErrEvaluatorRequired = errors.New("pipeline: evaluator is required")

// Config wires the pipeline's collaborators. Loader and Evaluator are
// required; Installer and Store default to no-op implementations and Logger
// to the silent logger. When Provider is set, every stage receives its own
// namespaced logger instead of sharing Logger.
type Config struct {
	Runtime   runtimeconfig.Config
	Loader    *document.Loader
	Evaluator interfaces.Evaluator
	Installer interfaces.Installer
	Store     interfaces.StateStore
	Logger    interfaces.Logger
	Provider  interfaces.LoggerProvider
}

// Service implements interfaces.PipelineService.
type Service struct {
	runtime   runtimeconfig.Config
	loader    *document.Loader
	evaluator interfaces.Evaluator
	installer interfaces.Installer
	store     interfaces.StateStore

	extractor  *extract.Extractor
	classifier *classify.Classifier
	builder    *plugins.Builder
	associator *associate.Associator
	scheduler  *schedule.Scheduler

	logger          interfaces.Logger
	changeLogger    interfaces.Logger
	reconcileLogger interfaces.Logger
}

func New(cfg Config) (*Service, error) {
	if cfg.Loader == nil {
		return nil, ErrLoaderRequired
	}
	if cfg.Evaluator == nil {
		return nil, ErrEvaluatorRequired
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NoOp()
	}

	// One namespaced logger per stage when a provider is available; the
	// shared logger otherwise, so injected test loggers see every stage.
	extractLogger := logger
	changeLogger := logger
	classifyLogger := logger
	scheduleLogger := logger
	reconcileLogger := logger
	if cfg.Provider != nil {
		extractLogger = logging.ExtractLogger(cfg.Provider)
		changeLogger = logging.ChangeLogger(cfg.Provider)
		classifyLogger = logging.ClassifyLogger(cfg.Provider)
		scheduleLogger = logging.ScheduleLogger(cfg.Provider)
		reconcileLogger = logging.ReconcileLogger(cfg.Provider)
	}

	installer := cfg.Installer
	if installer == nil {
		installer = noop.NewInstaller()
	}
	store := cfg.Store
	if store == nil {
		store = noop.NewStateStore()
	}

	extractCfg := extract.Config{
		Language:       cfg.Runtime.Extract.Language,
		MainHeading:    cfg.Runtime.Extract.MainHeading,
		PluginsHeading: cfg.Runtime.Extract.PluginsHeading,
	}

	return &Service{
		runtime:    cfg.Runtime,
		loader:     cfg.Loader,
		evaluator:  cfg.Evaluator,
		installer:  installer,
		store:      store,
		extractor:  extract.New(extractCfg, extractLogger),
		classifier: classify.New(classifyLogger),
		builder:    plugins.NewBuilder(cfg.Evaluator, classifyLogger),
		associator: associate.New(logger),
		scheduler:  schedule.New(cfg.Evaluator, scheduleLogger),

		logger:          logger,
		changeLogger:    changeLogger,
		reconcileLogger: reconcileLogger,
	}, nil
}

// Run executes one full pipeline pass. Document discovery failures are
// fatal; persistence and installer failures are recorded on the result and
// the remaining stages continue.
func (s *Service) Run(ctx context.Context, opts interfaces.RunOptions) (*interfaces.RunResult, error) {
	started := time.Now()

	installer := s.installer
	store := s.store
	if opts.DryRun {
		installer = noop.NewInstaller()
		store = noop.NewStateStore()
	}

	result := &interfaces.RunResult{RunID: uuid.NewString()}

	docs, err := s.loadDocuments(ctx, opts)
	if err != nil {
		return nil, err
	}

	blocks := s.extractor.ExtractAll(docs)
	result.Blocks = len(blocks)

	if s.runtime.Features.ChangeDetection {
		detector := change.NewDetector(store, s.changeLogger)
		report, err := detector.Detect(ctx, blocks)
		if err != nil {
			result.Errors = append(result.Errors, err)
		}
		result.ChangedBlocks = report.Changed
		result.RemovedBlocks = report.Removed
	}

	classified := s.classifier.ClassifyAll(blocks)
	specs, entries := s.builder.Build(ctx, classified)
	result.Specs = len(specs)
	result.Entries = len(entries)

	associations := associate.Map{}
	if s.runtime.Features.Associations {
		associations = s.associator.Associate(specs, entries)
	}
	result.Associations = associations.Record()
	if err := store.SaveAssociations(ctx, result.Associations); err != nil {
		result.Errors = append(result.Errors, err)
	}

	if s.runtime.Features.Dump && s.runtime.State.DumpVerbosity > 0 {
		if err := store.SaveBlockDump(ctx, DumpBlocks(blocks, s.runtime.State.DumpVerbosity)); err != nil {
			result.Errors = append(result.Errors, err)
		}
	}

	plan := s.scheduler.Schedule(specs, entries, associations)
	result.DeferredQueued = plan.DeferredCount

	// Per-spec setup runs once initial installation completes, so deferred
	// actions observe a loaded plugin.
	installer.OnFirstLoadComplete(func() {
		for _, spec := range specs {
			schedule.RunSetup(ctx, spec, s.logger)
		}
	})

	// The installer fires the first-load callback from inside Reconcile,
	// once installation completes and before removals are issued; setup
	// therefore observes installed plugins.
	if s.runtime.Features.Reconcile {
		reconciler := reconcile.New(installer, s.reconcileLogger)
		recResult, err := reconciler.Reconcile(ctx, specs)
		if err != nil {
			s.logger.Error("pipeline.reconcile.failed", "error", err)
			result.Errors = append(result.Errors, err)
		}
		result.Desired = sortedIdentifiers(recResult.Desired)
		result.Removals = recResult.Removals
	} else {
		result.Desired = sortedIdentifiers(reconcile.DesiredSet(specs))
	}

	result.ImmediateRuns = s.scheduler.RunImmediate(ctx, plan.Immediate)

	meta := interfaces.RunMetadata{
		RunID:      result.RunID,
		StartedAt:  started.UTC().Format(time.RFC3339),
		Blocks:     result.Blocks,
		Specs:      result.Specs,
		Entries:    result.Entries,
		Changed:    len(result.ChangedBlocks),
		Removed:    len(result.RemovedBlocks),
		Removals:   len(result.Removals),
		Document:   opts.Document,
		DurationMS: time.Since(started).Milliseconds(),
	}
	if err := store.SaveRunMetadata(ctx, meta); err != nil {
		result.Errors = append(result.Errors, err)
	}

	s.logger.Info("pipeline.run.complete",
		"run_id", result.RunID,
		"blocks", result.Blocks,
		"specs", result.Specs,
		"entries", result.Entries,
		"immediate", result.ImmediateRuns,
		"deferred", result.DeferredQueued,
		"removals", len(result.Removals),
	)

	return result, nil
}

func (s *Service) loadDocuments(ctx context.Context, opts interfaces.RunOptions) ([]*interfaces.Document, error) {
	target := opts.Document
	if target == "" {
		target = s.runtime.Documents.File
	}
	if target != "" {
		doc, err := s.loader.Load(ctx, target)
		if err != nil {
			return nil, err
		}
		return []*interfaces.Document{doc}, nil
	}
	return s.loader.LoadAll(ctx)
}

// DumpBlocks renders extracted blocks for the on-disk dump. Verbosity one
// emits the trimmed text only; higher verbosities prefix each block with a
// positional header.
func DumpBlocks(blocks []extract.Block, verbosity int) []string {
	out := make([]string, 0, len(blocks))
	for _, block := range blocks {
		if verbosity >= 2 {
			header := fmt.Sprintf("-- block %d (%s) %s", block.Index, block.Section, block.Document)
			out = append(out, header+"\n"+block.Text)
			continue
		}
		out = append(out, block.Text)
	}
	return out
}

func sortedIdentifiers(set interfaces.InstalledSet) []string {
	out := make([]string, 0, len(set))
	for identifier := range set {
		out = append(out, identifier)
	}
	sort.Strings(out)
	return out
}
