package pipeline

import (
	"context"
	"errors"
	"testing"
	"testing/fstest"

	"github.com/iansherr/nvim-initmd/internal/document"
	"github.com/iansherr/nvim-initmd/internal/luaengine"
	"github.com/iansherr/nvim-initmd/internal/runtimeconfig"
	"github.com/iansherr/nvim-initmd/pkg/interfaces"
)

const initDocument = "# Main\n\n" +
	"```lua\nvim.o.number = true\n```\n\n" +
	"```lua\n-- @ disable\nvim.o.spell = true\n```\n\n" +
	"# Plugins\n\n" +
	"```lua\nreturn {\n  { \"nvim-telescope/telescope.nvim\" },\n  { \"folke/which-key.nvim\" },\n}\n```\n\n" +
	"```lua\nrequire(\"telescope\").setup({})\n```\n"

type recordingStore struct {
	ledger       interfaces.Ledger
	savedLedger  bool
	associations interfaces.AssociationRecord
	dump         []string
	metadata     *interfaces.RunMetadata
}

func (r *recordingStore) LoadLedger(context.Context) (interfaces.Ledger, error) {
	if r.ledger == nil {
		return interfaces.Ledger{}, nil
	}
	return r.ledger, nil
}

func (r *recordingStore) SaveLedger(_ context.Context, ledger interfaces.Ledger) error {
	r.ledger = ledger
	r.savedLedger = true
	return nil
}

func (r *recordingStore) SaveAssociations(_ context.Context, record interfaces.AssociationRecord) error {
	r.associations = record
	return nil
}

func (r *recordingStore) SaveBlockDump(_ context.Context, blocks []string) error {
	r.dump = blocks
	return nil
}

func (r *recordingStore) LoadBlockDump(context.Context) ([]string, error) {
	return r.dump, nil
}

func (r *recordingStore) SaveRunMetadata(_ context.Context, meta interfaces.RunMetadata) error {
	r.metadata = &meta
	return nil
}

type recordingInstaller struct {
	specs    []*interfaces.PluginSpec
	removed  []string
	firstFns []func()
}

func (r *recordingInstaller) Reconcile(_ context.Context, specs []*interfaces.PluginSpec) (interfaces.InstalledSet, error) {
	r.specs = specs
	installed := interfaces.InstalledSet{"stale/plugin": {}}
	for _, spec := range specs {
		installed[spec.Identifier] = struct{}{}
	}
	for _, fn := range r.firstFns {
		fn()
	}
	return installed, nil
}

func (r *recordingInstaller) Remove(_ context.Context, identifier string) error {
	r.removed = append(r.removed, identifier)
	return nil
}

func (r *recordingInstaller) OnFirstLoadComplete(fn func()) {
	r.firstFns = append(r.firstFns, fn)
}

func testRuntime() runtimeconfig.Config {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Documents.Dir = "."
	cfg.State.Dir = "state"
	cfg.State.DumpVerbosity = 1
	cfg.Features = runtimeconfig.Features{
		ChangeDetection: true,
		Associations:    true,
		Reconcile:       true,
		Dump:            true,
	}
	return cfg
}

func newTestService(t *testing.T, fsys fstest.MapFS, store interfaces.StateStore, installer interfaces.Installer) *Service {
	t.Helper()

	engine := luaengine.New(luaengine.Config{}, nil)
	t.Cleanup(engine.Close)

	loader := document.NewLoader(fsys, document.LoaderConfig{})

	svc, err := New(Config{
		Runtime:   testRuntime(),
		Loader:    loader,
		Evaluator: engine,
		Installer: installer,
		Store:     store,
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	return svc
}

func TestRunFullPass(t *testing.T) {
	fsys := fstest.MapFS{
		"init.md": &fstest.MapFile{Data: []byte(initDocument)},
	}
	store := &recordingStore{}
	installer := &recordingInstaller{}
	svc := newTestService(t, fsys, store, installer)

	result, err := svc.Run(context.Background(), interfaces.RunOptions{})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if result.Blocks != 4 {
		t.Fatalf("expected 4 blocks, got %d", result.Blocks)
	}
	if result.Specs != 2 {
		t.Fatalf("expected 2 specs, got %d", result.Specs)
	}
	// The disabled block contributes nothing; the option block is the only
	// immediate entry once the telescope setup defers.
	if result.Entries != 2 {
		t.Fatalf("expected 2 setup entries, got %d", result.Entries)
	}
	if result.DeferredQueued != 1 {
		t.Fatalf("expected telescope setup deferred, got %d", result.DeferredQueued)
	}
	if result.ImmediateRuns != 1 {
		t.Fatalf("expected 1 immediate run, got %d", result.ImmediateRuns)
	}
	if len(result.ChangedBlocks) != 4 {
		t.Fatalf("first run must report every block changed, got %v", result.ChangedBlocks)
	}
	if got, ok := result.Associations[4]; !ok || got != "telescope" {
		t.Fatalf("expected block 4 associated with telescope, got %v", result.Associations)
	}
	if len(result.Desired) != 2 {
		t.Fatalf("expected 2 desired identifiers, got %v", result.Desired)
	}
	if len(result.Removals) != 1 || result.Removals[0] != "stale/plugin" {
		t.Fatalf("expected stale/plugin removed, got %v", result.Removals)
	}
	if len(installer.removed) != 1 {
		t.Fatalf("installer must be asked to remove the stale plugin")
	}

	if !store.savedLedger || len(store.ledger) != 4 {
		t.Fatalf("ledger must be persisted with 4 entries, got %v", store.ledger)
	}
	if len(store.dump) != 4 {
		t.Fatalf("block dump must contain all blocks, got %d", len(store.dump))
	}
	if store.metadata == nil || store.metadata.RunID != result.RunID {
		t.Fatalf("run metadata must be persisted with the run id")
	}
}

func TestRunSecondPassReportsNoChanges(t *testing.T) {
	fsys := fstest.MapFS{
		"init.md": &fstest.MapFile{Data: []byte(initDocument)},
	}
	store := &recordingStore{}
	svc := newTestService(t, fsys, store, &recordingInstaller{})

	if _, err := svc.Run(context.Background(), interfaces.RunOptions{}); err != nil {
		t.Fatalf("first run failed: %v", err)
	}
	result, err := svc.Run(context.Background(), interfaces.RunOptions{})
	if err != nil {
		t.Fatalf("second run failed: %v", err)
	}
	if len(result.ChangedBlocks) != 0 || len(result.RemovedBlocks) != 0 {
		t.Fatalf("unchanged documents must report a clean run, got %+v", result)
	}
}

func TestRunSingleDocumentOverride(t *testing.T) {
	fsys := fstest.MapFS{
		"init.md":  &fstest.MapFile{Data: []byte(initDocument)},
		"other.md": &fstest.MapFile{Data: []byte("# Main\n\n```lua\nvim.o.wrap = false\n```\n")},
	}
	store := &recordingStore{}
	svc := newTestService(t, fsys, store, &recordingInstaller{})

	result, err := svc.Run(context.Background(), interfaces.RunOptions{Document: "other.md"})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if result.Blocks != 1 {
		t.Fatalf("override must process one document only, got %d blocks", result.Blocks)
	}
	if store.metadata == nil || store.metadata.Document != "other.md" {
		t.Fatalf("run metadata must record the overridden document")
	}
}

func TestRunNoDocumentsIsFatal(t *testing.T) {
	svc := newTestService(t, fstest.MapFS{}, &recordingStore{}, &recordingInstaller{})

	_, err := svc.Run(context.Background(), interfaces.RunOptions{})
	if !errors.Is(err, document.ErrNoDocuments) {
		t.Fatalf("expected ErrNoDocuments, got %v", err)
	}
}

func TestRunDryRunSkipsPersistenceAndInstall(t *testing.T) {
	fsys := fstest.MapFS{
		"init.md": &fstest.MapFile{Data: []byte(initDocument)},
	}
	store := &recordingStore{}
	installer := &recordingInstaller{}
	svc := newTestService(t, fsys, store, installer)

	result, err := svc.Run(context.Background(), interfaces.RunOptions{DryRun: true})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if result.Specs != 2 || result.Entries != 2 {
		t.Fatalf("dry run must still compute the full plan, got %+v", result)
	}
	if store.savedLedger || store.metadata != nil || store.associations != nil {
		t.Fatalf("dry run must not touch the real store")
	}
	if installer.specs != nil || len(installer.removed) != 0 {
		t.Fatalf("dry run must not touch the real installer")
	}
}

func TestRunDryRunLocalPathSpecEmitsNoRemovals(t *testing.T) {
	fsys := fstest.MapFS{
		"init.md": &fstest.MapFile{Data: []byte(
			"# Plugins\n\n```lua\nreturn { { dir = \"/home/u/plug\" } }\n```\n",
		)},
	}
	store := &recordingStore{}
	installer := &recordingInstaller{}
	svc := newTestService(t, fsys, store, installer)

	result, err := svc.Run(context.Background(), interfaces.RunOptions{DryRun: true})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if result.Specs != 1 {
		t.Fatalf("expected 1 spec, got %d", result.Specs)
	}
	if len(result.Desired) != 1 || result.Desired[0] != "dir:/home/u/plug" {
		t.Fatalf("path spec must be desired under its dir: tag, got %v", result.Desired)
	}
	if len(result.Removals) != 0 {
		t.Fatalf("dry run over a path spec must emit no removals, got %v", result.Removals)
	}
}

type namespaceProvider struct {
	requested map[string]bool
}

func (p *namespaceProvider) GetLogger(name string) interfaces.Logger {
	if p.requested == nil {
		p.requested = map[string]bool{}
	}
	p.requested[name] = true
	return nil
}

func TestNewScopesStageLoggersByNamespace(t *testing.T) {
	engine := luaengine.New(luaengine.Config{}, nil)
	t.Cleanup(engine.Close)
	provider := &namespaceProvider{}

	_, err := New(Config{
		Runtime:   testRuntime(),
		Loader:    document.NewLoader(fstest.MapFS{}, document.LoaderConfig{}),
		Evaluator: engine,
		Provider:  provider,
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	for _, namespace := range []string{
		"initmd.extract",
		"initmd.change",
		"initmd.classify",
		"initmd.schedule",
		"initmd.reconcile",
	} {
		if !provider.requested[namespace] {
			t.Fatalf("stage namespace %q never requested, got %v", namespace, provider.requested)
		}
	}
}

func TestNewRequiresLoaderAndEvaluator(t *testing.T) {
	engine := luaengine.New(luaengine.Config{}, nil)
	defer engine.Close()

	if _, err := New(Config{Evaluator: engine}); !errors.Is(err, ErrLoaderRequired) {
		t.Fatalf("expected ErrLoaderRequired, got %v", err)
	}
	loader := document.NewLoader(fstest.MapFS{}, document.LoaderConfig{})
	if _, err := New(Config{Loader: loader}); !errors.Is(err, ErrEvaluatorRequired) {
		t.Fatalf("expected ErrEvaluatorRequired, got %v", err)
	}
}
