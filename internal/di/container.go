// Package di wires module dependencies behind functional options so hosts
// can swap any collaborator without touching internal packages.
package di

import (
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/iansherr/nvim-initmd/internal/adapters/noop"
	"github.com/iansherr/nvim-initmd/internal/document"
	"github.com/iansherr/nvim-initmd/internal/logging"
	"github.com/iansherr/nvim-initmd/internal/logging/console"
	"github.com/iansherr/nvim-initmd/internal/logging/gologger"
	"github.com/iansherr/nvim-initmd/internal/luaengine"
	"github.com/iansherr/nvim-initmd/internal/pipeline"
	"github.com/iansherr/nvim-initmd/internal/render"
	"github.com/iansherr/nvim-initmd/internal/runtimeconfig"
	"github.com/iansherr/nvim-initmd/internal/state"
	"github.com/iansherr/nvim-initmd/internal/watch"
	"github.com/iansherr/nvim-initmd/pkg/interfaces"
)

// Container wires module dependencies.
type Container struct {
	Config runtimeconfig.Config

	loggerProvider interfaces.LoggerProvider
	installer      interfaces.Installer
	store          interfaces.StateStore
	evaluator      interfaces.Evaluator
	filesystem     fs.FS
	loader         *document.Loader

	engine   *luaengine.Engine
	pipeline interfaces.PipelineService
	renderer *render.Renderer
	watcher  *watch.Watcher
}

// Option mutates the container before it is finalised.
type Option func(*Container)

// WithLoggerProvider overrides the logger provider resolved from config.
func WithLoggerProvider(provider interfaces.LoggerProvider) Option {
	return func(c *Container) {
		c.loggerProvider = provider
	}
}

// WithInstaller overrides the default no-op installer.
func WithInstaller(installer interfaces.Installer) Option {
	return func(c *Container) {
		c.installer = installer
	}
}

// WithStateStore overrides the state store built from config.
func WithStateStore(store interfaces.StateStore) Option {
	return func(c *Container) {
		c.store = store
	}
}

// WithEvaluator overrides the embedded Lua evaluator.
func WithEvaluator(evaluator interfaces.Evaluator) Option {
	return func(c *Container) {
		c.evaluator = evaluator
	}
}

// WithFilesystem overrides the filesystem documents are loaded from. Useful
// for tests and embedded document sets.
func WithFilesystem(filesystem fs.FS) Option {
	return func(c *Container) {
		c.filesystem = filesystem
	}
}

// NewContainer validates the configuration and finalises every binding.
func NewContainer(cfg runtimeconfig.Config, opts ...Option) (*Container, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Container{Config: cfg}

	for _, opt := range opts {
		opt(c)
	}

	if c.loggerProvider == nil && cfg.Features.Logger {
		provider, err := newLoggerProvider(cfg.Logging)
		if err != nil {
			return nil, err
		}
		c.loggerProvider = provider
	}

	if c.filesystem == nil {
		c.filesystem = os.DirFS(cfg.Documents.Dir)
	}
	c.loader = document.NewLoader(c.filesystem, document.LoaderConfig{
		BasePath:  cfg.Documents.Dir,
		Pattern:   cfg.Documents.Pattern,
		Recursive: cfg.Documents.Recursive,
	})

	if c.evaluator == nil {
		engine := luaengine.New(luaengine.Config{}, logging.ModuleLogger(c.loggerProvider, "initmd.luaengine"))
		c.engine = engine
		c.evaluator = engine
	}

	if c.store == nil {
		store, err := state.NewStore(state.Config{Dir: cfg.State.Dir}, logging.StateLogger(c.loggerProvider))
		if err != nil {
			return nil, err
		}
		c.store = store
	}

	if c.installer == nil {
		c.installer = noop.NewInstaller()
	}

	svc, err := pipeline.New(pipeline.Config{
		Runtime:   cfg,
		Loader:    c.loader,
		Evaluator: c.evaluator,
		Installer: c.installer,
		Store:     c.store,
		Logger:    logging.PipelineLogger(c.loggerProvider),
		Provider:  c.loggerProvider,
	})
	if err != nil {
		return nil, err
	}
	c.pipeline = svc

	c.renderer = render.New(cfg.Render)

	if cfg.Watch.Enabled {
		c.watcher = watch.New(watch.Config{
			Dir:       cfg.Documents.Dir,
			Pattern:   cfg.Documents.Pattern,
			Recursive: cfg.Documents.Recursive,
			Interval:  cfg.Watch.Interval,
			Debounce:  cfg.Watch.Debounce,
		}, logging.ModuleLogger(c.loggerProvider, "initmd.watch"))
	}

	return c, nil
}

// Close releases container-owned resources (currently the Lua engine).
func (c *Container) Close() error {
	if c.engine != nil {
		c.engine.Close()
		c.engine = nil
	}
	return nil
}

// LoggerProvider exposes the resolved provider; nil when logging is disabled
// and no override was supplied.
func (c *Container) LoggerProvider() interfaces.LoggerProvider {
	return c.loggerProvider
}

// Pipeline returns the configured pipeline service.
func (c *Container) Pipeline() interfaces.PipelineService {
	return c.pipeline
}

// Loader returns the document loader.
func (c *Container) Loader() *document.Loader {
	return c.loader
}

// Installer returns the bound installer.
func (c *Container) Installer() interfaces.Installer {
	return c.installer
}

// StateStore returns the bound state store.
func (c *Container) StateStore() interfaces.StateStore {
	return c.store
}

// Renderer returns the preview renderer.
func (c *Container) Renderer() *render.Renderer {
	return c.renderer
}

// Watcher returns the document watcher, or nil when watching is disabled.
func (c *Container) Watcher() *watch.Watcher {
	return c.watcher
}

func newLoggerProvider(cfg runtimeconfig.LoggingConfig) (interfaces.LoggerProvider, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", "noop":
		return nil, nil
	case "console":
		return console.NewProvider(console.Options{}), nil
	case "gologger":
		return gologger.NewProvider(gologger.Config{
			Level:     cfg.Level,
			Format:    cfg.Format,
			AddSource: cfg.AddSource,
			Focus:     cfg.Focus,
		})
	default:
		return nil, fmt.Errorf("di: unknown logging provider %q", cfg.Provider)
	}
}
