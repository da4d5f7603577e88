// Package initmd compiles literate Neovim configurations: Markdown documents
// containing fenced Lua blocks are extracted, classified, evaluated and
// reconciled against the editor's installed plugin set.
package initmd

import (
	"context"

	"github.com/iansherr/nvim-initmd/internal/di"
	"github.com/iansherr/nvim-initmd/internal/document"
	"github.com/iansherr/nvim-initmd/internal/render"
	"github.com/iansherr/nvim-initmd/internal/watch"
	"github.com/iansherr/nvim-initmd/pkg/interfaces"
)

// RunOptions exports the pipeline run options.
type RunOptions = interfaces.RunOptions

// RunResult exports the pipeline run summary.
type RunResult = interfaces.RunResult

// Document exports the parsed literate document DTO.
type Document = interfaces.Document

// PluginSpec exports the declarative plugin record.
type PluginSpec = interfaces.PluginSpec

// Installer exports the plugin installer contract.
type Installer = interfaces.Installer

// StateStore exports the persistence contract.
type StateStore = interfaces.StateStore

// Logger exports the structured logging contract.
type Logger = interfaces.Logger

// LoggerProvider exports the logger provider contract.
type LoggerProvider = interfaces.LoggerProvider

// Module is the top level literate-config runtime façade.
type Module struct {
	container *di.Container
}

// New constructs a module using the provided configuration and optional DI
// overrides.
func New(cfg Config, opts ...di.Option) (*Module, error) {
	container, err := di.NewContainer(cfg, opts...)
	if err != nil {
		return nil, err
	}
	return &Module{container: container}, nil
}

// Container exposes the underlying DI container for advanced integrations.
func (m *Module) Container() *di.Container {
	return m.container
}

// Run executes one pipeline pass.
func (m *Module) Run(ctx context.Context, opts RunOptions) (*RunResult, error) {
	return m.container.Pipeline().Run(ctx, opts)
}

// Loader returns the document loader.
func (m *Module) Loader() *document.Loader {
	if m == nil || m.container == nil {
		return nil
	}
	return m.container.Loader()
}

// Renderer returns the Markdown preview renderer.
func (m *Module) Renderer() *render.Renderer {
	if m == nil || m.container == nil {
		return nil
	}
	return m.container.Renderer()
}

// Watcher returns the document watcher, or nil when watching is disabled.
func (m *Module) Watcher() *watch.Watcher {
	if m == nil || m.container == nil {
		return nil
	}
	return m.container.Watcher()
}

// Close releases module-owned resources.
func (m *Module) Close() error {
	return m.container.Close()
}
