// Package nvimbridge implements the plugin installer against a running
// Neovim instance over msgpack-RPC. All filesystem and git work is executed
// inside the editor via Lua so the pipeline observes the same environment
// the user's configuration runs in.
package nvimbridge

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/neovim/go-client/nvim"

	"github.com/iansherr/nvim-initmd/internal/logging"
	"github.com/iansherr/nvim-initmd/pkg/interfaces"
)

// Config configures the editor connection.
type Config struct {
	// ServerAddr is the msgpack-RPC socket of the target Neovim instance
	// (what `nvim --listen` or $NVIM points at).
	ServerAddr string
	// InstallDir is the pack directory plugins are cloned into. Defaults to
	// stdpath("data") .. "/site/pack/initmd/opt" resolved editor-side.
	InstallDir string
	// BaseURL prefixes "owner/repo" identifiers (defaults to GitHub).
	BaseURL string
}

// Installer drives plugin installation through a live Neovim session.
type Installer struct {
	cfg    Config
	logger interfaces.Logger

	mu        sync.Mutex
	client    *nvim.Nvim
	firstDone bool
	firstFns  []func()
}

func New(cfg Config, logger interfaces.Logger) *Installer {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://github.com/"
	}
	if logger == nil {
		logger = logging.NoOp()
	}
	return &Installer{cfg: cfg, logger: logger}
}

// Connect dials the configured Neovim socket. Safe to call repeatedly; the
// existing connection is reused.
func (i *Installer) Connect() error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.client != nil {
		return nil
	}
	if i.cfg.ServerAddr == "" {
		return fmt.Errorf("nvimbridge: server address is required")
	}
	client, err := nvim.Dial(i.cfg.ServerAddr)
	if err != nil {
		return fmt.Errorf("nvimbridge: dial %s: %w", i.cfg.ServerAddr, err)
	}
	i.client = client
	return nil
}

// Close terminates the editor connection.
func (i *Installer) Close() error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.client == nil {
		return nil
	}
	err := i.client.Close()
	i.client = nil
	return err
}

const ensureInstalledLua = `
local base, dir, url = ...
local target = dir .. "/" .. base:gsub(".*/", ""):gsub("%.git$", "")
if vim.fn.isdirectory(target) == 0 then
  local out = vim.fn.system({ "git", "clone", "--filter=blob:none", url, target })
  if vim.v.shell_error ~= 0 then
    return { ok = false, err = out }
  end
end
vim.opt.runtimepath:prepend(target)
return { ok = true, dir = target }
`

const listInstalledLua = `
local dir = ...
local names = {}
for _, path in ipairs(vim.fn.globpath(dir, "*", false, true)) do
  if vim.fn.isdirectory(path) == 1 then
    names[#names + 1] = vim.fn.fnamemodify(path, ":t")
  end
end
return names
`

const removeLua = `
local dir, name = ...
local target = dir .. "/" .. name
if vim.fn.isdirectory(target) == 0 then
  return true
end
return vim.fn.delete(target, "rf") == 0
`

const installDirLua = `
local configured = ...
if configured ~= "" then
  return configured
end
return vim.fn.stdpath("data") .. "/site/pack/initmd/opt"
`

type ensureResult struct {
	OK  bool   `msgpack:"ok"`
	Err string `msgpack:"err"`
	Dir string `msgpack:"dir"`
}

// Reconcile clones every missing repository spec, puts local-path specs on
// the runtimepath, and returns the identifiers present in the install
// directory afterwards. Per-spec failures are logged and skipped so one
// unreachable repository does not block the rest.
func (i *Installer) Reconcile(ctx context.Context, specs []*interfaces.PluginSpec) (interfaces.InstalledSet, error) {
	client, err := i.connected()
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var installDir string
	if err := client.ExecLua(installDirLua, &installDir, i.cfg.InstallDir); err != nil {
		return nil, fmt.Errorf("nvimbridge: resolve install dir: %w", err)
	}

	installed := interfaces.InstalledSet{}
	repoNames := map[string]string{}

	for _, spec := range specs {
		if err := ctx.Err(); err != nil {
			return installed, err
		}
		switch {
		case spec.Dir != "":
			if err := client.ExecLua(`vim.opt.runtimepath:prepend(...)`, nil, spec.Dir); err != nil {
				i.logger.Error("nvimbridge.local.failed", "dir", spec.Dir, "error", err)
				continue
			}
			installed["dir:"+spec.Dir] = struct{}{}
		case spec.Import != "":
			// Import specs pull in further declarations; nothing to clone.
			installed["import:"+spec.Import] = struct{}{}
		default:
			var res ensureResult
			url := i.cfg.BaseURL + spec.Identifier
			if err := client.ExecLua(ensureInstalledLua, &res, spec.Identifier, installDir, url); err != nil {
				i.logger.Error("nvimbridge.install.failed", "identifier", spec.Identifier, "error", err)
				continue
			}
			if !res.OK {
				i.logger.Error("nvimbridge.clone.failed",
					"identifier", spec.Identifier,
					"output", strings.TrimSpace(res.Err),
				)
				continue
			}
			repoNames[repoName(spec.Identifier)] = spec.Identifier
		}
	}

	var names []string
	if err := client.ExecLua(listInstalledLua, &names, installDir); err != nil {
		return installed, fmt.Errorf("nvimbridge: list installed: %w", err)
	}
	for _, name := range names {
		if identifier, ok := repoNames[name]; ok {
			installed[identifier] = struct{}{}
			continue
		}
		// Leftover from a previous run; surface under its directory name so
		// reconciliation can remove it.
		installed[name] = struct{}{}
	}

	i.fireFirstLoad()
	return installed, nil
}

// Remove deletes one installed plugin directory.
func (i *Installer) Remove(ctx context.Context, identifier string) error {
	if strings.HasPrefix(identifier, "dir:") || strings.HasPrefix(identifier, "import:") {
		// Local and import specs own no directory under the install root.
		return nil
	}
	client, err := i.connected()
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	var installDir string
	if err := client.ExecLua(installDirLua, &installDir, i.cfg.InstallDir); err != nil {
		return fmt.Errorf("nvimbridge: resolve install dir: %w", err)
	}

	var ok bool
	if err := client.ExecLua(removeLua, &ok, installDir, repoName(identifier)); err != nil {
		return fmt.Errorf("nvimbridge: remove %s: %w", identifier, err)
	}
	if !ok {
		return fmt.Errorf("nvimbridge: remove %s: delete failed", identifier)
	}
	i.logger.Info("nvimbridge.removed", "identifier", identifier)
	return nil
}

// OnFirstLoadComplete registers a callback fired once the first Reconcile
// finishes. Callbacks registered afterwards run immediately.
func (i *Installer) OnFirstLoadComplete(fn func()) {
	if fn == nil {
		return
	}
	i.mu.Lock()
	if i.firstDone {
		i.mu.Unlock()
		fn()
		return
	}
	i.firstFns = append(i.firstFns, fn)
	i.mu.Unlock()
}

func (i *Installer) fireFirstLoad() {
	i.mu.Lock()
	if i.firstDone {
		i.mu.Unlock()
		return
	}
	i.firstDone = true
	fns := i.firstFns
	i.firstFns = nil
	i.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

func (i *Installer) connected() (*nvim.Nvim, error) {
	if err := i.Connect(); err != nil {
		return nil, err
	}
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.client, nil
}

// repoName maps "owner/repo" onto the on-disk directory name used by the
// install Lua.
func repoName(identifier string) string {
	name := identifier
	if idx := strings.LastIndex(name, "/"); idx >= 0 {
		name = name[idx+1:]
	}
	return strings.TrimSuffix(name, ".git")
}
