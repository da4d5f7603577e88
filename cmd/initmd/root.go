package main

import (
	"github.com/spf13/cobra"

	initmd "github.com/iansherr/nvim-initmd"
	"github.com/iansherr/nvim-initmd/internal/di"
	"github.com/iansherr/nvim-initmd/internal/nvimbridge"
)

var rootCmd = &cobra.Command{
	Use:   "initmd",
	Short: "Compile literate Neovim configuration from Markdown",
	Long: `initmd extracts fenced Lua blocks from Markdown documents, turns
plugin declarations into installable specs, associates setup code with the
plugin it configures, and reconciles the editor's installed plugin set.`,
	SilenceUsage: true,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("docs-dir", ".", "directory containing literate documents")
	flags.String("state-dir", ".initmd", "directory for run state records")
	flags.String("file", "", "restrict the run to a single document")
	flags.String("pattern", "*.md", "glob limiting discovered documents")
	flags.Bool("recursive", false, "traverse sub-directories")
	flags.String("nvim", "", "Neovim msgpack-RPC address for live installation")
	flags.String("log-provider", "console", "logging provider (console, gologger, noop)")
	flags.String("log-level", "info", "minimum log level")
}

// buildConfig folds persistent flags into the module configuration.
func buildConfig(cmd *cobra.Command) initmd.Config {
	cfg := initmd.DefaultConfig()

	flags := cmd.Flags()
	cfg.Documents.Dir, _ = flags.GetString("docs-dir")
	cfg.State.Dir, _ = flags.GetString("state-dir")
	cfg.Documents.File, _ = flags.GetString("file")
	cfg.Documents.Pattern, _ = flags.GetString("pattern")
	cfg.Documents.Recursive, _ = flags.GetBool("recursive")
	cfg.Logging.Provider, _ = flags.GetString("log-provider")
	cfg.Logging.Level, _ = flags.GetString("log-level")
	cfg.Features.Logger = cfg.Logging.Provider != "noop"

	return cfg
}

// buildModule constructs the module, binding the live editor installer when
// an RPC address was supplied.
func buildModule(cmd *cobra.Command) (*initmd.Module, error) {
	cfg := buildConfig(cmd)

	var opts []di.Option
	if addr, _ := cmd.Flags().GetString("nvim"); addr != "" {
		installer := nvimbridge.New(nvimbridge.Config{ServerAddr: addr}, nil)
		if err := installer.Connect(); err != nil {
			return nil, err
		}
		opts = append(opts, di.WithInstaller(installer))
	}

	return initmd.New(cfg, opts...)
}
