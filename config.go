package initmd

import "github.com/iansherr/nvim-initmd/internal/runtimeconfig"

var (
	ErrDocumentsDirRequired    = runtimeconfig.ErrDocumentsDirRequired
	ErrStateDirRequired        = runtimeconfig.ErrStateDirRequired
	ErrLoggingProviderRequired = runtimeconfig.ErrLoggingProviderRequired
	ErrLoggingProviderUnknown  = runtimeconfig.ErrLoggingProviderUnknown
	ErrLoggingLevelInvalid     = runtimeconfig.ErrLoggingLevelInvalid
	ErrLoggingFormatInvalid    = runtimeconfig.ErrLoggingFormatInvalid
	ErrWatchIntervalInvalid    = runtimeconfig.ErrWatchIntervalInvalid
	ErrDumpVerbosityInvalid    = runtimeconfig.ErrDumpVerbosityInvalid
)

type (
	Config          = runtimeconfig.Config
	DocumentsConfig = runtimeconfig.DocumentsConfig
	ExtractConfig   = runtimeconfig.ExtractConfig
	StateConfig     = runtimeconfig.StateConfig
	RenderConfig    = runtimeconfig.RenderConfig
	WatchConfig     = runtimeconfig.WatchConfig
	Features        = runtimeconfig.Features
	CommandsConfig  = runtimeconfig.CommandsConfig
	LoggingConfig   = runtimeconfig.LoggingConfig
)

func DefaultConfig() Config {
	return runtimeconfig.DefaultConfig()
}
