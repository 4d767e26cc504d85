package wikisync

import "github.com/goliatone/go-wikisync/internal/runtimeconfig"

var (
	ErrConfluenceConfigInvalid = runtimeconfig.ErrConfluenceConfigInvalid
	ErrDataDirRequired         = runtimeconfig.ErrDataDirRequired
	ErrLookupCacheSizeInvalid  = runtimeconfig.ErrLookupCacheSizeInvalid
	ErrHTTPTimeoutInvalid      = runtimeconfig.ErrHTTPTimeoutInvalid
	ErrLoggingProviderRequired = runtimeconfig.ErrLoggingProviderRequired
	ErrLoggingProviderUnknown  = runtimeconfig.ErrLoggingProviderUnknown
	ErrLoggingLevelInvalid     = runtimeconfig.ErrLoggingLevelInvalid
	ErrLoggingFormatInvalid    = runtimeconfig.ErrLoggingFormatInvalid
)

type (
	Config           = runtimeconfig.Config
	ConfluenceConfig = runtimeconfig.ConfluenceConfig
	SyncConfig       = runtimeconfig.SyncConfig
	LoggingConfig    = runtimeconfig.LoggingConfig
	MetricsConfig    = runtimeconfig.MetricsConfig
)

// DefaultConfig returns the defaults applied before environment overrides.
func DefaultConfig() Config {
	return runtimeconfig.DefaultConfig()
}

// LoadConfig reads .env files and the process environment without validating.
func LoadConfig(files ...string) (Config, error) {
	return runtimeconfig.Load(files...)
}
