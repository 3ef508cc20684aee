// Package settings loads air-toolkit's ambient tool configuration from
// a config file, AIR_-prefixed environment variables, and built-in
// defaults, in that increasing order of precedence.
package settings

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/LiveData-Inc/air-toolkit/internal/airerr"
)

// Default configuration values.
const (
	defaultWorkers             = 0 // 0 means "use runtime.NumCPU()"
	defaultUnitTimeout         = "5m"
	defaultNestedLoopThreshold = 2
	defaultLongFunctionLines   = 100
	defaultMaxParameterCount   = 5
	defaultCacheDir            = ".air/cache"
	defaultLogLevel            = "info"
	defaultLogFormat           = "text"
)

// Sentinel validation errors.
var (
	ErrInvalidWorkers      = errors.New("workers must be non-negative")
	ErrInvalidLongFunction = errors.New("analysis.long_function_lines must be positive")
	ErrInvalidParameterCap = errors.New("analysis.max_parameter_count must be positive")
)

// Settings holds all ambient configuration for the air CLI and its
// worker subprocesses.
type Settings struct {
	Worker   WorkerSettings   `mapstructure:"worker"`
	Analysis AnalysisSettings `mapstructure:"analysis"`
	Cache    CacheSettings    `mapstructure:"cache"`
	Logging  LoggingSettings  `mapstructure:"logging"`
}

// WorkerSettings controls the out-of-process worker pool.
type WorkerSettings struct {
	Workers     int    `mapstructure:"workers"`
	UnitTimeout string `mapstructure:"unit_timeout"`
	BinaryPath  string `mapstructure:"binary_path"`
}

// AnalysisSettings controls analyzer heuristic thresholds.
type AnalysisSettings struct {
	NestedLoopThreshold int `mapstructure:"nested_loop_threshold"`
	LongFunctionLines   int `mapstructure:"long_function_lines"`
	MaxParameterCount   int `mapstructure:"max_parameter_count"`
}

// CacheSettings controls the content-addressed findings cache.
type CacheSettings struct {
	Directory string `mapstructure:"directory"`
	Enabled   bool   `mapstructure:"enabled"`
}

// LoggingSettings controls the CLI's structured logger.
type LoggingSettings struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads settings from configPath (if non-empty), ".air/config.yaml"
// in the current directory otherwise, layered under AIR_-prefixed
// environment variables and the package defaults.
func Load(configPath string) (*Settings, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".air")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("AIR")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("%w: read config: %w", airerr.ErrConfig, err)
		}
	}

	var settings Settings

	if err := v.Unmarshal(&settings); err != nil {
		return nil, fmt.Errorf("%w: unmarshal config: %w", airerr.ErrConfig, err)
	}

	if err := validate(&settings); err != nil {
		return nil, fmt.Errorf("%w: %w", airerr.ErrConfig, err)
	}

	return &settings, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("worker.workers", defaultWorkers)
	v.SetDefault("worker.unit_timeout", defaultUnitTimeout)
	v.SetDefault("worker.binary_path", "")

	v.SetDefault("analysis.nested_loop_threshold", defaultNestedLoopThreshold)
	v.SetDefault("analysis.long_function_lines", defaultLongFunctionLines)
	v.SetDefault("analysis.max_parameter_count", defaultMaxParameterCount)

	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.directory", defaultCacheDir)

	v.SetDefault("logging.level", defaultLogLevel)
	v.SetDefault("logging.format", defaultLogFormat)
}

func validate(s *Settings) error {
	if s.Worker.Workers < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidWorkers, s.Worker.Workers)
	}

	if s.Analysis.LongFunctionLines <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidLongFunction, s.Analysis.LongFunctionLines)
	}

	if s.Analysis.MaxParameterCount <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidParameterCap, s.Analysis.MaxParameterCount)
	}

	return nil
}
