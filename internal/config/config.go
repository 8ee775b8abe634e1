package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DefaultInputPath is the export read when no file is given.
const DefaultInputPath = "376-УКС_С Раздел ПД № 11 02-01-02 АР.xml"

// EnvPrefix prefixes every environment override, e.g. SMETA_WORKER_COUNT.
const EnvPrefix = "SMETA"

var (
	ErrAPIKeyRequired  = errors.New("api_key is required")
	ErrInvalidWorkers  = errors.New("worker_count must be positive")
	ErrInvalidQueue    = errors.New("max_queue_size must be positive")
	ErrInvalidUpload   = errors.New("max_upload_bytes must be positive")
	ErrInvalidTTL      = errors.New("job_ttl must be positive")
	ErrInvalidCache    = errors.New("cache_size must not be negative")
	ErrInvalidInclude  = errors.New("watch.include must not be empty")
	ErrInvalidDebounce = errors.New("watch.debounce must not be negative")
	ErrInvalidRetry    = errors.New("retry.attempts must be positive")
)

type Config struct {
	Port string `mapstructure:"port"`

	// Auth
	APIKey string `mapstructure:"api_key"`

	// Worker pool
	WorkerCount  int `mapstructure:"worker_count"`
	MaxQueueSize int `mapstructure:"max_queue_size"`

	// Upload limits
	MaxUploadBytes int64 `mapstructure:"max_upload_bytes"`

	// Job state
	JobTTL    time.Duration `mapstructure:"job_ttl"`
	CacheSize int           `mapstructure:"cache_size"` // 0 disables the result cache

	InputPath string `mapstructure:"input_path"`

	Watch WatchConfig `mapstructure:"watch"`
	Retry RetryConfig `mapstructure:"retry"`
}

type WatchConfig struct {
	Include  string        `mapstructure:"include"`
	Debounce time.Duration `mapstructure:"debounce"`
}

// RetryConfig bounds re-parsing of a file that is still being written.
type RetryConfig struct {
	Attempts uint          `mapstructure:"attempts"`
	Delay    time.Duration `mapstructure:"delay"`
}

func Default() Config {
	return Config{
		Port:           "8090",
		WorkerCount:    4,
		MaxQueueSize:   100,
		MaxUploadBytes: 52428800, // 50MB
		JobTTL:         time.Hour,
		CacheSize:      256,
		InputPath:      DefaultInputPath,
		Watch: WatchConfig{
			Include:  "**/*.xml",
			Debounce: 500 * time.Millisecond,
		},
		Retry: RetryConfig{
			Attempts: 5,
			Delay:    200 * time.Millisecond,
		},
	}
}

// Load reads configuration with the priority env > file > defaults. With an
// empty path, smeta.yaml is looked up in the working directory and in
// $HOME/.smeta; a missing file is not an error. An explicit path must exist.
func Load(path string) (Config, error) {
	v := viper.New()

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("smeta")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".smeta"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("port", d.Port)
	v.SetDefault("api_key", d.APIKey)
	v.SetDefault("worker_count", d.WorkerCount)
	v.SetDefault("max_queue_size", d.MaxQueueSize)
	v.SetDefault("max_upload_bytes", d.MaxUploadBytes)
	v.SetDefault("job_ttl", d.JobTTL)
	v.SetDefault("cache_size", d.CacheSize)
	v.SetDefault("input_path", d.InputPath)
	v.SetDefault("watch.include", d.Watch.Include)
	v.SetDefault("watch.debounce", d.Watch.Debounce)
	v.SetDefault("retry.attempts", d.Retry.Attempts)
	v.SetDefault("retry.delay", d.Retry.Delay)
}

// Validate checks the settings shared by the CLI and the server.
func (c Config) Validate() error {
	var errs []error
	if c.WorkerCount <= 0 {
		errs = append(errs, ErrInvalidWorkers)
	}
	if c.MaxQueueSize <= 0 {
		errs = append(errs, ErrInvalidQueue)
	}
	if c.MaxUploadBytes <= 0 {
		errs = append(errs, ErrInvalidUpload)
	}
	if c.JobTTL <= 0 {
		errs = append(errs, ErrInvalidTTL)
	}
	if c.CacheSize < 0 {
		errs = append(errs, ErrInvalidCache)
	}
	if strings.TrimSpace(c.Watch.Include) == "" {
		errs = append(errs, ErrInvalidInclude)
	}
	if c.Watch.Debounce < 0 {
		errs = append(errs, ErrInvalidDebounce)
	}
	if c.Retry.Attempts == 0 {
		errs = append(errs, ErrInvalidRetry)
	}
	return errors.Join(errs...)
}

// ValidateServer also requires the API key guarding /api.
func (c Config) ValidateServer() error {
	err := c.Validate()
	if c.APIKey == "" {
		err = errors.Join(err, ErrAPIKeyRequired)
	}
	return err
}
