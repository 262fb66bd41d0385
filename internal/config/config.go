package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration
type Config struct {
	Paths     PathsConfig     `yaml:"paths" envconfig:"PATHS"`
	Output    OutputConfig    `yaml:"output" envconfig:"OUTPUT"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
}

// PathsConfig contains file system paths configuration
type PathsConfig struct {
	DataDir     string `yaml:"data_dir" envconfig:"DATA_DIR" default:"." validate:"required"`
	OutputDir   string `yaml:"output_dir" envconfig:"OUTPUT_DIR" default:"processed_data" validate:"required"`
	LogsDir     string `yaml:"logs_dir" envconfig:"LOGS_DIR" default:"logs"`
	SourcesFile string `yaml:"sources_file" envconfig:"SOURCES_FILE"`
}

// OutputConfig controls which sinks receive the extracted series
type OutputConfig struct {
	BOMPrefix    bool   `yaml:"bom_prefix" envconfig:"BOM_PREFIX" default:"false"`
	SQLitePath   string `yaml:"sqlite_path" envconfig:"SQLITE_PATH"`
	ManifestFile string `yaml:"manifest_file" envconfig:"MANIFEST_FILE" default:"run_manifest.json"`
	Workbook     bool   `yaml:"workbook" envconfig:"WORKBOOK" default:"false"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" default:"info" validate:"oneof=debug info warn warning error"`
	Format   string `yaml:"format" envconfig:"FORMAT" default:"json" validate:"oneof=json text"`
	Output   string `yaml:"output" envconfig:"OUTPUT" default:"file" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" default:"logs/mc3data.log"`
}

// TelemetryConfig contains OpenTelemetry configuration
type TelemetryConfig struct {
	EnableTracing bool    `yaml:"enable_tracing" envconfig:"ENABLE_TRACING" default:"false"`
	TraceFile     string  `yaml:"trace_file" envconfig:"TRACE_FILE" default:"logs/traces.json"`
	EnableMetrics bool    `yaml:"enable_metrics" envconfig:"ENABLE_METRICS" default:"true"`
	SampleRatio   float64 `yaml:"sample_ratio" envconfig:"SAMPLE_RATIO" default:"1.0" validate:"gte=0,lte=1"`
	Environment   string  `yaml:"environment" envconfig:"ENVIRONMENT" default:"development"`
}

// ServerConfig contains HTTP server configuration for mc3server
type ServerConfig struct {
	Port            int             `yaml:"port" envconfig:"PORT" default:"8080" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration   `yaml:"read_timeout" envconfig:"READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration   `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" default:"15s"`
	IdleTimeout     time.Duration   `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration   `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`
	AllowedOrigins  []string        `yaml:"allowed_origins" envconfig:"ALLOWED_ORIGINS" default:"*"`
	RateLimit       RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig bounds the request rate of the API routes
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED" default:"true"`
	RPS     float64 `yaml:"rps" envconfig:"RPS" default:"20" validate:"gte=0"`
	Burst   int     `yaml:"burst" envconfig:"BURST" default:"40" validate:"gte=0"`
}

// Load loads configuration from environment variables and an optional
// config file. Values set in the environment take precedence.
func Load() (*Config, error) {
	return LoadFrom(getConfigFilePath())
}

// LoadFrom is Load with an explicit config file path. An empty path skips
// the file.
func LoadFrom(configFile string) (*Config, error) {
	var cfg Config

	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if configFile != "" {
		fileConfig, err := loadFromFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
		cfg = mergeConfigs(*fileConfig, cfg)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// loadFromFile loads configuration from YAML file
func loadFromFile(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// mergeConfigs overlays the file config onto env config. A field explicitly
// set in the environment wins; otherwise a non-zero file value replaces the
// envconfig default.
func mergeConfigs(fileConfig, envConfig Config) Config {
	pick := func(env string, envVal, fileVal string) string {
		if envSet(env) || fileVal == "" {
			return envVal
		}
		return fileVal
	}

	envConfig.Paths.DataDir = pick("PATHS_DATA_DIR", envConfig.Paths.DataDir, fileConfig.Paths.DataDir)
	envConfig.Paths.OutputDir = pick("PATHS_OUTPUT_DIR", envConfig.Paths.OutputDir, fileConfig.Paths.OutputDir)
	envConfig.Paths.LogsDir = pick("PATHS_LOGS_DIR", envConfig.Paths.LogsDir, fileConfig.Paths.LogsDir)
	envConfig.Paths.SourcesFile = pick("PATHS_SOURCES_FILE", envConfig.Paths.SourcesFile, fileConfig.Paths.SourcesFile)

	envConfig.Output.SQLitePath = pick("OUTPUT_SQLITE_PATH", envConfig.Output.SQLitePath, fileConfig.Output.SQLitePath)
	envConfig.Output.ManifestFile = pick("OUTPUT_MANIFEST_FILE", envConfig.Output.ManifestFile, fileConfig.Output.ManifestFile)
	if fileConfig.Output.BOMPrefix {
		envConfig.Output.BOMPrefix = true
	}
	if fileConfig.Output.Workbook {
		envConfig.Output.Workbook = true
	}

	envConfig.Logging.Level = pick("LOGGING_LEVEL", envConfig.Logging.Level, fileConfig.Logging.Level)
	envConfig.Logging.Format = pick("LOGGING_FORMAT", envConfig.Logging.Format, fileConfig.Logging.Format)
	envConfig.Logging.Output = pick("LOGGING_OUTPUT", envConfig.Logging.Output, fileConfig.Logging.Output)
	envConfig.Logging.FilePath = pick("LOGGING_FILE_PATH", envConfig.Logging.FilePath, fileConfig.Logging.FilePath)

	if fileConfig.Telemetry.EnableTracing {
		envConfig.Telemetry.EnableTracing = true
	}
	envConfig.Telemetry.TraceFile = pick("TELEMETRY_TRACE_FILE", envConfig.Telemetry.TraceFile, fileConfig.Telemetry.TraceFile)
	envConfig.Telemetry.Environment = pick("TELEMETRY_ENVIRONMENT", envConfig.Telemetry.Environment, fileConfig.Telemetry.Environment)

	if fileConfig.Server.Port != 0 && !envSet("SERVER_PORT") {
		envConfig.Server.Port = fileConfig.Server.Port
	}
	if len(fileConfig.Server.AllowedOrigins) > 0 && !envSet("SERVER_ALLOWED_ORIGINS") {
		envConfig.Server.AllowedOrigins = fileConfig.Server.AllowedOrigins
	}

	if fileConfig.Server.RateLimit.RPS > 0 && !envSet("SERVER_RATE_LIMIT_RPS") {
		envConfig.Server.RateLimit = fileConfig.Server.RateLimit
	}

	return envConfig
}

func envSet(name string) bool {
	_, ok := os.LookupEnv(EnvPrefix + "_" + name)
	return ok
}

// validate validates the configuration
func (c *Config) validate() error {
	c.Logging.Level = strings.ToLower(c.Logging.Level)
	c.Logging.Output = strings.ToLower(c.Logging.Output)

	if err := validator.New().Struct(c); err != nil {
		return err
	}

	if c.Logging.Output != "console" && c.Logging.FilePath == "" {
		c.Logging.FilePath = "logs/mc3data.log"
	}

	return nil
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	if path := os.Getenv(EnvPrefix + "_CONFIG_FILE"); path != "" {
		return path
	}

	locations := []string{
		"mc3.yaml",
		"configs/mc3.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return ""
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Paths: PathsConfig{
			DataDir:   ".",
			OutputDir: DefaultOutputDir,
			LogsDir:   DefaultLogsDir,
		},
		Output: OutputConfig{
			ManifestFile: DefaultManifestFile,
		},
		Logging: LoggingConfig{
			Level:    DefaultLogLevel,
			Format:   DefaultLogFormat,
			Output:   "file",
			FilePath: "logs/mc3data.log",
		},
		Telemetry: TelemetryConfig{
			TraceFile:     "logs/traces.json",
			EnableMetrics: true,
			SampleRatio:   1.0,
			Environment:   "development",
		},
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			AllowedOrigins:  []string{"*"},
			RateLimit:       RateLimitConfig{Enabled: true, RPS: 20, Burst: 40},
		},
	}
}
