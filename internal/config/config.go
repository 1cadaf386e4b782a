// Package config loads and validates the agentcore-cli configuration
// from file, environment, and flags via viper.
package config

import (
	"fmt"
	"path/filepath"
	"time"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// Config is the full application configuration.
type Config struct {
	Logger       LoggerConfig       `mapstructure:"logger" yaml:"logger"`
	ControlPlane ControlPlaneConfig `mapstructure:"control_plane" yaml:"control_plane"`
	DataPlane    DataPlaneConfig    `mapstructure:"data_plane" yaml:"data_plane"`
	Runtime      RuntimeConfig      `mapstructure:"runtime" yaml:"runtime"`
	Browser      BrowserConfig      `mapstructure:"browser" yaml:"browser"`
	Interpreter  InterpreterConfig  `mapstructure:"interpreter" yaml:"interpreter"`
	Batch        BatchConfig        `mapstructure:"batch" yaml:"batch"`
	Database     DatabaseConfig     `mapstructure:"database" yaml:"database"`
	Agent        AgentConfig        `mapstructure:"agent" yaml:"agent"`
	Serve        ServeConfig        `mapstructure:"serve" yaml:"serve"`
}

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig defines the console colors for each log level.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// ControlPlaneConfig addresses the resource management API.
type ControlPlaneConfig struct {
	Endpoint        string        `mapstructure:"endpoint" yaml:"endpoint"`
	Region          string        `mapstructure:"region" yaml:"region"`
	BearerToken     string        `mapstructure:"bearer_token" yaml:"-"`
	APITimeout      time.Duration `mapstructure:"api_timeout" yaml:"api_timeout"`
	RetryMaxElapsed time.Duration `mapstructure:"retry_max_elapsed" yaml:"retry_max_elapsed"`
	RetryMaxWait    time.Duration `mapstructure:"retry_max_wait" yaml:"retry_max_wait"`
}

// DataPlaneConfig addresses the invocation/session API.
type DataPlaneConfig struct {
	Endpoint        string        `mapstructure:"endpoint" yaml:"endpoint"`
	Region          string        `mapstructure:"region" yaml:"region"`
	BearerToken     string        `mapstructure:"bearer_token" yaml:"-"`
	APITimeout      time.Duration `mapstructure:"api_timeout" yaml:"api_timeout"`
	RetryMaxElapsed time.Duration `mapstructure:"retry_max_elapsed" yaml:"retry_max_elapsed"`
	RetryMaxWait    time.Duration `mapstructure:"retry_max_wait" yaml:"retry_max_wait"`
}

// RuntimeConfig tunes agent runtime invocations.
type RuntimeConfig struct {
	DefaultQualifier string        `mapstructure:"default_qualifier" yaml:"default_qualifier"`
	StreamTimeout    time.Duration `mapstructure:"stream_timeout" yaml:"stream_timeout"`
}

// BrowserConfig tunes browser sandbox sessions and CDP automation.
type BrowserConfig struct {
	Identifier        string        `mapstructure:"identifier" yaml:"identifier"`
	SessionTimeout    time.Duration `mapstructure:"session_timeout" yaml:"session_timeout"`
	NavigationTimeout time.Duration `mapstructure:"navigation_timeout" yaml:"navigation_timeout"`
	ScreenshotQuality int           `mapstructure:"screenshot_quality" yaml:"screenshot_quality"`
}

// InterpreterConfig tunes code-interpreter sessions.
type InterpreterConfig struct {
	Identifier     string        `mapstructure:"identifier" yaml:"identifier"`
	SessionName    string        `mapstructure:"session_name" yaml:"session_name"`
	SessionTimeout time.Duration `mapstructure:"session_timeout" yaml:"session_timeout"`
}

// BatchConfig tunes the concurrent prompt batch runner.
type BatchConfig struct {
	Concurrency   int     `mapstructure:"concurrency" yaml:"concurrency"`
	RatePerSecond float64 `mapstructure:"rate_per_second" yaml:"rate_per_second"`
}

// DatabaseConfig enables the optional invocation audit store.
type DatabaseConfig struct {
	URL string `mapstructure:"url" yaml:"url"`
}

// AgentProvider selects the local agent backing the emulator.
type AgentProvider string

const (
	ProviderEcho   AgentProvider = "echo"
	ProviderGemini AgentProvider = "gemini"
)

// AgentConfig configures the local agent used by `agentcore serve`.
type AgentConfig struct {
	Provider    AgentProvider `mapstructure:"provider" yaml:"provider"`
	Model       string        `mapstructure:"model" yaml:"model"`
	APIKey      string        `mapstructure:"api_key" yaml:"-"`
	Temperature float32       `mapstructure:"temperature" yaml:"temperature"`
	MaxTokens   int           `mapstructure:"max_tokens" yaml:"max_tokens"`
	APITimeout  time.Duration `mapstructure:"api_timeout" yaml:"api_timeout"`
}

// ServeConfig configures the local runtime emulator.
type ServeConfig struct {
	Host        string        `mapstructure:"host" yaml:"host"`
	Port        int           `mapstructure:"port" yaml:"port"`
	AuthSecret  string        `mapstructure:"auth_secret" yaml:"-"`
	AuthIssuer  string        `mapstructure:"auth_issuer" yaml:"auth_issuer"`
	TokenTTL    time.Duration `mapstructure:"token_ttl" yaml:"token_ttl"`
	ReadTimeout time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`
}

// Addr returns the listen address of the emulator.
func (s ServeConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DefaultConfigDir resolves ~/.agentcore, the fallback location for
// config.yaml and the rotated log file.
func DefaultConfigDir() (string, error) {
	home, err := homedir.Dir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, ".agentcore"), nil
}

// SetDefaults seeds viper with the default value of every key.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "agentcore")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 50)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age", 14)
	v.SetDefault("logger.compress", true)
	v.SetDefault("logger.colors.debug", "cyan")
	v.SetDefault("logger.colors.info", "green")
	v.SetDefault("logger.colors.warn", "yellow")
	v.SetDefault("logger.colors.error", "red")
	v.SetDefault("logger.colors.fatal", "magenta")

	// -- Control plane --
	v.SetDefault("control_plane.region", "us-west-2")
	v.SetDefault("control_plane.api_timeout", "30s")
	v.SetDefault("control_plane.retry_max_elapsed", "2m")
	v.SetDefault("control_plane.retry_max_wait", "20s")

	// -- Data plane --
	v.SetDefault("data_plane.region", "us-west-2")
	v.SetDefault("data_plane.api_timeout", "60s")
	v.SetDefault("data_plane.retry_max_elapsed", "1m")
	v.SetDefault("data_plane.retry_max_wait", "10s")

	// -- Runtime --
	v.SetDefault("runtime.default_qualifier", "DEFAULT")
	v.SetDefault("runtime.stream_timeout", "5m")

	// -- Browser --
	v.SetDefault("browser.identifier", "aws.browser.v1")
	v.SetDefault("browser.session_timeout", "15m")
	v.SetDefault("browser.navigation_timeout", "90s")
	v.SetDefault("browser.screenshot_quality", 90)

	// -- Interpreter --
	v.SetDefault("interpreter.identifier", "aws.codeinterpreter.v1")
	v.SetDefault("interpreter.session_name", "agentcore-cli-session")
	v.SetDefault("interpreter.session_timeout", "15m")

	// -- Batch --
	v.SetDefault("batch.concurrency", 4)
	v.SetDefault("batch.rate_per_second", 2.0)

	// -- Agent --
	v.SetDefault("agent.provider", "echo")
	v.SetDefault("agent.model", "gemini-2.5-flash")
	v.SetDefault("agent.temperature", 0.2)
	v.SetDefault("agent.max_tokens", 4096)
	v.SetDefault("agent.api_timeout", "2m")

	// -- Serve --
	v.SetDefault("serve.host", "127.0.0.1")
	v.SetDefault("serve.port", 8080)
	v.SetDefault("serve.auth_issuer", "agentcore-local")
	v.SetDefault("serve.token_ttl", "1h")
	v.SetDefault("serve.read_timeout", "30s")
}

// NewDefaultConfig returns a Config populated with the defaults only.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// NewConfigFromViper builds and validates a Config from a viper
// instance that has already read file, env, and flag sources.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	// Sensitive values come from the environment, never the file.
	v.BindEnv("control_plane.bearer_token", "AGENTCORE_BEARER_TOKEN")
	v.BindEnv("data_plane.bearer_token", "AGENTCORE_BEARER_TOKEN")
	v.BindEnv("agent.api_key", "AGENTCORE_GEMINI_API_KEY")
	v.BindEnv("serve.auth_secret", "AGENTCORE_SERVE_SECRET")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for sane values.
func (c *Config) Validate() error {
	if c.Batch.Concurrency <= 0 {
		return fmt.Errorf("batch.concurrency must be a positive integer")
	}
	if c.Batch.RatePerSecond <= 0 {
		return fmt.Errorf("batch.rate_per_second must be positive")
	}
	if c.Browser.ScreenshotQuality < 1 || c.Browser.ScreenshotQuality > 100 {
		return fmt.Errorf("browser.screenshot_quality must be in [1,100]")
	}
	switch c.Agent.Provider {
	case ProviderEcho, ProviderGemini:
	default:
		return fmt.Errorf("agent.provider must be one of [%s, %s], got %q",
			ProviderEcho, ProviderGemini, c.Agent.Provider)
	}
	if c.Agent.Provider == ProviderGemini && c.Agent.Model == "" {
		return fmt.Errorf("agent.model is required for the gemini provider")
	}
	if c.Serve.Port <= 0 || c.Serve.Port > 65535 {
		return fmt.Errorf("serve.port must be a valid TCP port")
	}
	return nil
}
