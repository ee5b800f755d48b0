package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Server   ServerConfig   `mapstructure:"server"`
	Upstream UpstreamConfig `mapstructure:"upstream"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Tracing  TracingConfig  `mapstructure:"tracing"`
}

// AppConfig holds service identity settings
type AppConfig struct {
	Name  string `mapstructure:"name" validate:"required"`
	Debug bool   `mapstructure:"debug"` // Forces debug logging and gin debug mode
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host        string   `mapstructure:"host"`
	Port        int      `mapstructure:"port" validate:"gt=0,lte=65535"`
	StaticDir   string   `mapstructure:"static_dir"` // Built SPA; empty disables static serving
	CORSOrigins []string `mapstructure:"cors_origins"`
}

// UpstreamConfig holds the gateway and billing endpoints and the outbound client settings
type UpstreamConfig struct {
	GatewayURL    string        `mapstructure:"gateway_url" validate:"required,url"`
	BillingURL    string        `mapstructure:"billing_url" validate:"required,url"`
	Timeout       time.Duration `mapstructure:"timeout" validate:"gt=0"`
	CallerService string        `mapstructure:"caller_service" validate:"required"`
	RateLimit     float64       `mapstructure:"rate_limit" validate:"gte=0"` // Requests per second, 0 = unlimited
	RateBurst     int           `mapstructure:"rate_burst" validate:"gte=0"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format" validate:"oneof=json text"`
}

// TracingConfig holds OpenTelemetry configuration
type TracingConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	Endpoint    string  `mapstructure:"endpoint"` // OTLP/HTTP collector host:port; empty writes spans to stdout
	Insecure    bool    `mapstructure:"insecure"`
	SampleRatio float64 `mapstructure:"sample_ratio" validate:"gte=0,lte=1"`
}

// Address returns the listen address of the HTTP server
func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// EffectiveLogLevel returns the configured log level, or "debug" when debug mode is on
func (c *Config) EffectiveLogLevel() string {
	if c.App.Debug {
		return "debug"
	}
	return c.Logging.Level
}

// Load loads configuration from file and environment
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			// Config file is optional
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	return unmarshal(v)
}

// LoadFromEnv loads configuration primarily from environment variables
func LoadFromEnv() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	// Read from .env file if it exists
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // Ignore error if .env doesn't exist

	return unmarshal(v)
}

func unmarshal(v *viper.Viper) (*Config, error) {
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	bindEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "AgentBoard Dashboard Service")
	v.SetDefault("app.debug", false)

	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8003)
	v.SetDefault("server.static_dir", "./static")
	v.SetDefault("server.cors_origins", []string{"*"})

	// Upstream defaults
	v.SetDefault("upstream.gateway_url", "http://api-core:8001")
	v.SetDefault("upstream.billing_url", "http://billing-service:8002")
	v.SetDefault("upstream.timeout", 30*time.Second)
	v.SetDefault("upstream.caller_service", "dashboard-service")
	v.SetDefault("upstream.rate_limit", 0)
	v.SetDefault("upstream.rate_burst", 10)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	// Tracing defaults
	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.endpoint", "")
	v.SetDefault("tracing.insecure", false)
	v.SetDefault("tracing.sample_ratio", 1.0)
}

func bindEnvVars(v *viper.Viper) {
	// Helper to bind and log errors (BindEnv errors are non-fatal but should be logged)
	bindEnv := func(key string, envVar string) {
		if err := v.BindEnv(key, envVar); err != nil {
			slog.Warn("failed to bind environment variable",
				slog.String("key", key),
				slog.String("env_var", envVar),
				slog.String("error", err.Error()))
		}
		// A .env file is read under the raw variable name; lift it onto the key.
		// The process environment still wins through the binding above.
		if fileKey := strings.ToLower(envVar); v.InConfig(fileKey) {
			v.SetDefault(key, v.Get(fileKey))
		}
	}

	bindEnv("app.name", "DASHBOARD_APP_NAME")
	bindEnv("app.debug", "DASHBOARD_DEBUG")

	// Upstreams
	bindEnv("upstream.gateway_url", "DASHBOARD_GATEWAY_URL")
	bindEnv("upstream.billing_url", "DASHBOARD_BILLING_URL")
	bindEnv("upstream.timeout", "DASHBOARD_UPSTREAM_TIMEOUT")
	bindEnv("upstream.rate_limit", "DASHBOARD_UPSTREAM_RATE_LIMIT")
	bindEnv("upstream.rate_burst", "DASHBOARD_UPSTREAM_RATE_BURST")

	// Server config
	bindEnv("server.host", "SERVER_HOST")
	bindEnv("server.port", "SERVER_PORT")
	bindEnv("server.static_dir", "DASHBOARD_STATIC_DIR")
	bindEnv("server.cors_origins", "DASHBOARD_CORS_ORIGINS")

	// Logging
	bindEnv("logging.level", "LOG_LEVEL")
	bindEnv("logging.format", "LOG_FORMAT")

	// Tracing
	bindEnv("tracing.enabled", "OTEL_ENABLED")
	bindEnv("tracing.endpoint", "OTEL_EXPORTER_OTLP_ENDPOINT")
	bindEnv("tracing.insecure", "OTEL_EXPORTER_OTLP_INSECURE")
	bindEnv("tracing.sample_ratio", "OTEL_SAMPLER_RATIO")
}

var validate = validator.New()

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed on '%s'", fe.Namespace(), fe.Tag()))
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
}
