package config

import (
	"errors"
	"fmt"
	"io/fs"
	"slices"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:",squash"`
	Data     DataConfig     `mapstructure:",squash"`
	Logger   LoggerConfig   `mapstructure:",squash"`
	Security SecurityConfig `mapstructure:",squash"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"server_host"`
	Port            int           `mapstructure:"server_port"`
	ReadTimeout     time.Duration `mapstructure:"server_read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"server_write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"server_idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"server_shutdown_timeout"`
}

type DataConfig struct {
	CSVFile     string        `mapstructure:"csv_file"`
	LoadTimeout time.Duration `mapstructure:"csv_load_timeout"`
}

type LoggerConfig struct {
	Level  string `mapstructure:"log_level"`
	Format string `mapstructure:"log_format"`
}

type SecurityConfig struct {
	EnableRateLimit bool     `mapstructure:"security_rate_limit_enabled"`
	RateLimitRPS    int      `mapstructure:"security_rate_limit_rps"`
	RateLimitBurst  int      `mapstructure:"security_rate_limit_burst"`
	AllowedOrigins  []string `mapstructure:"security_allowed_origins"`
	TrustedProxies  []string `mapstructure:"security_trusted_proxies"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_HOST", "localhost")
	v.SetDefault("SERVER_PORT", 8084)
	v.SetDefault("SERVER_READ_TIMEOUT", 10*time.Second)
	v.SetDefault("SERVER_WRITE_TIMEOUT", 10*time.Second)
	v.SetDefault("SERVER_IDLE_TIMEOUT", 60*time.Second)
	v.SetDefault("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second)

	v.SetDefault("CSV_FILE", "Coffee Shop Sales.csv")
	v.SetDefault("CSV_LOAD_TIMEOUT", 30*time.Second)

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("SECURITY_RATE_LIMIT_ENABLED", true)
	v.SetDefault("SECURITY_RATE_LIMIT_RPS", 100)
	v.SetDefault("SECURITY_RATE_LIMIT_BURST", 10)
	v.SetDefault("SECURITY_ALLOWED_ORIGINS", []string{"http://localhost:8084"})
	v.SetDefault("SECURITY_TRUSTED_PROXIES", []string{"127.0.0.1"})
}

// Load reads defaults, then the given .env files (missing files are
// skipped), then the process environment.
func Load(envFiles ...string) (*Config, error) {
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server port must be between 1 and 65535, got %d", c.Server.Port)
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server read timeout must be positive")
	}

	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server write timeout must be positive")
	}

	if c.Data.CSVFile == "" {
		return fmt.Errorf("CSV file path cannot be empty")
	}

	if c.Data.LoadTimeout <= 0 {
		return fmt.Errorf("CSV load timeout must be positive")
	}

	validLogLevels := []string{"debug", "info", "warn", "error"}
	if !slices.Contains(validLogLevels, c.Logger.Level) {
		return fmt.Errorf("invalid log level %q, must be one of: %s", c.Logger.Level, strings.Join(validLogLevels, ", "))
	}

	validLogFormats := []string{"json", "text"}
	if !slices.Contains(validLogFormats, c.Logger.Format) {
		return fmt.Errorf("invalid log format %q, must be one of: %s", c.Logger.Format, strings.Join(validLogFormats, ", "))
	}

	if c.Security.RateLimitRPS <= 0 {
		return fmt.Errorf("rate limit RPS must be positive")
	}

	if c.Security.RateLimitBurst <= 0 {
		return fmt.Errorf("rate limit burst must be positive")
	}

	return nil
}

func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
