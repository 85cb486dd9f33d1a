// Package config loads service settings from an optional YAML file, B2G_*
// environment variables and command-line flags, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const EnvPrefix = "B2G"

type Config struct {
	Addr            string          `mapstructure:"addr"`
	ShutdownTimeout time.Duration   `mapstructure:"shutdown_timeout"`
	Log             LogConfig       `mapstructure:"log"`
	DB              DBConfig        `mapstructure:"db"`
	Valuation       ValuationConfig `mapstructure:"valuation"`
	PDF             PDFConfig       `mapstructure:"pdf"`
	Telemetry       TelemetryConfig `mapstructure:"telemetry"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

type DBConfig struct {
	Driver string `mapstructure:"driver"` // sqlite or pgx
	DSN    string `mapstructure:"dsn"`
}

type ValuationConfig struct {
	StageDelay time.Duration `mapstructure:"stage_delay"`
	Model      string        `mapstructure:"model"`
	MaxTokens  int64         `mapstructure:"max_tokens"`
	Timeout    time.Duration `mapstructure:"timeout"`
	MaxRuns    int           `mapstructure:"max_runs"`
}

type PDFConfig struct {
	ChromePath string `mapstructure:"chrome_path"`
}

type TelemetryConfig struct {
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
	ServiceName  string `mapstructure:"service_name"`
}

// SetDefaults registers every key so AutomaticEnv can resolve it even when no
// config file mentions it.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("addr", ":8080")
	v.SetDefault("shutdown_timeout", 10*time.Second)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)
	v.SetDefault("db.driver", "sqlite")
	v.SetDefault("db.dsn", "b2g.db")
	v.SetDefault("valuation.stage_delay", 600*time.Millisecond)
	v.SetDefault("valuation.model", "")
	v.SetDefault("valuation.max_tokens", 8192)
	v.SetDefault("valuation.timeout", 90*time.Second)
	v.SetDefault("valuation.max_runs", 200)
	v.SetDefault("pdf.chrome_path", "")
	v.SetDefault("telemetry.otlp_endpoint", "")
	v.SetDefault("telemetry.service_name", "b2g-site")
}

// New returns a viper instance wired for B2G_ env overrides.
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	SetDefaults(v)
	return v
}

// Load reads the optional config file into v and decodes the result.
func Load(v *viper.Viper, path string) (Config, error) {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Addr) == "" {
		errs = append(errs, errors.New("addr is required"))
	}
	switch c.DB.Driver {
	case "sqlite", "pgx":
	default:
		errs = append(errs, fmt.Errorf("db.driver must be sqlite or pgx, got %q", c.DB.Driver))
	}
	if strings.TrimSpace(c.DB.DSN) == "" {
		errs = append(errs, errors.New("db.dsn is required"))
	}
	if c.Valuation.StageDelay < 0 {
		errs = append(errs, errors.New("valuation.stage_delay must not be negative"))
	}
	if c.Valuation.MaxRuns <= 0 {
		errs = append(errs, errors.New("valuation.max_runs must be positive"))
	}
	return errors.Join(errs...)
}
