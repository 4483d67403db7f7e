package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/irfndi/finsight-ml-go/internal/services"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Environment string          `mapstructure:"environment"`
	LogLevel    string          `mapstructure:"log_level"`
	Server      ServerConfig    `mapstructure:"server"`
	Redis       RedisConfig     `mapstructure:"redis"`
	Telemetry   TelemetryConfig `mapstructure:"telemetry"`
	Engine      EngineSection   `mapstructure:"engine"`
}

type ServerConfig struct {
	Port           int           `mapstructure:"port"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
}

type RedisConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	Host      string        `mapstructure:"host"`
	Port      int           `mapstructure:"port"`
	Password  string        `mapstructure:"password"`
	DB        int           `mapstructure:"db"`
	ResultTTL time.Duration `mapstructure:"result_ttl"`
}

// Addr returns the host:port pair for the Redis client.
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

type TelemetryConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
	ServiceName  string `mapstructure:"service_name"`
	Exporter     string `mapstructure:"exporter"`
}

// EngineSection holds the statistical engine tunables as read from config.
type EngineSection struct {
	ModelVersion           string         `mapstructure:"model_version"`
	MinTransactionsAnomaly int            `mapstructure:"min_transactions_anomaly"`
	MinTransactionsHealth  int            `mapstructure:"min_transactions_health"`
	LookbackDays           int            `mapstructure:"lookback_days"`
	ForecastHorizons       map[string]int `mapstructure:"forecast_horizons"`
	DefaultHorizon         int            `mapstructure:"default_horizon"`
	Contamination          float64        `mapstructure:"contamination"`
	Estimators             int            `mapstructure:"n_estimators"`
	RandomSeed             int64          `mapstructure:"random_seed"`
	ZScoreThreshold        float64        `mapstructure:"z_score_threshold"`
}

// EngineConfig converts the section into the engines' configuration.
func (c *Config) EngineConfig() services.EngineConfig {
	horizons := make(map[string]int, len(c.Engine.ForecastHorizons))
	for k, v := range c.Engine.ForecastHorizons {
		horizons[k] = v
	}
	return services.EngineConfig{
		ModelVersion:           c.Engine.ModelVersion,
		MinTransactionsAnomaly: c.Engine.MinTransactionsAnomaly,
		MinTransactionsHealth:  c.Engine.MinTransactionsHealth,
		LookbackDays:           c.Engine.LookbackDays,
		ForecastHorizons:       horizons,
		DefaultHorizon:         c.Engine.DefaultHorizon,
		Contamination:          c.Engine.Contamination,
		Estimators:             c.Engine.Estimators,
		RandomSeed:             c.Engine.RandomSeed,
		ZScoreThreshold:        c.Engine.ZScoreThreshold,
	}
}

// IsDevelopment reports whether the service runs in the development environment.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func Load() (*Config, error) {
	// A missing .env file is normal outside local development.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")

	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// Config file not found, use defaults and environment variables
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	config.Environment = strings.ToLower(config.Environment)

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate checks the server, cache and engine sections.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port))
	}
	if c.Redis.Enabled && c.Redis.ResultTTL <= 0 {
		errs = append(errs, fmt.Errorf("redis.result_ttl must be positive when redis is enabled, got %s", c.Redis.ResultTTL))
	}
	switch c.Telemetry.Exporter {
	case "otlp", "stdout":
	default:
		errs = append(errs, fmt.Errorf("telemetry.exporter must be otlp or stdout, got %q", c.Telemetry.Exporter))
	}
	if err := c.EngineConfig().Validate(); err != nil {
		errs = append(errs, fmt.Errorf("invalid engine config: %w", err))
	}
	return errors.Join(errs...)
}

func setDefaults(v *viper.Viper) {
	defaults := services.DefaultEngineConfig()
	horizons := make(map[string]interface{}, len(defaults.ForecastHorizons))
	for k, days := range defaults.ForecastHorizons {
		horizons[k] = days
	}

	// Environment
	v.SetDefault("environment", "development")
	v.SetDefault("log_level", "info")

	// Server
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")

	// Redis
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.result_ttl", "10m")

	// Telemetry
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.otlp_endpoint", "http://localhost:4318")
	v.SetDefault("telemetry.service_name", "finsight-ml")
	v.SetDefault("telemetry.exporter", "otlp")

	// Engine
	v.SetDefault("engine.model_version", defaults.ModelVersion)
	v.SetDefault("engine.min_transactions_anomaly", defaults.MinTransactionsAnomaly)
	v.SetDefault("engine.min_transactions_health", defaults.MinTransactionsHealth)
	v.SetDefault("engine.lookback_days", defaults.LookbackDays)
	v.SetDefault("engine.forecast_horizons", horizons)
	v.SetDefault("engine.default_horizon", defaults.DefaultHorizon)
	v.SetDefault("engine.contamination", defaults.Contamination)
	v.SetDefault("engine.n_estimators", defaults.Estimators)
	v.SetDefault("engine.random_seed", defaults.RandomSeed)
	v.SetDefault("engine.z_score_threshold", defaults.ZScoreThreshold)
}
