package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

type Config struct {
	Server         ServerConfig         `mapstructure:"server"`
	Dataset        DatasetConfig        `mapstructure:"dataset"`
	Redis          RedisConfig          `mapstructure:"redis"`
	Kafka          KafkaConfig          `mapstructure:"kafka"`
	Auth           AuthConfig           `mapstructure:"auth"`
	Logging        LoggingConfig        `mapstructure:"logging"`
	Recommendation RecommendationConfig `mapstructure:"recommendation"`
	Weather        WeatherConfig        `mapstructure:"weather"`
	LLM            LLMConfig            `mapstructure:"llm"`
	Security       SecurityConfig       `mapstructure:"security"`
}

type ServerConfig struct {
	Port string `mapstructure:"port" validate:"required"`
	Mode string `mapstructure:"mode" validate:"oneof=development production test"`
}

type DatasetConfig struct {
	Source string `mapstructure:"source" validate:"oneof=csv postgres"`
	Path   string `mapstructure:"path"`
	URL    string `mapstructure:"url"`
}

type RedisConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	URL      string        `mapstructure:"url"`
	PoolSize int           `mapstructure:"pool_size"`
	Timeout  time.Duration `mapstructure:"timeout"`
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

type KafkaConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

type AuthConfig struct {
	SessionSecret string        `mapstructure:"session_secret" validate:"required"`
	SessionTTL    time.Duration `mapstructure:"session_ttl" validate:"gt=0"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=text json"`
}

type RecommendationConfig struct {
	MaxTerms          int     `mapstructure:"max_terms" validate:"gt=0"`
	SuggestionCount   int     `mapstructure:"suggestion_count" validate:"gt=0"`
	ExplorationPolicy string  `mapstructure:"exploration_policy" validate:"oneof=fixed-rate adaptive"`
	ExplorationRate   float64 `mapstructure:"exploration_rate" validate:"gte=0,lte=1"`
	TopTargetGroups   int     `mapstructure:"top_target_groups" validate:"gt=0"`
	Seed              int64   `mapstructure:"seed"`
}

type WeatherConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	APIKey  string        `mapstructure:"api_key"`
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type LLMConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Endpoint string        `mapstructure:"endpoint"`
	APIKey   string        `mapstructure:"api_key"`
	Model    string        `mapstructure:"model"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

type SecurityConfig struct {
	CORS CORSConfig `mapstructure:"cors"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	AllowedMethods []string `mapstructure:"allowed_methods"`
	AllowedHeaders []string `mapstructure:"allowed_headers"`
}

func Load() (*Config, error) {
	viper.SetConfigName("app")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./config")
	viper.AddConfigPath(".")

	setDefaults()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		// Config file is optional, continue with env vars and defaults
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	if err := validator.New().Struct(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	// Server defaults
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.mode", "development")

	// Dataset defaults
	viper.SetDefault("dataset.source", "csv")
	viper.SetDefault("dataset.path", "./data/activities.csv")

	// Redis defaults
	viper.SetDefault("redis.enabled", false)
	viper.SetDefault("redis.url", "redis://localhost:6379/0")
	viper.SetDefault("redis.pool_size", 10)
	viper.SetDefault("redis.timeout", "5s")
	viper.SetDefault("redis.cache_ttl", "15m")

	// Kafka defaults
	viper.SetDefault("kafka.enabled", false)
	viper.SetDefault("kafka.brokers", []string{"localhost:9092"})
	viper.SetDefault("kafka.topic", "rating-events")

	// Auth defaults
	viper.SetDefault("auth.session_secret", "development-secret-change-me")
	viper.SetDefault("auth.session_ttl", "24h")

	// Logging defaults
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "text")

	// Recommendation defaults
	viper.SetDefault("recommendation.max_terms", 500)
	viper.SetDefault("recommendation.suggestion_count", 5)
	viper.SetDefault("recommendation.exploration_policy", "adaptive")
	viper.SetDefault("recommendation.exploration_rate", 0.15)
	viper.SetDefault("recommendation.top_target_groups", 3)
	viper.SetDefault("recommendation.seed", 0)

	// Weather defaults
	viper.SetDefault("weather.enabled", false)
	viper.SetDefault("weather.base_url", "https://api.openweathermap.org/data/2.5")
	viper.SetDefault("weather.timeout", "10s")

	// LLM defaults
	viper.SetDefault("llm.enabled", false)
	viper.SetDefault("llm.model", "gpt-4o-mini")
	viper.SetDefault("llm.timeout", "20s")

	// Security defaults
	viper.SetDefault("security.cors.allowed_origins", []string{"*"})
	viper.SetDefault("security.cors.allowed_methods", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"})
	viper.SetDefault("security.cors.allowed_headers", []string{"*"})
}
