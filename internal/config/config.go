// Package config loads and validates the application configuration.
package config

import (
	"fmt"
	"strings"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Grading  GradingConfig  `mapstructure:"grading"`
	Mastery  MasteryConfig  `mapstructure:"mastery"`
	Arbiter  ArbiterConfig  `mapstructure:"arbiter"`
	Queue    QueueConfig    `mapstructure:"queue"`
}

type DatabaseConfig struct {
	Host            string            `mapstructure:"host" validate:"required"`
	Port            int               `mapstructure:"port" validate:"gt=0"`
	Database        string            `mapstructure:"database" validate:"required"`
	Username        string            `mapstructure:"username" validate:"required"`
	Password        string            `mapstructure:"password"`
	TLS             bool              `mapstructure:"tls"`
	Params          map[string]string `mapstructure:"params"`
	MaxOpenConns    int               `mapstructure:"max_open_conns"`
	MaxIdleConns    int               `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int               `mapstructure:"conn_max_lifetime_seconds"`
}

type GradingConfig struct {
	PerfectThreshold   float64 `mapstructure:"perfect_threshold" validate:"gt=0,lte=1,gtefield=GoodThreshold"`
	GoodThreshold      float64 `mapstructure:"good_threshold" validate:"gt=0,lte=1"`
	EscalateBorderline bool    `mapstructure:"escalate_borderline"`
}

type MasteryConfig struct {
	ConsecutiveGrades int     `mapstructure:"consecutive_grades" validate:"gte=1"`
	MinEaseFactor     float64 `mapstructure:"min_ease_factor" validate:"gte=1.3"`
	MinIntervalDays   int     `mapstructure:"min_interval_days" validate:"gte=1"`
}

type ArbiterConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	BaseURL        string `mapstructure:"base_url" validate:"omitempty,url"`
	Model          string `mapstructure:"model"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds" validate:"gt=0"`
	RetryAttempts  int    `mapstructure:"retry_attempts" validate:"gte=1"`
}

// Timeout is the arbiter call budget as a duration.
func (c ArbiterConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

type QueueConfig struct {
	Randomize         bool `mapstructure:"randomize"`
	GroupBySourceText bool `mapstructure:"group_by_source_text"`
}

type ConfigLoader struct {
	viper      *viper.Viper
	validator  *validator.Validate
	translator ut.Translator
}

func NewConfigLoader(configFile string) (*ConfigLoader, error) {
	validate, trans, err := newValidator()
	if err != nil {
		return nil, fmt.Errorf("failed to create new validator: %w", err)
	}

	v := viper.New()
	v.SetConfigType("yaml")
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/memcoach")
	}

	return &ConfigLoader{
		viper:      v,
		validator:  validate,
		translator: trans,
	}, nil
}

func (loader *ConfigLoader) Load() (*Config, error) {
	v := loader.viper

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 3306)
	v.SetDefault("database.database", "memcoach")
	v.SetDefault("database.username", "memcoach")
	v.SetDefault("grading.perfect_threshold", 0.98)
	v.SetDefault("grading.good_threshold", 0.85)
	v.SetDefault("grading.escalate_borderline", true)
	v.SetDefault("mastery.consecutive_grades", 3)
	v.SetDefault("mastery.min_ease_factor", 2.5)
	v.SetDefault("mastery.min_interval_days", 7)
	v.SetDefault("arbiter.enabled", false)
	v.SetDefault("arbiter.base_url", "http://localhost:11434")
	v.SetDefault("arbiter.model", "llama3.2")
	v.SetDefault("arbiter.timeout_seconds", 15)
	v.SetDefault("arbiter.retry_attempts", 2)
	v.SetDefault("queue.randomize", true)
	v.SetDefault("queue.group_by_source_text", false)

	// Secrets come from the environment only, never the config file.
	if err := v.BindEnv("database.password", "DB_PASSWORD"); err != nil {
		return nil, fmt.Errorf("failed to bind DB_PASSWORD environment variable: %w", err)
	}
	if err := v.BindEnv("arbiter.base_url", "OLLAMA_BASE_URL"); err != nil {
		return nil, fmt.Errorf("failed to bind OLLAMA_BASE_URL environment variable: %w", err)
	}
	if err := v.BindEnv("arbiter.model", "OLLAMA_MODEL"); err != nil {
		return nil, fmt.Errorf("failed to bind OLLAMA_MODEL environment variable: %w", err)
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("configuration file found but could not be read: %w. Please check the file format and permissions", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration format: %w", err)
	}

	if err := loader.validator.Struct(cfg); err != nil {
		validationErrors := err.(validator.ValidationErrors)
		var errorMsgs []string
		for _, e := range validationErrors {
			errorMsgs = append(errorMsgs, e.Translate(loader.translator))
		}
		return nil, fmt.Errorf("invalid configuration: %s", strings.Join(errorMsgs, ", "))
	}

	return &cfg, nil
}
