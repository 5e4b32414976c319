package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server struct {
		Port            string
		ShutdownTimeout time.Duration
		TrustedProxies  []string
	}
	Log struct {
		Level  string
		Format string
	}
	OpenAI struct {
		APIKey        string
		BaseURL       string
		Organization  string
		Project       string
		Model         string
		VectorStoreID string
		MaxNumResults int
		Instructions  string
		Timeout       time.Duration
		MaxRetries    int
	}
	Chat struct {
		MaxQueryLength int
	}
	RateLimit struct {
		Enabled   bool
		PerMinute int
		Burst     int
	}
	Database struct {
		URL string
	}
	Redis struct {
		URL string
	}
	Cache struct {
		Enabled bool
		TTL     time.Duration
	}
	Seed struct {
		URLs      []string
		UserAgent string
	}
}

// Load reads config.yaml (optional) and the environment. Nested keys map to
// env vars with dots replaced by underscores, e.g. openai.model -> OPENAI_MODEL.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// variable names used by existing deployments
	_ = v.BindEnv("server.port", "PORT", "SERVER_PORT")
	_ = v.BindEnv("openai.vector_store_id", "VECTOR_STORE_ID", "OPENAI_VECTOR_STORE_ID")
	_ = v.BindEnv("database.url", "DATABASE_URL")
	_ = v.BindEnv("redis.url", "REDIS_URL")
	_ = v.BindEnv("log.level", "LOG_LEVEL")
	_ = v.BindEnv("log.format", "LOG_FORMAT")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config

	config.Server.Port = v.GetString("server.port")
	config.Server.ShutdownTimeout = v.GetDuration("server.shutdown_timeout")
	config.Server.TrustedProxies = splitList(v.GetStringSlice("server.trusted_proxies"))
	config.Log.Level = v.GetString("log.level")
	config.Log.Format = v.GetString("log.format")

	config.OpenAI.APIKey = v.GetString("openai.api_key")
	config.OpenAI.BaseURL = strings.TrimRight(v.GetString("openai.base_url"), "/")
	config.OpenAI.Organization = v.GetString("openai.organization")
	config.OpenAI.Project = v.GetString("openai.project")
	config.OpenAI.Model = v.GetString("openai.model")
	config.OpenAI.VectorStoreID = v.GetString("openai.vector_store_id")
	config.OpenAI.MaxNumResults = v.GetInt("openai.max_num_results")
	config.OpenAI.Instructions = v.GetString("openai.instructions")
	config.OpenAI.Timeout = v.GetDuration("openai.timeout")
	config.OpenAI.MaxRetries = v.GetInt("openai.max_retries")

	config.Chat.MaxQueryLength = v.GetInt("chat.max_query_length")

	config.RateLimit.Enabled = v.GetBool("rate_limit.enabled")
	config.RateLimit.PerMinute = v.GetInt("rate_limit.per_minute")
	config.RateLimit.Burst = v.GetInt("rate_limit.burst")

	config.Database.URL = v.GetString("database.url")
	config.Redis.URL = v.GetString("redis.url")
	config.Cache.Enabled = v.GetBool("cache.enabled")
	config.Cache.TTL = v.GetDuration("cache.ttl")

	config.Seed.URLs = splitList(v.GetStringSlice("seed.urls"))
	config.Seed.UserAgent = v.GetString("seed.user_agent")

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "5000")
	v.SetDefault("server.shutdown_timeout", 15*time.Second)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("openai.base_url", "https://api.openai.com/v1")
	v.SetDefault("openai.model", "gpt-4o-mini")
	v.SetDefault("openai.timeout", 120*time.Second)
	v.SetDefault("openai.max_retries", 0)
	v.SetDefault("chat.max_query_length", 4000)
	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.per_minute", 30)
	v.SetDefault("rate_limit.burst", 10)
	v.SetDefault("cache.enabled", false)
	v.SetDefault("cache.ttl", 10*time.Minute)
	v.SetDefault("seed.user_agent", "DocChat-Seeder/1.0")
}

// splitList accepts both yaml lists and comma separated env values.
func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func (c *Config) ValidateOpenAI() error {
	if c.OpenAI.APIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is required")
	}
	if c.OpenAI.BaseURL == "" {
		return fmt.Errorf("OPENAI_BASE_URL is required")
	}
	if c.OpenAI.VectorStoreID == "" {
		return fmt.Errorf("VECTOR_STORE_ID is required")
	}
	if c.OpenAI.Model == "" {
		return fmt.Errorf("OPENAI_MODEL is required")
	}
	return nil
}

func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}
	if err := c.ValidateOpenAI(); err != nil {
		return err
	}
	if c.Cache.Enabled && c.Redis.URL == "" {
		return fmt.Errorf("REDIS_URL is required when CACHE_ENABLED is true")
	}
	if c.RateLimit.Enabled && c.RateLimit.PerMinute <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must be positive")
	}
	return nil
}
