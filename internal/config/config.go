// Package config loads application configuration from the environment with an
// optional YAML overlay file.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joeshaw/envdecode"
	"gopkg.in/yaml.v3"

	"github.com/glazehub/glazehub/pkg/logger"
)

// Config is the root application configuration.
type Config struct {
	Server     ServerConfig         `yaml:"server"`
	Logging    logger.LoggingConfig `yaml:"logging"`
	Remote     RemoteConfig         `yaml:"remote"`
	Feed       FeedConfig           `yaml:"feed"`
	Engagement EngagementConfig     `yaml:"engagement"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Host            string        `yaml:"host" env:"GLAZEHUB_HOST,default=0.0.0.0"`
	Port            int           `yaml:"port" env:"GLAZEHUB_PORT,default=8080"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"GLAZEHUB_SHUTDOWN_TIMEOUT,default=10s"`
	AllowedOrigins  string        `yaml:"allowed_origins" env:"GLAZEHUB_ALLOWED_ORIGINS,default=*"`
}

// RemoteConfig controls the OpenAI-backed comment generator. An empty APIKey
// disables remote generation unless a credential was persisted or is set at
// runtime through the settings endpoint.
type RemoteConfig struct {
	APIKey         string        `yaml:"-" env:"GLAZEHUB_OPENAI_API_KEY,default="`
	BaseURL        string        `yaml:"base_url" env:"GLAZEHUB_OPENAI_BASE_URL,default=https://api.openai.com/v1"`
	Model          string        `yaml:"model" env:"GLAZEHUB_OPENAI_MODEL,default=gpt-4"`
	CredentialFile string        `yaml:"credential_file" env:"GLAZEHUB_CREDENTIAL_FILE,default="`
	RequestTimeout time.Duration `yaml:"request_timeout" env:"GLAZEHUB_OPENAI_TIMEOUT,default=15s"`
	RequestsPerMin int           `yaml:"requests_per_min" env:"GLAZEHUB_OPENAI_RPM,default=20"`
}

// FeedConfig bounds the randomised values used when creating posts.
type FeedConfig struct {
	Author       string `yaml:"author" env:"GLAZEHUB_AUTHOR,default=RealUser"`
	MinComments  int    `yaml:"min_comments" env:"GLAZEHUB_MIN_COMMENTS,default=3"`
	MaxComments  int    `yaml:"max_comments" env:"GLAZEHUB_MAX_COMMENTS,default=7"`
	MinSeedLikes int    `yaml:"min_seed_likes" env:"GLAZEHUB_MIN_SEED_LIKES,default=5"`
	MaxSeedLikes int    `yaml:"max_seed_likes" env:"GLAZEHUB_MAX_SEED_LIKES,default=30"`
}

// EngagementConfig controls the per-post engagement simulators.
type EngagementConfig struct {
	LikeInterval    time.Duration `yaml:"like_interval" env:"GLAZEHUB_LIKE_INTERVAL,default=1s"`
	CommentInterval time.Duration `yaml:"comment_interval" env:"GLAZEHUB_COMMENT_INTERVAL,default=2s"`
	LikeTarget      int           `yaml:"like_target" env:"GLAZEHUB_LIKE_TARGET,default=200"`
	CommentTarget   int           `yaml:"comment_target" env:"GLAZEHUB_COMMENT_TARGET,default=15"`
}

// Load decodes configuration from the environment.
func Load() (*Config, error) {
	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode environment config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadWithFile decodes configuration from the environment and then overlays
// values from a YAML file. A missing file is not an error when path is the
// default location.
func LoadWithFile(path string) (*Config, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server port %d out of range", c.Server.Port)
	}
	if c.Feed.MinComments < 0 || c.Feed.MaxComments < c.Feed.MinComments {
		return fmt.Errorf("comment count range [%d,%d] invalid", c.Feed.MinComments, c.Feed.MaxComments)
	}
	if c.Feed.MinSeedLikes < 0 || c.Feed.MaxSeedLikes < c.Feed.MinSeedLikes {
		return fmt.Errorf("seed like range [%d,%d] invalid", c.Feed.MinSeedLikes, c.Feed.MaxSeedLikes)
	}
	if c.Engagement.LikeInterval <= 0 || c.Engagement.CommentInterval <= 0 {
		return fmt.Errorf("engagement intervals must be positive")
	}
	if c.Engagement.LikeTarget < 0 || c.Engagement.CommentTarget < 0 {
		return fmt.Errorf("engagement targets must not be negative")
	}
	return nil
}
