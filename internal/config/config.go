package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type APIConfig struct {
	Port       int           `yaml:"port"`
	ServiceKey string        `yaml:"service_key"` // static key the mobile backend presents
	JWTSecret  string        `yaml:"jwt_secret"`
	JWTTTL     time.Duration `yaml:"jwt_ttl"`
	// Submissions allowed per user per window on the ingest endpoint.
	SubmitLimit  int           `yaml:"submit_limit"`
	SubmitWindow time.Duration `yaml:"submit_window"`
}

type DatabaseConfig struct {
	URL      string `yaml:"url"`
	PoolSize int    `yaml:"pool_size"`
}

type RedisConfig struct {
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

type AIConfig struct {
	GeminiKey string `yaml:"gemini_key"`
	GeminiURL string `yaml:"gemini_url"`
	// Analysis fallback chain: image-capable first, then text-only.
	ImageModel string `yaml:"image_model"`
	TextModel  string `yaml:"text_model"`
	// Optional OpenAI-compatible gateway used as the text-only candidate
	// when set (key non-empty).
	OpenAIKey       string        `yaml:"openai_key"`
	OpenAIBaseURL   string        `yaml:"openai_base_url"`
	OpenAIModel     string        `yaml:"openai_model"`
	Cooldown        time.Duration `yaml:"cooldown"` // wait before final rate-limit retry
	CallTimeout     time.Duration `yaml:"call_timeout"`
	ConcurrentLimit int           `yaml:"concurrent_limit"` // max concurrent model calls
}

type StorageConfig struct {
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
	Prefix    string `yaml:"prefix"`
	Endpoint  string `yaml:"endpoint"` // optional, for S3-compatible stores
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	PublicURL string `yaml:"public_url"` // base URL override; derived from bucket/region when empty
	// Attach a public-read canned ACL to each upload. Buckets with ACLs
	// disabled reject the header; set false there and grant read on the
	// result prefix through a bucket policy instead.
	PublicReadACL bool `yaml:"public_read_acl"`
}

type PushConfig struct {
	Endpoint string `yaml:"endpoint"`
	APIKey   string `yaml:"api_key"`
}

type ImagingConfig struct {
	MaxLongEdge     int           `yaml:"max_long_edge"`
	JPEGQuality     int           `yaml:"jpeg_quality"`
	DownloadTimeout time.Duration `yaml:"download_timeout"`
	// Hard cap on the source download; the URL comes from the client.
	MaxDownloadBytes int64 `yaml:"max_download_bytes"`
}

type WorkerConfig struct {
	Count        int           `yaml:"count"`
	PollInterval time.Duration `yaml:"poll_interval"`
}

type Config struct {
	Log      LogConfig      `yaml:"log"`
	API      APIConfig      `yaml:"api"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	AI       AIConfig       `yaml:"ai"`
	Storage  StorageConfig  `yaml:"storage"`
	Push     PushConfig     `yaml:"push"`
	Imaging  ImagingConfig  `yaml:"imaging"`
	Worker   WorkerConfig   `yaml:"worker"`

	Runtime RuntimeConfig `yaml:"-"`
}

func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	cfg.Storage.PublicReadACL = true // on unless the file says otherwise
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyDefaults()

	// Minimal validation
	if cfg.Database.URL == "" {
		return nil, errors.New("database.url is required")
	}
	if cfg.Redis.URL == "" {
		return nil, errors.New("redis.url is required")
	}
	if cfg.Storage.Bucket == "" {
		return nil, errors.New("storage.bucket is required")
	}
	if cfg.AI.GeminiKey == "" && !dev {
		return nil, errors.New("ai.gemini_key is required outside dev mode")
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}

func (cfg *Config) applyDefaults() {
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.API.Port <= 0 {
		cfg.API.Port = 8080
	}
	if cfg.API.JWTTTL <= 0 {
		cfg.API.JWTTTL = 30 * time.Minute
	}
	if cfg.API.SubmitLimit <= 0 {
		cfg.API.SubmitLimit = 10
	}
	if cfg.API.SubmitWindow <= 0 {
		cfg.API.SubmitWindow = time.Minute
	}
	if cfg.Database.PoolSize <= 0 {
		cfg.Database.PoolSize = 10
	}
	if cfg.Redis.TTL <= 0 {
		cfg.Redis.TTL = time.Hour
	}
	if cfg.AI.ImageModel == "" {
		cfg.AI.ImageModel = "gemini-2.0-flash-exp"
	}
	if cfg.AI.TextModel == "" {
		cfg.AI.TextModel = "gemini-1.5-flash"
	}
	if cfg.AI.Cooldown <= 0 {
		cfg.AI.Cooldown = 20 * time.Second
	}
	if cfg.AI.CallTimeout <= 0 {
		cfg.AI.CallTimeout = 60 * time.Second
	}
	if cfg.AI.ConcurrentLimit <= 0 {
		cfg.AI.ConcurrentLimit = 16
	}
	if cfg.AI.OpenAIBaseURL == "" {
		cfg.AI.OpenAIBaseURL = "https://api.openai.com/v1"
	}
	if cfg.AI.OpenAIModel == "" {
		cfg.AI.OpenAIModel = "gpt-4o-mini"
	}
	if cfg.Imaging.MaxLongEdge <= 0 {
		cfg.Imaging.MaxLongEdge = 1024
	}
	if cfg.Imaging.JPEGQuality <= 0 {
		cfg.Imaging.JPEGQuality = 85
	}
	if cfg.Imaging.MaxDownloadBytes <= 0 {
		cfg.Imaging.MaxDownloadBytes = 20 << 20 // 20 MiB
	}
	if cfg.Imaging.DownloadTimeout <= 0 {
		cfg.Imaging.DownloadTimeout = 30 * time.Second
	}
	if cfg.Worker.Count <= 0 {
		cfg.Worker.Count = 4
	}
	if cfg.Worker.PollInterval <= 0 {
		cfg.Worker.PollInterval = 500 * time.Millisecond
	}
}
