package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config 儲存 HTTP API 及外部相依的執行設定。
type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	DB       DBConfig       `yaml:"db"`
	Auth     AuthConfig     `yaml:"auth"`
	Notebook NotebookConfig `yaml:"notebook"`
	Storage  StorageConfig  `yaml:"storage"`
	Secrets  SecretsConfig  `yaml:"secrets"`
	Session  SessionConfig  `yaml:"session"`
}

type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

type DBConfig struct {
	DSN          string        `yaml:"dsn"`
	MaxOpenConns int           `yaml:"max_open_conns"`
	MaxIdleConns int           `yaml:"max_idle_conns"`
	MaxIdleTime  time.Duration `yaml:"max_idle_time"`
}

type AuthConfig struct {
	TokenTTL          time.Duration `yaml:"token_ttl"`
	ClockSkew         time.Duration `yaml:"clock_skew"`
	Secret            string        `yaml:"secret"`
	ExtraHeaderName   string        `yaml:"extra_header_name"`
	ExtraHeaderSecret string        `yaml:"extra_header_secret"`
}

type NotebookConfig struct {
	MaxSizeBytes     int64   `yaml:"max_size_bytes"`
	SizeBufferFactor float64 `yaml:"size_buffer_factor"`
}

// StorageConfig 決定 notebook 內容存放位置：file 或 s3。
type StorageConfig struct {
	Type      string   `yaml:"type"`
	LocalPath string   `yaml:"local_path"`
	S3        S3Config `yaml:"s3"`
}

type S3Config struct {
	Region     string `yaml:"region"`
	SecretName string `yaml:"secret_name"`
	Endpoint   string `yaml:"endpoint"`
}

// SecretsConfig 決定 S3 憑證來源：env 或 aws。
type SecretsConfig struct {
	Provider string `yaml:"provider"`
	Prefix   string `yaml:"prefix"`
	Region   string `yaml:"region"`
}

// SessionConfig 決定有效 token 的保存位置：memory 或 redis。
type SessionConfig struct {
	Backend string      `yaml:"backend"`
	Redis   RedisConfig `yaml:"redis"`
}

type RedisConfig struct {
	Addr      string        `yaml:"addr"`
	Password  string        `yaml:"password"`
	DB        int           `yaml:"db"`
	KeyPrefix string        `yaml:"key_prefix"`
	TTL       time.Duration `yaml:"ttl"`
}

// LoadFromFile 從 YAML 組態檔載入設定。
func LoadFromFile(path string) (Config, error) {
	// 嘗試載入 .env 檔案（如果存在）
	_ = godotenv.Load()

	var cfg Config
	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config yaml: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	cfg = applyDefaults(cfg)
	cfg = applyEnv(cfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate 檢查互斥選項與必要欄位。
func (c Config) Validate() error {
	switch c.Storage.Type {
	case "file", "s3":
	default:
		return fmt.Errorf("unsupported storage type %q", c.Storage.Type)
	}
	switch c.Session.Backend {
	case "memory":
	case "redis":
		if c.Session.Redis.Addr == "" {
			return fmt.Errorf("session.redis.addr is required for redis backend")
		}
	default:
		return fmt.Errorf("unsupported session backend %q", c.Session.Backend)
	}
	switch c.Secrets.Provider {
	case "env", "aws":
	default:
		return fmt.Errorf("unsupported secrets provider %q", c.Secrets.Provider)
	}
	if c.Notebook.MaxSizeBytes <= 0 {
		return fmt.Errorf("notebook.max_size_bytes must be positive")
	}
	return nil
}

func applyDefaults(cfg Config) Config {
	if cfg.HTTP.Addr == "" {
		cfg.HTTP.Addr = ":8080"
	}
	if cfg.DB.MaxOpenConns == 0 {
		cfg.DB.MaxOpenConns = 5
	}
	if cfg.DB.MaxIdleConns == 0 {
		cfg.DB.MaxIdleConns = 2
	}
	if cfg.DB.MaxIdleTime == 0 {
		cfg.DB.MaxIdleTime = 15 * time.Minute
	}
	if cfg.Auth.TokenTTL == 0 {
		cfg.Auth.TokenTTL = 60 * time.Minute
	}
	if cfg.Auth.ClockSkew == 0 {
		cfg.Auth.ClockSkew = 60 * time.Second
	}
	if cfg.Auth.Secret == "" {
		cfg.Auth.Secret = "dev-secret-change-me"
	}
	if cfg.Notebook.MaxSizeBytes == 0 {
		cfg.Notebook.MaxSizeBytes = 10 * 1024 * 1024
	}
	if cfg.Notebook.SizeBufferFactor == 0 {
		cfg.Notebook.SizeBufferFactor = 1.5
	}
	if cfg.Storage.Type == "" {
		cfg.Storage.Type = "file"
	}
	if cfg.Storage.LocalPath == "" {
		cfg.Storage.LocalPath = "./notebooks"
	}
	if cfg.Storage.S3.SecretName == "" {
		cfg.Storage.S3.SecretName = "jupyter-s3"
	}
	if cfg.Storage.S3.Region == "" {
		cfg.Storage.S3.Region = "us-east-1"
	}
	if cfg.Secrets.Provider == "" {
		cfg.Secrets.Provider = "env"
	}
	if cfg.Session.Backend == "" {
		cfg.Session.Backend = "memory"
	}
	if cfg.Session.Redis.KeyPrefix == "" {
		cfg.Session.Redis.KeyPrefix = "sharing:session:"
	}
	if cfg.Session.Redis.TTL == 0 {
		cfg.Session.Redis.TTL = cfg.Auth.TokenTTL
	}
	return cfg
}

func applyEnv(cfg Config) Config {
	if val := os.Getenv("HTTP_ADDR"); val != "" {
		cfg.HTTP.Addr = val
	}
	if val := os.Getenv("PORT"); val != "" {
		cfg.HTTP.Addr = ":" + val
	}
	if val := os.Getenv("DB_DSN"); val != "" {
		cfg.DB.DSN = val
	}
	if val := os.Getenv("AUTH_SECRET"); val != "" {
		cfg.Auth.Secret = val
	}
	if val := os.Getenv("AUTH_TOKEN_TTL"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Auth.TokenTTL = d
		}
	}
	if val := os.Getenv("EXTRA_AUTH_HEADER_NAME"); val != "" {
		cfg.Auth.ExtraHeaderName = val
	}
	if val := os.Getenv("EXTRA_AUTH_HEADER_SECRET"); val != "" {
		cfg.Auth.ExtraHeaderSecret = val
	}
	if val := os.Getenv("NOTEBOOK_MAX_SIZE_BYTES"); val != "" {
		if n, err := strconv.ParseInt(val, 10, 64); err == nil {
			cfg.Notebook.MaxSizeBytes = n
		}
	}
	if val := os.Getenv("STORAGE_TYPE"); val != "" {
		cfg.Storage.Type = val
	}
	if val := os.Getenv("STORAGE_LOCAL_PATH"); val != "" {
		cfg.Storage.LocalPath = val
	}
	if val := os.Getenv("S3_REGION"); val != "" {
		cfg.Storage.S3.Region = val
	}
	if val := os.Getenv("S3_SECRET_NAME"); val != "" {
		cfg.Storage.S3.SecretName = val
	}
	if val := os.Getenv("S3_ENDPOINT"); val != "" {
		cfg.Storage.S3.Endpoint = val
	}
	if val := os.Getenv("SECRETS_PROVIDER"); val != "" {
		cfg.Secrets.Provider = val
	}
	if val := os.Getenv("SECRETS_PREFIX"); val != "" {
		cfg.Secrets.Prefix = val
	}
	if val := os.Getenv("SESSION_BACKEND"); val != "" {
		cfg.Session.Backend = val
	}
	if val := os.Getenv("REDIS_ADDR"); val != "" {
		cfg.Session.Redis.Addr = val
	}
	if val := os.Getenv("REDIS_PASSWORD"); val != "" {
		cfg.Session.Redis.Password = val
	}
	return cfg
}
