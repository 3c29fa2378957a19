package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server      ServerConfig
	Mongo       MongoConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	Auth        AuthConfig
	Payment     PaymentConfig
	Storage     StorageConfig
	AI          AIConfig
	JobFeed     JobFeedConfig     `mapstructure:"job_feed"`
	Mail        MailConfig        `mapstructure:"mail"`
	Certificate CertificateConfig `mapstructure:"certificate"`
	Tracing     TracingConfig     `mapstructure:"tracing"`
	CORS        CORSConfig        `mapstructure:"cors"`
	RateLimit   RateLimitConfig   `mapstructure:"rate_limit"`
}

type ServerConfig struct {
	Port string
	Mode string
}

type MongoConfig struct {
	URI            string `mapstructure:"uri"`
	Database       string `mapstructure:"database"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// DatabaseConfig 购买流水所在的关系库
type DatabaseConfig struct {
	Driver    string // mysql | postgres | sqlite
	DSN       string `mapstructure:"dsn"`
	Host      string
	Port      int
	User      string
	Password  string
	DBName    string
	Charset   string
	ParseTime bool
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type AuthConfig struct {
	Issuer        string `mapstructure:"issuer"`
	JWKSURL       string `mapstructure:"jwks_url"`
	DevSecret     string `mapstructure:"dev_secret"`
	APIKey        string `mapstructure:"api_key"`
	APIBaseURL    string `mapstructure:"api_base_url"`
	WebhookSecret string `mapstructure:"webhook_secret"`
}

type PaymentConfig struct {
	SecretKey     string `mapstructure:"secret_key"`
	WebhookSecret string `mapstructure:"webhook_secret"`
	Currency      string `mapstructure:"currency"`
}

type StorageConfig struct {
	Type          string `mapstructure:"type"`
	LocalPath     string `mapstructure:"local_path"`
	PublicBaseURL string `mapstructure:"public_base_url"`
	MinioEndpoint string `mapstructure:"minio_endpoint"`
	MinioAccessID string `mapstructure:"minio_access_key"`
	MinioSecret   string `mapstructure:"minio_secret_key"`
	MinioBucket   string `mapstructure:"minio_bucket"`
	MinioUseSSL   bool   `mapstructure:"minio_use_ssl"`
	OSSEndpoint   string `mapstructure:"oss_endpoint"`
	OSSAccessKey  string `mapstructure:"oss_access_key"`
	OSSSecretKey  string `mapstructure:"oss_secret_key"`
	OSSBucket     string `mapstructure:"oss_bucket"`
}

type AIConfig struct {
	BaseURL           string `mapstructure:"base_url"`
	APIKey            string `mapstructure:"api_key"`
	Model             string `mapstructure:"model"`
	HistoryLimit      int    `mapstructure:"history_limit"`
	HistoryTTLMinutes int    `mapstructure:"history_ttl_minutes"`
}

func (c AIConfig) HistoryTTL() time.Duration {
	return time.Duration(c.HistoryTTLMinutes) * time.Minute
}

// JobFeedConfig 外部职位源（RapidAPI）
type JobFeedConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	URL      string `mapstructure:"url"`
	APIKey   string `mapstructure:"api_key"`
	Host     string `mapstructure:"host"`
	Schedule string `mapstructure:"schedule"`
	Query    string `mapstructure:"query"`
}

type MailConfig struct {
	SendgridAPIKey string `mapstructure:"sendgrid_api_key"`
	FromName       string `mapstructure:"from_name"`
	FromEmail      string `mapstructure:"from_email"`
}

type CertificateConfig struct {
	VerifyBaseURL string `mapstructure:"verify_base_url"`
}

type TracingConfig struct {
	Enabled           bool   `mapstructure:"enabled"`
	CollectorEndpoint string `mapstructure:"collector_endpoint"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type RateLimitConfig struct {
	MaxRequests   int `mapstructure:"max_requests"`
	WindowMinutes int `mapstructure:"window_minutes"`
}

func (c RateLimitConfig) Window() time.Duration {
	return time.Duration(c.WindowMinutes) * time.Minute
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("mongo.uri", "mongodb://localhost:27017")
	v.SetDefault("mongo.database", "learnhire")
	v.SetDefault("mongo.timeout_seconds", 10)
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "learnhire.db")
	v.SetDefault("database.charset", "utf8mb4")
	v.SetDefault("database.parsetime", true)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("payment.currency", "usd")
	v.SetDefault("storage.type", "local")
	v.SetDefault("storage.local_path", "./uploads")
	v.SetDefault("storage.public_base_url", "/uploads")
	v.SetDefault("ai.model", "gpt-4o-mini")
	v.SetDefault("ai.history_limit", 20)
	v.SetDefault("ai.history_ttl_minutes", 60)
	v.SetDefault("job_feed.schedule", "@every 12h")
	v.SetDefault("job_feed.query", "source=ycombinator")
	v.SetDefault("mail.from_name", "LearnHire")
	v.SetDefault("rate_limit.max_requests", 100)
	v.SetDefault("rate_limit.window_minutes", 1)
}

// LoadConfig 读取 path 下的 config.yaml，.env 与环境变量优先
func LoadConfig(path string) (*Config, error) {
	// .env 不存在时忽略
	_ = godotenv.Load()

	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.SetEnvPrefix("LEARNHIRE")
	v.AutomaticEnv()
	setDefaults(v)

	// Server
	v.BindEnv("server.port", "PORT")
	v.BindEnv("server.mode", "SERVER_MODE")

	// Mongo
	v.BindEnv("mongo.uri", "MONGODB_URI")
	v.BindEnv("mongo.database", "MONGODB_DATABASE")

	// Database
	v.BindEnv("database.driver", "DATABASE_DRIVER")
	v.BindEnv("database.dsn", "DATABASE_DSN")
	v.BindEnv("database.host", "DATABASE_HOST")
	v.BindEnv("database.port", "DATABASE_PORT")
	v.BindEnv("database.user", "DATABASE_USER")
	v.BindEnv("database.password", "DATABASE_PASSWORD")
	v.BindEnv("database.dbname", "DATABASE_NAME")

	// Redis
	v.BindEnv("redis.host", "REDIS_HOST")
	v.BindEnv("redis.port", "REDIS_PORT")
	v.BindEnv("redis.password", "REDIS_PASSWORD")

	// Auth
	v.BindEnv("auth.issuer", "CLERK_ISSUER")
	v.BindEnv("auth.jwks_url", "CLERK_JWKS_URL")
	v.BindEnv("auth.api_key", "CLERK_SECRET_KEY")
	v.BindEnv("auth.webhook_secret", "CLERK_WEBHOOK_SECRET")
	v.BindEnv("auth.dev_secret", "AUTH_DEV_SECRET")

	// Payment
	v.BindEnv("payment.secret_key", "STRIPE_SECRET_KEY")
	v.BindEnv("payment.webhook_secret", "STRIPE_WEBHOOK_SECRET")
	v.BindEnv("payment.currency", "CURRENCY")

	// Storage
	v.BindEnv("storage.type", "STORAGE_TYPE")
	v.BindEnv("storage.oss_endpoint", "OSS_ENDPOINT")
	v.BindEnv("storage.oss_access_key", "OSS_ACCESS_KEY")
	v.BindEnv("storage.oss_secret_key", "OSS_SECRET_KEY")
	v.BindEnv("storage.oss_bucket", "OSS_BUCKET")
	v.BindEnv("storage.minio_endpoint", "MINIO_ENDPOINT")
	v.BindEnv("storage.minio_access_key", "MINIO_ACCESS_KEY")
	v.BindEnv("storage.minio_secret_key", "MINIO_SECRET_KEY")
	v.BindEnv("storage.minio_bucket", "MINIO_BUCKET")

	// AI
	v.BindEnv("ai.base_url", "AI_BASE_URL")
	v.BindEnv("ai.api_key", "AI_API_KEY")
	v.BindEnv("ai.model", "AI_MODEL")

	// Job feed
	v.BindEnv("job_feed.enabled", "JOB_FEED_ENABLED")
	v.BindEnv("job_feed.api_key", "RAPIDAPI_KEY")
	v.BindEnv("job_feed.host", "RAPIDAPI_HOST")

	// Mail
	v.BindEnv("mail.sendgrid_api_key", "SENDGRID_API_KEY")
	v.BindEnv("mail.from_email", "MAIL_FROM")

	// Certificate
	v.BindEnv("certificate.verify_base_url", "FRONTEND_URL")

	// Tracing
	v.BindEnv("tracing.enabled", "TRACING_ENABLED")
	v.BindEnv("tracing.collector_endpoint", "TRACING_COLLECTOR_ENDPOINT")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.Storage.Type == "local" {
		if _, err := os.Stat(cfg.Storage.LocalPath); os.IsNotExist(err) {
			os.MkdirAll(cfg.Storage.LocalPath, 0755)
		}
	}

	return &cfg, nil
}

// Validate 生产环境必须配置身份与支付回调密钥
func (c *Config) Validate() error {
	if c.Server.Mode != "release" {
		return nil
	}
	if c.Auth.JWKSURL == "" {
		return fmt.Errorf("auth.jwks_url is required in release mode")
	}
	if c.Auth.DevSecret != "" {
		return fmt.Errorf("auth.dev_secret must be empty in release mode")
	}
	if c.Payment.WebhookSecret == "" {
		return fmt.Errorf("payment.webhook_secret is required in release mode")
	}
	return nil
}
