package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration
type Config struct {
	Server  ServerConfig
	DB      DBConfig
	Auth    AuthConfig
	Media   MediaConfig
	Whisper WhisperConfig
	Jobs    JobsConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port           int      `envconfig:"SERVER_PORT" default:"8080"`
	AllowedOrigins []string `envconfig:"SERVER_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}

// DBConfig holds database configuration
type DBConfig struct {
	Host     string `envconfig:"DB_HOST" default:"localhost"`
	Port     int    `envconfig:"DB_PORT" default:"3306"`
	User     string `envconfig:"DB_USER" default:"root"`
	Password string `envconfig:"DB_PASSWORD" required:"true"`
	Database string `envconfig:"DB_NAME" default:"vidscript"`
	MaxConns int    `envconfig:"DB_MAX_CONNS" default:"10"`
}

// AuthConfig holds bearer-token verification configuration
type AuthConfig struct {
	// JWTSecret is the HMAC secret shared with the identity provider
	JWTSecret string `envconfig:"AUTH_JWT_SECRET" required:"true"`
}

// MediaConfig holds yt-dlp extraction configuration
type MediaConfig struct {
	YtDlpPath string        `envconfig:"MEDIA_YTDLP_PATH" default:"yt-dlp"`
	TempDir   string        `envconfig:"MEDIA_TEMP_DIR" default:""`
	Timeout   time.Duration `envconfig:"MEDIA_TIMEOUT" default:"5m"`
	RateLimit float64       `envconfig:"MEDIA_RATE_LIMIT" default:"1"`
}

// WhisperConfig holds speech-to-text engine configuration
type WhisperConfig struct {
	APIKey  string        `envconfig:"WHISPER_API_KEY" required:"true"`
	BaseURL string        `envconfig:"WHISPER_BASE_URL" default:"https://api.openai.com/v1"`
	Model   string        `envconfig:"WHISPER_MODEL" default:"whisper-1"`
	Timeout time.Duration `envconfig:"WHISPER_TIMEOUT" default:"10m"`
}

// JobsConfig holds background pipeline configuration
type JobsConfig struct {
	Workers        int           `envconfig:"JOBS_WORKERS" default:"4"`
	QueueSize      int           `envconfig:"JOBS_QUEUE_SIZE" default:"64"`
	StaleAfter     time.Duration `envconfig:"JOBS_STALE_AFTER" default:"2h"`
	ReaperSchedule string        `envconfig:"JOBS_REAPER_SCHEDULE" default:"@every 15m"`
}

// DSN returns the MySQL data source name
func (c *DBConfig) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		c.User, c.Password, c.Host, c.Port, c.Database)
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("", &cfg.Server); err != nil {
		return nil, fmt.Errorf("failed to load server config: %w", err)
	}

	if err := envconfig.Process("", &cfg.DB); err != nil {
		return nil, fmt.Errorf("failed to load db config: %w", err)
	}

	if err := envconfig.Process("", &cfg.Auth); err != nil {
		return nil, fmt.Errorf("failed to load auth config: %w", err)
	}

	if err := envconfig.Process("", &cfg.Media); err != nil {
		return nil, fmt.Errorf("failed to load media config: %w", err)
	}

	if err := envconfig.Process("", &cfg.Whisper); err != nil {
		return nil, fmt.Errorf("failed to load whisper config: %w", err)
	}

	if err := envconfig.Process("", &cfg.Jobs); err != nil {
		return nil, fmt.Errorf("failed to load jobs config: %w", err)
	}

	return &cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.DB.Password == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("AUTH_JWT_SECRET is required")
	}
	if c.Whisper.APIKey == "" {
		return fmt.Errorf("WHISPER_API_KEY is required")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("SERVER_PORT must be between 1 and 65535")
	}
	if c.Media.RateLimit <= 0 {
		return fmt.Errorf("MEDIA_RATE_LIMIT must be positive")
	}
	if c.Jobs.Workers <= 0 {
		return fmt.Errorf("JOBS_WORKERS must be positive")
	}
	if c.Jobs.QueueSize <= 0 {
		return fmt.Errorf("JOBS_QUEUE_SIZE must be positive")
	}
	if c.Jobs.StaleAfter <= 0 {
		return fmt.Errorf("JOBS_STALE_AFTER must be positive")
	}
	return nil
}
