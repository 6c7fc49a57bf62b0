package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	JWT       JWTConfig
	Session   SessionConfig
	Pin       PinConfig
	Safety    SafetyConfig
	Agent     AgentConfig
	Turn      TurnConfig
	Router    RouterConfig
	WebSocket WebSocketConfig
	CORS      CORSConfig
	RateLimit RateLimitConfig
	Logging   LoggingConfig
	Redis     RedisConfig
	Metrics   MetricsConfig
}

// ServerConfig contains server-related configuration
type ServerConfig struct {
	Port     string
	Env      string
	Debug    bool
	BasePath string
}

// DatabaseConfig contains database connection configuration
type DatabaseConfig struct {
	Host            string
	Port            string
	Name            string
	User            string
	Password        string
	SSLMode         string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

// JWTConfig contains JWT authentication configuration
type JWTConfig struct {
	Secret   string
	Issuer   string
	Audience string
	Expiry   time.Duration
}

// SessionConfig contains timed-session configuration
type SessionConfig struct {
	TTL           time.Duration
	SweepInterval time.Duration
}

// PinConfig contains PIN verification configuration
type PinConfig struct {
	MaxFailed    int
	LockDuration time.Duration
}

// SafetyConfig contains image safety gate configuration
type SafetyConfig struct {
	ClassifierURL string
	Timeout       time.Duration
	FailClosed    bool
}

// AgentConfig contains downstream agent backend configuration
type AgentConfig struct {
	BackendURL string
	Timeout    time.Duration
}

// TurnConfig bounds a single inbound turn
type TurnConfig struct {
	Deadline time.Duration
}

// RouterConfig contains the intent router trigger sets
type RouterConfig struct {
	CancelKeywords     []string
	DeleteTriggers     []string
	OwnListingTriggers []string
	AllListingTriggers []string
	UpdateTriggers     []string
	ConfirmTriggers    []string
	SellTriggers       []string
	BuyTriggers        []string
}

// WebSocketConfig contains WebSocket configuration
type WebSocketConfig struct {
	PingInterval    time.Duration
	PongTimeout     time.Duration
	WriteTimeout    time.Duration
	ReadBufferSize  int
	WriteBufferSize int
}

// CORSConfig contains CORS configuration
type CORSConfig struct {
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	AllowCredentials bool
	MaxAge           int
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled           bool
	RequestsPerMinute int
	Burst             int
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string
	Format string
	Output string
}

// RedisConfig contains Redis configuration
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     string
	Password string
	DB       int
}

// MetricsConfig contains metrics configuration
type MetricsConfig struct {
	Enabled bool
	Port    string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if exists (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:     getEnv("APP_PORT", "8080"),
			Env:      getEnv("APP_ENV", "production"),
			Debug:    getEnvBool("APP_DEBUG", false),
			BasePath: getEnv("APP_BASE_PATH", "/api/v1"),
		},
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			Name:            getEnv("DB_NAME", "pazargate"),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", ""),
			SSLMode:         getEnv("DB_SSL_MODE", "disable"),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 10),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 100),
			ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", 3600) * time.Second,
		},
		JWT: JWTConfig{
			Secret:   getEnv("JWT_SECRET", ""),
			Issuer:   getEnv("JWT_ISSUER", "pazargate"),
			Audience: getEnv("JWT_AUDIENCE", "pazargate-api"),
			Expiry:   getEnvDuration("JWT_EXPIRY", 3600) * time.Second,
		},
		Session: SessionConfig{
			TTL:           getEnvDuration("SESSION_TTL_SECONDS", 600) * time.Second,
			SweepInterval: getEnvDuration("SESSION_SWEEP_INTERVAL_SECONDS", 300) * time.Second,
		},
		Pin: PinConfig{
			MaxFailed:    getEnvInt("PIN_MAX_FAILED", 3),
			LockDuration: getEnvDuration("PIN_LOCK_SECONDS", 900) * time.Second,
		},
		Safety: SafetyConfig{
			ClassifierURL: getEnv("SAFETY_CLASSIFIER_URL", ""),
			Timeout:       getEnvDuration("SAFETY_TIMEOUT_MS", 8000) * time.Millisecond,
			FailClosed:    getEnvBool("SAFETY_FAIL_CLOSED", false),
		},
		Agent: AgentConfig{
			BackendURL: getEnv("AGENT_BACKEND_URL", ""),
			Timeout:    getEnvDuration("AGENT_TIMEOUT_MS", 15000) * time.Millisecond,
		},
		Turn: TurnConfig{
			Deadline: getEnvDuration("TURN_DEADLINE_MS", 20000) * time.Millisecond,
		},
		Router: RouterConfig{
			CancelKeywords:     getEnvSlice("CANCEL_KEYWORDS", []string{"iptal", "vazgeç", "kapat", "çık", "cancel", "stop"}),
			DeleteTriggers:     getEnvSlice("DELETE_TRIGGERS", []string{"sil", "silebilir", "silmek", "silme", "kaldır"}),
			OwnListingTriggers: getEnvSlice("OWN_LISTING_TRIGGERS", []string{"ilanlarım", "ilanlarımı", "bana ait"}),
			AllListingTriggers: getEnvSlice("ALL_LISTING_TRIGGERS", []string{"tüm ilanlar", "tüm ilanları", "kime ait"}),
			UpdateTriggers:     getEnvSlice("UPDATE_TRIGGERS", []string{"değiştir", "güncelle", "düzenle"}),
			ConfirmTriggers:    getEnvSlice("CONFIRM_TRIGGERS", []string{"onayla", "yayınla", "tamam", "evet", "paylaş", "onaylıyorum"}),
			SellTriggers:       getEnvSlice("SELL_TRIGGERS", []string{"satıyorum", "satmak", "satayım", "ilan ver"}),
			BuyTriggers:        getEnvSlice("BUY_TRIGGERS", []string{"almak", "alıcı", "arıyorum", "var mı", "bul", "uygun", "ucuz"}),
		},
		WebSocket: WebSocketConfig{
			PingInterval:    getEnvDuration("WS_PING_INTERVAL", 30) * time.Second,
			PongTimeout:     getEnvDuration("WS_PONG_TIMEOUT", 10) * time.Second,
			WriteTimeout:    getEnvDuration("WS_WRITE_TIMEOUT", 10) * time.Second,
			ReadBufferSize:  getEnvInt("WS_READ_BUFFER_SIZE", 1024),
			WriteBufferSize: getEnvInt("WS_WRITE_BUFFER_SIZE", 1024),
		},
		CORS: CORSConfig{
			AllowedOrigins:   getEnvSlice("CORS_ALLOWED_ORIGINS", []string{"*"}),
			AllowedMethods:   getEnvSlice("CORS_ALLOWED_METHODS", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
			AllowedHeaders:   getEnvSlice("CORS_ALLOWED_HEADERS", []string{"Content-Type", "Authorization"}),
			AllowCredentials: getEnvBool("CORS_ALLOW_CREDENTIALS", true),
			MaxAge:           getEnvInt("CORS_MAX_AGE", 43200),
		},
		RateLimit: RateLimitConfig{
			Enabled:           getEnvBool("RATE_LIMIT_ENABLED", true),
			RequestsPerMinute: getEnvInt("RATE_LIMIT_REQUESTS_PER_MINUTE", 60),
			Burst:             getEnvInt("RATE_LIMIT_BURST", 10),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
			Output: getEnv("LOG_OUTPUT", "stdout"),
		},
		Redis: RedisConfig{
			Enabled:  getEnvBool("REDIS_ENABLED", false),
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Metrics: MetricsConfig{
			Enabled: getEnvBool("METRICS_ENABLED", true),
			Port:    getEnv("METRICS_PORT", "9090"),
		},
	}

	// Validate required configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.Password == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}

	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}

	if c.Server.Port == "" {
		return fmt.Errorf("APP_PORT is required")
	}

	if c.Pin.MaxFailed < 1 || c.Pin.MaxFailed > 10 {
		return fmt.Errorf("PIN_MAX_FAILED must be between 1 and 10")
	}

	if c.Session.TTL < time.Minute {
		return fmt.Errorf("SESSION_TTL_SECONDS must be at least 60")
	}

	return nil
}

// GetDSN returns the database connection string
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// Helper functions to get environment variables with defaults

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue int) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return time.Duration(parsed)
		}
	}
	return time.Duration(defaultValue)
}

func getEnvSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts
	}
	return defaultValue
}

// IsDevelopment returns true if the environment is development
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development" || c.Server.Env == "dev"
}

// IsProduction returns true if the environment is production
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production" || c.Server.Env == "prod"
}

// GetServerAddress returns the full server address
func (c *Config) GetServerAddress() string {
	return ":" + c.Server.Port
}
