package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Config はAPIサーバーとワーカーの設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database
	DatabaseURL string

	// Token
	JWTSecret   string
	TokenMaxAge time.Duration
	BcryptCost  int

	// Redis（トークン失効管理。未設定の場合は失効管理を無効化する）
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Rate Limit（req/min）
	RateLimitGeneral      int
	RateLimitSessionStart int

	// Worker
	SettleInterval       time.Duration
	SessionRetentionDays int // 終了済みセッションの保持日数

	// Logging
	LogLevel string

	// Server
	ServerPort string

	// CORS
	CORSAllowedOrigin string

	// HSTS（0の場合は無効）
	HSTSMaxAge time.Duration
}

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合はエラーを返す。
func Load() (*Config, error) {
	cfg := &Config{}

	// Required fields
	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	if cfg.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	// Optional fields with defaults
	cfg.TokenMaxAge = getEnvDuration("TOKEN_MAX_AGE", 24*time.Hour)
	cfg.BcryptCost = getEnvInt("BCRYPT_COST", 10)
	cfg.RedisAddr = getEnvString("REDIS_ADDR", "")
	cfg.RedisPassword = getEnvString("REDIS_PASSWORD", "")
	cfg.RedisDB = getEnvInt("REDIS_DB", 0)
	cfg.RateLimitGeneral = getEnvInt("RATE_LIMIT_GENERAL", 120)
	cfg.RateLimitSessionStart = getEnvInt("RATE_LIMIT_SESSION_START", 10)
	cfg.SettleInterval = getEnvDuration("SETTLE_INTERVAL", time.Minute)
	cfg.SessionRetentionDays = getEnvInt("SESSION_RETENTION_DAYS", 365)
	cfg.LogLevel = getEnvString("LOG_LEVEL", "info")
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "http://localhost:3000")
	cfg.HSTSMaxAge = getEnvDuration("HSTS_MAX_AGE", 0)

	return cfg, nil
}

// ClientConfig はnutrictl（端末クライアント）の設定を保持する。
type ClientConfig struct {
	APIBaseURL      string
	StatePath       string // 認証情報を永続化するSQLiteファイル
	AccrualInterval time.Duration
	HTTPTimeout     time.Duration
	LogLevel        string
}

// LoadClient は環境変数からClientConfigを読み込む。
// クライアントには必須項目はなく、すべて既定値を持つ。
func LoadClient() *ClientConfig {
	return &ClientConfig{
		APIBaseURL:      getEnvString("NUTRIFOOD_API_URL", "http://localhost:8080"),
		StatePath:       getEnvString("NUTRIFOOD_STATE_PATH", defaultStatePath()),
		AccrualInterval: getEnvDuration("NUTRIFOOD_ACCRUAL_INTERVAL", time.Minute),
		HTTPTimeout:     getEnvDuration("NUTRIFOOD_HTTP_TIMEOUT", 10*time.Second),
		LogLevel:        getEnvString("LOG_LEVEL", "warn"),
	}
}

// defaultStatePath はホームディレクトリ配下の既定の状態ファイルパスを返す。
// ホームディレクトリが取得できない環境ではカレントディレクトリを使う。
func defaultStatePath() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return filepath.Join(".nutrifood", "state.db")
	}
	return filepath.Join(home, ".nutrifood", "state.db")
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
