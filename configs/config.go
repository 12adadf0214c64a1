package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"
)

type R2 struct {
	AccountID  string
	AccessKey  string
	SecretKey  string
	BucketName string
	PublicURL  string
}

type Provider struct {
	Default         string
	BufferURL       string
	AyrshareURL     string
	Timeout         time.Duration
	RequestsPerSec  float64
	Burst           int
	MaxRetries      int
	RetryWait       time.Duration
	ConfirmSchedule string
	ConfirmBatch    int
}

type Analytics struct {
	SyncSchedule string
	LookbackDays int
}

type Config struct {
	Port               string
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURI  string
	PostgresURI        string
	DatabaseName       string
	RedisURI           string
	FrontendURL        string
	R2                 R2
	Provider           Provider
	Analytics          Analytics
	WorkerConcurrency  int
	LockBackend        string
	LockTTL            time.Duration
	SecretKey          string
	CookieName         string
}

func LoadConfig() *Config {
	return &Config{
		Port:               getEnv("PORT", ":3000"),
		GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
		GoogleRedirectURI:  getEnv("GOOGLE_REDIRECT_URI", "http://localhost:3000/login/callback"),
		PostgresURI:        getEnv("POSTGRES_URI", ""),
		DatabaseName:       getEnv("DATABASE_NAME", ""),
		RedisURI:           getEnv("REDIS_URI", "localhost:6379"),
		FrontendURL:        getEnv("FRONTEND_URL", "http://localhost:5173"),
		R2: R2{
			AccountID:  getEnv("R2_ACCOUNT_ID", ""),
			AccessKey:  getEnv("R2_ACCESS_KEY", ""),
			SecretKey:  getEnv("R2_SECRET_KEY", ""),
			BucketName: getEnv("R2_BUCKET_NAME", ""),
			PublicURL:  getEnv("R2_PUBLIC_URL", ""),
		},
		Provider: Provider{
			Default:         getEnv("SOCIAL_MEDIA_PROVIDER", "ayrshare"),
			BufferURL:       getEnv("BUFFER_API_URL", "https://api.bufferapp.com/1"),
			AyrshareURL:     getEnv("AYRSHARE_API_URL", "https://app.ayrshare.com/api"),
			Timeout:         getEnvDuration("PROVIDER_TIMEOUT", 30*time.Second),
			RequestsPerSec:  getEnvFloat("PROVIDER_RPS", 5),
			Burst:           getEnvInt("PROVIDER_BURST", 10),
			MaxRetries:      getEnvInt("PROVIDER_MAX_RETRIES", 2),
			RetryWait:       getEnvDuration("PROVIDER_RETRY_WAIT", 500*time.Millisecond),
			ConfirmSchedule: getEnv("CONFIRM_SCHEDULE", "@every 00h05m00s"),
			ConfirmBatch:    getEnvInt("CONFIRM_BATCH_SIZE", 100),
		},
		Analytics: Analytics{
			SyncSchedule: getEnv("ANALYTICS_SYNC_SCHEDULE", "@every 01h00m00s"),
			LookbackDays: getEnvInt("ANALYTICS_LOOKBACK_DAYS", 7),
		},
		WorkerConcurrency: getEnvInt("WORKER_CONCURRENCY", 10),
		LockBackend:       getEnv("LOCK_BACKEND", "memory"),
		LockTTL:           getEnvDuration("LOCK_TTL", 2*time.Minute),
		SecretKey:         getEnv("SECRET_KEY", ""),
		CookieName:        getEnv("COOKIE_NAME", ""),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		slog.Warn("invalid integer in environment, using default", "key", key, "value", value)
		return defaultValue
	}
	return n
}

func getEnvFloat(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		slog.Warn("invalid number in environment, using default", "key", key, "value", value)
		return defaultValue
	}
	return f
}

// getEnvDuration accepts Go durations ("30s") or plain seconds ("30").
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if n, err := strconv.Atoi(value); err == nil {
		return time.Duration(n) * time.Second
	}
	slog.Warn("invalid duration in environment, using default", "key", key, "value", value)
	return defaultValue
}
