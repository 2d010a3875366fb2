package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	JWTSecret               string
	DBHost                  string
	DBPort                  string
	DBUser                  string
	DBPass                  string
	DBName                  string
	DBNameTest              string
	RedisHost               string
	RedisPort               string
	RedisPassword           string
	RedisDB                 int
	MinioHost               string
	MinioPort               string
	MinioUsername           string
	MinioPassword           string
	BucketName              string
	BucketNameTest          string
	RabbitMQURL             string
	RabbitMQHost            string
	RabbitMQPort            string
	RabbitMQUser            string
	RabbitMQPass            string
	RabbitMQVhost           string
	RabbitMQPrefetch        int
	WorkerConcurrency       int
	WorkerRate              float64
	WorkerBurst             int
	WorkerRetryMax          int
	WorkerRetryDelays       []time.Duration
	InactivityReminderDays  []int
	InactivityFinalDays     int
	CompletedRetentionDays  int
	PortalURL               string
	PresignedUploadExpiry   time.Duration
	PresignedDownloadExpiry time.Duration
}

var AppConfig Config

// getEnv returns the environment value or a default.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func getEnvFloat(key string, defaultValue float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func getEnvIntList(key string, defaultValue []int) []int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue
	}
	parts := strings.Split(raw, ",")
	out := make([]int, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		parsed, err := strconv.Atoi(part)
		if err != nil {
			return defaultValue
		}
		out = append(out, parsed)
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

func getEnvDurationList(key string, defaultValue []time.Duration) []time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue
	}
	parts := strings.Split(raw, ",")
	out := make([]time.Duration, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		parsed, err := time.ParseDuration(part)
		if err != nil {
			return defaultValue
		}
		out = append(out, parsed)
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return defaultValue
	}
	return parsed
}

// InitConfig loads configuration from .env and environment variables.
func InitConfig() {
	_ = godotenv.Load()

	rabbitHost := getEnv("RABBITMQ_HOST", "localhost")
	rabbitPort := getEnv("RABBITMQ_PORT", "5672")
	rabbitUser := getEnv("RABBITMQ_USER", "guest")
	rabbitPass := getEnv("RABBITMQ_PASSWORD", "guest")
	rabbitVhost := getEnv("RABBITMQ_VHOST", "/")
	rabbitURL := getEnv("RABBITMQ_URL", "")
	if rabbitURL == "" {
		rabbitURL = fmt.Sprintf(
			"amqp://%s:%s@%s:%s/%s",
			url.PathEscape(rabbitUser),
			url.PathEscape(rabbitPass),
			rabbitHost,
			rabbitPort,
			url.PathEscape(rabbitVhost),
		)
	}
	retryDelays := getEnvDurationList(
		"WORKER_RETRY_DELAYS",
		[]time.Duration{10 * time.Second, 30 * time.Second, 2 * time.Minute, 10 * time.Minute, 30 * time.Minute},
	)
	AppConfig = Config{
		JWTSecret:               getEnv("JWT_SECRET", "l=ax+b"),
		DBHost:                  getEnv("DB_HOST", "localhost"),
		DBPort:                  getEnv("DB_PORT", "3306"),
		DBUser:                  getEnv("DB_USER", "root"),
		DBPass:                  getEnv("DB_PASS", "root"),
		DBName:                  getEnv("DB_NAME", "datahub"),
		DBNameTest:              getEnv("DB_NAME_TEST", "datahub_test"),
		RedisHost:               getEnv("REDIS_HOST", "localhost"),
		RedisPort:               getEnv("REDIS_PORT", "6379"),
		RedisPassword:           getEnv("REDIS_PASSWORD", ""),
		RedisDB:                 0,
		MinioHost:               getEnv("MINIO_HOST", "localhost"),
		MinioPort:               getEnv("MINIO_PORT", "9000"),
		MinioUsername:           getEnv("MINIO_USERNAME", "minioadmin"),
		MinioPassword:           getEnv("MINIO_PASSWORD", "minioadmin"),
		BucketName:              getEnv("BUCKET_NAME", "datahub-submissions"),
		BucketNameTest:          getEnv("BUCKET_NAME_TEST", "datahub-test"),
		RabbitMQURL:             rabbitURL,
		RabbitMQHost:            rabbitHost,
		RabbitMQPort:            rabbitPort,
		RabbitMQUser:            rabbitUser,
		RabbitMQPass:            rabbitPass,
		RabbitMQVhost:           rabbitVhost,
		RabbitMQPrefetch:        getEnvInt("RABBITMQ_PREFETCH", 8),
		WorkerConcurrency:       getEnvInt("WORKER_CONCURRENCY", 4),
		WorkerRate:              getEnvFloat("WORKER_RATE", 2),
		WorkerBurst:             getEnvInt("WORKER_BURST", 4),
		WorkerRetryMax:          getEnvInt("WORKER_RETRY_MAX", 5),
		WorkerRetryDelays:       retryDelays,
		InactivityReminderDays:  getEnvIntList("INACTIVITY_REMINDER_DAYS", []int{7, 30, 60}),
		InactivityFinalDays:     getEnvInt("INACTIVITY_FINAL_DAYS", 120),
		CompletedRetentionDays:  getEnvInt("COMPLETED_RETENTION_DAYS", 180),
		PortalURL:               getEnv("PORTAL_URL", "http://localhost:3000"),
		PresignedUploadExpiry:   getEnvDuration("PRESIGNED_UPLOAD_EXPIRY", time.Hour),
		PresignedDownloadExpiry: getEnvDuration("PRESIGNED_DOWNLOAD_EXPIRY", 15*time.Minute),
	}
}
