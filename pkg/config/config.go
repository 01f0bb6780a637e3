package config

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	ServerPort   string
	CORSOrigins  []string
	CookieSecure bool

	// Database
	DatabaseURL string

	// Redis
	RedisHost        string
	RedisPort        string
	RedisPassword    string
	RedisDB          int
	IdentityCacheTTL time.Duration

	// JWT
	JWTSecret string

	// Password hashing
	BcryptCost  int
	HashWorkers int

	// Links and mail
	ClientURL     string
	UserEmail     string
	MailTransport string
	MailTimeout   time.Duration
	SMTPHost      string
	SMTPPort      string
	SMTPUsername  string
	SMTPPassword  string

	// RabbitMQ
	RabbitMQHost     string
	RabbitMQPort     string
	RabbitMQUser     string
	RabbitMQPassword string

	// AWS S3
	AWSRegion          string
	AWSAccessKeyID     string
	AWSSecretAccessKey string
	AWSEndpoint        string
	S3UseSSL           string
	S3BucketName       string
}

const (
	MailTransportSMTP  = "smtp"
	MailTransportQueue = "queue"
)

// requiredKeys must be present in the environment; Load fails otherwise.
var requiredKeys = []string{"JWT_SECRET", "CLIENT_URL", "USER_EMAIL", "DATABASE_URL"}

func Load() (*Config, error) {
	// Try to load .env file, but don't fail if it doesn't exist
	_ = godotenv.Load()

	var missing []string
	for _, key := range requiredKeys {
		if strings.TrimSpace(os.Getenv(key)) == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}

	userEmail := os.Getenv("USER_EMAIL")

	config := &Config{
		ServerPort:   getEnv("SERVER_PORT", "8000"),
		CORSOrigins:  splitList(getEnv("CORS_ORIGINS", "http://localhost:3000")),
		CookieSecure: getEnvBool("COOKIE_SECURE", true),

		DatabaseURL: os.Getenv("DATABASE_URL"),

		RedisHost:        getEnv("REDIS_HOST", "localhost"),
		RedisPort:        getEnv("REDIS_PORT", "6379"),
		RedisPassword:    getEnv("REDIS_PASSWORD", ""),
		RedisDB:          getEnvInt("REDIS_DB", 0),
		IdentityCacheTTL: getEnvDuration("IDENTITY_CACHE_TTL", time.Minute),

		JWTSecret: os.Getenv("JWT_SECRET"),

		BcryptCost:  getEnvInt("BCRYPT_COST", 10),
		HashWorkers: getEnvInt("HASH_WORKERS", runtime.NumCPU()),

		ClientURL:     strings.TrimRight(os.Getenv("CLIENT_URL"), "/"),
		UserEmail:     userEmail,
		MailTransport: getEnv("MAIL_TRANSPORT", MailTransportSMTP),
		MailTimeout:   getEnvDuration("MAIL_TIMEOUT", 15*time.Second),
		SMTPHost:      getEnv("SMTP_HOST", "smtp.gmail.com"),
		SMTPPort:      getEnv("SMTP_PORT", "587"),
		SMTPUsername:  getEnv("SMTP_USERNAME", userEmail),
		SMTPPassword:  getEnv("SMTP_PASSWORD", ""),

		RabbitMQHost:     getEnv("RABBITMQ_HOST", "localhost"),
		RabbitMQPort:     getEnv("RABBITMQ_PORT", "5672"),
		RabbitMQUser:     getEnv("RABBITMQ_USER", "guest"),
		RabbitMQPassword: getEnv("RABBITMQ_PASSWORD", "guest"),

		AWSRegion:          getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpoint:        getEnv("AWS_ENDPOINT", ""),
		S3UseSSL:           getEnv("S3_USE_SSL", "true"),
		S3BucketName:       getEnv("S3_BUCKET_NAME", ""),
	}

	switch config.MailTransport {
	case MailTransportSMTP, MailTransportQueue:
	default:
		return nil, fmt.Errorf("unsupported MAIL_TRANSPORT %q", config.MailTransport)
	}

	return config, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if n, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return n
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if b, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return b
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return d
	}
	return defaultValue
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
