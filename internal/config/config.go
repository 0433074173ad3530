package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	AppPort string

	DBDriver  string
	DBHost    string
	DBPort    string
	DBName    string
	DBUser    string
	DBPass    string
	DBSSLMode string

	RedisAddr string
	RedisDB   int

	IdempTTLSecs          int
	PublicRateLimitPerMin int

	JWTSecret string
	JWTIssuer string

	PublicBaseURL     string
	AdminNotifyEmails []string
	EmailProvider     string
	AWSRegion         string
	SESFromEmail      string

	LogLevel  string
	LogFormat string
}

func getenv(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func getint(k string, d int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return d
}

// Load reads the process environment, after merging a .env file from the
// working directory when one exists. Variables already set win over .env.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		AppPort: getenv("APP_PORT", "8080"),

		DBDriver:  getenv("DB_DRIVER", "postgres"),
		DBHost:    getenv("DB_HOST", "postgres"),
		DBPort:    getenv("DB_PORT", "5432"),
		DBName:    getenv("DB_NAME", "fleet"),
		DBUser:    getenv("DB_USER", "fleet"),
		DBPass:    getenv("DB_PASS", "fleet"),
		DBSSLMode: getenv("DB_SSLMODE", "disable"),

		RedisAddr: getenv("REDIS_ADDR", "redis:6379"),
		RedisDB:   getint("REDIS_DB", 0),

		IdempTTLSecs:          getint("IDEMPOTENCY_TTL_SECONDS", 300),
		PublicRateLimitPerMin: getint("PUBLIC_RATE_LIMIT_PER_MIN", 30),

		JWTSecret: os.Getenv("JWT_SECRET"),
		JWTIssuer: getenv("JWT_ISSUER", "fleet-admin"),

		PublicBaseURL:     strings.TrimRight(getenv("PUBLIC_BASE_URL", "http://localhost:8080"), "/"),
		AdminNotifyEmails: splitList(os.Getenv("ADMIN_NOTIFY_EMAILS")),
		EmailProvider:     getenv("EMAIL_PROVIDER", "log"),
		AWSRegion:         getenv("AWS_REGION", "eu-west-2"),
		SESFromEmail:      os.Getenv("SES_FROM_EMAIL"),

		LogLevel:  getenv("LOG_LEVEL", "info"),
		LogFormat: getenv("LOG_FORMAT", "json"),
	}
}

func splitList(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (c *Config) Validate() error {
	if c.AppPort == "" {
		return errors.New("missing APP_PORT")
	}
	switch c.DBDriver {
	case "postgres", "mysql":
	default:
		return fmt.Errorf("DB_DRIVER must be postgres or mysql, got %q", c.DBDriver)
	}
	if c.DBHost == "" || c.DBPort == "" || c.DBName == "" || c.DBUser == "" {
		return errors.New("missing database config (DB_HOST/PORT/NAME/USER)")
	}
	if _, err := net.LookupPort("tcp", c.DBPort); err != nil {
		return fmt.Errorf("invalid DB_PORT %q: %w", c.DBPort, err)
	}
	if c.JWTSecret == "" {
		return errors.New("missing JWT_SECRET")
	}
	if c.IdempTTLSecs <= 0 {
		return errors.New("IDEMPOTENCY_TTL_SECONDS must be positive")
	}
	if c.PublicRateLimitPerMin <= 0 {
		return errors.New("PUBLIC_RATE_LIMIT_PER_MIN must be positive")
	}
	if u, err := url.Parse(c.PublicBaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid PUBLIC_BASE_URL %q", c.PublicBaseURL)
	}
	switch c.EmailProvider {
	case "log":
	case "ses":
		if c.SESFromEmail == "" || c.AWSRegion == "" {
			return errors.New("EMAIL_PROVIDER=ses needs SES_FROM_EMAIL and AWS_REGION")
		}
	default:
		return fmt.Errorf("EMAIL_PROVIDER must be ses or log, got %q", c.EmailProvider)
	}
	return nil
}

func (c *Config) dbAddr() string { return net.JoinHostPort(c.DBHost, c.DBPort) }

// DSN returns the connection string for DBDriver.
func (c *Config) DSN() string {
	if c.DBDriver == "mysql" {
		return c.MySQLDSN()
	}
	return c.PostgresDSN()
}

func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s TimeZone=UTC",
		c.DBHost, c.DBPort, c.DBUser, c.DBPass, c.DBName, c.DBSSLMode)
}

func (c *Config) MySQLDSN() string {
	// parseTime needed for DATETIME
	return fmt.Sprintf("%s:%s@tcp(%s)/%s?parseTime=true&loc=UTC&charset=utf8mb4",
		c.DBUser, c.DBPass, c.dbAddr(), c.DBName)
}
