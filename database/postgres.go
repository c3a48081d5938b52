package database

import (
	"fmt"
	"net/url"
	"os"
	"strings"
)

// PostgresConfig holds connection parameters when no DSN is configured.
type PostgresConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// PostgresConfigFromEnv reads the DB_* variables used by hosted deployments.
func PostgresConfigFromEnv() PostgresConfig {
	return PostgresConfig{
		Host:     getEnvOrDefault("DB_HOST", "localhost"),
		Port:     getEnvOrDefault("DB_PORT", "5432"),
		User:     getEnvOrDefault("DB_USER", "postgres"),
		Password: getEnvOrDefault("DB_PASSWORD", "postgres"),
		DBName:   getEnvOrDefault("DB_NAME", "budget"),
		SSLMode:  getEnvOrDefault("DB_SSL_MODE", "disable"),
	}
}

// ConnectionString prefers DATABASE_URL when the platform provides one.
func (cfg PostgresConfig) ConnectionString() string {
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		return dbURL
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		url.PathEscape(cfg.User), url.PathEscape(cfg.Password), cfg.Host, cfg.Port, cfg.DBName, cfg.SSLMode,
	)
}

// ResolveDSN returns dsn unchanged unless it is empty and the driver is
// postgres, in which case the environment is consulted.
func ResolveDSN(driver, dsn string) string {
	if dsn == "" && Dialect(driver) == Postgres {
		return PostgresConfigFromEnv().ConnectionString()
	}
	return dsn
}

// MaskPassword hides the password of a URL style connection string for logging.
func MaskPassword(connStr string) string {
	u, err := url.Parse(connStr)
	if err != nil || u.User == nil {
		return connStr
	}
	if _, ok := u.User.Password(); !ok {
		return connStr
	}
	masked := strings.Replace(connStr, ":"+passwordOf(u)+"@", ":****@", 1)
	return masked
}

func passwordOf(u *url.URL) string {
	p, _ := u.User.Password()
	return url.PathEscape(p)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
