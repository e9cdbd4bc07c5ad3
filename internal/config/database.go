package config

import (
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"
)

type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string

	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

var (
	dbConfig *DBConfig
	dbOnce   sync.Once
)

// LoadDBConfig reads DB_*. Pool sizes default larger in production.
func LoadDBConfig() *DBConfig {
	dbOnce.Do(func() {
		idle, open, lifetime := 5, 10, 30*time.Minute
		if LoadAppConfig().IsProduction() {
			idle, open, lifetime = 20, 200, time.Hour
		}
		dbConfig = &DBConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", ""),
			Name:            getEnv("DB_NAME", "resume_screener"),
			SSLMode:         getEnv("DB_SSLMODE", "disable"),
			MaxIdleConns:    getInt("DB_MAX_IDLE_CONNS", idle),
			MaxOpenConns:    getInt("DB_MAX_OPEN_CONNS", open),
			ConnMaxLifetime: getDuration("DB_CONN_MAX_LIFETIME", lifetime),
		}
	})
	return dbConfig
}

// DSN renders the postgres connection string.
func (c *DBConfig) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
		c.Host, c.User, quoteDSN(c.Password), c.Name, c.Port, c.SSLMode)
}

// Redacted is the connection target safe to log.
func (c *DBConfig) Redacted() string {
	u := url.URL{Scheme: "postgres", User: url.User(c.User), Host: c.Host + ":" + c.Port, Path: c.Name}
	return u.String()
}

var dsnEscaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`)

// quoteDSN quotes a keyword/value DSN value when it is empty or holds spaces
// or quotes.
func quoteDSN(v string) string {
	if v != "" && !strings.ContainsAny(v, ` '\`) {
		return v
	}
	return "'" + dsnEscaper.Replace(v) + "'"
}
