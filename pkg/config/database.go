// pkg/config/database.go
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/snowflakedb/gosnowflake"
)

// SnowflakeConfig holds Snowflake connection parameters
type SnowflakeConfig struct {
	User          string
	Password      string
	Account       string
	Warehouse     string
	Database      string
	Role          string
	Authenticator gosnowflake.AuthType

	// Unique column defining input order of a source table; empty reads
	// rows in table scan order
	OrderColumn string

	// Connection pool settings
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration

	// Query timeout
	QueryTimeout time.Duration
}

// PostgresConfig holds PostgreSQL connection parameters
type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string

	// Connection pool settings
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration

	// Statement timeout
	StatementTimeout time.Duration
}

// anySet reports whether any of the keys has a value
func anySet(keys ...string) bool {
	for _, k := range keys {
		if os.Getenv(k) != "" {
			return true
		}
	}
	return false
}

// requireEnv returns the values of keys, or an error naming the first unset one
func requireEnv(keys ...string) ([]string, error) {
	values := make([]string, len(keys))
	for i, k := range keys {
		values[i] = os.Getenv(k)
		if values[i] == "" {
			return nil, fmt.Errorf("%s environment variable is required", k)
		}
	}
	return values, nil
}

// LoadSnowflakeConfig loads Snowflake configuration from environment
// variables. It returns nil when no Snowflake variable is set.
func LoadSnowflakeConfig() (*SnowflakeConfig, error) {
	keys := []string{"SNOWFLAKE_USER", "SNOWFLAKE_PASSWORD", "SNOWFLAKE_ACCOUNT", "SNOWFLAKE_WAREHOUSE", "SNOWFLAKE_DATABASE"}
	if !anySet(keys...) {
		return nil, nil
	}
	values, err := requireEnv(keys...)
	if err != nil {
		return nil, err
	}

	authenticator, err := parseAuthenticator(getEnv("SNOWFLAKE_AUTHENTICATOR", "snowflake"))
	if err != nil {
		return nil, err
	}

	cfg := &SnowflakeConfig{
		User:          values[0],
		Password:      values[1],
		Account:       values[2],
		Warehouse:     values[3],
		Database:      values[4],
		Role:          getEnv("SNOWFLAKE_ROLE", ""),
		Authenticator: authenticator,
		OrderColumn:   getEnv("SNOWFLAKE_ORDER_COLUMN", ""),

		MaxOpenConns:    getEnvAsInt("SNOWFLAKE_MAX_OPEN_CONNS", 4),
		MaxIdleConns:    getEnvAsInt("SNOWFLAKE_MAX_IDLE_CONNS", 2),
		ConnMaxLifetime: time.Duration(getEnvAsInt("SNOWFLAKE_CONN_MAX_LIFETIME_SECONDS", 600)) * time.Second,
		ConnMaxIdleTime: time.Duration(getEnvAsInt("SNOWFLAKE_CONN_MAX_IDLE_TIME_SECONDS", 300)) * time.Second,
		QueryTimeout:    time.Duration(getEnvAsInt("SNOWFLAKE_QUERY_TIMEOUT_SECONDS", 300)) * time.Second,
	}

	return cfg, nil
}

// parseAuthenticator converts an authenticator name to its driver type
func parseAuthenticator(name string) (gosnowflake.AuthType, error) {
	switch name {
	case "snowflake":
		return gosnowflake.AuthTypeSnowflake, nil
	case "oauth":
		return gosnowflake.AuthTypeOAuth, nil
	case "externalbrowser":
		return gosnowflake.AuthTypeExternalBrowser, nil
	case "username_password_mfa":
		return gosnowflake.AuthTypeUsernamePasswordMFA, nil
	case "jwt":
		return gosnowflake.AuthTypeJwt, nil
	case "token":
		return gosnowflake.AuthTypeTokenAccessor, nil
	case "okta":
		return gosnowflake.AuthTypeOkta, nil
	default:
		return gosnowflake.AuthTypeSnowflake, fmt.Errorf("unknown Snowflake authenticator %q", name)
	}
}

// LoadPostgresConfig loads PostgreSQL configuration from environment
// variables. It returns nil when no PostgreSQL credential is set.
func LoadPostgresConfig() (*PostgresConfig, error) {
	keys := []string{"POSTGRES_USER", "POSTGRES_PASSWORD", "POSTGRES_DB"}
	if !anySet(keys...) {
		return nil, nil
	}
	values, err := requireEnv(keys...)
	if err != nil {
		return nil, err
	}

	port := getEnvAsInt("POSTGRES_PORT", 5432)
	if port <= 0 || port > 65535 {
		return nil, errors.New("POSTGRES_PORT must be between 1 and 65535")
	}

	cfg := &PostgresConfig{
		Host:     getEnv("POSTGRES_HOST", "localhost"),
		Port:     port,
		User:     values[0],
		Password: values[1],
		Database: values[2],
		SSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		MaxOpenConns:     getEnvAsInt("POSTGRES_MAX_OPEN_CONNS", 5),
		MaxIdleConns:     getEnvAsInt("POSTGRES_MAX_IDLE_CONNS", 2),
		ConnMaxLifetime:  time.Duration(getEnvAsInt("POSTGRES_CONN_MAX_LIFETIME_SECONDS", 1800)) * time.Second,
		ConnMaxIdleTime:  time.Duration(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_TIME_SECONDS", 600)) * time.Second,
		StatementTimeout: time.Duration(getEnvAsInt("POSTGRES_STATEMENT_TIMEOUT_SECONDS", 300)) * time.Second,
	}

	return cfg, nil
}

// ConnectionString returns a formatted PostgreSQL connection string
func (c *PostgresConfig) ConnectionString() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host,
		c.Port,
		c.User,
		c.Password,
		c.Database,
		c.SSLMode,
	)
}
