// pkg/config/config.go
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"unicode/utf8"

	"github.com/joho/godotenv"
)

// Config represents the application configuration
type Config struct {
	// Optional database connections; nil when not configured
	Snowflake *SnowflakeConfig
	Postgres  *PostgresConfig

	// Input settings
	CSVDelimiter rune
	CSVMaxRows   int

	// Export and audit settings
	ExportSchema    string
	ExportTable     string
	ExportBatchSize int
	AuditSchema     string

	// Logging
	LogLevel  string
	LogFormat string
}

// LoadDotEnv loads variables from the given files (default .env) without
// overriding ones already set. Missing files are not an error.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	delimiter, err := getEnvAsRune("CSV_DELIMITER", ',')
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		// Default values
		CSVDelimiter:    delimiter,
		CSVMaxRows:      getEnvAsInt("CSV_MAX_ROWS", 0), // 0 means unlimited
		ExportSchema:    getEnv("EXPORT_SCHEMA", "public"),
		ExportTable:     getEnv("EXPORT_TABLE", "cleaned_orders"),
		ExportBatchSize: getEnvAsInt("EXPORT_BATCH_SIZE", 1000),
		AuditSchema:     getEnv("AUDIT_SCHEMA", "public"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		LogFormat:       getEnv("LOG_FORMAT", "json"),
	}

	// Load database configurations
	snowConfig, err := LoadSnowflakeConfig()
	if err != nil {
		return nil, errors.New("failed to load Snowflake configuration: " + err.Error())
	}
	cfg.Snowflake = snowConfig

	pgConfig, err := LoadPostgresConfig()
	if err != nil {
		return nil, errors.New("failed to load PostgreSQL configuration: " + err.Error())
	}
	cfg.Postgres = pgConfig

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures all configuration values are usable
func (c *Config) Validate() error {
	if c.CSVMaxRows < 0 {
		return errors.New("csv max rows cannot be negative")
	}

	if c.ExportBatchSize <= 0 {
		return errors.New("export batch size must be positive")
	}

	if c.ExportTable == "" {
		return errors.New("export table cannot be empty")
	}

	switch c.LogFormat {
	case "json", "console":
	default:
		return fmt.Errorf("unsupported log format %q", c.LogFormat)
	}

	return nil
}

// Helper functions for environment variables
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsRune(key string, defaultValue rune) (rune, error) {
	value := getEnv(key, "")
	switch {
	case value == "":
		return defaultValue, nil
	case value == `\t`:
		return '\t', nil
	case utf8.RuneCountInString(value) != 1:
		return 0, fmt.Errorf("%s must be a single character, got %q", key, value)
	}
	r, _ := utf8.DecodeRuneInString(value)
	return r, nil
}
