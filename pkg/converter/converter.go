// pkg/converter/converter.go
package converter

import (
	"strings"

	"go.uber.org/zap"
)

// TypeConverter coerces raw text fields into typed values and maps
// cleaned records onto PostgreSQL column types
type TypeConverter struct {
	logger *zap.Logger
	// Configuration options
	config TypeConverterConfig
}

// TypeConverterConfig provides configuration options for type conversion
type TypeConverterConfig struct {
	// Raw values (case-insensitive, after trimming) treated as null
	NullTokens []string
	// Layouts tried in order when parsing order dates
	DateLayouts []DateLayout
	// Layouts tried in order when parsing clock times
	ClockLayouts []string
	// Accept 1,234.50 style thousands separators in numbers
	AllowThousandsSeparator bool
	// Symbols stripped from the front of numeric values
	CurrencySymbols []string
}

// DateLayout is a time layout plus whether it carries a clock component
type DateLayout struct {
	Layout   string
	HasClock bool
}

// DefaultConfig returns the default configuration
func DefaultConfig() TypeConverterConfig {
	return TypeConverterConfig{
		NullTokens: []string{"", "na", "n/a", "nan", "null", "none", "<na>", "nat"},
		DateLayouts: []DateLayout{
			{Layout: "2006-1-2", HasClock: false},
			{Layout: "2006-1-2 15:04:05", HasClock: true},
			{Layout: "2006-1-2 15:04", HasClock: true},
			{Layout: "2006-1-2T15:04:05", HasClock: true},
			{Layout: "2006-01-02T15:04:05Z07:00", HasClock: true},
			{Layout: "2006/1/2", HasClock: false},
			{Layout: "2006/1/2 15:04:05", HasClock: true},
			{Layout: "1/2/2006", HasClock: false},
			{Layout: "1/2/2006 15:04:05", HasClock: true},
			{Layout: "1/2/2006 15:04", HasClock: true},
			{Layout: "2-Jan-2006", HasClock: false},
			{Layout: "Jan 2, 2006", HasClock: false},
		},
		ClockLayouts: []string{
			"15:04:05",
			"15:04",
			"3:04:05 PM",
			"3:04 PM",
			"3:04PM",
		},
		AllowThousandsSeparator: true,
		CurrencySymbols:         []string{"$", "€", "£", "¥"},
	}
}

// NewTypeConverter creates a new TypeConverter with default configuration
func NewTypeConverter(logger *zap.Logger) *TypeConverter {
	return NewTypeConverterWithConfig(logger, DefaultConfig())
}

// NewTypeConverterWithConfig creates a TypeConverter with custom configuration
func NewTypeConverterWithConfig(logger *zap.Logger, config TypeConverterConfig) *TypeConverter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TypeConverter{
		logger: logger,
		config: config,
	}
}

// IsNull reports whether a raw value should be treated as null
func (c *TypeConverter) IsNull(raw string) bool {
	cleaned := strings.ToLower(strings.TrimSpace(raw))
	for _, token := range c.config.NullTokens {
		if cleaned == token {
			return true
		}
	}
	return false
}
