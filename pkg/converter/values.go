// pkg/converter/values.go
package converter

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/David-Botos/ecom-eda/pkg/model"
)

var thousandsPattern = regexp.MustCompile(`^[+-]?\d{1,3}(,\d{3})+(\.\d*)?$`)

// ParsedDate is an order date plus whether the raw text carried a clock
type ParsedDate struct {
	Time     time.Time
	HasClock bool
}

// Text returns the trimmed raw value, or an absent value for nulls
func (c *TypeConverter) Text(raw string) model.Value[string] {
	if c.IsNull(raw) {
		return model.Missing[string](raw)
	}
	return model.Of(strings.TrimSpace(raw), raw)
}

// Number parses a decimal number. Non-finite results are malformed.
func (c *TypeConverter) Number(raw string) model.Value[float64] {
	if c.IsNull(raw) {
		return model.Missing[float64](raw)
	}

	cleaned := strings.TrimSpace(raw)
	for _, sym := range c.config.CurrencySymbols {
		if strings.HasPrefix(cleaned, sym) {
			cleaned = strings.TrimSpace(strings.TrimPrefix(cleaned, sym))
			break
		}
	}
	if c.config.AllowThousandsSeparator && thousandsPattern.MatchString(cleaned) {
		cleaned = strings.ReplaceAll(cleaned, ",", "")
	}

	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		c.logger.Debug("Cannot parse number", zap.String("value", raw))
		return model.Invalid[float64](raw)
	}
	return model.Of(f, raw)
}

// Date parses an order date using the configured layouts
func (c *TypeConverter) Date(raw string) model.Value[ParsedDate] {
	if c.IsNull(raw) {
		return model.Missing[ParsedDate](raw)
	}

	cleaned := strings.TrimSpace(raw)
	for _, layout := range c.config.DateLayouts {
		if t, err := time.Parse(layout.Layout, cleaned); err == nil {
			return model.Of(ParsedDate{Time: t, HasClock: layout.HasClock}, raw)
		}
	}

	c.logger.Debug("Cannot parse date", zap.String("value", raw))
	return model.Invalid[ParsedDate](raw)
}

// Clock parses a time of day and returns it as an offset from midnight
func (c *TypeConverter) Clock(raw string) model.Value[time.Duration] {
	if c.IsNull(raw) {
		return model.Missing[time.Duration](raw)
	}

	cleaned := strings.ToUpper(strings.TrimSpace(raw))
	for _, layout := range c.config.ClockLayouts {
		t, err := time.Parse(layout, cleaned)
		if err != nil {
			continue
		}
		offset := time.Duration(t.Hour())*time.Hour +
			time.Duration(t.Minute())*time.Minute +
			time.Duration(t.Second())*time.Second +
			time.Duration(t.Nanosecond())
		return model.Of(offset, raw)
	}

	c.logger.Debug("Cannot parse time of day", zap.String("value", raw))
	return model.Invalid[time.Duration](raw)
}

// FormatClock renders an offset from midnight as 15:04:05
func FormatClock(d time.Duration) string {
	return time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC).Add(d).Format("15:04:05")
}
