package converter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/David-Botos/ecom-eda/pkg/model"
)

func TestIsNull(t *testing.T) {
	c := NewTypeConverter(nil)
	for _, raw := range []string{"", "   ", "NA", "n/a", "NaN", "null", "None", "<NA>", "NaT"} {
		assert.True(t, c.IsNull(raw), raw)
	}
	for _, raw := range []string{"0", "none of it", "-"} {
		assert.False(t, c.IsNull(raw), raw)
	}
}

func TestNumber(t *testing.T) {
	c := NewTypeConverter(nil)
	tests := []struct {
		raw   string
		want  float64
		state model.State
	}{
		{raw: "12.5", want: 12.5, state: model.Present},
		{raw: " 7 ", want: 7, state: model.Present},
		{raw: "-3", want: -3, state: model.Present},
		{raw: "$19.99", want: 19.99, state: model.Present},
		{raw: "1,250.50", want: 1250.5, state: model.Present},
		{raw: "1e3", want: 1000, state: model.Present},
		{raw: "", state: model.Absent},
		{raw: "nan", state: model.Absent},
		{raw: "abc", state: model.Malformed},
		{raw: "1,5", state: model.Malformed},
		{raw: "inf", state: model.Malformed},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got := c.Number(tt.raw)
			assert.Equal(t, tt.state, got.State)
			assert.Equal(t, tt.raw, got.Raw)
			if tt.state == model.Present {
				assert.InDelta(t, tt.want, got.V, 1e-12)
			}
		})
	}
}

func TestDate(t *testing.T) {
	c := NewTypeConverter(nil)
	tests := []struct {
		raw      string
		want     time.Time
		hasClock bool
	}{
		{raw: "2024-03-15", want: time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)},
		{raw: "2024-3-5", want: time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)},
		{raw: "2024-03-15 13:45:10", want: time.Date(2024, 3, 15, 13, 45, 10, 0, time.UTC), hasClock: true},
		{raw: "2024-03-15 13:45", want: time.Date(2024, 3, 15, 13, 45, 0, 0, time.UTC), hasClock: true},
		{raw: "2024-03-15T13:45:10", want: time.Date(2024, 3, 15, 13, 45, 10, 0, time.UTC), hasClock: true},
		{raw: "2024-03-15T13:45:10Z", want: time.Date(2024, 3, 15, 13, 45, 10, 0, time.UTC), hasClock: true},
		{raw: "2024/03/15", want: time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)},
		{raw: "03/15/2024", want: time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)},
		{raw: "15-Mar-2024", want: time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)},
		{raw: "Mar 15, 2024", want: time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got := c.Date(tt.raw)
			require.Equal(t, model.Present, got.State)
			assert.True(t, tt.want.Equal(got.V.Time), "got %s", got.V.Time)
			assert.Equal(t, tt.hasClock, got.V.HasClock)
		})
	}

	assert.Equal(t, model.Malformed, c.Date("not-a-date").State)
	assert.Equal(t, model.Malformed, c.Date("2024-13-45").State)
	assert.Equal(t, model.Absent, c.Date(" ").State)
}

func TestClock(t *testing.T) {
	c := NewTypeConverter(nil)
	tests := []struct {
		raw  string
		want string
	}{
		{raw: "14:30", want: "14:30:00"},
		{raw: "9:05", want: "09:05:00"},
		{raw: "23:59:59", want: "23:59:59"},
		{raw: "10:45 PM", want: "22:45:00"},
		{raw: "7:15am", want: "07:15:00"},
		{raw: "12:00:30 AM", want: "00:00:30"},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got := c.Clock(tt.raw)
			require.Equal(t, model.Present, got.State)
			assert.Equal(t, tt.want, FormatClock(got.V))
		})
	}

	assert.Equal(t, model.Malformed, c.Clock("25:99").State)
	assert.Equal(t, model.Malformed, c.Clock("noon").State)
	assert.Equal(t, model.Absent, c.Clock("").State)
}

func TestText(t *testing.T) {
	c := NewTypeConverter(nil)
	v := c.Text("  ORD-1 ")
	assert.True(t, v.Valid())
	assert.Equal(t, "ORD-1", v.V)
	assert.False(t, c.Text("NULL").Valid())
}
