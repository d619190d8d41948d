package format

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		name  string
		input int64
		want  string
	}{
		{"zero", 0, "0 B"},
		{"bytes_small", 512, "512 B"},
		{"bytes_max", 1023, "1023 B"},
		{"one_kb", 1024, "1.0 KB"},
		{"one_and_half_kb", 1536, "1.5 KB"},
		{"just_under_mb", 1024*1024 - 1, "1024.0 KB"},
		{"one_mb", 1024 * 1024, "1.0 MB"},
		{"twenty_mb", 20 * 1024 * 1024, "20.0 MB"},
		{"one_gb", 1024 * 1024 * 1024, "1.0 GB"},
		{"one_and_half_gb", int64(1.5 * 1024 * 1024 * 1024), "1.5 GB"},
		{"one_tb", 1024 * 1024 * 1024 * 1024, "1.0 TB"},
		{"two_tb", 2 * 1024 * 1024 * 1024 * 1024, "2.0 TB"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, FormatBytes(tc.input))
		})
	}
}

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		name  string
		input int64
		want  string
	}{
		{"zero", 0, "0"},
		{"small", 42, "42"},
		{"three_digits", 999, "999"},
		{"four_digits", 1000, "1,000"},
		{"six_digits", 123456, "123,456"},
		{"seven_digits", 1234567, "1,234,567"},
		{"nine_digits", 12345678, "12,345,678"},
		{"negative", -12345, "-12,345"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, FormatNumber(tc.input))
		})
	}
}

func TestFormatPercent(t *testing.T) {
	tests := []struct {
		name  string
		input float64
		want  string
	}{
		{"zero", 0, "0.0%"},
		{"small", 1.5, "1.5%"},
		{"typical", 34.5, "34.5%"},
		{"hundred", 100.0, "100.0%"},
		{"fractional", 67.89, "67.9%"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, FormatPercent(tc.input))
		})
	}
}

func TestFormatNumber_MinInt(t *testing.T) {
	assert.Equal(t, "-9,223,372,036,854,775,808", FormatNumber(math.MinInt64))
}

func TestFormatDelta(t *testing.T) {
	tests := []struct {
		name  string
		input float64
		want  string
	}{
		{"zero", 0, "±0.0pp"},
		{"tiny_positive", 0.01, "±0.0pp"},
		{"up", 2.5, "+2.5pp"},
		{"down", -10, "-10.0pp"},
		{"full_swing", 100, "+100.0pp"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, FormatDelta(tc.input))
		})
	}
}

func TestFormatAge(t *testing.T) {
	tests := []struct {
		name  string
		input time.Duration
		want  string
	}{
		{"negative", -time.Second, "just now"},
		{"sub_second", 300 * time.Millisecond, "just now"},
		{"seconds", 12 * time.Second, "12s ago"},
		{"just_under_minute", 59*time.Second + 900*time.Millisecond, "59s ago"},
		{"minutes", 4*time.Minute + 30*time.Second, "4m ago"},
		{"hours", 2*time.Hour + 5*time.Minute, "2h5m ago"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, FormatAge(tc.input))
		})
	}
}

func TestFormatCountdown(t *testing.T) {
	tests := []struct {
		name  string
		input time.Duration
		want  string
	}{
		{"elapsed", 0, "now"},
		{"overdue", -time.Second, "now"},
		{"sub_second", 100 * time.Millisecond, "1s"},
		{"exact", 3 * time.Second, "3s"},
		{"rounds_up", 2*time.Second + time.Millisecond, "3s"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, FormatCountdown(tc.input))
		})
	}
}
