package moderation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseDuration(t *testing.T) {
	tests := []struct {
		input string
		want  time.Duration
	}{
		{"1d 6h", 30 * time.Hour},
		{"1d6h30m", 30*time.Hour + 30*time.Minute},
		{"30m", 30 * time.Minute},
		{"45s", 45 * time.Second},
		{"2h", 2 * time.Hour},
		{"  1h 30m  ", 90 * time.Minute},
		{"garbage", FallbackDuration},
		{"", FallbackDuration},
		{"1x", FallbackDuration},
		{"h", FallbackDuration},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseDuration(tt.input), "input %q", tt.input)
	}
}

func TestParseDurationFallbackIsFiveMinutes(t *testing.T) {
	assert.Equal(t, int64(300000), ParseDuration("garbage").Milliseconds())
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		input time.Duration
		want  string
	}{
		{30 * time.Hour, "1 day 6 hours"},
		{time.Hour, "1 hour"},
		{90 * time.Minute, "1 hour 30 minutes"},
		{time.Second, "1 second"},
		{2*24*time.Hour + 5*time.Second, "2 days 5 seconds"},
		{0, "0 seconds"},
		{500 * time.Millisecond, "0 seconds"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatDuration(tt.input), "input %s", tt.input)
	}
}
