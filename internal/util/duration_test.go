package util

import (
	"testing"
	"time"
)

func TestFormatAge(t *testing.T) {
	tests := []struct {
		name     string
		d        time.Duration
		expected string
	}{
		{"zero", 0, "0s"},
		{"negative clamps to zero", -5 * time.Second, "0s"},
		{"seconds", 42 * time.Second, "42s"},
		{"minutes", 12 * time.Minute, "12m"},
		{"minutes drop seconds", 12*time.Minute + 30*time.Second, "12m"},
		{"hours and minutes", 3*time.Hour + 12*time.Minute, "3h12m"},
		{"whole hours", 5 * time.Hour, "5h"},
		{"days and hours", 52 * time.Hour, "2d4h"},
		{"whole days", 48 * time.Hour, "2d"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatAge(tt.d); got != tt.expected {
				t.Errorf("FormatAge(%v) = %q, want %q", tt.d, got, tt.expected)
			}
		})
	}
}
