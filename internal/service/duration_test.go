package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseDuration(t *testing.T) {
	fixtures := []struct {
		in  string
		out time.Duration
		ok  bool
	}{
		{in: "10s", out: 10 * time.Second, ok: true},
		{in: "5m", out: 5 * time.Minute, ok: true},
		{in: "1H", out: time.Hour, ok: true},
		{in: " 2d ", out: 48 * time.Hour, ok: true},
		{in: "0m"},
		{in: "-5m"},
		{in: "m"},
		{in: "5"},
		{in: "5w"},
		{in: "1.5h"},
		{in: "99999999999999d"},
		{in: ""},
	}

	for _, fix := range fixtures {
		d, err := ParseDuration(fix.in)
		if fix.ok {
			assert.NoError(t, err, fix.in)
			assert.Equal(t, fix.out, d, fix.in)
		} else {
			assert.ErrorIs(t, err, ErrInvalidDuration, fix.in)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "10m", FormatDuration(10*time.Minute))
	assert.Equal(t, "90m", FormatDuration(90*time.Minute))
	assert.Equal(t, "2h", FormatDuration(2*time.Hour))
	assert.Equal(t, "1d", FormatDuration(24*time.Hour))
	assert.Equal(t, "45s", FormatDuration(45*time.Second))
}
