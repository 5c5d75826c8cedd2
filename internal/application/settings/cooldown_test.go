package settings

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCooldown(t *testing.T) {
	valid := map[string]time.Duration{
		"90":     90 * time.Second,
		"90s":    90 * time.Second,
		"15m":    15 * time.Minute,
		"2h":     2 * time.Hour,
		"1d":     24 * time.Hour,
		"1h30m":  90 * time.Minute,
		"1d 12h": 36 * time.Hour,
		" 2H ":   2 * time.Hour,
		"1.5s":   time.Second,
	}
	for in, want := range valid {
		got, err := ParseCooldown(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	for _, in := range []string{"", "0", "-5", "abc", "5x", "1d-2h", "500ms", "d"} {
		_, err := ParseCooldown(in)
		assert.ErrorIs(t, err, ErrInvalidCooldown, in)
	}
}

func TestParseCooldown_RejectsOverflow(t *testing.T) {
	longest, err := ParseCooldown("9223372036")
	require.NoError(t, err)
	assert.Equal(t, 9223372036*time.Second, longest)

	for _, in := range []string{
		"9223372037",
		"10000000000",
		"20000000000",
		"99999999999999999999",
		"106752d",
		"300000d",
		"106751d25h",
		"106751d2562047h",
	} {
		_, err := ParseCooldown(in)
		assert.ErrorIs(t, err, ErrInvalidCooldown, in)
	}
}
