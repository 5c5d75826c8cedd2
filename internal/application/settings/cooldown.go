package settings

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/engagement-ledger/ledger/internal/domain/ledger"
)

var ErrInvalidCooldown = errors.New("invalid cooldown duration")

var dayPrefix = regexp.MustCompile(`^(\d+)d`)

const maxCooldownDays = math.MaxInt64 / int64(24*time.Hour)

// ParseCooldown accepts a bare number of seconds or a duration such as
// "90s", "15m", "2h", "1d" or "1d2h30m". The result is whole seconds, at
// least one.
func ParseCooldown(raw string) (time.Duration, error) {
	s := strings.ToLower(strings.Join(strings.Fields(raw), ""))
	if s == "" || strings.Contains(s, "-") {
		return 0, fmt.Errorf("%w: %q", ErrInvalidCooldown, raw)
	}

	var total time.Duration
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		if n > ledger.MaxCooldownSeconds {
			return 0, fmt.Errorf("%w: %q is too long", ErrInvalidCooldown, raw)
		}
		total = time.Duration(n) * time.Second
	} else {
		rest := s
		if m := dayPrefix.FindStringSubmatch(s); m != nil {
			days, err := strconv.ParseInt(m[1], 10, 64)
			if err != nil || days > maxCooldownDays {
				return 0, fmt.Errorf("%w: %q", ErrInvalidCooldown, raw)
			}
			total = time.Duration(days) * 24 * time.Hour
			rest = s[len(m[0]):]
		}
		if rest != "" {
			d, err := time.ParseDuration(rest)
			if err != nil {
				return 0, fmt.Errorf("%w: %q", ErrInvalidCooldown, raw)
			}
			if d > math.MaxInt64-total {
				return 0, fmt.Errorf("%w: %q is too long", ErrInvalidCooldown, raw)
			}
			total += d
		}
	}

	total = total.Truncate(time.Second)
	if total < time.Second {
		return 0, fmt.Errorf("%w: %q must be at least one second", ErrInvalidCooldown, raw)
	}
	return total, nil
}
