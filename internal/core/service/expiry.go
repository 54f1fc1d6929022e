package service

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/99minutos/auth-system/internal/core/domain"
)

// DefaultExpiry is returned alongside ErrInvalidExpiry for malformed input.
const DefaultExpiry = time.Hour

var expiryUnits = map[byte]time.Duration{
	's': time.Second,
	'm': time.Minute,
	'h': time.Hour,
	'd': 24 * time.Hour,
}

// ParseExpiry resolves an expiry policy. It accepts "<N>s", "<N>m", "<N>h", "<N>d"
// or a bare number of seconds. Malformed input yields DefaultExpiry together with
// an error wrapping domain.ErrInvalidExpiry, so callers decide whether to fail.
func ParseExpiry(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultExpiry, fmt.Errorf("%w: empty value", domain.ErrInvalidExpiry)
	}

	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		if n <= 0 {
			return DefaultExpiry, fmt.Errorf("%w: %q must be positive", domain.ErrInvalidExpiry, s)
		}
		return scale(s, n, time.Second)
	}

	unit, ok := expiryUnits[s[len(s)-1]]
	if !ok {
		return DefaultExpiry, fmt.Errorf("%w: %q has an unknown unit", domain.ErrInvalidExpiry, s)
	}
	n, err := strconv.ParseInt(s[:len(s)-1], 10, 64)
	if err != nil || n <= 0 {
		return DefaultExpiry, fmt.Errorf("%w: %q is not a positive number", domain.ErrInvalidExpiry, s)
	}
	return scale(s, n, unit)
}

// scale rejects values that do not fit in a time.Duration.
func scale(s string, n int64, unit time.Duration) (time.Duration, error) {
	if n > math.MaxInt64/int64(unit) {
		return DefaultExpiry, fmt.Errorf("%w: %q is too large", domain.ErrInvalidExpiry, s)
	}
	return time.Duration(n) * unit, nil
}
