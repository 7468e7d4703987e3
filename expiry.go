package sialo

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// expiryUnits maps a duration suffix to its length in seconds.
var expiryUnits = map[byte]int64{
	'w': 7 * 24 * 3600,
	'd': 24 * 3600,
	'h': 3600,
}

// Expiries must be expressible as RFC 3339, which limits years to four digits.
var (
	minExpiryUnix = time.Date(0, 1, 1, 0, 0, 0, 0, time.UTC).Unix()
	maxExpiryUnix = time.Date(9999, 12, 31, 23, 59, 59, 0, time.UTC).Unix()
)

// ParseExpiry converts a share link expiry into an absolute UTC instant.
//
// Accepted forms are a signed integer followed by one of the suffixes
// w, d or h, which is added to now, or an RFC 3339 timestamp. A bare
// number such as "10" is rejected. An offset that lands outside years
// 0000 to 9999 fails with ErrExpiryOverflow.
func ParseExpiry(text string, now time.Time) (time.Time, error) {
	s := strings.TrimSpace(text)

	if s != "" {
		if unit, ok := expiryUnits[s[len(s)-1]]; ok {
			n, err := strconv.ParseInt(s[:len(s)-1], 10, 64)
			if err != nil {
				return time.Time{}, fmt.Errorf("%w: invalid number in %q", ErrInvalidExpiry, s)
			}
			return addExpiry(now, n, unit, s)
		}
	}

	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", ErrInvalidExpiry, err)
	}
	return t.UTC(), nil
}

func addExpiry(now time.Time, n, unitSeconds int64, text string) (time.Time, error) {
	if n > math.MaxInt64/unitSeconds || n < math.MinInt64/unitSeconds {
		return time.Time{}, fmt.Errorf("%w: %q", ErrExpiryOverflow, text)
	}
	offset := n * unitSeconds

	base := now.Unix()
	if (offset > 0 && base > math.MaxInt64-offset) || (offset < 0 && base < math.MinInt64-offset) {
		return time.Time{}, fmt.Errorf("%w: %q", ErrExpiryOverflow, text)
	}
	target := base + offset
	if target < minExpiryUnix || target > maxExpiryUnix {
		return time.Time{}, fmt.Errorf("%w: %q", ErrExpiryOverflow, text)
	}
	return time.Unix(target, int64(now.Nanosecond())).UTC(), nil
}
