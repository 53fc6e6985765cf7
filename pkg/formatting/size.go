// Package formatting converts byte counts to and from the size strings used
// in configuration and error messages, such as "50MB" or "1.5 GB".
package formatting

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrInvalidSize is returned by ParseBytes for malformed or out of range input.
var ErrInvalidSize = errors.New("invalid byte size")

// units are powers of 1024; EB is the largest that fits an int64.
var units = [...]string{"B", "KB", "MB", "GB", "TB", "PB", "EB"}

// ParseBytes reads a size such as "50MB", "10 mb", "2G" or "1KiB". A bare
// number is a count of bytes. Fractions are allowed and truncated.
func ParseBytes(s string) (int64, error) {
	s = strings.TrimSpace(s)
	num, unit := splitNumber(s)
	if num == "" {
		return 0, fmt.Errorf("%w: %q", ErrInvalidSize, s)
	}

	value, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidSize, s)
	}

	exp, ok := unitExponent(unit)
	if !ok {
		return 0, fmt.Errorf("%w: unknown unit %q", ErrInvalidSize, unit)
	}

	n := value * math.Pow(1024, float64(exp))
	if n >= math.MaxInt64 {
		return 0, fmt.Errorf("%w: %q overflows", ErrInvalidSize, s)
	}
	return int64(n), nil
}

// FormatBytes renders n in the largest unit that keeps the value at or above
// one, with precision decimal places.
func FormatBytes(n int64, precision int) string {
	precision = max(precision, 0)

	sign := ""
	v := float64(n)
	if v < 0 {
		sign, v = "-", -v
	}

	i := 0
	for v >= 1024 && i < len(units)-1 {
		v /= 1024
		i++
	}
	if i == 0 {
		precision = 0
	}
	return sign + strconv.FormatFloat(v, 'f', precision, 64) + " " + units[i]
}

func splitNumber(s string) (num, unit string) {
	i := strings.IndexFunc(s, func(r rune) bool {
		return (r < '0' || r > '9') && r != '.'
	})
	if i < 0 {
		return s, ""
	}
	return s[:i], strings.TrimSpace(s[i:])
}

func unitExponent(unit string) (int, bool) {
	u := strings.ToUpper(unit)
	if u == "" {
		return 0, true
	}
	u = strings.TrimSuffix(strings.Replace(u, "IB", "B", 1), "B")
	if u == "" {
		return 0, true
	}
	for i, name := range units[1:] {
		if name[:1] == u {
			return i + 1, true
		}
	}
	return 0, false
}
