package types

import (
	"fmt"
	"strconv"
	"strings"
)

// ToInt64 converts a loosely typed value to int64.
// Upstream sources deliver entity and industry identifiers as assorted
// integer widths, floats, strings, or raw bytes depending on the driver.
func ToInt64(v interface{}) (int64, error) {
	switch i := v.(type) {
	case int64:
		return i, nil
	case int:
		return int64(i), nil
	case int32:
		return int64(i), nil
	case int16:
		return int64(i), nil
	case int8:
		return int64(i), nil
	case uint:
		return int64(i), nil
	case uint64:
		return int64(i), nil
	case uint32:
		return int64(i), nil
	case uint16:
		return int64(i), nil
	case uint8:
		return int64(i), nil
	case float64:
		return int64(i), nil
	case float32:
		return int64(i), nil
	case []byte:
		return parseInt64(string(i))
	case string:
		return parseInt64(i)
	default:
		return 0, fmt.Errorf("cannot convert %T to int64", v)
	}
}

func parseInt64(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, nil
	}
	// Some exports render numeric ids as floats ("12345.0").
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return int64(f), nil
	}
	return 0, fmt.Errorf("cannot parse %q as integer", s)
}

// ParsePeriod coerces a time identifier to a discrete quarter index.
// Accepted forms: a plain integer period, or a dateQ-style label like
// "2019Q3", which maps to year*4 + (quarter-1).
func ParsePeriod(s string) (int, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	upper := strings.ToUpper(s)
	idx := strings.IndexByte(upper, 'Q')
	if idx <= 0 || idx == len(upper)-1 {
		return 0, fmt.Errorf("cannot parse %q as period", s)
	}
	year, err := strconv.Atoi(upper[:idx])
	if err != nil {
		return 0, fmt.Errorf("cannot parse %q as period: bad year", s)
	}
	quarter, err := strconv.Atoi(upper[idx+1:])
	if err != nil || quarter < 1 || quarter > 4 {
		return 0, fmt.Errorf("cannot parse %q as period: bad quarter", s)
	}
	return year*4 + (quarter - 1), nil
}
