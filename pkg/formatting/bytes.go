// Package formatting parses loosely structured text: human-readable byte
// sizes from configuration and JSON payloads embedded in model output.
package formatting

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// byteUnits maps accepted suffixes to base-1024 exponents. Both the SI-looking
// and the IEC spellings mean powers of 1024.
var byteUnits = map[string]int{
	"":   0,
	"B":  0,
	"KB": 1, "KIB": 1, "K": 1,
	"MB": 2, "MIB": 2, "M": 2,
	"GB": 3, "GIB": 3, "G": 3,
	"TB": 4, "TIB": 4, "T": 4,
}

// ParseBytes parses a size such as "50MB", "1.5 GiB" or "4096" into bytes.
// Units are case-insensitive and may be separated from the number by spaces.
func ParseBytes(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty byte size")
	}

	split := strings.IndexFunc(s, func(r rune) bool {
		return (r < '0' || r > '9') && r != '.'
	})
	number, unit := s, ""
	if split >= 0 {
		number, unit = s[:split], strings.TrimSpace(s[split:])
	}
	if number == "" {
		return 0, fmt.Errorf("invalid byte size: %q", s)
	}

	value, err := strconv.ParseFloat(number, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid byte size %q: %w", s, err)
	}

	exp, ok := byteUnits[strings.ToUpper(unit)]
	if !ok {
		return 0, fmt.Errorf("unknown byte size unit %q", unit)
	}

	size := value * math.Pow(1024, float64(exp))
	if size > math.MaxInt64 {
		return 0, fmt.Errorf("byte size %q overflows", s)
	}
	return int64(size), nil
}
