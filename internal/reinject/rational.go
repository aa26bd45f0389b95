package reinject

import (
	"fmt"
	"strconv"
	"strings"
)

// parseRational converts an ffprobe rational string ("35400/50000") or plain
// decimal to a float64. The source metadata specifies these as exact
// fractions; the division happens here, once, so no precision is dropped
// earlier in the pipeline.
func parseRational(value string) (float64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, fmt.Errorf("empty rational")
	}
	if num, den, ok := strings.Cut(value, "/"); ok {
		n, err := strconv.ParseFloat(strings.TrimSpace(num), 64)
		if err != nil {
			return 0, fmt.Errorf("rational numerator %q: %w", num, err)
		}
		d, err := strconv.ParseFloat(strings.TrimSpace(den), 64)
		if err != nil {
			return 0, fmt.Errorf("rational denominator %q: %w", den, err)
		}
		if d == 0 {
			return 0, fmt.Errorf("rational %q has zero denominator", value)
		}
		return n / d, nil
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("rational %q: %w", value, err)
	}
	return parsed, nil
}

// formatFloat renders the shortest decimal string that round-trips the exact
// float64 value.
func formatFloat(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}
