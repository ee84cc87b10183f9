package bench

import (
	"strconv"
	"strings"
)

// ParseLevels parses a comma-separated list of concurrency levels such as
// "1,2,4,8". Order and duplicates are preserved; any level that is not a
// positive integer is a config error.
func ParseLevels(s string) ([]int, error) {
	if strings.TrimSpace(s) == "" {
		return nil, ConfigError(CodeInvalidLevels, "empty concurrency list")
	}

	parts := strings.Split(s, ",")
	levels := make([]int, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, ConfigError(CodeInvalidLevels, "invalid concurrency level %q", p)
		}
		if n <= 0 {
			return nil, ConfigError(CodeInvalidLevels, "concurrency level must be positive, got %d", n)
		}
		levels = append(levels, n)
	}
	return levels, nil
}
