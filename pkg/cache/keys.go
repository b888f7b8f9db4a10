package cache

import (
	"strconv"
	"strings"
	"time"
)

// Namespace is the key prefix for every cached response.
const Namespace = "crypto-mcp"

// TTLSet normalises cache TTLs from config into time.Duration values.
type TTLSet struct {
	// Short covers point-in-time quotes: tickers, mark prices, current open interest.
	Short time.Duration
	// Medium covers historical series that only grow at period boundaries.
	Medium time.Duration
}

// NewTTLSet converts config TTLs into durations. Zero picks the default and a
// negative value disables caching for the class.
func NewTTLSet(short, medium time.Duration) TTLSet {
	return TTLSet{
		Short:  durationOrDefault(short, 3*time.Second),
		Medium: durationOrDefault(medium, 30*time.Second),
	}
}

func durationOrDefault(d, fallback time.Duration) time.Duration {
	if d < 0 {
		return 0
	}
	if d == 0 {
		return fallback
	}
	return d
}

func formatKey(parts ...string) string {
	values := make([]string, 0, len(parts)+1)
	values = append(values, Namespace)
	for _, part := range parts {
		clean := strings.TrimSpace(part)
		if clean == "" {
			clean = "-"
		}
		values = append(values, clean)
	}
	return strings.Join(values, ":")
}

// Key builds crypto-mcp:<provider>:<op>[:<arg>...]. Empty arguments keep
// their position as "-" so different argument sets never collide.
func Key(provider, op string, args ...string) string {
	return formatKey(append([]string{strings.ToLower(provider), op}, args...)...)
}

// Millis renders an optional bound for use as a key argument.
func Millis(ms int64, ok bool) string {
	if !ok {
		return ""
	}
	return strconv.FormatInt(ms, 10)
}
