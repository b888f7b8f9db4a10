package tools

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"crypto-mcp/pkg/market"
)

// Accepted time layouts, tried in order. Times without a zone are UTC.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

type arguments map[string]any

func argumentsOf(req mcp.CallToolRequest) arguments {
	args := req.GetArguments()
	if args == nil {
		return arguments{}
	}
	return arguments(args)
}

func (a arguments) present(key string) bool {
	v, ok := a[key]
	return ok && v != nil
}

func (a arguments) optionalString(key, def string) (string, error) {
	if !a.present(key) {
		return def, nil
	}
	s, ok := a[key].(string)
	if !ok {
		return "", market.Validationf(key, "must be a string, got %T", a[key])
	}
	if strings.TrimSpace(s) == "" {
		return def, nil
	}
	return strings.TrimSpace(s), nil
}

func (a arguments) requiredString(key string) (string, error) {
	s, err := a.optionalString(key, "")
	if err != nil {
		return "", err
	}
	if s == "" {
		return "", market.Validationf(key, "is required")
	}
	return s, nil
}

func (a arguments) symbol() (string, error) {
	s, err := a.requiredString("symbol")
	if err != nil {
		return "", err
	}
	return market.ValidateSymbol(s)
}

func (a arguments) optionalSymbol() (string, error) {
	s, err := a.optionalString("symbol", "")
	if err != nil {
		return "", err
	}
	return market.NormalizeSymbol(s), nil
}

// optionalInt accepts JSON numbers with no fractional part and numeric strings.
func (a arguments) optionalInt(key string, def int) (int, error) {
	if !a.present(key) {
		return def, nil
	}
	switch v := a[key].(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		if v != math.Trunc(v) || math.IsInf(v, 0) {
			return 0, market.Validationf(key, "must be an integer, got %v", v)
		}
		return int(v), nil
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, market.Validationf(key, "must be an integer, got %s", v)
		}
		return int(n), nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, market.Validationf(key, "must be an integer, got %q", v)
		}
		return n, nil
	default:
		return 0, market.Validationf(key, "must be an integer, got %T", v)
	}
}

func (a arguments) limit(r market.LimitRange) (int, error) {
	return a.optionalInt("limit", r.Default)
}

func (a arguments) stringList(key string) ([]string, error) {
	if !a.present(key) {
		return nil, market.Validationf(key, "is required")
	}
	switch v := a[key].(type) {
	case []string:
		return v, nil
	case []any:
		out := make([]string, 0, len(v))
		for i, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, market.Validationf(key, "entry %d must be a string, got %T", i, item)
			}
			out = append(out, s)
		}
		return out, nil
	case string:
		// Some clients flatten arrays to "BTCUSDT,ETHUSDT".
		if strings.TrimSpace(v) == "" {
			return nil, nil
		}
		return strings.Split(v, ","), nil
	default:
		return nil, market.Validationf(key, "must be an array of strings, got %T", v)
	}
}

func (a arguments) optionalTime(key string) (*time.Time, error) {
	s, err := a.optionalString(key, "")
	if err != nil || s == "" {
		return nil, err
	}
	t, err := parseTime(s)
	if err != nil {
		return nil, market.Validationf(key, "%v", err)
	}
	return &t, nil
}

func parseTime(s string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%q is not an ISO-8601 time (e.g. 2024-01-01T00:00:00)", s)
}

func (a arguments) period() (market.Period, error) {
	s, err := a.requiredString("period")
	if err != nil {
		return "", err
	}
	return market.ParsePeriod(s)
}

func (a arguments) interval(def string) (market.Interval, error) {
	s, err := a.optionalString("interval", def)
	if err != nil {
		return "", err
	}
	if s == "" {
		return "", market.Validationf("interval", "is required")
	}
	return market.ParseInterval(s)
}

// timeRange reads start_time and end_time into q.
func (a arguments) timeRange(q *market.Query) error {
	start, err := a.optionalTime("start_time")
	if err != nil {
		return err
	}
	end, err := a.optionalTime("end_time")
	if err != nil {
		return err
	}
	q.StartTime, q.EndTime = start, end
	return nil
}
