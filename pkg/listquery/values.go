package listquery

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	errBlank       = errors.New("blank value")
	relativeWindow = regexp.MustCompile(`^([+-]?\d+)\s*(day|days|week|weeks|month|months)$`)
)

func isBlank(v interface{}) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	}
	return false
}

func asSlice(v interface{}) ([]interface{}, bool) {
	switch t := v.(type) {
	case []interface{}:
		return t, true
	case []string:
		out := make([]interface{}, len(t))
		for i, s := range t {
			out[i] = s
		}
		return out, true
	case []float64:
		out := make([]interface{}, len(t))
		for i, f := range t {
			out[i] = f
		}
		return out, true
	}
	return nil, false
}

func asString(v interface{}) (string, error) {
	switch t := v.(type) {
	case nil:
		return "", errBlank
	case string:
		return t, nil
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), nil
	case json.Number:
		return t.String(), nil
	case bool:
		return strconv.FormatBool(t), nil
	case int:
		return strconv.Itoa(t), nil
	case int64:
		return strconv.FormatInt(t, 10), nil
	}
	return "", fmt.Errorf("unsupported value %T", v)
}

// asNumber returns an int64 for whole numbers so integer columns compare
// cleanly, float64 otherwise.
func asNumber(v interface{}) (interface{}, error) {
	var f float64
	switch t := v.(type) {
	case nil:
		return nil, errBlank
	case float64:
		f = t
	case int:
		return int64(t), nil
	case int64:
		return t, nil
	case json.Number:
		parsed, err := t.Float64()
		if err != nil {
			return nil, err
		}
		f = parsed
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return nil, errBlank
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q", t)
		}
		f = parsed
	default:
		return nil, fmt.Errorf("unsupported number %T", v)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("invalid number %v", f)
	}
	if f == math.Trunc(f) && math.Abs(f) < 1<<53 {
		return int64(f), nil
	}
	return f, nil
}

func asBool(v interface{}) (bool, error) {
	switch t := v.(type) {
	case bool:
		return t, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "true", "1", "yes":
			return true, nil
		case "false", "0", "no":
			return false, nil
		}
	case float64:
		return t != 0, nil
	}
	return false, fmt.Errorf("invalid boolean %v", v)
}

// asTime accepts epoch milliseconds (number or numeric string), RFC 3339 and
// YYYY-MM-DD values.
func asTime(v interface{}, loc *time.Location) (time.Time, error) {
	switch t := v.(type) {
	case nil:
		return time.Time{}, errBlank
	case time.Time:
		return t.In(loc), nil
	case float64:
		return time.UnixMilli(int64(t)).In(loc), nil
	case int64:
		return time.UnixMilli(t).In(loc), nil
	case json.Number:
		ms, err := t.Int64()
		if err != nil {
			return time.Time{}, err
		}
		return time.UnixMilli(ms).In(loc), nil
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return time.Time{}, errBlank
		}
		if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
			return time.UnixMilli(ms).In(loc), nil
		}
		if ts, err := time.Parse(time.RFC3339Nano, s); err == nil {
			return ts.In(loc), nil
		}
		if ts, err := time.ParseInLocation("2006-01-02", s, loc); err == nil {
			return ts, nil
		}
		return time.Time{}, fmt.Errorf("invalid date %q", t)
	}
	return time.Time{}, fmt.Errorf("unsupported date %T", v)
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func endOfDay(t time.Time) time.Time {
	return startOfDay(t).AddDate(0, 0, 1).Add(-time.Nanosecond)
}

// relativeRange resolves values such as "-7 days", "2 weeks" or "today" to
// the window that starts n units from today and spans one unit.
func relativeRange(v interface{}, now time.Time) (time.Time, time.Time, error) {
	raw, err := asString(v)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	raw = strings.ToLower(strings.TrimSpace(raw))
	switch raw {
	case "today":
		raw = "0 days"
	case "yesterday":
		raw = "-1 days"
	case "tomorrow":
		raw = "1 days"
	}
	m := relativeWindow.FindStringSubmatch(raw)
	if m == nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid relative window %q", raw)
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	today := startOfDay(now)
	var start, end time.Time
	switch strings.TrimSuffix(m[2], "s") {
	case "day":
		start = today.AddDate(0, 0, n)
		end = start.AddDate(0, 0, 1)
	case "week":
		start = today.AddDate(0, 0, 7*n)
		end = start.AddDate(0, 0, 7)
	case "month":
		start = today.AddDate(0, n, 0)
		end = start.AddDate(0, 1, 0)
	}
	return start, end.Add(-time.Nanosecond), nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
