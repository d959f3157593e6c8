package interval

import (
	"fmt"
	"strings"
	"time"
)

// localLayouts are accepted for timestamps without an offset; they are read
// in the owning event's timezone.
var localLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// Parse validates a decoded availability payload (a list of objects with
// "start" and "end" keys) and converts it to windows. It does not clip or
// merge. Any shape problem is reported as ErrInvalidShape.
func Parse(raw any, loc *time.Location) ([]Window, error) {
	if loc == nil {
		loc = time.UTC
	}

	var items []any
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case []any:
		items = v
	case []map[string]any:
		items = make([]any, len(v))
		for i := range v {
			items[i] = v[i]
		}
	default:
		return nil, fmt.Errorf("%w: expected a list of windows, got %T", ErrInvalidShape, raw)
	}

	windows := make([]Window, 0, len(items))
	for i, item := range items {
		obj, ok := toObject(item)
		if !ok {
			return nil, fmt.Errorf("%w: item %d: expected an object, got %T", ErrInvalidShape, i, item)
		}
		start, err := field(obj, "start", loc)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		end, err := field(obj, "end", loc)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		windows = append(windows, Window{Start: start, End: end})
	}
	return windows, nil
}

// Normalize parses raw, clips every window into bounds and merges the result.
// A window that is empty after clipping is a range error.
func Normalize(raw any, bounds Window, loc *time.Location) ([]Window, error) {
	windows, err := Parse(raw, loc)
	if err != nil {
		return nil, err
	}
	clipped := make([]Window, 0, len(windows))
	for i, w := range windows {
		c, err := Clip(w, bounds)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		clipped = append(clipped, c)
	}
	return Merge(clipped), nil
}

func toObject(item any) (map[string]any, bool) {
	switch v := item.(type) {
	case map[string]any:
		return v, true
	case map[any]any:
		obj := make(map[string]any, len(v))
		for k, val := range v {
			key, ok := k.(string)
			if !ok {
				return nil, false
			}
			obj[key] = val
		}
		return obj, true
	default:
		return nil, false
	}
}

func field(obj map[string]any, key string, loc *time.Location) (time.Time, error) {
	v, ok := obj[key]
	if !ok || v == nil {
		return time.Time{}, fmt.Errorf("%w: missing %q", ErrInvalidShape, key)
	}
	switch t := v.(type) {
	case time.Time:
		return t, nil
	case string:
		ts, err := ParseTimestamp(t, loc)
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: %q: %v", ErrInvalidShape, key, err)
		}
		return ts, nil
	default:
		return time.Time{}, fmt.Errorf("%w: %q must be a timestamp, got %T", ErrInvalidShape, key, v)
	}
}

// ParseTimestamp parses an RFC 3339 timestamp, or a local timestamp without
// offset interpreted in loc.
func ParseTimestamp(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}
