package interval

import (
	"errors"
	"testing"
	"time"

	"gopkg.in/yaml.v3"
)

func TestParse_Shapes(t *testing.T) {
	tests := []struct {
		name string
		raw  any
	}{
		{"not a list", map[string]any{"start": "x"}},
		{"string payload", "2025-06-12T09:00:00Z"},
		{"item not an object", []any{"09:00"}},
		{"missing end", []any{map[string]any{"start": "2025-06-12T09:00:00Z"}}},
		{"missing start", []any{map[string]any{"end": "2025-06-12T09:00:00Z"}}},
		{"unparsable", []any{map[string]any{"start": "soon", "end": "2025-06-12T09:00:00Z"}}},
		{"number", []any{map[string]any{"start": 9, "end": "2025-06-12T09:00:00Z"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.raw, time.UTC)
			if !errors.Is(err, ErrInvalidShape) {
				t.Errorf("expected ErrInvalidShape, got %v", err)
			}
		})
	}
}

func TestParse_LocalTimestamps(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Berlin")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}

	windows, err := Parse([]any{
		map[string]any{"start": "2025-06-12 09:00", "end": "2025-06-12T10:00:00+02:00"},
	}, loc)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(windows) != 1 {
		t.Fatalf("got %d windows, want 1", len(windows))
	}
	want := time.Date(2025, 6, 12, 7, 0, 0, 0, time.UTC)
	if !windows[0].Start.Equal(want) {
		t.Errorf("Start: got %v, want %v", windows[0].Start.UTC(), want)
	}
	if windows[0].Duration() != time.Hour {
		t.Errorf("Duration: got %v, want 1h", windows[0].Duration())
	}
}

func TestNormalize_FromYAML(t *testing.T) {
	payload := `
- start: "2025-06-12T09:00:00Z"
  end: "2025-06-12T10:00:00Z"
- start: "2025-06-12T10:00:00Z"
  end: "2025-06-12T10:30:00Z"
- start: "2025-06-12T07:00:00Z"
  end: "2025-06-12T08:30:00Z"
`
	var raw any
	if err := yaml.Unmarshal([]byte(payload), &raw); err != nil {
		t.Fatalf("yaml: %v", err)
	}

	got, err := Normalize(raw, win(8, 0, 18, 0), time.UTC)
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	assertWindows(t, got, []Window{win(8, 0, 8, 30), win(9, 0, 10, 30)})
}

func TestNormalize_RangeErrors(t *testing.T) {
	bounds := win(8, 0, 18, 0)

	reversed := []any{map[string]any{"start": "2025-06-12T11:00:00Z", "end": "2025-06-12T10:00:00Z"}}
	if _, err := Normalize(reversed, bounds, time.UTC); !errors.Is(err, ErrEmptyWindow) {
		t.Errorf("expected ErrEmptyWindow for reversed window, got %v", err)
	}

	outside := []any{map[string]any{"start": "2025-06-12T19:00:00Z", "end": "2025-06-12T20:00:00Z"}}
	if _, err := Normalize(outside, bounds, time.UTC); !errors.Is(err, ErrEmptyWindow) {
		t.Errorf("expected ErrEmptyWindow for window outside bounds, got %v", err)
	}
}
