package interval

import (
	"errors"
	"math/rand"
	"testing"
	"time"
)

var day = time.Date(2025, 6, 12, 0, 0, 0, 0, time.UTC)

// at returns the test day at hh:mm.
func at(hh, mm int) time.Time {
	return day.Add(time.Duration(hh)*time.Hour + time.Duration(mm)*time.Minute)
}

func win(h1, m1, h2, m2 int) Window {
	return Window{Start: at(h1, m1), End: at(h2, m2)}
}

func assertWindows(t *testing.T, got, want []Window) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d windows %v, want %d %v", len(got), got, len(want), want)
	}
	for i := range got {
		if !got[i].Equal(want[i]) {
			t.Errorf("window %d: got %v, want %v", i, got[i], want[i])
		}
	}
}

func TestMerge(t *testing.T) {
	tests := []struct {
		name  string
		input []Window
		want  []Window
	}{
		{"empty", nil, nil},
		{"single", []Window{win(9, 0, 10, 0)}, []Window{win(9, 0, 10, 0)}},
		{
			"touching windows fuse",
			[]Window{win(9, 0, 10, 0), win(10, 0, 10, 30), win(13, 0, 14, 0)},
			[]Window{win(9, 0, 10, 30), win(13, 0, 14, 0)},
		},
		{
			"unsorted overlapping",
			[]Window{win(13, 0, 15, 0), win(9, 0, 11, 0), win(10, 0, 10, 30), win(14, 0, 16, 0)},
			[]Window{win(9, 0, 11, 0), win(13, 0, 16, 0)},
		},
		{
			"degenerate dropped",
			[]Window{win(9, 0, 9, 0), win(11, 0, 10, 0), win(12, 0, 13, 0)},
			[]Window{win(12, 0, 13, 0)},
		},
		{
			"contained",
			[]Window{win(9, 0, 17, 0), win(10, 0, 11, 0)},
			[]Window{win(9, 0, 17, 0)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertWindows(t, Merge(tt.input), tt.want)
		})
	}
}

func TestInvert(t *testing.T) {
	bounds := win(8, 0, 18, 0)
	tests := []struct {
		name string
		busy []Window
		want []Window
	}{
		{"no busy time", nil, []Window{bounds}},
		{"exact cover", []Window{bounds}, nil},
		{
			"gaps around and between",
			[]Window{win(9, 0, 10, 30), win(13, 0, 14, 0)},
			[]Window{win(8, 0, 9, 0), win(10, 30, 13, 0), win(14, 0, 18, 0)},
		},
		{
			"touching busy windows leave no zero gap",
			[]Window{win(9, 0, 10, 0), win(10, 0, 11, 0)},
			[]Window{win(8, 0, 9, 0), win(11, 0, 18, 0)},
		},
		{
			"busy outside bounds",
			[]Window{win(6, 0, 7, 0), win(7, 30, 8, 30), win(17, 30, 19, 0)},
			[]Window{win(8, 30, 17, 30)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertWindows(t, Invert(tt.busy, bounds), tt.want)
		})
	}
}

func TestClip(t *testing.T) {
	bounds := win(8, 0, 18, 0)

	got, err := Clip(win(7, 0, 9, 0), bounds)
	if err != nil {
		t.Fatalf("Clip failed: %v", err)
	}
	if !got.Equal(win(8, 0, 9, 0)) {
		t.Errorf("got %v, want 08:00-09:00", got)
	}

	got, err = Clip(win(17, 0, 20, 0), bounds)
	if err != nil {
		t.Fatalf("Clip failed: %v", err)
	}
	if !got.Equal(win(17, 0, 18, 0)) {
		t.Errorf("got %v, want 17:00-18:00", got)
	}

	if _, err := Clip(win(19, 0, 20, 0), bounds); !errors.Is(err, ErrEmptyWindow) {
		t.Errorf("expected ErrEmptyWindow for window outside bounds, got %v", err)
	}
	if _, err := Clip(win(10, 0, 9, 0), bounds); !errors.Is(err, ErrEmptyWindow) {
		t.Errorf("expected ErrEmptyWindow for reversed window, got %v", err)
	}
}

func TestIntersect(t *testing.T) {
	room := []Window{win(9, 0, 12, 0), win(13, 0, 17, 0)}
	speaker := []Window{win(11, 0, 14, 0), win(16, 30, 18, 0)}

	want := []Window{win(11, 0, 12, 0), win(13, 0, 14, 0), win(16, 30, 17, 0)}
	assertWindows(t, Intersect(room, speaker), want)
	assertWindows(t, Intersect(speaker, room), want)

	if got := Intersect(room, nil); got != nil {
		t.Errorf("expected no intersection with empty set, got %v", got)
	}
}

func TestScenarioMergeThenInvert(t *testing.T) {
	input := []Window{win(9, 0, 10, 0), win(10, 0, 10, 30), win(13, 0, 14, 0)}
	bounds := win(8, 0, 18, 0)

	merged := Merge(input)
	assertWindows(t, merged, []Window{win(9, 0, 10, 30), win(13, 0, 14, 0)})
	assertWindows(t, Invert(merged, bounds), []Window{win(8, 0, 9, 0), win(10, 30, 13, 0), win(14, 0, 18, 0)})
}

func randomWindows(r *rand.Rand, n int) []Window {
	ws := make([]Window, n)
	for i := range ws {
		start := r.Intn(24 * 12)
		length := r.Intn(36) - 2 // a few degenerate windows
		ws[i] = Window{
			Start: day.Add(time.Duration(start*5) * time.Minute),
			End:   day.Add(time.Duration((start+length)*5) * time.Minute),
		}
	}
	return ws
}

func covers(ws []Window, t time.Time) bool {
	for _, w := range ws {
		if !t.Before(w.Start) && t.Before(w.End) {
			return true
		}
	}
	return false
}

func TestMergeProperties(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	for iter := 0; iter < 200; iter++ {
		input := randomWindows(r, r.Intn(12))
		merged := Merge(input)

		assertWindows(t, Merge(merged), merged)

		for i := 1; i < len(merged); i++ {
			if !merged[i].Start.After(merged[i-1].End) {
				t.Fatalf("windows %v and %v overlap or touch", merged[i-1], merged[i])
			}
		}

		// Sample every 5 minutes; the union must be identical.
		for m := 0; m < 27*60; m += 5 {
			ts := day.Add(time.Duration(m) * time.Minute)
			if covers(input, ts) != covers(merged, ts) {
				t.Fatalf("coverage differs at %s for input %v", ts.Format("15:04"), input)
			}
		}
	}
}

func TestInvertRoundTrip(t *testing.T) {
	bounds := win(6, 0, 22, 0)
	r := rand.New(rand.NewSource(7))
	for iter := 0; iter < 200; iter++ {
		var inside []Window
		for _, w := range Merge(randomWindows(r, r.Intn(10))) {
			if c, err := Clip(w, bounds); err == nil {
				inside = append(inside, c)
			}
		}
		busy := Merge(inside)
		free := Invert(busy, bounds)

		all := append(append([]Window{}, busy...), free...)
		if Covered(all) != bounds.Duration() {
			t.Fatalf("busy+free covers %v, want %v", Covered(all), bounds.Duration())
		}
		var sum time.Duration
		for _, w := range all {
			sum += w.Duration()
		}
		if sum != bounds.Duration() {
			t.Fatalf("busy and free overlap: total %v, want %v", sum, bounds.Duration())
		}
		assertWindows(t, Merge(all), []Window{bounds})
	}
}

func TestClipNeverInverts(t *testing.T) {
	bounds := win(8, 0, 18, 0)
	r := rand.New(rand.NewSource(3))
	for iter := 0; iter < 500; iter++ {
		for _, w := range randomWindows(r, 1) {
			got, err := Clip(w, bounds)
			if err != nil {
				continue
			}
			if got.Start.After(got.End) {
				t.Fatalf("clip produced inverted window %v from %v", got, w)
			}
			if got.Start.Before(bounds.Start) || got.End.After(bounds.End) {
				t.Fatalf("clip left %v outside bounds", got)
			}
		}
	}
}

func TestWindowString(t *testing.T) {
	if got, want := win(9, 0, 10, 30).String(), "2025-06-12 09:00-10:30"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
