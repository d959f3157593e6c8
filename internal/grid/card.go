package grid

import (
	"strings"

	"github.com/charmbracelet/x/ansi"

	"github.com/conftable/conftable/internal/schedule"
)

const ellipsis = "…"

// cardLines lays out the text of a slot card in height lines of at most width
// cells: the title first, then speakers and locale. With three or fewer lines
// left after the title, speakers and locale share one line.
func cardLines(s *schedule.Slot, height, width int) []string {
	if height <= 0 || width <= 0 {
		return nil
	}

	var speaker, locale string
	if sub := s.Submission(); sub != nil {
		speaker = strings.Join(sub.SpeakerNames(), ", ")
		locale = sub.Locale
	}
	hasMeta := speaker != "" || locale != ""

	budget := height
	if hasMeta && height > 1 {
		budget = height - 1
	}
	lines := wrapText(s.Title(), width, budget)

	remaining := height - len(lines)
	if !hasMeta || remaining <= 0 {
		return lines
	}

	if remaining <= 3 {
		meta := speaker
		switch {
		case meta == "":
			meta = locale
		case locale != "":
			meta += " (" + locale + ")"
		}
		return append(lines, fit(meta, width))
	}

	if speaker != "" {
		lines = append(lines, fit(speaker, width))
	}
	if locale != "" {
		lines = append(lines, fit(locale, width))
	}
	return lines
}

// wrapText word-wraps s into at most maxLines lines of width cells. Words
// wider than a line are split. Cut-off text ends in an ellipsis.
func wrapText(s string, width, maxLines int) []string {
	if width <= 0 || maxLines <= 0 {
		return nil
	}

	words := strings.Fields(s)
	if len(words) == 0 {
		return []string{""}
	}

	var lines []string
	var line string
	for _, word := range words {
		for ansi.StringWidth(word) > width {
			if line != "" {
				lines = append(lines, line)
				line = ""
			}
			lines = append(lines, ansi.Truncate(word, width, ""))
			word = ansi.Cut(word, width, ansi.StringWidth(word))
		}
		if word == "" {
			continue
		}

		switch {
		case line == "":
			line = word
		case ansi.StringWidth(line)+1+ansi.StringWidth(word) <= width:
			line += " " + word
		default:
			lines = append(lines, line)
			line = word
		}
	}
	if line != "" {
		lines = append(lines, line)
	}

	if len(lines) <= maxLines {
		return lines
	}

	lines = lines[:maxLines]
	lines[maxLines-1] = ellipsize(lines[maxLines-1], width)
	return lines
}

// ellipsize marks s as cut off, keeping the result within width cells.
func ellipsize(s string, width int) string {
	if width <= 1 {
		return ellipsis
	}
	return ansi.Truncate(s, width-1, "") + ellipsis
}

// fit truncates s to width cells, ending in an ellipsis when cut.
func fit(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if ansi.StringWidth(s) <= width {
		return s
	}
	return ansi.Truncate(s, width, ellipsis)
}

// pad fits s to exactly width cells.
func pad(s string, width int) string {
	s = fit(s, width)
	if w := ansi.StringWidth(s); w < width {
		s += strings.Repeat(" ", width-w)
	}
	return s
}
