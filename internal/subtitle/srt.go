package subtitle

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// GapMarker is the text of synthetic entries that make silence visible in
// the editable documents.
const GapMarker = "< No Speech >"

// Entry is one subtitle block in global media time. Index is positional and
// assigned at composition time, not during pipeline construction.
type Entry struct {
	Index int
	Start float64
	End   float64
	Text  string
}

// IsGapMarker reports whether the entry is a synthetic silence marker.
func (e Entry) IsGapMarker() bool {
	return strings.TrimSpace(e.Text) == GapMarker
}

// formatSRTTime converts seconds to SRT time format HH:MM:SS,mmm.
func formatSRTTime(seconds float64) string {
	totalSec := math.Abs(seconds)
	hours := int(totalSec / 3600)
	remainder := math.Mod(totalSec, 3600)
	minutes := int(remainder / 60)
	secs := math.Mod(remainder, 60)
	millis := int(math.Round(math.Mod(secs, 1) * 1000))
	if millis == 1000 {
		millis = 0
		secs++
		if int(secs) == 60 {
			secs = 0
			minutes++
			if minutes == 60 {
				minutes = 0
				hours++
			}
		}
	}
	return fmt.Sprintf("%02d:%02d:%02d,%03d", hours, minutes, int(secs), millis)
}

// parseSRTTime parses HH:MM:SS,mmm into seconds.
func parseSRTTime(s string) (float64, error) {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, ".", ",")
	var h, m, sec, ms int
	if _, err := fmt.Sscanf(s, "%d:%d:%d,%d", &h, &m, &sec, &ms); err != nil {
		return 0, fmt.Errorf("bad SRT timestamp %q: %w", s, err)
	}
	return float64(h)*3600 + float64(m)*60 + float64(sec) + float64(ms)/1000, nil
}

// Compose renders entries as SRT text. Indices are assigned sequentially
// from 1 in slice order.
func Compose(entries []Entry) string {
	if len(entries) == 0 {
		return ""
	}

	var sb strings.Builder
	for i, entry := range entries {
		fmt.Fprintf(&sb, "%d\n%s --> %s\n%s\n",
			i+1, formatSRTTime(entry.Start), formatSRTTime(entry.End),
			strings.TrimSpace(entry.Text))
		if i < len(entries)-1 {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

// Parse reads SRT text back into entries. Tolerates CRLF line endings and
// multi-line subtitle text.
func Parse(r io.Reader) ([]Entry, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	var entries []Entry
	var cur *Entry
	var textLines []string

	flush := func() {
		if cur != nil {
			cur.Text = strings.Join(textLines, "\n")
			entries = append(entries, *cur)
			cur = nil
			textLines = nil
		}
	}

	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")

		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}

		if cur == nil {
			idx, err := strconv.Atoi(strings.TrimSpace(line))
			if err != nil {
				return nil, fmt.Errorf("expected subtitle index, got %q", line)
			}
			if !scanner.Scan() {
				return nil, fmt.Errorf("unexpected end of input after index %d", idx)
			}
			timing := strings.TrimRight(scanner.Text(), "\r")
			parts := strings.Split(timing, "-->")
			if len(parts) != 2 {
				return nil, fmt.Errorf("bad timing line %q", timing)
			}
			start, err := parseSRTTime(parts[0])
			if err != nil {
				return nil, err
			}
			end, err := parseSRTTime(parts[1])
			if err != nil {
				return nil, err
			}
			cur = &Entry{Index: idx, Start: start, End: end}
			continue
		}

		textLines = append(textLines, line)
	}
	flush()

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read SRT: %w", err)
	}
	return entries, nil
}
