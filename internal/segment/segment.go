package segment

// Span is a contiguous range of audio samples, in absolute sample offsets
// into the source buffer. Start <= End always holds for well-formed spans;
// producing anything else is a caller bug, not a recoverable condition.
type Span struct {
	Start int
	End   int
}

// Len returns the span length in samples.
func (s Span) Len() int {
	return s.End - s.Start
}

// RemoveShort drops every span shorter than minLen samples. The comparison is
// strict, so a span exactly minLen long survives. Relative order of the kept
// spans is preserved.
func RemoveShort(spans []Span, minLen int) []Span {
	kept := make([]Span, 0, len(spans))
	for _, s := range spans {
		if s.Len() >= minLen {
			kept = append(kept, s)
		}
	}
	return kept
}

// Expand pads every span by padStart samples before and padEnd samples after,
// clamped to [0, total]. Padding never inverts a span.
func Expand(spans []Span, padStart, padEnd, total int) []Span {
	out := make([]Span, 0, len(spans))
	for _, s := range spans {
		start := s.Start - padStart
		if start < 0 {
			start = 0
		}
		end := s.End + padEnd
		if end > total {
			end = total
		}
		out = append(out, Span{Start: start, End: end})
	}
	return out
}

// MergeAdjacent merges consecutive spans whose gap is at most maxGap samples.
// Input must be sorted by Start; a single pass suffices because merging is
// transitive over adjacent spans. Every gap in the result exceeds maxGap.
func MergeAdjacent(spans []Span, maxGap int) []Span {
	if len(spans) == 0 {
		return nil
	}
	out := make([]Span, 0, len(spans))
	cur := spans[0]
	for _, s := range spans[1:] {
		if s.Start-cur.End <= maxGap {
			if s.End > cur.End {
				cur.End = s.End
			}
			continue
		}
		out = append(out, cur)
		cur = s
	}
	return append(out, cur)
}
