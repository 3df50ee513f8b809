package pipeline

import (
	"sort"

	"github.com/sanbuphy/autocut-dev/internal/subtitle"
)

// gapThreshold is the silence length, in seconds, above which a synthetic
// marker entry is emitted so the gap stays visible during manual editing.
const gapThreshold = 1.0

// BuildSubtitles stitches per-segment transcripts into one global subtitle
// timeline. Segments are sorted by origin start first, so the gap scan works
// regardless of dispatch completion order.
//
// Fragment times are mapped to media time by adding the segment's origin
// offset; the end is clamped to the origin's own end because recognition
// models occasionally claim time past the audio they were given. Fragments
// inverted after clamping are dropped. Whenever a fragment starts more than
// gapThreshold after the previous emitted end, a marker entry spanning the
// silence is inserted first. Indices are left zero; they are positional and
// assigned at serialization.
func BuildSubtitles(segments []TranscriptSegment, rate int) []subtitle.Entry {
	ordered := make([]TranscriptSegment, len(segments))
	copy(ordered, segments)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Origin.Start < ordered[j].Origin.Start
	})

	var entries []subtitle.Entry
	prevEnd := 0.0

	for _, seg := range ordered {
		offset := float64(seg.Origin.Start) / float64(rate)
		originEnd := float64(seg.Origin.End) / float64(rate)

		for _, f := range seg.Fragments {
			start := f.Start + offset
			end := f.End + offset
			if end > originEnd {
				end = originEnd
			}
			if start > end {
				continue
			}

			if start > prevEnd+gapThreshold {
				entries = append(entries, subtitle.Entry{
					Start: prevEnd,
					End:   start,
					Text:  subtitle.GapMarker,
				})
			}

			entries = append(entries, subtitle.Entry{
				Start: start,
				End:   end,
				Text:  f.Text,
			})
			prevEnd = end
		}
	}
	return entries
}
