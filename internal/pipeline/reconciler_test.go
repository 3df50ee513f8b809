package pipeline

import (
	"math"
	"testing"

	"github.com/sanbuphy/autocut-dev/internal/asr"
	"github.com/sanbuphy/autocut-dev/internal/segment"
	"github.com/sanbuphy/autocut-dev/internal/subtitle"
)

const rate = 16000

func TestBuildSubtitlesContiguousSegments(t *testing.T) {
	// Two segments 0-5s and 5-10s, each fully covered by one fragment:
	// two entries, zero markers, handoff at exactly 5.0s.
	segments := []TranscriptSegment{
		{
			Origin:    segment.Span{Start: 0, End: 5 * rate},
			Fragments: []asr.Fragment{{Start: 0, End: 5, Text: "first"}},
		},
		{
			Origin:    segment.Span{Start: 5 * rate, End: 10 * rate},
			Fragments: []asr.Fragment{{Start: 0, End: 5, Text: "second"}},
		},
	}

	entries := BuildSubtitles(segments, rate)
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2: %v", len(entries), entries)
	}
	for _, e := range entries {
		if e.IsGapMarker() {
			t.Errorf("unexpected gap marker: %v", e)
		}
	}
	if entries[0].End != 5.0 || entries[1].Start != 5.0 {
		t.Errorf("handoff not at exactly 5.0s: %v", entries)
	}
}

func TestBuildSubtitlesClampsToOriginEnd(t *testing.T) {
	// Model claims 6.5s inside a 6s slice; the end must be clamped.
	segments := []TranscriptSegment{
		{
			Origin:    segment.Span{Start: 2 * rate, End: 8 * rate},
			Fragments: []asr.Fragment{{Start: 0.5, End: 6.5, Text: "overrun"}},
		},
	}

	entries := BuildSubtitles(segments, rate)
	var nonMarkers []subtitle.Entry
	for _, e := range entries {
		if !e.IsGapMarker() {
			nonMarkers = append(nonMarkers, e)
		}
	}
	if len(nonMarkers) != 1 {
		t.Fatalf("got %v", entries)
	}
	originEnd := 8.0
	if nonMarkers[0].End > originEnd {
		t.Errorf("end %v exceeds origin end %v", nonMarkers[0].End, originEnd)
	}
	if nonMarkers[0].End != originEnd {
		t.Errorf("end %v, want clamped to %v", nonMarkers[0].End, originEnd)
	}
}

func TestBuildSubtitlesDropsInvertedFragments(t *testing.T) {
	// Fragment starting after its own clamped end is degenerate model
	// output and must be dropped, not emitted inverted.
	segments := []TranscriptSegment{
		{
			Origin: segment.Span{Start: 0, End: 2 * rate},
			Fragments: []asr.Fragment{
				{Start: 2.5, End: 3.0, Text: "beyond the slice"},
				{Start: 0, End: 1, Text: "fine"},
			},
		},
	}

	entries := BuildSubtitles(segments, rate)
	if len(entries) != 1 || entries[0].Text != "fine" {
		t.Errorf("got %v, want only the valid fragment", entries)
	}
}

func TestBuildSubtitlesGapMarker(t *testing.T) {
	segments := []TranscriptSegment{
		{
			Origin:    segment.Span{Start: 0, End: 2 * rate},
			Fragments: []asr.Fragment{{Start: 0, End: 1.5, Text: "a"}},
		},
		{
			Origin:    segment.Span{Start: 10 * rate, End: 12 * rate},
			Fragments: []asr.Fragment{{Start: 0, End: 2, Text: "b"}},
		},
	}

	entries := BuildSubtitles(segments, rate)
	if len(entries) != 3 {
		t.Fatalf("got %d entries, want 3 (a, marker, b): %v", len(entries), entries)
	}
	marker := entries[1]
	if !marker.IsGapMarker() {
		t.Fatalf("middle entry is not a marker: %v", marker)
	}
	if marker.Start != entries[0].End || marker.End != entries[2].Start {
		t.Errorf("marker %v does not span [%v, %v]", marker, entries[0].End, entries[2].Start)
	}
}

func TestBuildSubtitlesNoMarkerForSmallGap(t *testing.T) {
	// A 0.8s gap is under the threshold: no marker.
	segments := []TranscriptSegment{
		{
			Origin:    segment.Span{Start: 0, End: 2 * rate},
			Fragments: []asr.Fragment{{Start: 0, End: 1.0, Text: "a"}},
		},
		{
			Origin:    segment.Span{Start: int(1.8 * rate), End: 3 * rate},
			Fragments: []asr.Fragment{{Start: 0, End: 1, Text: "b"}},
		},
	}

	entries := BuildSubtitles(segments, rate)
	for _, e := range entries {
		if e.IsGapMarker() {
			t.Errorf("unexpected marker for sub-threshold gap: %v", entries)
		}
	}
}

func TestBuildSubtitlesSortsByOrigin(t *testing.T) {
	// Completion order is reversed; reconciliation must still see segments
	// chronologically or the gap scan runs against the wrong predecessor.
	segments := []TranscriptSegment{
		{
			Origin:    segment.Span{Start: 10 * rate, End: 12 * rate},
			Fragments: []asr.Fragment{{Start: 0, End: 2, Text: "late"}},
		},
		{
			Origin:    segment.Span{Start: 0, End: 2 * rate},
			Fragments: []asr.Fragment{{Start: 0, End: 2, Text: "early"}},
		},
	}

	entries := BuildSubtitles(segments, rate)
	var texts []string
	for _, e := range entries {
		if !e.IsGapMarker() {
			texts = append(texts, e.Text)
		}
	}
	if len(texts) != 2 || texts[0] != "early" || texts[1] != "late" {
		t.Fatalf("wrong order: %v", entries)
	}

	// Ordering property: non-decreasing starts, no overlap.
	for i := 1; i < len(entries); i++ {
		if entries[i].Start < entries[i-1].Start {
			t.Errorf("entries not start-sorted: %v", entries)
		}
		if entries[i].Start < entries[i-1].End-1e-9 {
			t.Errorf("overlap between %v and %v", entries[i-1], entries[i])
		}
	}
}

func TestBuildSubtitlesGapProperty(t *testing.T) {
	// For all consecutive non-marker entries with a gap over 1s, a marker
	// spanning exactly [A.end, B.start] must sit between them.
	segments := []TranscriptSegment{
		{
			Origin: segment.Span{Start: 0, End: 30 * rate},
			Fragments: []asr.Fragment{
				{Start: 0, End: 1, Text: "a"},
				{Start: 5, End: 6, Text: "b"},
				{Start: 6.2, End: 7, Text: "c"},
				{Start: 20, End: 21, Text: "d"},
			},
		},
	}

	entries := BuildSubtitles(segments, rate)
	for i := 1; i < len(entries); i++ {
		prev, cur := entries[i-1], entries[i]
		if prev.IsGapMarker() || cur.IsGapMarker() {
			continue
		}
		if cur.Start-prev.End > 1.0+1e-9 {
			t.Errorf("missing marker between %v and %v", prev, cur)
		}
	}

	markers := 0
	for _, e := range entries {
		if e.IsGapMarker() {
			markers++
			if math.Abs(e.End-e.Start) < 1.0 {
				t.Errorf("marker shorter than threshold: %v", e)
			}
		}
	}
	if markers != 2 {
		t.Errorf("expected 2 markers (before b and before d), got %d: %v", markers, entries)
	}
}
