package vad

import (
	"context"
	"math"
	"testing"

	"github.com/sanbuphy/autocut-dev/internal/audio"
	"github.com/sanbuphy/autocut-dev/internal/segment"
)

type stubDetector struct {
	spans []segment.Span
	err   error
	calls int
}

func (s *stubDetector) DetectSpeech(ctx context.Context, buf *audio.Buffer) ([]segment.Span, error) {
	s.calls++
	return s.spans, s.err
}

func testBuffer(seconds float64, rate int) *audio.Buffer {
	return &audio.Buffer{Samples: make([]float32, int(seconds*float64(rate))), Rate: rate}
}

func TestSegmenterCleanup(t *testing.T) {
	rate := 16000
	buf := testBuffer(10, rate)

	// Two long spans close together, one too-short span far away.
	det := &stubDetector{spans: []segment.Span{
		{Start: 0, End: 2 * rate},
		{Start: 2*rate + rate/4, End: 4 * rate}, // 0.25s gap, merges
		{Start: 8 * rate, End: 8*rate + rate/2}, // 0.5s long, dropped
	}}

	seg := NewSegmenter(det)
	got, err := seg.Detect(context.Background(), buf)
	if err != nil {
		t.Fatal(err)
	}

	// Short span dropped, survivors merged into one => fallback to whole buffer.
	want := []segment.Span{buf.Whole()}
	if len(got) != 1 || got[0] != want[0] {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestSegmenterKeepsDistinctSegments(t *testing.T) {
	rate := 16000
	buf := testBuffer(20, rate)

	det := &stubDetector{spans: []segment.Span{
		{Start: 1 * rate, End: 4 * rate},
		{Start: 10 * rate, End: 14 * rate},
	}}

	seg := NewSegmenter(det)
	got, err := seg.Detect(context.Background(), buf)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 segments, got %v", got)
	}

	// Lead padding of 0.2s applied, no tail padding.
	if got[0].Start != 1*rate-rate/5 {
		t.Errorf("first segment start = %d, want %d", got[0].Start, 1*rate-rate/5)
	}
	if got[0].End != 4*rate {
		t.Errorf("first segment end = %d, want %d", got[0].End, 4*rate)
	}
}

func TestSegmenterBoundaryLength(t *testing.T) {
	rate := 16000
	buf := testBuffer(2, rate)

	// Exactly 1.0s long: must survive the strict length filter.
	det := &stubDetector{spans: []segment.Span{{Start: 0, End: rate}}}

	seg := NewSegmenter(det)
	got, err := seg.Detect(context.Background(), buf)
	if err != nil {
		t.Fatal(err)
	}
	// Single survivor triggers the whole-buffer fallback, proving it was kept
	// (an empty cleanup result falls back identically, so check the detector
	// path via a paired span instead).
	if len(got) != 1 {
		t.Fatalf("expected fallback single span, got %v", got)
	}

	det = &stubDetector{spans: []segment.Span{
		{Start: 0, End: rate},                        // exactly 1.0s
		{Start: rate + 4*rate/5, End: 2 * rate},      // 1.8s..2.0s, too short
		{Start: 0, End: 0},
	}}
	spans := segment.RemoveShort(det.spans, rate)
	if len(spans) != 1 || spans[0] != (segment.Span{Start: 0, End: rate}) {
		t.Errorf("strict filter: got %v", spans)
	}
}

func TestEnergyDetector(t *testing.T) {
	rate := 16000
	samples := make([]float32, 4*rate)
	// Loud sine from 1s to 2s, silence elsewhere.
	for i := 1 * rate; i < 2*rate; i++ {
		samples[i] = float32(0.8 * math.Sin(2*math.Pi*440*float64(i)/float64(rate)))
	}
	buf := &audio.Buffer{Samples: samples, Rate: rate}

	det := &Energy{}
	spans, err := det.DetectSpeech(context.Background(), buf)
	if err != nil {
		t.Fatal(err)
	}
	if len(spans) == 0 {
		t.Fatal("expected at least one span")
	}

	// All detected speech should fall inside the loud second, give or take a frame.
	frame := int(0.03 * float64(rate))
	for _, s := range spans {
		if s.Start < 1*rate-frame || s.End > 2*rate+frame {
			t.Errorf("span %v outside the loud region", s)
		}
	}
}
