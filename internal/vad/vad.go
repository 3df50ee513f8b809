package vad

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sanbuphy/autocut-dev/internal/audio"
	"github.com/sanbuphy/autocut-dev/internal/segment"
)

// Detector finds raw speech spans in an audio buffer. Spans are returned in
// absolute sample offsets, sorted by start.
type Detector interface {
	DetectSpeech(ctx context.Context, buf *audio.Buffer) ([]segment.Span, error)
}

// Settings controls the post-detection cleanup, all values in seconds.
type Settings struct {
	MinSpeech float64 // drop speech spans shorter than this
	PadStart  float64 // lead padding to avoid tight cuts
	PadEnd    float64 // tail padding
	MergeGap  float64 // merge spans separated by at most this
}

// DefaultSettings matches the tuned cleanup values: 1 s minimum speech,
// 0.2 s lead pad, no tail pad, 0.5 s merge gap.
func DefaultSettings() Settings {
	return Settings{
		MinSpeech: 1.0,
		PadStart:  0.2,
		PadEnd:    0.0,
		MergeGap:  0.5,
	}
}

// Segmenter turns raw detector output into a cleaned, ordered segment list.
type Segmenter struct {
	Detector Detector
	Settings Settings
}

func NewSegmenter(d Detector) *Segmenter {
	return &Segmenter{Detector: d, Settings: DefaultSettings()}
}

// Detect runs voice activity detection over the whole buffer and cleans the
// result: short spans dropped, survivors padded within buffer bounds, near
// neighbors merged. If fewer than two spans remain the whole buffer is
// returned as a single span, so degenerate VAD output never suppresses
// segment-level processing downstream.
func (s *Segmenter) Detect(ctx context.Context, buf *audio.Buffer) ([]segment.Span, error) {
	tic := time.Now()

	spans, err := s.Detector.DetectSpeech(ctx, buf)
	if err != nil {
		return nil, fmt.Errorf("detect speech: %w", err)
	}

	rate := float64(buf.Rate)
	spans = segment.RemoveShort(spans, int(s.Settings.MinSpeech*rate))
	spans = segment.Expand(spans,
		int(s.Settings.PadStart*rate),
		int(s.Settings.PadEnd*rate),
		buf.Len(),
	)
	spans = segment.MergeAdjacent(spans, int(s.Settings.MergeGap*rate))

	slog.Info("voice activity detection done",
		"segments", len(spans),
		"elapsed", fmt.Sprintf("%.1fs", time.Since(tic).Seconds()))

	if len(spans) <= 1 {
		return []segment.Span{buf.Whole()}, nil
	}
	return spans, nil
}
