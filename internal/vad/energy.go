package vad

import (
	"context"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/sanbuphy/autocut-dev/internal/audio"
	"github.com/sanbuphy/autocut-dev/internal/segment"
)

// Energy is a dependency-free speech detector based on frame energy. It is a
// coarse fallback for environments without a python runtime; the silero
// adapter gives noticeably better boundaries.
type Energy struct {
	FrameSec  float64 // analysis frame length, defaults to 0.03
	Threshold float64 // RMS multiplier over the mean frame energy, defaults to 1.5
}

func (e *Energy) frameSec() float64 {
	if e.FrameSec > 0 {
		return e.FrameSec
	}
	return 0.03
}

func (e *Energy) threshold() float64 {
	if e.Threshold > 0 {
		return e.Threshold
	}
	return 1.5
}

// DetectSpeech marks frames whose RMS exceeds a data-derived threshold and
// joins runs of speech frames into spans.
func (e *Energy) DetectSpeech(ctx context.Context, buf *audio.Buffer) ([]segment.Span, error) {
	frameLen := int(e.frameSec() * float64(buf.Rate))
	if frameLen <= 0 || buf.Len() < frameLen {
		return nil, nil
	}

	n := buf.Len() / frameLen
	rms := make([]float64, n)
	for i := 0; i < n; i++ {
		var sum float64
		for _, s := range buf.Samples[i*frameLen : (i+1)*frameLen] {
			sum += float64(s) * float64(s)
		}
		rms[i] = math.Sqrt(sum / float64(frameLen))
	}

	thresh := stat.Mean(rms, nil) * e.threshold()

	var spans []segment.Span
	inSpeech := false
	start := 0
	for i, v := range rms {
		speech := v >= thresh
		if speech && !inSpeech {
			inSpeech = true
			start = i * frameLen
		} else if !speech && inSpeech {
			inSpeech = false
			spans = append(spans, segment.Span{Start: start, End: i * frameLen})
		}
	}
	if inSpeech {
		spans = append(spans, segment.Span{Start: start, End: n * frameLen})
	}
	return spans, nil
}
