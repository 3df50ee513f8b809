package audio

import (
	"github.com/sanbuphy/autocut-dev/internal/segment"
)

// DefaultSampleRate is the mono PCM rate the pipeline works at.
const DefaultSampleRate = 16000

// Buffer holds one input file's decoded audio: mono float32 PCM at a fixed
// sample rate. It is created once per file and never mutated; Slice returns
// views into the same backing array.
type Buffer struct {
	Samples []float32
	Rate    int
}

// Len returns the number of samples.
func (b *Buffer) Len() int {
	return len(b.Samples)
}

// Duration returns the buffer length in seconds.
func (b *Buffer) Duration() float64 {
	if b.Rate == 0 {
		return 0
	}
	return float64(len(b.Samples)) / float64(b.Rate)
}

// Seconds converts an absolute sample offset to seconds.
func (b *Buffer) Seconds(offset int) float64 {
	return float64(offset) / float64(b.Rate)
}

// Slice returns the samples covered by span. The span must lie within the
// buffer; out-of-range spans are an upstream bug.
func (b *Buffer) Slice(s segment.Span) []float32 {
	return b.Samples[s.Start:s.End]
}

// Whole returns a span covering the entire buffer.
func (b *Buffer) Whole() segment.Span {
	return segment.Span{Start: 0, End: len(b.Samples)}
}
