package pipeline

import (
	"github.com/sanbuphy/autocut-dev/internal/asr"
	"github.com/sanbuphy/autocut-dev/internal/segment"
)

// TranscriptSegment is the result of transcribing the audio sliced by one
// span. Fragment timestamps are relative to Origin.Start; Origin carries the
// absolute sample offsets needed to map them back to media time.
type TranscriptSegment struct {
	Origin    segment.Span
	Fragments []asr.Fragment
}
