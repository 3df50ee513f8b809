package worker

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sanbuphy/autocut-dev/internal/audio"
	"github.com/sanbuphy/autocut-dev/internal/pipeline"
	"github.com/sanbuphy/autocut-dev/internal/segment"
)

// transcribeSequential processes spans one at a time, in input order.
func (d *Dispatcher) transcribeSequential(ctx context.Context, buf *audio.Buffer, spans []segment.Span) ([]pipeline.TranscriptSegment, error) {
	results := make([]pipeline.TranscriptSegment, 0, len(spans))

	for i, span := range spans {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		if len(spans) > 1 {
			slog.Info("transcribing segment",
				"segment", fmt.Sprintf("%d/%d", i+1, len(spans)),
				"start", fmt.Sprintf("%.1fs", buf.Seconds(span.Start)))
		}

		res, err := d.Engine.Transcribe(ctx, buf.Slice(span), buf.Rate, d.Opts)
		if err != nil {
			return nil, fmt.Errorf("segment %d/%d failed: %w", i+1, len(spans), err)
		}

		results = append(results, pipeline.TranscriptSegment{
			Origin:    span,
			Fragments: res.Fragments,
		})
	}

	return results, nil
}
