package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/sanbuphy/autocut-dev/internal/audio"
	"github.com/sanbuphy/autocut-dev/internal/pipeline"
	"github.com/sanbuphy/autocut-dev/internal/segment"
)

// transcribeParallel fans all segments out to a fixed-size pool and gathers
// the results under a mutex. Workers already running are not cancelled by a
// sibling's failure beyond the errgroup's context cancellation; the first
// error is surfaced after the pool joins.
func (d *Dispatcher) transcribeParallel(ctx context.Context, buf *audio.Buffer, spans []segment.Span) ([]pipeline.TranscriptSegment, error) {
	slog.Info("starting parallel transcription",
		"segments", len(spans), "workers", d.workers())

	var (
		mu      sync.Mutex
		results []pipeline.TranscriptSegment
		done    int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.workers())

	for i, span := range spans {
		i, span := i, span
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}

			res, err := d.Engine.Transcribe(gctx, buf.Slice(span), buf.Rate, d.Opts)
			if err != nil {
				return fmt.Errorf("segment %d/%d failed: %w", i+1, len(spans), err)
			}

			mu.Lock()
			results = append(results, pipeline.TranscriptSegment{
				Origin:    span,
				Fragments: res.Fragments,
			})
			done++
			completed := done
			mu.Unlock()

			slog.Info("segment completed",
				"progress", fmt.Sprintf("%d/%d", completed, len(spans)))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
