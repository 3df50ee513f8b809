package worker

import (
	"context"
	"sort"

	"github.com/sanbuphy/autocut-dev/internal/asr"
	"github.com/sanbuphy/autocut-dev/internal/audio"
	"github.com/sanbuphy/autocut-dev/internal/pipeline"
	"github.com/sanbuphy/autocut-dev/internal/segment"
)

// defaultWorkers is the transcription pool size in parallel mode.
const defaultWorkers = 4

// Dispatcher fans segments out to the transcription engine. Parallel mode is
// used only when the engine runs CPU-bound and more than one segment exists;
// on an accelerator the workers would just fight over one device.
type Dispatcher struct {
	Engine   asr.Engine
	Opts     asr.Options
	CPUBound bool
	Workers  int
}

func (d *Dispatcher) workers() int {
	if d.Workers > 0 {
		return d.Workers
	}
	return defaultWorkers
}

// TranscribeAll transcribes every span's slice of buf and returns the
// transcript segments sorted by origin start, so downstream reconciliation
// always sees chronological order no matter which mode ran or in which order
// parallel workers finished. Any segment failure fails the whole call:
// subtitle stitching needs every segment.
func (d *Dispatcher) TranscribeAll(ctx context.Context, buf *audio.Buffer, spans []segment.Span) ([]pipeline.TranscriptSegment, error) {
	var (
		results []pipeline.TranscriptSegment
		err     error
	)
	if d.CPUBound && len(spans) > 1 {
		results, err = d.transcribeParallel(ctx, buf, spans)
	} else {
		results, err = d.transcribeSequential(ctx, buf, spans)
	}
	if err != nil {
		return nil, err
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Origin.Start < results[j].Origin.Start
	})
	return results, nil
}
