package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sanbuphy/autocut-dev/internal/asr"
	"github.com/sanbuphy/autocut-dev/internal/audio"
	"github.com/sanbuphy/autocut-dev/internal/segment"
)

// fakeEngine labels each result with the slice length so tests can map
// results back to their origin span. Safe for concurrent use.
type fakeEngine struct {
	mu       sync.Mutex
	calls    int
	inFlight int32
	maxSeen  int32
	delay    time.Duration
	failLen  int // slice length that triggers an error, 0 disables
}

func (f *fakeEngine) Transcribe(ctx context.Context, samples []float32, rate int, opts asr.Options) (asr.Result, error) {
	cur := atomic.AddInt32(&f.inFlight, 1)
	defer atomic.AddInt32(&f.inFlight, -1)
	for {
		seen := atomic.LoadInt32(&f.maxSeen)
		if cur <= seen || atomic.CompareAndSwapInt32(&f.maxSeen, seen, cur) {
			break
		}
	}

	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.failLen > 0 && len(samples) == f.failLen {
		return asr.Result{}, errors.New("model blew up")
	}
	return asr.Result{
		Fragments: []asr.Fragment{
			{Start: 0, End: float64(len(samples)) / float64(rate), Text: fmt.Sprintf("len=%d", len(samples))},
		},
	}, nil
}

func bufferOf(seconds int, rate int) *audio.Buffer {
	return &audio.Buffer{Samples: make([]float32, seconds*rate), Rate: rate}
}

func spansOf(rate int, bounds ...int) []segment.Span {
	var spans []segment.Span
	for i := 0; i+1 < len(bounds); i += 2 {
		spans = append(spans, segment.Span{Start: bounds[i] * rate, End: bounds[i+1] * rate})
	}
	return spans
}

func TestTranscribeAllSequential(t *testing.T) {
	rate := 16000
	buf := bufferOf(30, rate)
	spans := spansOf(rate, 0, 5, 10, 12, 20, 29)

	eng := &fakeEngine{}
	d := &Dispatcher{Engine: eng, CPUBound: false}

	got, err := d.TranscribeAll(context.Background(), buf, spans)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 || eng.calls != 3 {
		t.Fatalf("got %d results, %d calls", len(got), eng.calls)
	}
	for i := range got {
		if got[i].Origin != spans[i] {
			t.Errorf("result %d origin %v, want %v", i, got[i].Origin, spans[i])
		}
	}
	if eng.maxSeen != 1 {
		t.Errorf("sequential mode ran %d transcriptions at once", eng.maxSeen)
	}
}

func TestTranscribeAllParallelSortedByOrigin(t *testing.T) {
	rate := 16000
	buf := bufferOf(60, rate)
	// Six spans with distinct lengths, so completion order scrambles.
	spans := spansOf(rate, 0, 6, 10, 11, 20, 23, 30, 32, 40, 45, 50, 51)

	eng := &fakeEngine{delay: 5 * time.Millisecond}
	d := &Dispatcher{Engine: eng, CPUBound: true}

	got, err := d.TranscribeAll(context.Background(), buf, spans)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != len(spans) {
		t.Fatalf("got %d results, want %d", len(got), len(spans))
	}
	for i := 1; i < len(got); i++ {
		if got[i].Origin.Start < got[i-1].Origin.Start {
			t.Fatalf("results not sorted by origin: %v then %v", got[i-1].Origin, got[i].Origin)
		}
	}
	if eng.maxSeen > defaultWorkers {
		t.Errorf("pool exceeded %d workers: saw %d", defaultWorkers, eng.maxSeen)
	}
}

func TestTranscribeAllSingleSpanStaysSequential(t *testing.T) {
	rate := 16000
	buf := bufferOf(10, rate)
	spans := []segment.Span{buf.Whole()}

	eng := &fakeEngine{}
	d := &Dispatcher{Engine: eng, CPUBound: true}

	got, err := d.TranscribeAll(context.Background(), buf, spans)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || eng.calls != 1 {
		t.Fatalf("got %d results, %d calls, want 1/1", len(got), eng.calls)
	}
	if got[0].Origin != (segment.Span{Start: 0, End: 10 * rate}) {
		t.Errorf("origin %v, want whole buffer", got[0].Origin)
	}
}

func TestTranscribeAllSegmentFailureIsFatal(t *testing.T) {
	rate := 16000
	buf := bufferOf(30, rate)
	spans := spansOf(rate, 0, 5, 10, 12, 20, 29)

	eng := &fakeEngine{failLen: 2 * rate} // the 10..12 span fails
	d := &Dispatcher{Engine: eng, CPUBound: true}

	if _, err := d.TranscribeAll(context.Background(), buf, spans); err == nil {
		t.Fatal("expected error when a segment fails")
	}
}
