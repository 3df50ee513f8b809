package asr

import (
	"context"
)

// Fragment is one recognized phrase, timed relative to the start of the
// audio slice it was produced from.
type Fragment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Result is the output of transcribing one audio slice. Fragments are
// non-decreasing in Start.
type Result struct {
	Fragments []Fragment
	Language  string
}

// Options is the per-call transcription configuration shared by all engines.
type Options struct {
	Language      string
	InitialPrompt string
}

// Engine transcribes a mono PCM slice. Implementations load any heavy model
// state lazily on first use and must be safe for concurrent calls: the
// bundled engines run each transcription as an independent OS process or
// HTTP request, so no in-process model state is shared.
type Engine interface {
	Transcribe(ctx context.Context, samples []float32, rate int, opts Options) (Result, error)
}
