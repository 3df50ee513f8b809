package worker

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sanbuphy/autocut-dev/internal/asr"
	"github.com/sanbuphy/autocut-dev/internal/audio"
	"github.com/sanbuphy/autocut-dev/internal/config"
	"github.com/sanbuphy/autocut-dev/internal/document"
	"github.com/sanbuphy/autocut-dev/internal/ffmpeg"
	"github.com/sanbuphy/autocut-dev/internal/pipeline"
	"github.com/sanbuphy/autocut-dev/internal/segment"
	"github.com/sanbuphy/autocut-dev/internal/subtitle"
	"github.com/sanbuphy/autocut-dev/internal/vad"
)

// Runner drives the per-file pipeline. The transcription engine and the
// voice activity detector are process-wide resources: built once on first
// use, reused across all inputs, and injectable for tests.
type Runner struct {
	Cfg *config.Config

	Engine   asr.Engine
	Detector vad.Detector
	Decode   func(ctx context.Context, path string, rate int) ([]float32, error)
}

// Run processes every input in order. A failing input is logged and the
// batch continues; the error returned at the end reports how many failed.
func (r *Runner) Run(ctx context.Context, inputs []string) error {
	failed := 0
	for _, input := range inputs {
		if err := r.runOne(ctx, input); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			slog.Error("transcription failed", "input", input, "err", err)
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d inputs failed", failed, len(inputs))
	}
	return nil
}

func (r *Runner) runOne(ctx context.Context, input string) error {
	name := strings.TrimSuffix(input, filepath.Ext(input))

	// Idempotence gate: the sentence document is the last artifact written,
	// so its presence means a previous run completed.
	if !r.Cfg.Force {
		if _, err := os.Stat(name + ".md"); err == nil {
			slog.Info("output exists, skipping (use --force to overwrite)", "input", input)
			return nil
		}
	}

	slog.Info("transcribing", "input", input)
	ffmpeg.LogMediaInfo(ctx, input)

	decode := r.Decode
	if decode == nil {
		decode = ffmpeg.DecodePCM
	}
	samples, err := decode(ctx, input, r.Cfg.SampleRate)
	if err != nil {
		return fmt.Errorf("load audio: %w", err)
	}
	buf := &audio.Buffer{Samples: samples, Rate: r.Cfg.SampleRate}

	var spans []segment.Span
	if vadEnabled(r.Cfg.VADMode, name) {
		segmenter := &vad.Segmenter{
			Detector: r.detector(),
			Settings: vad.Settings{
				MinSpeech: r.Cfg.VAD.MinSpeech,
				PadStart:  r.Cfg.VAD.PadStart,
				PadEnd:    r.Cfg.VAD.PadEnd,
				MergeGap:  r.Cfg.VAD.MergeGap,
			},
		}
		spans, err = segmenter.Detect(ctx, buf)
		if err != nil {
			return err
		}
	} else {
		spans = []segment.Span{buf.Whole()}
	}

	tic := time.Now()
	dispatcher := &Dispatcher{
		Engine: r.engine(),
		Opts: asr.Options{
			Language:      r.Cfg.Language,
			InitialPrompt: r.Cfg.Prompt,
		},
		CPUBound: r.Cfg.ASR.Engine == "whisper" && r.Cfg.ASR.Device == "cpu",
		Workers:  r.Cfg.Workers,
	}
	segments, err := dispatcher.TranscribeAll(ctx, buf, spans)
	if err != nil {
		return err
	}
	slog.Info("transcription done",
		"segments", len(segments),
		"elapsed", fmt.Sprintf("%.1fs", time.Since(tic).Seconds()))

	entries := pipeline.BuildSubtitles(segments, buf.Rate)

	srtPath := name + ".srt"
	if err := subtitle.WriteFile(srtPath, entries, r.Cfg.Encoding); err != nil {
		return err
	}
	slog.Info("subtitles saved", "output", srtPath)

	// The markdown documents are derived from the subtitle file rather than
	// the in-memory entries, so re-running document generation against an
	// edited SRT stays possible.
	written, err := subtitle.ReadFile(srtPath, r.Cfg.Encoding)
	if err != nil {
		return err
	}

	mdPath := name + ".md"
	if err := document.WriteSentenceDoc(mdPath, filepath.Base(srtPath),
		filepath.Base(input), written, r.Cfg.Encoding); err != nil {
		return err
	}
	if err := document.WriteFullTextDoc(name+"_full_text.md",
		filepath.Base(input), written, r.Cfg.Encoding); err != nil {
		return err
	}
	slog.Info("documents saved", "sentences", mdPath, "full_text", name+"_full_text.md")
	return nil
}

// vadEnabled decides whether voice activity segmentation runs: "1" always,
// "0" never, "auto" unless the input basename marks already pre-cut media.
func vadEnabled(mode, name string) bool {
	switch mode {
	case config.VADOn:
		return true
	case config.VADOff:
		return false
	default:
		return !strings.HasSuffix(name, "_cut")
	}
}

func (r *Runner) engine() asr.Engine {
	if r.Engine == nil {
		if r.Cfg.ASR.Engine == "server" {
			r.Engine = asr.NewServer(
				r.Cfg.ASR.ServerURL,
				r.Cfg.ASR.ServerAPIKey,
				r.Cfg.ASR.ServerModel,
				r.Cfg.ASR.ServerRPM,
			)
		} else {
			r.Engine = &asr.WhisperCLI{
				Model:  r.Cfg.ASR.WhisperModel,
				Device: r.Cfg.ASR.Device,
			}
		}
	}
	return r.Engine
}

func (r *Runner) detector() vad.Detector {
	if r.Detector == nil {
		if r.Cfg.VAD.Backend == "energy" {
			r.Detector = &vad.Energy{}
		} else {
			r.Detector = &vad.Silero{Python: r.Cfg.PythonBin}
		}
	}
	return r.Detector
}
