package asr

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sanbuphy/autocut-dev/internal/ffmpeg"
)

// WhisperCLI runs a local whisper command per transcription. Each call writes
// the slice to its own temp WAV, so concurrent calls never collide.
type WhisperCLI struct {
	Binary string // defaults to "whisper"
	Model  string // model name, e.g. "small"
	Device string // "cpu" or "cuda"

	lookOnce sync.Once
	lookErr  error
	binary   string
}

// whisperOutput mirrors the CLI's JSON result. Timestamps come back as JSON
// numbers; decimal keeps full precision before the second→float conversion.
type whisperOutput struct {
	Language string `json:"language"`
	Segments []struct {
		Start decimal.Decimal `json:"start"`
		End   decimal.Decimal `json:"end"`
		Text  string          `json:"text"`
	} `json:"segments"`
}

func (w *WhisperCLI) locate() {
	w.binary = w.Binary
	if w.binary == "" {
		w.binary = "whisper"
	}
	if _, err := exec.LookPath(w.binary); err != nil {
		w.lookErr = fmt.Errorf("whisper binary %q not found: %w", w.binary, err)
	}
}

func (w *WhisperCLI) Transcribe(ctx context.Context, samples []float32, rate int, opts Options) (Result, error) {
	w.lookOnce.Do(w.locate)
	if w.lookErr != nil {
		return Result{}, w.lookErr
	}

	workDir, err := os.MkdirTemp("", "autocut_asr_")
	if err != nil {
		return Result{}, fmt.Errorf("create work dir: %w", err)
	}
	defer os.RemoveAll(workDir)

	wavPath := filepath.Join(workDir, uuid.NewString()+".wav")
	if err := ffmpeg.WriteWAVFile(wavPath, samples, rate); err != nil {
		return Result{}, err
	}

	args := []string{
		wavPath,
		"--task", "transcribe",
		"--output_format", "json",
		"--output_dir", workDir,
		"--verbose", "False",
	}
	if w.Model != "" {
		args = append(args, "--model", w.Model)
	}
	if w.Device != "" {
		args = append(args, "--device", w.Device)
	}
	if opts.Language != "" && !strings.EqualFold(opts.Language, "auto") {
		args = append(args, "--language", opts.Language)
	}
	if opts.InitialPrompt != "" {
		args = append(args, "--initial_prompt", opts.InitialPrompt)
	}

	cmd := exec.CommandContext(ctx, w.binary, args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return Result{}, fmt.Errorf("whisper failed: %w\n%s", err, strings.TrimSpace(string(out)))
	}

	jsonPath := strings.TrimSuffix(wavPath, ".wav") + ".json"
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		return Result{}, fmt.Errorf("read whisper result: %w", err)
	}
	return parseWhisperJSON(data)
}

func parseWhisperJSON(data []byte) (Result, error) {
	var out whisperOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return Result{}, fmt.Errorf("decode whisper json: %w", err)
	}

	res := Result{Language: out.Language, Fragments: make([]Fragment, 0, len(out.Segments))}
	for _, s := range out.Segments {
		res.Fragments = append(res.Fragments, Fragment{
			Start: s.Start.InexactFloat64(),
			End:   s.End.InexactFloat64(),
			Text:  s.Text,
		})
	}
	return res, nil
}
