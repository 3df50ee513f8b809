package vad

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/sanbuphy/autocut-dev/internal/audio"
	"github.com/sanbuphy/autocut-dev/internal/ffmpeg"
	"github.com/sanbuphy/autocut-dev/internal/segment"
)

//go:embed assets/silero_vad.py
var sileroScript []byte

// Silero runs the silero-vad model through an embedded python helper. The
// helper is materialized and the interpreter located once per process; the
// model itself is loaded (and cached) inside the helper by torch.hub.
type Silero struct {
	Python string // interpreter override, defaults to $AUTOCUT_PY or python3

	initOnce   sync.Once
	initErr    error
	scriptPath string
	python     string
}

type sileroSpan struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

func (s *Silero) init() {
	s.python = s.Python
	if s.python == "" {
		s.python = os.Getenv("AUTOCUT_PY")
	}
	if s.python == "" {
		s.python = "python3"
	}
	if _, err := exec.LookPath(s.python); err != nil {
		s.initErr = fmt.Errorf("python interpreter %q not found: %w", s.python, err)
		return
	}

	s.scriptPath = filepath.Join(os.TempDir(), "autocut_silero_vad.py")
	if err := os.WriteFile(s.scriptPath, sileroScript, 0o755); err != nil {
		s.initErr = fmt.Errorf("write vad helper script: %w", err)
	}
}

// DetectSpeech writes the buffer to a temp WAV, runs the helper, and parses
// the JSON span list it prints.
func (s *Silero) DetectSpeech(ctx context.Context, buf *audio.Buffer) ([]segment.Span, error) {
	s.initOnce.Do(s.init)
	if s.initErr != nil {
		return nil, s.initErr
	}

	tmp, err := os.CreateTemp("", "autocut_vad_*.wav")
	if err != nil {
		return nil, fmt.Errorf("create temp wav: %w", err)
	}
	tmpPath := tmp.Name()
	tmp.Close()
	defer os.Remove(tmpPath)

	if err := ffmpeg.WriteWAVFile(tmpPath, buf.Samples, buf.Rate); err != nil {
		return nil, err
	}

	cmd := exec.CommandContext(ctx, s.python, s.scriptPath,
		"--audio", tmpPath,
		"--rate", strconv.Itoa(buf.Rate),
	)
	out, err := cmd.Output()
	if err != nil {
		if ee, ok := err.(*exec.ExitError); ok {
			return nil, fmt.Errorf("silero vad failed: %s", strings.TrimSpace(string(ee.Stderr)))
		}
		return nil, fmt.Errorf("run vad helper: %w", err)
	}

	var raw []sileroSpan
	if err := json.Unmarshal(out, &raw); err != nil {
		return nil, fmt.Errorf("parse vad helper output: %w", err)
	}

	spans := make([]segment.Span, 0, len(raw))
	for _, r := range raw {
		spans = append(spans, segment.Span{Start: r.Start, End: r.End})
	}
	sort.Slice(spans, func(i, j int) bool { return spans[i].Start < spans[j].Start })
	return spans, nil
}
