package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// VAD mode values: "1" always segments, "0" treats the whole file as one
// segment, "auto" segments unless the input is already pre-cut.
const (
	VADOn   = "1"
	VADOff  = "0"
	VADAuto = "auto"
)

// VADSettings holds the detector choice and the segment cleanup parameters,
// times in seconds.
type VADSettings struct {
	Backend   string  `toml:"backend"` // "silero" or "energy"
	MinSpeech float64 `toml:"min_speech"`
	PadStart  float64 `toml:"pad_start"`
	PadEnd    float64 `toml:"pad_end"`
	MergeGap  float64 `toml:"merge_gap"`
}

// ASRSettings selects and configures the transcription engine.
type ASRSettings struct {
	Engine       string `toml:"engine"` // "whisper" (local CLI) or "server"
	WhisperModel string `toml:"whisper_model"`
	Device       string `toml:"device"` // "cpu" or "cuda"
	ServerURL    string `toml:"server_url"`
	ServerAPIKey string `toml:"server_api_key"`
	ServerModel  string `toml:"server_model"`
	ServerRPM    int    `toml:"server_rpm"`
}

// Config holds the full application configuration.
type Config struct {
	VAD VADSettings `toml:"vad"`
	ASR ASRSettings `toml:"asr"`

	VADMode    string `toml:"vad_mode"`
	Force      bool   `toml:"force"`
	Language   string `toml:"language"`
	Prompt     string `toml:"prompt"`
	Encoding   string `toml:"encoding"`
	SampleRate int    `toml:"sample_rate"`
	Workers    int    `toml:"workers"`
	PythonBin  string `toml:"python_bin"`
}

// Default returns a Config with the pipeline's tuned defaults.
func Default() *Config {
	return &Config{
		VAD: VADSettings{
			Backend:   "silero",
			MinSpeech: 1.0,
			PadStart:  0.2,
			PadEnd:    0.0,
			MergeGap:  0.5,
		},
		ASR: ASRSettings{
			Engine:       "whisper",
			WhisperModel: "small",
			Device:       "cpu",
			ServerRPM:    30,
		},
		VADMode:    VADAuto,
		Language:   "zh",
		Encoding:   "utf-8",
		SampleRate: 16000,
		Workers:    4,
	}
}

// LoadFile overlays TOML values from path onto cfg. A missing file is not an
// error so the default config path can be probed unconditionally.
func LoadFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config file: %w", err)
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

// Validate rejects values the pipeline cannot run with.
func (c *Config) Validate() error {
	switch c.VADMode {
	case VADOn, VADOff, VADAuto:
	default:
		return fmt.Errorf("invalid vad mode %q (want 0, 1 or auto)", c.VADMode)
	}
	switch c.VAD.Backend {
	case "silero", "energy":
	default:
		return fmt.Errorf("unknown vad backend %q", c.VAD.Backend)
	}
	switch c.ASR.Engine {
	case "whisper":
	case "server":
		if c.ASR.ServerURL == "" {
			return fmt.Errorf("server engine requires a server URL")
		}
	default:
		return fmt.Errorf("unknown asr engine %q", c.ASR.Engine)
	}
	if c.SampleRate <= 0 {
		return fmt.Errorf("invalid sample rate %d", c.SampleRate)
	}
	if c.Workers <= 0 {
		return fmt.Errorf("invalid worker count %d", c.Workers)
	}
	return nil
}
