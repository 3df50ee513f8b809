package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sanbuphy/autocut-dev/internal/config"
	"github.com/sanbuphy/autocut-dev/internal/worker"
)

var transcribeCmd = &cobra.Command{
	Use:   "transcribe <inputs...>",
	Short: "Transcribe media files to SRT subtitles and markdown documents",
	Long: `Transcribe one or more audio/video files. For input X.ext this writes X.srt
(subtitles), X.md (sentence curation tasks) and X_full_text.md (running
transcript). Inputs with existing outputs are skipped unless --force is set.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runTranscribe,
}

var (
	configPath string
	vadMode    string
	vadBackend string
	force      bool
	device     string
	model      string
	language   string
	prompt     string
	outEnc     string
	engine     string
	serverURL  string
	serverKey  string
	workers    int
	sampleRate int
)

func init() {
	defaults := config.Default()

	transcribeCmd.Flags().StringVar(&configPath, "config", "", "TOML config file (flags override it)")
	transcribeCmd.Flags().StringVar(&vadMode, "vad", defaults.VADMode, "voice activity detection: 1, 0 or auto")
	transcribeCmd.Flags().StringVar(&vadBackend, "vad-backend", defaults.VAD.Backend, "speech detector: silero or energy")
	transcribeCmd.Flags().BoolVar(&force, "force", false, "overwrite existing outputs")
	transcribeCmd.Flags().StringVar(&device, "device", defaults.ASR.Device, "inference device: cpu or cuda")
	transcribeCmd.Flags().StringVar(&model, "whisper-model", defaults.ASR.WhisperModel, "whisper model name")
	transcribeCmd.Flags().StringVarP(&language, "lang", "l", defaults.Language, "transcription language")
	transcribeCmd.Flags().StringVar(&prompt, "prompt", "", "initial prompt passed to the recognition model")
	transcribeCmd.Flags().StringVar(&outEnc, "encoding", defaults.Encoding, "output text encoding")
	transcribeCmd.Flags().StringVar(&engine, "engine", defaults.ASR.Engine, "transcription engine: whisper or server")
	transcribeCmd.Flags().StringVar(&serverURL, "server-url", "", "OpenAI-compatible transcription server URL")
	transcribeCmd.Flags().StringVar(&serverKey, "server-key", "", "API key for the transcription server")
	transcribeCmd.Flags().IntVarP(&workers, "workers", "j", defaults.Workers, "parallel transcription workers on cpu")
	transcribeCmd.Flags().IntVar(&sampleRate, "sample-rate", defaults.SampleRate, "working sample rate in Hz")

	rootCmd.AddCommand(transcribeCmd)
}

// validExts matches the media containers ffmpeg can reliably decode for us.
var validExts = map[string]bool{
	".mp3": true, ".m4a": true, ".wav": true, ".flac": true,
	".ogg": true, ".aac": true, ".mp4": true, ".mov": true,
	".mkv": true, ".avi": true, ".flv": true, ".webm": true,
}

func runTranscribe(cmd *cobra.Command, args []string) error {
	cfg := config.Default()
	if configPath != "" {
		if err := config.LoadFile(cfg, configPath); err != nil {
			return err
		}
	}

	// Flags override config file values only when set explicitly.
	flagOverrides := map[string]func(){
		"vad":           func() { cfg.VADMode = vadMode },
		"vad-backend":   func() { cfg.VAD.Backend = vadBackend },
		"force":         func() { cfg.Force = force },
		"device":        func() { cfg.ASR.Device = device },
		"whisper-model": func() { cfg.ASR.WhisperModel = model },
		"lang":          func() { cfg.Language = language },
		"prompt":        func() { cfg.Prompt = prompt },
		"encoding":      func() { cfg.Encoding = outEnc },
		"engine":        func() { cfg.ASR.Engine = engine },
		"server-url":    func() { cfg.ASR.ServerURL = serverURL },
		"server-key":    func() { cfg.ASR.ServerAPIKey = serverKey },
		"workers":       func() { cfg.Workers = workers },
		"sample-rate":   func() { cfg.SampleRate = sampleRate },
	}
	for name, apply := range flagOverrides {
		if cmd.Flags().Changed(name) {
			apply()
		}
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	inputs := make([]string, 0, len(args))
	for _, arg := range args {
		abs, err := filepath.Abs(arg)
		if err != nil {
			return fmt.Errorf("resolve path: %w", err)
		}
		if _, err := os.Stat(abs); os.IsNotExist(err) {
			return fmt.Errorf("file not found: %s", arg)
		}
		ext := strings.ToLower(filepath.Ext(abs))
		if !validExts[ext] {
			return fmt.Errorf("unsupported file type: %s", ext)
		}
		inputs = append(inputs, abs)
	}

	// Graceful cancellation on interrupt.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runner := &worker.Runner{Cfg: cfg}
	return runner.Run(ctx, inputs)
}
