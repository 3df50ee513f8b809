package asr

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"github.com/sanbuphy/autocut-dev/internal/ffmpeg"
)

const (
	serverUploadTimeout = 30 * time.Minute
	serverMaxRetries    = 3
)

// ProgressFunc is called with (bytesRead, totalBytes) during upload.
type ProgressFunc func(bytesRead, totalBytes int64)

// progressReader wraps an io.Reader and reports progress.
type progressReader struct {
	reader   io.Reader
	total    int64
	read     int64
	callback ProgressFunc
}

func (pr *progressReader) Read(p []byte) (int, error) {
	n, err := pr.reader.Read(p)
	pr.read += int64(n)
	if pr.callback != nil {
		pr.callback(pr.read, pr.total)
	}
	return n, err
}

// Server talks to an OpenAI-compatible transcription endpoint
// (POST /v1/audio/transcriptions, response_format=verbose_json), typically a
// self-hosted whisper server. Requests are paced by a shared limiter so
// parallel segment dispatch cannot flood the endpoint.
type Server struct {
	BaseURL  string
	APIKey   string
	Model    string
	Limiter  *rate.Limiter // optional; nil disables pacing
	Progress ProgressFunc  // optional upload progress callback

	Client *http.Client
}

// serverResponse mirrors the verbose_json payload.
type serverResponse struct {
	Language string `json:"language"`
	Segments []struct {
		Start decimal.Decimal `json:"start"`
		End   decimal.Decimal `json:"end"`
		Text  string          `json:"text"`
	} `json:"segments"`
}

func NewServer(baseURL, apiKey, model string, rpm int) *Server {
	var limiter *rate.Limiter
	if rpm > 0 {
		limiter = rate.NewLimiter(rate.Limit(float64(rpm)/60.0), 1)
	}
	return &Server{
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		Model:   model,
		Limiter: limiter,
		Client:  &http.Client{Timeout: serverUploadTimeout},
	}
}

func (s *Server) Transcribe(ctx context.Context, samples []float32, rateHz int, opts Options) (Result, error) {
	var lastErr error
	for attempt := 0; attempt < serverMaxRetries; attempt++ {
		if s.Limiter != nil {
			if err := s.Limiter.Wait(ctx); err != nil {
				return Result{}, fmt.Errorf("rate limiter: %w", err)
			}
		}

		res, err := s.transcribeOnce(ctx, samples, rateHz, opts)
		if err == nil {
			return res, nil
		}
		lastErr = err

		if attempt < serverMaxRetries-1 {
			backoff := time.Duration(1<<uint(attempt)) * time.Second
			slog.Warn("transcription request failed, retrying",
				"attempt", attempt+1, "backoff", backoff, "err", err)

			timer := time.NewTimer(backoff)
			select {
			case <-ctx.Done():
				timer.Stop()
				return Result{}, ctx.Err()
			case <-timer.C:
			}
		}
	}
	return Result{}, fmt.Errorf("transcription failed after %d retries: %w", serverMaxRetries, lastErr)
}

func (s *Server) transcribeOnce(ctx context.Context, samples []float32, rateHz int, opts Options) (Result, error) {
	// Build multipart form body using a pipe so the WAV is streamed, not
	// buffered twice.
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	errCh := make(chan error, 1)
	go func() {
		defer pw.Close()
		defer mw.Close()

		if s.Model != "" {
			if err := mw.WriteField("model", s.Model); err != nil {
				errCh <- err
				return
			}
		}
		if err := mw.WriteField("response_format", "verbose_json"); err != nil {
			errCh <- err
			return
		}
		if opts.Language != "" && !strings.EqualFold(opts.Language, "auto") {
			if err := mw.WriteField("language", opts.Language); err != nil {
				errCh <- err
				return
			}
		}
		if opts.InitialPrompt != "" {
			if err := mw.WriteField("prompt", opts.InitialPrompt); err != nil {
				errCh <- err
				return
			}
		}

		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition",
			fmt.Sprintf(`form-data; name="file"; filename="%s.wav"`, uuid.NewString()))
		h.Set("Content-Type", "audio/wav")
		part, err := mw.CreatePart(h)
		if err != nil {
			errCh <- err
			return
		}
		errCh <- ffmpeg.WriteWAV(part, samples, rateHz)
	}()

	// WAV payload: 44-byte header + 2 bytes per sample, plus form overhead.
	estimatedTotal := int64(44+len(samples)*2) + 1024
	body := &progressReader{
		reader:   pr,
		total:    estimatedTotal,
		callback: s.Progress,
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		s.BaseURL+"/v1/audio/transcriptions", body)
	if err != nil {
		return Result{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if s.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.APIKey)
	}

	client := s.Client
	if client == nil {
		client = &http.Client{Timeout: serverUploadTimeout}
	}
	resp, err := client.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if writeErr := <-errCh; writeErr != nil {
		return Result{}, fmt.Errorf("multipart write error: %w", writeErr)
	}

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return Result{}, fmt.Errorf("server returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var sr serverResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return Result{}, fmt.Errorf("decode response: %w", err)
	}

	res := Result{Language: sr.Language, Fragments: make([]Fragment, 0, len(sr.Segments))}
	for _, seg := range sr.Segments {
		res.Fragments = append(res.Fragments, Fragment{
			Start: seg.Start.InexactFloat64(),
			End:   seg.End.InexactFloat64(),
			Text:  seg.Text,
		})
	}
	return res, nil
}
