// Package openai implements transcription against the OpenAI audio API.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"aula-backend/internal/transcribe"
)

const apiURL = "https://api.openai.com/v1/audio/transcriptions"

// Client implements transcribe.Transcriber using Whisper.
type Client struct {
	apiKey     string
	model      string
	language   string
	httpClient *http.Client
}

var _ transcribe.Transcriber = (*Client)(nil)

// NewClient constructs a new Whisper client.
func NewClient(apiKey, model, language string) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required")
	}
	if strings.TrimSpace(model) == "" {
		return nil, fmt.Errorf("TRANSCRIBE_MODEL is required")
	}
	timeout := 300 * time.Second
	if raw := strings.TrimSpace(os.Getenv("OPENAI_TIMEOUT_SECONDS")); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			timeout = time.Duration(parsed) * time.Second
		}
	}
	return &Client{
		apiKey:   apiKey,
		model:    model,
		language: language,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

type transcriptionResponse struct {
	Text     string  `json:"text"`
	Language string  `json:"language"`
	Duration float64 `json:"duration"`
	Segments []struct {
		ID           int     `json:"id"`
		Start        float64 `json:"start"`
		End          float64 `json:"end"`
		Text         string  `json:"text"`
		AvgLogprob   float64 `json:"avg_logprob"`
		NoSpeechProb float64 `json:"no_speech_prob"`
	} `json:"segments"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// Transcribe uploads the audio and returns the verbose transcript with
// segment timings.
func (c *Client) Transcribe(ctx context.Context, fileName string, audio io.Reader) (transcribe.Result, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", fileName)
	if err != nil {
		return transcribe.Result{}, err
	}
	if _, err := io.Copy(part, audio); err != nil {
		return transcribe.Result{}, err
	}
	if err := w.WriteField("model", c.model); err != nil {
		return transcribe.Result{}, err
	}
	if c.language != "" {
		if err := w.WriteField("language", c.language); err != nil {
			return transcribe.Result{}, err
		}
	}
	if err := w.WriteField("response_format", "verbose_json"); err != nil {
		return transcribe.Result{}, err
	}
	if err := w.Close(); err != nil {
		return transcribe.Result{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, &buf)
	if err != nil {
		return transcribe.Result{}, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || strings.Contains(err.Error(), "Client.Timeout") {
			return transcribe.Result{}, fmt.Errorf("openai request timeout: %w", err)
		}
		return transcribe.Result{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return transcribe.Result{}, err
	}

	var parsed transcriptionResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return transcribe.Result{}, fmt.Errorf("openai response parse: %w", err)
	}
	if parsed.Error != nil {
		return transcribe.Result{}, fmt.Errorf("openai error: %s (%s)", parsed.Error.Message, parsed.Error.Type)
	}
	if resp.StatusCode != http.StatusOK {
		return transcribe.Result{}, fmt.Errorf("openai status %d", resp.StatusCode)
	}

	out := transcribe.Result{
		Text:     strings.TrimSpace(parsed.Text),
		Language: parsed.Language,
		Duration: parsed.Duration,
	}
	for _, seg := range parsed.Segments {
		out.Segments = append(out.Segments, transcribe.Segment{
			ID:           seg.ID,
			Start:        seg.Start,
			End:          seg.End,
			Text:         seg.Text,
			AvgLogprob:   seg.AvgLogprob,
			NoSpeechProb: seg.NoSpeechProb,
		})
	}
	return out, nil
}
