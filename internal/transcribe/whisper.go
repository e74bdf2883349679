package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/abadojack/whatlanggo"
	"github.com/user/vidscript-go/internal/config"
	"github.com/user/vidscript-go/internal/model"
)

// WhisperClient implements Transcriber against a Whisper-compatible HTTP API
type WhisperClient struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
}

// NewWhisperClient creates a new client
func NewWhisperClient(cfg *config.WhisperConfig) *WhisperClient {
	return &WhisperClient{
		apiKey:  cfg.APIKey,
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		model:   cfg.Model,
		client:  &http.Client{Timeout: cfg.Timeout},
	}
}

// verboseResponse is the verbose_json shape returned by the engine
type verboseResponse struct {
	Language string           `json:"language"`
	Segments []verboseSegment `json:"segments"`
}

type verboseSegment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Transcribe uploads the audio artifact and converts the engine output into
// the canonical segment format. Hints ar/en force the decoding language; the
// "both" hint omits the language field so the engine auto-detects.
func (c *WhisperClient) Transcribe(ctx context.Context, audioPath string, language model.Language) (*Result, error) {
	audio, err := os.Open(audioPath)
	if err != nil {
		return nil, fmt.Errorf("%w: open artifact: %v", ErrTranscription, err)
	}
	defer audio.Close()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", filepath.Base(audioPath))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTranscription, err)
	}
	if _, err := io.Copy(part, audio); err != nil {
		return nil, fmt.Errorf("%w: read artifact: %v", ErrTranscription, err)
	}

	fields := map[string]string{
		"model":                     c.model,
		"response_format":           "verbose_json",
		"timestamp_granularities[]": "segment",
	}
	if language != model.LanguageBoth {
		fields["language"] = string(language)
	}
	for name, value := range fields {
		if err := writer.WriteField(name, value); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrTranscription, err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTranscription, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/audio/transcriptions", &body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTranscription, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTranscription, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: engine returned %d: %s", ErrTranscription, resp.StatusCode, strings.TrimSpace(string(payload)))
	}

	var verbose verboseResponse
	if err := json.NewDecoder(resp.Body).Decode(&verbose); err != nil {
		return nil, fmt.Errorf("%w: invalid engine response: %v", ErrTranscription, err)
	}

	result := buildResult(&verbose)
	if result.DetectedLanguage == "" {
		result.DetectedLanguage = detectLanguage(result.FullText, language)
	}
	return result, nil
}

// buildResult converts the raw engine output into the canonical format.
// FullText joins the untrimmed segment texts to preserve the engine's
// spacing; the segment list carries trimmed text.
func buildResult(verbose *verboseResponse) *Result {
	segments := make([]model.Segment, 0, len(verbose.Segments))
	texts := make([]string, 0, len(verbose.Segments))
	for _, seg := range verbose.Segments {
		texts = append(texts, seg.Text)
		segments = append(segments, model.Segment{
			Start: seg.Start,
			End:   seg.End,
			Text:  strings.TrimSpace(seg.Text),
		})
	}

	return &Result{
		FullText:         strings.Join(texts, " "),
		Segments:         segments,
		DetectedLanguage: verbose.Language,
	}
}

// detectLanguage falls back to in-process detection when the engine omits the
// language field. A forced hint wins over detection.
func detectLanguage(text string, hint model.Language) string {
	if hint != model.LanguageBoth {
		return string(hint)
	}
	if strings.TrimSpace(text) == "" {
		return ""
	}
	info := whatlanggo.Detect(text)
	if !info.IsReliable() {
		return ""
	}
	return info.Lang.Iso6391()
}
