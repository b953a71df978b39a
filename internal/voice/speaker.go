package voice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Speaker synthesizes a spoken rendition of an interview question. It is
// always invoked as a detached task: the interview flow never waits on it and
// never sees its errors.
type Speaker interface {
	Speak(ctx context.Context, text, language string) error
}

// NopSpeaker disables voice synthesis.
type NopSpeaker struct{}

func (NopSpeaker) Speak(context.Context, string, string) error { return nil }

type synthesizeRequest struct {
	Text     string `json:"text"`
	Language string `json:"language"`
}

// HTTPSpeaker posts text to a TTS sidecar that synthesizes and streams the
// audio itself; the response body is drained and discarded.
type HTTPSpeaker struct {
	endpoint string
	client   *http.Client
}

func NewHTTPSpeaker(endpoint string, timeout time.Duration) *HTTPSpeaker {
	return &HTTPSpeaker{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

func (s *HTTPSpeaker) Speak(ctx context.Context, text, language string) error {
	if language == "" {
		language = "en"
	}

	payload, err := json.Marshal(synthesizeRequest{Text: text, Language: language})
	if err != nil {
		return fmt.Errorf("marshal synthesize request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build synthesize request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("call tts service: %w", err)
	}
	defer resp.Body.Close()

	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 300 {
		return fmt.Errorf("tts service returned status %d", resp.StatusCode)
	}
	return nil
}
